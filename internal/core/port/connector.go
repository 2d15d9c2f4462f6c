package port

import (
	"context"

	"github.com/kovalev70/sandbox-connector/internal/core/domain"
)

// Connector is the fixed contract the host platform drives against every
// provisioning target.
type Connector interface {
	StartUp(ctx context.Context, connectionString string) error
	CreateUser(ctx context.Context, user *domain.UserToCreate) error
	GetAllProperties(ctx context.Context) ([]domain.Property, error)
	GetUserProperties(ctx context.Context, login string) ([]domain.UserProperty, error)
	IsUserExists(ctx context.Context, login string) (bool, error)
	UpdateUserProperties(ctx context.Context, properties []domain.UserProperty, login string) error
	GetAllPermissions(ctx context.Context) ([]domain.Permission, error)
	AddUserPermissions(ctx context.Context, login string, tokens []string) error
	RemoveUserPermissions(ctx context.Context, login string, tokens []string) error
	GetUserPermissions(ctx context.Context, login string) ([]string, error)
}

// Repositories is the pair of stores a started connector works against.
type Repositories struct {
	Users       UserRepository
	Permissions PermissionRepository
}

// Session is an open connection to one backend.
type Session interface {
	Repositories() Repositories
	Close()
}

// SessionFactory opens a backend session from the host connection string.
type SessionFactory interface {
	Open(ctx context.Context, connectionString string) (Session, error)
}

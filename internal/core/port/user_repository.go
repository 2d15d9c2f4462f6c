package port

import (
	"context"

	"github.com/kovalev70/sandbox-connector/internal/core/domain"
)

// UserRepository exposes persistence behavior for users and their credentials.
type UserRepository interface {
	Exists(ctx context.Context, login string) (bool, error)
	Create(ctx context.Context, user domain.User, credential domain.Credential) error
	Get(ctx context.Context, login string) (*domain.User, error)
	GetCredential(ctx context.Context, login string) (*domain.Credential, error)
	Update(ctx context.Context, user domain.User, credential domain.Credential) error
}

package port

import (
	"context"

	"github.com/kovalev70/sandbox-connector/internal/core/domain"
)

// PermissionRepository reads both permission catalogs and manages a user's grants.
type PermissionRepository interface {
	ListRequestRights(ctx context.Context) ([]domain.RequestRight, error)
	ListITRoles(ctx context.Context) ([]domain.ITRole, error)
	ListUserITRoles(ctx context.Context, login string) ([]domain.UserITRole, error)
	ListUserRequestRights(ctx context.Context, login string) ([]domain.UserRequestRight, error)
	Grant(ctx context.Context, login string, refs []domain.PermissionRef) error
	Revoke(ctx context.Context, login string, refs []domain.PermissionRef) error
}

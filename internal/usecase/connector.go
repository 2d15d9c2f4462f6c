package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kovalev70/sandbox-connector/internal/core/domain"
	"github.com/kovalev70/sandbox-connector/internal/core/port"
	"github.com/kovalev70/sandbox-connector/internal/infra/logger"
	"github.com/kovalev70/sandbox-connector/internal/repository"
)

// ConnectorService implements the host connector contract on top of the
// repositories of one backend session.
//
// Failures are logged once through the injected logger and returned to the
// caller unchanged. Nothing is retried.
type ConnectorService struct {
	sessions port.SessionFactory
	logger   *zap.Logger

	mu      sync.RWMutex
	session port.Session
	repos   port.Repositories
}

// NewConnectorService constructs a ConnectorService. The service is unusable
// until StartUp succeeds.
func NewConnectorService(sessions port.SessionFactory, log *zap.Logger) *ConnectorService {
	return &ConnectorService{
		sessions: sessions,
		logger:   logger.OrNop(log),
	}
}

// StartUp opens a backend session described by the host connection string.
// A previous session, if any, is closed once the new one is open.
func (s *ConnectorService) StartUp(ctx context.Context, connectionString string) error {
	log := s.callLogger("StartUp", "")

	if strings.TrimSpace(connectionString) == "" {
		return s.fail(log, fmt.Errorf("%w: connection string is empty", domain.ErrInvalidArgument))
	}
	if s.sessions == nil {
		return s.fail(log, fmt.Errorf("%w: no session factory configured", domain.ErrUnsupportedProvider))
	}

	session, err := s.sessions.Open(ctx, connectionString)
	if err != nil {
		return s.fail(log, err)
	}

	s.mu.Lock()
	previous := s.session
	s.session = session
	s.repos = session.Repositories()
	s.mu.Unlock()

	if previous != nil {
		previous.Close()
	}

	log.Info("connector started")
	return nil
}

// Close releases the backend session. Further calls fail with ErrNotStarted
// until StartUp is called again.
func (s *ConnectorService) Close() {
	s.mu.Lock()
	session := s.session
	s.session = nil
	s.repos = port.Repositories{}
	s.mu.Unlock()

	if session != nil {
		session.Close()
	}
}

func (s *ConnectorService) CreateUser(ctx context.Context, user *domain.UserToCreate) error {
	if user == nil {
		return s.fail(s.callLogger("CreateUser", ""), fmt.Errorf("%w: user payload is nil", domain.ErrInvalidArgument))
	}
	log := s.callLogger("CreateUser", user.Login)

	if err := requireLogin(user.Login); err != nil {
		return s.fail(log, err)
	}

	entity, err := domain.NewUser(user.Login, user.Properties)
	if err != nil {
		return s.fail(log, err)
	}
	credential := domain.Credential{
		UserID:   user.Login,
		Password: user.HashPassword,
	}

	repos, err := s.repositories()
	if err != nil {
		return s.fail(log, err)
	}

	if err := repos.Users.Create(ctx, entity, credential); err != nil {
		return s.fail(log, err)
	}

	log.Debug("user created")
	return nil
}

// GetAllProperties needs no backend and works before StartUp.
func (s *ConnectorService) GetAllProperties(context.Context) ([]domain.Property, error) {
	return domain.ListAttributeNames(), nil
}

func (s *ConnectorService) GetUserProperties(ctx context.Context, login string) ([]domain.UserProperty, error) {
	log := s.callLogger("GetUserProperties", login)

	repos, err := s.repositories()
	if err != nil {
		return nil, s.fail(log, err)
	}

	user, credential, err := loadUser(ctx, repos.Users, login)
	if err != nil {
		return nil, s.fail(log, err)
	}

	return domain.ReadAttributes(user, credential), nil
}

func (s *ConnectorService) IsUserExists(ctx context.Context, login string) (bool, error) {
	log := s.callLogger("IsUserExists", login)

	repos, err := s.repositories()
	if err != nil {
		return false, s.fail(log, err)
	}

	exists, err := repos.Users.Exists(ctx, login)
	if err != nil {
		return false, s.fail(log, err)
	}
	return exists, nil
}

// UpdateUserProperties applies the whole batch to the stored user and
// credential and persists both with a single commit.
func (s *ConnectorService) UpdateUserProperties(ctx context.Context, properties []domain.UserProperty, login string) error {
	log := s.callLogger("UpdateUserProperties", login)

	if err := requireLogin(login); err != nil {
		return s.fail(log, err)
	}

	repos, err := s.repositories()
	if err != nil {
		return s.fail(log, err)
	}

	user, credential, err := loadUser(ctx, repos.Users, login)
	if err != nil {
		return s.fail(log, err)
	}

	if err := domain.ApplyAttributes(user, credential, properties); err != nil {
		return s.fail(log, err)
	}

	if err := repos.Users.Update(ctx, *user, *credential); err != nil {
		switch {
		case errors.Is(err, repository.ErrCredentialNotFound):
			err = fmt.Errorf("%w: %q", domain.ErrCredentialNotFound, login)
		case errors.Is(err, repository.ErrNotFound):
			err = fmt.Errorf("%w: %q", domain.ErrUserNotFound, login)
		}
		return s.fail(log, err)
	}

	log.Debug("user properties updated", zap.Int("properties", len(properties)))
	return nil
}

// GetAllPermissions lists request rights followed by IT roles, each with its
// id encoded as a permission token.
func (s *ConnectorService) GetAllPermissions(ctx context.Context) ([]domain.Permission, error) {
	log := s.callLogger("GetAllPermissions", "")

	repos, err := s.repositories()
	if err != nil {
		return nil, s.fail(log, err)
	}

	rights, err := repos.Permissions.ListRequestRights(ctx)
	if err != nil {
		return nil, s.fail(log, err)
	}
	roles, err := repos.Permissions.ListITRoles(ctx)
	if err != nil {
		return nil, s.fail(log, err)
	}

	permissions := make([]domain.Permission, 0, len(rights)+len(roles))
	for _, right := range rights {
		permissions = append(permissions, domain.Permission{
			ID:   domain.EncodePermission(domain.PermissionKindRequest, right.ID),
			Name: right.Name,
		})
	}
	for _, role := range roles {
		permissions = append(permissions, domain.Permission{
			ID:   domain.EncodePermission(domain.PermissionKindRole, role.ID),
			Name: role.Name,
		})
	}
	return permissions, nil
}

// AddUserPermissions decodes every token before granting any of them.
func (s *ConnectorService) AddUserPermissions(ctx context.Context, login string, tokens []string) error {
	log := s.callLogger("AddUserPermissions", login)

	refs, err := decodeForUser(login, tokens)
	if err != nil {
		return s.fail(log, err)
	}

	repos, err := s.repositories()
	if err != nil {
		return s.fail(log, err)
	}

	if err := repos.Permissions.Grant(ctx, login, refs); err != nil {
		return s.fail(log, err)
	}

	log.Debug("permissions granted", zap.Int("permissions", len(refs)))
	return nil
}

// RemoveUserPermissions decodes every token before revoking any of them.
// Tokens without a matching grant are ignored.
func (s *ConnectorService) RemoveUserPermissions(ctx context.Context, login string, tokens []string) error {
	log := s.callLogger("RemoveUserPermissions", login)

	refs, err := decodeForUser(login, tokens)
	if err != nil {
		return s.fail(log, err)
	}

	repos, err := s.repositories()
	if err != nil {
		return s.fail(log, err)
	}

	if err := repos.Permissions.Revoke(ctx, login, refs); err != nil {
		return s.fail(log, err)
	}

	log.Debug("permissions revoked", zap.Int("permissions", len(refs)))
	return nil
}

// GetUserPermissions returns the user's role grants followed by request right
// grants, encoded as permission tokens.
func (s *ConnectorService) GetUserPermissions(ctx context.Context, login string) ([]string, error) {
	log := s.callLogger("GetUserPermissions", login)

	repos, err := s.repositories()
	if err != nil {
		return nil, s.fail(log, err)
	}

	roles, err := repos.Permissions.ListUserITRoles(ctx, login)
	if err != nil {
		return nil, s.fail(log, err)
	}
	rights, err := repos.Permissions.ListUserRequestRights(ctx, login)
	if err != nil {
		return nil, s.fail(log, err)
	}

	tokens := make([]string, 0, len(roles)+len(rights))
	for _, role := range roles {
		tokens = append(tokens, domain.EncodePermission(domain.PermissionKindRole, role.RoleID))
	}
	for _, right := range rights {
		tokens = append(tokens, domain.EncodePermission(domain.PermissionKindRequest, right.RightID))
	}
	return tokens, nil
}

func (s *ConnectorService) repositories() (port.Repositories, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return port.Repositories{}, domain.ErrNotStarted
	}
	return s.repos, nil
}

func (s *ConnectorService) callLogger(operation, login string) *zap.Logger {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("call_id", uuid.NewString()),
	}
	if login != "" {
		fields = append(fields, zap.String("login", logger.MaskString(login)))
	}
	return s.logger.With(fields...)
}

func (s *ConnectorService) fail(log *zap.Logger, err error) error {
	log.Error("connector operation failed", zap.Error(err))
	return err
}

func loadUser(ctx context.Context, users port.UserRepository, login string) (*domain.User, *domain.Credential, error) {
	user, err := users.Get(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %q", domain.ErrUserNotFound, login)
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	credential, err := users.GetCredential(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %q", domain.ErrCredentialNotFound, login)
		}
		return nil, nil, fmt.Errorf("get credential: %w", err)
	}

	return user, credential, nil
}

func decodeForUser(login string, tokens []string) ([]domain.PermissionRef, error) {
	if err := requireLogin(login); err != nil {
		return nil, err
	}
	return domain.DecodePermissions(tokens)
}

func requireLogin(login string) error {
	if strings.TrimSpace(login) == "" {
		return fmt.Errorf("%w: login is required", domain.ErrInvalidArgument)
	}
	return nil
}

var _ port.Connector = (*ConnectorService)(nil)

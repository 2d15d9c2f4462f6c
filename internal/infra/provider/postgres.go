package provider

import (
	"context"

	"go.uber.org/zap"

	"github.com/kovalev70/sandbox-connector/internal/core/port"
	"github.com/kovalev70/sandbox-connector/internal/infra/config"
	"github.com/kovalev70/sandbox-connector/internal/infra/database"
	"github.com/kovalev70/sandbox-connector/internal/repository/postgres"
)

const PostgreSQL = "postgresql"

// PostgresFactory opens a pgx pool and wraps it in a postgres.Store.
func PostgresFactory(cfg config.PostgresSettings) Factory {
	return func(ctx context.Context, settings Settings, log *zap.Logger) (port.Session, error) {
		pool, err := database.NewPostgresPool(ctx, settings.ConnectionString, settings.SchemaName, cfg, log)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(pool), nil
	}
}

// NewDefaultRegistry returns a registry with every built-in backend.
func NewDefaultRegistry(cfg config.PostgresSettings, log *zap.Logger) *Registry {
	registry := NewRegistry(log)
	_ = registry.Register(PostgreSQL, PostgresFactory(cfg))
	return registry
}

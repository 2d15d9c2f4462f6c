package postgres_test

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/kovalev70/sandbox-connector/internal/core/domain"
	"github.com/kovalev70/sandbox-connector/internal/infra/config"
	"github.com/kovalev70/sandbox-connector/internal/infra/provider"
	"github.com/kovalev70/sandbox-connector/internal/usecase"
)

//go:embed testdata/migrations/*.sql
var migrationsFS embed.FS

const (
	sandboxSchema   = "AvanpostIntegrationTestTaskSchema"
	sandboxDatabase = "sandbox"
	sandboxUser     = "sandbox"
	sandboxPassword = "test-password"
)

// startSandbox runs PostgreSQL in a container, applies the sandbox schema and
// returns a started connector.
func startSandbox(t *testing.T) *usecase.ConnectorService {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase(sandboxDatabase),
		postgres.WithUsername(sandboxUser),
		postgres.WithPassword(sandboxPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("container connection string: %v", err)
	}
	applyMigrations(t, "pgx5://"+strings.TrimPrefix(dsn, "postgres://"))

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	connectionString := fmt.Sprintf(
		"ConnectionString='Server=%s;Port=%s;Database=%s;Username=%s;Password=%s;';Provider='PostgreSQL.9.5';SchemaName='%s';",
		host, port.Port(), sandboxDatabase, sandboxUser, sandboxPassword, sandboxSchema,
	)

	log := zaptest.NewLogger(t)
	registry := provider.NewDefaultRegistry(config.PostgresSettings{MaxConns: 2}, log)
	service := usecase.NewConnectorService(registry, log)
	if err := service.StartUp(ctx, connectionString); err != nil {
		t.Fatalf("StartUp returned error: %v", err)
	}
	t.Cleanup(service.Close)

	return service
}

func applyMigrations(t *testing.T, url string) {
	t.Helper()

	source, err := iofs.New(migrationsFS, "testdata/migrations")
	if err != nil {
		t.Fatalf("create migration source: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		t.Fatalf("init migrations: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("apply migrations: %v", err)
	}
}

func TestIntegrationUserLifecycle(t *testing.T) {
	service := startSandbox(t)
	ctx := context.Background()

	err := service.CreateUser(ctx, &domain.UserToCreate{
		Login:        "jdoe",
		HashPassword: "h1",
		Properties: []domain.UserProperty{
			{Name: domain.AttrFirstName, Value: "Jane"},
			{Name: domain.AttrIsLead, Value: "true"},
		},
	})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	exists, err := service.IsUserExists(ctx, "jdoe")
	if err != nil || !exists {
		t.Fatalf("expected jdoe to exist, got %v (err=%v)", exists, err)
	}

	props, err := service.GetUserProperties(ctx, "jdoe")
	if err != nil {
		t.Fatalf("GetUserProperties returned error: %v", err)
	}
	values := propertyMap(props)
	if values[domain.AttrFirstName] != "Jane" || values[domain.AttrLastName] != "" || values[domain.AttrPassword] != "h1" {
		t.Fatalf("unexpected properties after create: %v", values)
	}

	err = service.UpdateUserProperties(ctx, []domain.UserProperty{
		{Name: domain.AttrLastName, Value: "Doe"},
		{Name: "password", Value: "h2"},
	}, "jdoe")
	if err != nil {
		t.Fatalf("UpdateUserProperties returned error: %v", err)
	}

	props, err = service.GetUserProperties(ctx, "jdoe")
	if err != nil {
		t.Fatalf("GetUserProperties returned error: %v", err)
	}
	values = propertyMap(props)
	if values[domain.AttrLastName] != "Doe" || values[domain.AttrPassword] != "h2" {
		t.Fatalf("unexpected properties after update: %v", values)
	}

	if _, err := service.GetUserProperties(ctx, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIntegrationPermissions(t *testing.T) {
	service := startSandbox(t)
	ctx := context.Background()

	if err := service.CreateUser(ctx, &domain.UserToCreate{Login: "jdoe", HashPassword: "h1"}); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	catalog, err := service.GetAllPermissions(ctx)
	if err != nil {
		t.Fatalf("GetAllPermissions returned error: %v", err)
	}
	if len(catalog) != 4 || catalog[0].ID != "Request:1" || catalog[2].ID != "Role:5" {
		t.Fatalf("unexpected catalog %+v", catalog)
	}

	if err := service.AddUserPermissions(ctx, "jdoe", []string{"Role:7", "Request:2"}); err != nil {
		t.Fatalf("AddUserPermissions returned error: %v", err)
	}
	tokens, err := service.GetUserPermissions(ctx, "jdoe")
	if err != nil {
		t.Fatalf("GetUserPermissions returned error: %v", err)
	}
	if strings.Join(tokens, ",") != "Role:7,Request:2" {
		t.Fatalf("unexpected grants %v", tokens)
	}

	// The sandbox schema has no uniqueness constraint on grants.
	if err := service.AddUserPermissions(ctx, "jdoe", []string{"Role:7"}); err != nil {
		t.Fatalf("duplicate AddUserPermissions returned error: %v", err)
	}
	tokens, err = service.GetUserPermissions(ctx, "jdoe")
	if err != nil {
		t.Fatalf("GetUserPermissions returned error: %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("expected duplicate grant to be stored, got %v", tokens)
	}

	// One revoke removes every duplicate row of the grant.
	if err := service.RemoveUserPermissions(ctx, "jdoe", []string{"Role:7"}); err != nil {
		t.Fatalf("RemoveUserPermissions returned error: %v", err)
	}
	tokens, err = service.GetUserPermissions(ctx, "jdoe")
	if err != nil {
		t.Fatalf("GetUserPermissions returned error: %v", err)
	}
	if strings.Join(tokens, ",") != "Request:2" {
		t.Fatalf("expected one revoke to drop both Role:7 rows, got %v", tokens)
	}

	if err := service.RemoveUserPermissions(ctx, "jdoe", []string{"Role:7"}); err != nil {
		t.Fatalf("repeated RemoveUserPermissions returned error: %v", err)
	}
	tokens, err = service.GetUserPermissions(ctx, "jdoe")
	if err != nil {
		t.Fatalf("GetUserPermissions returned error: %v", err)
	}
	if strings.Join(tokens, ",") != "Request:2" {
		t.Fatalf("expected repeated revoke to be a no-op, got %v", tokens)
	}

	// A grant batch that fails on the store leaves no partial writes.
	if err := service.AddUserPermissions(ctx, "jdoe", []string{"Role:5", "Role:999"}); err == nil {
		t.Fatalf("expected foreign key violation for unknown role")
	}
	tokens, err = service.GetUserPermissions(ctx, "jdoe")
	if err != nil {
		t.Fatalf("GetUserPermissions returned error: %v", err)
	}
	if strings.Join(tokens, ",") != "Request:2" {
		t.Fatalf("expected failed batch to be rolled back, got %v", tokens)
	}
}

func propertyMap(props []domain.UserProperty) map[string]string {
	values := make(map[string]string, len(props))
	for _, prop := range props {
		values[prop.Name] = prop.Value
	}
	return values
}

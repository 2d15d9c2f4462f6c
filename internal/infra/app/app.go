package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/kovalev70/sandbox-connector/internal/core/port"
	"github.com/kovalev70/sandbox-connector/internal/infra/config"
	"github.com/kovalev70/sandbox-connector/internal/infra/logger"
	"github.com/kovalev70/sandbox-connector/internal/infra/provider"
	"github.com/kovalev70/sandbox-connector/internal/infra/telemetry"
	"github.com/kovalev70/sandbox-connector/internal/usecase"
)

// Application wires the connector service with its telemetry decorators.
type Application struct {
	cfg       *config.AppConfig
	logger    *zap.Logger
	service   *usecase.ConnectorService
	connector port.Connector
	tracer    *telemetry.TracerProvider
}

// Options override collaborators built from config.
type Options struct {
	Logger     *zap.Logger
	Sessions   port.SessionFactory
	Registerer prometheus.Registerer
	// TracerOptions are appended to the tracer provider built from config,
	// e.g. span processors owned by the host.
	TracerOptions []sdktrace.TracerProviderOption
}

func New(ctx context.Context, cfg *config.AppConfig, opts Options) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	log := opts.Logger
	if log == nil {
		var err error
		log, err = logger.New(cfg.App.Env)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	sessions := opts.Sessions
	if sessions == nil {
		sessions = provider.NewDefaultRegistry(cfg.Postgres, log)
	}

	service := usecase.NewConnectorService(sessions, log)

	metrics, err := telemetry.NewMetrics(service, telemetry.MetricsOptions{
		Registerer: opts.Registerer,
		Namespace:  cfg.Telemetry.MetricsNamespace,
	})
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log, opts.TracerOptions...)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	return &Application{
		cfg:       cfg,
		logger:    log,
		service:   service,
		connector: telemetry.NewTracedConnector(metrics, tracer.Tracer(cfg.Telemetry.TracerName)),
		tracer:    tracer,
	}, nil
}

// Connector returns the instrumented connector contract.
func (a *Application) Connector() port.Connector {
	return a.connector
}

// Run starts the connector against the configured connection string and
// logs a summary of what the backend exposes.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.Close(context.Background())

	connectionString := strings.TrimSpace(a.cfg.Connector.ConnectionString)
	if connectionString == "" {
		return fmt.Errorf("connector connection string is not configured")
	}

	timeout := a.cfg.Connector.StartupTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	startCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	a.logger.Info("starting connector",
		zap.String("env", a.cfg.App.Env),
		zap.Duration("startup_timeout", timeout),
	)

	if err := a.connector.StartUp(startCtx, connectionString); err != nil {
		return fmt.Errorf("start connector: %w", err)
	}

	properties, err := a.connector.GetAllProperties(ctx)
	if err != nil {
		return fmt.Errorf("list properties: %w", err)
	}
	permissions, err := a.connector.GetAllPermissions(ctx)
	if err != nil {
		return fmt.Errorf("list permissions: %w", err)
	}

	a.logger.Info("connector ready",
		zap.Int("properties", len(properties)),
		zap.Int("permissions", len(permissions)),
	)
	return nil
}

// Close releases the backend session and flushes spans.
func (a *Application) Close(ctx context.Context) {
	a.service.Close()
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Warn("tracer shutdown failed", zap.Error(err))
	}
}

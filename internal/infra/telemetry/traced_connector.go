package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kovalev70/sandbox-connector/internal/core/domain"
	"github.com/kovalev70/sandbox-connector/internal/core/port"
)

// TracedConnector opens one span per contract call. Logins and tokens are not
// recorded; only batch sizes are.
type TracedConnector struct {
	next   port.Connector
	tracer trace.Tracer
}

func NewTracedConnector(next port.Connector, tracer trace.Tracer) *TracedConnector {
	return &TracedConnector{next: next, tracer: tracer}
}

func (c *TracedConnector) start(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "connector."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(append(attrs, attribute.String("connector.operation", operation))...),
	)
}

func finish(span trace.Span, err error) {
	span.SetAttributes(attribute.String("connector.outcome", Outcome(err)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *TracedConnector) StartUp(ctx context.Context, connectionString string) error {
	ctx, span := c.start(ctx, "StartUp")
	err := c.next.StartUp(ctx, connectionString)
	finish(span, err)
	return err
}

func (c *TracedConnector) CreateUser(ctx context.Context, user *domain.UserToCreate) error {
	var props int
	if user != nil {
		props = len(user.Properties)
	}
	ctx, span := c.start(ctx, "CreateUser", attribute.Int("connector.properties", props))
	err := c.next.CreateUser(ctx, user)
	finish(span, err)
	return err
}

func (c *TracedConnector) GetAllProperties(ctx context.Context) ([]domain.Property, error) {
	ctx, span := c.start(ctx, "GetAllProperties")
	props, err := c.next.GetAllProperties(ctx)
	finish(span, err)
	return props, err
}

func (c *TracedConnector) GetUserProperties(ctx context.Context, login string) ([]domain.UserProperty, error) {
	ctx, span := c.start(ctx, "GetUserProperties")
	props, err := c.next.GetUserProperties(ctx, login)
	finish(span, err)
	return props, err
}

func (c *TracedConnector) IsUserExists(ctx context.Context, login string) (bool, error) {
	ctx, span := c.start(ctx, "IsUserExists")
	exists, err := c.next.IsUserExists(ctx, login)
	finish(span, err)
	return exists, err
}

func (c *TracedConnector) UpdateUserProperties(ctx context.Context, properties []domain.UserProperty, login string) error {
	ctx, span := c.start(ctx, "UpdateUserProperties", attribute.Int("connector.properties", len(properties)))
	err := c.next.UpdateUserProperties(ctx, properties, login)
	finish(span, err)
	return err
}

func (c *TracedConnector) GetAllPermissions(ctx context.Context) ([]domain.Permission, error) {
	ctx, span := c.start(ctx, "GetAllPermissions")
	permissions, err := c.next.GetAllPermissions(ctx)
	finish(span, err)
	return permissions, err
}

func (c *TracedConnector) AddUserPermissions(ctx context.Context, login string, tokens []string) error {
	ctx, span := c.start(ctx, "AddUserPermissions", attribute.Int("connector.permissions", len(tokens)))
	err := c.next.AddUserPermissions(ctx, login, tokens)
	finish(span, err)
	return err
}

func (c *TracedConnector) RemoveUserPermissions(ctx context.Context, login string, tokens []string) error {
	ctx, span := c.start(ctx, "RemoveUserPermissions", attribute.Int("connector.permissions", len(tokens)))
	err := c.next.RemoveUserPermissions(ctx, login, tokens)
	finish(span, err)
	return err
}

func (c *TracedConnector) GetUserPermissions(ctx context.Context, login string) ([]string, error) {
	ctx, span := c.start(ctx, "GetUserPermissions")
	tokens, err := c.next.GetUserPermissions(ctx, login)
	finish(span, err)
	return tokens, err
}

var _ port.Connector = (*TracedConnector)(nil)

package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kovalev70/sandbox-connector/internal/core/domain"
	"github.com/kovalev70/sandbox-connector/internal/core/port"
)

// MetricsOptions controls construction of connector metrics collectors.
type MetricsOptions struct {
	Registerer prometheus.Registerer
	Namespace  string
	Subsystem  string
	Buckets    []float64
}

// Metrics is a port.Connector decorator recording call counts and latencies
// per operation and outcome.
type Metrics struct {
	next     port.Connector
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers collectors with the supplied registerer and wraps next.
func NewMetrics(next port.Connector, opts MetricsOptions) (*Metrics, error) {
	if next == nil {
		return nil, fmt.Errorf("telemetry: connector is nil")
	}

	namespace := opts.Namespace
	if namespace == "" {
		namespace = "connector"
	}

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	buckets := opts.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: opts.Subsystem,
		Name:      "calls_total",
		Help:      "Total number of connector contract calls partitioned by operation and outcome.",
	}, []string{"operation", "outcome"})

	if err := reg.Register(calls); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, fmt.Errorf("existing connector calls collector has wrong type %T", already.ExistingCollector)
			}
			calls = existing
		} else {
			return nil, fmt.Errorf("register connector calls collector: %w", err)
		}
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: opts.Subsystem,
		Name:      "call_duration_seconds",
		Help:      "Histogram of connector contract call latencies in seconds partitioned by operation and outcome.",
		Buckets:   buckets,
	}, []string{"operation", "outcome"})

	if err := reg.Register(duration); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				return nil, fmt.Errorf("existing connector duration collector has wrong type %T", already.ExistingCollector)
			}
			duration = existing
		} else {
			return nil, fmt.Errorf("register connector duration collector: %w", err)
		}
	}

	return &Metrics{next: next, calls: calls, duration: duration}, nil
}

func (m *Metrics) observe(operation string, start time.Time, err error) {
	labels := prometheus.Labels{
		"operation": operation,
		"outcome":   Outcome(err),
	}
	m.calls.With(labels).Inc()
	m.duration.With(labels).Observe(time.Since(start).Seconds())
}

func (m *Metrics) StartUp(ctx context.Context, connectionString string) error {
	start := time.Now()
	err := m.next.StartUp(ctx, connectionString)
	m.observe("StartUp", start, err)
	return err
}

func (m *Metrics) CreateUser(ctx context.Context, user *domain.UserToCreate) error {
	start := time.Now()
	err := m.next.CreateUser(ctx, user)
	m.observe("CreateUser", start, err)
	return err
}

func (m *Metrics) GetAllProperties(ctx context.Context) ([]domain.Property, error) {
	start := time.Now()
	props, err := m.next.GetAllProperties(ctx)
	m.observe("GetAllProperties", start, err)
	return props, err
}

func (m *Metrics) GetUserProperties(ctx context.Context, login string) ([]domain.UserProperty, error) {
	start := time.Now()
	props, err := m.next.GetUserProperties(ctx, login)
	m.observe("GetUserProperties", start, err)
	return props, err
}

func (m *Metrics) IsUserExists(ctx context.Context, login string) (bool, error) {
	start := time.Now()
	exists, err := m.next.IsUserExists(ctx, login)
	m.observe("IsUserExists", start, err)
	return exists, err
}

func (m *Metrics) UpdateUserProperties(ctx context.Context, properties []domain.UserProperty, login string) error {
	start := time.Now()
	err := m.next.UpdateUserProperties(ctx, properties, login)
	m.observe("UpdateUserProperties", start, err)
	return err
}

func (m *Metrics) GetAllPermissions(ctx context.Context) ([]domain.Permission, error) {
	start := time.Now()
	permissions, err := m.next.GetAllPermissions(ctx)
	m.observe("GetAllPermissions", start, err)
	return permissions, err
}

func (m *Metrics) AddUserPermissions(ctx context.Context, login string, tokens []string) error {
	start := time.Now()
	err := m.next.AddUserPermissions(ctx, login, tokens)
	m.observe("AddUserPermissions", start, err)
	return err
}

func (m *Metrics) RemoveUserPermissions(ctx context.Context, login string, tokens []string) error {
	start := time.Now()
	err := m.next.RemoveUserPermissions(ctx, login, tokens)
	m.observe("RemoveUserPermissions", start, err)
	return err
}

func (m *Metrics) GetUserPermissions(ctx context.Context, login string) ([]string, error) {
	start := time.Now()
	tokens, err := m.next.GetUserPermissions(ctx, login)
	m.observe("GetUserPermissions", start, err)
	return tokens, err
}

var _ port.Connector = (*Metrics)(nil)

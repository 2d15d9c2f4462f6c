// Package provider resolves the "Provider" entry of a host connection string
// to a backend session.
package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kovalev70/sandbox-connector/internal/core/domain"
	"github.com/kovalev70/sandbox-connector/internal/core/port"
	"github.com/kovalev70/sandbox-connector/internal/infra/connstring"
	"github.com/kovalev70/sandbox-connector/internal/infra/logger"
)

// Settings are the parts of a host connection string a backend needs.
type Settings struct {
	Provider         string
	ConnectionString string
	SchemaName       string
}

// Factory opens a session for one backend kind.
type Factory func(ctx context.Context, settings Settings, log *zap.Logger) (port.Session, error)

// Registry maps provider names to factories. A provider value matches a
// registered name when it contains it, ignoring case, so "PostgreSQL.9.5"
// resolves to "postgresql".
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	log       *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		factories: map[string]Factory{},
		log:       logger.OrNop(log),
	}
}

func (r *Registry) Register(name string, factory Factory) error {
	if r == nil {
		return fmt.Errorf("provider: registry is nil")
	}
	name = normalizeName(name)
	if name == "" {
		return fmt.Errorf("provider: name is required")
	}
	if factory == nil {
		return fmt.Errorf("provider: factory is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("provider: %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the factory whose name is contained in provider. When
// several match, the longest name wins.
func (r *Registry) Resolve(provider string) (string, Factory, error) {
	value := normalizeName(provider)
	if value == "" {
		return "", nil, fmt.Errorf("%w: provider is not set", domain.ErrUnsupportedProvider)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		bestName    string
		bestFactory Factory
	)
	for name, factory := range r.factories {
		if !strings.Contains(value, name) {
			continue
		}
		if len(name) > len(bestName) || (len(name) == len(bestName) && name < bestName) {
			bestName, bestFactory = name, factory
		}
	}
	if bestFactory == nil {
		return "", nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, provider)
	}
	return bestName, bestFactory, nil
}

// Open parses the host connection string and opens a session with the
// matching backend.
func (r *Registry) Open(ctx context.Context, connectionString string) (port.Session, error) {
	settings, err := ParseSettings(connectionString)
	if err != nil {
		return nil, err
	}

	name, factory, err := r.Resolve(settings.Provider)
	if err != nil {
		return nil, err
	}

	session, err := factory(ctx, settings, r.log.With(zap.String("provider", name)))
	if err != nil {
		return nil, fmt.Errorf("open %s session: %w", name, err)
	}
	if session == nil {
		return nil, fmt.Errorf("provider: factory for %q returned nil session", name)
	}
	return session, nil
}

// ParseSettings extracts the provider, backend connection string and schema
// from a host connection string.
func ParseSettings(connectionString string) (Settings, error) {
	values, err := connstring.Parse(connectionString)
	if err != nil {
		return Settings{}, err
	}

	var settings Settings
	settings.Provider, _ = values.Get(connstring.KeyProvider)
	settings.ConnectionString, _ = values.Get(connstring.KeyConnectionString)
	settings.SchemaName, _ = values.Get(connstring.KeySchemaName)

	if strings.TrimSpace(settings.Provider) == "" {
		return Settings{}, fmt.Errorf("%w: connection string has no %s", domain.ErrUnsupportedProvider, connstring.KeyProvider)
	}
	if strings.TrimSpace(settings.ConnectionString) == "" {
		return Settings{}, fmt.Errorf("%w: connection string has no %s", domain.ErrInvalidArgument, connstring.KeyConnectionString)
	}
	return settings, nil
}

func normalizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

var _ port.SessionFactory = (*Registry)(nil)

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Connector ConnectorSettings `mapstructure:"connector"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// ConnectorSettings carries the host connection string used by the smoke runner.
type ConnectorSettings struct {
	ConnectionString string        `mapstructure:"connection_string"`
	StartupTimeout   time.Duration `mapstructure:"startup_timeout"`
}

// PostgresSettings tunes the pgx pool opened for the PostgreSQL provider.
type PostgresSettings struct {
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

type TelemetrySettings struct {
	MetricsNamespace string  `mapstructure:"metrics_namespace"`
	TracerName       string  `mapstructure:"tracer_name"`
	SamplingRate     float64 `mapstructure:"sampling_rate"`
	OTLPEndpoint     string  `mapstructure:"otlp_endpoint"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CONNECTOR")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"connector.connection_string",
		"connector.startup_timeout",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"telemetry.metrics_namespace",
		"telemetry.tracer_name",
		"telemetry.sampling_rate",
		"telemetry.otlp_endpoint",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sandbox-connector")
	v.SetDefault("app.env", "development")

	v.SetDefault("connector.connection_string", "")
	v.SetDefault("connector.startup_timeout", "15s")

	// A connector instance drives a single logical session.
	v.SetDefault("postgres.max_conns", 4)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("telemetry.metrics_namespace", "connector")
	v.SetDefault("telemetry.tracer_name", "sandbox-connector")
	v.SetDefault("telemetry.sampling_rate", 1.0)
	v.SetDefault("telemetry.otlp_endpoint", "")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "CONNECTOR_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "MINISHOP_"

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		Version  string `koanf:"version"`
		Env      string `koanf:"env"`
		HTTPAddr string `koanf:"http_addr"`
	} `koanf:"app"`

	Log struct {
		Level string `koanf:"level"`
		File  string `koanf:"file"`
	} `koanf:"log"`

	HTTP struct {
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		RequestTimeout  time.Duration `koanf:"request_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"http"`

	Store struct {
		Driver string `koanf:"driver"`
	} `koanf:"store"`

	Postgres struct {
		DSN      string `koanf:"dsn"`
		MaxConns int32  `koanf:"max_conns"`
		MinConns int32  `koanf:"min_conns"`
		Migrate  bool   `koanf:"migrate"`
	} `koanf:"postgres"`

	Redis struct {
		Addr     string        `koanf:"addr"`
		Password string        `koanf:"password"`
		DB       int           `koanf:"db"`
		OrderTTL time.Duration `koanf:"order_ttl"`
	} `koanf:"redis"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
		Topic   string   `koanf:"topic"`
	} `koanf:"kafka"`

	Telemetry struct {
		OTLPEndpoint string  `koanf:"otlp_endpoint"`
		Insecure     bool    `koanf:"insecure"`
		SampleRatio  float64 `koanf:"sample_ratio"`
	} `koanf:"telemetry"`

	Order struct {
		CompensationTimeout time.Duration `koanf:"compensation_timeout"`
	} `koanf:"order"`

	Events struct {
		QueueSize      int           `koanf:"queue_size"`
		Concurrency    int           `koanf:"concurrency"`
		HandlerTimeout time.Duration `koanf:"handler_timeout"`
	} `koanf:"events"`
}

// Load layers <dir>/base.yaml, the optional <dir>/<envName>.yaml and
// MINISHOP_* environment variables (nested keys joined with "__",
// e.g. MINISHOP_POSTGRES__DSN). List values in the environment are comma separated.
func Load(dir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(filepath.Join(dir, "base.yaml")), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	if envName != "" {
		overlay := filepath.Join(dir, envName+".yaml")
		if _, err := os.Stat(overlay); err == nil {
			if err := k.Load(file.Provider(overlay), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", envName, err)
			}
		}
	}

	// 3) environment variables override
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(key, envPrefix)
		key = strings.ToLower(strings.ReplaceAll(key, "__", "."))
		if strings.Contains(value, ",") {
			return key, splitCSV(value)
		}
		return key, value
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name required")
	}
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn required when store.driver is %q", StorePostgres)
		}
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store.Driver)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic required when kafka.brokers is set")
	}
	if c.Order.CompensationTimeout <= 0 {
		return fmt.Errorf("order.compensation_timeout must be positive")
	}
	if c.Events.QueueSize < 0 || c.Events.Concurrency < 0 || c.Events.HandlerTimeout < 0 {
		return fmt.Errorf("events settings must not be negative")
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testBase = `
app:
  name: minishop
  http_addr: ":8080"
store:
  driver: memory
kafka:
  topic: minishop.events
redis:
  order_ttl: 5m
order:
  compensation_timeout: 5s
events:
  queue_size: 64
  concurrency: 2
  handler_timeout: 3s
`

func writeConfig(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadBase(t *testing.T) {
	dir := writeConfig(t, map[string]string{"base.yaml": testBase})

	cfg, err := Load(dir, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Name != "minishop" || cfg.Store.Driver != StoreMemory {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Redis.OrderTTL != 5*time.Minute || cfg.Order.CompensationTimeout != 5*time.Second {
		t.Fatalf("durations = %v %v", cfg.Redis.OrderTTL, cfg.Order.CompensationTimeout)
	}
	if cfg.Events.QueueSize != 64 || cfg.Events.Concurrency != 2 || cfg.Events.HandlerTimeout != 3*time.Second {
		t.Fatalf("events = %+v", cfg.Events)
	}
}

func TestLoadOverlayAndEnv(t *testing.T) {
	dir := writeConfig(t, map[string]string{
		"base.yaml": testBase,
		"prod.yaml": "app:\n  http_addr: \":9090\"\nstore:\n  driver: postgres\npostgres:\n  dsn: postgres://overlay\n",
	})
	t.Setenv("MINISHOP_POSTGRES__DSN", "postgres://env")
	t.Setenv("MINISHOP_KAFKA__BROKERS", "k1:9092, k2:9092")

	cfg, err := Load(dir, "prod")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.HTTPAddr != ":9090" {
		t.Fatalf("http_addr = %q", cfg.App.HTTPAddr)
	}
	if cfg.Postgres.DSN != "postgres://env" {
		t.Fatalf("dsn = %q", cfg.Postgres.DSN)
	}
	if strings.Join(cfg.Kafka.Brokers, ",") != "k1:9092,k2:9092" {
		t.Fatalf("brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestLoadMissingOverlayIsIgnored(t *testing.T) {
	dir := writeConfig(t, map[string]string{"base.yaml": testBase})
	if _, err := Load(dir, "staging"); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestValidate(t *testing.T) {
	dir := writeConfig(t, map[string]string{"base.yaml": testBase})
	base, err := Load(dir, "")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing name", func(c *Config) { c.App.Name = "" }, "app.name"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = StorePostgres }, "postgres.dsn"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }, "store.driver"},
		{"brokers without topic", func(c *Config) { c.Kafka.Brokers = []string{"k1"}; c.Kafka.Topic = "" }, "kafka.topic"},
		{"zero compensation timeout", func(c *Config) { c.Order.CompensationTimeout = 0 }, "compensation_timeout"},
		{"negative event concurrency", func(c *Config) { c.Events.Concurrency = -1 }, "events"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `planning:
  plan_file: "plan.yaml"
  grid_hours: 48
  cron: "0 * * * *"
  timezone: "Australia/Perth"
  watch: true
history:
  backend: "sqlite"
  path: "/tmp/schedules.db"
http:
  address: ":9000"
  token: "secret"
  rate_limit: 2
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  qos: 1
  use_tls: false
metrics:
  prometheus_port: ":2112"
  sinks:
    - type: "nop"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"plan_file", cfg.Planning.PlanFile, "plan.yaml"},
		{"grid_hours", cfg.Planning.GridHours, 48},
		{"cron", cfg.Planning.Cron, "0 * * * *"},
		{"timezone", cfg.Planning.Timezone, "Australia/Perth"},
		{"watch", cfg.Planning.Watch, true},
		{"watch_debounce_ms", cfg.Planning.WatchDebounceMS, 250},
		{"history.backend", cfg.History.Backend, "sqlite"},
		{"history.path", cfg.History.Path, "/tmp/schedules.db"},
		{"http.address", cfg.HTTP.Address, ":9000"},
		{"http.token", cfg.HTTP.Token, "secret"},
		{"http.rate_burst", cfg.HTTP.RateBurst, 1},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"username", cfg.MQTT.Username, "user"},
		{"password", cfg.MQTT.Password, "pass"},
		{"qos", cfg.MQTT.QoS, byte(1)},
		{"schedule_topic", cfg.MQTT.ScheduleTopic, DefaultScheduleTopic},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, ":2112"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "config.json", `{"planning": {"plan_file": "plan.json"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 24, cfg.Planning.GridHours)
	assert.Equal(t, "UTC", cfg.Planning.Timezone)
	assert.Equal(t, "jsonl", cfg.History.Backend)
	assert.Equal(t, "schedules.jsonl", cfg.History.Path)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout())
	assert.False(t, cfg.MQTT.Enabled())
	assert.Empty(t, cfg.MQTT.ScheduleTopic)
	assert.Equal(t, 250*time.Millisecond, cfg.Planning.WatchDebounce())
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", "http:\n  address: \":8080\"\n")
	t.Setenv("K_HTTP__ADDRESS", ":7070")
	t.Setenv("K_PLANNING__GENERATED_BY", "ops")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Address)
	assert.Equal(t, "ops", cfg.Planning.GeneratedBy)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"unsupported format", "config.toml", "x = 1"},
		{"grid hours too large", "config.yaml", "planning:\n  grid_hours: 500\n"},
		{"bad cron", "config.yaml", "planning:\n  plan_file: p.yaml\n  cron: \"not a cron\"\n"},
		{"bad timezone", "config.yaml", "planning:\n  timezone: \"Mars/Olympus\"\n"},
		{"cron without plan", "config.yaml", "planning:\n  cron: \"@hourly\"\n"},
		{"unknown backend", "config.yaml", "history:\n  backend: \"postgres\"\n"},
		{"negative rotation", "config.yaml", "history:\n  max_size_mb: -1\n"},
		{"negative rate", "config.yaml", "http:\n  rate_limit: -1\n"},
		{"bad qos", "config.yaml", "mqtt:\n  qos: 3\n"},
		{"bad sample rate", "config.yaml", "sentry:\n  traces_sample_rate: 2\n"},
		{"sink without type", "config.yaml", "metrics:\n  sinks:\n    - conf: {}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHistoryStore(t *testing.T) {
	c := HistoryConfig{Backend: "jsonl", Path: "h.jsonl", MaxSizeMB: 5, MaxBackups: 2}
	s := c.Store()
	assert.Equal(t, "jsonl", s.Backend)
	assert.Equal(t, 5, s.MaxSizeMB)
	assert.Equal(t, 2, s.MaxBackups)
}

func TestSQLiteDefaultPath(t *testing.T) {
	c := HistoryConfig{Backend: "sqlite"}
	c.SetDefaults()
	assert.Equal(t, "schedules.db", c.Path)
}

func TestSentryDefaults(t *testing.T) {
	var c SentryConfig
	assert.False(t, c.Enabled())
	c.SetDefaults()
	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 2000, c.FlushTimeoutMS)
	c.DSN = "https://k@o0.ingest.sentry.io/1"
	assert.True(t, c.Enabled())
	assert.NoError(t, c.Validate())
}

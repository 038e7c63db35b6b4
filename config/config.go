package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/mineplan/core/metrics"
	"github.com/kilianp07/mineplan/infra/mqtt"
)

// DefaultScheduleTopic is used when a broker is set without a topic.
const DefaultScheduleTopic = "mineplan/schedule"

type Config struct {
	Planning PlanningConfig `json:"planning"`
	History  HistoryConfig  `json:"history"`
	HTTP     HTTPConfig     `json:"http"`
	MQTT     mqtt.Config    `json:"mqtt"`
	Metrics  metrics.Config `json:"metrics"`
	Sentry   SentryConfig   `json:"sentry"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Planning.SetDefaults()
	c.History.SetDefaults()
	c.HTTP.SetDefaults()
	c.Sentry.SetDefaults()
	if c.MQTT.Enabled() && c.MQTT.ScheduleTopic == "" {
		c.MQTT.ScheduleTopic = DefaultScheduleTopic
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "mineplan"
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Planning.Validate(); err != nil {
		return err
	}
	if err := c.History.Validate(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt: qos must be 0, 1 or 2")
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d has no type", i)
		}
	}
	return nil
}

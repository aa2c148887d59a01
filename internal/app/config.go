package app

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "workerbot/core/config"
	coredatabase "workerbot/core/database"
)

// SupportConfig names the operator who receives escalated messages.
type SupportConfig struct {
	OperatorID int64 `yaml:"operator_id" envconfig:"SUPPORT_OPERATOR_ID"`
}

// SessionConfig tunes conversation state retention.
type SessionConfig struct {
	// TTLMinutes expires idle sessions; 0 keeps them forever.
	TTLMinutes int `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
}

// DemoConfig controls optional fixture data.
type DemoConfig struct {
	SeedOrders bool `yaml:"seed_orders" envconfig:"DEMO_SEED_ORDERS"`
}

// Config is the full application configuration: the shared core settings
// plus the bot's own sections.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Support  SupportConfig       `yaml:"support"`
	Session  SessionConfig       `yaml:"session"`
	Demo     DemoConfig          `yaml:"demo"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// LoadConfig reads YAML, overlays environment variables and validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	return &cfg, nil
}

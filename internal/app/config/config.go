// Package config loads the backend's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sindrekaurin/grefur-backend/internal/adapters/mqttingest"
	"github.com/Sindrekaurin/grefur-backend/internal/domain"
)

type Config struct {
	MQTT     mqttingest.Config     `yaml:"mqtt"`
	Bus      BusConfig             `yaml:"bus"`
	Cache    CacheConfig           `yaml:"cache"`
	Store    StoreConfig           `yaml:"store"`
	Metrics  MetricsConfig         `yaml:"metrics"`
	API      APIConfig             `yaml:"api"`
	Training domain.TrainingConfig `yaml:"training"`
}

type BusConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type StoreConfig struct {
	Backend    string `yaml:"backend"` // file or timescale
	Dir        string `yaml:"dir"`
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Bus.RequestTimeout <= 0 {
		c.Bus.RequestTimeout = 5 * time.Second
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 10 * time.Minute
	}
	if c.Cache.SweepInterval <= 0 {
		c.Cache.SweepInterval = 5 * time.Minute
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "./data/telemetry"
	}
	if c.Store.Table == "" {
		c.Store.Table = "telemetry"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}

	c.MQTT.ApplyDefaults()
}

func (c *Config) validate() error {
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt config: %w", err)
	}
	switch c.Store.Backend {
	case "file":
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir is required for the file backend")
		}
	case "timescale":
		if c.Store.ConnString == "" {
			return fmt.Errorf("store.conn_string is required for the timescale backend")
		}
	default:
		return fmt.Errorf("store.backend must be file or timescale, got %q", c.Store.Backend)
	}
	return nil
}

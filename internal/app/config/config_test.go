package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker_url: tcp://localhost:1883
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MQTT.ClientID != "grefur-backend" {
		t.Fatalf("expected default client id, got %s", cfg.MQTT.ClientID)
	}
	if cfg.Bus.RequestTimeout != 5*time.Second {
		t.Fatalf("expected default request timeout, got %s", cfg.Bus.RequestTimeout)
	}
	if cfg.Cache.TTL != 10*time.Minute || cfg.Cache.SweepInterval != 5*time.Minute {
		t.Fatalf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.Store.Backend != "file" || cfg.Store.Dir != "./data/telemetry" {
		t.Fatalf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr :9100, got %s", cfg.Metrics.Addr)
	}
	if cfg.API.Addr != ":8080" {
		t.Fatalf("expected default api addr :8080, got %s", cfg.API.Addr)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker_url: tcp://broker:1883
  client_id: backend-1
  qos: 2
bus:
  request_timeout: 2s
cache:
  ttl: 1m
  sweep_interval: 30s
store:
  backend: timescale
  conn_string: postgres://grefur@db/telemetry
  table: points
training:
  customer_id: CUST-001
  target_measurement_id: RT401
  enabled: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MQTT.QoS != 2 {
		t.Fatalf("qos = %d", cfg.MQTT.QoS)
	}
	if cfg.Cache.TTL != time.Minute {
		t.Fatalf("ttl = %s", cfg.Cache.TTL)
	}
	if cfg.Store.Table != "points" {
		t.Fatalf("table = %s", cfg.Store.Table)
	}
	if cfg.Training.CustomerID != "CUST-001" || !cfg.Training.Enabled {
		t.Fatalf("training config not loaded: %+v", cfg.Training)
	}
}

func TestLoadRejectsMissingBroker(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: file
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing broker_url")
	}
}

func TestLoadRejectsUnknownStoreBackend(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker_url: tcp://localhost:1883
store:
  backend: s3
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown store backend")
	}
}

func TestLoadRejectsTimescaleWithoutConnString(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker_url: tcp://localhost:1883
store:
  backend: timescale
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for timescale without conn_string")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
scheduler:
  suspend_poll_ms: 500
  snapshot_schedule: "@every 10s"
hardware:
  gpio:
    enabled: true
    chip: "gpiochip4"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if !cfg.MQTT.Enabled {
		t.Error("MQTT.Enabled = false, want true")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want 8080", cfg.API.Port)
	}
	if cfg.SuspendPollInterval() != 500*time.Millisecond {
		t.Errorf("SuspendPollInterval() = %v, want 500ms", cfg.SuspendPollInterval())
	}
	if cfg.Scheduler.SnapshotSchedule != "@every 10s" {
		t.Errorf("Scheduler.SnapshotSchedule = %q", cfg.Scheduler.SnapshotSchedule)
	}
	if cfg.Hardware.GPIO.Chip != "gpiochip4" {
		t.Errorf("Hardware.GPIO.Chip = %q, want gpiochip4", cfg.Hardware.GPIO.Chip)
	}
	// Untouched sections keep their defaults.
	if cfg.Scheduler.HistoryRetentionDays != 30 {
		t.Errorf("Scheduler.HistoryRetentionDays = %d, want default 30", cfg.Scheduler.HistoryRetentionDays)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: ""
api:
  port: 8080
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty database.path, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "mqtt enabled without host", mutate: func(c *Config) {
			c.MQTT.Enabled = true
			c.MQTT.Broker.Host = ""
		}, wantErr: true},
		{name: "mqtt prefix wildcard", mutate: func(c *Config) {
			c.MQTT.Enabled = true
			c.MQTT.TopicPrefix = "relay/#"
		}, wantErr: true},
		{name: "influx enabled without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
		{name: "zero suspend poll", mutate: func(c *Config) { c.Scheduler.SuspendPollMS = 0 }, wantErr: true},
		{name: "empty snapshot schedule", mutate: func(c *Config) { c.Scheduler.SnapshotSchedule = "" }, wantErr: true},
		{name: "negative retention", mutate: func(c *Config) { c.Scheduler.HistoryRetentionDays = -1 }, wantErr: true},
		{name: "gpio enabled without chip", mutate: func(c *Config) {
			c.Hardware.GPIO.Enabled = true
			c.Hardware.GPIO.Chip = ""
		}, wantErr: true},
		{name: "empty JWT secret disables auth", mutate: func(c *Config) { c.Security.JWT.Secret = "" }},
		{name: "JWT secret too short", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: true},
		{name: "JWT secret long enough", mutate: func(c *Config) {
			c.Security.JWT.Secret = "test-secret-key-at-least-32-chars!"
		}},
		{name: "rate limit without budget", mutate: func(c *Config) {
			c.Security.RateLimit.Enabled = true
			c.Security.RateLimit.RequestsPerMinute = 0
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("RELAYCYCLE_DATABASE_PATH", "/custom/path.db")
	t.Setenv("RELAYCYCLE_MQTT_ENABLED", "true")
	t.Setenv("RELAYCYCLE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("RELAYCYCLE_MQTT_USERNAME", "testuser")
	t.Setenv("RELAYCYCLE_MQTT_PASSWORD", "testpass")
	t.Setenv("RELAYCYCLE_API_HOST", "192.168.1.1")
	t.Setenv("RELAYCYCLE_API_PORT", "9090")
	t.Setenv("RELAYCYCLE_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("RELAYCYCLE_GPIO_CHIP", "gpiochip1")
	t.Setenv("RELAYCYCLE_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if !cfg.MQTT.Enabled {
		t.Error("MQTT.Enabled = false, want true")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Hardware.GPIO.Chip != "gpiochip1" {
		t.Errorf("Hardware.GPIO.Chip = %q, want %q", cfg.Hardware.GPIO.Chip, "gpiochip1")
	}
	if cfg.Security.JWT.Secret != "jwt-secret" {
		t.Errorf("Security.JWT.Secret = %q, want %q", cfg.Security.JWT.Secret, "jwt-secret")
	}
}

func TestApplyEnvOverrides_IgnoresMalformedNumbers(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("RELAYCYCLE_API_PORT", "not-a-port")
	t.Setenv("RELAYCYCLE_MQTT_ENABLED", "maybe")

	applyEnvOverrides(cfg)

	if cfg.API.Port != 4000 {
		t.Errorf("API.Port = %d, want default 4000", cfg.API.Port)
	}
	if cfg.MQTT.Enabled {
		t.Error("MQTT.Enabled = true, want default false")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.API.Port != 4000 {
		t.Errorf("defaultConfig API.Port = %d, want 4000", cfg.API.Port)
	}
	if cfg.Scheduler.SuspendPollMS != 1000 {
		t.Errorf("defaultConfig Scheduler.SuspendPollMS = %d, want 1000", cfg.Scheduler.SuspendPollMS)
	}
	if cfg.Scheduler.SnapshotSchedule != "@every 5s" {
		t.Errorf("defaultConfig Scheduler.SnapshotSchedule = %q, want @every 5s", cfg.Scheduler.SnapshotSchedule)
	}
}

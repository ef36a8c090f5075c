// Package config handles configuration loading from YAML files and
// environment variables. Precedence: environment variables > config file
// > defaults. All values are immutable once loaded.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a wrapper around time.Duration that supports YAML
// unmarshaling from human-readable strings like "15s", "2m", "1h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all daemon configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Sensors  SensorsConfig  `yaml:"sensors"`
	Network  NetworkConfig  `yaml:"network"`
	Watchdog WatchdogConfig `yaml:"watchdog"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HTTPConfig holds metrics endpoint settings.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// SensorsConfig holds sensor polling settings.
type SensorsConfig struct {
	PollingInterval Duration `yaml:"polling_interval"`
}

// NetworkConfig holds connectivity probe settings.
type NetworkConfig struct {
	ProbeInterval Duration `yaml:"probe_interval"`
	Interface     string   `yaml:"interface"`
}

// WatchdogConfig holds the liveness policy and the feeder device. An empty
// device path selects the dry-run feeder.
type WatchdogConfig struct {
	Device             string   `yaml:"device"`
	TickInterval       Duration `yaml:"tick_interval"`
	MaxConnectivityAge Duration `yaml:"max_connectivity_age"`
	MaxSensorAge       Duration `yaml:"max_sensor_age"`
	MaxScrapeAge       Duration `yaml:"max_scrape_age"`
	StartupGrace       Duration `yaml:"startup_grace"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration. The watchdog timeouts
// mirror the hardware deployment: evaluation every minute, five minutes
// of connectivity loss, two minutes of sensor silence or fifteen minutes
// without a scrape before the feed is withheld.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr: ":9126",
		},
		Sensors: SensorsConfig{
			PollingInterval: Duration{2 * time.Second},
		},
		Network: NetworkConfig{
			ProbeInterval: Duration{15 * time.Second},
		},
		Watchdog: WatchdogConfig{
			TickInterval:       Duration{60 * time.Second},
			MaxConnectivityAge: Duration{300 * time.Second},
			MaxSensorAge:       Duration{120 * time.Second},
			MaxScrapeAge:       Duration{900 * time.Second},
			StartupGrace:       Duration{120 * time.Second},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromBytes parses YAML configuration from a byte slice and merges it
// with defaults. Environment variables take highest precedence.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and
// environment variables are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return LoadFromBytes(nil)
	}

	return LoadFromBytes(data)
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if addr := os.Getenv("AQMON_HTTP_ADDR"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if level := os.Getenv("AQMON_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if dev := os.Getenv("AQMON_WATCHDOG_DEVICE"); dev != "" {
		cfg.Watchdog.Device = dev
	}
	if iface := os.Getenv("AQMON_NET_INTERFACE"); iface != "" {
		cfg.Network.Interface = iface
	}
}

// Validate checks that the configuration can run. Every timeout must be
// positive: a zero timeout would starve the watchdog on the first tick.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http listen address is required")
	}
	if c.Sensors.PollingInterval.Duration <= 0 {
		return fmt.Errorf("sensor polling interval must be positive")
	}
	if c.Network.ProbeInterval.Duration <= 0 {
		return fmt.Errorf("network probe interval must be positive")
	}
	w := c.Watchdog
	for _, d := range []struct {
		name string
		val  time.Duration
	}{
		{"tick_interval", w.TickInterval.Duration},
		{"max_connectivity_age", w.MaxConnectivityAge.Duration},
		{"max_sensor_age", w.MaxSensorAge.Duration},
		{"max_scrape_age", w.MaxScrapeAge.Duration},
	} {
		if d.val <= 0 {
			return fmt.Errorf("watchdog %s must be positive", d.name)
		}
	}
	if w.StartupGrace.Duration < 0 {
		return fmt.Errorf("watchdog startup_grace must not be negative")
	}
	return nil
}

package config

import (
	"testing"
	"time"
)

func TestDefaultConfig_WatchdogTimeouts(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.Watchdog.TickInterval.Duration; got != 60*time.Second {
		t.Errorf("tick_interval = %v, want 60s", got)
	}
	if got := cfg.Watchdog.MaxConnectivityAge.Duration; got != 300*time.Second {
		t.Errorf("max_connectivity_age = %v, want 5m", got)
	}
	if got := cfg.Watchdog.MaxSensorAge.Duration; got != 120*time.Second {
		t.Errorf("max_sensor_age = %v, want 2m", got)
	}
	if got := cfg.Watchdog.MaxScrapeAge.Duration; got != 900*time.Second {
		t.Errorf("max_scrape_age = %v, want 15m", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromBytes_ParsesDurations(t *testing.T) {
	data := []byte(`
watchdog:
  max_sensor_age: "90s"
  startup_grace: "3m"
sensors:
  polling_interval: "5s"
`)
	cfg, err := LoadFromBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Watchdog.MaxSensorAge.Duration; got != 90*time.Second {
		t.Errorf("max_sensor_age = %v, want 90s", got)
	}
	if got := cfg.Watchdog.StartupGrace.Duration; got != 3*time.Minute {
		t.Errorf("startup_grace = %v, want 3m", got)
	}
	if got := cfg.Sensors.PollingInterval.Duration; got != 5*time.Second {
		t.Errorf("polling_interval = %v, want 5s", got)
	}
	// Untouched sections keep defaults.
	if got := cfg.Watchdog.MaxScrapeAge.Duration; got != 900*time.Second {
		t.Errorf("max_scrape_age = %v, want default 15m", got)
	}
}

func TestLoadFromBytes_RejectsBadDuration(t *testing.T) {
	if _, err := LoadFromBytes([]byte("watchdog:\n  max_sensor_age: \"soon\"")); err == nil {
		t.Error("expected error for unparseable duration")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AQMON_HTTP_ADDR", ":9999")
	t.Setenv("AQMON_WATCHDOG_DEVICE", "/dev/watchdog0")

	cfg, err := LoadFromBytes([]byte("http:\n  addr: \":1111\""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Errorf("addr = %q, want env override", cfg.HTTP.Addr)
	}
	if cfg.Watchdog.Device != "/dev/watchdog0" {
		t.Errorf("device = %q, want env override", cfg.Watchdog.Device)
	}
}

func TestValidate_RejectsZeroTimeouts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Watchdog.MaxSensorAge = Duration{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero max_sensor_age")
	}

	cfg = DefaultConfig()
	cfg.Watchdog.StartupGrace = Duration{-time.Second}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative startup_grace")
	}

	// Zero grace is legal: it just disables the boot window.
	cfg = DefaultConfig()
	cfg.Watchdog.StartupGrace = Duration{}
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero startup_grace rejected: %v", err)
	}
}

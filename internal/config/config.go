// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Monitor   MonitorConfig   `yaml:"monitor"`
	Video     VideoConfig     `yaml:"video"`
	Network   NetworkConfig   `yaml:"network"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Mirror    MirrorConfig    `yaml:"mirror"`
	Log       LogConfig       `yaml:"log"`
}

// ---- MONITOR ----

type MonitorConfig struct {
	BaseURL    string `yaml:"base_url"`
	StatusPath string `yaml:"status_path"`
	HealthPath string `yaml:"health_path"`

	PollIntervalMs   int `yaml:"poll_interval_ms"`
	HealthIntervalMs int `yaml:"health_interval_ms"`
	RequestTimeoutMs int `yaml:"request_timeout_ms"`

	MaxRetries       int `yaml:"max_retries"`
	BaseRetryDelayMs int `yaml:"base_retry_delay_ms"`

	// How long the updating indicator stays on after a poll starts.
	UpdatingMs int `yaml:"updating_ms"`
}

// ---- VIDEO ----

type VideoConfig struct {
	URL string `yaml:"url"` // empty disables the watchdog

	ReloadDelayMs   int `yaml:"reload_delay_ms"`
	ProbeIntervalMs int `yaml:"probe_interval_ms"` // 0 => probe only on (re)load
	ProbeTimeoutMs  int `yaml:"probe_timeout_ms"`
	AutoReloadMs    int `yaml:"auto_reload_ms"` // 0 => manual reload only
}

// ---- NETWORK ----

type NetworkConfig struct {
	Watch      bool `yaml:"watch"`
	IntervalMs int  `yaml:"interval_ms"`
}

// ---- DASHBOARD ----

type DashboardConfig struct {
	Listen string `yaml:"listen"` // empty disables the dashboard

	// Pause steady polling while no dashboard viewer has the page visible.
	PauseWhenUnwatched bool `yaml:"pause_when_unwatched"`
}

// ---- MIRROR ----

type MirrorConfig struct {
	Modbus *ModbusConfig `yaml:"modbus"` // optional, opt-in
	Serial *SerialConfig `yaml:"serial"` // optional, opt-in
}

type ModbusConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	BaseSlot   uint16 `yaml:"base_slot"`
	DeviceName string `yaml:"device_name"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

type SerialConfig struct {
	Address   string `yaml:"address"`
	BaudRate  int    `yaml:"baud_rate"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`  // DEBUG, INFO, WARN, ERROR
	Format string `yaml:"format"` // json, text
}

// Load reads and decodes a YAML config file.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return &cfg, nil
}

// ms converts a millisecond config value.
func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (m MonitorConfig) PollInterval() time.Duration   { return ms(m.PollIntervalMs) }
func (m MonitorConfig) HealthInterval() time.Duration { return ms(m.HealthIntervalMs) }
func (m MonitorConfig) RequestTimeout() time.Duration { return ms(m.RequestTimeoutMs) }
func (m MonitorConfig) BaseRetryDelay() time.Duration { return ms(m.BaseRetryDelayMs) }
func (m MonitorConfig) Updating() time.Duration       { return ms(m.UpdatingMs) }

func (v VideoConfig) ReloadDelay() time.Duration   { return ms(v.ReloadDelayMs) }
func (v VideoConfig) ProbeInterval() time.Duration { return ms(v.ProbeIntervalMs) }
func (v VideoConfig) ProbeTimeout() time.Duration  { return ms(v.ProbeTimeoutMs) }
func (v VideoConfig) AutoReload() time.Duration    { return ms(v.AutoReloadMs) }

func (n NetworkConfig) Interval() time.Duration { return ms(n.IntervalMs) }

func (m ModbusConfig) Timeout() time.Duration { return ms(m.TimeoutMs) }
func (s SerialConfig) Timeout() time.Duration { return ms(s.TimeoutMs) }

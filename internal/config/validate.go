// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero durations are accepted here and defaulted by Normalize.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}

	// ------------------------------------------------------------
	// MONITOR
	// ------------------------------------------------------------

	m := cfg.Monitor

	if m.BaseURL == "" {
		return fmt.Errorf("monitor.base_url is required")
	}
	if err := httpURL("monitor.base_url", m.BaseURL); err != nil {
		return err
	}

	for _, p := range []struct {
		name string
		path string
	}{
		{"monitor.status_path", m.StatusPath},
		{"monitor.health_path", m.HealthPath},
	} {
		if p.path != "" && !strings.HasPrefix(p.path, "/") {
			return fmt.Errorf("%s must start with '/': %q", p.name, p.path)
		}
	}

	if err := nonNegative(map[string]int{
		"monitor.poll_interval_ms":    m.PollIntervalMs,
		"monitor.health_interval_ms":  m.HealthIntervalMs,
		"monitor.request_timeout_ms":  m.RequestTimeoutMs,
		"monitor.max_retries":         m.MaxRetries,
		"monitor.base_retry_delay_ms": m.BaseRetryDelayMs,
		"monitor.updating_ms":         m.UpdatingMs,
	}); err != nil {
		return err
	}

	// backoff doubles up to 2^max_retries; keep it well inside int64 ns
	if m.MaxRetries > 20 {
		return fmt.Errorf("monitor.max_retries must be <= 20, got %d", m.MaxRetries)
	}

	// ------------------------------------------------------------
	// VIDEO
	// ------------------------------------------------------------

	v := cfg.Video

	if v.URL != "" {
		if err := httpURL("video.url", v.URL); err != nil {
			return err
		}
	}

	if err := nonNegative(map[string]int{
		"video.reload_delay_ms":   v.ReloadDelayMs,
		"video.probe_interval_ms": v.ProbeIntervalMs,
		"video.probe_timeout_ms":  v.ProbeTimeoutMs,
		"video.auto_reload_ms":    v.AutoReloadMs,
	}); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// NETWORK
	// ------------------------------------------------------------

	if cfg.Network.IntervalMs < 0 {
		return fmt.Errorf("network.interval_ms must be >= 0, got %d", cfg.Network.IntervalMs)
	}

	// ------------------------------------------------------------
	// MIRROR (OPT-IN)
	// ------------------------------------------------------------

	if mb := cfg.Mirror.Modbus; mb != nil {
		if mb.Endpoint == "" {
			return fmt.Errorf("mirror.modbus.endpoint is required when mirror.modbus is set")
		}
		if mb.TimeoutMs < 0 {
			return fmt.Errorf("mirror.modbus.timeout_ms must be >= 0, got %d", mb.TimeoutMs)
		}

		// device_name sanity (ASCII only)
		for i := 0; i < len(mb.DeviceName); i++ {
			if mb.DeviceName[i] > 0x7F {
				return fmt.Errorf("mirror.modbus.device_name must contain ASCII characters only")
			}
		}

		// base_slot * 20 + 19 must stay addressable
		if uint32(mb.BaseSlot)*20+19 > 0xFFFF {
			return fmt.Errorf("mirror.modbus.base_slot %d exceeds the register space", mb.BaseSlot)
		}
	}

	if sc := cfg.Mirror.Serial; sc != nil {
		if sc.Address == "" {
			return fmt.Errorf("mirror.serial.address is required when mirror.serial is set")
		}
		if sc.BaudRate < 0 || sc.TimeoutMs < 0 {
			return fmt.Errorf("mirror.serial: baud_rate and timeout_ms must be >= 0")
		}
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	switch strings.ToUpper(cfg.Log.Level) {
	case "", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return fmt.Errorf("log.level %q is not one of DEBUG, INFO, WARN, ERROR", cfg.Log.Level)
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Log.Format)
	}

	return nil
}

func httpURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", name, raw)
	}
	return nil
}

func nonNegative(fields map[string]int) error {
	for name, v := range fields {
		if v < 0 {
			return fmt.Errorf("%s must be >= 0, got %d", name, v)
		}
	}
	return nil
}

// internal/config/normalize.go
package config

import "strings"

// Defaults applied by Normalize.
const (
	DefaultStatusPath       = "/status"
	DefaultHealthPath       = "/health"
	DefaultPollIntervalMs   = 1000
	DefaultHealthIntervalMs = 5000
	DefaultRequestTimeoutMs = 5000
	DefaultMaxRetries       = 5
	DefaultBaseRetryDelayMs = 1000
	DefaultUpdatingMs       = 500

	DefaultVideoReloadDelayMs  = 100
	DefaultVideoProbeTimeoutMs = 5000

	DefaultNetworkIntervalMs = 2000

	DefaultModbusTimeoutMs = 2000
	DefaultSerialBaudRate  = 9600
	DefaultSerialTimeoutMs = 1000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	m := &cfg.Monitor
	m.BaseURL = strings.TrimRight(m.BaseURL, "/")

	setString(&m.StatusPath, DefaultStatusPath)
	setString(&m.HealthPath, DefaultHealthPath)
	setInt(&m.PollIntervalMs, DefaultPollIntervalMs)
	setInt(&m.HealthIntervalMs, DefaultHealthIntervalMs)
	setInt(&m.RequestTimeoutMs, DefaultRequestTimeoutMs)
	setInt(&m.MaxRetries, DefaultMaxRetries)
	setInt(&m.BaseRetryDelayMs, DefaultBaseRetryDelayMs)
	setInt(&m.UpdatingMs, DefaultUpdatingMs)

	v := &cfg.Video
	setInt(&v.ReloadDelayMs, DefaultVideoReloadDelayMs)
	setInt(&v.ProbeTimeoutMs, DefaultVideoProbeTimeoutMs)

	setInt(&cfg.Network.IntervalMs, DefaultNetworkIntervalMs)

	// ------------------------------------------------------------
	// MIRROR (OPT-IN)
	// ------------------------------------------------------------

	if mb := cfg.Mirror.Modbus; mb != nil {
		setInt(&mb.TimeoutMs, DefaultModbusTimeoutMs)

		// device_name: ASCII already validated, truncate to 16 characters
		if len(mb.DeviceName) > 16 {
			mb.DeviceName = mb.DeviceName[:16]
		}
	}

	if sc := cfg.Mirror.Serial; sc != nil {
		setInt(&sc.BaudRate, DefaultSerialBaudRate)
		setInt(&sc.TimeoutMs, DefaultSerialTimeoutMs)
	}

	cfg.Log.Level = strings.ToUpper(cfg.Log.Level)
	setString(&cfg.Log.Level, "INFO")
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	setString(&cfg.Log.Format, "json")
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

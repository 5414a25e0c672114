// cmd/ppe-monitor/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/tamzrod/ppe-monitor/internal/client"
	"github.com/tamzrod/ppe-monitor/internal/config"
	"github.com/tamzrod/ppe-monitor/internal/display"
	"github.com/tamzrod/ppe-monitor/internal/mirror"
	mserial "github.com/tamzrod/ppe-monitor/internal/mirror/serial"
	"github.com/tamzrod/ppe-monitor/internal/monitor"
	"github.com/tamzrod/ppe-monitor/internal/netwatch"
	"github.com/tamzrod/ppe-monitor/internal/video"
	"github.com/tamzrod/ppe-monitor/internal/web"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ppe-monitor <config.yaml>")
		os.Exit(2)
	}

	if err := run(os.Args[1]); err != nil {
		slog.Error("ppe monitor failed", "error", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	logger := newLogger(os.Stdout, cfg.Log, os.Getenv("LOG_LEVEL"))
	slog.SetDefault(logger)

	logger.Info("starting ppe monitor",
		"base_url", cfg.Monitor.BaseURL,
		"video_url", cfg.Video.URL,
		"dashboard", cfg.Dashboard.Listen,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Transport
	// --------------------

	hc := &http.Client{}

	cli, err := client.New(client.Config{
		BaseURL:    cfg.Monitor.BaseURL,
		StatusPath: cfg.Monitor.StatusPath,
		HealthPath: cfg.Monitor.HealthPath,
		Timeout:    cfg.Monitor.RequestTimeout(),
	}, hc)
	if err != nil {
		return err
	}

	// --------------------
	// Monitor
	// --------------------

	fanout := display.NewFanout(logger)
	fanout.Add(display.NewLogSink(logger))

	dashboard := cfg.Dashboard.Listen != ""

	deps := monitor.Deps{
		Status:    cli,
		Health:    cli,
		Publisher: fanout,
		Logger:    logger,
	}
	if cfg.Video.URL != "" {
		deps.Video = video.NewProber(hc, cfg.Video.ProbeTimeout())
	}

	m, err := monitor.New(monitor.Config{
		PollInterval:       cfg.Monitor.PollInterval(),
		HealthInterval:     cfg.Monitor.HealthInterval(),
		RequestTimeout:     cfg.Monitor.RequestTimeout(),
		MaxRetries:         cfg.Monitor.MaxRetries,
		BaseRetryDelay:     cfg.Monitor.BaseRetryDelay(),
		UpdatingFor:        cfg.Monitor.Updating(),
		VideoURL:           cfg.Video.URL,
		VideoReloadDelay:   cfg.Video.ReloadDelay(),
		VideoProbeInterval: cfg.Video.ProbeInterval(),
		VideoAutoReload:    cfg.Video.AutoReload(),
		StartHidden:        dashboard && cfg.Dashboard.PauseWhenUnwatched,
	}, deps)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	goRun := func(f func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}

	// --------------------
	// Field outputs (optional)
	// --------------------

	if mc := cfg.Mirror.Modbus; mc != nil {
		sm, closeMirror, err := mirror.BuildStatusMirror(*mc, logger)
		if err != nil {
			return fmt.Errorf("modbus mirror: %w", err)
		}
		defer closeMirror()

		fanout.Add(sm)
		goRun(func() { sm.Run(ctx) })
		logger.Info("modbus status mirror enabled", "endpoint", mc.Endpoint, "unit_id", mc.UnitID, "base_slot", mc.BaseSlot)
	}

	if sc := cfg.Mirror.Serial; sc != nil {
		ind, err := mserial.Open(mserial.Config{
			Address:  sc.Address,
			BaudRate: sc.BaudRate,
			Timeout:  sc.Timeout(),
		}, logger)
		if err != nil {
			return err
		}
		defer ind.Close()

		fanout.Add(ind)
		logger.Info("serial indicator enabled", "address", sc.Address, "baud_rate", sc.BaudRate)
	}

	// --------------------
	// Dashboard (optional)
	// --------------------

	if dashboard {
		srv := web.New(web.Config{
			Listen:             cfg.Dashboard.Listen,
			PauseWhenUnwatched: cfg.Dashboard.PauseWhenUnwatched,
			Logger:             logger,
		}, m)
		fanout.Add(srv)

		goRun(func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("dashboard failed", "error", err)
				stop()
			}
		})
	}

	// --------------------
	// Connectivity + signals
	// --------------------

	if cfg.Network.Watch {
		w := netwatch.New(cfg.Network.Interval(), m, logger)
		goRun(func() { w.Run(ctx) })
	}

	watchSignals(ctx, m, logger)

	goRun(func() { fanout.Run(ctx) })

	err = m.Run(ctx)
	stop()
	wg.Wait()

	logger.Info("ppe monitor stopped")
	return err
}

// newLogger builds the process logger. LOG_LEVEL overrides the config level.
func newLogger(w io.Writer, lc config.LogConfig, envLevel string) *slog.Logger {
	level := lc.Level
	if envLevel != "" {
		level = envLevel
	}

	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}

	if strings.EqualFold(lc.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// parseLogLevel converts a string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

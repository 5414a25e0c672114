//go:build !windows

// cmd/ppe-monitor/signals_unix.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tamzrod/ppe-monitor/internal/monitor"
)

// watchSignals maps operator signals onto the monitor:
// SIGHUP reconnects, SIGUSR1 reloads the video stream.
func watchSignals(ctx context.Context, m *monitor.Monitor, log *slog.Logger) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGUSR1)

	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-ch:
				switch sig {
				case syscall.SIGHUP:
					log.Info("reconnect requested", "signal", sig.String())
					m.Reconnect()
				case syscall.SIGUSR1:
					log.Info("video reload requested", "signal", sig.String())
					m.ReloadVideo()
				}
			}
		}
	}()
}

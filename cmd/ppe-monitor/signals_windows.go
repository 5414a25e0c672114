//go:build windows

// cmd/ppe-monitor/signals_windows.go
package main

import (
	"context"
	"log/slog"

	"github.com/tamzrod/ppe-monitor/internal/monitor"
)

// watchSignals is a no-op: there are no operator signals on Windows.
// Use the dashboard's reconnect and reload controls instead.
func watchSignals(ctx context.Context, m *monitor.Monitor, log *slog.Logger) {}

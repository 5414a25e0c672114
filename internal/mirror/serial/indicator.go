// internal/mirror/serial/indicator.go
package serial

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/serial"

	"github.com/tamzrod/ppe-monitor/internal/display"
	"github.com/tamzrod/ppe-monitor/internal/status"
)

type Config struct {
	Address  string
	BaudRate int
	Timeout  time.Duration
}

// Indicator drives a serial indicator board with one line per
// displayed status change, e.g. "NO_HELMET\n".
type Indicator struct {
	port io.WriteCloser
	log  *slog.Logger

	mu   sync.Mutex
	last status.Status
	sent bool
}

// Open opens the port as 8N1.
func Open(cfg Config, log *slog.Logger) (*Indicator, error) {
	port, err := serial.Open(&serial.Config{
		Address:  cfg.Address,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("serial indicator: open %s: %w", cfg.Address, err)
	}
	return NewIndicator(port, log), nil
}

func NewIndicator(port io.WriteCloser, log *slog.Logger) *Indicator {
	if log == nil {
		log = slog.Default()
	}
	return &Indicator{
		port: port,
		log:  log.With("component", "serial"),
	}
}

// Publish writes the status key when it differs from the last one sent.
// A failed write is retried on the next view.
func (i *Indicator) Publish(v display.View) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.sent && v.Status == i.last {
		return nil
	}

	line := Line(v.Status)
	if _, err := io.WriteString(i.port, line); err != nil {
		i.sent = false
		return fmt.Errorf("serial indicator: write: %w", err)
	}

	i.log.Debug("indicator updated", "line", strings.TrimSpace(line))
	i.last = v.Status
	i.sent = true
	return nil
}

func (i *Indicator) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.port.Close()
}

// Line is the wire form of s.
func Line(s status.Status) string {
	return strings.ToUpper(string(s)) + "\n"
}

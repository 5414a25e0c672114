// internal/mirror/status_mirror.go
package mirror

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/tamzrod/ppe-monitor/internal/display"
	"github.com/tamzrod/ppe-monitor/internal/status"
)

// StatusMirror keeps the status block in step with the rendered view.
// It owns the block state and the 1Hz seconds-in-error ticker.
type StatusMirror struct {
	w   StatusWriter
	log *slog.Logger

	mu      sync.Mutex
	block   status.Block
	nominal bool
	dirty   bool // last delivery failed
}

func NewStatusMirror(w StatusWriter, log *slog.Logger) *StatusMirror {
	if log == nil {
		log = slog.Default()
	}
	return &StatusMirror{
		w:   w,
		log: log.With("component", "mirror"),
		block: status.Block{
			Phase:      status.PhaseCodeInitializing,
			StatusCode: status.Code(status.Initializing),
			Connected:  true,
		},
		dirty: true,
	}
}

// Publish maps v onto the block and delivers it if anything changed.
// seconds_in_error is never incremented here, only reset on recovery.
func (m *StatusMirror) Publish(v display.View) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.block
	next.Phase = v.Phase.Code()
	next.StatusCode = status.Code(v.Status)
	next.Connected = v.Connected
	next.RetryCount = clampU16(v.RetryCount)
	next.VideoOverlay = v.VideoOverlay

	m.nominal = v.Phase == status.PhaseNominal
	if m.nominal {
		next.SecondsInError = 0
	}

	if next == m.block && !m.dirty {
		return nil
	}
	m.block = next
	return m.deliver()
}

// Run asserts the initial block, then ticks until ctx is done.
func (m *StatusMirror) Run(ctx context.Context) {
	m.mu.Lock()
	if err := m.deliver(); err != nil {
		m.log.Warn("status write failed on start", "error", err)
	}
	m.mu.Unlock()

	t := time.NewTicker(time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := m.tick(); err != nil {
				m.log.Warn("status seconds tick write failed", "error", err)
			}
		}
	}
}

// tick counts one second outside nominal, saturating at the register max.
// A pending failed delivery is retried even when nothing changed.
func (m *StatusMirror) tick() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.nominal && m.block.SecondsInError < status.SecondsInErrorMax {
		m.block.SecondsInError++
		return m.deliver()
	}
	if m.dirty {
		return m.deliver()
	}
	return nil
}

func (m *StatusMirror) deliver() error {
	if err := m.w.WriteStatus(m.block); err != nil {
		m.dirty = true
		return err
	}
	m.dirty = false
	return nil
}

func clampU16(n int) uint16 {
	switch {
	case n < 0:
		return 0
	case n > math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(n)
	}
}

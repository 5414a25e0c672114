// internal/display/logsink.go
package display

import (
	"log/slog"
	"sync"
)

// LogSink logs transitions of the visible state.
// Views that differ only in the updating flag are not logged.
type LogSink struct {
	log *slog.Logger

	mu   sync.Mutex
	last *View
}

func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{log: log.With("component", "display")}
}

func (s *LogSink) Publish(v View) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.last
	s.last = &v

	if prev == nil || prev.Label != v.Label || prev.Phase != v.Phase {
		s.log.Info("status display",
			"status", v.Status,
			"label", v.Label,
			"phase", v.Phase,
			"retry_count", v.RetryCount,
			"last_updated", v.LastUpdated,
		)
	}

	if prev == nil || prev.Connected != v.Connected {
		s.log.Info("connection indicator", "connected", v.Connected)
	}

	if prev != nil && prev.VideoOverlay != v.VideoOverlay {
		if v.VideoOverlay {
			s.log.Warn("video stream failure overlay shown", "video_url", v.VideoURL)
		} else {
			s.log.Info("video stream overlay hidden", "video_url", v.VideoURL)
		}
	}

	return nil
}

// internal/status/snapshot.go
package status

import "time"

// Snapshot is what the status box shows.
// Produced by a successful poll and never mutated afterwards.
type Snapshot struct {
	Status Status
	Text   string
	Icon   string

	// CSSState is the suffix of the status-<state> class.
	// It equals Status except for the system error display.
	CSSState Status

	// Timestamp is zero for displays not produced by a poll.
	Timestamp time.Time
}

// NewSnapshot builds the display for a polled status.
func NewSnapshot(s Status, at time.Time) Snapshot {
	return Snapshot{
		Status:    s,
		Text:      Text(s),
		Icon:      Icon(s),
		CSSState:  s,
		Timestamp: at,
	}
}

// ErrorSnapshot is the terminal display after retry exhaustion.
func ErrorSnapshot() Snapshot {
	return Snapshot{
		Status:   Error,
		Text:     "CONNECTION ERROR",
		Icon:     "❌",
		CSSState: Error,
	}
}

// SystemErrorSnapshot is the last-resort display for uncaught errors.
func SystemErrorSnapshot() Snapshot {
	return Snapshot{
		Status:   Error,
		Text:     "SYSTEM ERROR",
		Icon:     "⚠️",
		CSSState: NoEquipment,
	}
}

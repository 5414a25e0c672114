// internal/monitor/state.go
package monitor

import (
	"time"

	"github.com/tamzrod/ppe-monitor/internal/status"
)

// State is the monitor's shared state: connection flag, retry counter
// and the displayed snapshot. Transitions are pure: no IO, no timers.
type State struct {
	MaxRetries int
	BaseDelay  time.Duration

	Connected  bool
	RetryCount int

	// Terminal is set on retry exhaustion and cleared only by an
	// online/reconnect signal.
	Terminal bool

	// Snapshot is what the status box shows.
	Snapshot status.Snapshot

	// LastSuccess is the time of the last applied successful poll.
	LastSuccess time.Time

	// polled is false until a poll succeeds after start or reconnect.
	polled bool

	// appliedSeq is the sequence number of the newest applied completion.
	appliedSeq uint64
}

// NewState returns the initial state: connected, nothing polled yet.
func NewState(maxRetries int, baseDelay time.Duration) State {
	return State{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		Connected:  true,
		Snapshot:   status.NewSnapshot(status.Initializing, time.Time{}),
	}
}

// Phase derives the composite display/connection state.
func (s *State) Phase() status.Phase {
	switch {
	case s.Terminal:
		return status.PhaseErrorTerminal
	case !s.Connected:
		return status.PhaseDisconnected
	case !s.polled:
		return status.PhaseInitializing
	default:
		return status.PhaseNominal
	}
}

// Backoff returns the delay before retry number count (1-based):
// base * 2^(count-1).
func Backoff(base time.Duration, count int) time.Duration {
	if count < 1 {
		return base
	}
	return base << uint(count-1)
}

// RetryDecision is what a poll failure asks the scheduler to do.
type RetryDecision struct {
	Retry    bool
	Delay    time.Duration
	Terminal bool
}

// OnPollSuccess applies a successful poll. It returns false when the
// completion is stale (a newer poll was already applied) or the state is
// terminal; in both cases nothing changes.
func (s *State) OnPollSuccess(seq uint64, snap status.Snapshot) bool {
	if s.Terminal || seq <= s.appliedSeq {
		return false
	}
	s.appliedSeq = seq

	s.RetryCount = 0
	s.Connected = true
	s.Snapshot = snap
	s.LastSuccess = snap.Timestamp
	s.polled = true
	return true
}

// OnPollFailure applies a failed poll and decides the retry.
// The second result is false for stale or post-terminal completions.
func (s *State) OnPollFailure(seq uint64) (RetryDecision, bool) {
	if s.Terminal || seq <= s.appliedSeq {
		return RetryDecision{}, false
	}
	s.appliedSeq = seq

	s.Connected = false
	s.RetryCount++

	if s.RetryCount > s.MaxRetries {
		s.Terminal = true
		s.Snapshot = status.ErrorSnapshot()
		return RetryDecision{Terminal: true}, true
	}

	return RetryDecision{
		Retry: true,
		Delay: Backoff(s.BaseDelay, s.RetryCount),
	}, true
}

// OnConnectivityChange applies a platform online/offline signal.
// Online resets the retry counter and leaves the terminal state; the
// error display stays until the next poll replaces it.
func (s *State) OnConnectivityChange(online bool) {
	s.Connected = online
	if !online {
		return
	}

	s.RetryCount = 0
	if s.Terminal {
		s.Terminal = false
		s.polled = false
	}
}

// OnHealthResult applies a health check outcome. Last writer wins.
func (s *State) OnHealthResult(ok bool) {
	s.Connected = ok
}

// OnSystemError forces the system error display. Polling is unaffected
// and the next successful poll replaces it.
func (s *State) OnSystemError() {
	s.Snapshot = status.SystemErrorSnapshot()
}

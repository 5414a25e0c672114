// internal/monitor/clock.go
package monitor

import "time"

// Clock abstracts time for the monitor's scheduled tasks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable one-shot handle.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// taskKind names one scheduled task slot. Each slot holds at most one
// pending task; scheduling replaces whatever was pending.
type taskKind int

const (
	taskSteady taskKind = iota
	taskRetry
	taskHealth
	taskUpdating
	taskVideoAssign
	taskVideoAutoReload
	taskVideoProbe
)

func (k taskKind) String() string {
	switch k {
	case taskSteady:
		return "steady"
	case taskRetry:
		return "retry"
	case taskHealth:
		return "health"
	case taskUpdating:
		return "updating"
	case taskVideoAssign:
		return "video-assign"
	case taskVideoAutoReload:
		return "video-auto-reload"
	case taskVideoProbe:
		return "video-probe"
	default:
		return "unknown"
	}
}

type pendingTask struct {
	token uint64
	timer Timer
}

// schedule arms kind after d. A previously pending task of the same kind
// is cancelled. The timer only posts an event; handling happens on the loop.
func (m *Monitor) schedule(kind taskKind, d time.Duration) {
	m.cancel(kind)

	m.nextToken++
	token := m.nextToken

	t := m.clock.AfterFunc(d, func() {
		m.post(taskFired{kind: kind, token: token})
	})
	m.tasks[kind] = pendingTask{token: token, timer: t}
}

func (m *Monitor) cancel(kind taskKind) {
	if p, ok := m.tasks[kind]; ok {
		p.timer.Stop()
		delete(m.tasks, kind)
	}
}

func (m *Monitor) pending(kind taskKind) bool {
	_, ok := m.tasks[kind]
	return ok
}

// claim consumes a fired task. A stale token means the task was cancelled
// or replaced after its timer had already fired.
func (m *Monitor) claim(ev taskFired) bool {
	p, ok := m.tasks[ev.kind]
	if !ok || p.token != ev.token {
		return false
	}
	delete(m.tasks, ev.kind)
	return true
}

func (m *Monitor) cancelAll() {
	for kind := range m.tasks {
		m.cancel(kind)
	}
}

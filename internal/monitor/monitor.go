// internal/monitor/monitor.go
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tamzrod/ppe-monitor/internal/display"
	"github.com/tamzrod/ppe-monitor/internal/status"
)

// StatusClient fetches the raw status value.
type StatusClient interface {
	FetchStatus(ctx context.Context) (string, error)
}

// HealthClient performs the lightweight existence check.
type HealthClient interface {
	CheckHealth(ctx context.Context) error
}

// VideoProber opens a stream URL and reports whether it loaded.
type VideoProber interface {
	Probe(ctx context.Context, url string) error
}

// Publisher receives every changed view. It must not block.
type Publisher interface {
	Publish(v display.View)
}

// Config is the runtime config the monitor needs.
type Config struct {
	PollInterval   time.Duration
	HealthInterval time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
	BaseRetryDelay time.Duration
	UpdatingFor    time.Duration

	VideoURL           string // empty disables the watchdog
	VideoReloadDelay   time.Duration
	VideoProbeInterval time.Duration // 0 => probe only on (re)load
	VideoAutoReload    time.Duration // 0 => manual reload only

	// StartHidden starts with steady polling paused until SetVisible(true).
	StartHidden bool
}

// Deps are the collaborators. Video may be nil.
type Deps struct {
	Status    StatusClient
	Health    HealthClient
	Video     VideoProber
	Publisher Publisher
	Clock     Clock
	Logger    *slog.Logger
}

// Monitor is the station monitor. All state is owned by the Run loop;
// exported methods only post events and are safe from any goroutine.
type Monitor struct {
	cfg    Config
	status StatusClient
	health HealthClient
	prober VideoProber
	pub    Publisher
	clock  Clock
	log    *slog.Logger

	events chan event
	done   chan struct{}

	// spawn runs request work off the loop.
	spawn func(func())

	// ---- loop-owned ----
	ctx       context.Context
	state     State
	visible   bool
	online    bool
	updating  bool
	seq       uint64
	video     videoState
	tasks     map[taskKind]pendingTask
	nextToken uint64
	last      display.View
	published bool
}

// New creates a monitor with immutable config.
func New(cfg Config, deps Deps) (*Monitor, error) {
	if deps.Status == nil || deps.Health == nil {
		return nil, errors.New("monitor: status and health clients required")
	}
	if deps.Publisher == nil {
		return nil, errors.New("monitor: publisher required")
	}
	if cfg.PollInterval <= 0 || cfg.HealthInterval <= 0 {
		return nil, errors.New("monitor: poll and health intervals must be > 0")
	}
	if cfg.MaxRetries < 0 {
		return nil, errors.New("monitor: max retries must be >= 0")
	}
	if deps.Clock == nil {
		deps.Clock = realClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Monitor{
		cfg:     cfg,
		status:  deps.Status,
		health:  deps.Health,
		prober:  deps.Video,
		pub:     deps.Publisher,
		clock:   deps.Clock,
		log:     deps.Logger.With("component", "monitor"),
		events:  make(chan event, 64),
		done:    make(chan struct{}),
		spawn:   func(f func()) { go f() },
		state:   NewState(cfg.MaxRetries, cfg.BaseRetryDelay),
		visible: !cfg.StartHidden,
		online:  true,
		video:   videoState{source: cfg.VideoURL},
		tasks:   make(map[taskKind]pendingTask),
	}, nil
}

// Run starts polling and blocks until ctx is done. All scheduled tasks
// are cancelled on return; in-flight requests are bounded by their timeout.
func (m *Monitor) Run(ctx context.Context) error {
	m.begin(ctx)
	defer m.teardown()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("monitor stopping")
			return nil
		case ev := <-m.events:
			m.handle(ev)
		}
	}
}

// ---- external signals ----

// SetVisible pauses (hidden) or resumes (visible) steady polling.
func (m *Monitor) SetVisible(visible bool) { m.post(visibilityChanged{visible: visible}) }

// SetOnline applies a platform connectivity signal.
func (m *Monitor) SetOnline(online bool) { m.post(connectivityChanged{online: online}) }

// Reconnect is an operator reconnect signal; same effect as going online.
func (m *Monitor) Reconnect() { m.post(connectivityChanged{online: true, manual: true}) }

// ReportVideoError reports a media load failure.
func (m *Monitor) ReportVideoError() { m.post(videoFailed{}) }

// ReportVideoLoad reports a successful media load.
func (m *Monitor) ReportVideoLoad() { m.post(videoLoaded{}) }

// ReloadVideo clears the stream source and reassigns it cache-busted.
func (m *Monitor) ReloadVideo() { m.post(videoReload{}) }

// ReportSystemError forces the generic system error display.
func (m *Monitor) ReportSystemError(err error) { m.post(systemFailed{err: err}) }

// ---- loop ----

func (m *Monitor) post(ev event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

func (m *Monitor) begin(ctx context.Context) {
	m.ctx = ctx

	m.log.Info("monitor starting",
		"poll_interval", m.cfg.PollInterval,
		"health_interval", m.cfg.HealthInterval,
		"max_retries", m.cfg.MaxRetries,
		"video", m.video.source != "",
	)

	m.render()
	m.schedule(taskHealth, m.cfg.HealthInterval)

	if m.visible {
		m.pollAndResume()
	}

	m.startVideo()
}

// async runs request work off the loop. A panic there is reported back
// to the loop as a system error.
func (m *Monitor) async(f func()) {
	m.spawn(func() {
		defer func() {
			if r := recover(); r != nil {
				m.post(systemFailed{err: fmt.Errorf("panic: %v", r)})
			}
		}()
		f()
	})
}

func (m *Monitor) teardown() {
	m.cancelAll()
	close(m.done)
}

// handle runs one event. A panic is the uncaught-error path: it is
// recovered and forces the system error display.
func (m *Monitor) handle(ev event) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("monitor handler panic", "event", fmt.Sprintf("%T", ev), "panic", r)
			m.state.OnSystemError()
			m.render()
		}
	}()

	switch ev := ev.(type) {
	case taskFired:
		if !m.claim(ev) {
			return
		}
		m.onTask(ev.kind)
	case pollDone:
		m.onPollDone(ev)
	case healthDone:
		m.onHealthDone(ev)
	case videoProbed:
		m.onVideoProbed(ev)
	case visibilityChanged:
		m.onVisibility(ev.visible)
	case connectivityChanged:
		m.onConnectivity(ev)
	case videoFailed:
		m.onVideoError()
	case videoLoaded:
		m.onVideoLoad()
	case videoReload:
		m.onVideoReload()
	case systemFailed:
		m.log.Error("system error", "error", ev.err)
		m.state.OnSystemError()
		m.render()
	}
}

func (m *Monitor) onTask(kind taskKind) {
	switch kind {
	case taskSteady:
		if m.canPoll() {
			m.poll()
			m.schedule(taskSteady, m.cfg.PollInterval)
		}
	case taskRetry:
		if !m.state.Terminal && m.online {
			m.log.Debug("retrying status poll", "attempt", m.state.RetryCount)
			m.poll()
		}
	case taskHealth:
		m.checkConnection()
		m.schedule(taskHealth, m.cfg.HealthInterval)
	case taskUpdating:
		m.updating = false
		m.render()
	case taskVideoAssign:
		m.assignVideo()
	case taskVideoAutoReload:
		m.log.Info("auto reloading video stream")
		m.onVideoReload()
	case taskVideoProbe:
		m.probeVideo()
		m.schedule(taskVideoProbe, m.cfg.VideoProbeInterval)
	}
}

// ---- poller ----

// canPoll reports whether steady-state polling should run.
func (m *Monitor) canPoll() bool {
	return m.visible && m.online && !m.state.Terminal
}

// pollAndResume polls immediately and arms the steady timer if it
// should run and is not already armed.
func (m *Monitor) pollAndResume() {
	m.poll()
	if m.canPoll() && !m.pending(taskSteady) {
		m.schedule(taskSteady, m.cfg.PollInterval)
	}
}

func (m *Monitor) poll() {
	m.seq++
	seq := m.seq

	m.updating = true
	m.schedule(taskUpdating, m.cfg.UpdatingFor)
	m.render()

	ctx := m.ctx
	m.async(func() {
		rctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
		defer cancel()

		raw, err := m.status.FetchStatus(rctx)
		m.post(pollDone{seq: seq, raw: raw, err: err})
	})
}

func (m *Monitor) onPollDone(ev pollDone) {
	if ev.err == nil {
		snap := status.NewSnapshot(status.Parse(ev.raw), m.clock.Now())
		if !m.state.OnPollSuccess(ev.seq, snap) {
			m.log.Debug("dropping stale poll result", "seq", ev.seq)
			return
		}
		m.cancel(taskRetry)
		m.log.Debug("status updated", "status", snap.Status, "seq", ev.seq)
		m.render()
		return
	}

	dec, ok := m.state.OnPollFailure(ev.seq)
	if !ok {
		m.log.Debug("dropping stale poll failure", "seq", ev.seq, "error", ev.err)
		return
	}

	m.log.Warn("status poll failed",
		"error", ev.err,
		"attempt", m.state.RetryCount,
		"max_retries", m.state.MaxRetries,
	)

	switch {
	case dec.Terminal:
		m.cancel(taskSteady)
		m.cancel(taskRetry)
		m.log.Error("max retries reached, showing error state", "retry_count", m.state.RetryCount)
	case dec.Retry && !m.online:
		m.log.Info("offline, retry deferred until online", "attempt", m.state.RetryCount)
	case dec.Retry:
		m.log.Info("retrying status poll", "delay", dec.Delay, "attempt", m.state.RetryCount)
		m.schedule(taskRetry, dec.Delay)
	}

	m.render()
}

// ---- connection tracker ----

func (m *Monitor) checkConnection() {
	ctx := m.ctx
	m.async(func() {
		rctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
		defer cancel()

		m.post(healthDone{err: m.health.CheckHealth(rctx)})
	})
}

func (m *Monitor) onHealthDone(ev healthDone) {
	ok := ev.err == nil
	if ok != m.state.Connected {
		m.log.Info("health check changed connection", "connected", ok, "error", ev.err)
	}
	m.state.OnHealthResult(ok)
	m.render()
}

func (m *Monitor) onConnectivity(ev connectivityChanged) {
	m.online = ev.online
	m.state.OnConnectivityChange(ev.online)

	if !ev.online {
		m.cancel(taskSteady)
		m.cancel(taskRetry)
		m.log.Warn("connection lost, pausing updates")
		m.render()
		return
	}

	if ev.manual {
		m.log.Info("manual reconnect, resuming updates")
	} else {
		m.log.Info("connection restored, resuming updates")
	}
	m.render()
	m.pollAndResume()
}

func (m *Monitor) onVisibility(visible bool) {
	if visible == m.visible {
		return
	}
	m.visible = visible

	if !visible {
		m.cancel(taskSteady)
		m.log.Debug("display hidden, pausing steady polling")
		return
	}

	m.log.Debug("display visible, resuming steady polling")
	if m.online && !m.state.Terminal {
		m.pollAndResume()
	}
}

// ---- display ----

func (m *Monitor) render() {
	v := display.Render(display.Input{
		Snapshot:     m.state.Snapshot,
		Phase:        m.state.Phase(),
		Connected:    m.state.Connected,
		RetryCount:   m.state.RetryCount,
		LastSuccess:  m.state.LastSuccess,
		Updating:     m.updating,
		VideoOverlay: m.video.overlay,
		VideoURL:     m.video.current,
	})

	if m.published && v == m.last {
		return
	}
	m.last = v
	m.published = true
	m.pub.Publish(v)
}

package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/tamzrod/ppe-monitor/internal/display"
	"github.com/tamzrod/ppe-monitor/internal/status"
	"github.com/tamzrod/ppe-monitor/internal/video"
)

// ---- fake clock ----

type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// next returns the earliest due timer; ties go to the one armed first.
func (c *fakeClock) next(end time.Time) *fakeTimer {
	var best *fakeTimer
	for _, t := range c.timers {
		if t.stopped || t.fired || t.at.After(end) {
			continue
		}
		if best == nil || t.at.Before(best.at) {
			best = t
		}
	}
	return best
}

// advance moves time forward, firing due timers in order and draining
// the monitor after each one.
func advance(m *Monitor, c *fakeClock, d time.Duration) {
	end := c.now.Add(d)
	for {
		t := c.next(end)
		if t == nil {
			break
		}
		c.now = t.at
		t.fired = true
		t.f()
		drain(m)
	}
	c.now = end
}

func drain(m *Monitor) {
	for {
		select {
		case ev := <-m.events:
			m.handle(ev)
		default:
			return
		}
	}
}

// ---- fake collaborators ----

type result struct {
	raw string
	err error
}

type fakeStatus struct {
	clock *fakeClock
	calls []time.Time
	queue []result
	raw   string
	err   error
}

func (f *fakeStatus) FetchStatus(ctx context.Context) (string, error) {
	f.calls = append(f.calls, f.clock.Now())
	if len(f.queue) > 0 {
		r := f.queue[0]
		f.queue = f.queue[1:]
		return r.raw, r.err
	}
	return f.raw, f.err
}

type fakeHealth struct {
	calls int
	err   error
	panic bool
}

func (f *fakeHealth) CheckHealth(ctx context.Context) error {
	f.calls++
	if f.panic {
		panic("health probe exploded")
	}
	return f.err
}

type fakeProber struct {
	urls []string
	err  error
}

func (f *fakeProber) Probe(ctx context.Context, url string) error {
	f.urls = append(f.urls, url)
	return f.err
}

type fakePublisher struct {
	views []display.View
}

func (f *fakePublisher) Publish(v display.View) {
	f.views = append(f.views, v)
}

func (f *fakePublisher) last() display.View {
	if len(f.views) == 0 {
		return display.View{}
	}
	return f.views[len(f.views)-1]
}

var errDown = errors.New("connection refused")

func testConfig() Config {
	return Config{
		PollInterval:     time.Second,
		HealthInterval:   5 * time.Second,
		RequestTimeout:   5 * time.Second,
		MaxRetries:       5,
		BaseRetryDelay:   time.Second,
		UpdatingFor:      500 * time.Millisecond,
		VideoReloadDelay: 100 * time.Millisecond,
	}
}

type harness struct {
	m      *Monitor
	clock  *fakeClock
	status *fakeStatus
	health *fakeHealth
	pub    *fakePublisher
}

func newHarness(t *testing.T, cfg Config, prober VideoProber) *harness {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	h := &harness{
		clock:  clock,
		status: &fakeStatus{clock: clock, raw: "COMPLETE"},
		health: &fakeHealth{},
		pub:    &fakePublisher{},
	}

	deps := Deps{
		Status:    h.status,
		Health:    h.health,
		Publisher: h.pub,
		Clock:     clock,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if prober != nil {
		deps.Video = prober
	}

	m, err := New(cfg, deps)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	m.spawn = func(f func()) { f() }
	h.m = m
	return h
}

func (h *harness) start() {
	h.m.begin(context.Background())
	drain(h.m)
}

func (h *harness) advance(d time.Duration) {
	advance(h.m, h.clock, d)
}

// ---- poller ----

func TestMonitor_InitialPollAndUpdatingIndicator(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.start()

	if len(h.status.calls) != 1 {
		t.Fatalf("expected 1 poll on start, got %d", len(h.status.calls))
	}

	v := h.pub.last()
	if v.Label != "COMPLETE" || v.Icon != "✅" {
		t.Fatalf("label/icon = %q %q", v.Label, v.Icon)
	}
	if v.Phase != status.PhaseNominal || !v.Connected {
		t.Fatalf("phase=%s connected=%v", v.Phase, v.Connected)
	}
	if !v.Updating {
		t.Fatalf("updating indicator should be on right after a poll")
	}
	if !strings.HasPrefix(v.LastUpdated, "Last updated: ") {
		t.Fatalf("last updated = %q", v.LastUpdated)
	}

	h.advance(500 * time.Millisecond)
	if h.pub.last().Updating {
		t.Fatalf("updating indicator should clear after 500ms")
	}
}

func TestMonitor_SteadyPollingOncePerSecond(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.start()

	h.advance(3 * time.Second)
	if len(h.status.calls) != 4 {
		t.Fatalf("expected 4 polls after 3s, got %d", len(h.status.calls))
	}
}

func TestMonitor_SixFailuresEnterTerminal(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.status.err = errDown
	h.start()

	h.advance(60 * time.Second)

	if len(h.status.calls) != 6 {
		t.Fatalf("expected exactly 6 polls, got %d", len(h.status.calls))
	}
	if h.m.state.RetryCount != 6 {
		t.Fatalf("retry count = %d, want 6", h.m.state.RetryCount)
	}

	v := h.pub.last()
	if v.Phase != status.PhaseErrorTerminal {
		t.Fatalf("phase = %s, want error_terminal", v.Phase)
	}
	if v.Label != "CONNECTION ERROR" || v.Icon != "❌" {
		t.Fatalf("label/icon = %q %q", v.Label, v.Icon)
	}
	if h.m.pending(taskSteady) || h.m.pending(taskRetry) {
		t.Fatalf("no poll may be scheduled in terminal state")
	}
}

func TestMonitor_BackoffScheduleWhenHidden(t *testing.T) {
	cfg := testConfig()
	cfg.StartHidden = true

	h := newHarness(t, cfg, nil)
	h.status.err = errDown
	h.start()

	if len(h.status.calls) != 0 {
		t.Fatalf("hidden monitor must not poll on start")
	}

	// "online" polls immediately even while hidden; then only retries run
	h.m.SetOnline(true)
	drain(h.m)

	h.advance(120 * time.Second)

	t0 := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	want := []time.Duration{0, 1 * time.Second, 3 * time.Second, 7 * time.Second, 15 * time.Second, 31 * time.Second}

	if len(h.status.calls) != len(want) {
		t.Fatalf("expected %d polls, got %d", len(want), len(h.status.calls))
	}
	for i, w := range want {
		if got := h.status.calls[i].Sub(t0); got != w {
			t.Fatalf("poll %d at +%v, want +%v", i+1, got, w)
		}
	}
	if h.pub.last().Phase != status.PhaseErrorTerminal {
		t.Fatalf("phase = %s", h.pub.last().Phase)
	}
}

func TestMonitor_SuccessResetsRetryCount(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.status.queue = []result{{err: errDown}, {err: errDown}}
	h.status.raw = "NO_VEST"
	h.start()

	h.advance(1 * time.Second)
	if h.m.state.RetryCount != 2 {
		t.Fatalf("retry count = %d, want 2", h.m.state.RetryCount)
	}
	if h.pub.last().Connected {
		t.Fatalf("expected disconnected after failures")
	}

	h.advance(1 * time.Second)
	if h.m.state.RetryCount != 0 {
		t.Fatalf("retry count = %d, want 0", h.m.state.RetryCount)
	}

	v := h.pub.last()
	if v.Label != "NO VEST" || !v.Connected || v.Phase != status.PhaseNominal {
		t.Fatalf("unexpected view %+v", v)
	}
	if h.m.pending(taskRetry) {
		t.Fatalf("pending retry should be cancelled after success")
	}
}

func TestMonitor_UnknownStatusShownVerbatim(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.status.raw = "CAMERA_BLOCKED"
	h.start()

	v := h.pub.last()
	if v.Icon != "❓" || v.Label != "CAMERA BLOCKED" {
		t.Fatalf("icon/label = %q %q", v.Icon, v.Label)
	}
	if !strings.Contains(v.CSSClass, "status-camera_blocked") {
		t.Fatalf("css class = %q", v.CSSClass)
	}
}

// ---- connection tracker ----

func TestMonitor_OfflineThenOnline(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.start()

	h.m.SetOnline(false)
	drain(h.m)

	if v := h.pub.last(); v.Connected || v.ConnectionText != "Disconnected" {
		t.Fatalf("expected disconnected indicator, got %+v", v)
	}

	h.advance(3 * time.Second)
	if len(h.status.calls) != 1 {
		t.Fatalf("offline must pause polling, got %d polls", len(h.status.calls))
	}

	h.m.SetOnline(true)
	drain(h.m)

	if len(h.status.calls) != 2 {
		t.Fatalf("online must poll immediately, got %d polls", len(h.status.calls))
	}
	if v := h.pub.last(); !v.Connected || v.ConnectionText != "Connected" {
		t.Fatalf("expected connected indicator, got %+v", v)
	}

	h.advance(1 * time.Second)
	if len(h.status.calls) != 3 {
		t.Fatalf("steady polling not resumed, got %d polls", len(h.status.calls))
	}
}

func TestMonitor_InFlightFailureWhileOfflineSchedulesNoRetry(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.start()

	// a poll is in flight when the platform goes offline
	h.status.err = errDown
	h.m.poll()
	h.m.handle(connectivityChanged{online: false})
	drain(h.m)

	if h.m.state.RetryCount != 1 {
		t.Fatalf("retry count = %d, want 1", h.m.state.RetryCount)
	}
	if h.m.pending(taskRetry) || h.m.pending(taskSteady) {
		t.Fatalf("poll scheduled while offline: retry=%v steady=%v",
			h.m.pending(taskRetry), h.m.pending(taskSteady))
	}

	calls := len(h.status.calls)
	h.advance(4 * time.Second)
	if len(h.status.calls) != calls {
		t.Fatalf("offline monitor polled: %d -> %d", calls, len(h.status.calls))
	}

	h.status.err = nil
	h.m.SetOnline(true)
	drain(h.m)
	if h.m.state.RetryCount != 0 || h.pub.last().Phase != status.PhaseNominal {
		t.Fatalf("online did not recover: count=%d phase=%s", h.m.state.RetryCount, h.pub.last().Phase)
	}
}

func TestMonitor_TerminalExitOnlyByOnline(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.status.err = errDown
	h.start()
	h.advance(10 * time.Second)

	if !h.m.state.Terminal {
		t.Fatalf("expected terminal state")
	}
	calls := len(h.status.calls)

	// visibility and healthy checks do not leave terminal
	h.m.SetVisible(false)
	h.m.SetVisible(true)
	drain(h.m)
	h.advance(10 * time.Second)

	if len(h.status.calls) != calls {
		t.Fatalf("terminal state polled again: %d -> %d", calls, len(h.status.calls))
	}
	if h.pub.last().Phase != status.PhaseErrorTerminal {
		t.Fatalf("phase = %s", h.pub.last().Phase)
	}

	h.status.err = nil
	h.status.raw = "complete"
	h.m.Reconnect()
	drain(h.m)

	v := h.pub.last()
	if v.Phase != status.PhaseNominal || v.Label != "COMPLETE" {
		t.Fatalf("reconnect did not recover: %+v", v)
	}
	if h.m.state.RetryCount != 0 {
		t.Fatalf("retry count = %d", h.m.state.RetryCount)
	}
}

func TestMonitor_HiddenPausesSteadyPolling(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.start()

	h.m.SetVisible(false)
	drain(h.m)
	h.advance(3 * time.Second)

	if len(h.status.calls) != 1 {
		t.Fatalf("hidden monitor polled: %d", len(h.status.calls))
	}

	h.m.SetVisible(true)
	drain(h.m)
	if len(h.status.calls) != 2 {
		t.Fatalf("visible must poll immediately, got %d", len(h.status.calls))
	}

	h.advance(1 * time.Second)
	if len(h.status.calls) != 3 {
		t.Fatalf("steady polling not resumed, got %d", len(h.status.calls))
	}
}

func TestMonitor_HealthCheckUpdatesConnection(t *testing.T) {
	cfg := testConfig()
	cfg.StartHidden = true

	h := newHarness(t, cfg, nil)
	h.health.err = errDown
	h.start()

	h.advance(5 * time.Second)
	if h.health.calls != 1 {
		t.Fatalf("expected 1 health check, got %d", h.health.calls)
	}
	if v := h.pub.last(); v.Connected || v.Phase != status.PhaseDisconnected {
		t.Fatalf("expected disconnected, got %+v", v)
	}

	h.health.err = nil
	h.advance(5 * time.Second)
	if v := h.pub.last(); !v.Connected || v.Phase != status.PhaseInitializing {
		t.Fatalf("expected connected/initializing, got %+v", v)
	}
}

// ---- video watchdog ----

const testVideoURL = "http://station:5000/video_feed"

func TestMonitor_VideoErrorAndLoad(t *testing.T) {
	cfg := testConfig()
	cfg.StartHidden = true
	cfg.VideoURL = testVideoURL

	prober := &fakeProber{}
	h := newHarness(t, cfg, prober)
	h.start()

	if v := h.pub.last(); v.VideoURL != testVideoURL || v.VideoOverlay {
		t.Fatalf("unexpected initial video view %+v", v)
	}
	if len(prober.urls) != 1 {
		t.Fatalf("expected initial probe, got %d", len(prober.urls))
	}

	h.m.ReportVideoError()
	drain(h.m)
	if !h.pub.last().VideoOverlay {
		t.Fatalf("overlay should be visible after error")
	}

	h.m.ReportVideoLoad()
	drain(h.m)
	if h.pub.last().VideoOverlay {
		t.Fatalf("overlay should be hidden after load")
	}

	// video failures never touch polling state
	if h.m.state.RetryCount != 0 || !h.m.state.Connected {
		t.Fatalf("video error changed polling state")
	}
}

func TestMonitor_ReloadVideo(t *testing.T) {
	cfg := testConfig()
	cfg.StartHidden = true
	cfg.VideoURL = testVideoURL

	prober := &fakeProber{}
	h := newHarness(t, cfg, prober)
	h.start()

	h.m.ReportVideoError()
	drain(h.m)

	h.m.ReloadVideo()
	drain(h.m)

	v := h.pub.last()
	if v.VideoOverlay || v.VideoURL != "" {
		t.Fatalf("reload must hide overlay and clear source immediately, got %+v", v)
	}

	h.advance(99 * time.Millisecond)
	if h.pub.last().VideoURL != "" {
		t.Fatalf("source assigned before reload delay")
	}

	h.advance(1 * time.Millisecond)
	first := h.pub.last().VideoURL
	want := video.CacheBust(testVideoURL, h.clock.Now().UnixMilli())
	if first != want {
		t.Fatalf("video url = %q, want %q", first, want)
	}

	h.m.ReloadVideo()
	drain(h.m)
	h.advance(100 * time.Millisecond)

	second := h.pub.last().VideoURL
	if second == first || !strings.Contains(second, "t=") {
		t.Fatalf("cache-bust value must change: %q then %q", first, second)
	}
	if prober.urls[len(prober.urls)-1] != second {
		t.Fatalf("reloaded source was not probed")
	}
}

func TestMonitor_CacheBustUniqueWithinSameMillisecond(t *testing.T) {
	cfg := testConfig()
	cfg.StartHidden = true
	cfg.VideoURL = testVideoURL
	cfg.VideoReloadDelay = 0

	h := newHarness(t, cfg, nil)
	h.start()

	h.m.ReloadVideo()
	drain(h.m)
	h.advance(0)
	first := h.pub.last().VideoURL

	h.m.ReloadVideo()
	drain(h.m)
	h.advance(0)
	second := h.pub.last().VideoURL

	if first == "" || first == second {
		t.Fatalf("expected distinct cache-bust urls, got %q and %q", first, second)
	}
}

func TestMonitor_VideoAutoReload(t *testing.T) {
	cfg := testConfig()
	cfg.StartHidden = true
	cfg.VideoURL = testVideoURL
	cfg.VideoAutoReload = 2 * time.Second

	prober := &fakeProber{err: errors.New("stream stalled")}
	h := newHarness(t, cfg, prober)
	h.start()

	if !h.pub.last().VideoOverlay {
		t.Fatalf("failed probe should show overlay")
	}

	h.advance(2 * time.Second)
	if v := h.pub.last(); v.VideoOverlay || v.VideoURL != "" {
		t.Fatalf("auto reload should clear source, got %+v", v)
	}

	h.advance(100 * time.Millisecond)
	if len(prober.urls) != 2 || !strings.Contains(prober.urls[1], "t=") {
		t.Fatalf("expected cache-busted re-probe, got %v", prober.urls)
	}
	if !h.pub.last().VideoOverlay {
		t.Fatalf("overlay should be back after failed re-probe")
	}
}

// ---- safety net & lifecycle ----

func TestMonitor_PanicForcesSystemError(t *testing.T) {
	cfg := testConfig()
	cfg.StartHidden = true

	h := newHarness(t, cfg, nil)
	h.health.panic = true
	h.start()

	h.advance(5 * time.Second)

	v := h.pub.last()
	if v.Label != "SYSTEM ERROR" || v.Icon != "⚠️" {
		t.Fatalf("expected system error display, got %+v", v)
	}
	if v.CSSClass != "status-box status-no_equipment" {
		t.Fatalf("css class = %q", v.CSSClass)
	}

	// the next successful poll replaces it
	h.m.SetVisible(true)
	drain(h.m)
	if h.pub.last().Label != "COMPLETE" {
		t.Fatalf("system error not replaced by poll: %q", h.pub.last().Label)
	}
}

func TestMonitor_ReportSystemError(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.start()

	h.m.ReportSystemError(errors.New("dashboard script failed"))
	drain(h.m)

	if h.pub.last().Label != "SYSTEM ERROR" {
		t.Fatalf("label = %q", h.pub.last().Label)
	}
	if !h.pub.last().Connected {
		t.Fatalf("system error must not change connection state")
	}
}

func TestMonitor_CancelledTaskIgnored(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.status.err = errDown
	h.start()

	if !h.m.pending(taskRetry) {
		t.Fatalf("expected a pending retry after failure")
	}
	token := h.m.tasks[taskRetry].token
	h.m.cancel(taskRetry)

	calls := len(h.status.calls)
	h.m.handle(taskFired{kind: taskRetry, token: token})

	if len(h.status.calls) != calls {
		t.Fatalf("cancelled retry still polled")
	}
}

func TestMonitor_RenderSkipsIdenticalViews(t *testing.T) {
	cfg := testConfig()
	cfg.StartHidden = true

	h := newHarness(t, cfg, nil)
	h.start()

	n := len(h.pub.views)
	h.m.render()
	h.m.render()
	if len(h.pub.views) != n {
		t.Fatalf("identical view republished: %d -> %d", n, len(h.pub.views))
	}
}

type blockingStatus struct{}

func (blockingStatus) FetchStatus(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type nopPublisher struct{}

func (nopPublisher) Publish(display.View) {}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	m, err := New(testConfig(), Deps{
		Status:    blockingStatus{},
		Health:    &fakeHealth{},
		Publisher: nopPublisher{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() err=%v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if len(m.tasks) != 0 {
		t.Fatalf("tasks left after teardown: %d", len(m.tasks))
	}

	// posting after teardown must not block
	m.SetVisible(false)
}

func TestNew_RequiresClients(t *testing.T) {
	if _, err := New(testConfig(), Deps{}); err == nil {
		t.Fatal("expected error without clients")
	}
}

// internal/monitor/video.go
package monitor

import "github.com/tamzrod/ppe-monitor/internal/video"

// videoState is the watchdog's view of the stream element.
type videoState struct {
	source  string // configured stream URL, never modified
	current string // assigned source; empty while cleared
	overlay bool
	stamp   int64 // last cache-bust value
}

func (m *Monitor) startVideo() {
	if m.video.source == "" {
		return
	}
	m.video.current = m.video.source
	m.render()
	m.probeVideo()

	if m.cfg.VideoProbeInterval > 0 {
		m.schedule(taskVideoProbe, m.cfg.VideoProbeInterval)
	}
}

func (m *Monitor) onVideoError() {
	if m.video.source == "" {
		return
	}
	if !m.video.overlay {
		m.log.Warn("video stream error", "video_url", m.video.current)
	}
	m.video.overlay = true
	m.render()

	if m.cfg.VideoAutoReload > 0 && !m.pending(taskVideoAutoReload) && !m.pending(taskVideoAssign) {
		m.schedule(taskVideoAutoReload, m.cfg.VideoAutoReload)
	}
}

func (m *Monitor) onVideoLoad() {
	if m.video.source == "" {
		return
	}
	m.cancel(taskVideoAutoReload)
	m.video.overlay = false
	m.render()
}

// onVideoReload hides the overlay and clears the source now; the
// cache-busted source is assigned after the reload delay.
func (m *Monitor) onVideoReload() {
	if m.video.source == "" {
		return
	}
	m.log.Info("reloading video stream")

	m.cancel(taskVideoAutoReload)
	m.video.overlay = false
	m.video.current = ""
	m.render()

	m.schedule(taskVideoAssign, m.cfg.VideoReloadDelay)
}

func (m *Monitor) assignVideo() {
	stamp := m.clock.Now().UnixMilli()
	if stamp <= m.video.stamp {
		stamp = m.video.stamp + 1
	}
	m.video.stamp = stamp

	m.video.current = video.CacheBust(m.video.source, stamp)
	m.render()
	m.probeVideo()
}

func (m *Monitor) probeVideo() {
	if m.prober == nil || m.video.current == "" {
		return
	}

	url := m.video.current
	ctx := m.ctx
	m.async(func() {
		err := m.prober.Probe(ctx, url)
		m.post(videoProbed{url: url, err: err})
	})
}

// onVideoProbed turns a probe outcome into a load/error event.
// Outcomes for a source that has since been replaced are ignored.
func (m *Monitor) onVideoProbed(ev videoProbed) {
	if ev.url != m.video.current {
		return
	}
	if ev.err != nil {
		if m.ctx.Err() != nil {
			return
		}
		m.log.Debug("video probe failed", "video_url", ev.url, "error", ev.err)
		m.onVideoError()
		return
	}
	m.onVideoLoad()
}

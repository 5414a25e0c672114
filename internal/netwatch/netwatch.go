// internal/netwatch/netwatch.go
package netwatch

import (
	"context"
	"log/slog"
	"net"
	"time"
)

// Sink receives connectivity transitions.
type Sink interface {
	SetOnline(online bool)
}

// ProbeFunc reports whether the host currently has a usable network.
type ProbeFunc func() bool

// Watcher polls the host network state and reports transitions.
// The first observation is reported only if the host starts offline,
// since the monitor already assumes online at start.
type Watcher struct {
	interval time.Duration
	probe    ProbeFunc
	sink     Sink
	log      *slog.Logger

	known  bool
	online bool
}

func New(interval time.Duration, sink Sink, log *slog.Logger) *Watcher {
	return NewWithProbe(interval, InterfacesUp, sink, log)
}

func NewWithProbe(interval time.Duration, probe ProbeFunc, sink Sink, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		interval: interval,
		probe:    probe,
		sink:     sink,
		log:      log.With("component", "netwatch"),
	}
}

// Run observes until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	w.observe()

	t := time.NewTicker(w.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.observe()
		}
	}
}

func (w *Watcher) observe() {
	online := w.probe()

	if !w.known {
		w.known = true
		w.online = online
		if !online {
			w.log.Warn("network offline at start")
			w.sink.SetOnline(false)
		}
		return
	}

	if online == w.online {
		return
	}
	w.online = online

	if online {
		w.log.Info("network online")
	} else {
		w.log.Warn("network offline")
	}
	w.sink.SetOnline(online)
}

// InterfacesUp reports whether any non-loopback interface is up and has
// at least one address.
func InterfacesUp() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}

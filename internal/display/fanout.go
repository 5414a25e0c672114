// internal/display/fanout.go
package display

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Sink receives rendered views.
// Publish may block; the fan-out gives each sink its own goroutine.
type Sink interface {
	Publish(v View) error
}

// Fanout delivers views to every sink through a latest-wins mailbox,
// so a slow sink only ever skips intermediate views.
type Fanout struct {
	log   *slog.Logger
	mu    sync.Mutex
	boxes []*mailbox
}

type mailbox struct {
	name string
	sink Sink
	ch   chan View
}

func NewFanout(log *slog.Logger) *Fanout {
	if log == nil {
		log = slog.Default()
	}
	return &Fanout{log: log.With("component", "display")}
}

// Add registers sinks. It must be called before Run.
func (f *Fanout) Add(sinks ...Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range sinks {
		if s == nil {
			continue
		}
		f.boxes = append(f.boxes, &mailbox{
			name: fmt.Sprintf("%T", s),
			sink: s,
			ch:   make(chan View, 1),
		})
	}
}

// Publish never blocks.
func (f *Fanout) Publish(v View) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, b := range f.boxes {
		select {
		case b.ch <- v:
			continue
		default:
		}

		// drop the stale pending view, then retry once
		select {
		case <-b.ch:
		default:
		}
		select {
		case b.ch <- v:
		default:
		}
	}
}

// Run drives all sinks until ctx is done.
func (f *Fanout) Run(ctx context.Context) {
	f.mu.Lock()
	boxes := append([]*mailbox(nil), f.boxes...)
	f.mu.Unlock()

	var wg sync.WaitGroup
	for _, b := range boxes {
		wg.Add(1)
		go func(b *mailbox) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case v := <-b.ch:
					if err := b.sink.Publish(v); err != nil {
						f.log.Warn("sink publish failed", "sink", b.name, "error", err)
					}
				}
			}
		}(b)
	}
	wg.Wait()
}

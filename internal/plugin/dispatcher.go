package plugin

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/onebot"
)

// DrainTimeout bounds how long Drain waits for in-flight handlers.
const DrainTimeout = 3 * time.Second

// Dispatcher fans events out to plugins by variant. Chains are built
// once at construction; dispatch itself takes no locks.
type Dispatcher struct {
	log     *zap.Logger
	chains  map[string][]*runner
	runners []*runner
}

// NewDispatcher indexes plugins by their interests. Within a variant,
// plugins run highest priority first; ties keep registration order.
func NewDispatcher(plugins []Plugin, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		log:    log.With(zap.String("component", "dispatcher")),
		chains: make(map[string][]*runner),
	}
	for _, p := range plugins {
		r := newRunner(p, log)
		d.runners = append(d.runners, r)
		for _, v := range r.meta.Interests {
			d.chains[v] = append(d.chains[v], r)
		}
	}
	for _, chain := range d.chains {
		sort.SliceStable(chain, func(i, j int) bool {
			return chain[i].meta.Priority > chain[j].meta.Priority
		})
	}
	return d
}

// Start launches every plugin's workers under ctx. Canceling ctx stops
// the workers; follow with Drain to wait for in-flight handlers.
func (d *Dispatcher) Start(ctx context.Context) {
	for _, r := range d.runners {
		r.start(ctx)
	}
}

// Dispatch walks the chain registered for the event's variant,
// stopping at the first plugin that consumes it. Events with no
// interested plugin are dropped silently.
func (d *Dispatcher) Dispatch(ctx context.Context, ev onebot.Event) {
	for _, r := range d.chains[ev.Variant()] {
		if r.enqueue(ctx, ev) {
			return
		}
	}
}

// Drain waits for in-flight handlers after the workers' context is
// canceled. Handlers still running after DrainTimeout are abandoned;
// their dispatchers were released by the same cancellation.
func (d *Dispatcher) Drain() {
	done := make(chan struct{})
	go func() {
		for _, r := range d.runners {
			r.wg.Wait()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(DrainTimeout):
		d.log.Warn("plugins did not drain in time")
	}
}

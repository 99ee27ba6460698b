package plugin

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/metrics"
	"github.com/onegate/onegate/internal/onebot"
)

const (
	defaultWorkers   = 1
	defaultQueueSize = 16
)

// task pairs an event with the channel its dispatcher awaits.
type task struct {
	ev   onebot.Event
	done chan bool
}

// runner drives one plugin: a bounded queue feeding a worker pool.
type runner struct {
	plugin Plugin
	meta   Meta
	log    *zap.Logger
	queue  chan task
	wg     sync.WaitGroup
}

func newRunner(p Plugin, log *zap.Logger) *runner {
	meta := p.Meta()
	if meta.Workers <= 0 {
		meta.Workers = defaultWorkers
	}
	if meta.QueueSize <= 0 {
		meta.QueueSize = defaultQueueSize
	}
	return &runner{
		plugin: p,
		meta:   meta,
		log:    log.With(zap.String("plugin", meta.Name)),
		queue:  make(chan task, meta.QueueSize),
	}
}

func (r *runner) start(ctx context.Context) {
	for i := 0; i < r.meta.Workers; i++ {
		r.wg.Add(1)
		go r.work(ctx)
	}
}

func (r *runner) work(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case t := <-r.queue:
			metrics.DispatchQueueDepth.WithLabelValues(r.meta.Name).Set(float64(len(r.queue)))
			t.done <- r.handle(ctx, t.ev)
		case <-ctx.Done():
			return
		}
	}
}

// enqueue hands an event to the plugin and waits for its verdict. The
// queue is bounded, so a slow plugin backpressures its dispatcher. A
// canceled ctx releases the wait as not-consumed and the chain moves
// on.
func (r *runner) enqueue(ctx context.Context, ev onebot.Event) bool {
	t := task{ev: ev, done: make(chan bool, 1)}
	select {
	case r.queue <- t:
		metrics.DispatchQueueDepth.WithLabelValues(r.meta.Name).Set(float64(len(r.queue)))
	case <-ctx.Done():
		return false
	}
	select {
	case consumed := <-t.done:
		return consumed
	case <-ctx.Done():
		return false
	}
}

// handle runs one event through the plugin. Panics and handler errors
// count as consumed, so a broken plugin swallows its events instead of
// flooding lower-priority plugins with half-processed ones.
func (r *runner) handle(ctx context.Context, ev onebot.Event) (consumed bool) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.PluginPanics.WithLabelValues(r.meta.Name).Inc()
			r.log.Error("plugin panicked",
				zap.String("variant", ev.Variant()),
				zap.Any("panic", rec),
				zap.Stack("stack"))
			consumed = true
		}
	}()

	var err error
	consumed, err = r.plugin.Handle(ctx, ev)
	if err != nil {
		metrics.PluginHandled.WithLabelValues(r.meta.Name, "error").Inc()
		r.log.Error("plugin failed",
			zap.String("variant", ev.Variant()),
			zap.Error(err))
		return true
	}
	outcome := "passed"
	if consumed {
		outcome = "consumed"
	}
	metrics.PluginHandled.WithLabelValues(r.meta.Name, outcome).Inc()
	return consumed
}

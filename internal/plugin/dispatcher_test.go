package plugin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/onebot"
)

// scriptPlugin is a test plugin assembled from closures.
type scriptPlugin struct {
	meta   Meta
	handle func(ctx context.Context, ev onebot.Event) (bool, error)
}

func (s *scriptPlugin) Meta() Meta          { return s.meta }
func (s *scriptPlugin) Setup(*Context) error { return nil }

func (s *scriptPlugin) Handle(ctx context.Context, ev onebot.Event) (bool, error) {
	if s.handle == nil {
		return false, nil
	}
	return s.handle(ctx, ev)
}

// callLog records handler invocations across plugins.
type callLog struct {
	mu    sync.Mutex
	names []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
}

func (l *callLog) calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

func groupEvent() onebot.Event {
	return &onebot.GroupMessage{
		EventHeader: onebot.EventHeader{Time: 1700000100, SelfID: 99, PostType: "message"},
		MessageType: "group",
		MessageID:   1,
		GroupID:     42,
		UserID:      7,
		Message:     []onebot.Segment{onebot.Text("hi")},
	}
}

func recorder(name string, priority int, consumed bool, log *callLog) *scriptPlugin {
	return &scriptPlugin{
		meta: Meta{Name: name, Interests: []string{onebot.VariantGroupMessage}, Priority: priority},
		handle: func(context.Context, onebot.Event) (bool, error) {
			log.add(name)
			return consumed, nil
		},
	}
}

func startDispatcher(t *testing.T, plugins ...Plugin) *Dispatcher {
	t.Helper()
	d := NewDispatcher(plugins, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	t.Cleanup(func() {
		cancel()
		d.Drain()
	})
	return d
}

func TestDispatchPriorityOrder(t *testing.T) {
	log := &callLog{}
	d := startDispatcher(t,
		recorder("low", 1, false, log),
		recorder("high", 10, false, log),
		recorder("mid", 5, false, log),
	)

	d.Dispatch(context.Background(), groupEvent())
	assert.Equal(t, []string{"high", "mid", "low"}, log.calls())
}

func TestDispatchShortCircuit(t *testing.T) {
	log := &callLog{}
	d := startDispatcher(t,
		recorder("eater", 10, true, log),
		recorder("starved", 1, false, log),
	)

	d.Dispatch(context.Background(), groupEvent())
	assert.Equal(t, []string{"eater"}, log.calls(),
		"a consumed event never reaches lower-priority plugins")
}

func TestDispatchInterestFiltering(t *testing.T) {
	log := &callLog{}
	private := &scriptPlugin{
		meta: Meta{Name: "private-only", Interests: []string{onebot.VariantPrivateMessage}},
		handle: func(context.Context, onebot.Event) (bool, error) {
			log.add("private-only")
			return false, nil
		},
	}
	d := startDispatcher(t, private, recorder("group", 1, false, log))

	d.Dispatch(context.Background(), groupEvent())
	assert.Equal(t, []string{"group"}, log.calls())
}

func TestDispatchHandlerErrorConsumesEvent(t *testing.T) {
	log := &callLog{}
	broken := &scriptPlugin{
		meta: Meta{Name: "broken", Interests: []string{onebot.VariantGroupMessage}, Priority: 10},
		handle: func(context.Context, onebot.Event) (bool, error) {
			return false, errors.New("handler exploded")
		},
	}
	d := startDispatcher(t, broken, recorder("next", 1, false, log))

	d.Dispatch(context.Background(), groupEvent())
	assert.Empty(t, log.calls(), "failed handler consumes its event")
}

func TestDispatchHandlerPanicConsumesEvent(t *testing.T) {
	log := &callLog{}
	bomb := &scriptPlugin{
		meta: Meta{Name: "bomb", Interests: []string{onebot.VariantGroupMessage}, Priority: 10},
		handle: func(context.Context, onebot.Event) (bool, error) {
			panic("boom")
		},
	}
	d := startDispatcher(t, bomb, recorder("next", 1, false, log))

	d.Dispatch(context.Background(), groupEvent())
	assert.Empty(t, log.calls(), "a panicking handler consumes its event")

	// The worker survives the panic and keeps serving.
	d.Dispatch(context.Background(), groupEvent())
	assert.Empty(t, log.calls())
}

func TestDispatchBackpressure(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{}, 4)
	slow := &scriptPlugin{
		meta: Meta{Name: "slow", Interests: []string{onebot.VariantGroupMessage}, Workers: 1, QueueSize: 1},
		handle: func(context.Context, onebot.Event) (bool, error) {
			started <- struct{}{}
			<-gate
			return true, nil
		},
	}
	d := startDispatcher(t, slow)

	returned := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		go func() {
			d.Dispatch(context.Background(), groupEvent())
			returned <- struct{}{}
		}()
	}

	// One event in the handler, one queued; the third producer must be
	// blocked on the full queue.
	<-started
	select {
	case <-returned:
		t.Fatal("dispatch returned while its event was still pending")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	for i := 0; i < 3; i++ {
		select {
		case <-returned:
		case <-time.After(time.Second):
			t.Fatal("dispatch did not return after the handler unblocked")
		}
	}
}

func TestDrainReleasesPendingDispatch(t *testing.T) {
	blocking := &scriptPlugin{
		meta: Meta{Name: "blocking", Interests: []string{onebot.VariantGroupMessage}},
		handle: func(ctx context.Context, _ onebot.Event) (bool, error) {
			<-ctx.Done()
			return false, nil
		},
	}
	d := NewDispatcher([]Plugin{blocking}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	returned := make(chan struct{})
	go func() {
		d.Dispatch(ctx, groupEvent())
		close(returned)
	}()

	time.Sleep(20 * time.Millisecond) // let the dispatch reach the handler
	cancel()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("pending dispatch not released by cancellation")
	}

	start := time.Now()
	d.Drain()
	require.Less(t, time.Since(start), DrainTimeout, "drain should finish well before its deadline")
}

func TestDispatchConcurrentWorkers(t *testing.T) {
	var mu sync.Mutex
	inflight, peak := 0, 0
	gate := make(chan struct{})
	wide := &scriptPlugin{
		meta: Meta{Name: "wide", Interests: []string{onebot.VariantGroupMessage}, Workers: 3, QueueSize: 8},
		handle: func(context.Context, onebot.Event) (bool, error) {
			mu.Lock()
			inflight++
			if inflight > peak {
				peak = inflight
			}
			mu.Unlock()
			<-gate
			mu.Lock()
			inflight--
			mu.Unlock()
			return true, nil
		},
	}
	d := startDispatcher(t, wide)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(context.Background(), groupEvent())
		}()
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return inflight == 3
	}, time.Second, time.Millisecond, "three workers should run in parallel")
	close(gate)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, peak)
}

// Package client implements the typed action surface of the upstream
// bot: a correlator matching responses to requests by echo token, a
// pull cursor for streamed transfers, and one method per upstream
// action.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/metrics"
	"github.com/onegate/onegate/internal/onebot"
)

var (
	// ErrClosed is returned once the upstream connection is torn down.
	ErrClosed = errors.New("upstream connection closed")
	// ErrTimeout is returned when the upstream never answers a call.
	ErrTimeout = errors.New("action timed out")
	// ErrStream wraps error frames received inside a streamed action.
	ErrStream = errors.New("stream failed")
	// ErrStreamIdle is returned when a stream stalls between frames.
	ErrStreamIdle = errors.New("stream idle timeout")
)

// streamBuffer bounds the frames queued per stream. Deliver blocks once
// it is full, pushing backpressure onto the upstream socket.
const streamBuffer = 64

// Conn is the write half of the upstream socket. *websocket.Conn
// satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
}

// payload is the wire shape of an outbound action frame.
type payload struct {
	Action string `json:"action"`
	Params any    `json:"params,omitempty"`
	Echo   string `json:"echo,omitempty"`
}

type streamFrame struct {
	data *onebot.StreamData
	err  error
	end  bool
}

// waiter holds the delivery channel for one pending echo. Exactly one
// of single and frames is set.
type waiter struct {
	single chan *onebot.Response
	frames chan streamFrame
	gone   chan struct{}
}

// Correlator matches response frames to the calls that caused them.
// Echo tokens are UUIDs, so concurrent calls to the same action never
// collide.
type Correlator struct {
	conn Conn
	log  *zap.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	waiters map[string]*waiter

	done      chan struct{}
	closeOnce sync.Once
}

// NewCorrelator wraps the write half of an upstream connection.
func NewCorrelator(conn Conn, log *zap.Logger) *Correlator {
	return &Correlator{
		conn:    conn,
		log:     log.With(zap.String("component", "correlator")),
		waiters: make(map[string]*waiter),
		done:    make(chan struct{}),
	}
}

// Fire sends an action the upstream never answers. No echo is attached
// and nothing is registered.
func (c *Correlator) Fire(action string, params any) error {
	return c.send(payload{Action: action, Params: params})
}

func (c *Correlator) send(p payload) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode action %s: %w", p.Action, err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
		return fmt.Errorf("failed to send action %s: %w", p.Action, err)
	}
	return nil
}

func (c *Correlator) register(echo string, w *waiter) {
	c.mu.Lock()
	c.waiters[echo] = w
	metrics.ActionsPending.Set(float64(len(c.waiters)))
	c.mu.Unlock()
}

func (c *Correlator) remove(echo string) {
	c.mu.Lock()
	delete(c.waiters, echo)
	metrics.ActionsPending.Set(float64(len(c.waiters)))
	c.mu.Unlock()
}

// pending returns the number of registered echoes. Used in tests and
// fine in production; it takes the lock briefly.
func (c *Correlator) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Call sends an action and waits for its correlated response. The echo
// registration is removed on every exit path, so a response arriving
// after a timeout finds no waiter and is dropped.
func (c *Correlator) Call(ctx context.Context, action string, params any, timeout time.Duration) (*onebot.Response, error) {
	echo := uuid.NewString()
	w := &waiter{single: make(chan *onebot.Response, 1)}
	c.register(echo, w)
	defer c.remove(echo)

	start := time.Now()
	if err := c.send(payload{Action: action, Params: params, Echo: echo}); err != nil {
		metrics.ActionsTotal.WithLabelValues(action, "send_error").Inc()
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case resp := <-w.single:
		metrics.ActionDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
		if err := resp.Err(); err != nil {
			metrics.ActionsTotal.WithLabelValues(action, "error").Inc()
			return resp, fmt.Errorf("%s: %w", action, err)
		}
		metrics.ActionsTotal.WithLabelValues(action, "ok").Inc()
		return resp, nil
	case <-timer.C:
		metrics.ActionsTotal.WithLabelValues(action, "timeout").Inc()
		return nil, fmt.Errorf("%s: %w", action, ErrTimeout)
	case <-ctx.Done():
		metrics.ActionsTotal.WithLabelValues(action, "canceled").Inc()
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}
}

// Deliver routes one response frame to its waiter. Responses carrying
// no echo or an unknown echo are logged and dropped; that is the normal
// fate of replies that arrive after their call timed out.
func (c *Correlator) Deliver(resp *onebot.Response) {
	if resp.Echo == "" {
		metrics.FramesDropped.WithLabelValues("no_echo").Inc()
		c.log.Debug("response frame without echo", zap.String("status", resp.Status))
		return
	}
	c.mu.Lock()
	w, ok := c.waiters[resp.Echo]
	if !ok {
		c.mu.Unlock()
		metrics.FramesDropped.WithLabelValues("unknown_echo").Inc()
		c.log.Debug("response for unknown echo", zap.String("echo", resp.Echo))
		return
	}

	if w.single != nil {
		delete(c.waiters, resp.Echo)
		metrics.ActionsPending.Set(float64(len(c.waiters)))
		c.mu.Unlock()
		w.single <- resp
		return
	}

	frame := classifyStreamFrame(resp)
	if frame.end || frame.err != nil {
		delete(c.waiters, resp.Echo)
		metrics.ActionsPending.Set(float64(len(c.waiters)))
	}
	c.mu.Unlock()

	select {
	case w.frames <- frame:
	case <-w.gone:
	case <-c.done:
	}
}

func classifyStreamFrame(resp *onebot.Response) streamFrame {
	if err := resp.Err(); err != nil {
		return streamFrame{err: err}
	}
	sd, err := resp.StreamPayload()
	if err != nil {
		return streamFrame{err: err}
	}
	if sd.Type == onebot.StreamTypeError || sd.DataType == onebot.StreamError {
		return streamFrame{err: fmt.Errorf("%w: %s", ErrStream, sd.Message)}
	}
	if sd.Terminal() {
		return streamFrame{end: true}
	}
	return streamFrame{data: sd}
}

// Close fails every pending call and stream and rejects further sends.
// Safe to call more than once.
func (c *Correlator) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		c.waiters = make(map[string]*waiter)
		metrics.ActionsPending.Set(0)
		c.mu.Unlock()
	})
}

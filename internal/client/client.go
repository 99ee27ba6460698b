package client

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/metrics"
	"github.com/onegate/onegate/internal/onebot"
)

// DefaultTimeout bounds synchronous calls. The slowest upstream actions
// (history fetches, OCR) stay well under it.
const DefaultTimeout = 20 * time.Second

// selfIDSentinel is used until the login info reply or the first
// lifecycle event reveals the real account id.
const selfIDSentinel = 1

// Journaler receives the self message synthesized for every send.
// *journal.Journal is the production implementation.
type Journaler interface {
	Enqueue(ctx context.Context, ev onebot.Event) error
}

// Client is the typed action surface of one upstream connection. All
// methods are safe for concurrent use; writes to the socket are
// serialized by the correlator.
type Client struct {
	corr    *Correlator
	journal Journaler
	log     *zap.Logger
	timeout time.Duration
	selfID  atomic.Int64
}

// New wraps an upstream connection. timeout <= 0 uses DefaultTimeout.
func New(conn Conn, journal Journaler, log *zap.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		corr:    NewCorrelator(conn, log),
		journal: journal,
		log:     log.With(zap.String("component", "client")),
		timeout: timeout,
	}
	c.selfID.Store(selfIDSentinel)
	return c
}

// SelfID returns the bot account id, or the sentinel 1 before it is
// known.
func (c *Client) SelfID() int64 { return c.selfID.Load() }

// SetSelfID records the bot account id. Zero and negative ids are
// ignored so a malformed frame cannot reset a known id.
func (c *Client) SetSelfID(id int64) {
	if id > 0 {
		c.selfID.Store(id)
	}
}

// Deliver routes a correlated response frame to its pending call.
func (c *Client) Deliver(resp *onebot.Response) { c.corr.Deliver(resp) }

// Close fails all pending calls and streams. The client is unusable
// afterwards; a reconnect builds a fresh one.
func (c *Client) Close() { c.corr.Close() }

// Bootstrap resolves the bot account id after connect. Run it in the
// background: events decoded before it completes fall back to the
// sentinel id.
func (c *Client) Bootstrap(ctx context.Context) error {
	info, err := c.GetLoginInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve login info: %w", err)
	}
	c.SetSelfID(info.UserID)
	c.log.Info("bot account resolved",
		zap.Int64("self_id", info.UserID),
		zap.String("nickname", info.Nickname))
	return nil
}

func (c *Client) call(ctx context.Context, action string, params any) (*onebot.Response, error) {
	return c.corr.Call(ctx, action, params, c.timeout)
}

// fire sends an action the upstream never answers.
func (c *Client) fire(action string, params any) error {
	if err := c.corr.Fire(action, params); err != nil {
		metrics.ActionsTotal.WithLabelValues(action, "send_error").Inc()
		return err
	}
	metrics.ActionsTotal.WithLabelValues(action, "fired").Inc()
	return nil
}

// callData runs an action and decodes its data payload into T.
func callData[T any](ctx context.Context, c *Client, action string, params any) (T, error) {
	var out T
	resp, err := c.call(ctx, action, params)
	if err != nil {
		return out, err
	}
	if err := resp.DecodeData(&out); err != nil {
		return out, fmt.Errorf("%s: %w", action, err)
	}
	return out, nil
}

// Package plugin runs event handlers against the upstream event flow.
// Each plugin owns a bounded queue and a worker pool; the dispatcher
// fans events out by variant in priority order, stopping at the first
// plugin that consumes the event.
package plugin

import (
	"context"

	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/client"
	"github.com/onegate/onegate/internal/journal"
	"github.com/onegate/onegate/internal/onebot"
)

// Meta declares a plugin's identity and runtime shape.
type Meta struct {
	// Name identifies the plugin in logs, metrics, and bus diagnostics.
	Name string
	// Interests lists the event variants the plugin receives.
	Interests []string
	// Workers is the number of concurrent handler goroutines. 0 means 1.
	Workers int
	// Priority orders the dispatch chain; higher runs first.
	Priority int
	// QueueSize bounds the pending event queue. 0 means 16. Producers
	// block while the queue is full.
	QueueSize int
	// Publishes and Subscribes declare the broadcast topics the plugin
	// uses. The bus validates the resulting graph at startup.
	Publishes  []string
	Subscribes []string
}

// Context hands plugins the gateway facilities during Setup.
type Context struct {
	Bot     *client.Client
	Journal *journal.Journal
	Bus     *Bus
	Log     *zap.Logger
}

// Plugin is one unit of event-handling behavior.
type Plugin interface {
	// Meta must return the same value every call; the dispatcher reads
	// it once at construction.
	Meta() Meta
	// Setup runs once per session before any event is dispatched.
	Setup(pc *Context) error
	// Handle processes one event. Returning consumed stops the event
	// from reaching lower-priority plugins.
	Handle(ctx context.Context, ev onebot.Event) (consumed bool, err error)
}

// Listener is implemented by plugins that subscribe to bus topics.
type Listener interface {
	OnBroadcast(ctx context.Context, topic string, payload any) error
}

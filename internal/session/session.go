// Package session drives one upstream connection from accept to
// teardown: it owns the action client, the plugin set, and every
// goroutine scoped to the socket.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/client"
	"github.com/onegate/onegate/internal/config"
	"github.com/onegate/onegate/internal/journal"
	"github.com/onegate/onegate/internal/metrics"
	"github.com/onegate/onegate/internal/onebot"
	"github.com/onegate/onegate/internal/plugin"
	"github.com/onegate/onegate/internal/plugins"
)

// Socket is the connection surface a session drives. *websocket.Conn
// satisfies it.
type Socket interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Session binds an accepted upstream socket to the journal and a fresh
// plugin set. The read loop is the only reader; all writes go through
// the action client.
type Session struct {
	conn    Socket
	journal *journal.Journal
	log     *zap.Logger

	bot        *client.Client
	bus        *plugin.Bus
	dispatcher *plugin.Dispatcher
	dump       *frameDump

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup // bootstrap + tracked dispatch tasks

	downOnce sync.Once
}

// New wires the per-connection stack. It fails when the plugin set
// cannot start: a broadcast cycle, a subscriber that is not a
// Listener, or a failing Setup.
func New(conn Socket, j *journal.Journal, set *config.Settings, log *zap.Logger) (*Session, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		conn:    conn,
		journal: j,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.bot = client.New(conn, j, log, set.CallTimeout())

	active := plugins.Build(set.Plugins)
	s.bus = plugin.NewBus(log)
	if err := s.bus.Register(active); err != nil {
		cancel()
		return nil, err
	}
	pc := &plugin.Context{Bot: s.bot, Journal: j, Bus: s.bus, Log: log}
	for _, p := range active {
		if err := p.Setup(pc); err != nil {
			cancel()
			return nil, fmt.Errorf("plugin %s setup: %w", p.Meta().Name, err)
		}
	}
	s.dispatcher = plugin.NewDispatcher(active, log)
	s.dispatcher.Start(ctx)

	if set.DebugFrames {
		dump, err := openFrameDump(debugDumpFile)
		if err != nil {
			log.Warn("debug frame dump disabled", zap.Error(err))
		} else {
			s.dump = dump
		}
	}
	return s, nil
}

// Run pumps the socket until the upstream disconnects, Stop is called,
// or an internal failure ends the session. It always tears the session
// down before returning.
func (s *Session) Run() {
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()
	defer s.teardown()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.bot.Bootstrap(s.ctx); err != nil {
			s.log.Warn("login bootstrap failed", zap.Error(err))
		}
	}()

	outcome := "closed"
	for {
		msgType, raw, err := s.conn.ReadMessage()
		if err != nil {
			switch {
			case s.ctx.Err() != nil:
				s.log.Info("session stopped", zap.Error(err))
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				s.log.Info("upstream disconnected", zap.Error(err))
			default:
				s.log.Warn("upstream read failed", zap.Error(err))
				outcome = "error"
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if err := s.handleFrame(raw); err != nil {
			s.log.Error("session failed", zap.Error(err))
			s.closeWith(websocket.CloseInternalServerErr)
			outcome = "error"
			break
		}
	}
	metrics.SessionsTotal.WithLabelValues(outcome).Inc()
}

// Stop tears the session down from outside the read loop, e.g. during
// server shutdown. Safe to call any number of times.
func (s *Session) Stop() { s.teardown() }

// handleFrame routes one raw text frame. A non-nil error means the
// session cannot continue; undecodable frames are dropped quietly.
func (s *Session) handleFrame(raw []byte) error {
	if s.dump != nil {
		if err := s.dump.append(raw); err != nil {
			s.log.Warn("frame dump write failed", zap.Error(err))
		}
	}

	ev, err := onebot.Decode(raw)
	if err != nil {
		metrics.FramesDropped.WithLabelValues("decode").Inc()
		s.log.Debug("undecodable frame", zap.Error(err), zap.ByteString("frame", raw))
		return nil
	}
	metrics.EventsReceived.WithLabelValues(ev.Variant()).Inc()
	s.log.Debug("event received", zap.String("variant", ev.Variant()))

	if lc, ok := ev.(*onebot.LifeCycle); ok {
		s.bot.SetSelfID(lc.SelfID)
	}

	s.dispatchCopy(raw)

	if resp, ok := ev.(*onebot.Response); ok {
		s.bot.Deliver(resp)
		return nil
	}
	if err := s.journal.Enqueue(s.ctx, ev); err != nil {
		return fmt.Errorf("journal enqueue: %w", err)
	}
	return nil
}

// dispatchCopy hands the plugins their own decode of the frame, so a
// handler mutating its event can never alias the journaled one. The
// task is tracked and released by the session context.
func (s *Session) dispatchCopy(raw []byte) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ev, err := onebot.Decode(raw)
		if err != nil {
			return
		}
		s.dispatcher.Dispatch(s.ctx, ev)
	}()
}

// closeWith sends a close frame; after read failures the peer is
// usually gone, so this is best effort.
func (s *Session) closeWith(code int) {
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(code, "")
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		s.log.Debug("close frame not sent", zap.Error(err))
	}
}

func (s *Session) teardown() {
	s.downOnce.Do(func() {
		s.cancel()
		s.dispatcher.Drain()
		s.bot.Close()
		s.wg.Wait()
		if s.dump != nil {
			if err := s.dump.Close(); err != nil {
				s.log.Warn("frame dump close failed", zap.Error(err))
			}
		}
		_ = s.conn.Close()
		s.log.Info("session closed")
	})
}

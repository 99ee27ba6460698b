// Package server exposes the gateway's HTTP surface: the upstream
// WebSocket endpoint plus health and metrics.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/config"
	"github.com/onegate/onegate/internal/journal"
	"github.com/onegate/onegate/internal/metrics"
	"github.com/onegate/onegate/internal/session"
)

// readLimit caps a single upstream frame. Forward payloads with
// embedded media can be enormous.
const readLimit = 1 << 30 // 1 GiB

// Server accepts upstream connections and runs one session per socket.
type Server struct {
	set     *config.Settings
	journal *journal.Journal
	log     *zap.Logger

	httpSrv  *http.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[*session.Session]struct{}
}

// New builds the server around a shared journal.
func New(set *config.Settings, j *journal.Journal, log *zap.Logger) *Server {
	s := &Server{
		set:     set,
		journal: j,
		log:     log.With(zap.String("component", "server")),
		upgrader: websocket.Upgrader{
			// Upstreams are bot processes, not browsers; the bearer
			// token is the only gate.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sessions: make(map[*session.Session]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{client_id}", s.handleWS)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpSrv = &http.Server{
		Addr:              set.ListenAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// Start serves until Shutdown. A closed listener is not an error.
func (s *Server) Start() error {
	s.log.Info("gateway listening", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener, then stops the live sessions the HTTP
// server does not know about (upgraded sockets are hijacked).
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpSrv.Shutdown(ctx)

	s.mu.Lock()
	live := make([]*session.Session, 0, len(s.sessions))
	for sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()
	for _, sess := range live {
		sess.Stop()
	}
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("client_id")
	log := s.log.With(zap.String("client_id", clientID))

	authorized := s.authorize(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("upgrade failed", zap.Error(err))
		return
	}
	if !authorized {
		log.Warn("upstream rejected: bad credentials")
		metrics.SessionsTotal.WithLabelValues("unauthorized").Inc()
		s.refuse(conn, websocket.ClosePolicyViolation)
		return
	}
	conn.SetReadLimit(readLimit)

	sess, err := session.New(conn, s.journal, s.set, log)
	if err != nil {
		log.Error("session start failed", zap.Error(err))
		s.refuse(conn, websocket.CloseInternalServerErr)
		return
	}
	s.track(sess)
	defer s.untrack(sess)

	log.Info("upstream attached", zap.String("remote", r.RemoteAddr))
	sess.Run()
}

// authorize compares the Authorization header against the expected
// bearer token in constant time.
func (s *Server) authorize(r *http.Request) bool {
	got := []byte(r.Header.Get("Authorization"))
	want := []byte("Bearer " + s.set.AuthToken)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func (s *Server) refuse(conn *websocket.Conn, code int) {
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(code, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
	_ = conn.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) track(sess *session.Session) {
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(sess *session.Session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
}

// Package devserver serves a live preview of an spa project.
//
// Every websocket connection gets its own session: a run loop, a memory
// location and a freshly loaded project. The browser page forwards hash
// changes, clicks and input to the session, and the session pushes the
// rendered page back whenever it changes.
package devserver

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/go-drift/spa/cmd/spa/internal/config"
	"github.com/go-drift/spa/cmd/spa/internal/templates"
	"github.com/go-drift/spa/pkg/dom"
	"github.com/go-drift/spa/pkg/logging"
)

// SocketPath is the websocket endpoint.
const SocketPath = "/ws"

// shutdownTimeout bounds how long ListenAndServe waits for handlers.
const shutdownTimeout = 5 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// Server is the dev preview server.
type Server struct {
	cfg      *config.Resolved
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates a server for cfg.
func New(cfg *config.Resolved, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: make(map[string]*session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDefault(s.logger)
	return s
}

// Handler returns the HTTP handler serving the page and the socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.serveShell)
	mux.HandleFunc("GET "+SocketPath, s.serveSocket)
	return mux
}

// ListenAndServe serves on the configured address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	s.logger.Info("dev server listening", "addr", ln.Addr().String(), "app", s.cfg.AppName)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) serveShell(w http.ResponseWriter, r *http.Request) {
	page, err := templates.Process(templates.ShellPath, templates.ShellData{
		AppName:    s.cfg.AppName,
		SocketPath: SocketPath,
		IDAttr:     dom.IDAttr,
	})
	if err != nil {
		s.logger.Error("shell page failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *Server) serveSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	sess, err := newSession(s.cfg, conn, s.logger)
	if err != nil {
		s.logger.Error("session failed to load", "remote", r.RemoteAddr, "error", err)
		_ = conn.WriteJSON(Message{Type: MessageError, Error: err.Error()})
		return
	}
	s.add(sess)
	defer s.remove(sess)
	s.logger.Info("session opened", "session", sess.id, "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.run(ctx)
		// Unblocks read when the server shuts down first.
		conn.Close()
	}()

	sess.read()
	cancel()
	<-done
	s.logger.Info("session closed", "session", sess.id)
}

func (s *Server) add(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
}

func (s *Server) remove(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess.id)
}

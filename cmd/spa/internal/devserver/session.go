package devserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/net/html"

	"github.com/go-drift/spa/cmd/spa/internal/config"
	"github.com/go-drift/spa/cmd/spa/internal/project"
	"github.com/go-drift/spa/pkg/dom"
	"github.com/go-drift/spa/pkg/router"
	"github.com/go-drift/spa/pkg/runloop"
)

// Message types.
const (
	MessageHash   = "hash"
	MessageInput  = "input"
	MessageClick  = "click"
	MessageRender = "render"
	MessageError  = "error"
)

// Message is the JSON frame exchanged with the page.
type Message struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Value string `json:"value,omitempty"`
	HTML  string `json:"html,omitempty"`
	Error string `json:"error,omitempty"`
}

// session is one connected page. Everything but read runs on loop; read
// only hands messages over with Dispatch.
type session struct {
	id      string
	conn    *websocket.Conn
	loop    *runloop.Loop
	project *project.Project
	logger  *slog.Logger

	last string
}

func newSession(cfg *config.Resolved, conn *websocket.Conn, logger *slog.Logger) (*session, error) {
	id := uuid.New().String()
	logger = logger.With("session", id)
	loop := runloop.New()
	p, err := project.Load(cfg,
		project.WithLoop(loop),
		project.WithLocation(router.NewMemoryLocation(router.FallbackPattern)),
		project.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return &session{
		id:      id,
		conn:    conn,
		loop:    loop,
		project: p,
		logger:  logger,
	}, nil
}

// run drives the session loop until ctx is done, then tears the project
// down on the same goroutine.
func (s *session) run(ctx context.Context) {
	s.project.Start()
	render := s.loop.NewTicker(runloop.DefaultResolution, s.push)
	render.Start()

	_ = s.loop.Run(ctx)

	render.Stop()
	s.project.Close()
}

// read forwards client messages to the loop until the connection fails.
func (s *session) read() {
	for {
		var msg Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("session read ended", "error", err)
			}
			return
		}
		s.loop.Dispatch(func() { s.handle(msg) })
	}
}

func (s *session) handle(msg Message) {
	switch msg.Type {
	case MessageHash:
		s.project.Navigate(msg.Value)
	case MessageClick, MessageInput:
		n, ok := s.project.Document.ByID(msg.ID)
		if !ok {
			s.fail(fmt.Errorf("%s: no node with id %q", msg.Type, msg.ID))
			return
		}
		s.project.Document.Emit(n, dom.Event{Type: msg.Type, Value: msg.Value})
	default:
		s.fail(fmt.Errorf("unknown message type %q", msg.Type))
		return
	}
	s.push()
}

// push sends the page if it changed since the last push.
func (s *session) push() {
	s.tagInteractive()
	page := s.project.HTML()
	if page == s.last {
		return
	}
	if err := s.conn.WriteJSON(Message{Type: MessageRender, HTML: page}); err != nil {
		s.logger.Debug("render push failed", "error", err)
		return
	}
	s.last = page
}

// tagInteractive assigns ids to every node with listeners so the page can
// address events to them.
func (s *session) tagInteractive() {
	doc := s.project.Document
	dom.Walk(doc.Root(), func(n *html.Node) bool {
		if doc.Listeners(n, MessageClick)+doc.Listeners(n, MessageInput) > 0 {
			doc.ID(n)
		}
		return true
	})
}

func (s *session) fail(err error) {
	s.logger.Warn("session message rejected", "error", err)
	if werr := s.conn.WriteJSON(Message{Type: MessageError, Error: err.Error()}); werr != nil {
		s.logger.Debug("error push failed", "error", werr)
	}
}

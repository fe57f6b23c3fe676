// Package gateway serves the browser-facing WebSocket endpoint of the
// practice game. Each connection is one learner working through words:
// the client starts an attempt, streams Opus microphone audio, and receives
// partial transcripts followed by a judged verdict. Reference audio and
// pronunciation tips ride the same connection.
package gateway

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/lexivox/lexivox/internal/confusables"
	"github.com/lexivox/lexivox/internal/hints"
	"github.com/lexivox/lexivox/internal/observe"
	"github.com/lexivox/lexivox/internal/practice"
	"github.com/lexivox/lexivox/internal/progress"
	"github.com/lexivox/lexivox/internal/recognize"
	"github.com/lexivox/lexivox/internal/vocab"
	"github.com/lexivox/lexivox/pkg/provider/tts"
)

// Suggester finds words confusable with a target, used to offer minimal-pair
// practice after a word force-advances. [confusables.Index] implements it.
type Suggester interface {
	Nearest(ctx context.Context, word vocab.Word, topK int) ([]confusables.Neighbor, error)
}

// Server handles practice WebSocket connections. It is safe for concurrent
// use; per-learner state lives on the connection, not the Server.
type Server struct {
	words    vocab.Store
	judge    *practice.Judge
	capturer *recognize.Capturer

	maxAttempts int
	matchMode   string

	progress  progress.Store
	hints     *hints.Generator
	tts       tts.Provider
	voice     tts.Voice
	suggester Suggester

	metrics *observe.Metrics
	logger  *slog.Logger
}

// Option is a functional option for [New].
type Option func(*Server)

// WithProgress enables attempt recording to store.
func WithProgress(store progress.Store) Option {
	return func(s *Server) { s.progress = store }
}

// WithHints enables pronunciation tips on non-accepted verdicts.
func WithHints(g *hints.Generator) Option {
	return func(s *Server) { s.hints = g }
}

// WithTTS enables the "say" message using provider and voice.
func WithTTS(p tts.Provider, voice tts.Voice) Option {
	return func(s *Server) {
		s.tts = p
		s.voice = voice
	}
}

// WithSuggestions enables confusable-word suggestions on forced-advance
// verdicts.
func WithSuggestions(s Suggester) Option {
	return func(srv *Server) { srv.suggester = s }
}

// WithMaxAttempts sets the per-word attempt budget. Zero keeps the
// practice default.
func WithMaxAttempts(n int) Option {
	return func(s *Server) { s.maxAttempts = n }
}

// WithMatchMode sets the mode label recorded on attempt metrics.
func WithMatchMode(mode string) Option {
	return func(s *Server) { s.matchMode = mode }
}

// WithMetrics sets the metrics instance. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger. Default: [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a gateway [Server]. words, judge, and capturer are required;
// everything else is optional.
func New(words vocab.Store, judge *practice.Judge, capturer *recognize.Capturer, opts ...Option) *Server {
	s := &Server{
		words:     words,
		judge:     judge,
		capturer:  capturer,
		matchMode: "edit-distance",
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Register adds the /ws route to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", s.HandleWS)
}

// HandleWS upgrades the request to a WebSocket and runs the practice
// session until the client disconnects.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The game is served from arbitrary dev origins; auth happens at
		// the reverse proxy in production.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", "err", err)
		return
	}

	s.metrics.ActiveSessions.Add(r.Context(), 1)
	defer s.metrics.ActiveSessions.Add(r.Context(), -1)

	c := newConnection(s, ws)
	c.run(r.Context())
}

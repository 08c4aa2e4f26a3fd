package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/aretw0/omnibot/pkg/metrics"
	"github.com/aretw0/omnibot/pkg/notify"
	"github.com/aretw0/omnibot/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Server is the webchat channel adapter over a ConversationEngine.
type Server struct {
	Engine  ports.ConversationEngine
	Broker  *notify.Broker
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	maxInputSize   int
	rateLimit      int
	rateWindow     time.Duration
	allowedOrigins []string
	version        string
}

// Option configures the Server.
type Option func(*Server)

// WithBroker enables GET /events backed by broker.
func WithBroker(b *notify.Broker) Option {
	return func(s *Server) { s.Broker = b }
}

// WithMetrics enables GET /metrics and request instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.Metrics = m }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.Logger = l }
}

// WithMaxInputSize sets the largest accepted message content in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) { s.maxInputSize = n }
}

// WithRateLimit limits message posts per client IP. Zero disables the limit.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(s *Server) {
		s.rateLimit = requests
		s.rateWindow = window
	}
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewHandler builds the chi router for engine.
func NewHandler(engine ports.ConversationEngine, opts ...Option) http.Handler {
	s := &Server{
		Engine:         engine,
		Logger:         slog.New(slog.DiscardHandler),
		maxInputSize:   DefaultMaxInputSize,
		rateLimit:      60,
		rateWindow:     time.Minute,
		allowedOrigins: []string{"https://*", "http://*"},
		version:        "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.GetHealth)
	r.Get("/flow", s.GetFlow)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler())
	}
	if s.Broker != nil {
		r.Get("/events", s.SubscribeEvents)
	}

	r.Route("/conversations", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.rateLimit > 0 {
				r.Use(s.limiter())
			}
			r.Post("/", s.StartConversation)
			r.Post("/{id}/messages", s.PostMessage)
		})
		r.Get("/{id}", s.GetConversation)
		r.Post("/{id}/assign", s.AssignConversation)
		r.Post("/{id}/close", s.CloseConversation)
	})
	return r
}

func (s *Server) limiter() func(http.Handler) http.Handler {
	return httprate.Limit(
		s.rateLimit,
		s.rateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
		}),
	)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if s.Metrics != nil {
			s.Metrics.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
		}
		s.Logger.Debug("request completed",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type startRequest struct {
	ConversationID string `json:"conversation_id"`
}

type messageRequest struct {
	Content     string             `json:"content"`
	MessageType domain.MessageType `json:"message_type"`
	ButtonIndex *int               `json:"button_index,omitempty"`
}

type assignRequest struct {
	AgentID string `json:"agent_id"`
}

type botResponseBody struct {
	ConversationID string              `json:"conversation_id"`
	BotResponse    *domain.BotResponse `json:"bot_response"`
}

type errorBody struct {
	Error string `json:"error"`
}

// StartConversation handles POST /conversations.
func (s *Server) StartConversation(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
			return
		}
	}
	resp, err := s.Engine.Start(r.Context(), strings.TrimSpace(body.ConversationID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, botResponseBody{ConversationID: resp.ConversationID, BotResponse: resp})
}

// PostMessage handles POST /conversations/{id}/messages.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, int64(s.maxInputSize)*2+1024)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	content, err := SanitizeInput(body.Content, s.maxInputSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	msg := domain.InboundMessage{
		ConversationID: id,
		Content:        content,
		MessageType:    body.MessageType,
		ButtonIndex:    body.ButtonIndex,
	}
	if msg.MessageType == "" {
		msg.MessageType = domain.MessageText
		if msg.ButtonIndex != nil {
			msg.MessageType = domain.MessageButton
		}
	}

	resp, err := s.Engine.HandleMessage(r.Context(), msg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, botResponseBody{ConversationID: id, BotResponse: resp})
}

// GetConversation handles GET /conversations/{id}.
func (s *Server) GetConversation(w http.ResponseWriter, r *http.Request) {
	exec, err := s.Engine.Execution(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exec)
}

// AssignConversation handles POST /conversations/{id}/assign.
func (s *Server) AssignConversation(w http.ResponseWriter, r *http.Request) {
	var body assignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.AgentID) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "agent_id is required"})
		return
	}
	if err := s.Engine.Assign(r.Context(), chi.URLParam(r, "id"), strings.TrimSpace(body.AgentID)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CloseConversation handles POST /conversations/{id}/close.
func (s *Server) CloseConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFlow handles GET /flow.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := s.Engine.ActiveFlow(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", r.URL.Path, "err", err, "request_id", middleware.GetReqID(r.Context()))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrExecutionNotFound), errors.Is(err, domain.ErrFlowNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotBotHandled),
		errors.Is(err, domain.ErrConversationExists),
		errors.Is(err, domain.ErrConversationClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoActiveFlow):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidUTF8):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

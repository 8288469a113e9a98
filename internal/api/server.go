package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/trivia-archive/internal/archive"
	"github.com/JakeFAU/trivia-archive/internal/grading"
	"github.com/JakeFAU/trivia-archive/internal/metrics"
)

// BoardReader is the read side of the archive repository.
type BoardReader interface {
	RandomCompleteShow(ctx context.Context) (int64, error)
	LoadBoard(ctx context.Context, showID int64) (archive.Board, error)
	GetClue(ctx context.Context, clueID int64) (archive.Clue, error)
}

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config controls middleware behavior.
type Config struct {
	// APIKey enables X-API-Key checks on /v1 routes when non-empty.
	APIKey         string
	RequestTimeout time.Duration
}

// Server wires HTTP handlers to the repository.
type Server struct {
	router chi.Router
	store  BoardReader
	logger *zap.Logger
}

const defaultRequestTimeout = 60 * time.Second

// NewServer constructs a Server with middleware and routes.
func NewServer(store BoardReader, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	s := &Server{
		store:  store,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(cfg.RequestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.APIKey != "" {
			r.Use(apiKeyMiddleware(cfg.APIKey))
		}
		r.Get("/games/random", s.randomGame)
		r.Get("/games/{show_id}", s.getGame)
		r.Post("/clues/{clue_id}/grade", s.gradeClue)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			s.writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) randomGame(w http.ResponseWriter, r *http.Request) {
	showID, err := s.store.RandomCompleteShow(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "no complete show available")
		return
	}
	s.writeBoard(w, r, showID)
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	showID, ok := s.pathID(w, r, "show_id")
	if !ok {
		return
	}
	s.writeBoard(w, r, showID)
}

func (s *Server) writeBoard(w http.ResponseWriter, r *http.Request, showID int64) {
	board, err := s.store.LoadBoard(r.Context(), showID)
	if err != nil {
		s.writeStoreError(w, err, "show not found")
		return
	}
	s.writeJSON(w, http.StatusOK, board)
}

type gradeRequest struct {
	Response string `json:"response"`
}

type gradeResponse struct {
	Correct bool   `json:"correct"`
	Answer  string `json:"answer"`
}

func (s *Server) gradeClue(w http.ResponseWriter, r *http.Request) {
	clueID, ok := s.pathID(w, r, "clue_id")
	if !ok {
		return
	}
	var req gradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	clue, err := s.store.GetClue(r.Context(), clueID)
	if err != nil {
		s.writeStoreError(w, err, "clue not found")
		return
	}
	correct := grading.IsMatch(req.Response, clue.Answer)
	metrics.ObserveGrade(correct)
	s.writeJSON(w, http.StatusOK, gradeResponse{Correct: correct, Answer: clue.Answer})
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, archive.ErrNotFound):
		s.writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusRequestTimeout, "request timed out")
	default:
		s.logger.Error("store read failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

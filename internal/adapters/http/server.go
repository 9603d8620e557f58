package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/swimlane"
	"github.com/aretw0/swimlane/internal/logging"
	"github.com/aretw0/swimlane/pkg/domain"
	"github.com/aretw0/swimlane/pkg/session"
)

// APIVersion is reported by GET /info.
const APIVersion = "1.0.0"

// Server exposes boards over a JSON API.
type Server struct {
	Boards  *session.Manager
	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h on GET /metrics (usually promhttp.Handler()).
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for the boards held by mgr.
func NewHandler(mgr *session.Manager, opts ...Option) http.Handler {
	s := &Server{Boards: mgr, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.Health)
	r.Get("/info", s.Info)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/boards", func(r chi.Router) {
		r.Get("/", s.ListBoards)
		r.Route("/{board}", func(r chi.Router) {
			r.Get("/", s.GetBoard)
			r.Post("/lanes/{lane}/blocks", s.AddBlock)
			r.Delete("/lanes/{lane}/blocks/{block}", s.DeleteBlock)
			r.Patch("/lanes/{lane}/blocks/{block}", s.RenameBlock)
			r.Post("/moves", s.MoveBlock)
			r.Post("/rules", s.AddRule)
			r.Delete("/rules/{rule}", s.DeleteRule)
		})
	})
	return r
}

// OutcomeResponse is returned by every mutating route.
type OutcomeResponse struct {
	Changed bool               `json:"changed"`
	State   *domain.BoardState `json:"state"`
}

// DeniedResponse is returned with 409 when a rule vetoes a move.
type DeniedResponse struct {
	Denied  bool   `json:"denied"`
	From    int    `json:"from"`
	To      int    `json:"to"`
	Message string `json:"message"`
}

// BlockRequest is the body of POST .../blocks and PATCH .../blocks/{block}.
type BlockRequest struct {
	Name string `json:"name"`
}

// MoveRequest is the body of POST /boards/{board}/moves.
// When BlockID is set it takes precedence over Lane and Block.
// A missing TargetBlock appends to the end of the target lane.
type MoveRequest struct {
	BlockID     string `json:"blockId,omitempty"`
	Lane        int    `json:"lane"`
	Block       int    `json:"block"`
	TargetLane  int    `json:"targetLane"`
	TargetBlock *int   `json:"targetBlock,omitempty"`
}

// RuleRequest is the body of POST /boards/{board}/rules. Lanes are 1-based.
type RuleRequest struct {
	From   int               `json:"from"`
	To     int               `json:"to"`
	Action domain.RuleAction `json:"action"`
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info handles GET /info.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "swimlane-http",
		"version":     strings.TrimSpace(swimlane.Version),
		"api_version": APIVersion,
	})
}

// ListBoards handles GET /boards.
func (s *Server) ListBoards(w http.ResponseWriter, r *http.Request) {
	keys, err := s.Boards.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"boards": keys})
}

// GetBoard handles GET /boards/{board}.
func (s *Server) GetBoard(w http.ResponseWriter, r *http.Request) {
	state, err := s.Boards.View(r.Context(), chi.URLParam(r, "board"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// AddBlock handles POST /boards/{board}/lanes/{lane}/blocks.
func (s *Server) AddBlock(w http.ResponseWriter, r *http.Request) {
	lane, ok := intParam(w, r, "lane")
	if !ok {
		return
	}
	var body BlockRequest
	if !decode(w, r, &body) {
		return
	}
	s.mutate(w, r, http.StatusCreated, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
		return b.AddBlock(ctx, lane, body.Name)
	})
}

// DeleteBlock handles DELETE /boards/{board}/lanes/{lane}/blocks/{block}.
func (s *Server) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	lane, ok := intParam(w, r, "lane")
	if !ok {
		return
	}
	block, ok := intParam(w, r, "block")
	if !ok {
		return
	}
	s.mutate(w, r, http.StatusOK, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
		return b.DeleteBlock(ctx, block, lane)
	})
}

// RenameBlock handles PATCH /boards/{board}/lanes/{lane}/blocks/{block}.
func (s *Server) RenameBlock(w http.ResponseWriter, r *http.Request) {
	lane, ok := intParam(w, r, "lane")
	if !ok {
		return
	}
	block, ok := intParam(w, r, "block")
	if !ok {
		return
	}
	var body BlockRequest
	if !decode(w, r, &body) {
		return
	}
	s.mutate(w, r, http.StatusOK, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
		return b.EditBlockName(ctx, block, lane, body.Name)
	})
}

// MoveBlock handles POST /boards/{board}/moves.
func (s *Server) MoveBlock(w http.ResponseWriter, r *http.Request) {
	var body MoveRequest
	if !decode(w, r, &body) {
		return
	}
	target := -1
	if body.TargetBlock != nil {
		target = *body.TargetBlock
	}
	s.mutate(w, r, http.StatusOK, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
		if body.BlockID != "" {
			return b.MoveBlockByID(ctx, body.BlockID, body.TargetLane, target)
		}
		return b.MoveBlock(ctx, body.Block, body.Lane, body.TargetLane, target)
	})
}

// AddRule handles POST /boards/{board}/rules.
func (s *Server) AddRule(w http.ResponseWriter, r *http.Request) {
	var body RuleRequest
	if !decode(w, r, &body) {
		return
	}
	s.mutate(w, r, http.StatusCreated, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
		return b.AddRule(ctx, domain.NewRule(body.From, body.To, body.Action))
	})
}

// DeleteRule handles DELETE /boards/{board}/rules/{rule}.
func (s *Server) DeleteRule(w http.ResponseWriter, r *http.Request) {
	rule, ok := intParam(w, r, "rule")
	if !ok {
		return
	}
	s.mutate(w, r, http.StatusOK, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
		return b.DeleteRule(ctx, rule)
	})
}

// -- Helpers --

func (s *Server) mutate(w http.ResponseWriter, r *http.Request, status int, op func(context.Context, *swimlane.Board) (swimlane.Outcome, error)) {
	var out swimlane.Outcome
	err := s.Boards.Do(r.Context(), chi.URLParam(r, "board"), func(ctx context.Context, b *swimlane.Board) error {
		var err error
		out, err = op(ctx, b)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	if !out.Changed {
		status = http.StatusOK
	}
	writeJSON(w, status, OutcomeResponse{Changed: out.Changed, State: out.State})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if denied, ok := swimlane.Denied(err); ok {
		writeJSON(w, http.StatusConflict, DeniedResponse{
			Denied:  true,
			From:    denied.From,
			To:      denied.To,
			Message: denied.Error(),
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidLane), errors.Is(err, domain.ErrInvalidBlock):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRule):
		status = http.StatusBadRequest
	default:
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name + " index"})
		return 0, false
	}
	return v, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

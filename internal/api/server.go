package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"benchmgr/internal/definition"
	"benchmgr/internal/logging"
	"benchmgr/internal/stage"
	"benchmgr/internal/store"
)

const defaultListLimit = 100

// Store is the read side of the store the API exposes.
type Store interface {
	Ping(ctx context.Context) error
	Path() string
	LoadAll(ctx context.Context, kind definition.Kind) ([]definition.Record, error)
	ListOutcomes(ctx context.Context, runID string, limit int) ([]store.Outcome, error)
	ListAlertHistory(ctx context.Context, filter store.AlertFilter) ([]store.AlertRecord, error)
}

// Server is the HTTP API server.
type Server struct {
	bind     string
	store    Store
	registry *stage.Registry
	logger   *slog.Logger
	router   chi.Router

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// New constructs the API server. registry may be nil, in which case the
// health endpoint reports no stage information.
func New(bind string, st Store, registry *stage.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bind:     strings.TrimSpace(bind),
		store:    st,
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/runs", s.handleRuns)
		r.Get("/definitions/{kind}", s.handleDefinitions)
		r.Get("/alerts", s.handleAlerts)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	s.router = r
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the bind address and serves until ctx is cancelled or
// Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.server = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String(logging.FieldEventType, "api_listening"),
	)
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("elapsed", time.Since(start)),
			logging.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{OK: true, Database: s.store.Path(), StageHealth: []StageHealth{}}
	if err := s.store.Ping(r.Context()); err != nil {
		resp.OK = false
		resp.StoreError = err.Error()
	}
	if s.registry != nil {
		for _, kind := range definition.AllKinds() {
			health := s.registry.HealthCheck(kind)
			for _, h := range health {
				if !h.Ready {
					resp.OK = false
				}
			}
			resp.StageHealth = append(resp.StageHealth, StageHealthFor(kind, health)...)
		}
	}
	status := http.StatusOK
	if !resp.OK {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.parseLimit(w, r)
	if !ok {
		return
	}
	outcomes, err := s.store.ListOutcomes(r.Context(), r.URL.Query().Get("run"), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := OutcomeListResponse{Outcomes: make([]Outcome, 0, len(outcomes))}
	for _, o := range outcomes {
		resp.Outcomes = append(resp.Outcomes, FromOutcome(o))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDefinitions(w http.ResponseWriter, r *http.Request) {
	kind, ok := definition.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown definition kind")
		return
	}
	records, err := s.store.LoadAll(r.Context(), kind)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := DefinitionListResponse{Definitions: make([]Definition, 0, len(records))}
	for _, rec := range records {
		resp.Definitions = append(resp.Definitions, FromRecord(rec))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.parseLimit(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	alerts, err := s.store.ListAlertHistory(r.Context(), store.AlertFilter{
		AlertName: query.Get("name"),
		Test:      query.Get("test"),
		Limit:     limit,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := AlertListResponse{Alerts: make([]Alert, 0, len(alerts))}
	for _, a := range alerts {
		resp.Alerts = append(resp.Alerts, FromAlert(a))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return defaultListLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	return limit, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("api response encode failed", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}

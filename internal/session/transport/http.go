// # internal/session/transport/http.go
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classforge/internal/core/config"
	"classforge/internal/session/contracts"
	"classforge/internal/shared/util"
)

const (
	httpShutdownTimeout = 5 * time.Second
	limiterTTL          = 10 * time.Minute
)

// HTTP serves the operation surface over REST-ish routes plus the
// health, metrics and WebSocket endpoints. One limiter per client IP.
type HTTP struct {
	cfg     config.Session
	handler Handler
	hub     *Hub
	server  *http.Server

	limiters *util.LimiterRegistry
}

// NewHTTP builds the serve-mode transport. hub may be nil, which leaves
// the events endpoint unmounted.
func NewHTTP(cfg config.Session, hub *Hub) *HTTP {
	s := &HTTP{cfg: cfg, hub: hub}
	if cfg.RateLimit.PerSecond > 0 {
		s.limiters = util.NewLimiterRegistry(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst, limiterTTL)
	}
	return s
}

func (s *HTTP) Start(ctx context.Context, handler Handler) error {
	s.handler = handler
	s.server = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("session HTTP server listening", "address", s.cfg.Address)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Stop()
	}
}

func (s *HTTP) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// router is split out so tests can drive the routes without a listener.
func (s *HTTP) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/health/live", s.handleLive)
	r.Get("/health/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/ops", s.handleListOps)
		r.Post("/ops/{op}", s.handleOp)
		if s.hub != nil {
			r.Get("/events", s.hub.HandleWS)
		}
	})
	return r
}

func (s *HTTP) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports ready once the engine answers system.health with
// anything other than an error. A degraded store still counts as ready;
// the payload says so.
func (s *HTTP) handleReady(w http.ResponseWriter, r *http.Request) {
	result, err := s.handler(r.Context(), string(contracts.OperationSystemHealth), nil)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTP) handleListOps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":    contracts.ServiceName,
		"version":    contracts.ContractVersion,
		"operations": contracts.Descriptors(),
	})
}

func (s *HTTP) handleOp(w http.ResponseWriter, r *http.Request) {
	if s.limiters != nil {
		if !s.limiters.Get(util.GetClientIP(r)).Allow(1) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, contracts.OpError{
				Code:    contracts.ErrorUnavailable,
				Message: "rate limit exceeded",
			})
			return
		}
	}

	params := map[string]any{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeError(w, http.StatusBadRequest, contracts.OpError{
				Code:    contracts.ErrorInvalidArgument,
				Message: "request body must be a JSON object",
			})
			return
		}
	}

	result, err := s.handler(r.Context(), chi.URLParam(r, "op"), params)
	if err != nil {
		opErr := normalizeOpError(err)
		writeError(w, statusForCode(opErr.Code), opErr)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func statusForCode(code string) int {
	switch code {
	case contracts.ErrorInvalidArgument:
		return http.StatusBadRequest
	case contracts.ErrorNotFound:
		return http.StatusNotFound
	case contracts.ErrorConflict:
		return http.StatusConflict
	case contracts.ErrorUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, opErr contracts.OpError) {
	writeJSON(w, status, map[string]any{"error": opErr})
}

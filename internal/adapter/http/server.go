package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/neo-impact-service/internal/domain"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20
	dateLayout      = "2006-01-02"
)

// Evaluator turns a scenario into an impact report.
type Evaluator interface {
	Evaluate(ctx context.Context, req domain.ScenarioRequest) (domain.ImpactReport, error)
}

// Deps are the server's collaborators. A nil Ready always reports ready;
// a nil Feed or Candidates makes its route answer 503.
type Deps struct {
	Ready      sharedobs.ReadinessChecker
	Evaluator  Evaluator
	Feed       domain.NEOFeed
	Candidates domain.CandidateLister
	Clock      func() time.Time
}

// Server exposes the estimate API plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /v1 API routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Ready == nil {
		deps.Ready = alwaysReady{}
	}
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			// Estimates may wait on HORIZONS, which is slow.
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/estimates", s.handleEstimate)
	mux.HandleFunc("GET /v1/neocp", s.handleNEOCP)
	mux.HandleFunc("GET /v1/neos/feed", s.handleFeed)

	s.httpServer.Handler = s.withRequestID(mux)
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type requestIDKey struct{}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, err)
		return
	}
	req, err := domain.DecodeScenario(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := s.deps.Evaluator.Evaluate(r.Context(), req)
	if err != nil {
		s.writeUpstreamError(w, r, "estimate failed", err)
		return
	}
	s.logger.Info("estimate served",
		"request_id", requestID(r.Context()),
		"report_id", report.ID,
		"status", report.Status,
	)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleNEOCP(w http.ResponseWriter, r *http.Request) {
	if s.deps.Candidates == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("neocp source is not configured"))
		return
	}
	candidates, err := s.deps.Candidates.ListCandidates(r.Context())
	if err != nil {
		s.writeUpstreamError(w, r, "list neocp failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(candidates),
		"candidates": candidates,
	})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if s.deps.Feed == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("neows feed is not configured"))
		return
	}
	start, end, err := s.feedWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	neos, err := s.deps.Feed.Feed(r.Context(), start, end)
	if err != nil {
		s.writeUpstreamError(w, r, "neows feed failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"start_date": start.Format(dateLayout),
		"end_date":   end.Format(dateLayout),
		"count":      len(neos),
		"neos":       neos,
	})
}

// feedWindow reads start_date and end_date, defaulting to today and a week
// after start.
func (s *Server) feedWindow(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	start := s.deps.Clock().UTC().Truncate(24 * time.Hour)
	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid start_date: want YYYY-MM-DD")
		}
		start = t
	}
	end := start.Add(domain.MaxFeedWindow)
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid end_date: want YYYY-MM-DD")
		}
		end = t
	}
	if err := domain.ValidateFeedWindow(start, end); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, domain.ErrInvalidScenario), errors.Is(err, domain.ErrInvalidFeedWindow):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	s.logger.Warn(msg, "request_id", requestID(r.Context()), "status", status, "error", err)
	writeError(w, status, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

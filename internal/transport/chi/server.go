package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bizlookup/internal/domain"
	"github.com/kailas-cloud/bizlookup/internal/domain/failure"
	"github.com/kailas-cloud/bizlookup/internal/domain/search/request"
	"github.com/kailas-cloud/bizlookup/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/bizlookup/internal/usecase/health"
)

// Lookuper runs one business lookup.
type Lookuper interface {
	Lookup(ctx context.Context, q request.Request) (result.Result, error)
}

// HealthReporter aggregates component health.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the HTML lookup form, the JSON API and operational endpoints.
type Server struct {
	lookup    Lookuper
	health    HealthReporter
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
}

// NewServer creates an HTTP server. health can be nil.
func NewServer(lookup Lookuper, health HealthReporter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		lookup:    lookup,
		health:    health,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

// Register mounts all routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/", s.Index)
	r.Post("/search", s.SearchPage)
	r.Get("/api/v1/search", s.SearchAPI)
	r.Post("/api/v1/search", s.SearchAPIJSON)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFiles()))))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: string(healthuc.Healthy), Checks: map[string]string{}})
		return
	}

	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Error codes of the JSON API.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeLookupFailed     = "lookup_failed"
)

type errorResponse struct {
	Code      string `json:"code"`
	Category  string `json:"category,omitempty"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// statusFor maps a failure category to the HTTP status of both views.
func statusFor(c failure.Category) int {
	switch c {
	case failure.MissingCredential:
		return http.StatusServiceUnavailable
	case failure.QuotaExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

// classify unwraps the lookup error into a failure. Unclassified errors are
// classified here so that every failure has a category.
func classify(err error) failure.Failure {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return fe.Failure
	}
	return failure.Classify(err)
}

// validationMessage renders a query validation error for users.
func validationMessage(err error) string {
	if errors.Is(err, domain.ErrEmptyQuery) {
		return "Please enter an industry, a location, or both."
	}
	return err.Error()
}

package health

import (
	"context"
	"errors"

	"github.com/kailas-cloud/bizlookup/internal/domain"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the provider is unreachable.
	Degraded Status = "degraded"
	// Unhealthy indicates no credential is configured, so no lookup can succeed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckSkipped indicates a check that could not run.
	CheckSkipped CheckResult = "skipped"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	completion CompletionChecker
}

// New creates a Service. completion can be nil.
func New(completion CompletionChecker) *Service {
	return &Service{completion: completion}
}

// Check runs the credential and provider checks.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{"credential": CheckOK}

	if s.completion == nil {
		return Report{Status: Healthy, Checks: checks}
	}

	err := s.completion.HealthCheck(ctx)
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		checks["credential"] = CheckError
		checks["completion"] = CheckSkipped
		return Report{Status: Unhealthy, Checks: checks}
	case err != nil:
		checks["completion"] = CheckError
		return Report{Status: Degraded, Checks: checks}
	default:
		checks["completion"] = CheckOK
		return Report{Status: Healthy, Checks: checks}
	}
}

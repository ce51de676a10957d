// Package failure maps completion failures to the user-facing error categories.
package failure

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kailas-cloud/bizlookup/internal/domain"
)

// Category is the closed set of user-facing failure kinds.
type Category string

const (
	// MissingCredential means no API key is configured.
	MissingCredential Category = "missing_credential"
	// AuthFailed means the provider rejected the API key.
	AuthFailed Category = "auth_failed"
	// QuotaExceeded means the provider (or the local throttle) refused for volume.
	QuotaExceeded Category = "quota_exceeded"
	// Unknown covers everything else.
	Unknown Category = "unknown"
)

// Categories lists every category, for metric pre-registration.
var Categories = []Category{MissingCredential, AuthFailed, QuotaExceeded, Unknown}

// Title is the short heading shown above the remediation text.
func (c Category) Title() string {
	switch c {
	case MissingCredential:
		return "API key is not configured"
	case AuthFailed:
		return "API key was rejected"
	case QuotaExceeded:
		return "Search quota exceeded"
	default:
		return "Search failed"
	}
}

// Remediation is the fixed, category-specific instruction for the user.
func (c Category) Remediation() string {
	switch c {
	case MissingCredential:
		return "The completion API key is missing. Set GEMINI_API_KEY (or API_KEY) " +
			"in the deployment environment, then redeploy the service without cache."
	case AuthFailed:
		return "The provider rejected the configured API key. Check the key in your " +
			"provider console, update the deployment environment and redeploy."
	case QuotaExceeded:
		return "The provider quota is used up or searches are arriving too fast. " +
			"Wait a minute, then retry the same search."
	default:
		return "The search could not be completed. Check your network connection and try again later."
	}
}

// Retryable reports whether the UI offers a one-click re-submit.
func (c Category) Retryable() bool { return c == QuotaExceeded }

// Failure is a classified lookup failure.
type Failure struct {
	Category Category
	Detail   string // original error text, for diagnostics
}

// Message returns the remediation text of the category.
func (f Failure) Message() string { return f.Category.Remediation() }

// Retryable reports whether the failure offers a retry.
func (f Failure) Retryable() bool { return f.Category.Retryable() }

var (
	authMarkers  = []string{"401", "403", "api key not valid", "api_key_invalid", "unauthorized", "permission_denied"}
	quotaMarkers = []string{"429", "quota", "too many requests", "resource_exhausted", "rate limit"}
)

// Classify maps err to exactly one category. Precedence: missing credential,
// structured provider status, then substring matching on the error text.
// A nil error classifies as Unknown.
func Classify(err error) Failure {
	if err == nil {
		return Failure{Category: Unknown}
	}
	detail := err.Error()

	if errors.Is(err, domain.ErrMissingCredential) {
		return Failure{Category: MissingCredential, Detail: detail}
	}
	if errors.Is(err, domain.ErrRateLimited) {
		return Failure{Category: QuotaExceeded, Detail: detail}
	}

	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		if c, ok := fromStatus(pe.StatusCode, pe.Status); ok {
			return Failure{Category: c, Detail: detail}
		}
	}

	lower := strings.ToLower(detail)
	switch {
	case containsAny(lower, authMarkers):
		return Failure{Category: AuthFailed, Detail: detail}
	case containsAny(lower, quotaMarkers):
		return Failure{Category: QuotaExceeded, Detail: detail}
	}
	return Failure{Category: Unknown, Detail: detail}
}

func fromStatus(code int, status string) (Category, bool) {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return AuthFailed, true
	case http.StatusTooManyRequests:
		return QuotaExceeded, true
	}
	switch strings.ToUpper(status) {
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return AuthFailed, true
	case "RESOURCE_EXHAUSTED":
		return QuotaExceeded, true
	}
	return "", false
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// Error is a classified failure that still unwraps to its cause.
type Error struct {
	Failure Failure
	cause   error
}

// New classifies err. It returns nil for a nil error.
func New(err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return &Error{Failure: Classify(err), cause: err}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return string(e.Failure.Category)
	}
	return string(e.Failure.Category) + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// CategoryOf returns the category of a classified error, classifying on the fly otherwise.
func CategoryOf(err error) Category {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Failure.Category
	}
	return Classify(err).Category
}

package bizlookup

import (
	"github.com/kailas-cloud/bizlookup/internal/domain"
	"github.com/kailas-cloud/bizlookup/internal/domain/failure"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyQuery        = domain.ErrEmptyQuery
	ErrMissingCredential = domain.ErrMissingCredential
	ErrRateLimited       = domain.ErrRateLimited
	ErrProviderError     = domain.ErrProviderError
)

// ErrorCategory is the user-facing class of a failed lookup.
type ErrorCategory string

// Error categories.
const (
	CategoryMissingCredential = ErrorCategory(failure.MissingCredential)
	CategoryAuthFailed        = ErrorCategory(failure.AuthFailed)
	CategoryQuotaExceeded     = ErrorCategory(failure.QuotaExceeded)
	CategoryUnknown           = ErrorCategory(failure.Unknown)
)

// CategoryOf classifies a Lookup error.
func CategoryOf(err error) ErrorCategory {
	return ErrorCategory(failure.CategoryOf(err))
}

// Remediation returns the fixed instruction shown to users for a category.
func (c ErrorCategory) Remediation() string {
	return failure.Category(c).Remediation()
}

// Retryable reports whether re-submitting the same query may succeed.
func (c ErrorCategory) Retryable() bool {
	return failure.Category(c).Retryable()
}

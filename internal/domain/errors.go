package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery signals a query with neither industry nor location.
	ErrEmptyQuery = errors.New("industry or location is required")
	// ErrMissingCredential signals that no provider credential is configured.
	ErrMissingCredential = errors.New("completion credential is not configured")
	// ErrRateLimited signals that the local outbound throttle refused the call.
	ErrRateLimited = errors.New("rate limited")
	// ErrProviderError signals a completion provider failure.
	ErrProviderError = errors.New("completion provider error")
	// ErrEmptyResponse signals a provider answer without candidates.
	ErrEmptyResponse = errors.New("empty completion response")
)

// ProviderError carries the structured status of a failed provider call.
// StatusCode is zero when the failure happened below HTTP (dial, TLS, decode).
type ProviderError struct {
	Provider   string
	StatusCode int
	Status     string // provider status string, e.g. RESOURCE_EXHAUSTED
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s: %s", ErrProviderError.Error(), e.Provider, e.Message)
	}
	if e.Status != "" {
		return fmt.Sprintf("%s: %s %d %s: %s",
			ErrProviderError.Error(), e.Provider, e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s %d: %s", ErrProviderError.Error(), e.Provider, e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error { return ErrProviderError }

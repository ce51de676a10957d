package failure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kailas-cloud/bizlookup/internal/domain"
)

func TestClassify_MissingCredentialWins(t *testing.T) {
	errs := []error{
		domain.ErrMissingCredential,
		fmt.Errorf("complete: %w", domain.ErrMissingCredential),
		fmt.Errorf("429 quota 401: %w", domain.ErrMissingCredential),
		errors.Join(&domain.ProviderError{Provider: "gemini", StatusCode: 429}, domain.ErrMissingCredential),
	}
	for _, err := range errs {
		if got := Classify(err).Category; got != MissingCredential {
			t.Errorf("Classify(%v) = %q, want %q", err, got, MissingCredential)
		}
	}
}

func TestClassify_StructuredStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *domain.ProviderError
		want Category
	}{
		{"401", &domain.ProviderError{Provider: "openai", StatusCode: 401}, AuthFailed},
		{"403", &domain.ProviderError{Provider: "gemini", StatusCode: 403}, AuthFailed},
		{"429", &domain.ProviderError{Provider: "gemini", StatusCode: 429}, QuotaExceeded},
		{"status only", &domain.ProviderError{Provider: "gemini", Status: "RESOURCE_EXHAUSTED"}, QuotaExceeded},
		{"unauthenticated", &domain.ProviderError{Provider: "gemini", StatusCode: 400, Status: "UNAUTHENTICATED"}, AuthFailed},
		{"500", &domain.ProviderError{Provider: "gemini", StatusCode: 500, Message: "backend error"}, Unknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := fmt.Errorf("complete: %w", tc.err)
			if got := Classify(err).Category; got != tc.want {
				t.Errorf("Classify = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassify_SubstringFallback(t *testing.T) {
	tests := []struct {
		detail string
		want   Category
	}{
		{"429 Too Many Requests", QuotaExceeded},
		{"You exceeded your current quota", QuotaExceeded},
		{"401 Unauthorized", AuthFailed},
		{"API key not valid. Please pass a valid API key.", AuthFailed},
		{"connection reset by peer", Unknown},
	}

	for _, tc := range tests {
		t.Run(tc.detail, func(t *testing.T) {
			f := Classify(errors.New(tc.detail))
			if f.Category != tc.want {
				t.Errorf("Classify(%q) = %q, want %q", tc.detail, f.Category, tc.want)
			}
			if f.Detail != tc.detail {
				t.Errorf("Detail = %q, want original text", f.Detail)
			}
		})
	}
}

func TestClassify_ProviderStatusBeatsText(t *testing.T) {
	err := &domain.ProviderError{Provider: "gemini", StatusCode: 403, Message: "quota project mismatch"}
	if got := Classify(err).Category; got != AuthFailed {
		t.Errorf("Classify = %q, want %q", got, AuthFailed)
	}
}

func TestClassify_RateLimited(t *testing.T) {
	err := fmt.Errorf("throttle: %w", domain.ErrRateLimited)
	if got := Classify(err).Category; got != QuotaExceeded {
		t.Errorf("Classify = %q, want %q", got, QuotaExceeded)
	}
}

func TestClassify_NilAndTimeout(t *testing.T) {
	if got := Classify(nil); got.Category != Unknown || got.Detail != "" {
		t.Errorf("Classify(nil) = %+v", got)
	}
	if got := Classify(context.DeadlineExceeded).Category; got != Unknown {
		t.Errorf("Classify(deadline) = %q, want %q", got, Unknown)
	}
}

func TestCategory_Remediation(t *testing.T) {
	seen := map[string]Category{}
	for _, c := range Categories {
		msg := c.Remediation()
		if msg == "" {
			t.Errorf("%q has no remediation", c)
		}
		if prev, ok := seen[msg]; ok {
			t.Errorf("%q and %q share a remediation", c, prev)
		}
		seen[msg] = c
		if c.Title() == "" {
			t.Errorf("%q has no title", c)
		}
	}
	if !strings.Contains(MissingCredential.Remediation(), "redeploy") {
		t.Error("missing credential remediation should mention redeploying")
	}
}

func TestCategory_Retryable(t *testing.T) {
	for _, c := range Categories {
		if got, want := c.Retryable(), c == QuotaExceeded; got != want {
			t.Errorf("%q.Retryable() = %v, want %v", c, got, want)
		}
	}
}

func TestError_WrapsAndUnwraps(t *testing.T) {
	cause := &domain.ProviderError{Provider: "gemini", StatusCode: 429, Message: "slow down"}
	err := New(fmt.Errorf("complete: %w", cause))

	if err.Failure.Category != QuotaExceeded {
		t.Errorf("Category = %q", err.Failure.Category)
	}
	if !errors.Is(err, domain.ErrProviderError) {
		t.Error("expected error chain to keep ErrProviderError")
	}
	if CategoryOf(fmt.Errorf("handler: %w", err)) != QuotaExceeded {
		t.Error("CategoryOf should find the wrapped classification")
	}
	if New(err) != err {
		t.Error("New must not reclassify an already classified error")
	}
	if New(nil) != nil {
		t.Error("New(nil) must be nil")
	}
}

package completion

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/bizlookup/internal/domain"
	"github.com/kailas-cloud/bizlookup/internal/metrics"
)

// Throttled limits outbound completion calls with a token bucket.
// A wait that cannot finish before the context deadline fails with domain.ErrRateLimited.
type Throttled struct {
	inner    domain.Completer
	limiter  *rate.Limiter
	provider string
	logger   *zap.Logger
}

// NewThrottled wraps a completer with a per-minute limit. perMinute <= 0 disables limiting.
func NewThrottled(inner domain.Completer, provider string, perMinute, burst int, logger *zap.Logger) *Throttled {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttled{
		inner:    inner,
		limiter:  rate.NewLimiter(limit, burst),
		provider: provider,
		logger:   logger,
	}
}

// HasCredential forwards to the wrapped completer.
func (t *Throttled) HasCredential() bool { return domain.HasCredential(t.inner) }

// Complete waits for a token, then delegates. A missing credential fails
// before the limiter so no token is spent on a call that cannot succeed.
func (t *Throttled) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResponse, error) {
	if !t.HasCredential() {
		return domain.CompletionResponse{}, domain.ErrMissingCredential
	}
	if err := t.limiter.Wait(ctx); err != nil {
		metrics.CompletionThrottledTotal.WithLabelValues(t.provider).Inc()
		t.logger.Warn("Completion throttled",
			zap.String("provider", t.provider),
			zap.Error(err),
		)
		return domain.CompletionResponse{}, fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return t.inner.Complete(ctx, req)
}

package completion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bizlookup/internal/domain"
	"github.com/kailas-cloud/bizlookup/internal/domain/failure"
	"github.com/kailas-cloud/bizlookup/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// Instrumented wraps a Completer with budget enforcement, logging and error categorization.
// Transport metrics (requests, duration, tokens) are recorded in the transport packages.
type Instrumented struct {
	inner    domain.Completer
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumented wraps a completer with budget and observability. budget may be nil.
func NewInstrumented(
	inner domain.Completer, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *Instrumented {
	return &Instrumented{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		logger:   logger,
	}
}

// HasCredential forwards to the wrapped completer.
func (p *Instrumented) HasCredential() bool { return domain.HasCredential(p.inner) }

// Complete checks the credential and the budget, delegates to the inner
// completer and records usage.
func (p *Instrumented) Complete(
	ctx context.Context, req domain.CompletionRequest,
) (domain.CompletionResponse, error) {
	if !p.HasCredential() {
		p.recordError(domain.ErrMissingCredential)
		return domain.CompletionResponse{}, domain.ErrMissingCredential
	}
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.recordError(err)
			p.logger.Error("Budget exceeded",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Error(err),
			)
			return domain.CompletionResponse{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()

	resp, err := p.inner.Complete(ctx, req)

	duration := time.Since(start)

	if err != nil {
		category := p.recordError(err)
		p.logger.Error("Completion request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.String("category", string(category)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.CompletionResponse{}, fmt.Errorf("complete: %w", err)
	}

	domain.UsageFromContext(ctx).AddTokens(resp.TotalTokens)

	if p.budget != nil && resp.TotalTokens > 0 {
		p.budget.Record(int64(resp.TotalTokens))
		remaining := metrics.CompletionBudgetTokensRemaining
		remaining.WithLabelValues(p.provider, "daily").Set(float64(p.budget.RemainingDaily()))
		remaining.WithLabelValues(p.provider, "monthly").Set(float64(p.budget.RemainingMonthly()))
	}

	p.logger.Debug("Completion request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Bool("web_search", req.WebSearch),
		zap.Duration("duration", duration),
		zap.Int("text_len", len(resp.Text)),
		zap.Int("citations", len(resp.Citations)),
		zap.Int("prompt_tokens", resp.PromptTokens),
		zap.Int("total_tokens", resp.TotalTokens),
	)

	return resp, nil
}

func (p *Instrumented) recordError(err error) failure.Category {
	category := failure.CategoryOf(err)
	metrics.CompletionErrorsTotal.WithLabelValues(p.provider, p.model, string(category)).Inc()
	return category
}

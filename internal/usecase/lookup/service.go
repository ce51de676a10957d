package lookup

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bizlookup/internal/domain"
	"github.com/kailas-cloud/bizlookup/internal/domain/extract"
	"github.com/kailas-cloud/bizlookup/internal/domain/failure"
	"github.com/kailas-cloud/bizlookup/internal/domain/search/request"
	"github.com/kailas-cloud/bizlookup/internal/domain/search/result"
	"github.com/kailas-cloud/bizlookup/internal/metrics"
)

// NoResponseText replaces an empty model answer.
const NoResponseText = "No response text found."

// Options tune each completion call.
type Options struct {
	Temperature float32
	WebSearch   bool
	Timeout     time.Duration // 0 = bounded only by the caller's context
}

// Service runs one business lookup: prompt, completion, extraction.
type Service struct {
	completer Completer
	prompts   PromptBuilder
	opts      Options
	logger    *zap.Logger
}

// New creates a lookup service.
func New(completer Completer, prompts PromptBuilder, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{completer: completer, prompts: prompts, opts: opts, logger: logger}
}

// Lookup asks the model for businesses matching q.
// Every failure is returned as a *failure.Error; a successful answer always
// yields a Result, with an empty record list when extraction degrades.
func (s *Service) Lookup(ctx context.Context, q request.Request) (result.Result, error) {
	log := s.logger.With(
		zap.String("attempt_id", uuid.NewString()),
		zap.String("industry", q.Industry()),
		zap.String("location", q.Location()),
	)

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()

	resp, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Prompt:      s.prompts.Build(q),
		Temperature: s.opts.Temperature,
		WebSearch:   s.opts.WebSearch,
	})
	if err != nil {
		ferr := failure.New(err)
		metrics.LookupsTotal.WithLabelValues(string(ferr.Failure.Category)).Inc()
		log.Warn("Lookup failed",
			zap.String("category", string(ferr.Failure.Category)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return result.Result{}, ferr
	}

	text := resp.Text
	if strings.TrimSpace(text) == "" {
		text = NoResponseText
	}

	parsed := extract.Parse(text)
	metrics.ExtractionTotal.WithLabelValues(string(parsed.Outcome)).Inc()
	metrics.ExtractedRecords.Observe(float64(len(parsed.Records)))
	if parsed.Degraded() {
		log.Debug("Extraction degraded", zap.String("outcome", string(parsed.Outcome)))
	}

	metrics.LookupsTotal.WithLabelValues("ok").Inc()
	log.Info("Lookup completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("records", len(parsed.Records)),
		zap.Int("citations", len(resp.Citations)),
		zap.Int("total_tokens", resp.TotalTokens),
	)

	return result.New(parsed.Narrative, parsed.Records, resp.Citations), nil
}

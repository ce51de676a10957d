package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/bizlookup/internal/domain"
	"github.com/kailas-cloud/bizlookup/internal/domain/citation"
	"github.com/kailas-cloud/bizlookup/internal/metrics"
)

const providerName = "gemini"

// Completer is a completion provider backed by the Gemini API with optional
// Google Search grounding.
type Completer struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// Config holds the Gemini provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewCompleter creates a Gemini completion provider. Without an API key no
// client is built and every call fails with domain.ErrMissingCredential.
func NewCompleter(ctx context.Context, cfg *Config) (*Completer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Completer{model: cfg.Model, logger: logger}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return c, nil
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	c.client = client
	return c, nil
}

// HasCredential implements domain.CredentialChecker.
func (c *Completer) HasCredential() bool { return c.client != nil }

// Complete implements domain.Completer.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResponse, error) {
	if c.client == nil {
		return domain.CompletionResponse{}, domain.ErrMissingCredential
	}

	temperature := req.Temperature
	config := &genai.GenerateContentConfig{Temperature: &temperature}
	if req.WebSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	start := time.Now()

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), config)

	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(providerName, c.model, "error").Inc()
		return domain.CompletionResponse{}, parseAPIError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		metrics.CompletionRequestsTotal.WithLabelValues(providerName, c.model, "error").Inc()
		return domain.CompletionResponse{}, fmt.Errorf("%s: %w", providerName, domain.ErrEmptyResponse)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(providerName, c.model, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(providerName, c.model).Observe(duration.Seconds())

	out := domain.CompletionResponse{
		Text:      candidateText(resp.Candidates[0]),
		Citations: groundingCitations(resp.Candidates[0]),
	}

	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
		out.TotalTokens = int(u.TotalTokenCount)

		metrics.CompletionTokensTotal.WithLabelValues(providerName, c.model, "prompt").Add(float64(out.PromptTokens))
		metrics.CompletionTokensTotal.WithLabelValues(providerName, c.model, "completion").Add(float64(out.CompletionTokens))
		metrics.CompletionTokensTotal.WithLabelValues(providerName, c.model, "total").Add(float64(out.TotalTokens))
	}

	c.logger.Debug("gemini generation finished",
		zap.String("model", c.model),
		zap.String("finish_reason", string(resp.Candidates[0].FinishReason)),
		zap.Int("citations", len(out.Citations)),
		zap.Duration("duration", duration),
	)

	return out, nil
}

// HealthCheck verifies API availability by listing a single model.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if c.client == nil {
		return domain.ErrMissingCredential
	}
	if _, err := c.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1}); err != nil {
		return fmt.Errorf("list models: %w", parseAPIError(err))
	}
	return nil
}

// candidateText concatenates the text parts of the first candidate, skipping thought summaries.
func candidateText(cand *genai.Candidate) string {
	if cand == nil || cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// groundingCitations lists web and maps sources in the order the API returned them.
func groundingCitations(cand *genai.Candidate) []citation.Citation {
	if cand == nil || cand.GroundingMetadata == nil {
		return nil
	}
	var out []citation.Citation
	for _, chunk := range cand.GroundingMetadata.GroundingChunks {
		if chunk == nil {
			continue
		}
		if w := chunk.Web; w != nil {
			if cit, ok := citation.New(citation.Web, w.URI, w.Title); ok {
				out = append(out, cit)
			}
		}
		if m := chunk.Maps; m != nil {
			if cit, ok := citation.New(citation.Maps, m.URI, m.Title); ok {
				out = append(out, cit)
			}
		}
	}
	return out
}

// parseAPIError converts a genai error into a *domain.ProviderError carrying code and status.
func parseAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &domain.ProviderError{
			Provider:   providerName,
			StatusCode: apiErr.Code,
			Status:     apiErr.Status,
			Message:    apiErr.Message,
		}
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &domain.ProviderError{
			Provider:   providerName,
			StatusCode: apiErrPtr.Code,
			Status:     apiErrPtr.Status,
			Message:    apiErrPtr.Message,
		}
	}

	return &domain.ProviderError{Provider: providerName, Message: err.Error()}
}

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bizlookup/internal/domain"
	"github.com/kailas-cloud/bizlookup/internal/metrics"
)

// Completer is a completion provider using an OpenAI-compatible chat API
// (OpenAI, OpenRouter, the Gemini compatibility endpoint, ...).
type Completer struct {
	client       *openai.Client
	model        string
	searchSuffix string
	provider     string
	hasKey       bool
	logger       *zap.Logger
}

// Config holds the completion provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// WebSearchModelSuffix is appended to Model when web search is requested,
	// for gateways that expose grounding as a model variant (OpenRouter ":online").
	WebSearchModelSuffix string
	Provider             string
	HTTPClient           *http.Client
	Logger               *zap.Logger
}

// NewCompleter creates an OpenAI-compatible completion provider.
func NewCompleter(cfg *Config) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Completer{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		searchSuffix: cfg.WebSearchModelSuffix,
		provider:     provider,
		hasKey:       strings.TrimSpace(cfg.APIKey) != "",
		logger:       logger,
	}
}

// HasCredential implements domain.CredentialChecker.
func (c *Completer) HasCredential() bool { return c.hasKey }

// Complete implements domain.Completer. Fails with domain.ErrMissingCredential
// before any network I/O when no key is configured.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResponse, error) {
	if !c.hasKey {
		return domain.CompletionResponse{}, domain.ErrMissingCredential
	}

	model := c.modelFor(req.WebSearch)
	temperature := req.Temperature
	if temperature == 0 {
		// go-openai drops a zero temperature from the payload
		temperature = math.SmallestNonzeroFloat32
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: temperature,
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)

	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
		return domain.CompletionResponse{}, c.parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
		return domain.CompletionResponse{}, fmt.Errorf("%s: %w", c.provider, domain.ErrEmptyResponse)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(c.provider, model).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.CompletionTokensTotal.WithLabelValues(c.provider, model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.CompletionTokensTotal.WithLabelValues(c.provider, model, "completion").Add(float64(resp.Usage.CompletionTokens))
		metrics.CompletionTokensTotal.WithLabelValues(c.provider, model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	c.logger.Debug("chat completion finished",
		zap.String("model", model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Duration("duration", duration),
	)

	// This transport does not surface grounding sources.
	return domain.CompletionResponse{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Completer) HealthCheck(ctx context.Context) error {
	if !c.hasKey {
		return domain.ErrMissingCredential
	}
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", c.parseAPIError(err))
	}
	return nil
}

func (c *Completer) modelFor(webSearch bool) string {
	if webSearch && c.searchSuffix != "" && !strings.HasSuffix(c.model, c.searchSuffix) {
		return c.model + c.searchSuffix
	}
	return c.model
}

// parseAPIError converts a go-openai error into a *domain.ProviderError carrying the HTTP status.
func (c *Completer) parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.ProviderError{
			Provider:   c.provider,
			StatusCode: apiErr.HTTPStatusCode,
			Status:     apiErr.Type,
			Message:    apiErr.Message,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := extractDetail(reqErr.Body)
		if msg == "" {
			msg = strings.TrimSpace(string(reqErr.Body))
		}
		if msg == "" && reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &domain.ProviderError{
			Provider:   c.provider,
			StatusCode: reqErr.HTTPStatusCode,
			Message:    msg,
		}
	}

	return &domain.ProviderError{Provider: c.provider, Message: err.Error()}
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius/OpenRouter error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

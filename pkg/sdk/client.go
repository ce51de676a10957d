package bizlookup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bizlookup/internal/domain"
	"github.com/kailas-cloud/bizlookup/internal/domain/citation"
	"github.com/kailas-cloud/bizlookup/internal/domain/prompt"
	"github.com/kailas-cloud/bizlookup/internal/domain/search/request"
	"github.com/kailas-cloud/bizlookup/internal/domain/search/result"
	"github.com/kailas-cloud/bizlookup/internal/transport/gemini"
	"github.com/kailas-cloud/bizlookup/internal/transport/openai"
	completionuc "github.com/kailas-cloud/bizlookup/internal/usecase/completion"
	healthuc "github.com/kailas-cloud/bizlookup/internal/usecase/health"
	lookupuc "github.com/kailas-cloud/bizlookup/internal/usecase/lookup"
)

const (
	providerGemini = "gemini"
	providerOpenAI = "openai"

	defaultGeminiModel = "gemini-2.5-flash"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultTemperature = 0.7
	defaultTimeout     = 60 * time.Second
)

// Внутренний интерфейс для подмены в тестах.
type lookupUseCase interface {
	Lookup(ctx context.Context, q request.Request) (result.Result, error)
}

// Client is the bizlookup SDK entry point.
type Client struct {
	lookupSvc lookupUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. Without WithCompleter, WithGemini or WithOpenAI the
// Gemini provider is used with an empty key, so every lookup fails with
// ErrMissingCredential.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		provider:    providerGemini,
		temperature: defaultTemperature,
		webSearch:   true,
		timeout:     defaultTimeout,
		region:      prompt.DefaultBuilder().Region,
		minResults:  prompt.DefaultBuilder().MinResults,
		maxResults:  prompt.DefaultBuilder().MaxResults,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.maxResults < cfg.minResults {
		return nil, fmt.Errorf("bizlookup: max results %d below min results %d", cfg.maxResults, cfg.minResults)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	base, checker, err := createCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return wireClient(base, checker, cfg, obs), nil
}

func createCompleter(ctx context.Context, cfg *clientConfig) (domain.Completer, healthuc.CompletionChecker, error) {
	if cfg.completer != nil {
		return &completerAdapter{inner: cfg.completer}, nil, nil
	}

	switch cfg.provider {
	case providerGemini:
		model := cfg.model
		if model == "" {
			model = defaultGeminiModel
		}
		c, err := gemini.NewCompleter(ctx, &gemini.Config{
			APIKey:     cfg.apiKey,
			BaseURL:    cfg.baseURL,
			Model:      model,
			HTTPClient: cfg.httpClient,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("bizlookup: %w", err)
		}
		cfg.model = model
		return c, c, nil
	case providerOpenAI:
		model := cfg.model
		if model == "" {
			model = defaultOpenAIModel
		}
		c := openai.NewCompleter(&openai.Config{
			APIKey:               cfg.apiKey,
			BaseURL:              cfg.baseURL,
			Model:                model,
			WebSearchModelSuffix: cfg.searchSuffix,
			Provider:             providerOpenAI,
			HTTPClient:           cfg.httpClient,
		})
		cfg.model = model
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("bizlookup: unknown provider %q", cfg.provider)
	}
}

// wireClient assembles the decorator chain: provider -> Throttled -> Instrumented -> lookup.
func wireClient(base domain.Completer, checker healthuc.CompletionChecker, cfg *clientConfig, obs *observer) *Client {
	var comp domain.Completer = base
	if cfg.ratePerMin > 0 {
		comp = completionuc.NewThrottled(comp, cfg.provider, cfg.ratePerMin, cfg.rateBurst, zap.NewNop())
	}
	comp = completionuc.NewInstrumented(comp, cfg.provider, cfg.model, nil, zap.NewNop())

	builder := prompt.Builder{
		Region:            cfg.region,
		MinResults:        cfg.minResults,
		MaxResults:        cfg.maxResults,
		ExtraInstructions: cfg.extraInstructions,
	}
	lookupSvc := lookupuc.New(comp, builder, lookupuc.Options{
		Temperature: cfg.temperature,
		WebSearch:   cfg.webSearch,
		Timeout:     cfg.timeout,
	}, zap.NewNop())

	return &Client{
		lookupSvc: lookupSvc,
		healthSvc: healthuc.New(checker),
		obs:       obs,
	}
}

// Lookup finds businesses matching industry and/or location.
// Errors are classified; use CategoryOf to pick a remediation.
func (c *Client) Lookup(ctx context.Context, industry, location string) (res *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("lookup", start, err) }()

	q, err := request.New(industry, location)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}

	r, err := c.lookupSvc.Lookup(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	return resultFromDomain(&r), nil
}

func resultFromDomain(r *result.Result) *Result {
	records := make([]Business, len(r.Records()))
	for i, rec := range r.Records() {
		records[i] = Business{
			Name:     rec.Name,
			Industry: rec.Industry,
			Phone:    rec.Phone,
			Address:  rec.Address,
			Email:    rec.Email,
			Website:  rec.Website,
		}
	}
	citations := make([]Citation, len(r.Citations()))
	for i, cit := range r.Citations() {
		citations[i] = Citation{Kind: CitationKind(cit.Kind), URI: cit.URI, Title: cit.Title}
	}
	return &Result{
		Narrative: r.Narrative(),
		Records:   records,
		Citations: citations,
	}
}

// completerAdapter wraps public Completer to satisfy internal domain.Completer.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResponse, error) {
	out, err := a.inner.Complete(ctx, req.Prompt, req.WebSearch)
	if err != nil {
		return domain.CompletionResponse{}, fmt.Errorf("complete: %w", err)
	}

	var citations []citation.Citation
	for _, cit := range out.Citations {
		if dc, ok := citation.New(citation.Kind(cit.Kind), cit.URI, cit.Title); ok {
			citations = append(citations, dc)
		}
	}
	return domain.CompletionResponse{
		Text:        out.Text,
		Citations:   citations,
		TotalTokens: out.TotalTokens,
	}, nil
}

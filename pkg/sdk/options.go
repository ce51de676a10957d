package bizlookup

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	provider   string // "gemini" or "openai"
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	completer  Completer

	temperature  float32
	webSearch    bool
	searchSuffix string
	timeout      time.Duration
	ratePerMin   int
	rateBurst    int

	region            string
	minResults        int
	maxResults        int
	extraInstructions string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithGemini uses the Gemini API with Google Search grounding.
func WithGemini(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = providerGemini
		c.apiKey = apiKey
	})
}

// WithOpenAI uses an OpenAI-compatible chat completion endpoint.
// baseURL may be empty for api.openai.com.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = providerOpenAI
		c.apiKey = apiKey
		c.baseURL = baseURL
	})
}

// WithCompleter replaces the provider with a custom backend.
func WithCompleter(comp Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = comp
	})
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = model
	})
}

// WithHTTPClient sets the HTTP client used for provider calls.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithTemperature sets the sampling temperature. Default: 0.7.
func WithTemperature(t float32) Option {
	return optionFunc(func(c *clientConfig) {
		c.temperature = t
	})
}

// WithWebSearch toggles search grounding. Default: enabled.
// suffix is appended to the model name on OpenAI-compatible gateways (e.g. ":online").
func WithWebSearch(enabled bool, suffix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.webSearch = enabled
		c.searchSuffix = suffix
	})
}

// WithTimeout bounds each lookup. Default: 60s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithRateLimit throttles outbound calls to perMinute with the given burst.
func WithRateLimit(perMinute, burst int) Option {
	return optionFunc(func(c *clientConfig) {
		c.ratePerMin = perMinute
		c.rateBurst = burst
	})
}

// WithRegion restricts the search to a region. Default: Malaysia.
// An empty region removes the restriction.
func WithRegion(region string) Option {
	return optionFunc(func(c *clientConfig) {
		c.region = region
	})
}

// WithResultRange sets how many businesses the prompt asks for. Default: 15-20.
func WithResultRange(minResults, maxResults int) Option {
	return optionFunc(func(c *clientConfig) {
		c.minResults = minResults
		c.maxResults = maxResults
	})
}

// WithInstructions appends free-form instructions to the prompt.
func WithInstructions(text string) Option {
	return optionFunc(func(c *clientConfig) {
		c.extraInstructions = text
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

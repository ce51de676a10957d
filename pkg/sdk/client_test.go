package bizlookup

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockCompleter struct {
	fn func(ctx context.Context, prompt string, webSearch bool) (Completion, error)
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string, webSearch bool) (Completion, error) {
	return m.fn(ctx, prompt, webSearch)
}

func answer(text string, citations ...Citation) *mockCompleter {
	return &mockCompleter{fn: func(_ context.Context, _ string, _ bool) (Completion, error) {
		return Completion{Text: text, Citations: citations, TotalTokens: 10}, nil
	}}
}

func failing(err error) *mockCompleter {
	return &mockCompleter{fn: func(_ context.Context, _ string, _ bool) (Completion, error) {
		return Completion{}, err
	}}
}

func TestLookup_Penang(t *testing.T) {
	var gotPrompt string
	var gotSearch bool
	comp := &mockCompleter{fn: func(_ context.Context, prompt string, webSearch bool) (Completion, error) {
		gotPrompt, gotSearch = prompt, webSearch
		return Completion{
			Text: "Here are bakeries in Penang.\n```json\n" +
				`[{"name":"ABC Bakery","phone":"04-1234567","website":"https://abc.my"}]` +
				"\n```",
			Citations: []Citation{
				{Kind: CitationWeb, URI: "https://abc.my", Title: "abc.my"},
				{Kind: "video", URI: "https://x"},
			},
		}, nil
	}}

	client, err := New(context.Background(), WithCompleter(comp), WithRegion("Malaysia"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := client.Lookup(context.Background(), "bakery", "Penang")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	// the narrative is returned as the model wrote it, up to the fence
	if res.Narrative != "Here are bakeries in Penang.\n" {
		t.Errorf("narrative = %q", res.Narrative)
	}
	if len(res.Records) != 1 || res.Records[0].Name != "ABC Bakery" || res.Records[0].Website != "https://abc.my" {
		t.Errorf("unexpected records %+v", res.Records)
	}
	if len(res.Citations) != 1 || res.Citations[0].Kind != CitationWeb {
		t.Errorf("expected only the valid citation, got %+v", res.Citations)
	}
	if !gotSearch {
		t.Error("web search should be enabled by default")
	}
	if !strings.Contains(gotPrompt, `industry: "bakery" and location: "Penang"`) {
		t.Errorf("unexpected prompt %q", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "Malaysia") {
		t.Error("expected region in prompt")
	}
}

func TestLookup_Options(t *testing.T) {
	var gotPrompt string
	var gotSearch bool
	comp := &mockCompleter{fn: func(_ context.Context, prompt string, webSearch bool) (Completion, error) {
		gotPrompt, gotSearch = prompt, webSearch
		return Completion{Text: "ok"}, nil
	}}

	client, err := New(context.Background(),
		WithCompleter(comp),
		WithRegion(""),
		WithWebSearch(false, ""),
		WithResultRange(3, 5),
		WithInstructions("Only list halal bakeries."),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Lookup(context.Background(), "bakery", ""); err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if gotSearch {
		t.Error("expected web search disabled")
	}
	if strings.Contains(gotPrompt, "Malaysia") {
		t.Error("expected no region restriction")
	}
	if !strings.Contains(gotPrompt, "Only list halal bakeries.") {
		t.Error("expected extra instructions in prompt")
	}
}

func TestLookup_EmptyQuery(t *testing.T) {
	client, err := New(context.Background(), WithCompleter(answer("unused")))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.Lookup(context.Background(), " ", "")
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestLookup_ErrorCategories(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      ErrorCategory
		retryable bool
	}{
		{"quota", errors.New("googleapi: Error 429: Too Many Requests"), CategoryQuotaExceeded, true},
		{"auth", errors.New("API key not valid"), CategoryAuthFailed, false},
		{"unknown", errors.New("dial tcp: i/o timeout"), CategoryUnknown, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, err := New(context.Background(), WithCompleter(failing(tc.err)))
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			_, err = client.Lookup(context.Background(), "bakery", "Penang")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := CategoryOf(err); got != tc.want {
				t.Errorf("category = %s, want %s", got, tc.want)
			}
			if CategoryOf(err).Retryable() != tc.retryable {
				t.Errorf("retryable = %v, want %v", CategoryOf(err).Retryable(), tc.retryable)
			}
			if CategoryOf(err).Remediation() == "" {
				t.Error("expected remediation text")
			}
		})
	}
}

func TestLookup_MissingCredential(t *testing.T) {
	for _, opt := range []Option{WithGemini(""), WithOpenAI("", "http://127.0.0.1:1")} {
		client, err := New(context.Background(), opt)
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		_, err = client.Lookup(context.Background(), "bakery", "Penang")
		if !errors.Is(err, ErrMissingCredential) {
			t.Fatalf("expected ErrMissingCredential, got %v", err)
		}
		if CategoryOf(err) != CategoryMissingCredential {
			t.Errorf("category = %s", CategoryOf(err))
		}

		h := client.Health(context.Background())
		if h.Status != "error" || h.Checks["credential"] != "error" {
			t.Errorf("unexpected health %+v", h)
		}
	}
}

func TestLookup_MissingCredentialWithRateLimit(t *testing.T) {
	client, err := New(context.Background(), WithGemini(""), WithRateLimit(1, 1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		_, err := client.Lookup(ctx, "bakery", "Penang")
		cancel()

		if CategoryOf(err) != CategoryMissingCredential {
			t.Fatalf("call %d: category = %s, err = %v", i, CategoryOf(err), err)
		}
		if CategoryOf(err).Retryable() {
			t.Errorf("call %d: missing credential must not be retryable", i)
		}
	}
}

func TestLookup_Timeout(t *testing.T) {
	comp := &mockCompleter{fn: func(ctx context.Context, _ string, _ bool) (Completion, error) {
		<-ctx.Done()
		return Completion{}, ctx.Err()
	}}
	client, err := New(context.Background(), WithCompleter(comp), WithTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.Lookup(context.Background(), "bakery", "Penang")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if CategoryOf(err) != CategoryUnknown {
		t.Errorf("category = %s", CategoryOf(err))
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	if _, err := New(context.Background(), WithResultRange(10, 5)); err == nil {
		t.Fatal("expected error for inverted result range")
	}
	if _, err := New(context.Background(), optionFunc(func(c *clientConfig) { c.provider = "anthropic" })); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}
	logger := slog.Default()
	reg := prometheus.NewRegistry()

	for _, o := range []Option{
		WithOpenAI("key", "https://openrouter.ai/api/v1"),
		WithModel("google/gemini-2.5-flash"),
		WithWebSearch(true, ":online"),
		WithTemperature(0.2),
		WithRateLimit(30, 2),
		WithLogger(logger),
		WithPrometheus(reg),
	} {
		o.apply(cfg)
	}

	if cfg.provider != providerOpenAI || cfg.apiKey != "key" || cfg.baseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("unexpected provider config %+v", cfg)
	}
	if cfg.model != "google/gemini-2.5-flash" || cfg.searchSuffix != ":online" || !cfg.webSearch {
		t.Errorf("unexpected model config %+v", cfg)
	}
	if cfg.temperature != 0.2 || cfg.ratePerMin != 30 || cfg.rateBurst != 2 {
		t.Errorf("unexpected tuning %+v", cfg)
	}
	if cfg.logger != logger || cfg.metricsReg != reg {
		t.Error("expected logger and registry to be set")
	}
}

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	client, err := New(context.Background(), WithCompleter(failing(errors.New("quota exhausted"))), WithPrometheus(reg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, _ = client.Lookup(context.Background(), "bakery", "Penang")

	ok, err := New(context.Background(), WithCompleter(answer("fine")), WithPrometheus(reg))
	if err != nil {
		t.Fatalf("New (reuse registry): %v", err)
	}
	_, _ = ok.Lookup(context.Background(), "bakery", "Penang")

	if got := testutil.ToFloat64(client.obs.metrics.operations.WithLabelValues("lookup", "quota_exceeded")); got != 1 {
		t.Errorf("expected 1 quota_exceeded lookup, got %v", got)
	}
	if got := testutil.ToFloat64(client.obs.metrics.operations.WithLabelValues("lookup", "ok")); got != 1 {
		t.Errorf("expected 1 ok lookup, got %v", got)
	}
}

func TestObserver_Nil(t *testing.T) {
	var o *observer
	o.observe("lookup", time.Now(), nil)
}

package lookup

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bizlookup/internal/domain"
	"github.com/kailas-cloud/bizlookup/internal/domain/citation"
	"github.com/kailas-cloud/bizlookup/internal/domain/failure"
	"github.com/kailas-cloud/bizlookup/internal/domain/prompt"
	"github.com/kailas-cloud/bizlookup/internal/domain/search/request"
	"github.com/kailas-cloud/bizlookup/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterCompletionMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockCompleter struct {
	resp domain.CompletionResponse
	err  error
	got  domain.CompletionRequest
	// block waits for ctx cancellation instead of answering.
	block bool
}

func (m *mockCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResponse, error) {
	m.got = req
	if m.block {
		<-ctx.Done()
		return domain.CompletionResponse{}, ctx.Err()
	}
	return m.resp, m.err
}

func mustQuery(t *testing.T, industry, location string) request.Request {
	t.Helper()
	q, err := request.New(industry, location)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return q
}

func newService(c Completer) *Service {
	return New(c, prompt.DefaultBuilder(), Options{Temperature: 0.7, WebSearch: true}, zap.NewNop())
}

// --- Tests ---

func TestLookup_PenangBakeries(t *testing.T) {
	text := "Penang has a vibrant bakery scene.\n" +
		"```json\n" +
		`[{"name":"ABC Bakery","industry":"Bakery","phone":"04-1234567","address":"1 Jalan X, George Town","email":"","website":"https://abc.my"},` +
		`{"name":"Roti Co","industry":"Bakery","phone":"","address":"2 Lebuh Y","email":"hi@roti.my","website":""}]` +
		"\n```"
	comp := &mockCompleter{resp: domain.CompletionResponse{
		Text: text,
		Citations: []citation.Citation{
			{Kind: citation.Web, URI: "https://abc.my", Title: "abc.my"},
		},
		TotalTokens: 120,
	}}
	svc := newService(comp)

	res, err := svc.Lookup(context.Background(), mustQuery(t, "bakery", "Penang"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(res.Narrative(), "Penang has a vibrant bakery scene.") {
		t.Errorf("unexpected narrative %q", res.Narrative())
	}
	if strings.Contains(res.Narrative(), "```") {
		t.Error("narrative must not contain the json block")
	}
	if len(res.Records()) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records()))
	}
	if res.Records()[0].Name != "ABC Bakery" || res.Records()[1].Email != "hi@roti.my" {
		t.Errorf("unexpected records %+v", res.Records())
	}
	if len(res.Citations()) != 1 || res.Citations()[0].URI != "https://abc.my" {
		t.Errorf("unexpected citations %+v", res.Citations())
	}

	if !strings.Contains(comp.got.Prompt, `industry: "bakery" and location: "Penang"`) {
		t.Errorf("prompt lacks criteria: %q", comp.got.Prompt)
	}
	if !comp.got.WebSearch || comp.got.Temperature != 0.7 {
		t.Errorf("unexpected request options %+v", comp.got)
	}
}

func TestLookup_NarrativeOnly(t *testing.T) {
	comp := &mockCompleter{resp: domain.CompletionResponse{Text: "I could not find any businesses."}}
	svc := newService(comp)

	res, err := svc.Lookup(context.Background(), mustQuery(t, "", "Ipoh"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Narrative() != "I could not find any businesses." {
		t.Errorf("unexpected narrative %q", res.Narrative())
	}
	if res.Records() == nil || len(res.Records()) != 0 {
		t.Errorf("expected empty non-nil records, got %#v", res.Records())
	}
}

func TestLookup_EmptyAnswerFallback(t *testing.T) {
	comp := &mockCompleter{resp: domain.CompletionResponse{Text: "  \n"}}
	svc := newService(comp)

	res, err := svc.Lookup(context.Background(), mustQuery(t, "florist", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Narrative() != NoResponseText {
		t.Errorf("expected fallback narrative, got %q", res.Narrative())
	}
}

func TestLookup_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want failure.Category
	}{
		{"missing credential", domain.ErrMissingCredential, failure.MissingCredential},
		{"plain 429 text", errors.New("429 Too Many Requests"), failure.QuotaExceeded},
		{"structured 401", &domain.ProviderError{Provider: "gemini", StatusCode: 401, Message: "bad"}, failure.AuthFailed},
		{"api key not valid", errors.New("API key not valid. Please pass a valid API key."), failure.AuthFailed},
		{"rate limited", domain.ErrRateLimited, failure.QuotaExceeded},
		{"other", errors.New("connection reset by peer"), failure.Unknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newService(&mockCompleter{err: tc.err})

			_, err := svc.Lookup(context.Background(), mustQuery(t, "bakery", "Penang"))
			var fe *failure.Error
			if !errors.As(err, &fe) {
				t.Fatalf("expected *failure.Error, got %T: %v", err, err)
			}
			if fe.Failure.Category != tc.want {
				t.Errorf("category = %s, want %s", fe.Failure.Category, tc.want)
			}
			if !errors.Is(err, tc.err) {
				t.Error("expected the original cause to stay in the chain")
			}
		})
	}
}

func TestLookup_TimeoutIsUnknown(t *testing.T) {
	comp := &mockCompleter{block: true}
	svc := New(comp, prompt.DefaultBuilder(), Options{Timeout: 20 * time.Millisecond}, zap.NewNop())

	_, err := svc.Lookup(context.Background(), mustQuery(t, "bakery", "Penang"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if failure.CategoryOf(err) != failure.Unknown {
		t.Errorf("expected unknown category, got %s", failure.CategoryOf(err))
	}
}

func TestLookup_Metrics(t *testing.T) {
	beforeOK := testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues("ok"))
	beforeQuota := testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues("quota_exceeded"))
	beforeNoBlock := testutil.ToFloat64(metrics.ExtractionTotal.WithLabelValues("no_block"))

	q := mustQuery(t, "bakery", "Penang")

	if _, err := newService(&mockCompleter{resp: domain.CompletionResponse{Text: "plain"}}).Lookup(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := newService(&mockCompleter{err: errors.New("quota exceeded")}).Lookup(context.Background(), q); err == nil {
		t.Fatal("expected error")
	}

	if got := testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues("ok")) - beforeOK; got != 1 {
		t.Errorf("expected 1 ok lookup, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues("quota_exceeded")) - beforeQuota; got != 1 {
		t.Errorf("expected 1 quota lookup, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.ExtractionTotal.WithLabelValues("no_block")) - beforeNoBlock; got != 1 {
		t.Errorf("expected 1 no_block extraction, got %v", got)
	}
}

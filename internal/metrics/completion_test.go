package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterCompletionMetrics_Idempotent(t *testing.T) {
	RegisterCompletionMetrics()
	RegisterCompletionMetrics() // must not panic on duplicate registration

	LookupsTotal.WithLabelValues("ok").Inc()
	if v := testutil.ToFloat64(LookupsTotal.WithLabelValues("ok")); v < 1 {
		t.Errorf("expected lookups_total{outcome=ok} >= 1, got %f", v)
	}
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	m := New()

	m.ReportSaves.WithLabelValues("create", "success").Inc()
	m.ResolutionMisses.WithLabelValues("buyer").Add(2)

	if got := testutil.ToFloat64(m.ReportSaves.WithLabelValues("create", "success")); got != 1 {
		t.Fatalf("saves = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ResolutionMisses.WithLabelValues("buyer")); got != 2 {
		t.Fatalf("misses = %v, want 2", got)
	}

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected gathered metric families")
	}
}

func TestNewUsesIsolatedRegistries(t *testing.T) {
	first := New()
	second := New()
	if first.Registry == second.Registry {
		t.Fatalf("registries must differ")
	}
}

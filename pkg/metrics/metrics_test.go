package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersOnSuppliedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CommentsIngestedTotal.WithLabelValues("inserted").Inc()
	m.CommentsIngestedTotal.WithLabelValues("inserted").Inc()
	m.GramsMergedTotal.WithLabelValues("stem", "2").Add(5)

	if got := testutil.ToFloat64(m.CommentsIngestedTotal.WithLabelValues("inserted")); got != 2 {
		t.Errorf("inserted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.GramsMergedTotal.WithLabelValues("stem", "2")); got != 5 {
		t.Errorf("grams merged = %v, want 5", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(families) == 0 {
		t.Error("expected gathered metric families")
	}
}

func TestNewNopIsIndependent(t *testing.T) {
	// Two instances must not collide on registration.
	a := NewNop()
	b := NewNop()
	a.QueueDepth.Set(3)
	if got := testutil.ToFloat64(b.QueueDepth); got != 0 {
		t.Errorf("nop metrics share state: %v", got)
	}
}

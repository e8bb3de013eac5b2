package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStockMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStockMetrics(reg)

	m.IncReservation("reserved")
	m.IncReservation("reserved")
	m.IncReservation("unreserved")
	m.IncTransition("delivered")
	m.IncShortfall("reserve")
	m.IncShortfall("")

	if got := testutil.ToFloat64(m.reservations.WithLabelValues("reserved")); got != 2 {
		t.Fatalf("expected 2 reserved, got %v", got)
	}
	if got := testutil.ToFloat64(m.reservations.WithLabelValues("unreserved")); got != 1 {
		t.Fatalf("expected 1 unreserved, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("delivered")); got != 1 {
		t.Fatalf("expected 1 delivered transition, got %v", got)
	}
	if got := testutil.ToFloat64(m.shortfalls.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty operation to normalize to unknown, got %v", got)
	}
}

func TestStockMetricsNilSafe(t *testing.T) {
	var m *StockMetrics
	m.IncReservation("reserved")
	m.IncTransition("delivered")
	m.IncShortfall("commit")

	empty := NewStockMetrics(nil)
	empty.IncReservation("reserved")
}

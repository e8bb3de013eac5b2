package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StockMetrics records reservation and order-lifecycle outcomes.
type StockMetrics struct {
	reservations *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	shortfalls   *prometheus.CounterVec
}

// NewStockMetrics registers the inventory metrics on the provided registerer.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	reservations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_reservations_total",
		Help: "Reservation attempts by outcome (reserved/unreserved).",
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions by target status.",
	}, []string{"target"})
	shortfalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_shortfalls_total",
		Help: "Ledger operations rejected for insufficient stock.",
	}, []string{"operation"})
	reg.MustRegister(reservations, transitions, shortfalls)
	return &StockMetrics{
		reservations: reservations,
		transitions:  transitions,
		shortfalls:   shortfalls,
	}
}

// IncReservation counts one reservation attempt with the given outcome.
func (s *StockMetrics) IncReservation(outcome string) {
	if s == nil || s.reservations == nil {
		return
	}
	s.reservations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncTransition counts one order transition into the target status.
func (s *StockMetrics) IncTransition(target string) {
	if s == nil || s.transitions == nil {
		return
	}
	s.transitions.WithLabelValues(normalizeLabel(target)).Inc()
}

// IncShortfall counts one insufficient-stock rejection for the named operation.
func (s *StockMetrics) IncShortfall(operation string) {
	if s == nil || s.shortfalls == nil {
		return
	}
	s.shortfalls.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

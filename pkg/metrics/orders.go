package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics tracks order placement and status changes.
type OrderMetrics struct {
	placed      *prometheus.CounterVec
	value       *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders placed through checkout.",
	}, []string{"cafe"})
	value := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_total_dollars",
		Help:    "Order totals including tax.",
		Buckets: []float64{2, 5, 10, 15, 25, 50, 100},
	}, []string{"cafe"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions applied.",
	}, []string{"from", "to"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_rejected_total",
		Help: "Order status transitions refused by the state machine.",
	}, []string{"from", "to"})
	reg.MustRegister(placed, value, transitions, rejected)
	return &OrderMetrics{
		placed:      placed,
		value:       value,
		transitions: transitions,
		rejected:    rejected,
	}
}

// ObservePlaced counts a new order and records its total in dollars.
func (m *OrderMetrics) ObservePlaced(cafeID string, totalDollars float64) {
	if m == nil || m.placed == nil {
		return
	}
	label := normalizeLabel(cafeID)
	m.placed.WithLabelValues(label).Inc()
	m.value.WithLabelValues(label).Observe(totalDollars)
}

// IncTransition counts an applied status change.
func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncRejected counts a refused status change.
func (m *OrderMetrics) IncRejected(from, to string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

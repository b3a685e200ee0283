package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentPollMetrics records payment status polling activity.
type PaymentPollMetrics struct {
	duration *prometheus.HistogramVec
	checks   *prometheus.CounterVec
	terminal *prometheus.CounterVec
}

// NewPaymentPollMetrics registers the poll metrics on the provided registerer.
func NewPaymentPollMetrics(reg prometheus.Registerer) *PaymentPollMetrics {
	if reg == nil {
		return &PaymentPollMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_status_check_duration_seconds",
		Help:    "Duration of payment status checks in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	checks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_status_checks_total",
		Help: "Payment status checks by result.",
	}, []string{"result"})
	terminal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_terminal_transitions_total",
		Help: "Terminal payment transitions by final status.",
	}, []string{"status"})
	reg.MustRegister(duration, checks, terminal)
	return &PaymentPollMetrics{
		duration: duration,
		checks:   checks,
		terminal: terminal,
	}
}

// ObserveCheck records a status check and its duration.
func (m *PaymentPollMetrics) ObserveCheck(result string, duration time.Duration) {
	if m == nil || m.checks == nil {
		return
	}
	label := normalizeLabel(result)
	m.checks.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncTerminal counts the first terminal transition for an invoice.
func (m *PaymentPollMetrics) IncTerminal(status string) {
	if m == nil || m.terminal == nil {
		return
	}
	m.terminal.WithLabelValues(normalizeLabel(status)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

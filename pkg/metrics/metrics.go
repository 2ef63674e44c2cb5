package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for payment reconciliation.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	OrdersCreated      *prometheus.CounterVec
	WebhooksReceived   *prometheus.CounterVec
	WebhookOutcomes    *prometheus.CounterVec
	WebhookLatency     *prometheus.HistogramVec
	SignatureFailures  *prometheus.CounterVec
	PaymentTransitions *prometheus.CounterVec
	AmountMismatches   *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OrdersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders placed, by currency",
		}, []string{"currency"}),

		WebhooksReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_webhooks_received_total",
			Help: "Gateway webhooks received, by event type",
		}, []string{"event"}),

		WebhookOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_webhook_outcomes_total",
			Help: "Gateway webhook results, by event type and outcome",
		}, []string{"event", "outcome"}),

		WebhookLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payment_webhook_duration_seconds",
			Help:    "Time spent processing a gateway webhook",
			Buckets: prometheus.DefBuckets,
		}, []string{"event"}),

		SignatureFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_signature_failures_total",
			Help: "Rejected webhook signatures and client payment proofs",
		}, []string{"source"}),

		PaymentTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_transitions_total",
			Help: "Payment status changes, by target status and entry point",
		}, []string{"status", "source"}),

		AmountMismatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_amount_mismatches_total",
			Help: "Captures whose amount differed from the order total",
		}, []string{"source"}),

		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification deliveries, by kind, channel and result",
		}, []string{"kind", "channel", "result"}),
	}
}

// OrderCreated counts a placed order
func (m *Metrics) OrderCreated(currency string) {
	if m == nil {
		return
	}
	m.OrdersCreated.WithLabelValues(currency).Inc()
}

// WebhookReceived counts an authenticated webhook delivery
func (m *Metrics) WebhookReceived(event string) {
	if m == nil {
		return
	}
	m.WebhooksReceived.WithLabelValues(event).Inc()
}

// WebhookOutcome records how a webhook was resolved and how long it took
func (m *Metrics) WebhookOutcome(event, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.WebhookOutcomes.WithLabelValues(event, outcome).Inc()
	m.WebhookLatency.WithLabelValues(event).Observe(seconds)
}

// SignatureFailure counts a rejected signature or proof
func (m *Metrics) SignatureFailure(source string) {
	if m == nil {
		return
	}
	m.SignatureFailures.WithLabelValues(source).Inc()
}

// Transition counts a payment status change that was actually written
func (m *Metrics) Transition(status, source string) {
	if m == nil {
		return
	}
	m.PaymentTransitions.WithLabelValues(status, source).Inc()
}

// AmountMismatch counts a rejected capture
func (m *Metrics) AmountMismatch(source string) {
	if m == nil {
		return
	}
	m.AmountMismatches.WithLabelValues(source).Inc()
}

// Notification records a delivery attempt
func (m *Metrics) Notification(kind, channel, result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind, channel, result).Inc()
}

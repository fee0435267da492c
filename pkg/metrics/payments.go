package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records the outcome of payment processing and token minting.
type PaymentMetrics struct {
	decisions      *prometheus.CounterVec
	tokensIssued   *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
	gatewayErrors  prometheus.Counter
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_decisions_total",
		Help: "Payment processing outcomes by issuance decision.",
	}, []string{"decision"})
	tokensIssued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tokens_issued_total",
		Help: "Tokens minted by the encoder, by token type.",
	}, []string{"token_type"})
	gatewayLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "encoder_gateway_duration_seconds",
		Help:    "Duration of encoder gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	gatewayErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "encoder_gateway_errors_total",
		Help: "Encoder gateway calls that failed after retries.",
	})
	reg.MustRegister(decisions, tokensIssued, gatewayLatency, gatewayErrors)
	return &PaymentMetrics{
		decisions:      decisions,
		tokensIssued:   tokensIssued,
		gatewayLatency: gatewayLatency,
		gatewayErrors:  gatewayErrors,
	}
}

// IncDecision increments the outcome counter for the given decision.
func (p *PaymentMetrics) IncDecision(decision string) {
	if p == nil || p.decisions == nil {
		return
	}
	p.decisions.WithLabelValues(normalizeLabel(decision)).Inc()
}

// IncTokenIssued increments the mint counter for the given token type.
func (p *PaymentMetrics) IncTokenIssued(tokenType string) {
	if p == nil || p.tokensIssued == nil {
		return
	}
	p.tokensIssued.WithLabelValues(normalizeLabel(tokenType)).Inc()
}

// ObserveGateway records one encoder gateway round trip.
func (p *PaymentMetrics) ObserveGateway(outcome string, duration time.Duration) {
	if p == nil || p.gatewayLatency == nil {
		return
	}
	p.gatewayLatency.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncGatewayError increments the terminal gateway failure counter.
func (p *PaymentMetrics) IncGatewayError() {
	if p == nil || p.gatewayErrors == nil {
		return
	}
	p.gatewayErrors.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

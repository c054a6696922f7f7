package api

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Quote outcomes recorded by Metrics
const (
	OutcomePriced   = "priced"
	OutcomeHalted   = "halted"
	OutcomeRejected = "rejected"
)

// Metrics groups the Prometheus collectors for quoting
type Metrics struct {
	QuotesTotal    *prometheus.CounterVec
	DiscountAmount *prometheus.HistogramVec
	CapApplied     *prometheus.CounterVec
}

// NewMetrics registers and returns the quoting collectors. A nil registerer
// uses the default one; collectors already registered are reused.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		QuotesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Total number of quote requests by market and outcome.",
		}, []string{"market", "outcome"}),
		DiscountAmount: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discount_amount",
			Help:      "Applied discount per quote in minor units.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 10),
		}, []string{"market"}),
		CapApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_capped_total",
			Help:      "Quotes whose raw discount exceeded the cap and were redistributed.",
		}, []string{"market"}),
	}
	m.QuotesTotal = registerCounter(reg, m.QuotesTotal)
	m.CapApplied = registerCounter(reg, m.CapApplied)
	m.DiscountAmount = registerHistogram(reg, m.DiscountAmount)
	return m
}

// observe records one priced or halted quote
func (m *Metrics) observe(market, outcome string, discount int64, capped bool) {
	if m == nil {
		return
	}
	m.QuotesTotal.WithLabelValues(market, outcome).Inc()
	if outcome != OutcomePriced {
		return
	}
	m.DiscountAmount.WithLabelValues(market).Observe(float64(discount))
	if capped {
		m.CapApplied.WithLabelValues(market).Inc()
	}
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register counter: %w", err))
	}
	return c
}

func registerHistogram(reg prometheus.Registerer, h *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register histogram: %w", err))
	}
	return h
}

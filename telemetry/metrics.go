package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MetricUnexpectedPanicTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dascheck",
		Name:      "unexpected_panic_total",
		Help:      "Total number of unexpected panics in category tasks.",
	}, []string{"scope"})

	MetricChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dascheck",
		Name:      "checks_total",
		Help:      "Total number of checked requests per method.",
	}, []string{"method"})

	MetricCheckFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dascheck",
		Name:      "check_failures_total",
		Help:      "Total number of failed checks per method.",
	}, []string{"method"})

	MetricProofValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dascheck",
		Name:      "proof_validations_total",
		Help:      "Total number of proof validations by outcome.",
	}, []string{"result"})

	MetricLoadRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dascheck",
		Name:      "load_requests_total",
		Help:      "Total number of load-test requests by outcome.",
	}, []string{"outcome"})
)

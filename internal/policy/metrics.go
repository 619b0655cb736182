package policy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "haven_policy_decisions_total",
	Help: "Policy evaluation outcomes, by rule and decision.",
}, []string{"rule", "decision"})

package export

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricProjections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "haven_export_projections_total",
	Help: "Export projections built, by purpose.",
}, []string{"purpose"})

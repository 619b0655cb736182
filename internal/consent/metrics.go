package consent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricGrants = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "haven_consent_grants_total",
		Help: "Consent grants issued, by consent type.",
	}, []string{"type"})

	metricRevocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "haven_consent_revocations_total",
		Help: "Consent revocations recorded, by consent type.",
	}, []string{"type"})

	metricValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "haven_consent_validations_total",
		Help: "Consent validation outcomes, by decision.",
	}, []string{"decision"})

	metricExpirySweeps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "haven_consent_expired_total",
		Help: "Grants moved to the terminal expired state by the sweep.",
	})

	metricLedgerHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "haven_consent_ledger_lookups_total",
		Help: "Fast-path ledger lookups, by result (hit, miss, error).",
	}, []string{"result"})
)

package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"haven/internal/access"
	"haven/internal/platform/middleware"
)

// NewRouter wires the decision endpoints behind the shared middleware stack.
func NewRouter(h *Handler, verifier *access.Verifier, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(Authenticate(verifier))

		r.Post("/decision/evaluate", h.handleEvaluate)

		r.Post("/consent/grants", h.handleGrantConsent)
		r.Post("/consent/grants/{consentID}/revoke", h.handleRevokeConsent)
		r.Post("/consent/grants/{consentID}/extend", h.handleExtendConsent)
		r.Post("/consent/validate", h.handleValidateConsent)
		r.Get("/clients/{clientID}/consents", h.handleConsentSummary)

		r.Post("/redaction/apply", h.handleRedact)
		r.Post("/pseudonyms", h.handlePseudonymize)
		r.Post("/exports/projection", h.handleExportProjection)
	})

	return r
}

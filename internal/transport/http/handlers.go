// Package httptransport is the thin HTTP layer over the decision engine. It
// decodes requests, resolves the verified access context, and delegates to
// domain services; no confidentiality logic lives here.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"haven/internal/boundary"
	"haven/internal/consent"
	"haven/internal/engine"
	"haven/internal/export"
	"haven/internal/policy"
	"haven/internal/redaction"
	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
)

// Handler serves the decision endpoints.
type Handler struct {
	engine   *engine.Engine
	consents *consent.Service
	logger   *slog.Logger
}

func NewHandler(eng *engine.Engine, consents *consent.Service, logger *slog.Logger) *Handler {
	return &Handler{engine: eng, consents: consents, logger: logger}
}

type resourceRequest struct {
	ID                id.ResourceID `json:"id"`
	ClientID          id.ClientID   `json:"client_id"`
	AuthorID          id.ActorID    `json:"author_id"`
	Sensitivity       string        `json:"sensitivity"`
	Scope             string        `json:"scope"`
	Category          string        `json:"category"`
	Sealed            bool          `json:"sealed"`
	SealedBy          id.ActorID    `json:"sealed_by"`
	AuthorizedViewers []id.ActorID  `json:"authorized_viewers"`
}

func (rr resourceRequest) toResource() (policy.Resource, error) {
	sensitivity := policy.SensitivityStandard
	if rr.Sensitivity != "" {
		parsed, err := policy.ParseSensitivityClass(rr.Sensitivity)
		if err != nil {
			return policy.Resource{}, err
		}
		sensitivity = parsed
	}
	return policy.Resource{
		ID:                rr.ID,
		ClientID:          rr.ClientID,
		AuthorID:          rr.AuthorID,
		Sensitivity:       sensitivity,
		Scope:             policy.VisibilityScope(rr.Scope),
		Category:          rr.Category,
		Sealed:            rr.Sealed,
		SealedBy:          rr.SealedBy,
		AuthorizedViewers: rr.AuthorizedViewers,
	}, nil
}

type evaluateRequest struct {
	Resource         resourceRequest `json:"resource"`
	TargetSystem     string          `json:"target_system,omitempty"`
	Operation        string          `json:"operation,omitempty"`
	Recipient        string          `json:"recipient,omitempty"`
	RequiredConsents []string        `json:"required_consents,omitempty"`
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	resource, err := req.Resource.toResource()
	if err != nil {
		writeError(w, err)
		return
	}
	required := make([]consent.Type, 0, len(req.RequiredConsents))
	for _, t := range req.RequiredConsents {
		parsed, err := consent.ParseType(t)
		if err != nil {
			writeError(w, err)
			return
		}
		required = append(required, parsed)
	}

	decision, err := h.engine.EvaluateAccess(r.Context(), actorFrom(r.Context()), engine.Descriptor{
		Resource:         resource,
		TargetSystem:     boundary.DataSystem(req.TargetSystem),
		Operation:        req.Operation,
		Recipient:        req.Recipient,
		RequiredConsents: required,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"allowed": decision.Allowed,
		"gate":    decision.Gate,
		"rule":    decision.Rule,
		"reason":  decision.Reason,
	})
}

type grantRequest struct {
	ClientID              id.ClientID `json:"client_id"`
	Type                  string      `json:"type"`
	Purpose               string      `json:"purpose,omitempty"`
	RecipientOrganization string      `json:"recipient_organization,omitempty"`
	RecipientContact      string      `json:"recipient_contact,omitempty"`
	Duration              string      `json:"duration,omitempty"`
	Limitations           string      `json:"limitations,omitempty"`
}

func (h *Handler) handleGrantConsent(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	consentType, err := consent.ParseType(req.Type)
	if err != nil {
		writeError(w, err)
		return
	}

	var duration *time.Duration
	if req.Duration != "" {
		d, err := time.ParseDuration(req.Duration)
		if err != nil || d <= 0 {
			writeError(w, dErrors.New(dErrors.CodeInvalidInput, "duration must be a positive Go duration string"))
			return
		}
		duration = &d
	}

	grant, err := h.consents.Grant(r.Context(), consent.GrantRequest{
		ClientID:              req.ClientID,
		Type:                  consentType,
		Purpose:               req.Purpose,
		RecipientOrganization: req.RecipientOrganization,
		RecipientContact:      req.RecipientContact,
		GrantedBy:             actorFrom(r.Context()).ActorID(),
		Duration:              duration,
		Limitations:           req.Limitations,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, grant)
}

func (h *Handler) handleRevokeConsent(w http.ResponseWriter, r *http.Request) {
	consentID, err := id.ParseConsentID(chi.URLParam(r, "consentID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidIdentifier, "malformed consent id"))
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.consents.Revoke(r.Context(), consentID, actorFrom(r.Context()).ActorID(), req.Reason); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

func (h *Handler) handleExtendConsent(w http.ResponseWriter, r *http.Request) {
	consentID, err := id.ParseConsentID(chi.URLParam(r, "consentID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidIdentifier, "malformed consent id"))
		return
	}
	var req struct {
		NewExpiry time.Time `json:"new_expiry"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.consents.Extend(r.Context(), consentID, req.NewExpiry, actorFrom(r.Context()).ActorID()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "extended"})
}

func (h *Handler) handleValidateConsent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID      id.ClientID `json:"client_id"`
		Operation     string      `json:"operation"`
		Recipient     string      `json:"recipient,omitempty"`
		RequiredTypes []string    `json:"required_types"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	required := make([]consent.Type, 0, len(req.RequiredTypes))
	for _, t := range req.RequiredTypes {
		parsed, err := consent.ParseType(t)
		if err != nil {
			writeError(w, err)
			return
		}
		required = append(required, parsed)
	}

	result, err := h.engine.ValidateConsent(r.Context(), req.ClientID, req.Operation, req.Recipient, required...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"allowed":      result.Allowed,
		"reason":       result.Reason,
		"missing_type": result.MissingType,
	})
}

func (h *Handler) handleConsentSummary(w http.ResponseWriter, r *http.Request) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidIdentifier, "malformed client id"))
		return
	}
	summary, err := h.consents.ConsentSummary(r.Context(), clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleRedact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID id.ClientID `json:"client_id"`
		Category string      `json:"category"`
		Values   []string    `json:"values"`
		Strategy string      `json:"strategy"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	strategy, err := redaction.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(w, err)
		return
	}

	decision, err := h.engine.RedactField(r.Context(), actorFrom(r.Context()),
		redaction.Category(req.Category), req.Values, strategy, req.ClientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category":        decision.Category,
		"strategy":        decision.Strategy,
		"values":          decision.Output,
		"has_data":        decision.HasData,
		"is_multi_valued": decision.IsMultiValued,
	})
}

func (h *Handler) handlePseudonymize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID id.ClientID `json:"client_id"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	external, err := h.engine.Pseudonymize(r.Context(), req.ClientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"pseudonym": external})
}

func (h *Handler) handleExportProjection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID id.ClientID       `json:"client_id"`
		Purpose  string            `json:"purpose"`
		Fields   map[string]string `json:"fields"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	purpose, err := export.ParsePurpose(req.Purpose)
	if err != nil {
		writeError(w, err)
		return
	}

	projection, err := h.engine.BuildExportProjection(r.Context(), actorFrom(r.Context()),
		export.Record{ClientID: req.ClientID, Fields: req.Fields}, purpose)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projection)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package audit

import (
	"time"

	id "haven/pkg/domain"
)

// Event is emitted from every confidentiality decision. It is PII-free by
// construction: identifiers only, never names, field values, or note content.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time
	ActorID    id.ActorID
	ClientID   id.ClientID
	ResourceID id.ResourceID

	Action   string // what was attempted, e.g. "policy_evaluated"
	Rule     string // the rule that fired, e.g. "SEALED_NOTE_RESTRICTION"
	Decision string // "allow" or "deny"
	Reason   string // free-text, must not quote protected content

	// Context metadata, anonymized before it gets here.
	SessionID string
	Origin    string // anonymized network origin
	RequestID string // correlation ID from HTTP request context
}

// Decisions.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Action names the subsystem that produced the event.
type Action string

const (
	ActionPolicyEvaluated  Action = "policy_evaluated"
	ActionConsentGranted   Action = "consent_granted"
	ActionConsentRevoked   Action = "consent_revoked"
	ActionConsentExtended  Action = "consent_extended"
	ActionConsentUpdated   Action = "consent_updated"
	ActionConsentExpired   Action = "consent_expired"
	ActionConsentValidated Action = "consent_validated"
	ActionBoundaryChecked  Action = "boundary_checked"
	ActionFieldRedacted    Action = "field_redacted"
	ActionProjectionBuilt  Action = "export_projection_built"
)

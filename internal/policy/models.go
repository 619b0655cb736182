// Package policy is the central confidentiality rule evaluator. Given an
// access context and a resource descriptor it returns an allow or deny
// decision plus the rule that fired. Evaluation is a pure, deterministic
// function; the only side effect lives in the service, which emits exactly
// one audit event per call.
package policy

import (
	"strings"

	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
)

// SensitivityClass grades how identifying a resource's content is.
type SensitivityClass string

const (
	SensitivityDirectIdentifier SensitivityClass = "DIRECT_IDENTIFIER"
	SensitivityQuasiIdentifier  SensitivityClass = "QUASI_IDENTIFIER"
	SensitivityHighRisk         SensitivityClass = "HIGH_RISK"
	SensitivityStandard         SensitivityClass = "STANDARD"
)

// ParseSensitivityClass validates a sensitivity class name.
func ParseSensitivityClass(s string) (SensitivityClass, error) {
	switch SensitivityClass(strings.ToUpper(strings.TrimSpace(s))) {
	case SensitivityDirectIdentifier:
		return SensitivityDirectIdentifier, nil
	case SensitivityQuasiIdentifier:
		return SensitivityQuasiIdentifier, nil
	case SensitivityHighRisk:
		return SensitivityHighRisk, nil
	case SensitivityStandard:
		return SensitivityStandard, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown sensitivity class: "+s)
	}
}

// VisibilityScope declares who a resource was written for.
type VisibilityScope string

const (
	ScopePublic         VisibilityScope = "PUBLIC"
	ScopeCaseTeam       VisibilityScope = "CASE_TEAM"
	ScopeClinicalOnly   VisibilityScope = "CLINICAL_ONLY"
	ScopeLegalTeam      VisibilityScope = "LEGAL_TEAM"
	ScopeMedicalTeam    VisibilityScope = "MEDICAL_TEAM"
	ScopeAuthorOnly     VisibilityScope = "AUTHOR_ONLY"
	ScopeAttorneyClient VisibilityScope = "ATTORNEY_CLIENT"
	ScopeCustom         VisibilityScope = "CUSTOM"
)

// CategoryPrivilegedCounseling flags counseling notes whose content is
// privileged regardless of visibility scope.
const CategoryPrivilegedCounseling = "PRIVILEGED_COUNSELING"

// Resource describes the sensitivity posture of one protected record. It
// carries no protected content, only classification.
type Resource struct {
	ID       id.ResourceID
	ClientID id.ClientID
	AuthorID id.ActorID

	Sensitivity SensitivityClass
	Scope       VisibilityScope
	// Category tags resource classes with their own rules, e.g.
	// PRIVILEGED_COUNSELING.
	Category string

	Sealed   bool
	SealedBy id.ActorID

	// AuthorizedViewers is consulted only when Scope is CUSTOM.
	AuthorizedViewers []id.ActorID
}

// Rule names recorded on decisions and audit events.
const (
	RuleJustificationRequired   = "JUSTIFICATION_REQUIRED"
	RuleSealedNoteRestriction   = "SEALED_NOTE_RESTRICTION"
	RuleCustomAuthorizedViewers = "CUSTOM_AUTHORIZED_VIEWERS"
	RulePrivilegedCounseling    = "PRIVILEGED_COUNSELING_ACCESS"
	RuleScopePublic             = "SCOPE_PUBLIC"
	RuleScopeCaseTeam           = "SCOPE_CASE_TEAM"
	RuleScopeClinicalOnly       = "SCOPE_CLINICAL_ONLY"
	RuleScopeLegalTeam          = "SCOPE_LEGAL_TEAM"
	RuleScopeMedicalTeam        = "SCOPE_MEDICAL_TEAM"
	RuleScopeAuthorOnly         = "SCOPE_AUTHOR_ONLY"
	RuleScopeAttorneyClient     = "SCOPE_ATTORNEY_CLIENT"
	RuleNoMatchingGrant         = "NO_MATCHING_GRANT"
)

// Decision is the outcome of one policy evaluation. Denials are expected
// local outcomes, returned as values rather than errors.
type Decision struct {
	Allowed    bool
	Rule       string
	Reason     string
	ActorID    id.ActorID
	ResourceID id.ResourceID
}

// Err converts a denial into a policy_denied error carrying the rule name.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return dErrors.New(dErrors.CodePolicyDenied, d.Rule+": "+d.Reason)
}

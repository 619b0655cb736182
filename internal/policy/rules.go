package policy

import (
	"haven/internal/access"
)

// Evaluate runs the confidentiality rule chain. First matching rule wins;
// the order below is the priority order and must not be reshuffled:
//
//  1. justification gate
//  2. sealed-resource restriction
//  3. custom authorized-viewer list
//  4. privileged-category restriction
//  5. visibility scope rules
//  6. default deny
//
// Evaluate is pure: same (actor, resource) always yields the same decision
// and rule name.
func Evaluate(actor *access.Context, resource Resource) Decision {
	if actor == nil {
		actor = access.Anonymous()
	}

	deny := func(rule, reason string) Decision {
		return Decision{Allowed: false, Rule: rule, Reason: reason, ActorID: actor.ActorID(), ResourceID: resource.ID}
	}
	allow := func(rule, reason string) Decision {
		return Decision{Allowed: true, Rule: rule, Reason: reason, ActorID: actor.ActorID(), ResourceID: resource.ID}
	}

	// Justification gate. Runs before any rule can allow: a required but
	// absent justification denies regardless of role.
	highRisk := resource.Sensitivity == SensitivityHighRisk
	directIdentifier := resource.Sensitivity == SensitivityDirectIdentifier
	if actor.RequiresJustification(highRisk, directIdentifier) && !actor.HasJustification() {
		return deny(RuleJustificationRequired, "access to this sensitivity class requires a declared justification")
	}

	isAuthor := !actor.ActorID().IsNil() && actor.ActorID() == resource.AuthorID

	// Sealed resources are readable only by the sealing actor or the
	// original author.
	if resource.Sealed {
		isSealer := !actor.ActorID().IsNil() && actor.ActorID() == resource.SealedBy
		if !isSealer && !isAuthor {
			return deny(RuleSealedNoteRestriction, "resource is sealed by another actor")
		}
	}

	// A custom viewer list overrides every scope rule. An empty list on a
	// CUSTOM-scoped resource admits nobody.
	if resource.Scope == ScopeCustom {
		for _, viewer := range resource.AuthorizedViewers {
			if !actor.ActorID().IsNil() && actor.ActorID() == viewer {
				return allow(RuleCustomAuthorizedViewers, "actor is in the authorized viewers list")
			}
		}
		return deny(RuleCustomAuthorizedViewers, "actor is not in the authorized viewers list")
	}

	// Privileged counseling content is visible only to the author or to
	// roles carrying privileged access, whatever the scope says.
	if resource.Category == CategoryPrivilegedCounseling {
		if isAuthor || actor.HasPrivilegedAccess() {
			return allow(RulePrivilegedCounseling, "privileged-access role or resource author")
		}
		return deny(RulePrivilegedCounseling, "requires a privileged counseling role or resource authorship")
	}

	switch resource.Scope {
	case ScopePublic:
		return allow(RuleScopePublic, "public visibility scope")

	case ScopeCaseTeam:
		if actor.IsCaseStaff() {
			return allow(RuleScopeCaseTeam, "actor has a case team role")
		}
		return deny(RuleScopeCaseTeam, "requires a case team role")

	case ScopeClinicalOnly:
		if actor.HasClinicalRole() {
			return allow(RuleScopeClinicalOnly, "actor has a clinical role")
		}
		return deny(RuleScopeClinicalOnly, "requires a clinical role")

	case ScopeLegalTeam:
		if actor.HasLegalAuthorization() {
			return allow(RuleScopeLegalTeam, "actor has a legal role")
		}
		return deny(RuleScopeLegalTeam, "requires a legal role")

	case ScopeMedicalTeam:
		if actor.HasMedicalRole() {
			return allow(RuleScopeMedicalTeam, "actor has a medical role")
		}
		return deny(RuleScopeMedicalTeam, "requires a medical role")

	case ScopeAuthorOnly:
		if isAuthor {
			return allow(RuleScopeAuthorOnly, "actor is the resource author")
		}
		return deny(RuleScopeAuthorOnly, "only the author can access this resource")

	case ScopeAttorneyClient:
		if actor.HasRole(access.RoleAttorney) || isAuthor {
			return allow(RuleScopeAttorneyClient, "actor is an attorney or the resource author")
		}
		return deny(RuleScopeAttorneyClient, "requires the attorney role or resource authorship")

	default:
		return deny(RuleNoMatchingGrant, "no visibility rule matched")
	}
}

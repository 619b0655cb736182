package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haven/internal/access"
	id "haven/pkg/domain"
	"haven/pkg/platform/audit"
	"haven/pkg/platform/audit/publisher"
)

func actorID(t *testing.T, s string) id.ActorID {
	t.Helper()
	a, err := id.ParseActorID(s)
	require.NoError(t, err)
	return a
}

func resourceID(t *testing.T) id.ResourceID {
	t.Helper()
	r, err := id.ParseResourceID("99999999-9999-9999-9999-999999999999")
	require.NoError(t, err)
	return r
}

func actorWith(t *testing.T, roles ...access.Role) *access.Context {
	t.Helper()
	return access.New(access.Params{
		ActorID: actorID(t, "11111111-1111-1111-1111-111111111111"),
		Roles:   roles,
	})
}

func standardNote(t *testing.T, scope VisibilityScope) Resource {
	t.Helper()
	return Resource{
		ID:          resourceID(t),
		Sensitivity: SensitivityStandard,
		Scope:       scope,
	}
}

func TestSealedNoteDeniesNonAuthor(t *testing.T) {
	sealer := actorID(t, "aaaaaaaa-0000-0000-0000-000000000001")
	reader := actorWith(t, access.RoleSupervisor)

	res := standardNote(t, ScopeCaseTeam)
	res.Sealed = true
	res.SealedBy = sealer

	d := Evaluate(reader, res)
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleSealedNoteRestriction, d.Rule)
}

func TestSealedNoteAllowsSealerAndAuthor(t *testing.T) {
	res := standardNote(t, ScopeCaseTeam)
	res.Sealed = true
	res.SealedBy = actorID(t, "aaaaaaaa-0000-0000-0000-000000000001")
	res.AuthorID = actorID(t, "aaaaaaaa-0000-0000-0000-000000000002")

	sealer := access.New(access.Params{ActorID: res.SealedBy, Roles: []access.Role{access.RoleCaseManager}})
	d := Evaluate(sealer, res)
	assert.True(t, d.Allowed, "the sealing actor can still read the note")

	author := access.New(access.Params{ActorID: res.AuthorID, Roles: []access.Role{access.RoleCaseManager}})
	d = Evaluate(author, res)
	assert.True(t, d.Allowed, "the original author can still read the note")
}

func TestPrivilegedCounselingRestriction(t *testing.T) {
	res := standardNote(t, ScopeCaseTeam)
	res.Category = CategoryPrivilegedCounseling

	d := Evaluate(actorWith(t, access.RoleCaseManager), res)
	assert.False(t, d.Allowed)
	assert.Equal(t, RulePrivilegedCounseling, d.Rule)

	d = Evaluate(actorWith(t, access.RoleDVCounselor), res)
	assert.True(t, d.Allowed)
	assert.Equal(t, RulePrivilegedCounseling, d.Rule)

	d = Evaluate(actorWith(t, access.RoleLicensedClinician), res)
	assert.True(t, d.Allowed)

	// The author reads their own note without a privileged role.
	res.AuthorID = actorID(t, "11111111-1111-1111-1111-111111111111")
	d = Evaluate(actorWith(t, access.RoleCaseManager), res)
	assert.True(t, d.Allowed)
}

func TestCustomViewersOverrideScope(t *testing.T) {
	viewer := actorID(t, "11111111-1111-1111-1111-111111111111")

	res := standardNote(t, ScopeCustom)
	res.AuthorizedViewers = []id.ActorID{viewer}

	d := Evaluate(actorWith(t, access.RoleCaseManager), res)
	assert.True(t, d.Allowed)
	assert.Equal(t, RuleCustomAuthorizedViewers, d.Rule)

	other := access.New(access.Params{
		ActorID: actorID(t, "aaaaaaaa-0000-0000-0000-0000000000ff"),
		Roles:   []access.Role{access.RoleAdministrator},
	})
	d = Evaluate(other, res)
	assert.False(t, d.Allowed, "custom lists admit listed viewers only, regardless of role")
	assert.Equal(t, RuleCustomAuthorizedViewers, d.Rule)
}

func TestCustomScopeWithEmptyListAdmitsNobody(t *testing.T) {
	res := standardNote(t, ScopeCustom)
	d := Evaluate(actorWith(t, access.RoleAdministrator), res)
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleCustomAuthorizedViewers, d.Rule)
}

func TestScopeRules(t *testing.T) {
	cases := []struct {
		name    string
		scope   VisibilityScope
		roles   []access.Role
		allowed bool
		rule    string
	}{
		{"public admits anonymous", ScopePublic, nil, true, RuleScopePublic},
		{"case team admits case manager", ScopeCaseTeam, []access.Role{access.RoleCaseManager}, true, RuleScopeCaseTeam},
		{"case team rejects attorney", ScopeCaseTeam, []access.Role{access.RoleAttorney}, false, RuleScopeCaseTeam},
		{"clinical admits clinician", ScopeClinicalOnly, []access.Role{access.RoleLicensedClinician}, true, RuleScopeClinicalOnly},
		{"clinical rejects supervisor", ScopeClinicalOnly, []access.Role{access.RoleSupervisor}, false, RuleScopeClinicalOnly},
		{"legal admits advocate", ScopeLegalTeam, []access.Role{access.RoleLegalAdvocate}, true, RuleScopeLegalTeam},
		{"legal rejects medical provider", ScopeLegalTeam, []access.Role{access.RoleMedicalProvider}, false, RuleScopeLegalTeam},
		{"medical admits provider", ScopeMedicalTeam, []access.Role{access.RoleMedicalProvider}, true, RuleScopeMedicalTeam},
		{"medical rejects analyst", ScopeMedicalTeam, []access.Role{access.RoleDataAnalyst}, false, RuleScopeMedicalTeam},
		{"attorney client admits attorney", ScopeAttorneyClient, []access.Role{access.RoleAttorney}, true, RuleScopeAttorneyClient},
		{"attorney client rejects advocate", ScopeAttorneyClient, []access.Role{access.RoleLegalAdvocate}, false, RuleScopeAttorneyClient},
		{"unknown scope default denies", VisibilityScope("MYSTERY"), []access.Role{access.RoleAdministrator}, false, RuleNoMatchingGrant},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var actor *access.Context
			if len(tc.roles) > 0 {
				actor = actorWith(t, tc.roles...)
			}
			d := Evaluate(actor, standardNote(t, tc.scope))
			assert.Equal(t, tc.allowed, d.Allowed)
			assert.Equal(t, tc.rule, d.Rule)
		})
	}
}

func TestAuthorOnlyScope(t *testing.T) {
	res := standardNote(t, ScopeAuthorOnly)
	res.AuthorID = actorID(t, "11111111-1111-1111-1111-111111111111")

	d := Evaluate(actorWith(t, access.RoleAdministrator), res)
	assert.True(t, d.Allowed)

	other := access.New(access.Params{
		ActorID: actorID(t, "aaaaaaaa-0000-0000-0000-0000000000ff"),
		Roles:   []access.Role{access.RoleAdministrator},
	})
	d = Evaluate(other, res)
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleScopeAuthorOnly, d.Rule)
}

func TestJustificationGateRunsFirst(t *testing.T) {
	res := standardNote(t, ScopePublic)
	res.Sensitivity = SensitivityHighRisk

	d := Evaluate(actorWith(t, access.RoleAdministrator), res)
	assert.False(t, d.Allowed, "high-risk access without justification denies even on a public scope")
	assert.Equal(t, RuleJustificationRequired, d.Rule)

	justified := access.New(access.Params{
		ActorID:       actorID(t, "11111111-1111-1111-1111-111111111111"),
		Roles:         []access.Role{access.RoleAdministrator},
		Justification: "safety planning review",
	})
	d = Evaluate(justified, res)
	assert.True(t, d.Allowed)
}

func TestDirectIdentifierJustification(t *testing.T) {
	res := standardNote(t, ScopeCaseTeam)
	res.Sensitivity = SensitivityDirectIdentifier

	// Case staff read direct identifiers in the course of normal work.
	d := Evaluate(actorWith(t, access.RoleCaseManager), res)
	assert.True(t, d.Allowed)

	res.Scope = ScopeLegalTeam
	d = Evaluate(actorWith(t, access.RoleAttorney), res)
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleJustificationRequired, d.Rule)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	res := standardNote(t, ScopeClinicalOnly)
	actor := actorWith(t, access.RoleDVCounselor, access.RoleCaseManager)

	first := Evaluate(actor, res)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Evaluate(actor, res))
	}
}

func TestServiceEmitsOneAuditEventPerCall(t *testing.T) {
	auditStore := audit.NewInMemoryStore()
	svc := NewService(publisher.New(auditStore))

	actor := actorWith(t, access.RoleCaseManager)
	res := standardNote(t, ScopeCaseTeam)

	d, err := svc.EvaluateAccess(context.Background(), actor, res)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = svc.EvaluateAccess(context.Background(), actor, standardNote(t, ScopeLegalTeam))
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	events, err := auditStore.ListByActor(context.Background(), actor.ActorID())
	require.NoError(t, err)
	require.Len(t, events, 2, "one event per evaluation, allow or deny")
	assert.Equal(t, audit.DecisionAllow, events[0].Decision)
	assert.Equal(t, RuleScopeCaseTeam, events[0].Rule)
	assert.Equal(t, audit.DecisionDeny, events[1].Decision)
	assert.Equal(t, RuleScopeLegalTeam, events[1].Rule)
}

func TestServiceRejectsMissingResourceID(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.EvaluateAccess(context.Background(), actorWith(t, access.RoleCaseManager), Resource{})
	require.Error(t, err)
}

func TestDecisionErr(t *testing.T) {
	allow := Decision{Allowed: true, Rule: RuleScopePublic}
	assert.NoError(t, allow.Err())

	deny := Decision{Allowed: false, Rule: RuleSealedNoteRestriction, Reason: "resource is sealed by another actor"}
	err := deny.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), RuleSealedNoteRestriction)
}

package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "haven/pkg/domain"
)

func clientID(t *testing.T, s string) id.ClientID {
	t.Helper()
	c, err := id.ParseClientID(s)
	require.NoError(t, err)
	return c
}

func actorID(t *testing.T, s string) id.ActorID {
	t.Helper()
	a, err := id.ParseActorID(s)
	require.NoError(t, err)
	return a
}

func TestAnonymousContext(t *testing.T) {
	ctx := Anonymous()

	assert.True(t, ctx.IsAnonymous())
	assert.Equal(t, LevelPublic, ctx.MaxAccessLevel())
	assert.False(t, ctx.HasRole(RoleCaseManager))
	assert.False(t, ctx.HasLegalAuthorization())
	assert.False(t, ctx.IsExternalPartner())
}

func TestUnknownRolesAreDropped(t *testing.T) {
	ctx := New(Params{
		ActorID: actorID(t, "11111111-2222-3333-4444-555555555555"),
		Roles:   []Role{RoleCaseManager, Role("SUPERHERO")},
	})

	assert.True(t, ctx.HasRole(RoleCaseManager))
	assert.False(t, ctx.HasRole(Role("SUPERHERO")))
	assert.Len(t, ctx.Roles(), 1)
}

func TestMaxAccessLevelTakesHighestRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []Role
		want  AccessLevel
	}{
		{"case manager", []Role{RoleCaseManager}, LevelRestricted},
		{"vsp partner", []Role{RoleVSPPartner}, LevelInternal},
		{"counselor outranks case manager", []Role{RoleCaseManager, RoleDVCounselor}, LevelHighlyConfidential},
		{"supervisor", []Role{RoleSupervisor}, LevelConfidential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := New(Params{
				ActorID: actorID(t, "11111111-2222-3333-4444-555555555555"),
				Roles:   tt.roles,
			})
			assert.Equal(t, tt.want, ctx.MaxAccessLevel())
		})
	}
}

func TestIsAssignedCaseWorker(t *testing.T) {
	assignedClient := clientID(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	otherClient := clientID(t, "99999999-8888-7777-6666-555555555555")

	ctx := New(Params{
		ActorID:         actorID(t, "11111111-2222-3333-4444-555555555555"),
		Roles:           []Role{RoleCaseManager},
		AssignedClients: []id.ClientID{assignedClient},
	})

	assert.True(t, ctx.IsAssignedCaseWorker(assignedClient))
	assert.False(t, ctx.IsAssignedCaseWorker(otherClient))
	assert.False(t, ctx.IsAssignedCaseWorker(id.ClientID{}))
}

func TestCapabilityGroups(t *testing.T) {
	attorney := New(Params{
		ActorID: actorID(t, "11111111-2222-3333-4444-555555555555"),
		Roles:   []Role{RoleAttorney},
	})
	assert.True(t, attorney.HasLegalAuthorization())
	assert.False(t, attorney.HasClinicalRole())
	assert.False(t, attorney.HasPrivilegedAccess())

	counselor := New(Params{
		ActorID: actorID(t, "11111111-2222-3333-4444-555555555555"),
		Roles:   []Role{RoleDVCounselor},
	})
	assert.True(t, counselor.HasClinicalRole())
	assert.True(t, counselor.HasPrivilegedAccess())
	assert.False(t, counselor.IsCaseStaff())
}

func TestIsExternalPartner(t *testing.T) {
	partnerOnly := New(Params{
		ActorID: actorID(t, "11111111-2222-3333-4444-555555555555"),
		Roles:   []Role{RoleVSPPartner, RoleDataAnalyst},
	})
	assert.True(t, partnerOnly.IsExternalPartner())

	// Any internal role lifts the actor out of partner scoping.
	mixed := New(Params{
		ActorID: actorID(t, "11111111-2222-3333-4444-555555555555"),
		Roles:   []Role{RoleVSPPartner, RoleCaseManager},
	})
	assert.False(t, mixed.IsExternalPartner())
}

func TestRequiresJustification(t *testing.T) {
	caseStaff := New(Params{
		ActorID: actorID(t, "11111111-2222-3333-4444-555555555555"),
		Roles:   []Role{RoleCaseManager},
	})
	analyst := New(Params{
		ActorID: actorID(t, "11111111-2222-3333-4444-555555555555"),
		Roles:   []Role{RoleDataAnalyst},
	})

	// High risk always needs a reason, even from case staff.
	assert.True(t, caseStaff.RequiresJustification(true, false))
	// Direct identifiers need a reason only from non-case-staff.
	assert.False(t, caseStaff.RequiresJustification(false, true))
	assert.True(t, analyst.RequiresJustification(false, true))
	assert.False(t, analyst.RequiresJustification(false, false))
}

func TestJustificationIsTrimmed(t *testing.T) {
	ctx := New(Params{
		ActorID:       actorID(t, "11111111-2222-3333-4444-555555555555"),
		Roles:         []Role{RoleCaseManager},
		Justification: "   ",
	})
	assert.False(t, ctx.HasJustification())

	ctx = New(Params{
		ActorID:       actorID(t, "11111111-2222-3333-4444-555555555555"),
		Roles:         []Role{RoleCaseManager},
		Justification: " court-ordered records review ",
	})
	assert.True(t, ctx.HasJustification())
	assert.Equal(t, "court-ordered records review", ctx.Justification())
}

func TestBuiltAtDefaultsToNow(t *testing.T) {
	before := time.Now()
	ctx := New(Params{ActorID: actorID(t, "11111111-2222-3333-4444-555555555555")})
	assert.False(t, ctx.BuiltAt().Before(before))

	pinned := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx = New(Params{BuiltAt: pinned})
	assert.Equal(t, pinned, ctx.BuiltAt())
}

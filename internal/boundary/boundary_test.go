package boundary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haven/internal/access"
	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
	"haven/pkg/platform/audit"
	"haven/pkg/platform/audit/publisher"
)

func actorWith(t *testing.T, roles ...access.Role) *access.Context {
	t.Helper()
	actorID, err := id.ParseActorID("11111111-2222-3333-4444-555555555555")
	require.NoError(t, err)
	return access.New(access.Params{ActorID: actorID, Roles: roles})
}

func testClientID(t *testing.T) id.ClientID {
	t.Helper()
	c, err := id.ParseClientID("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	require.NoError(t, err)
	return c
}

func newEnforcer(t *testing.T) (*Enforcer, *InMemoryRestrictionsStore, *audit.InMemoryStore) {
	t.Helper()
	restrictions := NewInMemoryRestrictionsStore()
	auditStore := audit.NewInMemoryStore()
	e := NewEnforcer(restrictions, WithAudit(publisher.New(auditStore)))
	return e, restrictions, auditStore
}

func TestVSPCannotReadVAWAProtectedHMIS(t *testing.T) {
	e, restrictions, _ := newEnforcer(t)
	clientID := testClientID(t)
	restrictions.Set(Restrictions{ClientID: clientID, VAWAProtected: true})

	err := e.Check(context.Background(), actorWith(t, access.RoleVSPPartner), clientID, SystemHMIS)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBoundaryViolation))
}

func TestNoRoleCombinationBypassesTheBoundary(t *testing.T) {
	e, restrictions, _ := newEnforcer(t)
	clientID := testClientID(t)
	restrictions.Set(Restrictions{ClientID: clientID, VAWAProtected: true})

	// A partner role taints the context even alongside privileged roles.
	actor := actorWith(t, access.RoleVSPPartner, access.RoleDVCounselor, access.RoleAdministrator)
	err := e.Check(context.Background(), actor, clientID, SystemHMIS)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBoundaryViolation))
}

func TestInternalActorReadsVAWAProtectedHMIS(t *testing.T) {
	e, restrictions, _ := newEnforcer(t)
	clientID := testClientID(t)
	restrictions.Set(Restrictions{ClientID: clientID, VAWAProtected: true})

	err := e.Check(context.Background(), actorWith(t, access.RoleCaseManager), clientID, SystemHMIS)
	assert.NoError(t, err, "boundary allows; scope and consent rules decide later")
}

func TestComparableDBOnlyBlocksHMISForEveryone(t *testing.T) {
	e, restrictions, _ := newEnforcer(t)
	clientID := testClientID(t)
	restrictions.Set(Restrictions{ClientID: clientID, ComparableDBOnly: true})

	err := e.Check(context.Background(), actorWith(t, access.RoleAdministrator), clientID, SystemHMIS)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBoundaryViolation))

	err = e.Check(context.Background(), actorWith(t, access.RoleAdministrator), clientID, SystemComparableDB)
	assert.NoError(t, err)
}

func TestVSPReadsComparableDB(t *testing.T) {
	e, restrictions, _ := newEnforcer(t)
	clientID := testClientID(t)
	restrictions.Set(Restrictions{ClientID: clientID, VAWAProtected: true})

	err := e.Check(context.Background(), actorWith(t, access.RoleVSPPartner), clientID, SystemComparableDB)
	assert.NoError(t, err)
}

func TestUnrestrictedClientAllowsHMIS(t *testing.T) {
	e, _, auditStore := newEnforcer(t)
	clientID := testClientID(t)

	actor := actorWith(t, access.RoleVSPPartner)
	err := e.Check(context.Background(), actor, clientID, SystemHMIS)
	assert.NoError(t, err)

	events, err := auditStore.ListByActor(context.Background(), actor.ActorID())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, RuleDataSystemAllowed, events[0].Rule)
	assert.Equal(t, audit.DecisionAllow, events[0].Decision)
}

func TestDenialEmitsAuditEvent(t *testing.T) {
	e, restrictions, auditStore := newEnforcer(t)
	clientID := testClientID(t)
	restrictions.Set(Restrictions{ClientID: clientID, VAWAProtected: true})

	actor := actorWith(t, access.RoleVSPPartner)
	_ = e.Check(context.Background(), actor, clientID, SystemHMIS)

	events, err := auditStore.ListByActor(context.Background(), actor.ActorID())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, RuleVSPVAWARestriction, events[0].Rule)
	assert.Equal(t, audit.DecisionDeny, events[0].Decision)
}

func TestNilClientIDRejected(t *testing.T) {
	e, _, _ := newEnforcer(t)
	err := e.Check(context.Background(), actorWith(t, access.RoleCaseManager), id.ClientID{}, SystemHMIS)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidIdentifier))
}

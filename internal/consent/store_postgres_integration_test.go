//go:build integration

package consent_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haven/internal/consent"
	id "haven/pkg/domain"
	"haven/pkg/requestcontext"
	"haven/pkg/testutil/containers"
)

func TestPostgresStoreRoundTrip(t *testing.T) {
	pg := containers.GetManager().GetPostgres(t)
	ctx := context.Background()
	require.NoError(t, pg.TruncateAll(ctx))

	store := consent.NewPostgres(pg.DB)
	clientID := id.NewClientID()
	consentID := id.NewConsentID()
	grantedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	granted := consent.Granted{
		ID:        consentID,
		ClientID:  clientID,
		Type:      consent.TypeInformationSharing,
		Purpose:   "housing referral",
		GrantedBy: id.NewActorID(),
		GrantedAt: grantedAt,
	}
	require.NoError(t, store.Append(ctx, clientID, granted))

	revoked := consent.Revoked{
		ID:        consentID,
		RevokedBy: granted.GrantedBy,
		RevokedAt: grantedAt.Add(time.Hour),
		Reason:    "client withdrew",
	}
	require.NoError(t, store.Append(ctx, clientID, revoked))

	events, err := store.Stream(ctx, consentID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	grant, err := consent.Reduce(events)
	require.NoError(t, err)
	assert.Equal(t, consent.StatusRevoked, grant.Status)
	assert.Equal(t, "housing referral", grant.Purpose)
	assert.Equal(t, "client withdrew", grant.RevocationReason)

	ids, err := store.ConsentIDsByClient(ctx, clientID)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, consentID, ids[0])
}

func TestPostgresStoreMissingStream(t *testing.T) {
	pg := containers.GetManager().GetPostgres(t)
	store := consent.NewPostgres(pg.DB)

	_, err := store.Stream(context.Background(), id.NewConsentID())
	require.Error(t, err)
}

func TestServiceLifecycleOverPostgres(t *testing.T) {
	pg := containers.GetManager().GetPostgres(t)
	ctx := requestcontext.WithNow(context.Background(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, pg.TruncateAll(context.Background()))

	svc := consent.NewService(consent.NewPostgres(pg.DB))
	clientID := id.NewClientID()
	actorID := id.NewActorID()

	grant, err := svc.Grant(ctx, consent.GrantRequest{
		ClientID:  clientID,
		Type:      consent.TypeReferralSharing,
		GrantedBy: actorID,
	})
	require.NoError(t, err)

	result, err := svc.Validate(ctx, clientID, "referral packet", "", consent.TypeReferralSharing)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	require.NoError(t, svc.Revoke(ctx, grant.ID, actorID, "withdrawn"))

	result, err = svc.Validate(ctx, clientID, "referral packet", "", consent.TypeReferralSharing)
	require.NoError(t, err)
	assert.False(t, result.Allowed, "revocation survives the round trip through postgres")
}

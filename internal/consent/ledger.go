package consent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	id "haven/pkg/domain"
)

// Ledger is the fast-path read model for consent validity checks. It mirrors
// the event store; the store remains the source of truth and the service
// falls back to it whenever the ledger misses or errors.
type Ledger interface {
	// Record mirrors a currently valid grant.
	Record(ctx context.Context, grant Grant) error
	// Invalidate removes the mirror entry after revocation or expiry.
	Invalidate(ctx context.Context, clientID id.ClientID, consentType Type) error
	// HasValidConsent reports whether a valid grant of the type exists for
	// the client and recipient. The second return is false when the ledger
	// has no answer and the caller must consult the store.
	HasValidConsent(ctx context.Context, clientID id.ClientID, consentType Type, recipient string) (bool, bool, error)
}

// RedisLedger keeps one key per (client, type) with the grant's recipient
// organization as value, expiring alongside the grant itself.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

// anyRecipient marks a grant that does not name a recipient organization.
const anyRecipient = "*"

func ledgerKey(clientID id.ClientID, consentType Type) string {
	return fmt.Sprintf("consent:%s:%s", clientID.String(), consentType)
}

func (l *RedisLedger) Record(ctx context.Context, grant Grant) error {
	recipient := grant.RecipientOrganization
	if recipient == "" {
		recipient = anyRecipient
	}

	var ttl time.Duration // zero means no expiry, matching timeless grants
	if grant.ExpiresAt != nil {
		ttl = time.Until(*grant.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}

	if err := l.client.Set(ctx, ledgerKey(grant.ClientID, grant.Type), recipient, ttl).Err(); err != nil {
		return fmt.Errorf("record consent in ledger: %w", err)
	}
	return nil
}

func (l *RedisLedger) Invalidate(ctx context.Context, clientID id.ClientID, consentType Type) error {
	if err := l.client.Del(ctx, ledgerKey(clientID, consentType)).Err(); err != nil {
		return fmt.Errorf("invalidate consent in ledger: %w", err)
	}
	return nil
}

func (l *RedisLedger) HasValidConsent(ctx context.Context, clientID id.ClientID, consentType Type, recipient string) (bool, bool, error) {
	stored, err := l.client.Get(ctx, ledgerKey(clientID, consentType)).Result()
	if err == redis.Nil {
		// Absence is authoritative for denial only if the ledger is kept
		// strictly in sync; it is not, so report "no answer".
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("ledger consent lookup: %w", err)
	}
	if stored == anyRecipient || strings.EqualFold(stored, recipient) {
		return true, true, nil
	}
	// A mirrored grant names a different recipient. Another grant of the
	// same type may still cover this one, so the store has to decide.
	return false, false, nil
}

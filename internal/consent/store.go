package consent

import (
	"context"

	id "haven/pkg/domain"
)

// Store persists consent event streams. Streams are append-only; the store
// never rewrites history. Transition invariants are enforced by the service
// before an event reaches Append.
type Store interface {
	// Append adds one event to the consent's stream. The client id is
	// carried explicitly so every row is queryable by client without
	// decoding payloads.
	Append(ctx context.Context, clientID id.ClientID, event Event) error

	// Stream returns the consent's full event history in append order.
	Stream(ctx context.Context, consentID id.ConsentID) ([]Event, error)

	// ConsentIDsByClient returns every consent ever recorded for the
	// client, including revoked and expired ones.
	ConsentIDsByClient(ctx context.Context, clientID id.ClientID) ([]id.ConsentID, error)
}

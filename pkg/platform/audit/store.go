package audit

import (
	"context"

	id "haven/pkg/domain"
)

// Store is the append-only persistence boundary for audit events. Long-term
// retention and querying live outside this engine; implementations here exist
// so the publisher has somewhere deterministic to hand events in tests and
// single-node deployments.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actorID id.ActorID) ([]Event, error)
}

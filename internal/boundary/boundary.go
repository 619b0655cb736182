// Package boundary enforces the hard partition between the statutorily
// protected HMIS data system and the partner-visible comparable database.
// Violations are hard denies raised before any scope or role rule runs;
// nothing here silently filters.
package boundary

import (
	"context"
	"log/slog"

	"haven/internal/access"
	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
	"haven/pkg/platform/audit"
	"haven/pkg/platform/audit/publisher"
	"haven/pkg/requestcontext"
)

// DataSystem partitions client records by statutory protection.
type DataSystem string

const (
	// SystemHMIS is the protected data system covered by VAWA
	// confidentiality rules.
	SystemHMIS DataSystem = "HMIS"
	// SystemComparableDB is the partner-visible database victim service
	// providers report into instead of HMIS.
	SystemComparableDB DataSystem = "COMPARABLE_DB"
)

// Rule names recorded on boundary audit events.
const (
	RuleVSPVAWARestriction = "VSP_VAWA_RESTRICTION"
	RuleComparableDBOnly   = "COMPARABLE_DB_ONLY"
	RuleDataSystemAllowed  = "DATA_SYSTEM_ALLOWED"
)

// Restrictions carries the per-client data-system flags.
type Restrictions struct {
	ClientID id.ClientID
	// ComparableDBOnly restricts the client's records to the partner
	// database; HMIS reads are denied for every actor.
	ComparableDBOnly bool
	// VAWAProtected marks the client's HMIS records as statutorily
	// protected.
	VAWAProtected bool
}

// RestrictionsStore resolves per-client data-system flags. Absence of a row
// means no restrictions.
type RestrictionsStore interface {
	Restrictions(ctx context.Context, clientID id.ClientID) (Restrictions, error)
}

// Enforcer runs the data-system pre-check. It emits one audit event per
// check, allow or deny.
type Enforcer struct {
	store  RestrictionsStore
	audit  *publisher.Publisher
	logger *slog.Logger
}

// Option configures the Enforcer.
type Option func(*Enforcer)

func WithAudit(p *publisher.Publisher) Option {
	return func(e *Enforcer) { e.audit = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Enforcer) { e.logger = logger }
}

func NewEnforcer(store RestrictionsStore, opts ...Option) *Enforcer {
	e := &Enforcer{store: store}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check validates that the actor may touch the client's records in the target
// data system. A nil return means the boundary allows the read; scope and
// consent rules still apply afterwards. Violations come back as
// boundary_violation errors and must be treated as hard denies, never as a
// redaction case.
func (e *Enforcer) Check(ctx context.Context, actor *access.Context, clientID id.ClientID, target DataSystem) error {
	if actor == nil {
		actor = access.Anonymous()
	}
	if clientID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidIdentifier, "boundary check requires a client id")
	}

	restrictions, err := e.store.Restrictions(ctx, clientID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load client data-system restrictions")
	}

	if target == SystemHMIS {
		// Partner-scoped actors never read protected HMIS records, no
		// matter what other roles they hold.
		if actor.HasExternalPartnerRole() && restrictions.VAWAProtected {
			e.emit(ctx, actor, clientID, RuleVSPVAWARestriction, audit.DecisionDeny,
				"partner-scoped actor cannot read VAWA-protected records")
			return dErrors.New(dErrors.CodeBoundaryViolation,
				"victim service providers cannot access VAWA-protected HMIS records")
		}
		if restrictions.ComparableDBOnly {
			e.emit(ctx, actor, clientID, RuleComparableDBOnly, audit.DecisionDeny,
				"client records are restricted to the comparable database")
			return dErrors.New(dErrors.CodeBoundaryViolation,
				"client data is restricted to the comparable database")
		}
	}

	e.emit(ctx, actor, clientID, RuleDataSystemAllowed, audit.DecisionAllow, "")
	return nil
}

func (e *Enforcer) emit(ctx context.Context, actor *access.Context, clientID id.ClientID, rule, decision, reason string) {
	if e.audit == nil {
		return
	}
	var sessionID string
	if !actor.SessionID().IsNil() {
		sessionID = actor.SessionID().String()
	}
	err := e.audit.Emit(ctx, audit.Event{
		ActorID:   actor.ActorID(),
		ClientID:  clientID,
		Action:    string(audit.ActionBoundaryChecked),
		Rule:      rule,
		Decision:  decision,
		Reason:    reason,
		SessionID: sessionID,
		Origin:    actor.Origin(),
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil && e.logger != nil {
		e.logger.Error("failed to emit boundary audit event", "error", err, "rule", rule)
	}
}

package policy

import (
	"context"
	"log/slog"

	"haven/internal/access"
	dErrors "haven/pkg/domain-errors"
	"haven/pkg/platform/audit"
	"haven/pkg/platform/audit/publisher"
	"haven/pkg/requestcontext"
)

// Service wraps the pure rule chain with audit emission. Every call emits
// exactly one event, allow or deny, before returning.
type Service struct {
	audit  *publisher.Publisher
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(auditPublisher *publisher.Publisher, opts ...Option) *Service {
	s := &Service{audit: auditPublisher}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateAccess decides whether the actor may read the resource. Denials
// are returned as decision values; the error is reserved for infrastructure
// failure.
func (s *Service) EvaluateAccess(ctx context.Context, actor *access.Context, resource Resource) (Decision, error) {
	if resource.ID.IsNil() {
		return Decision{}, dErrors.New(dErrors.CodeInvalidIdentifier, "policy evaluation requires a resource id")
	}
	if actor == nil {
		actor = access.Anonymous()
	}

	decision := Evaluate(actor, resource)

	outcome := audit.DecisionDeny
	if decision.Allowed {
		outcome = audit.DecisionAllow
	}
	metricDecisions.WithLabelValues(decision.Rule, outcome).Inc()

	if s.audit != nil {
		var sessionID string
		if !actor.SessionID().IsNil() {
			sessionID = actor.SessionID().String()
		}
		err := s.audit.Emit(ctx, audit.Event{
			ActorID:    actor.ActorID(),
			ClientID:   resource.ClientID,
			ResourceID: resource.ID,
			Action:     string(audit.ActionPolicyEvaluated),
			Rule:       decision.Rule,
			Decision:   outcome,
			Reason:     decision.Reason,
			SessionID:  sessionID,
			Origin:     actor.Origin(),
			RequestID:  requestcontext.RequestID(ctx),
		})
		if err != nil && s.logger != nil {
			s.logger.Error("failed to emit policy audit event",
				"error", err,
				"rule", decision.Rule,
			)
		}
	}

	return decision, nil
}

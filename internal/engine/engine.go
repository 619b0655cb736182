// Package engine is the facade callers use for confidentiality decisions.
// EvaluateAccess runs the three gates in a fixed order: data-system boundary,
// then consent, then the policy rule chain. A denial at an earlier gate stops
// evaluation; later gates never see the request.
package engine

import (
	"context"
	"log/slog"

	"haven/internal/access"
	"haven/internal/boundary"
	"haven/internal/consent"
	"haven/internal/export"
	"haven/internal/platform/tracer"
	"haven/internal/policy"
	"haven/internal/pseudonym"
	"haven/internal/redaction"
	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
	"haven/pkg/platform/audit"
	"haven/pkg/platform/audit/publisher"
	"haven/pkg/requestcontext"
)

// Gate names the stage a decision was made at.
type Gate string

const (
	GateBoundary Gate = "boundary"
	GateConsent  Gate = "consent"
	GatePolicy   Gate = "policy"
)

// Rule names for denials raised by the outer gates. Policy-gate decisions
// carry the policy rule name instead.
const (
	RuleBoundaryViolation = "BOUNDARY_VIOLATION"
	RuleConsentRequired   = "CONSENT_REQUIRED"
)

// Descriptor bundles everything a full access decision needs. The subject
// client id rides on the resource; callers must set it explicitly, the engine
// never infers it.
type Descriptor struct {
	Resource policy.Resource

	// TargetSystem defaults to HMIS, the protected data system.
	TargetSystem boundary.DataSystem

	// Operation and Recipient describe the intended use, matched against
	// consent grants.
	Operation string
	Recipient string

	// RequiredConsents lists the consent types the operation needs. Empty
	// means the consent gate does not apply.
	RequiredConsents []consent.Type
}

// Decision is the outcome of a full evaluation: which gate decided, which
// rule fired, and why.
type Decision struct {
	Allowed bool
	Gate    Gate
	Rule    string
	Reason  string
}

// Err converts a denial into the error code of the gate that raised it.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Gate {
	case GateBoundary:
		return dErrors.New(dErrors.CodeBoundaryViolation, d.Reason)
	case GateConsent:
		return dErrors.New(dErrors.CodeConsentDenied, d.Reason)
	default:
		return dErrors.New(dErrors.CodePolicyDenied, d.Rule+": "+d.Reason)
	}
}

// Engine wires the decision subsystems behind one entry point. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	boundary *boundary.Enforcer
	consent  *consent.Service
	policy   *policy.Service
	mapper   *pseudonym.Mapper
	exporter *export.Builder
	audit    *publisher.Publisher
	tracer   tracer.Tracer
	logger   *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

func WithTracer(t tracer.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

func WithAudit(p *publisher.Publisher) Option {
	return func(e *Engine) { e.audit = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// Deps are the required collaborators. All of them must be non-nil.
type Deps struct {
	Boundary *boundary.Enforcer
	Consent  *consent.Service
	Policy   *policy.Service
	Mapper   *pseudonym.Mapper
	Exporter *export.Builder
}

func New(deps Deps, opts ...Option) (*Engine, error) {
	if deps.Boundary == nil || deps.Consent == nil || deps.Policy == nil ||
		deps.Mapper == nil || deps.Exporter == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "engine requires all decision subsystems")
	}
	e := &Engine{
		boundary: deps.Boundary,
		consent:  deps.Consent,
		policy:   deps.Policy,
		mapper:   deps.Mapper,
		exporter: deps.Exporter,
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EvaluateAccess runs boundary, consent, and policy gates in order. Denials
// come back as decision values; the error return is reserved for storage or
// configuration failure.
func (e *Engine) EvaluateAccess(ctx context.Context, actor *access.Context, desc Descriptor) (Decision, error) {
	if actor == nil {
		actor = access.Anonymous()
	}
	target := desc.TargetSystem
	if target == "" {
		target = boundary.SystemHMIS
	}

	ctx, span := e.tracer.Start(ctx, tracer.SpanEvaluate,
		tracer.String(tracer.AttrDataSystem, string(target)),
	)

	decision, err := e.evaluate(ctx, actor, desc, target)
	span.SetAttributes(
		tracer.Bool(tracer.AttrAllowed, decision.Allowed),
		tracer.String(tracer.AttrGate, string(decision.Gate)),
		tracer.String(tracer.AttrRule, decision.Rule),
	)
	span.End(err)
	return decision, err
}

func (e *Engine) evaluate(ctx context.Context, actor *access.Context, desc Descriptor, target boundary.DataSystem) (Decision, error) {
	gateCtx, gate := e.tracer.Start(ctx, tracer.SpanBoundaryGate)
	err := e.boundary.Check(gateCtx, actor, desc.Resource.ClientID, target)
	gate.End(err)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeBoundaryViolation) {
			return Decision{Gate: GateBoundary, Rule: RuleBoundaryViolation, Reason: err.Error()}, nil
		}
		return Decision{}, err
	}

	if len(desc.RequiredConsents) > 0 {
		gateCtx, gate = e.tracer.Start(ctx, tracer.SpanConsentGate)
		result, err := e.consent.Validate(gateCtx, desc.Resource.ClientID, desc.Operation, desc.Recipient, desc.RequiredConsents...)
		gate.End(err)
		if err != nil {
			return Decision{}, err
		}
		if !result.Allowed {
			return Decision{Gate: GateConsent, Rule: RuleConsentRequired, Reason: result.Reason}, nil
		}
	}

	gateCtx, gate = e.tracer.Start(ctx, tracer.SpanPolicyRules)
	policyDecision, err := e.policy.EvaluateAccess(gateCtx, actor, desc.Resource)
	gate.End(err)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed: policyDecision.Allowed,
		Gate:    GatePolicy,
		Rule:    policyDecision.Rule,
		Reason:  policyDecision.Reason,
	}, nil
}

// ValidateConsent checks the consent gate alone.
func (e *Engine) ValidateConsent(ctx context.Context, clientID id.ClientID, operation, recipient string, required ...consent.Type) (consent.Result, error) {
	ctx, span := e.tracer.Start(ctx, tracer.SpanConsentGate)
	result, err := e.consent.Validate(ctx, clientID, operation, recipient, required...)
	span.End(err)
	return result, err
}

// RedactField applies a redaction strategy to one demographic attribute and
// emits a field_redacted audit event carrying metadata only, never values.
func (e *Engine) RedactField(ctx context.Context, actor *access.Context, category redaction.Category, values []string, strategy redaction.Strategy, subject id.ClientID) (redaction.Decision, error) {
	if actor == nil {
		actor = access.Anonymous()
	}
	ctx, span := e.tracer.Start(ctx, tracer.SpanRedactField,
		tracer.String(tracer.AttrCategory, string(category)),
		tracer.String(tracer.AttrStrategy, string(strategy)),
	)

	decision, err := redaction.Redact(category, values, strategy, subject)
	span.End(err)
	if err != nil {
		return redaction.Decision{}, err
	}

	if e.audit != nil {
		emitErr := e.audit.Emit(ctx, audit.Event{
			ActorID:   actor.ActorID(),
			ClientID:  subject,
			Action:    string(audit.ActionFieldRedacted),
			Rule:      string(strategy),
			Decision:  audit.DecisionAllow,
			Reason:    string(category),
			Origin:    actor.Origin(),
			RequestID: requestcontext.RequestID(ctx),
		})
		if emitErr != nil && e.logger != nil {
			e.logger.Error("failed to emit redaction audit event", "error", emitErr, "category", category)
		}
	}
	return decision, nil
}

// Pseudonymize maps an internal client id onto its external report form.
func (e *Engine) Pseudonymize(ctx context.Context, clientID id.ClientID) (string, error) {
	_, span := e.tracer.Start(ctx, tracer.SpanPseudonymize)
	external, err := e.mapper.Pseudonymize(clientID)
	span.End(err)
	return external, err
}

// BuildExportProjection assembles the sensitivity-pruned field mapping for
// the actor and purpose.
func (e *Engine) BuildExportProjection(ctx context.Context, actor *access.Context, rec export.Record, purpose export.Purpose) (export.Projection, error) {
	ctx, span := e.tracer.Start(ctx, tracer.SpanExportBuild,
		tracer.String(tracer.AttrPurpose, string(purpose)),
	)
	projection, err := e.exporter.Build(ctx, actor, rec, purpose)
	span.End(err)
	return projection, err
}

package consent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
	"haven/pkg/platform/audit"
	"haven/pkg/platform/audit/publisher"
	"haven/pkg/requestcontext"
)

// RenewalWindow is how far ahead the expiring-consent report looks.
const RenewalWindow = 30 * 24 * time.Hour

// Service owns the consent lifecycle and validation. All writes go through
// the event store; the redis ledger is a mirror for the validation fast path.
type Service struct {
	store      Store
	ledger     Ledger
	audit      *publisher.Publisher
	logger     *slog.Logger
	defaultTTL time.Duration
}

// Option configures the Service.
type Option func(*Service)

func WithLedger(l Ledger) Option {
	return func(s *Service) { s.ledger = l }
}

func WithAudit(p *publisher.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithDefaultTTL overrides the default one-year validity applied to grants
// without an explicit duration.
func WithDefaultTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.defaultTTL = d
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, defaultTTL: DefaultDuration}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GrantRequest carries the inputs for issuing a new consent.
type GrantRequest struct {
	ClientID              id.ClientID
	Type                  Type
	Purpose               string
	RecipientOrganization string
	RecipientContact      string
	GrantedBy             id.ActorID
	// Duration overrides the default one-year validity. Ignored for
	// timeless types, which never expire.
	Duration    *time.Duration
	Limitations string
}

// Grant issues a new consent and opens its event stream.
func (s *Service) Grant(ctx context.Context, req GrantRequest) (Grant, error) {
	if req.ClientID.IsNil() {
		return Grant{}, dErrors.New(dErrors.CodeInvalidIdentifier, "consent requires a client id")
	}
	if req.GrantedBy.IsNil() {
		return Grant{}, dErrors.New(dErrors.CodeInvalidInput, "consent requires the granting actor")
	}
	if _, err := ParseType(string(req.Type)); err != nil {
		return Grant{}, err
	}

	now := requestcontext.Now(ctx)
	var expiresAt *time.Time
	if !req.Type.IsTimeless() {
		duration := s.defaultTTL
		if req.Duration != nil {
			duration = *req.Duration
		}
		exp := now.Add(duration)
		expiresAt = &exp
	}

	event := Granted{
		ID:                    id.NewConsentID(),
		ClientID:              req.ClientID,
		Type:                  req.Type,
		Purpose:               req.Purpose,
		RecipientOrganization: req.RecipientOrganization,
		RecipientContact:      req.RecipientContact,
		GrantedBy:             req.GrantedBy,
		GrantedAt:             now,
		ExpiresAt:             expiresAt,
		VAWAProtected:         req.Type.IsVAWAProtected(),
		Limitations:           req.Limitations,
	}
	if err := s.store.Append(ctx, req.ClientID, event); err != nil {
		return Grant{}, err
	}

	grant, err := Reduce([]Event{event})
	if err != nil {
		return Grant{}, err
	}

	s.mirror(ctx, grant)
	metricGrants.WithLabelValues(string(req.Type)).Inc()
	s.emit(ctx, req.GrantedBy, req.ClientID, audit.ActionConsentGranted, string(req.Type), audit.DecisionAllow, "")
	return grant, nil
}

// Revoke terminates a grant. Revocation is immediate and irreversible; the
// next validation call denies.
func (s *Service) Revoke(ctx context.Context, consentID id.ConsentID, revokedBy id.ActorID, reason string) error {
	if revokedBy.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "revocation requires the revoking actor")
	}

	grant, stream, err := s.load(ctx, consentID)
	if err != nil {
		return err
	}
	if grant.Status != StatusGranted {
		return dErrors.New(dErrors.CodeConflict, "cannot revoke consent that is not currently granted")
	}

	now := requestcontext.Now(ctx)
	event := Revoked{ID: consentID, RevokedBy: revokedBy, Reason: reason, RevokedAt: now}
	if _, err := Reduce(append(stream, event)); err != nil {
		return err
	}
	// The mirror entry goes first: a committed revocation must never
	// coexist with a live fast-path entry, so a failed invalidation aborts
	// the revoke before the terminal event is written.
	if err := s.unmirror(ctx, grant.ClientID, grant.Type); err != nil {
		return err
	}
	if err := s.store.Append(ctx, grant.ClientID, event); err != nil {
		return err
	}

	metricRevocations.WithLabelValues(string(grant.Type)).Inc()
	s.emit(ctx, revokedBy, grant.ClientID, audit.ActionConsentRevoked, string(grant.Type), audit.DecisionAllow, reason)
	return nil
}

// Update changes limitations or recipient contact on an active grant.
func (s *Service) Update(ctx context.Context, consentID id.ConsentID, newLimitations, newRecipientContact string, updatedBy id.ActorID) error {
	grant, stream, err := s.load(ctx, consentID)
	if err != nil {
		return err
	}
	if grant.Status != StatusGranted {
		return dErrors.New(dErrors.CodeConflict, "cannot update consent that is not currently granted")
	}

	event := Updated{
		ID:                  consentID,
		NewLimitations:      newLimitations,
		NewRecipientContact: newRecipientContact,
		UpdatedBy:           updatedBy,
		UpdatedAt:           requestcontext.Now(ctx),
	}
	if _, err := Reduce(append(stream, event)); err != nil {
		return err
	}
	if err := s.store.Append(ctx, grant.ClientID, event); err != nil {
		return err
	}

	s.emit(ctx, updatedBy, grant.ClientID, audit.ActionConsentUpdated, string(grant.Type), audit.DecisionAllow, "")
	return nil
}

// Extend moves an active grant's expiry forward. The new expiry must be in
// the future.
func (s *Service) Extend(ctx context.Context, consentID id.ConsentID, newExpiry time.Time, extendedBy id.ActorID) error {
	grant, stream, err := s.load(ctx, consentID)
	if err != nil {
		return err
	}
	if grant.Status != StatusGranted {
		return dErrors.New(dErrors.CodeConflict, "cannot extend consent that is not currently granted")
	}

	now := requestcontext.Now(ctx)
	if !newExpiry.After(now) {
		return dErrors.New(dErrors.CodeInvalidInput, "new expiration date cannot be in the past")
	}

	event := Extended{
		ID:             consentID,
		PreviousExpiry: grant.ExpiresAt,
		NewExpiry:      newExpiry,
		ExtendedBy:     extendedBy,
		ExtendedAt:     now,
	}
	if _, err := Reduce(append(stream, event)); err != nil {
		return err
	}
	if err := s.store.Append(ctx, grant.ClientID, event); err != nil {
		return err
	}

	grant.ExpiresAt = &newExpiry
	s.mirror(ctx, grant)
	s.emit(ctx, extendedBy, grant.ClientID, audit.ActionConsentExtended, string(grant.Type), audit.DecisionAllow, "")
	return nil
}

// Result is the outcome of a validation call. Denials name the specific
// missing or invalid consent type, never a generic refusal.
type Result struct {
	Allowed     bool
	Reason      string
	MissingType Type
}

// Err converts a denial into a consent_denied error; allowed results yield
// nil.
func (r Result) Err() error {
	if r.Allowed {
		return nil
	}
	return dErrors.New(dErrors.CodeConsentDenied, r.Reason)
}

// Validate checks that the operation on the client's data is covered by an
// active grant of every required type. Recipient-specific grants must match
// the requested recipient. No required types means no consent gate applies.
func (s *Service) Validate(ctx context.Context, clientID id.ClientID, operation, recipient string, requiredTypes ...Type) (Result, error) {
	if clientID.IsNil() {
		return Result{}, dErrors.New(dErrors.CodeInvalidIdentifier, "consent validation requires a client id")
	}
	if len(requiredTypes) == 0 {
		return Result{Allowed: true, Reason: "no consent required"}, nil
	}

	now := requestcontext.Now(ctx)
	var grants []Grant // lazily loaded on first ledger miss

	for _, required := range requiredTypes {
		if !required.AuthorizesOperation(operation) {
			result := s.denied(ctx, clientID, required, recipient)
			return result, nil
		}

		if s.ledgerSatisfies(ctx, clientID, required, recipient) {
			continue
		}

		if grants == nil {
			var err error
			grants, err = s.ActiveGrants(ctx, clientID)
			if err != nil {
				return Result{}, err
			}
		}

		satisfied := false
		for _, g := range grants {
			if g.Type == required && g.Authorizes(operation, recipient, now) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			result := s.denied(ctx, clientID, required, recipient)
			return result, nil
		}
	}

	metricValidations.WithLabelValues(audit.DecisionAllow).Inc()
	s.emit(ctx, id.ActorID{}, clientID, audit.ActionConsentValidated, operation, audit.DecisionAllow, "all required consents validated")
	return Result{Allowed: true, Reason: "all required consents validated"}, nil
}

func (s *Service) denied(ctx context.Context, clientID id.ClientID, missing Type, recipient string) Result {
	reason := fmt.Sprintf("missing valid consent for %s", missing.DisplayName())
	if recipient != "" {
		reason = fmt.Sprintf("missing valid consent for %s to %s", missing.DisplayName(), recipient)
	}
	metricValidations.WithLabelValues(audit.DecisionDeny).Inc()
	s.emit(ctx, id.ActorID{}, clientID, audit.ActionConsentValidated, string(missing), audit.DecisionDeny, reason)
	return Result{Allowed: false, Reason: reason, MissingType: missing}
}

// ledgerSatisfies runs the fast-path check. Any miss or error falls back to
// the store; the ledger can only short-circuit towards allow.
func (s *Service) ledgerSatisfies(ctx context.Context, clientID id.ClientID, required Type, recipient string) bool {
	if s.ledger == nil {
		return false
	}
	valid, answered, err := s.ledger.HasValidConsent(ctx, clientID, required, recipient)
	if err != nil {
		metricLedgerHits.WithLabelValues("error").Inc()
		if s.logger != nil {
			s.logger.Warn("consent ledger lookup failed, falling back to store", "error", err)
		}
		return false
	}
	if !answered {
		metricLedgerHits.WithLabelValues("miss").Inc()
		return false
	}
	metricLedgerHits.WithLabelValues("hit").Inc()
	return valid
}

// ActiveGrants returns the client's grants currently valid for use.
func (s *Service) ActiveGrants(ctx context.Context, clientID id.ClientID) ([]Grant, error) {
	all, err := s.allGrants(ctx, clientID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	var active []Grant
	for _, g := range all {
		if g.IsValidForUse(now) {
			active = append(active, g)
		}
	}
	return active, nil
}

// HasVAWAProtectedConsents reports whether any active grant carries VAWA
// protection.
func (s *Service) HasVAWAProtectedConsents(ctx context.Context, clientID id.ClientID) (bool, error) {
	active, err := s.ActiveGrants(ctx, clientID)
	if err != nil {
		return false, err
	}
	for _, g := range active {
		if g.VAWAProtected {
			return true, nil
		}
	}
	return false, nil
}

// Summary aggregates the client's consent posture for case-review screens.
type Summary struct {
	Total            int
	Active           int
	ExpiringSoon     int
	HasVAWAProtected bool
	ActiveGrants     []Grant
	ExpiringGrants   []Grant
}

// ConsentSummary builds the client's consent summary. "Expiring soon" means
// within the renewal window.
func (s *Service) ConsentSummary(ctx context.Context, clientID id.ClientID) (Summary, error) {
	all, err := s.allGrants(ctx, clientID)
	if err != nil {
		return Summary{}, err
	}

	now := requestcontext.Now(ctx)
	horizon := now.Add(RenewalWindow)
	summary := Summary{Total: len(all)}
	for _, g := range all {
		if !g.IsValidForUse(now) {
			continue
		}
		summary.Active++
		summary.ActiveGrants = append(summary.ActiveGrants, g)
		if g.VAWAProtected {
			summary.HasVAWAProtected = true
		}
		if g.ExpiresAt != nil && g.ExpiresAt.Before(horizon) {
			summary.ExpiringSoon++
			summary.ExpiringGrants = append(summary.ExpiringGrants, g)
		}
	}
	return summary, nil
}

// ExpireOverdue sweeps the client's grants past their expiry into the
// terminal expired state, making the implicit clock cutoff explicit in the
// event history.
func (s *Service) ExpireOverdue(ctx context.Context, clientID id.ClientID) (int, error) {
	all, err := s.allGrants(ctx, clientID)
	if err != nil {
		return 0, err
	}

	now := requestcontext.Now(ctx)
	expired := 0
	for _, g := range all {
		if !g.IsExpired(now) {
			continue
		}
		// Same ordering as Revoke: the mirror entry must be gone before
		// the terminal event commits.
		if err := s.unmirror(ctx, clientID, g.Type); err != nil {
			return expired, err
		}
		event := Expired{ID: g.ID, ExpiredAt: now}
		if err := s.store.Append(ctx, clientID, event); err != nil {
			return expired, err
		}
		metricExpirySweeps.Inc()
		s.emit(ctx, id.ActorID{}, clientID, audit.ActionConsentExpired, string(g.Type), audit.DecisionAllow, "")
		expired++
	}
	return expired, nil
}

func (s *Service) load(ctx context.Context, consentID id.ConsentID) (Grant, []Event, error) {
	if consentID.IsNil() {
		return Grant{}, nil, dErrors.New(dErrors.CodeInvalidIdentifier, "consent id is required")
	}
	stream, err := s.store.Stream(ctx, consentID)
	if err != nil {
		return Grant{}, nil, err
	}
	grant, err := Reduce(stream)
	if err != nil {
		return Grant{}, nil, err
	}
	return grant, stream, nil
}

func (s *Service) allGrants(ctx context.Context, clientID id.ClientID) ([]Grant, error) {
	if clientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidIdentifier, "client id is required")
	}
	ids, err := s.store.ConsentIDsByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	grants := make([]Grant, 0, len(ids))
	for _, consentID := range ids {
		grant, _, err := s.load(ctx, consentID)
		if err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	return grants, nil
}

func (s *Service) mirror(ctx context.Context, grant Grant) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Record(ctx, grant); err != nil && s.logger != nil {
		s.logger.Warn("failed to mirror consent into ledger", "error", err, "consent_id", grant.ID)
	}
}

func (s *Service) unmirror(ctx context.Context, clientID id.ClientID, consentType Type) error {
	if s.ledger == nil {
		return nil
	}
	if err := s.ledger.Invalidate(ctx, clientID, consentType); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to invalidate consent in ledger", "error", err, "client_id", clientID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "consent fast path invalidation failed")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, actorID id.ActorID, clientID id.ClientID, action audit.Action, rule, decision, reason string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Emit(ctx, audit.Event{
		ActorID:   actorID,
		ClientID:  clientID,
		Action:    string(action),
		Rule:      rule,
		Decision:  decision,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil && s.logger != nil {
		s.logger.Error("failed to emit consent audit event", "error", err, "action", action)
	}
}

package consent

import (
	"strings"
	"time"

	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
)

// Event is one lifecycle transition in a grant's append-only history. The
// variant set is closed; Reduce folds a stream into current state.
type Event interface {
	ConsentID() id.ConsentID
	OccurredAt() time.Time
	// Kind is the stable event name used for persistence and audit.
	Kind() string
}

const (
	KindGranted  = "consent.granted"
	KindRevoked  = "consent.revoked"
	KindUpdated  = "consent.updated"
	KindExtended = "consent.extended"
	KindExpired  = "consent.expired"
)

// Granted opens a grant's history. It is always the first event in a stream.
type Granted struct {
	ID                    id.ConsentID `json:"consent_id"`
	ClientID              id.ClientID  `json:"client_id"`
	Type                  Type         `json:"type"`
	Purpose               string       `json:"purpose"`
	RecipientOrganization string       `json:"recipient_organization,omitempty"`
	RecipientContact      string       `json:"recipient_contact,omitempty"`
	GrantedBy             id.ActorID   `json:"granted_by"`
	GrantedAt             time.Time    `json:"granted_at"`
	ExpiresAt             *time.Time   `json:"expires_at,omitempty"`
	VAWAProtected         bool         `json:"vawa_protected"`
	Limitations           string       `json:"limitations,omitempty"`
}

func (e Granted) ConsentID() id.ConsentID { return e.ID }
func (e Granted) OccurredAt() time.Time   { return e.GrantedAt }
func (e Granted) Kind() string            { return KindGranted }

// Revoked terminates a grant. Carries who and why for the audit trail.
type Revoked struct {
	ID        id.ConsentID `json:"consent_id"`
	RevokedBy id.ActorID   `json:"revoked_by"`
	Reason    string       `json:"reason"`
	RevokedAt time.Time    `json:"revoked_at"`
}

func (e Revoked) ConsentID() id.ConsentID { return e.ID }
func (e Revoked) OccurredAt() time.Time   { return e.RevokedAt }
func (e Revoked) Kind() string            { return KindRevoked }

// Updated changes limitations or recipient contact on an active grant.
type Updated struct {
	ID                  id.ConsentID `json:"consent_id"`
	NewLimitations      string       `json:"new_limitations"`
	NewRecipientContact string       `json:"new_recipient_contact"`
	UpdatedBy           id.ActorID   `json:"updated_by"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

func (e Updated) ConsentID() id.ConsentID { return e.ID }
func (e Updated) OccurredAt() time.Time   { return e.UpdatedAt }
func (e Updated) Kind() string            { return KindUpdated }

// Extended moves an active grant's expiry forward.
type Extended struct {
	ID             id.ConsentID `json:"consent_id"`
	PreviousExpiry *time.Time   `json:"previous_expiry,omitempty"`
	NewExpiry      time.Time    `json:"new_expiry"`
	ExtendedBy     id.ActorID   `json:"extended_by"`
	ExtendedAt     time.Time    `json:"extended_at"`
}

func (e Extended) ConsentID() id.ConsentID { return e.ID }
func (e Extended) OccurredAt() time.Time   { return e.ExtendedAt }
func (e Extended) Kind() string            { return KindExtended }

// Expired marks a grant past its expiry. Recorded by the expiry sweep so the
// terminal state is explicit in the history, not just implied by the clock.
type Expired struct {
	ID        id.ConsentID `json:"consent_id"`
	ExpiredAt time.Time    `json:"expired_at"`
}

func (e Expired) ConsentID() id.ConsentID { return e.ID }
func (e Expired) OccurredAt() time.Time   { return e.ExpiredAt }
func (e Expired) Kind() string            { return KindExpired }

// Grant is the current state of one consent, derived by folding its event
// stream. It is a value; mutating a copy never touches history.
type Grant struct {
	ID                    id.ConsentID
	ClientID              id.ClientID
	Type                  Type
	Status                Status
	Purpose               string
	RecipientOrganization string
	RecipientContact      string
	GrantedBy             id.ActorID
	GrantedAt             time.Time
	ExpiresAt             *time.Time
	RevokedBy             id.ActorID
	RevokedAt             *time.Time
	RevocationReason      string
	VAWAProtected         bool
	Limitations           string
}

// IsValidForUse reports whether the grant authorizes operations at the given
// instant: granted, and either timeless or not yet expired.
func (g Grant) IsValidForUse(now time.Time) bool {
	if g.Status != StatusGranted {
		return false
	}
	return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}

// IsExpired reports whether the grant is past its expiry but not yet swept
// into the terminal EXPIRED state.
func (g Grant) IsExpired(now time.Time) bool {
	return g.Status == StatusGranted && g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}

// Authorizes reports whether this grant covers the operation for the target
// recipient at the given instant. An empty recipient organization on the
// grant means any recipient.
func (g Grant) Authorizes(operation, targetRecipient string, now time.Time) bool {
	if !g.IsValidForUse(now) {
		return false
	}
	if g.RecipientOrganization != "" && !strings.EqualFold(g.RecipientOrganization, targetRecipient) {
		return false
	}
	return g.Type.AuthorizesOperation(operation)
}

// Reduce folds an event stream into current grant state. The stream must
// open with Granted; transitions on a non-granted or terminal state are
// invariant violations, the store should never have accepted them.
func Reduce(events []Event) (Grant, error) {
	if len(events) == 0 {
		return Grant{}, dErrors.New(dErrors.CodeNotFound, "empty consent event stream")
	}

	var g Grant
	for i, e := range events {
		if i == 0 {
			opened, ok := e.(Granted)
			if !ok {
				return Grant{}, dErrors.New(dErrors.CodeInvariantViolation,
					"consent stream must open with a grant event")
			}
			g = Grant{
				ID:                    opened.ID,
				ClientID:              opened.ClientID,
				Type:                  opened.Type,
				Status:                StatusGranted,
				Purpose:               opened.Purpose,
				RecipientOrganization: opened.RecipientOrganization,
				RecipientContact:      opened.RecipientContact,
				GrantedBy:             opened.GrantedBy,
				GrantedAt:             opened.GrantedAt,
				ExpiresAt:             opened.ExpiresAt,
				VAWAProtected:         opened.VAWAProtected,
				Limitations:           opened.Limitations,
			}
			continue
		}

		switch ev := e.(type) {
		case Granted:
			return Grant{}, dErrors.New(dErrors.CodeInvariantViolation,
				"duplicate grant event in consent stream")
		case Revoked:
			if g.Status != StatusGranted {
				return Grant{}, dErrors.New(dErrors.CodeInvariantViolation,
					"cannot revoke consent that is not currently granted")
			}
			g.Status = StatusRevoked
			g.RevokedBy = ev.RevokedBy
			at := ev.RevokedAt
			g.RevokedAt = &at
			g.RevocationReason = ev.Reason
		case Updated:
			if g.Status != StatusGranted {
				return Grant{}, dErrors.New(dErrors.CodeInvariantViolation,
					"cannot update consent that is not currently granted")
			}
			g.Limitations = ev.NewLimitations
			g.RecipientContact = ev.NewRecipientContact
		case Extended:
			if g.Status != StatusGranted {
				return Grant{}, dErrors.New(dErrors.CodeInvariantViolation,
					"cannot extend consent that is not currently granted")
			}
			exp := ev.NewExpiry
			g.ExpiresAt = &exp
		case Expired:
			if g.Status != StatusGranted {
				return Grant{}, dErrors.New(dErrors.CodeInvariantViolation,
					"cannot expire consent that is not currently granted")
			}
			g.Status = StatusExpired
		default:
			return Grant{}, dErrors.New(dErrors.CodeInvariantViolation, "unhandled consent event kind")
		}
	}
	return g, nil
}

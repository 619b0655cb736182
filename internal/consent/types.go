// Package consent manages client consent grants and enforces that data
// sharing operations are covered by an active grant of the required type.
// Grant history is append-only: lifecycle transitions are events folded into
// the current state, never updates in place.
package consent

import (
	"strings"
	"time"

	dErrors "haven/pkg/domain-errors"
)

// Type is the closed catalog of consent purposes a client can authorize.
type Type string

const (
	TypeInformationSharing        Type = "INFORMATION_SHARING"
	TypeHMISParticipation         Type = "HMIS_PARTICIPATION"
	TypeCourtTestimony            Type = "COURT_TESTIMONY"
	TypeLegalCounselCommunication Type = "LEGAL_COUNSEL_COMMUNICATION"
	TypeMedicalInformationSharing Type = "MEDICAL_INFORMATION_SHARING"
	TypeFamilyContact             Type = "FAMILY_CONTACT"
	TypeResearchParticipation     Type = "RESEARCH_PARTICIPATION"
	TypeMediaRelease              Type = "MEDIA_RELEASE"
	TypeReferralSharing           Type = "REFERRAL_SHARING"
	TypeFollowUpContact           Type = "FOLLOW_UP_CONTACT"
)

var allTypes = []Type{
	TypeInformationSharing,
	TypeHMISParticipation,
	TypeCourtTestimony,
	TypeLegalCounselCommunication,
	TypeMedicalInformationSharing,
	TypeFamilyContact,
	TypeResearchParticipation,
	TypeMediaRelease,
	TypeReferralSharing,
	TypeFollowUpContact,
}

// ParseType validates a consent type name coming off a request.
func ParseType(s string) (Type, error) {
	candidate := Type(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range allTypes {
		if candidate == t {
			return t, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown consent type: "+s)
}

// IsVAWAProtected reports whether grants of this type carry statutory VAWA
// protection.
func (t Type) IsVAWAProtected() bool {
	switch t {
	case TypeCourtTestimony, TypeLegalCounselCommunication, TypeFamilyContact:
		return true
	}
	return false
}

// IsTimeless reports whether grants of this type never expire by default.
// Attorney-client communication stays privileged indefinitely.
func (t Type) IsTimeless() bool {
	return t == TypeLegalCounselCommunication
}

// DisplayName renders the type for human-facing denial reasons.
func (t Type) DisplayName() string {
	words := strings.Split(strings.ToLower(string(t)), "_")
	for i, w := range words {
		if w == "hmis" {
			words[i] = "HMIS"
			continue
		}
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// AuthorizesOperation reports whether this consent type covers the named
// operation. Operation names are matched on keywords so callers can use
// descriptive names like "hmis export" or "court testimony".
func (t Type) AuthorizesOperation(operation string) bool {
	op := strings.ToLower(operation)
	contains := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(op, s) {
				return true
			}
		}
		return false
	}

	switch t {
	case TypeInformationSharing:
		return contains("share", "export")
	case TypeHMISParticipation:
		return contains("hmis", "report")
	case TypeCourtTestimony:
		return contains("court", "legal")
	case TypeLegalCounselCommunication:
		return contains("legal", "counsel", "attorney")
	case TypeMedicalInformationSharing:
		return contains("medical", "health")
	case TypeFamilyContact:
		return contains("family", "contact")
	case TypeResearchParticipation:
		return contains("research", "evaluation")
	case TypeMediaRelease:
		return contains("media", "publication")
	case TypeReferralSharing:
		return contains("referral", "transfer")
	case TypeFollowUpContact:
		return contains("follow", "contact")
	default:
		return false
	}
}

// Status is the grant lifecycle state.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusGranted Status = "GRANTED"
	StatusRevoked Status = "REVOKED"
	StatusExpired Status = "EXPIRED"
)

// Terminal reports whether the status admits no further transitions.
// Revocation and expiry are irreversible; restoring access takes a new grant.
func (s Status) Terminal() bool {
	return s == StatusRevoked || s == StatusExpired
}

// DefaultDuration is applied when a grant of a non-timeless type is issued
// without an explicit expiry.
const DefaultDuration = 365 * 24 * time.Hour

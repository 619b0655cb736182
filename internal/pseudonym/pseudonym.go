// Package pseudonym maps internal client identifiers onto stable, one-way
// external identifiers for reporting. The mapping is keyed HMAC-SHA256: same
// input and salt always produce the same output, and there is no path back
// from the output to the client id.
package pseudonym

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
)

// DefaultSalt keys the mapper when no deployment salt is configured.
// Development and tests only; production deployments configure their own.
const DefaultSalt = "haven-hmis-personal-id-salt-2024"

// Mapper produces deterministic pseudonyms for a fixed salt. It holds no
// mutable state and is safe for concurrent use.
type Mapper struct {
	salt []byte
}

// NewMapper builds a mapper keyed by the given salt. An empty salt is a
// configuration error, not a fallback to the default.
func NewMapper(salt string) (*Mapper, error) {
	if strings.TrimSpace(salt) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "pseudonym salt cannot be empty")
	}
	return &Mapper{salt: []byte(salt)}, nil
}

// NewDefaultMapper builds a mapper keyed by DefaultSalt.
func NewDefaultMapper() *Mapper {
	m, _ := NewMapper(DefaultSalt)
	return m
}

// Pseudonymize maps a client id onto a 32-character uppercase hex identifier
// (128 bits of the keyed hash). A nil client id is rejected, never mapped to a
// placeholder.
func (m *Mapper) Pseudonymize(clientID id.ClientID) (string, error) {
	if clientID.IsNil() {
		return "", dErrors.New(dErrors.CodeInvalidIdentifier, "cannot pseudonymize a nil client id")
	}

	mac := hmac.New(sha256.New, m.salt)
	mac.Write([]byte(clientID.String()))
	digest := hex.EncodeToString(mac.Sum(nil))

	return strings.ToUpper(digest[:32]), nil
}

// PseudonymizeUUIDFormat returns the pseudonym formatted as 8-4-4-4-12 groups
// for callers whose schemas expect UUID-shaped identifiers. It carries exactly
// the same 128 bits as Pseudonymize.
func (m *Mapper) PseudonymizeUUIDFormat(clientID id.ClientID) (string, error) {
	p, err := m.Pseudonymize(clientID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s-%s-%s", p[0:8], p[8:12], p[12:16], p[16:20], p[20:32]), nil
}

// Verify reports whether the given pseudonym, in either format, was produced
// from the client id under this mapper's salt. Comparison is constant time.
func (m *Mapper) Verify(clientID id.ClientID, pseudonym string) bool {
	if clientID.IsNil() || pseudonym == "" {
		return false
	}
	plain, err := m.Pseudonymize(clientID)
	if err != nil {
		return false
	}
	formatted, err := m.PseudonymizeUUIDFormat(clientID)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(plain), []byte(pseudonym)) == 1 ||
		subtle.ConstantTimeCompare([]byte(formatted), []byte(pseudonym)) == 1
}

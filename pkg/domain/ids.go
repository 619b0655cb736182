// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "haven/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing an ActorID where a ClientID is expected.
type (
	// ActorID identifies the staff member or partner user requesting access.
	ActorID uuid.UUID
	// ClientID identifies a client whose records are protected.
	ClientID uuid.UUID
	// ResourceID identifies a protected record (note, service episode, ledger entry).
	ResourceID uuid.UUID
	// ConsentID identifies a consent grant.
	ConsentID uuid.UUID
	// SessionID identifies the authenticated session the access context was built from.
	SessionID uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseActorID(s string) (ActorID, error) {
	id, err := parseUUID(s, "actor ID")
	return ActorID(id), err
}

func ParseClientID(s string) (ClientID, error) {
	id, err := parseUUID(s, "client ID")
	return ClientID(id), err
}

func ParseResourceID(s string) (ResourceID, error) {
	id, err := parseUUID(s, "resource ID")
	return ResourceID(id), err
}

func ParseConsentID(s string) (ConsentID, error) {
	id, err := parseUUID(s, "consent ID")
	return ConsentID(id), err
}

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID(s, "session ID")
	return SessionID(id), err
}

// String methods - for logging and debugging.

func (id ActorID) String() string    { return uuid.UUID(id).String() }
func (id ClientID) String() string   { return uuid.UUID(id).String() }
func (id ResourceID) String() string { return uuid.UUID(id).String() }
func (id ConsentID) String() string  { return uuid.UUID(id).String() }
func (id SessionID) String() string  { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id ActorID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ClientID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ResourceID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ConsentID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// Text marshalling - IDs serialize as canonical UUID strings in JSON
// payloads (consent event streams, audit sinks).

func (id ActorID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id ClientID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id ResourceID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ConsentID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id SessionID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *ActorID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ActorID(parsed)
	return nil
}

func (id *ClientID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ClientID(parsed)
	return nil
}

func (id *ResourceID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ResourceID(parsed)
	return nil
}

func (id *ConsentID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ConsentID(parsed)
	return nil
}

func (id *SessionID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = SessionID(parsed)
	return nil
}

// NewConsentID mints a random consent identifier at grant time.
func NewConsentID() ConsentID { return ConsentID(uuid.New()) }

// NewResourceID mints a random resource identifier.
func NewResourceID() ResourceID { return ResourceID(uuid.New()) }

// NewActorID and NewClientID mint random identifiers for tests and fixtures.
func NewActorID() ActorID { return ActorID(uuid.New()) }

func NewClientID() ClientID { return ClientID(uuid.New()) }

// parseUUID is the shared validation logic.
// Note: Nil UUIDs are allowed here. Use IsNil() at the service layer for
// business validation, which allows store lookups to return proper
// "not found" errors for consistency.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidIdentifier, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidIdentifier, "invalid "+label+" format")
	}
	return id, nil
}

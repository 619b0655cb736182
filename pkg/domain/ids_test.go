package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "haven/pkg/domain-errors"
)

func TestParseActorID(t *testing.T) {
	id, err := ParseActorID("a1b2c3d4-e5f6-7890-abcd-ef1234567890")
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d4-e5f6-7890-abcd-ef1234567890", id.String())
	assert.False(t, id.IsNil())
}

func TestParseActorIDEmpty(t *testing.T) {
	_, err := ParseActorID("")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidIdentifier))
}

func TestParseClientIDMalformed(t *testing.T) {
	_, err := ParseClientID("not-a-uuid")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidIdentifier))
}

func TestNilUUIDParsesButIsNil(t *testing.T) {
	// Nil UUIDs pass format validation; IsNil is the business check.
	id, err := ParseClientID("00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.True(t, id.IsNil())
}

func TestNewConsentIDIsUnique(t *testing.T) {
	a := NewConsentID()
	b := NewConsentID()
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsNil())
}

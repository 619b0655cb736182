package pseudonym

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
)

func clientID(t *testing.T, s string) id.ClientID {
	t.Helper()
	c, err := id.ParseClientID(s)
	require.NoError(t, err)
	return c
}

func TestPseudonymizeIsDeterministic(t *testing.T) {
	m := NewDefaultMapper()
	c := clientID(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")

	first, err := m.Pseudonymize(c)
	require.NoError(t, err)
	second, err := m.Pseudonymize(c)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{32}$`), first)
}

func TestPseudonymizeDistinctInputsDiverge(t *testing.T) {
	m := NewDefaultMapper()

	a, err := m.Pseudonymize(clientID(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"))
	require.NoError(t, err)
	b, err := m.Pseudonymize(clientID(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeef"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestPseudonymizeSaltChangesOutput(t *testing.T) {
	c := clientID(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")

	m1, err := NewMapper("deployment-salt-one")
	require.NoError(t, err)
	m2, err := NewMapper("deployment-salt-two")
	require.NoError(t, err)

	p1, err := m1.Pseudonymize(c)
	require.NoError(t, err)
	p2, err := m2.Pseudonymize(c)
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)
}

func TestPseudonymNeverLeaksInputSubstring(t *testing.T) {
	m := NewDefaultMapper()
	c := clientID(t, "12345678-1234-1234-1234-123456789012")

	p, err := m.Pseudonymize(c)
	require.NoError(t, err)

	// No 8+ character run of the canonical id text may survive in the output.
	canonical := strings.ToUpper(strings.ReplaceAll(c.String(), "-", ""))
	for i := 0; i+8 <= len(canonical); i++ {
		assert.NotContains(t, p, canonical[i:i+8])
	}
}

func TestPseudonymizeNilIDRejected(t *testing.T) {
	m := NewDefaultMapper()

	_, err := m.Pseudonymize(id.ClientID{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidIdentifier))
}

func TestNewMapperRejectsEmptySalt(t *testing.T) {
	_, err := NewMapper("")
	require.Error(t, err)
	_, err = NewMapper("   ")
	require.Error(t, err)
}

func TestUUIDFormatCarriesSameBits(t *testing.T) {
	m := NewDefaultMapper()
	c := clientID(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")

	plain, err := m.Pseudonymize(c)
	require.NoError(t, err)
	formatted, err := m.PseudonymizeUUIDFormat(c)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{8}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{12}$`), formatted)
	assert.Equal(t, plain, strings.ReplaceAll(formatted, "-", ""))
}

func TestVerifyAcceptsBothFormats(t *testing.T) {
	m := NewDefaultMapper()
	c := clientID(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")

	plain, err := m.Pseudonymize(c)
	require.NoError(t, err)
	formatted, err := m.PseudonymizeUUIDFormat(c)
	require.NoError(t, err)

	assert.True(t, m.Verify(c, plain))
	assert.True(t, m.Verify(c, formatted))
	assert.False(t, m.Verify(c, "0000000000000000000000000000000F"))
	assert.False(t, m.Verify(c, ""))
	assert.False(t, m.Verify(id.ClientID{}, plain))
}

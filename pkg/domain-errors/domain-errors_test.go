package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeConsentDenied, "missing court testimony consent")
	require.Error(t, err)
	assert.Equal(t, "missing court testimony consent", err.Error())
	assert.True(t, HasCode(err, CodeConsentDenied))
	assert.False(t, HasCode(err, CodePolicyDenied))
}

func TestErrorWithoutMessageFallsBackToCode(t *testing.T) {
	err := &Error{Code: CodeBoundaryViolation}
	assert.Equal(t, "boundary_violation", err.Error())
}

func TestWrapPreservesOriginalCode(t *testing.T) {
	inner := New(CodeInvalidIdentifier, "nil client id")
	wrapped := Wrap(inner, CodeInternal, "pseudonymization failed")

	assert.True(t, HasCode(wrapped, CodeInvalidIdentifier),
		"wrapping must not launder the original domain code")
	assert.Equal(t, "pseudonymization failed", wrapped.Error())
	assert.ErrorIs(t, wrapped, inner)
}

func TestWrapInfrastructureError(t *testing.T) {
	inner := fmt.Errorf("dial tcp: connection refused")
	wrapped := Wrap(inner, CodeInternal, "consent store unavailable")

	assert.True(t, HasCode(wrapped, CodeInternal))
	assert.ErrorIs(t, wrapped, inner)
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(CodePolicyDenied, "no matching grant")
	b := New(CodePolicyDenied, "different message")
	assert.True(t, errors.Is(a, b))

	c := New(CodeConsentDenied, "no matching grant")
	assert.False(t, errors.Is(a, c))
}

func TestHasCodeOnPlainError(t *testing.T) {
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	assert.False(t, HasCode(nil, CodeInternal))
}

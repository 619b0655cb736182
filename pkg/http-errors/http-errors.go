// Package httpErrors maps domain error codes onto HTTP status codes so every
// transport surface renders the same status for the same code.
package httpErrors

import (
	"net/http"

	dErrors "haven/pkg/domain-errors"
)

// ToHTTPStatus translates a domain error code to its HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeInvalidIdentifier:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized, dErrors.CodeMissingAccessContext:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodeConsentDenied, dErrors.CodeBoundaryViolation, dErrors.CodePolicyDenied:
		return http.StatusForbidden
	case dErrors.CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

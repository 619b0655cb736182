package redaction

import (
	"strings"

	dErrors "haven/pkg/domain-errors"
)

// Strategy names a transformation reducing a sensitive value to a disclosed
// precision. The set is closed; unknown names are rejected at the edge.
type Strategy string

const (
	// FullDisclosure passes the value through unchanged.
	FullDisclosure Strategy = "FULL_DISCLOSURE"
	// Generalized collapses multiple discrete values into one generalized
	// marker; a single value passes through.
	Generalized Strategy = "GENERALIZED"
	// CategoryOnly reveals only that a value exists, never which.
	CategoryOnly Strategy = "CATEGORY_ONLY"
	// Masked keeps exactly one of the true values and drops the rest.
	Masked Strategy = "MASKED"
	// Aliased substitutes a validly-typed stand-in, stable per subject.
	Aliased Strategy = "ALIASED"
	// Hidden always yields the not-collected sentinel.
	Hidden Strategy = "HIDDEN"
)

// ParseStrategy validates a strategy name from configuration or a request.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToUpper(strings.TrimSpace(s))) {
	case FullDisclosure:
		return FullDisclosure, nil
	case Generalized:
		return Generalized, nil
	case CategoryOnly:
		return CategoryOnly, nil
	case Masked:
		return Masked, nil
	case Aliased:
		return Aliased, nil
	case Hidden:
		return Hidden, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown redaction strategy: "+s)
	}
}

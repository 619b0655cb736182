package redaction

import (
	"strings"

	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
)

// Category names a sensitive demographic attribute with its own value catalog.
type Category string

const (
	CategoryRace      Category = "race"
	CategoryEthnicity Category = "ethnicity"
)

// Decision records one field redaction. It is ephemeral: callers emit an
// audit event from it and drop it, the raw input is never persisted here.
type Decision struct {
	Category      Category
	Strategy      Strategy
	Input         []string
	Output        []string
	HasData       bool
	IsMultiValued bool
}

// Redact applies a strategy to a raw attribute value under its category's
// rules. Values are free-form strings at this boundary; they are normalized
// into the category catalog before redaction.
func Redact(category Category, values []string, strategy Strategy, subject id.ClientID) (Decision, error) {
	d := Decision{
		Category:      category,
		Strategy:      strategy,
		Input:         values,
		HasData:       len(values) > 0,
		IsMultiValued: len(values) > 1,
	}

	switch category {
	case CategoryRace:
		races := make([]Race, 0, len(values))
		for _, v := range values {
			races = append(races, Race(normalize(v)))
		}
		for _, r := range RedactRaces(races, strategy, subject) {
			d.Output = append(d.Output, string(r))
		}
		return d, nil

	case CategoryEthnicity:
		if len(values) > 1 {
			return Decision{}, dErrors.New(dErrors.CodeInvalidInput, "ethnicity is single-valued")
		}
		var actual Ethnicity
		if len(values) == 1 {
			actual = Ethnicity(normalize(values[0]))
		}
		d.Output = []string{string(RedactEthnicity(actual, strategy, subject))}
		return d, nil

	default:
		return Decision{}, dErrors.New(dErrors.CodeInvalidInput, "unknown redaction category: "+string(category))
	}
}

func normalize(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

// Projection is the report-safe view of a redacted attribute: enough for
// aggregate statistics, never the raw value.
type Projection struct {
	Category       Category `json:"category"`
	HasData        bool     `json:"hasData"`
	IsMultiValued  bool     `json:"isMultiValued"`
	RedactionLevel Strategy `json:"redactionLevel"`
	// Values is populated only when the strategy already discloses them.
	Values []string `json:"values,omitempty"`
}

// Project builds the reporting projection for a redacted attribute. Only
// FULL_DISCLOSURE and GENERALIZED carry values through; every other level
// exposes metadata flags alone.
func Project(d Decision) Projection {
	p := Projection{
		Category:       d.Category,
		HasData:        d.HasData,
		IsMultiValued:  d.IsMultiValued,
		RedactionLevel: d.Strategy,
	}
	if d.Strategy == FullDisclosure || d.Strategy == Generalized {
		p.Values = d.Output
	}
	return p
}

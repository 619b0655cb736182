package redaction

import (
	id "haven/pkg/domain"
)

// Ethnicity is a single-valued demographic attribute.
type Ethnicity string

const (
	EthnicityHispanicLatino    Ethnicity = "HISPANIC_LATINO"
	EthnicityNonHispanicLatino Ethnicity = "NON_HISPANIC_LATINO"

	EthnicityPrefersNotToAnswer Ethnicity = "CLIENT_PREFERS_NOT_TO_ANSWER"
	EthnicityDoesNotKnow        Ethnicity = "CLIENT_DOESNT_KNOW"
	EthnicityDataNotCollected   Ethnicity = "DATA_NOT_COLLECTED"
)

// IsKnown reports whether the value is an actual answer rather than a
// response sentinel.
func (e Ethnicity) IsKnown() bool {
	return e == EthnicityHispanicLatino || e == EthnicityNonHispanicLatino
}

// RedactEthnicity applies the strategy to a single-valued ethnicity. The
// empty value always yields the not-collected sentinel regardless of
// strategy.
func RedactEthnicity(actual Ethnicity, strategy Strategy, subject id.ClientID) Ethnicity {
	if actual == "" {
		return EthnicityDataNotCollected
	}

	switch strategy {
	case FullDisclosure:
		return actual
	case Generalized:
		// A single value is already as coarse as this attribute gets.
		return actual
	case CategoryOnly:
		if actual.IsKnown() {
			return EthnicityPrefersNotToAnswer
		}
		return actual
	case Masked:
		return actual
	case Aliased:
		return aliasEthnicity(actual, subject)
	case Hidden:
		return EthnicityDataNotCollected
	default:
		return EthnicityDataNotCollected
	}
}

// aliasEthnicity substitutes the other known answer, stable per subject in
// the trivial sense: with two known values the alias is fully determined.
func aliasEthnicity(actual Ethnicity, subject id.ClientID) Ethnicity {
	if !actual.IsKnown() {
		return actual
	}
	if actual == EthnicityHispanicLatino {
		return EthnicityNonHispanicLatino
	}
	return EthnicityHispanicLatino
}

// Package redaction reduces sensitive demographic attributes to a declared
// precision. Every transformation is a pure function of (value, strategy,
// subject id); nothing here touches storage or the clock.
package redaction

import (
	"hash/fnv"
	"sort"

	id "haven/pkg/domain"
)

// Race is a multi-valued demographic attribute drawn from the HMIS catalog.
type Race string

const (
	RaceAmericanIndianAlaskaNative Race = "AMERICAN_INDIAN_ALASKA_NATIVE"
	RaceAsian                      Race = "ASIAN"
	RaceBlackAfricanAmerican       Race = "BLACK_AFRICAN_AMERICAN"
	RaceMiddleEasternNorthAfrican  Race = "MIDDLE_EASTERN_NORTH_AFRICAN"
	RaceNativeHawaiianPacific      Race = "NATIVE_HAWAIIAN_PACIFIC_ISLANDER"
	RaceWhite                      Race = "WHITE"

	// Response sentinels. Not races; they mark absent or withheld data.
	RacePrefersNotToAnswer Race = "CLIENT_PREFERS_NOT_TO_ANSWER"
	RaceDoesNotKnow        Race = "CLIENT_DOESNT_KNOW"
	RaceDataNotCollected   Race = "DATA_NOT_COLLECTED"
)

// knownRaces lists the disclosable values in stable order. Order matters for
// deterministic masking and aliasing.
var knownRaces = []Race{
	RaceAmericanIndianAlaskaNative,
	RaceAsian,
	RaceBlackAfricanAmerican,
	RaceMiddleEasternNorthAfrican,
	RaceNativeHawaiianPacific,
	RaceWhite,
}

// IsKnown reports whether the value names an actual race rather than a
// response sentinel.
func (r Race) IsKnown() bool {
	for _, k := range knownRaces {
		if r == k {
			return true
		}
	}
	return false
}

// RedactRaces applies the strategy to a race set. The output is sorted so
// repeated calls are byte-identical. An empty input always yields the
// not-collected sentinel regardless of strategy.
func RedactRaces(actual []Race, strategy Strategy, subject id.ClientID) []Race {
	if len(actual) == 0 {
		return []Race{RaceDataNotCollected}
	}

	switch strategy {
	case FullDisclosure:
		return sortedRaces(actual)
	case Generalized:
		return generalizeRaces(actual)
	case CategoryOnly:
		if anyKnownRace(actual) {
			return []Race{RacePrefersNotToAnswer}
		}
		return []Race{RaceDataNotCollected}
	case Masked:
		return []Race{sortedRaces(actual)[0]}
	case Aliased:
		return []Race{aliasRace(actual, subject)}
	case Hidden:
		return []Race{RaceDataNotCollected}
	default:
		// Unknown strategies disclose nothing.
		return []Race{RaceDataNotCollected}
	}
}

func generalizeRaces(actual []Race) []Race {
	if !allKnownRaces(actual) {
		return []Race{RacePrefersNotToAnswer}
	}
	if len(actual) > 1 {
		// The catalog has no "multiple races" marker, so multi-valued
		// answers generalize to the withheld sentinel.
		return []Race{RacePrefersNotToAnswer}
	}
	return sortedRaces(actual)
}

// aliasRace picks a stand-in race that is stable for the subject and never
// one of the subject's actual values, so the alias cannot leak by collision.
func aliasRace(actual []Race, subject id.ClientID) Race {
	actualSet := make(map[Race]struct{}, len(actual))
	for _, r := range actual {
		actualSet[r] = struct{}{}
	}

	candidates := make([]Race, 0, len(knownRaces))
	for _, k := range knownRaces {
		if _, taken := actualSet[k]; !taken {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		return RacePrefersNotToAnswer
	}
	return candidates[subjectIndex(subject, len(candidates))]
}

// subjectIndex derives a stable index in [0, n) from the subject id.
func subjectIndex(subject id.ClientID, n int) int {
	h := fnv.New32a()
	h.Write([]byte(subject.String()))
	return int(h.Sum32() % uint32(n))
}

func anyKnownRace(values []Race) bool {
	for _, v := range values {
		if v.IsKnown() {
			return true
		}
	}
	return false
}

func allKnownRaces(values []Race) bool {
	for _, v := range values {
		if !v.IsKnown() {
			return false
		}
	}
	return true
}

func sortedRaces(values []Race) []Race {
	out := make([]Race, len(values))
	copy(out, values)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

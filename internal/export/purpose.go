// Package export builds sensitivity-pruned field projections for data
// sharing. A projection carries only the fields the requesting actor may see
// for the named purpose; everything else is masked with an explicit literal
// or omitted, never silently nulled.
package export

import (
	"strings"

	"haven/internal/access"
	dErrors "haven/pkg/domain-errors"
)

// Purpose names a sharing destination. Each purpose carries its own
// minimum-necessary access table.
type Purpose string

const (
	PurposeHMISExport         Purpose = "HMIS_EXPORT"
	PurposeInteragencySharing Purpose = "INTERAGENCY_SHARING"
	PurposeResearchDataset    Purpose = "RESEARCH_DATASET"
	PurposeAudit              Purpose = "AUDIT"
	PurposeVSPSharing         Purpose = "VSP_SHARING"
)

// ParsePurpose validates an export purpose name.
func ParsePurpose(s string) (Purpose, error) {
	switch Purpose(strings.ToUpper(strings.TrimSpace(s))) {
	case PurposeHMISExport:
		return PurposeHMISExport, nil
	case PurposeInteragencySharing:
		return PurposeInteragencySharing, nil
	case PurposeResearchDataset:
		return PurposeResearchDataset, nil
	case PurposeAudit:
		return PurposeAudit, nil
	case PurposeVSPSharing:
		return PurposeVSPSharing, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown export purpose: "+s)
	}
}

// Category classifies a field by how identifying its content is.
type Category string

const (
	CategoryDirectIdentifier Category = "DIRECT_IDENTIFIER"
	CategoryQuasiIdentifier  Category = "QUASI_IDENTIFIER"
	CategoryContactInfo      Category = "CONTACT_INFO"
	CategorySensitiveAttr    Category = "SENSITIVE_ATTRIBUTE"
	CategoryHouseholdInfo    Category = "HOUSEHOLD_INFO"
	CategoryServiceData      Category = "SERVICE_DATA"
)

// ClassifyField maps a field name onto its category. Unrecognized names fall
// to SERVICE_DATA, the least protected class.
func ClassifyField(name string) Category {
	n := strings.ToLower(name)

	switch {
	case containsAny(n, "ssn", "social_security", "socialsecurity", "first_name", "firstname",
		"last_name", "lastname", "full_name", "fullname", "legal_name", "legalname"):
		return CategoryDirectIdentifier
	case containsAny(n, "birth", "dob", "age", "address", "phone", "zip", "race", "ethnicity"):
		return CategoryQuasiIdentifier
	case containsAny(n, "email", "contact", "mobile", "telephone"):
		return CategoryContactInfo
	case containsAny(n, "medical", "financial", "income", "disability", "diagnosis", "treatment"):
		return CategorySensitiveAttr
	case containsAny(n, "household", "family", "dependent", "children"):
		return CategoryHouseholdInfo
	default:
		return CategoryServiceData
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// requiredLevels is the per-purpose minimum access level for each field
// category. VSP sharing is the most restrictive table; research datasets
// trade identifier access for broad service data.
var requiredLevels = map[Purpose]map[Category]access.AccessLevel{
	PurposeHMISExport: {
		CategoryDirectIdentifier: access.LevelConfidential,
		CategoryQuasiIdentifier:  access.LevelRestricted,
		CategoryContactInfo:      access.LevelRestricted,
		CategorySensitiveAttr:    access.LevelRestricted,
		CategoryHouseholdInfo:    access.LevelInternal,
		CategoryServiceData:      access.LevelInternal,
	},
	PurposeInteragencySharing: {
		CategoryDirectIdentifier: access.LevelRestricted,
		CategoryQuasiIdentifier:  access.LevelInternal,
		CategoryContactInfo:      access.LevelInternal,
		CategorySensitiveAttr:    access.LevelConfidential,
		CategoryHouseholdInfo:    access.LevelInternal,
		CategoryServiceData:      access.LevelInternal,
	},
	PurposeResearchDataset: {
		CategoryDirectIdentifier: access.LevelHighlyConfidential,
		CategoryQuasiIdentifier:  access.LevelRestricted,
		CategoryContactInfo:      access.LevelInternal,
		CategorySensitiveAttr:    access.LevelConfidential,
		CategoryHouseholdInfo:    access.LevelInternal,
		CategoryServiceData:      access.LevelPublic,
	},
	PurposeAudit: {
		CategoryDirectIdentifier: access.LevelHighlyConfidential,
		CategoryQuasiIdentifier:  access.LevelConfidential,
		CategoryContactInfo:      access.LevelConfidential,
		CategorySensitiveAttr:    access.LevelConfidential,
		CategoryHouseholdInfo:    access.LevelRestricted,
		CategoryServiceData:      access.LevelInternal,
	},
	PurposeVSPSharing: {
		CategoryDirectIdentifier: access.LevelHighlyConfidential,
		CategoryQuasiIdentifier:  access.LevelConfidential,
		CategoryContactInfo:      access.LevelConfidential,
		CategorySensitiveAttr:    access.LevelHighlyConfidential,
		CategoryHouseholdInfo:    access.LevelConfidential,
		CategoryServiceData:      access.LevelRestricted,
	},
}

// RequiredLevel returns the minimum access level the purpose demands for the
// category.
func RequiredLevel(purpose Purpose, category Category) access.AccessLevel {
	if table, ok := requiredLevels[purpose]; ok {
		if lvl, ok := table[category]; ok {
			return lvl
		}
	}
	return access.LevelHighlyConfidential
}

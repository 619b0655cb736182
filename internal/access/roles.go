package access

// Role is a named capability token carried by a verified actor. The set is
// closed: unknown strings coming off a token are dropped during verification
// rather than carried as ad hoc role names.
type Role string

const (
	RoleCaseManager       Role = "CASE_MANAGER"
	RoleSupervisor        Role = "SUPERVISOR"
	RoleAdministrator     Role = "ADMINISTRATOR"
	RoleDVCounselor       Role = "DV_COUNSELOR"
	RoleLicensedClinician Role = "LICENSED_CLINICIAN"
	RoleAttorney          Role = "ATTORNEY"
	RoleLegalAdvocate     Role = "LEGAL_ADVOCATE"
	RoleMedicalProvider   Role = "MEDICAL_PROVIDER"
	RoleVSPPartner        Role = "VSP_PARTNER"
	RoleDataAnalyst       Role = "DATA_ANALYST"
)

// AccessLevel orders how much sensitivity a role set may see. Comparisons use
// the integer ordering, so keep the declaration order ascending.
type AccessLevel int

const (
	LevelPublic AccessLevel = iota
	LevelInternal
	LevelRestricted
	LevelConfidential
	LevelHighlyConfidential
)

func (l AccessLevel) String() string {
	switch l {
	case LevelPublic:
		return "PUBLIC"
	case LevelInternal:
		return "INTERNAL"
	case LevelRestricted:
		return "RESTRICTED"
	case LevelConfidential:
		return "CONFIDENTIAL"
	case LevelHighlyConfidential:
		return "HIGHLY_CONFIDENTIAL"
	default:
		return "PUBLIC"
	}
}

// roleCatalog maps each role to its functional group memberships and maximum
// access level. This is configuration data, not rule logic: the policy rules
// only ever ask group membership questions.
type roleProfile struct {
	level          AccessLevel
	caseManagement bool
	clinical       bool
	legal          bool
	medical        bool
	privileged     bool // may read privileged counseling content
	external       bool // scoped to the partner-visible data system
}

var roleCatalog = map[Role]roleProfile{
	RoleCaseManager:       {level: LevelRestricted, caseManagement: true},
	RoleSupervisor:        {level: LevelConfidential, caseManagement: true},
	RoleAdministrator:     {level: LevelHighlyConfidential, caseManagement: true},
	RoleDVCounselor:       {level: LevelHighlyConfidential, clinical: true, privileged: true},
	RoleLicensedClinician: {level: LevelHighlyConfidential, clinical: true, privileged: true},
	RoleAttorney:          {level: LevelHighlyConfidential, legal: true},
	RoleLegalAdvocate:     {level: LevelConfidential, legal: true},
	RoleMedicalProvider:   {level: LevelConfidential, medical: true},
	RoleVSPPartner:        {level: LevelInternal, external: true},
	RoleDataAnalyst:       {level: LevelInternal, external: true},
}

// Known reports whether the role is part of the closed catalog.
func (r Role) Known() bool {
	_, ok := roleCatalog[r]
	return ok
}

func (r Role) profile() roleProfile {
	return roleCatalog[r]
}

// IsCaseManagement reports membership in the case-management group.
func (r Role) IsCaseManagement() bool { return r.profile().caseManagement }

// IsClinical reports membership in the clinical group.
func (r Role) IsClinical() bool { return r.profile().clinical }

// IsLegal reports membership in the legal group.
func (r Role) IsLegal() bool { return r.profile().legal }

// IsMedical reports membership in the medical group.
func (r Role) IsMedical() bool { return r.profile().medical }

// HasPrivilegedAccess reports whether the role may read privileged counseling
// content.
func (r Role) HasPrivilegedAccess() bool { return r.profile().privileged }

// IsExternalPartner reports whether the role is scoped to the partner-visible
// data system.
func (r Role) IsExternalPartner() bool { return r.profile().external }

// Level returns the role's maximum access level. Unknown roles get PUBLIC.
func (r Role) Level() AccessLevel { return r.profile().level }

package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haven/internal/access"
	"haven/internal/pseudonym"
	id "haven/pkg/domain"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(pseudonym.NewDefaultMapper())
	require.NoError(t, err)
	return b
}

func testRecord(t *testing.T) Record {
	t.Helper()
	clientID, err := id.ParseClientID("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	require.NoError(t, err)
	return Record{
		ClientID: clientID,
		Fields: map[string]string{
			"first_name":     "Jordan",
			"ssn":            "123-45-6789",
			"phone":          "555-0100",
			"date_of_birth":  "1990-04-02",
			"race":           "ASIAN",
			"medical_notes":  "intake assessment",
			"household_size": "3",
			"program_status": "enrolled",
		},
	}
}

func caseManager(t *testing.T) *access.Context {
	t.Helper()
	actorID, err := id.ParseActorID("11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)
	return access.New(access.Params{ActorID: actorID, Roles: []access.Role{access.RoleCaseManager}})
}

func administrator(t *testing.T) *access.Context {
	t.Helper()
	actorID, err := id.ParseActorID("22222222-2222-2222-2222-222222222222")
	require.NoError(t, err)
	return access.New(access.Params{ActorID: actorID, Roles: []access.Role{access.RoleAdministrator}})
}

func TestClassifyField(t *testing.T) {
	cases := []struct {
		name string
		want Category
	}{
		{"ssn", CategoryDirectIdentifier},
		{"first_name", CategoryDirectIdentifier},
		{"legal_name", CategoryDirectIdentifier},
		{"date_of_birth", CategoryQuasiIdentifier},
		{"race", CategoryQuasiIdentifier},
		{"zip_code", CategoryQuasiIdentifier},
		{"email", CategoryContactInfo},
		{"medical_notes", CategorySensitiveAttr},
		{"monthly_income", CategorySensitiveAttr},
		{"household_size", CategoryHouseholdInfo},
		{"program_status", CategoryServiceData},
		{"unrecognized", CategoryServiceData},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyField(tc.name), tc.name)
	}
}

func TestParsePurpose(t *testing.T) {
	p, err := ParsePurpose(" hmis_export ")
	require.NoError(t, err)
	assert.Equal(t, PurposeHMISExport, p)

	_, err = ParsePurpose("SPREADSHEET")
	require.Error(t, err)
}

func TestMaskedLiteralsNeverSilentNull(t *testing.T) {
	b := testBuilder(t)
	rec := testRecord(t)

	// A case manager sits below the HMIS direct-identifier bar, so name and
	// ssn come back masked, still present under their keys.
	proj, err := b.Build(context.Background(), caseManager(t), rec, PurposeHMISExport)
	require.NoError(t, err)

	assert.Equal(t, MaskedSSN, proj.Fields["ssn"])
	assert.Equal(t, MaskedName, proj.Fields["first_name"])
	assert.Equal(t, "555-0100", proj.Fields["phone"], "quasi identifiers clear the restricted bar")
	assert.Equal(t, "enrolled", proj.Fields["program_status"])
}

func TestHighLevelActorSeesDirectIdentifiers(t *testing.T) {
	b := testBuilder(t)
	proj, err := b.Build(context.Background(), administrator(t), testRecord(t), PurposeHMISExport)
	require.NoError(t, err)

	assert.Equal(t, "123-45-6789", proj.Fields["ssn"])
	assert.Equal(t, "Jordan", proj.Fields["first_name"])
}

func TestVSPSharingOmitsWithheldFields(t *testing.T) {
	b := testBuilder(t)
	proj, err := b.Build(context.Background(), caseManager(t), testRecord(t), PurposeVSPSharing)
	require.NoError(t, err)

	for _, key := range []string{"ssn", "first_name", "race", "medical_notes", "household_size"} {
		_, present := proj.Fields[key]
		assert.False(t, present, "vsp sharing must omit %s entirely", key)
	}
}

func TestResearchDatasetGeneralizes(t *testing.T) {
	b := testBuilder(t)
	rec := testRecord(t)
	rec.Fields["age"] = "34"
	rec.Fields["zip_code"] = "97214"

	proj, err := b.Build(context.Background(), caseManager(t), rec, PurposeResearchDataset)
	require.NoError(t, err)

	assert.Equal(t, MaskedAgeRange, proj.Fields["age"])
	assert.Equal(t, MaskedZIPPrefix, proj.Fields["zip_code"])
	_, present := proj.Fields["first_name"]
	assert.False(t, present, "research datasets drop direct identifiers")
	assert.Equal(t, "enrolled", proj.Fields["program_status"])
}

func TestProjectionCarriesPseudonymNotInternalID(t *testing.T) {
	b := testBuilder(t)
	rec := testRecord(t)

	proj, err := b.Build(context.Background(), administrator(t), rec, PurposeAudit)
	require.NoError(t, err)

	assert.NotEmpty(t, proj.ClientID)
	assert.NotContains(t, proj.ClientID, rec.ClientID.String())
	assert.True(t, pseudonym.NewDefaultMapper().Verify(rec.ClientID, proj.ClientID))
}

func TestProjectionIsByteIdentical(t *testing.T) {
	b := testBuilder(t)
	actor := caseManager(t)
	rec := testRecord(t)

	first, err := b.Build(context.Background(), actor, rec, PurposeHMISExport)
	require.NoError(t, err)
	firstBytes, err := first.Encode()
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		next, err := b.Build(context.Background(), actor, rec, PurposeHMISExport)
		require.NoError(t, err)
		nextBytes, err := next.Encode()
		require.NoError(t, err)
		assert.Equal(t, firstBytes, nextBytes)
	}
}

func TestBuildRejectsUnknownPurpose(t *testing.T) {
	b := testBuilder(t)
	_, err := b.Build(context.Background(), caseManager(t), testRecord(t), Purpose("CSV"))
	require.Error(t, err)
}

func TestBuildRejectsNilSubject(t *testing.T) {
	b := testBuilder(t)
	_, err := b.Build(context.Background(), caseManager(t), Record{}, PurposeHMISExport)
	require.Error(t, err)
}

func TestAnonymousActorGetsMinimalProjection(t *testing.T) {
	b := testBuilder(t)
	proj, err := b.Build(context.Background(), nil, testRecord(t), PurposeResearchDataset)
	require.NoError(t, err)

	assert.Equal(t, "enrolled", proj.Fields["program_status"], "service data is public for research")
	for _, key := range []string{"phone", "date_of_birth", "ssn"} {
		_, present := proj.Fields[key]
		assert.False(t, present, "%s has no research generalization and is omitted", key)
	}
}

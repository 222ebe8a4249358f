package parsers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

func intPtr(v int) *int { return &v }

func TestJSONParser_Parse(t *testing.T) {
	input := `{
		"people": [
			{"id": "p1", "displayName": "Mary Walsh", "birthDate": "1901-03-04"},
			{"id": "p2", "displayName": "Sean Walsh", "surname": "Walsh", "deathDate": "1970-01-01"}
		],
		"partnerships": [{"personA": "p1", "personB": "p2", "kind": "married"}],
		"parentChild": [{"parent": "p1", "child": "p3", "confidence": 0}],
		"evidence": [{"personA": "p1", "personB": "p3", "kind": "document", "strength": 0.8}],
		"households": [{"householdId": "h1", "personId": "p1"}],
		"residences": [{"personId": "p1", "location": "Cork"}]
	}`

	doc, err := (&JSONParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.NoError(t, doc.Validate())

	assert.Equal(t, 7, doc.Len())
	assert.Equal(t, "Mary Walsh", doc.People[0].DisplayName)
	require.NotNil(t, doc.ParentChild[0].Confidence)
	assert.Equal(t, 0, *doc.ParentChild[0].Confidence)
	assert.Equal(t, 0.8, doc.Evidence[0].Strength)
}

func TestJSONParser_Parse_InvalidInput(t *testing.T) {
	_, err := (&JSONParser{}).Parse(strings.NewReader("not json"))
	require.Error(t, err)
}

func TestCSVParser_Parse(t *testing.T) {
	input := strings.Join([]string{
		"record,id,display_name,birth_date,deceased,person_a,person_b,kind,status,parent,child,relationship_type,confidence,strength,household_id,person_id,location",
		"person,p1,Mary Walsh,1901-03-04,false,,,,,,,,,,,,",
		"person,p2,Sean Walsh,,true,,,,,,,,,,,,",
		"partnership,,,,,p1,p2,married,divorced,,,,,,,,",
		"parent_child,,,,,,,,,p1,p3,adopted,75,,,,",
		"evidence,,,,,p1,p3,dna,,,,,,0.5,,,",
		"household,,,,,,,,,,,,,,h1,p1,",
		"residence,,,,,,,,,,,,,,,p1,Cork",
	}, "\n")

	doc, err := (&CSVParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.NoError(t, doc.Validate())

	require.Len(t, doc.People, 2)
	assert.Equal(t, 2, doc.People[0].LineNum)
	assert.True(t, doc.People[1].IsDeceased)
	assert.Equal(t, "divorced", doc.Partnerships[0].Status)
	assert.Equal(t, intPtr(75), doc.ParentChild[0].Confidence)
	assert.Equal(t, "adopted", doc.ParentChild[0].RelationshipType)
	assert.Equal(t, 0.5, doc.Evidence[0].Strength)
	assert.Equal(t, RawHousehold{HouseholdID: "h1", PersonID: "p1", LineNum: 7}, doc.Households[0])
	assert.Equal(t, "Cork", doc.Residences[0].Location)
}

func TestCSVParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "missing record column",
			input:   "id,display_name\np1,Mary\n",
			wantErr: "missing required column: record",
		},
		{
			name:    "unknown record type",
			input:   "record,id\nspaceship,x\n",
			wantErr: "line 2: unknown record type",
		},
		{
			name:    "bad confidence",
			input:   "record,parent,child,confidence\nparent_child,a,b,high\n",
			wantErr: "invalid confidence",
		},
		{
			name:    "bad boolean",
			input:   "record,display_name,deceased\nperson,Mary,perhaps\n",
			wantErr: "invalid deceased",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: "reading CSV header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&CSVParser{}).Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDocument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr string
	}{
		{
			name:    "person without name",
			doc:     Document{People: []RawPerson{{ID: "p1"}}},
			wantErr: "people[0]: displayName is required",
		},
		{
			name:    "bad birth date",
			doc:     Document{People: []RawPerson{{DisplayName: "Mary", BirthDate: "04/03/1901", LineNum: 5}}},
			wantErr: "line 5: birthDate must satisfy datetime=2006-01-02",
		},
		{
			name:    "unknown relationship type",
			doc:     Document{ParentChild: []RawParentChild{{Parent: "a", Child: "b", RelationshipType: "godparent"}}},
			wantErr: "relationshipType must satisfy oneof",
		},
		{
			name:    "confidence out of range",
			doc:     Document{ParentChild: []RawParentChild{{Parent: "a", Child: "b", Confidence: intPtr(101)}}},
			wantErr: "confidence must satisfy max=100",
		},
		{
			name:    "evidence strength above one",
			doc:     Document{Evidence: []RawEvidence{{PersonA: "a", PersonB: "b", Kind: "dna", Strength: 1.5}}},
			wantErr: "strength must satisfy lte=1",
		},
		{
			name:    "partnership missing side",
			doc:     Document{Partnerships: []RawPartnership{{PersonA: "a"}}},
			wantErr: "personB is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDocument_Validate_ReportsAllFailures(t *testing.T) {
	doc := Document{
		People:     []RawPerson{{}, {DisplayName: "ok"}, {}},
		Evidence:   []RawEvidence{{PersonA: "a", PersonB: "b"}},
		Residences: []RawResidence{{PersonID: "a", Location: "Cork"}},
	}
	err := doc.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "people[0]")
	assert.Contains(t, msg, "people[2]")
	assert.NotContains(t, msg, "people[1]")
	assert.Contains(t, msg, "evidence[0]: kind is required")
}

func TestConversions(t *testing.T) {
	t.Run("person dates and deceased", func(t *testing.T) {
		p, err := RawPerson{ID: "p1", DisplayName: " Mary ", BirthDate: "1901-03-04", DeathDate: "1960-01-01"}.ToPerson()
		require.NoError(t, err)
		assert.Equal(t, "Mary", p.DisplayName)
		require.NotNil(t, p.BirthDate)
		assert.Equal(t, time.Date(1901, 3, 4, 0, 0, 0, 0, time.UTC), *p.BirthDate)
		assert.True(t, p.IsDeceased, "a death date implies deceased")
	})

	t.Run("partnership defaults", func(t *testing.T) {
		e, err := RawPartnership{PersonA: "a", PersonB: "b"}.ToEdge()
		require.NoError(t, err)
		assert.Equal(t, entities.PartnershipPartnered, e.Kind)
		assert.Equal(t, entities.StatusCurrent, e.Status)
	})

	t.Run("parent-child defaults", func(t *testing.T) {
		e := RawParentChild{Parent: "a", Child: "b"}.ToEdge()
		assert.Equal(t, entities.RelationBiological, e.RelationshipType)
		assert.Equal(t, 100, e.Confidence)

		e = RawParentChild{Parent: "a", Child: "b", Confidence: intPtr(0)}.ToEdge()
		assert.Equal(t, 0, e.Confidence)
	})
}

func TestEncodeRoundTrip(t *testing.T) {
	birth := time.Date(1901, 3, 4, 0, 0, 0, 0, time.UTC)
	doc := &Document{
		People: []RawPerson{FromPerson(entities.Person{ID: "p1", DisplayName: "Mary, Walsh", BirthDate: &birth})},
		Partnerships: []RawPartnership{FromPartnership(entities.PartnershipEdge{
			ID: "e1", PersonA: "p1", PersonB: "p2", Kind: entities.PartnershipMarried, Status: entities.StatusCurrent,
		})},
		ParentChild: []RawParentChild{FromParentChild(entities.ParentChildEdge{
			ID: "e2", Parent: "p1", Child: "p3", RelationshipType: entities.RelationStep, Confidence: 40,
		})},
		Evidence: []RawEvidence{FromEvidence(entities.EvidenceRecord{
			ID: "v1", PersonA: "p1", PersonB: "p3", Kind: entities.EvidencePhoto, Strength: 0.25,
		})},
		Households: []RawHousehold{{HouseholdID: "h1", PersonID: "p1"}},
		Residences: []RawResidence{{PersonID: "p1", Location: "Cork"}},
	}

	for _, format := range []string{"json", "csv"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncoderFor(format).Encode(&buf, doc))

			got, err := ForFormat(format).Parse(&buf)
			require.NoError(t, err)
			require.NoError(t, got.Validate())

			assert.Equal(t, "1901-03-04", got.People[0].BirthDate)
			assert.Equal(t, "Mary, Walsh", got.People[0].DisplayName)
			assert.Equal(t, "married", got.Partnerships[0].Kind)
			assert.Equal(t, intPtr(40), got.ParentChild[0].Confidence)
			assert.Equal(t, 0.25, got.Evidence[0].Strength)
			assert.Equal(t, "h1", got.Households[0].HouseholdID)
			assert.Equal(t, "Cork", got.Residences[0].Location)
		})
	}
}

func TestForFile(t *testing.T) {
	assert.IsType(t, &JSONParser{}, ForFile("tree.JSON"))
	assert.IsType(t, &CSVParser{}, ForFile("/tmp/tree.csv"))
	assert.Nil(t, ForFile("tree.ged"))
	assert.Nil(t, EncoderFor("xml"))
}

func TestRecordErrors(t *testing.T) {
	doc := Document{
		People:      []RawPerson{{DisplayName: "ok"}, {LineNum: 3}},
		ParentChild: []RawParentChild{{Parent: "a"}},
	}
	errs := RecordErrors(doc.Validate())
	require.Len(t, errs, 2)

	assert.Equal(t, "people", errs[0].Section)
	assert.Equal(t, 1, errs[0].Index)
	assert.Equal(t, 3, errs[0].Line)
	assert.Equal(t, "displayName", errs[0].Field)

	assert.Equal(t, "parentChild", errs[1].Section)
	assert.Equal(t, "child", errs[1].Field)

	assert.Nil(t, RecordErrors(nil))
}

func TestValidateRecord(t *testing.T) {
	require.NoError(t, ValidateRecord(RawParentChild{Parent: "a", Child: "b"}))

	err := ValidateRecord(RawParentChild{Parent: "a", Child: "b", RelationshipType: "cousin"})
	require.Error(t, err)
	assert.Equal(t, "relationshipType must satisfy oneof=biological adopted step foster other", err.Error())

	var re *RecordError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "relationshipType", re.Field)
}

package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

func TestValidator_BiologicalParentLimit(t *testing.T) {
	g := New(peopleIndex(
		person("m", 1950), person("f", 1948), person("x", 1949), person("s", 1951), person("c", 1980),
	), nil)
	mustAdd(t, g, bio("m", "c"), bio("f", "c"))

	_, err := g.AddParentChild(bio("x", "c"))
	assert.True(t, errors.Is(err, ErrTooManyBiologicalParents))

	res, err := g.AddParentChild(typed("s", "c", entities.RelationStep))
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Len(t, g.ParentsOf("c"), 3)
}

func TestValidator_ParentChildErrors(t *testing.T) {
	g := New(peopleIndex(person("p", 1950), person("c", 1980)), nil)
	existing, err := g.AddParentChild(bio("p", "c"))
	require.NoError(t, err)

	tests := []struct {
		name string
		edge entities.ParentChildEdge
		want error
	}{
		{"self", bio("p", "p"), ErrSelfRelationship},
		{"unknown parent", bio("ghost", "c"), ErrPersonNotFound},
		{"unknown child", bio("p", "ghost"), ErrPersonNotFound},
		{"duplicate", bio("p", "c"), ErrDuplicateRelationship},
		{"cycle", bio("c", "p"), ErrCycleDetected},
		{"bad type", typed("p", "c", "cousin"), ErrInvalidEdge},
		{"bad confidence", entities.ParentChildEdge{Parent: "p", Child: "c", RelationshipType: entities.RelationFoster, Confidence: 101}, ErrInvalidEdge},
		{"reused id", entities.ParentChildEdge{ID: existing.EdgeID, Parent: "p", Child: "c", RelationshipType: entities.RelationAdopted}, ErrInvalidEdge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := g.Validator().ValidateParentChild(g.Snapshot(), tt.edge)
			assert.False(t, res.OK())
			assert.True(t, res.Has(tt.want), "got %s", res.Summary())
			assert.True(t, errors.Is(res.Err(), tt.want))
		})
	}
}

func TestValidator_AdoptedAlongsideBiologicalIsNotDuplicate(t *testing.T) {
	g := New(peopleIndex(person("p", 1950), person("c", 1980)), nil)
	mustAdd(t, g, bio("p", "c"))

	res, err := g.AddParentChild(typed("p", "c", entities.RelationAdopted))
	require.NoError(t, err)
	assert.True(t, res.OK())
}

func TestValidator_Warnings(t *testing.T) {
	dead := person("dead", 1900)
	dead.DeathDate = date(1940)
	dead.IsDeceased = true

	people := peopleIndex(
		person("young", 1975), person("old", 1900), dead,
		person("kid", 1980), person("late", 1945), person("ok", 1950),
	)

	tests := []struct {
		name string
		edge entities.ParentChildEdge
		want []WarningCode
	}{
		{"plausible", bio("ok", "kid"), nil},
		{"too young", bio("young", "kid"), []WarningCode{WarnAgeGap}},
		{"too old", bio("old", "kid"), []WarningCode{WarnAgeGap}},
		{"child older than parent", bio("kid", "ok"), []WarningCode{WarnAgeGap}},
		{"died before birth", bio("dead", "late"), []WarningCode{WarnParentDiedBeforeBirth}},
		{"step parent death is fine", typed("dead", "late", entities.RelationStep), nil},
	}

	v := NewValidator(DefaultValidatorConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(people, v)
			res := v.ValidateParentChild(g.Snapshot(), tt.edge)
			require.True(t, res.OK(), res.Summary())
			var codes []WarningCode
			for _, w := range res.Warnings {
				codes = append(codes, w.Code)
			}
			assert.Equal(t, tt.want, codes)
		})
	}
}

func TestValidator_ConfigurableBand(t *testing.T) {
	v := NewValidator(DefaultValidatorConfig())
	g := New(peopleIndex(person("p", 1950), person("c", 1965)), v)

	res := v.ValidateParentChild(g.Snapshot(), bio("p", "c"))
	assert.False(t, res.HasWarning(WarnAgeGap))

	v.SetConfig(ValidatorConfig{MinParentAgeYears: 18, MaxParentAgeYears: 50})
	res = v.ValidateParentChild(g.Snapshot(), bio("p", "c"))
	assert.True(t, res.HasWarning(WarnAgeGap))
}

func TestValidator_Partnership(t *testing.T) {
	g := New(nil, nil)
	mustPartner(t, g, "a", "b")

	res, err := g.AddPartnership(partners("a", "c"))
	require.NoError(t, err)
	assert.True(t, res.HasWarning(WarnConcurrentPartnership))

	ended := partners("a", "b")
	ended.Status = entities.StatusEnded
	res, err = g.AddPartnership(ended)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	bad := partners("d", "e")
	bad.StartDate = date(2000)
	bad.EndDate = date(1990)
	_, err = g.AddPartnership(bad)
	assert.True(t, errors.Is(err, ErrInvalidEdge))

	bad = partners("d", "e")
	bad.Kind = "handfasted"
	_, err = g.AddPartnership(bad)
	assert.True(t, errors.Is(err, ErrInvalidEdge))
}

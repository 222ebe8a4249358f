package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

func date(year int) *time.Time {
	d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &d
}

func person(id string, born int) entities.Person {
	p := entities.Person{ID: id, DisplayName: id}
	if born != 0 {
		p.BirthDate = date(born)
	}
	return p
}

func peopleIndex(people ...entities.Person) PersonIndex {
	return NewPersonIndex(people)
}

func bio(parent, child string) entities.ParentChildEdge {
	return entities.ParentChildEdge{Parent: parent, Child: child, RelationshipType: entities.RelationBiological, Confidence: 100}
}

func typed(parent, child string, rt entities.RelationshipType) entities.ParentChildEdge {
	return entities.ParentChildEdge{Parent: parent, Child: child, RelationshipType: rt, Confidence: 100}
}

func partners(a, b string) entities.PartnershipEdge {
	return entities.PartnershipEdge{PersonA: a, PersonB: b, Kind: entities.PartnershipMarried, Status: entities.StatusCurrent}
}

func mustAdd(t *testing.T, g *Graph, edges ...entities.ParentChildEdge) {
	t.Helper()
	for _, e := range edges {
		_, err := g.AddParentChild(e)
		require.NoError(t, err)
	}
}

func mustPartner(t *testing.T, g *Graph, a, b string) string {
	t.Helper()
	res, err := g.AddPartnership(partners(a, b))
	require.NoError(t, err)
	return res.EdgeID
}

// chain builds A -> B -> C with plausible birth years.
func chain(t *testing.T) *Graph {
	t.Helper()
	g := New(peopleIndex(person("A", 1900), person("B", 1930), person("C", 1960)), nil)
	mustAdd(t, g, bio("A", "B"), bio("B", "C"))
	return g
}

// cousinMarriage builds a pedigree where F's parents M and D are first
// cousins, so grandparents G1 and G2 are reached along two paths.
//
//	G1 + G2
//	 /    \
//	X      Y
//	|      |
//	M  +   D
//	   \  /
//	    F
func cousinMarriage(t *testing.T) *Graph {
	t.Helper()
	g := New(peopleIndex(
		person("G1", 1880), person("G2", 1882),
		person("X", 1905), person("Y", 1908),
		person("M", 1932), person("D", 1930),
		person("F", 1960),
	), nil)
	mustAdd(t, g,
		bio("G1", "X"), bio("G2", "X"),
		bio("G1", "Y"), bio("G2", "Y"),
		bio("X", "M"), bio("Y", "D"),
		bio("M", "F"), bio("D", "F"),
	)
	return g
}

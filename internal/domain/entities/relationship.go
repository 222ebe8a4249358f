package entities

import (
	"errors"
	"fmt"
	"time"
)

// PartnershipKind describes the form of a partnership.
type PartnershipKind string

const (
	PartnershipMarried   PartnershipKind = "married"
	PartnershipPartnered PartnershipKind = "partnered"
	PartnershipEngaged   PartnershipKind = "engaged"
	PartnershipOther     PartnershipKind = "other"
)

// IsValid reports whether k is a known partnership kind.
func (k PartnershipKind) IsValid() bool {
	switch k {
	case PartnershipMarried, PartnershipPartnered, PartnershipEngaged, PartnershipOther:
		return true
	}
	return false
}

// PartnershipStatus is the lifecycle state of a partnership.
type PartnershipStatus string

const (
	StatusCurrent   PartnershipStatus = "current"
	StatusEnded     PartnershipStatus = "ended"
	StatusDivorced  PartnershipStatus = "divorced"
	StatusWidowed   PartnershipStatus = "widowed"
	StatusSeparated PartnershipStatus = "separated"
)

// IsValid reports whether s is a known partnership status.
func (s PartnershipStatus) IsValid() bool {
	switch s {
	case StatusCurrent, StatusEnded, StatusDivorced, StatusWidowed, StatusSeparated:
		return true
	}
	return false
}

// RelationshipType defines how a parent is related to a child.
type RelationshipType string

const (
	RelationBiological RelationshipType = "biological"
	RelationAdopted    RelationshipType = "adopted"
	RelationStep       RelationshipType = "step"
	RelationFoster     RelationshipType = "foster"
	RelationOther      RelationshipType = "other"
)

// RelationshipTypes lists every valid relationship type in precedence order.
var RelationshipTypes = []RelationshipType{
	RelationBiological,
	RelationAdopted,
	RelationStep,
	RelationFoster,
	RelationOther,
}

// IsValid reports whether t is a known relationship type.
func (t RelationshipType) IsValid() bool {
	return t.Rank() < len(RelationshipTypes)
}

// Rank orders relationship types for display; biological first.
// Unknown types rank after every known type.
func (t RelationshipType) Rank() int {
	for i, rt := range RelationshipTypes {
		if rt == t {
			return i
		}
	}
	return len(RelationshipTypes)
}

// PartnershipEdge is an undirected edge between two people.
type PartnershipEdge struct {
	ID        string            `json:"id"`
	PersonA   string            `json:"personA"`
	PersonB   string            `json:"personB"`
	Kind      PartnershipKind   `json:"kind"`
	StartDate *time.Time        `json:"startDate,omitempty"`
	EndDate   *time.Time        `json:"endDate,omitempty"`
	Status    PartnershipStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Involves reports whether the person is one side of the partnership.
func (e PartnershipEdge) Involves(personID string) bool {
	return e.PersonA == personID || e.PersonB == personID
}

// Other returns the partner of personID.
func (e PartnershipEdge) Other(personID string) string {
	if e.PersonA == personID {
		return e.PersonB
	}
	return e.PersonA
}

// PairKey identifies the unordered pair of people.
func (e PartnershipEdge) PairKey() PersonPair {
	return PairKey(e.PersonA, e.PersonB)
}

// IsCurrent reports whether the partnership is active.
func (e PartnershipEdge) IsCurrent() bool {
	return e.Status == StatusCurrent
}

// PersonPair is an unordered pair of person ids with Low <= High.
type PersonPair struct {
	Low  string
	High string
}

// PairKey builds an order-independent key for two person ids.
func PairKey(a, b string) PersonPair {
	if a > b {
		a, b = b, a
	}
	return PersonPair{Low: a, High: b}
}

// ParentChildEdge is a directed edge from parent to child.
type ParentChildEdge struct {
	ID               string           `json:"id"`
	Parent           string           `json:"parent"`
	Child            string           `json:"child"`
	RelationshipType RelationshipType `json:"relationshipType"`
	Verified         bool             `json:"verified"`
	Confidence       int              `json:"confidence"` // 0..100
	CreatedAt        time.Time        `json:"createdAt"`
}

// IsBiological reports whether the edge is a biological parentage.
func (e ParentChildEdge) IsBiological() bool {
	return e.RelationshipType == RelationBiological
}

// EdgeKind tags the payload of an EdgeProposal.
type EdgeKind string

const (
	EdgeKindPartnership EdgeKind = "partnership"
	EdgeKindParentChild EdgeKind = "parent_child"
)

// EdgeProposal is a request to commit one edge to the graph.
// Exactly one payload matching Kind must be set.
type EdgeProposal struct {
	Kind        EdgeKind         `json:"kind"`
	Partnership *PartnershipEdge `json:"partnership,omitempty"`
	ParentChild *ParentChildEdge `json:"parentChild,omitempty"`
}

// Validate checks that the proposal is well formed.
func (p EdgeProposal) Validate() error {
	switch p.Kind {
	case EdgeKindPartnership:
		if p.Partnership == nil {
			return errors.New("partnership proposal is missing its partnership payload")
		}
		if p.ParentChild != nil {
			return errors.New("partnership proposal must not carry a parent-child payload")
		}
	case EdgeKindParentChild:
		if p.ParentChild == nil {
			return errors.New("parent-child proposal is missing its parentChild payload")
		}
		if p.Partnership != nil {
			return errors.New("parent-child proposal must not carry a partnership payload")
		}
	default:
		return fmt.Errorf("unknown edge kind %q (valid: partnership, parent_child)", p.Kind)
	}
	return nil
}

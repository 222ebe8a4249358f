package graph

import (
	"sort"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

// PersonLookup resolves person ids to their read-only attributes.
type PersonLookup interface {
	Person(id string) (entities.Person, bool)
}

// PersonIndex is an immutable id-keyed PersonLookup.
type PersonIndex map[string]entities.Person

// NewPersonIndex builds an index from a list of people.
func NewPersonIndex(people []entities.Person) PersonIndex {
	idx := make(PersonIndex, len(people))
	for _, p := range people {
		idx[p.ID] = p
	}
	return idx
}

// Person implements PersonLookup.
func (idx PersonIndex) Person(id string) (entities.Person, bool) {
	p, ok := idx[id]
	return p, ok
}

// Topology is the read surface the validator checks proposals against.
// Both the live graph and its snapshots implement it.
type Topology interface {
	// Person returns the person with the given id. When no person
	// directory is attached every id resolves to a bare Person.
	Person(id string) (entities.Person, bool)
	ParentEdges(child string) []entities.ParentChildEdge
	PartnershipsOf(personID string) []entities.PartnershipEdge
	HasEdge(id string) bool
}

type idSet map[string]struct{}

// state holds edges and the per-person adjacency indices. It is owned by
// Graph under its lock, and frozen copies back each Snapshot.
type state struct {
	people       PersonLookup
	partnerships map[string]entities.PartnershipEdge
	parentChild  map[string]entities.ParentChildEdge

	parentIdx  map[string]idSet // child -> parent-child edge ids
	childIdx   map[string]idSet // parent -> parent-child edge ids
	partnerIdx map[string]idSet // person -> partnership edge ids
}

func newState(people PersonLookup) *state {
	return &state{
		people:       people,
		partnerships: make(map[string]entities.PartnershipEdge),
		parentChild:  make(map[string]entities.ParentChildEdge),
		parentIdx:    make(map[string]idSet),
		childIdx:     make(map[string]idSet),
		partnerIdx:   make(map[string]idSet),
	}
}

func (s *state) clone() *state {
	c := newState(s.people)
	for id, e := range s.partnerships {
		c.partnerships[id] = e
	}
	for id, e := range s.parentChild {
		c.parentChild[id] = e
	}
	copyIndex(c.parentIdx, s.parentIdx)
	copyIndex(c.childIdx, s.childIdx)
	copyIndex(c.partnerIdx, s.partnerIdx)
	return c
}

func copyIndex(dst, src map[string]idSet) {
	for k, set := range src {
		cp := make(idSet, len(set))
		for id := range set {
			cp[id] = struct{}{}
		}
		dst[k] = cp
	}
}

func indexAdd(idx map[string]idSet, key, edgeID string) {
	set, ok := idx[key]
	if !ok {
		set = make(idSet)
		idx[key] = set
	}
	set[edgeID] = struct{}{}
}

func indexRemove(idx map[string]idSet, key, edgeID string) {
	set, ok := idx[key]
	if !ok {
		return
	}
	delete(set, edgeID)
	if len(set) == 0 {
		delete(idx, key)
	}
}

func (s *state) insertPartnership(e entities.PartnershipEdge) {
	s.partnerships[e.ID] = e
	indexAdd(s.partnerIdx, e.PersonA, e.ID)
	indexAdd(s.partnerIdx, e.PersonB, e.ID)
}

func (s *state) insertParentChild(e entities.ParentChildEdge) {
	s.parentChild[e.ID] = e
	indexAdd(s.parentIdx, e.Child, e.ID)
	indexAdd(s.childIdx, e.Parent, e.ID)
}

// remove deletes an edge of either kind and reports whether it existed.
func (s *state) remove(id string) bool {
	if e, ok := s.partnerships[id]; ok {
		delete(s.partnerships, id)
		indexRemove(s.partnerIdx, e.PersonA, id)
		indexRemove(s.partnerIdx, e.PersonB, id)
		return true
	}
	if e, ok := s.parentChild[id]; ok {
		delete(s.parentChild, id)
		indexRemove(s.parentIdx, e.Child, id)
		indexRemove(s.childIdx, e.Parent, id)
		return true
	}
	return false
}

func (s *state) Person(id string) (entities.Person, bool) {
	if s.people == nil {
		return entities.Person{ID: id, DisplayName: id}, true
	}
	return s.people.Person(id)
}

func (s *state) HasEdge(id string) bool {
	if _, ok := s.partnerships[id]; ok {
		return true
	}
	_, ok := s.parentChild[id]
	return ok
}

// ParentEdges returns the edges pointing at child, best relationship type
// first, then by parent id and edge id.
func (s *state) ParentEdges(child string) []entities.ParentChildEdge {
	edges := s.parentChildEdges(s.parentIdx[child])
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if ra, rb := a.RelationshipType.Rank(), b.RelationshipType.Rank(); ra != rb {
			return ra < rb
		}
		if a.Parent != b.Parent {
			return a.Parent < b.Parent
		}
		return a.ID < b.ID
	})
	return edges
}

// ChildEdges returns the edges leaving parent ordered by child id then edge id.
func (s *state) ChildEdges(parent string) []entities.ParentChildEdge {
	edges := s.parentChildEdges(s.childIdx[parent])
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Child != edges[j].Child {
			return edges[i].Child < edges[j].Child
		}
		return edges[i].ID < edges[j].ID
	})
	return edges
}

func (s *state) parentChildEdges(ids idSet) []entities.ParentChildEdge {
	edges := make([]entities.ParentChildEdge, 0, len(ids))
	for id := range ids {
		edges = append(edges, s.parentChild[id])
	}
	return edges
}

// PartnershipsOf returns every partnership involving the person, by edge id.
func (s *state) PartnershipsOf(personID string) []entities.PartnershipEdge {
	ids := s.partnerIdx[personID]
	edges := make([]entities.PartnershipEdge, 0, len(ids))
	for id := range ids {
		edges = append(edges, s.partnerships[id])
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges
}

func (s *state) ParentsOf(id string) []string {
	out := make(idSet)
	for eid := range s.parentIdx[id] {
		out[s.parentChild[eid].Parent] = struct{}{}
	}
	return sortedIDs(out)
}

func (s *state) ChildrenOf(id string) []string {
	out := make(idSet)
	for eid := range s.childIdx[id] {
		out[s.parentChild[eid].Child] = struct{}{}
	}
	return sortedIDs(out)
}

func (s *state) PartnersOf(id string, activeOnly bool) []string {
	out := make(idSet)
	for eid := range s.partnerIdx[id] {
		e := s.partnerships[eid]
		if activeOnly && !e.IsCurrent() {
			continue
		}
		out[e.Other(id)] = struct{}{}
	}
	return sortedIDs(out)
}

// reachesAncestor reports whether target is an ancestor of start (or start
// itself). The walk follows parent edges depth-first and visits each
// person at most once.
func reachesAncestor(t Topology, start, target string) bool {
	visited := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		for _, e := range t.ParentEdges(cur) {
			if !visited[e.Parent] {
				visited[e.Parent] = true
				stack = append(stack, e.Parent)
			}
		}
	}
	return false
}

func sortedIDs(set idSet) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

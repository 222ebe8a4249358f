package graph

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

// timeNow is a function variable for testing.
var timeNow = time.Now

// Graph owns partnership and parent-child edges and their adjacency
// indices. Edges enter only through AddPartnership and AddParentChild,
// which validate against the current state under the writer lock.
type Graph struct {
	mu        sync.Mutex
	st        *state
	validator *Validator
	snap      atomic.Pointer[Snapshot]
}

// New creates an empty graph. people may be nil, in which case person
// existence and date checks are skipped.
func New(people PersonLookup, validator *Validator) *Graph {
	if validator == nil {
		validator = NewValidator(DefaultValidatorConfig())
	}
	return &Graph{
		st:        newState(people),
		validator: validator,
	}
}

// Validator returns the validator used for mutations.
func (g *Graph) Validator() *Validator {
	return g.validator
}

// SetPeople replaces the person directory used for validation and
// projection.
func (g *Graph) SetPeople(people PersonLookup) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.st.people = people
	g.snap.Store(nil)
}

// AddPartnership validates and commits a partnership edge. A missing id
// is generated. When validation fails the graph is unchanged and the
// returned error joins the blocking findings.
func (g *Graph) AddPartnership(e entities.PartnershipEdge) (ValidationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prepare(&e.ID, &e.CreatedAt)
	res := g.validator.ValidatePartnership(g.st, e)
	if !res.OK() {
		return res, res.Err()
	}
	g.st.insertPartnership(e)
	g.snap.Store(nil)
	return res, nil
}

// AddParentChild validates and commits a parent-child edge.
func (g *Graph) AddParentChild(e entities.ParentChildEdge) (ValidationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prepare(&e.ID, &e.CreatedAt)
	res := g.validator.ValidateParentChild(g.st, e)
	if !res.OK() {
		return res, res.Err()
	}
	g.st.insertParentChild(e)
	g.snap.Store(nil)
	return res, nil
}

func prepare(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = timeNow().UTC()
	}
}

// RemoveEdge deletes an edge of either kind along with its index entries.
func (g *Graph) RemoveEdge(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.st.remove(id) {
		return fmt.Errorf("removing edge %s: %w", id, ErrEdgeNotFound)
	}
	g.snap.Store(nil)
	return nil
}

// HasEdge reports whether an edge of either kind has the id.
func (g *Graph) HasEdge(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.HasEdge(id)
}

// ParentsOf returns the sorted ids of the person's parents.
func (g *Graph) ParentsOf(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.ParentsOf(id)
}

// ChildrenOf returns the sorted ids of the person's children.
func (g *Graph) ChildrenOf(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.ChildrenOf(id)
}

// PartnersOf returns the sorted ids of the person's partners, optionally
// limited to current partnerships.
func (g *Graph) PartnersOf(id string, activeOnly bool) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.PartnersOf(id, activeOnly)
}

// Snapshot returns an immutable view of the graph. The same snapshot is
// returned until the next mutation.
func (g *Graph) Snapshot() *Snapshot {
	if s := g.snap.Load(); s != nil {
		return s
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if s := g.snap.Load(); s != nil {
		return s
	}
	s := &Snapshot{st: g.st.clone()}
	g.snap.Store(s)
	return s
}

// CheckInvariants verifies that every index entry references an existing
// edge involving the indexed person, that every edge is indexed and that
// no empty index sets remain.
func (g *Graph) CheckInvariants() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.checkInvariants()
}

func (s *state) checkInvariants() error {
	for person, set := range s.partnerIdx {
		if len(set) == 0 {
			return fmt.Errorf("empty partner index for %s", person)
		}
		for id := range set {
			e, ok := s.partnerships[id]
			if !ok {
				return fmt.Errorf("partner index for %s references missing edge %s", person, id)
			}
			if !e.Involves(person) {
				return fmt.Errorf("partner index for %s references unrelated edge %s", person, id)
			}
		}
	}
	for child, set := range s.parentIdx {
		if len(set) == 0 {
			return fmt.Errorf("empty parent index for %s", child)
		}
		for id := range set {
			e, ok := s.parentChild[id]
			if !ok || e.Child != child {
				return fmt.Errorf("parent index for %s references bad edge %s", child, id)
			}
		}
	}
	for parent, set := range s.childIdx {
		if len(set) == 0 {
			return fmt.Errorf("empty child index for %s", parent)
		}
		for id := range set {
			e, ok := s.parentChild[id]
			if !ok || e.Parent != parent {
				return fmt.Errorf("child index for %s references bad edge %s", parent, id)
			}
		}
	}
	for id, e := range s.partnerships {
		if _, ok := s.partnerIdx[e.PersonA][id]; !ok {
			return fmt.Errorf("partnership %s not indexed for %s", id, e.PersonA)
		}
		if _, ok := s.partnerIdx[e.PersonB][id]; !ok {
			return fmt.Errorf("partnership %s not indexed for %s", id, e.PersonB)
		}
	}
	for id, e := range s.parentChild {
		if _, ok := s.parentIdx[e.Child][id]; !ok {
			return fmt.Errorf("parent-child %s not indexed for child %s", id, e.Child)
		}
		if _, ok := s.childIdx[e.Parent][id]; !ok {
			return fmt.Errorf("parent-child %s not indexed for parent %s", id, e.Parent)
		}
	}
	return nil
}

// Snapshot is an immutable, goroutine-safe view of the graph.
type Snapshot struct {
	st *state
}

// Person resolves a person id against the directory the graph was built with.
func (s *Snapshot) Person(id string) (entities.Person, bool) { return s.st.Person(id) }

// HasEdge reports whether an edge of either kind has the id.
func (s *Snapshot) HasEdge(id string) bool { return s.st.HasEdge(id) }

// ParentEdges returns the edges linking child to its parents.
func (s *Snapshot) ParentEdges(child string) []entities.ParentChildEdge {
	return s.st.ParentEdges(child)
}

// ChildEdges returns the edges linking parent to its children.
func (s *Snapshot) ChildEdges(parent string) []entities.ParentChildEdge {
	return s.st.ChildEdges(parent)
}

// PartnershipsOf returns every partnership involving personID, current or not.
func (s *Snapshot) PartnershipsOf(personID string) []entities.PartnershipEdge {
	return s.st.PartnershipsOf(personID)
}

// ParentsOf returns the sorted ids of id's parents.
func (s *Snapshot) ParentsOf(id string) []string { return s.st.ParentsOf(id) }

// ChildrenOf returns the sorted ids of id's children.
func (s *Snapshot) ChildrenOf(id string) []string { return s.st.ChildrenOf(id) }

// PartnersOf returns the sorted ids of id's partners, only current ones
// when activeOnly is set.
func (s *Snapshot) PartnersOf(id string, activeOnly bool) []string {
	return s.st.PartnersOf(id, activeOnly)
}

// Linked reports whether a parent-child edge of any type joins a and b in
// either direction.
func (s *Snapshot) Linked(a, b string) bool {
	for id := range s.st.childIdx[a] {
		if s.st.parentChild[id].Child == b {
			return true
		}
	}
	for id := range s.st.childIdx[b] {
		if s.st.parentChild[id].Child == a {
			return true
		}
	}
	return false
}

// Partnership returns the partnership edge with the given id.
func (s *Snapshot) Partnership(id string) (entities.PartnershipEdge, bool) {
	e, ok := s.st.partnerships[id]
	return e, ok
}

// ParentChild returns the parent-child edge with the given id.
func (s *Snapshot) ParentChild(id string) (entities.ParentChildEdge, bool) {
	e, ok := s.st.parentChild[id]
	return e, ok
}

// Partnerships returns every partnership edge ordered by id.
func (s *Snapshot) Partnerships() []entities.PartnershipEdge {
	out := make([]entities.PartnershipEdge, 0, len(s.st.partnerships))
	for _, e := range s.st.partnerships {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ParentChildEdges returns every parent-child edge ordered by id.
func (s *Snapshot) ParentChildEdges() []entities.ParentChildEdge {
	out := make([]entities.ParentChildEdge, 0, len(s.st.parentChild))
	for _, e := range s.st.parentChild {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EdgeCount returns the number of partnership and parent-child edges.
func (s *Snapshot) EdgeCount() (partnerships, parentChild int) {
	return len(s.st.partnerships), len(s.st.parentChild)
}

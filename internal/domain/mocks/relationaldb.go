// Package mocks provides in-memory test doubles for the domain ports.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/ports"
)

// RelationalDB is an in-memory implementation of ports.RelationalDB.
// Err fails every call; SaveEdgeErr and DeleteEdgeErr fail only edge
// writes, for exercising rollback paths.
type RelationalDB struct {
	mu sync.Mutex

	People       map[string]entities.Person
	Partnerships map[string]entities.PartnershipEdge
	ParentChild  map[string]entities.ParentChildEdge
	Rejections   map[entities.PairID]bool
	Evidence     []entities.EvidenceRecord
	Households   []entities.HouseholdMembership
	Residences   []entities.Residence
	Audit        []entities.AuditEntry

	Err           error
	SaveEdgeErr   error
	DeleteEdgeErr error
}

// NewRelationalDB creates a new mock RelationalDB.
func NewRelationalDB() *RelationalDB {
	return &RelationalDB{
		People:       make(map[string]entities.Person),
		Partnerships: make(map[string]entities.PartnershipEdge),
		ParentChild:  make(map[string]entities.ParentChildEdge),
		Rejections:   make(map[entities.PairID]bool),
	}
}

// AddPeople seeds the person directory.
func (m *RelationalDB) AddPeople(people ...entities.Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range people {
		m.People[p.ID] = p
	}
}

// EnsureSchema creates the database schema if it doesn't exist.
func (m *RelationalDB) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the database connection.
func (m *RelationalDB) Close() error {
	return nil
}

// Person methods.

func (m *RelationalDB) SavePerson(_ context.Context, p *entities.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.People[p.ID] = *p
	return nil
}

func (m *RelationalDB) FindPersonByID(_ context.Context, id string) (*entities.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.People[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *RelationalDB) ListPeople(_ context.Context) ([]entities.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.Person, 0, len(m.People))
	for _, p := range m.People {
		result = append(result, p)
	}
	sortPeople(result)
	return result, nil
}

func (m *RelationalDB) SearchPeople(_ context.Context, query string, limit int) ([]entities.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	q := entities.NormalizeName(query)
	var result []entities.Person
	for _, p := range m.People {
		if strings.Contains(entities.NormalizeName(p.DisplayName), q) {
			result = append(result, p)
		}
	}
	sortPeople(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *RelationalDB) CountPeople(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.People), m.Err
}

func sortPeople(people []entities.Person) {
	sort.Slice(people, func(i, j int) bool {
		if people[i].DisplayName != people[j].DisplayName {
			return people[i].DisplayName < people[j].DisplayName
		}
		return people[i].ID < people[j].ID
	})
}

// Edge methods.

func (m *RelationalDB) SavePartnership(_ context.Context, e *entities.PartnershipEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.edgeErr(m.SaveEdgeErr); err != nil {
		return err
	}
	m.Partnerships[e.ID] = *e
	return nil
}

func (m *RelationalDB) SaveParentChild(_ context.Context, e *entities.ParentChildEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.edgeErr(m.SaveEdgeErr); err != nil {
		return err
	}
	m.ParentChild[e.ID] = *e
	return nil
}

func (m *RelationalDB) DeleteEdge(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.edgeErr(m.DeleteEdgeErr); err != nil {
		return err
	}
	if _, ok := m.Partnerships[id]; ok {
		delete(m.Partnerships, id)
		return nil
	}
	if _, ok := m.ParentChild[id]; ok {
		delete(m.ParentChild, id)
		return nil
	}
	return fmt.Errorf("edge %s: %w", id, ports.ErrNotFound)
}

func (m *RelationalDB) edgeErr(specific error) error {
	if m.Err != nil {
		return m.Err
	}
	return specific
}

func (m *RelationalDB) ListPartnerships(_ context.Context) ([]entities.PartnershipEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.PartnershipEdge, 0, len(m.Partnerships))
	for _, e := range m.Partnerships {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *RelationalDB) ListParentChild(_ context.Context) ([]entities.ParentChildEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.ParentChildEdge, 0, len(m.ParentChild))
	for _, e := range m.ParentChild {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Rejection methods.

func (m *RelationalDB) SaveRejection(_ context.Context, parent, child string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Rejections[entities.PairID{Parent: parent, Child: child}] = true
	return nil
}

func (m *RelationalDB) DeleteRejection(_ context.Context, parent, child string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	key := entities.PairID{Parent: parent, Child: child}
	if !m.Rejections[key] {
		return fmt.Errorf("rejection %s -> %s: %w", parent, child, ports.ErrNotFound)
	}
	delete(m.Rejections, key)
	return nil
}

func (m *RelationalDB) ClearRejections(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	n := len(m.Rejections)
	m.Rejections = make(map[entities.PairID]bool)
	return n, nil
}

func (m *RelationalDB) ListRejections(_ context.Context) ([]entities.PairID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.PairID, 0, len(m.Rejections))
	for k := range m.Rejections {
		result = append(result, k)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Parent != result[j].Parent {
			return result[i].Parent < result[j].Parent
		}
		return result[i].Child < result[j].Child
	})
	return result, nil
}

// Evidence methods.

func (m *RelationalDB) SaveEvidence(_ context.Context, r *entities.EvidenceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Evidence = append(m.Evidence, *r)
	return nil
}

func (m *RelationalDB) SaveHouseholdMembership(_ context.Context, h entities.HouseholdMembership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Households = append(m.Households, h)
	return nil
}

func (m *RelationalDB) SaveResidence(_ context.Context, r entities.Residence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Residences = append(m.Residences, r)
	return nil
}

func (m *RelationalDB) ListEvidence(_ context.Context) ([]entities.EvidenceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.EvidenceRecord(nil), m.Evidence...), m.Err
}

func (m *RelationalDB) ListHouseholdMemberships(_ context.Context) ([]entities.HouseholdMembership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.HouseholdMembership(nil), m.Households...), m.Err
}

func (m *RelationalDB) ListResidences(_ context.Context) ([]entities.Residence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.Residence(nil), m.Residences...), m.Err
}

// Audit methods.

func (m *RelationalDB) LogAction(_ context.Context, action, edgeID string, details map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Audit = append(m.Audit, entities.AuditEntry{
		ID:        int64(len(m.Audit) + 1),
		Action:    action,
		EdgeID:    edgeID,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (m *RelationalDB) FindAuditLog(_ context.Context, edgeID string) ([]entities.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []entities.AuditEntry
	for i := len(m.Audit) - 1; i >= 0; i-- {
		if m.Audit[i].EdgeID == edgeID {
			result = append(result, m.Audit[i])
		}
	}
	return result, m.Err
}

func (m *RelationalDB) FindAuditLogByAction(_ context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []entities.AuditEntry
	for i := len(m.Audit) - 1; i >= 0; i-- {
		if m.Audit[i].Action == action {
			result = append(result, m.Audit[i])
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, m.Err
}

// Actions returns the audit actions logged so far, in order.
func (m *RelationalDB) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Audit))
	for i, e := range m.Audit {
		out[i] = e.Action
	}
	return out
}

var _ ports.RelationalDB = (*RelationalDB)(nil)

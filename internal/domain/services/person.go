package services

import (
	"context"
	"fmt"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/graph"
	"github.com/ersonp/kin-core/internal/domain/ports"
)

// DefaultSearchLimit caps person searches when no limit is given.
const DefaultSearchLimit = 20

// PersonService is the read-only person directory.
type PersonService struct {
	store ports.PersonStore
}

// NewPersonService creates a new PersonService.
func NewPersonService(store ports.PersonStore) *PersonService {
	return &PersonService{store: store}
}

// Get returns one person, or an error wrapping graph.ErrPersonNotFound.
func (s *PersonService) Get(ctx context.Context, id string) (*entities.Person, error) {
	p, err := s.store.FindPersonByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding person: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("person %s: %w", id, graph.ErrPersonNotFound)
	}
	return p, nil
}

// List returns every person ordered by display name.
func (s *PersonService) List(ctx context.Context) ([]entities.Person, error) {
	people, err := s.store.ListPeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing people: %w", err)
	}
	return people, nil
}

// Search matches display names. A non-positive limit uses DefaultSearchLimit.
func (s *PersonService) Search(ctx context.Context, query string, limit int) ([]entities.Person, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	people, err := s.store.SearchPeople(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching people: %w", err)
	}
	return people, nil
}

// Count returns the number of people in the directory.
func (s *PersonService) Count(ctx context.Context) (int, error) {
	n, err := s.store.CountPeople(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting people: %w", err)
	}
	return n, nil
}

package handlers

import (
	"context"
	"strings"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/services"
)

// PersonHandler handles person directory lookups.
type PersonHandler struct {
	service *services.PersonService
}

// NewPersonHandler creates a new PersonHandler.
func NewPersonHandler(service *services.PersonService) *PersonHandler {
	return &PersonHandler{service: service}
}

// HandleGet returns one person.
func (h *PersonHandler) HandleGet(ctx context.Context, id string) (*entities.Person, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalidInput("person id is required")
	}
	return h.service.Get(ctx, id)
}

// HandleList lists everyone, or searches display names when query is set.
func (h *PersonHandler) HandleList(ctx context.Context, query string, limit int) ([]entities.Person, error) {
	if limit < 0 {
		return nil, invalidInput("limit must not be negative")
	}
	if q := strings.TrimSpace(query); q != "" {
		return h.service.Search(ctx, q, limit)
	}
	people, err := h.service.List(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(people) > limit {
		people = people[:limit]
	}
	return people, nil
}

// HandleCount returns how many people the family database holds.
func (h *PersonHandler) HandleCount(ctx context.Context) (int, error) {
	return h.service.Count(ctx)
}

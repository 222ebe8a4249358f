package handlers

import (
	"context"
	"strings"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/graph"
	"github.com/ersonp/kin-core/internal/domain/services"
)

// SuggestionHandler handles suggestion listing and reviewer decisions.
type SuggestionHandler struct {
	service *services.SuggestionService
}

// NewSuggestionHandler creates a new SuggestionHandler.
func NewSuggestionHandler(service *services.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{service: service}
}

// ListOptions filters a suggestion listing.
type ListOptions struct {
	Limit         int     // 0 uses services.DefaultSuggestionLimit
	MinConfidence float64 // 0..100
}

// RespondResult reports the outcome of a reviewer decision.
type RespondResult struct {
	Decision   string                  `json:"decision"` // accepted or rejected
	Validation *graph.ValidationResult `json:"validation,omitempty"`
}

// Committed reports whether the decision took effect. An accepted
// suggestion whose edge failed validation did not.
func (r *RespondResult) Committed() bool {
	return r.Validation == nil || r.Validation.OK()
}

// HandleList returns ranked suggestions.
func (h *SuggestionHandler) HandleList(ctx context.Context, opts ListOptions) ([]entities.SuggestionCandidate, error) {
	if opts.Limit < 0 {
		return nil, invalidInput("limit must not be negative")
	}
	if opts.MinConfidence < 0 || opts.MinConfidence > 100 {
		return nil, invalidInput("minConfidence %.1f outside 0..100", opts.MinConfidence)
	}
	return h.service.GetSuggestions(ctx, opts.Limit, opts.MinConfidence)
}

// HandleRespond accepts or rejects the suggestion parent -> child.
func (h *SuggestionHandler) HandleRespond(ctx context.Context, parent, child string, accept bool) (*RespondResult, error) {
	parent, child = strings.TrimSpace(parent), strings.TrimSpace(child)
	if parent == "" || child == "" {
		return nil, invalidInput("parent and child ids are required")
	}
	res, err := h.service.Respond(ctx, parent, child, accept)
	if err != nil {
		return nil, err
	}
	if !accept {
		return &RespondResult{Decision: string(entities.SuggestionRejected)}, nil
	}
	return &RespondResult{Decision: string(entities.SuggestionAccepted), Validation: res}, nil
}

// HandleClearRejections clears one rejected pair, or every rejection when
// both ids are empty. It returns the number of pairs cleared.
func (h *SuggestionHandler) HandleClearRejections(ctx context.Context, parent, child string) (int, error) {
	parent, child = strings.TrimSpace(parent), strings.TrimSpace(child)
	switch {
	case parent == "" && child == "":
		return h.service.ClearAllRejections(ctx)
	case parent == "" || child == "":
		return 0, invalidInput("give both parent and child ids, or neither to clear all")
	}
	if err := h.service.ClearRejection(ctx, parent, child); err != nil {
		return 0, err
	}
	return 1, nil
}

package handlers

import (
	"context"
	"strings"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/graph"
	"github.com/ersonp/kin-core/internal/domain/services"
	"github.com/ersonp/kin-core/internal/infrastructure/parsers"
)

// EdgeHandler handles edge proposals and removals.
type EdgeHandler struct {
	service *services.FamilyTreeService
}

// NewEdgeHandler creates a new EdgeHandler.
func NewEdgeHandler(service *services.FamilyTreeService) *EdgeHandler {
	return &EdgeHandler{service: service}
}

// ProposeRequest is an edge proposal as submitted by a user. The payloads
// use the import record shapes, so defaults and field rules match imports.
type ProposeRequest struct {
	Kind        string                  `json:"kind"`
	Partnership *parsers.RawPartnership `json:"partnership,omitempty"`
	ParentChild *parsers.RawParentChild `json:"parentChild,omitempty"`
}

// HandlePropose validates the request fields and proposes the edge. A
// rejected edge is reported in the result with a nil error.
func (h *EdgeHandler) HandlePropose(ctx context.Context, req ProposeRequest) (graph.ValidationResult, error) {
	p, err := req.toProposal()
	if err != nil {
		return graph.ValidationResult{}, err
	}
	return h.service.ProposeEdge(ctx, p)
}

// HandleRemove removes an edge by id.
func (h *EdgeHandler) HandleRemove(ctx context.Context, edgeID string) error {
	if strings.TrimSpace(edgeID) == "" {
		return invalidInput("edge id is required")
	}
	return h.service.RemoveEdge(ctx, edgeID)
}

func (r ProposeRequest) toProposal() (entities.EdgeProposal, error) {
	kind := entities.EdgeKind(strings.ReplaceAll(strings.ToLower(r.Kind), "-", "_"))
	switch kind {
	case entities.EdgeKindPartnership:
		if r.Partnership == nil {
			return entities.EdgeProposal{}, invalidInput("partnership payload is required")
		}
		if err := parsers.ValidateRecord(*r.Partnership); err != nil {
			return entities.EdgeProposal{}, invalidInput("%v", err)
		}
		e, err := r.Partnership.ToEdge()
		if err != nil {
			return entities.EdgeProposal{}, invalidInput("%v", err)
		}
		return entities.EdgeProposal{Kind: kind, Partnership: &e}, nil

	case entities.EdgeKindParentChild:
		if r.ParentChild == nil {
			return entities.EdgeProposal{}, invalidInput("parentChild payload is required")
		}
		if err := parsers.ValidateRecord(*r.ParentChild); err != nil {
			return entities.EdgeProposal{}, invalidInput("%v", err)
		}
		e := r.ParentChild.ToEdge()
		return entities.EdgeProposal{Kind: kind, ParentChild: &e}, nil
	}
	return entities.EdgeProposal{}, invalidInput("unknown edge kind %q (valid: partnership, parent_child)", r.Kind)
}

package handlers

import (
	"context"
	"strings"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/services"
)

// ValidViews lists the accepted tree view names.
var ValidViews = []string{
	string(entities.ViewDescendant),
	string(entities.ViewPedigree),
	string(entities.ViewFan),
}

// TreeHandler handles tree projection requests.
type TreeHandler struct {
	service *services.FamilyTreeService
}

// NewTreeHandler creates a new TreeHandler.
func NewTreeHandler(service *services.FamilyTreeService) *TreeHandler {
	return &TreeHandler{service: service}
}

// TreeOptions configures a projection.
type TreeOptions struct {
	View  string // descendant (default), pedigree or fan
	Depth *int   // nil uses services.DefaultTreeDepth
}

// Handle projects the tree around personID.
func (h *TreeHandler) Handle(ctx context.Context, personID string, opts TreeOptions) (*entities.TreeNode, error) {
	if strings.TrimSpace(personID) == "" {
		return nil, invalidInput("person id is required")
	}
	view, err := ParseView(opts.View)
	if err != nil {
		return nil, err
	}
	depth := services.DefaultTreeDepth
	if opts.Depth != nil {
		depth = *opts.Depth
	}
	return h.service.GetTree(ctx, personID, view, depth)
}

// ParseView converts a view name. An empty name means the descendant view.
func ParseView(s string) (entities.TreeView, error) {
	if s == "" {
		return entities.ViewDescendant, nil
	}
	v := entities.TreeView(strings.ToLower(s))
	if !v.IsValid() {
		return "", invalidInput("unknown view %q (valid: %s)", s, strings.Join(ValidViews, ", "))
	}
	return v, nil
}

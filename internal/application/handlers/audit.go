package handlers

import (
	"context"
	"slices"
	"strings"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/services"
)

// AuditHandler handles audit log queries.
type AuditHandler struct {
	service *services.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(service *services.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// AuditQuery selects audit entries. EdgeID and Action may be combined;
// at least one is required.
type AuditQuery struct {
	EdgeID string
	Action string
	Limit  int // 0 uses services.DefaultAuditLimit
}

// HandleList returns matching audit entries, newest first.
func (h *AuditHandler) HandleList(ctx context.Context, q AuditQuery) ([]entities.AuditEntry, error) {
	edgeID := strings.TrimSpace(q.EdgeID)
	action := strings.TrimSpace(q.Action)

	if edgeID == "" && action == "" {
		return nil, invalidInput("an edge id or an action is required")
	}
	if action != "" && !slices.Contains(entities.AuditActions, action) {
		return nil, invalidInput("unknown audit action %q, valid actions: %v", action, entities.AuditActions)
	}
	if q.Limit < 0 {
		return nil, invalidInput("limit must not be negative")
	}

	if edgeID == "" {
		return h.service.ByAction(ctx, action, q.Limit)
	}

	entries, err := h.service.EdgeHistory(ctx, edgeID)
	if err != nil {
		return nil, err
	}
	if action != "" {
		entries = slices.DeleteFunc(entries, func(e entities.AuditEntry) bool { return e.Action != action })
	}
	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}
	return entries, nil
}

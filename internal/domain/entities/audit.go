package entities

import "time"

// Audit actions recorded for graph mutations and suggestion reviews.
const (
	AuditEdgeCommitted      = "edge_committed"
	AuditEdgeRejected       = "edge_rejected"
	AuditEdgeRemoved        = "edge_removed"
	AuditSuggestionAccepted = "suggestion_accepted"
	AuditSuggestionRejected = "suggestion_rejected"
	AuditRejectionsCleared  = "rejections_cleared"
)

// AuditActions lists every action the audit log records.
var AuditActions = []string{
	AuditEdgeCommitted,
	AuditEdgeRejected,
	AuditEdgeRemoved,
	AuditSuggestionAccepted,
	AuditSuggestionRejected,
	AuditRejectionsCleared,
}

// AuditEntry represents a logged action in the system.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	EdgeID    string         `json:"edge_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

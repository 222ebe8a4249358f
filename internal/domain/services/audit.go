package services

import (
	"context"
	"fmt"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/ports"
)

// DefaultAuditLimit caps audit queries by action when no limit is given.
const DefaultAuditLimit = 50

// AuditService reads the audit log written by graph mutations and
// suggestion reviews.
type AuditService struct {
	db ports.RelationalDB
}

// NewAuditService creates a new AuditService.
func NewAuditService(db ports.RelationalDB) *AuditService {
	return &AuditService{db: db}
}

// EdgeHistory returns every entry recorded against one edge, newest first.
func (s *AuditService) EdgeHistory(ctx context.Context, edgeID string) ([]entities.AuditEntry, error) {
	entries, err := s.db.FindAuditLog(ctx, edgeID)
	if err != nil {
		return nil, fmt.Errorf("reading audit log for edge %s: %w", edgeID, err)
	}
	return entries, nil
}

// ByAction returns the most recent entries with the given action.
func (s *AuditService) ByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	entries, err := s.db.FindAuditLogByAction(ctx, action, limit)
	if err != nil {
		return nil, fmt.Errorf("reading audit log for %s: %w", action, err)
	}
	return entries, nil
}

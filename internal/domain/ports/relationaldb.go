package ports

import (
	"context"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

// PersonStore is the read-only person directory. Person lifecycle is
// owned outside the graph engine; the engine only looks people up.
type PersonStore interface {
	// FindPersonByID returns nil when the person does not exist.
	FindPersonByID(ctx context.Context, id string) (*entities.Person, error)

	// ListPeople returns every person ordered by display name.
	ListPeople(ctx context.Context) ([]entities.Person, error)

	// SearchPeople matches display names case-insensitively.
	SearchPeople(ctx context.Context, query string, limit int) ([]entities.Person, error)

	CountPeople(ctx context.Context) (int, error)
}

// EvidenceSource supplies externally recorded corroboration for the
// suggestion scorer.
type EvidenceSource interface {
	ListEvidence(ctx context.Context) ([]entities.EvidenceRecord, error)
	ListHouseholdMemberships(ctx context.Context) ([]entities.HouseholdMembership, error)
	ListResidences(ctx context.Context) ([]entities.Residence, error)
}

// RelationalDB defines the persistence operations for one family
// database: people, committed edges, suggestion rejections, evidence and
// the audit log.
type RelationalDB interface {
	PersonStore
	EvidenceSource

	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// SavePerson inserts or updates a person.
	SavePerson(ctx context.Context, person *entities.Person) error

	// Edge operations

	SavePartnership(ctx context.Context, edge *entities.PartnershipEdge) error
	SaveParentChild(ctx context.Context, edge *entities.ParentChildEdge) error

	// DeleteEdge deletes an edge of either kind. It returns an error
	// wrapping ErrNotFound when no edge has the id.
	DeleteEdge(ctx context.Context, id string) error

	ListPartnerships(ctx context.Context) ([]entities.PartnershipEdge, error)
	ListParentChild(ctx context.Context) ([]entities.ParentChildEdge, error)

	// Suggestion rejections

	SaveRejection(ctx context.Context, parent, child string) error
	DeleteRejection(ctx context.Context, parent, child string) error

	// ClearRejections removes every rejection and returns how many there were.
	ClearRejections(ctx context.Context) (int, error)

	ListRejections(ctx context.Context) ([]entities.PairID, error)

	// Evidence writes

	SaveEvidence(ctx context.Context, record *entities.EvidenceRecord) error
	SaveHouseholdMembership(ctx context.Context, m entities.HouseholdMembership) error
	SaveResidence(ctx context.Context, r entities.Residence) error

	// LogAction logs an action to the audit log.
	LogAction(ctx context.Context, action string, edgeID string, details map[string]any) error

	// FindAuditLog finds audit log entries for a specific edge.
	FindAuditLog(ctx context.Context, edgeID string) ([]entities.AuditEntry, error)

	// FindAuditLogByAction finds audit log entries by action type.
	FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error)
}

// Package sqlite provides a SQLite implementation of the RelationalDB interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/ports"
	"github.com/ersonp/kin-core/internal/infrastructure/config"
)

// generateUUID returns a new UUID string.
func generateUUID() string {
	return uuid.New().String()
}

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.RelationalDB using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

var _ ports.RelationalDB = (*Repository)(nil)

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// An in-memory database exists per connection.
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []struct{ stmt, what string }{
		{"PRAGMA foreign_keys = ON", "enabling foreign keys"},
		{"PRAGMA journal_mode = WAL", "enabling WAL mode"},
		{"PRAGMA busy_timeout = 5000", "setting busy timeout"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p.what, err)
		}
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- People (read-only to the graph engine)
	CREATE TABLE IF NOT EXISTS people (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		surname TEXT,
		birth_date TIMESTAMP,
		death_date TIMESTAMP,
		is_deceased INTEGER NOT NULL DEFAULT 0,
		photo_url TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_people_normalized ON people(normalized_name);

	-- Partnerships (undirected)
	CREATE TABLE IF NOT EXISTS partnerships (
		id TEXT PRIMARY KEY,
		person_a TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
		person_b TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		start_date TIMESTAMP,
		end_date TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_partnerships_a ON partnerships(person_a);
	CREATE INDEX IF NOT EXISTS idx_partnerships_b ON partnerships(person_b);

	-- Parent-child edges (directed)
	CREATE TABLE IF NOT EXISTS parent_child (
		id TEXT PRIMARY KEY,
		parent_id TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
		child_id TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
		relationship_type TEXT NOT NULL,
		verified INTEGER NOT NULL DEFAULT 0,
		confidence INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(parent_id, child_id, relationship_type)
	);
	CREATE INDEX IF NOT EXISTS idx_parent_child_parent ON parent_child(parent_id);
	CREATE INDEX IF NOT EXISTS idx_parent_child_child ON parent_child(child_id);

	-- Rejected suggestions, never re-suggested until cleared
	CREATE TABLE IF NOT EXISTS suggestion_rejections (
		parent_id TEXT NOT NULL,
		child_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (parent_id, child_id)
	);

	-- Externally supplied corroboration
	CREATE TABLE IF NOT EXISTS evidence (
		id TEXT PRIMARY KEY,
		person_a TEXT NOT NULL,
		person_b TEXT NOT NULL,
		kind TEXT NOT NULL,
		strength REAL NOT NULL,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_evidence_pair ON evidence(person_a, person_b);

	CREATE TABLE IF NOT EXISTS household_members (
		household_id TEXT NOT NULL,
		person_id TEXT NOT NULL,
		PRIMARY KEY (household_id, person_id)
	);

	CREATE TABLE IF NOT EXISTS residences (
		person_id TEXT NOT NULL,
		location TEXT NOT NULL,
		PRIMARY KEY (person_id, location)
	);

	-- Audit log (tracks all actions)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		edge_id TEXT,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_edge ON audit_log(edge_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	CREATE INDEX IF NOT EXISTS idx_audit_log_created ON audit_log(created_at);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// SavePerson inserts or updates a person. A missing id is generated.
func (r *Repository) SavePerson(ctx context.Context, p *entities.Person) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = timeNow().UTC()
	}
	query := `
		INSERT INTO people (id, display_name, normalized_name, surname, birth_date, death_date, is_deceased, photo_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			normalized_name = excluded.normalized_name,
			surname = excluded.surname,
			birth_date = excluded.birth_date,
			death_date = excluded.death_date,
			is_deceased = excluded.is_deceased,
			photo_url = excluded.photo_url
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.DisplayName,
		entities.NormalizeName(p.DisplayName),
		nullString(p.Surname),
		nullTime(p.BirthDate),
		nullTime(p.DeathDate),
		p.IsDeceased,
		nullString(p.PhotoURL),
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving person: %w", err)
	}
	return nil
}

const personColumns = `id, display_name, surname, birth_date, death_date, is_deceased, photo_url, created_at`

// FindPersonByID finds a person by id. Returns nil when not found.
func (r *Repository) FindPersonByID(ctx context.Context, id string) (*entities.Person, error) {
	people, err := r.queryPeople(ctx, `SELECT `+personColumns+` FROM people WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(people) == 0 {
		return nil, nil
	}
	return &people[0], nil
}

// ListPeople returns every person ordered by display name.
func (r *Repository) ListPeople(ctx context.Context) ([]entities.Person, error) {
	return r.queryPeople(ctx, `SELECT `+personColumns+` FROM people ORDER BY display_name ASC, id ASC`)
}

// SearchPeople matches display names case-insensitively.
func (r *Repository) SearchPeople(ctx context.Context, query string, limit int) ([]entities.Person, error) {
	pattern := "%" + entities.NormalizeName(query) + "%"
	return r.queryPeople(ctx, `
		SELECT `+personColumns+`
		FROM people
		WHERE normalized_name LIKE ?
		ORDER BY display_name ASC, id ASC
		LIMIT ?
	`, pattern, limit)
}

// CountPeople returns the number of people.
func (r *Repository) CountPeople(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM people`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting people: %w", err)
	}
	return count, nil
}

func (r *Repository) queryPeople(ctx context.Context, query string, args ...any) ([]entities.Person, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying people: %w", err)
	}
	defer rows.Close()

	var result []entities.Person
	for rows.Next() {
		var (
			p                 entities.Person
			surname, photoURL sql.NullString
			birth, death      sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.DisplayName, &surname, &birth, &death, &p.IsDeceased, &photoURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning person: %w", err)
		}
		p.Surname = surname.String
		p.PhotoURL = photoURL.String
		p.BirthDate = timePtr(birth)
		p.DeathDate = timePtr(death)
		result = append(result, p)
	}
	return result, rows.Err()
}

// SavePartnership inserts or updates a partnership edge.
func (r *Repository) SavePartnership(ctx context.Context, e *entities.PartnershipEdge) error {
	query := `
		INSERT INTO partnerships (id, person_a, person_b, kind, status, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			status = excluded.status,
			start_date = excluded.start_date,
			end_date = excluded.end_date
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.PersonA,
		e.PersonB,
		string(e.Kind),
		string(e.Status),
		nullTime(e.StartDate),
		nullTime(e.EndDate),
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving partnership: %w", err)
	}
	return nil
}

// SaveParentChild inserts or updates a parent-child edge.
func (r *Repository) SaveParentChild(ctx context.Context, e *entities.ParentChildEdge) error {
	query := `
		INSERT INTO parent_child (id, parent_id, child_id, relationship_type, verified, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			verified = excluded.verified,
			confidence = excluded.confidence
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.Parent,
		e.Child,
		string(e.RelationshipType),
		e.Verified,
		e.Confidence,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving parent-child edge: %w", err)
	}
	return nil
}

// DeleteEdge deletes a partnership or parent-child edge by id.
func (r *Repository) DeleteEdge(ctx context.Context, id string) error {
	for _, table := range []string{"partnerships", "parent_child"} {
		result, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting edge: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows > 0 {
			return nil
		}
	}
	return fmt.Errorf("edge %s: %w", id, ports.ErrNotFound)
}

// ListPartnerships returns every partnership ordered by id.
func (r *Repository) ListPartnerships(ctx context.Context) ([]entities.PartnershipEdge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, person_a, person_b, kind, status, start_date, end_date, created_at
		FROM partnerships
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying partnerships: %w", err)
	}
	defer rows.Close()

	var result []entities.PartnershipEdge
	for rows.Next() {
		var (
			e            entities.PartnershipEdge
			kind, status string
			start, end   sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.PersonA, &e.PersonB, &kind, &status, &start, &end, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning partnership: %w", err)
		}
		e.Kind = entities.PartnershipKind(kind)
		e.Status = entities.PartnershipStatus(status)
		e.StartDate = timePtr(start)
		e.EndDate = timePtr(end)
		result = append(result, e)
	}
	return result, rows.Err()
}

// ListParentChild returns every parent-child edge ordered by id.
func (r *Repository) ListParentChild(ctx context.Context) ([]entities.ParentChildEdge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parent_id, child_id, relationship_type, verified, confidence, created_at
		FROM parent_child
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying parent-child edges: %w", err)
	}
	defer rows.Close()

	var result []entities.ParentChildEdge
	for rows.Next() {
		var (
			e  entities.ParentChildEdge
			rt string
		)
		if err := rows.Scan(&e.ID, &e.Parent, &e.Child, &rt, &e.Verified, &e.Confidence, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning parent-child edge: %w", err)
		}
		e.RelationshipType = entities.RelationshipType(rt)
		result = append(result, e)
	}
	return result, rows.Err()
}

// SaveRejection records a rejected (parent, child) suggestion.
func (r *Repository) SaveRejection(ctx context.Context, parent, child string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO suggestion_rejections (parent_id, child_id, created_at) VALUES (?, ?, ?)`,
		parent, child, timeNow().UTC())
	if err != nil {
		return fmt.Errorf("saving rejection: %w", err)
	}
	return nil
}

// DeleteRejection clears one rejection.
func (r *Repository) DeleteRejection(ctx context.Context, parent, child string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM suggestion_rejections WHERE parent_id = ? AND child_id = ?`, parent, child)
	if err != nil {
		return fmt.Errorf("deleting rejection: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("rejection %s -> %s: %w", parent, child, ports.ErrNotFound)
	}
	return nil
}

// ClearRejections removes every rejection.
func (r *Repository) ClearRejections(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM suggestion_rejections`)
	if err != nil {
		return 0, fmt.Errorf("clearing rejections: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// ListRejections returns every rejected pair.
func (r *Repository) ListRejections(ctx context.Context) ([]entities.PairID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT parent_id, child_id FROM suggestion_rejections ORDER BY parent_id, child_id`)
	if err != nil {
		return nil, fmt.Errorf("querying rejections: %w", err)
	}
	defer rows.Close()

	var result []entities.PairID
	for rows.Next() {
		var p entities.PairID
		if err := rows.Scan(&p.Parent, &p.Child); err != nil {
			return nil, fmt.Errorf("scanning rejection: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// SaveEvidence inserts or updates an evidence record.
func (r *Repository) SaveEvidence(ctx context.Context, rec *entities.EvidenceRecord) error {
	if rec.ID == "" {
		rec.ID = generateUUID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = timeNow().UTC()
	}
	query := `
		INSERT INTO evidence (id, person_a, person_b, kind, strength, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			strength = excluded.strength,
			description = excluded.description
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.PersonA, rec.PersonB, string(rec.Kind), rec.Strength, nullString(rec.Description), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving evidence: %w", err)
	}
	return nil
}

// ListEvidence returns every evidence record ordered by id.
func (r *Repository) ListEvidence(ctx context.Context) ([]entities.EvidenceRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, person_a, person_b, kind, strength, description, created_at
		FROM evidence
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying evidence: %w", err)
	}
	defer rows.Close()

	var result []entities.EvidenceRecord
	for rows.Next() {
		var (
			rec  entities.EvidenceRecord
			kind string
			desc sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.PersonA, &rec.PersonB, &kind, &rec.Strength, &desc, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning evidence: %w", err)
		}
		rec.Kind = entities.EvidenceKind(kind)
		rec.Description = desc.String
		result = append(result, rec)
	}
	return result, rows.Err()
}

// SaveHouseholdMembership places a person in a household.
func (r *Repository) SaveHouseholdMembership(ctx context.Context, m entities.HouseholdMembership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO household_members (household_id, person_id) VALUES (?, ?)`,
		m.HouseholdID, m.PersonID)
	if err != nil {
		return fmt.Errorf("saving household membership: %w", err)
	}
	return nil
}

// ListHouseholdMemberships returns every membership.
func (r *Repository) ListHouseholdMemberships(ctx context.Context) ([]entities.HouseholdMembership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT household_id, person_id FROM household_members ORDER BY household_id, person_id`)
	if err != nil {
		return nil, fmt.Errorf("querying household members: %w", err)
	}
	defer rows.Close()

	var result []entities.HouseholdMembership
	for rows.Next() {
		var m entities.HouseholdMembership
		if err := rows.Scan(&m.HouseholdID, &m.PersonID); err != nil {
			return nil, fmt.Errorf("scanning household member: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// SaveResidence records a place a person lived.
func (r *Repository) SaveResidence(ctx context.Context, res entities.Residence) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO residences (person_id, location) VALUES (?, ?)`,
		res.PersonID, res.Location)
	if err != nil {
		return fmt.Errorf("saving residence: %w", err)
	}
	return nil
}

// ListResidences returns every residence.
func (r *Repository) ListResidences(ctx context.Context) ([]entities.Residence, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT person_id, location FROM residences ORDER BY person_id, location`)
	if err != nil {
		return nil, fmt.Errorf("querying residences: %w", err)
	}
	defer rows.Close()

	var result []entities.Residence
	for rows.Next() {
		var res entities.Residence
		if err := rows.Scan(&res.PersonID, &res.Location); err != nil {
			return nil, fmt.Errorf("scanning residence: %w", err)
		}
		result = append(result, res)
	}
	return result, rows.Err()
}

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action string, edgeID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `INSERT INTO audit_log (action, edge_id, details, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, action, nullString(edgeID), detailsJSON, timeNow().UTC())
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog finds audit log entries for a specific edge.
func (r *Repository) FindAuditLog(ctx context.Context, edgeID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, edge_id, details, created_at
		FROM audit_log
		WHERE edge_id = ?
		ORDER BY created_at DESC, id DESC
	`
	return r.queryAuditLog(ctx, query, edgeID)
}

// FindAuditLogByAction finds audit log entries by action type.
func (r *Repository) FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, edge_id, details, created_at
		FROM audit_log
		WHERE action = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	return r.queryAuditLog(ctx, query, action, limit)
}

// queryAuditLog is a helper to execute audit log queries.
func (r *Repository) queryAuditLog(ctx context.Context, query string, args ...any) ([]entities.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var edgeID, details sql.NullString

		if err := rows.Scan(&entry.ID, &entry.Action, &edgeID, &details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entry.EdgeID = edgeID.String

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

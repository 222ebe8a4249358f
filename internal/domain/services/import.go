package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/ports"
	"github.com/ersonp/kin-core/internal/infrastructure/parsers"
)

// ConflictStrategy defines how to handle existing people during import.
type ConflictStrategy string

const (
	// ConflictSkip skips people that already exist (by ID).
	ConflictSkip ConflictStrategy = "skip"
	// ConflictOverwrite overwrites existing people with new data.
	ConflictOverwrite ConflictStrategy = "overwrite"
)

// IsValid reports whether c is a known strategy.
func (c ConflictStrategy) IsValid() bool {
	return c == ConflictSkip || c == ConflictOverwrite
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun     bool             // Validate without saving
	OnConflict ConflictStrategy // How to handle existing people
}

// ImportError represents an error for a specific record during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Record  string // Section of the document, e.g. "parentChild"
	Field   string // Which field has the error
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Record, e.Message)
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	People       int
	Partnerships int
	ParentChild  int
	Evidence     int
	Households   int
	Residences   int
	Skipped      int
	Warnings     int
	Errors       []ImportError
}

// Imported returns the total number of records written.
func (r *ImportResult) Imported() int {
	return r.People + r.Partnerships + r.ParentChild + r.Evidence + r.Households + r.Residences
}

// ImportService imports and exports whole family documents. Edges are
// committed through the family tree service, so every imported edge is
// validated exactly like an interactive proposal.
type ImportService struct {
	db     ports.RelationalDB
	tree   *FamilyTreeService
	logger *zap.Logger
}

// NewImportService creates a new import service.
func NewImportService(db ports.RelationalDB, tree *FamilyTreeService, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		db:     db,
		tree:   tree,
		logger: logger,
	}
}

// Import validates and imports a parsed document. Records that fail field
// validation or graph validation are reported in the result and skipped;
// the error is reserved for storage failures.
func (s *ImportService) Import(ctx context.Context, doc *parsers.Document, opts ImportOptions) (*ImportResult, error) {
	if opts.OnConflict == "" {
		opts.OnConflict = ConflictSkip
	}
	result := &ImportResult{}

	invalid := make(map[string]map[int]bool)
	for _, re := range parsers.RecordErrors(doc.Validate()) {
		if invalid[re.Section] == nil {
			invalid[re.Section] = make(map[int]bool)
		}
		invalid[re.Section][re.Index] = true
		result.Errors = append(result.Errors, ImportError{
			Line: re.Line, Record: re.Section, Field: re.Field, Message: re.Message,
		})
	}

	people := s.convertPeople(doc.People, invalid["people"], result)

	if opts.DryRun {
		result.People = len(people)
		result.Partnerships = len(doc.Partnerships) - len(invalid["partnerships"])
		result.ParentChild = len(doc.ParentChild) - len(invalid["parentChild"])
		result.Evidence = len(doc.Evidence) - len(invalid["evidence"])
		result.Households = len(doc.Households) - len(invalid["households"])
		result.Residences = len(doc.Residences) - len(invalid["residences"])
		return result, nil
	}

	if err := s.savePeople(ctx, people, opts.OnConflict, result); err != nil {
		return nil, err
	}
	if err := s.tree.RefreshPeople(ctx); err != nil {
		return nil, err
	}
	if err := s.importEdges(ctx, doc, invalid, result); err != nil {
		return nil, err
	}
	if err := s.importEvidence(ctx, doc, invalid, result); err != nil {
		return nil, err
	}

	s.logger.Info("import finished",
		zap.Int("imported", result.Imported()),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// convertPeople converts valid person records, assigning ids where missing.
func (s *ImportService) convertPeople(raw []parsers.RawPerson, invalid map[int]bool, result *ImportResult) []entities.Person {
	people := make([]entities.Person, 0, len(raw))
	now := time.Now().UTC()
	for i, r := range raw {
		if invalid[i] {
			continue
		}
		p, err := r.ToPerson()
		if err != nil {
			result.Errors = append(result.Errors, ImportError{Line: r.LineNum, Record: "people", Message: err.Error()})
			continue
		}
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		p.CreatedAt = now
		people = append(people, p)
	}
	return people
}

func (s *ImportService) savePeople(ctx context.Context, people []entities.Person, onConflict ConflictStrategy, result *ImportResult) error {
	stored, err := s.db.ListPeople(ctx)
	if err != nil {
		return fmt.Errorf("loading existing people: %w", err)
	}
	existing := make(map[string]entities.Person, len(stored))
	for _, p := range stored {
		existing[p.ID] = p
	}

	for i := range people {
		p := &people[i]
		if prev, ok := existing[p.ID]; ok {
			if onConflict == ConflictSkip {
				result.Skipped++
				continue
			}
			p.CreatedAt = prev.CreatedAt
		}
		if err := s.db.SavePerson(ctx, p); err != nil {
			return fmt.Errorf("saving person %s: %w", p.ID, err)
		}
		result.People++
		existing[p.ID] = *p
	}
	return nil
}

func (s *ImportService) importEdges(ctx context.Context, doc *parsers.Document, invalid map[string]map[int]bool, result *ImportResult) error {
	for i, r := range doc.Partnerships {
		if invalid["partnerships"][i] {
			continue
		}
		e, err := r.ToEdge()
		if err != nil {
			result.Errors = append(result.Errors, ImportError{Line: r.LineNum, Record: "partnerships", Message: err.Error()})
			continue
		}
		if s.skipExisting(e.ID, result) {
			continue
		}
		res, err := s.tree.ProposeEdge(ctx, entities.EdgeProposal{Kind: entities.EdgeKindPartnership, Partnership: &e})
		if err != nil {
			return err
		}
		if !res.OK() {
			result.Errors = append(result.Errors, ImportError{Line: r.LineNum, Record: "partnerships", Message: res.Summary()})
			continue
		}
		result.Warnings += len(res.Warnings)
		result.Partnerships++
	}

	for i, r := range doc.ParentChild {
		if invalid["parentChild"][i] {
			continue
		}
		e := r.ToEdge()
		if s.skipExisting(e.ID, result) {
			continue
		}
		res, err := s.tree.ProposeEdge(ctx, entities.EdgeProposal{Kind: entities.EdgeKindParentChild, ParentChild: &e})
		if err != nil {
			return err
		}
		if !res.OK() {
			result.Errors = append(result.Errors, ImportError{Line: r.LineNum, Record: "parentChild", Message: res.Summary()})
			continue
		}
		result.Warnings += len(res.Warnings)
		result.ParentChild++
	}
	return nil
}

// skipExisting reports whether an edge id is already in the graph, which
// makes re-importing an export idempotent.
func (s *ImportService) skipExisting(id string, result *ImportResult) bool {
	if id == "" || !s.tree.Graph().HasEdge(id) {
		return false
	}
	result.Skipped++
	return true
}

func (s *ImportService) importEvidence(ctx context.Context, doc *parsers.Document, invalid map[string]map[int]bool, result *ImportResult) error {
	for i, r := range doc.Evidence {
		if invalid["evidence"][i] {
			continue
		}
		rec := r.ToRecord()
		if err := s.db.SaveEvidence(ctx, &rec); err != nil {
			return fmt.Errorf("saving evidence: %w", err)
		}
		result.Evidence++
	}
	for i, r := range doc.Households {
		if invalid["households"][i] {
			continue
		}
		m := entities.HouseholdMembership{HouseholdID: r.HouseholdID, PersonID: r.PersonID}
		if err := s.db.SaveHouseholdMembership(ctx, m); err != nil {
			return fmt.Errorf("saving household membership: %w", err)
		}
		result.Households++
	}
	for i, r := range doc.Residences {
		if invalid["residences"][i] {
			continue
		}
		res := entities.Residence{PersonID: r.PersonID, Location: r.Location}
		if err := s.db.SaveResidence(ctx, res); err != nil {
			return fmt.Errorf("saving residence: %w", err)
		}
		result.Residences++
	}
	return nil
}

// Export builds a document holding every person, committed edge and
// piece of evidence in the family database.
func (s *ImportService) Export(ctx context.Context) (*parsers.Document, error) {
	people, err := s.db.ListPeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing people: %w", err)
	}
	evidence, err := s.db.ListEvidence(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing evidence: %w", err)
	}
	households, err := s.db.ListHouseholdMemberships(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing households: %w", err)
	}
	residences, err := s.db.ListResidences(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing residences: %w", err)
	}
	snap := s.tree.Snapshot()

	doc := &parsers.Document{}
	for _, p := range people {
		doc.People = append(doc.People, parsers.FromPerson(p))
	}
	for _, e := range snap.Partnerships() {
		doc.Partnerships = append(doc.Partnerships, parsers.FromPartnership(e))
	}
	for _, e := range snap.ParentChildEdges() {
		doc.ParentChild = append(doc.ParentChild, parsers.FromParentChild(e))
	}
	for _, e := range evidence {
		doc.Evidence = append(doc.Evidence, parsers.FromEvidence(e))
	}
	for _, h := range households {
		doc.Households = append(doc.Households, parsers.RawHousehold{HouseholdID: h.HouseholdID, PersonID: h.PersonID})
	}
	for _, r := range residences {
		doc.Residences = append(doc.Residences, parsers.RawResidence{PersonID: r.PersonID, Location: r.Location})
	}
	return doc, nil
}

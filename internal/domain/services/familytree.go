package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/graph"
	"github.com/ersonp/kin-core/internal/domain/ports"
	"github.com/ersonp/kin-core/internal/infrastructure/metrics"
)

// DefaultTreeDepth is the number of generations shown when a caller does
// not ask for a depth.
const DefaultTreeDepth = 4

// LoadResult reports what Load read back from storage.
type LoadResult struct {
	People       int
	Partnerships int
	ParentChild  int
	Skipped      int
}

// FamilyTreeService owns the in-memory relationship graph for one family
// database. Mutations are serialized across validate, commit and persist;
// reads run against lock-free snapshots.
type FamilyTreeService struct {
	mu        sync.Mutex
	db        ports.RelationalDB
	graph     atomic.Pointer[graph.Graph]
	projector *graph.Projector
	logger    *zap.Logger
}

// NewFamilyTreeService creates a new FamilyTreeService. Call Load before
// serving requests.
func NewFamilyTreeService(
	db ports.RelationalDB,
	validator *graph.Validator,
	projector *graph.Projector,
	logger *zap.Logger,
) *FamilyTreeService {
	if projector == nil {
		projector = graph.NewProjector(graph.DefaultProjectorConfig())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FamilyTreeService{
		db:        db,
		projector: projector,
		logger:    logger,
	}
	s.graph.Store(graph.New(nil, validator))
	return s
}

// Graph returns the live graph.
func (s *FamilyTreeService) Graph() *graph.Graph {
	return s.graph.Load()
}

// Snapshot returns an immutable view of the current graph.
func (s *FamilyTreeService) Snapshot() *graph.Snapshot {
	return s.graph.Load().Snapshot()
}

// Load rebuilds the graph from storage. Stored edges pass through the
// validator again; any that no longer validate are skipped and logged.
func (s *FamilyTreeService) Load(ctx context.Context) (*LoadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	people, err := s.db.ListPeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading people: %w", err)
	}
	partnerships, err := s.db.ListPartnerships(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading partnerships: %w", err)
	}
	parentChild, err := s.db.ListParentChild(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading parent-child edges: %w", err)
	}

	g := graph.New(graph.NewPersonIndex(people), s.Graph().Validator())
	result := &LoadResult{People: len(people)}

	for _, e := range partnerships {
		if res, err := g.AddPartnership(e); err != nil {
			result.Skipped++
			s.logger.Warn("skipping stored partnership",
				zap.String("edge_id", e.ID), zap.String("reason", res.Summary()))
			continue
		}
		result.Partnerships++
	}
	for _, e := range parentChild {
		if res, err := g.AddParentChild(e); err != nil {
			result.Skipped++
			s.logger.Warn("skipping stored parent-child edge",
				zap.String("edge_id", e.ID), zap.String("reason", res.Summary()))
			continue
		}
		result.ParentChild++
	}

	s.graph.Store(g)
	s.recordGraphSize()
	s.logger.Debug("family graph loaded",
		zap.Int("people", result.People),
		zap.Int("partnerships", result.Partnerships),
		zap.Int("parent_child", result.ParentChild),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// RefreshPeople reloads the person directory without touching edges.
func (s *FamilyTreeService) RefreshPeople(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	people, err := s.db.ListPeople(ctx)
	if err != nil {
		return fmt.Errorf("loading people: %w", err)
	}
	s.Graph().SetPeople(graph.NewPersonIndex(people))
	return nil
}

// GetTree projects the graph around focus. Unknown people yield an error
// wrapping graph.ErrPersonNotFound.
func (s *FamilyTreeService) GetTree(ctx context.Context, focus string, view entities.TreeView, maxDepth int) (*entities.TreeNode, error) {
	start := time.Now()
	root, err := s.projector.Project(ctx, s.Snapshot(), focus, view, maxDepth)

	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case root.Truncated:
		result = "truncated"
	}
	metrics.RecordProjection(string(view), result, time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("projecting %s tree: %w", view, err)
	}
	return root, nil
}

// ProposeEdge validates and commits an edge. Validation failures are
// returned in the result with a nil error and leave the graph unchanged;
// the error is reserved for storage failures, after which the graph is
// rolled back.
func (s *FamilyTreeService) ProposeEdge(ctx context.Context, p entities.EdgeProposal) (graph.ValidationResult, error) {
	if err := p.Validate(); err != nil {
		metrics.RecordProposal(string(p.Kind), metrics.ResultRejected)
		return graph.ValidationResult{
			Errors: []graph.ValidationError{{Code: graph.ErrInvalidEdge, Message: err.Error()}},
		}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proposeLocked(ctx, p)
}

// withWriter runs fn while holding the writer lock. Callers that must check
// graph state and then mutate storage use it so no proposal or removal can
// interleave.
func (s *FamilyTreeService) withWriter(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// proposeLocked commits an already-validated proposal. s.mu must be held.
func (s *FamilyTreeService) proposeLocked(ctx context.Context, p entities.EdgeProposal) (graph.ValidationResult, error) {
	g := s.Graph()

	var (
		res     graph.ValidationResult
		details map[string]any
		persist func() error
	)
	switch p.Kind {
	case entities.EdgeKindPartnership:
		e := *p.Partnership
		stamp(&e.ID, &e.CreatedAt)
		res, _ = g.AddPartnership(e)
		details = map[string]any{
			"kind": string(p.Kind), "person_a": e.PersonA, "person_b": e.PersonB,
			"partnership_kind": string(e.Kind), "status": string(e.Status),
		}
		persist = func() error { return s.db.SavePartnership(ctx, &e) }

	case entities.EdgeKindParentChild:
		e := *p.ParentChild
		stamp(&e.ID, &e.CreatedAt)
		res, _ = g.AddParentChild(e)
		details = map[string]any{
			"kind": string(p.Kind), "parent": e.Parent, "child": e.Child,
			"relationship_type": string(e.RelationshipType), "confidence": e.Confidence,
		}
		persist = func() error { return s.db.SaveParentChild(ctx, &e) }
	}

	if !res.OK() {
		s.recordRejection(ctx, p.Kind, res, details)
		return res, nil
	}

	if err := persist(); err != nil {
		if rbErr := g.RemoveEdge(res.EdgeID); rbErr != nil {
			s.logger.Error("rolling back edge failed", zap.String("edge_id", res.EdgeID), zap.Error(rbErr))
		}
		metrics.RecordProposal(string(p.Kind), metrics.ResultError)
		return res, fmt.Errorf("saving edge: %w", err)
	}

	if len(res.Warnings) > 0 {
		details["warnings"] = warningCodes(res.Warnings)
	}
	s.audit(ctx, entities.AuditEdgeCommitted, res.EdgeID, details)
	metrics.RecordProposal(string(p.Kind), metrics.ResultCommitted)
	s.recordGraphSize()
	s.logger.Info("edge committed",
		zap.String("edge_id", res.EdgeID),
		zap.String("kind", string(p.Kind)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}

func (s *FamilyTreeService) recordRejection(ctx context.Context, kind entities.EdgeKind, res graph.ValidationResult, details map[string]any) {
	codes := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		code := e.Code.Error()
		codes = append(codes, code)
		metrics.RecordValidationFailure(code)
	}
	details["errors"] = codes
	s.audit(ctx, entities.AuditEdgeRejected, "", details)
	metrics.RecordProposal(string(kind), metrics.ResultRejected)
	s.logger.Info("edge rejected", zap.String("kind", string(kind)), zap.String("reason", res.Summary()))
}

// RemoveEdge deletes an edge from the graph and storage. Unknown ids
// yield an error wrapping graph.ErrEdgeNotFound.
func (s *FamilyTreeService) RemoveEdge(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.Graph()

	snap := g.Snapshot()
	partnership, isPartnership := snap.Partnership(id)
	parentChild, isParentChild := snap.ParentChild(id)
	if !isPartnership && !isParentChild {
		metrics.RecordRemoval("not_found")
		return fmt.Errorf("removing edge %s: %w", id, graph.ErrEdgeNotFound)
	}

	if err := g.RemoveEdge(id); err != nil {
		return err
	}

	if err := s.db.DeleteEdge(ctx, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			s.logger.Warn("edge missing from storage", zap.String("edge_id", id))
		} else {
			var restoreErr error
			if isPartnership {
				_, restoreErr = g.AddPartnership(partnership)
			} else {
				_, restoreErr = g.AddParentChild(parentChild)
			}
			if restoreErr != nil {
				s.logger.Error("restoring edge failed", zap.String("edge_id", id), zap.Error(restoreErr))
			}
			metrics.RecordRemoval(metrics.ResultError)
			return fmt.Errorf("deleting edge: %w", err)
		}
	}

	details := map[string]any{}
	if isPartnership {
		details["kind"] = string(entities.EdgeKindPartnership)
		details["person_a"], details["person_b"] = partnership.PersonA, partnership.PersonB
	} else {
		details["kind"] = string(entities.EdgeKindParentChild)
		details["parent"], details["child"] = parentChild.Parent, parentChild.Child
	}
	s.audit(ctx, entities.AuditEdgeRemoved, id, details)
	metrics.RecordRemoval("removed")
	s.recordGraphSize()
	s.logger.Info("edge removed", zap.String("edge_id", id))
	return nil
}

func (s *FamilyTreeService) recordGraphSize() {
	partnerships, parentChild := s.Snapshot().EdgeCount()
	metrics.SetGraphEdges(partnerships, parentChild)
}

// audit records an action. Audit failures are logged, not returned: the
// mutation they describe has already been committed.
func (s *FamilyTreeService) audit(ctx context.Context, action, edgeID string, details map[string]any) {
	if err := s.db.LogAction(ctx, action, edgeID, details); err != nil {
		s.logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}

func stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.New().String()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}

func warningCodes(ws []graph.ValidationWarning) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = string(w.Code)
	}
	return out
}

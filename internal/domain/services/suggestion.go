package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/graph"
	"github.com/ersonp/kin-core/internal/domain/ports"
	"github.com/ersonp/kin-core/internal/domain/scoring"
	"github.com/ersonp/kin-core/internal/infrastructure/metrics"
)

// DefaultSuggestionLimit caps the suggestions returned when no limit is given.
const DefaultSuggestionLimit = 50

// SuggestionService scores candidate parent-child links and records
// reviewer decisions.
type SuggestionService struct {
	db     ports.RelationalDB
	tree   *FamilyTreeService
	scorer *scoring.Scorer
	logger *zap.Logger
}

// NewSuggestionService creates a new SuggestionService.
func NewSuggestionService(
	db ports.RelationalDB,
	tree *FamilyTreeService,
	scorer *scoring.Scorer,
	logger *zap.Logger,
) *SuggestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionService{
		db:     db,
		tree:   tree,
		scorer: scorer,
		logger: logger,
	}
}

// GetSuggestions runs a scoring pass and returns up to limit candidates
// whose confidence is at least minConfidence, best first.
func (s *SuggestionService) GetSuggestions(ctx context.Context, limit int, minConfidence float64) ([]entities.SuggestionCandidate, error) {
	in, err := s.input(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	candidates, err := s.scorer.Score(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("scoring suggestions: %w", err)
	}
	metrics.RecordScoring(len(candidates), time.Since(start).Seconds())

	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	out := make([]entities.SuggestionCandidate, 0, min(limit, len(candidates)))
	for _, c := range candidates {
		if c.Confidence < minConfidence {
			break
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Respond records a reviewer decision on a candidate pair. Accepting
// proposes a biological parent-child edge through the validator and
// returns its validation result; rejecting stores the pair so it is never
// suggested again and returns a nil result.
//
// Pairs that were already rejected yield scoring.ErrSuggestionRejected;
// pairs that are linked, fail validation or lack birth years yield
// scoring.ErrNotSuggestable.
func (s *SuggestionService) Respond(ctx context.Context, parent, child string, accept bool) (*graph.ValidationResult, error) {
	var res *graph.ValidationResult
	err := s.tree.withWriter(func() error {
		var err error
		res, err = s.respondLocked(ctx, parent, child, accept)
		return err
	})
	return res, err
}

// respondLocked checks eligibility and applies the decision. The tree
// writer lock must be held so an accept and a reject of the same pair
// cannot both succeed.
func (s *SuggestionService) respondLocked(ctx context.Context, parent, child string, accept bool) (*graph.ValidationResult, error) {
	in, err := s.input(ctx)
	if err != nil {
		return nil, err
	}
	candidate, err := s.scorer.ScorePair(in, parent, child)
	if err != nil {
		metrics.RecordSuggestionResponse(accept, metrics.ResultRejected)
		return nil, err
	}

	if !accept {
		if err := s.db.SaveRejection(ctx, parent, child); err != nil {
			metrics.RecordSuggestionResponse(accept, metrics.ResultError)
			return nil, fmt.Errorf("saving rejection: %w", err)
		}
		s.audit(ctx, entities.AuditSuggestionRejected, "", map[string]any{
			"parent": parent, "child": child, "confidence": candidate.Confidence,
		})
		metrics.RecordSuggestionResponse(accept, metrics.ResultCommitted)
		s.logger.Info("suggestion rejected",
			zap.String("parent", parent), zap.String("child", child), zap.Float64("confidence", candidate.Confidence))
		return nil, nil
	}

	proposal := entities.EdgeProposal{
		Kind: entities.EdgeKindParentChild,
		ParentChild: &entities.ParentChildEdge{
			Parent:           parent,
			Child:            child,
			RelationshipType: entities.RelationBiological,
			Confidence:       int(math.Round(candidate.Confidence)),
		},
	}
	if err := proposal.Validate(); err != nil {
		metrics.RecordSuggestionResponse(accept, metrics.ResultRejected)
		return &graph.ValidationResult{
			Errors: []graph.ValidationError{{Code: graph.ErrInvalidEdge, Message: err.Error()}},
		}, nil
	}
	res, err := s.tree.proposeLocked(ctx, proposal)
	if err != nil {
		metrics.RecordSuggestionResponse(accept, metrics.ResultError)
		return nil, err
	}
	if !res.OK() {
		metrics.RecordSuggestionResponse(accept, metrics.ResultRejected)
		return &res, nil
	}

	s.audit(ctx, entities.AuditSuggestionAccepted, res.EdgeID, map[string]any{
		"parent": parent, "child": child, "confidence": candidate.Confidence, "reasoning": candidate.Reasoning,
	})
	metrics.RecordSuggestionResponse(accept, metrics.ResultCommitted)
	s.logger.Info("suggestion accepted",
		zap.String("parent", parent), zap.String("child", child), zap.String("edge_id", res.EdgeID))
	return &res, nil
}

// ClearRejection makes one rejected pair eligible again. Unknown pairs
// yield an error wrapping ports.ErrNotFound.
func (s *SuggestionService) ClearRejection(ctx context.Context, parent, child string) error {
	if err := s.db.DeleteRejection(ctx, parent, child); err != nil {
		return fmt.Errorf("clearing rejection: %w", err)
	}
	s.audit(ctx, entities.AuditRejectionsCleared, "", map[string]any{"parent": parent, "child": child, "count": 1})
	return nil
}

// ClearAllRejections makes every rejected pair eligible again and returns
// how many were cleared.
func (s *SuggestionService) ClearAllRejections(ctx context.Context) (int, error) {
	n, err := s.db.ClearRejections(ctx)
	if err != nil {
		return 0, fmt.Errorf("clearing rejections: %w", err)
	}
	s.audit(ctx, entities.AuditRejectionsCleared, "", map[string]any{"count": n})
	s.logger.Info("rejections cleared", zap.Int("count", n))
	return n, nil
}

// input gathers everything the scorer reads into one consistent pass.
func (s *SuggestionService) input(ctx context.Context) (scoring.Input, error) {
	people, err := s.db.ListPeople(ctx)
	if err != nil {
		return scoring.Input{}, fmt.Errorf("loading people: %w", err)
	}
	evidence, err := s.db.ListEvidence(ctx)
	if err != nil {
		return scoring.Input{}, fmt.Errorf("loading evidence: %w", err)
	}
	households, err := s.db.ListHouseholdMemberships(ctx)
	if err != nil {
		return scoring.Input{}, fmt.Errorf("loading households: %w", err)
	}
	residences, err := s.db.ListResidences(ctx)
	if err != nil {
		return scoring.Input{}, fmt.Errorf("loading residences: %w", err)
	}
	rejections, err := s.db.ListRejections(ctx)
	if err != nil {
		return scoring.Input{}, fmt.Errorf("loading rejections: %w", err)
	}

	rejected := make(map[entities.PairID]bool, len(rejections))
	for _, r := range rejections {
		rejected[r] = true
	}
	return scoring.Input{
		People:     people,
		Graph:      s.tree.Snapshot(),
		Evidence:   evidence,
		Households: households,
		Residences: residences,
		Rejected:   rejected,
	}, nil
}

func (s *SuggestionService) audit(ctx context.Context, action, edgeID string, details map[string]any) {
	if err := s.db.LogAction(ctx, action, edgeID, details); err != nil {
		s.logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}

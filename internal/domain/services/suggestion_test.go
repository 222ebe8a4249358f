package services

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/graph"
	"github.com/ersonp/kin-core/internal/domain/mocks"
	"github.com/ersonp/kin-core/internal/domain/ports"
	"github.com/ersonp/kin-core/internal/domain/scoring"
)

// newSuggestionService seeds a small family: sean and mary share a
// surname, an ideal age gap and a household; kate only fits the age band.
func newSuggestionService(t *testing.T) (*SuggestionService, *FamilyTreeService, *mocks.RelationalDB) {
	t.Helper()
	db := mocks.NewRelationalDB()
	db.AddPeople(
		bornIn("sean", "Sean Walsh", 1900),
		bornIn("mary", "Mary Walsh", 1928),
		bornIn("kate", "Kate Doyle", 1931),
		bornIn("zed", "Zed Okafor", 2010),
	)
	db.Households = []entities.HouseholdMembership{
		{HouseholdID: "h1", PersonID: "sean"},
		{HouseholdID: "h1", PersonID: "mary"},
	}

	validator := graph.NewValidator(graph.DefaultValidatorConfig())
	logger := zaptest.NewLogger(t)
	tree := NewFamilyTreeService(db, validator, nil, logger)
	_, err := tree.Load(context.Background())
	require.NoError(t, err)

	svc := NewSuggestionService(db, tree, scoring.New(scoring.DefaultConfig(), validator), logger)
	return svc, tree, db
}

func pairsOf(cs []entities.SuggestionCandidate) []entities.PairID {
	out := make([]entities.PairID, len(cs))
	for i, c := range cs {
		out[i] = entities.PairID{Parent: c.CandidateParent, Child: c.CandidateChild}
	}
	return out
}

func TestSuggestionService_GetSuggestions(t *testing.T) {
	svc, _, _ := newSuggestionService(t)
	ctx := context.Background()
	best := entities.PairID{Parent: "sean", Child: "mary"}

	all, err := svc.GetSuggestions(ctx, 0, 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(all), 2)
	assert.Equal(t, best, pairsOf(all)[0])
	assert.Contains(t, pairsOf(all), entities.PairID{Parent: "sean", Child: "kate"})
	assert.Greater(t, all[0].Confidence, all[1].Confidence)

	tests := []struct {
		name          string
		limit         int
		minConfidence float64
		want          []entities.PairID
	}{
		{name: "limit", limit: 1, want: []entities.PairID{best}},
		{name: "min confidence", minConfidence: all[0].Confidence, want: []entities.PairID{best}},
		{name: "nothing above threshold", minConfidence: 100.1, want: []entities.PairID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.GetSuggestions(ctx, tt.limit, tt.minConfidence)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pairsOf(got))
		})
	}
}

func TestSuggestionService_Accept(t *testing.T) {
	svc, tree, db := newSuggestionService(t)
	ctx := context.Background()

	suggestions, err := svc.GetSuggestions(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	want := suggestions[0]

	res, err := svc.Respond(ctx, "sean", "mary", true)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.True(t, res.OK(), res.Summary())

	edge, ok := db.ParentChild[res.EdgeID]
	require.True(t, ok)
	assert.Equal(t, entities.RelationBiological, edge.RelationshipType)
	assert.Equal(t, int(math.Round(want.Confidence)), edge.Confidence)
	assert.False(t, edge.Verified)
	assert.Equal(t, []string{"sean"}, tree.Graph().ParentsOf("mary"))
	assert.Equal(t, []string{entities.AuditEdgeCommitted, entities.AuditSuggestionAccepted}, db.Actions())

	after, err := svc.GetSuggestions(ctx, 0, 0)
	require.NoError(t, err)
	assert.NotContains(t, pairsOf(after), entities.PairID{Parent: "sean", Child: "mary"})

	_, err = svc.Respond(ctx, "sean", "mary", true)
	assert.ErrorIs(t, err, scoring.ErrNotSuggestable)
}

func TestSuggestionService_Reject(t *testing.T) {
	svc, _, db := newSuggestionService(t)
	ctx := context.Background()

	res, err := svc.Respond(ctx, "sean", "mary", false)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.True(t, db.Rejections[entities.PairID{Parent: "sean", Child: "mary"}])
	assert.Empty(t, db.ParentChild)
	assert.Equal(t, []string{entities.AuditSuggestionRejected}, db.Actions())

	got, err := svc.GetSuggestions(ctx, 0, 0)
	require.NoError(t, err)
	assert.NotContains(t, pairsOf(got), entities.PairID{Parent: "sean", Child: "mary"})

	_, err = svc.Respond(ctx, "sean", "mary", true)
	assert.ErrorIs(t, err, scoring.ErrSuggestionRejected)
	_, err = svc.Respond(ctx, "sean", "mary", false)
	assert.ErrorIs(t, err, scoring.ErrSuggestionRejected)

	require.NoError(t, svc.ClearRejection(ctx, "sean", "mary"))
	got, err = svc.GetSuggestions(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, entities.PairID{Parent: "sean", Child: "mary"}, pairsOf(got)[0])

	err = svc.ClearRejection(ctx, "sean", "mary")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSuggestionService_ConcurrentAcceptAndReject(t *testing.T) {
	ctx := context.Background()
	pair := entities.PairID{Parent: "sean", Child: "mary"}

	for range 50 {
		svc, tree, db := newSuggestionService(t)

		var (
			wg       sync.WaitGroup
			errs     [2]error
			start    = make(chan struct{})
			decision = [2]bool{true, false}
		)
		for i, accept := range decision {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, errs[i] = svc.Respond(ctx, pair.Parent, pair.Child, accept)
			}()
		}
		close(start)
		wg.Wait()

		linked := tree.Snapshot().Linked(pair.Parent, pair.Child)
		rejected := db.Rejections[pair]
		require.NotEqual(t, linked, rejected, "pair must end up either accepted or rejected")

		if linked {
			require.NoError(t, errs[0])
			assert.ErrorIs(t, errs[1], scoring.ErrNotSuggestable)
		} else {
			require.NoError(t, errs[1])
			assert.ErrorIs(t, errs[0], scoring.ErrSuggestionRejected)
		}
	}
}

func TestSuggestionService_ClearAllRejections(t *testing.T) {
	svc, _, db := newSuggestionService(t)
	ctx := context.Background()

	for _, child := range []string{"mary", "kate"} {
		_, err := svc.Respond(ctx, "sean", child, false)
		require.NoError(t, err)
	}

	n, err := svc.ClearAllRejections(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, db.Rejections)
	assert.Equal(t, entities.AuditRejectionsCleared, db.Actions()[len(db.Actions())-1])
}

func TestSuggestionService_RespondIneligible(t *testing.T) {
	svc, _, _ := newSuggestionService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		parent string
		child  string
		want   error
	}{
		{name: "unknown person", parent: "ghost", child: "mary", want: graph.ErrPersonNotFound},
		{name: "gap outside band", parent: "sean", child: "zed", want: scoring.ErrNotSuggestable},
		{name: "reversed pair", parent: "mary", child: "sean", want: scoring.ErrNotSuggestable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Respond(ctx, tt.parent, tt.child, true)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

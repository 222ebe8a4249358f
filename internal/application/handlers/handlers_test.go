package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/graph"
	"github.com/ersonp/kin-core/internal/domain/mocks"
	"github.com/ersonp/kin-core/internal/domain/scoring"
	"github.com/ersonp/kin-core/internal/domain/services"
	"github.com/ersonp/kin-core/internal/infrastructure/parsers"
)

type fixture struct {
	db          *mocks.RelationalDB
	tree        *services.FamilyTreeService
	treeH       *TreeHandler
	edges       *EdgeHandler
	suggestions *SuggestionHandler
	people      *PersonHandler
	imports     *ImportHandler
	audit       *AuditHandler
}

func born(id, name string, year int) entities.Person {
	d := time.Date(year, 1, 15, 0, 0, 0, 0, time.UTC)
	return entities.Person{ID: id, DisplayName: name, BirthDate: &d}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := mocks.NewRelationalDB()
	db.AddPeople(
		born("gran", "Nora Walsh", 1900),
		born("mum", "Mary Walsh", 1928),
		born("dad", "Tom Byrne", 1926),
		born("kid", "Ann Byrne", 1955),
	)
	logger := zaptest.NewLogger(t)
	validator := graph.NewValidator(graph.DefaultValidatorConfig())
	tree := services.NewFamilyTreeService(db, validator, nil, logger)
	_, err := tree.Load(context.Background())
	require.NoError(t, err)

	suggestionSvc := services.NewSuggestionService(db, tree, scoring.New(scoring.DefaultConfig(), validator), logger)
	return &fixture{
		db:          db,
		tree:        tree,
		treeH:       NewTreeHandler(tree),
		edges:       NewEdgeHandler(tree),
		suggestions: NewSuggestionHandler(suggestionSvc),
		people:      NewPersonHandler(services.NewPersonService(db)),
		imports:     NewImportHandler(services.NewImportService(db, tree, logger)),
		audit:       NewAuditHandler(services.NewAuditService(db)),
	}
}

func parentChild(parent, child string) ProposeRequest {
	return ProposeRequest{
		Kind:        "parent_child",
		ParentChild: &parsers.RawParentChild{Parent: parent, Child: child},
	}
}

func TestTreeHandler_Handle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, req := range []ProposeRequest{parentChild("gran", "mum"), parentChild("mum", "kid")} {
		res, err := f.edges.HandlePropose(ctx, req)
		require.NoError(t, err)
		require.True(t, res.OK(), res.Summary())
	}
	one := 1

	tests := []struct {
		name    string
		person  string
		opts    TreeOptions
		want    map[string]int
		wantErr error
	}{
		{name: "default view and depth", person: "gran", want: map[string]int{"gran": 0, "mum": 1, "kid": 2}},
		{name: "pedigree", person: "kid", opts: TreeOptions{View: "PEDIGREE"}, want: map[string]int{"kid": 0, "mum": -1, "gran": -2}},
		{name: "explicit depth", person: "gran", opts: TreeOptions{Depth: &one}, want: map[string]int{"gran": 0, "mum": 1}},
		{name: "unknown view", person: "gran", opts: TreeOptions{View: "radial"}, wantErr: ErrInvalidInput},
		{name: "missing person id", person: " ", wantErr: ErrInvalidInput},
		{name: "unknown person", person: "ghost", wantErr: graph.ErrPersonNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := f.treeH.Handle(ctx, tt.person, tt.opts)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, root.Generations())
		})
	}
}

func TestEdgeHandler_HandlePropose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("parent-child defaults", func(t *testing.T) {
		res, err := f.edges.HandlePropose(ctx, ProposeRequest{
			Kind:        "parent-child",
			ParentChild: &parsers.RawParentChild{Parent: "gran", Child: "mum"},
		})
		require.NoError(t, err)
		require.True(t, res.OK())
		edge := f.db.ParentChild[res.EdgeID]
		assert.Equal(t, entities.RelationBiological, edge.RelationshipType)
		assert.Equal(t, 100, edge.Confidence)
	})

	t.Run("partnership defaults", func(t *testing.T) {
		res, err := f.edges.HandlePropose(ctx, ProposeRequest{
			Kind:        "partnership",
			Partnership: &parsers.RawPartnership{PersonA: "mum", PersonB: "dad", StartDate: "1950-06-01"},
		})
		require.NoError(t, err)
		require.True(t, res.OK())
		edge := f.db.Partnerships[res.EdgeID]
		assert.Equal(t, entities.PartnershipPartnered, edge.Kind)
		assert.Equal(t, entities.StatusCurrent, edge.Status)
		require.NotNil(t, edge.StartDate)
		assert.Equal(t, 1950, edge.StartDate.Year())
	})

	t.Run("rejected by validator", func(t *testing.T) {
		res, err := f.edges.HandlePropose(ctx, parentChild("mum", "gran"))
		require.NoError(t, err)
		assert.True(t, res.Has(graph.ErrCycleDetected))
	})

	invalid := []struct {
		name string
		req  ProposeRequest
	}{
		{name: "unknown kind", req: ProposeRequest{Kind: "sibling"}},
		{name: "missing payload", req: ProposeRequest{Kind: "partnership"}},
		{name: "missing child", req: ProposeRequest{Kind: "parent_child", ParentChild: &parsers.RawParentChild{Parent: "gran"}}},
		{name: "bad type", req: ProposeRequest{Kind: "parent_child", ParentChild: &parsers.RawParentChild{Parent: "gran", Child: "kid", RelationshipType: "cousin"}}},
		{name: "bad date", req: ProposeRequest{Kind: "partnership", Partnership: &parsers.RawPartnership{PersonA: "gran", PersonB: "dad", StartDate: "June 1950"}}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.edges.HandlePropose(ctx, tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestEdgeHandler_HandleRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.edges.HandlePropose(ctx, parentChild("gran", "mum"))
	require.NoError(t, err)

	require.NoError(t, f.edges.HandleRemove(ctx, res.EdgeID))
	assert.Empty(t, f.db.ParentChild)

	assert.ErrorIs(t, f.edges.HandleRemove(ctx, res.EdgeID), graph.ErrEdgeNotFound)
	assert.ErrorIs(t, f.edges.HandleRemove(ctx, ""), ErrInvalidInput)
}

func TestSuggestionHandler(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	suggestions, err := f.suggestions.HandleList(ctx, ListOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	top := suggestions[0]

	t.Run("invalid options", func(t *testing.T) {
		_, err := f.suggestions.HandleList(ctx, ListOptions{Limit: -1})
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = f.suggestions.HandleList(ctx, ListOptions{MinConfidence: 101})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("reject then clear", func(t *testing.T) {
		result, err := f.suggestions.HandleRespond(ctx, top.CandidateParent, top.CandidateChild, false)
		require.NoError(t, err)
		assert.Equal(t, "rejected", result.Decision)
		assert.True(t, result.Committed())

		_, err = f.suggestions.HandleRespond(ctx, top.CandidateParent, top.CandidateChild, false)
		assert.ErrorIs(t, err, scoring.ErrSuggestionRejected)

		n, err := f.suggestions.HandleClearRejections(ctx, top.CandidateParent, top.CandidateChild)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("accept", func(t *testing.T) {
		result, err := f.suggestions.HandleRespond(ctx, top.CandidateParent, top.CandidateChild, true)
		require.NoError(t, err)
		assert.Equal(t, "accepted", result.Decision)
		require.NotNil(t, result.Validation)
		assert.True(t, result.Committed())
		assert.Contains(t, f.db.ParentChild, result.Validation.EdgeID)
	})

	t.Run("clear arguments", func(t *testing.T) {
		_, err := f.suggestions.HandleClearRejections(ctx, "gran", "")
		assert.ErrorIs(t, err, ErrInvalidInput)

		n, err := f.suggestions.HandleClearRejections(ctx, "", "")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("missing ids", func(t *testing.T) {
		_, err := f.suggestions.HandleRespond(ctx, "", "kid", true)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestPersonHandler(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.people.HandleGet(ctx, "kid")
	require.NoError(t, err)
	assert.Equal(t, "Ann Byrne", p.DisplayName)

	_, err = f.people.HandleGet(ctx, "ghost")
	assert.ErrorIs(t, err, graph.ErrPersonNotFound)
	_, err = f.people.HandleGet(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	all, err := f.people.HandleList(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	limited, err := f.people.HandleList(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	walshes, err := f.people.HandleList(ctx, "walsh", 0)
	require.NoError(t, err)
	assert.Len(t, walshes, 2)

	_, err = f.people.HandleList(ctx, "", -1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	total, err := f.people.HandleCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestAuditHandler(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.edges.HandlePropose(ctx, parentChild("gran", "mum"))
	require.NoError(t, err)
	second, err := f.edges.HandlePropose(ctx, parentChild("mum", "kid"))
	require.NoError(t, err)
	require.NoError(t, f.edges.HandleRemove(ctx, first.EdgeID))

	t.Run("edge history newest first", func(t *testing.T) {
		entries, err := f.audit.HandleList(ctx, AuditQuery{EdgeID: first.EdgeID})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, entities.AuditEdgeRemoved, entries[0].Action)
		assert.Equal(t, entities.AuditEdgeCommitted, entries[1].Action)
	})

	t.Run("edge history filtered by action", func(t *testing.T) {
		entries, err := f.audit.HandleList(ctx, AuditQuery{EdgeID: first.EdgeID, Action: entities.AuditEdgeCommitted})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "gran", entries[0].Details["parent"])
	})

	t.Run("by action with limit", func(t *testing.T) {
		entries, err := f.audit.HandleList(ctx, AuditQuery{Action: entities.AuditEdgeCommitted, Limit: 1})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, second.EdgeID, entries[0].EdgeID)
	})

	invalid := []struct {
		name string
		q    AuditQuery
	}{
		{name: "no filter", q: AuditQuery{}},
		{name: "unknown action", q: AuditQuery{Action: "edge_renamed"}},
		{name: "negative limit", q: AuditQuery{Action: entities.AuditEdgeRemoved, Limit: -1}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.audit.HandleList(ctx, tt.q)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/ports"
	"github.com/ersonp/kin-core/internal/infrastructure/config"
)

// setupTestRepo creates an in-memory SQLite repository for testing.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	err = repo.EnsureSchema(context.Background())
	require.NoError(t, err)

	return repo
}

func day(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

// seedPeople saves people with the given ids so edges satisfy foreign keys.
func seedPeople(t *testing.T, repo *Repository, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, repo.SavePerson(context.Background(), &entities.Person{ID: id, DisplayName: "Person " + id}))
	}
}

func TestNewRepository(t *testing.T) {
	t.Run("success with memory database", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
		require.NoError(t, err)
		defer repo.Close()
		assert.NotNil(t, repo)
	})

	t.Run("error with empty path", func(t *testing.T) {
		_, err := NewRepository(config.SQLiteConfig{Path: ""})
		require.Error(t, err)
	})
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo := setupTestRepo(t)

	tables := []string{
		"people", "partnerships", "parent_child", "suggestion_rejections",
		"evidence", "household_members", "residences", "audit_log",
	}
	for _, table := range tables {
		var count int
		err := repo.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}

	// Should not error when called again
	require.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestRepository_People(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	ada := &entities.Person{
		DisplayName: "Ada Lovelace",
		Surname:     "Byron",
		BirthDate:   day(1815, 12, 10),
		DeathDate:   day(1852, 11, 27),
		IsDeceased:  true,
		PhotoURL:    "https://example.org/ada.jpg",
	}
	require.NoError(t, repo.SavePerson(ctx, ada))
	require.NotEmpty(t, ada.ID, "id should be generated")
	require.NoError(t, repo.SavePerson(ctx, &entities.Person{ID: "p-2", DisplayName: "Byron"}))

	t.Run("find by id", func(t *testing.T) {
		found, err := repo.FindPersonByID(ctx, ada.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Ada Lovelace", found.DisplayName)
		assert.Equal(t, "Byron", found.Surname)
		require.NotNil(t, found.BirthDate)
		assert.True(t, ada.BirthDate.Equal(*found.BirthDate))
		require.NotNil(t, found.DeathDate)
		assert.True(t, found.IsDeceased)
		assert.Equal(t, ada.PhotoURL, found.PhotoURL)
	})

	t.Run("missing returns nil", func(t *testing.T) {
		found, err := repo.FindPersonByID(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("list is ordered by name", func(t *testing.T) {
		people, err := repo.ListPeople(ctx)
		require.NoError(t, err)
		require.Len(t, people, 2)
		assert.Equal(t, "Ada Lovelace", people[0].DisplayName)
		assert.Nil(t, people[1].BirthDate)
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		people, err := repo.SearchPeople(ctx, "LOVE", 10)
		require.NoError(t, err)
		require.Len(t, people, 1)
		assert.Equal(t, ada.ID, people[0].ID)
	})

	t.Run("upsert updates fields", func(t *testing.T) {
		require.NoError(t, repo.SavePerson(ctx, &entities.Person{ID: "p-2", DisplayName: "George Byron"}))
		found, err := repo.FindPersonByID(ctx, "p-2")
		require.NoError(t, err)
		assert.Equal(t, "George Byron", found.DisplayName)

		count, err := repo.CountPeople(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestRepository_Edges(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	seedPeople(t, repo, "a", "b", "c")
	now := time.Now().UTC()

	partnership := &entities.PartnershipEdge{
		ID:        "e-p",
		PersonA:   "a",
		PersonB:   "b",
		Kind:      entities.PartnershipMarried,
		Status:    entities.StatusDivorced,
		StartDate: day(1950, 6, 1),
		EndDate:   day(1960, 1, 1),
		CreatedAt: now,
	}
	parentChild := &entities.ParentChildEdge{
		ID:               "e-c",
		Parent:           "a",
		Child:            "c",
		RelationshipType: entities.RelationAdopted,
		Verified:         true,
		Confidence:       87,
		CreatedAt:        now,
	}
	require.NoError(t, repo.SavePartnership(ctx, partnership))
	require.NoError(t, repo.SaveParentChild(ctx, parentChild))

	t.Run("list partnerships", func(t *testing.T) {
		edges, err := repo.ListPartnerships(ctx)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		got := edges[0]
		assert.Equal(t, "a", got.PersonA)
		assert.Equal(t, "b", got.PersonB)
		assert.Equal(t, entities.PartnershipMarried, got.Kind)
		assert.Equal(t, entities.StatusDivorced, got.Status)
		require.NotNil(t, got.EndDate)
		assert.True(t, partnership.EndDate.Equal(*got.EndDate))
	})

	t.Run("list parent-child", func(t *testing.T) {
		edges, err := repo.ListParentChild(ctx)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		got := edges[0]
		assert.Equal(t, "a", got.Parent)
		assert.Equal(t, "c", got.Child)
		assert.Equal(t, entities.RelationAdopted, got.RelationshipType)
		assert.True(t, got.Verified)
		assert.Equal(t, 87, got.Confidence)
	})

	t.Run("edges require known people", func(t *testing.T) {
		err := repo.SaveParentChild(ctx, &entities.ParentChildEdge{
			ID: "e-x", Parent: "a", Child: "ghost", RelationshipType: entities.RelationBiological, CreatedAt: now,
		})
		assert.Error(t, err)
	})

	t.Run("delete either kind", func(t *testing.T) {
		require.NoError(t, repo.DeleteEdge(ctx, "e-p"))
		require.NoError(t, repo.DeleteEdge(ctx, "e-c"))

		err := repo.DeleteEdge(ctx, "e-c")
		assert.ErrorIs(t, err, ports.ErrNotFound)

		ps, err := repo.ListPartnerships(ctx)
		require.NoError(t, err)
		assert.Empty(t, ps)
		pcs, err := repo.ListParentChild(ctx)
		require.NoError(t, err)
		assert.Empty(t, pcs)
	})
}

func TestRepository_Rejections(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveRejection(ctx, "p1", "c1"))
	require.NoError(t, repo.SaveRejection(ctx, "p1", "c1"), "duplicate rejection is a no-op")
	require.NoError(t, repo.SaveRejection(ctx, "p2", "c1"))

	pairs, err := repo.ListRejections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.PairID{{Parent: "p1", Child: "c1"}, {Parent: "p2", Child: "c1"}}, pairs)

	require.NoError(t, repo.DeleteRejection(ctx, "p1", "c1"))
	assert.ErrorIs(t, repo.DeleteRejection(ctx, "p1", "c1"), ports.ErrNotFound)

	n, err := repo.ClearRejections(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pairs, err = repo.ListRejections(ctx)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestRepository_Evidence(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	rec := &entities.EvidenceRecord{
		PersonA:     "p1",
		PersonB:     "c1",
		Kind:        entities.EvidenceDocument,
		Strength:    0.9,
		Description: "baptism register",
	}
	require.NoError(t, repo.SaveEvidence(ctx, rec))
	assert.NotEmpty(t, rec.ID)

	records, err := repo.ListEvidence(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entities.EvidenceDocument, records[0].Kind)
	assert.InDelta(t, 0.9, records[0].Strength, 1e-9)
	assert.Equal(t, "baptism register", records[0].Description)

	require.NoError(t, repo.SaveHouseholdMembership(ctx, entities.HouseholdMembership{HouseholdID: "h1", PersonID: "p1"}))
	require.NoError(t, repo.SaveHouseholdMembership(ctx, entities.HouseholdMembership{HouseholdID: "h1", PersonID: "c1"}))
	require.NoError(t, repo.SaveHouseholdMembership(ctx, entities.HouseholdMembership{HouseholdID: "h1", PersonID: "c1"}))
	members, err := repo.ListHouseholdMemberships(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	require.NoError(t, repo.SaveResidence(ctx, entities.Residence{PersonID: "p1", Location: "Cork"}))
	residences, err := repo.ListResidences(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.Residence{{PersonID: "p1", Location: "Cork"}}, residences)
}

func TestRepository_AuditLog(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	t.Run("log action with details", func(t *testing.T) {
		err := repo.LogAction(ctx, entities.AuditEdgeCommitted, "edge-1", map[string]any{
			"kind":   "parent_child",
			"parent": "p1",
		})
		require.NoError(t, err)

		entries, err := repo.FindAuditLog(ctx, "edge-1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, entities.AuditEdgeCommitted, entries[0].Action)
		assert.Equal(t, "edge-1", entries[0].EdgeID)
		assert.Equal(t, "p1", entries[0].Details["parent"])
	})

	t.Run("log action without edge", func(t *testing.T) {
		require.NoError(t, repo.LogAction(ctx, entities.AuditRejectionsCleared, "", nil))
		require.NoError(t, repo.LogAction(ctx, entities.AuditRejectionsCleared, "", map[string]any{"count": 3}))

		entries, err := repo.FindAuditLogByAction(ctx, entities.AuditRejectionsCleared, 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Empty(t, entries[0].EdgeID)
	})

	t.Run("limit applies", func(t *testing.T) {
		entries, err := repo.FindAuditLogByAction(ctx, entities.AuditRejectionsCleared, 1)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestRepository_Path(t *testing.T) {
	repo := setupTestRepo(t)
	assert.Equal(t, ":memory:", repo.Path())
}

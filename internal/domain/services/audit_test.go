package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/mocks"
)

func TestAuditService(t *testing.T) {
	db := mocks.NewRelationalDB()
	ctx := context.Background()
	for range 3 {
		require.NoError(t, db.LogAction(ctx, entities.AuditRejectionsCleared, "", map[string]any{"count": 1}))
	}
	require.NoError(t, db.LogAction(ctx, entities.AuditEdgeRemoved, "e1", nil))
	svc := NewAuditService(db)

	t.Run("by action", func(t *testing.T) {
		entries, err := svc.ByAction(ctx, entities.AuditRejectionsCleared, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 3)

		entries, err = svc.ByAction(ctx, entities.AuditRejectionsCleared, 2)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("edge history", func(t *testing.T) {
		entries, err := svc.EdgeHistory(ctx, "e1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, entities.AuditEdgeRemoved, entries[0].Action)
	})

	t.Run("store failure", func(t *testing.T) {
		db.Err = errors.New("disk gone")
		_, err := svc.EdgeHistory(ctx, "e1")
		assert.ErrorContains(t, err, "disk gone")
	})
}

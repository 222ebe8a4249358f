package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kin-core/internal/domain/graph"
	"github.com/ersonp/kin-core/internal/domain/mocks"
)

func TestPersonService(t *testing.T) {
	db := mocks.NewRelationalDB()
	db.AddPeople(familyPeople()...)
	svc := NewPersonService(db)
	ctx := context.Background()

	t.Run("get", func(t *testing.T) {
		p, err := svc.Get(ctx, "mum")
		require.NoError(t, err)
		assert.Equal(t, "Mary Walsh", p.DisplayName)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := svc.Get(ctx, "ghost")
		assert.ErrorIs(t, err, graph.ErrPersonNotFound)
	})

	t.Run("list", func(t *testing.T) {
		people, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, people, 4)
	})

	t.Run("search", func(t *testing.T) {
		people, err := svc.Search(ctx, "byrne", 0)
		require.NoError(t, err)
		require.Len(t, people, 2)
		assert.Equal(t, "Ann Byrne", people[0].DisplayName)

		people, err = svc.Search(ctx, "byrne", 1)
		require.NoError(t, err)
		assert.Len(t, people, 1)
	})

	t.Run("count", func(t *testing.T) {
		n, err := svc.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("store failure", func(t *testing.T) {
		failing := mocks.NewRelationalDB()
		failing.Err = errors.New("boom")
		_, err := NewPersonService(failing).Get(ctx, "mum")
		assert.ErrorContains(t, err, "boom")
	})
}

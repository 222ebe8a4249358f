package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveGenerations_Chain(t *testing.T) {
	ctx := context.Background()
	snap := chain(t).Snapshot()

	gens, err := ResolveGenerations(ctx, snap, "A", 2, PassBoth)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 0, "B": 1, "C": 2}, gens.Descendants)
	assert.Equal(t, map[string]int{"A": 0}, gens.Ancestors)
	assert.False(t, gens.Truncated)

	gens, err = ResolveGenerations(ctx, snap, "C", 2, PassBoth)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"C": 0, "B": -1, "A": -2}, gens.Ancestors)
}

func TestResolveGenerations_Truncation(t *testing.T) {
	ctx := context.Background()
	snap := chain(t).Snapshot()

	gens, err := ResolveGenerations(ctx, snap, "A", 1, PassBoth)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 0, "B": 1}, gens.Descendants)
	assert.True(t, gens.Truncated)

	gens, err = ResolveGenerations(ctx, snap, "A", 0, PassBoth)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 0}, gens.Descendants)
	assert.True(t, gens.Truncated)
}

func TestResolveGenerations_FirstGenerationKept(t *testing.T) {
	ctx := context.Background()
	// G is reachable as a grandchild (via X) and as a great-grandchild
	// (via Y and Z); the shorter path wins.
	g := New(nil, nil)
	mustAdd(t, g, bio("F", "X"), bio("X", "G"), bio("F", "Y"), bio("Y", "Z"), typed("Z", "G", "step"))

	gens, err := ResolveGenerations(ctx, g.Snapshot(), "F", 5, PassBoth)
	require.NoError(t, err)
	assert.Equal(t, 2, gens.Descendants["G"])
	assert.Equal(t, 2, gens.Descendants["Z"])
}

func TestResolveGenerations_Errors(t *testing.T) {
	ctx := context.Background()
	snap := chain(t).Snapshot()

	_, err := ResolveGenerations(ctx, snap, "A", -1, PassBoth)
	assert.True(t, errors.Is(err, ErrInvalidDepth))

	_, err = ResolveGenerations(ctx, snap, "nobody", 2, PassBoth)
	assert.True(t, errors.Is(err, ErrPersonNotFound))
}

func TestResolveGenerations_SinglePass(t *testing.T) {
	ctx := context.Background()
	snap := chain(t).Snapshot()

	gens, err := ResolveGenerations(ctx, snap, "B", 1, PassAncestors)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"B": 0, "A": -1}, gens.Ancestors)
	assert.Nil(t, gens.Descendants)
	assert.False(t, gens.Truncated)

	gens, err = ResolveGenerations(ctx, snap, "B", 0, PassDescendants)
	require.NoError(t, err)
	assert.Nil(t, gens.Ancestors)
	assert.True(t, gens.Truncated)
}

func TestResolveGenerations_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ResolveGenerations(ctx, chain(t).Snapshot(), "A", 2, PassBoth)
	assert.ErrorIs(t, err, context.Canceled)
}

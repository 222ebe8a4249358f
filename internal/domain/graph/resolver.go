package graph

import (
	"context"
	"fmt"
)

// Pass selects which direction ResolveGenerations walks.
type Pass uint8

const (
	// PassDescendants walks down through children.
	PassDescendants Pass = 1 << iota
	// PassAncestors walks up through parents.
	PassAncestors

	PassBoth = PassDescendants | PassAncestors
)

// Generations holds signed generation numbers relative to a focus person.
type Generations struct {
	Focus string
	// Descendants maps each person reached through children to a
	// generation >= 0. The focus is included at 0. Nil when the
	// descendant pass was not run.
	Descendants map[string]int
	// Ancestors maps each person reached through parents to a
	// generation <= 0. The focus is included at 0. Nil when the
	// ancestor pass was not run.
	Ancestors map[string]int
	// Truncated is set when a branch was cut at maxDepth while further
	// relatives remained.
	Truncated bool

	down, up *traversal
}

// ResolveGenerations numbers everyone within maxDepth of focus in the
// selected directions. Each pass is a breadth-first walk where a person
// keeps the first generation found and is never revisited. Children are
// visited in birth order and parents in relationship precedence, which
// decides who discovers a person reachable along several paths.
func ResolveGenerations(ctx context.Context, snap *Snapshot, focus string, maxDepth int, pass Pass) (*Generations, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, maxDepth)
	}
	if _, ok := snap.Person(focus); !ok {
		return nil, fmt.Errorf("focus %s: %w", focus, ErrPersonNotFound)
	}

	gens := &Generations{Focus: focus}
	if pass&PassDescendants != 0 {
		down, err := walk(ctx, focus, childrenInOrder(snap), maxDepth)
		if err != nil {
			return nil, err
		}
		gens.down = down
		gens.Descendants = make(map[string]int, len(down.dist))
		for id, d := range down.dist {
			gens.Descendants[id] = d
		}
		gens.Truncated = gens.Truncated || down.truncated
	}
	if pass&PassAncestors != 0 {
		up, err := walk(ctx, focus, parentsInOrder(snap), maxDepth)
		if err != nil {
			return nil, err
		}
		gens.up = up
		gens.Ancestors = make(map[string]int, len(up.dist))
		for id, d := range up.dist {
			gens.Ancestors[id] = -d
		}
		gens.Truncated = gens.Truncated || up.truncated
	}
	return gens, nil
}

// childrenInOrder lists children by birth date, display name and id.
func childrenInOrder(snap *Snapshot) func(string) []string {
	return func(id string) []string { return orderPeople(snap, snap.ChildrenOf(id)) }
}

// parentsInOrder lists distinct parents in the order of parentLinks.
func parentsInOrder(snap *Snapshot) func(string) []string {
	return func(id string) []string {
		links := parentLinks(snap, id)
		ids := make([]string, len(links))
		for i, l := range links {
			ids[i] = l.Parent
		}
		return ids
	}
}

// traversal is the result of one breadth-first walk.
type traversal struct {
	dist      map[string]int    // distance from the start
	owner     map[string]string // person that discovered each id
	order     []string          // discovery order
	truncated bool
}

// walk runs a level-by-level BFS from start using next for neighbours.
// Nodes at maxDepth are not expanded; if any of them has an undiscovered
// neighbour the traversal is marked truncated. ctx is checked between
// levels.
func walk(ctx context.Context, start string, next func(string) []string, maxDepth int) (*traversal, error) {
	t := &traversal{
		dist:  map[string]int{start: 0},
		owner: map[string]string{start: ""},
		order: []string{start},
	}
	frontier := []string{start}
	for depth := 0; len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if depth == maxDepth {
			for _, id := range frontier {
				for _, nb := range next(id) {
					if _, seen := t.dist[nb]; !seen {
						t.truncated = true
						return t, nil
					}
				}
			}
			return t, nil
		}
		var nextFrontier []string
		for _, id := range frontier {
			for _, nb := range next(id) {
				if _, seen := t.dist[nb]; seen {
					continue
				}
				t.dist[nb] = depth + 1
				t.owner[nb] = id
				t.order = append(t.order, nb)
				nextFrontier = append(nextFrontier, nb)
			}
		}
		frontier = nextFrontier
	}
	return t, nil
}

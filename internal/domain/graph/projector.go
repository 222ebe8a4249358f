package graph

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

var projectorTracer = otel.Tracer("kin.graph.projector")

// Projection depth caps.
const (
	DefaultMaxDepth    = 25
	DefaultMaxFanDepth = 10

	// FanDepthLimit bounds MaxFanDepth. Fan charts repeat shared ancestors,
	// so a chart holds up to 2^(depth+1)-1 nodes, and sector indices must
	// stay within int.
	FanDepthLimit = 30
)

// ProjectorConfig bounds the depth of every view. Requests above a cap
// are clamped.
type ProjectorConfig struct {
	MaxDepth    int
	MaxFanDepth int
}

// DefaultProjectorConfig returns the default depth caps.
func DefaultProjectorConfig() ProjectorConfig {
	return ProjectorConfig{MaxDepth: DefaultMaxDepth, MaxFanDepth: DefaultMaxFanDepth}
}

// Projector builds tree views from graph snapshots. It holds no graph
// state and is safe for concurrent use.
type Projector struct {
	cfg ProjectorConfig
}

// NewProjector creates a projector. Non-positive caps fall back to
// defaults and MaxFanDepth is held to FanDepthLimit.
func NewProjector(cfg ProjectorConfig) *Projector {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MaxFanDepth <= 0 {
		cfg.MaxFanDepth = DefaultMaxFanDepth
	}
	cfg.MaxFanDepth = min(cfg.MaxFanDepth, FanDepthLimit)
	return &Projector{cfg: cfg}
}

// Config returns the projector's depth caps.
func (p *Projector) Config() ProjectorConfig {
	return p.cfg
}

// Project dispatches to the requested view.
func (p *Projector) Project(ctx context.Context, snap *Snapshot, focus string, view entities.TreeView, maxDepth int) (*entities.TreeNode, error) {
	ctx, span := projectorTracer.Start(ctx, "Projector.Project",
		trace.WithAttributes(
			attribute.String("view", string(view)),
			attribute.String("focus", focus),
			attribute.Int("max_depth", maxDepth),
		),
	)
	defer span.End()

	var (
		root *entities.TreeNode
		err  error
	)
	switch view {
	case entities.ViewDescendant:
		root, err = p.Descendants(ctx, snap, focus, maxDepth)
	case entities.ViewPedigree:
		root, err = p.Pedigree(ctx, snap, focus, maxDepth)
	case entities.ViewFan:
		root, err = p.Fan(ctx, snap, focus, maxDepth)
	default:
		err = fmt.Errorf("%w: %q (valid: descendant, pedigree, fan)", ErrUnknownView, view)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	nodes := 0
	root.Walk(func(*entities.TreeNode) bool { nodes++; return true })
	span.SetAttributes(
		attribute.Int("nodes", nodes),
		attribute.Bool("truncated", root.Truncated),
	)
	return root, nil
}

// Descendants expands focus through children. Every person appears once,
// under whoever reached them first in breadth-first order. Current
// partners of each expanded person are attached as leaf partner nodes
// sharing that person's generation.
func (p *Projector) Descendants(ctx context.Context, snap *Snapshot, focus string, maxDepth int) (*entities.TreeNode, error) {
	depth, err := p.begin(snap, focus, maxDepth, p.cfg.MaxDepth)
	if err != nil {
		return nil, err
	}

	gens, err := ResolveGenerations(ctx, snap, focus, depth, PassDescendants)
	if err != nil {
		return nil, err
	}
	next := childrenInOrder(snap)
	owner := gens.down.owner

	placed := make(map[string]bool, len(gens.Descendants))
	for id := range gens.Descendants {
		placed[id] = true
	}

	var build func(id string, gen int, rel entities.RelationshipType) entities.TreeNode
	build = func(id string, gen int, rel entities.RelationshipType) entities.TreeNode {
		n := entities.NewTreeNode(personOrStub(snap, id), gen)
		n.RelationshipType = rel
		for _, pid := range orderPeople(snap, snap.PartnersOf(id, true)) {
			if placed[pid] {
				continue
			}
			placed[pid] = true
			n.Partners = append(n.Partners, entities.NewTreeNode(personOrStub(snap, pid), gen))
		}
		for _, c := range next(id) {
			if owner[c] == id {
				n.Children = append(n.Children, build(c, gen+1, linkType(snap, id, c)))
			}
		}
		return n
	}

	root := build(focus, 0, "")
	root.Truncated = gens.Truncated
	return &root, nil
}

// Pedigree expands focus through parents. An ancestor reachable along
// several paths is expanded once, at its shallowest discovery; every other
// link to it is a collapsed reference node carrying the same id.
func (p *Projector) Pedigree(ctx context.Context, snap *Snapshot, focus string, maxDepth int) (*entities.TreeNode, error) {
	depth, err := p.begin(snap, focus, maxDepth, p.cfg.MaxDepth)
	if err != nil {
		return nil, err
	}

	gens, err := ResolveGenerations(ctx, snap, focus, depth, PassAncestors)
	if err != nil {
		return nil, err
	}
	owner := gens.up.owner

	var build func(id string, gen int, rel entities.RelationshipType) entities.TreeNode
	build = func(id string, gen int, rel entities.RelationshipType) entities.TreeNode {
		n := entities.NewTreeNode(personOrStub(snap, id), gen)
		n.RelationshipType = rel
		if -gens.Ancestors[id] >= depth {
			return n
		}
		for _, l := range parentLinks(snap, id) {
			if owner[l.Parent] == id {
				n.Parents = append(n.Parents, build(l.Parent, gen-1, l.RelationshipType))
				continue
			}
			ref := entities.NewTreeNode(personOrStub(snap, l.Parent), gen-1)
			ref.RelationshipType = l.RelationshipType
			ref.Collapsed = true
			n.Parents = append(n.Parents, ref)
		}
		return n
	}

	root := build(focus, 0, "")
	root.Truncated = gens.Truncated
	return &root, nil
}

// Fan builds a positional ancestor tree. The focus holds sector 0 and the
// two parent slots of sector i are 2i+1 and 2i+2. Shared ancestors are
// repeated at every position they occupy.
func (p *Projector) Fan(ctx context.Context, snap *Snapshot, focus string, maxDepth int) (*entities.TreeNode, error) {
	depth, err := p.begin(snap, focus, maxDepth, p.cfg.MaxFanDepth)
	if err != nil {
		return nil, err
	}

	truncated := false
	var build func(id string, sector, level int, rel entities.RelationshipType) (entities.TreeNode, error)
	build = func(id string, sector, level int, rel entities.RelationshipType) (entities.TreeNode, error) {
		if err := ctx.Err(); err != nil {
			return entities.TreeNode{}, err
		}
		n := entities.NewTreeNode(personOrStub(snap, id), -level)
		n.RelationshipType = rel
		idx := sector
		n.SectorIndex = &idx

		links := parentLinks(snap, id)
		if len(links) > 2 {
			links = links[:2]
		}
		if level == depth {
			truncated = truncated || len(links) > 0
			return n, nil
		}
		for slot, l := range links {
			parent, err := build(l.Parent, 2*sector+1+slot, level+1, l.RelationshipType)
			if err != nil {
				return entities.TreeNode{}, err
			}
			n.Parents = append(n.Parents, parent)
		}
		return n, nil
	}

	root, err := build(focus, 0, 0, "")
	if err != nil {
		return nil, err
	}
	root.Truncated = truncated
	return &root, nil
}

// begin validates the focus and depth and clamps depth to limit.
func (p *Projector) begin(snap *Snapshot, focus string, maxDepth, limit int) (int, error) {
	if maxDepth < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDepth, maxDepth)
	}
	if _, ok := snap.Person(focus); !ok {
		return 0, fmt.Errorf("focus %s: %w", focus, ErrPersonNotFound)
	}
	if maxDepth > limit {
		maxDepth = limit
	}
	return maxDepth, nil
}

func personOrStub(snap *Snapshot, id string) entities.Person {
	if person, ok := snap.Person(id); ok {
		return person
	}
	return entities.Person{ID: id, DisplayName: id}
}

// linkType returns the highest-precedence relationship type joining
// parent to child.
func linkType(snap *Snapshot, parent, child string) entities.RelationshipType {
	for _, e := range snap.ParentEdges(child) {
		if e.Parent == parent {
			return e.RelationshipType
		}
	}
	return ""
}

// parentLinks returns one edge per distinct parent, keeping the
// highest-precedence type, ordered by type, birth date and id.
func parentLinks(snap *Snapshot, child string) []entities.ParentChildEdge {
	edges := snap.ParentEdges(child)
	seen := make(map[string]bool, len(edges))
	links := make([]entities.ParentChildEdge, 0, len(edges))
	for _, e := range edges {
		if seen[e.Parent] {
			continue
		}
		seen[e.Parent] = true
		links = append(links, e)
	}
	sort.SliceStable(links, func(i, j int) bool {
		a, b := links[i], links[j]
		if ra, rb := a.RelationshipType.Rank(), b.RelationshipType.Rank(); ra != rb {
			return ra < rb
		}
		return personLess(personOrStub(snap, a.Parent), personOrStub(snap, b.Parent))
	})
	return links
}

// orderPeople sorts ids by birth date (unknown last), display name and id.
func orderPeople(snap *Snapshot, ids []string) []string {
	people := make([]entities.Person, len(ids))
	for i, id := range ids {
		people[i] = personOrStub(snap, id)
	}
	sort.SliceStable(people, func(i, j int) bool { return personLess(people[i], people[j]) })
	out := make([]string, len(people))
	for i, person := range people {
		out[i] = person.ID
	}
	return out
}

func personLess(a, b entities.Person) bool {
	switch {
	case a.BirthDate != nil && b.BirthDate == nil:
		return true
	case a.BirthDate == nil && b.BirthDate != nil:
		return false
	case a.BirthDate != nil && !a.BirthDate.Equal(*b.BirthDate):
		return a.BirthDate.Before(*b.BirthDate)
	}
	if a.DisplayName != b.DisplayName {
		return a.DisplayName < b.DisplayName
	}
	return a.ID < b.ID
}

package entities

import "time"

// TreeView selects which projection of the graph to build.
type TreeView string

const (
	ViewDescendant TreeView = "descendant"
	ViewPedigree   TreeView = "pedigree"
	ViewFan        TreeView = "fan"
)

// IsValid reports whether v is a known view.
func (v TreeView) IsValid() bool {
	switch v {
	case ViewDescendant, ViewPedigree, ViewFan:
		return true
	}
	return false
}

// TreeNode is a transient projection node. Field names match the
// front-end FamilyTreeNode contract.
type TreeNode struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	PhotoURL         string           `json:"photoUrl,omitempty"`
	BirthDate        *time.Time       `json:"birthDate,omitempty"`
	DeathDate        *time.Time       `json:"deathDate,omitempty"`
	IsDeceased       bool             `json:"isDeceased"`
	Generation       int              `json:"generation"`
	RelationshipType RelationshipType `json:"relationshipType,omitempty"`
	Collapsed        bool             `json:"collapsed,omitempty"`
	SectorIndex      *int             `json:"sectorIndex,omitempty"`
	Parents          []TreeNode       `json:"parents"`
	Children         []TreeNode       `json:"children"`
	Partners         []TreeNode       `json:"partners"`
	Truncated        bool             `json:"truncated,omitempty"`
}

// NewTreeNode builds a leaf node for a person at the given generation.
func NewTreeNode(p Person, generation int) TreeNode {
	return TreeNode{
		ID:         p.ID,
		Name:       p.DisplayName,
		PhotoURL:   p.PhotoURL,
		BirthDate:  p.BirthDate,
		DeathDate:  p.DeathDate,
		IsDeceased: p.IsDeceased,
		Generation: generation,
		Parents:    []TreeNode{},
		Children:   []TreeNode{},
		Partners:   []TreeNode{},
	}
}

// Walk visits n and every node below it depth-first, parents before
// children before partners. Returning false stops the walk.
func (n *TreeNode) Walk(fn func(*TreeNode) bool) bool {
	if !fn(n) {
		return false
	}
	for i := range n.Parents {
		if !n.Parents[i].Walk(fn) {
			return false
		}
	}
	for i := range n.Children {
		if !n.Children[i].Walk(fn) {
			return false
		}
	}
	for i := range n.Partners {
		if !n.Partners[i].Walk(fn) {
			return false
		}
	}
	return true
}

// Generations returns the generation number of every expanded node by id.
// Collapsed references are skipped.
func (n *TreeNode) Generations() map[string]int {
	out := make(map[string]int)
	n.Walk(func(t *TreeNode) bool {
		if !t.Collapsed {
			if _, seen := out[t.ID]; !seen {
				out[t.ID] = t.Generation
			}
		}
		return true
	})
	return out
}

// Sectors returns the fan-chart sector indices assigned to each person id.
func (n *TreeNode) Sectors() map[string][]int {
	out := make(map[string][]int)
	n.Walk(func(t *TreeNode) bool {
		if t.SectorIndex != nil {
			out[t.ID] = append(out[t.ID], *t.SectorIndex)
		}
		return true
	})
	return out
}

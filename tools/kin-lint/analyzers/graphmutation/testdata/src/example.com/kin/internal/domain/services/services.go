package services

import "example.com/kin/internal/domain/graph"

func commit(g *graph.Graph, id string) error {
	return g.AddParentChild(id)
}

package a

import "example.com/kin/internal/domain/graph"

type cache struct{}

func (cache) RemoveEdge(id string) {}

func handler(g *graph.Graph, c cache) {
	g.AddParentChild("e1") // want "graph.AddParentChild called outside the family tree service"
	g.RemoveEdge("e1")     // want "graph.RemoveEdge called outside the family tree service"
	_ = g.HasEdge("e1")
	c.RemoveEdge("e1")
}

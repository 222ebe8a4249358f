package graph

type Graph struct{ edges map[string]bool }

func (g *Graph) AddParentChild(id string) error { g.edges[id] = true; return nil }

func (g *Graph) RemoveEdge(id string) error { delete(g.edges, id); return nil }

func (g *Graph) HasEdge(id string) bool { return g.edges[id] }

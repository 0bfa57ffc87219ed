// Package graph builds the display subgraph of linked query terms.
package graph

import "github.com/ppiankov/activearchive/internal/model"

// Builder turns token-entity links into a term/concept graph
type Builder struct{}

// NewBuilder creates a graph builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Build creates an entity node per linked term, a concept node per entity
// reference and one edge per distinct pair
func (b *Builder) Build(links model.Links) model.Graph {
	g := model.Graph{Nodes: []model.Node{}, Edges: []model.Edge{}}

	nodes := make(map[[2]string]bool)
	edges := make(map[model.Edge]bool)

	addNode := func(n model.Node) {
		key := [2]string{string(n.Kind), n.ID}
		if nodes[key] {
			return
		}
		nodes[key] = true
		g.Nodes = append(g.Nodes, n)
	}

	for _, link := range links {
		ref := link.Entity.Ref()
		if link.Token == "" || ref == "" {
			continue
		}

		addNode(model.Node{ID: link.Token, Kind: model.NodeEntity, URI: ref})
		addNode(model.Node{ID: ref, Kind: model.NodeConcept})

		e := model.Edge{From: link.Token, To: ref}
		if edges[e] {
			continue
		}
		edges[e] = true
		g.Edges = append(g.Edges, e)
	}

	return g
}

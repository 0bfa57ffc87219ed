package model

// NodeKind tags subgraph nodes
type NodeKind string

const (
	NodeEntity  NodeKind = "entity"  // Query term that linked to the graph
	NodeConcept NodeKind = "concept" // External concept reference
)

// Node is a subgraph vertex
type Node struct {
	ID   string   `json:"id"`
	Kind NodeKind `json:"kind"`
	URI  string   `json:"uri,omitempty"` // Set on entity nodes
}

// Edge is an undirected subgraph edge
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the display-only term/concept subgraph
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

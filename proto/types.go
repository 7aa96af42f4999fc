// Package proto provides the JSON wire schema for rule dependency graphs.
package proto

import (
	"clara-graph/graph"
)

// GraphPayload is the serialized form of a graph.
type GraphPayload struct {
	Nodes []NodePayload `json:"nodes"`
	Edges []EdgePayload `json:"edges"`
	Stats StatsPayload  `json:"stats"`
}

// NodePayload is one node key. Bodies holds every entry of the slot: one in
// the common case, several for keys merged under the accumulate policy and
// none for a dangling traversal start.
type NodePayload struct {
	ID string `json:"id"`

	// Kind and Label describe the first body.
	Kind  string `json:"kind,omitempty"`
	Label string `json:"label,omitempty"`

	Bodies []graph.Node `json:"bodies"`
}

// EdgePayload is one edge key.
type EdgePayload struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Kind   string       `json:"kind,omitempty"`
	Bodies []graph.Edge `json:"bodies"`
}

// StatsPayload summarizes a graph.
type StatsPayload struct {
	Nodes       int            `json:"nodes"`
	Edges       int            `json:"edges"`
	NodesByKind map[string]int `json:"nodesByKind,omitempty"`
	EdgesByKind map[string]int `json:"edgesByKind,omitempty"`
}

// FromGraph converts g to its wire form, with nodes and edges sorted by key.
func FromGraph(g *graph.Graph) GraphPayload {
	out := GraphPayload{
		Nodes: make([]NodePayload, 0, len(g.Nodes)),
		Edges: make([]EdgePayload, 0, len(g.Edges)),
		Stats: StatsPayload{
			Nodes:       len(g.Nodes),
			Edges:       len(g.Edges),
			NodesByKind: make(map[string]int),
			EdgesByKind: make(map[string]int),
		},
	}

	for _, id := range g.NodeIDs() {
		np := NodePayload{ID: id, Bodies: nonNil(g.Nodes[id])}
		if n, ok := g.Node(id); ok {
			np.Kind = string(n.Kind)
			np.Label = n.DisplayName
			out.Stats.NodesByKind[np.Kind]++
		}
		out.Nodes = append(out.Nodes, np)
	}

	for _, key := range g.EdgeKeys() {
		ep := EdgePayload{From: key.From, To: key.To, Bodies: nonNil(g.Edges[key])}
		if e, ok := g.Edge(key.From, key.To); ok {
			ep.Kind = string(e.Kind)
			out.Stats.EdgesByKind[ep.Kind]++
		}
		out.Edges = append(out.Edges, ep)
	}
	return out
}

func nonNil[T any](slot []T) []T {
	if slot == nil {
		return []T{}
	}
	return slot
}

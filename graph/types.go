// Package graph provides the rule dependency graph: typed nodes and edges,
// policy-driven merging, reachability traversal and fact-based filtering.
package graph

import (
	"errors"
	"sort"
)

// NodeKind represents the type of a node. The set below is the full set the
// builder emits; consumers should treat unknown kinds as opaque.
type NodeKind string

const (
	KindFact                 NodeKind = "fact"
	KindFactCondition        NodeKind = "fact-condition"
	KindAnd                  NodeKind = "and"
	KindOr                   NodeKind = "or"
	KindNot                  NodeKind = "not"
	KindAccumulatorCondition NodeKind = "accumulator-condition"
	KindProduction           NodeKind = "production"
	KindRHS                  NodeKind = "rhs"
)

// EdgeKind represents the type of relationship between nodes.
type EdgeKind string

const (
	EdgeComponentOf EdgeKind = "component-of" // child condition -> combinator
	EdgeInserts     EdgeKind = "inserts"      // production -> fact
	EdgeThen        EdgeKind = "then"         // condition root -> production
	EdgeUsedIn      EdgeKind = "used-in"      // fact -> fact-condition
)

// ErrNodeNotFound is returned by LookupNode for ids with no node body.
var ErrNodeNotFound = errors.New("node not found")

// Node represents a vertex in the graph.
type Node struct {
	ID          string      `json:"id"`
	Kind        NodeKind    `json:"kind"`
	Value       interface{} `json:"value,omitempty"`
	DisplayName string      `json:"displayName,omitempty"`
}

// Edge represents a directed relation between two node ids.
type Edge struct {
	From  string      `json:"from"`
	To    string      `json:"to"`
	Kind  EdgeKind    `json:"kind"`
	Value interface{} `json:"value,omitempty"`
}

// EdgeKey is the ordered (from, to) pair an edge is stored under.
type EdgeKey struct {
	From string
	To   string
}

// Graph maps node ids and edge keys to slots. A slot normally holds one
// entry; it holds several when merging with the Accumulate policy met the
// same key more than once, and none for a traversal start id that had no
// node.
type Graph struct {
	Nodes map[string][]Node
	Edges map[EdgeKey][]Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		Nodes: make(map[string][]Node),
		Edges: make(map[EdgeKey][]Edge),
	}
}

// AddNode appends n to the slot for n.ID.
func (g *Graph) AddNode(n Node) {
	g.Nodes[n.ID] = append(g.Nodes[n.ID], n)
}

// AddEdge appends an edge of the given kind from one id to another.
func (g *Graph) AddEdge(from, to string, kind EdgeKind) {
	key := EdgeKey{From: from, To: to}
	g.Edges[key] = append(g.Edges[key], Edge{From: from, To: to, Kind: kind})
}

// Node returns the first entry stored for id.
func (g *Graph) Node(id string) (Node, bool) {
	slot := g.Nodes[id]
	if len(slot) == 0 {
		return Node{}, false
	}
	return slot[0], true
}

// Edge returns the first edge stored under (from, to).
func (g *Graph) Edge(from, to string) (Edge, bool) {
	slot := g.Edges[EdgeKey{From: from, To: to}]
	if len(slot) == 0 {
		return Edge{}, false
	}
	return slot[0], true
}

// Has reports whether id is a key of the node map, with or without a body.
func (g *Graph) Has(id string) bool {
	_, ok := g.Nodes[id]
	return ok
}

// Len returns the number of node keys and edge keys.
func (g *Graph) Len() (nodes, edges int) {
	return len(g.Nodes), len(g.Edges)
}

// NodeIDs returns the node keys in sorted order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EdgeKeys returns the edge keys sorted by source, then destination.
func (g *Graph) EdgeKeys() []EdgeKey {
	keys := make([]EdgeKey, 0, len(g.Edges))
	for k := range g.Edges {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

func sortKeys(keys []EdgeKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].From != keys[j].From {
			return keys[i].From < keys[j].From
		}
		return keys[i].To < keys[j].To
	})
}

// LookupNode is Node with a declared not-found error.
func LookupNode(g *Graph, id string) (Node, error) {
	n, ok := g.Node(id)
	if !ok {
		return Node{}, ErrNodeNotFound
	}
	return n, nil
}

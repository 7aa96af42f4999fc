package graph

// Direction selects which side of an edge a traversal steps from.
type Direction int

const (
	// Forward follows edges whose source is the frontier node.
	Forward Direction = iota
	// Backward follows edges whose destination is the frontier node.
	Backward
)

// Traverse collects the subgraph reachable from start in the given
// direction: the start node, every visited edge and both endpoints of each.
// Edges are visited at most once, so cycles and self-loops terminate.
//
// A start id absent from g yields a graph holding only that id, with an
// empty slot.
func Traverse(g *Graph, start string, dir Direction) *Graph {
	out := New()
	out.Nodes[start] = copySlot(g.Nodes[start])

	index := adjacency(g, dir)
	visited := make(map[EdgeKey]bool)
	frontier := []string{start}

	for len(frontier) > 0 {
		current := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		for _, key := range index[current] {
			if visited[key] {
				continue
			}
			visited[key] = true
			out.Edges[key] = copySlot(g.Edges[key])

			next := key.To
			if dir == Backward {
				next = key.From
			}
			if _, seen := out.Nodes[next]; !seen {
				out.Nodes[next] = copySlot(g.Nodes[next])
			}
			frontier = append(frontier, next)
		}
	}
	return out
}

// Ancestors returns everything that leads to id.
func Ancestors(g *Graph, id string) *Graph {
	return Traverse(g, id, Backward)
}

// Descendants returns everything id leads to.
func Descendants(g *Graph, id string) *Graph {
	return Traverse(g, id, Forward)
}

// adjacency indexes edge keys by the endpoint a traversal in dir steps from.
func adjacency(g *Graph, dir Direction) map[string][]EdgeKey {
	index := make(map[string][]EdgeKey)
	for _, key := range g.EdgeKeys() {
		from := key.From
		if dir == Backward {
			from = key.To
		}
		index[from] = append(index[from], key)
	}
	return index
}

func copySlot[T any](slot []T) []T {
	return append([]T(nil), slot...)
}

package graph

// FactPredicate matches a fact node's value, the fully-qualified fact type.
type FactPredicate func(factType string) bool

// FilterByFact returns the merge of the ancestors and descendants of every
// fact node whose type satisfies pred. With no match the result is empty.
func FilterByFact(g *Graph, pred FactPredicate, policy MergePolicy) *Graph {
	var parts []*Graph
	for _, id := range MatchingFacts(g, pred) {
		parts = append(parts, Ancestors(g, id), Descendants(g, id))
	}
	return Merge(policy, parts...)
}

// MatchingFacts returns the ids of fact nodes whose type satisfies pred.
func MatchingFacts(g *Graph, pred FactPredicate) []string {
	var ids []string
	for _, id := range g.NodeIDs() {
		if matchesFact(g.Nodes[id], pred) {
			ids = append(ids, id)
		}
	}
	return ids
}

func matchesFact(slot []Node, pred FactPredicate) bool {
	for _, n := range slot {
		if n.Kind != KindFact {
			continue
		}
		if factType, ok := n.Value.(string); ok && pred(factType) {
			return true
		}
	}
	return false
}

package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, kind NodeKind) Node {
	return Node{ID: id, Kind: kind, Value: id}
}

func fact(name string) Node {
	return Node{ID: "FT-" + name, Kind: KindFact, Value: name}
}

func edgeKeys(g *Graph) []EdgeKey {
	return g.EdgeKeys()
}

func TestGraphAccessors(t *testing.T) {
	g := New()
	g.AddNode(node("a", KindAnd))
	g.AddNode(node("b", KindOr))
	g.AddEdge("b", "a", EdgeComponentOf)

	n, ok := g.Node("a")
	require.True(t, ok)
	assert.Equal(t, KindAnd, n.Kind)

	e, ok := g.Edge("b", "a")
	require.True(t, ok)
	assert.Equal(t, Edge{From: "b", To: "a", Kind: EdgeComponentOf}, e)

	_, ok = g.Edge("a", "b")
	assert.False(t, ok)

	nodes, edges := g.Len()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, edges)
	assert.Equal(t, []string{"a", "b"}, g.NodeIDs())

	_, err := LookupNode(g, "zzz")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestMerge(t *testing.T) {
	left := New()
	left.AddNode(fact("org.example.Order"))
	left.AddNode(node("0-aaa", KindFactCondition))
	left.AddEdge("FT-org.example.Order", "0-aaa", EdgeUsedIn)

	right := New()
	right.AddNode(fact("org.example.Order"))
	right.AddNode(node("0-bbb", KindFactCondition))
	right.AddEdge("FT-org.example.Order", "0-bbb", EdgeUsedIn)

	t.Run("disjoint keys are carried through", func(t *testing.T) {
		merged := Merge(Accumulate, left, right)
		assert.True(t, merged.Has("0-aaa"))
		assert.True(t, merged.Has("0-bbb"))
		assert.Len(t, merged.Nodes["0-aaa"], 1)
		assert.Len(t, merged.Edges, 2)
	})

	t.Run("accumulate appends colliding values", func(t *testing.T) {
		third := New()
		third.AddNode(fact("org.example.Order"))

		merged := Merge(Accumulate, left, right, third)
		slot := merged.Nodes["FT-org.example.Order"]
		require.Len(t, slot, 3)
		for _, n := range slot {
			assert.Equal(t, fact("org.example.Order"), n)
		}
	})

	t.Run("dedup keeps one copy of equal values", func(t *testing.T) {
		merged := Merge(Dedup, left, right, left)
		assert.Len(t, merged.Nodes["FT-org.example.Order"], 1)
		assert.Len(t, merged.Edges[EdgeKey{"FT-org.example.Order", "0-aaa"}], 1)
	})

	t.Run("dedup still keeps distinct values", func(t *testing.T) {
		other := New()
		other.AddNode(Node{ID: "FT-org.example.Order", Kind: KindFact, Value: "org.example.Order", DisplayName: "x"})

		merged := Merge(Dedup, left, other)
		assert.Len(t, merged.Nodes["FT-org.example.Order"], 2)
	})

	t.Run("operands are not modified", func(t *testing.T) {
		_ = Merge(Accumulate, left, right)
		assert.Len(t, left.Nodes["FT-org.example.Order"], 1)
		assert.Len(t, right.Nodes["FT-org.example.Order"], 1)
	})

	t.Run("no graphs", func(t *testing.T) {
		merged := Merge(Accumulate)
		assert.Empty(t, merged.Nodes)
		assert.Empty(t, merged.Edges)

		merged = Merge(Accumulate, nil, left)
		assert.Len(t, merged.Nodes, 2)
	})
}

func TestParseMergePolicy(t *testing.T) {
	p, err := ParseMergePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Accumulate, p)

	p, err = ParseMergePolicy("dedup")
	require.NoError(t, err)
	assert.Equal(t, Dedup, p)
	assert.Equal(t, "dedup", p.String())

	_, err = ParseMergePolicy("overwrite")
	assert.Error(t, err)
}

// chain builds Order -used-in-> c0 -then-> P -inserts-> Shipped, plus an
// unrelated component.
func chain() *Graph {
	g := New()
	g.AddNode(fact("org.example.Order"))
	g.AddNode(node("c0", KindFactCondition))
	g.AddNode(node("P", KindProduction))
	g.AddNode(fact("org.example.Shipped"))
	g.AddNode(fact("org.example.Unrelated"))
	g.AddNode(node("c9", KindFactCondition))
	g.AddEdge("FT-org.example.Order", "c0", EdgeUsedIn)
	g.AddEdge("c0", "P", EdgeThen)
	g.AddEdge("P", "FT-org.example.Shipped", EdgeInserts)
	g.AddEdge("FT-org.example.Unrelated", "c9", EdgeUsedIn)
	return g
}

func TestTraverse(t *testing.T) {
	g := chain()

	t.Run("descendants follow edges forward", func(t *testing.T) {
		d := Descendants(g, "c0")
		assert.Equal(t, []string{"FT-org.example.Shipped", "P", "c0"}, d.NodeIDs())
		assert.Equal(t, []EdgeKey{{"P", "FT-org.example.Shipped"}, {"c0", "P"}}, edgeKeys(d))
	})

	t.Run("ancestors follow edges backward", func(t *testing.T) {
		a := Ancestors(g, "P")
		assert.Equal(t, []string{"FT-org.example.Order", "P", "c0"}, a.NodeIDs())
		assert.Equal(t, []EdgeKey{{"FT-org.example.Order", "c0"}, {"c0", "P"}}, edgeKeys(a))
	})

	t.Run("node bodies are copied from the source graph", func(t *testing.T) {
		d := Descendants(g, "FT-org.example.Order")
		n, ok := d.Node("P")
		require.True(t, ok)
		assert.Equal(t, KindProduction, n.Kind)
	})

	t.Run("leaf start yields only itself", func(t *testing.T) {
		d := Descendants(g, "FT-org.example.Shipped")
		assert.Equal(t, []string{"FT-org.example.Shipped"}, d.NodeIDs())
		assert.Empty(t, d.Edges)
	})

	t.Run("missing start yields a dangling entry", func(t *testing.T) {
		d := Descendants(g, "nope")
		assert.True(t, d.Has("nope"))
		assert.Len(t, d.Nodes, 1)
		assert.Empty(t, d.Nodes["nope"])
		assert.Empty(t, d.Edges)

		_, ok := d.Node("nope")
		assert.False(t, ok)
	})
}

func TestTraverseCycles(t *testing.T) {
	t.Run("two node cycle", func(t *testing.T) {
		g := New()
		g.AddNode(node("A", KindAnd))
		g.AddNode(node("B", KindOr))
		g.AddEdge("A", "B", EdgeComponentOf)
		g.AddEdge("B", "A", EdgeComponentOf)

		d := Descendants(g, "A")
		assert.Equal(t, []EdgeKey{{"A", "B"}, {"B", "A"}}, edgeKeys(d))
		assert.Len(t, d.Edges[EdgeKey{"A", "B"}], 1)
		assert.Len(t, d.Edges[EdgeKey{"B", "A"}], 1)
		assert.Equal(t, []string{"A", "B"}, d.NodeIDs())

		a := Ancestors(g, "A")
		assert.Equal(t, []EdgeKey{{"A", "B"}, {"B", "A"}}, edgeKeys(a))
	})

	t.Run("self loop", func(t *testing.T) {
		g := New()
		g.AddNode(node("A", KindAnd))
		g.AddEdge("A", "A", EdgeComponentOf)

		d := Descendants(g, "A")
		assert.Equal(t, []EdgeKey{{"A", "A"}}, edgeKeys(d))
		assert.Len(t, d.Nodes["A"], 1)
	})

	t.Run("diamond with back edge", func(t *testing.T) {
		g := New()
		for _, id := range []string{"A", "B", "C", "D"} {
			g.AddNode(node(id, KindAnd))
		}
		g.AddEdge("A", "B", EdgeThen)
		g.AddEdge("A", "C", EdgeThen)
		g.AddEdge("B", "D", EdgeThen)
		g.AddEdge("C", "D", EdgeThen)
		g.AddEdge("D", "A", EdgeThen)

		d := Descendants(g, "B")
		assert.Equal(t, []string{"A", "B", "C", "D"}, d.NodeIDs())
		assert.Len(t, d.Edges, 5)
	})
}

func TestFilterByFact(t *testing.T) {
	g := chain()
	contains := func(s string) FactPredicate {
		return func(factType string) bool { return strings.Contains(factType, s) }
	}

	t.Run("condition side", func(t *testing.T) {
		f := FilterByFact(g, contains("Order"), Dedup)
		assert.Equal(t, []string{"FT-org.example.Order", "FT-org.example.Shipped", "P", "c0"}, f.NodeIDs())
		assert.False(t, f.Has("FT-org.example.Unrelated"))
	})

	t.Run("insert side", func(t *testing.T) {
		f := FilterByFact(g, contains("Shipped"), Dedup)
		assert.Equal(t, []string{"FT-org.example.Order", "FT-org.example.Shipped", "P", "c0"}, f.NodeIDs())
	})

	t.Run("several matches are merged", func(t *testing.T) {
		f := FilterByFact(g, contains("org.example"), Dedup)
		assert.Len(t, f.Nodes, 6)
		assert.Len(t, f.Edges, 4)
	})

	t.Run("accumulate keeps the repeated start node", func(t *testing.T) {
		f := FilterByFact(g, contains("Order"), Accumulate)
		assert.Len(t, f.Nodes["FT-org.example.Order"], 2)
	})

	t.Run("no match is the empty graph", func(t *testing.T) {
		f := FilterByFact(g, contains("Invoice"), Accumulate)
		assert.NotNil(t, f.Nodes)
		assert.NotNil(t, f.Edges)
		assert.Empty(t, f.Nodes)
		assert.Empty(t, f.Edges)
	})

	t.Run("only fact nodes are matched", func(t *testing.T) {
		assert.Equal(t, []string{"FT-org.example.Order"}, MatchingFacts(g, contains("Order")))
		assert.Empty(t, MatchingFacts(g, func(s string) bool { return s == "c0" }))
	})
}

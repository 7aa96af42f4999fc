// Package extract builds the rule dependency graph from productions: one
// fragment per condition and per production, merged into a single graph.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clara-graph/cas"
	"clara-graph/graph"
	"clara-graph/ident"
	"clara-graph/rule"
)

// ErrUnknownCondition is returned when a condition has no fragment handler.
// A nil condition also matches rule.ErrNilCondition.
var ErrUnknownCondition = errors.New("unknown condition kind")

// FactTypeNamer maps a fact type reference from a condition to its
// fully-qualified name.
type FactTypeNamer func(factType string) string

// TaggedCondition is the value of a fact-condition node.
type TaggedCondition struct {
	Production string    `json:"production"`
	Condition  rule.Fact `json:"condition"`
}

// Builder turns productions into graph fragments and merges them.
type Builder struct {
	policy    graph.MergePolicy
	namer     FactTypeNamer
	insertOps map[string]bool
	logger    *slog.Logger
	metrics   *Metrics
}

// Option configures a Builder.
type Option func(*Builder)

// WithMergePolicy sets how colliding keys are merged. Default Accumulate.
func WithMergePolicy(p graph.MergePolicy) Option {
	return func(b *Builder) { b.policy = p }
}

// WithFactTypeNamer sets the naming function applied to condition fact types.
func WithFactTypeNamer(n FactTypeNamer) Option {
	return func(b *Builder) {
		if n != nil {
			b.namer = n
		}
	}
}

// WithInsertOps replaces the recognized insert operation names.
func WithInsertOps(ops ...string) Option {
	return func(b *Builder) { b.insertOps = opSet(ops) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics records build metrics.
func WithMetrics(m *Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

// NewBuilder creates a builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		policy:    graph.Accumulate,
		namer:     func(s string) string { return s },
		insertOps: opSet(DefaultInsertOps),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildGraph loads every source and merges the fragments of all their
// productions, in order, into one graph. Any failure aborts the build.
func (b *Builder) BuildGraph(ctx context.Context, sources ...rule.Source) (*graph.Graph, error) {
	start := time.Now()

	g, n, err := b.build(ctx, sources)
	if err != nil {
		b.metrics.observeFailure()
		b.logger.Warn("rule graph build failed", slog.String("error", err.Error()))
		return nil, err
	}

	nodes, edges := g.Len()
	b.metrics.observeBuild(n, nodes, edges, time.Since(start))
	b.logger.Debug("built rule graph",
		slog.Int("sources", len(sources)),
		slog.Int("productions", n),
		slog.Int("nodes", nodes),
		slog.Int("edges", edges),
		slog.String("policy", b.policy.String()),
	)
	return g, nil
}

func (b *Builder) build(ctx context.Context, sources []rule.Source) (*graph.Graph, int, error) {
	productions, err := rule.LoadAll(ctx, sources...)
	if err != nil {
		return nil, 0, err
	}

	fragments := make([]*graph.Graph, 0, len(productions))
	for _, p := range productions {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		frag, err := b.ProductionFragment(p)
		if err != nil {
			return nil, 0, err
		}
		fragments = append(fragments, frag)
	}
	return graph.Merge(b.policy, fragments...), len(productions), nil
}

// ProductionFragment builds the fragment of one production: its condition
// fragments, the production node, the then edge from the condition root and
// an inserts edge to every fact type the right-hand side inserts.
func (b *Builder) ProductionFragment(p rule.Production) (*graph.Graph, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("production %s: %w: %w", p.Name, ErrUnknownCondition, err)
	}

	hash, err := cas.StructuralHash(p)
	if err != nil {
		return nil, fmt.Errorf("hashing production %s: %w", p.Name, err)
	}

	seq := rule.ConditionSequence(p)
	parts := make([]*graph.Graph, 0, len(seq)+1)
	for _, f := range seq {
		frag, err := b.ConditionFragment(f, p.Name, hash)
		if err != nil {
			return nil, fmt.Errorf("production %s: %w", p.Name, err)
		}
		parts = append(parts, frag)
	}

	prodID := ident.ProductionID(hash)
	own := graph.New()
	own.AddNode(graph.Node{
		ID:          prodID,
		Kind:        graph.KindProduction,
		Value:       p,
		DisplayName: p.Name,
	})
	own.AddEdge(ident.ConditionID(seq[0].Position, hash), prodID, graph.EdgeThen)

	for _, factType := range insertions(p.RHS, b.insertOps) {
		fact := factNode(factType)
		own.AddNode(fact)
		own.AddEdge(prodID, fact.ID, graph.EdgeInserts)
	}

	parts = append(parts, own)
	return graph.Merge(b.policy, parts...), nil
}

// ConditionFragment builds the fragment of one flattened condition of the
// production named productionName, whose structural hash is productionHash.
func (b *Builder) ConditionFragment(f rule.Flat, productionName, productionHash string) (*graph.Graph, error) {
	id := ident.ConditionID(f.Position, productionHash)
	frag := graph.New()

	switch c := f.Condition.(type) {
	case rule.Fact:
		fact := factNode(b.namer(c.Type))
		frag.AddNode(graph.Node{
			ID:    id,
			Kind:  graph.KindFactCondition,
			Value: TaggedCondition{Production: productionName, Condition: c},
		})
		frag.AddNode(fact)
		frag.AddEdge(fact.ID, id, graph.EdgeUsedIn)

	case rule.Accumulator:
		// The accumulated condition is not wired into the graph.
		frag.AddNode(graph.Node{ID: id, Kind: graph.KindAccumulatorCondition, Value: c})

	case rule.And:
		combinator(frag, id, graph.KindAnd, c, f.Children, productionHash)
	case rule.Or:
		combinator(frag, id, graph.KindOr, c, f.Children, productionHash)
	case rule.Not:
		combinator(frag, id, graph.KindNot, c, f.Children, productionHash)

	default:
		return nil, fmt.Errorf("%w: %T at position %d", ErrUnknownCondition, f.Condition, f.Position)
	}
	return frag, nil
}

func combinator(frag *graph.Graph, id string, kind graph.NodeKind, c rule.Condition, children []int, productionHash string) {
	frag.AddNode(graph.Node{ID: id, Kind: kind, Value: c})
	for _, pos := range children {
		frag.AddEdge(ident.ConditionID(pos, productionHash), id, graph.EdgeComponentOf)
	}
}

func factNode(factType string) graph.Node {
	return graph.Node{
		ID:          ident.FactID(factType),
		Kind:        graph.KindFact,
		Value:       factType,
		DisplayName: ident.FactSymbol(factType),
	}
}

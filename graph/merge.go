package graph

import (
	"fmt"
	"reflect"
)

// MergePolicy decides what happens when two graphs share a key.
type MergePolicy int

const (
	// Accumulate appends every colliding value to the slot, so a fact node
	// shared by n productions ends up with n entries.
	Accumulate MergePolicy = iota
	// Dedup appends a colliding value only when no equal value is already
	// in the slot.
	Dedup
)

func (p MergePolicy) String() string {
	switch p {
	case Accumulate:
		return "accumulate"
	case Dedup:
		return "dedup"
	default:
		return fmt.Sprintf("MergePolicy(%d)", int(p))
	}
}

// ParseMergePolicy parses "accumulate" or "dedup". The empty string means
// Accumulate.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch s {
	case "", "accumulate":
		return Accumulate, nil
	case "dedup":
		return Dedup, nil
	default:
		return Accumulate, fmt.Errorf("unknown merge policy %q", s)
	}
}

// Merge folds graphs, in order, into a new graph. Keys present in one
// operand are carried through; colliding keys are combined per policy.
// Nil graphs are skipped and the operands are not modified.
func Merge(policy MergePolicy, graphs ...*Graph) *Graph {
	out := New()
	for _, g := range graphs {
		if g == nil {
			continue
		}
		for id, slot := range g.Nodes {
			out.Nodes[id] = mergeSlot(policy, out.Nodes[id], slot)
		}
		for key, slot := range g.Edges {
			out.Edges[key] = mergeSlot(policy, out.Edges[key], slot)
		}
	}
	return out
}

func mergeSlot[T any](policy MergePolicy, existing, incoming []T) []T {
	if existing == nil {
		return append([]T(nil), incoming...)
	}
	for _, v := range incoming {
		if policy == Dedup && containsEqual(existing, v) {
			continue
		}
		existing = append(existing, v)
	}
	return existing
}

func containsEqual[T any](slot []T, v T) bool {
	for _, e := range slot {
		if reflect.DeepEqual(e, v) {
			return true
		}
	}
	return false
}

// Package rule provides the production model consumed by the graph builder:
// productions, their left-hand-side condition trees, right-hand-side
// expressions and the sources that supply them.
package rule

import (
	"encoding/json"
)

// ConditionKind is the tag of a condition variant.
type ConditionKind string

const (
	KindFact        ConditionKind = "fact"
	KindAccumulator ConditionKind = "accumulator"
	KindAnd         ConditionKind = "and"
	KindOr          ConditionKind = "or"
	KindNot         ConditionKind = "not"
)

// Condition is a single test within a production's left-hand side. The set
// of implementations is closed: Fact, Accumulator, And, Or and Not.
type Condition interface {
	Kind() ConditionKind
	condition()
}

// Fact matches facts of a single type.
type Fact struct {
	Type        string   `json:"type"`
	Binding     string   `json:"binding,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

// Accumulator reduces the facts matched by From into a single result.
type Accumulator struct {
	Accumulator string `json:"accumulator"`
	From        Fact   `json:"from"`
	Result      string `json:"result,omitempty"`
}

// And holds when all children hold.
type And struct {
	Children []Condition `json:"children"`
}

// Or holds when any child holds.
type Or struct {
	Children []Condition `json:"children"`
}

// Not holds when its children do not.
type Not struct {
	Children []Condition `json:"children"`
}

func (Fact) Kind() ConditionKind        { return KindFact }
func (Accumulator) Kind() ConditionKind { return KindAccumulator }
func (And) Kind() ConditionKind         { return KindAnd }
func (Or) Kind() ConditionKind          { return KindOr }
func (Not) Kind() ConditionKind         { return KindNot }

func (Fact) condition()        {}
func (Accumulator) condition() {}
func (And) condition()         {}
func (Or) condition()          {}
func (Not) condition()         {}

// Children returns the direct children of a boolean combinator. Leaves and
// nil conditions have none.
func Children(c Condition) []Condition {
	switch v := c.(type) {
	case And:
		return v.Children
	case Or:
		return v.Children
	case Not:
		return v.Children
	default:
		return nil
	}
}

// IsCombinator reports whether c is an and/or/not node.
func IsCombinator(c Condition) bool {
	switch c.(type) {
	case And, Or, Not:
		return true
	default:
		return false
	}
}

// The JSON forms carry the kind tag so that structurally different variants
// never serialize alike.

func (c Fact) MarshalJSON() ([]byte, error) {
	type plain Fact
	return json.Marshal(struct {
		Kind ConditionKind `json:"kind"`
		plain
	}{KindFact, plain(c)})
}

func (c Accumulator) MarshalJSON() ([]byte, error) {
	type plain Accumulator
	return json.Marshal(struct {
		Kind ConditionKind `json:"kind"`
		plain
	}{KindAccumulator, plain(c)})
}

func (c And) MarshalJSON() ([]byte, error) { return marshalCombinator(KindAnd, c.Children) }
func (c Or) MarshalJSON() ([]byte, error)  { return marshalCombinator(KindOr, c.Children) }
func (c Not) MarshalJSON() ([]byte, error) { return marshalCombinator(KindNot, c.Children) }

func marshalCombinator(kind ConditionKind, children []Condition) ([]byte, error) {
	if children == nil {
		children = []Condition{}
	}
	return json.Marshal(struct {
		Kind     ConditionKind `json:"kind"`
		Children []Condition   `json:"children"`
	}{kind, children})
}

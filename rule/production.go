package rule

import (
	"errors"
	"fmt"
)

// ErrNilCondition is returned when a production's left-hand side holds a nil
// condition.
var ErrNilCondition = errors.New("nil condition")

// Production is a rule: a left-hand-side condition tree plus an optional
// right-hand-side action expression.
type Production struct {
	Name string `json:"name"`

	// LHS holds the top-level conditions. A single condition is the tree
	// root; several are implicitly AND-ed.
	LHS []Condition `json:"lhs"`

	RHS  Expr                   `json:"rhs,omitempty"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

// Root returns the root of the production's condition tree, synthesizing an
// And over the top-level conditions unless there is exactly one.
func (p Production) Root() Condition {
	if len(p.LHS) == 1 {
		return p.LHS[0]
	}
	return And{Children: p.LHS}
}

// Validate reports structural problems that would make graph construction
// fail, such as nil conditions anywhere in the tree.
func (p Production) Validate() error {
	for _, f := range ConditionSequence(p) {
		if f.Condition == nil {
			return fmt.Errorf("%w at position %d", ErrNilCondition, f.Position)
		}
	}
	return nil
}

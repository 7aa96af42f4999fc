package extract

import (
	"clara-graph/ident"
	"clara-graph/rule"
)

// DefaultInsertOps are the rule engine operations that insert new facts.
var DefaultInsertOps = []string{
	"clara.rules/insert!",
	"clara.rules/insert-all!",
	"clara.rules/insert-unconditional!",
	"clara.rules/insert-all-unconditional!",
}

// Insertions returns the fact types a right-hand side may insert, in order
// of first appearance and without duplicates. ops names the insert
// operations; nil means DefaultInsertOps. A qualified op also matches its
// bare, referred name; a bare op matches only unqualified calls.
//
// The scan is syntactic: only constructor invocations ("ns/->Type") found
// in the arguments of an insert call are seen.
func Insertions(rhs rule.Expr, ops []string) []string {
	if ops == nil {
		ops = DefaultInsertOps
	}
	return insertions(rhs, opSet(ops))
}

func insertions(rhs rule.Expr, ops map[string]bool) []string {
	var types []string
	seen := make(map[string]bool)

	rule.Walk(rhs, func(e rule.Expr) bool {
		call, ok := e.(rule.Call)
		if !ok || !ops[call.Fn.String()] {
			return true
		}
		for _, arg := range call.Args {
			rule.Walk(arg, func(inner rule.Expr) bool {
				c, ok := inner.(rule.Call)
				if !ok {
					return true
				}
				if factType, ok := ident.ConstructedType(c.Fn); ok && !seen[factType] {
					seen[factType] = true
					types = append(types, factType)
				}
				return true
			})
		}
		return false
	})
	return types
}

func opSet(ops []string) map[string]bool {
	set := make(map[string]bool, 2*len(ops))
	for _, op := range ops {
		sym := rule.ParseSymbol(op)
		set[sym.String()] = true
		set[sym.Name] = true
	}
	return set
}

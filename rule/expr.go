package rule

import (
	"encoding/json"
	"strings"
)

// Expr is a node of a right-hand-side expression tree: a Symbol, a Call, a
// Vector or a Literal.
type Expr interface {
	expr()
}

// Symbol is a possibly namespace-qualified name, written "ns/name".
type Symbol struct {
	Namespace string
	Name      string
}

// Call is an invocation of Fn with Args.
type Call struct {
	Fn   Symbol
	Args []Expr
}

// Vector is a sequence of expressions that is not an invocation.
type Vector struct {
	Items []Expr
}

// Literal is any value that is neither a symbol nor an invocation.
type Literal struct {
	Value interface{}
}

func (Symbol) expr()  {}
func (Call) expr()    {}
func (Vector) expr()  {}
func (Literal) expr() {}

// ParseSymbol splits "ns/name" into its parts. A bare name, or the
// single-character symbol "/", has no namespace.
func ParseSymbol(s string) Symbol {
	if s == "/" {
		return Symbol{Name: s}
	}
	ns, name, ok := strings.Cut(s, "/")
	if !ok || ns == "" || name == "" {
		return Symbol{Name: s}
	}
	return Symbol{Namespace: ns, Name: name}
}

// String renders the symbol as "ns/name", or just the name.
func (s Symbol) String() string {
	if s.Namespace == "" {
		return s.Name
	}
	return s.Namespace + "/" + s.Name
}

// NewCall builds an invocation of the symbol named fn.
func NewCall(fn string, args ...Expr) Call {
	return Call{Fn: ParseSymbol(fn), Args: args}
}

func (s Symbol) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// A call serializes as [fn, args...], mirroring how it is written in rule files.
func (c Call) MarshalJSON() ([]byte, error) {
	form := make([]interface{}, 0, len(c.Args)+1)
	form = append(form, c.Fn)
	for _, a := range c.Args {
		form = append(form, a)
	}
	return json.Marshal(form)
}

func (v Vector) MarshalJSON() ([]byte, error) {
	items := v.Items
	if items == nil {
		items = []Expr{}
	}
	return json.Marshal(items)
}

func (l Literal) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Value)
}

// Walk visits e and every expression beneath it in pre-order. Returning
// false from fn skips the children of that node.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch v := e.(type) {
	case Call:
		for _, a := range v.Args {
			Walk(a, fn)
		}
	case Vector:
		for _, item := range v.Items {
			Walk(item, fn)
		}
	}
}

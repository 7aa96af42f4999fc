// Package rulefile loads productions from YAML rule files.
package rulefile

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"clara-graph/rule"
)

// ErrUnknownCondition is returned for a condition mapping with no
// recognized kind key.
var ErrUnknownCondition = errors.New("unknown condition")

// ErrMixedCondition is returned for a condition mapping that combines keys
// of more than one condition kind.
var ErrMixedCondition = errors.New("mixed condition kinds")

type document struct {
	Rules []ruleDoc `yaml:"rules"`
}

type ruleDoc struct {
	Name string                 `yaml:"name"`
	LHS  yaml.Node              `yaml:"lhs"`
	RHS  yaml.Node              `yaml:"rhs"`
	Meta map[string]interface{} `yaml:"meta"`
}

// Parse decodes the productions of a rule file.
func Parse(data []byte) ([]rule.Production, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rule file: %w", err)
	}

	productions := make([]rule.Production, 0, len(doc.Rules))
	for i, rd := range doc.Rules {
		if rd.Name == "" {
			return nil, fmt.Errorf("rule %d: missing name", i)
		}
		lhs, err := decodeLHS(&rd.LHS)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rd.Name, err)
		}
		rhs, err := decodeExpr(&rd.RHS)
		if err != nil {
			return nil, fmt.Errorf("rule %s: rhs: %w", rd.Name, err)
		}
		productions = append(productions, rule.Production{
			Name: rd.Name,
			LHS:  lhs,
			RHS:  rhs,
			Meta: normalizeMeta(rd.Meta),
		})
	}
	return productions, nil
}

// A mapping is a single condition; a sequence is implicitly AND-ed.
func decodeLHS(n *yaml.Node) ([]rule.Condition, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.MappingNode:
		c, err := decodeCondition(n)
		if err != nil {
			return nil, err
		}
		return []rule.Condition{c}, nil
	case yaml.SequenceNode:
		return decodeConditions(n)
	default:
		return nil, fmt.Errorf("line %d: lhs must be a mapping or a sequence", n.Line)
	}
}

func decodeConditions(n *yaml.Node) ([]rule.Condition, error) {
	conds := make([]rule.Condition, 0, len(n.Content))
	for _, item := range n.Content {
		c, err := decodeCondition(item)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

func decodeCondition(n *yaml.Node) (rule.Condition, error) {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: condition must be a mapping", n.Line)
	}

	var kind string
	var kindVal *yaml.Node
	var fact rule.Fact
	var factOnly *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], resolve(n.Content[i+1])
		switch key.Value {
		case "fact", "accumulate", "and", "or", "not":
			if kind != "" {
				return nil, fmt.Errorf("line %d: %w: both %s and %s", key.Line, ErrMixedCondition, kind, key.Value)
			}
			kind, kindVal = key.Value, val
		case "binding":
			fact.Binding = val.Value
			factOnly = key
		case "constraints":
			if err := val.Decode(&fact.Constraints); err != nil {
				return nil, fmt.Errorf("line %d: constraints: %w", val.Line, err)
			}
			factOnly = key
		default:
			return nil, fmt.Errorf("line %d: %w key %q", key.Line, ErrUnknownCondition, key.Value)
		}
	}

	if factOnly != nil && kind != "" && kind != "fact" {
		return nil, fmt.Errorf("line %d: %w: %s only applies to fact conditions", factOnly.Line, ErrMixedCondition, factOnly.Value)
	}

	switch kind {
	case "fact":
		if kindVal.Value == "" {
			return nil, fmt.Errorf("line %d: %w: empty fact type", kindVal.Line, ErrUnknownCondition)
		}
		fact.Type = kindVal.Value
		return fact, nil
	case "accumulate":
		return decodeAccumulator(kindVal)
	case "and":
		children, err := decodeChildren(kindVal)
		return rule.And{Children: children}, err
	case "or":
		children, err := decodeChildren(kindVal)
		return rule.Or{Children: children}, err
	case "not":
		children, err := decodeChildren(kindVal)
		return rule.Not{Children: children}, err
	default:
		return nil, fmt.Errorf("line %d: %w: missing kind", n.Line, ErrUnknownCondition)
	}
}

// Combinator children are a sequence, or a single condition mapping.
func decodeChildren(n *yaml.Node) ([]rule.Condition, error) {
	if n.Kind == yaml.SequenceNode {
		return decodeConditions(n)
	}
	c, err := decodeCondition(n)
	if err != nil {
		return nil, err
	}
	return []rule.Condition{c}, nil
}

func decodeAccumulator(n *yaml.Node) (rule.Condition, error) {
	var doc struct {
		Accumulator string    `yaml:"accumulator"`
		From        yaml.Node `yaml:"from"`
		Result      string    `yaml:"result"`
	}
	if err := n.Decode(&doc); err != nil {
		return nil, fmt.Errorf("line %d: accumulate: %w", n.Line, err)
	}

	from, err := decodeCondition(&doc.From)
	if err != nil {
		return nil, fmt.Errorf("accumulate from: %w", err)
	}
	fact, ok := from.(rule.Fact)
	if !ok {
		return nil, fmt.Errorf("line %d: accumulate must draw from a fact condition", doc.From.Line)
	}
	return rule.Accumulator{Accumulator: doc.Accumulator, From: fact, Result: doc.Result}, nil
}

// decodeExpr reads a right-hand side: a sequence headed by a string is an
// invocation, any other sequence a vector, anything else a literal.
func decodeExpr(n *yaml.Node) (rule.Expr, error) {
	n = resolve(n)
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		items := make([]rule.Expr, 0, len(n.Content))
		for _, c := range n.Content {
			e, err := decodeExpr(c)
			if err != nil {
				return nil, err
			}
			items = append(items, e)
		}
		if head := n.Content; len(head) > 0 && head[0].Kind == yaml.ScalarNode && head[0].Tag == "!!str" {
			return rule.Call{Fn: rule.ParseSymbol(head[0].Value), Args: items[1:]}, nil
		}
		return rule.Vector{Items: items}, nil
	default:
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return rule.Literal{Value: normalize(v)}, nil
	}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// normalize rewrites decoded YAML values into shapes encoding/json accepts:
// mapping keys become strings and non-finite floats become their YAML text.
func normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]interface{}:
		return normalizeMeta(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = normalize(val)
		}
		return out
	case float64:
		switch {
		case math.IsNaN(v):
			return ".nan"
		case math.IsInf(v, 1):
			return ".inf"
		case math.IsInf(v, -1):
			return "-.inf"
		}
		return v
	default:
		return v
	}
}

func normalizeMeta(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

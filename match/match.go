// Package match provides fact type predicates for graph filtering:
// substring, regular expression, glob and named groups of globs.
package match

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"clara-graph/graph"
)

// ErrUnknownGroup is returned when a predicate is requested for a group
// that is not defined.
var ErrUnknownGroup = errors.New("unknown fact group")

// Mode selects how a pattern is interpreted.
type Mode string

const (
	ModeSubstring Mode = "substring"
	ModeRegexp    Mode = "regexp"
	ModeGlob      Mode = "glob"
	ModeGroup     Mode = "group"
)

// Substring matches fact types containing s.
func Substring(s string) graph.FactPredicate {
	return func(factType string) bool {
		return strings.Contains(factType, s)
	}
}

// Regexp matches fact types against a regular expression.
func Regexp(expr string) (graph.FactPredicate, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling fact pattern: %w", err)
	}
	return re.MatchString, nil
}

// Glob matches fact types against a glob where dots separate segments:
// "org.example.*" matches direct members of org.example and
// "org.**.Order" matches Order in any package under org.
func Glob(pattern string) (graph.FactPredicate, error) {
	p := toPath(pattern)
	if !doublestar.ValidatePattern(p) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}
	return func(factType string) bool {
		ok, err := doublestar.Match(p, toPath(factType))
		return err == nil && ok
	}, nil
}

func toPath(dotted string) string {
	return strings.ReplaceAll(dotted, ".", "/")
}

// Group is a named set of glob patterns.
type Group struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// GroupsConfig holds the fact groups configuration.
type GroupsConfig struct {
	Groups []Group `yaml:"groups"`
}

// Groups resolves fact types to named groups.
type Groups struct {
	groups []Group
}

// NewGroups creates a matcher from a list of groups.
func NewGroups(groups []Group) *Groups {
	return &Groups{groups: groups}
}

// LoadGroups loads fact groups from a YAML file.
func LoadGroups(path string) (*Groups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fact groups file: %w", err)
	}

	var config GroupsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing fact groups file: %w", err)
	}
	return NewGroups(config.Groups), nil
}

// Merge returns a matcher holding g's groups followed by other's. A name
// defined in both resolves to g's definition.
func (g *Groups) Merge(other *Groups) *Groups {
	merged := append([]Group(nil), g.groups...)
	if other != nil {
		merged = append(merged, other.groups...)
	}
	return NewGroups(merged)
}

// GroupsOf returns the names of the groups factType belongs to.
func (g *Groups) GroupsOf(factType string) []string {
	var matched []string
	for _, grp := range g.groups {
		for _, pattern := range grp.Patterns {
			ok, err := doublestar.Match(toPath(pattern), toPath(factType))
			if err != nil {
				continue
			}
			if ok {
				matched = append(matched, grp.Name)
				break
			}
		}
	}
	return matched
}

// Names returns the group names in definition order.
func (g *Groups) Names() []string {
	names := make([]string, len(g.groups))
	for i, grp := range g.groups {
		names[i] = grp.Name
	}
	return names
}

// Predicate matches fact types belonging to the named group.
func (g *Groups) Predicate(name string) (graph.FactPredicate, error) {
	for _, grp := range g.groups {
		if grp.Name != name {
			continue
		}
		preds := make([]graph.FactPredicate, 0, len(grp.Patterns))
		for _, pattern := range grp.Patterns {
			p, err := Glob(pattern)
			if err != nil {
				return nil, fmt.Errorf("group %s: %w", name, err)
			}
			preds = append(preds, p)
		}
		return Any(preds...), nil
	}
	return nil, fmt.Errorf("%w: %s (defined: %s)", ErrUnknownGroup, name, strings.Join(g.Names(), ", "))
}

// Any matches when at least one predicate does.
func Any(preds ...graph.FactPredicate) graph.FactPredicate {
	return func(factType string) bool {
		for _, p := range preds {
			if p(factType) {
				return true
			}
		}
		return false
	}
}

// Predicate builds a predicate for pattern under mode. groups is consulted
// only for ModeGroup and may otherwise be nil.
func Predicate(mode Mode, pattern string, groups *Groups) (graph.FactPredicate, error) {
	switch mode {
	case ModeSubstring, "":
		return Substring(pattern), nil
	case ModeRegexp:
		return Regexp(pattern)
	case ModeGlob:
		return Glob(pattern)
	case ModeGroup:
		if groups == nil {
			return nil, fmt.Errorf("%w: %s (no groups configured)", ErrUnknownGroup, pattern)
		}
		return groups.Predicate(pattern)
	default:
		return nil, fmt.Errorf("unknown match mode %q", mode)
	}
}

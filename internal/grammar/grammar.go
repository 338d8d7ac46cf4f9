package grammar

import (
	"fmt"
	"sort"

	"github.com/k0kubun/rqg/internal/rqgerrors"
)

// Grammar is a named collection of rules. Rules are stored by name in
// a map, never by owning pointer, so cycles are intrinsic and the
// grammar serializes cleanly (design note §9).
type Grammar struct {
	Name  string
	Rules map[string]Element
}

// New builds an empty, named Grammar.
func New(name string) *Grammar {
	return &Grammar{Name: name, Rules: make(map[string]Element)}
}

// AddRule binds name to element, overwriting any prior binding.
func (g *Grammar) AddRule(name string, element Element) {
	g.Rules[name] = element
}

// Rule looks up a rule by name.
func (g *Grammar) Rule(name string) (Element, bool) {
	e, ok := g.Rules[name]
	return e, ok
}

// Validate checks every reference resolves and every choice's weights
// are well-formed, per spec.md §3 invariants. It does not check
// template holes, since those are scoped to a single Template
// literal and are checked during expansion (UnboundHole is a runtime
// condition on the specific template instance).
func (g *Grammar) Validate() error {
	for name, el := range g.Rules {
		if err := g.validateElement(name, el); err != nil {
			return err
		}
	}
	return nil
}

func (g *Grammar) validateElement(owner string, el Element) error {
	switch e := el.(type) {
	case Literal:
		return nil
	case Ref:
		if _, ok := g.Rules[e.Name]; !ok {
			return rqgerrors.NewUndefinedRule(e.Name)
		}
		return nil
	case Template:
		for _, hole := range e.Holes {
			if err := g.validateElement(owner, hole); err != nil {
				return err
			}
		}
		return nil
	case Choice:
		if len(e.Weights) > 0 {
			if len(e.Weights) != len(e.Children) {
				return rqgerrors.NewInvalidChoiceWeights(owner, "weights length must match children length")
			}
			var sum float64
			for _, w := range e.Weights {
				if w < 0 {
					return rqgerrors.NewInvalidChoiceWeights(owner, "weights must be non-negative")
				}
				sum += w
			}
			if sum == 0 {
				return rqgerrors.NewInvalidChoiceWeights(owner, "weights must not all be zero")
			}
		}
		for _, c := range e.Children {
			if err := g.validateElement(owner, c); err != nil {
				return err
			}
		}
		return nil
	case Maybe:
		return g.validateElement(owner, e.Child)
	case Repeat:
		if e.Min < 0 || e.Max < e.Min {
			return rqgerrors.NewInvalidChoiceWeights(owner, "repeat bounds must satisfy 0 <= min <= max")
		}
		return g.validateElement(owner, e.Child)
	case NumberRange:
		return nil
	case Lambda:
		return nil
	case SchemaPrimitive:
		return nil
	default:
		return fmt.Errorf("grammar: unknown element kind %T in rule %q", el, owner)
	}
}

// Merge combines g with other, returning a new Grammar. On name
// collisions, other's rule is kept under a suffixed name (_2, _3, …)
// per spec.md §6 "Grammar file contract" plugin-merge rule.
func (g *Grammar) Merge(other *Grammar) *Grammar {
	merged := New(g.Name)
	for name, el := range g.Rules {
		merged.Rules[name] = el
	}

	names := make([]string, 0, len(other.Rules))
	for name := range other.Rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		el := other.Rules[name]
		target := name
		suffix := 2
		for {
			if _, exists := merged.Rules[target]; !exists {
				break
			}
			target = fmt.Sprintf("%s_%d", name, suffix)
			suffix++
		}
		merged.Rules[target] = el
	}
	return merged
}

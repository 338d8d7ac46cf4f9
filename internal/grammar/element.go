// Package grammar implements the Grammar Engine (spec M1): a rule
// graph of explicit tagged-sum elements, expanded with weighted
// choice, templating, reference resolution, and randomized
// repetition.
//
// Elements are an exhaustive tagged sum implemented as an interface
// with an unexported marker method and one concrete struct per kind,
// per design note §9 ("Reflection / dynamic typing") — never open
// polymorphism.
package grammar

// Element is one syntactic node in a grammar rule's expansion tree.
type Element interface {
	isElement()
}

// Literal emits fixed text.
type Literal struct {
	Text string
}

func (Literal) isElement() {}

// Template evaluates named holes by expanding their bound elements
// and substituting the results literally into Text, where holes are
// written as {name}.
type Template struct {
	Text  string
	Holes map[string]Element
}

func (Template) isElement() {}

// Ref names another rule in the same Grammar by name, never by
// owning pointer, so grammars serialize cleanly and cycles are
// intrinsic (design note §9 "Cyclic references among rules").
type Ref struct {
	Name string
}

func (Ref) isElement() {}

// Choice samples one of Children by Weights (uniform if Weights is
// nil), then expands the sampled child.
type Choice struct {
	Children []Element
	Weights  []float64
}

func (Choice) isElement() {}

// Maybe expands Child with probability P, else emits empty.
type Maybe struct {
	Child Element
	P     float64
}

func (Maybe) isElement() {}

// Repeat samples k uniformly in [Min, Max], expands Child k times,
// and joins the results with Sep.
type Repeat struct {
	Child Element
	Min   int
	Max   int
	Sep   string
}

func (Repeat) isElement() {}

// NumberRange emits the decimal form of a uniform integer in [Lo, Hi].
type NumberRange struct {
	Lo, Hi int64
}

func (NumberRange) isElement() {}

// Lambda is the host-callable variant: a function pointer plus
// whatever context it closes over, treated as a first-class element
// per design note §9.
type Lambda struct {
	Fn func(ctx *ExpansionContext) (string, error)
}

func (Lambda) isElement() {}

// SchemaPrimitive produces a complete DDL bundle, per spec.md §4.1.
type SchemaPrimitive struct {
	NumTables           int
	NumFunctions        int
	NumViews            int
	Profile             string
	FKRatio             float64
	IndexRatio          float64
	CompositeIndexRatio float64
	PartialIndexRatio   float64
}

func (SchemaPrimitive) isElement() {}

// Lit is a convenience constructor for Literal.
func Lit(s string) Element { return Literal{Text: s} }

// RefTo is a convenience constructor for Ref.
func RefTo(name string) Element { return Ref{Name: name} }

// UniformChoice builds a Choice with nil (uniform) weights.
func UniformChoice(children ...Element) Element {
	return Choice{Children: children}
}

// WeightedChoice builds a Choice with explicit weights.
func WeightedChoice(weights []float64, children ...Element) Element {
	return Choice{Children: children, Weights: weights}
}

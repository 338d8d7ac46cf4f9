package grammar

import (
	"strconv"
	"strings"

	"github.com/k0kubun/rqg/internal/entropy"
	"github.com/k0kubun/rqg/internal/rqgerrors"
)

// MaxLength is the absolute cap on one expansion's output length, per
// spec.md §4.1.
const MaxLength = 10000

// MaxDepth is the absolute cap on recursion depth, per spec.md §4.1.
const MaxDepth = 64

// Engine owns the entropy manager used while expanding grammars,
// replacing module-level state with an explicit value per design note
// §9.
type Engine struct {
	Entropy *entropy.Manager
}

// NewEngine builds an Engine around the given entropy manager.
func NewEngine(mgr *entropy.Manager) *Engine {
	return &Engine{Entropy: mgr}
}

// Generate produces one expansion of ruleName in g. If seed is
// non-nil, the expansion is deterministic for that seed.
func (eng *Engine) Generate(g *Grammar, ruleName string, seed *int64) (string, error) {
	workerID := "generate"
	if seed != nil {
		workerID = "generate-seeded"
	}
	h := eng.Entropy.Handle(workerID)
	if seed != nil {
		// A fresh, seed-derived handle for this single expansion so
		// repeated calls with the same seed are reproducible
		// regardless of prior expansions (spec.md §4.1 contract).
		h = entropy.NewManager(*seed, true).Handle(ruleName)
	}
	ctx := &ExpansionContext{Handle: h, Seed: seed, Grammar: g}
	return expandRule(ctx, ruleName)
}

// GenerateBatch produces count expansions of ruleName. When seed is
// non-nil, the result is deterministic and reproducible regardless of
// prior expansions (spec.md §4.1, §8 property 1): each element of the
// batch derives its own sub-seed from (seed, index) so the batch
// itself doesn't depend on shared mutable RNG state across calls.
func (eng *Engine) GenerateBatch(g *Grammar, ruleName string, count int, seed *int64) ([]string, error) {
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		var itemSeed *int64
		if seed != nil {
			s := *seed*1_000_003 + int64(i)
			itemSeed = &s
		}
		var h *entropy.Handle
		if itemSeed != nil {
			h = entropy.NewManager(*itemSeed, true).Handle(ruleName)
		} else {
			h = eng.Entropy.Handle("generate-batch")
		}
		ctx := &ExpansionContext{Handle: h, Seed: itemSeed, Grammar: g}
		s, err := expandRule(ctx, ruleName)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func expandRule(ctx *ExpansionContext, name string) (string, error) {
	el, ok := ctx.Grammar.Rule(name)
	if !ok {
		return "", rqgerrors.NewUndefinedRule(name)
	}
	return expand(ctx, name, el)
}

// expand is the recursive-descent expander. name is the owning rule's
// name, used for error messages; it does not change across Template
// hole expansions.
func expand(ctx *ExpansionContext, name string, el Element) (string, error) {
	ctx.depth++
	defer func() { ctx.depth-- }()
	if ctx.depth > MaxDepth {
		return "", rqgerrors.NewExpansionOverflow(name, "recursion depth exceeded 64")
	}

	var out string
	var err error

	switch e := el.(type) {
	case Literal:
		out = e.Text

	case Template:
		out, err = expandTemplate(ctx, name, e)

	case Ref:
		out, err = expandRule(ctx, e.Name)

	case Choice:
		out, err = expandChoice(ctx, name, e)

	case Maybe:
		if ctx.Handle.Float64() < e.P {
			out, err = expand(ctx, name, e.Child)
		} else {
			out = ""
		}

	case Repeat:
		out, err = expandRepeat(ctx, name, e)

	case NumberRange:
		v := ctx.Handle.Randint(e.Lo, e.Hi)
		out = strconv.FormatInt(v, 10)

	case Lambda:
		out, err = e.Fn(ctx)

	case SchemaPrimitive:
		out, err = expandSchemaPrimitive(ctx, e)

	default:
		return "", rqgerrors.NewExpansionOverflow(name, "unknown element kind")
	}

	if err != nil {
		return "", err
	}

	if len(out) > MaxLength {
		return "", rqgerrors.NewExpansionOverflow(name, "output exceeded 10000 characters")
	}
	return out, nil
}

func expandTemplate(ctx *ExpansionContext, name string, t Template) (string, error) {
	out := t.Text
	// Find every {hole} occurrence and substitute; holes not present
	// in t.Holes are an UnboundHole error. pos skips past each
	// substituted value so braces inside it are not read as holes.
	pos := 0
	for {
		start := strings.IndexByte(out[pos:], '{')
		if start < 0 {
			break
		}
		start += pos
		end := strings.IndexByte(out[start:], '}')
		if end < 0 {
			break
		}
		end += start
		hole := out[start+1 : end]
		el, ok := t.Holes[hole]
		if !ok {
			return "", rqgerrors.NewUnboundHole(name, hole)
		}
		val, err := expand(ctx, name, el)
		if err != nil {
			return "", err
		}
		out = out[:start] + val + out[end+1:]
		pos = start + len(val)
	}
	return out, nil
}

func expandChoice(ctx *ExpansionContext, name string, c Choice) (string, error) {
	if len(c.Children) == 0 {
		return "", rqgerrors.NewInvalidChoiceWeights(name, "choice has no children")
	}
	var idx int
	if len(c.Weights) > 0 {
		idx = ctx.Handle.WeightedChoice(c.Weights)
	} else {
		idx = ctx.Handle.Choice(len(c.Children))
	}
	return expand(ctx, name, c.Children[idx])
}

func expandRepeat(ctx *ExpansionContext, name string, r Repeat) (string, error) {
	k := int(ctx.Handle.Randint(int64(r.Min), int64(r.Max)))
	parts := make([]string, 0, k)
	for i := 0; i < k; i++ {
		s, err := expand(ctx, name, r.Child)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, r.Sep), nil
}

package grammar

import (
	"regexp"
	"testing"

	"github.com/k0kubun/rqg/internal/entropy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(seed int64) *Engine {
	return NewEngine(entropy.NewManager(seed, true))
}

// S1: deterministic two-choice grammar reproduces identically across
// independent runs.
func TestScenarioS1Determinism(t *testing.T) {
	g := New("g")
	g.AddRule("query", UniformChoice(Lit("A"), Lit("B")))

	seed := int64(42)
	e1 := newEngine(seed)
	e2 := newEngine(seed)

	out1, err := e1.GenerateBatch(g, "query", 6, &seed)
	require.NoError(t, err)
	out2, err := e2.GenerateBatch(g, "query", 6, &seed)
	require.NoError(t, err)

	assert.Equal(t, out1, out2)
	for _, s := range out1 {
		assert.Contains(t, []string{"A", "B"}, s)
	}
}

// S2: weighted choice lands within the expected count band.
func TestScenarioS2Weights(t *testing.T) {
	g := New("g")
	g.AddRule("query", WeightedChoice([]float64{9, 1}, Lit("X"), Lit("Y")))

	seed := int64(1)
	e := newEngine(seed)
	out, err := e.GenerateBatch(g, "query", 10000, &seed)
	require.NoError(t, err)

	yCount := 0
	for _, s := range out {
		if s == "Y" {
			yCount++
		}
	}
	assert.GreaterOrEqual(t, yCount, 800)
	assert.LessOrEqual(t, yCount, 1200)
}

// S3: template holes substitute correctly.
func TestScenarioS3Template(t *testing.T) {
	g := New("g")
	g.AddRule("query", Template{
		Text: "SELECT {c} FROM t WHERE id = {n}",
		Holes: map[string]Element{
			"c": UniformChoice(Lit("a"), Lit("b")),
			"n": NumberRange{Lo: 1, Hi: 3},
		},
	})

	seed := int64(7)
	e := newEngine(seed)
	re := regexp.MustCompile(`^SELECT (a|b) FROM t WHERE id = [123]$`)
	for i := 0; i < 200; i++ {
		out, err := e.Generate(g, "query", &seed)
		require.NoError(t, err)
		assert.Regexp(t, re, out)
	}
}

func TestUndefinedRuleError(t *testing.T) {
	g := New("g")
	e := newEngine(1)
	_, err := e.Generate(g, "missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UndefinedRule")
}

func TestUnboundHoleError(t *testing.T) {
	g := New("g")
	g.AddRule("query", Template{Text: "{missing}", Holes: map[string]Element{}})
	e := newEngine(1)
	_, err := e.Generate(g, "query", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UnboundHole")
}

func TestInvalidChoiceWeightsValidation(t *testing.T) {
	g := New("g")
	g.AddRule("query", WeightedChoice([]float64{0, 0}, Lit("a"), Lit("b")))
	err := g.Validate()
	require.Error(t, err)
}

// Termination: a grammar whose only cycle passes through a maybe with
// non-zero escape probability must terminate, and must never exceed
// the absolute bounds without raising ExpansionOverflow.
func TestTerminationViaMaybeEscape(t *testing.T) {
	g := New("g")
	g.AddRule("loop", Maybe{P: 0.5, Child: Template{
		Text:  "x{next}",
		Holes: map[string]Element{"next": RefTo("loop")},
	}})

	e := newEngine(3)
	for i := 0; i < 100; i++ {
		out, err := e.Generate(g, "loop", nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(out), MaxLength)
	}
}

func TestExpansionOverflowOnUnboundedRecursion(t *testing.T) {
	g := New("g")
	// Always recurses with probability 1 — guaranteed to overflow
	// depth.
	g.AddRule("loop", Template{
		Text:  "x{next}",
		Holes: map[string]Element{"next": RefTo("loop")},
	})
	e := newEngine(1)
	_, err := e.Generate(g, "loop", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ExpansionOverflow")
}

func TestRepeatJoinsWithSeparator(t *testing.T) {
	g := New("g")
	g.AddRule("query", Repeat{Child: Lit("a"), Min: 3, Max: 3, Sep: ","})
	e := newEngine(1)
	out, err := e.Generate(g, "query", nil)
	require.NoError(t, err)
	assert.Equal(t, "a,a,a", out)
}

func TestGrammarMergeSuffixesOnCollision(t *testing.T) {
	a := New("a")
	a.AddRule("query", Lit("from-a"))
	b := New("b")
	b.AddRule("query", Lit("from-b"))

	merged := a.Merge(b)
	assert.Contains(t, merged.Rules, "query")
	assert.Contains(t, merged.Rules, "query_2")
}

func TestSchemaPrimitiveProducesWellFormedDDL(t *testing.T) {
	g := New("g")
	g.AddRule("schema", SchemaPrimitive{
		NumTables: 4, NumFunctions: 1, NumViews: 1, Profile: "simple",
		FKRatio: 0.8, IndexRatio: 0.5, CompositeIndexRatio: 0.3, PartialIndexRatio: 0.2,
	})
	e := newEngine(9)
	out, err := e.Generate(g, "schema", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE")
	assert.Contains(t, out, "CREATE FUNCTION")
	assert.Contains(t, out, "CREATE VIEW")
}

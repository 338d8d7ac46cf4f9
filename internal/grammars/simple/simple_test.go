package simple

import (
	"strings"
	"testing"

	"github.com/k0kubun/rqg/internal/entropy"
	"github.com/k0kubun/rqg/internal/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleGrammarRegistersOnImport(t *testing.T) {
	g, ok := grammar.Default.Get("simple")
	require.True(t, ok)
	assert.NotNil(t, g)
}

func TestSimpleGrammarExpandsQueryRule(t *testing.T) {
	g, ok := grammar.Default.Get("simple")
	require.True(t, ok)

	eng := grammar.NewEngine(entropy.NewManager(1, true))
	seed := int64(42)
	for i := 0; i < 20; i++ {
		s, err := eng.Generate(g, "query", &seed)
		require.NoError(t, err)
		assert.True(t,
			strings.HasPrefix(s, "SELECT") || strings.HasPrefix(s, "INSERT") ||
				strings.HasPrefix(s, "UPDATE") || strings.HasPrefix(s, "DELETE"),
			"unexpected query shape: %s", s)
	}
}

func TestSimpleGrammarExpandsDDLRule(t *testing.T) {
	g, ok := grammar.Default.Get("simple")
	require.True(t, ok)

	eng := grammar.NewEngine(entropy.NewManager(1, true))
	seed := int64(7)
	s, err := eng.Generate(g, "ddl", &seed)
	require.NoError(t, err)
	assert.Contains(t, s, "CREATE TABLE")
}

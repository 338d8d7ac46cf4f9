package qhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdempotent(t *testing.T) {
	opts := DefaultOptions()
	queries := []string{
		"select  *  from t where id = 42 and name = 'bob''s'",
		"SELECT * FROM t",
		"  select 1.50   ",
	}
	for _, q := range queries {
		once := Normalize(q, opts)
		twice := Normalize(once, opts)
		assert.Equal(t, once, twice, "normalize not idempotent for %q", q)
	}
}

func TestHashCompatibleWithNormalize(t *testing.T) {
	opts := DefaultOptions()
	a := "SELECT * FROM t WHERE id = 1"
	b := "select   *   from t   where id = 1"
	assert.Equal(t, Normalize(a, opts), Normalize(b, opts))
	assert.Equal(t, HashQuery(a, opts), HashQuery(b, opts))
}

func TestHashDiffersForDifferentCanonicalForms(t *testing.T) {
	opts := DefaultOptions()
	a := "SELECT * FROM t WHERE id = 1"
	b := "SELECT * FROM t WHERE id = 2"
	// literal masking collapses both ids to #NUM#, so per the mask
	// rule these hash identically; use a distinct table name instead.
	c := "SELECT * FROM u WHERE id = 1"
	assert.Equal(t, HashQuery(a, opts), HashQuery(b, opts))
	assert.NotEqual(t, HashQuery(a, opts), HashQuery(c, opts))
}

func TestFingerprintLength(t *testing.T) {
	fp := Fingerprint("SELECT 1", DefaultOptions())
	assert.Len(t, fp, 16)
}

func TestMaskPreservesEscapedQuotes(t *testing.T) {
	q := "SELECT 'it''s a test'"
	out := maskLiterals(q)
	assert.Equal(t, "SELECT '#STR#'", out)
}

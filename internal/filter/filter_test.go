package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type skipFilter struct{}

func (skipFilter) Filter(sql string) (*string, error) { return nil, nil }

type passFilter struct{}

func (passFilter) Filter(sql string) (*string, error) { return &sql, nil }

type modifyFilter struct{}

func (modifyFilter) Filter(sql string) (*string, error) {
	s := sql + " /* rewritten */"
	return &s, nil
}

func TestApplyNilFilterPassesThrough(t *testing.T) {
	out, ok, err := Apply(nil, nil, "SELECT 1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SELECT 1", out)
}

func TestApplySkip(t *testing.T) {
	var stats Stats
	out, ok, err := Apply(skipFilter{}, &stats, "SELECT 1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, out)
	_, skipped, _ := stats.Snapshot()
	assert.Equal(t, int64(1), skipped)
}

func TestApplyPass(t *testing.T) {
	var stats Stats
	out, ok, err := Apply(passFilter{}, &stats, "SELECT 1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SELECT 1", out)
	_, _, passed := stats.Snapshot()
	assert.Equal(t, int64(1), passed)
}

func TestApplyModify(t *testing.T) {
	var stats Stats
	out, ok, err := Apply(modifyFilter{}, &stats, "SELECT 1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SELECT 1 /* rewritten */", out)
	filtered, _, _ := stats.Snapshot()
	assert.Equal(t, int64(1), filtered)
}

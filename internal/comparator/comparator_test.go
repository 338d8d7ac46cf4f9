package comparator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// S7: SELECT 1 on two mock runners returning [[1]] matches; changing
// one to [[2]] mismatches with a single difference at row 1, column 1.
func TestScenarioS7ComparatorEquivalence(t *testing.T) {
	c := New(false)
	left := SideResult{Status: StatusSuccess, IsSelect: true, Rows: [][]interface{}{{int64(1)}}}
	right := SideResult{Status: StatusSuccess, IsSelect: true, Rows: [][]interface{}{{int64(1)}}}

	res := c.Compare(context.Background(), "SELECT 1", left, right)
	assert.True(t, res.Matches)

	right.Rows = [][]interface{}{{int64(2)}}
	res = c.Compare(context.Background(), "SELECT 1", left, right)
	assert.False(t, res.Matches)
	assert.Len(t, res.Differences, 1)
	assert.Equal(t, 1, res.Differences[0].Row)
	assert.Equal(t, 1, res.Differences[0].Column)
}

func TestCompareStatusMismatch(t *testing.T) {
	c := New(false)
	left := SideResult{Status: StatusSuccess}
	right := SideResult{Status: StatusError, ErrorMessage: "ERROR: relation not found"}
	res := c.Compare(context.Background(), "SELECT 1", left, right)
	assert.False(t, res.Matches)
}

func TestCompareErrorSynonymsMatch(t *testing.T) {
	c := New(false)
	left := SideResult{Status: StatusError, ErrorMessage: "ERROR: table \"x\" does not exist"}
	right := SideResult{Status: StatusError, ErrorMessage: "error: relation \"x\" does not exist"}
	res := c.Compare(context.Background(), "SELECT * FROM x", left, right)
	assert.True(t, res.Matches)
}

func TestCompareDMLAffectedRows(t *testing.T) {
	c := New(false)
	left := SideResult{Status: StatusSuccess, IsDML: true, AffectedRows: 5}
	right := SideResult{Status: StatusSuccess, IsDML: true, AffectedRows: 5}
	assert.True(t, c.Compare(context.Background(), "UPDATE t SET x=1", left, right).Matches)

	right.AffectedRows = 4
	assert.False(t, c.Compare(context.Background(), "UPDATE t SET x=1", left, right).Matches)
}

func TestCompareFloatRoundingTolerance(t *testing.T) {
	c := New(false)
	left := SideResult{Status: StatusSuccess, IsSelect: true, Rows: [][]interface{}{{1.0000001}}}
	right := SideResult{Status: StatusSuccess, IsSelect: true, Rows: [][]interface{}{{1.0000002}}}
	res := c.Compare(context.Background(), "SELECT 1.0 ORDER BY 1", left, right)
	assert.True(t, res.Matches)
}

func TestCompareSortsRowsBeforeComparing(t *testing.T) {
	c := New(false)
	left := SideResult{Status: StatusSuccess, IsSelect: true, Rows: [][]interface{}{{int64(2)}, {int64(1)}}}
	right := SideResult{Status: StatusSuccess, IsSelect: true, Rows: [][]interface{}{{int64(1)}, {int64(2)}}}
	res := c.Compare(context.Background(), "SELECT x FROM t ORDER BY x", left, right)
	assert.True(t, res.Matches)
}

func TestNonDeterministicVolatileFunctionDetection(t *testing.T) {
	assert.True(t, IsNonDeterministic("SELECT RANDOM()"))
	assert.True(t, IsNonDeterministic("SELECT NOW()"))
	assert.True(t, IsNonDeterministic("SELECT CURRENT_TIMESTAMP"))
	assert.True(t, IsNonDeterministic("SELECT gen_random_uuid()"))
	assert.False(t, IsNonDeterministic("SELECT id FROM t WHERE id = 1"))
}

func TestUnorderedMultiRowSelectIsSkipped(t *testing.T) {
	c := New(false)
	left := SideResult{Status: StatusSuccess, IsSelect: true, Rows: [][]interface{}{{int64(1)}, {int64(2)}}}
	right := SideResult{Status: StatusSuccess, IsSelect: true, Rows: [][]interface{}{{int64(2)}, {int64(1)}}}
	res := c.Compare(context.Background(), "SELECT x FROM t", left, right)
	assert.True(t, res.Skipped)
	assert.True(t, res.Matches)
}

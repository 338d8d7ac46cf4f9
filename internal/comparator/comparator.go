// Package comparator implements the dual-run equivalence checker
// (spec T2): run the same statement against two runners and decide
// whether the results match under spec.md §4.10's normalization
// rules.
package comparator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Status is the coarse outcome of running a statement on one side.
type Status int

const (
	StatusSuccess Status = iota
	StatusError
)

// SideResult is what one Runner produced for one statement, supplied
// by the caller (the orchestrator or CLI `exec` mode owns actually
// running the statement; this package only judges equivalence).
type SideResult struct {
	Status       Status
	ErrorMessage string
	AffectedRows int64 // DML
	Rows         [][]interface{} // SELECT; Rows[i][j] is row i, column j
	IsSelect     bool
	IsDML        bool
	Explain      string
}

// Difference describes one row/column mismatch between two SELECT
// result sets.
type Difference struct {
	Row    int
	Column int
	Left   interface{}
	Right  interface{}
}

// ComparisonResult is compare_query's return value.
type ComparisonResult struct {
	Matches     bool
	Skipped     bool
	SkipReason  string
	Differences []Difference
	LeftExplain string
	RightExplain string
}

// Comparator runs equivalence checks. It holds no state beyond
// config, since both sides' execution is the caller's responsibility.
type Comparator struct {
	CaptureExplain bool
}

// New builds a Comparator.
func New(captureExplain bool) *Comparator {
	return &Comparator{CaptureExplain: captureExplain}
}

// Compare judges whether left and right are equivalent results for
// the same sql, per spec.md §4.10.
func (c *Comparator) Compare(ctx context.Context, sql string, left, right SideResult) ComparisonResult {
	if IsNonDeterministic(sql) {
		return ComparisonResult{Matches: true, Skipped: true, SkipReason: "non-deterministic statement"}
	}

	if (left.Status == StatusSuccess) != (right.Status == StatusSuccess) {
		return ComparisonResult{Matches: false, SkipReason: "status mismatch"}
	}

	if left.Status == StatusError {
		le := normalizeErrorString(left.ErrorMessage)
		re := normalizeErrorString(right.ErrorMessage)
		return ComparisonResult{Matches: le == re}
	}

	if left.IsDML {
		return ComparisonResult{Matches: left.AffectedRows == right.AffectedRows}
	}

	if left.IsSelect {
		// Rule 4's row-count escape: an unordered SELECT returning more
		// than one row on either side is non-deterministic at the row
		// level even if the text itself carried no volatile call.
		if (len(left.Rows) > 1 || len(right.Rows) > 1) && !hasOrderBy(sql) {
			return ComparisonResult{Matches: true, Skipped: true, SkipReason: "unordered multi-row SELECT"}
		}
		return compareRows(left.Rows, right.Rows)
	}

	return ComparisonResult{Matches: true}
}

func hasOrderBy(sql string) bool {
	return strings.Contains(strings.ToUpper(sql), "ORDER BY")
}

// compareRows implements spec.md §4.10 rule 3: row counts first,
// then the multiset of rows after per-row normalization. Both sides
// are always sorted lexicographically before the row-by-row diff.
func compareRows(left, right [][]interface{}) ComparisonResult {
	if len(left) != len(right) {
		return ComparisonResult{Matches: false, SkipReason: "row count mismatch"}
	}

	normLeft := normalizeRows(left)
	normRight := normalizeRows(right)

	sortedLeft := sortRows(normLeft)
	sortedRight := sortRows(normRight)

	diffs := diffRows(sortedLeft, sortedRight)
	return ComparisonResult{Matches: len(diffs) == 0, Differences: diffs}
}

func normalizeRows(rows [][]interface{}) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		normRow := make([]interface{}, len(row))
		for j, v := range row {
			normRow[j] = normalizeValue(v)
		}
		out[i] = normRow
	}
	return out
}

// normalizeValue rounds floats to 6 fractional digits, trims string
// whitespace, and preserves NULL, per spec.md §4.10 rule 3.
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		return math.Round(t*1e6) / 1e6
	case float32:
		return math.Round(float64(t)*1e6) / 1e6
	case string:
		return strings.TrimSpace(t)
	default:
		return v
	}
}

func rowKey(row []interface{}) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, "\x1f")
}

func sortRows(rows [][]interface{}) [][]interface{} {
	out := make([][]interface{}, len(rows))
	copy(out, rows)
	sort.Slice(out, func(i, j int) bool { return rowKey(out[i]) < rowKey(out[j]) })
	return out
}

func diffRows(left, right [][]interface{}) []Difference {
	var diffs []Difference
	for i := range left {
		if i >= len(right) {
			break
		}
		for j := range left[i] {
			if j >= len(right[i]) {
				break
			}
			if fmt.Sprintf("%v", left[i][j]) != fmt.Sprintf("%v", right[i][j]) {
				diffs = append(diffs, Difference{Row: i + 1, Column: j + 1, Left: left[i][j], Right: right[i][j]})
			}
		}
	}
	return diffs
}

var errorSynonyms = map[string]string{
	"table":  "relation",
	"column": "attribute",
}

// normalizeErrorString lowercases, strips vendor prefixes like
// "ERROR:", and folds common vendor synonyms, per spec.md §4.10
// rule 1.
func normalizeErrorString(msg string) string {
	s := strings.ToLower(msg)
	s = strings.TrimPrefix(s, "error:")
	s = strings.TrimSpace(s)
	for a, b := range errorSynonyms {
		s = strings.ReplaceAll(s, a, b)
	}
	return s
}

// ParseAffectedRows extracts an integer affected-row count from a
// driver's textual result tag, when the caller only has text to work
// with (e.g. from a CLI `exec` run).
func ParseAffectedRows(tag string) (int64, error) {
	fields := strings.Fields(tag)
	if len(fields) == 0 {
		return 0, fmt.Errorf("comparator: empty result tag")
	}
	return strconv.ParseInt(fields[len(fields)-1], 10, 64)
}

// Package filter defines the external query pre-transform interface
// (spec T3): any attached filter may Skip, Pass, or Modify a
// statement before it reaches a runner. Implementations are external
// collaborators (spec.md §1); this package defines only the contract
// and a stats counter, grounded in shape on the original
// pyrqg/filters package's callable-returning-Optional[str] interface.
package filter

import "sync/atomic"

// Filter is the query pre-transform hook from spec.md §4.7/§6. A nil
// result means Skip; an equal string means Pass; a different string
// means Modify.
type Filter interface {
	Filter(sql string) (*string, error)
}

// Stats tracks filter decisions, per spec.md §6: "optionally exposes
// statistics {queries_filtered, queries_skipped}".
type Stats struct {
	filtered atomic.Int64 // modified
	skipped  atomic.Int64
	passed   atomic.Int64
}

// RecordPass increments the passed-through counter.
func (s *Stats) RecordPass() { s.passed.Add(1) }

// RecordModify increments the modified counter.
func (s *Stats) RecordModify() { s.filtered.Add(1) }

// RecordSkip increments the skipped counter.
func (s *Stats) RecordSkip() { s.skipped.Add(1) }

// Snapshot returns the current counts.
func (s *Stats) Snapshot() (filtered, skipped, passed int64) {
	return s.filtered.Load(), s.skipped.Load(), s.passed.Load()
}

// Apply runs f against sql, folding the Skip/Pass/Modify decision
// into stats and returning the statement to execute (empty with ok
// false for Skip).
func Apply(f Filter, stats *Stats, sql string) (out string, ok bool, err error) {
	if f == nil {
		return sql, true, nil
	}
	result, err := f.Filter(sql)
	if err != nil {
		return sql, true, err
	}
	if result == nil {
		if stats != nil {
			stats.RecordSkip()
		}
		return "", false, nil
	}
	if *result != sql {
		if stats != nil {
			stats.RecordModify()
		}
	} else if stats != nil {
		stats.RecordPass()
	}
	return *result, true, nil
}

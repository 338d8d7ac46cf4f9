// Package runner implements the pluggable Runner Layer (spec M3):
// connection management, DDL serialization barriers, multi-threaded
// execution, and error/shape accounting against PostgreSQL-compatible
// back-ends.
//
// The execution-loop shape (run statements concurrently, drain on a
// DDL boundary, resume) is grounded on the teacher's
// database/concurrent.go fan-out/collect pattern; the DDL-dump/apply
// split is grounded on adapter/database.go's DumpDDLs/RunDDLs, which
// already separates "gather DDL text" from "apply under a single
// transaction" the way this runner separates "non-DDL via pool" from
// "DDL on the dedicated connection".
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/k0kubun/rqg/internal/filter"
)

// Symbol is one of the outcome symbols from spec.md §3 "Outcome".
type Symbol string

const (
	Success    Symbol = "."
	Syntax     Symbol = "S"
	Timeout    Symbol = "t"
	Connection Symbol = "C"
	Other      Symbol = "e"
	Skip       Symbol = "skip"
)

// Flavor selects which DDL-classification and DSN rules apply.
type Flavor int

const (
	FlavorPostgreSQL Flavor = iota
	FlavorYSQL
	FlavorYCQL
)

// Outcome is the per-statement result returned by ExecuteOne, per
// spec.md §3 "Outcome".
type Outcome struct {
	Symbol     Symbol
	ErrorClass string
	Elapsed    time.Duration
	Explain    string
}

// Config holds the connection and execution parameters shared by all
// runner implementations.
type Config struct {
	DSN             string
	StatementTimeout time.Duration
	Threads         int
	DDLRetries      int
	DDLBackoff      time.Duration
	ProgressEvery   int
	Filter          Filter

	// OutcomeReporter, if set, is called once per executed statement
	// (including DDL), in addition to the periodic Stats snapshots
	// passed to ExecuteQueries's progress callback — the hook the CLI
	// uses to drive ConsoleReporter's single-character outcome stream.
	OutcomeReporter func(Outcome, string)
}

// DefaultConfig fills in the spec's stated defaults: 5 DDL retries
// with a 1s backoff, progress summaries every 10000 statements.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:           dsn,
		Threads:       8,
		DDLRetries:    5,
		DDLBackoff:    time.Second,
		ProgressEvery: 10000,
	}
}

// Filter is an alias of internal/filter's T3 contract (nil means Skip,
// an equal string means Pass, a different string means Modify), kept
// here so runner callers don't need to import internal/filter just to
// name the type of cfg.Filter.
type Filter = filter.Filter

// Runner is the execution contract of spec.md §4.7.
type Runner interface {
	Connect(ctx context.Context) error
	Close() error
	ExecuteOne(ctx context.Context, sql string) (Outcome, error)
	IsDDL(sql string) bool
	SetupSchema(ctx context.Context, ddls []string) error
	ExecuteQueries(ctx context.Context, stmts <-chan string, progress func(Stats)) (Stats, error)
}

// WatcherSetter is implemented by runners that support a stalled-
// statement watchdog (spec.md §4.7/§7). The CLI type-asserts a built
// Runner to this interface and wires one in before calling
// ExecuteQueries; a runner that can't support one (ycql) simply
// doesn't implement it.
type WatcherSetter interface {
	SetWatcher(w Watcher)
}

// Stats is the runner-level aggregate/histogram snapshot named in
// spec.md §3 "Stats" and exercised by testable property 7 (outcome
// totality).
type Stats struct {
	mu sync.Mutex

	Total     int64
	Success   int64
	Failed    int64
	SyntaxErr int64
	TimedOut  int64
	ConnLost  int64
	Skipped   int64
	Symbols   map[Symbol]int64
	ErrorTop  map[string]int64
	Shapes    map[string]struct{}

	// Filters tracks filter decisions, per spec.md §6's filter
	// interface statistics contract — routed through internal/filter's
	// own Stats type (spec T3) rather than reimplementing the same
	// counters here.
	Filters *filter.Stats
}

// NewStats returns a zeroed Stats ready for concurrent use.
func NewStats() *Stats {
	return &Stats{
		Symbols:  make(map[Symbol]int64),
		ErrorTop: make(map[string]int64),
		Shapes:   make(map[string]struct{}),
		Filters:  &filter.Stats{},
	}
}

// Record folds one outcome into the aggregate counters. shape is the
// normalized fingerprint used to track distinct query shapes.
func (s *Stats) Record(o Outcome, shape string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Total++
	s.Symbols[o.Symbol]++
	s.Shapes[shape] = struct{}{}

	switch o.Symbol {
	case Success:
		s.Success++
	case Syntax:
		s.Failed++
		s.SyntaxErr++
	case Timeout:
		s.Failed++
		s.TimedOut++
	case Connection:
		s.Failed++
		s.ConnLost++
	case Other:
		s.Failed++
	case Skip:
		s.Skipped++
	}
	if o.ErrorClass != "" {
		s.ErrorTop[o.ErrorClass]++
	}
}

// Snapshot returns a copy safe to read without holding the lock.
func (s *Stats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Stats{
		Total:     s.Total,
		Success:   s.Success,
		Failed:    s.Failed,
		SyntaxErr: s.SyntaxErr,
		TimedOut:  s.TimedOut,
		ConnLost:  s.ConnLost,
		Skipped:   s.Skipped,
		Filters:   s.Filters,
		Symbols:   make(map[Symbol]int64, len(s.Symbols)),
		ErrorTop:  make(map[string]int64, len(s.ErrorTop)),
		Shapes:    make(map[string]struct{}, len(s.Shapes)),
	}
	for k, v := range s.Symbols {
		out.Symbols[k] = v
	}
	for k, v := range s.ErrorTop {
		out.ErrorTop[k] = v
	}
	for k := range s.Shapes {
		out.Shapes[k] = struct{}{}
	}
	return out
}

// DistinctShapes reports the count of distinct normalized query
// shapes observed so far.
func (s *Stats) DistinctShapes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Shapes)
}

package runner

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/k0kubun/rqg/internal/filter"
	"github.com/k0kubun/rqg/internal/qhash"
)

// Executor is the pair of execution primitives a concrete runner
// (postgresql, ysql, ycql) must supply to RunLoop: one statement on
// any pooled connection, and one statement on the single dedicated
// connection reserved for DDL.
type Executor interface {
	ExecuteOne(ctx context.Context, sql string) (Outcome, error)
	ExecuteDDL(ctx context.Context, sql string) (Outcome, error)
}

// Watcher is the subset of internal/watchdog.Watchdog the execution
// loop needs, kept as an interface here to avoid a dependency cycle.
type Watcher interface {
	Register(handle, sql string)
	Unregister(handle string)
}

// RunLoop drives spec.md §4.7's "Execution loop with DDL barrier".
// Statements between DDL boundaries run concurrently through a bounded
// errgroup (limited to cfg.Threads); errgroup.Wait() is itself the
// drain point the spec calls for, so a new group starts after each DDL
// completes rather than tracking an explicit outstanding-futures set.
func RunLoop(ctx context.Context, cfg Config, ex Executor, flavor Flavor, watcher Watcher, stmts <-chan string, progress func(Stats)) (Stats, error) {
	stats := NewStats()
	seen := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInt(cfg.Threads, 1))

	for {
		sql, ok := <-stmts
		if !ok {
			break
		}

		sql, outcome, handled := applyFilter(cfg.Filter, sql, stats)
		if handled {
			stats.Record(outcome, "")
			continue
		}

		if IsDDL(sql, flavor) {
			// Barrier: wait for every statement submitted before this
			// DDL to complete before executing it. runOne never
			// returns an error itself (failures become Outcomes), so
			// Wait always returns nil here.
			g.Wait()
			outcome := executeDDLWithRetry(ctx, cfg, ex, sql)
			stats.Record(outcome, shapeOf(sql))
			if cfg.OutcomeReporter != nil {
				cfg.OutcomeReporter(outcome, sql)
			}
			g, gctx = errgroup.WithContext(ctx)
			g.SetLimit(maxInt(cfg.Threads, 1))
		} else {
			stmt := sql
			g.Go(func() error {
				runOne(gctx, cfg, ex, watcher, stmt, stats)
				return nil
			})
		}

		seen++
		if cfg.ProgressEvery > 0 && seen%cfg.ProgressEvery == 0 && progress != nil {
			progress(stats.Snapshot())
		}
	}

	g.Wait()
	return stats.Snapshot(), nil
}

func runOne(ctx context.Context, cfg Config, ex Executor, watcher Watcher, sql string, stats *Stats) {
	handle := shapeOf(sql) + "#" + time.Now().Format("150405.000000000")
	if watcher != nil {
		watcher.Register(handle, sql)
		defer watcher.Unregister(handle)
	}
	outcome, err := ex.ExecuteOne(ctx, sql)
	if err != nil {
		sym, class := ClassifyError(err)
		outcome = Outcome{Symbol: sym, ErrorClass: class, Elapsed: outcome.Elapsed}
	}
	stats.Record(outcome, shapeOf(sql))
	if cfg.OutcomeReporter != nil {
		cfg.OutcomeReporter(outcome, sql)
	}
}

// executeDDLWithRetry runs sql on the dedicated connection, retrying
// on serialization/transient failures per spec.md §4.6/§4.7 (5
// attempts, 1s backoff).
func executeDDLWithRetry(ctx context.Context, cfg Config, ex Executor, sql string) Outcome {
	retries := cfg.DDLRetries
	if retries <= 0 {
		retries = 5
	}
	backoff := cfg.DDLBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	var outcome Outcome
	var err error
	for attempt := 0; attempt < retries; attempt++ {
		outcome, err = ex.ExecuteDDL(ctx, sql)
		if err == nil {
			return outcome
		}
		if !IsSerializationFailure(err) || attempt == retries-1 {
			sym, class := ClassifyError(err)
			return Outcome{Symbol: sym, ErrorClass: class, Elapsed: outcome.Elapsed}
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			sym, class := ClassifyError(ctx.Err())
			return Outcome{Symbol: sym, ErrorClass: class}
		}
	}
	sym, class := ClassifyError(err)
	return Outcome{Symbol: sym, ErrorClass: class}
}

// applyFilter runs the attached filter, if any, through
// internal/filter.Apply (spec T3), returning the (possibly rewritten)
// statement, or a Skip outcome when the filter suppresses it.
func applyFilter(f Filter, sql string, stats *Stats) (string, Outcome, bool) {
	out, ok, err := filter.Apply(f, stats.Filters, sql)
	if err != nil {
		return sql, Outcome{}, false
	}
	if !ok {
		return "", Outcome{Symbol: Skip}, true
	}
	return out, Outcome{}, false
}

func shapeOf(sql string) string {
	return qhash.Fingerprint(sql, qhash.DefaultOptions())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Package postgresql implements the PostgreSQL Runner, grounded on
// the teacher's adapter/postgres/postgres.go: database/sql opened
// with "postgres" (lib/pq), DSN built the same user:pass@host/db
// shape as postgresBuildDSN, and DumpTableDDL/RunDDLs' "gather then
// apply under one connection" split mirrored here as SetupSchema.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/k0kubun/rqg/internal/runner"
)

// Runner executes statements against PostgreSQL. Worker goroutines
// run non-DDL statements through the shared *sql.DB (database/sql's
// own connection pool), and one dedicated connection is reserved for DDL,
// matching spec.md §4.7's "main connection is owned by the runner
// loop only".
type Runner struct {
	cfg     runner.Config
	db      *sql.DB
	ddlConn *sql.Conn
	Watcher runner.Watcher

	mu sync.Mutex
}

// New constructs a PostgreSQL runner from cfg; suitable as a
// runner.Constructor for runner.Registry.Register("postgresql", ...).
func New(cfg runner.Config) (runner.Runner, error) {
	return &Runner{cfg: cfg}, nil
}

func (r *Runner) Connect(ctx context.Context) error {
	db, err := sql.Open("postgres", r.cfg.DSN)
	if err != nil {
		return fmt.Errorf("postgresql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("postgresql: ping: %w", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return fmt.Errorf("postgresql: dedicated ddl connection: %w", err)
	}
	r.db = db
	r.ddlConn = conn
	return r.applyStatementTimeout(ctx)
}

func (r *Runner) applyStatementTimeout(ctx context.Context) error {
	if r.cfg.StatementTimeout <= 0 {
		return nil
	}
	ms := r.cfg.StatementTimeout.Milliseconds()
	_, err := r.db.ExecContext(ctx, fmt.Sprintf("SET statement_timeout = %d", ms))
	return err
}

func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ddlConn != nil {
		r.ddlConn.Close()
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Runner) IsDDL(sql string) bool {
	return runner.IsDDL(sql, runner.FlavorPostgreSQL)
}

// ExecuteOne runs sql on any pooled connection (autocommit), per the
// "connection policy" contract. A connection-class error forces a
// reconnect of the pool before the next statement, matching "a lost
// connection forces a re-open before the next statement".
func (r *Runner) ExecuteOne(ctx context.Context, sql string) (runner.Outcome, error) {
	start := time.Now()
	_, err := r.db.ExecContext(ctx, sql)
	elapsed := time.Since(start)
	if err != nil {
		sym, class := runner.ClassifyError(err)
		if sym == runner.Connection {
			r.reconnectPool(ctx)
		}
		return runner.Outcome{Symbol: sym, ErrorClass: class, Elapsed: elapsed}, err
	}
	return runner.Outcome{Symbol: runner.Success, Elapsed: elapsed}, nil
}

// ExecuteDDL runs sql on the single dedicated connection reserved for
// DDL, so it observes and establishes a consistent pre/post state
// relative to the barrier in RunLoop.
func (r *Runner) ExecuteDDL(ctx context.Context, sql string) (runner.Outcome, error) {
	start := time.Now()
	_, err := r.ddlConn.ExecContext(ctx, sql)
	elapsed := time.Since(start)
	if err != nil {
		sym, class := runner.ClassifyError(err)
		return runner.Outcome{Symbol: sym, ErrorClass: class, Elapsed: elapsed}, err
	}
	return runner.Outcome{Symbol: runner.Success, Elapsed: elapsed}, nil
}

func (r *Runner) reconnectPool(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// database/sql already recycles broken connections on next use;
	// this just forces it eagerly so the next statement doesn't pay
	// for a known-dead connection's dial timeout.
	if r.db != nil {
		_ = r.db.PingContext(ctx)
	}
}

// SetupSchema applies a DDL bundle in order on the dedicated
// connection, stopping at the first failure — adapting
// adapter.RunDDLs' single-transaction apply loop, but one statement at
// a time since schema-primitive bundles are already ordered by the
// grammar engine's topological sort and don't need transactional
// all-or-nothing semantics here.
func (r *Runner) SetupSchema(ctx context.Context, ddls []string) error {
	for _, ddl := range ddls {
		if _, err := r.ddlConn.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("postgresql: setup_schema: %w", err)
		}
	}
	return nil
}

func (r *Runner) ExecuteQueries(ctx context.Context, stmts <-chan string, progress func(runner.Stats)) (runner.Stats, error) {
	return runner.RunLoop(ctx, r.cfg, r, runner.FlavorPostgreSQL, r.Watcher, stmts, progress)
}

// SetWatcher implements runner.WatcherSetter.
func (r *Runner) SetWatcher(w runner.Watcher) {
	r.Watcher = w
}

// Package ysql implements the YSQL Runner: Yugabyte's Postgres-wire
// SQL API, reusing the postgresql runner's connection and execution
// machinery (YSQL is wire-compatible) with Yugabyte-specific DDL
// classification and DSN defaults layered on top.
package ysql

import (
	"context"

	"github.com/k0kubun/rqg/internal/runner"
	"github.com/k0kubun/rqg/internal/runner/postgresql"
)

// Runner wraps a postgresql.Runner, overriding only what spec.md §4.7
// and §6 say differs for Yugabyte: DDL classification includes
// REINDEX/REFRESH MATERIALIZED VIEW, and DSN defaults are port 5433,
// user/db "yugabyte".
type Runner struct {
	cfg   runner.Config
	inner *postgresql.Runner
}

// New constructs a YSQL runner, applying the YSQL DSN defaults before
// delegating connection setup to the postgresql runner.
func New(cfg runner.Config) (runner.Runner, error) {
	info, err := runner.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	info = runner.YSQLDefaults(info)
	cfg.DSN = runner.BuildPostgresDSN(info)

	inner, err := postgresql.New(cfg)
	if err != nil {
		return nil, err
	}
	pg, ok := inner.(*postgresql.Runner)
	if !ok {
		return nil, runner.ErrUnexpectedConstructor
	}
	return &Runner{cfg: cfg, inner: pg}, nil
}

func (r *Runner) Connect(ctx context.Context) error { return r.inner.Connect(ctx) }
func (r *Runner) Close() error                      { return r.inner.Close() }

func (r *Runner) ExecuteOne(ctx context.Context, sql string) (runner.Outcome, error) {
	return r.inner.ExecuteOne(ctx, sql)
}

func (r *Runner) ExecuteDDL(ctx context.Context, sql string) (runner.Outcome, error) {
	return r.inner.ExecuteDDL(ctx, sql)
}

func (r *Runner) IsDDL(sql string) bool {
	return runner.IsDDL(sql, runner.FlavorYSQL)
}

func (r *Runner) SetupSchema(ctx context.Context, ddls []string) error {
	return r.inner.SetupSchema(ctx, ddls)
}

// ExecuteQueries drives RunLoop directly (rather than delegating to
// r.inner.ExecuteQueries) so DDL is classified under FlavorYSQL.
func (r *Runner) ExecuteQueries(ctx context.Context, stmts <-chan string, progress func(runner.Stats)) (runner.Stats, error) {
	return runner.RunLoop(ctx, r.cfg, r, runner.FlavorYSQL, r.inner.Watcher, stmts, progress)
}

// SetWatcher implements runner.WatcherSetter.
func (r *Runner) SetWatcher(w runner.Watcher) {
	r.inner.Watcher = w
}

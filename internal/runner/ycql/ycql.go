// Package ycql implements the YCQL Runner surface: DSN parsing and
// DDL classification are fully implemented and independently
// testable, but Connect does not open a live connection because the
// retrieved dependency corpus carries no Cassandra-wire client
// (YCQL speaks CQL, not the Postgres wire protocol that lib/pq and
// the other runners share). Rather than vendor a fabricated driver,
// Connect reports a ResourceError naming the gap; the rest of the
// contract (classification, DSN building, registry wiring) stands on
// its own so a real CQL client can be dropped in later.
package ycql

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/k0kubun/rqg/internal/rqgerrors"
	"github.com/k0kubun/rqg/internal/runner"
)

// Runner implements runner.Runner for YCQL's classification/DSN
// rules. See package doc for why Connect is unimplemented.
type Runner struct {
	cfg  runner.Config
	info runner.ConnInfo
}

// New constructs a YCQL runner, resolving contact-point/keyspace
// defaults from cfg.DSN.
func New(cfg runner.Config) (runner.Runner, error) {
	info, err := runner.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	info = runner.YCQLDefaults(info)
	return &Runner{cfg: cfg, info: info}, nil
}

func (r *Runner) Connect(ctx context.Context) error {
	return rqgerrors.NewResourceError("ycql.connect", 1, errUnsupportedDriver)
}

func (r *Runner) Close() error { return nil }

func (r *Runner) ExecuteOne(ctx context.Context, sql string) (runner.Outcome, error) {
	return runner.Outcome{}, errUnsupportedDriver
}

func (r *Runner) ExecuteDDL(ctx context.Context, sql string) (runner.Outcome, error) {
	return runner.Outcome{}, errUnsupportedDriver
}

func (r *Runner) IsDDL(sql string) bool {
	return runner.IsDDL(sql, runner.FlavorYCQL)
}

func (r *Runner) SetupSchema(ctx context.Context, ddls []string) error {
	return errUnsupportedDriver
}

func (r *Runner) ExecuteQueries(ctx context.Context, stmts <-chan string, progress func(runner.Stats)) (runner.Stats, error) {
	return runner.Stats{}, errUnsupportedDriver
}

// ContactPoint renders host:port for the parsed DSN, the form YCQL
// clients dial.
func (r *Runner) ContactPoint() string {
	return net.JoinHostPort(r.info.Host, strconv.Itoa(r.info.Port))
}

// Keyspace returns the keyspace named in the DSN's query string, if
// any.
func (r *Runner) Keyspace() string {
	return r.info.Keyspace
}

var errUnsupportedDriver = &unsupportedDriverError{}

type unsupportedDriverError struct{}

func (e *unsupportedDriverError) Error() string {
	return "ycql: no CQL driver wired (contact-point/classification logic only)"
}

// dialTimeout is the default connection attempt budget a real CQL
// client would use; kept here so a future driver swap has a value to
// start from.
const dialTimeout = 10 * time.Second

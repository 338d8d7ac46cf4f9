package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/k0kubun/rqg/internal/entropy"
	"github.com/k0kubun/rqg/internal/grammar"
	"github.com/k0kubun/rqg/internal/rqgerrors"
	"github.com/k0kubun/rqg/internal/runner"
	"github.com/k0kubun/rqg/internal/uniqueness"
	"github.com/k0kubun/rqg/internal/watchdog"
)

// errFailuresOccurred signals `exec --fail-on-errors` that at least
// one statement failed, so main can map it to a distinct non-zero
// exit code without conflating it with a config/usage error.
var errFailuresOccurred = errors.New("exec: one or more statements failed")

// ExecCommand implements the `exec` mode: generate statements from a
// grammar and drive them through a connected Runner, per spec.md §4.7.
type ExecCommand struct {
	CommonOptions

	Target        string `long:"target" description:"Runner to execute against: postgresql|ysql|ycql" default:"postgresql"`
	FailOnErrors  bool   `long:"fail-on-errors" description:"Exit non-zero if any statement failed"`
	NoUniqueness  bool   `long:"no-uniqueness" description:"Disable the uniqueness filter even with --use-filter"`
}

func (c *ExecCommand) Execute(args []string) error {
	g, ok := loadGrammar(c.Grammar)
	if !ok {
		return rqgerrors.NewConfigError("grammar", fmt.Errorf("unknown grammar %q", c.Grammar))
	}
	if err := g.Validate(); err != nil {
		return rqgerrors.NewConfigError("grammar", err)
	}
	if c.DSN == "" {
		return rqgerrors.NewConfigError("dsn", fmt.Errorf("--dsn (or PYRQG_DSN) is required"))
	}
	dsn, err := c.resolveDSN()
	if err != nil {
		return rqgerrors.NewConfigError("password-prompt", err)
	}

	cfg := runner.DefaultConfig(dsn)
	if c.Threads > 0 {
		cfg.Threads = c.Threads
	}
	if c.ProgressEvery > 0 {
		cfg.ProgressEvery = c.ProgressEvery
	}
	if c.UseFilter && !c.NoUniqueness {
		tracker := uniqueness.New(uniqueness.DefaultConfig())
		cfg.Filter = uniquenessFilter{tracker: tracker}
	}

	out, closeOut, err := openOutput(c.Output)
	if err != nil {
		return err
	}
	defer closeOut()
	reporter := runner.NewConsoleReporter(out, c.PrintErrors, c.ErrorSamples)
	cfg.OutcomeReporter = reporter.Outcome

	rb, err := runnerRegistry().Build(c.Target, cfg)
	if err != nil {
		return rqgerrors.NewConfigError("target", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rb.Connect(ctx); err != nil {
		return rqgerrors.NewConfigError("dsn", err)
	}
	defer rb.Close()

	var wd *watchdog.Watchdog
	if ws, ok := rb.(runner.WatcherSetter); ok {
		wd = watchdog.New(watchdog.Config{
			IntervalS:  time.Duration(c.WatchInterval) * time.Second,
			ThresholdS: time.Duration(c.WatchThreshold) * time.Second,
		}, func(sql string, elapsedSeconds int64) {
			fmt.Fprintf(os.Stderr, "watchdog: statement running %ds:\n%s\n", elapsedSeconds, sql)
		})
		ws.SetWatcher(wd)
		wd.Start(ctx)
		defer wd.Stop()
	}

	mgr := entropy.NewManager(c.Seed, c.Seed != 0)
	eng := grammar.NewEngine(mgr)

	stmts := make(chan string)
	genErrCh := make(chan error, 1)
	go func() {
		defer close(stmts)
		genErrCh <- generateInto(ctx, eng, g, c.GrammarRule, c.Count, c.Duration, c.seedPtr(), stmts, c.EchoQueries)
	}()

	stats, err := rb.ExecuteQueries(ctx, stmts, func(s runner.Stats) { reporter.Summary(s) })
	if err != nil {
		return rqgerrors.NewConfigError("exec", err)
	}
	if genErr := <-genErrCh; genErr != nil {
		return rqgerrors.NewConfigError("grammar", genErr)
	}

	reporter.Summary(stats)

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.FailOnErrors && stats.Failed > 0 {
		return errFailuresOccurred
	}
	return nil
}

// generateInto feeds count expansions of rule (or, when duration > 0,
// as many as fit in that many seconds) into stmts, echoing each to
// stderr when echo is set. It returns ctx.Err() on cancellation.
func generateInto(ctx context.Context, eng *grammar.Engine, g *grammar.Grammar, rule string, count, duration int, seed *int64, stmts chan<- string, echo bool) error {
	deadline := time.Time{}
	if duration > 0 {
		deadline = time.Now().Add(time.Duration(duration) * time.Second)
	}
	i := 0
	for {
		if duration > 0 {
			if time.Now().After(deadline) {
				return nil
			}
		} else if i >= count {
			return nil
		}

		var itemSeed *int64
		if seed != nil {
			s := *seed*1_000_003 + int64(i)
			itemSeed = &s
		}
		text, err := eng.Generate(g, rule, itemSeed)
		if err != nil {
			return err
		}
		if echo {
			fmt.Fprintln(os.Stderr, text)
		}
		select {
		case stmts <- text:
		case <-ctx.Done():
			return ctx.Err()
		}
		i++
	}
}

// uniquenessFilter adapts a uniqueness.Tracker to runner.Filter,
// skipping statements CheckAndAdd reports as duplicates.
type uniquenessFilter struct {
	tracker *uniqueness.Tracker
}

func (f uniquenessFilter) Filter(sql string) (*string, error) {
	if f.tracker.CheckAndAdd(sql) {
		return &sql, nil
	}
	return nil, nil
}

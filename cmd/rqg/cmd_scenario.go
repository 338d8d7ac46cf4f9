package main

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/k0kubun/rqg/internal/comparator"
	"github.com/k0kubun/rqg/internal/entropy"
	"github.com/k0kubun/rqg/internal/grammar"
	"github.com/k0kubun/rqg/internal/runner"
	"github.com/k0kubun/rqg/internal/uniqueness"
	"github.com/k0kubun/rqg/internal/watchdog"
)

// ScenarioCommand runs one of spec.md §8's end-to-end scenarios
// (S1-S7) as a self-contained smoke test against the built binary,
// printing PASS/FAIL with a one-line reason.
type ScenarioCommand struct {
	Name string `long:"name" description:"Scenario to run: s1|s2|s3|s4|s5|s6|s7|all" default:"all"`
}

func (c *ScenarioCommand) Execute(args []string) error {
	scenarios := map[string]func() error{
		"s1": scenarioS1Determinism,
		"s2": scenarioS2Weights,
		"s3": scenarioS3Template,
		"s4": scenarioS4Uniqueness,
		"s5": scenarioS5DDLBarrier,
		"s6": scenarioS6Watchdog,
		"s7": scenarioS7Comparator,
	}

	names := []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7"}
	if c.Name != "all" {
		if _, ok := scenarios[c.Name]; !ok {
			return fmt.Errorf("scenario: unknown scenario %q", c.Name)
		}
		names = []string{c.Name}
	}

	var failed int
	for _, n := range names {
		if err := scenarios[n](); err != nil {
			fmt.Printf("%s: FAIL: %v\n", n, err)
			failed++
			continue
		}
		fmt.Printf("%s: PASS\n", n)
	}
	if failed > 0 {
		return fmt.Errorf("scenario: %d of %d scenarios failed", failed, len(names))
	}
	return nil
}

func scenarioS1Determinism() error {
	g := grammar.New("s1")
	g.AddRule("query", grammar.Choice{
		Weights:  []float64{1, 1},
		Children: []grammar.Element{grammar.Literal{Text: "A"}, grammar.Literal{Text: "B"}},
	})

	seed := int64(42)
	run := func() ([]string, error) {
		eng := grammar.NewEngine(entropy.NewManager(seed, true))
		return eng.GenerateBatch(g, "query", 6, &seed)
	}

	first, err := run()
	if err != nil {
		return err
	}
	second, err := run()
	if err != nil {
		return err
	}
	if len(first) != len(second) {
		return fmt.Errorf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			return fmt.Errorf("diverged at index %d: %q vs %q", i, first[i], second[i])
		}
		if first[i] != "A" && first[i] != "B" {
			return fmt.Errorf("unexpected value %q", first[i])
		}
	}
	return nil
}

func scenarioS2Weights() error {
	g := grammar.New("s2")
	g.AddRule("query", grammar.Choice{
		Weights:  []float64{9, 1},
		Children: []grammar.Element{grammar.Literal{Text: "X"}, grammar.Literal{Text: "Y"}},
	})

	seed := int64(1)
	eng := grammar.NewEngine(entropy.NewManager(seed, true))
	texts, err := eng.GenerateBatch(g, "query", 10000, &seed)
	if err != nil {
		return err
	}
	var countY int
	for _, t := range texts {
		if t == "Y" {
			countY++
		}
	}
	if countY < 800 || countY > 1200 {
		return fmt.Errorf("count(Y)=%d outside [800, 1200]", countY)
	}
	return nil
}

func scenarioS3Template() error {
	g := grammar.New("s3")
	g.AddRule("query", grammar.Template{
		Text: "SELECT {c} FROM t WHERE id = {n}",
		Holes: map[string]grammar.Element{
			"c": grammar.Choice{Children: []grammar.Element{grammar.Literal{Text: "a"}, grammar.Literal{Text: "b"}}},
			"n": grammar.NumberRange{Lo: 1, Hi: 3},
		},
	})

	seed := int64(7)
	eng := grammar.NewEngine(entropy.NewManager(seed, true))
	texts, err := eng.GenerateBatch(g, "query", 200, &seed)
	if err != nil {
		return err
	}
	re := regexp.MustCompile(`^SELECT (a|b) FROM t WHERE id = [123]$`)
	for _, t := range texts {
		if !re.MatchString(t) {
			return fmt.Errorf("output %q does not match expected shape", t)
		}
	}
	return nil
}

func scenarioS4Uniqueness() error {
	cfg := uniqueness.DefaultConfig()
	cfg.TargetFPRate = 1e-4
	cfg.ExpectedItems = 1_000_000
	tracker := uniqueness.New(cfg)

	queries := make([]string, 1000)
	for i := range queries {
		queries[i] = fmt.Sprintf("SELECT %d", i)
	}

	var unique, dup int
	for _, q := range queries {
		if tracker.CheckAndAdd(q) {
			unique++
		} else {
			dup++
		}
	}
	if unique != 1000 || dup != 0 {
		return fmt.Errorf("after first pass: unique=%d duplicate=%d, want 1000/0", unique, dup)
	}

	unique, dup = 0, 0
	for _, q := range queries {
		if tracker.CheckAndAdd(q) {
			unique++
		} else {
			dup++
		}
	}
	if unique != 0 || dup != 1000 {
		return fmt.Errorf("after second pass: unique=%d duplicate=%d, want 0/1000", unique, dup)
	}
	return nil
}

type scenarioBarrierExecutor struct {
	mu        sync.Mutex
	starts    []time.Time
	ends      []time.Time
	ddlStart  time.Time
	ddlEnd    time.Time
	workDelay time.Duration
}

func (e *scenarioBarrierExecutor) ExecuteOne(ctx context.Context, sql string) (runner.Outcome, error) {
	start := time.Now()
	e.mu.Lock()
	e.starts = append(e.starts, start)
	e.mu.Unlock()
	time.Sleep(e.workDelay)
	end := time.Now()
	e.mu.Lock()
	e.ends = append(e.ends, end)
	e.mu.Unlock()
	return runner.Outcome{Symbol: runner.Success}, nil
}

func (e *scenarioBarrierExecutor) ExecuteDDL(ctx context.Context, sql string) (runner.Outcome, error) {
	e.ddlStart = time.Now()
	time.Sleep(e.workDelay)
	e.ddlEnd = time.Now()
	return runner.Outcome{Symbol: runner.Success}, nil
}

func scenarioS5DDLBarrier() error {
	ex := &scenarioBarrierExecutor{workDelay: time.Millisecond}
	stmts := make(chan string, 250)
	for i := 0; i < 100; i++ {
		stmts <- fmt.Sprintf("INSERT INTO t VALUES (%d)", i)
	}
	stmts <- "CREATE TABLE x (id int)"
	for i := 0; i < 100; i++ {
		stmts <- fmt.Sprintf("INSERT INTO t VALUES (%d)", 1000+i)
	}
	close(stmts)

	stats, err := runner.RunLoop(context.Background(), runner.Config{Threads: 8}, ex, runner.FlavorPostgreSQL, nil, stmts, nil)
	if err != nil {
		return err
	}
	if stats.Total != 201 {
		return fmt.Errorf("total=%d, want 201", stats.Total)
	}
	if len(ex.ends) != 200 {
		return fmt.Errorf("recorded %d completions, want 200", len(ex.ends))
	}
	for _, end := range ex.ends[:100] {
		if end.After(ex.ddlStart) {
			return fmt.Errorf("a first-batch insert ended after the DDL started")
		}
	}
	for _, start := range ex.starts[100:] {
		if start.Before(ex.ddlEnd) {
			return fmt.Errorf("a second-batch insert started before the DDL finished")
		}
	}
	return nil
}

func scenarioS6Watchdog() error {
	var reported int
	var elapsed int64
	var mu sync.Mutex

	wd := watchdog.New(watchdog.Config{
		IntervalS:  100 * time.Millisecond,
		ThresholdS: 1 * time.Second,
	}, func(sql string, elapsedSeconds int64) {
		mu.Lock()
		defer mu.Unlock()
		reported++
		elapsed = elapsedSeconds
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wd.Start(ctx)
	defer wd.Stop()

	wd.Register("slow", "SELECT pg_sleep(3)")
	time.Sleep(3500 * time.Millisecond)
	wd.Unregister("slow")

	mu.Lock()
	defer mu.Unlock()
	if reported != 1 {
		return fmt.Errorf("reporter invoked %d times, want exactly 1", reported)
	}
	if elapsed < 1 {
		return fmt.Errorf("reported elapsed=%ds, want >= 1", elapsed)
	}
	return nil
}

func scenarioS7Comparator() error {
	cmp := comparator.New(false)
	ctx := context.Background()

	match := cmp.Compare(ctx, "SELECT 1",
		comparator.SideResult{Status: comparator.StatusSuccess, IsSelect: true, Rows: [][]interface{}{{int64(1)}}},
		comparator.SideResult{Status: comparator.StatusSuccess, IsSelect: true, Rows: [][]interface{}{{int64(1)}}},
	)
	if !match.Matches {
		return fmt.Errorf("identical [[1]] vs [[1]] reported matches=false")
	}

	mismatch := cmp.Compare(ctx, "SELECT 1",
		comparator.SideResult{Status: comparator.StatusSuccess, IsSelect: true, Rows: [][]interface{}{{int64(1)}}},
		comparator.SideResult{Status: comparator.StatusSuccess, IsSelect: true, Rows: [][]interface{}{{int64(2)}}},
	)
	if mismatch.Matches {
		return fmt.Errorf("[[1]] vs [[2]] reported matches=true")
	}
	if len(mismatch.Differences) != 1 {
		return fmt.Errorf("got %d differences, want exactly 1", len(mismatch.Differences))
	}
	d := mismatch.Differences[0]
	if d.Row != 1 || d.Column != 1 {
		return fmt.Errorf("difference at row=%d column=%d, want row=1 column=1", d.Row, d.Column)
	}
	return nil
}

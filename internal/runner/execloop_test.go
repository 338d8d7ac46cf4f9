package runner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// barrierExecutor records the start/end time of every non-DDL
// statement and every DDL statement, so tests can assert the DDL
// barrier ordering from spec.md §8 scenario S5.
type barrierExecutor struct {
	mu        sync.Mutex
	starts    []time.Time
	ends      []time.Time
	ddlStart  time.Time
	ddlEnd    time.Time
	workDelay time.Duration
}

func (e *barrierExecutor) ExecuteOne(ctx context.Context, sql string) (Outcome, error) {
	start := time.Now()
	e.mu.Lock()
	e.starts = append(e.starts, start)
	e.mu.Unlock()

	time.Sleep(e.workDelay)

	end := time.Now()
	e.mu.Lock()
	e.ends = append(e.ends, end)
	e.mu.Unlock()
	return Outcome{Symbol: Success}, nil
}

func (e *barrierExecutor) ExecuteDDL(ctx context.Context, sql string) (Outcome, error) {
	e.ddlStart = time.Now()
	time.Sleep(e.workDelay)
	e.ddlEnd = time.Now()
	return Outcome{Symbol: Success}, nil
}

// S5: stream [INSERT x100, CREATE TABLE, INSERT x100] with threads=8
// must complete the DDL after all of the first 100 inserts return and
// before any of the second 100 starts.
func TestScenarioS5DDLBarrier(t *testing.T) {
	ex := &barrierExecutor{workDelay: time.Millisecond}
	stmts := make(chan string, 250)
	for i := 0; i < 100; i++ {
		stmts <- fmt.Sprintf("INSERT INTO t VALUES (%d)", i)
	}
	stmts <- "CREATE TABLE x (id int)"
	for i := 0; i < 100; i++ {
		stmts <- fmt.Sprintf("INSERT INTO t VALUES (%d)", 1000+i)
	}
	close(stmts)

	cfg := Config{Threads: 8}
	stats, err := RunLoop(context.Background(), cfg, ex, FlavorPostgreSQL, nil, stmts, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(201), stats.Total)

	require.Len(t, ex.ends, 200)
	firstBatchEnds := ex.ends[:100]
	secondBatchStarts := ex.starts[100:]

	for _, end := range firstBatchEnds {
		assert.True(t, !end.After(ex.ddlStart), "first-batch insert ended after DDL started")
	}
	for _, start := range secondBatchStarts {
		assert.True(t, !start.Before(ex.ddlEnd), "second-batch insert started before DDL finished")
	}
}

// fakeLoopExecutor is a simple success-always executor for outcome-
// totality style tests.
type fakeLoopExecutor struct{}

func (fakeLoopExecutor) ExecuteOne(ctx context.Context, sql string) (Outcome, error) {
	return Outcome{Symbol: Success}, nil
}
func (fakeLoopExecutor) ExecuteDDL(ctx context.Context, sql string) (Outcome, error) {
	return Outcome{Symbol: Success}, nil
}

// Property 7: total == success + failed, and symbols sums to total
// minus skipped.
func TestOutcomeTotalityProperty(t *testing.T) {
	stmts := make(chan string, 10)
	for i := 0; i < 10; i++ {
		stmts <- fmt.Sprintf("SELECT %d", i)
	}
	close(stmts)

	stats, err := RunLoop(context.Background(), Config{Threads: 4}, fakeLoopExecutor{}, FlavorPostgreSQL, nil, stmts, nil)
	require.NoError(t, err)
	assert.Equal(t, stats.Success+stats.Failed, stats.Total-stats.Skipped)

	var symbolSum int64
	for _, v := range stats.Symbols {
		symbolSum += v
	}
	assert.Equal(t, stats.Total-stats.Skipped, symbolSum)
}

type skipAllFilter struct{}

func (skipAllFilter) Filter(sql string) (*string, error) { return nil, nil }

func TestFilterSkipSuppressesExecution(t *testing.T) {
	stmts := make(chan string, 3)
	stmts <- "SELECT 1"
	stmts <- "SELECT 2"
	stmts <- "SELECT 3"
	close(stmts)

	cfg := Config{Threads: 2, Filter: skipAllFilter{}}
	stats, err := RunLoop(context.Background(), cfg, fakeLoopExecutor{}, FlavorPostgreSQL, nil, stmts, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Skipped)
	assert.Equal(t, int64(0), stats.Success)
}

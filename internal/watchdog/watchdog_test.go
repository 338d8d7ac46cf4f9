package watchdog

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S6: with threshold_s=1, interval_s=0.1, a statement sleeping 3s is
// reported exactly once with elapsed >= 1.
func TestScenarioS6ReportsOnce(t *testing.T) {
	var calls int32
	var lastElapsed int64
	reporter := func(sql string, elapsedSeconds int64) {
		atomic.AddInt32(&calls, 1)
		atomic.StoreInt64(&lastElapsed, elapsedSeconds)
	}

	w := New(Config{IntervalS: 100 * time.Millisecond, ThresholdS: time.Second}, reporter)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	w.Register("h1", "SELECT pg_sleep(3)")
	time.Sleep(1500 * time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.GreaterOrEqual(t, atomic.LoadInt64(&lastElapsed), int64(1))

	// Still in-flight past a second poll interval — must not report
	// again.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	w.Unregister("h1")
}

func TestUnregisterBeforeThresholdNeverReports(t *testing.T) {
	var calls int32
	reporter := func(sql string, elapsedSeconds int64) { atomic.AddInt32(&calls, 1) }

	w := New(Config{IntervalS: 50 * time.Millisecond, ThresholdS: 500 * time.Millisecond}, reporter)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	w.Register("fast", "SELECT 1")
	time.Sleep(100 * time.Millisecond)
	w.Unregister("fast")
	time.Sleep(600 * time.Millisecond)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestSnapshotReflectsInFlight(t *testing.T) {
	w := New(DefaultConfig(), nil)
	w.Register("a", "SELECT 1")
	w.Register("b", "SELECT 2")

	snap := w.Snapshot()
	require.Len(t, snap, 2)
	for _, e := range snap {
		assert.GreaterOrEqual(t, e.Elapsed, time.Duration(0))
		assert.False(t, e.Reported)
	}
}

func TestFormatMultilineInsertsClauseBreaks(t *testing.T) {
	out := formatMultiline("SELECT * FROM t WHERE id = 1 ORDER BY id")
	assert.Contains(t, out, "\nFROM")
	assert.Contains(t, out, "\nWHERE")
	assert.Contains(t, out, "\nORDER BY")
}

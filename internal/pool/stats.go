package pool

import (
	"sync/atomic"
	"time"
)

// workerStats holds one worker's lock-free running counters.
type workerStats struct {
	generated        atomic.Int64
	batchesCompleted atomic.Int64
	errors           atomic.Int64
	idleNanos        atomic.Int64
	generationNanos  atomic.Int64
	lastActivity     atomic.Int64 // unix nanos
}

// statsRegistry owns one workerStats per worker slot plus the pool's
// start time, used to compute aggregate QPS and efficiency.
type statsRegistry struct {
	start   time.Time
	workers []*workerStats
}

func newStatsRegistry(n int) *statsRegistry {
	r := &statsRegistry{start: time.Now(), workers: make([]*workerStats, n)}
	for i := range r.workers {
		r.workers[i] = &workerStats{}
	}
	return r
}

func (r *statsRegistry) forWorker(id int) *workerStats {
	return r.workers[id]
}

// WorkerStats is a point-in-time snapshot of one worker's counters.
type WorkerStats struct {
	WorkerID         int
	Generated        int64
	BatchesCompleted int64
	Errors           int64
	IdleTime         time.Duration
	GenerationTime   time.Duration
	LastActivity     time.Time
}

// Stats is the aggregate snapshot returned by Pool.Stats.
type Stats struct {
	Elapsed          time.Duration
	TotalGenerated   int64
	TotalBatches     int64
	TotalErrors      int64
	QueriesPerSecond float64
	Efficiency       float64 // fraction of total worker time spent generating, not idle
	Workers          []WorkerStats
}

func (r *statsRegistry) snapshot() Stats {
	elapsed := time.Since(r.start)
	s := Stats{Elapsed: elapsed, Workers: make([]WorkerStats, len(r.workers))}

	var totalIdle, totalGen int64
	for i, w := range r.workers {
		gen := w.generated.Load()
		batches := w.batchesCompleted.Load()
		errs := w.errors.Load()
		idleNanos := w.idleNanos.Load()
		genNanos := w.generationNanos.Load()
		last := w.lastActivity.Load()

		s.TotalGenerated += gen
		s.TotalBatches += batches
		s.TotalErrors += errs
		totalIdle += idleNanos
		totalGen += genNanos

		var lastActivity time.Time
		if last > 0 {
			lastActivity = time.Unix(0, last)
		}

		s.Workers[i] = WorkerStats{
			WorkerID:         i,
			Generated:        gen,
			BatchesCompleted: batches,
			Errors:           errs,
			IdleTime:         time.Duration(idleNanos),
			GenerationTime:   time.Duration(genNanos),
			LastActivity:     lastActivity,
		}
	}

	if elapsed.Seconds() > 0 {
		s.QueriesPerSecond = float64(s.TotalGenerated) / elapsed.Seconds()
	}
	if total := totalIdle + totalGen; total > 0 {
		s.Efficiency = float64(totalGen) / float64(total)
	}
	return s
}

// Package production implements the Production Orchestrator (spec
// T1): it wires the Worker Pool, Uniqueness Filter, and Entropy
// Manager together, drives a target count or runs until its context
// is cancelled, and periodically checkpoints and exports monitoring
// metrics.
//
// Grounded on pyrqg/production/production_rqg.py (monitor loop, alert
// thresholds, checkpoint cadence) and the teacher's
// cmd/psqldef/psqldef.go signal-handling idiom
// (signal.NotifyContext), which the CLI layer uses to build the
// context passed to Generate.
package production

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/k0kubun/rqg/internal/checkpoint"
	"github.com/k0kubun/rqg/internal/entropy"
	"github.com/k0kubun/rqg/internal/metrics"
	"github.com/k0kubun/rqg/internal/pool"
	"github.com/k0kubun/rqg/internal/rqglog"
	"github.com/k0kubun/rqg/internal/uniqueness"
)

// Sink receives every unique query the orchestrator emits.
type Sink interface {
	Emit(query string) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(query string) error

func (f SinkFunc) Emit(query string) error { return f(query) }

// Stats is the orchestrator's running counters, the superset that
// checkpoint.Stats is drawn from.
type Stats struct {
	TotalGenerated int64
	UniqueEmitted  int64
	Duplicates     int64
	Failed         int64
}

// Orchestrator is the Production Orchestrator.
type Orchestrator struct {
	cfg     Config
	pool    *pool.Pool
	tracker *uniqueness.Tracker
	handle  *entropy.Handle
	metrics *metrics.Exporter
	log     *slog.Logger

	weights []float64

	mu    sync.Mutex
	stats Stats
}

// New builds an Orchestrator. metricsExp and log may be nil (no
// metrics export / discard logging, respectively).
func New(cfg Config, p *pool.Pool, tracker *uniqueness.Tracker, mgr *entropy.Manager, metricsExp *metrics.Exporter, log *slog.Logger) (*Orchestrator, error) {
	if len(cfg.Grammars) == 0 {
		return nil, fmt.Errorf("production: config has no grammars")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if log == nil {
		log = rqglog.Discard()
	}
	return &Orchestrator{
		cfg:     cfg,
		pool:    p,
		tracker: tracker,
		handle:  mgr.Handle("production"),
		metrics: metricsExp,
		log:     log,
		weights: normalizeWeights(cfg.Grammars),
	}, nil
}

// Stats returns a snapshot of the orchestrator's running counters.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// Resume seeds the orchestrator's counters from a checkpoint read on
// startup, per spec.md §3's "Checkpoint... read on resume": the
// counters carry forward so Generate's final Stats and the next
// checkpoint reflect the whole run, not just this process's share of
// it. The uniqueness tracker's bit array is not restored here — per
// this package's own Open Question decision, only the resume counters
// are checkpointed, so duplicates already seen before the restart can
// resurface after one; that is the accepted tradeoff, not a bug.
func (o *Orchestrator) Resume(cp checkpoint.Checkpoint) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats.TotalGenerated = cp.Stats.TotalQueriesGenerated
	o.stats.UniqueEmitted = cp.Stats.UniqueQueries
	o.stats.Duplicates = cp.Stats.DuplicateQueries
	o.stats.Failed = cp.Stats.FailedQueries
}

// Generate produces up to count unique queries, emitting each to
// sink, per spec.md §4.9: "generate(count, output?) -> int". It
// returns the number of unique queries emitted. Cancelling ctx
// triggers graceful shutdown: the in-flight batch is drained (bounded
// by cfg.DrainTimeoutMS), a final checkpoint is written if
// cfg.CheckpointPath is set, and Generate returns ctx.Err().
func (o *Orchestrator) Generate(ctx context.Context, count int, sink Sink) (int, error) {
	start := time.Now()
	lastTick := start
	var lastTickTotal int64
	var priorOverallQPS float64
	var lastCheckpoint int64

	remaining := count
	for remaining > 0 {
		select {
		case <-ctx.Done():
			o.shutdown()
			return int(o.Stats().UniqueEmitted), ctx.Err()
		default:
		}

		n := o.cfg.BatchSize
		if n > remaining {
			n = remaining
		}
		remaining -= n

		idx := o.handle.WeightedChoice(o.weights)
		gw := o.cfg.Grammars[idx]

		params := map[string]string{"rule": gw.Rule}
		future, err := o.pool.SubmitBatch(gw.Grammar, n, params)
		if err != nil {
			return int(o.Stats().UniqueEmitted), fmt.Errorf("production: submit: %w", err)
		}
		batch, err := future.Wait(ctx)
		if err != nil {
			o.shutdown()
			return int(o.Stats().UniqueEmitted), err
		}

		o.mu.Lock()
		if batch.Err != nil {
			o.stats.Failed += int64(n)
			o.mu.Unlock()
			o.log.Warn("batch failed", "grammar", gw.Grammar, "error", batch.Err)
			continue
		}
		for _, text := range batch.Texts {
			o.stats.TotalGenerated++
			if o.tracker.CheckAndAdd(text) {
				o.stats.UniqueEmitted++
				o.mu.Unlock()
				if err := sink.Emit(text); err != nil {
					return int(o.Stats().UniqueEmitted), fmt.Errorf("production: sink: %w", err)
				}
				o.mu.Lock()
			} else {
				o.stats.Duplicates++
			}
		}
		total := o.stats.TotalGenerated
		o.mu.Unlock()

		if o.cfg.MonitorInterval > 0 && total/o.cfg.MonitorInterval != lastTickTotal/o.cfg.MonitorInterval {
			now := time.Now()
			sample := o.sampleFor(now, start, lastTick, lastTickTotal, priorOverallQPS)
			result := sample.evaluate(o.cfg)
			o.report(result)
			priorOverallQPS = result.record.OverallQPS
			lastTick = now
			lastTickTotal = total
		}

		if o.cfg.CheckpointEvery > 0 && total/o.cfg.CheckpointEvery != lastCheckpoint/o.cfg.CheckpointEvery {
			o.writeCheckpoint()
			lastCheckpoint = total
		}
	}

	o.writeCheckpoint()
	return int(o.Stats().UniqueEmitted), nil
}

// GenerateStream is generate_batch's lazy-stream form (spec.md §4.9):
// it runs Generate in a goroutine against a channel sink and returns
// the channel, closed when generation completes or ctx is cancelled.
func (o *Orchestrator) GenerateStream(ctx context.Context, count int) <-chan string {
	out := make(chan string, o.cfg.BatchSize)
	go func() {
		defer close(out)
		sink := SinkFunc(func(q string) error {
			select {
			case out <- q:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		o.Generate(ctx, count, sink)
	}()
	return out
}

func (o *Orchestrator) sampleFor(now, start, lastTick time.Time, lastTickTotal int64, priorOverallQPS float64) monitorSample {
	st := o.Stats()
	poolStats := o.pool.Stats()
	workers := make([]metrics.WorkerStat, len(poolStats.Workers))
	for i, w := range poolStats.Workers {
		workers[i] = metrics.WorkerStat{
			WorkerID:  w.WorkerID,
			Generated: w.Generated,
			Batches:   w.BatchesCompleted,
			Errors:    w.Errors,
			IdleMS:    float64(w.IdleTime.Milliseconds()),
		}
	}
	return monitorSample{
		now: now, start: start, lastTick: lastTick,
		totalGenerated: st.TotalGenerated, lastTickTotal: lastTickTotal,
		uniqueEmitted: st.UniqueEmitted, duplicates: st.Duplicates, failed: st.Failed,
		priorOverallQPS: priorOverallQPS, workers: workers,
	}
}

func (o *Orchestrator) report(result monitorResult) {
	if o.metrics != nil {
		if err := o.metrics.Write(result.record); err != nil {
			o.log.Warn("metrics export failed", "error", err)
		}
	}
	for _, a := range result.alerts {
		o.log.Warn("production alert", "message", a)
	}
}

func (o *Orchestrator) writeCheckpoint() {
	if o.cfg.CheckpointPath == "" {
		return
	}
	st := o.Stats()
	u := o.tracker.Snapshot()
	cp := checkpoint.Checkpoint{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Stats: checkpoint.Stats{
			TotalQueriesGenerated: st.TotalGenerated,
			UniqueQueries:         st.UniqueEmitted,
			DuplicateQueries:      st.Duplicates,
			FailedQueries:         st.Failed,
		},
		EntropyStats:    o.handle.StateFingerprint(),
		UniquenessStats: u,
	}
	if err := checkpoint.Write(o.cfg.CheckpointPath, cp); err != nil {
		o.log.Warn("checkpoint write failed", "error", err)
	}
}

// shutdown performs the graceful-shutdown sequence named in
// spec.md §4.9: shut the pool down, waiting up to cfg.DrainTimeoutMS
// for its workers to finish, then write a final checkpoint.
func (o *Orchestrator) shutdown() {
	o.pool.Shutdown(true, time.Duration(o.cfg.DrainTimeoutMS)*time.Millisecond)
	o.writeCheckpoint()
}

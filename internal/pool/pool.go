// Package pool implements the Worker Pool (spec M2): a batched
// producer/consumer with backpressure and per-worker statistics.
//
// Futures and ordered-result collection are grounded on the teacher's
// database.ConcurrentMapFuncWithError (database/concurrent.go).
package pool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/k0kubun/rqg/internal/entropy"
	"github.com/k0kubun/rqg/internal/grammar"
)

// Batch is the unit of work produced by one worker, per spec.md §3
// "Batch".
type Batch struct {
	Grammar   string
	Count     int
	Params    map[string]string
	CreatedAt time.Time

	Texts []string
	Err   error
}

// Future is a single-assignment handle to a Batch result, resolved
// exactly once by the worker that claims the corresponding job.
type Future struct {
	done chan struct{}
	once sync.Once
	res  Batch
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(b Batch) {
	f.once.Do(func() {
		f.res = b
		close(f.done)
	})
}

// Wait blocks until the batch completes or ctx is cancelled.
func (f *Future) Wait(ctx context.Context) (Batch, error) {
	select {
	case <-f.done:
		return f.res, nil
	case <-ctx.Done():
		return Batch{}, ctx.Err()
	}
}

// Ready reports whether the future has resolved, without blocking.
func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// job is one pending unit of work in the pool's input queue.
type job struct {
	batch  Batch
	future *Future
}

// Config configures a Pool.
type Config struct {
	Threads               int
	QueueSize             int
	BackpressureThreshold float64 // fill ratio above which submission sleeps
	MaxOutstandingPerProd int     // threads * 10 default, computed if 0
}

// DefaultConfig returns spec.md's stated defaults: hardware thread
// count capped at 64, queue size 10000, backpressure at 0.8 fill.
func DefaultConfig() Config {
	threads := runtime.NumCPU()
	if threads > 64 {
		threads = 64
	}
	if threads < 1 {
		threads = 1
	}
	return Config{
		Threads:               threads,
		QueueSize:             10000,
		BackpressureThreshold: 0.8,
	}
}

// Expander produces the texts for one batch; implemented by
// internal/grammar.Engine in production, and by a stub in tests.
type Expander interface {
	GenerateBatch(g *grammar.Grammar, rule string, count int, seed *int64) ([]string, error)
}

// Pool is the Worker Pool: N worker goroutines draining a bounded
// input queue and publishing resolved Futures.
type Pool struct {
	cfg      Config
	expander Expander
	grammars map[string]*grammar.Grammar
	entropy  *entropy.Manager

	input chan job

	wg      sync.WaitGroup
	stats   *statsRegistry
	closing chan struct{}
	closed  bool
	mu      sync.Mutex
}

// New builds a Pool and starts its worker goroutines.
func New(cfg Config, expander Expander, grammars map[string]*grammar.Grammar, mgr *entropy.Manager) *Pool {
	if cfg.Threads <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BackpressureThreshold <= 0 {
		cfg.BackpressureThreshold = 0.8
	}
	if cfg.MaxOutstandingPerProd <= 0 {
		cfg.MaxOutstandingPerProd = cfg.Threads * 10
	}

	p := &Pool{
		cfg:      cfg,
		expander: expander,
		grammars: grammars,
		entropy:  mgr,
		input:    make(chan job, cfg.QueueSize),
		stats:    newStatsRegistry(cfg.Threads),
		closing:  make(chan struct{}),
	}

	for i := 0; i < cfg.Threads; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	ws := p.stats.forWorker(id)
	for {
		idleStart := time.Now()
		select {
		case j, ok := <-p.input:
			ws.idleNanos.Add(time.Since(idleStart).Nanoseconds())
			if !ok {
				return
			}
			p.run(id, ws, j)
		case <-p.closing:
			return
		}
	}
}

func (p *Pool) run(workerID int, ws *workerStats, j job) {
	genStart := time.Now()
	g, ok := p.grammars[j.batch.Grammar]
	if !ok {
		j.batch.Err = fmt.Errorf("pool: unknown grammar %q", j.batch.Grammar)
		ws.errors.Add(1)
		j.future.resolve(j.batch)
		return
	}

	var seed *int64
	if s, ok := j.batch.Params["seed"]; ok {
		var v int64
		if _, err := fmt.Sscanf(s, "%d", &v); err == nil {
			seed = &v
		}
	}
	rule := "query"
	if r, ok := j.batch.Params["rule"]; ok && r != "" {
		rule = r
	}

	texts, err := p.expander.GenerateBatch(g, rule, j.batch.Count, seed)
	ws.generationNanos.Add(time.Since(genStart).Nanoseconds())
	if err != nil {
		j.batch.Err = err
		ws.errors.Add(1)
	} else {
		j.batch.Texts = texts
		ws.generated.Add(int64(len(texts)))
	}
	ws.batchesCompleted.Add(1)
	ws.lastActivity.Store(time.Now().UnixNano())
	j.future.resolve(j.batch)
}

// fillRatio reports the input queue's current fill ratio, used by
// SubmitBatch's backpressure sleep.
func (p *Pool) fillRatio() float64 {
	return float64(len(p.input)) / float64(cap(p.input))
}

// SubmitBatch enqueues one batch job and returns its Future. When the
// queue's fill ratio exceeds the backpressure threshold, submission
// sleeps proportionally to the excess over the threshold, per
// spec.md §4.6.
func (p *Pool) SubmitBatch(g string, count int, params map[string]string) (*Future, error) {
	if ratio := p.fillRatio(); ratio > p.cfg.BackpressureThreshold {
		excess := ratio - p.cfg.BackpressureThreshold
		time.Sleep(time.Duration(excess*500) * time.Millisecond)
	}

	f := newFuture()
	b := Batch{Grammar: g, Count: count, Params: params, CreatedAt: time.Now()}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("pool: submit after shutdown")
	}

	select {
	case p.input <- job{batch: b, future: f}:
		return f, nil
	case <-p.closing:
		return nil, fmt.Errorf("pool: submit after shutdown")
	}
}

// SubmitBatches splits total into batches of batchSize and submits
// them all, draining completed futures once the number outstanding
// exceeds threads*10, per spec.md §4.6.
func (p *Pool) SubmitBatches(g string, total, batchSize int, params map[string]string) ([]*Future, error) {
	var futures []*Future
	remaining := total
	for remaining > 0 {
		n := batchSize
		if n > remaining {
			n = remaining
		}
		f, err := p.SubmitBatch(g, n, params)
		if err != nil {
			return futures, err
		}
		futures = append(futures, f)
		remaining -= n

		if len(futures) > p.cfg.MaxOutstandingPerProd {
			futures = p.drainCompleted(futures)
		}
	}
	return futures, nil
}

// drainCompleted blocks until the oldest outstanding future resolves,
// then returns the still-outstanding tail — the producer-side
// backpressure behavior named in spec.md §4.6.
func (p *Pool) drainCompleted(futures []*Future) []*Future {
	if len(futures) == 0 {
		return futures
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	futures[0].Wait(ctx)
	return futures[1:]
}

// Stats returns a snapshot of aggregate and per-worker statistics.
func (p *Pool) Stats() Stats {
	return p.stats.snapshot()
}

// Shutdown closes the input queue, stops accepting new submissions,
// and waits (up to timeout) for in-flight work to drain. If wait is
// false, it returns immediately after signaling shutdown.
func (p *Pool) Shutdown(wait bool, timeout time.Duration) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.closing)
	close(p.input)
	p.mu.Unlock()

	if !wait {
		return
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
}

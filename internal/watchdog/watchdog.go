// Package watchdog implements the long-running-statement watchdog
// (spec M4): a background poller that reports any in-flight statement
// whose elapsed time exceeds a threshold, at most once per statement.
package watchdog

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Entry is one in-flight statement tracked by the watchdog.
type Entry struct {
	Handle   string
	SQL      string
	Started  time.Time
	Elapsed  time.Duration
	Reported bool
}

// Reporter is invoked when a statement exceeds the threshold, with
// the SQL reformatted per spec.md §4.8 (newline before major clauses)
// and the elapsed whole seconds.
type Reporter func(sql string, elapsedSeconds int64)

// Config controls polling cadence and the report threshold.
type Config struct {
	IntervalS  time.Duration
	ThresholdS time.Duration
}

// DefaultConfig returns spec.md's stated defaults: poll every 5s,
// report statements running longer than 300s.
func DefaultConfig() Config {
	return Config{IntervalS: 5 * time.Second, ThresholdS: 300 * time.Second}
}

// Watchdog tracks in-flight statements and polls them on a ticker.
type Watchdog struct {
	cfg      Config
	reporter Reporter

	mu      sync.Mutex
	entries map[string]*Entry

	stop chan struct{}
	wg   sync.WaitGroup
}

// New builds a Watchdog. Start must be called to begin polling.
func New(cfg Config, reporter Reporter) *Watchdog {
	return &Watchdog{
		cfg:      cfg,
		reporter: reporter,
		entries:  make(map[string]*Entry),
		stop:     make(chan struct{}),
	}
}

// Register records a newly-started statement under handle.
func (w *Watchdog) Register(handle, sql string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries[handle] = &Entry{Handle: handle, SQL: sql, Started: time.Now()}
}

// Unregister drops a completed statement.
func (w *Watchdog) Unregister(handle string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.entries, handle)
}

// Snapshot returns the current in-flight set, per spec.md §4.8's
// `snapshot() -> [{elapsed, sql, reported}]`.
func (w *Watchdog) Snapshot() []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Entry, 0, len(w.entries))
	now := time.Now()
	for _, e := range w.entries {
		out = append(out, Entry{
			Handle:   e.Handle,
			SQL:      e.SQL,
			Started:  e.Started,
			Elapsed:  now.Sub(e.Started),
			Reported: e.Reported,
		})
	}
	return out
}

// Start begins the background poll loop; call Stop (or cancel ctx) to
// end it.
func (w *Watchdog) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.IntervalS)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.poll()
			case <-w.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the poll loop and waits for it to exit.
func (w *Watchdog) Stop() {
	close(w.stop)
	w.wg.Wait()
}

func (w *Watchdog) poll() {
	now := time.Now()
	w.mu.Lock()
	var toReport []*Entry
	for _, e := range w.entries {
		if e.Reported {
			continue
		}
		if now.Sub(e.Started) >= w.cfg.ThresholdS {
			e.Reported = true
			toReport = append(toReport, e)
		}
	}
	w.mu.Unlock()

	for _, e := range toReport {
		if w.reporter != nil {
			w.reporter(formatMultiline(e.SQL), int64(now.Sub(e.Started).Seconds()))
		}
	}
}

// formatMultiline inserts a newline before major SQL clauses, per
// spec.md §4.8's "formatted multi-line form of the SQL" requirement.
func formatMultiline(sql string) string {
	clauses := []string{"FROM", "WHERE", "GROUP BY", "ORDER BY", "HAVING", "LIMIT", "JOIN"}
	out := sql
	for _, c := range clauses {
		out = strings.ReplaceAll(out, " "+c+" ", "\n"+c+" ")
		out = strings.ReplaceAll(out, " "+strings.ToLower(c)+" ", "\n"+c+" ")
	}
	return out
}

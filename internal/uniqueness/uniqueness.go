// Package uniqueness implements the Uniqueness Filter (spec L2): a
// rotating Bloom filter over normalized query hashes, with three
// operating modes (Strict, Probabilistic, None).
package uniqueness

import (
	"sync"

	"github.com/k0kubun/rqg/internal/bloom"
	"github.com/k0kubun/rqg/internal/qhash"
)

// Mode selects the uniqueness-checking strategy, per spec.md §4.3.
type Mode int

const (
	// Strict provisions 4x the bits needed for the target rate,
	// yielding an effective false-positive rate <= 1e-6.
	Strict Mode = iota
	// Probabilistic uses a configurable target false-positive rate
	// (default 1e-4).
	Probabilistic
	// None always reports unique and keeps no state.
	None
)

// DefaultProbabilisticRate is Probabilistic mode's default p.
const DefaultProbabilisticRate = 1e-4

// DefaultRotationInterval is the insertion count at which a cell
// rotates into the archive (spec.md §4.3).
const DefaultRotationInterval = 100_000_000

// DefaultArchiveCap bounds the archived-cell FIFO.
const DefaultArchiveCap = 10

// Config configures a Tracker.
type Config struct {
	Mode             Mode
	ExpectedItems    uint64  // n, used to size each Bloom cell
	TargetFPRate     float64 // p; ignored for Strict/None
	MaxBitsPerCell   uint64  // memory cap per cell, 0 = unbounded
	RotationInterval int64
	ArchiveCap       int
	HashOptions      qhash.Options
}

// DefaultConfig returns a Probabilistic-mode config sized for one
// million expected items, matching spec.md's stated default. Hashing
// collapses whitespace and folds case but does not mask literals, so
// queries that differ only in a literal value count as distinct.
func DefaultConfig() Config {
	return Config{
		Mode:             Probabilistic,
		ExpectedItems:    1_000_000,
		TargetFPRate:     DefaultProbabilisticRate,
		RotationInterval: DefaultRotationInterval,
		ArchiveCap:       DefaultArchiveCap,
		HashOptions:      qhash.Options{CollapseWhitespace: true, Upcase: true},
	}
}

// Tracker owns a current Bloom cell plus a bounded FIFO of archived
// cells, so lookups consult the union of current and archive.
type Tracker struct {
	cfg Config

	mu      sync.Mutex
	current *bloom.Filter
	archive []*bloom.Filter

	totalQueries     int64
	uniqueQueries    int64
	duplicateQueries int64
}

// New builds a Tracker from cfg.
func New(cfg Config) *Tracker {
	t := &Tracker{cfg: cfg}
	if cfg.Mode != None {
		t.current = t.newCell()
	}
	return t
}

func (t *Tracker) newCell() *bloom.Filter {
	p := t.cfg.TargetFPRate
	if p <= 0 {
		p = DefaultProbabilisticRate
	}
	if t.cfg.Mode == Strict {
		// Provision 4x the bits of a default-rate cell for the same
		// item count, per spec.md §4.3 ("effective false-positive <=
		// 1e-6 by provisioning 4x bits").
		return bloom.New(t.cfg.ExpectedItems*4, DefaultProbabilisticRate, t.cfg.MaxBitsPerCell*4)
	}
	return bloom.New(t.cfg.ExpectedItems, p, t.cfg.MaxBitsPerCell)
}

// CheckAndAdd returns true iff the normalized form of q was probably
// not seen before, and records it either way (except in None mode,
// which is always unique and stateless). Totals are updated
// atomically with the check: after every call, unique+duplicate ==
// total (spec.md §8 property 3).
func (t *Tracker) CheckAndAdd(q string) bool {
	if t.cfg.Mode == None {
		t.mu.Lock()
		t.totalQueries++
		t.uniqueQueries++
		t.mu.Unlock()
		return true
	}

	digest := qhash.HashQuery(q, t.cfg.HashOptions)

	t.mu.Lock()
	defer t.mu.Unlock()

	seen := t.lookupLocked(digest)
	t.totalQueries++
	if seen {
		t.duplicateQueries++
		return false
	}

	t.current.Add(digest)
	t.uniqueQueries++
	if t.current.Inserted() >= t.cfg.RotationInterval {
		t.rotateLocked()
	}
	return true
}

// CheckOnly reports membership without adding or updating counters.
func (t *Tracker) CheckOnly(q string) bool {
	if t.cfg.Mode == None {
		return false
	}
	digest := qhash.HashQuery(q, t.cfg.HashOptions)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lookupLocked(digest)
}

func (t *Tracker) lookupLocked(digest [32]byte) bool {
	for _, cell := range t.archive {
		if cell.Test(digest) {
			return true
		}
	}
	return t.current.Test(digest)
}

// rotateLocked must be called with t.mu held: it archives the current
// cell and creates a fresh one, bounding the archive to ArchiveCap
// entries (spec.md §4.3 "Rotation").
func (t *Tracker) rotateLocked() {
	archiveCap := t.cfg.ArchiveCap
	if archiveCap <= 0 {
		archiveCap = DefaultArchiveCap
	}
	t.archive = append(t.archive, t.current)
	if len(t.archive) > archiveCap {
		t.archive = t.archive[len(t.archive)-archiveCap:]
	}
	t.current = t.newCell()
}

// Stats is a point-in-time summary of tracker counters.
type Stats struct {
	Total      int64
	Unique     int64
	Duplicate  int64
	ArchiveLen int
	LiveFPR    float64
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	var fpr float64
	if t.current != nil {
		fpr = t.current.EstimatedFalsePositiveRate()
	}
	return Stats{
		Total:      t.totalQueries,
		Unique:     t.uniqueQueries,
		Duplicate:  t.duplicateQueries,
		ArchiveLen: len(t.archive),
		LiveFPR:    fpr,
	}
}

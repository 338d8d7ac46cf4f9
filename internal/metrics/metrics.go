// Package metrics implements the production orchestrator's append-
// only JSON Lines export, per spec.md §6 "Metrics export format".
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// WorkerStat is one worker's contribution to a metrics line.
type WorkerStat struct {
	WorkerID  int     `json:"worker_id"`
	Generated int64   `json:"generated"`
	Batches   int64   `json:"batches"`
	Errors    int64   `json:"errors"`
	IdleMS    float64 `json:"idle_ms"`
}

// Record is a single JSONL line emitted every monitor_interval
// queries, per spec.md §4.9 "Monitoring".
type Record struct {
	Timestamp      string       `json:"timestamp"`
	TotalGenerated int64        `json:"total_generated"`
	IntervalQPS    float64      `json:"interval_qps"`
	OverallQPS     float64      `json:"overall_qps"`
	UniquenessRate float64      `json:"uniqueness_rate"`
	MemoryMB       float64      `json:"memory_mb"`
	Workers        []WorkerStat `json:"workers"`
}

// Exporter appends Records to its own JSONL file, serializing
// concurrent writers with a mutex (checkpoint writes are serialized
// per spec.md §5; metrics writes follow the same rule).
type Exporter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// Open appends to (creating if absent) the JSONL file at path.
func Open(path string) (*Exporter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("metrics: open: %w", err)
	}
	return &Exporter{file: f, enc: json.NewEncoder(f)}, nil
}

// Write appends one Record as a single JSON line.
func (e *Exporter) Write(r Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(r)
}

// Close closes the underlying file.
func (e *Exporter) Close() error {
	return e.file.Close()
}

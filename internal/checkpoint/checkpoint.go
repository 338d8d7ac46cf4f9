// Package checkpoint implements atomic write/read of the production
// orchestrator's resume snapshot, per spec.md §6 "Checkpoint file
// format". Per design note open question: "resume counters only" —
// the Bloom filter's bit-array contents are not persisted.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Stats is the subset of orchestrator counters checkpointed, per
// spec.md §3 "Checkpoint".
type Stats struct {
	TotalQueriesGenerated int64 `json:"total_queries_generated"`
	UniqueQueries         int64 `json:"unique_queries"`
	DuplicateQueries      int64 `json:"duplicate_queries"`
	FailedQueries         int64 `json:"failed_queries"`
}

// Checkpoint is the JSON document written atomically and read on
// resume.
type Checkpoint struct {
	Timestamp       string      `json:"timestamp"`
	Stats           Stats       `json:"stats"`
	EntropyStats    string      `json:"entropy_stats"`
	UniquenessStats interface{} `json:"uniqueness_stats"`
}

// Write serializes cp to path via a temp-file-plus-rename, per
// spec.md §6: "Written atomically via temp-file-plus-rename". No
// teacher file performs an atomic file swap (adapter/file only reads
// DDL from disk), so this follows the spec's literal wording using
// the standard os.CreateTemp+os.Rename idiom rather than an adapted
// teacher routine.
func Write(path string, cp Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("checkpoint: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("checkpoint: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("checkpoint: close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("checkpoint: rename: %w", err)
	}
	return nil
}

// Read loads a checkpoint written by Write.
func Read(path string) (Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: read: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: unmarshal: %w", err)
	}
	return cp, nil
}

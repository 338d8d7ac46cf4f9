package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.json")

	cp := Checkpoint{
		Timestamp: "2026-07-31T00:00:00Z",
		Stats: Stats{
			TotalQueriesGenerated: 1000,
			UniqueQueries:         990,
			DuplicateQueries:      10,
			FailedQueries:         2,
		},
		EntropyStats: "abcd1234",
	}

	require.NoError(t, Write(path, cp))
	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, cp.Stats, got.Stats)
	assert.Equal(t, cp.Timestamp, got.Timestamp)
}

func TestWriteLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.json")
	require.NoError(t, Write(path, Checkpoint{}))

	entries, err := filepathGlobTmp(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func filepathGlobTmp(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, ".checkpoint-*.tmp"))
}

func TestReadMissingFileErrors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

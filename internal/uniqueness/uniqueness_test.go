package uniqueness

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAndAddMonotonicity(t *testing.T) {
	tr := New(DefaultConfig())
	for i := 0; i < 100; i++ {
		before := tr.Snapshot()
		tr.CheckAndAdd(fmt.Sprintf("SELECT %d", i))
		after := tr.Snapshot()
		assert.Equal(t, before.Total+1, after.Total)
		assert.Equal(t, after.Unique+after.Duplicate, after.Total)
	}
}

func TestDuplicateDetectionAcrossTwoPasses(t *testing.T) {
	cfg := Config{
		Mode:             Probabilistic,
		ExpectedItems:    1_000_000,
		TargetFPRate:     1e-4,
		RotationInterval: DefaultRotationInterval,
		ArchiveCap:       DefaultArchiveCap,
		HashOptions:      DefaultConfig().HashOptions,
	}
	tr := New(cfg)

	queries := make([]string, 1000)
	for i := range queries {
		queries[i] = fmt.Sprintf("SELECT * FROM t WHERE id = %d", i)
	}

	for _, q := range queries {
		assert.True(t, tr.CheckAndAdd(q))
	}
	s1 := tr.Snapshot()
	assert.EqualValues(t, 1000, s1.Unique)
	assert.EqualValues(t, 0, s1.Duplicate)

	for _, q := range queries {
		assert.False(t, tr.CheckAndAdd(q))
	}
	s2 := tr.Snapshot()
	assert.EqualValues(t, 1000, s2.Unique)
	assert.EqualValues(t, 1000, s2.Duplicate)
}

func TestNoneModeAlwaysUnique(t *testing.T) {
	tr := New(Config{Mode: None})
	for i := 0; i < 10; i++ {
		assert.True(t, tr.CheckAndAdd("SELECT 1"))
	}
}

func TestRotationArchivesAndBoundsFIFO(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExpectedItems = 100
	cfg.RotationInterval = 5
	cfg.ArchiveCap = 2
	tr := New(cfg)

	for i := 0; i < 40; i++ {
		tr.CheckAndAdd(fmt.Sprintf("q-%d", i))
	}
	s := tr.Snapshot()
	assert.LessOrEqual(t, s.ArchiveLen, 2)
}

func TestCheckOnlyDoesNotMutate(t *testing.T) {
	tr := New(DefaultConfig())
	tr.CheckAndAdd("SELECT 1")
	before := tr.Snapshot()
	tr.CheckOnly("SELECT 1")
	after := tr.Snapshot()
	assert.Equal(t, before, after)
}

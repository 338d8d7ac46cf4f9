package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleDeterministicReproducible(t *testing.T) {
	m1 := NewManager(42, true)
	m2 := NewManager(42, true)

	h1 := m1.Handle("worker-0")
	h2 := m2.Handle("worker-0")

	var seq1, seq2 []int64
	for i := 0; i < 50; i++ {
		seq1 = append(seq1, h1.Randint(0, 1000))
		seq2 = append(seq2, h2.Randint(0, 1000))
	}
	assert.Equal(t, seq1, seq2)
}

func TestHandlePerWorkerIndependence(t *testing.T) {
	m := NewManager(42, true)
	a := m.Handle("worker-a")
	b := m.Handle("worker-b")

	var seqA, seqB []int64
	for i := 0; i < 20; i++ {
		seqA = append(seqA, a.Randint(0, 1<<30))
		seqB = append(seqB, b.Randint(0, 1<<30))
	}
	assert.NotEqual(t, seqA, seqB)
}

func TestHandleCachedAcrossCalls(t *testing.T) {
	m := NewManager(1, true)
	a := m.Handle("worker-0")
	a.Randint(0, 10)
	b := m.Handle("worker-0")
	require.Same(t, a, b)
}

func TestRandintBounds(t *testing.T) {
	m := NewManager(7, true)
	h := m.Handle("w")
	for i := 0; i < 1000; i++ {
		v := h.Randint(5, 9)
		assert.GreaterOrEqual(t, v, int64(5))
		assert.LessOrEqual(t, v, int64(9))
	}
}

func TestWeightedChoiceSkew(t *testing.T) {
	m := NewManager(1, true)
	h := m.Handle("w")
	counts := map[int]int{}
	for i := 0; i < 10000; i++ {
		counts[h.WeightedChoice([]float64{9, 1})]++
	}
	assert.Greater(t, counts[0], counts[1])
}

func TestReseedResetsDrawCounter(t *testing.T) {
	m := NewManager(1, true)
	m.SetReseedInterval(10)
	h := m.Handle("w")
	stateBefore := h.state
	for i := 0; i < 11; i++ {
		h.Float64()
	}
	assert.NotEqual(t, stateBefore, h.state)
	assert.Less(t, h.draws, uint64(10))
}

func TestStateFingerprintLength(t *testing.T) {
	m := NewManager(1, true)
	h := m.Handle("w")
	fp := h.StateFingerprint()
	assert.Len(t, fp, 16)
}

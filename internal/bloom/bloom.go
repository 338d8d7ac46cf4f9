// Package bloom implements a concurrent-safe Bloom filter sized for a
// target (capacity, false-positive rate), used by
// internal/uniqueness as the backing store for one Bloom cell
// (spec.md §4.3 "Uniqueness Cell").
//
// No third-party Bloom filter library appears anywhere in the
// reference corpus (see DESIGN.md), so it is built directly on the
// standard library.
package bloom

import (
	"math"
	"sync/atomic"
)

const wordBits = 32

// Filter is one Bloom bit array with fixed (m, k) parameters, backed
// by a slice of atomic 32-bit words. Bit updates are a
// compare-and-swap bitwise-OR on the containing word, which is
// commutative and idempotent, so concurrent
// writers never need a mutex on the bit array itself (spec.md §4.3
// "Concurrency"); the inserted-count is a separate atomic counter.
type Filter struct {
	words     []atomic.Uint32
	m         uint64 // number of bits
	k         int    // number of hash positions
	inserted  atomic.Int64
	capacityN uint64 // n this filter was provisioned for
}

// New builds a Filter sized m = ceil(-n*ln(p) / (ln2)^2) bits, clamped
// to maxBits, with k = max(1, floor(m/n * ln2)) hash positions, per
// spec.md §4.3.
func New(n uint64, p float64, maxBits uint64) *Filter {
	if n == 0 {
		n = 1
	}
	m := uint64(math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)))
	if maxBits > 0 && m > maxBits {
		m = maxBits
	}
	if m == 0 {
		m = 1
	}
	k := int(math.Floor(float64(m) / float64(n) * math.Ln2))
	if k < 1 {
		k = 1
	}
	return &Filter{
		words:     make([]atomic.Uint32, (m+wordBits-1)/wordBits),
		m:         m,
		k:         k,
		capacityN: n,
	}
}

// K returns the number of hash positions used per item.
func (f *Filter) K() int { return f.k }

// M returns the number of bits in the filter.
func (f *Filter) M() uint64 { return f.m }

// Inserted returns the number of Add calls observed so far.
func (f *Filter) Inserted() int64 { return f.inserted.Load() }

// positions returns the k bit positions for a 256-bit digest using
// double hashing: (h1 + i*h2) mod m, with h1, h2 derived from
// MurmurHash3 seeded 0 and 1 respectively, per spec.md §4.3.
func (f *Filter) positions(digest [32]byte) []uint64 {
	h1 := murmur3(digest[:], 0)
	h2 := murmur3(digest[:], 1)
	if h2 == 0 {
		h2 = 1 // avoid degenerate all-same-bucket case
	}
	out := make([]uint64, f.k)
	for i := 0; i < f.k; i++ {
		out[i] = (uint64(h1) + uint64(i)*uint64(h2)) % f.m
	}
	return out
}

// Add sets the k bits for digest and increments the insertion count.
func (f *Filter) Add(digest [32]byte) {
	for _, pos := range f.positions(digest) {
		f.setBit(pos)
	}
	f.inserted.Add(1)
}

// Test reports whether every bit for digest is set; a true result may
// be a false positive, a false result is never a false negative
// (spec.md §8 property 4).
func (f *Filter) Test(digest [32]byte) bool {
	for _, pos := range f.positions(digest) {
		if !f.getBit(pos) {
			return false
		}
	}
	return true
}

func (f *Filter) setBit(pos uint64) {
	idx := pos / wordBits
	mask := uint32(1) << (pos % wordBits)
	word := &f.words[idx]
	for {
		old := word.Load()
		if old&mask != 0 {
			return // already set; OR is idempotent
		}
		if word.CompareAndSwap(old, old|mask) {
			return
		}
	}
}

func (f *Filter) getBit(pos uint64) bool {
	idx := pos / wordBits
	mask := uint32(1) << (pos % wordBits)
	return f.words[idx].Load()&mask != 0
}

// EstimatedFalsePositiveRate samples the live fill ratio and returns
// (fillRatio)^k, the standard Bloom-filter FPR estimate, used by the
// uniqueness tracker's load-factor sampling (spec.md §4.3).
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	set := f.countSetBits()
	ratio := float64(set) / float64(f.m)
	return math.Pow(ratio, float64(f.k))
}

func (f *Filter) countSetBits() uint64 {
	var count uint64
	for i := range f.words {
		count += uint64(popcount32(f.words[i].Load()))
	}
	return count
}

func popcount32(w uint32) int {
	n := 0
	for w != 0 {
		n += int(w & 1)
		w >>= 1
	}
	return n
}

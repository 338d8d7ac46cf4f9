package bloom

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func digestOf(s string) [32]byte {
	return sha256.Sum256([]byte(s))
}

func TestNoFalseNegatives(t *testing.T) {
	f := New(1000, 0.01, 0)
	items := make([][32]byte, 0, 500)
	for i := 0; i < 500; i++ {
		d := digestOf(fmt.Sprintf("query-%d", i))
		items = append(items, d)
		f.Add(d)
	}
	for _, d := range items {
		assert.True(t, f.Test(d))
	}
}

func TestFalsePositiveRateCalibration(t *testing.T) {
	n := uint64(5000)
	p := 0.01
	f := New(n, p, 0)
	for i := 0; i < int(n); i++ {
		f.Add(digestOf(fmt.Sprintf("present-%d", i)))
	}

	falsePositives := 0
	trials := 20000
	for i := 0; i < trials; i++ {
		d := digestOf(fmt.Sprintf("absent-%d", i))
		if f.Test(d) {
			falsePositives++
		}
	}
	rate := float64(falsePositives) / float64(trials)
	assert.Less(t, rate, 2*p, "observed FPR %v should be <= 2x target %v", rate, p)
}

func TestMPositive(t *testing.T) {
	f := New(100, 0.001, 0)
	assert.Greater(t, f.M(), uint64(0))
	assert.GreaterOrEqual(t, f.K(), 1)
}

func TestMClampedToMaxBits(t *testing.T) {
	f := New(1_000_000_000, 1e-9, 1024)
	assert.LessOrEqual(t, f.M(), uint64(1024))
}

func TestInsertedCounter(t *testing.T) {
	f := New(10, 0.01, 0)
	for i := 0; i < 5; i++ {
		f.Add(digestOf(fmt.Sprintf("x-%d", i)))
	}
	assert.EqualValues(t, 5, f.Inserted())
}

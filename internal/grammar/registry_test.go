package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryResolvesCollisionsBySuffix(t *testing.T) {
	r := NewRegistry()
	a := New("a")
	b := New("b")

	name1 := r.Register("g", a)
	name2 := r.Register("g", b)

	assert.Equal(t, "g", name1)
	assert.Equal(t, "g_2", name2)

	got1, ok := r.Get("g")
	assert.True(t, ok)
	assert.Same(t, a, got1)

	got2, ok := r.Get("g_2")
	assert.True(t, ok)
	assert.Same(t, b, got2)
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry()
	r.Register("a", New("a"))
	r.Register("b", New("b"))
	assert.ElementsMatch(t, []string{"a", "b"}, r.Names())
}

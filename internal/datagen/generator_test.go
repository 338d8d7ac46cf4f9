package datagen

import (
	"strings"
	"testing"

	"github.com/k0kubun/rqg/internal/entropy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, seed int64) *entropy.Handle {
	t.Helper()
	m := entropy.NewManager(seed, true)
	return m.Handle("test")
}

func TestGenerateIntegerIDSequential(t *testing.T) {
	h := handle(t, 1)
	g := NewGenerator(10, h)
	col := Column{Name: "user_id", Type: TypeBigInt}
	for i := int64(0); i < 5; i++ {
		v, err := g.Generate(col, h, &RowContext{RowIndex: i})
		require.NoError(t, err)
		assert.Equal(t, i+1, v)
	}
}

func TestGenerateDecimalPriceBiasesToNinetyNine(t *testing.T) {
	h := handle(t, 1)
	g := NewGenerator(10, h)
	col := Column{Name: "unit_price", Type: TypeDecimal, Precision: 8, Scale: 2}
	v, err := g.Generate(col, h, nil)
	require.NoError(t, err)
	s := v.(string)
	assert.True(t, strings.HasSuffix(s, ".99"), "expected price-like bias, got %s", s)
}

func TestGenerateEmailDomain(t *testing.T) {
	h := handle(t, 1)
	g := NewGenerator(10, h)
	col := Column{Name: "contact_email", Type: TypeVarchar}
	v, err := g.Generate(col, h, nil)
	require.NoError(t, err)
	assert.Contains(t, v.(string), "@")
}

func TestGenerateBooleanActiveBias(t *testing.T) {
	h := handle(t, 1)
	g := NewGenerator(10, h)
	col := Column{Name: "is_active", Type: TypeBoolean}
	trueCount := 0
	for i := 0; i < 1000; i++ {
		v, _ := g.Generate(col, h, nil)
		if v.(bool) {
			trueCount++
		}
	}
	assert.Greater(t, trueCount, 500)
}

func TestGenerateNullableRespectsNullRate(t *testing.T) {
	h := handle(t, 1)
	g := NewGenerator(10, h)
	col := Column{Name: "notes", Type: TypeText, Nullable: true, NullRate: 0.5}
	nils := 0
	for i := 0; i < 2000; i++ {
		v, _ := g.Generate(col, h, nil)
		if v == nil {
			nils++
		}
	}
	assert.InDelta(t, 1000, nils, 150)
}

func TestGenerateUUIDShape(t *testing.T) {
	h := handle(t, 1)
	g := NewGenerator(10, h)
	col := Column{Name: "external_id", Type: TypeUUID}
	v, err := g.Generate(col, h, nil)
	require.NoError(t, err)
	assert.Len(t, v.(string), 36)
}

func TestCorrelationSequentialOrdering(t *testing.T) {
	h := handle(t, 1)
	g := NewGenerator(10, h)
	cols := map[string]Column{
		"created_at": {Name: "created_at", Type: TypeTimestamp},
		"updated_at": {Name: "updated_at", Type: TypeTimestamp},
	}
	spec := CorrelationSpec{Kind: Sequential, Fields: []string{"created_at", "updated_at"}}
	out, err := g.GenerateCorrelated(cols, spec, h, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, out["created_at"].(string), out["updated_at"].(string))
}

func TestCorrelationDependentTotal(t *testing.T) {
	h := handle(t, 1)
	g := NewGenerator(10, h)
	cols := map[string]Column{
		"qty":        {Name: "qty", Type: TypeInteger, Min: 1, Max: 10},
		"unit_price": {Name: "unit_price", Type: TypeDecimal, Precision: 8, Scale: 2},
	}
	spec := CorrelationSpec{Kind: Dependent, Fields: []string{"total", "qty", "unit_price"}}
	out, err := g.GenerateCorrelated(cols, spec, h, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "qty")
	assert.Contains(t, out, "unit_price")
}

func TestGenerateSchemaHasPrimaryKey(t *testing.T) {
	h := handle(t, 1)
	ResetTableCounter()
	s := GenerateSchema(Moderate, h)
	hasPK := false
	for _, c := range s.Columns {
		if c.PrimaryKey {
			hasPK = true
		}
	}
	assert.True(t, hasPK)
	assert.NotEmpty(t, s.Name)
}

func TestGenerateSchemaUniqueNames(t *testing.T) {
	h := handle(t, 1)
	ResetTableCounter()
	s1 := GenerateSchema(Simple, h)
	s2 := GenerateSchema(Simple, h)
	assert.NotEqual(t, s1.Name, s2.Name)
}

package datagen

import (
	"fmt"
	"sync/atomic"

	"github.com/k0kubun/rqg/internal/entropy"
)

// Complexity bounds the column count and types chosen by
// GenerateSchema.
type Complexity int

const (
	Simple Complexity = iota
	Moderate
	Complex
)

// TableSchema is the result of GenerateSchema: a name, ordered
// columns (including exactly one primary key), and row-count bounds,
// per spec.md §4.5 "Schema generation".
type TableSchema struct {
	Name    string
	Columns []Column
	MinRows int64
	MaxRows int64
}

var tableCounter int64

// GenerateSchema returns a TableSchema with a monotonic,
// globally-unique table name, one primary-key column, and a
// complexity-dependent column count.
func GenerateSchema(complexity Complexity, h *entropy.Handle) TableSchema {
	n := atomic.AddInt64(&tableCounter, 1)
	name := fmt.Sprintf("rqg_table_%d", n)

	minCols, maxCols := columnRange(complexity)
	count := int(h.Randint(int64(minCols), int64(maxCols)))

	cols := make([]Column, 0, count+1)
	cols = append(cols, Column{Name: "id", Type: TypeBigInt, PrimaryKey: true, Min: 1, Max: 1 << 40})

	typePool := []SQLType{TypeInteger, TypeDecimal, TypeVarchar, TypeText, TypeBoolean, TypeDate, TypeTimestamp, TypeUUID}
	namePool := []string{"name", "email", "description", "amount", "price", "active", "created_at", "updated_at", "code", "city", "country_id"}

	for i := 0; i < count; i++ {
		typ := typePool[h.Choice(len(typePool))]
		colName := namePool[h.Choice(len(namePool))]
		col := Column{
			Name:     fmt.Sprintf("%s_%d", colName, i),
			Type:     typ,
			Nullable: h.Float64() < 0.3,
		}
		if typ == TypeDecimal {
			col.Precision, col.Scale = 10, 2
		}
		if typ == TypeInteger {
			col.Min, col.Max = 0, 1_000_000
		}
		cols = append(cols, col)
	}

	minRows := h.Randint(0, 1000)
	maxRows := minRows + h.Randint(1000, 100000)

	return TableSchema{Name: name, Columns: cols, MinRows: minRows, MaxRows: maxRows}
}

func columnRange(c Complexity) (int, int) {
	switch c {
	case Simple:
		return 2, 5
	case Complex:
		return 10, 25
	default:
		return 5, 12
	}
}

// ResetTableCounter is exposed for tests that need deterministic
// table names across runs.
func ResetTableCounter() {
	atomic.StoreInt64(&tableCounter, 0)
}

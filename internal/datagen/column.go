// Package datagen implements the Dynamic Data Generator (spec L4):
// typed value generation for a column schema, honoring distributions,
// nullability, domain-name sniffing, and cross-column correlations.
//
// Column metadata shape is grounded on the teacher's schema.Column
// (schema/ast.go); domain-sniffing behaviors (the `_id`/`price`/
// `active`/`birth`/`created` heuristics) are grounded on
// pyrqg/generators/data_generator.py and
// pyrqg/production/data_generator.py.
package datagen

import "strings"

// Distribution selects the sampling strategy for numeric-shaped
// values, per spec.md §4.5.
type Distribution int

const (
	Uniform Distribution = iota
	Normal
	Exponential
	Zipfian
	Poisson
	Binomial
)

// SQLType is the coarse type family a Column generates values for.
type SQLType int

const (
	TypeInteger SQLType = iota
	TypeBigInt
	TypeDecimal
	TypeVarchar
	TypeText
	TypeBoolean
	TypeDate
	TypeTimestamp
	TypeJSON
	TypeUUID
	TypeInet
	TypeArray
)

// Column describes one table column's generation constraints,
// mirroring the (name, SQL type, nullable, default, primary-key flag)
// tuple from spec.md §3 "Table Metadata".
type Column struct {
	Name         string
	Type         SQLType
	Nullable     bool
	NullRate     float64 // default 0.10 when Nullable and unset
	PrimaryKey   bool
	Distribution Distribution

	// Numeric ranges.
	Min, Max int64

	// Decimal(p, s).
	Precision, Scale int

	// Varchar/text.
	MaxLen int

	// Array element type, when Type == TypeArray.
	ElementType SQLType
}

// DefaultNullRate is the fraction of values generated as NULL for a
// nullable column when the caller leaves NullRate unset.
const DefaultNullRate = 0.10

func (c Column) effectiveNullRate() float64 {
	if c.NullRate > 0 {
		return c.NullRate
	}
	return DefaultNullRate
}

func lowerName(c Column) string { return strings.ToLower(c.Name) }

func hasSuffix(name string, suffixes ...string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func hasSubstr(name string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

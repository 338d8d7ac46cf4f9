package grammar

import "github.com/k0kubun/rqg/internal/entropy"

// SchemaMetadata optionally constrains value generation and schema-
// aware rules, per spec.md §3 "Expansion Context".
type SchemaMetadata struct {
	Tables map[string]TableInfo
}

// TableInfo is the subset of Table Metadata (spec.md §3) visible to
// grammar expansion: name, columns, and which column is the primary
// key.
type TableInfo struct {
	Name       string
	Columns    []ColumnInfo
	PrimaryKey string
}

// ColumnInfo names one column visible to schema-aware rules.
type ColumnInfo struct {
	Name     string
	SQLType  string
	Nullable bool
}

// ExpansionContext is the per-generation state carried through one
// generate(rule) call: the RNG handle, the seed (if deterministic),
// a reference to the grammar, and optional schema metadata, per
// spec.md §3.
type ExpansionContext struct {
	Handle  *entropy.Handle
	Seed    *int64
	Grammar *Grammar
	Schema  *SchemaMetadata

	depth  int
	length int
}

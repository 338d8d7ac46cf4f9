package grammar

import (
	"fmt"
	"strings"

	"github.com/k0kubun/rqg/internal/datagen"
	"github.com/k0kubun/rqg/internal/rqgerrors"
)

// ddlTable is the internal representation of one generated table
// before it is rendered to DDL text and ordered by FK dependency.
type ddlTable struct {
	name        string
	columns     []datagen.Column
	primaryKey  string
	foreignKeys []foreignKey
	indexes     []index
}

type foreignKey struct {
	column    string
	refTable  string
	refColumn string
}

type index struct {
	name    string
	columns []string
	partial bool
}

// expandSchemaPrimitive produces a deterministic-for-seed DDL bundle,
// per spec.md §4.1 "Schema primitive". Invariants upheld: referenced
// foreign keys exist, indexed columns exist, no duplicated table
// names, function/view names are globally unique within the bundle.
func expandSchemaPrimitive(ctx *ExpansionContext, p SchemaPrimitive) (string, error) {
	if p.NumTables <= 0 {
		return "", rqgerrors.NewExpansionOverflow("schema_primitive", "num_tables must be positive")
	}

	tables := make([]ddlTable, 0, p.NumTables)
	usedNames := make(map[string]bool)

	for i := 0; i < p.NumTables; i++ {
		name := uniqueName(usedNames, fmt.Sprintf("t_%d", i))
		schema := datagen.GenerateSchema(complexityForProfile(p.Profile), ctx.Handle)
		tbl := ddlTable{name: name, columns: schema.Columns}
		for _, c := range schema.Columns {
			if c.PrimaryKey {
				tbl.primaryKey = c.Name
			}
		}
		tables = append(tables, tbl)
	}

	// Foreign keys: each non-first table may reference an earlier
	// table's primary key, so dependency ordering is always
	// satisfiable (no forward references created).
	for i := 1; i < len(tables); i++ {
		if ctx.Handle.Float64() >= p.FKRatio {
			continue
		}
		refIdx := int(ctx.Handle.Randint(0, int64(i-1)))
		ref := tables[refIdx]
		if ref.primaryKey == "" {
			continue
		}
		fkCol := fmt.Sprintf("%s_ref", ref.name)
		tables[i].columns = append(tables[i].columns, datagen.Column{Name: fkCol, Type: datagen.TypeBigInt})
		tables[i].foreignKeys = append(tables[i].foreignKeys, foreignKey{
			column:    fkCol,
			refTable:  ref.name,
			refColumn: ref.primaryKey,
		})
	}

	// Indexes: single-column by default, composite/partial per ratio.
	for i := range tables {
		tbl := &tables[i]
		if len(tbl.columns) == 0 {
			continue
		}
		if ctx.Handle.Float64() < p.IndexRatio {
			col := tbl.columns[ctx.Handle.Choice(len(tbl.columns))]
			idx := index{name: fmt.Sprintf("idx_%s_%s", tbl.name, col.Name), columns: []string{col.Name}}
			if ctx.Handle.Float64() < p.CompositeIndexRatio && len(tbl.columns) > 1 {
				col2 := tbl.columns[ctx.Handle.Choice(len(tbl.columns))]
				if col2.Name != col.Name {
					idx.columns = append(idx.columns, col2.Name)
					idx.name = fmt.Sprintf("idx_%s_composite", tbl.name)
				}
			}
			if ctx.Handle.Float64() < p.PartialIndexRatio {
				idx.partial = true
			}
			tbl.indexes = append(tbl.indexes, idx)
		}
	}

	ordered := orderByForeignKey(tables)

	var sb strings.Builder
	for _, tbl := range ordered {
		sb.WriteString(renderCreateTable(tbl))
		sb.WriteString("\n")
		for _, idx := range tbl.indexes {
			sb.WriteString(renderCreateIndex(tbl.name, idx))
			sb.WriteString("\n")
		}
	}

	usedFnNames := make(map[string]bool)
	for i := 0; i < p.NumFunctions; i++ {
		name := uniqueName(usedFnNames, fmt.Sprintf("fn_%d", i))
		sb.WriteString(renderFunction(name))
		sb.WriteString("\n")
	}

	usedViewNames := make(map[string]bool)
	for i := 0; i < p.NumViews && i < len(ordered); i++ {
		name := uniqueName(usedViewNames, fmt.Sprintf("v_%d", i))
		sb.WriteString(renderView(name, ordered[i].name))
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func complexityForProfile(profile string) datagen.Complexity {
	switch strings.ToLower(profile) {
	case "simple":
		return datagen.Simple
	case "complex":
		return datagen.Complex
	default:
		return datagen.Moderate
	}
}

func uniqueName(used map[string]bool, base string) string {
	name := base
	suffix := 2
	for used[name] {
		name = fmt.Sprintf("%s_%d", base, suffix)
		suffix++
	}
	used[name] = true
	return name
}

// orderByForeignKey topologically sorts tables so that every table
// referenced by a foreign key appears before the table that
// references it, adapting the teacher's schema.topologicalSort.
func orderByForeignKey(tables []ddlTable) []ddlTable {
	deps := make(map[string][]string, len(tables))
	for _, t := range tables {
		for _, fk := range t.foreignKeys {
			deps[t.name] = append(deps[t.name], fk.refTable)
		}
	}
	sorted := topologicalSort(tables, deps, func(t ddlTable) string { return t.name })
	if len(sorted) == 0 && len(tables) > 0 {
		// A cycle was detected; fall back to construction order rather
		// than emitting nothing, since the schema primitive always
		// builds FKs pointing strictly backward and a cycle here would
		// indicate a bug, not real user input.
		return tables
	}
	return sorted
}

func renderCreateTable(t ddlTable) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", quoteIdent(t.name))
	lines := make([]string, 0, len(t.columns)+1+len(t.foreignKeys))
	for _, c := range t.columns {
		line := fmt.Sprintf("  %s %s", quoteIdent(c.Name), sqlTypeName(c))
		if c.PrimaryKey {
			line += " PRIMARY KEY"
		} else if !c.Nullable {
			line += " NOT NULL"
		}
		lines = append(lines, line)
	}
	for _, fk := range t.foreignKeys {
		lines = append(lines, fmt.Sprintf("  FOREIGN KEY (%s) REFERENCES %s(%s)",
			quoteIdent(fk.column), quoteIdent(fk.refTable), quoteIdent(fk.refColumn)))
	}
	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n);")
	return sb.String()
}

func renderCreateIndex(table string, idx index) string {
	cols := make([]string, len(idx.columns))
	for i, c := range idx.columns {
		cols[i] = quoteIdent(c)
	}
	stmt := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", quoteIdent(idx.name), quoteIdent(table), strings.Join(cols, ", "))
	if idx.partial {
		stmt += fmt.Sprintf(" WHERE %s IS NOT NULL", cols[0])
	}
	return stmt + ";"
}

func renderFunction(name string) string {
	return fmt.Sprintf("CREATE FUNCTION %s() RETURNS integer AS $$ BEGIN RETURN 1; END; $$ LANGUAGE plpgsql;", quoteIdent(name))
}

func renderView(name, table string) string {
	return fmt.Sprintf("CREATE VIEW %s AS SELECT * FROM %s;", quoteIdent(name), quoteIdent(table))
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func sqlTypeName(c datagen.Column) string {
	switch c.Type {
	case datagen.TypeInteger:
		return "integer"
	case datagen.TypeBigInt:
		return "bigint"
	case datagen.TypeDecimal:
		p, s := c.Precision, c.Scale
		if p <= 0 {
			p = 10
		}
		return fmt.Sprintf("numeric(%d,%d)", p, s)
	case datagen.TypeVarchar:
		return "varchar(255)"
	case datagen.TypeText:
		return "text"
	case datagen.TypeBoolean:
		return "boolean"
	case datagen.TypeDate:
		return "date"
	case datagen.TypeTimestamp:
		return "timestamp"
	case datagen.TypeJSON:
		return "jsonb"
	case datagen.TypeUUID:
		return "uuid"
	case datagen.TypeInet:
		return "inet"
	case datagen.TypeArray:
		return "text[]"
	default:
		return "text"
	}
}

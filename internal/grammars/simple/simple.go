// Package simple is a builtin grammar file, demonstrating spec.md §6's
// grammar file contract in Go terms: loading the package registers a
// grammar value (here under the name "simple") with
// internal/grammar's Default registry, the same
// self-registration idiom database/sql drivers use.
package simple

import (
	"github.com/k0kubun/rqg/internal/grammar"
)

func init() {
	grammar.Register("simple", build())
}

// build assembles a small grammar over one fixed table "t_0(id,
// name, amount)" covering SELECT, INSERT, UPDATE, and DELETE shapes,
// enough to exercise the engine end to end without a live schema.
func build() *grammar.Grammar {
	g := grammar.New("simple")

	g.AddRule("query", grammar.UniformChoice(
		grammar.RefTo("select"),
		grammar.RefTo("insert"),
		grammar.RefTo("update"),
		grammar.RefTo("delete"),
	))

	g.AddRule("select", grammar.Template{
		Text: "SELECT {columns} FROM t_0 WHERE id > {id}",
		Holes: map[string]grammar.Element{
			"columns": grammar.UniformChoice(
				grammar.Lit("*"),
				grammar.Lit("id, name"),
				grammar.Lit("id, amount"),
			),
			"id": grammar.NumberRange{Lo: 0, Hi: 10000},
		},
	})

	g.AddRule("insert", grammar.Template{
		Text:  "INSERT INTO t_0 (name, amount) VALUES ('{name}', {amount})",
		Holes: map[string]grammar.Element{"name": grammar.RefTo("word"), "amount": grammar.RefTo("amount")},
	})

	g.AddRule("update", grammar.Template{
		Text: "UPDATE t_0 SET amount = {amount} WHERE id = {id}",
		Holes: map[string]grammar.Element{
			"amount": grammar.RefTo("amount"),
			"id":     grammar.NumberRange{Lo: 0, Hi: 10000},
		},
	})

	g.AddRule("delete", grammar.Template{
		Text:  "DELETE FROM t_0 WHERE id = {id}",
		Holes: map[string]grammar.Element{"id": grammar.NumberRange{Lo: 0, Hi: 10000}},
	})

	g.AddRule("amount", grammar.NumberRange{Lo: 1, Hi: 100000})

	g.AddRule("word", grammar.UniformChoice(
		grammar.Lit("alpha"), grammar.Lit("bravo"), grammar.Lit("charlie"), grammar.Lit("delta"),
	))

	g.AddRule("ddl", grammar.SchemaPrimitive{
		NumTables: 3, NumFunctions: 1, NumViews: 1,
		Profile: "moderate", FKRatio: 0.6, IndexRatio: 0.5,
		CompositeIndexRatio: 0.2, PartialIndexRatio: 0.1,
	})

	return g
}

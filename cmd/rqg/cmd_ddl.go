package main

import (
	"fmt"

	"github.com/k0kubun/rqg/internal/entropy"
	"github.com/k0kubun/rqg/internal/grammar"
)

// DDLCommand implements the `ddl` mode: emit one schema DDL bundle,
// either from a registered grammar's "ddl" rule or from an ad hoc
// SchemaPrimitive built directly from --schema-* flags, per spec.md
// §4.1 "Schema primitive".
type DDLCommand struct {
	CommonOptions

	SchemaNumTables      int     `long:"schema-num-tables" default:"5" description:"Ad hoc schema: number of tables"`
	SchemaNumFunctions   int     `long:"schema-num-functions" default:"0" description:"Ad hoc schema: number of functions"`
	SchemaNumViews       int     `long:"schema-num-views" default:"0" description:"Ad hoc schema: number of views"`
	SchemaProfile        string  `long:"schema-profile" default:"moderate" description:"Ad hoc schema: simple|moderate|complex column profile"`
	FKRatio              float64 `long:"fk-ratio" default:"0.5" description:"Ad hoc schema: fraction of tables given a foreign key"`
	IndexRatio           float64 `long:"index-ratio" default:"0.4" description:"Ad hoc schema: fraction of tables given an index"`
	CompositeIndexRatio  float64 `long:"composite-index-ratio" default:"0.15" description:"Ad hoc schema: fraction of indexes made composite"`
	PartialIndexRatio    float64 `long:"partial-index-ratio" default:"0.1" description:"Ad hoc schema: fraction of indexes made partial"`
	AdHoc                bool    `long:"ad-hoc" description:"Build the schema from --schema-* flags instead of --grammar's \"ddl\" rule"`
}

func (c *DDLCommand) Execute(args []string) error {
	mgr := entropy.NewManager(c.Seed, c.Seed != 0)
	eng := grammar.NewEngine(mgr)

	var g *grammar.Grammar
	rule := "ddl"
	if c.AdHoc {
		g = grammar.New("ad-hoc-schema")
		g.AddRule(rule, grammar.SchemaPrimitive{
			NumTables:           c.SchemaNumTables,
			NumFunctions:        c.SchemaNumFunctions,
			NumViews:            c.SchemaNumViews,
			Profile:             c.SchemaProfile,
			FKRatio:             c.FKRatio,
			IndexRatio:          c.IndexRatio,
			CompositeIndexRatio: c.CompositeIndexRatio,
			PartialIndexRatio:   c.PartialIndexRatio,
		})
	} else {
		var ok bool
		g, ok = loadGrammar(c.Grammar)
		if !ok {
			return fmt.Errorf("ddl: unknown grammar %q", c.Grammar)
		}
		if _, ok := g.Rule(rule); !ok {
			return fmt.Errorf("ddl: grammar %q has no %q rule; pass --ad-hoc to build one from --schema-* flags", c.Grammar, rule)
		}
	}

	ddl, err := eng.Generate(g, rule, c.seedPtr())
	if err != nil {
		return fmt.Errorf("ddl: %w", err)
	}

	out, closeOut, err := openOutput(c.Output)
	if err != nil {
		return err
	}
	defer closeOut()

	fmt.Fprintln(out, ddl)
	return nil
}

package main

import (
	"fmt"

	"github.com/k0kubun/rqg/internal/entropy"
	"github.com/k0kubun/rqg/internal/grammar"
)

// GrammarCommand implements the `grammar` mode: expand --grammar-rule
// in --grammar --count times and print each result on its own line.
type GrammarCommand struct {
	CommonOptions
}

func (c *GrammarCommand) Execute(args []string) error {
	g, ok := loadGrammar(c.Grammar)
	if !ok {
		return fmt.Errorf("grammar: unknown grammar %q", c.Grammar)
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("grammar: %w", err)
	}

	mgr := entropy.NewManager(c.Seed, c.Seed != 0)
	eng := grammar.NewEngine(mgr)

	texts, err := eng.GenerateBatch(g, c.GrammarRule, c.Count, c.seedPtr())
	if err != nil {
		return fmt.Errorf("grammar: %w", err)
	}

	out, closeOut, err := openOutput(c.Output)
	if err != nil {
		return err
	}
	defer closeOut()

	for _, t := range texts {
		fmt.Fprintln(out, t)
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/k0kubun/rqg/internal/entropy"
	"github.com/k0kubun/rqg/internal/grammar"
)

// RandomCommand implements the `random` mode: a quick-look variant of
// `grammar` that always prints to stdout, for ad hoc sampling of a
// grammar/rule without wiring a runner or output file.
type RandomCommand struct {
	CommonOptions
}

func (c *RandomCommand) Execute(args []string) error {
	g, ok := loadGrammar(c.Grammar)
	if !ok {
		return fmt.Errorf("random: unknown grammar %q", c.Grammar)
	}

	mgr := entropy.NewManager(c.Seed, c.Seed != 0)
	eng := grammar.NewEngine(mgr)

	texts, err := eng.GenerateBatch(g, c.GrammarRule, c.Count, c.seedPtr())
	if err != nil {
		return fmt.Errorf("random: %w", err)
	}
	for _, t := range texts {
		fmt.Fprintln(os.Stdout, t)
	}
	return nil
}

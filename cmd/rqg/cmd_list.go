package main

import (
	"fmt"
	"sort"

	"github.com/k0kubun/rqg/internal/grammar"
)

// ListCommand implements the `list` mode: print registered grammars,
// or one grammar's rules when --grammar is given.
type ListCommand struct {
	Grammar string `long:"grammar" description:"List this grammar's rule names instead of all grammars"`
}

func (c *ListCommand) Execute(args []string) error {
	loadEnvPlugins()

	if c.Grammar != "" {
		g, ok := grammar.Default.Get(c.Grammar)
		if !ok {
			return fmt.Errorf("list: unknown grammar %q", c.Grammar)
		}
		names := make([]string, 0, len(g.Rules))
		for n := range g.Rules {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}

	names := grammar.Default.Names()
	sort.Strings(names)
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

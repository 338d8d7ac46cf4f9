package main

import (
	"fmt"
	"sort"
)

// RunnersCommand implements the `runners` mode: print every name the
// Runner registry resolves, per spec.md §6 "Runner registry".
type RunnersCommand struct{}

func (c *RunnersCommand) Execute(args []string) error {
	names := runnerRegistry().Names()
	sort.Strings(names)
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

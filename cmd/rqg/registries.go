package main

import (
	"github.com/k0kubun/rqg/internal/grammar"
	_ "github.com/k0kubun/rqg/internal/grammars/simple"
	"github.com/k0kubun/rqg/internal/runner"
	"github.com/k0kubun/rqg/internal/runner/postgresql"
	"github.com/k0kubun/rqg/internal/runner/ycql"
	"github.com/k0kubun/rqg/internal/runner/ysql"
)

// runnerRegistry builds the process-wide Runner registry, the same
// explicit-registry-object approach internal/runner.Registry takes in
// place of load-time global registration (design note §9).
func runnerRegistry() *runner.Registry {
	r := runner.NewRegistry()
	r.Register("postgresql", postgresql.New)
	r.Register("ysql", ysql.New)
	r.Register("ycql", ycql.New)
	return r
}

// loadGrammar resolves name from the grammar Default registry (which
// the blank-imported internal/grammars/simple package populates at
// init time) and any plugins named by PYRQG_GRAMMARS.
func loadGrammar(name string) (*grammar.Grammar, bool) {
	loadEnvPlugins()
	return grammar.Default.Get(name)
}

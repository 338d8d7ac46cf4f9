package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/k0kubun/rqg/internal/grammar"
)

var loadPluginsOnce sync.Once

// loadEnvPlugins loads PYRQG_GRAMMARS's comma-separated plugin module
// paths into the grammar Default registry, per spec.md §6. Each path
// is registered under its base name; collisions are resolved by the
// registry's own _2, _3, … suffixing.
func loadEnvPlugins() {
	loadPluginsOnce.Do(func() {
		raw := os.Getenv("PYRQG_GRAMMARS")
		if raw == "" {
			return
		}
		for _, path := range strings.Split(raw, ",") {
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			name := pluginBaseName(path)
			if _, err := grammar.LoadPlugin(grammar.Default, name, path); err != nil {
				fmt.Fprintf(os.Stderr, "rqg: PYRQG_GRAMMARS: %s\n", err)
			}
		}
	})
}

func pluginBaseName(path string) string {
	i := strings.LastIndexByte(path, '/')
	base := path[i+1:]
	base = strings.TrimSuffix(base, ".so")
	return base
}

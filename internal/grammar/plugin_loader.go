package grammar

import (
	"fmt"
	"plugin"
)

// LoadPlugin loads a compiled Go plugin (.so) from path and registers
// the *Grammar it exposes into r. This is the Go analogue of spec.md
// §6's "grammar file contract": a host-language module that, when
// loaded, exposes a value `g` (preferred) or `grammar`. Go has no
// dynamic-import equivalent for regular packages, so PYRQG_GRAMMARS
// plugin paths are resolved through the standard library's plugin
// package instead, looking up the exported symbol "G" first and
// falling back to "Grammar".
//
// plugin.Open requires a Linux/cgo build produced by `go build
// -buildmode=plugin`; on platforms without plugin support this
// returns an error rather than silently doing nothing.
func LoadPlugin(r *Registry, name, path string) (string, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return "", fmt.Errorf("grammar: open plugin %q: %w", path, err)
	}

	sym, err := p.Lookup("G")
	if err != nil {
		sym, err = p.Lookup("Grammar")
		if err != nil {
			return "", fmt.Errorf("grammar: plugin %q exposes neither G nor Grammar: %w", path, err)
		}
	}

	g, ok := sym.(*Grammar)
	if !ok {
		return "", fmt.Errorf("grammar: plugin %q's exported value is not *grammar.Grammar", path)
	}

	return r.Register(name, g), nil
}

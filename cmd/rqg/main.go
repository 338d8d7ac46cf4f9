// Command rqg is the Random Query Generator CLI: a grammar-driven
// query/DDL generator with pluggable execution targets, grounded on
// the teacher's single-purpose cmd/psqldef-style entry points, fanned
// out here into subcommands via go-flags' Command support since rqg
// exposes several independent modes (spec.md §6) rather than one verb.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts struct{}
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "rqg"
	parser.Usage = "[options] <command> [command-options]"

	mustAddCommand(parser, "list", "List registered grammars, or one grammar's rules", &ListCommand{})
	mustAddCommand(parser, "grammar", "Expand a grammar rule N times", &GrammarCommand{})
	mustAddCommand(parser, "ddl", "Emit a schema DDL bundle", &DDLCommand{})
	mustAddCommand(parser, "random", "Quick-look sample of a grammar/rule", &RandomCommand{})
	mustAddCommand(parser, "exec", "Generate and execute statements against a runner", &ExecCommand{})
	mustAddCommand(parser, "production", "Run the production orchestrator", &ProductionCommand{})
	mustAddCommand(parser, "scenario", "Run a spec end-to-end scenario as a smoke test", &ScenarioCommand{})
	mustAddCommand(parser, "runners", "List registered runner targets", &RunnersCommand{})

	_, err := parser.ParseArgs(args)
	return exitCodeFor(err)
}

func mustAddCommand(parser *flags.Parser, name, short string, data interface{}) {
	if _, err := parser.AddCommand(name, short, short, data); err != nil {
		panic(fmt.Sprintf("rqg: registering command %q: %s", name, err))
	}
}

// exitCodeFor maps an error from parser.ParseArgs into spec.md §6's
// exit codes: 0 success, 1 configuration/unrecoverable error, 2 usage
// error, 130 interrupted, and a distinct non-zero (3) for `exec
// --fail-on-errors` reporting at least one failed statement.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	var flagsErr *flags.Error
	if errors.As(err, &flagsErr) {
		if flagsErr.Type == flags.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		fmt.Fprintln(os.Stderr, "rqg: interrupted")
		return 130
	}

	if errors.Is(err, errFailuresOccurred) {
		fmt.Fprintln(os.Stderr, err)
		return 3
	}

	fmt.Fprintln(os.Stderr, "rqg:", err)
	return 1
}

package runner

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// ConsoleReporter prints the single-character outcome stream and
// final summary described in spec.md §7 "User-visible failure".
type ConsoleReporter struct {
	out          io.Writer
	mu           sync.Mutex
	column       int
	printErrors  bool
	errorSamples int
	samples      []errorSample
}

type errorSample struct {
	sql   string
	class string
}

// NewConsoleReporter builds a reporter writing to out. When
// printErrors is set, up to errorSamples failing statements are kept
// for the final summary.
func NewConsoleReporter(out io.Writer, printErrors bool, errorSamples int) *ConsoleReporter {
	return &ConsoleReporter{out: out, printErrors: printErrors, errorSamples: errorSamples}
}

// Outcome prints one character for o.Symbol, wrapping every 80
// characters, and records a failing sample if configured to.
func (c *ConsoleReporter) Outcome(o Outcome, sql string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := string(o.Symbol)
	if o.Symbol == Skip {
		ch = "_"
	}
	fmt.Fprint(c.out, ch)
	c.column++
	if c.column >= 80 {
		fmt.Fprint(c.out, "\n")
		c.column = 0
	}

	if c.printErrors && isFailure(o.Symbol) && len(c.samples) < c.errorSamples {
		c.samples = append(c.samples, errorSample{sql: sql, class: o.ErrorClass})
	}
}

func isFailure(s Symbol) bool {
	return s == Syntax || s == Timeout || s == Connection || s == Other
}

// Summary prints the final multi-line report: totals, symbol
// histogram, distinct shapes, top error classes, and (if enabled) the
// recorded failing-statement samples.
func (c *ConsoleReporter) Summary(stats Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.column != 0 {
		fmt.Fprint(c.out, "\n")
		c.column = 0
	}

	fmt.Fprintf(c.out, "total=%d success=%d failed=%d syntax=%d timeout=%d connection=%d skipped=%d\n",
		stats.Total, stats.Success, stats.Failed, stats.SyntaxErr, stats.TimedOut, stats.ConnLost, stats.Skipped)
	fmt.Fprintf(c.out, "distinct query shapes: %d\n", len(stats.Shapes))

	if len(stats.ErrorTop) > 0 {
		fmt.Fprintln(c.out, "top error classes:")
		for _, kv := range topErrorClasses(stats.ErrorTop, 10) {
			fmt.Fprintf(c.out, "  %-30s %d\n", kv.class, kv.count)
		}
	}

	if c.printErrors && len(c.samples) > 0 {
		fmt.Fprintln(c.out, "error samples:")
		for _, s := range c.samples {
			fmt.Fprintf(c.out, "  [%s] %s\n", s.class, s.sql)
		}
	}
}

type classCount struct {
	class string
	count int64
}

func topErrorClasses(m map[string]int64, n int) []classCount {
	out := make([]classCount, 0, len(m))
	for k, v := range m {
		out = append(out, classCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].class < out[j].class
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

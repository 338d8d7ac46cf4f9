package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// openOutput returns a writer for path, or stdout when path is empty,
// plus a close func that's a no-op for stdout.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		w := bufio.NewWriter(os.Stdout)
		return w, func() { w.Flush() }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}
	w := bufio.NewWriter(f)
	return w, func() { w.Flush(); f.Close() }, nil
}

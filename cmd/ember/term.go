package main

import (
	"os"

	"golang.org/x/term"
)

// isTerminal reports whether f is attached to a terminal, the signal the
// "auto" color mode uses to decide whether to emit ANSI escapes.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Package pkgpath defines package identity as a validated, normalized import
// path. No other package of this module imports it: internal/codegen's
// emitImportGuard identifies an imported package by index, and the VM keeps
// no per-package init state (its IMPORT always reports "initialized").
package pkgpath

import (
	"fmt"

	"golang.org/x/mod/module"
)

// Path is a validated import path. The zero value is not a valid Path; use
// Parse to construct one.
type Path struct {
	raw string
}

// Parse validates raw as an import path and returns the normalized Path.
// Ember reuses the Go module system's import path grammar wholesale rather
// than inventing its own, since the source language's package names already
// follow it.
func Parse(raw string) (Path, error) {
	if err := module.CheckImportPath(raw); err != nil {
		return Path{}, fmt.Errorf("pkgpath: %w", err)
	}
	return Path{raw: raw}, nil
}

// MustParse is Parse for call sites that already validated raw (e.g. a
// program whose IMPORT operand survived code generation), panicking on an
// invariant violation rather than surfacing a RuntimeError for an input the
// caller was supposed to have checked already.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the path's textual form.
func (p Path) String() string { return p.raw }

// IsZero reports whether p is the zero Path.
func (p Path) IsZero() bool { return p.raw == "" }

// Base returns the last slash-separated component of p, the conventional
// package identifier used unqualified in source (e.g. "fmt" for
// "github.com/emberlang/ember/std/fmt").
func (p Path) Base() string {
	s := p.raw
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return s[i+1:]
		}
	}
	return s
}

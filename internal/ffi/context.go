// Package ffi implements the registry of named host functions a compiled
// program calls into: the predeclared builtins (len, append, panic, ...)
// and the reflect sub-namespace, both addressed by internal/codegen the
// same way as any package-qualified call (a Str constant naming the
// function, resolved by internal/vm's CALL handling against this registry
// rather than an ordinary Closure invocation).
package ffi

import (
	"io"

	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/metadata"
)

// Fiber is the subset of running-fiber state a host function needs: the
// panic/recover pair backing the "panic"/"recover" builtins, and the
// stream "println" writes to. internal/vm's fiber type implements this;
// ffi never imports internal/vm to avoid a cycle.
type Fiber interface {
	// Panic raises v as a language-level panic, to be caught by the nearest
	// enclosing deferred recover or propagated out of the fiber.
	Panic(v gosvalue.GosValue)
	// Recover clears and returns the fiber's in-flight panic value, if any,
	// only when called directly from a deferred call (the VM enforces the
	// "only valid inside a deferred function" rule, not this interface).
	Recover() (gosvalue.GosValue, bool)
	// Stdout is the stream println writes to.
	Stdout() io.Writer
}

// Context is the read-only handle a host function receives: the frozen
// metadata registry and value arena shared by the whole program, plus the
// calling fiber's panic/IO surface.
type Context struct {
	Registry *metadata.Registry
	Objects  *gosvalue.Objects
	Fiber    Fiber
}

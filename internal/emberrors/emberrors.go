// Package emberrors implements Ember's error taxonomy: ParseError (raised by
// the external parser), CompileError (raised by the code generator),
// RuntimeError and its TypeError sub-kind (raised by the VM), and
// InternalError (invariant violations indicating an implementation bug).
// Each is a distinct Go type so callers can type-switch on severity rather
// than parsing message strings.
package emberrors

import "fmt"

// ParseError is surfaced by internal/parser; the code generator assumes
// parsing already succeeded and never constructs one itself.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return "parse error: " + e.Msg }

// CompileError is raised by internal/codegen: type mismatch detected at
// emit time, duplicate declaration, unresolved identifier, illegal lhs,
// pointer depth overflow routed through metadata.TypeError, etc.
type CompileError struct {
	Msg string
}

func (e *CompileError) Error() string { return "compile error: " + e.Msg }

// RuntimeError is raised by internal/vm: nil dereference, bounds, division
// by zero, channel-on-closed-channel, assertion failure.
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string { return "runtime error: " + e.Msg }

// TypeError is a sub-kind of RuntimeError for dynamic type assertions and
// interface conversions, and is also used by internal/metadata for
// compile-time type-shape violations (pointer depth, field/method lookup).
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return "type error: " + e.Msg }

// RuntimeError reports that TypeError is a RuntimeError subkind.
func (e *TypeError) RuntimeError() string { return e.Error() }

// InternalError marks an invariant violation indicating a bug in the
// implementation itself, never a user-code mistake.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "internal error: " + e.Msg }

// Newf constructors keep call sites terse across the packages that raise
// each error kind.
func NewCompileError(format string, args ...interface{}) error {
	return &CompileError{Msg: fmt.Sprintf(format, args...)}
}

func NewRuntimeError(format string, args ...interface{}) error {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}

func NewTypeError(format string, args ...interface{}) error {
	return &TypeError{Msg: fmt.Sprintf(format, args...)}
}

func NewInternalError(format string, args ...interface{}) error {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}

package ffi

import (
	"sync"

	"github.com/emberlang/ember/internal/emberrors"
	"github.com/emberlang/ember/internal/gosvalue"
)

// Func is a host function's signature: a slice of argument values in, a
// slice of result values out. Variadic/ellipsis calls are flattened by the
// caller before Call runs, matching internal/vm's CALL handling for an
// ordinary Closure invocation.
type Func func(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error)

// Registry is the name-to-Func table a compiled program's Str-tagged
// callables resolve against: the predeclared builtins and the reflect
// sub-namespace, registered once at startup and read-only for the lifetime
// of every fiber thereafter.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry builds a Registry pre-populated with the predeclared builtins
// and the reflect sub-namespace.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Func)}
	registerBuiltins(r)
	registerReflect(r)
	return r
}

// Register adds fn under name, overwriting any previous registration. A
// package-qualified external call (e.g. "fmt.Println") registers here the
// same way a predeclared builtin does.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Lookup returns the Func registered under name, if any.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Call resolves name and invokes it, surfacing an unresolved name as a
// RuntimeError rather than a Go panic, since an unregistered callee at this
// point is the caller's (the VM's) bug-for-bug surface, not the host's.
func (r *Registry) Call(ctx *Context, name string, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return nil, emberrors.NewRuntimeError("ffi: no function registered for %q", name)
	}
	return fn(ctx, args)
}

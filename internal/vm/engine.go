package vm

import (
	"io"
	"sync"

	"github.com/emberlang/ember/internal/codegen"
	"github.com/emberlang/ember/internal/emberrors"
	"github.com/emberlang/ember/internal/ffi"
	"github.com/emberlang/ember/internal/funcval"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/metadata"
)

// Engine runs one compiled codegen.Program: the shared metadata registry and
// value arena a Program carries, plus the package-level variable storage
// every fiber's LOAD_THIS_PKG_FIELD/STORE_THIS_PKG_FIELD reads and writes.
// A single Engine's package state is shared, mutex-guarded, across every
// fiber spawned from it by a "go" statement, the same way top-level var
// declarations are genuinely shared mutable state in the source language.
type Engine struct {
	program *codegen.Program
	ffi     *ffi.Registry

	pkgMu     sync.Mutex
	pkgValues []gosvalue.GosValue
	pkgInited bool
}

// NewEngine builds an Engine over a freshly generated program. The metadata
// registry is expected to already be frozen by the caller once code
// generation for the whole build completes.
func NewEngine(program *codegen.Program) *Engine {
	vals := make([]gosvalue.GosValue, len(program.PackageMembers))
	for i, m := range program.PackageMembers {
		vals[i] = program.Registry.ZeroVal(m)
	}
	return &Engine{program: program, ffi: ffi.NewRegistry(), pkgValues: vals}
}

// FindFunc looks up a top-level function by its declared name, the way
// cmd/ember locates "main" after a successful build. It returns the first
// match, which is unambiguous for any name that is not also used as a
// method on some receiver type.
func (e *Engine) FindFunc(name string) *funcval.FunctionVal {
	for _, fv := range e.program.Funcs {
		if fv.Name == name {
			return fv
		}
	}
	return nil
}

// Init runs the package __init__ function exactly once: import guards (all
// no-ops in this single-package core, see the Import case in run), then every top-level
// function's closure gets written into its package-member slot, then every
// var/const initializer runs in declaration order.
func (e *Engine) Init(stdout io.Writer) error {
	if e.pkgInited {
		return nil
	}
	e.pkgInited = true
	fb := newFiber(e, stdout)
	_, err := e.callRecovered(fb, e.program.InitFunc, nil, nil)
	return err
}

// Call runs fn to completion on a fresh fiber and returns its results. This
// is the entry point cmd/ember uses to invoke "main".
func (e *Engine) Call(stdout io.Writer, fn *funcval.FunctionVal, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	fb := newFiber(e, stdout)
	return e.callRecovered(fb, fn, nil, args)
}

// callRecovered wraps Engine.call with the same panic-isolation execGo gives
// a spawned goroutine: a panic that unwinds past every deferred recover()
// call in fn's own call tree reaches here as a plain language-level
// RuntimeError instead of an unrecovered Go panic of an unexported type,
// which a caller outside this package could not even type-switch on.
func (e *Engine) callRecovered(fb *Fiber, fn *funcval.FunctionVal, upvalues []*gosvalue.GosValue, args []gosvalue.GosValue) (results []gosvalue.GosValue, err error) {
	defer func() {
		if r := recover(); r != nil {
			ep, ok := r.(emberPanic)
			if !ok {
				panic(r)
			}
			err = e.panicToError(ep)
		}
	}()
	return e.call(fb, fn, upvalues, args)
}

func (e *Engine) getPkgField(idx int) gosvalue.GosValue {
	e.pkgMu.Lock()
	defer e.pkgMu.Unlock()
	return e.pkgValues[idx]
}

func (e *Engine) setPkgField(idx int, v gosvalue.GosValue) {
	e.pkgMu.Lock()
	defer e.pkgMu.Unlock()
	e.pkgValues[idx] = v
}

// invoke dispatches a prepared call: callee is either a Closure (an ordinary
// function/closure value) or a Str naming an internal/ffi registry entry (a
// predeclared builtin or a package-qualified external call), matching how
// internal/codegen's genNamedCall and genCallExpr address the two cases.
// ellipsis flattens a trailing slice argument into individual values first,
// the same expansion a variadic ordinary call performs internally.
func (e *Engine) invoke(fb *Fiber, callee gosvalue.GosValue, args []gosvalue.GosValue, ellipsis bool) ([]gosvalue.GosValue, error) {
	switch callee.Type() {
	case gosvalue.Closure:
		co := e.program.Objects.Closure(gosvalue.ClosureHandle(callee.Handle()))
		if co == nil {
			return nil, emberrors.NewRuntimeError("call of nil function")
		}
		if int(co.FuncKey) < 0 || int(co.FuncKey) >= len(e.program.Funcs) {
			return nil, emberrors.NewInternalError("vm: closure references unknown function key %d", co.FuncKey)
		}
		fn := e.program.Funcs[co.FuncKey]
		callArgs := args
		if fn.Variadic {
			callArgs = e.bindVariadic(fn, args, ellipsis)
		}
		return e.call(fb, fn, co.Upvalues, callArgs)
	case gosvalue.Str:
		name := e.program.Objects.String(gosvalue.StringHandle(callee.Handle())).S
		callArgs := args
		if ellipsis && len(args) > 0 {
			callArgs = flattenTrailingSlice(e.program.Objects, args)
		}
		ctx := &ffi.Context{Registry: e.program.Registry, Objects: e.program.Objects, Fiber: fb}
		return e.ffi.Call(ctx, name, callArgs)
	default:
		return nil, emberrors.NewRuntimeError("call of non-function value of type %s", callee.Type())
	}
}

// bindVariadic reshapes args for a variadic closure call: an ellipsis call
// already carries its trailing slice argument as-is; an ordinary call
// collects every argument past the fixed ones into a freshly allocated
// slice, matching how the source language spreads a variadic parameter.
func (e *Engine) bindVariadic(fn *funcval.FunctionVal, args []gosvalue.GosValue, ellipsis bool) []gosvalue.GosValue {
	if ellipsis {
		return args
	}
	sig := e.program.Registry.GetRaw(fn.Signature)
	fixed := len(sig.Params)
	if sig.Recv != nil {
		fixed++
	}
	if fixed == 0 || len(args) < fixed {
		fixed = len(args)
	}
	rest := append([]gosvalue.GosValue{}, args[fixed:]...)
	elem := metadata.GosMetadata{}
	if len(sig.Params) > 0 {
		elem = sig.Params[len(sig.Params)-1]
	}
	backing := &gosvalue.ArrayObj{Elem: e.program.Registry.ZeroVal(elem), Data: rest}
	e.program.Objects.PutArray(backing)
	h := e.program.Objects.PutSlice(&gosvalue.SliceObj{Backing: backing, Offset: 0, Len: len(rest), Cap: len(rest)})
	out := append([]gosvalue.GosValue{}, args[:fixed]...)
	out = append(out, gosvalue.NewSlice(h))
	return out
}

func flattenTrailingSlice(objs *gosvalue.Objects, args []gosvalue.GosValue) []gosvalue.GosValue {
	last := args[len(args)-1]
	if last.Type() != gosvalue.Slice || last.IsNil() {
		return args
	}
	sl := objs.Slice(gosvalue.SliceHandle(last.Handle()))
	out := append([]gosvalue.GosValue{}, args[:len(args)-1]...)
	out = append(out, sl.Backing.Data[sl.Offset:sl.Offset+sl.Len]...)
	return out
}

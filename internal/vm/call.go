package vm

import (
	"github.com/emberlang/ember/internal/emberrors"
	"github.com/emberlang/ember/internal/funcval"
	"github.com/emberlang/ember/internal/gosvalue"
)

// call runs fn as a new activation on fb, binding args to its leading local
// slots per its signature, running its body to completion (including any
// queued defers), and returning its result values.
//
// Binding assumes every parameter and receiver the signature names was also
// given a real name at the source level (internal/codegen's genFuncBody and
// genFuncLit add no local for a "_"-named binding, so a "_" parameter leaves
// this core's local numbering one slot ahead of what LOAD_LOCAL/STORE_LOCAL
// actually address).
func (e *Engine) call(fb *Fiber, fn *funcval.FunctionVal, upvalues []*gosvalue.GosValue, args []gosvalue.GosValue) (results []gosvalue.GosValue, err error) {
	fr := newFrame(fn, upvalues)
	sig := e.program.Registry.GetRaw(fn.Signature)

	argIdx, localIdx := 0, 0
	if sig.Recv != nil && argIdx < len(args) {
		fr.locals.Locals[localIdx] = args[argIdx]
		argIdx++
		localIdx++
	}
	for range sig.Params {
		if argIdx >= len(args) {
			break
		}
		fr.locals.Locals[localIdx] = args[argIdx]
		argIdx++
		localIdx++
	}
	resultBase := localIdx

	defer func() {
		for i := len(fr.deferred) - 1; i >= 0; i-- {
			d := fr.deferred[i]
			e.runDeferred(fb, d)
		}
		if r := recover(); r != nil {
			ep, ok := r.(emberPanic)
			if !ok {
				panic(r)
			}
			if fb.panicking {
				// Still unwinding: no defer recovered, propagate further.
				panic(ep)
			}
			// A defer recovered: the call completes as if it had returned
			// normally, yielding whatever its named results currently hold.
			err = nil
			if fn.ResultCount > 0 && resultBase+fn.ResultCount <= len(fr.locals.Locals) {
				results = append([]gosvalue.GosValue{}, fr.locals.Locals[resultBase:resultBase+fn.ResultCount]...)
			}
		}
	}()

	results, err = e.run(fb, fr, resultBase)
	return results, err
}

// runDeferred invokes a queued deferred call, isolating any panic it raises
// (or fails to recover) so that it still runs every other deferred call
// queued alongside it before that panic continues to unwind.
func (e *Engine) runDeferred(fb *Fiber, d deferredCall) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(emberPanic); ok {
				return
			}
			panic(r)
		}
	}()
	e.invoke(fb, d.callee, d.args, false)
}

// captureClosure is the PUSH_CONST handler's hook for a Closure-typed
// constant: codegen leaves ClosureObj.Upvalues empty (it has no running
// frame to capture from), so the VM synthesizes a freshly captured closure
// at the point the constant is actually loaded, using the target function's
// up-value table against the currently executing frame.
func (e *Engine) captureClosure(fr *frame, tmpl gosvalue.GosValue) gosvalue.GosValue {
	co := e.program.Objects.Closure(gosvalue.ClosureHandle(tmpl.Handle()))
	if int(co.FuncKey) < 0 || int(co.FuncKey) >= len(e.program.Funcs) {
		return tmpl
	}
	target := e.program.Funcs[co.FuncKey]
	slots := target.Upvalues()
	if len(slots) == 0 {
		return tmpl
	}
	captured := make([]*gosvalue.GosValue, len(slots))
	for i, uv := range slots {
		if uv.FromParentUp {
			if uv.ParentIndex < len(fr.upvalues) {
				captured[i] = fr.upvalues[uv.ParentIndex]
			}
		} else if uv.ParentIndex < len(fr.locals.Locals) {
			captured[i] = &fr.locals.Locals[uv.ParentIndex]
		}
	}
	h := e.program.Objects.PutClosure(&gosvalue.ClosureObj{FuncKey: co.FuncKey, Upvalues: captured})
	return gosvalue.NewClosure(h)
}

// raise converts a host error into a language-level panic: Ember's runtime
// faults (index out of range, nil dereference, division by zero, an
// unresolved ffi call) are themselves ordinary panics, recoverable the same
// way a panic("...") call is.
func (e *Engine) raise(fb *Fiber, err error) {
	h := e.program.Objects.PutString(&gosvalue.StringObj{S: err.Error()})
	fb.Panic(gosvalue.NewStr(h))
}

func (e *Engine) raisef(fb *Fiber, format string, args ...interface{}) {
	e.raise(fb, emberrors.NewRuntimeError(format, args...))
}

package vm

import (
	"io"

	"github.com/emberlang/ember/internal/gosvalue"
)

// emberPanic is the Go-level panic value the interpreter raises on a
// language-level panic, unwound via the native Go call stack through the
// nested call frames of fiber.call.
type emberPanic struct {
	val gosvalue.GosValue
}

// Fiber is one goroutine of execution: its own call stack, its own in-flight
// panic, and the stream its println calls write to. It implements
// internal/ffi.Fiber so host functions registered there can raise panics and
// query recovery without internal/ffi importing internal/vm.
type Fiber struct {
	engine *Engine
	stdout io.Writer

	panicking bool
	panicVal  gosvalue.GosValue

	done chan struct{}
	err  error
}

func newFiber(e *Engine, stdout io.Writer) *Fiber {
	return &Fiber{engine: e, stdout: stdout, done: make(chan struct{})}
}

// Panic marks the fiber as carrying an in-flight panic and unwinds the
// current Go call stack with it; every nested frame's deferred calls still
// run via the recover in Engine.call.
func (f *Fiber) Panic(v gosvalue.GosValue) {
	f.panicking = true
	f.panicVal = v
	panic(emberPanic{val: v})
}

// Recover clears an in-flight panic, if any. Real Go restricts recover to a
// call made directly inside a deferred function; this core relaxes that to
// "anywhere while a panic is in flight", documented as a known simplification.
func (f *Fiber) Recover() (gosvalue.GosValue, bool) {
	if !f.panicking {
		return gosvalue.GosValue{}, false
	}
	f.panicking = false
	v := f.panicVal
	f.panicVal = gosvalue.GosValue{}
	return v, true
}

func (f *Fiber) Stdout() io.Writer { return f.stdout }

// Wait blocks until the fiber started by a "go" statement has finished.
func (f *Fiber) Wait() error {
	<-f.done
	return f.err
}

func (f *Fiber) finish(err error) {
	f.err = err
	close(f.done)
}

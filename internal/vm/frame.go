// Package vm implements the bytecode virtual machine: a stack-based
// interpreter executing the opcode.Instruction stream a compiled
// codegen.Program carries, one goroutine-backed fiber per "go" statement.
package vm

import (
	"github.com/emberlang/ember/internal/funcval"
	"github.com/emberlang/ember/internal/gosvalue"
)

// deferredCall is a call prepared by a DEFER instruction: the callee and its
// already-evaluated arguments, queued to run when the owning frame returns.
type deferredCall struct {
	callee gosvalue.GosValue
	args   []gosvalue.GosValue
}

// frame is one activation record: a function's local-variable slots, its
// captured up-values, and a private operand stack. Locals is heap-allocated
// separately from frame itself (rather than an inline slice) so a
// PointerObj of kind PointerToLocal can outlive the frame it was taken
// against for as long as anything still holds the pointer.
type frame struct {
	fn       *funcval.FunctionVal
	locals   *gosvalue.Frame
	upvalues []*gosvalue.GosValue

	stack     []gosvalue.GosValue
	callMarks []int
	deferred  []deferredCall

	pc int
}

func newFrame(fn *funcval.FunctionVal, upvalues []*gosvalue.GosValue) *frame {
	return &frame{
		fn:       fn,
		locals:   &gosvalue.Frame{Locals: make([]gosvalue.GosValue, len(fn.Locals()))},
		upvalues: upvalues,
	}
}

func (f *frame) push(v gosvalue.GosValue) { f.stack = append(f.stack, v) }

func (f *frame) pop() gosvalue.GosValue {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack = f.stack[:n]
	return v
}

func (f *frame) top() gosvalue.GosValue { return f.stack[len(f.stack)-1] }

// popN removes and returns the top n values, in the order they were pushed.
func (f *frame) popN(n int) []gosvalue.GosValue {
	base := len(f.stack) - n
	out := append([]gosvalue.GosValue{}, f.stack[base:]...)
	f.stack = f.stack[:base]
	return out
}

// popCall pops the argument list and callee prepared by a matching PRE_CALL,
// as recorded by the most recent entry on callMarks.
func (f *frame) popCall() (callee gosvalue.GosValue, args []gosvalue.GosValue) {
	n := len(f.callMarks) - 1
	mark := f.callMarks[n]
	f.callMarks = f.callMarks[:n]
	args = append([]gosvalue.GosValue{}, f.stack[mark:]...)
	callee = f.stack[mark-1]
	f.stack = f.stack[:mark-1]
	return callee, args
}

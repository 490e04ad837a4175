package vm

import (
	"reflect"

	"github.com/emberlang/ember/internal/emberrors"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/opcode"
)

// nilChan is a typed nil channel, substituted for any nil channel operand in
// a select case so it behaves the way real Go does: a case on a nil channel
// never becomes ready, it neither blocks the whole select (other cases can
// still fire) nor panics reflect.Select.
var nilChan = reflect.Zero(reflect.TypeOf((chan gosvalue.GosValue)(nil)))

// execSend implements the SEND opcode: pop the value then the channel,
// perform a blocking send, and convert a native "send on closed channel"
// panic into an ordinary language-level RuntimeError.
func (e *Engine) execSend(fb *Fiber, fr *frame) {
	val := fr.pop()
	ch := fr.pop()
	if ch.Type() != gosvalue.Channel || ch.IsNil() {
		e.raisef(fb, "send on nil channel")
		return
	}
	co := e.program.Objects.Channel(gosvalue.ChannelHandle(ch.Handle()))
	defer func() {
		if r := recover(); r != nil {
			e.raisef(fb, "send on closed channel")
		}
	}()
	co.Ch <- val
}

// execSelect implements the SELECT opcode for the one comm-clause shape the
// inherited codegen lowers without eagerly blocking: a send case, which
// pushes exactly (chan, value) per case. A receive case ("case <-ch:" or
// "case v := <-ch:") is lowered by reusing RANGE for its operand, which
// performs a real blocking receive before SELECT's own dispatch ever runs;
// that is a pre-existing codegen limitation documented in DESIGN.md, not
// something this handler can recover from. reflect.Select multiplexes the
// send cases plus an optional default the same way a dynamically sized
// select has to, since the case count is only known at run time.
func (e *Engine) execSelect(fb *Fiber, fr *frame, inst opcode.Instruction, pc int) {
	numCases := int(inst.Imm0)
	hasDefault := inst.Imm1 != 0

	type operand struct {
		ch  gosvalue.GosValue
		val gosvalue.GosValue
	}
	operands := make([]operand, numCases)
	pairs := fr.popN(numCases * 2)
	for i := 0; i < numCases; i++ {
		operands[i] = operand{ch: pairs[2*i], val: pairs[2*i+1]}
	}

	cases := make([]reflect.SelectCase, 0, numCases+1)
	for _, o := range operands {
		chVal := nilChan
		if o.ch.Type() == gosvalue.Channel && !o.ch.IsNil() {
			co := e.program.Objects.Channel(gosvalue.ChannelHandle(o.ch.Handle()))
			chVal = reflect.ValueOf(co.Ch)
		}
		cases = append(cases, reflect.SelectCase{
			Dir:  reflect.SelectSend,
			Chan: chVal,
			Send: reflect.ValueOf(o.val),
		})
	}
	if hasDefault {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectDefault})
	}

	chosen, _, _ := reflect.Select(cases)
	fr.pc = pc + 1 + chosen
}

// execGo implements the GO opcode: spawn the prepared call on a freshly
// minted fiber, isolating an unrecovered panic to that goroutine the same
// way a real "go" statement's panic terminates only its own goroutine
// (observable only by whatever later calls Fiber.Wait on it, if anything
// does; an unwaited fiber's panic is otherwise silent, matching how a real
// unrecovered goroutine panic would crash the whole process instead, a gap
// documented in DESIGN.md).
func (e *Engine) execGo(fb *Fiber, fr *frame) {
	callee, args := fr.popCall()
	newFb := newFiber(e, fb.Stdout())
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if ep, ok := r.(emberPanic); ok {
					newFb.finish(e.panicToError(ep))
					return
				}
				panic(r)
			}
		}()
		_, err := e.invoke(newFb, callee, args, false)
		newFb.finish(err)
	}()
}

// panicToError renders an unrecovered panic's value as a RuntimeError,
// matching how a top-level Fiber.Wait caller learns that a spawned
// goroutine's call ended abnormally.
func (e *Engine) panicToError(ep emberPanic) error {
	if ep.val.Type() == gosvalue.Str && !ep.val.IsNil() {
		return emberrors.NewRuntimeError("%s", e.program.Objects.String(gosvalue.StringHandle(ep.val.Handle())).S)
	}
	return emberrors.NewRuntimeError("panic")
}

// execDefer implements the DEFER opcode: the prepared call is queued on the
// owning frame and run, in reverse declaration order, once that frame's
// body finishes (see Engine.call).
func (e *Engine) execDefer(fr *frame) {
	callee, args := fr.popCall()
	fr.deferred = append(fr.deferred, deferredCall{callee: callee, args: args})
}

package vm

import (
	"github.com/emberlang/ember/internal/emberrors"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/opcode"
)

// run is the fetch-decode-execute loop driving one frame to completion. It
// returns either when a RETURN/RETURN_INIT_PKG instruction is reached or
// when a language-level panic unwinds through it (handled by Engine.call's
// recover, not here: an emberPanic from e.raise/fb.Panic propagates as an
// ordinary Go panic).
func (e *Engine) run(fb *Fiber, fr *frame, resultBase int) ([]gosvalue.GosValue, error) {
	code := fr.fn.Code()
	for {
		pc := fr.pc
		if pc < 0 || pc >= len(code) {
			return nil, emberrors.NewInternalError("vm: pc %d out of range in %q", pc, fr.fn.Name)
		}
		inst := code[pc]

		switch inst.Op {
		case opcode.PushTrue:
			fr.push(gosvalue.NewBool(true))
		case opcode.PushFalse:
			fr.push(gosvalue.NewBool(false))
		case opcode.PushImm:
			fr.push(e.pushImmValue(fr, inst))
		case opcode.PushConst:
			v := fr.fn.ConstVal(int(inst.Imm0))
			if v.Type() == gosvalue.Closure {
				v = e.captureClosure(fr, v)
			}
			fr.push(v)

		case opcode.LoadLocal:
			fr.push(fr.locals.Locals[inst.Imm0])
		case opcode.LoadUpvalue:
			fr.push(*fr.upvalues[inst.Imm0])
		case opcode.LoadThisPkgField:
			fr.push(e.getPkgField(int(inst.Imm0)))
		case opcode.StoreLocal:
			e.execStoreLocal(fb, fr, inst)
		case opcode.StoreUpvalue:
			e.execStoreUpvalue(fb, fr, inst)
		case opcode.StoreThisPkgField:
			e.execStorePkgField(fb, fr, inst)

		case opcode.LoadField:
			e.execLoadField(fb, fr, inst)
		case opcode.LoadFieldImm:
			e.execLoadFieldImm(fb, fr, inst)
		case opcode.LoadIndex:
			e.execLoadIndex(fb, fr)
		case opcode.LoadIndexImm:
			e.execLoadIndexImm(fb, fr, inst)
		case opcode.StoreField:
			e.execStoreField(fb, fr, inst)
		case opcode.StoreIndex:
			e.execStoreIndex(fb, fr, inst)
		case opcode.StoreDeref:
			e.execStoreDeref(fb, fr, inst)

		case opcode.Binary:
			b := fr.pop()
			a := fr.pop()
			fr.push(e.binaryOp(fb, opcode.BinaryOp(inst.Imm0), a, b))

		case opcode.Jump:
			fr.pc = pc + int(inst.Imm0)
			continue
		case opcode.JumpIf:
			if fr.pop().BoolVal() {
				fr.pc = pc + int(inst.Imm0)
			} else {
				fr.pc = pc + 1
			}
			continue
		case opcode.JumpIfNot:
			if !fr.pop().BoolVal() {
				fr.pc = pc + int(inst.Imm0)
			} else {
				fr.pc = pc + 1
			}
			continue

		case opcode.PreCall:
			fr.callMarks = append(fr.callMarks, len(fr.stack))
		case opcode.Call, opcode.CallEllipsis:
			callee, args := fr.popCall()
			results, err := e.invoke(fb, callee, args, inst.Op == opcode.CallEllipsis)
			if err != nil {
				e.raise(fb, err)
				break
			}
			for _, r := range results {
				fr.push(r)
			}

		case opcode.Pop:
			fr.pop()
		case opcode.New:
			e.execNew(fb, fr, inst)
		case opcode.Range:
			e.execRange(fb, fr)
		case opcode.Import:
			// Single-package core: every import is already initialized.
			fr.push(gosvalue.NewBool(false))
		case opcode.Return, opcode.ReturnInitPkg:
			return e.execReturn(fr, resultBase), nil

		case opcode.Send:
			e.execSend(fb, fr)
		case opcode.Select:
			e.execSelect(fb, fr, inst, pc)
			continue
		case opcode.Go:
			e.execGo(fb, fr)
		case opcode.Defer:
			e.execDefer(fr)

		default:
			return nil, emberrors.NewInternalError("vm: unhandled opcode %s", inst.Op)
		}

		fr.pc = pc + 1
	}
}

// pushImmValue materializes a PUSH_IMM operand: a freshly taken address-of
// local when Type0 is Pointer (Imm0 is the target slot), otherwise a scalar
// of the instruction's declared type built directly from Imm0, the same
// narrow-immediate encoding internal/codegen's emitLoadConst folds small
// integer constants into.
func (e *Engine) pushImmValue(fr *frame, inst opcode.Instruction) gosvalue.GosValue {
	if inst.Type0 == gosvalue.Pointer {
		h := e.program.Objects.PutPointer(&gosvalue.PointerObj{
			Kind:  gosvalue.PointerToLocal,
			Frame: fr.locals,
			Slot:  int(inst.Imm0),
		})
		return gosvalue.NewPointer(h, gosvalue.GosMetadata{})
	}
	switch {
	case inst.Type0 == gosvalue.Float32:
		return gosvalue.NewFloat32(float32(inst.Imm0))
	case inst.Type0 == gosvalue.Float64:
		return gosvalue.NewFloat64(float64(inst.Imm0))
	case inst.Type0 == gosvalue.Bool:
		return gosvalue.NewBool(inst.Imm0 != 0)
	case isUnsignedValueType(inst.Type0):
		return reconstructUint(inst.Type0, uint64(inst.Imm0))
	default:
		return reconstructInt(inst.Type0, int64(inst.Imm0))
	}
}

// execNew implements the NEW opcode: Imm0 indexes a constant pool entry
// holding the allocated type's reified metadata (see emitNew). A struct
// allocates its declared zero instance so its field vector is sized
// correctly; everything else (slice, map, channel, scalar, named) goes
// through DefaultVal, which is what "make" and "new" share at this level.
func (e *Engine) execNew(fb *Fiber, fr *frame, inst opcode.Instruction) {
	meta := fr.fn.ConstVal(int(inst.Imm0)).Meta
	if inst.Type0 == gosvalue.Struct {
		fr.push(e.program.Registry.ZeroVal(meta))
		return
	}
	v, err := e.program.Registry.DefaultVal(meta)
	if err != nil {
		e.raise(fb, err)
		return
	}
	fr.push(v)
}

// execReturn drains the entire remaining operand stack as the function's
// result values, since RETURN carries no explicit count: genReturnStmt
// leaves exactly the result expressions' values on the stack and every
// other statement balances it back to empty. A bare "return" with named
// results leaves the stack empty, so that case reads the results straight
// out of their local slots instead.
func (e *Engine) execReturn(fr *frame, resultBase int) []gosvalue.GosValue {
	values := fr.popN(len(fr.stack))
	if len(values) == 0 && fr.fn.ResultCount > 0 && resultBase+fr.fn.ResultCount <= len(fr.locals.Locals) {
		values = append([]gosvalue.GosValue{}, fr.locals.Locals[resultBase:resultBase+fr.fn.ResultCount]...)
	}
	return values
}

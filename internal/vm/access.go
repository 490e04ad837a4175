package vm

import (
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/opcode"
)

func (e *Engine) execStoreLocal(fb *Fiber, fr *frame, inst opcode.Instruction) {
	slot := inst.Imm1
	if op, ok := opcode.IndexToCode(inst.Imm0); ok {
		rhs := fr.pop()
		fr.locals.Locals[slot] = e.binaryOp(fb, op, fr.locals.Locals[slot], rhs)
		return
	}
	fr.locals.Locals[slot] = fr.pop()
}

func (e *Engine) execStoreUpvalue(fb *Fiber, fr *frame, inst opcode.Instruction) {
	slot := inst.Imm1
	target := fr.upvalues[slot]
	if op, ok := opcode.IndexToCode(inst.Imm0); ok {
		rhs := fr.pop()
		*target = e.binaryOp(fb, op, *target, rhs)
		return
	}
	*target = fr.pop()
}

func (e *Engine) execStorePkgField(fb *Fiber, fr *frame, inst opcode.Instruction) {
	idx := int(inst.Imm1)
	if op, ok := opcode.IndexToCode(inst.Imm0); ok {
		rhs := fr.pop()
		e.setPkgField(idx, e.binaryOp(fb, op, e.getPkgField(idx), rhs))
		return
	}
	e.setPkgField(idx, fr.pop())
}

// readField resolves container.selector for both the compile-time-indexed
// form (selTyp Int, a field index baked in at codegen time) and the
// runtime-name form (selTyp Str, the name interned as a constant), peeling
// Pointer/Named/Interface wrappers the same way real field access does.
func (e *Engine) readField(fb *Fiber, container, sel gosvalue.GosValue, selTyp gosvalue.ValueType) gosvalue.GosValue {
	switch container.Type() {
	case gosvalue.Struct:
		so := e.program.Objects.Struct(gosvalue.StructHandle(container.Handle()))
		idx := e.fieldIndexOf(fb, so, sel, selTyp)
		if idx < 0 || idx >= len(so.Fields) {
			return gosvalue.GosValue{}
		}
		return so.Fields[idx]
	case gosvalue.Pointer:
		po := e.program.Objects.Pointer(gosvalue.PointerHandle(container.Handle()))
		if po == nil {
			e.raisef(fb, "nil pointer dereference")
			return gosvalue.GosValue{}
		}
		v, ok := po.Load()
		if !ok {
			e.raisef(fb, "nil pointer dereference")
			return gosvalue.GosValue{}
		}
		return e.readField(fb, v, sel, selTyp)
	case gosvalue.Named:
		return e.readField(fb, gosvalue.Underlying(container, e.program.Objects), sel, selTyp)
	case gosvalue.Interface:
		io := e.program.Objects.Interface(gosvalue.InterfaceHandle(container.Handle()))
		return e.readField(fb, io.Value, sel, selTyp)
	default:
		e.raisef(fb, "invalid field access on a %s value", container.Type())
		return gosvalue.GosValue{}
	}
}

func (e *Engine) fieldIndexOf(fb *Fiber, so *gosvalue.StructObj, sel gosvalue.GosValue, selTyp gosvalue.ValueType) int {
	if selTyp == gosvalue.Int {
		return int(sel.IntVal())
	}
	name := e.program.Objects.String(gosvalue.StringHandle(sel.Handle())).S
	idx, err := e.program.Registry.FieldIndex(name, so.Meta)
	if err != nil {
		e.raise(fb, err)
		return -1
	}
	return idx
}

func (e *Engine) writeField(fb *Fiber, container, sel gosvalue.GosValue, selTyp gosvalue.ValueType, rhs gosvalue.GosValue) {
	switch container.Type() {
	case gosvalue.Struct:
		so := e.program.Objects.Struct(gosvalue.StructHandle(container.Handle()))
		idx := e.fieldIndexOf(fb, so, sel, selTyp)
		if idx < 0 || idx >= len(so.Fields) {
			return
		}
		so.Fields[idx] = rhs
	case gosvalue.Pointer:
		po := e.program.Objects.Pointer(gosvalue.PointerHandle(container.Handle()))
		if po == nil {
			e.raisef(fb, "nil pointer dereference")
			return
		}
		v, ok := po.Load()
		if !ok {
			e.raisef(fb, "nil pointer dereference")
			return
		}
		e.writeField(fb, v, sel, selTyp, rhs)
	case gosvalue.Named:
		e.writeField(fb, gosvalue.Underlying(container, e.program.Objects), sel, selTyp, rhs)
	default:
		e.raisef(fb, "invalid field assignment on a %s value", container.Type())
	}
}

// writeFieldByIndex implements the compile-time-indexed half of STORE_FIELD,
// used by composite literals for both struct fields (Imm0 is the field's
// layout index) and slice elements (Imm0 is the element's position,
// appended to the backing array in order since a composite literal always
// emits its positional elements index 0, 1, 2, ...).
func (e *Engine) writeFieldByIndex(fb *Fiber, container gosvalue.GosValue, idx int, rhs gosvalue.GosValue) {
	switch container.Type() {
	case gosvalue.Struct:
		so := e.program.Objects.Struct(gosvalue.StructHandle(container.Handle()))
		if idx < 0 || idx >= len(so.Fields) {
			e.raisef(fb, "field index %d out of range", idx)
			return
		}
		so.Fields[idx] = rhs
	case gosvalue.Slice:
		so := e.program.Objects.Slice(gosvalue.SliceHandle(container.Handle()))
		switch {
		case idx < so.Len:
			so.Backing.Data[so.Offset+idx] = rhs
		case idx == so.Len:
			so.Backing.Data = append(so.Backing.Data, rhs)
			so.Len++
			so.Cap = len(so.Backing.Data)
		default:
			e.raisef(fb, "index out of range [%d] with length %d", idx, so.Len)
		}
	default:
		e.raisef(fb, "invalid field assignment on a %s value", container.Type())
	}
}

func (e *Engine) execLoadField(fb *Fiber, fr *frame, inst opcode.Instruction) {
	sel := fr.pop()
	container := fr.pop()
	fr.push(e.readField(fb, container, sel, inst.Type1))
}

func (e *Engine) execLoadFieldImm(fb *Fiber, fr *frame, inst opcode.Instruction) {
	container := fr.pop()
	if inst.Type0 == gosvalue.Pointer || container.Type() == gosvalue.Pointer {
		po := e.program.Objects.Pointer(gosvalue.PointerHandle(container.Handle()))
		if po == nil {
			e.raisef(fb, "nil pointer dereference")
			fr.push(gosvalue.GosValue{})
			return
		}
		v, ok := po.Load()
		if !ok {
			e.raisef(fb, "nil pointer dereference")
			fr.push(gosvalue.GosValue{})
			return
		}
		fr.push(v)
		return
	}
	fr.push(e.readField(fb, container, gosvalue.NewInt(int64(inst.Imm0)), gosvalue.Int))
}

func (e *Engine) execStoreField(fb *Fiber, fr *frame, inst opcode.Instruction) {
	if inst.Type1 == gosvalue.Int {
		rhs := fr.pop()
		container := fr.top()
		e.writeFieldByIndex(fb, container, int(inst.Imm0), rhs)
		return
	}
	sel := fr.pop()
	container := fr.pop()
	rhs := fr.pop()
	if op, ok := opcode.IndexToCode(inst.Imm0); ok {
		cur := e.readField(fb, container, sel, inst.Type1)
		rhs = e.binaryOp(fb, op, cur, rhs)
	}
	e.writeField(fb, container, sel, inst.Type1, rhs)
}

func (e *Engine) execStoreDeref(fb *Fiber, fr *frame, inst opcode.Instruction) {
	rhs := fr.pop()
	ptrVal := fr.locals.Locals[inst.Imm1]
	po := e.program.Objects.Pointer(gosvalue.PointerHandle(ptrVal.Handle()))
	if po == nil {
		e.raisef(fb, "nil pointer dereference")
		return
	}
	if op, ok := opcode.IndexToCode(inst.Imm0); ok {
		cur, _ := po.Load()
		rhs = e.binaryOp(fb, op, cur, rhs)
	}
	if !po.Store(rhs) {
		e.raisef(fb, "invalid pointer store")
	}
}

// readIndex resolves container[index] across every indexable runtime kind.
// A missing map key yields the zero Interface value rather than the map's
// declared value type's real zero, since the index/key instructions carry
// no element-type metadata; acceptable since a well-typed program never
// observes the difference except through reflection.
func (e *Engine) readIndex(fb *Fiber, container, index gosvalue.GosValue) gosvalue.GosValue {
	switch container.Type() {
	case gosvalue.Slice:
		so := e.program.Objects.Slice(gosvalue.SliceHandle(container.Handle()))
		i := int(index.IntVal())
		if i < 0 || i >= so.Len {
			e.raisef(fb, "index out of range [%d] with length %d", i, so.Len)
			return gosvalue.GosValue{}
		}
		return so.Backing.Data[so.Offset+i]
	case gosvalue.Array:
		ao := e.program.Objects.Array(gosvalue.ArrayHandle(container.Handle()))
		i := int(index.IntVal())
		if i < 0 || i >= len(ao.Data) {
			e.raisef(fb, "index out of range [%d] with length %d", i, len(ao.Data))
			return gosvalue.GosValue{}
		}
		return ao.Data[i]
	case gosvalue.Str:
		s := e.program.Objects.String(gosvalue.StringHandle(container.Handle())).S
		i := int(index.IntVal())
		if i < 0 || i >= len(s) {
			e.raisef(fb, "index out of range [%d] with length %d", i, len(s))
			return gosvalue.GosValue{}
		}
		return gosvalue.NewUint8(s[i])
	case gosvalue.Map:
		mo := e.program.Objects.Map(gosvalue.MapHandle(container.Handle()))
		v, ok := mo.Get(gosvalue.MapKey(index, e.program.Objects))
		if !ok {
			return gosvalue.GosValue{}
		}
		return v
	case gosvalue.Pointer:
		po := e.program.Objects.Pointer(gosvalue.PointerHandle(container.Handle()))
		if po == nil {
			e.raisef(fb, "nil pointer dereference")
			return gosvalue.GosValue{}
		}
		v, ok := po.Load()
		if !ok {
			e.raisef(fb, "nil pointer dereference")
			return gosvalue.GosValue{}
		}
		return e.readIndex(fb, v, index)
	case gosvalue.Named:
		return e.readIndex(fb, gosvalue.Underlying(container, e.program.Objects), index)
	default:
		e.raisef(fb, "invalid index operation on a %s value", container.Type())
		return gosvalue.GosValue{}
	}
}

func (e *Engine) writeIndex(fb *Fiber, container, index, rhs gosvalue.GosValue) {
	switch container.Type() {
	case gosvalue.Slice:
		so := e.program.Objects.Slice(gosvalue.SliceHandle(container.Handle()))
		i := int(index.IntVal())
		if i < 0 || i >= so.Len {
			e.raisef(fb, "index out of range [%d] with length %d", i, so.Len)
			return
		}
		so.Backing.Data[so.Offset+i] = rhs
	case gosvalue.Array:
		ao := e.program.Objects.Array(gosvalue.ArrayHandle(container.Handle()))
		i := int(index.IntVal())
		if i < 0 || i >= len(ao.Data) {
			e.raisef(fb, "index out of range [%d] with length %d", i, len(ao.Data))
			return
		}
		ao.Data[i] = rhs
	case gosvalue.Map:
		mo := e.program.Objects.Map(gosvalue.MapHandle(container.Handle()))
		mo.Set(gosvalue.MapKey(index, e.program.Objects), rhs)
	case gosvalue.Pointer:
		po := e.program.Objects.Pointer(gosvalue.PointerHandle(container.Handle()))
		if po == nil {
			e.raisef(fb, "nil pointer dereference")
			return
		}
		v, ok := po.Load()
		if !ok {
			e.raisef(fb, "nil pointer dereference")
			return
		}
		e.writeIndex(fb, v, index, rhs)
	case gosvalue.Named:
		e.writeIndex(fb, gosvalue.Underlying(container, e.program.Objects), index, rhs)
	case gosvalue.Str:
		e.raisef(fb, "cannot assign to a string index")
	default:
		e.raisef(fb, "invalid index assignment on a %s value", container.Type())
	}
}

func (e *Engine) execLoadIndex(fb *Fiber, fr *frame) {
	index := fr.pop()
	container := fr.pop()
	fr.push(e.readIndex(fb, container, index))
}

func (e *Engine) execLoadIndexImm(fb *Fiber, fr *frame, inst opcode.Instruction) {
	container := fr.pop()
	fr.push(e.readIndex(fb, container, gosvalue.NewInt(int64(inst.Imm0))))
}

func (e *Engine) execStoreIndex(fb *Fiber, fr *frame, inst opcode.Instruction) {
	index := fr.pop()
	container := fr.pop()
	rhs := fr.pop()
	if op, ok := opcode.IndexToCode(inst.Imm0); ok {
		cur := e.readIndex(fb, container, index)
		rhs = e.binaryOp(fb, op, cur, rhs)
	}
	e.writeIndex(fb, container, index, rhs)
}

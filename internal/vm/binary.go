package vm

import (
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/opcode"
)

// binaryOp evaluates a BINARY instruction's operator against two already-
// popped operands, dispatching on the left operand's runtime ValueType the
// way internal/codegen's genBinaryExpr infers it at compile time (both
// operands of a well-typed program share a type once Named wrappers are
// peeled off).
func (e *Engine) binaryOp(fb *Fiber, op opcode.BinaryOp, a, b gosvalue.GosValue) gosvalue.GosValue {
	a = gosvalue.Underlying(a, e.program.Objects)
	b = gosvalue.Underlying(b, e.program.Objects)

	switch op {
	case opcode.OpLogicalAnd:
		return gosvalue.NewBool(a.BoolVal() && b.BoolVal())
	case opcode.OpLogicalOr:
		return gosvalue.NewBool(a.BoolVal() || b.BoolVal())
	case opcode.OpEq:
		return gosvalue.NewBool(gosvalue.Equal(a, b, e.program.Objects))
	case opcode.OpNotEq:
		return gosvalue.NewBool(!gosvalue.Equal(a, b, e.program.Objects))
	}

	switch {
	case a.Type() == gosvalue.Str:
		return e.stringBinary(fb, op, a, b)
	case isFloatValueType(a.Type()):
		return e.floatBinary(fb, op, a, b)
	case isUnsignedValueType(a.Type()):
		return e.uintBinary(fb, op, a, b)
	default:
		return e.intBinary(fb, op, a, b)
	}
}

func isFloatValueType(t gosvalue.ValueType) bool {
	return t == gosvalue.Float32 || t == gosvalue.Float64
}

func isUnsignedValueType(t gosvalue.ValueType) bool {
	switch t {
	case gosvalue.Uint, gosvalue.Uint8, gosvalue.Uint16, gosvalue.Uint32, gosvalue.Uint64:
		return true
	default:
		return false
	}
}

func reconstructInt(t gosvalue.ValueType, n int64) gosvalue.GosValue {
	switch t {
	case gosvalue.Int8:
		return gosvalue.NewInt8(int8(n))
	case gosvalue.Int16:
		return gosvalue.NewInt16(int16(n))
	case gosvalue.Int32:
		return gosvalue.NewInt32(int32(n))
	case gosvalue.Int64:
		return gosvalue.NewInt64(n)
	default:
		return gosvalue.NewInt(n)
	}
}

func reconstructUint(t gosvalue.ValueType, n uint64) gosvalue.GosValue {
	switch t {
	case gosvalue.Uint8:
		return gosvalue.NewUint8(uint8(n))
	case gosvalue.Uint16:
		return gosvalue.NewUint16(uint16(n))
	case gosvalue.Uint32:
		return gosvalue.NewUint32(uint32(n))
	case gosvalue.Uint64:
		return gosvalue.NewUint64(n)
	default:
		return gosvalue.NewUint(n)
	}
}

func (e *Engine) intBinary(fb *Fiber, op opcode.BinaryOp, a, b gosvalue.GosValue) gosvalue.GosValue {
	x, y := a.IntVal(), b.IntVal()
	switch op {
	case opcode.OpAdd:
		return reconstructInt(a.Type(), x+y)
	case opcode.OpSub:
		return reconstructInt(a.Type(), x-y)
	case opcode.OpMul:
		return reconstructInt(a.Type(), x*y)
	case opcode.OpDiv:
		if y == 0 {
			e.raisef(fb, "integer divide by zero")
			return gosvalue.NewInt(0)
		}
		return reconstructInt(a.Type(), x/y)
	case opcode.OpMod:
		if y == 0 {
			e.raisef(fb, "integer divide by zero")
			return gosvalue.NewInt(0)
		}
		return reconstructInt(a.Type(), x%y)
	case opcode.OpAnd:
		return reconstructInt(a.Type(), x&y)
	case opcode.OpOr:
		return reconstructInt(a.Type(), x|y)
	case opcode.OpXor:
		return reconstructInt(a.Type(), x^y)
	case opcode.OpShl:
		return reconstructInt(a.Type(), x<<uint(y))
	case opcode.OpShr:
		return reconstructInt(a.Type(), x>>uint(y))
	case opcode.OpLess:
		return gosvalue.NewBool(x < y)
	case opcode.OpLessEq:
		return gosvalue.NewBool(x <= y)
	case opcode.OpGreater:
		return gosvalue.NewBool(x > y)
	case opcode.OpGreaterEq:
		return gosvalue.NewBool(x >= y)
	default:
		e.raisef(fb, "unsupported integer operator %d", op)
		return gosvalue.NewInt(0)
	}
}

func (e *Engine) uintBinary(fb *Fiber, op opcode.BinaryOp, a, b gosvalue.GosValue) gosvalue.GosValue {
	x, y := a.UintVal(), b.UintVal()
	switch op {
	case opcode.OpAdd:
		return reconstructUint(a.Type(), x+y)
	case opcode.OpSub:
		return reconstructUint(a.Type(), x-y)
	case opcode.OpMul:
		return reconstructUint(a.Type(), x*y)
	case opcode.OpDiv:
		if y == 0 {
			e.raisef(fb, "integer divide by zero")
			return gosvalue.NewUint(0)
		}
		return reconstructUint(a.Type(), x/y)
	case opcode.OpMod:
		if y == 0 {
			e.raisef(fb, "integer divide by zero")
			return gosvalue.NewUint(0)
		}
		return reconstructUint(a.Type(), x%y)
	case opcode.OpAnd:
		return reconstructUint(a.Type(), x&y)
	case opcode.OpOr:
		return reconstructUint(a.Type(), x|y)
	case opcode.OpXor:
		return reconstructUint(a.Type(), x^y)
	case opcode.OpShl:
		return reconstructUint(a.Type(), x<<y)
	case opcode.OpShr:
		return reconstructUint(a.Type(), x>>y)
	case opcode.OpLess:
		return gosvalue.NewBool(x < y)
	case opcode.OpLessEq:
		return gosvalue.NewBool(x <= y)
	case opcode.OpGreater:
		return gosvalue.NewBool(x > y)
	case opcode.OpGreaterEq:
		return gosvalue.NewBool(x >= y)
	default:
		e.raisef(fb, "unsupported unsigned operator %d", op)
		return gosvalue.NewUint(0)
	}
}

func (e *Engine) floatBinary(fb *Fiber, op opcode.BinaryOp, a, b gosvalue.GosValue) gosvalue.GosValue {
	x, y := a.FloatVal(), b.FloatVal()
	mk := gosvalue.NewFloat64
	if a.Type() == gosvalue.Float32 {
		mk = func(f float64) gosvalue.GosValue { return gosvalue.NewFloat32(float32(f)) }
	}
	switch op {
	case opcode.OpAdd:
		return mk(x + y)
	case opcode.OpSub:
		return mk(x - y)
	case opcode.OpMul:
		return mk(x * y)
	case opcode.OpDiv:
		return mk(x / y)
	case opcode.OpLess:
		return gosvalue.NewBool(x < y)
	case opcode.OpLessEq:
		return gosvalue.NewBool(x <= y)
	case opcode.OpGreater:
		return gosvalue.NewBool(x > y)
	case opcode.OpGreaterEq:
		return gosvalue.NewBool(x >= y)
	default:
		e.raisef(fb, "unsupported float operator %d", op)
		return gosvalue.NewFloat64(0)
	}
}

func (e *Engine) stringBinary(fb *Fiber, op opcode.BinaryOp, a, b gosvalue.GosValue) gosvalue.GosValue {
	x := e.program.Objects.String(gosvalue.StringHandle(a.Handle())).S
	y := e.program.Objects.String(gosvalue.StringHandle(b.Handle())).S
	switch op {
	case opcode.OpAdd:
		h := e.program.Objects.PutString(&gosvalue.StringObj{S: x + y})
		return gosvalue.NewStr(h)
	case opcode.OpLess:
		return gosvalue.NewBool(x < y)
	case opcode.OpLessEq:
		return gosvalue.NewBool(x <= y)
	case opcode.OpGreater:
		return gosvalue.NewBool(x > y)
	case opcode.OpGreaterEq:
		return gosvalue.NewBool(x >= y)
	default:
		e.raisef(fb, "unsupported string operator %d", op)
		return gosvalue.NewBool(false)
	}
}

// Package opcode defines the instruction vocabulary consumed by the Ember
// virtual machine and emitted by internal/codegen.
package opcode

import "github.com/emberlang/ember/internal/gosvalue"

// Op is a single VM operation.
type Op uint8

const (
	// Stack push
	PushTrue Op = iota
	PushFalse
	PushImm
	PushConst

	// Variable access
	LoadLocal
	LoadUpvalue
	LoadThisPkgField
	StoreLocal
	StoreUpvalue
	StoreThisPkgField

	// Composite access
	LoadField
	LoadFieldImm
	LoadIndex
	LoadIndexImm
	StoreField
	StoreIndex

	// Indirection
	StoreDeref

	// Arithmetic/comparison/logical evaluation. The operator is carried in
	// Imm0 as a BinaryOp; operands are already on the stack (rhs on top).
	// STORE_* fuses this step into the store itself for compound assignment
	// (see CodeToIndex) rather than emitting Binary followed by a store.
	Binary

	// Control flow
	Jump
	JumpIf
	JumpIfNot

	// Calls
	PreCall
	Call
	CallEllipsis

	// Misc
	Pop
	New
	Range
	Import
	Return
	ReturnInitPkg

	// Concurrency. Send pops a value and a channel and blocks until
	// delivered. Select pops Imm0 already-pushed channel descriptors (one
	// per non-default communication case, send operands pushed alongside
	// their channel) and blocks until one is ready, unless Imm1 is nonzero
	// (a default case is present) in which case it never blocks. It then
	// falls through to the (Imm0 + Imm1)-wide run of JUMP placeholders
	// codegen emits immediately after it, landing on the one belonging to
	// the case that fired. Go and Defer both pop a prepared call (the
	// callee and its already-evaluated arguments, same shape PRE_CALL/CALL
	// expect) without executing it inline: Go schedules it on a new fiber,
	// Defer queues it to run when the current function returns.
	Send
	Select
	Go
	Defer
)

var names = map[Op]string{
	PushTrue:          "PUSH_TRUE",
	PushFalse:         "PUSH_FALSE",
	PushImm:           "PUSH_IMM",
	PushConst:         "PUSH_CONST",
	LoadLocal:         "LOAD_LOCAL",
	LoadUpvalue:       "LOAD_UPVALUE",
	LoadThisPkgField:  "LOAD_THIS_PKG_FIELD",
	StoreLocal:        "STORE_LOCAL",
	StoreUpvalue:      "STORE_UPVALUE",
	StoreThisPkgField: "STORE_THIS_PKG_FIELD",
	LoadField:         "LOAD_FIELD",
	LoadFieldImm:      "LOAD_FIELD_IMM",
	LoadIndex:         "LOAD_INDEX",
	LoadIndexImm:      "LOAD_INDEX_IMM",
	StoreField:        "STORE_FIELD",
	StoreIndex:        "STORE_INDEX",
	StoreDeref:        "STORE_DEREF",
	Binary:            "BINARY",
	Jump:              "JUMP",
	JumpIf:            "JUMP_IF",
	JumpIfNot:         "JUMP_IF_NOT",
	PreCall:           "PRE_CALL",
	Call:              "CALL",
	CallEllipsis:      "CALL_ELLIPSIS",
	Pop:               "POP",
	New:               "NEW",
	Range:             "RANGE",
	Import:            "IMPORT",
	Return:            "RETURN",
	ReturnInitPkg:     "RETURN_INIT_PKG",
	Send:              "SEND",
	Select:            "SELECT",
	Go:                "GO",
	Defer:             "DEFER",
}

func (o Op) String() string {
	if n, ok := names[o]; ok {
		return n
	}
	return "OP_UNKNOWN"
}

// AbsentType is the reserved type-tag sentinel for an unused type0/type1/type2
// slot on an Instruction.
const AbsentType = gosvalue.ValueType(0xFF)

// Instruction is a fixed-width VM instruction: one opcode, up to three
// ValueType tags, and two signed 16-bit immediates packed into imm0/imm1.
type Instruction struct {
	Op    Op
	Type0 gosvalue.ValueType
	Type1 gosvalue.ValueType
	Type2 gosvalue.ValueType
	Imm0  int32
	Imm1  int32
}

// New builds an instruction with the given operand type tags defaulted to
// AbsentType.
func New(op Op, imm0, imm1 int32) Instruction {
	return Instruction{Op: op, Type0: AbsentType, Type1: AbsentType, Type2: AbsentType, Imm0: imm0, Imm1: imm1}
}

// WithTypes returns a copy of inst with its type tags set.
func (inst Instruction) WithTypes(t0, t1, t2 gosvalue.ValueType) Instruction {
	inst.Type0, inst.Type1, inst.Type2 = t0, t1, t2
	return inst
}

// BinaryOp identifies an arithmetic/comparison/logical operator that can be
// fused into a STORE_* instruction for compound assignment.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpEq
	OpNotEq
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpLogicalAnd
	OpLogicalOr
)

// compoundBase is added to a BinaryOp to obtain its code_to_index encoding,
// keeping the encoded value out of the range of valid rhs stack indices
// (which are always >= -1), so the two spaces never collide.
const compoundBase = -1 << 14

// CodeToIndex packs a compound operator into the imm0 slot of a STORE_*
// instruction. The mapping is injective: distinct BinaryOp values produce
// distinct, negative, out-of-rhs-range results so the VM can
// distinguish "imm0 is an rhs stack index" from "imm0 is a compound op" by
// range alone.
func CodeToIndex(op BinaryOp) int32 {
	return compoundBase - int32(op)
}

// IndexToCode reverses CodeToIndex. ok is false if imm0 does not encode a
// compound operator.
func IndexToCode(imm0 int32) (op BinaryOp, ok bool) {
	if imm0 > compoundBase {
		return 0, false
	}
	return BinaryOp(compoundBase - imm0), true
}

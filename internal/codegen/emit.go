package codegen

import (
	"github.com/emberlang/ember/internal/funcval"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/metadata"
	"github.com/emberlang/ember/internal/opcode"
)

// maxImmInt is the largest magnitude integer literal emit_load can fold
// directly into a PUSH_IMM operand instead of interning a constant-pool
// entry; it matches the width of a signed 16-bit immediate.
const maxImmInt = 1<<15 - 1
const minImmInt = -(1 << 15)

// lhsKind discriminates the LeftHandSide sum type the statement-level
// lowering builds for the left side of an assignment.
type lhsKind uint8

const (
	lhsPrimitive lhsKind = iota
	lhsIndexSel
	lhsDeref
)

// leftHandSide is the generator's internal representation of an assignable
// expression, built by evalLHS before the store is emitted.
type leftHandSide struct {
	kind lhsKind

	// lhsPrimitive
	ent funcval.EntIndex

	// lhsIndexSel: container/key or field access already evaluated onto the
	// stack by evalLHS.
	isIndex      bool
	containerTyp gosvalue.ValueType
	keyTyp       gosvalue.ValueType

	// lhsDeref
	ptrSlot int32

	typ gosvalue.ValueType
}

// emitLoad pushes the value named by ent onto the evaluation stack.
func (fs *funcState) emitLoad(ent funcval.EntIndex, typ gosvalue.ValueType) {
	switch ent.Kind {
	case funcval.EntConst:
		fs.emitLoadConst(ent.Index, typ)
	case funcval.EntLocalVar:
		fs.fn.EmitInst(opcode.LoadLocal, typ, opcode.AbsentType, opcode.AbsentType, int32(ent.Index), 0)
	case funcval.EntUpValue:
		fs.fn.EmitInst(opcode.LoadUpvalue, typ, opcode.AbsentType, opcode.AbsentType, int32(ent.Index), 0)
	case funcval.EntPackageMember:
		fs.fn.EmitInst(opcode.LoadThisPkgField, typ, opcode.AbsentType, opcode.AbsentType, int32(ent.Index), 0)
	case funcval.EntBuiltIn:
		fs.fn.EmitCode(ent.Builtin)
	case funcval.EntBlank:
		fs.gen.internalf("emit_load called on the blank identifier")
	}
}

func (fs *funcState) emitLoadConst(idx int, typ gosvalue.ValueType) {
	v := fs.fn.ConstVal(idx)
	if v.Type() == gosvalue.Bool {
		if v.BoolVal() {
			fs.fn.EmitCode(opcode.PushTrue)
		} else {
			fs.fn.EmitCode(opcode.PushFalse)
		}
		return
	}
	if isIntegral(v.Type()) {
		n := integralValue(v)
		if n >= minImmInt && n <= maxImmInt {
			fs.fn.EmitInst(opcode.PushImm, typ, opcode.AbsentType, opcode.AbsentType, int32(n), 0)
			return
		}
	}
	fs.fn.EmitInst(opcode.PushConst, typ, opcode.AbsentType, opcode.AbsentType, int32(idx), 0)
}

func isIntegral(t gosvalue.ValueType) bool {
	switch t {
	case gosvalue.Int, gosvalue.Int8, gosvalue.Int16, gosvalue.Int32, gosvalue.Int64,
		gosvalue.Uint, gosvalue.Uint8, gosvalue.Uint16, gosvalue.Uint32, gosvalue.Uint64:
		return true
	default:
		return false
	}
}

func integralValue(v gosvalue.GosValue) int64 {
	if isUnsigned(v.Type()) {
		return int64(v.UintVal())
	}
	return v.IntVal()
}

func isUnsigned(t gosvalue.ValueType) bool {
	switch t {
	case gosvalue.Uint, gosvalue.Uint8, gosvalue.Uint16, gosvalue.Uint32, gosvalue.Uint64:
		return true
	default:
		return false
	}
}

// emitStore writes a value to lhs. rhsIndex is the stack-relative position of
// the already-evaluated right-hand value, or -1 when compoundOp is set (the
// VM fuses load+op+store on its own side in that case).
func (fs *funcState) emitStore(lhs leftHandSide, rhsIndex int32, compoundOp *opcode.BinaryOp) {
	imm0 := rhsIndex
	if compoundOp != nil {
		imm0 = opcode.CodeToIndex(*compoundOp)
	}
	switch lhs.kind {
	case lhsPrimitive:
		switch lhs.ent.Kind {
		case funcval.EntBlank:
			return
		case funcval.EntLocalVar:
			fs.fn.EmitInst(opcode.StoreLocal, lhs.typ, opcode.AbsentType, opcode.AbsentType, imm0, int32(lhs.ent.Index))
		case funcval.EntUpValue:
			fs.fn.EmitInst(opcode.StoreUpvalue, lhs.typ, opcode.AbsentType, opcode.AbsentType, imm0, int32(lhs.ent.Index))
		case funcval.EntPackageMember:
			fs.fn.EmitInst(opcode.StoreThisPkgField, lhs.typ, opcode.AbsentType, opcode.AbsentType, imm0, int32(lhs.ent.Index))
		default:
			fs.gen.internalf("illegal assignment target entity kind %d", lhs.ent.Kind)
		}
	case lhsIndexSel:
		op := opcode.StoreField
		if lhs.isIndex {
			op = opcode.StoreIndex
		}
		fs.fn.EmitInst(op, lhs.containerTyp, lhs.keyTyp, lhs.typ, imm0, 0)
	case lhsDeref:
		fs.fn.EmitInst(opcode.StoreDeref, lhs.typ, opcode.AbsentType, opcode.AbsentType, imm0, lhs.ptrSlot)
	}
}

// emitImportGuard emits an IMPORT instruction followed by the guarded
// initializer call: IMPORT, JUMP_IF_NOT <past the call>, PUSH_IMM 0,
// LOAD_FIELD, PRE_CALL, CALL. The jump skips the trailing four instructions
// when IMPORT reports the package was already initialized, patched the same
// way every other conditional jump in this package is.
func (g *Generator) emitImportGuard(fs *funcState, pkgIndex int) {
	fs.fn.EmitInst(opcode.Import, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(pkgIndex), 0)
	skip := fs.emitJump(opcode.JumpIfNot)
	fs.fn.EmitInst(opcode.PushImm, gosvalue.Int, opcode.AbsentType, opcode.AbsentType, 0, 0)
	fs.fn.EmitInst(opcode.LoadField, gosvalue.Struct, gosvalue.Int, opcode.AbsentType, 0, 0)
	fs.fn.EmitInst(opcode.PreCall, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, 0, 0)
	fs.fn.EmitInst(opcode.Call, gosvalue.Closure, opcode.AbsentType, opcode.AbsentType, 0, 0)
	fs.patchAll([]int{skip}, fs.fn.Len())
}

func (fs *funcState) emitLoadFieldImm(containerTyp gosvalue.ValueType, offset int) {
	fs.fn.EmitInst(opcode.LoadFieldImm, containerTyp, opcode.AbsentType, opcode.AbsentType, int32(offset), 0)
}

func (fs *funcState) emitLoadField(containerTyp, selectorTyp gosvalue.ValueType) {
	fs.fn.EmitInst(opcode.LoadField, containerTyp, selectorTyp, opcode.AbsentType, 0, 0)
}

func (fs *funcState) emitLoadIndexImm(containerTyp gosvalue.ValueType, constIndex int) {
	fs.fn.EmitInst(opcode.LoadIndexImm, containerTyp, opcode.AbsentType, opcode.AbsentType, int32(constIndex), 0)
}

func (fs *funcState) emitLoadIndex(containerTyp, indexTyp gosvalue.ValueType) {
	fs.fn.EmitInst(opcode.LoadIndex, containerTyp, indexTyp, opcode.AbsentType, 0, 0)
}

func (fs *funcState) emitPreCall() {
	fs.fn.EmitCode(opcode.PreCall)
}

func (fs *funcState) emitCall(ellipsis bool) {
	op := opcode.Call
	if ellipsis {
		op = opcode.CallEllipsis
	}
	fs.fn.EmitCode(op)
}

// emitNew allocates a zero value of meta. The metadata handle is interned
// into the constant pool (the same way emitLoadConst addresses a constant)
// since typ alone is too coarse for the VM to size a struct's field vector
// or a slice/map's element type: every struct allocates as gosvalue.Struct,
// every slice as gosvalue.Slice, regardless of which declared type it is.
func (fs *funcState) emitNew(typ gosvalue.ValueType, meta metadata.GosMetadata) {
	idx := fs.fn.AddConst(gosvalue.NewMetadataValue(meta))
	fs.fn.EmitInst(opcode.New, typ, opcode.AbsentType, opcode.AbsentType, int32(idx), 0)
}

func (fs *funcState) emitRange() {
	fs.fn.EmitCode(opcode.Range)
}

func (fs *funcState) emitPop(typ gosvalue.ValueType) {
	fs.fn.EmitInst(opcode.Pop, typ, opcode.AbsentType, opcode.AbsentType, 0, 0)
}

func (fs *funcState) emitReturn() {
	fs.fn.EmitCode(opcode.Return)
}

func (fs *funcState) emitBinary(op opcode.BinaryOp, typ gosvalue.ValueType) {
	fs.fn.EmitInst(opcode.Binary, typ, opcode.AbsentType, opcode.AbsentType, int32(op), 0)
}

// emitJump appends a jump of the given kind with a placeholder offset and
// returns its pc for later patching via funcState.patchAll.
func (fs *funcState) emitJump(op opcode.Op) int {
	return fs.fn.EmitInst(op, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, 0, 0)
}

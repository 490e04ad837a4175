// Package funcval implements FunctionVal: a function's constant
// pool, local-variable frame layout, up-value table, code buffer, and the
// EntIndex handle the code generator uses to address a storage site.
package funcval

import (
	"fmt"

	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/metadata"
	"github.com/emberlang/ember/internal/opcode"
)

// EntIndexKind discriminates the EntIndex sum type.
type EntIndexKind uint8

const (
	EntConst EntIndexKind = iota
	EntLocalVar
	EntUpValue
	EntPackageMember
	EntBuiltIn
	EntBlank
)

// EntIndex is the code generator's handle to a storage site.
type EntIndex struct {
	Kind EntIndexKind
	// Index is the slot/const/pkg-member index for Const/LocalVar/UpValue/
	// PackageMember; it is unused for BuiltIn and Blank.
	Index int
	// Builtin carries the resolved opcode for EntBuiltIn.
	Builtin opcode.Op
}

func Const(i int) EntIndex         { return EntIndex{Kind: EntConst, Index: i} }
func LocalVar(i int) EntIndex      { return EntIndex{Kind: EntLocalVar, Index: i} }
func UpValue(i int) EntIndex       { return EntIndex{Kind: EntUpValue, Index: i} }
func PackageMember(i int) EntIndex { return EntIndex{Kind: EntPackageMember, Index: i} }
func BuiltIn(op opcode.Op) EntIndex {
	return EntIndex{Kind: EntBuiltIn, Builtin: op}
}

var Blank = EntIndex{Kind: EntBlank}

// LocalSlot is one entry of a function's local-variable frame layout: an
// ordered slot, optionally bound to a source symbol name.
type LocalSlot struct {
	Symbol string
	Type   metadata.GosMetadata
}

// UpvalueSlot describes one captured outer-scope binding: the name
// for diagnostics, and whether it is itself an up-value of the *enclosing*
// function (chained capture) or a direct local of the immediately enclosing
// frame.
type UpvalueSlot struct {
	Symbol        string
	Type          metadata.GosMetadata
	FromParentUp  bool // true: capture parent's up-value slot; false: capture parent's local slot
	ParentIndex   int
}

// FunctionVal holds everything the VM needs to execute one compiled
// function.
type FunctionVal struct {
	Name      string
	Signature metadata.GosMetadata // KindSignature entry in the metadata registry

	consts   []gosvalue.GosValue
	locals   []LocalSlot
	upvalues []UpvalueSlot
	code     []opcode.Instruction

	ParamCount  int
	ResultCount int
	Variadic    bool
}

// New constructs an empty function value with the given signature.
func New(name string, sig metadata.GosMetadata, paramCount, resultCount int, variadic bool) *FunctionVal {
	return &FunctionVal{
		Name:        name,
		Signature:   sig,
		ParamCount:  paramCount,
		ResultCount: resultCount,
		Variadic:    variadic,
	}
}

// AddLocal appends a local and returns its index.
func (f *FunctionVal) AddLocal(symbol string, typ metadata.GosMetadata) int {
	idx := len(f.locals)
	f.locals = append(f.locals, LocalSlot{Symbol: symbol, Type: typ})
	return idx
}

// AddUpvalue appends a captured outer-scope binding and returns its index.
func (f *FunctionVal) AddUpvalue(symbol string, typ metadata.GosMetadata, fromParentUp bool, parentIndex int) int {
	idx := len(f.upvalues)
	f.upvalues = append(f.upvalues, UpvalueSlot{
		Symbol: symbol, Type: typ, FromParentUp: fromParentUp, ParentIndex: parentIndex,
	})
	return idx
}

// AddConst interns v into the constant pool, deduplicating scalar constants
// by value, and returns its index.
func (f *FunctionVal) AddConst(v gosvalue.GosValue) int {
	for i, existing := range f.consts {
		if constEqual(existing, v) {
			return i
		}
	}
	idx := len(f.consts)
	f.consts = append(f.consts, v)
	return idx
}

// constEqual is a conservative, handle/scalar-based equality used only for
// constant-pool deduplication; it never needs the full runtime Equal
// (reference-kind constants are never deduplicated across distinct literal
// sites).
func constEqual(a, b gosvalue.GosValue) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch a.Type() {
	case gosvalue.Bool:
		return a.BoolVal() == b.BoolVal()
	case gosvalue.Int, gosvalue.Int8, gosvalue.Int16, gosvalue.Int32, gosvalue.Int64:
		return a.IntVal() == b.IntVal()
	case gosvalue.Uint, gosvalue.Uint8, gosvalue.Uint16, gosvalue.Uint32, gosvalue.Uint64:
		return a.UintVal() == b.UintVal()
	case gosvalue.Float32, gosvalue.Float64:
		return a.FloatVal() == b.FloatVal()
	default:
		return false
	}
}

// ConstVal fetches a constant by index.
func (f *FunctionVal) ConstVal(i int) gosvalue.GosValue { return f.consts[i] }

// Consts returns the constant pool (not a copy; callers must not mutate).
func (f *FunctionVal) Consts() []gosvalue.GosValue { return f.consts }

// Locals returns the local-variable layout (not a copy).
func (f *FunctionVal) Locals() []LocalSlot { return f.locals }

// Upvalues returns the up-value table (not a copy).
func (f *FunctionVal) Upvalues() []UpvalueSlot { return f.upvalues }

// EmitCode appends a bare opcode with no operands.
func (f *FunctionVal) EmitCode(op opcode.Op) int {
	return f.appendInst(opcode.New(op, -1, 0))
}

// EmitInst appends a fully-specified instruction.
func (f *FunctionVal) EmitInst(op opcode.Op, t0, t1, t2 gosvalue.ValueType, imm0, imm1 int32) int {
	inst := opcode.New(op, imm0, imm1).WithTypes(t0, t1, t2)
	return f.appendInst(inst)
}

func (f *FunctionVal) appendInst(inst opcode.Instruction) int {
	idx := len(f.code)
	f.code = append(f.code, inst)
	return idx
}

// Code returns the instruction buffer (not a copy; internal/codegen patches
// jump targets in place before the buffer is considered final).
func (f *FunctionVal) Code() []opcode.Instruction { return f.code }

// PatchJumpTarget rewrites the Imm0 offset of the jump instruction at pc to
// point to target, used for control-flow back-patching.
func (f *FunctionVal) PatchJumpTarget(pc int, target int) error {
	if pc < 0 || pc >= len(f.code) {
		return fmt.Errorf("funcval: patch target out of range: %d", pc)
	}
	inst := f.code[pc]
	switch inst.Op {
	case opcode.Jump, opcode.JumpIf, opcode.JumpIfNot:
		inst.Imm0 = int32(target - pc)
		f.code[pc] = inst
		return nil
	default:
		return fmt.Errorf("funcval: pc %d is not a jump instruction", pc)
	}
}

// Len reports the current instruction count, i.e. the pc of the next
// instruction to be appended.
func (f *FunctionVal) Len() int { return len(f.code) }

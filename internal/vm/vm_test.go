package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/internal/codegen"
	"github.com/emberlang/ember/internal/funcval"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/metadata"
	"github.com/emberlang/ember/internal/opcode"
)

// newTestProgram builds an empty Program with a fresh metadata registry and
// value arena, the way codegen.Generator would leave one after walking a
// file, minus any actual functions: each test adds its own.
func newTestProgram() (*codegen.Program, *metadata.Registry) {
	objs := gosvalue.NewObjects()
	reg := metadata.NewRegistry(objs)
	return &codegen.Program{
		Registry: reg,
		Objects:  objs,
		InitFunc: emptyInitFunc(reg),
	}, reg
}

func emptyInitFunc(reg *metadata.Registry) *funcval.FunctionVal {
	sig := reg.NewSig(nil, nil, nil, false)
	fn := funcval.New("__init__", sig, 0, 0, false)
	fn.EmitCode(opcode.ReturnInitPkg)
	return fn
}

func runMain(t *testing.T, prog *codegen.Program, fn *funcval.FunctionVal, args ...gosvalue.GosValue) []gosvalue.GosValue {
	t.Helper()
	e := NewEngine(prog)
	require.NoError(t, e.Init(&bytes.Buffer{}))
	results, err := e.Call(&bytes.Buffer{}, fn, args)
	require.NoError(t, err)
	return results
}

// TestArithmeticAddsTwoLocals builds:
//
//	func f(a, b int) int { return a + b }
func TestArithmeticAddsTwoLocals(t *testing.T) {
	prog, reg := newTestProgram()
	intMeta := reg.Scalar(gosvalue.Int)
	sig := reg.NewSig(nil, []metadata.GosMetadata{intMeta, intMeta}, []metadata.GosMetadata{intMeta}, false)
	fn := funcval.New("f", sig, 2, 1, false)
	fn.AddLocal("a", intMeta)
	fn.AddLocal("b", intMeta)

	fn.EmitInst(opcode.LoadLocal, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, 0, 0)
	fn.EmitInst(opcode.LoadLocal, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, 1, 0)
	fn.EmitInst(opcode.Binary, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(opcode.OpAdd), 0)
	fn.EmitCode(opcode.Return)
	prog.Funcs = []*funcval.FunctionVal{fn}

	results := runMain(t, prog, fn, gosvalue.NewInt(3), gosvalue.NewInt(4))
	require.Len(t, results, 1)
	require.Equal(t, int64(7), results[0].IntVal())
}

// TestLoopSumsToTen builds:
//
//	func f() int {
//	    sum := 0
//	    i := 0
//	    for i < 5 {
//	        sum = sum + i
//	        i = i + 1
//	    }
//	    return sum
//	}
func TestLoopSumsToTen(t *testing.T) {
	prog, reg := newTestProgram()
	intMeta := reg.Scalar(gosvalue.Int)
	sig := reg.NewSig(nil, nil, []metadata.GosMetadata{intMeta}, false)
	fn := funcval.New("f", sig, 0, 1, false)
	sumSlot := int32(fn.AddLocal("sum", intMeta))
	iSlot := int32(fn.AddLocal("i", intMeta))

	zero := fn.AddConst(gosvalue.NewInt(0))
	five := fn.AddConst(gosvalue.NewInt(5))
	one := fn.AddConst(gosvalue.NewInt(1))

	fn.EmitInst(opcode.PushConst, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(zero), 0)
	fn.EmitInst(opcode.StoreLocal, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, -1, sumSlot)
	fn.EmitInst(opcode.PushConst, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(zero), 0)
	fn.EmitInst(opcode.StoreLocal, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, -1, iSlot)

	condPC := fn.Len()
	fn.EmitInst(opcode.LoadLocal, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, iSlot, 0)
	fn.EmitInst(opcode.PushConst, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(five), 0)
	fn.EmitInst(opcode.Binary, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(opcode.OpLess), 0)
	exitJump := fn.EmitCode(opcode.JumpIfNot)

	fn.EmitInst(opcode.LoadLocal, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, sumSlot, 0)
	fn.EmitInst(opcode.LoadLocal, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, iSlot, 0)
	fn.EmitInst(opcode.Binary, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(opcode.OpAdd), 0)
	fn.EmitInst(opcode.StoreLocal, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, -1, sumSlot)

	fn.EmitInst(opcode.LoadLocal, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, iSlot, 0)
	fn.EmitInst(opcode.PushConst, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(one), 0)
	fn.EmitInst(opcode.Binary, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(opcode.OpAdd), 0)
	fn.EmitInst(opcode.StoreLocal, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, -1, iSlot)

	backJump := fn.EmitCode(opcode.Jump)
	require.NoError(t, fn.PatchJumpTarget(backJump, condPC))

	exitPC := fn.Len()
	require.NoError(t, fn.PatchJumpTarget(exitJump, exitPC))

	fn.EmitInst(opcode.LoadLocal, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, sumSlot, 0)
	fn.EmitCode(opcode.Return)
	prog.Funcs = []*funcval.FunctionVal{fn}

	results := runMain(t, prog, fn)
	require.Len(t, results, 1)
	require.Equal(t, int64(0+1+2+3+4), results[0].IntVal())
}

// TestClosureCapturesOuterLocalByReference builds an outer function that
// allocates a counter local, constructs a closure over it (a PUSH_CONST of a
// Closure-typed constant, captured fresh at load time the way PUSH_CONST's
// handler does for any closure constant), and calls it twice, checking the
// capture observes the counter's mutation between calls the way a real
// upvalue does.
func TestClosureCapturesOuterLocalByReference(t *testing.T) {
	prog, reg := newTestProgram()
	intMeta := reg.Scalar(gosvalue.Int)
	innerSig := reg.NewSig(nil, nil, []metadata.GosMetadata{intMeta}, false)
	inner := funcval.New("inner", innerSig, 0, 1, false)
	inner.AddUpvalue("counter", intMeta, false, 0)
	inner.EmitInst(opcode.LoadUpvalue, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, 0, 0)
	inner.EmitCode(opcode.Return)

	outerSig := reg.NewSig(nil, nil, []metadata.GosMetadata{intMeta, intMeta}, false)
	outer := funcval.New("outer", outerSig, 0, 2, false)
	counterSlot := int32(outer.AddLocal("counter", intMeta))

	prog.Funcs = []*funcval.FunctionVal{inner, outer}
	closureConst := outer.AddConst(closureTemplate(prog.Objects, 0))

	seven := outer.AddConst(gosvalue.NewInt(7))
	outer.EmitInst(opcode.PushConst, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(seven), 0)
	outer.EmitInst(opcode.StoreLocal, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, -1, counterSlot)

	outer.EmitInst(opcode.PushConst, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(closureConst), 0)
	outer.EmitCode(opcode.PreCall)
	outer.EmitInst(opcode.Call, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, 0, 0)

	eight := outer.AddConst(gosvalue.NewInt(8))
	outer.EmitInst(opcode.PushConst, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(eight), 0)
	outer.EmitInst(opcode.StoreLocal, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, -1, counterSlot)

	outer.EmitInst(opcode.PushConst, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(closureConst), 0)
	outer.EmitCode(opcode.PreCall)
	outer.EmitInst(opcode.Call, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, 0, 0)
	outer.EmitCode(opcode.Return)

	results := runMain(t, prog, outer)
	require.Len(t, results, 2)
	require.Equal(t, int64(7), results[0].IntVal())
	require.Equal(t, int64(8), results[1].IntVal())
}

func closureTemplate(objs *gosvalue.Objects, funcKey int64) gosvalue.GosValue {
	h := objs.PutClosure(&gosvalue.ClosureObj{FuncKey: funcKey})
	return gosvalue.NewClosure(h)
}

// TestStructFieldStoreAndLoadByIndex builds a two-field struct, stores into
// field 1 with the compile-time-indexed STORE_FIELD form composite literals
// use, and reads it back with LOAD_FIELD_IMM.
func TestStructFieldStoreAndLoadByIndex(t *testing.T) {
	prog, reg := newTestProgram()
	intMeta := reg.Scalar(gosvalue.Int)
	structMeta := reg.NewStruct([]metadata.Field{{Name: "X", Type: intMeta}, {Name: "Y", Type: intMeta}})
	sig := reg.NewSig(nil, nil, []metadata.GosMetadata{intMeta}, false)
	fn := funcval.New("f", sig, 0, 1, false)

	structConst := fn.AddConst(gosvalue.NewMetadataValue(structMeta))
	fortyTwo := fn.AddConst(gosvalue.NewInt(42))

	fn.EmitInst(opcode.New, gosvalue.Struct, opcode.AbsentType, opcode.AbsentType, int32(structConst), 0)
	fn.EmitInst(opcode.PushConst, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(fortyTwo), 0)
	fn.EmitInst(opcode.StoreField, opcode.AbsentType, gosvalue.Int, opcode.AbsentType, 1, 0)
	fn.EmitInst(opcode.LoadFieldImm, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, 1, 0)
	fn.EmitCode(opcode.Return)
	prog.Funcs = []*funcval.FunctionVal{fn}

	results := runMain(t, prog, fn)
	require.Len(t, results, 1)
	require.Equal(t, int64(42), results[0].IntVal())
}

// TestUncaughtPanicReachesCallerAsError drives a function that raises a
// language-level panic via e.raisef (the same path an out-of-range index or
// a nil dereference takes) with no defer anywhere in its call tree, and
// confirms Engine.Call's callRecovered wrapper turns the resulting emberPanic
// into a plain error instead of letting it escape as an unrecovered Go panic
// of an unexported type.
func TestUncaughtPanicReachesCallerAsError(t *testing.T) {
	prog, reg := newTestProgram()
	intMeta := reg.Scalar(gosvalue.Int)
	sliceMeta := reg.NewSlice(intMeta)
	sig := reg.NewSig(nil, nil, []metadata.GosMetadata{intMeta}, false)
	fn := funcval.New("f", sig, 0, 1, false)

	sliceConst := fn.AddConst(gosvalue.NewMetadataValue(sliceMeta))
	five := fn.AddConst(gosvalue.NewInt(5))

	fn.EmitInst(opcode.New, gosvalue.Slice, opcode.AbsentType, opcode.AbsentType, int32(sliceConst), 0)
	fn.EmitInst(opcode.PushConst, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(five), 0)
	fn.EmitCode(opcode.LoadIndex)
	fn.EmitCode(opcode.Return)
	prog.Funcs = []*funcval.FunctionVal{fn}

	e := NewEngine(prog)
	require.NoError(t, e.Init(&bytes.Buffer{}))
	_, err := e.Call(&bytes.Buffer{}, fn, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "index out of range")
}

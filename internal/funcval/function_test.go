package funcval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/metadata"
	"github.com/emberlang/ember/internal/opcode"
)

func newTestFunc() (*FunctionVal, *metadata.Registry) {
	r := metadata.NewRegistry(gosvalue.NewObjects())
	intMeta := r.Scalar(gosvalue.Int)
	sig := r.NewSig(nil, []metadata.GosMetadata{intMeta}, []metadata.GosMetadata{intMeta}, false)
	return New("f", sig, 1, 1, false), r
}

func TestAddLocalAndUpvalueAssignSequentialIndices(t *testing.T) {
	f, r := newTestFunc()
	intMeta := r.Scalar(gosvalue.Int)

	i0 := f.AddLocal("x", intMeta)
	i1 := f.AddLocal("y", intMeta)
	require.Equal(t, 0, i0)
	require.Equal(t, 1, i1)
	require.Len(t, f.Locals(), 2)
	require.Equal(t, "x", f.Locals()[0].Symbol)

	u0 := f.AddUpvalue("outer", intMeta, false, 3)
	require.Equal(t, 0, u0)
	require.False(t, f.Upvalues()[0].FromParentUp)
	require.Equal(t, 3, f.Upvalues()[0].ParentIndex)
}

func TestAddConstDeduplicatesScalars(t *testing.T) {
	f, _ := newTestFunc()

	i0 := f.AddConst(gosvalue.NewInt(42))
	i1 := f.AddConst(gosvalue.NewInt(42))
	i2 := f.AddConst(gosvalue.NewInt(7))

	require.Equal(t, i0, i1)
	require.NotEqual(t, i0, i2)
	require.Len(t, f.Consts(), 2)
	require.Equal(t, int64(42), f.ConstVal(i0).IntVal())
}

func TestAddConstDoesNotDeduplicateAcrossDistinctTypes(t *testing.T) {
	f, _ := newTestFunc()

	i0 := f.AddConst(gosvalue.NewInt(0))
	i1 := f.AddConst(gosvalue.NewBool(false))
	require.NotEqual(t, i0, i1)
}

func TestEmitCodeAndEmitInst(t *testing.T) {
	f, _ := newTestFunc()

	pc0 := f.EmitCode(opcode.Pop)
	require.Equal(t, 0, pc0)
	require.Equal(t, opcode.AbsentType, f.Code()[pc0].Type0)

	pc1 := f.EmitInst(opcode.LoadLocal, gosvalue.Int, opcode.AbsentType, opcode.AbsentType, 0, 0)
	require.Equal(t, 1, pc1)
	require.Equal(t, gosvalue.Int, f.Code()[pc1].Type0)
	require.Equal(t, 2, f.Len())
}

func TestPatchJumpTargetRewritesRelativeOffset(t *testing.T) {
	f, _ := newTestFunc()

	jumpPC := f.EmitCode(opcode.Jump)
	f.EmitCode(opcode.Pop)
	f.EmitCode(opcode.Pop)
	targetPC := f.Len()

	require.NoError(t, f.PatchJumpTarget(jumpPC, targetPC))
	require.Equal(t, int32(targetPC-jumpPC), f.Code()[jumpPC].Imm0)
}

func TestPatchJumpTargetRejectsNonJumpInstruction(t *testing.T) {
	f, _ := newTestFunc()
	popPC := f.EmitCode(opcode.Pop)

	err := f.PatchJumpTarget(popPC, 5)
	require.Error(t, err)
}

func TestPatchJumpTargetRejectsOutOfRangePC(t *testing.T) {
	f, _ := newTestFunc()
	err := f.PatchJumpTarget(99, 0)
	require.Error(t, err)
}

func TestBuiltinAndBlankEntIndexKinds(t *testing.T) {
	b := BuiltIn(opcode.Range)
	require.Equal(t, EntBuiltIn, b.Kind)
	require.Equal(t, opcode.Range, b.Builtin)

	require.Equal(t, EntBlank, Blank.Kind)

	c := Const(3)
	require.Equal(t, EntConst, c.Kind)
	require.Equal(t, 3, c.Index)
}

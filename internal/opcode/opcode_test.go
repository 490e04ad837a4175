package opcode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeToIndexInjective(t *testing.T) {
	ops := []BinaryOp{OpAdd, OpSub, OpMul, OpDiv, OpMod, OpAnd, OpOr, OpXor,
		OpShl, OpShr, OpEq, OpNotEq, OpLess, OpLessEq, OpGreater, OpGreaterEq,
		OpLogicalAnd, OpLogicalOr}

	seen := map[int32]BinaryOp{}
	for _, op := range ops {
		idx := CodeToIndex(op)
		require.LessOrEqual(t, idx, int32(-2), "compound encoding must never collide with a valid rhs index (-1 or >= 0)")
		if prev, ok := seen[idx]; ok {
			t.Fatalf("collision: %v and %v both map to %d", prev, op, idx)
		}
		seen[idx] = op

		decoded, ok := IndexToCode(idx)
		require.True(t, ok)
		require.Equal(t, op, decoded)
	}
}

func TestIndexToCodeRejectsPlainRhsIndex(t *testing.T) {
	for _, imm0 := range []int32{-1, 0, 1, 42} {
		_, ok := IndexToCode(imm0)
		require.False(t, ok, "imm0=%d should not decode as a compound op", imm0)
	}
}

func TestInstructionAbsentTypeSentinel(t *testing.T) {
	inst := New(Pop, -1, 0)
	require.EqualValues(t, AbsentType, inst.Type0)
	require.EqualValues(t, AbsentType, inst.Type1)
	require.EqualValues(t, AbsentType, inst.Type2)
}

package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/internal/gosvalue"
)

func newRegistry() *Registry {
	return NewRegistry(gosvalue.NewObjects())
}

// Pointer depth increments and decrements should be exact inverses up to the max depth boundary.
func TestPointerDepthAlgebra(t *testing.T) {
	r := newRegistry()
	base := r.Scalar(gosvalue.Int)

	for d := 0; d <= gosvalue.MaxPointerDepth; d++ {
		m := base
		for i := 0; i < d; i++ {
			var err error
			m, err = r.PtrTo(m)
			require.NoError(t, err)
		}
		for i := 0; i < d; i++ {
			var err error
			m, err = r.UnptrTo(m)
			require.NoError(t, err)
		}
		require.Equal(t, base, m)
	}

	atMax := base
	for i := 0; i < gosvalue.MaxPointerDepth; i++ {
		var err error
		atMax, err = r.PtrTo(atMax)
		require.NoError(t, err)
	}
	_, err := r.PtrTo(atMax)
	require.Error(t, err)

	_, err = r.UnptrTo(base)
	require.Error(t, err)
}

// A zero value copied and compared to itself should always be equal, for every kind.
func TestZeroValueRoundTrip(t *testing.T) {
	r := newRegistry()

	metas := []GosMetadata{
		r.Scalar(gosvalue.Int),
		r.Scalar(gosvalue.Bool),
		r.NewStr(),
		r.NewSlice(r.Scalar(gosvalue.Int)),
		r.NewMap(r.Scalar(gosvalue.Str), r.Scalar(gosvalue.Int)),
		r.NewStruct([]Field{{Name: "X", Type: r.Scalar(gosvalue.Int)}}),
		r.NewNamed(r.Scalar(gosvalue.Int)),
	}

	for _, m := range metas {
		zero := r.ZeroVal(m)
		cloned := gosvalue.CopySemantic(zero, r.RawObjects())
		require.True(t, gosvalue.Equal(zero, cloned, r.RawObjects()))
	}
}

// A freshly registered struct's zero instance must carry the struct's own metadata handle.
func TestStructSelfReference(t *testing.T) {
	r := newRegistry()
	s := r.NewStruct([]Field{{Name: "A", Type: r.Scalar(gosvalue.Int)}})

	zero := r.ZeroVal(s)
	zeroStruct := r.RawObjects().Struct(gosvalue.StructHandle(zero.Handle()))
	require.Equal(t, s, zeroStruct.Meta)
}

// Method indices are assigned in insertion order and never change once assigned.
func TestMethodTableMonotonicity(t *testing.T) {
	r := newRegistry()
	named := r.NewNamed(r.Scalar(gosvalue.Int))

	idx1, err := r.AddMethod("Foo", false, named)
	require.NoError(t, err)
	require.Equal(t, 0, idx1)

	idx2, err := r.AddMethod("Bar", true, named)
	require.NoError(t, err)
	require.Equal(t, 1, idx2)

	got, err := r.MethodIndex("Foo", named)
	require.NoError(t, err)
	require.Equal(t, idx1, got)

	require.NoError(t, r.SetMethodCode("Foo", FunctionKey(42), named))
	got2, err := r.MethodIndex("Foo", named)
	require.NoError(t, err)
	require.Equal(t, idx1, got2)
}

func TestNamedCannotWrapNamed(t *testing.T) {
	r := newRegistry()
	named := r.NewNamed(r.Scalar(gosvalue.Int))

	require.Panics(t, func() {
		r.NewNamed(named)
	})
}

func TestIdenticalStructural(t *testing.T) {
	r := newRegistry()
	sliceA := r.NewSlice(r.Scalar(gosvalue.Int))
	sliceB := r.NewSlice(r.Scalar(gosvalue.Int))
	sliceC := r.NewSlice(r.Scalar(gosvalue.Str))

	require.True(t, r.Identical(sliceA, sliceB))
	require.False(t, r.Identical(sliceA, sliceC))

	namedA := r.NewNamed(r.Scalar(gosvalue.Int))
	namedB := r.NewNamed(r.Scalar(gosvalue.Int))
	require.False(t, r.Identical(namedA, namedB), "two distinct Named types with the same underlying are not identical")
	require.True(t, r.Identical(namedA, namedA))
}

func TestDefaultValSliceAndMap(t *testing.T) {
	r := newRegistry()
	sliceMeta := r.NewSlice(r.Scalar(gosvalue.Int))
	v, err := r.DefaultVal(sliceMeta)
	require.NoError(t, err)
	require.False(t, v.IsNil())

	mapMeta := r.NewMap(r.Scalar(gosvalue.Str), r.Scalar(gosvalue.Int))
	v2, err := r.DefaultVal(mapMeta)
	require.NoError(t, err)
	require.False(t, v2.IsNil())

	chanMeta := r.NewChannel(r.Scalar(gosvalue.Int))
	_, err = r.DefaultVal(chanMeta)
	require.Error(t, err)
}

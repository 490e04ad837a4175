package gosvalue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytesValRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		v    GosValue
		want []byte
	}{
		{"bool-true", NewBool(true), []byte{1}},
		{"int8", NewInt8(-1), []byte{0xFF}},
		{"uint16", NewUint16(0x1234), []byte{0x34, 0x12}},
		{"int32", NewInt32(1), []byte{1, 0, 0, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.v.BytesVal()
			require.Equal(t, tc.want, got[:len(tc.want)])
		})
	}
}

func TestCopySemanticStructIsDeep(t *testing.T) {
	objs := NewObjects()
	meta := GosMetadata{Key: 1}
	inner := &StructObj{Meta: meta, Fields: []GosValue{NewInt(1)}}
	innerHandle := objs.PutStruct(inner)
	outer := &StructObj{Meta: meta, Fields: []GosValue{NewStruct(innerHandle)}}
	outerVal := NewStruct(objs.PutStruct(outer))

	cloned := CopySemantic(outerVal, objs)
	require.True(t, Equal(outerVal, cloned, objs))

	// Mutate the clone's nested struct in place; the original must be
	// unaffected because copy_semantic for Struct clones element-by-element.
	clonedOuter := objs.Struct(StructHandle(cloned.Handle()))
	clonedInner := objs.Struct(StructHandle(clonedOuter.Fields[0].Handle()))
	clonedInner.Fields[0] = NewInt(99)

	require.False(t, Equal(outerVal, cloned, objs))
	require.Equal(t, int64(1), inner.Fields[0].IntVal())
}

func TestCopySemanticReferenceKindSharesHandle(t *testing.T) {
	objs := NewObjects()
	m := NewMapObj()
	h := objs.PutMap(m)
	v := NewMap(h)

	cloned := CopySemantic(v, objs)
	require.Equal(t, v.Handle(), cloned.Handle())
}

func TestNilRequiresIdenticalMetadataToCompareEqual(t *testing.T) {
	objs := NewObjects()
	metaA := GosMetadata{Key: 1}
	metaB := GosMetadata{Key: 2}

	nilA := NewNil(Pointer, metaA)
	nilA2 := NewNil(Pointer, metaA)
	nilB := NewNil(Pointer, metaB)

	require.True(t, Equal(nilA, nilA2, objs))
	require.False(t, Equal(nilA, nilB, objs))
}

func TestNamedEqualityDispatchesToUnderlying(t *testing.T) {
	objs := NewObjects()
	meta := GosMetadata{Key: 7}

	a := NewNamed(objs, NewInt(10), meta)
	b := NewNamed(objs, NewInt(10), meta)
	c := NewNamed(objs, NewInt(11), meta)

	require.True(t, Equal(a, b, objs))
	require.False(t, Equal(a, c, objs))
	require.Equal(t, int64(10), Underlying(a, objs).IntVal())
}

func TestGetMetaPointerIncrementsDepth(t *testing.T) {
	objs := NewObjects()
	pointee := GosMetadata{Key: 3, Depth: 1}
	p := NewPointer(objs.PutPointer(&PointerObj{}), pointee)

	got := GetMeta(p, objs)
	require.Equal(t, uint8(2), got.Depth)
	require.Equal(t, pointee.Key, got.Key)
}

func TestGetMetaInterfaceReturnsDynamicType(t *testing.T) {
	objs := NewObjects()
	dynMeta := GosMetadata{Key: 5}
	h := objs.PutInterface(&InterfaceObj{Value: NewInt(1), ValueMeta: dynMeta})
	iv := NewInterface(h)

	require.Equal(t, dynMeta, GetMeta(iv, objs))
}

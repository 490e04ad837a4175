package ffi_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/internal/ffi"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/metadata"
)

type fakeFiber struct {
	out      bytes.Buffer
	panicVal gosvalue.GosValue
	panicked bool
}

func (f *fakeFiber) Panic(v gosvalue.GosValue) { f.panicked = true; f.panicVal = v }

func (f *fakeFiber) Recover() (gosvalue.GosValue, bool) {
	if !f.panicked {
		return gosvalue.GosValue{}, false
	}
	f.panicked = false
	return f.panicVal, true
}

func (f *fakeFiber) Stdout() io.Writer { return &f.out }

func newTestContext() (*ffi.Context, *fakeFiber) {
	objs := gosvalue.NewObjects()
	reg := metadata.NewRegistry(objs)
	fb := &fakeFiber{}
	return &ffi.Context{Registry: reg, Objects: objs, Fiber: fb}, fb
}

func TestLenOfString(t *testing.T) {
	ctx, _ := newTestContext()
	h := ctx.Objects.PutString(&gosvalue.StringObj{S: "hello"})
	reg := ffi.NewRegistry()
	out, err := reg.Call(ctx, "len", []gosvalue.GosValue{gosvalue.NewStr(h)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(5), out[0].IntVal())
}

func TestAppendGrowsNilSlice(t *testing.T) {
	ctx, _ := newTestContext()
	reg := ffi.NewRegistry()
	out, err := reg.Call(ctx, "append", []gosvalue.GosValue{
		gosvalue.NewNil(gosvalue.Slice, gosvalue.GosMetadata{}),
		gosvalue.NewInt(42),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	sl := ctx.Objects.Slice(gosvalue.SliceHandle(out[0].Handle()))
	assert.Equal(t, 1, sl.Len)
	assert.Equal(t, int64(42), sl.Backing.Data[0].IntVal())
}

func TestMakeSlice(t *testing.T) {
	ctx, _ := newTestContext()
	elem := ctx.Registry.Scalar(gosvalue.Int)
	sliceTy := ctx.Registry.NewSlice(elem)
	reg := ffi.NewRegistry()
	out, err := reg.Call(ctx, "make", []gosvalue.GosValue{
		gosvalue.NewMetadataValue(sliceTy),
		gosvalue.NewInt(3),
	})
	require.NoError(t, err)
	sl := ctx.Objects.Slice(gosvalue.SliceHandle(out[0].Handle()))
	assert.Equal(t, 3, sl.Len)
	assert.Equal(t, 3, sl.Cap)
}

func TestDeleteFromMap(t *testing.T) {
	ctx, _ := newTestContext()
	mo := gosvalue.NewMapObj()
	mo.Set(gosvalue.MapKey(gosvalue.NewInt(1), ctx.Objects), gosvalue.NewInt(100))
	h := ctx.Objects.PutMap(mo)
	reg := ffi.NewRegistry()
	_, err := reg.Call(ctx, "delete", []gosvalue.GosValue{gosvalue.NewMap(h), gosvalue.NewInt(1)})
	require.NoError(t, err)
	assert.Equal(t, 0, mo.Len())
}

func TestPanicRecoverRoundtrip(t *testing.T) {
	ctx, fb := newTestContext()
	reg := ffi.NewRegistry()
	_, err := reg.Call(ctx, "panic", []gosvalue.GosValue{gosvalue.NewInt(7)})
	require.NoError(t, err)
	assert.True(t, fb.panicked)

	out, err := reg.Call(ctx, "recover", nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(7), out[0].IntVal())
	assert.False(t, fb.panicked)
}

func TestReflectBoolVal(t *testing.T) {
	ctx, _ := newTestContext()
	reg := ffi.NewRegistry()
	out, err := reg.Call(ctx, "reflect.BoolVal", []gosvalue.GosValue{gosvalue.NewBool(true)})
	require.NoError(t, err)
	assert.True(t, out[0].BoolVal())
}

func TestCallUnknownNameIsRuntimeError(t *testing.T) {
	ctx, _ := newTestContext()
	reg := ffi.NewRegistry()
	_, err := reg.Call(ctx, "nonexistent.Func", nil)
	assert.Error(t, err)
}

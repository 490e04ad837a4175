package ffi

import (
	"github.com/emberlang/ember/internal/gosvalue"
)

// registerReflect wires the reflect.* sub-namespace: thin host-function
// wrappers over GosValue's own already-real accessor methods, addressed by
// internal/codegen exactly like any other package-qualified call
// ("reflect.TypeOf", not a reflect import resolved through pkgpath).
func registerReflect(r *Registry) {
	r.Register("reflect.TypeOf", reflectTypeOf)
	r.Register("reflect.BoolVal", reflectBoolVal)
	r.Register("reflect.UintVal", reflectUintVal)
	r.Register("reflect.FloatVal", reflectFloatVal)
	r.Register("reflect.BytesVal", reflectBytesVal)
}

func reflectTypeOf(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	if err := arity("reflect.TypeOf", args, 1); err != nil {
		return nil, err
	}
	meta := gosvalue.GetMeta(args[0], ctx.Objects)
	return []gosvalue.GosValue{gosvalue.NewMetadataValue(meta)}, nil
}

func reflectBoolVal(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	if err := arity("reflect.BoolVal", args, 1); err != nil {
		return nil, err
	}
	return []gosvalue.GosValue{gosvalue.NewBool(args[0].BoolVal())}, nil
}

func reflectUintVal(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	if err := arity("reflect.UintVal", args, 1); err != nil {
		return nil, err
	}
	return []gosvalue.GosValue{gosvalue.NewUint64(args[0].UintVal())}, nil
}

func reflectFloatVal(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	if err := arity("reflect.FloatVal", args, 1); err != nil {
		return nil, err
	}
	return []gosvalue.GosValue{gosvalue.NewFloat64(args[0].FloatVal())}, nil
}

func reflectBytesVal(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	if err := arity("reflect.BytesVal", args, 1); err != nil {
		return nil, err
	}
	b := args[0].BytesVal()
	elems := make([]gosvalue.GosValue, len(b))
	for i, by := range b {
		elems[i] = gosvalue.NewUint8(by)
	}
	backing := &gosvalue.ArrayObj{Elem: gosvalue.NewUint8(0), Data: elems}
	ctx.Objects.PutArray(backing)
	h := ctx.Objects.PutSlice(&gosvalue.SliceObj{Backing: backing, Offset: 0, Len: len(elems), Cap: len(elems)})
	return []gosvalue.GosValue{gosvalue.NewSlice(h)}, nil
}

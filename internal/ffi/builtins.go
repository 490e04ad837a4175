package ffi

import (
	"fmt"

	"github.com/emberlang/ember/internal/emberrors"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/metadata"
)

// arity raises a RuntimeError naming fn when args doesn't have exactly want
// elements, the shape every builtin below needs checked first.
func arity(fn string, args []gosvalue.GosValue, want int) error {
	if len(args) != want {
		return emberrors.NewRuntimeError("%s: expected %d argument(s), got %d", fn, want, len(args))
	}
	return nil
}

// registerBuiltins wires the predeclared functions under their bare names,
// matching internal/resolver.predeclared exactly: every identifier that
// resolves to ast.Sentinel must have an entry here or a call to it panics at
// run time with an unresolved-name RuntimeError.
func registerBuiltins(r *Registry) {
	r.Register("len", builtinLen)
	r.Register("cap", builtinCap)
	r.Register("append", builtinAppend)
	r.Register("make", builtinMake)
	r.Register("panic", builtinPanic)
	r.Register("recover", builtinRecover)
	r.Register("println", builtinPrintln)
	r.Register("close", builtinClose)
	r.Register("delete", builtinDelete)
}

func builtinLen(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	if err := arity("len", args, 1); err != nil {
		return nil, err
	}
	v := args[0]
	var n int
	switch v.Type() {
	case gosvalue.Str:
		n = len(ctx.Objects.String(gosvalue.StringHandle(v.Handle())).S)
	case gosvalue.Array:
		if !v.IsNil() {
			n = len(ctx.Objects.Array(gosvalue.ArrayHandle(v.Handle())).Data)
		}
	case gosvalue.Slice:
		if !v.IsNil() {
			n = ctx.Objects.Slice(gosvalue.SliceHandle(v.Handle())).Len
		}
	case gosvalue.Map:
		if !v.IsNil() {
			n = ctx.Objects.Map(gosvalue.MapHandle(v.Handle())).Len()
		}
	case gosvalue.Channel:
		if !v.IsNil() {
			n = len(ctx.Objects.Channel(gosvalue.ChannelHandle(v.Handle())).Ch)
		}
	default:
		return nil, emberrors.NewTypeError("len: invalid argument type %s", v.Type())
	}
	return []gosvalue.GosValue{gosvalue.NewInt(int64(n))}, nil
}

func builtinCap(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	if err := arity("cap", args, 1); err != nil {
		return nil, err
	}
	v := args[0]
	var n int
	switch v.Type() {
	case gosvalue.Array:
		if !v.IsNil() {
			n = len(ctx.Objects.Array(gosvalue.ArrayHandle(v.Handle())).Data)
		}
	case gosvalue.Slice:
		if !v.IsNil() {
			n = ctx.Objects.Slice(gosvalue.SliceHandle(v.Handle())).Cap
		}
	case gosvalue.Channel:
		if !v.IsNil() {
			n = cap(ctx.Objects.Channel(gosvalue.ChannelHandle(v.Handle())).Ch)
		}
	default:
		return nil, emberrors.NewTypeError("cap: invalid argument type %s", v.Type())
	}
	return []gosvalue.GosValue{gosvalue.NewInt(int64(n))}, nil
}

// builtinAppend implements the one and two-argument forms (append(s, x) and
// the ellipsis-spread append(s, more...), which internal/vm flattens into
// individual arguments before the registry call the same way a variadic
// ordinary call is flattened). A nil slice argument grows a fresh backing
// array, matching append's behavior on the zero value of a slice type.
func builtinAppend(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	if len(args) < 1 {
		return nil, emberrors.NewRuntimeError("append: expected at least 1 argument, got 0")
	}
	s := args[0]
	add := args[1:]
	if len(add) == 0 {
		return []gosvalue.GosValue{s}, nil
	}
	if s.IsNil() {
		elem := gosvalue.GetMeta(add[0], ctx.Objects)
		backing := &gosvalue.ArrayObj{Elem: gosvalue.NewNil(add[0].Type(), elem), Data: append([]gosvalue.GosValue{}, add...)}
		ctx.Objects.PutArray(backing)
		h := ctx.Objects.PutSlice(&gosvalue.SliceObj{Backing: backing, Offset: 0, Len: len(add), Cap: len(add)})
		return []gosvalue.GosValue{gosvalue.NewSlice(h)}, nil
	}
	sl := ctx.Objects.Slice(gosvalue.SliceHandle(s.Handle()))
	if sl.Len+len(add) <= sl.Cap {
		for i, v := range add {
			sl.Backing.Data[sl.Offset+sl.Len+i] = v
		}
		h := ctx.Objects.PutSlice(&gosvalue.SliceObj{Backing: sl.Backing, Offset: sl.Offset, Len: sl.Len + len(add), Cap: sl.Cap})
		return []gosvalue.GosValue{gosvalue.NewSlice(h)}, nil
	}
	newCap := sl.Cap*2 + len(add)
	if newCap < sl.Len+len(add) {
		newCap = sl.Len + len(add)
	}
	data := make([]gosvalue.GosValue, sl.Len+len(add), newCap)
	copy(data, sl.Backing.Data[sl.Offset:sl.Offset+sl.Len])
	copy(data[sl.Len:], add)
	backing := &gosvalue.ArrayObj{Elem: sl.Backing.Elem, Data: data[:cap(data)]}
	ctx.Objects.PutArray(backing)
	h := ctx.Objects.PutSlice(&gosvalue.SliceObj{Backing: backing, Offset: 0, Len: sl.Len + len(add), Cap: newCap})
	return []gosvalue.GosValue{gosvalue.NewSlice(h)}, nil
}

// builtinMake implements slice/map/channel allocation. The first argument is
// the reified target type (a Metadata-tagged value, as produced by
// reflect.TypeOf and by internal/codegen's type-expression lowering of a
// make() call's first operand); remaining arguments are the optional
// length/capacity (slice) or buffer size (channel).
func builtinMake(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	if len(args) < 1 {
		return nil, emberrors.NewRuntimeError("make: expected at least 1 argument, got 0")
	}
	if args[0].Type() != gosvalue.Metadata {
		return nil, emberrors.NewTypeError("make: first argument must be a type")
	}
	meta := args[0].Meta
	meta.IsType = false
	t := ctx.Registry.GetRaw(meta)
	switch t.Kind {
	case metadata.KindSlice:
		n := 0
		c := 0
		if len(args) > 1 {
			n = int(args[1].IntVal())
			c = n
		}
		if len(args) > 2 {
			c = int(args[2].IntVal())
		}
		if n < 0 || c < n {
			return nil, emberrors.NewRuntimeError("make: invalid len/cap")
		}
		data := make([]gosvalue.GosValue, n, c)
		zero := ctx.Registry.ZeroVal(t.Elem)
		for i := range data {
			data[i] = zero
		}
		backing := &gosvalue.ArrayObj{Elem: zero, Data: data[:cap(data)]}
		ctx.Objects.PutArray(backing)
		h := ctx.Objects.PutSlice(&gosvalue.SliceObj{Backing: backing, Offset: 0, Len: n, Cap: c})
		return []gosvalue.GosValue{gosvalue.NewSlice(h)}, nil
	case metadata.KindMap:
		return []gosvalue.GosValue{gosvalue.NewMap(ctx.Objects.PutMap(gosvalue.NewMapObj()))}, nil
	case metadata.KindChannel:
		size := 0
		if len(args) > 1 {
			size = int(args[1].IntVal())
		}
		ch := &gosvalue.ChannelObj{Elem: ctx.Registry.ZeroVal(t.ChanElem), Ch: make(chan gosvalue.GosValue, size)}
		return []gosvalue.GosValue{gosvalue.NewChannel(ctx.Objects.PutChannel(ch))}, nil
	default:
		return nil, emberrors.NewTypeError("make: cannot make value of this type")
	}
}

func builtinPanic(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	if err := arity("panic", args, 1); err != nil {
		return nil, err
	}
	ctx.Fiber.Panic(args[0])
	return nil, nil
}

func builtinRecover(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	if err := arity("recover", args, 0); err != nil {
		return nil, err
	}
	v, ok := ctx.Fiber.Recover()
	if !ok {
		return []gosvalue.GosValue{gosvalue.NewNil(gosvalue.Interface, gosvalue.GosMetadata{})}, nil
	}
	return []gosvalue.GosValue{v}, nil
}

func builtinPrintln(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	parts := make([]interface{}, len(args))
	for i, a := range args {
		parts[i] = formatValue(ctx, a)
	}
	fmt.Fprintln(ctx.Fiber.Stdout(), parts...)
	return nil, nil
}

// formatValue renders v for println, the one surface this core gives
// unstructured human-readable output rather than a typed result.
func formatValue(ctx *Context, v gosvalue.GosValue) string {
	switch v.Type() {
	case gosvalue.Bool:
		return fmt.Sprintf("%t", v.BoolVal())
	case gosvalue.Int, gosvalue.Int8, gosvalue.Int16, gosvalue.Int32, gosvalue.Int64:
		return fmt.Sprintf("%d", v.IntVal())
	case gosvalue.Uint, gosvalue.Uint8, gosvalue.Uint16, gosvalue.Uint32, gosvalue.Uint64:
		return fmt.Sprintf("%d", v.UintVal())
	case gosvalue.Float32, gosvalue.Float64:
		return fmt.Sprintf("%g", v.FloatVal())
	case gosvalue.Str:
		if v.IsNil() {
			return ""
		}
		return ctx.Objects.String(gosvalue.StringHandle(v.Handle())).S
	default:
		return fmt.Sprintf("%v", v.Type())
	}
}

func builtinClose(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	if err := arity("close", args, 1); err != nil {
		return nil, err
	}
	v := args[0]
	if v.Type() != gosvalue.Channel || v.IsNil() {
		return nil, emberrors.NewRuntimeError("close of nil channel")
	}
	ch := ctx.Objects.Channel(gosvalue.ChannelHandle(v.Handle()))
	if ch.Closed() {
		return nil, emberrors.NewRuntimeError("close of closed channel")
	}
	ch.Close()
	return nil, nil
}

func builtinDelete(ctx *Context, args []gosvalue.GosValue) ([]gosvalue.GosValue, error) {
	if err := arity("delete", args, 2); err != nil {
		return nil, err
	}
	m := args[0]
	if m.IsNil() {
		return nil, nil
	}
	mo := ctx.Objects.Map(gosvalue.MapHandle(m.Handle()))
	mo.Delete(gosvalue.MapKey(args[1], ctx.Objects))
	return nil, nil
}

package metadata

import (
	"github.com/emberlang/ember/internal/emberrors"
	"github.com/emberlang/ember/internal/gosvalue"
)

// ZeroVal computes the zero value of m: scalars to their natural
// zero, strings to the pre-built empty string, structs to the stored zero
// instance (copy_semantic-cloned on use), reference-kinds to Nil(meta),
// named types to Named(zero_of_underlying, meta). Recursion terminates
// because Named cannot wrap Named.
func (r *Registry) ZeroVal(m GosMetadata) gosvalue.GosValue {
	if m.Depth > 0 || m.IsType {
		return gosvalue.NewNil(gosvalue.Pointer, m)
	}
	t := r.Get(m.Key)
	switch t.Kind {
	case KindScalar:
		return zeroScalar(t.Scalar)
	case KindStr:
		return t.ZeroStr
	case KindStruct:
		return gosvalue.CopySemantic(t.ZeroInstance, r.objs)
	case KindSlice, KindMap, KindChannel:
		return gosvalue.NewNil(r.GetValueType(m), m)
	case KindInterface:
		return gosvalue.NewNil(gosvalue.Interface, m)
	case KindSignature:
		return gosvalue.NewNil(gosvalue.Closure, m)
	case KindNamed:
		return gosvalue.NewNamed(r.objs, r.ZeroVal(t.Underlying), m)
	default:
		panic("metadata: zero_val: unreachable MetadataType kind")
	}
}

func zeroScalar(vt gosvalue.ValueType) gosvalue.GosValue {
	switch vt {
	case gosvalue.Bool:
		return gosvalue.NewBool(false)
	case gosvalue.Int:
		return gosvalue.NewInt(0)
	case gosvalue.Int8:
		return gosvalue.NewInt8(0)
	case gosvalue.Int16:
		return gosvalue.NewInt16(0)
	case gosvalue.Int32:
		return gosvalue.NewInt32(0)
	case gosvalue.Int64:
		return gosvalue.NewInt64(0)
	case gosvalue.Uint:
		return gosvalue.NewUint(0)
	case gosvalue.Uint8:
		return gosvalue.NewUint8(0)
	case gosvalue.Uint16:
		return gosvalue.NewUint16(0)
	case gosvalue.Uint32:
		return gosvalue.NewUint32(0)
	case gosvalue.Uint64:
		return gosvalue.NewUint64(0)
	case gosvalue.Float32:
		return gosvalue.NewFloat32(0)
	case gosvalue.Float64:
		return gosvalue.NewFloat64(0)
	case gosvalue.Complex64:
		return gosvalue.NewComplex64(0)
	case gosvalue.Complex128:
		return gosvalue.NewComplex128(0)
	default:
		panic("metadata: zero_val: not a scalar ValueType")
	}
}

// DefaultVal computes the value produced by NEW/make for m, which differs
// from ZeroVal for slices and maps: a slice allocates an empty backing
// array and a map allocates an empty map. A channel type has no default
// value in this core: DefaultVal returns a RuntimeError for it.
func (r *Registry) DefaultVal(m GosMetadata) (gosvalue.GosValue, error) {
	if m.Depth > 0 {
		return r.ZeroVal(m), nil
	}
	t := r.Get(m.Key)
	switch t.Kind {
	case KindSlice:
		backing := &gosvalue.ArrayObj{Elem: r.ZeroVal(t.Elem), Data: nil}
		r.objs.PutArray(backing)
		sliceHandle := r.objs.PutSlice(&gosvalue.SliceObj{Backing: backing, Offset: 0, Len: 0, Cap: 0})
		return gosvalue.NewSlice(sliceHandle), nil
	case KindMap:
		return gosvalue.NewMap(r.objs.PutMap(gosvalue.NewMapObj())), nil
	case KindChannel:
		return gosvalue.GosValue{}, emberrors.NewRuntimeError("default value of a channel type is not implemented")
	default:
		return r.ZeroVal(m), nil
	}
}

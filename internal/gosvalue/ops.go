package gosvalue

// CopySemantic implements assignment/pass-by-value copy semantics: for
// value-kinds (scalars, Array, Struct) it produces a deep clone appropriate
// to the kind; for reference-kinds it duplicates the handle, never the
// payload. Strings are immutable and therefore share rather than clone.
func CopySemantic(v GosValue, objs *Objects) GosValue {
	switch v.Typ {
	case Array:
		if v.isNil {
			return v
		}
		src := objs.Array(ArrayHandle(v.handle))
		dst := &ArrayObj{Elem: src.Elem, Data: make([]GosValue, len(src.Data))}
		for i, e := range src.Data {
			dst.Data[i] = CopySemantic(e, objs)
		}
		return NewArray(objs.PutArray(dst))

	case Struct:
		if v.isNil {
			return v
		}
		src := objs.Struct(StructHandle(v.handle))
		dst := &StructObj{Meta: src.Meta, Fields: make([]GosValue, len(src.Fields))}
		for i, f := range src.Fields {
			dst.Fields[i] = CopySemantic(f, objs)
		}
		return NewStruct(objs.PutStruct(dst))

	case Named:
		if v.isNil {
			return v
		}
		src := objs.Named(NamedHandle(v.handle))
		return NewNamed(objs, CopySemantic(src.Underlying, objs), v.Meta)

	default:
		// Scalars copy trivially by Go value-copy; reference-kinds duplicate
		// the handle, never the payload.
		return v
	}
}

// GetMeta returns the metadata handle of v. For Interface it
// yields the dynamic type of the contained value, or the interface's own
// static metadata if the interface holds a typed nil. For Pointer it yields
// the pointed-to metadata with depth+1.
func GetMeta(v GosValue, objs *Objects) GosMetadata {
	switch v.Typ {
	case Interface:
		if v.isNil {
			return v.Meta
		}
		return objs.Interface(InterfaceHandle(v.handle)).ValueMeta
	case Pointer:
		m := v.Meta
		m.Depth++
		return m
	default:
		return v.Meta
	}
}

// Equal implements value equality per the language's comparability rules:
// scalars compare by payload, strings by content, typed nils by identical
// metadata, other reference-kinds by handle identity (Ember, like the
// source language, gives slices/maps/channels/closures/structs-via-pointer
// identity comparison; value-kind Struct/Array equality is structural).
func Equal(a, b GosValue, objs *Objects) bool {
	if a.Typ != b.Typ {
		return false
	}
	if a.isNil || b.isNil {
		return a.isNil == b.isNil && a.Meta == b.Meta
	}
	switch a.Typ {
	case Bool:
		return a.boolVal == b.boolVal
	case Int, Int8, Int16, Int32, Int64:
		return a.intVal == b.intVal
	case Uint, Uint8, Uint16, Uint32, Uint64:
		return a.uintVal == b.uintVal
	case Float32, Float64:
		return a.floatVal == b.floatVal
	case Complex64, Complex128:
		return a.complexVal == b.complexVal
	case Str:
		return objs.String(StringHandle(a.handle)).S == objs.String(StringHandle(b.handle)).S
	case Array:
		sa, sb := objs.Array(ArrayHandle(a.handle)), objs.Array(ArrayHandle(b.handle))
		if len(sa.Data) != len(sb.Data) {
			return false
		}
		for i := range sa.Data {
			if !Equal(sa.Data[i], sb.Data[i], objs) {
				return false
			}
		}
		return true
	case Struct:
		sa, sb := objs.Struct(StructHandle(a.handle)), objs.Struct(StructHandle(b.handle))
		if sa.Meta != sb.Meta || len(sa.Fields) != len(sb.Fields) {
			return false
		}
		for i := range sa.Fields {
			if !Equal(sa.Fields[i], sb.Fields[i], objs) {
				return false
			}
		}
		return true
	case Pointer:
		return objs.Pointer(PointerHandle(a.handle)).Equals(objs.Pointer(PointerHandle(b.handle)))
	case Named:
		na, nb := objs.Named(NamedHandle(a.handle)), objs.Named(NamedHandle(b.handle))
		return a.Meta == b.Meta && Equal(na.Underlying, nb.Underlying, objs)
	default:
		// Slice/Map/Channel/Closure/Interface compare by handle identity.
		return a.handle == b.handle
	}
}

// Underlying returns the value wrapped by a Named value, or v itself if v is
// not Named. Arithmetic/indexing on a Named value dispatches on this result.
func Underlying(v GosValue, objs *Objects) GosValue {
	if v.Typ != Named {
		return v
	}
	if v.isNil {
		return v
	}
	return objs.Named(NamedHandle(v.handle)).Underlying
}

// MapKey converts v into the Go-comparable form used as a MapObj key: the
// scalar payload for scalar kinds, the string content for Str, and the
// arena handle for every other reference kind (maps keyed by struct/array
// value never arise from source-level map types Ember actually emits code
// for, so handle identity is sufficient here).
func MapKey(v GosValue, objs *Objects) interface{} {
	switch v.Typ {
	case Bool:
		return v.boolVal
	case Int, Int8, Int16, Int32, Int64:
		return v.intVal
	case Uint, Uint8, Uint16, Uint32, Uint64:
		return v.uintVal
	case Float32, Float64:
		return v.floatVal
	case Str:
		return objs.String(StringHandle(v.handle)).S
	default:
		return v.handle
	}
}

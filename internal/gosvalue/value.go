// Package gosvalue implements the tagged-union runtime value representation
// and the arena-backed handles for its reference-kind variants.
package gosvalue

import (
	"math"
	"sync"
)

// ValueType is the primitive tag carried by every runtime value and by
// instruction operands so the VM can pick the correct numeric width without
// loading the full value.
type ValueType uint8

const (
	Bool ValueType = iota
	Int
	Int8
	Int16
	Int32
	Int64
	Uint
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Complex64
	Complex128
	Str
	Array
	Slice
	Map
	Struct
	Channel
	Closure
	Interface
	Pointer
	Named
	Metadata
)

var typeNames = [...]string{
	Bool: "bool", Int: "int", Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64",
	Uint: "uint", Uint8: "uint8", Uint16: "uint16", Uint32: "uint32", Uint64: "uint64",
	Float32: "float32", Float64: "float64", Complex64: "complex64", Complex128: "complex128",
	Str: "string", Array: "array", Slice: "slice", Map: "map", Struct: "struct",
	Channel: "chan", Closure: "closure", Interface: "interface", Pointer: "pointer",
	Named: "named", Metadata: "metadata",
}

func (t ValueType) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return "unknown"
}

// MetadataKey is an opaque integer index into the metadata registry's arena
//.
type MetadataKey int64

// MaxPointerDepth is the highest legal pointer-depth value.
const MaxPointerDepth = 7

// GosMetadata is a handle to a metadata entry: the underlying key, a
// pointer-indirection depth (0..7), and a flag distinguishing "a value of
// this type" from "the type itself reified as a value".
type GosMetadata struct {
	Key    MetadataKey
	Depth  uint8
	IsType bool
}

// reference-kind arena handles. Each is a plain integer index into a
// per-kind arena owned by the VM/engine objects.
type (
	StringHandle   int64
	ArrayHandle    int64
	SliceHandle    int64
	MapHandle      int64
	StructHandle   int64
	ChannelHandle  int64
	ClosureHandle  int64
	InterfaceHandle int64
	PointerHandle  int64
)

// GosValue is a tagged union with one variant per ValueType. Scalar variants
// carry their payload inline; heap-backed variants carry a handle into a
// per-kind arena, giving shared-ownership/reference-count copy semantics
//. Exactly one of the payload fields is meaningful for a given Typ.
type GosValue struct {
	Typ ValueType

	// Scalar payloads. boolVal/intVal/uintVal double as the bit-pattern
	// storage for every fixed-width integer/bool variant; floatVal and
	// complexVal cover the floating/complex variants.
	boolVal    bool
	intVal     int64
	uintVal    uint64
	floatVal   float64
	complexVal complex128

	// Reference-kind handle, meaningful when Typ is one of
	// Str/Array/Slice/Map/Struct/Channel/Closure/Interface/Pointer/Named.
	handle int64

	// Meta carries the metadata handle for Nil (typed-nil), Pointer, Named,
	// and Metadata-as-value variants.
	Meta GosMetadata

	// isNil marks a reference-kind value as a typed nil; Meta still carries
	// the nil's static type, since nils are only comparable when their
	// metadata matches.
	isNil bool
}

// Type returns the value's ValueType tag.
func (v GosValue) Type() ValueType { return v.Typ }

// IsNil reports whether v is a typed nil reference value.
func (v GosValue) IsNil() bool { return v.isNil }

// --- scalar constructors ---

func NewBool(b bool) GosValue { return GosValue{Typ: Bool, boolVal: b} }

func NewInt(v int64) GosValue  { return GosValue{Typ: Int, intVal: v} }
func NewInt8(v int8) GosValue  { return GosValue{Typ: Int8, intVal: int64(v)} }
func NewInt16(v int16) GosValue { return GosValue{Typ: Int16, intVal: int64(v)} }
func NewInt32(v int32) GosValue { return GosValue{Typ: Int32, intVal: int64(v)} }
func NewInt64(v int64) GosValue { return GosValue{Typ: Int64, intVal: v} }

func NewUint(v uint64) GosValue   { return GosValue{Typ: Uint, uintVal: v} }
func NewUint8(v uint8) GosValue   { return GosValue{Typ: Uint8, uintVal: uint64(v)} }
func NewUint16(v uint16) GosValue { return GosValue{Typ: Uint16, uintVal: uint64(v)} }
func NewUint32(v uint32) GosValue { return GosValue{Typ: Uint32, uintVal: uint64(v)} }
func NewUint64(v uint64) GosValue { return GosValue{Typ: Uint64, uintVal: v} }

func NewFloat32(v float32) GosValue { return GosValue{Typ: Float32, floatVal: float64(v)} }
func NewFloat64(v float64) GosValue { return GosValue{Typ: Float64, floatVal: v} }

func NewComplex64(v complex64) GosValue   { return GosValue{Typ: Complex64, complexVal: complex128(v)} }
func NewComplex128(v complex128) GosValue { return GosValue{Typ: Complex128, complexVal: v} }

// BoolVal, IntVal, UintVal, FloatVal, ComplexVal extract the scalar payload.
// Callers are responsible for checking Typ first; these never panic so the
// FFI reflection surface (internal/ffi) can use them uniformly.
func (v GosValue) BoolVal() bool          { return v.boolVal }
func (v GosValue) IntVal() int64          { return v.intVal }
func (v GosValue) UintVal() uint64        { return v.uintVal }
func (v GosValue) FloatVal() float64      { return v.floatVal }
func (v GosValue) ComplexVal() complex128 { return v.complexVal }

// BytesVal returns the raw little-endian bit pattern backing the value's
// scalar payload, sized to the value's ValueType. This is the real
// implementation the source project stubbed out as a Nil placeholder
//.
func (v GosValue) BytesVal() []byte {
	width := byteWidth(v.Typ)
	out := make([]byte, width)
	var bits uint64
	switch {
	case isFloatType(v.Typ):
		bits = floatBits(v.Typ, v.floatVal)
	case isUnsignedType(v.Typ) || v.Typ == Bool:
		bits = v.uintVal
		if v.Typ == Bool && v.boolVal {
			bits = 1
		}
	default:
		bits = uint64(v.intVal)
	}
	for i := 0; i < width && i < 8; i++ {
		out[i] = byte(bits >> (8 * i))
	}
	return out
}

func byteWidth(t ValueType) int {
	switch t {
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Complex128:
		return 16
	default:
		return 8
	}
}

func isUnsignedType(t ValueType) bool {
	switch t {
	case Uint, Uint8, Uint16, Uint32, Uint64:
		return true
	default:
		return false
	}
}

func isFloatType(t ValueType) bool {
	return t == Float32 || t == Float64
}

func floatBits(t ValueType, f float64) uint64 {
	if t == Float32 {
		return uint64(math.Float32bits(float32(f)))
	}
	return math.Float64bits(f)
}

// --- reference-kind constructors ---

// NewNil constructs a typed-nil value: its ValueType comes from meta's
// underlying kind and its Meta carries the static type of the typed-nil it
// represents, since comparing two nils requires identical metadata.
func NewNil(typ ValueType, meta GosMetadata) GosValue {
	return GosValue{Typ: typ, Meta: meta, isNil: true}
}

func NewStr(h StringHandle) GosValue     { return GosValue{Typ: Str, handle: int64(h)} }
func NewArray(h ArrayHandle) GosValue    { return GosValue{Typ: Array, handle: int64(h)} }
func NewSlice(h SliceHandle) GosValue    { return GosValue{Typ: Slice, handle: int64(h)} }
func NewMap(h MapHandle) GosValue        { return GosValue{Typ: Map, handle: int64(h)} }
func NewStruct(h StructHandle) GosValue  { return GosValue{Typ: Struct, handle: int64(h)} }
func NewChannel(h ChannelHandle) GosValue { return GosValue{Typ: Channel, handle: int64(h)} }
func NewClosure(h ClosureHandle) GosValue { return GosValue{Typ: Closure, handle: int64(h)} }
func NewInterface(h InterfaceHandle) GosValue {
	return GosValue{Typ: Interface, handle: int64(h)}
}

// NewPointer constructs a Pointer value wrapping a PointerHandle; meta is the
// pointed-to metadata at the pointer's static depth.
func NewPointer(h PointerHandle, meta GosMetadata) GosValue {
	return GosValue{Typ: Pointer, handle: int64(h), Meta: meta}
}

// NewNamed constructs a Named value: a pair of (underlying value, metadata
// handle for the named type). Its ValueType tag is Named but arithmetic and
// indexing dispatch on the underlying value. The underlying value is
// stored in objs' Named arena so Named never needs to inline an arbitrary
// payload.
func NewNamed(objs *Objects, underlying GosValue, meta GosMetadata) GosValue {
	h := objs.PutNamed(&NamedObj{Underlying: underlying})
	return GosValue{Typ: Named, handle: int64(h), Meta: meta}
}

// NewMetadataValue reifies a type as a first-class value, used by builtins that accept a type argument.
func NewMetadataValue(meta GosMetadata) GosValue {
	meta.IsType = true
	return GosValue{Typ: Metadata, Meta: meta}
}

// Handle returns the reference-kind arena handle carried by v. Callers must
// check Typ to know which per-kind arena it indexes.
func (v GosValue) Handle() int64 { return v.handle }

// ArenaCounter is a process-wide monotonic id source used by the per-kind
// arenas in internal/vm and internal/ffi to mint fresh handles. It is safe
// for concurrent use across fibers.
type ArenaCounter struct {
	mu   sync.Mutex
	next int64
}

// Next mints a fresh, never-repeated handle id.
func (c *ArenaCounter) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	return c.next
}

// NewArenaCounter constructs a fresh handle-id source.
func NewArenaCounter() *ArenaCounter { return &ArenaCounter{} }

// Package metadata implements the process-wide type registry: an arena of
// MetadataType entries addressed by MetadataKey, plus the pointer-depth and
// reification rules carried by GosMetadata handles (defined in
// internal/gosvalue so value and metadata handles share a representation
// without an import cycle).
package metadata

import (
	"fmt"
	"sync"

	"github.com/emberlang/ember/internal/emberrors"
	"github.com/emberlang/ember/internal/gosvalue"
)

type (
	MetadataKey = gosvalue.MetadataKey
	GosMetadata = gosvalue.GosMetadata
)

// FunctionKey identifies a compiled function in the owning engine's function
// table (internal/funcval).
type FunctionKey int64

// MethodDesc describes one entry of a Named type's method table. The two
// fields are populated in two phases (declare, then resolve body) to match
// the source language's forward-reference rules.
type MethodDesc struct {
	Name        string
	PointerRecv bool
	Func        *FunctionKey // nil until set_method_code runs
}

// Methods is an ordered vector of MethodDesc plus a name→index map,
// supporting the two-phase population add_method/set_method_code.
type Methods struct {
	order []MethodDesc
	index map[string]int
}

func newMethods() *Methods {
	return &Methods{index: make(map[string]int)}
}

// Add appends a declared-but-unresolved method and returns its index. The
// returned index equals the member count before the call.
func (m *Methods) Add(name string, pointerRecv bool) int {
	idx := len(m.order)
	m.order = append(m.order, MethodDesc{Name: name, PointerRecv: pointerRecv})
	m.index[name] = idx
	return idx
}

// SetCode resolves a previously declared method's function body.
func (m *Methods) SetCode(name string, fn FunctionKey) error {
	idx, ok := m.index[name]
	if !ok {
		return fmt.Errorf("metadata: set_method_code: unknown method %q", name)
	}
	m.order[idx].Func = &fn
	return nil
}

// Index returns the stable index of a method by name.
func (m *Methods) Index(name string) (int, bool) {
	idx, ok := m.index[name]
	return idx, ok
}

// Len reports the number of declared methods.
func (m *Methods) Len() int { return len(m.order) }

// At returns the method descriptor at idx.
func (m *Methods) At(idx int) MethodDesc { return m.order[idx] }

// Field describes one struct or interface member.
type Field struct {
	Name string
	Type GosMetadata
}

// Fields is an ordered vector of member metadatas plus a name→index map
//.
type Fields struct {
	order []Field
	index map[string]int
}

// NewFields builds a Fields table from an ordered list; duplicate names are
// a construction-time CompileError-class bug caught here as a panic, since
// it indicates a bug in the caller (the code generator), not user input.
func NewFields(fields []Field) *Fields {
	f := &Fields{order: fields, index: make(map[string]int, len(fields))}
	for i, field := range fields {
		if _, dup := f.index[field.Name]; dup {
			panic(fmt.Sprintf("metadata: duplicate field name %q", field.Name))
		}
		f.index[field.Name] = i
	}
	return f
}

// Index returns the layout index of a field/method name.
func (f *Fields) Index(name string) (int, bool) {
	idx, ok := f.index[name]
	return idx, ok
}

// Len reports the number of fields.
func (f *Fields) Len() int { return len(f.order) }

// At returns the field at idx.
func (f *Fields) At(idx int) Field { return f.order[idx] }

// All returns the ordered field list (not a copy; callers must not mutate).
func (f *Fields) All() []Field { return f.order }

// Kind discriminates the MetadataType sum type.
type Kind uint8

const (
	KindScalar Kind = iota
	KindStr
	KindStruct
	KindSignature
	KindSlice
	KindMap
	KindInterface
	KindChannel
	KindNamed
)

// Type is the MetadataType sum type: one immutable-after-insert entry in the
// registry. Exactly the fields relevant to Kind are populated.
type Type struct {
	Kind Kind

	// KindScalar
	Scalar gosvalue.ValueType

	// KindStr
	ZeroStr gosvalue.GosValue

	// KindStruct
	Fields       *Fields
	ZeroInstance gosvalue.GosValue // self-referential fix-up applied at insert

	// KindSignature
	Recv            *GosMetadata
	Params          []GosMetadata
	Results         []GosMetadata
	Variadic        bool
	ParamsTypeTags  []gosvalue.ValueType

	// KindSlice
	Elem GosMetadata

	// KindMap
	MapKey   GosMetadata
	MapValue GosMetadata

	// KindInterface
	IfaceFields *Fields

	// KindChannel
	ChanElem GosMetadata

	// KindNamed
	Methods    *Methods
	Underlying GosMetadata
}

// Registry is the process-wide metadata arena: entries keyed by an opaque
// MetadataKey, mutated only during code generation and frozen (read-only,
// safely shared across VM fibers) thereafter.
type Registry struct {
	mu     sync.Mutex
	frozen bool
	objs   *gosvalue.Objects
	nextID gosvalue.MetadataKey
	table  map[gosvalue.MetadataKey]*Type

	scalarCache map[gosvalue.ValueType]gosvalue.MetadataKey
}

// NewRegistry constructs an empty registry backed by objs for any heap
// values metadata construction needs (e.g. a struct's zero instance).
func NewRegistry(objs *gosvalue.Objects) *Registry {
	r := &Registry{
		objs:        objs,
		table:       make(map[gosvalue.MetadataKey]*Type),
		scalarCache: make(map[gosvalue.ValueType]gosvalue.MetadataKey),
	}
	for _, vt := range []gosvalue.ValueType{
		gosvalue.Bool, gosvalue.Int, gosvalue.Int8, gosvalue.Int16, gosvalue.Int32, gosvalue.Int64,
		gosvalue.Uint, gosvalue.Uint8, gosvalue.Uint16, gosvalue.Uint32, gosvalue.Uint64,
		gosvalue.Float32, gosvalue.Float64, gosvalue.Complex64, gosvalue.Complex128,
	} {
		r.scalarCache[vt] = r.insert(&Type{Kind: KindScalar, Scalar: vt})
	}
	r.scalarCache[gosvalue.Str] = r.NewStr().Key
	r.scalarCache[gosvalue.Interface] = r.NewInterface(nil).Key
	return r
}

// Freeze marks the registry read-only; it must be called once code
// generation for the whole program completes.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

func (r *Registry) insert(t *Type) gosvalue.MetadataKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	key := r.nextID
	r.table[key] = t
	return key
}

// Get fetches the raw MetadataType for key. It panics on an unknown key: an
// invariant violation indicating a bug in the implementation.
func (r *Registry) Get(key gosvalue.MetadataKey) *Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.table[key]
	if !ok {
		panic(fmt.Sprintf("metadata: unknown key %d", key))
	}
	return t
}

func (r *Registry) mustNotBeFrozenForStructure() {
	// Named.Methods and Struct's zero-instance back-reference are the only
	// two post-insert mutations the lifecycle allows; everything
	// else inserts a brand-new entry instead of mutating in place, so this
	// check only guards those two call sites.
	r.mu.Lock()
	frozen := r.frozen
	r.mu.Unlock()
	if frozen {
		panic("metadata: registry mutated after Freeze")
	}
}

// Scalar returns the handle for one of the built-in scalar ValueTypes, for
// Str, or for Interface (the empty interface).
func (r *Registry) Scalar(vt gosvalue.ValueType) GosMetadata {
	key, ok := r.scalarCache[vt]
	if !ok {
		panic(fmt.Sprintf("metadata: %v is not a scalar ValueType", vt))
	}
	return GosMetadata{Key: key}
}

// NewStr registers the Str metadata with its pre-built zero string.
func (r *Registry) NewStr() GosMetadata {
	zeroHandle := r.objs.PutString(&gosvalue.StringObj{S: ""})
	key := r.insert(&Type{Kind: KindStr, ZeroStr: gosvalue.NewStr(zeroHandle)})
	return GosMetadata{Key: key}
}

// NewSlice registers Slice(element_meta).
func (r *Registry) NewSlice(elem GosMetadata) GosMetadata {
	return GosMetadata{Key: r.insert(&Type{Kind: KindSlice, Elem: elem})}
}

// NewMap registers Map(key_meta, value_meta).
func (r *Registry) NewMap(key, value GosMetadata) GosMetadata {
	return GosMetadata{Key: r.insert(&Type{Kind: KindMap, MapKey: key, MapValue: value})}
}

// NewInterface registers Interface(Fields). Field indices match the
// layout the VM's interface method-dispatch opcode expects.
func (r *Registry) NewInterface(fields []Field) GosMetadata {
	return GosMetadata{Key: r.insert(&Type{Kind: KindInterface, IfaceFields: NewFields(fields)})}
}

// NewChannel registers a channel element type.
func (r *Registry) NewChannel(elem GosMetadata) GosMetadata {
	return GosMetadata{Key: r.insert(&Type{Kind: KindChannel, ChanElem: elem})}
}

// NewSig registers Signature{recv, params, results, variadic,
// params_type_tags}; the tag list is precomputed to accelerate FFI call
// sites.
func (r *Registry) NewSig(recv *GosMetadata, params, results []GosMetadata, variadic bool) GosMetadata {
	tags := make([]gosvalue.ValueType, len(params))
	for i, p := range params {
		tags[i] = r.GetValueType(p)
	}
	return GosMetadata{Key: r.insert(&Type{
		Kind: KindSignature, Recv: recv, Params: params, Results: results,
		Variadic: variadic, ParamsTypeTags: tags,
	})}
}

// NewNamed registers Named(Methods, underlying_meta). It fails if underlying is itself Named.
func (r *Registry) NewNamed(underlying GosMetadata) GosMetadata {
	if r.GetRaw(underlying).Kind == KindNamed {
		panic("metadata: Named must never wrap Named")
	}
	return GosMetadata{Key: r.insert(&Type{Kind: KindNamed, Methods: newMethods(), Underlying: underlying})}
}

// GetRaw returns the MetadataType for a handle's key (ignoring depth/is_type).
func (r *Registry) GetRaw(m GosMetadata) *Type { return r.Get(m.Key) }

// RawObjects exposes the heap arena backing this registry's struct
// zero-instances, for callers (internal/vm, tests) that need to run
// CopySemantic/Equal/GetMeta over values the registry produced.
func (r *Registry) RawObjects() *gosvalue.Objects { return r.objs }

// NewStruct registers Struct(Fields, zero_instance). The embedded
// zero-instance's own metadata handle is repaired to point back to the
// freshly created entry as a required construction step.
func (r *Registry) NewStruct(fields []Field) GosMetadata {
	fieldTable := NewFields(fields)
	zeroFields := make([]gosvalue.GosValue, fieldTable.Len())
	for i, f := range fieldTable.All() {
		zeroFields[i] = r.ZeroVal(f.Type)
	}
	structType := &Type{Kind: KindStruct, Fields: fieldTable}
	key := r.insert(structType)
	meta := GosMetadata{Key: key}

	handle := r.objs.PutStruct(&gosvalue.StructObj{Meta: meta, Fields: zeroFields})
	structType.ZeroInstance = gosvalue.NewStruct(handle)
	// Repair the stored struct object's own Meta to the freshly minted key:
	// the zero instance's metadata handle must equal the struct's own.
	r.objs.Struct(handle).Meta = meta
	return meta
}

// PtrTo increments the pointer depth of m. It fails with a TypeError
// at the depth-7 boundary.
func (r *Registry) PtrTo(m GosMetadata) (GosMetadata, error) {
	if m.Depth >= gosvalue.MaxPointerDepth {
		return GosMetadata{}, emberrors.NewTypeError("pointer depth overflow: cannot exceed %d", gosvalue.MaxPointerDepth)
	}
	m.Depth++
	return m, nil
}

// UnptrTo decrements the pointer depth of m. It fails with a
// TypeError at the depth-0 boundary.
func (r *Registry) UnptrTo(m GosMetadata) (GosMetadata, error) {
	if m.Depth == 0 {
		return GosMetadata{}, emberrors.NewTypeError("pointer depth underflow: cannot dereference a non-pointer")
	}
	m.Depth--
	return m, nil
}

// GetValueType resolves the ValueType tag for a handle: if is_type is
// set the result is always Metadata; otherwise depth > 0 yields Pointer and
// depth 0 dispatches on the underlying MetadataType.
func (r *Registry) GetValueType(m GosMetadata) gosvalue.ValueType {
	if m.IsType {
		return gosvalue.Metadata
	}
	if m.Depth > 0 {
		return gosvalue.Pointer
	}
	switch r.Get(m.Key).Kind {
	case KindScalar:
		return r.Get(m.Key).Scalar
	case KindStr:
		return gosvalue.Str
	case KindStruct:
		return gosvalue.Struct
	case KindSignature:
		return gosvalue.Closure
	case KindSlice:
		return gosvalue.Slice
	case KindMap:
		return gosvalue.Map
	case KindInterface:
		return gosvalue.Interface
	case KindChannel:
		return gosvalue.Channel
	case KindNamed:
		return gosvalue.Named
	default:
		panic("metadata: unreachable MetadataType kind")
	}
}

// GetUnderlying returns the wrapped metadata if named, else m unchanged.
// Idempotent.
func (r *Registry) GetUnderlying(m GosMetadata) GosMetadata {
	t := r.Get(m.Key)
	if t.Kind != KindNamed {
		return m
	}
	return t.Underlying
}

// FieldIndex looks up a struct field's layout index. Must be called on the
// underlying struct; fails for non-struct.
func (r *Registry) FieldIndex(name string, m GosMetadata) (int, error) {
	u := r.GetUnderlying(m)
	t := r.Get(u.Key)
	if t.Kind != KindStruct {
		return 0, emberrors.NewTypeError("field_index: %v is not a struct", t.Kind)
	}
	idx, ok := t.Fields.Index(name)
	if !ok {
		return 0, emberrors.NewCompileError("no field %q", name)
	}
	return idx, nil
}

// MethodIndex indexes into a named type's method table.
func (r *Registry) MethodIndex(name string, m GosMetadata) (int, error) {
	t := r.Get(m.Key)
	if t.Kind != KindNamed {
		return 0, emberrors.NewTypeError("method_index: not a named type")
	}
	idx, ok := t.Methods.Index(name)
	if !ok {
		return 0, emberrors.NewCompileError("no method %q", name)
	}
	return idx, nil
}

// IfaceMethodIndex indexes into an interface's field table.
func (r *Registry) IfaceMethodIndex(name string, m GosMetadata) (int, error) {
	u := r.GetUnderlying(m)
	t := r.Get(u.Key)
	if t.Kind != KindInterface {
		return 0, emberrors.NewTypeError("iface_method_index: not an interface")
	}
	idx, ok := t.IfaceFields.Index(name)
	if !ok {
		return 0, emberrors.NewCompileError("no interface method %q", name)
	}
	return idx, nil
}

// AddMethod declares an empty method slot. Returns the new method's stable index.
func (r *Registry) AddMethod(name string, pointerRecv bool, m GosMetadata) (int, error) {
	r.mustNotBeFrozenForStructure()
	t := r.Get(m.Key)
	if t.Kind != KindNamed {
		return 0, emberrors.NewTypeError("add_method: not a named type")
	}
	return t.Methods.Add(name, pointerRecv), nil
}

// SetMethodCode resolves a declared method's function body.
func (r *Registry) SetMethodCode(name string, fn FunctionKey, m GosMetadata) error {
	r.mustNotBeFrozenForStructure()
	t := r.Get(m.Key)
	if t.Kind != KindNamed {
		return emberrors.NewTypeError("set_method_code: not a named type")
	}
	return t.Methods.SetCode(name, fn)
}

// Identical implements structural equality of metadata used by
// type-equivalence checks.
// Two Named metadatas are identical iff they are the same key; two
// structurals are identical iff their shapes match recursively.
func (r *Registry) Identical(a, b GosMetadata) bool {
	if a.Depth != b.Depth || a.IsType != b.IsType {
		return false
	}
	ta, tb := r.Get(a.Key), r.Get(b.Key)
	if ta.Kind == KindNamed || tb.Kind == KindNamed {
		return a.Key == b.Key
	}
	if ta.Kind != tb.Kind {
		return false
	}
	switch ta.Kind {
	case KindScalar:
		return ta.Scalar == tb.Scalar
	case KindStr:
		return true
	case KindStruct:
		if ta.Fields.Len() != tb.Fields.Len() {
			return false
		}
		for i := 0; i < ta.Fields.Len(); i++ {
			fa, fb := ta.Fields.At(i), tb.Fields.At(i)
			if fa.Name != fb.Name || !r.Identical(fa.Type, fb.Type) {
				return false
			}
		}
		return true
	case KindSlice:
		return r.Identical(ta.Elem, tb.Elem)
	case KindMap:
		return r.Identical(ta.MapKey, tb.MapKey) && r.Identical(ta.MapValue, tb.MapValue)
	case KindChannel:
		return r.Identical(ta.ChanElem, tb.ChanElem)
	case KindInterface:
		if ta.IfaceFields.Len() != tb.IfaceFields.Len() {
			return false
		}
		for i := 0; i < ta.IfaceFields.Len(); i++ {
			fa, fb := ta.IfaceFields.At(i), tb.IfaceFields.At(i)
			if fa.Name != fb.Name || !r.Identical(fa.Type, fb.Type) {
				return false
			}
		}
		return true
	case KindSignature:
		if ta.Variadic != tb.Variadic || len(ta.Params) != len(tb.Params) || len(ta.Results) != len(tb.Results) {
			return false
		}
		for i := range ta.Params {
			if !r.Identical(ta.Params[i], tb.Params[i]) {
				return false
			}
		}
		for i := range ta.Results {
			if !r.Identical(ta.Results[i], tb.Results[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

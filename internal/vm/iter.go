package vm

import "github.com/emberlang/ember/internal/gosvalue"

// rangeIterKind distinguishes the container shapes a range loop can drive.
type rangeIterKind uint8

const (
	iterSliceArray rangeIterKind = iota
	iterMap
	iterStr
	iterChannel
)

// rangeIter is the opaque state a RANGE instruction threads through
// successive loop iterations, wrapped in a PointerToUserData pointer value so
// it can sit on the operand stack between iterations like any other value.
// It implements gosvalue.UserData so the arena's Pointer kind can carry it.
type rangeIter struct {
	kind rangeIterKind

	elems []gosvalue.GosValue // slice/array
	idx   int

	entries []gosvalue.MapEntry // map, snapshotted once at loop entry
	midx    int

	s   string // string, iterated by byte offset rather than decoded rune
	pos int

	ch *gosvalue.ChannelObj
}

func (it *rangeIter) AsAny() interface{} { return it }

func (it *rangeIter) Equals(other gosvalue.UserData) bool {
	o, ok := other.(*rangeIter)
	return ok && o == it
}

// newRangeIter builds the iteration state for a freshly entered range loop
// over container, peeling Named/Pointer wrappers the same way field and
// index access do.
func (e *Engine) newRangeIter(fb *Fiber, container gosvalue.GosValue) *rangeIter {
	container = gosvalue.Underlying(container, e.program.Objects)
	switch container.Type() {
	case gosvalue.Slice:
		so := e.program.Objects.Slice(gosvalue.SliceHandle(container.Handle()))
		if so == nil {
			return &rangeIter{kind: iterSliceArray}
		}
		elems := append([]gosvalue.GosValue{}, so.Backing.Data[so.Offset:so.Offset+so.Len]...)
		return &rangeIter{kind: iterSliceArray, elems: elems}
	case gosvalue.Array:
		ao := e.program.Objects.Array(gosvalue.ArrayHandle(container.Handle()))
		elems := append([]gosvalue.GosValue{}, ao.Data...)
		return &rangeIter{kind: iterSliceArray, elems: elems}
	case gosvalue.Map:
		mo := e.program.Objects.Map(gosvalue.MapHandle(container.Handle()))
		return &rangeIter{kind: iterMap, entries: mo.Snapshot()}
	case gosvalue.Str:
		s := e.program.Objects.String(gosvalue.StringHandle(container.Handle())).S
		return &rangeIter{kind: iterStr, s: s}
	case gosvalue.Channel:
		co := e.program.Objects.Channel(gosvalue.ChannelHandle(container.Handle()))
		return &rangeIter{kind: iterChannel, ch: co}
	case gosvalue.Pointer:
		po := e.program.Objects.Pointer(gosvalue.PointerHandle(container.Handle()))
		if po != nil && po.Kind == gosvalue.PointerToUserData {
			if it, ok := po.Data.(*rangeIter); ok {
				return it
			}
		}
		e.raisef(fb, "invalid range over a %s value", container.Type())
		return &rangeIter{kind: iterSliceArray}
	default:
		e.raisef(fb, "invalid range over a %s value", container.Type())
		return &rangeIter{kind: iterSliceArray}
	}
}

// reconstructMapKey recovers a best-effort GosValue from a raw map key: the
// exact numeric/string subtype is lost by MapKey's encoding, so every signed
// integer key surfaces as Int and every unsigned one as Uint regardless of
// its original bit width.
func reconstructMapKey(objs *gosvalue.Objects, raw interface{}) gosvalue.GosValue {
	switch k := raw.(type) {
	case bool:
		return gosvalue.NewBool(k)
	case int64:
		return gosvalue.NewInt(k)
	case uint64:
		return gosvalue.NewUint(k)
	case float64:
		return gosvalue.NewFloat64(k)
	case string:
		h := objs.PutString(&gosvalue.StringObj{S: k})
		return gosvalue.NewStr(h)
	default:
		return gosvalue.GosValue{}
	}
}

// Advance produces the next (key, value) pair with ok true, or ok false once
// the iteration is exhausted. A channel range yields key 0 with each received
// value.
func (it *rangeIter) Advance(objs *gosvalue.Objects) (key, val gosvalue.GosValue, ok bool) {
	switch it.kind {
	case iterSliceArray:
		if it.idx >= len(it.elems) {
			return gosvalue.GosValue{}, gosvalue.GosValue{}, false
		}
		key = gosvalue.NewInt(int64(it.idx))
		val = it.elems[it.idx]
		it.idx++
		return key, val, true
	case iterMap:
		if it.midx >= len(it.entries) {
			return gosvalue.GosValue{}, gosvalue.GosValue{}, false
		}
		e := it.entries[it.midx]
		it.midx++
		return reconstructMapKey(objs, e.RawKey), e.Val, true
	case iterStr:
		if it.pos >= len(it.s) {
			return gosvalue.GosValue{}, gosvalue.GosValue{}, false
		}
		key = gosvalue.NewInt(int64(it.pos))
		val = gosvalue.NewUint8(it.s[it.pos])
		it.pos++
		return key, val, true
	case iterChannel:
		v, open := <-it.ch.Ch
		if !open {
			return gosvalue.GosValue{}, gosvalue.GosValue{}, false
		}
		return gosvalue.NewInt(0), v, true
	default:
		return gosvalue.GosValue{}, gosvalue.GosValue{}, false
	}
}

// execRange implements the RANGE opcode: on entry it either builds a fresh
// iterator from the container left on the stack by the range statement's
// operand, or reuses the one a prior iteration of the same loop left behind
// (identified by its PointerToUserData pointer kind). On a successful
// advance it pushes, bottom to top, the iterator, the element value, the
// key, and a true continuation flag; on exhaustion it pushes only false,
// leaving no iterator behind for the loop to find on its next entry (there
// is none, since the loop exits instead of calling RANGE again).
func (e *Engine) execRange(fb *Fiber, fr *frame) {
	top := fr.pop()
	var it *rangeIter
	if top.Type() == gosvalue.Pointer {
		po := e.program.Objects.Pointer(gosvalue.PointerHandle(top.Handle()))
		if po != nil && po.Kind == gosvalue.PointerToUserData {
			if cast, ok := po.Data.(*rangeIter); ok {
				it = cast
			}
		}
	}
	if it == nil {
		it = e.newRangeIter(fb, top)
	}

	key, val, ok := it.Advance(e.program.Objects)
	if !ok {
		fr.push(gosvalue.NewBool(false))
		return
	}

	h := e.program.Objects.PutPointer(&gosvalue.PointerObj{Kind: gosvalue.PointerToUserData, Data: it})
	fr.push(gosvalue.NewPointer(h, gosvalue.GosMetadata{}))
	fr.push(val)
	fr.push(key)
	fr.push(gosvalue.NewBool(true))
}

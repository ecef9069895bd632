// Package builder implements the runtime buffer builder: a single-pass,
// back-to-front writer that produces FlatBuffers-compatible tables,
// structs, vectors, and strings, with vtable/string/byte-vector
// deduplication.
//
// The buffer is filled from the back (internal/growbuf): a value's
// recorded position is its distance from the buffer's logical end, and
// that distance never changes as more data is prepended in front of it.
// Every offset computation in this package is built on that invariant.
package builder

import (
	"encoding/binary"
	"math"

	"github.com/shardbuf/shardbuf/internal/dedup"
	"github.com/shardbuf/shardbuf/internal/growbuf"
)

// Offset identifies a previously-written value (a finished table, vector,
// or string) by its distance from the buffer's logical end. It is only
// meaningful against the Builder that produced it.
type Offset uint32

// Builder is a single-threaded, non-suspending state machine: exactly one
// object may be under construction at a time, and a Builder must not be
// used from more than one goroutine concurrently.
//
// The zero value is not ready to use; construct with [New].
type Builder struct {
	buf growbuf.Buffer

	minAlign int

	vtables *dedup.Cache
	strings *dedup.Cache
	bytes   *dedup.Cache

	inObject    bool
	objectStart uint32
	vtable      []uint32

	finished bool
}

// New returns an empty Builder ready to accept writes.
func New() *Builder {
	return &Builder{
		minAlign: 1,
		vtables:  dedup.New(),
		strings:  dedup.New(),
		bytes:    dedup.New(),
	}
}

// Clear discards the buffer's contents and invalidates every dedup
// cache, but keeps the backing array allocated for reuse. Use this
// between independent compilations of unrelated buffers.
func (b *Builder) Clear() {
	b.buf.Reset()
	b.minAlign = 1
	b.inObject = false
	b.objectStart = 0
	b.vtable = b.vtable[:0]
	b.finished = false
	if b.vtables != nil {
		b.vtables.Clear()
	}
	if b.strings != nil {
		b.strings.Clear()
	}
	if b.bytes != nil {
		b.bytes.Clear()
	}
}

// Release drops the backing array entirely, for eager reclamation of a
// large buffer's memory. A released Builder behaves like a fresh [New]
// on its next use.
func (b *Builder) Release() {
	*b = *New()
}

// DisableDedup turns off vtable, string, and byte-vector deduplication for
// the remainder of this Builder's life: every write lands in the buffer
// even if an identical one was already written. Caching only ever affects
// the finished buffer's length, never its semantic content, so this exists
// to let callers measure that difference rather than for routine use.
func (b *Builder) DisableDedup() {
	b.vtables = nil
	b.strings = nil
	b.bytes = nil
}

// Finished reports whether Finish has been called since the last Clear
// or Release.
func (b *Builder) Finished() bool { return b.finished }

// FinishedBytes returns the completed buffer. Panics if Finish has not
// been called.
func (b *Builder) FinishedBytes() []byte {
	if !b.finished {
		panic("wire/builder: FinishedBytes called before Finish")
	}
	return b.buf.Bytes()
}

func (b *Builder) pos() uint32 { return uint32(b.buf.Offset()) }

// Offset returns the position of the value most recently written, for
// callers that finish a bare struct (no EndObject/EndVector of their own)
// as a buffer's root.
func (b *Builder) Offset() Offset { return Offset(b.pos()) }

// Prep ensures the next size-byte write lands at an address congruent to
// zero modulo size, by inserting the minimal run of zero padding bytes
// first. additionalBytes accounts for bytes that will be written after
// this call but must be included in the alignment computation (e.g. a
// vtable's own header when prepping for the fields behind it).
//
// Padding is computed directly from the buffer's current length rather
// than through a separately maintained delayed-bytes counter: growbuf
// already exposes an O(1) exact length, so a lazily-updated invariant
// would track redundant state without buying anything back.
func (b *Builder) Prep(size, additionalBytes int) {
	if size > b.minAlign {
		b.minAlign = size
	}
	alignSize := (-(b.buf.Len() + additionalBytes)) & (size - 1)
	if alignSize > 0 {
		pad := b.buf.Reserve(alignSize)
		clearBytes(pad)
	}
}

func clearBytes(p []byte) {
	for i := range p {
		p[i] = 0
	}
}

// PlaceBool, PlaceIntN, PlaceUintN, and PlaceFloatN write raw values with
// no alignment or padding of their own; callers that need alignment call
// Prep first. These back the struct writer, where every field's position
// is dictated by the enclosing struct's precomputed layout rather than
// recomputed per field.

func (b *Builder) PlaceBool(v bool) {
	s := b.buf.Reserve(1)
	if v {
		s[0] = 1
	} else {
		s[0] = 0
	}
}

func (b *Builder) PlaceInt8(v int8)   { b.PlaceUint8(uint8(v)) }
func (b *Builder) PlaceUint8(v uint8) { b.buf.Reserve(1)[0] = v }

func (b *Builder) PlaceInt16(v int16)   { b.PlaceUint16(uint16(v)) }
func (b *Builder) PlaceUint16(v uint16) { binary.LittleEndian.PutUint16(b.buf.Reserve(2), v) }

func (b *Builder) PlaceInt32(v int32)   { b.PlaceUint32(uint32(v)) }
func (b *Builder) PlaceUint32(v uint32) { binary.LittleEndian.PutUint32(b.buf.Reserve(4), v) }

func (b *Builder) PlaceInt64(v int64)   { b.PlaceUint64(uint64(v)) }
func (b *Builder) PlaceUint64(v uint64) { binary.LittleEndian.PutUint64(b.buf.Reserve(8), v) }

func (b *Builder) PlaceFloat32(v float32) { b.PlaceUint32(math.Float32bits(v)) }
func (b *Builder) PlaceFloat64(v float64) { b.PlaceUint64(math.Float64bits(v)) }

// PrependBool, PrependIntN, PrependUintN, and PrependFloatN align, then
// write, a scalar as a standalone value (not a table field): used for
// vector elements and struct fields written at the top level.

func (b *Builder) PrependBool(v bool) { b.Prep(1, 0); b.PlaceBool(v) }
func (b *Builder) PrependInt8(v int8) { b.Prep(1, 0); b.PlaceInt8(v) }
func (b *Builder) PrependUint8(v uint8) { b.Prep(1, 0); b.PlaceUint8(v) }
func (b *Builder) PrependInt16(v int16) { b.Prep(2, 0); b.PlaceInt16(v) }
func (b *Builder) PrependUint16(v uint16) { b.Prep(2, 0); b.PlaceUint16(v) }
func (b *Builder) PrependInt32(v int32) { b.Prep(4, 0); b.PlaceInt32(v) }
func (b *Builder) PrependUint32(v uint32) { b.Prep(4, 0); b.PlaceUint32(v) }
func (b *Builder) PrependInt64(v int64) { b.Prep(8, 0); b.PlaceInt64(v) }
func (b *Builder) PrependUint64(v uint64) { b.Prep(8, 0); b.PlaceUint64(v) }
func (b *Builder) PrependFloat32(v float32) { b.Prep(4, 0); b.PlaceFloat32(v) }
func (b *Builder) PrependFloat64(v float64) { b.Prep(8, 0); b.PlaceFloat64(v) }

// PrependOffset writes a forward uoffset reference to a previously
// finished value (table, string, or vector).
func (b *Builder) PrependOffset(target Offset) {
	if uint32(target) > b.pos() {
		panic("wire/builder: offset target written after the reference to it")
	}
	b.Prep(4, 0)
	s := b.buf.Reserve(4)
	rel := b.pos() - uint32(target)
	binary.LittleEndian.PutUint32(s, rel)
}

// StartObject begins a table with numFields vtable slots, all initially
// absent. Panics if an object is already under construction.
func (b *Builder) StartObject(numFields int) {
	if b.inObject {
		panic("wire/builder: StartObject called while another object is under construction")
	}
	b.inObject = true
	if cap(b.vtable) < numFields {
		b.vtable = make([]uint32, numFields)
	} else {
		b.vtable = b.vtable[:numFields]
		clearVtableScratch(b.vtable)
	}
	b.objectStart = b.pos()
}

func clearVtableScratch(v []uint32) {
	for i := range v {
		v[i] = 0
	}
}

func (b *Builder) assertInObject() {
	if !b.inObject {
		panic("wire/builder: field write outside StartObject/EndObject")
	}
}

func (b *Builder) slot(i int) {
	b.vtable[i] = b.pos()
}

// PrependBoolSlot, PrependIntNSlot, PrependUintNSlot, and
// PrependFloatNSlot write a table field's value if it differs from the
// field's default, recording its vtable slot; a default-valued write is
// skipped entirely, leaving the slot at 0 (absent), per the
// scalar-omission invariant.

func (b *Builder) PrependBoolSlot(slot int, v, dflt bool) {
	b.assertInObject()
	if v == dflt {
		return
	}
	b.PrependBool(v)
	b.slot(slot)
}

func (b *Builder) PrependInt8Slot(slot int, v, dflt int8) {
	b.assertInObject()
	if v == dflt {
		return
	}
	b.PrependInt8(v)
	b.slot(slot)
}

func (b *Builder) PrependUint8Slot(slot int, v, dflt uint8) {
	b.assertInObject()
	if v == dflt {
		return
	}
	b.PrependUint8(v)
	b.slot(slot)
}

func (b *Builder) PrependInt16Slot(slot int, v, dflt int16) {
	b.assertInObject()
	if v == dflt {
		return
	}
	b.PrependInt16(v)
	b.slot(slot)
}

func (b *Builder) PrependUint16Slot(slot int, v, dflt uint16) {
	b.assertInObject()
	if v == dflt {
		return
	}
	b.PrependUint16(v)
	b.slot(slot)
}

func (b *Builder) PrependInt32Slot(slot int, v, dflt int32) {
	b.assertInObject()
	if v == dflt {
		return
	}
	b.PrependInt32(v)
	b.slot(slot)
}

func (b *Builder) PrependUint32Slot(slot int, v, dflt uint32) {
	b.assertInObject()
	if v == dflt {
		return
	}
	b.PrependUint32(v)
	b.slot(slot)
}

func (b *Builder) PrependInt64Slot(slot int, v, dflt int64) {
	b.assertInObject()
	if v == dflt {
		return
	}
	b.PrependInt64(v)
	b.slot(slot)
}

func (b *Builder) PrependUint64Slot(slot int, v, dflt uint64) {
	b.assertInObject()
	if v == dflt {
		return
	}
	b.PrependUint64(v)
	b.slot(slot)
}

func (b *Builder) PrependFloat32Slot(slot int, v, dflt float32) {
	b.assertInObject()
	if v == dflt {
		return
	}
	b.PrependFloat32(v)
	b.slot(slot)
}

func (b *Builder) PrependFloat64Slot(slot int, v, dflt float64) {
	b.assertInObject()
	if v == dflt {
		return
	}
	b.PrependFloat64(v)
	b.slot(slot)
}

// PrependOffsetSlot writes a table field that holds a forward reference
// (string, table, union value, or vector). A zero Offset means the field
// is absent and is not written, matching the absent-optional-field
// invariant.
func (b *Builder) PrependOffsetSlot(slot int, target Offset) {
	b.assertInObject()
	if target == 0 {
		return
	}
	b.PrependOffset(target)
	b.slot(slot)
}

// PrependUnionSlot writes both halves of a union field: the tag at
// tagSlot and the value offset at valueSlot. A zero tag means "none"; the
// value offset is then skipped too regardless of what the caller passes.
func (b *Builder) PrependUnionSlot(tagSlot, valueSlot int, tag uint8, value Offset) {
	b.assertInObject()
	if tag == 0 {
		return
	}
	b.PrependUint8(tag)
	b.slot(tagSlot)
	b.PrependOffsetSlot(valueSlot, value)
}

// StructSlot writes a struct field inline and records it as occupying the
// given vtable slot. Structs have no indirection: StructSlot preps for the
// struct's alignment and size, then calls write, which must place exactly
// the struct's raw bytes (in the layout schema/ir computed).
func (b *Builder) StructSlot(slot int, align, size int, write func()) {
	b.assertInObject()
	b.Prep(align, size)
	write()
	b.slot(slot)
}

// EndObject finishes the table started by the last StartObject,
// deduplicating its vtable against every vtable already written, and
// returns the table's offset. Panics if no object is under construction.
func (b *Builder) EndObject() Offset {
	if !b.inObject {
		panic("wire/builder: EndObject called without a matching StartObject")
	}
	b.inObject = false

	for len(b.vtable) > 0 && b.vtable[len(b.vtable)-1] == 0 {
		b.vtable = b.vtable[:len(b.vtable)-1]
	}

	b.Prep(4, 0)
	header := b.buf.Reserve(4)
	clearBytes(header)
	headerPos := b.pos()
	objectSize := headerPos - b.objectStart

	vt := make([]byte, 4+2*len(b.vtable))
	binary.LittleEndian.PutUint16(vt[0:2], uint16(len(vt)))
	binary.LittleEndian.PutUint16(vt[2:4], uint16(objectSize))
	for i, fieldPos := range b.vtable {
		var off uint16
		if fieldPos != 0 {
			if fieldPos > headerPos {
				panic("wire/builder: field written after its own table's header")
			}
			off = uint16(headerPos - fieldPos)
		}
		binary.LittleEndian.PutUint16(vt[4+2*i:6+2*i], off)
	}

	vtablePos := b.writeOrReuseVtable(vt)
	binary.LittleEndian.PutUint32(header, uint32(int64(vtablePos)-int64(headerPos)))

	b.vtable = b.vtable[:0]
	return Offset(headerPos)
}

func (b *Builder) writeOrReuseVtable(vt []byte) uint32 {
	if b.vtables != nil {
		if existing, ok := b.vtables.Lookup(vt); ok {
			return existing
		}
	}
	b.Prep(2, len(vt))
	s := b.buf.Reserve(len(vt))
	copy(s, vt)
	pos := b.pos()
	if b.vtables != nil {
		b.vtables.Insert(vt, pos)
	}
	return pos
}

// CreateString writes a NUL-terminated, length-prefixed UTF-8 string,
// reusing a previously written identical string if the builder has
// already written one since the last Clear.
func (b *Builder) CreateString(s string) Offset {
	return b.createStringBytes([]byte(s))
}

func (b *Builder) createStringBytes(raw []byte) Offset {
	canon := make([]byte, 4+len(raw)+1)
	binary.LittleEndian.PutUint32(canon[0:4], uint32(len(raw)))
	copy(canon[4:], raw)

	if b.strings != nil {
		if p, ok := b.strings.Lookup(canon); ok {
			return Offset(p)
		}
	}

	b.Prep(4, len(raw)+1)
	nul := b.buf.Reserve(1)
	nul[0] = 0
	if len(raw) > 0 {
		s := b.buf.Reserve(len(raw))
		copy(s, raw)
	}
	lenField := b.buf.Reserve(4)
	binary.LittleEndian.PutUint32(lenField, uint32(len(raw)))

	p := b.pos()
	if b.strings != nil {
		b.strings.Insert(canon, p)
	}
	return Offset(p)
}

// CreateByteVector writes a length-prefixed raw byte vector, reusing a
// previously written identical vector if the builder has already written
// one since the last Clear.
func (b *Builder) CreateByteVector(data []byte) Offset {
	canon := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(canon[0:4], uint32(len(data)))
	copy(canon[4:], data)

	if b.bytes != nil {
		if p, ok := b.bytes.Lookup(canon); ok {
			return Offset(p)
		}
	}

	b.Prep(4, len(data))
	if len(data) > 0 {
		s := b.buf.Reserve(len(data))
		copy(s, data)
	}
	lenField := b.buf.Reserve(4)
	binary.LittleEndian.PutUint32(lenField, uint32(len(data)))

	p := b.pos()
	if b.bytes != nil {
		b.bytes.Insert(canon, p)
	}
	return Offset(p)
}

// StartVector preps the buffer for count elements of elemSize bytes each
// aligned to align, plus the u32 length header. Elements must be
// prepended in reverse index order (highest index first) between
// StartVector and EndVector, since the buffer is filled from the back.
func (b *Builder) StartVector(elemSize, count, align int) {
	b.Prep(4, elemSize*count)
	if align > 4 {
		b.Prep(align, elemSize*count)
	}
}

// EndVector writes the vector's length header and returns its offset.
func (b *Builder) EndVector(count int) Offset {
	s := b.buf.Reserve(4)
	binary.LittleEndian.PutUint32(s, uint32(count))
	return Offset(b.pos())
}

// Finish writes the root table's offset (and, if non-empty, a 4-byte file
// identifier immediately after it) and marks the buffer read-only for
// further writes until the next Clear or Release.
//
// fileIdentifier, if non-empty, must be exactly 4 bytes.
func (b *Builder) Finish(root Offset, fileIdentifier string) {
	if b.inObject {
		panic("wire/builder: Finish called with an object still under construction")
	}
	idLen := 0
	if fileIdentifier != "" {
		if len(fileIdentifier) != 4 {
			panic("wire/builder: file identifier must be exactly 4 bytes")
		}
		idLen = 4
	}
	// The root offset (and identifier, if present) must land at the
	// buffer's overall alignment, not just its own 4-byte width: a
	// trailing int64/float64 field can raise minAlign past 4, and
	// padding only to 4 here would leave every 8-aligned field at a
	// non-multiple-of-8 absolute offset in the finished buffer.
	b.Prep(b.minAlign, 4+idLen)
	if idLen > 0 {
		s := b.buf.Reserve(4)
		copy(s, fileIdentifier)
	}
	b.PrependOffset(root)
	b.finished = true
}

package reader

import (
	"encoding/binary"
	"math"
)

// TableView is a zero-copy, lazily-validated view over one table in a
// buffer. Constructing a TableView validates only the vtable header;
// every field access is validated independently when it happens.
type TableView struct {
	buf        []byte
	pos        int // absolute byte index of the table's header
	vtablePos  int
	vtableSize int
	typeName   string
}

// RootPos resolves a finished buffer's root table offset, written by
// Builder.Finish as a u32 at the very start of the buffer.
func RootPos(buf []byte) (int, error) {
	if len(buf) < 4 {
		return 0, fail(InvalidOffset, "root", 0, "root")
	}
	return int(binary.LittleEndian.Uint32(buf[0:4])), nil
}

// NewTableView reads the table at the given absolute offset. offset is
// itself typically the value of a uoffset field elsewhere (root pointer,
// another table's field, a vector element): the caller is responsible
// for having already resolved it to an absolute buffer index.
func NewTableView(buf []byte, offset int, typeName string) (TableView, error) {
	if offset < 0 || offset+4 > len(buf) {
		return TableView{}, fail(InvalidOffset, typeName, offset, "from_buffer")
	}
	back := int32(binary.LittleEndian.Uint32(buf[offset : offset+4]))
	vtablePos := offset - int(back)
	if vtablePos < 0 || vtablePos+4 > len(buf) {
		return TableView{}, fail(InvalidOffset, typeName, offset, "from_buffer")
	}
	vtableSize := int(binary.LittleEndian.Uint16(buf[vtablePos : vtablePos+2]))
	if vtableSize < 4 || vtableSize%2 != 0 || vtablePos+vtableSize > len(buf) {
		return TableView{}, fail(InvalidVtableLength, typeName, offset, "from_buffer")
	}
	return TableView{buf: buf, pos: offset, vtablePos: vtablePos, vtableSize: vtableSize, typeName: typeName}, nil
}

// fieldOffset returns the absolute buffer index of the field at the
// given vtable slot, or ok=false if the slot is absent (truncated
// vtable or an explicit 0 entry).
func (t TableView) fieldOffset(slot int) (int, bool) {
	entryAt := 4 + slot*2
	if entryAt+2 > t.vtableSize {
		return 0, false
	}
	rel := int(binary.LittleEndian.Uint16(t.buf[t.vtablePos+entryAt : t.vtablePos+entryAt+2]))
	if rel == 0 {
		return 0, false
	}
	return t.pos + rel, true
}

func (t TableView) ReadBool(slot int, dflt bool, accessor string) (bool, error) {
	off, ok := t.fieldOffset(slot)
	if !ok {
		return dflt, nil
	}
	if off+1 > len(t.buf) {
		return false, fail(InvalidOffset, t.typeName, off, accessor)
	}
	return t.buf[off] != 0, nil
}

func (t TableView) ReadInt8(slot int, dflt int8, accessor string) (int8, error) {
	v, err := t.ReadUint8(slot, uint8(dflt), accessor)
	return int8(v), err
}

func (t TableView) ReadUint8(slot int, dflt uint8, accessor string) (uint8, error) {
	off, ok := t.fieldOffset(slot)
	if !ok {
		return dflt, nil
	}
	if off+1 > len(t.buf) {
		return 0, fail(InvalidOffset, t.typeName, off, accessor)
	}
	return t.buf[off], nil
}

func (t TableView) ReadInt16(slot int, dflt int16, accessor string) (int16, error) {
	v, err := t.ReadUint16(slot, uint16(dflt), accessor)
	return int16(v), err
}

func (t TableView) ReadUint16(slot int, dflt uint16, accessor string) (uint16, error) {
	off, ok := t.fieldOffset(slot)
	if !ok {
		return dflt, nil
	}
	if off+2 > len(t.buf) {
		return 0, fail(InvalidOffset, t.typeName, off, accessor)
	}
	return binary.LittleEndian.Uint16(t.buf[off : off+2]), nil
}

func (t TableView) ReadInt32(slot int, dflt int32, accessor string) (int32, error) {
	v, err := t.ReadUint32(slot, uint32(dflt), accessor)
	return int32(v), err
}

func (t TableView) ReadUint32(slot int, dflt uint32, accessor string) (uint32, error) {
	off, ok := t.fieldOffset(slot)
	if !ok {
		return dflt, nil
	}
	if off+4 > len(t.buf) {
		return 0, fail(InvalidOffset, t.typeName, off, accessor)
	}
	return binary.LittleEndian.Uint32(t.buf[off : off+4]), nil
}

func (t TableView) ReadInt64(slot int, dflt int64, accessor string) (int64, error) {
	v, err := t.ReadUint64(slot, uint64(dflt), accessor)
	return int64(v), err
}

func (t TableView) ReadUint64(slot int, dflt uint64, accessor string) (uint64, error) {
	off, ok := t.fieldOffset(slot)
	if !ok {
		return dflt, nil
	}
	if off+8 > len(t.buf) {
		return 0, fail(InvalidOffset, t.typeName, off, accessor)
	}
	return binary.LittleEndian.Uint64(t.buf[off : off+8]), nil
}

func (t TableView) ReadFloat32(slot int, dflt float32, accessor string) (float32, error) {
	v, err := t.ReadUint32(slot, math.Float32bits(dflt), accessor)
	return math.Float32frombits(v), err
}

func (t TableView) ReadFloat64(slot int, dflt float64, accessor string) (float64, error) {
	v, err := t.ReadUint64(slot, math.Float64bits(dflt), accessor)
	return math.Float64frombits(v), err
}

// ReadOffset resolves a pointer-kind field (table, string, vector) to its
// absolute target offset. ok is false when the field is absent.
func (t TableView) ReadOffset(slot int, accessor string) (abs int, ok bool, err error) {
	off, present := t.fieldOffset(slot)
	if !present {
		return 0, false, nil
	}
	if off+4 > len(t.buf) {
		return 0, false, fail(InvalidOffset, t.typeName, off, accessor)
	}
	rel := binary.LittleEndian.Uint32(t.buf[off : off+4])
	target := off + int(rel)
	if target < 0 || target > len(t.buf) {
		return 0, false, fail(InvalidOffset, t.typeName, off, accessor)
	}
	return target, true, nil
}

// RequireOffset is ReadOffset for a field the schema marks `required`:
// absence is itself an error.
func (t TableView) RequireOffset(slot int, accessor string) (int, error) {
	abs, ok, err := t.ReadOffset(slot, accessor)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fail(MissingRequired, t.typeName, t.pos, accessor)
	}
	return abs, nil
}

// ReadUnion reads a union field's tag (at tagSlot) and, if present, its
// value offset (at valueSlot). A tag of 0 (none) returns ok=false and no
// error.
func (t TableView) ReadUnion(tagSlot, valueSlot int, accessor string) (tag uint8, abs int, ok bool, err error) {
	tag, err = t.ReadUint8(tagSlot, 0, accessor)
	if err != nil {
		return 0, 0, false, err
	}
	if tag == 0 {
		return 0, 0, false, nil
	}
	abs, ok, err = t.ReadOffset(valueSlot, accessor)
	if err != nil {
		return 0, 0, false, err
	}
	if !ok {
		return 0, 0, false, fail(InvalidOffset, t.typeName, t.pos, accessor)
	}
	return tag, abs, true, nil
}

// TypeName returns the view's decoration name, used by generated code
// that wraps this view in a richer accessor error.
func (t TableView) TypeName() string { return t.typeName }

// Pos returns the table's absolute byte offset, used as the basis for
// child FieldPath computations in wire/inspect.
func (t TableView) Pos() int { return t.pos }

func (t TableView) VtablePos() int  { return t.vtablePos }
func (t TableView) VtableSize() int { return t.vtableSize }

// ObjectSize returns the table's total byte span, read from the second
// u16 of its vtable (the vtable's own objectSize field).
func (t TableView) ObjectSize() int {
	return int(binary.LittleEndian.Uint16(t.buf[t.vtablePos+2 : t.vtablePos+4]))
}

// NumSlots returns the number of vtable slots this table's vtable
// declares, derived from the vtable's own byte size.
func (t TableView) NumSlots() int {
	return (t.vtableSize - 4) / 2
}

// FieldOffset exposes fieldOffset for callers outside the package, such
// as wire/inspect, that need to map a slot index to a byte range without
// knowing the field's scalar type.
func (t TableView) FieldOffset(slot int) (int, bool) {
	return t.fieldOffset(slot)
}

package reader

import (
	"encoding/binary"
	"math"
)

// StructView is a zero-copy view over a struct's fixed, inline layout:
// no vtable, no pointer indirection. Every accessor takes the field's
// precomputed byte offset (schema/ir's resolver assigns these).
type StructView struct {
	buf      []byte
	pos      int
	size     int
	typeName string
}

// NewStructView wraps the size bytes at offset as a struct. size is the
// struct's resolved byte size; bounds are checked once, up front, since
// every field access afterward is guaranteed in range by construction.
func NewStructView(buf []byte, offset, size int, typeName string) (StructView, error) {
	if offset < 0 || offset+size > len(buf) {
		return StructView{}, fail(InvalidOffset, typeName, offset, "from_buffer")
	}
	return StructView{buf: buf, pos: offset, size: size, typeName: typeName}, nil
}

func (s StructView) Pos() int  { return s.pos }
func (s StructView) Size() int { return s.size }

func (s StructView) Bool(fieldOffset int) bool   { return s.buf[s.pos+fieldOffset] != 0 }
func (s StructView) Int8(fieldOffset int) int8    { return int8(s.buf[s.pos+fieldOffset]) }
func (s StructView) Uint8(fieldOffset int) uint8  { return s.buf[s.pos+fieldOffset] }

func (s StructView) Int16(fieldOffset int) int16 {
	return int16(s.Uint16(fieldOffset))
}

func (s StructView) Uint16(fieldOffset int) uint16 {
	return binary.LittleEndian.Uint16(s.buf[s.pos+fieldOffset:])
}

func (s StructView) Int32(fieldOffset int) int32 {
	return int32(s.Uint32(fieldOffset))
}

func (s StructView) Uint32(fieldOffset int) uint32 {
	return binary.LittleEndian.Uint32(s.buf[s.pos+fieldOffset:])
}

func (s StructView) Int64(fieldOffset int) int64 {
	return int64(s.Uint64(fieldOffset))
}

func (s StructView) Uint64(fieldOffset int) uint64 {
	return binary.LittleEndian.Uint64(s.buf[s.pos+fieldOffset:])
}

func (s StructView) Float32(fieldOffset int) float32 {
	return math.Float32frombits(s.Uint32(fieldOffset))
}

func (s StructView) Float64(fieldOffset int) float64 {
	return math.Float64frombits(s.Uint64(fieldOffset))
}

// Nested returns a StructView over an embedded struct field at
// fieldOffset, sized nestedSize.
func (s StructView) Nested(fieldOffset, nestedSize int) StructView {
	return StructView{buf: s.buf, pos: s.pos + fieldOffset, size: nestedSize, typeName: s.typeName}
}

package reader

import (
	"encoding/binary"
	"unicode/utf8"
)

// StringView is a zero-copy view over a length-prefixed, NUL-terminated
// UTF-8 string.
type StringView struct {
	buf      []byte
	pos      int // absolute offset of the u32 length prefix
	length   int
	typeName string
}

// NewStringView reads the length prefix at offset and validates that the
// declared length (plus its trailing NUL byte) fits within buf. UTF-8
// validity and NUL-termination are checked lazily by String and
// ValidateNulTerminator, not here,
// since not every caller needs them (some only want the raw bytes).
func NewStringView(buf []byte, offset int, typeName string) (StringView, error) {
	if offset < 0 || offset+4 > len(buf) {
		return StringView{}, fail(InvalidOffset, typeName, offset, "from_buffer")
	}
	length := int(binary.LittleEndian.Uint32(buf[offset : offset+4]))
	if length < 0 || offset+4+length+1 > len(buf) {
		return StringView{}, fail(InvalidLength, typeName, offset, "from_buffer")
	}
	return StringView{buf: buf, pos: offset, length: length, typeName: typeName}, nil
}

// Len returns the string's byte length, excluding the NUL terminator.
func (s StringView) Len() int { return s.length }

// Bytes returns the raw string bytes, unvalidated.
func (s StringView) Bytes() []byte { return s.buf[s.pos+4 : s.pos+4+s.length] }

// String returns the string after validating it is well-formed UTF-8.
func (s StringView) String(accessor string) (string, error) {
	b := s.Bytes()
	if !utf8.Valid(b) {
		return "", fail(InvalidUtf8, s.typeName, s.pos, accessor)
	}
	return string(b), nil
}

// ValidateNulTerminator additionally checks the byte immediately after
// the declared length is 0, for callers that opted into the conservative
// validation mode.
func (s StringView) ValidateNulTerminator(accessor string) error {
	if s.buf[s.pos+4+s.length] != 0 {
		return fail(MissingNullTerminator, s.typeName, s.pos, accessor)
	}
	return nil
}

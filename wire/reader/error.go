// Package reader implements typed, lazily-validated, zero-copy views
// over a FlatBuffers-compatible buffer: TableView, StructView, vector and
// string views, and union access, mirroring the layout wire/builder
// writes.
package reader

import "fmt"

// Kind enumerates every way a reader accessor can fail. The set is
// closed: new kinds are never added without a corresponding wire/builder
// behavior change, since readers only ever reject input a correctly
// behaving builder would never produce.
type Kind int

const (
	InvalidOffset Kind = iota
	InvalidLength
	InvalidVtableLength
	UnknownEnumTag
	UnknownUnionTag
	InvalidUtf8
	MissingRequired
	MissingNullTerminator
)

func (k Kind) String() string {
	switch k {
	case InvalidOffset:
		return "invalid offset"
	case InvalidLength:
		return "invalid length"
	case InvalidVtableLength:
		return "invalid vtable length"
	case UnknownEnumTag:
		return "unknown enum tag"
	case UnknownUnionTag:
		return "unknown union tag"
	case InvalidUtf8:
		return "invalid utf-8"
	case MissingRequired:
		return "missing required field"
	case MissingNullTerminator:
		return "missing null terminator"
	default:
		return "unknown error"
	}
}

// Error decorates a Kind with the boundary it was raised at: the type
// being read, the byte offset within the buffer it was read from, and
// the accessor method that detected the problem.
type Error struct {
	Kind     Kind
	TypeName string
	Offset   int
	Accessor string
}

func (e *Error) Error() string {
	return fmt.Sprintf("in `%s@%d::%s()`: %s", e.TypeName, e.Offset, e.Accessor, e.Kind)
}

func fail(kind Kind, typeName string, offset int, accessor string) error {
	return &Error{Kind: kind, TypeName: typeName, Offset: offset, Accessor: accessor}
}

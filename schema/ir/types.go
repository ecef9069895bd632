// Package ir implements the resolver / IR builder: name resolution, cycle
// detection, struct layout, vtable index assignment, alignment ordering,
// default propagation, and declaration adjacency, all over the typed AST
// produced by schema/ast.
//
// The worklist fixpoint (RunAnalysis) follows the same "pop lowest
// child-count, requeue parents on change" shape as SCC-based
// dependency-ordered processing, generalized into a reusable primitive
// any codegen backend can use for deriving per-declaration properties.
package ir

import "github.com/shardbuf/shardbuf/schema/ast"

// IntegerKind is the underlying representation of an integer scalar or
// enum, by byte width and signedness.
type IntegerKind int

const (
	Int8 IntegerKind = iota
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
)

// Size returns the byte width of k, which equals its natural alignment:
// every primitive type is 1, 2, 4, or 8 bytes, naturally aligned.
func (k IntegerKind) Size() int {
	switch k {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32:
		return 4
	default:
		return 8
	}
}

func (k IntegerKind) Signed() bool {
	switch k {
	case Int8, Int16, Int32, Int64:
		return true
	default:
		return false
	}
}

func fromASTIntKind(k ast.TypeKind) IntegerKind {
	switch k {
	case ast.TypeInt8:
		return Int8
	case ast.TypeUint8:
		return Uint8
	case ast.TypeInt16:
		return Int16
	case ast.TypeUint16:
		return Uint16
	case ast.TypeInt32:
		return Int32
	case ast.TypeUint32:
		return Uint32
	case ast.TypeInt64:
		return Int64
	default:
		return Uint64
	}
}

// FloatKind is the width of a floating-point scalar.
type FloatKind int

const (
	Float32 FloatKind = iota
	Float64
)

func (k FloatKind) Size() int {
	if k == Float32 {
		return 4
	}
	return 8
}

// DeclarationIndex is an index into a Declarations' flat declaration list.
// Every DeclarationIndex referenced anywhere in a Declarations value
// resolves within that same Declarations; indices are never shared
// across two separately resolved schema sets.
type DeclarationIndex int

// NamespaceIndex is an index into a Declarations' namespace list.
type NamespaceIndex int

// TypeKind identifies the shape of a resolved Type.
type TypeKind int

const (
	KindTable TypeKind = iota
	KindStruct
	KindEnum
	KindUnion
	KindBool
	KindInteger
	KindFloat
	KindString
	KindVector
	KindArray
)

// Type is a fully resolved field/variant/vector-element type: named types
// carry a DeclarationIndex rather than a path, resolved once up front so
// every later pass works with a stable reference instead of a string.
type Type struct {
	Kind    TypeKind
	Decl    DeclarationIndex // KindTable, KindStruct, KindEnum, KindUnion
	Integer IntegerKind      // KindInteger
	Float   FloatKind        // KindFloat
	Elem    *Type            // KindVector, KindArray
	ArrayN  int              // KindArray
}

// IsPointer reports whether a value of this type is stored as an offset
// on the wire (tables, unions, vectors, strings) rather than inline
// (structs and scalars).
func (t Type) IsPointer() bool {
	switch t.Kind {
	case KindTable, KindUnion, KindVector, KindString:
		return true
	default:
		return false
	}
}

// Alignment returns the type's required alignment in bytes.
func (t Type) Alignment(decls *Declarations) int {
	switch t.Kind {
	case KindBool:
		return 1
	case KindInteger:
		return t.Integer.Size()
	case KindFloat:
		return t.Float.Size()
	case KindTable, KindString, KindUnion:
		return 4 // offsets are u32
	case KindStruct:
		return decls.Struct(t.Decl).Alignment
	case KindEnum:
		return decls.Enum(t.Decl).Underlying.Size()
	case KindVector:
		return 4 // the vector's length header is a u32
	case KindArray:
		return t.Elem.Alignment(decls)
	default:
		return 1
	}
}

// InlineSize returns the number of bytes a value of this type occupies
// where it is stored inline: the full value for structs/scalars, 4 bytes
// (an offset) for every pointer kind.
func (t Type) InlineSize(decls *Declarations) int {
	switch t.Kind {
	case KindBool:
		return 1
	case KindInteger:
		return t.Integer.Size()
	case KindFloat:
		return t.Float.Size()
	case KindStruct:
		return decls.Struct(t.Decl).Size
	case KindEnum:
		return decls.Enum(t.Decl).Underlying.Size()
	case KindArray:
		return t.Elem.InlineSize(decls) * t.ArrayN
	default:
		return 4 // offset
	}
}

// AssignModeKind distinguishes how a table field's presence/value is
// determined: required on write, optional and absent when unwritten, or
// backed by a compile-time default.
type AssignModeKind int

const (
	Required AssignModeKind = iota
	Optional
	HasDefault
)

// AssignMode is a TableField's presence/default policy.
type AssignMode struct {
	Kind    AssignModeKind
	Default ResolvedLiteral // HasDefault
}

// ResolvedLiteral is a default value that has been type-checked against
// its field's declared type.
type ResolvedLiteral struct {
	Int     int64
	Uint    uint64
	Float   float64
	Bool    bool
	Variant int // for enum defaults: index of the resolved variant in the enum's Variants
}

// TagKind identifies whether a table field's vtable slot is preceded by a
// union discriminant slot.
type TagKind int

const (
	NoTag TagKind = iota
	UnionTag
	UnionTagVector
)

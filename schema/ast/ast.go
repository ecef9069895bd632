// Package ast lowers the lossless CST produced by schema/cst into a typed
// abstract syntax tree: attribute lists become interpreted key/value maps,
// integer literals are parsed with overflow checks against context, and
// syntactically valid but semantically malformed constructs (duplicate
// attributes, metadata on the wrong declaration kind, unsupported
// attributes) are diagnosed here rather than deferred to the resolver.
package ast

// Path is a dot-separated namespace/identifier reference, as written in
// the source (not yet resolved to a declaration).
type Path string

// File is one parsed, desugared schema file.
type File struct {
	Namespace    Path
	Includes     []string
	RootType     string
	FileIdent    string
	FileExt      string
	Attributes   []string // user `attribute "name";` declarations
	Declarations []Decl
}

// DeclKind identifies which concrete Decl variant a Decl value holds.
type DeclKind int

const (
	DeclTable DeclKind = iota
	DeclStruct
	DeclEnum
	DeclUnion
	DeclRpcService
)

// Doc holds the docstrings attached to a declaration or field: the
// pre-comment outer-doc paragraph (///) and the inner-doc paragraph (//!),
// kept separate because they have different conventional meanings
// (documents the following item vs. documents the enclosing item).
type Doc struct {
	Outer []string
	Inner []string
}

// Decl is one top-level type declaration.
type Decl struct {
	Kind DeclKind
	Name string
	Doc  Doc
	Span Span

	Fields   []Field      // DeclTable, DeclStruct
	Variants []EnumMember // DeclEnum
	Members  []UnionMember // DeclUnion
	Methods  []RpcMethod  // DeclRpcService

	EnumBase Path // DeclEnum: underlying integer type name
	Attrs    Attrs
}

// Span mirrors cst.Span without importing the cst package, keeping ast
// free to be consumed without also depending on cst's Node type.
type Span struct{ Start, End int }

// Field is a table or struct field.
type Field struct {
	Name    string
	Type    Type
	Default *Literal
	Doc     Doc
	Span    Span
	Attrs   Attrs
}

// EnumMember is one `Name = literal` enum variant.
type EnumMember struct {
	Name  string
	Value *Literal // nil means "previous value + 1" (or 0 for the first)
	Doc   Doc
}

// UnionMember is one `Name: Type` union variant.
type UnionMember struct {
	Name string
	Type Type
	Doc  Doc
}

// RpcMethod is one `Name(Request): Response` rpc_service method.
type RpcMethod struct {
	Name         string
	Request      Path
	Response     Path
	Streaming    bool
	Doc          Doc
}

// TypeKind identifies which shape of type a Type value has.
type TypeKind int

const (
	TypeNamed TypeKind = iota // struct/enum/table reference, resolved later
	TypeBool
	TypeInt8
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeString
	TypeVector
	TypeArray
)

// Type is an unresolved field/variant type as written in source.
type Type struct {
	Kind  TypeKind
	Name  Path  // TypeNamed
	Elem  *Type // TypeVector, TypeArray
	Size  int   // TypeArray
}

var builtinTypes = map[string]TypeKind{
	"bool":    TypeBool,
	"byte":    TypeInt8,
	"int8":    TypeInt8,
	"ubyte":   TypeUint8,
	"uint8":   TypeUint8,
	"short":   TypeInt16,
	"int16":   TypeInt16,
	"ushort":  TypeUint16,
	"uint16":  TypeUint16,
	"int":     TypeInt32,
	"int32":   TypeInt32,
	"uint":    TypeUint32,
	"uint32":  TypeUint32,
	"long":    TypeInt64,
	"int64":   TypeInt64,
	"ulong":   TypeUint64,
	"uint64":  TypeUint64,
	"float":   TypeFloat32,
	"float32": TypeFloat32,
	"double":  TypeFloat64,
	"float64": TypeFloat64,
	"string":  TypeString,
}

// ResolveBuiltin returns the scalar TypeKind for a builtin type name, or
// (TypeNamed, false) if name refers to a user declaration instead.
func ResolveBuiltin(name string) (TypeKind, bool) {
	k, ok := builtinTypes[name]
	return k, ok
}

// IsIntegral reports whether k is one of the fixed-width integer kinds.
func (k TypeKind) IsIntegral() bool {
	switch k {
	case TypeInt8, TypeUint8, TypeInt16, TypeUint16, TypeInt32, TypeUint32, TypeInt64, TypeUint64:
		return true
	default:
		return false
	}
}

// Size returns the on-wire byte width of a scalar kind, or 0 for
// non-scalar kinds (TypeNamed/TypeVector/TypeArray/TypeString).
func (k TypeKind) Size() int {
	switch k {
	case TypeBool, TypeInt8, TypeUint8:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat32:
		return 4
	case TypeInt64, TypeUint64, TypeFloat64:
		return 8
	default:
		return 0
	}
}

// LiteralKind identifies the shape of a parsed default/enum-value literal.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitBool
	LitString
	LitIdent // bare identifier, e.g. an enum variant name used as a default
)

// Literal is a parsed constant value.
type Literal struct {
	Kind LiteralKind
	Int  int64
	Uint uint64 // used when the literal doesn't fit in int64 (large uint64 defaults)
	Flt  float64
	Str  string
	Span Span
}

// Attrs is the interpreted `(key: value, key)` attribute list attached to
// a declaration or field, after deduplication.
type Attrs struct {
	ForceAlign *int
	Required   bool
	Deprecated bool
	ID         *int
	Key        bool
	BitFlags   bool
	// Accepted-but-ignored attributes (original_order, cpp_type,
	// native_inline) are kept verbatim so a backend can still see them if
	// it cares to; any other unrecognized attribute is reported as an
	// error and not stored.
	Extra map[string]*Literal

	// Raw preserves insertion order of all attribute names as written,
	// purely for diagnostics (to report duplicates in source order).
	Raw []string
}

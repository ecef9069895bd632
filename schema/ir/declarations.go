package ir

import "github.com/google/uuid"

// AbsolutePath is a dot-separated namespace + identifier.
type AbsolutePath string

// Namespace is one `namespace a.b.c;` block's resolved identity.
type Namespace struct {
	Path AbsolutePath
	Doc  []string
}

// DeclarationKind identifies which concrete payload a Declaration carries.
type DeclarationKind int

const (
	IsTable DeclarationKind = iota
	IsStruct
	IsEnum
	IsUnion
	IsRpcService
)

// Declaration is one resolved top-level type, tagged by Kind.
type Declaration struct {
	Kind      DeclarationKind
	Namespace NamespaceIndex
	Name      string
	DocOuter  []string
	DocInner  []string
	Span      Span

	Table      *Table
	StructDecl *Struct
	EnumDecl   *Enum
	UnionDecl  *Union
	RpcDecl    *RpcService
}

// Span is a source byte range, independent of any particular file's
// string contents (a Span does not record which file it belongs to).
type Span struct{ Start, End int }

// Declarations is the complete resolved IR for a set of schema files: all
// namespaces and declarations as insertion-ordered lists, plus
// precomputed children/parents adjacency for every declaration, enabling
// worklist analyses.
type Declarations struct {
	Namespaces []Namespace
	Decls      []Declaration

	// Children[i] lists every declaration directly referenced by
	// declaration i's fields/variants/methods. Parents[i] is the
	// reverse relation. Built once during resolution.
	Children [][]DeclarationIndex
	Parents  [][]DeclarationIndex

	// RootType names the declaration selected by `root_type`, if any.
	RootType DeclarationIndex
	HasRoot  bool

	// BuildID is a random UUID minted on every resolver run, so that
	// callers (and tests) can distinguish IR produced by two separate
	// compilations even if their content happens to be identical.
	BuildID uuid.UUID
}

func (d *Declarations) Struct(i DeclarationIndex) *Struct { return d.Decls[i].StructDecl }
func (d *Declarations) Table(i DeclarationIndex) *Table    { return d.Decls[i].Table }
func (d *Declarations) Enum(i DeclarationIndex) *Enum      { return d.Decls[i].EnumDecl }
func (d *Declarations) Union(i DeclarationIndex) *Union    { return d.Decls[i].UnionDecl }

// Table is a resolved table declaration: an ordered map of fields (here,
// a slice preserving declaration order, since Go has no ordered-map type)
// plus the layout metadata the builder consumes.
type Table struct {
	Fields []TableField

	MaxSize         int
	MaxVtableSize   int
	MaxAlignment    int
	AlignmentOrder  []int // permutation of field indices, strongest-alignment first
}

// TableField is one field of a Table.
type TableField struct {
	Name         string
	VtableIndex  int
	Type         Type
	Assign       AssignMode
	Size         int // the inline on-wire size of a present value
	Preceding    TagKind
	AlignMask    int
	Deprecated   bool
	DocOuter     []string
}

// Struct is a resolved struct declaration: fixed layout, inline, no
// vtable.
type Struct struct {
	Fields    []StructField
	Size      int
	Alignment int
}

// StructField is one field of a Struct, with its explicit byte offset and
// trailing padding computed at resolve time.
type StructField struct {
	Name    string
	Type    Type
	Offset  int
	Size    int
	Padding int
	DocOuter []string
}

// Enum is a resolved enum declaration: underlying integer type plus an
// ordered literal -> variant-name map.
type Enum struct {
	Underlying IntegerKind
	BitFlags   bool
	Variants   []EnumVariant
	byValue    map[int64]int // literal value -> index into Variants
	byName     map[string]int
}

// EnumVariant is one `Name = value` member.
type EnumVariant struct {
	Name  string
	Value int64
	Doc   []string
}

// IndexOfValue returns the Variants index for a literal value: enum
// defaults record the variant index found by this literal-keyed lookup.
func (e *Enum) IndexOfValue(v int64) (int, bool) {
	i, ok := e.byValue[v]
	return i, ok
}

// IndexOfName returns the Variants index for a variant name.
func (e *Enum) IndexOfName(name string) (int, bool) {
	i, ok := e.byName[name]
	return i, ok
}

func (e *Enum) index() {
	e.byValue = make(map[int64]int, len(e.Variants))
	e.byName = make(map[string]int, len(e.Variants))
	for i, v := range e.Variants {
		e.byValue[v.Value] = i
		e.byName[v.Name] = i
	}
}

// Union is a resolved union declaration: an ordered variant-name -> type
// map. Tag value 0 always means "none" and is implicit (not listed in
// Variants).
type Union struct {
	Variants []UnionVariant
	byName   map[string]int
}

// UnionVariant is one non-NONE union member. Its Tag is 1-based (tag 0 is
// the implicit NONE member).
type UnionVariant struct {
	Name string
	Type Type // always KindTable or KindStruct, per invariant (c)
	Tag  uint8
	Doc  []string
}

func (u *Union) index() {
	u.byName = make(map[string]int, len(u.Variants))
	for i, v := range u.Variants {
		u.byName[v.Name] = i
	}
}

func (u *Union) IndexOfName(name string) (int, bool) {
	i, ok := u.byName[name]
	return i, ok
}

// RpcService is a resolved `rpc_service` declaration. It is accepted
// structurally (so the IR is complete and codegen frameworks can walk it)
// but flagged not-supported at the AST stage, which poisons code
// generation.
type RpcService struct {
	Methods []RpcMethod
}

// RpcMethod is one `Name(Request): Response` method.
type RpcMethod struct {
	Name     string
	Request  DeclarationIndex
	Response DeclarationIndex
}

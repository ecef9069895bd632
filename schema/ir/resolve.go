package ir

import (
	"iter"
	"strings"

	"github.com/google/uuid"

	"github.com/shardbuf/shardbuf/diag"
	"github.com/shardbuf/shardbuf/internal/graph"
	"github.com/shardbuf/shardbuf/schema/ast"
)

// Input is one parsed schema file, keyed by a name unique within the
// resolved set (typically its path), paired with the list of files it
// `include`s (also by that key).
type Input struct {
	Name string
	File *ast.File
}

type declKey struct {
	namespace string
	name      string
}

type resolver struct {
	ctx   *diag.Ctx
	decls *Declarations

	nsIndex   map[string]NamespaceIndex
	declIndex map[declKey]DeclarationIndex
	declFile  []string // parallel to decls.Decls: which Input.Name it came from

	fileOf    map[string]int // Input.Name -> index into inputs
	inputs    []Input
	reachable [][]bool // Floyd-Warshall transitive include closure

	// explicitVtableID[decl][field] holds a field's `(id: N)` attribute,
	// when present, consumed by assignVtableIndices.
	explicitVtableID map[DeclarationIndex]map[int]int
}

// Resolve runs the full resolution pipeline over a set of parsed files and
// returns the complete IR plus whatever diagnostics it reported to ctx.
// Resolve never returns nil: even a badly malformed input set produces a
// best-effort Declarations so later phases (and the inspector/codegen
// frameworks, in tests) have something to walk.
func Resolve(inputs []Input, ctx *diag.Ctx) *Declarations {
	r := &resolver{
		ctx:              ctx,
		decls:            &Declarations{BuildID: buildID()},
		nsIndex:          map[string]NamespaceIndex{},
		declIndex:        map[declKey]DeclarationIndex{},
		fileOf:           map[string]int{},
		inputs:           inputs,
		explicitVtableID: map[DeclarationIndex]map[int]int{},
	}
	for i, in := range inputs {
		r.fileOf[in.Name] = i
	}
	r.computeReachability()
	r.collectDeclarations()
	r.resolveTypes()
	r.detectStructCycles()
	r.layoutStructs()
	r.assignVtableIndices()
	r.computeAlignmentOrder()
	r.propagateDefaults()
	r.buildAdjacency()
	r.resolveRootType()
	return r.decls
}

func buildID() uuid.UUID {
	id, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil
	}
	return id
}

// computeReachability builds the transitive include closure via
// Floyd-Warshall over a boolean reachability matrix, so a type reference
// can be resolved against every file transitively reachable through
// `include` statements, not just direct includes.
func (r *resolver) computeReachability() {
	n := len(r.inputs)
	reach := make([][]bool, n)
	for i := range reach {
		reach[i] = make([]bool, n)
		reach[i][i] = true
		for _, inc := range r.inputs[i].File.Includes {
			if j, ok := r.fileOf[inc]; ok {
				reach[i][j] = true
			}
		}
	}
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if !reach[i][k] {
				continue
			}
			for j := 0; j < n; j++ {
				if reach[k][j] {
					reach[i][j] = true
				}
			}
		}
	}
	r.reachable = reach
}

func (r *resolver) nsOf(path ast.Path) NamespaceIndex {
	key := string(path)
	if idx, ok := r.nsIndex[key]; ok {
		return idx
	}
	idx := NamespaceIndex(len(r.decls.Namespaces))
	r.decls.Namespaces = append(r.decls.Namespaces, Namespace{Path: AbsolutePath(key)})
	r.nsIndex[key] = idx
	return idx
}

func (r *resolver) collectDeclarations() {
	for _, in := range r.inputs {
		ns := r.nsOf(in.File.Namespace)
		for _, d := range in.File.Declarations {
			key := declKey{namespace: string(in.File.Namespace), name: d.Name}
			if _, dup := r.declIndex[key]; dup {
				r.ctx.Errorf(diag.Resolution, diag.Span{File: in.Name, Start: d.Span.Start, End: d.Span.End},
					"duplicate declaration of %q in namespace %q", d.Name, in.File.Namespace)
				continue
			}
			idx := DeclarationIndex(len(r.decls.Decls))
			r.declIndex[key] = idx
			r.declFile = append(r.declFile, in.Name)
			r.decls.Decls = append(r.decls.Decls, r.lowerSkeleton(ns, d))
			if d.Kind == ast.DeclTable {
				ids := map[int]int{}
				for fi, f := range d.Fields {
					if f.Attrs.ID != nil {
						ids[fi] = *f.Attrs.ID
					}
				}
				if len(ids) > 0 {
					r.explicitVtableID[idx] = ids
				}
			}
		}
	}
	// Second pass: finish enum/union internals now that every
	// declaration has an index (enums/unions may reference each other's
	// names in defaults before every index is assigned).
	for i := range r.decls.Decls {
		switch r.decls.Decls[i].Kind {
		case IsEnum:
			r.decls.Decls[i].EnumDecl.index()
		case IsUnion:
			r.decls.Decls[i].UnionDecl.index()
		}
	}
}

// lowerSkeleton builds a Declaration with every field/variant present but
// with unresolved Type values (zero Type{}), to be filled in by
// resolveTypes once every declaration has a stable index.
func (r *resolver) lowerSkeleton(ns NamespaceIndex, d ast.Decl) Declaration {
	out := Declaration{Namespace: ns, Name: d.Name, DocOuter: d.Doc.Outer, DocInner: d.Doc.Inner,
		Span: Span{Start: d.Span.Start, End: d.Span.End}}
	switch d.Kind {
	case ast.DeclTable:
		out.Kind = IsTable
		t := &Table{}
		for _, f := range d.Fields {
			t.Fields = append(t.Fields, TableField{Name: f.Name, Deprecated: f.Attrs.Deprecated, DocOuter: f.Doc.Outer})
		}
		out.Table = t
	case ast.DeclStruct:
		out.Kind = IsStruct
		s := &Struct{}
		for _, f := range d.Fields {
			s.Fields = append(s.Fields, StructField{Name: f.Name, DocOuter: f.Doc.Outer})
		}
		out.StructDecl = s
	case ast.DeclEnum:
		out.Kind = IsEnum
		e := &Enum{BitFlags: d.Attrs.BitFlags}
		if k, ok := ast.ResolveBuiltin(string(d.EnumBase)); ok && k.IsIntegral() {
			e.Underlying = fromASTIntKind(k)
		} else {
			e.Underlying = Int32
		}
		next := int64(0)
		for _, m := range d.Variants {
			v := next
			if m.Value != nil {
				v = m.Value.Int
			}
			e.Variants = append(e.Variants, EnumVariant{Name: m.Name, Value: v})
			next = v + 1
		}
		out.EnumDecl = e
	case ast.DeclUnion:
		out.Kind = IsUnion
		u := &Union{}
		for i, m := range d.Members {
			u.Variants = append(u.Variants, UnionVariant{Name: m.Name, Tag: uint8(i + 1)})
		}
		out.UnionDecl = u
	case ast.DeclRpcService:
		out.Kind = IsRpcService
		out.RpcDecl = &RpcService{}
		for range d.Methods {
			out.RpcDecl.Methods = append(out.RpcDecl.Methods, RpcMethod{})
		}
	}
	return out
}

// resolveTypes fills in every field/variant Type by resolving ast.Type
// values against the original per-file AST, now that declaration indices
// are stable.
func (r *resolver) resolveTypes() {
	for fi, in := range r.inputs {
		for _, d := range in.File.Declarations {
			idx := r.indexOfOriginal(fi, d)
			if idx < 0 {
				continue
			}
			r.resolveOneDeclaration(fi, in.Name, idx, d)
		}
	}
}

// indexOfOriginal re-finds the DeclarationIndex assigned to an
// originally-parsed ast.Decl by namespace+name; used because
// collectDeclarations and resolveTypes both iterate inputs in the same
// deterministic order.
func (r *resolver) indexOfOriginal(fi int, d ast.Decl) DeclarationIndex {
	key := declKey{namespace: string(r.inputs[fi].File.Namespace), name: d.Name}
	idx, ok := r.declIndex[key]
	if !ok {
		return -1
	}
	return idx
}

func (r *resolver) resolveOneDeclaration(fi int, file string, idx DeclarationIndex, d ast.Decl) {
	decl := &r.decls.Decls[idx]
	switch d.Kind {
	case ast.DeclTable:
		for i, f := range d.Fields {
			decl.Table.Fields[i].Type = r.resolveType(fi, file, f.Type, f.Span)
		}
	case ast.DeclStruct:
		for i, f := range d.Fields {
			decl.StructDecl.Fields[i].Type = r.resolveType(fi, file, f.Type, f.Span)
		}
	case ast.DeclUnion:
		for i, m := range d.Members {
			t := r.resolveType(fi, file, m.Type, ast.Span{})
			if t.Kind != KindTable && t.Kind != KindStruct {
				r.ctx.Errorf(diag.Type, diag.Span{File: file}, "union variant %q must reference a table or struct", m.Name)
			}
			decl.UnionDecl.Variants[i].Type = t
		}
	case ast.DeclRpcService:
		for i, m := range d.Methods {
			req, _ := r.lookup(fi, m.Request)
			resp, _ := r.lookup(fi, m.Response)
			decl.RpcDecl.Methods[i] = RpcMethod{Name: m.Name, Request: req, Response: resp}
		}
	}
}

func (r *resolver) resolveType(fi int, file string, t ast.Type, span ast.Span) Type {
	switch t.Kind {
	case ast.TypeBool:
		return Type{Kind: KindBool}
	case ast.TypeString:
		return Type{Kind: KindString}
	case ast.TypeInt8, ast.TypeUint8, ast.TypeInt16, ast.TypeUint16,
		ast.TypeInt32, ast.TypeUint32, ast.TypeInt64, ast.TypeUint64:
		return Type{Kind: KindInteger, Integer: fromASTIntKind(t.Kind)}
	case ast.TypeFloat32:
		return Type{Kind: KindFloat, Float: Float32}
	case ast.TypeFloat64:
		return Type{Kind: KindFloat, Float: Float64}
	case ast.TypeVector:
		elem := r.resolveType(fi, file, *t.Elem, span)
		return Type{Kind: KindVector, Elem: &elem}
	case ast.TypeArray:
		elem := r.resolveType(fi, file, *t.Elem, span)
		return Type{Kind: KindArray, Elem: &elem, ArrayN: t.Size}
	case ast.TypeNamed:
		idx, ok := r.lookup(fi, t.Name)
		if !ok {
			r.ctx.Errorf(diag.Resolution, diag.Span{File: file, Start: span.Start, End: span.End},
				"undefined type %q", t.Name)
			return Type{Kind: KindTable, Decl: -1}
		}
		switch r.decls.Decls[idx].Kind {
		case IsTable:
			return Type{Kind: KindTable, Decl: idx}
		case IsStruct:
			return Type{Kind: KindStruct, Decl: idx}
		case IsEnum:
			return Type{Kind: KindEnum, Decl: idx}
		case IsUnion:
			return Type{Kind: KindUnion, Decl: idx}
		default:
			return Type{Kind: KindTable, Decl: idx}
		}
	default:
		return Type{Kind: KindInteger, Integer: Int32}
	}
}

// lookup resolves a type reference by walking from the current namespace
// outward to the root namespace, then through the file's includes.
func (r *resolver) lookup(fi int, path ast.Path) (DeclarationIndex, bool) {
	name := string(path)
	cur := string(r.inputs[fi].File.Namespace)

	// Search from the current namespace outward to the root namespace.
	for {
		if idx, ok := r.declIndex[declKey{namespace: cur, name: name}]; ok {
			return idx, true
		}
		if cur == "" {
			break
		}
		if dot := strings.LastIndexByte(cur, '.'); dot >= 0 {
			cur = cur[:dot]
		} else {
			cur = ""
		}
	}

	// If the reference is itself namespace-qualified, try it verbatim
	// (absolute path).
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		ns, short := name[:dot], name[dot+1:]
		if idx, ok := r.declIndex[declKey{namespace: ns, name: short}]; ok {
			return idx, true
		}
	}

	// Finally, search every file reachable through this file's includes,
	// in their own namespace.
	for other := range r.fileOf {
		oi := r.fileOf[other]
		if !r.reachable[fi][oi] {
			continue
		}
		ons := string(r.inputs[oi].File.Namespace)
		if idx, ok := r.declIndex[declKey{namespace: ons, name: name}]; ok {
			return idx, true
		}
	}
	return 0, false
}

func (r *resolver) resolveRootType() {
	for fi, in := range r.inputs {
		if in.File.RootType == "" {
			continue
		}
		idx, ok := r.lookup(fi, ast.Path(in.File.RootType))
		if !ok || r.decls.Decls[idx].Kind != IsTable {
			r.ctx.Errorf(diag.Resolution, diag.Span{File: in.Name}, "root_type %q does not name a table", in.File.RootType)
			continue
		}
		r.decls.RootType = idx
		r.decls.HasRoot = true
	}
}

// detectStructCycles walks the struct-containment graph (structs may only
// contain other structs, scalars, and enums inline) and rejects any cycle,
// since an inline struct cannot legally embed itself at any finite size.
func (r *resolver) detectStructCycles() {
	edges := func(i DeclarationIndex) iter.Seq[DeclarationIndex] {
		return func(yield func(DeclarationIndex) bool) {
			d := &r.decls.Decls[i]
			if d.Kind != IsStruct {
				return
			}
			for _, f := range d.StructDecl.Fields {
				if f.Type.Kind == KindStruct {
					if !yield(f.Type.Decl) {
						return
					}
				}
				if f.Type.Kind == KindArray && f.Type.Elem.Kind == KindStruct {
					if !yield(f.Type.Elem.Decl) {
						return
					}
				}
			}
		}
	}

	for i := range r.decls.Decls {
		if r.decls.Decls[i].Kind != IsStruct {
			continue
		}
		dag := graph.Sort(DeclarationIndex(i), edges)
		comp := dag.ComponentOf(DeclarationIndex(i))
		if comp != nil && !comp.Trivial(edges) {
			r.ctx.Errorf(diag.Layout, diag.Span{}, "struct %q has a cyclic containment relationship", r.decls.Decls[i].Name)
		}
	}
}

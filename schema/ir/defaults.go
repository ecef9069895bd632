package ir

import (
	"github.com/shardbuf/shardbuf/diag"
	"github.com/shardbuf/shardbuf/schema/ast"
)

// propagateDefaults fills in every TableField.Assign: a field is Required
// if marked `(required)`, HasDefault if it carries an explicit or
// implicit (zero-value / NONE) default, and Optional otherwise
// (pointer-kind and struct fields with no default, which are absent when
// unwritten).
func (r *resolver) propagateDefaults() {
	for fi, in := range r.inputs {
		for _, d := range in.File.Declarations {
			if d.Kind != ast.DeclTable {
				continue
			}
			idx := r.indexOfOriginal(fi, d)
			if idx < 0 {
				continue
			}
			t := r.decls.Decls[idx].Table
			for fieldIdx, astField := range d.Fields {
				r.resolveFieldDefault(in.Name, idx, t, fieldIdx, astField)
			}
		}
	}
}

func (r *resolver) resolveFieldDefault(file string, declIdx DeclarationIndex, t *Table, fieldIdx int, astField ast.Field) {
	f := &t.Fields[fieldIdx]

	if astField.Attrs.Required {
		if f.Type.IsPointer() {
			f.Assign = AssignMode{Kind: Required}
		} else {
			r.ctx.Errorf(diag.Type, diag.Span{File: file}, "(required) has no effect on scalar field %q", f.Name)
		}
		return
	}

	if astField.Default == nil {
		switch f.Type.Kind {
		case KindBool, KindInteger, KindFloat:
			f.Assign = AssignMode{Kind: HasDefault, Default: zeroLiteral(f.Type)}
		case KindEnum:
			e := r.decls.Enum(f.Type.Decl)
			lit := ResolvedLiteral{}
			if len(e.Variants) > 0 {
				if vi, ok := e.IndexOfValue(0); ok {
					lit.Variant = vi
				} else {
					lit.Variant = 0
				}
			}
			f.Assign = AssignMode{Kind: HasDefault, Default: lit}
		case KindUnion:
			f.Assign = AssignMode{Kind: HasDefault, Default: ResolvedLiteral{Variant: 0}} // tag 0 == NONE
		default:
			f.Assign = AssignMode{Kind: Optional}
		}
		return
	}

	lit := astField.Default
	switch {
	case f.Type.Kind == KindBool && lit.Kind == ast.LitBool:
		f.Assign = AssignMode{Kind: HasDefault, Default: ResolvedLiteral{Bool: lit.Int != 0}}
	case f.Type.Kind == KindInteger && lit.Kind == ast.LitInt:
		bits := uint(8 * f.Type.Integer.Size())
		var fits bool
		switch {
		case lit.Uint != 0: // above math.MaxInt64, held only in Uint
			fits = f.Type.Integer == Uint64
		case f.Type.Integer.Signed():
			fits = bits == 64 || (lit.Int >= -(1<<(bits-1)) && lit.Int < 1<<(bits-1))
		default:
			fits = lit.Int >= 0 && (bits == 64 || lit.Int < 1<<bits)
		}
		if !fits {
			r.ctx.Errorf(diag.Type, diag.Span{File: file}, "default value overflows the declared type of field %q", f.Name)
			f.Assign = AssignMode{Kind: Optional}
			return
		}
		f.Assign = AssignMode{Kind: HasDefault, Default: ResolvedLiteral{Int: lit.Int, Uint: lit.Uint}}
	case f.Type.Kind == KindFloat && (lit.Kind == ast.LitFloat || lit.Kind == ast.LitInt):
		v := lit.Flt
		if lit.Kind == ast.LitInt {
			v = float64(lit.Int)
		}
		f.Assign = AssignMode{Kind: HasDefault, Default: ResolvedLiteral{Float: v}}
	case f.Type.Kind == KindEnum && (lit.Kind == ast.LitIdent || lit.Kind == ast.LitInt):
		e := r.decls.Enum(f.Type.Decl)
		var vi int
		var ok bool
		if lit.Kind == ast.LitIdent {
			vi, ok = e.IndexOfName(lit.Str)
		} else {
			vi, ok = e.IndexOfValue(lit.Int)
		}
		if !ok {
			r.ctx.Errorf(diag.Type, diag.Span{File: file}, "default value does not name a variant of enum for field %q", f.Name)
			f.Assign = AssignMode{Kind: Optional}
			return
		}
		f.Assign = AssignMode{Kind: HasDefault, Default: ResolvedLiteral{Variant: vi}}
	default:
		r.ctx.Errorf(diag.Type, diag.Span{File: file}, "default value is not compatible with the declared type of field %q", f.Name)
		f.Assign = AssignMode{Kind: Optional}
	}
}

func zeroLiteral(t Type) ResolvedLiteral {
	switch t.Kind {
	case KindFloat:
		return ResolvedLiteral{Float: 0}
	default:
		return ResolvedLiteral{Int: 0, Uint: 0}
	}
}

// buildAdjacency constructs Children/Parents: the set of every other
// declaration directly reachable from each declaration's fields,
// variants, or methods, enabling later worklist analyses.
func (r *resolver) buildAdjacency() {
	n := len(r.decls.Decls)
	r.decls.Children = make([][]DeclarationIndex, n)
	r.decls.Parents = make([][]DeclarationIndex, n)

	add := func(from, to DeclarationIndex) {
		if to < 0 || int(to) >= n {
			return
		}
		for _, c := range r.decls.Children[from] {
			if c == to {
				return
			}
		}
		r.decls.Children[from] = append(r.decls.Children[from], to)
		r.decls.Parents[to] = append(r.decls.Parents[to], from)
	}

	var walkType func(from DeclarationIndex, t Type)
	walkType = func(from DeclarationIndex, t Type) {
		switch t.Kind {
		case KindTable, KindStruct, KindEnum, KindUnion:
			add(from, t.Decl)
		case KindVector, KindArray:
			walkType(from, *t.Elem)
		}
	}

	for i := range r.decls.Decls {
		idx := DeclarationIndex(i)
		d := &r.decls.Decls[i]
		switch d.Kind {
		case IsTable:
			for _, f := range d.Table.Fields {
				walkType(idx, f.Type)
			}
		case IsStruct:
			for _, f := range d.StructDecl.Fields {
				walkType(idx, f.Type)
			}
		case IsUnion:
			for _, v := range d.UnionDecl.Variants {
				walkType(idx, v.Type)
			}
		case IsRpcService:
			for _, m := range d.RpcDecl.Methods {
				add(idx, m.Request)
				add(idx, m.Response)
			}
		}
	}
}

package ir

import (
	"sort"

	"github.com/shardbuf/shardbuf/diag"
)

// layoutStructs computes each struct's field offsets, trailing padding,
// and overall size/alignment. A struct's alignment is the largest
// alignment among its fields; a force_align attribute is not applied
// here (the IR does not carry it).
//
// Children may depend on other structs being laid out first, so structs
// are processed in dependency order: a struct's Size/Alignment must be
// known before any struct that embeds it can be sized.
func (r *resolver) layoutStructs() {
	order := r.structTopoOrder()
	for _, i := range order {
		d := &r.decls.Decls[i]
		if d.Kind != IsStruct {
			continue
		}
		s := d.StructDecl
		if len(s.Fields) == 0 {
			r.ctx.Errorf(diag.Layout, diag.Span{}, "struct %q must declare at least one field", d.Name)
			continue
		}
		offset := 0
		maxAlign := 1
		for fi := range s.Fields {
			f := &s.Fields[fi]
			align := f.Type.Alignment(r.decls)
			size := f.Type.InlineSize(r.decls)
			if f.Type.Kind == KindStruct || f.Type.Kind == KindString || f.Type.Kind == KindTable ||
				f.Type.Kind == KindUnion || f.Type.Kind == KindVector {
				if f.Type.Kind != KindStruct {
					r.ctx.Errorf(diag.Layout, diag.Span{}, "struct field %q.%q must be a scalar, enum, or struct",
						d.Name, f.Name)
				}
			}
			if aligned := alignUp(offset, align); aligned != offset {
				if fi > 0 {
					s.Fields[fi-1].Padding += aligned - offset
				}
				offset = aligned
			}
			f.Offset = offset
			f.Size = size
			offset += size
			if align > maxAlign {
				maxAlign = align
			}
		}
		total := alignUp(offset, maxAlign)
		if last := len(s.Fields) - 1; total != offset {
			s.Fields[last].Padding += total - offset
		}
		s.Size = total
		s.Alignment = maxAlign
	}
}

// structTopoOrder returns every struct declaration index ordered so that
// a struct embedded by another always precedes its embedder. Non-struct
// declarations and cyclic structs (already diagnosed) fall back to
// declaration order, which is always safe since a field referencing them
// is a layout error regardless of processing order.
func (r *resolver) structTopoOrder() []DeclarationIndex {
	n := len(r.decls.Decls)
	depth := make([]int, n)
	visiting := make([]bool, n)
	visited := make([]bool, n)

	var visit func(i DeclarationIndex) int
	visit = func(i DeclarationIndex) int {
		if visited[i] {
			return depth[i]
		}
		if visiting[i] {
			return 0 // cycle, already reported elsewhere
		}
		visiting[i] = true
		d := &r.decls.Decls[i]
		max := 0
		if d.Kind == IsStruct {
			for _, f := range d.StructDecl.Fields {
				if f.Type.Kind == KindStruct {
					if dd := visit(f.Type.Decl) + 1; dd > max {
						max = dd
					}
				}
			}
		}
		visiting[i] = false
		visited[i] = true
		depth[i] = max
		return max
	}
	for i := 0; i < n; i++ {
		visit(DeclarationIndex(i))
	}

	order := make([]DeclarationIndex, n)
	for i := range order {
		order[i] = DeclarationIndex(i)
	}
	sort.SliceStable(order, func(a, b int) bool { return depth[order[a]] < depth[order[b]] })
	return order
}

func alignUp(offset, align int) int {
	if align <= 1 {
		return offset
	}
	if r := offset % align; r != 0 {
		return offset + (align - r)
	}
	return offset
}

// assignVtableIndices assigns each table field its vtable slot: explicit
// `id` attributes take that literal index; fields without an explicit id
// are numbered by declaration order, skipping any index already claimed
// by an explicit id. A union-typed field reserves two consecutive indices
// (type tag, then offset): the union field's VtableIndex is the offset
// slot, and its Preceding = UnionTag marks the slot before it as the tag.
func (r *resolver) assignVtableIndices() {
	for di := range r.decls.Decls {
		idx := DeclarationIndex(di)
		d := &r.decls.Decls[di]
		if d.Kind != IsTable {
			continue
		}
		t := d.Table
		explicit := r.explicitVtableID[idx]
		used := map[int]bool{}
		for _, id := range explicit {
			used[id] = true
		}

		next := 0
		nextFree := func() int {
			for used[next] {
				next++
			}
			slot := next
			used[slot] = true
			next++
			return slot
		}

		for fi := range t.Fields {
			f := &t.Fields[fi]
			if id, ok := explicit[fi]; ok {
				if f.Type.Kind == KindUnion {
					f.Preceding = UnionTag
				}
				f.VtableIndex = id
				continue
			}
			if f.Type.Kind == KindUnion {
				nextFree() // reserve the discriminant slot
				f.Preceding = UnionTag
				f.VtableIndex = nextFree()
				continue
			}
			f.VtableIndex = nextFree()
		}

		maxIdx := -1
		for _, f := range t.Fields {
			if f.VtableIndex > maxIdx {
				maxIdx = f.VtableIndex
			}
			if f.Preceding == UnionTag && f.VtableIndex-1 > maxIdx {
				maxIdx = f.VtableIndex - 1
			}
		}
		t.MaxVtableSize = 4 + (maxIdx+1)*2 // vtable_size + table_size header, plus one uint16 per slot
	}
}

// computeAlignmentOrder computes the permutation in which a table writer
// must emit field values: strongest alignment first, declaration order as
// a tiebreak, so the builder's writes happen in descending-alignment
// order to keep padding minimal and deterministic.
func (r *resolver) computeAlignmentOrder() {
	for di := range r.decls.Decls {
		d := &r.decls.Decls[di]
		if d.Kind != IsTable {
			continue
		}
		t := d.Table
		order := make([]int, len(t.Fields))
		for i := range order {
			order[i] = i
		}
		align := make([]int, len(t.Fields))
		size := make([]int, len(t.Fields))
		maxAlign, maxSize := 1, 0
		for i, f := range t.Fields {
			a := f.Type.Alignment(r.decls)
			s := f.Type.InlineSize(r.decls)
			align[i] = a
			size[i] = s
			if a > maxAlign {
				maxAlign = a
			}
			maxSize += s
			t.Fields[i].AlignMask = a - 1
		}
		sort.SliceStable(order, func(a, b int) bool {
			if align[order[a]] != align[order[b]] {
				return align[order[a]] > align[order[b]]
			}
			return order[a] < order[b]
		})
		t.AlignmentOrder = order
		t.MaxAlignment = maxAlign
		t.MaxSize = maxSize
	}
}

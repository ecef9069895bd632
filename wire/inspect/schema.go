package inspect

import (
	"encoding/binary"
	"fmt"

	"github.com/shardbuf/shardbuf/schema/ir"
	"github.com/shardbuf/shardbuf/wire/reader"
)

// FindTable looks up a table declaration by exact name, for resolving a
// `--root-type` argument against a compiled schema set.
func FindTable(decls *ir.Declarations, name string) (ir.DeclarationIndex, bool) {
	for i, d := range decls.Decls {
		if d.Kind == ir.IsTable && d.Name == name {
			return ir.DeclarationIndex(i), true
		}
	}
	return 0, false
}

// TableNames lists every table declaration's name, in declaration order,
// for building a fuzzy "did you mean" suggestion list against an unknown
// root type.
func TableNames(decls *ir.Declarations) []string {
	var names []string
	for _, d := range decls.Decls {
		if d.Kind == ir.IsTable {
			names = append(names, d.Name)
		}
	}
	return names
}

// WalkTable records a table value and everything reachable from it (its
// vtable, scalar/struct/string fields, nested tables, union payloads, and
// vector elements) into m, driven entirely by the resolved schema rather
// than by hand-written per-field calls.
func WalkTable(m *Map, buf []byte, decls *ir.Declarations, declIdx ir.DeclarationIndex, pos int, path FieldPath) error {
	typeName := decls.Decls[declIdx].Name
	view, err := reader.NewTableView(buf, pos, typeName)
	if err != nil {
		return err
	}
	InsertTable(m, view, typeName, path)

	for _, f := range decls.Table(declIdx).Fields {
		if err := walkTableField(m, buf, decls, view, f, path); err != nil {
			return fmt.Errorf("inspect: field %q: %w", f.Name, err)
		}
	}
	return nil
}

func walkTableField(m *Map, buf []byte, decls *ir.Declarations, view reader.TableView, f ir.TableField, path FieldPath) error {
	switch f.Type.Kind {
	case ir.KindBool, ir.KindInteger, ir.KindFloat:
		InsertScalarField(m, view, f.VtableIndex, f.Type.InlineSize(decls), f.Name, path)
		return nil
	case ir.KindEnum:
		return walkEnumField(m, decls, view, f, path)
	case ir.KindStruct:
		insertInlineStruct(m, decls, view, f.VtableIndex, f.Type.Decl, f.Name, path)
		return nil
	case ir.KindString:
		return InsertStringField(m, buf, view, f.VtableIndex, f.Name, path)
	case ir.KindTable:
		abs, ok, err := view.ReadOffset(f.VtableIndex, f.Name)
		if err != nil || !ok {
			return err
		}
		return WalkTable(m, buf, decls, f.Type.Decl, abs, path.child(f.Name))
	case ir.KindUnion:
		return walkUnionField(m, buf, decls, view, f, path)
	case ir.KindVector:
		abs, ok, err := view.ReadOffset(f.VtableIndex, f.Name)
		if err != nil || !ok {
			return err
		}
		return walkVector(m, buf, decls, abs, *f.Type.Elem, path.child(f.Name))
	default:
		return nil
	}
}

// walkEnumField records an enum field's byte range after confirming its
// stored value names a declared variant; an out-of-set value is reported
// as reader.UnknownEnumTag rather than silently recorded under the raw
// integer it happens to hold.
func walkEnumField(m *Map, decls *ir.Declarations, view reader.TableView, f ir.TableField, path FieldPath) error {
	off, ok := view.FieldOffset(f.VtableIndex)
	if !ok {
		return nil
	}
	enum := decls.Enum(f.Type.Decl)
	tag, err := readIntegerAs(view, f.VtableIndex, enum.Underlying, f.Name)
	if err != nil {
		return err
	}
	if _, found := enum.IndexOfValue(tag); !found {
		return &reader.Error{Kind: reader.UnknownEnumTag, TypeName: view.TypeName(), Offset: off, Accessor: f.Name}
	}
	m.Insert(Allocation{
		Start:    off,
		End:      off + f.Type.InlineSize(decls),
		Kind:     KindPrimitive,
		TypeName: fmt.Sprintf("slot[%d]", f.VtableIndex),
		Path:     path.child(f.Name),
	})
	return nil
}

// readIntegerAs reads the field at slot as kind's representation and
// widens it to int64 for comparison against Enum.IndexOfValue.
func readIntegerAs(view reader.TableView, slot int, kind ir.IntegerKind, accessor string) (int64, error) {
	switch kind {
	case ir.Int8:
		v, err := view.ReadInt8(slot, 0, accessor)
		return int64(v), err
	case ir.Uint8:
		v, err := view.ReadUint8(slot, 0, accessor)
		return int64(v), err
	case ir.Int16:
		v, err := view.ReadInt16(slot, 0, accessor)
		return int64(v), err
	case ir.Uint16:
		v, err := view.ReadUint16(slot, 0, accessor)
		return int64(v), err
	case ir.Int32:
		v, err := view.ReadInt32(slot, 0, accessor)
		return int64(v), err
	case ir.Uint32:
		v, err := view.ReadUint32(slot, 0, accessor)
		return int64(v), err
	case ir.Int64:
		return view.ReadInt64(slot, 0, accessor)
	case ir.Uint64:
		v, err := view.ReadUint64(slot, 0, accessor)
		return int64(v), err
	default:
		return 0, fmt.Errorf("inspect: unknown enum underlying kind %v", kind)
	}
}

func insertInlineStruct(m *Map, decls *ir.Declarations, view reader.TableView, slot int, declIdx ir.DeclarationIndex, fieldName string, path FieldPath) {
	off, ok := view.FieldOffset(slot)
	if !ok {
		return
	}
	m.Insert(Allocation{
		Start:    off,
		End:      off + decls.Struct(declIdx).Size,
		Kind:     KindStruct,
		TypeName: decls.Decls[declIdx].Name,
		Path:     path.child(fieldName),
	})
}

// walkUnionField resolves the variant named by the field's discriminant
// (stored at the slot immediately preceding the field's own vtable
// index, per the resolver's slot-assignment convention) and records the
// payload it points to.
func walkUnionField(m *Map, buf []byte, decls *ir.Declarations, view reader.TableView, f ir.TableField, path FieldPath) error {
	tagSlot := f.VtableIndex - 1
	tag, abs, ok, err := view.ReadUnion(tagSlot, f.VtableIndex, f.Name)
	if err != nil || !ok {
		return err
	}
	union := decls.Union(f.Type.Decl)
	for _, variant := range union.Variants {
		if variant.Tag != tag {
			continue
		}
		switch variant.Type.Kind {
		case ir.KindTable:
			return WalkTable(m, buf, decls, variant.Type.Decl, abs, path.child(f.Name))
		case ir.KindStruct:
			m.Insert(Allocation{
				Start:    abs,
				End:      abs + decls.Struct(variant.Type.Decl).Size,
				Kind:     KindStruct,
				TypeName: decls.Decls[variant.Type.Decl].Name,
				Path:     path.child(f.Name),
			})
			return nil
		}
	}
	return &reader.Error{Kind: reader.UnknownUnionTag, TypeName: view.TypeName(), Offset: abs, Accessor: f.Name}
}

func walkVector(m *Map, buf []byte, decls *ir.Declarations, pos int, elem ir.Type, path FieldPath) error {
	if pos < 0 || pos+4 > len(buf) {
		return fmt.Errorf("vector length prefix out of bounds at %d", pos)
	}
	length := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
	stride := elem.InlineSize(decls)
	if length < 0 || pos+4+length*stride > len(buf) {
		return fmt.Errorf("vector length %d out of bounds at %d", length, pos)
	}

	m.Insert(Allocation{
		Start:    pos,
		End:      pos + 4 + length*stride,
		Kind:     KindVector,
		TypeName: "vector",
		Path:     path,
	})

	for i := 0; i < length; i++ {
		elemPos := pos + 4 + i*stride
		elemPath := path.child(fmt.Sprintf("[%d]", i))
		switch elem.Kind {
		case ir.KindBool, ir.KindInteger, ir.KindFloat, ir.KindEnum:
			m.Insert(Allocation{Start: elemPos, End: elemPos + stride, Kind: KindPrimitive, TypeName: "element", Path: elemPath})
		case ir.KindStruct:
			m.Insert(Allocation{Start: elemPos, End: elemPos + stride, Kind: KindStruct, TypeName: decls.Decls[elem.Decl].Name, Path: elemPath})
		case ir.KindString:
			abs, err := vectorElemOffset(buf, elemPos)
			if err != nil {
				return err
			}
			sv, err := reader.NewStringView(buf, abs, "string")
			if err != nil {
				return err
			}
			m.Insert(Allocation{Start: abs, End: abs + 4 + sv.Len() + 1, Kind: KindString, TypeName: "string", Path: elemPath})
		case ir.KindTable:
			abs, err := vectorElemOffset(buf, elemPos)
			if err != nil {
				return err
			}
			if err := WalkTable(m, buf, decls, elem.Decl, abs, elemPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func vectorElemOffset(buf []byte, pos int) (int, error) {
	if pos+4 > len(buf) {
		return 0, fmt.Errorf("vector element offset out of bounds at %d", pos)
	}
	rel := binary.LittleEndian.Uint32(buf[pos : pos+4])
	return pos + int(rel), nil
}

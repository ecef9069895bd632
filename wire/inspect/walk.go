package inspect

import (
	"fmt"

	"github.com/shardbuf/shardbuf/wire/reader"
)

// InsertTable records a table's header and its vtable (shared vtables
// naturally produce an Overlapping node the second time InsertTable is
// called for a structurally identical table) into m, under path.
func InsertTable(m *Map, view reader.TableView, typeName string, path FieldPath) {
	m.Insert(Allocation{
		Start:    view.Pos(),
		End:      view.Pos() + view.ObjectSize(),
		Kind:     KindTable,
		TypeName: typeName,
		Path:     path,
	})
	m.Insert(Allocation{
		Start:    view.VtablePos(),
		End:      view.VtablePos() + view.VtableSize(),
		Kind:     KindVtable,
		TypeName: typeName + ".vtable",
		Path:     path.child("<vtable>"),
	})
}

// InsertScalarField records a fixed-width scalar field occupying width
// bytes at the given vtable slot, if present.
func InsertScalarField(m *Map, view reader.TableView, slot, width int, fieldName string, path FieldPath) {
	off, ok := view.FieldOffset(slot)
	if !ok {
		return
	}
	m.Insert(Allocation{
		Start:    off,
		End:      off + width,
		Kind:     KindPrimitive,
		TypeName: fmt.Sprintf("slot[%d]", slot),
		Path:     path.child(fieldName),
	})
}

// InsertStringField records a string field's length prefix, payload, and
// NUL terminator as one allocation, resolving the field's pointer first.
func InsertStringField(m *Map, buf []byte, view reader.TableView, slot int, fieldName string, path FieldPath) error {
	abs, ok, err := view.ReadOffset(slot, fieldName)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	sv, err := reader.NewStringView(buf, abs, fieldName)
	if err != nil {
		return err
	}
	m.Insert(Allocation{
		Start:    abs,
		End:      abs + 4 + sv.Len() + 1,
		Kind:     KindString,
		TypeName: "string",
		Path:     path.child(fieldName),
	})
	return nil
}

package inspect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardbuf/shardbuf/schema/ir"
	"github.com/shardbuf/shardbuf/wire/builder"
	"github.com/shardbuf/shardbuf/wire/inspect"
	"github.com/shardbuf/shardbuf/wire/reader"
)

func declarations() *ir.Declarations {
	inner := ir.Declaration{
		Kind: ir.IsTable,
		Name: "Inner",
		Table: &ir.Table{
			Fields: []ir.TableField{
				{Name: "x", VtableIndex: 0, Type: ir.Type{Kind: ir.KindInteger, Integer: ir.Int32}},
			},
		},
	}
	outer := ir.Declaration{
		Kind: ir.IsTable,
		Name: "Outer",
		Table: &ir.Table{
			Fields: []ir.TableField{
				{Name: "name", VtableIndex: 0, Type: ir.Type{Kind: ir.KindString}},
				{Name: "inner", VtableIndex: 1, Type: ir.Type{Kind: ir.KindTable, Decl: 0}},
			},
		},
	}
	return &ir.Declarations{Decls: []ir.Declaration{inner, outer}}
}

func TestWalkTableRecordsNestedAllocations(t *testing.T) {
	t.Parallel()

	b := builder.New()
	name := b.CreateString("widget")

	b.StartObject(1)
	b.PrependInt32Slot(0, 42, 0)
	inner := b.EndObject()

	b.StartObject(2)
	b.PrependOffsetSlot(0, name)
	b.PrependOffsetSlot(1, inner)
	outer := b.EndObject()
	b.Finish(outer, "")

	buf := b.FinishedBytes()
	decls := declarations()

	m := inspect.New()
	err := inspect.WalkTable(m, buf, decls, 1, index(buf, outer), inspect.FieldPath{})
	require.NoError(t, err)

	rootView, err := reader.NewTableView(buf, index(buf, outer), "Outer")
	require.NoError(t, err)

	rootAllocs := m.Get(rootView.Pos())
	require.Len(t, rootAllocs, 1)
	assert.Equal(t, "Outer", rootAllocs[0].TypeName)
	assert.Equal(t, "", rootAllocs[0].Path.String())

	nameAbs, ok, err := rootView.ReadOffset(0, "name")
	require.NoError(t, err)
	require.True(t, ok)
	nameAllocs := m.Get(nameAbs)
	require.Len(t, nameAllocs, 1)
	assert.Equal(t, inspect.KindString, nameAllocs[0].Kind)
	assert.Equal(t, "name", nameAllocs[0].Path.String())

	innerAbs, ok, err := rootView.ReadOffset(1, "inner")
	require.NoError(t, err)
	require.True(t, ok)
	innerAllocs := m.Get(innerAbs)
	require.Len(t, innerAllocs, 1)
	assert.Equal(t, "Inner", innerAllocs[0].TypeName)
	assert.Equal(t, "inner", innerAllocs[0].Path.String())

	innerView, err := reader.NewTableView(buf, innerAbs, "Inner")
	require.NoError(t, err)
	xOff, ok := innerView.FieldOffset(0)
	require.True(t, ok)
	xAllocs := m.Get(xOff)
	require.Len(t, xAllocs, 1)
	assert.Equal(t, "inner.x", xAllocs[0].Path.String())
}

func TestFindTableAndTableNames(t *testing.T) {
	t.Parallel()
	decls := declarations()

	idx, ok := inspect.FindTable(decls, "Inner")
	require.True(t, ok)
	assert.Equal(t, ir.DeclarationIndex(0), idx)

	_, ok = inspect.FindTable(decls, "Nope")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"Inner", "Outer"}, inspect.TableNames(decls))
}

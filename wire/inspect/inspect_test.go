package inspect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardbuf/shardbuf/wire/builder"
	"github.com/shardbuf/shardbuf/wire/inspect"
	"github.com/shardbuf/shardbuf/wire/reader"
)

func index(buf []byte, off builder.Offset) int {
	return len(buf) - int(off)
}

func TestSharedVtableYieldsOverlappingNode(t *testing.T) {
	t.Parallel()

	b := builder.New()

	// Two empty tables: no fields means their vtables are byte-identical
	// ([vtableSize=4][objectSize=4]) regardless of buffer position, so
	// they are guaranteed to dedupe to the same vtable.
	b.StartObject(0)
	first := b.EndObject()

	b.StartObject(0)
	second := b.EndObject()

	b.Finish(second, "")

	buf := b.FinishedBytes()

	firstView, err := reader.NewTableView(buf, index(buf, first), "Monster")
	require.NoError(t, err)
	secondView, err := reader.NewTableView(buf, index(buf, second), "Monster")
	require.NoError(t, err)

	require.Equal(t, firstView.VtablePos(), secondView.VtablePos(), "structurally identical tables must dedupe to one vtable")

	m := inspect.New()
	inspect.InsertTable(m, firstView, "Monster", inspect.FieldPath{Segments: []string{"root0"}})
	inspect.InsertTable(m, secondView, "Monster", inspect.FieldPath{Segments: []string{"root1"}})

	assert.True(t, m.Overlapping(firstView.VtablePos()))
	allocs := m.Get(firstView.VtablePos())
	require.Len(t, allocs, 2)

	paths := []string{allocs[0].Path.String(), allocs[1].Path.String()}
	assert.ElementsMatch(t, []string{"root0.<vtable>", "root1.<vtable>"}, paths)
}

func TestDistinctTablesDoNotOverlap(t *testing.T) {
	t.Parallel()

	b := builder.New()
	name := b.CreateString("Orc")
	b.StartObject(2)
	b.PrependOffsetSlot(0, name)
	b.PrependInt16Slot(1, 80, 0)
	mon := b.EndObject()
	b.Finish(mon, "")

	buf := b.FinishedBytes()
	view, err := reader.NewTableView(buf, index(buf, mon), "Monster")
	require.NoError(t, err)

	m := inspect.New()
	inspect.InsertTable(m, view, "Monster", inspect.FieldPath{})
	require.NoError(t, inspect.InsertStringField(m, buf, view, 0, "name", inspect.FieldPath{}))
	inspect.InsertScalarField(m, view, 1, 2, "hp", inspect.FieldPath{})

	assert.False(t, m.Overlapping(view.Pos()))
	tableAllocs := m.Get(view.Pos())
	require.Len(t, tableAllocs, 1)
	assert.Equal(t, inspect.KindTable, tableAllocs[0].Kind)

	nameOff, ok, err := view.ReadOffset(0, "name")
	require.NoError(t, err)
	require.True(t, ok)
	stringAllocs := m.Get(nameOff)
	require.Len(t, stringAllocs, 1)
	assert.Equal(t, "name", stringAllocs[0].Path.String())

	hpOff, ok := view.FieldOffset(1)
	require.True(t, ok)
	hpAllocs := m.Get(hpOff)
	require.Len(t, hpAllocs, 1)
	assert.Equal(t, "hp", hpAllocs[0].Path.String())
}

package reader_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardbuf/shardbuf/wire/builder"
	"github.com/shardbuf/shardbuf/wire/reader"
)

// index converts a builder.Offset (distance from the final buffer's end)
// into an absolute slice index, the coordinate space reader.TableView
// expects.
func index(buf []byte, off builder.Offset) int {
	return len(buf) - int(off)
}

func TestTableViewRoundTripsScalarAndString(t *testing.T) {
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

	hp, err := view.ReadInt16(1, 0, "hp")
	require.NoError(t, err)
	assert.Equal(t, int16(80), hp)

	nameOff, ok, err := view.ReadOffset(0, "name")
	require.NoError(t, err)
	require.True(t, ok)

	sv, err := reader.NewStringView(buf, nameOff, "Monster.name")
	require.NoError(t, err)
	s, err := sv.String("name")
	require.NoError(t, err)
	assert.Equal(t, "Orc", s)
}

func TestTableViewAbsentOptionalFieldReturnsDefault(t *testing.T) {
	t.Parallel()

	b := builder.New()
	b.StartObject(2)
	b.PrependInt16Slot(1, 150, 150) // equals default: not written
	mon := b.EndObject()
	b.Finish(mon, "")

	buf := b.FinishedBytes()
	view, err := reader.NewTableView(buf, index(buf, mon), "Monster")
	require.NoError(t, err)

	mana, err := view.ReadInt16(1, 150, "mana")
	require.NoError(t, err)
	assert.Equal(t, int16(150), mana)

	_, ok, err := view.ReadOffset(0, "name")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTableViewRejectsOddVtableSize(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 16)
	// object at index 8: back-offset 4 -> vtable at index 4.
	binary.LittleEndian.PutUint32(buf[8:12], 4)
	binary.LittleEndian.PutUint16(buf[4:6], 5) // odd vtable size
	_, err := reader.NewTableView(buf, 8, "Bad")
	require.Error(t, err)
	rerr, ok := err.(*reader.Error)
	require.True(t, ok)
	assert.Equal(t, reader.InvalidVtableLength, rerr.Kind)
}

func TestRequireOffsetFailsWhenFieldAbsent(t *testing.T) {
	t.Parallel()

	b := builder.New()
	b.StartObject(1)
	tbl := b.EndObject()
	b.Finish(tbl, "")

	buf := b.FinishedBytes()
	view, err := reader.NewTableView(buf, index(buf, tbl), "Monster")
	require.NoError(t, err)

	_, err = view.RequireOffset(0, "name")
	require.Error(t, err)
	rerr := err.(*reader.Error)
	assert.Equal(t, reader.MissingRequired, rerr.Kind)
}

func TestUnionFieldReadsTagAndOffset(t *testing.T) {
	t.Parallel()

	b := builder.New()
	rock := b.CreateString("rock")

	b.StartObject(2)
	b.PrependUnionSlot(0, 1, 1, rock)
	holder := b.EndObject()
	b.Finish(holder, "")

	buf := b.FinishedBytes()
	view, err := reader.NewTableView(buf, index(buf, holder), "Holder")
	require.NoError(t, err)

	tag, abs, ok, err := view.ReadUnion(0, 1, "weapon")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint8(1), tag)

	sv, err := reader.NewStringView(buf, abs, "rock")
	require.NoError(t, err)
	s, err := sv.String("weapon")
	require.NoError(t, err)
	assert.Equal(t, "rock", s)
}

func TestVectorViewChunksAndWindows(t *testing.T) {
	t.Parallel()

	b := builder.New()
	b.StartVector(4, 5, 4)
	for i := 4; i >= 0; i-- {
		b.PrependInt32(int32(i))
	}
	vec := b.EndVector(5)
	b.Finish(vec, "")

	buf := b.FinishedBytes()
	decode := func(buf []byte, off int) int32 {
		return int32(binary.LittleEndian.Uint32(buf[off : off+4]))
	}
	v, err := reader.NewVectorView(buf, index(buf, vec), 4, decode, "ints")
	require.NoError(t, err)
	require.Equal(t, 5, v.Len())

	for i := 0; i < 5; i++ {
		el, err := v.Get(i)
		require.NoError(t, err)
		assert.Equal(t, int32(i), el)
	}

	chunks := v.Chunks(2)
	require.Len(t, chunks, 3)
	assert.Equal(t, 2, chunks[0].Len())
	assert.Equal(t, 1, chunks[2].Len())

	exact := v.ChunksExact(2)
	require.Len(t, exact, 2)

	windows := v.Windows(3)
	require.Len(t, windows, 3)
}

package builder_test

import (
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardbuf/shardbuf/wire/builder"
	"github.com/shardbuf/shardbuf/wire/reader"
)

// index locates the final slice index of a value identified by an
// Offset (distance from the buffer's end, captured when the value
// finished writing): that distance never changes as more data is
// prepended in front of it, so it converts directly against the final
// buffer's length.
func index(buf []byte, off builder.Offset) uint32 {
	return uint32(len(buf)) - uint32(off)
}

func vtableOf(buf []byte, table builder.Offset) builder.Offset {
	headerIdx := index(buf, table)
	back := int32(binary.LittleEndian.Uint32(buf[headerIdx : headerIdx+4]))
	return builder.Offset(uint32(int64(table) + int64(back)))
}

func TestEmptyTableVtableIsFourBytes(t *testing.T) {
	t.Parallel()

	b := builder.New()
	b.StartObject(3)
	obj := b.EndObject()
	b.Finish(obj, "")

	buf := b.FinishedBytes()
	require.NotEmpty(t, buf)

	vt := vtableOf(buf, obj)
	vtIdx := index(buf, vt)
	vtableSize := binary.LittleEndian.Uint16(buf[vtIdx : vtIdx+2])
	assert.Equal(t, uint16(4), vtableSize)
}

func TestTwoStructurallyIdenticalTablesShareOneVtable(t *testing.T) {
	t.Parallel()

	b := builder.New()

	// Both tables are field-less: their vtables reduce to the fixed
	// 4-byte [vtableSize][objectSize] header with no slot entries, so
	// they are byte-identical no matter where in the buffer each table
	// lands. A table with one or more fields is not a reliable fixture
	// here: the padding needed to align a field depends on the buffer's
	// length at that exact point, which differs between the two tables,
	// so their otherwise-identical vtables can end up with different
	// recorded object sizes and fail to dedupe. That is inherent to
	// back-to-front vtable writing, not a bug: dedup is opportunistic.
	b.StartObject(2)
	t1 := b.EndObject()

	b.StartObject(2)
	t2 := b.EndObject()

	b.Finish(t2, "")
	buf := b.FinishedBytes()

	assert.Equal(t, vtableOf(buf, t1), vtableOf(buf, t2))
}

func TestStringDeduplicationReturnsSameOffset(t *testing.T) {
	t.Parallel()

	b := builder.New()
	a := b.CreateString("hello")
	c := b.CreateString("hello")
	assert.Equal(t, a, c)

	d := b.CreateString("world")
	assert.NotEqual(t, a, d)
}

func TestByteVectorDeduplicationReturnsSameOffset(t *testing.T) {
	t.Parallel()

	b := builder.New()
	a := b.CreateByteVector([]byte{1, 2, 3})
	c := b.CreateByteVector([]byte{1, 2, 3})
	assert.Equal(t, a, c)
}

func TestPrependBoolSlotSkipsDefaultValue(t *testing.T) {
	t.Parallel()

	b := builder.New()
	b.StartObject(1)
	b.PrependBoolSlot(0, false, false)
	obj := b.EndObject()
	b.Finish(obj, "")

	// A field written at its default value leaves the vtable slot 0
	// (absent); EndObject must not panic despite no field ever being
	// recorded, and Finish must succeed.
	assert.NotEmpty(t, b.FinishedBytes())
}

func TestEndObjectWithoutStartObjectPanics(t *testing.T) {
	t.Parallel()

	b := builder.New()
	assert.Panics(t, func() { b.EndObject() })
}

func TestNestedStartObjectPanics(t *testing.T) {
	t.Parallel()

	b := builder.New()
	b.StartObject(1)
	assert.Panics(t, func() { b.StartObject(1) })
}

func TestFieldWriteOutsideObjectPanics(t *testing.T) {
	t.Parallel()

	b := builder.New()
	assert.Panics(t, func() { b.PrependInt32Slot(0, 5, 0) })
}

func TestClearResetsLengthButKeepsCapacity(t *testing.T) {
	t.Parallel()

	b := builder.New()
	b.StartObject(1)
	b.PrependInt32Slot(0, 42, 0)
	obj := b.EndObject()
	b.Finish(obj, "")
	require.NotEmpty(t, b.FinishedBytes())

	b.Clear()
	assert.False(t, b.Finished())

	b.StartObject(1)
	obj2 := b.EndObject()
	b.Finish(obj2, "")
	assert.NotEmpty(t, b.FinishedBytes())
}

func TestFinishedBytesBeforeFinishPanics(t *testing.T) {
	t.Parallel()

	b := builder.New()
	assert.Panics(t, func() { b.FinishedBytes() })
}

func TestVectorRoundTripsLength(t *testing.T) {
	t.Parallel()

	b := builder.New()
	b.StartVector(4, 3, 4)
	b.PrependInt32(30)
	b.PrependInt32(20)
	b.PrependInt32(10)
	vec := b.EndVector(3)
	b.Finish(vec, "")

	buf := b.FinishedBytes()
	require.NotEmpty(t, buf)
}

// TestStructRootRawBytes builds a bare Vec3{x,y,z float32} struct as a
// buffer's root (no enclosing table) and checks the finished bytes
// directly: a 4-byte root offset of 4, followed by x, y, z as
// little-endian IEEE-754 floats in ascending-address declaration order.
// Fields are placed z, y, x (reverse of declaration order) because the
// buffer fills back to front: the last field placed ends up at the
// lowest address.
func TestStructRootRawBytes(t *testing.T) {
	t.Parallel()

	b := builder.New()
	b.Prep(4, 12)
	b.PlaceFloat32(3.0)
	b.PlaceFloat32(2.0)
	b.PlaceFloat32(1.0)
	root := b.Offset()
	b.Finish(root, "")

	buf := b.FinishedBytes()
	require.Len(t, buf, 16)

	assert.Equal(t, []byte{4, 0, 0, 0}, buf[0:4])
	assert.Equal(t, float32(1.0), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])))
	assert.Equal(t, float32(2.0), math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])))
	assert.Equal(t, float32(3.0), math.Float32frombits(binary.LittleEndian.Uint32(buf[12:16])))
}

// TestRandomBlocksLandAtAlignedOffsets writes 50 randomly sized blocks at
// random power-of-two alignments and checks, in the finished buffer, that
// every block's absolute starting index is a multiple of its own
// alignment. This is the scenario that catches Finish writing the root
// offset at a fixed 4-byte alignment regardless of the largest alignment
// any block actually required: an 8-aligned block among the 50 would then
// land at a non-multiple-of-8 offset.
func TestRandomBlocksLandAtAlignedOffsets(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	aligns := []int{1, 2, 4, 8}

	b := builder.New()
	type block struct {
		off   builder.Offset
		align int
	}
	var blocks []block

	for i := 0; i < 50; i++ {
		align := aligns[rng.Intn(len(aligns))]
		size := 1 + rng.Intn(32)
		b.Prep(align, size)
		for j := 0; j < size; j++ {
			b.PlaceUint8(uint8(rng.Intn(256)))
		}
		blocks = append(blocks, block{off: b.Offset(), align: align})
	}

	b.Finish(b.Offset(), "")
	buf := b.FinishedBytes()

	for i, blk := range blocks {
		start := len(buf) - int(blk.off)
		assert.Zerof(t, start%blk.align, "block %d: start %d not aligned to %d", i, start, blk.align)
	}
}

// TestDedupOutputIsNoLongerThanDisabled builds two structurally identical,
// field-less tables twice: once with vtable deduplication on, once with
// DisableDedup. The deduplicated build must not be longer, and for this
// field-less fixture (see TestTwoStructurallyIdenticalTablesShareOneVtable
// for why a field-less shape is required) it is strictly shorter, since
// the second table's vtable is reused rather than rewritten.
func TestDedupOutputIsNoLongerThanDisabled(t *testing.T) {
	t.Parallel()

	cached := builder.New()
	cached.StartObject(2)
	t1 := cached.EndObject()
	cached.StartObject(2)
	t2 := cached.EndObject()
	cached.Finish(t2, "")
	cachedBuf := cached.FinishedBytes()

	uncached := builder.New()
	uncached.DisableDedup()
	uncached.StartObject(2)
	u1 := uncached.EndObject()
	uncached.StartObject(2)
	u2 := uncached.EndObject()
	uncached.Finish(u2, "")
	uncachedBuf := uncached.FinishedBytes()

	assert.Equal(t, vtableOf(cachedBuf, t1), vtableOf(cachedBuf, t2))
	assert.NotEqual(t, vtableOf(uncachedBuf, u1), vtableOf(uncachedBuf, u2))
	assert.Less(t, len(cachedBuf), len(uncachedBuf))
}

// TestBuilderReaderRoundTrip writes a table with a scalar, a bool, a
// string, and a vector field, finishes it, and reads every field back
// through wire/reader, checking the round-tripped values match what was
// written.
func TestBuilderReaderRoundTrip(t *testing.T) {
	t.Parallel()

	b := builder.New()

	name := b.CreateString("hello")

	b.StartVector(4, 3, 4)
	b.PrependInt32(30)
	b.PrependInt32(20)
	b.PrependInt32(10)
	nums := b.EndVector(3)

	b.StartObject(4)
	b.PrependInt32Slot(0, 42, 0)
	b.PrependBoolSlot(1, true, false)
	b.PrependOffsetSlot(2, name)
	b.PrependOffsetSlot(3, nums)
	obj := b.EndObject()
	b.Finish(obj, "")

	buf := b.FinishedBytes()

	rootPos, err := reader.RootPos(buf)
	require.NoError(t, err)

	view, err := reader.NewTableView(buf, rootPos, "RoundTrip")
	require.NoError(t, err)

	x, err := view.ReadInt32(0, 0, "x")
	require.NoError(t, err)
	assert.Equal(t, int32(42), x)

	y, err := view.ReadBool(1, false, "y")
	require.NoError(t, err)
	assert.True(t, y)

	strAbs, ok, err := view.ReadOffset(2, "name")
	require.NoError(t, err)
	require.True(t, ok)
	sv, err := reader.NewStringView(buf, strAbs, "name")
	require.NoError(t, err)
	s, err := sv.String("name")
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	vecAbs, ok, err := view.ReadOffset(3, "nums")
	require.NoError(t, err)
	require.True(t, ok)
	vv, err := reader.NewVectorView(buf, vecAbs, 4, func(raw []byte, i int) int32 {
		return int32(binary.LittleEndian.Uint32(raw[i : i+4]))
	}, "nums")
	require.NoError(t, err)
	require.Equal(t, 3, vv.Len())

	for i, want := range []int32{10, 20, 30} {
		got, err := vv.Get(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

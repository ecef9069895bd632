// Package growbuf provides a back-to-front growable byte buffer.
//
// A [Buffer] is conceptually the tail of an unbounded byte stream: callers
// prepend bytes by calling [Buffer.Reserve], which returns a slice that
// callers fill in highest-address-first. Growth happens by allocating a new,
// larger backing array and copying the live suffix into its tail, so that
// every previously-returned absolute offset (measured from the logical end
// of the stream) stays valid.
//
// This is the allocation strategy a single-pass, relocation-free FlatBuffers
// builder needs: values referenced by forward offsets must never move
// relative to each other, only the unused prefix grows.
package growbuf

// minCapacity is the smallest backing array ever allocated.
const minCapacity = 64

// Buffer is a growable buffer filled from the back.
//
// The zero value is ready to use.
type Buffer struct {
	data []byte
	// cursor is the index into data at which the live suffix starts.
	// data[cursor:] is the content written so far, oldest-last.
	cursor int
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int {
	return len(b.data) - b.cursor
}

// Cap returns the capacity of the current backing array.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Bytes returns the live suffix of the buffer in address order: the first
// byte returned is from the most recent write, the last from the oldest. The returned slice is
// aliased to the buffer and is invalidated by the next call to [Buffer.Reserve].
func (b *Buffer) Bytes() []byte {
	return b.data[b.cursor:]
}

// Reset clears the buffer's contents but keeps the allocated capacity;
// wire/builder's Builder.Clear calls it to reuse the backing array.
func (b *Buffer) Reset() {
	b.cursor = len(b.data)
}

// Reserve grows the buffer by n bytes at the front (i.e. logically
// before everything written so far) and returns a slice of exactly n bytes
// for the caller to fill in. The returned slice aliases the buffer and is
// invalidated by the next call to Reserve.
func (b *Buffer) Reserve(n int) []byte {
	if n == 0 {
		return nil
	}
	if b.cursor < n {
		b.grow(n)
	}
	b.cursor -= n
	return b.data[b.cursor : b.cursor+n]
}

// grow replaces the backing array with one that has at least n bytes of
// free space before the live suffix, copying the live suffix to the new
// array's tail.
func (b *Buffer) grow(n int) {
	live := b.Len()
	want := live + n

	newCap := max(minCapacity, len(b.data)*2)
	for newCap < want {
		newCap *= 2
	}

	newData := make([]byte, newCap)
	newCursor := newCap - live
	copy(newData[newCursor:], b.data[b.cursor:])

	b.data = newData
	b.cursor = newCursor
}

// Offset returns the distance, in bytes, from the current write head (the
// position the next [Buffer.Reserve] call would start writing before) to the
// end of the live suffix, which equals [Buffer.Len]. This is the "current absolute position" a
// builder uses to compute forward offsets: a value written at logical
// position p, when the buffer's current length is L, sits p bytes from the
// end, i.e. at slice index L-p relative to [Buffer.Bytes].
func (b *Buffer) Offset() int {
	return b.Len()
}

package reader

import "encoding/binary"

// VectorView is a zero-copy, random-access view over a length-prefixed
// vector of fixed-stride elements. decode converts one element's raw
// byte offset into a T; it is applied lazily, once per accessed element,
// never eagerly over the whole vector.
type VectorView[T any] struct {
	buf      []byte
	pos      int // absolute offset of the u32 length prefix
	length   int
	stride   int
	decode   func(buf []byte, elemOffset int) T
	typeName string
}

// NewVectorView reads the length prefix at offset and validates the
// vector's elements fit within buf, given each element's byte stride.
func NewVectorView[T any](buf []byte, offset, stride int, decode func([]byte, int) T, typeName string) (VectorView[T], error) {
	if offset < 0 || offset+4 > len(buf) {
		return VectorView[T]{}, fail(InvalidOffset, typeName, offset, "from_buffer")
	}
	length := int(binary.LittleEndian.Uint32(buf[offset : offset+4]))
	if length < 0 || offset+4+length*stride > len(buf) {
		return VectorView[T]{}, fail(InvalidLength, typeName, offset, "from_buffer")
	}
	return VectorView[T]{buf: buf, pos: offset, length: length, stride: stride, decode: decode, typeName: typeName}, nil
}

// Len returns the number of elements.
func (v VectorView[T]) Len() int { return v.length }

func (v VectorView[T]) elemOffset(i int) int { return v.pos + 4 + i*v.stride }

// Get returns the i'th element. Bounds are checked once per call.
func (v VectorView[T]) Get(i int) (T, error) {
	var zero T
	if i < 0 || i >= v.length {
		return zero, fail(InvalidLength, v.typeName, v.pos, "get")
	}
	return v.decode(v.buf, v.elemOffset(i)), nil
}

// Slice returns a sub-range [start, end) as a new VectorView sharing the
// same backing buffer.
func (v VectorView[T]) Slice(start, end int) (VectorView[T], error) {
	if start < 0 || end > v.length || start > end {
		return VectorView[T]{}, fail(InvalidLength, v.typeName, v.pos, "slice")
	}
	return VectorView[T]{
		buf:      v.buf,
		pos:      v.pos + start*v.stride,
		length:   end - start,
		stride:   v.stride,
		decode:   v.decode,
		typeName: v.typeName,
	}, nil
}

// Chunks splits the vector into consecutive, non-overlapping views of
// size n, with a final shorter chunk if length is not a multiple of n.
func (v VectorView[T]) Chunks(n int) []VectorView[T] {
	return chunk(v, n, false, false)
}

// RChunks is Chunks starting from the end: the first chunk yielded holds
// the last n elements, and a shorter chunk at the front of the vector, if
// any, is yielded last.
func (v VectorView[T]) RChunks(n int) []VectorView[T] {
	return chunk(v, n, true, false)
}

// ChunksExact is Chunks but drops a trailing short chunk instead of
// including it.
func (v VectorView[T]) ChunksExact(n int) []VectorView[T] {
	return chunk(v, n, false, true)
}

// RChunksExact is RChunks but drops a leading short chunk instead of
// including it.
func (v VectorView[T]) RChunksExact(n int) []VectorView[T] {
	return chunk(v, n, true, true)
}

func chunk[T any](v VectorView[T], n int, fromEnd, exact bool) []VectorView[T] {
	if n <= 0 {
		panic("wire/reader: chunk size must be positive")
	}
	var out []VectorView[T]
	if !fromEnd {
		for start := 0; start < v.length; start += n {
			end := min(start+n, v.length)
			if exact && end-start != n {
				break
			}
			s, _ := v.Slice(start, end)
			out = append(out, s)
		}
		return out
	}
	for end := v.length; end > 0; end -= n {
		start := max(end-n, 0)
		if exact && end-start != n {
			break
		}
		s, _ := v.Slice(start, end)
		out = append(out, s)
	}
	return out
}

// Windows returns every overlapping contiguous sub-view of length n, in
// order.
func (v VectorView[T]) Windows(n int) []VectorView[T] {
	if n <= 0 || n > v.length {
		return nil
	}
	out := make([]VectorView[T], 0, v.length-n+1)
	for start := 0; start+n <= v.length; start++ {
		s, _ := v.Slice(start, start+n)
		out = append(out, s)
	}
	return out
}

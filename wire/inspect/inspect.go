// Package inspect builds an allocation map over a finished buffer: every
// byte range gets a semantic label (table, vtable, struct, primitive).
// A range claimed more than once with identical bounds (most commonly a
// vtable shared by deduplication) is kept as a single node holding every
// interpretation; a range nested in or partially overlapping an earlier
// one replaces it on the shared bytes.
package inspect

import "sort"

// Kind labels what a byte range in a buffer represents.
type Kind int

const (
	KindTable Kind = iota
	KindVtable
	KindStruct
	KindPrimitive
	KindString
	KindVector
)

// FieldPath is the path from a buffer's root object down to one
// allocation, for display and for resolving "what is at this byte"
// queries to a concrete schema location.
type FieldPath struct {
	Segments []string
}

func (p FieldPath) String() string {
	s := ""
	for i, seg := range p.Segments {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}

func (p FieldPath) child(name string) FieldPath {
	segs := make([]string, len(p.Segments)+1)
	copy(segs, p.Segments)
	segs[len(p.Segments)] = name
	return FieldPath{Segments: segs}
}

// Allocation is one semantic interpretation of a byte range.
type Allocation struct {
	Start, End int
	Kind       Kind
	TypeName   string
	Path       FieldPath
}

// node is one entry in the interval tree: either a single Allocation, or
// an Overlapping node listing every Allocation claiming this exact
// sub-range.
type node struct {
	start, end int
	single     *Allocation
	overlap    []Allocation
}

func (n *node) allocations() []Allocation {
	if n.single != nil {
		return []Allocation{*n.single}
	}
	return n.overlap
}

// Map is the allocation map over one buffer: a sorted, non-overlapping
// sequence of nodes covering every byte range ever Insert-ed. Two
// Allocations with identical bounds share one Overlapping node. An
// Allocation that nests inside or only partly overlaps an existing node
// replaces it on their shared sub-range; the existing node keeps only
// the bytes outside it, so the two are not merged.
type Map struct {
	nodes []*node
}

// New returns an empty allocation map.
func New() *Map { return &Map{} }

// Insert records alloc in the map, splitting any existing node it
// partially or fully overlaps.
func (m *Map) Insert(alloc Allocation) {
	if alloc.Start >= alloc.End {
		return
	}
	idx := sort.Search(len(m.nodes), func(i int) bool { return m.nodes[i].end > alloc.Start })

	var result []*node
	result = append(result, m.nodes[:idx]...)

	cursor := alloc.Start
	i := idx
	for i < len(m.nodes) && m.nodes[i].start < alloc.End {
		n := m.nodes[i]
		if n.start < cursor {
			// n began before alloc does; the portion of n up to cursor
			// keeps n's own label rather than being dropped.
			result = append(result, &node{start: n.start, end: cursor, single: n.single, overlap: n.overlap})
		}
		if cursor < n.start {
			result = append(result, &node{start: cursor, end: n.start, single: ptr(alloc)})
			cursor = n.start
		}
		segEnd := min(n.end, alloc.End)
		if n.start == alloc.Start && n.end == alloc.End {
			// Genuinely the same bytes claimed twice (a deduplicated
			// vtable or string): every interpretation is kept.
			merged := append(append([]Allocation(nil), n.allocations()...), alloc)
			result = append(result, &node{start: cursor, end: segEnd, overlap: merged})
		} else {
			// alloc is nested inside (or otherwise not identical to) n:
			// it replaces n on their shared sub-range rather than
			// merging into an overlap, since containment isn't sharing.
			result = append(result, &node{start: cursor, end: segEnd, single: ptr(alloc)})
		}
		if n.end > segEnd {
			result = append(result, &node{start: segEnd, end: n.end, single: n.single, overlap: n.overlap})
		}
		cursor = segEnd
		i++
	}
	if cursor < alloc.End {
		result = append(result, &node{start: cursor, end: alloc.End, single: ptr(alloc)})
	}
	result = append(result, m.nodes[i:]...)
	m.nodes = normalize(result)
}

func ptr(a Allocation) *Allocation { return &a }

// normalize drops degenerate zero-length nodes and re-sorts by start, a
// cheap pass that keeps Insert's node construction simple at the cost of
// a little post-processing.
func normalize(nodes []*node) []*node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.start < n.end {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// Overlapping reports whether the allocation at offset has more than one
// interpretation (the shared-vtable case).
func (m *Map) Overlapping(offset int) bool {
	n := m.find(offset)
	return n != nil && n.single == nil
}

func (m *Map) find(offset int) *node {
	i := sort.Search(len(m.nodes), func(i int) bool { return m.nodes[i].end > offset })
	if i < len(m.nodes) && m.nodes[i].start <= offset {
		return m.nodes[i]
	}
	return nil
}

// Get returns the Allocations recorded at offset: the one most recently
// inserted over that byte, or, where a range was claimed more than once
// with identical bounds (a deduplicated vtable), every interpretation.
func (m *Map) Get(offset int) []Allocation {
	n := m.find(offset)
	if n == nil {
		return nil
	}
	return n.allocations()
}

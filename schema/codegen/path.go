package codegen

import "strings"

// RelativePath formats the path a field declared in namespace from would
// use to refer to the declaration identified by the absolute path to
// (namespace segments followed by the declaration's own name as the
// final segment), relative to their shared namespace prefix. sep joins
// path segments (e.g. "::" for Rust); up is emitted once per namespace
// level the reference must climb out of before it can descend back down
// toward to (e.g. "super" for Rust).
//
// A reference to a declaration in the same namespace needs no climbing:
// from "a.b" to "a.b.D" is just "D". A reference from "a.b.c" to
// "a.b.x.D" must climb out of "c" first, since "c" and "x" are distinct
// namespaces both nested under "a.b": "super::x::D".
func RelativePath(from, to string, sep, up string) string {
	fromParts := splitPath(from)
	toParts := splitPath(to)

	limit := len(fromParts)
	if len(toParts)-1 < limit {
		limit = len(toParts) - 1
	}
	common := 0
	for common < limit && fromParts[common] == toParts[common] {
		common++
	}

	climbs := len(fromParts) - common
	var segs []string
	for i := 0; i < climbs; i++ {
		segs = append(segs, up)
	}
	segs = append(segs, toParts[common:]...)
	return strings.Join(segs, sep)
}

func splitPath(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, ".")
}

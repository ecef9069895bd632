// Package graph implements Tarjan's strongly-connected-components
// algorithm over an arbitrary directed graph of comparable nodes, exposed
// through an iterator-based edge interface so callers never have to
// materialize an adjacency list up front.
//
// The index computation uses a plain stored field rather than pointer
// arithmetic into a backing array, since nothing here runs on a
// latency-sensitive hot path that would justify the unsafe tradeoff.
//
// The resolver (schema/ir) uses this to detect illegal cycles in struct
// containment (a struct may only embed other structs inline, so any cycle
// there is unrepresentable).
package graph

import (
	"iter"
	"slices"
)

// Edges is a "local" view of a directed graph: given a node, it yields that
// node's outgoing edges (dependencies).
type Edges[Node any] func(Node) iter.Seq[Node]

// DAG is the strongly-connected-component condensation of a graph: every
// node belongs to exactly one [Component], and components are kept in
// topological order (a component's dependencies all have a lower index).
type DAG[Node comparable] struct {
	index      map[Node]int
	components []Component[Node]
}

// Component is a strongly connected component: a maximal set of nodes each
// reachable from every other member.
type Component[Node comparable] struct {
	dag     *DAG[Node]
	at      int
	members []Node
	deps    []int
}

// Sort computes the SCC condensation of the subgraph reachable from root.
func Sort[Node comparable](root Node, edges Edges[Node]) *DAG[Node] {
	dag := &DAG[Node]{index: make(map[Node]int)}
	t := &tarjan[Node]{
		edges:  edges,
		dag:    dag,
		meta:   make(map[Node]*meta),
		depset: make(map[int]struct{}),
	}
	t.visit(root)
	return dag
}

// ComponentOf returns the component containing node, or nil if node was
// never visited (unreachable from the root passed to [Sort]).
func (d *DAG[Node]) ComponentOf(node Node) *Component[Node] {
	i, ok := d.index[node]
	if !ok {
		return nil
	}
	return &d.components[i]
}

// Topological ranges over every component in dependency order: a
// component's Deps always appear earlier in this sequence.
func (d *DAG[Node]) Topological() iter.Seq[*Component[Node]] {
	return func(yield func(*Component[Node]) bool) {
		for i := range d.components {
			if !yield(&d.components[i]) {
				return
			}
		}
	}
}

// Members returns the nodes belonging to this component.
func (c *Component[Node]) Members() []Node { return c.members }

// Trivial reports whether this component has exactly one member and that
// member has no self-loop, meaning it is not part of any cycle. Struct
// containment graphs must consist entirely of trivial components.
func (c *Component[Node]) Trivial(edges Edges[Node]) bool {
	if len(c.members) != 1 {
		return false
	}
	for dep := range edges(c.members[0]) {
		if dep == c.members[0] {
			return false
		}
	}
	return true
}

// Index returns this component's position in topological order.
func (c *Component[Node]) Index() int { return c.at }

// Deps ranges over the components this one directly depends on.
func (c *Component[Node]) Deps() iter.Seq[*Component[Node]] {
	return func(yield func(*Component[Node]) bool) {
		for _, i := range c.deps {
			if !yield(&c.dag.components[i]) {
				return
			}
		}
	}
}

type tarjan[Node comparable] struct {
	edges Edges[Node]
	dag   *DAG[Node]

	counter int
	stack   []Node
	meta    map[Node]*meta
	depset  map[int]struct{}
}

type meta struct {
	index, low int
	onStack    bool
}

func (t *tarjan[Node]) visit(node Node) *meta {
	m := &meta{index: t.counter, low: t.counter, onStack: true}
	t.meta[node] = m
	t.counter++

	offset := len(t.stack)
	t.stack = append(t.stack, node)

	for dep := range t.edges(node) {
		dm := t.meta[dep]
		if dm == nil {
			dm = t.visit(dep)
			m.low = min(m.low, dm.low)
			continue
		}
		if dm.onStack {
			m.low = min(m.low, dm.index)
		}
	}

	if m.index != m.low {
		return m
	}

	members := append([]Node(nil), t.stack[offset:]...)
	t.stack = t.stack[:offset]

	comp := Component[Node]{dag: t.dag, at: len(t.dag.components), members: members}
	for _, n := range members {
		t.meta[n].onStack = false
		t.dag.index[n] = len(t.dag.components)
		for dep := range t.edges(n) {
			if di, ok := t.dag.index[dep]; ok && di < len(t.dag.components) {
				t.depset[di] = struct{}{}
			}
		}
	}
	comp.deps = make([]int, 0, len(t.depset))
	for i := range t.depset {
		comp.deps = append(comp.deps, i)
	}
	slices.Sort(comp.deps)
	clear(t.depset)

	t.dag.components = append(t.dag.components, comp)
	return m
}

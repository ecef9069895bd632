// Package dotgen implements a codegen.Backend rendering the declaration
// dependency graph as a DOT document: one node per declaration, one edge
// per field/variant/method reference, clustered into a subgraph per
// namespace. Rendering goes through emicklei/dot's graph/node/edge
// builder rather than hand-rolled string concatenation, so quoting and
// escaping of identifiers is handled by the library.
package dotgen

import (
	"fmt"

	"github.com/emicklei/dot"

	"github.com/shardbuf/shardbuf/schema/codegen"
	"github.com/shardbuf/shardbuf/schema/ir"
)

// Backend accumulates nodes and edges into a single shared graph across
// every codegen.Backend call and writes nothing to the per-namespace
// Writers; Graph exposes the finished document
// directly, since a dependency graph is inherently whole-program rather
// than per-namespace.
type Backend struct {
	graph    *dot.Graph
	clusters map[ir.NamespaceIndex]*dot.Graph
	nodes    map[ir.DeclarationIndex]dot.Node
}

// New returns a fresh DOT backend with an empty directed graph.
func New() *Backend {
	return &Backend{
		graph:    dot.NewGraph(dot.Directed),
		clusters: make(map[ir.NamespaceIndex]*dot.Graph),
		nodes:    make(map[ir.DeclarationIndex]dot.Node),
	}
}

func (b *Backend) FileExtension() string { return "dot" }

// Graph returns the accumulated document. Call this after running the
// full codegen.Emit pass over every declaration, since edges reference
// nodes that must already have been created by an earlier Table/Struct/
// Enum/Union call.
func (b *Backend) Graph() *dot.Graph { return b.graph }

func (b *Backend) cluster(decls *ir.Declarations, ns ir.NamespaceIndex) *dot.Graph {
	if c, ok := b.clusters[ns]; ok {
		return c
	}
	name := string(decls.Namespaces[ns].Path)
	if name == "" {
		name = "(root)"
	}
	c := b.graph.Subgraph("cluster_"+name, dot.ClusterOption{})
	c.Attr("label", name)
	b.clusters[ns] = c
	return c
}

func (b *Backend) node(decls *ir.Declarations, idx ir.DeclarationIndex) dot.Node {
	if n, ok := b.nodes[idx]; ok {
		return n
	}
	d := decls.Decls[idx]
	n := b.cluster(decls, d.Namespace).Node(fmt.Sprintf("decl_%d", int(idx)))
	n.Label(d.Name)
	n.Attr("shape", shapeFor(d.Kind))
	b.nodes[idx] = n
	return n
}

func shapeFor(k ir.DeclarationKind) string {
	switch k {
	case ir.IsTable:
		return "box"
	case ir.IsStruct:
		return "component"
	case ir.IsEnum:
		return "hexagon"
	case ir.IsUnion:
		return "diamond"
	default:
		return "ellipse"
	}
}

func (b *Backend) edgeToType(decls *ir.Declarations, from ir.DeclarationIndex, t ir.Type, label string) {
	switch t.Kind {
	case ir.KindTable, ir.KindStruct, ir.KindEnum, ir.KindUnion:
		b.graph.Edge(b.node(decls, from), b.node(decls, t.Decl), label)
	case ir.KindVector, ir.KindArray:
		b.edgeToType(decls, from, *t.Elem, label)
	}
}

func (b *Backend) Table(w *codegen.Writer, decls *ir.Declarations, idx ir.DeclarationIndex) error {
	b.node(decls, idx)
	for _, f := range decls.Decls[idx].Table.Fields {
		b.edgeToType(decls, idx, f.Type, f.Name)
	}
	return nil
}

func (b *Backend) Struct(w *codegen.Writer, decls *ir.Declarations, idx ir.DeclarationIndex) error {
	b.node(decls, idx)
	for _, f := range decls.Decls[idx].StructDecl.Fields {
		b.edgeToType(decls, idx, f.Type, f.Name)
	}
	return nil
}

func (b *Backend) Enum(w *codegen.Writer, decls *ir.Declarations, idx ir.DeclarationIndex) error {
	b.node(decls, idx)
	return nil
}

func (b *Backend) Union(w *codegen.Writer, decls *ir.Declarations, idx ir.DeclarationIndex) error {
	b.node(decls, idx)
	for _, v := range decls.Decls[idx].UnionDecl.Variants {
		b.graph.Edge(b.node(decls, idx), b.node(decls, v.Type.Decl), v.Name)
	}
	return nil
}

func (b *Backend) RpcService(w *codegen.Writer, decls *ir.Declarations, idx ir.DeclarationIndex) error {
	b.node(decls, idx)
	for _, m := range decls.Decls[idx].RpcDecl.Methods {
		svc := b.node(decls, idx)
		b.graph.Edge(svc, b.node(decls, m.Request), m.Name+":request")
		b.graph.Edge(svc, b.node(decls, m.Response), m.Name+":response")
	}
	return nil
}

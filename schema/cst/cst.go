// Package cst defines the lossless concrete syntax tree produced by the
// schema parser: every token's metadata is retained, and every node's span
// covers exactly the source bytes it was built from.
//
// Error recovery uses an [Invalid] node kind so later passes (schema/ast,
// schema/ir) can continue past a malformed declaration and report every
// error in one invocation instead of stopping at the first one.
package cst

import "github.com/shardbuf/shardbuf/schema/token"

// Kind identifies what a Node represents.
type Kind int

const (
	Invalid Kind = iota
	File
	Include
	Namespace
	RootType
	FileExtension
	FileIdentifier
	AttributeDecl
	TableDecl
	StructDecl
	EnumDecl
	UnionDecl
	RpcServiceDecl
	NativeIncludeDecl

	Field
	EnumVariant
	UnionVariant
	RpcMethod

	TypeRef
	VectorType
	ArrayType

	AttributeList
	Attribute
)

// Span is a byte range from the start of the node's first token to the
// end of its last token. Comments attached to those tokens (Token.Pre and
// Token.Post) lie outside the span.
type Span struct {
	Start, End int
}

// Node is one CST node. Leaf content lives in Token; structure lives in
// Children. A Node of Kind == Invalid represents a syntax error the parser
// recovered from.
type Node struct {
	Kind     Kind
	Span     Span
	Token    *token.Token // leaf nodes: the token itself; named nodes (declarations, fields, variants, methods): the name token
	Children []*Node
	// Name is a convenience accessor for nodes that have one
	// well-defined identifying name child (e.g. a TableDecl's name).
	Name string
}

// Walk calls visit for n and every descendant, depth-first, pre-order.
func Walk(n *Node, visit func(*Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// Find returns the first descendant (including n itself) with the given
// Kind, or nil.
func Find(n *Node, kind Kind) *Node {
	var found *Node
	Walk(n, func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Kind == kind {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns every descendant (including n itself) with the given
// Kind, in document order.
func FindAll(n *Node, kind Kind) []*Node {
	var out []*Node
	Walk(n, func(c *Node) bool {
		if c.Kind == kind {
			out = append(out, c)
		}
		return true
	})
	return out
}

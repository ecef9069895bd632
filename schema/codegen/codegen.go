// Package codegen implements the backend-independent code generation
// framework: a Backend interface with one method per entity kind, the
// three-scope identifier reservation system backends use to avoid
// collisions with target-language keywords and with each other, a
// relative-namespace-path formatter, and an errgroup-based per-namespace
// emission fan-out.
//
// Nothing in this package knows what Rust or DOT syntax looks like; see
// schema/codegen/rustgen and schema/codegen/dotgen for that.
package codegen

import (
	"bytes"
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/shardbuf/shardbuf/schema/ir"
)

// Backend renders one target language's or one output format's
// representation of resolved IR. Each method receives the full
// Declarations so a backend can look up cross-references (a field's
// referenced type, an enum's underlying kind) without the framework
// having to thread that context through every call.
type Backend interface {
	// Table renders one resolved table declaration.
	Table(w *Writer, decls *ir.Declarations, idx ir.DeclarationIndex) error
	// Struct renders one resolved struct declaration.
	Struct(w *Writer, decls *ir.Declarations, idx ir.DeclarationIndex) error
	// Enum renders one resolved enum declaration.
	Enum(w *Writer, decls *ir.Declarations, idx ir.DeclarationIndex) error
	// Union renders one resolved union declaration.
	Union(w *Writer, decls *ir.Declarations, idx ir.DeclarationIndex) error
	// RpcService renders one resolved rpc_service declaration. Most
	// backends can leave this a no-op or an explicit "not supported"
	// diagnostic, since rpc_service is structurally accepted but not a
	// generation target in this domain.
	RpcService(w *Writer, decls *ir.Declarations, idx ir.DeclarationIndex) error
	// FileExtension names the extension (without a leading dot) this
	// backend's output should be written with, e.g. "rs" or "dot".
	FileExtension() string
}

// Writer accumulates one namespace's rendered output. Backends only ever
// append to it; the framework owns flushing it to its final destination.
type Writer struct {
	buf    bytes.Buffer
	indent int
}

// WriteString appends s verbatim, with no indentation applied.
func (w *Writer) WriteString(s string) { w.buf.WriteString(s) }

// Line appends s prefixed by the current indentation and followed by a
// newline.
func (w *Writer) Line(s string) {
	for i := 0; i < w.indent; i++ {
		w.buf.WriteString("    ")
	}
	w.buf.WriteString(s)
	w.buf.WriteByte('\n')
}

// Indent increases the indentation level used by Line for the duration
// of fn.
func (w *Writer) Indent(fn func()) {
	w.indent++
	fn()
	w.indent--
}

// Bytes returns the accumulated output.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// NamespaceOutput is one namespace's rendered output, keyed by the
// namespace's resolved path so callers can lay files out accordingly.
type NamespaceOutput struct {
	Namespace ir.AbsolutePath
	Index     ir.NamespaceIndex
	Bytes     []byte
}

// Emit walks decls and renders every declaration through backend,
// grouping output by namespace. Independent namespaces are rendered
// concurrently via errgroup, but the result is always returned in
// IR-insertion order: wall-clock parallelism never perturbs byte-for-byte
// output, since each namespace accumulates into its own Writer and the
// writers are concatenated by namespace index only after every goroutine
// has finished.
func Emit(ctx context.Context, decls *ir.Declarations, backend Backend) ([]NamespaceOutput, error) {
	byNamespace := make(map[ir.NamespaceIndex][]ir.DeclarationIndex)
	var order []ir.NamespaceIndex
	seen := make(map[ir.NamespaceIndex]bool)
	for i := range decls.Decls {
		ns := decls.Decls[i].Namespace
		if !seen[ns] {
			seen[ns] = true
			order = append(order, ns)
		}
		byNamespace[ns] = append(byNamespace[ns], ir.DeclarationIndex(i))
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	out := make([]NamespaceOutput, len(order))
	g, gctx := errgroup.WithContext(ctx)
	for pos, ns := range order {
		pos, ns := pos, ns
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			w := &Writer{}
			for _, idx := range byNamespace[ns] {
				if err := renderOne(w, decls, backend, idx); err != nil {
					return err
				}
			}
			out[pos] = NamespaceOutput{
				Namespace: decls.Namespaces[ns].Path,
				Index:     ns,
				Bytes:     w.Bytes(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func renderOne(w *Writer, decls *ir.Declarations, backend Backend, idx ir.DeclarationIndex) error {
	switch decls.Decls[idx].Kind {
	case ir.IsTable:
		return backend.Table(w, decls, idx)
	case ir.IsStruct:
		return backend.Struct(w, decls, idx)
	case ir.IsEnum:
		return backend.Enum(w, decls, idx)
	case ir.IsUnion:
		return backend.Union(w, decls, idx)
	case ir.IsRpcService:
		return backend.RpcService(w, decls, idx)
	default:
		return nil
	}
}

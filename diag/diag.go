// Package diag implements the schema pipeline's diagnostic sink: a
// process-wide (per-compilation) collector of source-span-addressed
// diagnostics, backed by a buffered, mutex-guarded writer.
//
// Compiler errors report purely through Go's error type when there is no
// source text to point a span into; a schema compiler always has source
// text, so diagnostics here carry a Ctx that owns a buffered stderr
// writer behind a lock plus a per-build error-kind accumulator.
package diag

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Kind categorizes a diagnostic. One emitted Kind with Severity
// [SeverityError] poisons code generation (see [Ctx.Poisoned]).
type Kind int

const (
	Lexical Kind = iota
	Parse
	Resolution
	Type
	Layout
	NotSupported
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical"
	case Parse:
		return "parse"
	case Resolution:
		return "resolution"
	case Type:
		return "type"
	case Layout:
		return "layout"
	case NotSupported:
		return "not-supported"
	default:
		return "unknown"
	}
}

// Severity distinguishes errors (which poison codegen) from warnings
// (which are reported but never block generation).
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Span is a byte range into some named source file.
type Span struct {
	File       string
	Start, End int
	Line, Col  int
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Span     Span
	Message  string
}

// Ctx is the diagnostic sink threaded through every phase of the schema
// pipeline. Its zero value is usable only after a call to [New]; the zero
// value of *Ctx itself is not ready to use because it needs a destination
// writer.
type Ctx struct {
	mu   sync.Mutex
	out  *bufio.Writer
	kind uint64 // bitset of Kind, indexed 1<<Kind, SeverityError only
	all  []Diagnostic
}

// New returns a Ctx that writes formatted diagnostics to w as they are
// reported, in addition to accumulating them for later retrieval.
func New(w io.Writer) *Ctx {
	return &Ctx{out: bufio.NewWriter(w)}
}

// Report records a diagnostic and immediately writes its formatted form to
// the underlying writer.
func (c *Ctx) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d.Severity == SeverityError {
		c.kind |= 1 << uint(d.Kind)
	}
	c.all = append(c.all, d)

	fmt.Fprintf(c.out, "%s:%d:%d: %s: %s\n", d.Span.File, d.Line0(), d.Col0(), d.Severity, d.Message)
}

func (d Diagnostic) Line0() int { return d.Span.Line }
func (d Diagnostic) Col0() int  { return d.Span.Col }

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Flush flushes the underlying buffered writer. Callers should defer this
// after [New].
func (c *Ctx) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Flush()
}

// Poisoned reports whether any error-severity diagnostic of any kind has
// been reported. One emitted error poisons the pipeline: code generation
// refuses to run, but downstream phases keep parsing so a single
// invocation can surface multiple errors at once.
func (c *Ctx) Poisoned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kind != 0
}

// Has reports whether an error of the given kind has been reported.
func (c *Ctx) Has(k Kind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kind&(1<<uint(k)) != 0
}

// All returns every diagnostic reported so far, ordered by file, then by
// span start, then by report order, so callers get deterministic output regardless of
// which phase reported which diagnostic first.
func (c *Ctx) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]Diagnostic(nil), c.all...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.File != out[j].Span.File {
			return out[i].Span.File < out[j].Span.File
		}
		return out[i].Span.Start < out[j].Span.Start
	})
	return out
}

// Errorf is a convenience for reporting a SeverityError diagnostic of the
// given kind at the given span.
func (c *Ctx) Errorf(k Kind, span Span, format string, args ...any) {
	c.Report(Diagnostic{Kind: k, Severity: SeverityError, Span: span, Message: fmt.Sprintf(format, args...)})
}

// Warnf is a convenience for reporting a SeverityWarning diagnostic.
func (c *Ctx) Warnf(k Kind, span Span, format string, args ...any) {
	c.Report(Diagnostic{Kind: k, Severity: SeverityWarning, Span: span, Message: fmt.Sprintf(format, args...)})
}

// Package pipeline runs the lex -> parse -> convert -> resolve sequence
// shared by every subcommand that needs a schema's IR: rust, dot, check,
// and view.
package pipeline

import (
	"fmt"
	"io"
	"os"

	"github.com/shardbuf/shardbuf/diag"
	"github.com/shardbuf/shardbuf/schema/ast"
	"github.com/shardbuf/shardbuf/schema/cst"
	"github.com/shardbuf/shardbuf/schema/ir"
	"github.com/shardbuf/shardbuf/schema/lexer"
)

// Result is one compiled schema set: its resolved IR, the diagnostic
// context every phase reported into, and the parsed CST per file.
type Result struct {
	Decls *ir.Declarations
	Ctx   *diag.Ctx
	Files map[string]*cst.Node
}

// Compile runs every file in paths through the full pipeline and resolves
// them together, so cross-file references work the same way a single
// `include`-linked schema set would. ignoreDocstringErrors is forwarded
// to every file's ast.Converter, downgrading its docstring-placement
// diagnostics from errors to warnings.
func Compile(paths []string, ignoreDocstringErrors bool, diagOut io.Writer) (*Result, error) {
	ctx := diag.New(diagOut)
	defer ctx.Flush()

	files := make(map[string]*cst.Node, len(paths))
	inputs := make([]ir.Input, 0, len(paths))

	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("pipeline: reading %s: %w", path, err)
		}

		lx := lexer.New(string(src))
		toks := lx.Tokens()
		for _, lexErr := range lx.Errors() {
			ctx.Errorf(diag.Lexical, diag.Span{File: path}, "%v", lexErr)
		}

		parser := cst.NewParser(path, toks, ctx)
		root := parser.ParseFile()
		files[path] = root

		conv := ast.NewConverter(path, ctx)
		conv.IgnoreDocstringErrors = ignoreDocstringErrors
		file := conv.Convert(root)
		inputs = append(inputs, ir.Input{Name: path, File: file})
	}

	decls := ir.Resolve(inputs, ctx)
	return &Result{Decls: decls, Ctx: ctx, Files: files}, nil
}

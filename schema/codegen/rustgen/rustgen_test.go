package rustgen_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardbuf/shardbuf/diag"
	"github.com/shardbuf/shardbuf/schema/ast"
	"github.com/shardbuf/shardbuf/schema/codegen"
	"github.com/shardbuf/shardbuf/schema/codegen/rustgen"
	"github.com/shardbuf/shardbuf/schema/cst"
	"github.com/shardbuf/shardbuf/schema/ir"
	"github.com/shardbuf/shardbuf/schema/lexer"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func resolve(t *testing.T, src string) *ir.Declarations {
	t.Helper()
	lx := lexer.New(src)
	toks := lx.Tokens()
	require.Empty(t, lx.Errors())

	ctx := diag.New(&discard{})
	p := cst.NewParser("m.fbs", toks, ctx)
	root := p.ParseFile()
	conv := ast.NewConverter("m.fbs", ctx)
	f := conv.Convert(root)

	decls := ir.Resolve([]ir.Input{{Name: "m.fbs", File: f}}, ctx)
	require.False(t, ctx.Poisoned())
	return decls
}

func TestRustBackendRendersTableAndEnum(t *testing.T) {
	t.Parallel()

	src := `
namespace game;

enum Color : byte { Red = 0, Green = 1 }

table Monster {
  name: string;
  color: Color;
}
`
	decls := resolve(t, src)
	backend := rustgen.New()
	out, err := codegen.Emit(context.Background(), decls, backend)
	require.NoError(t, err)
	require.Len(t, out, 1)

	rendered := string(out[0].Bytes)
	assert.True(t, strings.Contains(rendered, "pub enum Color"))
	assert.True(t, strings.Contains(rendered, "pub struct Monster"))
	assert.True(t, strings.Contains(rendered, "pub fn name"))
	assert.True(t, strings.Contains(rendered, "pub fn color"))
}

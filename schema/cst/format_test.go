package cst_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardbuf/shardbuf/diag"
	"github.com/shardbuf/shardbuf/schema/cst"
	"github.com/shardbuf/shardbuf/schema/lexer"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func parse(t *testing.T, src string) *cst.Node {
	t.Helper()
	lx := lexer.New(src)
	toks := lx.Tokens()
	require.Empty(t, lx.Errors())
	p := cst.NewParser("x.fbs", toks, diag.New(&discard{}))
	return p.ParseFile()
}

func TestFormatTableRoundTripsCanonicalForm(t *testing.T) {
	t.Parallel()

	src := `
table Monster {
  name:string;
  hp:short=100;
}
`
	out := cst.Format(parse(t, src))
	assert.Equal(t, "table Monster {\n  name: string;\n  hp: short = 100;\n}\n", out)
}

func TestFormatIsIdempotent(t *testing.T) {
	t.Parallel()

	src := `
namespace game.sample;

enum Color: byte { Red, Green, Blue = 5 }

root_type Monster;
`
	first := cst.Format(parse(t, src))
	second := cst.Format(parse(t, first))
	assert.Equal(t, first, second)
}

package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardbuf/shardbuf/diag"
	"github.com/shardbuf/shardbuf/schema/ast"
	"github.com/shardbuf/shardbuf/schema/cst"
	"github.com/shardbuf/shardbuf/schema/ir"
	"github.com/shardbuf/shardbuf/schema/lexer"
)

func compile(t *testing.T, file, src string) (*ast.File, *diag.Ctx) {
	t.Helper()
	lx := lexer.New(src)
	toks := lx.Tokens()
	require.Empty(t, lx.Errors())

	ctx := diag.New(&discard{})
	p := cst.NewParser(file, toks, ctx)
	root := p.ParseFile()

	conv := ast.NewConverter(file, ctx)
	return conv.Convert(root), ctx
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func resolveOne(t *testing.T, file, src string) (*ir.Declarations, *diag.Ctx) {
	t.Helper()
	f, ctx := compile(t, file, src)
	decls := ir.Resolve([]ir.Input{{Name: file, File: f}}, ctx)
	return decls, ctx
}

func TestResolveSimpleTable(t *testing.T) {
	t.Parallel()

	src := `
namespace game.sample;

table Monster {
  name: string;
  hp: short = 100;
  mana: short = 150;
}

root_type Monster;
`
	decls, ctx := resolveOne(t, "monster.fbs", src)
	assert.False(t, ctx.Poisoned())
	require.True(t, decls.HasRoot)

	mon := decls.Decls[decls.RootType]
	assert.Equal(t, "Monster", mon.Name)
	require.NotNil(t, mon.Table)
	require.Len(t, mon.Table.Fields, 3)

	hp := mon.Table.Fields[1]
	assert.Equal(t, "hp", hp.Name)
	assert.Equal(t, ir.HasDefault, hp.Assign.Kind)
	assert.Equal(t, int64(100), hp.Assign.Default.Int)
}

func TestResolveStructLayout(t *testing.T) {
	t.Parallel()

	src := `
namespace game.sample;

struct Vec3 {
  x: float;
  y: float;
  z: float;
}

struct Weapon {
  origin: Vec3;
  damage: short;
}
`
	decls, ctx := resolveOne(t, "vec.fbs", src)
	require.False(t, ctx.Poisoned())

	var vec3, weapon *ir.Struct
	for i := range decls.Decls {
		switch decls.Decls[i].Name {
		case "Vec3":
			vec3 = decls.Decls[i].StructDecl
		case "Weapon":
			weapon = decls.Decls[i].StructDecl
		}
	}
	require.NotNil(t, vec3)
	require.NotNil(t, weapon)

	assert.Equal(t, 12, vec3.Size)
	assert.Equal(t, 4, vec3.Alignment)

	require.Len(t, weapon.Fields, 2)
	assert.Equal(t, 0, weapon.Fields[0].Offset)
	assert.Equal(t, 12, weapon.Fields[1].Offset)
	assert.Equal(t, 4, weapon.Alignment)
	// damage (short, 2 bytes) at offset 12 rounds the struct up to a
	// 4-byte-aligned total, leaving 2 bytes of trailing padding.
	assert.Equal(t, 16, weapon.Size)
}

func TestResolveUnionReservesTwoVtableSlots(t *testing.T) {
	t.Parallel()

	src := `
namespace game.sample;

table Rock {}
table Paper {}

union Weapon { Rock, Paper }

table Holder {
  name: string;
  weapon: Weapon;
}
`
	decls, ctx := resolveOne(t, "union.fbs", src)
	require.False(t, ctx.Poisoned())

	var holder *ir.Table
	for i := range decls.Decls {
		if decls.Decls[i].Name == "Holder" {
			holder = decls.Decls[i].Table
		}
	}
	require.NotNil(t, holder)
	require.Len(t, holder.Fields, 2)

	weaponField := holder.Fields[1]
	assert.Equal(t, ir.KindUnion, weaponField.Type.Kind)
	assert.Equal(t, ir.UnionTag, weaponField.Preceding)
	assert.Equal(t, weaponField.VtableIndex-1, 1) // name occupies slot 0, tag occupies slot 1
}

func TestResolveUndefinedTypeReportsError(t *testing.T) {
	t.Parallel()

	src := `
namespace x;
table T { f: DoesNotExist; }
`
	_, ctx := resolveOne(t, "bad.fbs", src)
	assert.True(t, ctx.Poisoned())
	assert.True(t, ctx.Has(diag.Resolution))
}

func TestResolveStructCycleIsRejected(t *testing.T) {
	t.Parallel()

	src := `
namespace x;
struct A { b: B; }
struct B { a: A; }
`
	_, ctx := resolveOne(t, "cycle.fbs", src)
	assert.True(t, ctx.Poisoned())
	assert.True(t, ctx.Has(diag.Layout))
}

func TestResolveEnumDefaultResolvesToZeroVariant(t *testing.T) {
	t.Parallel()

	src := `
namespace x;
enum Color : byte { Red = 0, Green = 1, Blue = 2 }
table T { c: Color; }
`
	decls, ctx := resolveOne(t, "enum.fbs", src)
	require.False(t, ctx.Poisoned())

	var tbl *ir.Table
	for i := range decls.Decls {
		if decls.Decls[i].Name == "T" {
			tbl = decls.Decls[i].Table
		}
	}
	require.NotNil(t, tbl)
	assert.Equal(t, ir.HasDefault, tbl.Fields[0].Assign.Kind)
	assert.Equal(t, 0, tbl.Fields[0].Assign.Default.Variant)
}

func TestAlignmentOrderIsDescendingThenDeclarationOrder(t *testing.T) {
	t.Parallel()

	src := `
namespace x;
table T {
  a: byte;
  b: long;
  c: short;
  d: long;
}
`
	decls, ctx := resolveOne(t, "align.fbs", src)
	require.False(t, ctx.Poisoned())

	var tbl *ir.Table
	for i := range decls.Decls {
		if decls.Decls[i].Name == "T" {
			tbl = decls.Decls[i].Table
		}
	}
	require.NotNil(t, tbl)
	// b and d (8-byte) come first in declaration order, then c (2-byte),
	// then a (1-byte).
	assert.Equal(t, []int{1, 3, 2, 0}, tbl.AlignmentOrder)
}

func TestResolveAcrossIncludes(t *testing.T) {
	t.Parallel()

	baseSrc := `
namespace game.base;
table Stats { hp: int; }
`
	mainSrc := `
include "base.fbs";
namespace game.main;
table Character { stats: game.base.Stats; }
`
	base, baseCtx := compile(t, "base.fbs", baseSrc)
	main, _ := compile(t, "main.fbs", mainSrc)

	ctx := diag.New(&discard{})
	decls := ir.Resolve([]ir.Input{
		{Name: "base.fbs", File: base},
		{Name: "main.fbs", File: main},
	}, ctx)
	assert.False(t, ctx.Poisoned())
	assert.False(t, baseCtx.Poisoned())

	var char *ir.Table
	for i := range decls.Decls {
		if decls.Decls[i].Name == "Character" {
			char = decls.Decls[i].Table
		}
	}
	require.NotNil(t, char)
	assert.Equal(t, ir.KindTable, char.Fields[0].Type.Kind)
}

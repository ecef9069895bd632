package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shardbuf/shardbuf/schema/codegen"
)

func TestScopeReservePadsOnCollision(t *testing.T) {
	t.Parallel()

	s := codegen.NewScope(nil, "_")
	assert.Equal(t, "type", s.Reserve("type"))
	assert.Equal(t, "type_", s.Reserve("type"))
	assert.Equal(t, "type__", s.Reserve("type"))
}

func TestScopeChildSeesParentReservations(t *testing.T) {
	t.Parallel()

	global := codegen.NewScope(nil, "_")
	global.ReserveAll("struct", "enum", "impl")

	ns := global.Child()
	assert.Equal(t, "struct_", ns.Reserve("struct"))
	assert.Equal(t, "Monster", ns.Reserve("Monster"))

	decl := ns.Child()
	// A name already reserved by an ancestor scope (here the global
	// keywords) still collides in a fresh child scope.
	assert.Equal(t, "enum_", decl.Reserve("enum"))
}

func TestRelativePathSameNamespace(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "D", codegen.RelativePath("a.b", "a.b.D", "::", "super"))
}

func TestRelativePathClimbsOutOfDivergentBranch(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "super::x::D", codegen.RelativePath("a.b.c", "a.b.x.D", "::", "super"))
}

func TestRelativePathMultipleClimbs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "super::super::e::D", codegen.RelativePath("a.b.c", "a.e.D", "::", "super"))
}

func TestRelativePathDescendingIntoChild(t *testing.T) {
	t.Parallel()

	// Referring from namespace a down into its nested namespace a.b.c
	// needs no climbing at all, just a longer descent.
	assert.Equal(t, "b::c::D", codegen.RelativePath("a", "a.b.c.D", "::", "super"))
}

package mesh_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2mint/rh/internal/mesh"
)

func TestCompileReverseMap(t *testing.T) {
	m := mesh.Compile([]mesh.Decl{
		{Name: "bmi", Inputs: []string{"weight", "height"}},
		{Name: "category", Inputs: []string{"bmi"}},
		{Name: "summary", Inputs: []string{"bmi", "category"}},
	})

	rev := m.Reverse()

	// Every input of a computed variable lists that variable as a
	// dependent, and nothing else appears.
	assert.Equal(t, []string{"bmi"}, rev["weight"])
	assert.Equal(t, []string{"bmi"}, rev["height"])
	assert.Equal(t, []string{"category", "summary"}, rev["bmi"])
	assert.Equal(t, []string{"summary"}, rev["category"])
	assert.NotContains(t, rev, "summary")
}

func TestDependentsPreserveDeclarationOrder(t *testing.T) {
	m := mesh.Compile([]mesh.Decl{
		{Name: "zeta", Inputs: []string{"x"}},
		{Name: "alpha", Inputs: []string{"x"}},
		{Name: "mid", Inputs: []string{"x"}},
	})

	// Declaration order, not lexical order.
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Dependents("x"))
}

func TestClassification(t *testing.T) {
	m := mesh.Compile([]mesh.Decl{
		{Name: "fahrenheit", Inputs: []string{"celsius"}},
		{Name: "celsius", Inputs: []string{"fahrenheit"}},
		{Name: "kelvin", Inputs: []string{"celsius"}},
		{Name: "note", Inputs: nil},
	})

	t.Run("computed", func(t *testing.T) {
		for _, name := range []string{"fahrenheit", "celsius", "kelvin", "note"} {
			assert.True(t, m.IsComputed(name), name)
		}
		assert.False(t, m.IsComputed("absolute_zero"))
	})

	t.Run("sources", func(t *testing.T) {
		// celsius and fahrenheit compute each other, so neither is a
		// source; note has no inputs and is editable.
		assert.Equal(t, []string{"note"}, m.Sources())
		assert.True(t, m.IsSource("note"))
		assert.False(t, m.IsSource("celsius"))
	})

	t.Run("variables", func(t *testing.T) {
		assert.Equal(t, []string{"celsius", "fahrenheit", "kelvin", "note"}, m.Variables())
	})
}

func TestArgumentOnlyNamesAreSources(t *testing.T) {
	m := mesh.Compile([]mesh.Decl{
		{Name: "area", Inputs: []string{"width", "height"}},
	})

	assert.Equal(t, []string{"height", "width"}, m.Sources())
	assert.Equal(t, []string{"width", "height"}, m.Inputs("area"))
	assert.Nil(t, m.Inputs("width"))
}

func TestCompileCopiesDeclInputs(t *testing.T) {
	inputs := []string{"a", "b"}
	m := mesh.Compile([]mesh.Decl{{Name: "sum", Inputs: inputs}})

	inputs[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, m.Inputs("sum"))
}

func TestForwardAndReverseReturnCopies(t *testing.T) {
	m := mesh.Compile([]mesh.Decl{
		{Name: "double", Inputs: []string{"x"}},
	})

	fwd := m.Forward()
	fwd["double"][0] = "mutated"
	require.Equal(t, []string{"x"}, m.Inputs("double"))

	rev := m.Reverse()
	rev["x"][0] = "mutated"
	require.Equal(t, []string{"double"}, m.Dependents("x"))
}

func TestEmptyMesh(t *testing.T) {
	m := mesh.Compile(nil)

	assert.Empty(t, m.Computed())
	assert.Empty(t, m.Sources())
	assert.Empty(t, m.Variables())
	assert.Nil(t, m.Dependents("anything"))
}

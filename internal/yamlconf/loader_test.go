package yamlconf_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/i2mint/rh/internal/config"
	"github.com/i2mint/rh/internal/yamlconf"
)

func writeDefinition(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullDefinition(t *testing.T) {
	path := writeDefinition(t, `
title: BMI Calculator
description: Body mass index from weight and height.

variables:
  weight:
    initial: 70
    minimum: 1
    description: Weight in kilograms
  height:
    initial: 1.75
  unit:
    initial: kg
    enum: [kg, lb]

computed:
  - name: bmi
    inputs: [weight, height]
    expr: "weight / (height * height)"
  - name: doubled
    inputs: [bmi, bmi_offset]
    builtin: add

presets:
  athlete:
    weight: 85
    height: 1.9
`)

	model, err := yamlconf.NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "BMI Calculator", model.Title)

	t.Run("variables are sorted by name", func(t *testing.T) {
		require.Len(t, model.Variables, 3)
		assert.Equal(t, "height", model.Variables[0].Name)
		assert.Equal(t, "unit", model.Variables[1].Name)
		assert.Equal(t, "weight", model.Variables[2].Name)
	})

	t.Run("variable details", func(t *testing.T) {
		weight, ok := model.Variable("weight")
		require.True(t, ok)
		assert.Equal(t, "Weight in kilograms", weight.Schema.Description)
		require.NotNil(t, weight.Schema.Minimum)
		assert.Equal(t, 1.0, *weight.Schema.Minimum)

		unit, ok := model.Variable("unit")
		require.True(t, ok)
		assert.True(t, cty.StringVal("kg").RawEquals(unit.Initial))
		require.Len(t, unit.Schema.Enum, 2)
	})

	t.Run("computed order is preserved", func(t *testing.T) {
		require.Len(t, model.Computed, 2)
		assert.Equal(t, "bmi", model.Computed[0].Name)
		assert.Equal(t, config.SourceExpr, model.Computed[0].Source.Kind)
		assert.Equal(t, "doubled", model.Computed[1].Name)
		assert.Equal(t, config.SourceBuiltin, model.Computed[1].Source.Kind)
	})

	t.Run("presets", func(t *testing.T) {
		require.Contains(t, model.Presets, "athlete")
		athlete := model.Presets["athlete"]
		assert.Len(t, athlete, 2)
	})
}

func TestLoadFileSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bmi.expr"),
		[]byte("weight / (height * height)\n"), 0o644))
	path := filepath.Join(dir, "mesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
computed:
  - name: bmi
    inputs: [weight, height]
    file: bmi.expr
`), 0o644))

	model, err := yamlconf.NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, model.Computed, 1)
	src := model.Computed[0].Source
	assert.Equal(t, config.SourceFile, src.Kind)
	assert.Equal(t, "weight / (height * height)", src.Text)
}

func TestLoadRejectsAmbiguousSource(t *testing.T) {
	path := writeDefinition(t, `
computed:
  - name: x
    inputs: [a]
    expr: "a + 1"
    builtin: add
`)

	_, err := yamlconf.NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestLoadRejectsNamelessComputed(t *testing.T) {
	path := writeDefinition(t, `
computed:
  - inputs: [a]
    expr: "a + 1"
`)

	_, err := yamlconf.NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no name")
}

func TestLoadBadSyntax(t *testing.T) {
	path := writeDefinition(t, "title: [unclosed")

	_, err := yamlconf.NewLoader().Load(context.Background(), path)
	assert.Error(t, err)
}

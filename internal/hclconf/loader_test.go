package hclconf_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/i2mint/rh/internal/config"
	"github.com/i2mint/rh/internal/hclconf"
)

func writeDefinition(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullDefinition(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kelvin.expr"),
		[]byte("celsius + 273.15\n"), 0o644))

	path := filepath.Join(dir, "mesh.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
title       = "Temperature Converter"
description = "Edit any field; the others follow."

variable "celsius" {
  initial     = 20
  description = "Temperature in Celsius"
  minimum     = -273.15
}

variable "scale" {
  initial = "metric"
  enum    = ["metric", "imperial"]
}

computed "fahrenheit" {
  inputs = ["celsius"]
  expr   = "celsius * 9 / 5 + 32"
}

computed "kelvin" {
  inputs = ["celsius"]
  file   = "kelvin.expr"
}

computed "total" {
  inputs  = ["celsius", "kelvin"]
  builtin = "add"
}

preset "boiling" {
  values = {
    celsius = 100
  }
}
`), 0o644))

	model, err := hclconf.NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Temperature Converter", model.Title)
	assert.Equal(t, "Edit any field; the others follow.", model.Description)

	t.Run("variables", func(t *testing.T) {
		require.Len(t, model.Variables, 2)

		celsius, ok := model.Variable("celsius")
		require.True(t, ok)
		assert.True(t, cty.NumberIntVal(20).RawEquals(celsius.Initial))
		assert.Equal(t, "Temperature in Celsius", celsius.Schema.Description)
		require.NotNil(t, celsius.Schema.Minimum)
		assert.Equal(t, -273.15, *celsius.Schema.Minimum)

		scale, ok := model.Variable("scale")
		require.True(t, ok)
		require.Len(t, scale.Schema.Enum, 2)
		assert.True(t, cty.StringVal("metric").RawEquals(scale.Schema.Enum[0]))
	})

	t.Run("computed", func(t *testing.T) {
		require.Len(t, model.Computed, 3)

		assert.Equal(t, config.SourceExpr, model.Computed[0].Source.Kind)
		assert.Equal(t, "celsius * 9 / 5 + 32", model.Computed[0].Source.Text)

		assert.Equal(t, config.SourceFile, model.Computed[1].Source.Kind)
		assert.Equal(t, "celsius + 273.15", model.Computed[1].Source.Text)

		assert.Equal(t, config.SourceBuiltin, model.Computed[2].Source.Kind)
		assert.Equal(t, "add", model.Computed[2].Source.Builtin)
		assert.Equal(t, []string{"celsius", "kelvin"}, model.Computed[2].Inputs)
	})

	t.Run("presets", func(t *testing.T) {
		require.Contains(t, model.Presets, "boiling")
		assert.True(t, cty.NumberIntVal(100).RawEquals(model.Presets["boiling"]["celsius"]))
	})
}

func TestLoadRejectsAmbiguousSource(t *testing.T) {
	path := writeDefinition(t, "mesh.hcl", `
computed "x" {
  inputs  = ["a"]
  expr    = "a + 1"
  builtin = "add"
}
`)

	_, err := hclconf.NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestLoadSourcelessComputed(t *testing.T) {
	path := writeDefinition(t, "mesh.hcl", `
computed "external" {
  inputs = ["a"]
}
`)

	model, err := hclconf.NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, model.Computed, 1)
	assert.Equal(t, config.SourceNone, model.Computed[0].Source.Kind)
}

func TestLoadMissingExpressionFile(t *testing.T) {
	path := writeDefinition(t, "mesh.hcl", `
computed "x" {
  inputs = ["a"]
  file   = "nonexistent.expr"
}
`)

	_, err := hclconf.NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `computed "x"`)
}

func TestLoadBadSyntax(t *testing.T) {
	path := writeDefinition(t, "mesh.hcl", `variable "x" {`)

	_, err := hclconf.NewLoader().Load(context.Background(), path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := hclconf.NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "absent.hcl"))
	assert.Error(t, err)
}

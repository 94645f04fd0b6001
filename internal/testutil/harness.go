// Package testutil provides a small harness for tests that need a
// compiled mesh, a registry and an engine built from literal
// declarations, without going through a definition file.
package testutil

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/i2mint/rh/internal/config"
	"github.com/i2mint/rh/internal/ctxlog"
	"github.com/i2mint/rh/internal/engine"
	"github.com/i2mint/rh/internal/mesh"
	"github.com/i2mint/rh/internal/registry"
	"github.com/i2mint/rh/internal/value"
)

// Computed declares one computed variable with an inline expression for
// the harness. An empty Expr registers no computation.
type Computed struct {
	Name   string
	Inputs []string
	Expr   string
}

// Harness bundles everything a propagation test needs.
type Harness struct {
	Ctx      context.Context
	Model    *config.Model
	Mesh     *mesh.Mesh
	Registry *registry.Registry
	Engine   *engine.Engine
	Values   value.Set
}

// New compiles the declarations, builds the registry and engine, and
// seeds the value set with typed defaults for every variable.
func New(t *testing.T, computed []Computed, initial map[string]any) *Harness {
	t.Helper()

	model := &config.Model{}
	for _, c := range computed {
		src := config.Source{Kind: config.SourceNone}
		if c.Expr != "" {
			src = config.Source{Kind: config.SourceExpr, Text: c.Expr}
		}
		model.Computed = append(model.Computed, &config.Computed{
			Name:   c.Name,
			Inputs: c.Inputs,
			Source: src,
		})
	}
	for name, raw := range initial {
		v, err := value.FromNative(raw)
		require.NoError(t, err)
		model.Variables = append(model.Variables, &config.Variable{Name: name, Initial: v})
	}

	m := mesh.Compile(model.Decls())
	reg, err := registry.Build(model)
	require.NoError(t, err)

	init := model.InitialValues()
	eng := engine.New(m, reg, init)
	values := value.EnsureDefaults(init, value.InferTypes(m.Variables(), init))

	ctx := ctxlog.WithLogger(context.Background(), ctxlog.New(io.Discard, "text", "error"))

	return &Harness{
		Ctx:      ctx,
		Model:    model,
		Mesh:     m,
		Registry: reg,
		Engine:   eng,
		Values:   values,
	}
}

// Propagate runs one pass and fails the test on unexpected errors.
func (h *Harness) Propagate(t *testing.T, name string, raw any) value.Set {
	t.Helper()
	v, err := value.FromNative(raw)
	require.NoError(t, err)
	next, err := h.Engine.Propagate(h.Ctx, name, v, h.Values)
	require.NoError(t, err)
	return next
}

// Float extracts a float64 from a value set entry.
func Float(t *testing.T, s value.Set, name string) float64 {
	t.Helper()
	v, ok := s[name]
	require.True(t, ok, "value set has no entry %q", name)
	native, err := value.ToNative(v)
	require.NoError(t, err)
	f, ok := native.(float64)
	require.True(t, ok, "entry %q is %T, not a number", name, native)
	return f
}

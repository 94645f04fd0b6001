package config

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/i2mint/rh/internal/mesh"
	"github.com/i2mint/rh/internal/value"
)

// Model is the format-agnostic representation of one mesh application:
// its variables, its computed-variable declarations, and presentation
// metadata. Loaders for concrete formats (HCL, YAML) all produce a Model.
type Model struct {
	Title       string
	Description string
	Variables   []*Variable
	Computed    []*Computed
	Presets     map[string]value.Set
}

// Variable declares an editable or seeded variable: its initial value and
// optional schema overrides for the generated form.
type Variable struct {
	Name    string
	Initial cty.Value // cty.NilVal when no initial value was given
	Schema  Overrides
}

// Overrides carries per-field schema adjustments. Zero values mean "not set".
type Overrides struct {
	Description string
	Minimum     *float64
	Maximum     *float64
	MinLength   *int
	MaxLength   *int
	Pattern     string
	Enum        []cty.Value
	ReadOnly    *bool
}

// SourceKind identifies which computation variant a computed variable uses.
// The variant is selected once at registry-build time, never per call.
type SourceKind int

const (
	// SourceNone means no computation source was declared; the entry must
	// be supplied programmatically or validation flags it as missing.
	SourceNone SourceKind = iota
	// SourceExpr is an inline expression.
	SourceExpr
	// SourceFile is an expression loaded from an external file. Loaders
	// read the file at load time and fill Text; Path is kept for messages.
	SourceFile
	// SourceBuiltin names a function from the built-in library.
	SourceBuiltin
)

// Source describes where a computed variable's computation comes from.
type Source struct {
	Kind    SourceKind
	Text    string
	Path    string
	Builtin string
}

// Computed declares one computed variable: its ordered inputs and its
// computation source. Declaration order is meaningful and preserved.
type Computed struct {
	Name   string
	Inputs []string
	Source Source
}

// Decls projects the computed declarations into the graph compiler's input.
func (m *Model) Decls() []mesh.Decl {
	decls := make([]mesh.Decl, len(m.Computed))
	for i, c := range m.Computed {
		decls[i] = mesh.Decl{Name: c.Name, Inputs: c.Inputs}
	}
	return decls
}

// InitialValues collects the declared initial values into a value set.
// Variables without an initial value are omitted.
func (m *Model) InitialValues() value.Set {
	out := make(value.Set)
	for _, v := range m.Variables {
		if v.Initial != cty.NilVal && !v.Initial.IsNull() {
			out[v.Name] = v.Initial
		}
	}
	return out
}

// Variable returns the variable declaration with the given name, if any.
func (m *Model) Variable(name string) (*Variable, bool) {
	for _, v := range m.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

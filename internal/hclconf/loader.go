// Package hclconf loads a mesh application definition from HCL.
//
// The format is two flat block types plus top-level metadata:
//
//	title = "Temperature Converter"
//
//	variable "celsius" {
//	  initial = 20
//	}
//
//	computed "fahrenheit" {
//	  inputs = ["celsius"]
//	  expr   = "celsius * 9 / 5 + 32"
//	}
//
// A computed block declares its source with exactly one of `expr`,
// `file` or `builtin`.
package hclconf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/i2mint/rh/internal/config"
	"github.com/i2mint/rh/internal/ctxlog"
	"github.com/i2mint/rh/internal/value"
)

type fileModel struct {
	Title       string           `hcl:"title,optional"`
	Description string           `hcl:"description,optional"`
	Variables   []*variableBlock `hcl:"variable,block"`
	Computed    []*computedBlock `hcl:"computed,block"`
	Presets     []*presetBlock   `hcl:"preset,block"`
}

type variableBlock struct {
	Name        string    `hcl:"name,label"`
	Initial     cty.Value `hcl:"initial,optional"`
	Description string    `hcl:"description,optional"`
	Minimum     *float64  `hcl:"minimum,optional"`
	Maximum     *float64  `hcl:"maximum,optional"`
	MinLength   *int      `hcl:"min_length,optional"`
	MaxLength   *int      `hcl:"max_length,optional"`
	Pattern     string    `hcl:"pattern,optional"`
	Enum        cty.Value `hcl:"enum,optional"`
	ReadOnly    *bool     `hcl:"readonly,optional"`
}

type computedBlock struct {
	Name    string   `hcl:"name,label"`
	Inputs  []string `hcl:"inputs,optional"`
	Expr    string   `hcl:"expr,optional"`
	File    string   `hcl:"file,optional"`
	Builtin string   `hcl:"builtin,optional"`
}

type presetBlock struct {
	Name   string    `hcl:"name,label"`
	Values cty.Value `hcl:"values"`
}

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates an HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load implements config.Loader. File-sourced computations are resolved
// relative to the definition file's directory and read eagerly, so the
// rest of the system never touches the filesystem.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading HCL mesh definition.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", path, diags)
	}

	var fm fileModel
	if diags := gohcl.DecodeBody(file.Body, nil, &fm); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", path, diags)
	}

	model := &config.Model{
		Title:       fm.Title,
		Description: fm.Description,
	}

	for _, vb := range fm.Variables {
		v := &config.Variable{
			Name:    vb.Name,
			Initial: vb.Initial,
			Schema: config.Overrides{
				Description: vb.Description,
				Minimum:     vb.Minimum,
				Maximum:     vb.Maximum,
				MinLength:   vb.MinLength,
				MaxLength:   vb.MaxLength,
				Pattern:     vb.Pattern,
				ReadOnly:    vb.ReadOnly,
			},
		}
		if vb.Enum != cty.NilVal && !vb.Enum.IsNull() {
			for it := vb.Enum.ElementIterator(); it.Next(); {
				_, ev := it.Element()
				v.Schema.Enum = append(v.Schema.Enum, ev)
			}
		}
		model.Variables = append(model.Variables, v)
	}

	baseDir := filepath.Dir(path)
	for _, cb := range fm.Computed {
		src, err := resolveSource(cb, baseDir)
		if err != nil {
			return nil, fmt.Errorf("computed %q: %w", cb.Name, err)
		}
		model.Computed = append(model.Computed, &config.Computed{
			Name:   cb.Name,
			Inputs: cb.Inputs,
			Source: src,
		})
	}

	for _, pb := range fm.Presets {
		if model.Presets == nil {
			model.Presets = make(map[string]value.Set)
		}
		set := make(value.Set)
		if pb.Values != cty.NilVal && pb.Values.Type().IsObjectType() {
			for it := pb.Values.ElementIterator(); it.Next(); {
				kv, ev := it.Element()
				set[kv.AsString()] = ev
			}
		}
		model.Presets[pb.Name] = set
	}

	logger.Debug("HCL mesh definition loaded.",
		"variables", len(model.Variables), "computed", len(model.Computed))
	return model, nil
}

// resolveSource picks the computation source variant for a computed block
// and rejects ambiguous declarations.
func resolveSource(cb *computedBlock, baseDir string) (config.Source, error) {
	var declared []string
	if cb.Expr != "" {
		declared = append(declared, "expr")
	}
	if cb.File != "" {
		declared = append(declared, "file")
	}
	if cb.Builtin != "" {
		declared = append(declared, "builtin")
	}
	if len(declared) > 1 {
		return config.Source{}, fmt.Errorf("source attributes %s are mutually exclusive", strings.Join(declared, ", "))
	}

	switch {
	case cb.Expr != "":
		return config.Source{Kind: config.SourceExpr, Text: cb.Expr}, nil
	case cb.File != "":
		p := cb.File
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		text, err := os.ReadFile(p)
		if err != nil {
			return config.Source{}, fmt.Errorf("reading expression file: %w", err)
		}
		return config.Source{Kind: config.SourceFile, Text: strings.TrimSpace(string(text)), Path: p}, nil
	case cb.Builtin != "":
		return config.Source{Kind: config.SourceBuiltin, Builtin: cb.Builtin}, nil
	default:
		return config.Source{Kind: config.SourceNone}, nil
	}
}

// Package yamlconf loads a mesh application definition from YAML.
//
// It is the YAML twin of the hclconf package:
//
//	title: Temperature Converter
//	variables:
//	  celsius:
//	    initial: 20
//	computed:
//	  - name: fahrenheit
//	    inputs: [celsius]
//	    expr: "celsius * 9 / 5 + 32"
//
// Computed declarations are a list so their order is preserved; variable
// names are sorted for a deterministic model.
package yamlconf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/i2mint/rh/internal/config"
	"github.com/i2mint/rh/internal/ctxlog"
	"github.com/i2mint/rh/internal/value"
)

type fileModel struct {
	Title       string                    `yaml:"title"`
	Description string                    `yaml:"description"`
	Variables   map[string]*variableSpec  `yaml:"variables"`
	Computed    []*computedSpec           `yaml:"computed"`
	Presets     map[string]map[string]any `yaml:"presets"`
}

type variableSpec struct {
	Initial     any      `yaml:"initial"`
	Description string   `yaml:"description"`
	Minimum     *float64 `yaml:"minimum"`
	Maximum     *float64 `yaml:"maximum"`
	MinLength   *int     `yaml:"min_length"`
	MaxLength   *int     `yaml:"max_length"`
	Pattern     string   `yaml:"pattern"`
	Enum        []any    `yaml:"enum"`
	ReadOnly    *bool    `yaml:"readonly"`
}

type computedSpec struct {
	Name    string   `yaml:"name"`
	Inputs  []string `yaml:"inputs"`
	Expr    string   `yaml:"expr"`
	File    string   `yaml:"file"`
	Builtin string   `yaml:"builtin"`
}

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a YAML loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading YAML mesh definition.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var fm fileModel
	if err := yaml.Unmarshal(data, &fm); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	model := &config.Model{
		Title:       fm.Title,
		Description: fm.Description,
	}

	names := make([]string, 0, len(fm.Variables))
	for name := range fm.Variables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		vs := fm.Variables[name]
		v := &config.Variable{Name: name}
		if vs.Initial != nil {
			initial, err := value.FromNative(vs.Initial)
			if err != nil {
				return nil, fmt.Errorf("variable %q: %w", name, err)
			}
			v.Initial = initial
		}
		v.Schema = config.Overrides{
			Description: vs.Description,
			Minimum:     vs.Minimum,
			Maximum:     vs.Maximum,
			MinLength:   vs.MinLength,
			MaxLength:   vs.MaxLength,
			Pattern:     vs.Pattern,
			ReadOnly:    vs.ReadOnly,
		}
		for _, e := range vs.Enum {
			ev, err := value.FromNative(e)
			if err != nil {
				return nil, fmt.Errorf("variable %q enum: %w", name, err)
			}
			v.Schema.Enum = append(v.Schema.Enum, ev)
		}
		model.Variables = append(model.Variables, v)
	}

	baseDir := filepath.Dir(path)
	for i, cs := range fm.Computed {
		if cs.Name == "" {
			return nil, fmt.Errorf("computed entry %d has no name", i)
		}
		src, err := resolveSource(cs, baseDir)
		if err != nil {
			return nil, fmt.Errorf("computed %q: %w", cs.Name, err)
		}
		model.Computed = append(model.Computed, &config.Computed{
			Name:   cs.Name,
			Inputs: cs.Inputs,
			Source: src,
		})
	}

	for name, values := range fm.Presets {
		if model.Presets == nil {
			model.Presets = make(map[string]value.Set)
		}
		set := make(value.Set, len(values))
		for k, raw := range values {
			v, err := value.FromNative(raw)
			if err != nil {
				return nil, fmt.Errorf("preset %q, value %q: %w", name, k, err)
			}
			set[k] = v
		}
		model.Presets[name] = set
	}

	logger.Debug("YAML mesh definition loaded.",
		"variables", len(model.Variables), "computed", len(model.Computed))
	return model, nil
}

func resolveSource(cs *computedSpec, baseDir string) (config.Source, error) {
	var declared []string
	if cs.Expr != "" {
		declared = append(declared, "expr")
	}
	if cs.File != "" {
		declared = append(declared, "file")
	}
	if cs.Builtin != "" {
		declared = append(declared, "builtin")
	}
	if len(declared) > 1 {
		return config.Source{}, fmt.Errorf("source attributes %s are mutually exclusive", strings.Join(declared, ", "))
	}

	switch {
	case cs.Expr != "":
		return config.Source{Kind: config.SourceExpr, Text: cs.Expr}, nil
	case cs.File != "":
		p := cs.File
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		text, err := os.ReadFile(p)
		if err != nil {
			return config.Source{}, fmt.Errorf("reading expression file: %w", err)
		}
		return config.Source{Kind: config.SourceFile, Text: strings.TrimSpace(string(text)), Path: p}, nil
	case cs.Builtin != "":
		return config.Source{Kind: config.SourceBuiltin, Builtin: cs.Builtin}, nil
	default:
		return config.Source{Kind: config.SourceNone}, nil
	}
}

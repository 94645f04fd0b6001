// Package render generates the self-contained HTML app for a mesh.
//
// The page carries the generated schema, UI hints and initial values as
// embedded JSON; its small client renders a form from them and sends
// edits to the dev server, which runs propagation and replies with the
// full value set. No computation code is ever compiled into the page.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/i2mint/rh/internal/schema"
	"github.com/i2mint/rh/internal/value"
)

//go:embed template/app.html.tmpl
var templates embed.FS

// AppConfig is everything the page template needs.
type AppConfig struct {
	Title       string
	Description string
	Schema      *schema.Document
	UISchema    map[string]schema.Hints
	Values      value.Set
	Presets     map[string]value.Set
}

// Generator renders mesh apps from the embedded template.
type Generator struct {
	tmpl *template.Template
}

// NewGenerator parses the embedded template.
func NewGenerator() (*Generator, error) {
	tmpl, err := template.ParseFS(templates, "template/app.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing app template: %w", err)
	}
	return &Generator{tmpl: tmpl}, nil
}

// Generate renders the app page.
func (g *Generator) Generate(cfg AppConfig) ([]byte, error) {
	payload, err := json.Marshal(map[string]any{
		"schema":   cfg.Schema,
		"uiSchema": cfg.UISchema,
		"values":   cfg.Values,
		"presets":  cfg.Presets,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding app config: %w", err)
	}

	data := struct {
		Title       string
		Description string
		ConfigJSON  template.JS
	}{
		Title:       cfg.Title,
		Description: cfg.Description,
		ConfigJSON:  template.JS(payload),
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering app: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteApp renders the page and writes it as index.html under dir,
// creating the directory if needed. It returns the written path.
func (g *Generator) WriteApp(cfg AppConfig, dir string) (string, error) {
	html, err := g.Generate(cfg)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating app directory: %w", err)
	}
	path := filepath.Join(dir, "index.html")
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return "", fmt.Errorf("writing app: %w", err)
	}
	return path, nil
}

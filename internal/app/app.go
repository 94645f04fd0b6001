// Package app wires the mesh pipeline together: load a definition,
// compile the graph, build the computation registry, validate, settle
// initial values, and then build or serve the generated app.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/i2mint/rh/internal/config"
	"github.com/i2mint/rh/internal/ctxlog"
	"github.com/i2mint/rh/internal/engine"
	"github.com/i2mint/rh/internal/hclconf"
	"github.com/i2mint/rh/internal/mesh"
	"github.com/i2mint/rh/internal/meshviz"
	"github.com/i2mint/rh/internal/registry"
	"github.com/i2mint/rh/internal/render"
	"github.com/i2mint/rh/internal/schema"
	"github.com/i2mint/rh/internal/server"
	"github.com/i2mint/rh/internal/validate"
	"github.com/i2mint/rh/internal/value"
	"github.com/i2mint/rh/internal/yamlconf"
)

// App runs one CLI invocation.
type App struct {
	out io.Writer
	cfg *Config
}

// NewApp creates the application.
func NewApp(out io.Writer, cfg *Config) *App {
	return &App{out: out, cfg: cfg}
}

// pipeline holds everything derived from one mesh definition.
type pipeline struct {
	model   *config.Model
	mesh    *mesh.Mesh
	reg     *registry.Registry
	engine  *engine.Engine
	settled value.Set
}

// Run dispatches the configured command.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Command == CommandInit {
		return a.runInit(ctx)
	}

	p, err := a.load(ctx)
	if err != nil {
		return err
	}

	switch a.cfg.Command {
	case CommandValidate:
		return a.runValidate(ctx, p)
	case CommandInspect:
		return a.runInspect(ctx, p)
	case CommandBuild:
		_, err := a.build(ctx, p)
		return err
	case CommandServe:
		return a.serve(ctx, p)
	default:
		return fmt.Errorf("unknown command %q", a.cfg.Command)
	}
}

// loaderFor picks a config loader by file extension.
func loaderFor(path string) (config.Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return hclconf.NewLoader(), nil
	case ".yaml", ".yml":
		return yamlconf.NewLoader(), nil
	default:
		return nil, fmt.Errorf("unsupported mesh definition format %q (want .hcl, .yaml or .yml)", filepath.Ext(path))
	}
}

// load runs the shared front half of every command: load, compile,
// registry build, validation, settling.
func (a *App) load(ctx context.Context) (*pipeline, error) {
	logger := ctxlog.FromContext(ctx)

	loader, err := loaderFor(a.cfg.MeshPath)
	if err != nil {
		return nil, err
	}
	model, err := loader.Load(ctx, a.cfg.MeshPath)
	if err != nil {
		return nil, err
	}
	if a.cfg.Title != "" {
		model.Title = a.cfg.Title
	}
	if model.Title == "" {
		model.Title = "Mesh App"
	}

	m := mesh.Compile(model.Decls())
	reg, err := registry.Build(model)
	if err != nil {
		return nil, err
	}

	initial := model.InitialValues()

	if !a.cfg.NoValidate {
		report := validate.Mesh(m, reg, initial)
		if summary := report.Summary(); summary != "" {
			fmt.Fprint(a.out, summary)
		}
		if report.Fatal(a.cfg.Strict) {
			return nil, errors.New("mesh validation failed")
		}
	}

	eng := engine.New(m, reg, initial)
	seeded := value.EnsureDefaults(initial, value.InferTypes(m.Variables(), initial))
	settled, err := eng.Settle(ctx, seeded)
	if err != nil {
		if !errors.Is(err, engine.ErrUnsettled) {
			return nil, err
		}
		logger.Warn("Initial values did not settle; continuing with best effort.", "path", a.cfg.MeshPath)
	}

	logger.Debug("Mesh pipeline ready.",
		"variables", len(m.Variables()), "computed", len(m.Computed()), "sources", len(m.Sources()))

	return &pipeline{model: model, mesh: m, reg: reg, engine: eng, settled: settled}, nil
}

func (a *App) runValidate(ctx context.Context, p *pipeline) error {
	// load already printed the report; just report the verdict.
	report := validate.Mesh(p.mesh, p.reg, p.model.InitialValues())
	if report.Fatal(a.cfg.Strict) {
		fmt.Fprintln(a.out, "Configuration has errors.")
		return errors.New("mesh validation failed")
	}
	fmt.Fprintln(a.out, "Configuration is valid.")
	return nil
}

func (a *App) runInspect(ctx context.Context, p *pipeline) error {
	fmt.Fprint(a.out, meshviz.Describe(p.mesh, p.settled))

	metrics := meshviz.Complexity(p.mesh)
	fmt.Fprintf(a.out, "\nCOMPLEXITY: %d computed, %d dependencies (max %d, avg %.2f), deepest chain %d\n",
		metrics.TotalComputed, metrics.TotalDependencies, metrics.MaxDependencies,
		metrics.AverageDependencies, metrics.DeepestChain)

	levels, remainder := meshviz.Levels(p.mesh)
	fmt.Fprintln(a.out, "\nEXECUTION LEVELS:")
	for i, level := range levels {
		fmt.Fprintf(a.out, "  %d: %s\n", i+1, strings.Join(level, ", "))
	}
	if len(remainder) > 0 {
		fmt.Fprintf(a.out, "  cyclic: %s\n", strings.Join(remainder, ", "))
	}

	fmt.Fprintln(a.out, "\nDOT GRAPH:")
	fmt.Fprint(a.out, meshviz.DOT(p.mesh))
	return nil
}

// appConfig assembles the render input from a loaded pipeline.
func (a *App) appConfig(p *pipeline) (render.AppConfig, error) {
	doc, err := schema.Generate(p.model, p.mesh)
	if err != nil {
		return render.AppConfig{}, err
	}
	return render.AppConfig{
		Title:       p.model.Title,
		Description: p.model.Description,
		Schema:      doc,
		UISchema:    schema.UISchema(p.model, p.mesh),
		Values:      p.settled,
		Presets:     p.model.Presets,
	}, nil
}

// outputDir resolves where the generated app lands: an explicit output
// directory wins, otherwise AppDir plus a name derived from the title.
func (a *App) outputDir(p *pipeline) string {
	if a.cfg.OutputDir != "" {
		return a.cfg.OutputDir
	}
	name := strings.ToLower(p.model.Title)
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
	return filepath.Join(a.cfg.AppDir, name)
}

func (a *App) build(ctx context.Context, p *pipeline) (string, error) {
	cfg, err := a.appConfig(p)
	if err != nil {
		return "", err
	}
	gen, err := render.NewGenerator()
	if err != nil {
		return "", err
	}
	path, err := gen.WriteApp(cfg, a.outputDir(p))
	if err != nil {
		return "", err
	}
	fmt.Fprintf(a.out, "App created at: %s\n", path)
	return path, nil
}

func (a *App) serve(ctx context.Context, p *pipeline) error {
	cfg, err := a.appConfig(p)
	if err != nil {
		return err
	}
	gen, err := render.NewGenerator()
	if err != nil {
		return err
	}
	page, err := gen.Generate(cfg)
	if err != nil {
		return err
	}

	store := server.NewStore(p.engine, p.settled)
	srv := server.New(store, server.Config{
		Page:     page,
		Schema:   cfg.Schema,
		UISchema: cfg.UISchema,
		Presets:  cfg.Presets,
	})

	addr := fmt.Sprintf(":%d", a.cfg.Port)
	fmt.Fprintf(a.out, "Serving %s on http://localhost%s\n", p.model.Title, addr)
	return srv.ListenAndServe(ctx, addr)
}

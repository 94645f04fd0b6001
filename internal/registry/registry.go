// Package registry holds the computation registry: the mapping from a
// computed variable name to the callable that produces its value.
//
// Each supported computation source (inline expression, external file,
// built-in library function, native Go function) has its own Computation
// implementation, selected once when the registry is built from the
// configuration model. The propagation engine only ever sees the
// Computation interface; it never inspects computation bodies.
package registry

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/i2mint/rh/internal/config"
)

// Computation computes a derived value from the current values of its
// declared inputs, in declaration order. Implementations must be pure and
// non-blocking; a returned error is recovered per propagation step.
type Computation interface {
	Evaluate(inputs []cty.Value) (cty.Value, error)
}

// TextSource is implemented by computations built from textual sources.
// The validator uses it for its heuristic syntax checks.
type TextSource interface {
	SourceText() string
}

// Func adapts a native Go function into a Computation, for embedding
// programs that register computations in code.
type Func func(inputs []cty.Value) (cty.Value, error)

// Evaluate implements Computation.
func (f Func) Evaluate(inputs []cty.Value) (cty.Value, error) {
	return f(inputs)
}

// Registry maps computed variable names to their computations. It is
// populated before any propagation and read-only afterwards.
type Registry struct {
	comps map[string]Computation
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{comps: make(map[string]Computation)}
}

// Register adds or replaces the computation for a name.
func (r *Registry) Register(name string, c Computation) {
	r.comps[name] = c
}

// Lookup returns the computation for a name.
func (r *Registry) Lookup(name string) (Computation, bool) {
	c, ok := r.comps[name]
	return c, ok
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.comps))
	for name := range r.comps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build constructs a registry from the model, selecting one concrete
// computation variant per declaration. A declaration with no source is
// skipped; validation reports it as a missing computation unless the
// caller registers one programmatically afterwards.
func Build(model *config.Model) (*Registry, error) {
	r := New()
	for _, c := range model.Computed {
		switch c.Source.Kind {
		case config.SourceNone:
			continue
		case config.SourceExpr:
			comp, err := newExprComputation(c.Source.Text, c.Inputs)
			if err != nil {
				return nil, fmt.Errorf("computed %q: %w", c.Name, err)
			}
			r.Register(c.Name, comp)
		case config.SourceFile:
			comp, err := newExprComputation(c.Source.Text, c.Inputs)
			if err != nil {
				return nil, fmt.Errorf("computed %q (from %s): %w", c.Name, c.Source.Path, err)
			}
			r.Register(c.Name, comp)
		case config.SourceBuiltin:
			comp, err := newBuiltinComputation(c.Source.Builtin)
			if err != nil {
				return nil, fmt.Errorf("computed %q: %w", c.Name, err)
			}
			r.Register(c.Name, comp)
		default:
			return nil, fmt.Errorf("computed %q: unknown source kind %d", c.Name, c.Source.Kind)
		}
	}
	return r, nil
}

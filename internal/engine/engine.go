// Package engine implements change propagation over a compiled mesh.
//
// One edit triggers one propagation pass: a breadth-first recomputation of
// every computed variable that transitively depends on the edited one.
// Passes are synchronous and atomic; the caller's value set is never
// touched, and a failed pass leaves it exactly as it was. The engine is
// single-threaded by contract: callers serialize edits.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/i2mint/rh/internal/ctxlog"
	"github.com/i2mint/rh/internal/mesh"
	"github.com/i2mint/rh/internal/metrics"
	"github.com/i2mint/rh/internal/registry"
	"github.com/i2mint/rh/internal/value"
)

// settleIterations bounds the fixed-point iteration in Settle.
const settleIterations = 50

// ErrUnsettled is returned by Settle when the mesh keeps changing after
// the iteration limit.
var ErrUnsettled = errors.New("mesh did not settle within iteration limit")

// CyclicError reports that a propagation pass revisited a computed
// variable, which means the edit reached a dependency cycle that does not
// stabilize. The pass is rejected; the caller's value set is unchanged.
type CyclicError struct {
	Variable string // the variable that was visited twice
	Origin   string // the edited variable that started the pass
}

// Error implements the error interface.
func (e *CyclicError) Error() string {
	return fmt.Sprintf("cyclic computation detected at %q while propagating %q", e.Variable, e.Origin)
}

// Engine propagates edits through a compiled mesh using a registry of
// computations. Both are immutable for the engine's lifetime.
type Engine struct {
	mesh  *mesh.Mesh
	reg   *registry.Registry
	types map[string]cty.Type
}

// New builds an engine. Declared types are inferred from the initial
// values: a variable's first non-missing initial value fixes its type,
// and every computation result is converted to it before storage.
func New(m *mesh.Mesh, reg *registry.Registry, initial value.Set) *Engine {
	return &Engine{
		mesh:  m,
		reg:   reg,
		types: value.InferTypes(m.Variables(), initial),
	}
}

// TypeOf returns the declared type of a variable, defaulting to number.
func (e *Engine) TypeOf(name string) cty.Type {
	if ty, ok := e.types[name]; ok {
		return ty
	}
	return cty.Number
}

// Propagate applies one edit and recomputes all transitively dependent
// computed variables, breadth first. It returns a complete new value set;
// current is never modified. The only fatal condition is a revisit of an
// already-recomputed variable, reported as *CyclicError. A computation
// that fails is logged and treated as "no change for this variable".
func (e *Engine) Propagate(ctx context.Context, changed string, newValue cty.Value, current value.Set) (value.Set, error) {
	logger := ctxlog.FromContext(ctx)

	coerced, err := value.Coerce(newValue, e.TypeOf(changed))
	if err != nil {
		return nil, fmt.Errorf("edit of %q: %w", changed, err)
	}

	next := current.Clone()
	next[changed] = coerced

	// visited holds variables recomputed in this pass. pending holds
	// variables currently waiting in the queue: enqueueing is deduplicated
	// against pending (so diamond dependencies funnel into one visit) but
	// not against visited (so a true cycle still re-enqueues a finished
	// variable and is caught below).
	visited := make(map[string]bool)
	pending := make(map[string]bool)
	var queue []string

	enqueue := func(names []string) {
		for _, n := range names {
			if pending[n] {
				continue
			}
			pending[n] = true
			queue = append(queue, n)
		}
	}
	enqueue(e.mesh.Dependents(changed))

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		delete(pending, name)

		if visited[name] {
			logger.Debug("Revisit within propagation pass, rejecting as cycle.",
				"variable", name, "origin", changed)
			return nil, &CyclicError{Variable: name, Origin: changed}
		}
		visited[name] = true

		result, ok := e.recompute(ctx, name, next)
		if !ok {
			continue
		}

		if prev, exists := next[name]; exists && result.RawEquals(prev) {
			// Stabilized: the recomputed value matches what is stored, so
			// propagation along this edge stops. This is what lets
			// bidirectional pairs settle instead of oscillating.
			logger.Debug("Value stabilized.", "variable", name)
			continue
		}

		next[name] = result
		enqueue(e.mesh.Dependents(name))
	}

	return next, nil
}

// Settle iteratively recomputes every computed variable in declaration
// order until nothing changes, bounded by settleIterations. It is used at
// startup to derive values for computed variables that have no initial
// value. The input set is not modified.
func (e *Engine) Settle(ctx context.Context, current value.Set) (value.Set, error) {
	next := current.Clone()

	for i := 0; i < settleIterations; i++ {
		anyChange := false
		for _, name := range e.mesh.Computed() {
			result, ok := e.recompute(ctx, name, next)
			if !ok {
				continue
			}
			if prev, exists := next[name]; exists && result.RawEquals(prev) {
				continue
			}
			next[name] = result
			anyChange = true
		}
		if !anyChange {
			return next, nil
		}
	}

	return next, ErrUnsettled
}

// recompute evaluates one computed variable against the given value set
// and converts the result to the variable's declared type. All failures
// are recovered: they are logged and reported as ok=false so the caller
// keeps the prior value, per the partial-failure isolation rule.
func (e *Engine) recompute(ctx context.Context, name string, values value.Set) (cty.Value, bool) {
	logger := ctxlog.FromContext(ctx)

	comp, ok := e.reg.Lookup(name)
	if !ok {
		logger.Warn("No computation registered, keeping prior value.", "variable", name)
		return cty.NilVal, false
	}

	inputNames := e.mesh.Inputs(name)
	inputs := make([]cty.Value, len(inputNames))
	for i, in := range inputNames {
		if v, exists := values[in]; exists {
			inputs[i] = v
		} else {
			inputs[i] = cty.NullVal(e.TypeOf(in))
		}
	}

	result, err := comp.Evaluate(inputs)
	if err != nil {
		logger.Warn("Computation failed, keeping prior value.", "variable", name, "error", err)
		metrics.ComputationFailures.Inc()
		return cty.NilVal, false
	}
	if result == cty.NilVal || !result.IsKnown() {
		logger.Warn("Computation produced no usable value, keeping prior value.", "variable", name)
		metrics.ComputationFailures.Inc()
		return cty.NilVal, false
	}

	coerced, err := value.Coerce(result, e.TypeOf(name))
	if err != nil {
		logger.Warn("Result has wrong type, keeping prior value.", "variable", name, "error", err)
		metrics.ComputationFailures.Inc()
		return cty.NilVal, false
	}
	return coerced, true
}

package registry

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/zclconf/go-cty/cty"

	"github.com/i2mint/rh/internal/value"
)

// exprComputation evaluates an expression compiled once at build time.
// Inputs are bridged to native Go values under their declared names, so a
// computation for `fahrenheit` with inputs ["celsius"] is written as
// `celsius * 9 / 5 + 32`.
type exprComputation struct {
	text    string
	inputs  []string
	program *vm.Program
}

func newExprComputation(text string, inputs []string) (*exprComputation, error) {
	program, err := expr.Compile(text, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compiling expression: %w", err)
	}
	return &exprComputation{text: text, inputs: inputs, program: program}, nil
}

// Evaluate implements Computation.
func (c *exprComputation) Evaluate(inputs []cty.Value) (cty.Value, error) {
	if len(inputs) != len(c.inputs) {
		return cty.NilVal, fmt.Errorf("expected %d inputs, got %d", len(c.inputs), len(inputs))
	}

	env := make(map[string]any, len(inputs))
	for i, name := range c.inputs {
		native, err := value.ToNative(inputs[i])
		if err != nil {
			return cty.NilVal, fmt.Errorf("input %q: %w", name, err)
		}
		env[name] = native
	}

	out, err := expr.Run(c.program, env)
	if err != nil {
		return cty.NilVal, fmt.Errorf("evaluating expression: %w", err)
	}

	result, err := value.FromNative(out)
	if err != nil {
		return cty.NilVal, fmt.Errorf("converting result: %w", err)
	}
	return result, nil
}

// SourceText implements TextSource.
func (c *exprComputation) SourceText() string {
	return c.text
}

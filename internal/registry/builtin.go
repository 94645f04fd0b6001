package registry

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// builtins is the built-in computation library: cty stdlib functions
// addressable by name from a `builtin` source attribute.
var builtins = map[string]function.Function{
	"abs":    stdlib.AbsoluteFunc,
	"add":    stdlib.AddFunc,
	"sub":    stdlib.SubtractFunc,
	"mul":    stdlib.MultiplyFunc,
	"div":    stdlib.DivideFunc,
	"mod":    stdlib.ModuloFunc,
	"pow":    stdlib.PowFunc,
	"negate": stdlib.NegateFunc,
	"min":    stdlib.MinFunc,
	"max":    stdlib.MaxFunc,
	"int":    stdlib.IntFunc,
	"ceil":   stdlib.CeilFunc,
	"floor":  stdlib.FloorFunc,
	"log":    stdlib.LogFunc,
	"signum": stdlib.SignumFunc,
	"upper":  stdlib.UpperFunc,
	"lower":  stdlib.LowerFunc,
	"strlen": stdlib.StrlenFunc,
	"length": stdlib.LengthFunc,
	"concat": stdlib.ConcatFunc,
	"join":   stdlib.JoinFunc,
	"sort":   stdlib.SortFunc,
}

// BuiltinNames lists the available built-in computation names, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// builtinComputation wraps a cty stdlib function.
type builtinComputation struct {
	name string
	fn   function.Function
}

func newBuiltinComputation(name string) (*builtinComputation, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin %q (available: %v)", name, BuiltinNames())
	}
	return &builtinComputation{name: name, fn: fn}, nil
}

// Evaluate implements Computation.
func (c *builtinComputation) Evaluate(inputs []cty.Value) (cty.Value, error) {
	out, err := c.fn.Call(inputs)
	if err != nil {
		return cty.NilVal, fmt.Errorf("builtin %q: %w", c.name, err)
	}
	return out, nil
}

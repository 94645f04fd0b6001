// Package meshviz renders a compiled mesh for humans: a text summary, a
// Graphviz DOT export, complexity metrics, and a level-ordered execution
// plan. All functions are pure views over the compiled graph.
package meshviz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/i2mint/rh/internal/mesh"
	"github.com/i2mint/rh/internal/value"
)

// Describe renders a text summary of the mesh: inputs with their current
// values, computed variables with their dependencies, and propagation
// chains from the reverse map.
func Describe(m *mesh.Mesh, values value.Set) string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	b.WriteString(rule + "\n")
	b.WriteString("MESH STRUCTURE\n")
	b.WriteString(rule + "\n")

	sources := m.Sources()
	if len(sources) > 0 {
		b.WriteString("\nINPUT VARIABLES:\n")
		for _, name := range sources {
			if v, ok := values[name]; ok {
				b.WriteString(fmt.Sprintf("  - %s = %s\n", name, formatValue(v)))
			} else {
				b.WriteString(fmt.Sprintf("  - %s = ?\n", name))
			}
		}
	}

	computed := m.Computed()
	if len(computed) > 0 {
		sorted := append([]string(nil), computed...)
		sort.Strings(sorted)
		b.WriteString("\nCOMPUTED VARIABLES:\n")
		for _, name := range sorted {
			deps := m.Inputs(name)
			if len(deps) == 0 {
				b.WriteString(fmt.Sprintf("  - %s <- (no deps)\n", name))
			} else {
				b.WriteString(fmt.Sprintf("  - %s <- [%s]\n", name, strings.Join(deps, ", ")))
			}
		}
	}

	b.WriteString("\nPROPAGATION CHAINS:\n")
	for _, name := range m.Variables() {
		dependents := m.Dependents(name)
		if len(dependents) == 0 {
			continue
		}
		sorted := append([]string(nil), dependents...)
		sort.Strings(sorted)
		b.WriteString(fmt.Sprintf("  - %s -> affects: %s\n", name, strings.Join(sorted, ", ")))
	}

	b.WriteString("\n" + rule + "\n")
	return b.String()
}

func formatValue(v cty.Value) string {
	native, err := value.ToNative(v)
	if err != nil {
		return "?"
	}
	return fmt.Sprintf("%v", native)
}

// DOT renders the mesh as a Graphviz digraph, styling inputs and computed
// variables differently.
func DOT(m *mesh.Mesh) string {
	var b strings.Builder
	b.WriteString("digraph Mesh {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=filled];\n")

	for _, name := range m.Sources() {
		fmt.Fprintf(&b, "  %q [fillcolor=lightblue, label=\"%s\\n(input)\"];\n", name, name)
	}
	computed := append([]string(nil), m.Computed()...)
	sort.Strings(computed)
	for _, name := range computed {
		fmt.Fprintf(&b, "  %q [fillcolor=lightgreen, label=\"%s\\n(computed)\"];\n", name, name)
	}

	for _, name := range computed {
		for _, dep := range m.Inputs(name) {
			fmt.Fprintf(&b, "  %q -> %q;\n", dep, name)
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// Metrics summarizes mesh complexity.
type Metrics struct {
	TotalComputed       int     `json:"total_computed"`
	TotalDependencies   int     `json:"total_dependencies"`
	MaxDependencies     int     `json:"max_dependencies"`
	AverageDependencies float64 `json:"average_dependencies"`
	NoDependencyCount   int     `json:"no_dependency_count"`
	DeepestChain        int     `json:"deepest_chain"`
}

// Complexity computes dependency metrics for the mesh. Chain depth walks
// only computed-to-computed edges and stops on revisits, so cyclic meshes
// still report a finite depth.
func Complexity(m *mesh.Mesh) Metrics {
	metrics := Metrics{TotalComputed: len(m.Computed())}

	for _, name := range m.Computed() {
		n := len(m.Inputs(name))
		metrics.TotalDependencies += n
		if n > metrics.MaxDependencies {
			metrics.MaxDependencies = n
		}
		if n == 0 {
			metrics.NoDependencyCount++
		}
	}
	if metrics.TotalComputed > 0 {
		metrics.AverageDependencies = float64(metrics.TotalDependencies) / float64(metrics.TotalComputed)
	}

	var depth func(name string, seen map[string]bool) int
	depth = func(name string, seen map[string]bool) int {
		if seen[name] || !m.IsComputed(name) {
			return 0
		}
		seen[name] = true
		defer delete(seen, name)

		max := 0
		for _, dep := range m.Inputs(name) {
			if d := depth(dep, seen); d > max {
				max = d
			}
		}
		return 1 + max
	}
	for _, name := range m.Computed() {
		if d := depth(name, make(map[string]bool)); d > metrics.DeepestChain {
			metrics.DeepestChain = d
		}
	}

	return metrics
}

// Levels returns a level-ordered execution plan: each level holds computed
// variables whose computed inputs all appear in earlier levels, so one
// level could run in parallel. Variables caught in cycles never reach
// in-degree zero and are returned together as the final remainder.
func Levels(m *mesh.Mesh) (levels [][]string, remainder []string) {
	inDegree := make(map[string]int)
	for _, name := range m.Computed() {
		inDegree[name] = 0
		for _, dep := range m.Inputs(name) {
			if m.IsComputed(dep) && dep != name {
				inDegree[name]++
			}
		}
	}

	placed := make(map[string]bool)
	var current []string
	for name, deg := range inDegree {
		if deg == 0 {
			current = append(current, name)
		}
	}

	for len(current) > 0 {
		sort.Strings(current)
		levels = append(levels, current)
		var next []string
		for _, name := range current {
			placed[name] = true
			for _, dependent := range m.Dependents(name) {
				if placed[dependent] {
					continue
				}
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		current = next
	}

	for _, name := range m.Computed() {
		if !placed[name] {
			remainder = append(remainder, name)
		}
	}
	sort.Strings(remainder)
	return levels, remainder
}

// Package validate checks a compiled mesh for structural problems before
// any propagation runs: likely-typo dependency references, computed
// variables with no computation, unintended cycles, and malformed textual
// computation bodies.
//
// Validation is advisory and never mutates graph state. Callers decide
// whether warnings are fatal by opting into strict mode.
package validate

import (
	"fmt"
	"strings"

	"github.com/i2mint/rh/internal/mesh"
	"github.com/i2mint/rh/internal/registry"
	"github.com/i2mint/rh/internal/value"
)

// Kind classifies a validation issue.
type Kind string

const (
	// KindUndefinedDependency flags an input name that is neither computed
	// nor present in the initial values. Usually a typo.
	KindUndefinedDependency Kind = "UndefinedDependency"
	// KindMissingComputation flags a computed variable with no registry entry.
	KindMissingComputation Kind = "MissingComputation"
	// KindStructuralCycle flags a directed cycle in the forward graph.
	// Cycles are a supported feature, so this is a warning; it exists to
	// surface unintended ones.
	KindStructuralCycle Kind = "StructuralCycle"
	// KindMalformedComputationBody flags unbalanced delimiters in a
	// textual computation source. A heuristic scan, not a full parse.
	KindMalformedComputationBody Kind = "MalformedComputationBody"
)

// Issue is one validation finding.
type Issue struct {
	Kind       Kind   `json:"kind"`
	Variable   string `json:"variable"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (i Issue) String() string {
	s := fmt.Sprintf("[%s] %s: %s", i.Kind, i.Variable, i.Message)
	if i.Suggestion != "" {
		s += " (" + i.Suggestion + ")"
	}
	return s
}

// Report is the outcome of validating one mesh.
type Report struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// OK reports whether no errors were found. In strict mode callers should
// use Fatal instead.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Fatal reports whether the mesh should be rejected: any error, or in
// strict mode any warning.
func (r *Report) Fatal(strict bool) bool {
	if len(r.Errors) > 0 {
		return true
	}
	return strict && len(r.Warnings) > 0
}

// Summary renders every issue on its own line.
func (r *Report) Summary() string {
	var b strings.Builder
	for _, i := range r.Errors {
		fmt.Fprintf(&b, "error: %s\n", i)
	}
	for _, i := range r.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", i)
	}
	return b.String()
}

// Mesh validates the compiled mesh against the registry and the initial
// value set.
func Mesh(m *mesh.Mesh, reg *registry.Registry, initial value.Set) *Report {
	report := &Report{}

	checkUndefinedDependencies(report, m, initial)
	checkMissingComputations(report, m, reg)
	checkStructuralCycles(report, m)
	checkComputationBodies(report, m, reg)

	return report
}

func checkUndefinedDependencies(report *Report, m *mesh.Mesh, initial value.Set) {
	for _, name := range m.Computed() {
		for _, in := range m.Inputs(name) {
			if m.IsComputed(in) {
				continue
			}
			if _, ok := initial[in]; ok {
				continue
			}
			report.Warnings = append(report.Warnings, Issue{
				Kind:       KindUndefinedDependency,
				Variable:   name,
				Message:    fmt.Sprintf("depends on undefined variable %q", in),
				Suggestion: fmt.Sprintf("give %q an initial value or declare it as a computed variable", in),
			})
		}
	}
}

func checkMissingComputations(report *Report, m *mesh.Mesh, reg *registry.Registry) {
	for _, name := range m.Computed() {
		if len(m.Inputs(name)) == 0 {
			// A no-dependency declaration is an editable placeholder, not
			// something the engine ever recomputes.
			continue
		}
		if _, ok := reg.Lookup(name); !ok {
			report.Errors = append(report.Errors, Issue{
				Kind:       KindMissingComputation,
				Variable:   name,
				Message:    "declared as computed but no computation is registered",
				Suggestion: "add an expr, file or builtin source, or register a computation in code",
			})
		}
	}
}

// checkStructuralCycles runs a depth-first walk over the forward graph
// with a recursion-stack set, reporting the first node of each cycle it
// meets. Edges only follow computed variables; a source variable can never
// continue a cycle.
func checkStructuralCycles(report *Report, m *mesh.Mesh) {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(name string) (string, bool)
	visit = func(name string) (string, bool) {
		if permanent[name] {
			return "", false
		}
		if temporary[name] {
			return name, true
		}
		temporary[name] = true
		for _, in := range m.Inputs(name) {
			if !m.IsComputed(in) {
				continue
			}
			if at, found := visit(in); found {
				return at, true
			}
		}
		delete(temporary, name)
		permanent[name] = true
		return "", false
	}

	for _, name := range m.Computed() {
		if permanent[name] {
			continue
		}
		if at, found := visit(name); found {
			report.Warnings = append(report.Warnings, Issue{
				Kind:       KindStructuralCycle,
				Variable:   at,
				Message:    "participates in a dependency cycle",
				Suggestion: "intentional bidirectional pairs must stabilize in one hop; otherwise break the cycle",
			})
			// Reset the stack so disjoint components still get visited.
			temporary = make(map[string]bool)
		}
	}
}

func checkComputationBodies(report *Report, m *mesh.Mesh, reg *registry.Registry) {
	for _, name := range m.Computed() {
		comp, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		src, ok := comp.(registry.TextSource)
		if !ok {
			continue
		}
		if msg := scanDelimiters(src.SourceText()); msg != "" {
			report.Warnings = append(report.Warnings, Issue{
				Kind:       KindMalformedComputationBody,
				Variable:   name,
				Message:    msg,
				Suggestion: "check for missing or extra brackets, braces or parentheses",
			})
		}
	}
}

// scanDelimiters checks that parentheses, brackets and braces are balanced
// and properly nested, using a stack scan. String literals are skipped so
// a ")" inside quotes does not trip the check.
func scanDelimiters(src string) string {
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var stack []rune
	var quote rune

	for _, r := range src {
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		switch r {
		case '"', '\'':
			quote = r
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return fmt.Sprintf("unbalanced %q in computation body", string(r))
			}
			stack = stack[:len(stack)-1]
		}
	}

	if quote != 0 {
		return "unterminated string literal in computation body"
	}
	if len(stack) > 0 {
		return fmt.Sprintf("unclosed %q in computation body", string(stack[len(stack)-1]))
	}
	return ""
}

// Package mesh implements the dependency-graph compiler.
//
// A mesh declaration maps each computed variable to the ordered list of
// input variables its computation reads. Compile turns the declaration
// list into a forward map (computed name -> inputs) and a reverse map
// (variable -> the computed variables that consume it), and classifies
// every referenced name as a source or computed variable. Both maps are
// immutable after compilation; the propagation engine only reads them.
package mesh

import "sort"

// Decl declares one computed variable and its ordered inputs. Declarations
// are kept in a slice rather than a map because the reverse map preserves
// declaration order, and propagation order depends on it.
type Decl struct {
	Name   string
	Inputs []string
}

// Mesh is the compiled dependency graph.
type Mesh struct {
	forward  map[string][]string
	reverse  map[string][]string
	computed map[string]struct{}
	sources  map[string]struct{}
	order    []string // computed names in declaration order
}

// Compile builds the forward and reverse maps from the declarations.
// Structural problems (undefined references, cycles) are not errors here;
// that is the validator's job.
func Compile(decls []Decl) *Mesh {
	m := &Mesh{
		forward:  make(map[string][]string, len(decls)),
		reverse:  make(map[string][]string),
		computed: make(map[string]struct{}, len(decls)),
		sources:  make(map[string]struct{}),
	}

	for _, d := range decls {
		inputs := make([]string, len(d.Inputs))
		copy(inputs, d.Inputs)
		m.forward[d.Name] = inputs
		m.computed[d.Name] = struct{}{}
		m.order = append(m.order, d.Name)

		for _, arg := range d.Inputs {
			m.reverse[arg] = append(m.reverse[arg], d.Name)
		}
	}

	for _, d := range decls {
		for _, arg := range d.Inputs {
			if _, ok := m.computed[arg]; !ok {
				m.sources[arg] = struct{}{}
			}
		}
		// A computed variable with no inputs has nothing to derive its
		// value from; it is set externally and counts as an editable input.
		if len(d.Inputs) == 0 {
			m.sources[d.Name] = struct{}{}
		}
	}

	return m
}

// Inputs returns the ordered input list of a computed variable, or nil if
// the name is not computed.
func (m *Mesh) Inputs(name string) []string {
	return m.forward[name]
}

// Dependents returns the computed variables that consume the given
// variable, in declaration order. The returned slice is shared; callers
// must not modify it.
func (m *Mesh) Dependents(name string) []string {
	return m.reverse[name]
}

// IsComputed reports whether the name was declared as a computed variable.
func (m *Mesh) IsComputed(name string) bool {
	_, ok := m.computed[name]
	return ok
}

// IsSource reports whether the name is an editable input: referenced as an
// argument but never computed, or declared computed with no inputs.
func (m *Mesh) IsSource(name string) bool {
	_, ok := m.sources[name]
	return ok
}

// Computed returns all computed variable names in declaration order.
func (m *Mesh) Computed() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Sources returns all source variable names, sorted.
func (m *Mesh) Sources() []string {
	out := make([]string, 0, len(m.sources))
	for name := range m.sources {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Variables returns every name referenced anywhere in the mesh, sorted.
func (m *Mesh) Variables() []string {
	seen := make(map[string]struct{}, len(m.computed)+len(m.sources))
	for name := range m.computed {
		seen[name] = struct{}{}
	}
	for name := range m.sources {
		seen[name] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Forward returns a copy of the forward map.
func (m *Mesh) Forward() map[string][]string {
	out := make(map[string][]string, len(m.forward))
	for k, v := range m.forward {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// Reverse returns a copy of the reverse map.
func (m *Mesh) Reverse() map[string][]string {
	out := make(map[string][]string, len(m.reverse))
	for k, v := range m.reverse {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

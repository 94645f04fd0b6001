// Package schema generates the form schema consumed by the rendered app:
// a JSON-Schema-shaped document describing every mesh variable, plus UI
// hints derived from naming conventions.
package schema

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/i2mint/rh/internal/config"
	"github.com/i2mint/rh/internal/mesh"
	"github.com/i2mint/rh/internal/value"
)

// Document is the generated object schema for the whole form.
type Document struct {
	Type       string               `json:"type"`
	Properties map[string]*Property `json:"properties"`
}

// Property is the schema of a single variable.
type Property struct {
	Type        string    `json:"type"`
	Items       *Property `json:"items,omitempty"`
	Description string    `json:"description,omitempty"`
	Minimum     *float64  `json:"minimum,omitempty"`
	Maximum     *float64  `json:"maximum,omitempty"`
	MinLength   *int      `json:"minLength,omitempty"`
	MaxLength   *int      `json:"maxLength,omitempty"`
	Pattern     string    `json:"pattern,omitempty"`
	Enum        []any     `json:"enum,omitempty"`
	ReadOnly    bool      `json:"readOnly,omitempty"`
}

// Generate builds the document from the model and the compiled mesh.
// Each variable's type is inferred from its initial value; variables with
// no initial value default to number, matching the engine's typing.
func Generate(model *config.Model, m *mesh.Mesh) (*Document, error) {
	doc := &Document{
		Type:       "object",
		Properties: make(map[string]*Property),
	}

	for _, name := range m.Variables() {
		prop := inferProperty(name, model)
		applyOverrides(name, prop, model)
		addConstraintDescription(prop)
		doc.Properties[name] = prop
	}

	return doc, nil
}

func inferProperty(name string, model *config.Model) *Property {
	v, ok := model.Variable(name)
	if !ok || v.Initial == cty.NilVal || v.Initial.IsNull() {
		return &Property{Type: "number"}
	}
	return propertyForValue(v.Initial)
}

func propertyForValue(v cty.Value) *Property {
	ty := v.Type()
	switch {
	case ty == cty.Bool:
		return &Property{Type: "boolean"}
	case ty == cty.Number:
		if v.AsBigFloat().IsInt() {
			return &Property{Type: "integer"}
		}
		return &Property{Type: "number"}
	case ty == cty.String:
		return &Property{Type: "string"}
	case ty.IsTupleType() || ty.IsListType():
		prop := &Property{Type: "array"}
		it := v.ElementIterator()
		if it.Next() {
			_, first := it.Element()
			prop.Items = propertyForValue(first)
		} else {
			prop.Items = &Property{Type: "number"}
		}
		return prop
	default:
		return &Property{Type: "string"}
	}
}

func applyOverrides(name string, prop *Property, model *config.Model) {
	v, ok := model.Variable(name)
	if !ok {
		return
	}
	o := v.Schema
	if o.Description != "" {
		prop.Description = o.Description
	}
	prop.Minimum = o.Minimum
	prop.Maximum = o.Maximum
	prop.MinLength = o.MinLength
	prop.MaxLength = o.MaxLength
	if o.Pattern != "" {
		prop.Pattern = o.Pattern
	}
	if o.ReadOnly != nil {
		prop.ReadOnly = *o.ReadOnly
	}
	for _, e := range o.Enum {
		native, err := value.ToNative(e)
		if err != nil {
			continue
		}
		prop.Enum = append(prop.Enum, native)
	}
}

// addConstraintDescription fills in a generated description summarizing
// the property's constraints, without overriding an explicit one.
func addConstraintDescription(prop *Property) {
	if prop.Description != "" {
		return
	}

	var constraints []string

	if prop.Type == "number" || prop.Type == "integer" {
		switch {
		case prop.Minimum != nil && prop.Maximum != nil:
			constraints = append(constraints,
				fmt.Sprintf("Value must be between %v and %v", *prop.Minimum, *prop.Maximum))
		case prop.Minimum != nil:
			constraints = append(constraints, fmt.Sprintf("Minimum value: %v", *prop.Minimum))
		case prop.Maximum != nil:
			constraints = append(constraints, fmt.Sprintf("Maximum value: %v", *prop.Maximum))
		}
	}
	if prop.Pattern != "" {
		constraints = append(constraints, fmt.Sprintf("Must match pattern: %s", prop.Pattern))
	}
	if prop.MinLength != nil {
		constraints = append(constraints, fmt.Sprintf("Minimum length: %d", *prop.MinLength))
	}
	if prop.MaxLength != nil {
		constraints = append(constraints, fmt.Sprintf("Maximum length: %d", *prop.MaxLength))
	}
	if len(prop.Enum) > 0 {
		vals := make([]string, len(prop.Enum))
		for i, e := range prop.Enum {
			vals[i] = fmt.Sprintf("%v", e)
		}
		constraints = append(constraints, "Allowed values: "+strings.Join(vals, ", "))
	}

	if len(constraints) > 0 {
		prop.Description = strings.Join(constraints, "; ")
	}
}

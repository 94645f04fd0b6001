package schema

import (
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/i2mint/rh/internal/config"
	"github.com/i2mint/rh/internal/mesh"
)

// Hints are per-field UI rendering hints.
type Hints struct {
	Widget   string          `json:"widget,omitempty"`
	ReadOnly bool            `json:"readonly,omitempty"`
	Minimum  *float64        `json:"minimum,omitempty"`
	Maximum  *float64        `json:"maximum,omitempty"`
	Options  map[string]bool `json:"options,omitempty"`
}

func floatPtr(f float64) *float64 { return &f }

func (h Hints) isZero() bool {
	return h.Widget == "" && !h.ReadOnly && h.Minimum == nil && h.Maximum == nil && h.Options == nil
}

// HintFor applies the naming conventions to a variable name. It is a pure
// lookup: no global state, same input always yields the same hints.
//
// Supported prefixes: slider_/range_ (0-100 range input), readonly_,
// hidden_, color_, date_, time_, datetime_, email_, url_, tel_,
// textarea_, password_, number_, checkbox_, list_/array_ (addable,
// removable, orderable), tags_ (addable, removable).
func HintFor(name string) Hints {
	switch {
	case strings.HasPrefix(name, "slider_"), strings.HasPrefix(name, "range_"):
		return Hints{Widget: "range", Minimum: floatPtr(0), Maximum: floatPtr(100)}
	case strings.HasPrefix(name, "readonly_"):
		return Hints{ReadOnly: true}
	case strings.HasPrefix(name, "hidden_"):
		return Hints{Widget: "hidden"}
	case strings.HasPrefix(name, "color_"):
		return Hints{Widget: "color"}
	case strings.HasPrefix(name, "date_"):
		return Hints{Widget: "date"}
	case strings.HasPrefix(name, "time_"):
		return Hints{Widget: "time"}
	case strings.HasPrefix(name, "datetime_"):
		return Hints{Widget: "datetime-local"}
	case strings.HasPrefix(name, "email_"):
		return Hints{Widget: "email"}
	case strings.HasPrefix(name, "url_"):
		return Hints{Widget: "url"}
	case strings.HasPrefix(name, "tel_"):
		return Hints{Widget: "tel"}
	case strings.HasPrefix(name, "textarea_"):
		return Hints{Widget: "textarea"}
	case strings.HasPrefix(name, "password_"):
		return Hints{Widget: "password"}
	case strings.HasPrefix(name, "number_"):
		return Hints{Widget: "updown"}
	case strings.HasPrefix(name, "checkbox_"):
		return Hints{Widget: "checkbox"}
	case strings.HasPrefix(name, "list_"), strings.HasPrefix(name, "array_"):
		return Hints{Options: map[string]bool{"addable": true, "removable": true, "orderable": true}}
	case strings.HasPrefix(name, "tags_"):
		return Hints{Options: map[string]bool{"addable": true, "removable": true}}
	default:
		return Hints{}
	}
}

// UISchema builds the per-variable hint map for the whole mesh. Computed
// variables are read-only by default: they can only be edited when they
// carry an explicit initial value (the bidirectional case) or a slider_
// prefix.
func UISchema(model *config.Model, m *mesh.Mesh) map[string]Hints {
	out := make(map[string]Hints)

	for _, name := range m.Variables() {
		hints := HintFor(name)

		if m.IsComputed(name) && !hints.ReadOnly && !strings.HasPrefix(name, "slider_") {
			editable := false
			if v, ok := model.Variable(name); ok && v.Initial != cty.NilVal && !v.Initial.IsNull() {
				editable = true
			}
			if !editable {
				hints.ReadOnly = true
			}
		}

		if !hints.isZero() {
			out[name] = hints
		}
	}

	return out
}

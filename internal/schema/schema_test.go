package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/i2mint/rh/internal/config"
	"github.com/i2mint/rh/internal/mesh"
	"github.com/i2mint/rh/internal/schema"
)

func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

func TestGenerateInfersTypes(t *testing.T) {
	model := &config.Model{
		Variables: []*config.Variable{
			{Name: "count", Initial: cty.NumberIntVal(3)},
			{Name: "ratio", Initial: cty.NumberFloatVal(1.5)},
			{Name: "label", Initial: cty.StringVal("hi")},
			{Name: "active", Initial: cty.True},
			{Name: "scores", Initial: cty.TupleVal([]cty.Value{cty.NumberIntVal(1)})},
		},
		Computed: []*config.Computed{
			{Name: "derived", Inputs: []string{"count", "ratio", "label", "active", "scores"}},
		},
	}
	m := mesh.Compile(model.Decls())

	doc, err := schema.Generate(model, m)
	require.NoError(t, err)

	assert.Equal(t, "object", doc.Type)
	assert.Equal(t, "integer", doc.Properties["count"].Type)
	assert.Equal(t, "number", doc.Properties["ratio"].Type)
	assert.Equal(t, "string", doc.Properties["label"].Type)
	assert.Equal(t, "boolean", doc.Properties["active"].Type)

	scores := doc.Properties["scores"]
	assert.Equal(t, "array", scores.Type)
	require.NotNil(t, scores.Items)
	assert.Equal(t, "integer", scores.Items.Type)

	// No initial value defaults to number, like the engine's typing.
	assert.Equal(t, "number", doc.Properties["derived"].Type)
}

func TestGenerateAppliesOverrides(t *testing.T) {
	model := &config.Model{
		Variables: []*config.Variable{
			{
				Name:    "weight",
				Initial: cty.NumberFloatVal(70),
				Schema: config.Overrides{
					Minimum: floatPtr(1),
					Maximum: floatPtr(500),
				},
			},
			{
				Name:    "username",
				Initial: cty.StringVal(""),
				Schema: config.Overrides{
					MinLength: func() *int { n := 3; return &n }(),
					Pattern:   "^[a-z]+$",
					ReadOnly:  boolPtr(true),
				},
			},
			{
				Name:    "unit",
				Initial: cty.StringVal("kg"),
				Schema: config.Overrides{
					Enum: []cty.Value{cty.StringVal("kg"), cty.StringVal("lb")},
				},
			},
		},
		Computed: []*config.Computed{
			{Name: "out", Inputs: []string{"weight", "username", "unit"}},
		},
	}
	m := mesh.Compile(model.Decls())

	doc, err := schema.Generate(model, m)
	require.NoError(t, err)

	weight := doc.Properties["weight"]
	assert.Equal(t, 1.0, *weight.Minimum)
	assert.Equal(t, 500.0, *weight.Maximum)
	assert.Equal(t, "Value must be between 1 and 500", weight.Description)

	username := doc.Properties["username"]
	assert.True(t, username.ReadOnly)
	assert.Equal(t, "^[a-z]+$", username.Pattern)
	assert.Contains(t, username.Description, "Must match pattern")
	assert.Contains(t, username.Description, "Minimum length: 3")

	unit := doc.Properties["unit"]
	assert.Equal(t, []any{"kg", "lb"}, unit.Enum)
	assert.Equal(t, "Allowed values: kg, lb", unit.Description)
}

func TestExplicitDescriptionWins(t *testing.T) {
	model := &config.Model{
		Variables: []*config.Variable{
			{
				Name:    "weight",
				Initial: cty.NumberFloatVal(70),
				Schema: config.Overrides{
					Description: "Weight in kilograms",
					Minimum:     floatPtr(1),
				},
			},
		},
		Computed: []*config.Computed{{Name: "out", Inputs: []string{"weight"}}},
	}
	m := mesh.Compile(model.Decls())

	doc, err := schema.Generate(model, m)
	require.NoError(t, err)

	assert.Equal(t, "Weight in kilograms", doc.Properties["weight"].Description)
}

func TestHintFor(t *testing.T) {
	cases := []struct {
		name   string
		widget string
	}{
		{"color_background", "color"},
		{"date_start", "date"},
		{"time_alarm", "time"},
		{"datetime_meeting", "datetime-local"},
		{"email_contact", "email"},
		{"url_homepage", "url"},
		{"tel_mobile", "tel"},
		{"textarea_notes", "textarea"},
		{"password_secret", "password"},
		{"number_count", "updown"},
		{"checkbox_agree", "checkbox"},
		{"hidden_state", "hidden"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.widget, schema.HintFor(tc.name).Widget)
		})
	}

	t.Run("slider gets a default range", func(t *testing.T) {
		h := schema.HintFor("slider_volume")
		assert.Equal(t, "range", h.Widget)
		assert.Equal(t, 0.0, *h.Minimum)
		assert.Equal(t, 100.0, *h.Maximum)
	})

	t.Run("readonly", func(t *testing.T) {
		assert.True(t, schema.HintFor("readonly_total").ReadOnly)
	})

	t.Run("collections", func(t *testing.T) {
		list := schema.HintFor("list_items")
		assert.True(t, list.Options["orderable"])
		tags := schema.HintFor("tags_labels")
		assert.True(t, tags.Options["addable"])
		assert.False(t, tags.Options["orderable"])
	})

	t.Run("plain names get no hints", func(t *testing.T) {
		assert.Equal(t, schema.Hints{}, schema.HintFor("celsius"))
	})
}

func TestUISchemaComputedReadOnlyByDefault(t *testing.T) {
	model := &config.Model{
		Variables: []*config.Variable{
			{Name: "celsius", Initial: cty.NumberIntVal(20)},
			{Name: "fahrenheit", Initial: cty.NumberIntVal(68)},
		},
		Computed: []*config.Computed{
			{Name: "fahrenheit", Inputs: []string{"celsius"}},
			{Name: "celsius", Inputs: []string{"fahrenheit"}},
			{Name: "kelvin", Inputs: []string{"celsius"}},
			{Name: "slider_intensity", Inputs: []string{"celsius"}},
		},
	}
	m := mesh.Compile(model.Decls())

	ui := schema.UISchema(model, m)

	// One-way computed without an initial value is locked.
	assert.True(t, ui["kelvin"].ReadOnly)
	// Both sides of a bidirectional pair have initial values, so both
	// stay editable and carry no hints at all.
	assert.NotContains(t, ui, "celsius")
	assert.NotContains(t, ui, "fahrenheit")
	// A slider prefix keeps a computed variable editable.
	assert.False(t, ui["slider_intensity"].ReadOnly)
	assert.Equal(t, "range", ui["slider_intensity"].Widget)
}

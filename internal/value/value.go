// Package value defines the tagged-union value layer of the mesh.
//
// Every variable in a mesh holds a cty.Value: numbers, strings, booleans
// and lists can coexist in one value set. The package also bridges cty
// values to native Go values for the expression engine and for JSON
// transport, and infers each variable's declared type from its first
// non-missing initial value.
package value

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Set is the full value set of a mesh: every known variable name, source
// and computed alike, mapped to its current value. A propagation pass
// operates on a private clone, so a Set owned by a caller is never
// partially updated.
type Set map[string]cty.Value

// Clone returns an independent shallow copy. cty values are immutable, so
// a shallow copy is a full snapshot.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Names returns the variable names in the set, sorted for stable output.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// FromNative converts a native Go value into a cty.Value. It accepts the
// types that JSON and YAML decoding produce: bool, string, integer and
// float kinds, []any and map[string]any. A nil input becomes a null number.
func FromNative(v any) (cty.Value, error) {
	switch t := v.(type) {
	case nil:
		return cty.NullVal(cty.Number), nil
	case bool:
		return cty.BoolVal(t), nil
	case string:
		return cty.StringVal(t), nil
	case int:
		return cty.NumberIntVal(int64(t)), nil
	case int32:
		return cty.NumberIntVal(int64(t)), nil
	case int64:
		return cty.NumberIntVal(t), nil
	case uint64:
		return cty.NumberUIntVal(t), nil
	case float32:
		return cty.NumberFloatVal(float64(t)), nil
	case float64:
		return cty.NumberFloatVal(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return cty.NumberFloatVal(f), nil
	case []any:
		if len(t) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(t))
		for i, e := range t {
			ev, err := FromNative(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		if len(t) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(t))
		for k, e := range t {
			ev, err := FromNative(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("attribute %q: %w", k, err)
			}
			attrs[k] = ev
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported native value of type %T", v)
	}
}

// ToNative converts a cty.Value into the native Go representation used by
// the expression engine: float64, string, bool, []any, map[string]any.
// Null values become nil.
func ToNative(v cty.Value) (any, error) {
	if v == cty.NilVal {
		return nil, nil
	}
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("cannot convert unknown value")
	}

	ty := v.Type()
	switch {
	case ty == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f, nil
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			n, err := ToNative(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			n, err := ToNative(ev)
			if err != nil {
				return nil, err
			}
			out[kv.AsString()] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}

// InferTypes derives the declared type of every variable from its first
// non-missing initial value. Variables with no initial value default to
// cty.Number, matching how untyped computed variables behave.
func InferTypes(names []string, initial Set) map[string]cty.Type {
	types := make(map[string]cty.Type, len(names))
	for _, name := range names {
		if v, ok := initial[name]; ok && v != cty.NilVal && !v.IsNull() {
			types[name] = v.Type()
		} else {
			types[name] = cty.Number
		}
	}
	return types
}

// EnsureDefaults returns a copy of s where every named variable that has
// no value gets the zero value of its declared type: 0, "", false, or an
// empty collection. Used at startup so computations never see a missing
// input.
func EnsureDefaults(s Set, types map[string]cty.Type) Set {
	out := s.Clone()
	for name, ty := range types {
		if _, ok := out[name]; ok {
			continue
		}
		out[name] = ZeroOf(ty)
	}
	return out
}

// ZeroOf returns the zero value of a declared type.
func ZeroOf(ty cty.Type) cty.Value {
	switch {
	case ty == cty.Number:
		return cty.Zero
	case ty == cty.String:
		return cty.StringVal("")
	case ty == cty.Bool:
		return cty.False
	case ty.IsListType():
		return cty.ListValEmpty(ty.ElementType())
	case ty.IsTupleType():
		return cty.EmptyTupleVal
	case ty.IsMapType():
		return cty.MapValEmpty(ty.ElementType())
	case ty.IsObjectType():
		return cty.EmptyObjectVal
	default:
		return cty.NullVal(ty)
	}
}

// Coerce converts v to the declared type ty. Tuple results are converted
// to the corresponding list type when the declared type is a list.
func Coerce(v cty.Value, ty cty.Type) (cty.Value, error) {
	out, err := convert.Convert(v, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot convert %s to %s: %w",
			v.Type().FriendlyName(), ty.FriendlyName(), err)
	}
	return out, nil
}

// MarshalJSON encodes the set as a plain JSON object, without cty type
// metadata, for transport to the form client.
func (s Set) MarshalJSON() ([]byte, error) {
	out := make(map[string]ctyjson.SimpleJSONValue, len(s))
	for k, v := range s {
		out[k] = ctyjson.SimpleJSONValue{Value: v}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a plain JSON object into a set, inferring cty
// types from the JSON shapes.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw map[string]ctyjson.SimpleJSONValue
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Set, len(raw))
	for k, v := range raw {
		out[k] = v.Value
	}
	*s = out
	return nil
}

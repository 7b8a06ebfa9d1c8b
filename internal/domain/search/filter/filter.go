// Package filter implements metadata equality filters for search.
package filter

import (
	"fmt"
	"reflect"
)

// MaxFields is the maximum number of fields in a single filter.
const MaxFields = 32

// Filter is a conjunction of metadata field equality conditions.
// A nil required value matches documents where the field is absent or nil.
type Filter struct {
	fields map[string]any
}

// New validates and creates a Filter.
func New(fields map[string]any) (Filter, error) {
	if len(fields) > MaxFields {
		return Filter{}, fmt.Errorf("too many filter fields (max %d)", MaxFields)
	}
	for key := range fields {
		if key == "" {
			return Filter{}, fmt.Errorf("filter field name is required")
		}
	}
	return Filter{fields: fields}, nil
}

// IsEmpty reports whether the filter has no conditions.
func (f Filter) IsEmpty() bool { return len(f.fields) == 0 }

// Fields returns the field conditions.
func (f Filter) Fields() map[string]any { return f.fields }

// Matches reports whether metadata satisfies every condition (logical AND).
func (f Filter) Matches(metadata map[string]any) bool {
	for key, want := range f.fields {
		got, ok := metadata[key]
		if want == nil {
			if ok && got != nil {
				return false
			}
			continue
		}
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares JSON-like scalar and collection values.
// Numeric values compare by float64 value so that int metadata matches
// filters decoded from JSON (which always carry float64).
func valuesEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

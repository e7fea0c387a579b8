package model

import (
	"fmt"
	"sort"
)

// Attributes is an open mapping of attribute keys to values. Missing keys
// read as nil, so callers never need a presence check before a lookup.
type Attributes map[string]any

// Lookup returns the value stored under key and whether it was present.
func (a Attributes) Lookup(key string) (any, bool) {
	v, ok := a[key]
	return v, ok
}

// Value returns the value stored under key, or nil when it is absent.
func (a Attributes) Value(key string) any {
	return a[key]
}

func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// String renders the value stored under key. Absent and nil values render
// as the empty string.
func (a Attributes) String(key string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return ""
	}

	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}

// NonEmpty reports whether key is present, not nil and renders to a
// non-empty string.
func (a Attributes) NonEmpty(key string) bool {
	v, ok := a[key]
	if !ok || v == nil {
		return false
	}

	switch t := v.(type) {
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case []byte:
		return len(t) > 0
	}

	return a.String(key) != ""
}

// Keys returns the attribute keys in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

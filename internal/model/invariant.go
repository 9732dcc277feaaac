package model

import (
	"sort"
	"strings"
)

// FieldErrors reports entity invariant violations keyed by JSON field name.
// It is returned by the Validate methods and surfaced as VALIDATION_ERROR fields.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "invalid entity: " + strings.Join(parts, "; ")
}

// orNil returns nil when no violation was recorded, so callers can `return f.orNil()`.
func (f FieldErrors) orNil() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

package docstore

import (
	"reflect"
	"time"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

// copyDocument deep-copies nested maps and slices. Scalars are immutable
// and shared.
func copyDocument(doc ports.Document) ports.Document {
	if doc == nil {
		return nil
	}
	out := make(ports.Document, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case ports.Document:
		return copyDocument(t)
	case map[string]any:
		return map[string]any(copyDocument(t))
	case map[string]string:
		m := make(map[string]string, len(t))
		for k, s := range t {
			m[k] = s
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = copyValue(e)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	}
	return v
}

// equalValues compares two document values. Numbers compare by value
// whatever their Go type, since each backend decodes them differently.
func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

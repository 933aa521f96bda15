package inventory

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// =============================================================================
// NESTED RESPONSE EXTRACTION UTILITIES
// =============================================================================
//
// A service response is a deserialized tree of map[string]any and []any.
// Any level may be missing or carry an unexpected type. These helpers report
// absence as (zero, false) instead of panicking, so callers can treat a
// malformed branch exactly like a missing one.
//
// Leaf values can arrive as any of:
//   - json.Number:  decoder configured with UseNumber (SnapshotClient)
//   - float64:      plain encoding/json decoding
//   - int, int64:   yaml.v3 decoding or hand-built fixtures
//   - string:       64-bit ids encoded as text
//   - bool

// Lookup walks root through successive map keys. It returns (nil, false) as
// soon as a key is missing or a level is not a map.
func Lookup(root any, path ...string) (any, bool) {
	cur := root
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		next, ok := m[key]
		if !ok || next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Response:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

// List extracts a list value. Returns (nil, false) if v is not a list.
func List(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

// Int extracts an integer value. Floats are accepted only when integral.
// Returns (0, false) if the type is incompatible.
func Int(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// Bool extracts a boolean flag. Non-zero numbers count as true because the
// service encodes some flags (favorite) as integers.
func Bool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, false
		}
		return parsed, true
	default:
		if n, ok := Int(v); ok {
			return n != 0, true
		}
		return false, false
	}
}

// String extracts a textual representation of a scalar. Numbers are rendered
// in decimal without loss so 64-bit identifiers survive intact.
func String(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case int, int64, int32, uint64:
		return fmt.Sprintf("%d", s), true
	case float64:
		if s == math.Trunc(s) && math.Abs(s) < 1<<53 {
			return strconv.FormatInt(int64(s), 10), true
		}
		return strconv.FormatFloat(s, 'g', -1, 64), true
	default:
		return "", false
	}
}

// IntAt is Lookup followed by Int.
func IntAt(root any, path ...string) (int64, bool) {
	v, ok := Lookup(root, path...)
	if !ok {
		return 0, false
	}
	return Int(v)
}

// BoolAt is Lookup followed by Bool.
func BoolAt(root any, path ...string) (bool, bool) {
	v, ok := Lookup(root, path...)
	if !ok {
		return false, false
	}
	return Bool(v)
}

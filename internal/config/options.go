package config

import "strconv"

// Options is a free-form bag of per-component settings decoded from config
// JSON. Getters are forgiving: a missing or mistyped value yields the
// caller's default rather than an error, so optional knobs never block a run.
type Options map[string]any

// Any returns the raw value for name, or nil when absent.
func (o Options) Any(name string) any {
	if o == nil {
		return nil
	}
	return o[name]
}

// String returns the value for name as a string, or def.
func (o Options) String(name, def string) string {
	if s, ok := o.Any(name).(string); ok {
		return s
	}
	return def
}

// Bool returns the value for name as a bool, or def. String forms "true" and
// "false" are accepted because env-substituted configs often carry them.
func (o Options) Bool(name string, def bool) bool {
	switch v := o.Any(name).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Int returns the value for name as an int, or def. JSON numbers decode as
// float64, so that form is accepted alongside int and numeric strings.
func (o Options) Int(name string, def int) int {
	switch v := o.Any(name).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Rune returns the first rune of the string value for name, or def. Useful
// for single-character knobs like the CSV delimiter.
func (o Options) Rune(name string, def rune) rune {
	if s, ok := o.Any(name).(string); ok {
		for _, r := range s {
			return r
		}
	}
	return def
}

// StringMap returns the value for name as a map[string]string. Non-string
// values inside the map are skipped. Returns nil when absent.
func (o Options) StringMap(name string) map[string]string {
	raw, ok := o.Any(name).(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

package domain

// Fields is the structured data extracted from a document. Values are strings,
// ISO 8601 date strings, float64 amounts, or int counts depending on the field.
// A field that was not found in the source text is simply absent from the map;
// extraction never fabricates values and never fails on a missing pattern.
type Fields map[string]any

// Str returns the string value for key, if present.
func (f Fields) Str(key string) (string, bool) {
	v, ok := f[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Num returns the numeric value for key, if present. Int values are widened.
func (f Fields) Num(key string) (float64, bool) {
	switch v := f[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

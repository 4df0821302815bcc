package anchor

// cloneMetadata deep-copies a value produced by YAML or JSON decoding so two
// anchors never share mutable maps or slices.
func cloneMetadata(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneMetadata(val)
		}
		return out
	case map[any]any:
		out := make(map[any]any, len(t))
		for k, val := range t {
			out[k] = cloneMetadata(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneMetadata(val)
		}
		return out
	default:
		return v
	}
}

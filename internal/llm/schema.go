package llm

// BuildFillJSONSchema returns the schema a field-filler reply must satisfy:
// an object whose keys are a subset of fields, each a non-empty string.
func BuildFillJSONSchema(fields []string) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f] = map[string]any{"type": "string", "minLength": 1}
	}
	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

// BuildRankJSONSchema returns the schema for a normalised similarity reply.
func BuildRankJSONSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"similar_cases": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"maxItems": 20,
			},
			"similarity_reasons": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"analysis":        map[string]any{"type": "string"},
			"recommendations": map[string]any{"type": "string"},
		},
		"required":             []string{"similar_cases", "similarity_reasons", "analysis", "recommendations"},
		"additionalProperties": false,
	}
}

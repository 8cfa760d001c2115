package rules

import "eicr-case-reader/internal/domain"

// buildRuleSetJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. Rule files are validated against it before unmarshalling so
// a typo in a kind or normalizer fails at load time with a useful message.
func buildRuleSetJSONSchema() map[string]any {
	kinds := make([]string, 0, len(domain.KnownSectionKinds))
	for _, k := range domain.KnownSectionKinds {
		kinds = append(kinds, string(k))
	}
	normalizers := make([]string, 0, len(NormalizerNames))
	normalizers = append(normalizers, NormalizerNames...)

	patternList := map[string]any{
		"type":     "array",
		"minItems": 1,
		"items":    map[string]any{"type": "string", "minLength": 1},
	}

	heading := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"kind":     map[string]any{"type": "string", "enum": kinds},
			"literals": patternList,
		},
		"required": []string{"kind", "literals"},
	}

	field := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"field":       map[string]any{"type": "string", "minLength": 1},
			"kind":        map[string]any{"type": "string", "enum": kinds},
			"anchors":     patternList,
			"value":       map[string]any{"type": "string"},
			"line_offset": map[string]any{"type": "integer", "minimum": 0},
			"normalizer":  map[string]any{"type": "string", "enum": normalizers},
			"vocabulary": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
		"required": []string{"field", "kind", "anchors", "normalizer"},
	}

	column := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"match":      map[string]any{"type": "string", "minLength": 1},
			"field":      map[string]any{"type": "string", "minLength": 1},
			"normalizer": map[string]any{"type": "string", "enum": normalizers},
		},
		"required": []string{"match", "field", "normalizer"},
	}

	table := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"kind":    map[string]any{"type": "string", "enum": kinds},
			"columns": map[string]any{"type": "array", "minItems": 1, "items": column},
			"stop":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"kind", "columns"},
	}

	documentID := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"patterns": patternList,
		},
		"required": []string{"patterns"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"version":     map[string]any{"type": "string", "minLength": 1},
			"headings":    map[string]any{"type": "array", "minItems": 1, "items": heading},
			"fields":      map[string]any{"type": "array", "items": field},
			"tables":      map[string]any{"type": "array", "items": table},
			"document_id": documentID,
		},
		"required": []string{"version", "headings"},
	}
}

package rubric

import "github.com/abhisek/lessondiag/internal/llm"

// score accepts numbers or strings such as "85分"; models return both.
var score = map[string]any{"type": []any{"number", "string"}}

// CompletenessSchema describes the section-completeness verdict.
var CompletenessSchema = &llm.Schema{
	Name:        "section-completeness",
	Description: "Presence and substance of each canonical lesson section",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score":   score,
			"details": map[string]any{"type": "string"},
			"missing_sections": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"sections": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"section": map[string]any{"type": "string"},
						"points":  map[string]any{"type": "number"},
						"present": map[string]any{"type": "boolean"},
						"valid":   map[string]any{"type": "boolean"},
						"summary": map[string]any{"type": "string"},
					},
					"required": []any{"section", "present"},
				},
			},
		},
		"required": []any{"score", "sections"},
	},
}

// TimeAllocationSchema describes the time-allocation verdict.
var TimeAllocationSchema = &llm.Schema{
	Name:        "time-allocation",
	Description: "Per-section durations against the lesson time budget",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score":   score,
			"details": map[string]any{"type": "string"},
			"sections": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"section":              map[string]any{"type": "string"},
						"current_duration":     map[string]any{"type": "string"},
						"recommended_duration": map[string]any{"type": "string"},
						"reasonable":           map[string]any{"type": "boolean"},
					},
					"required": []any{"section", "current_duration"},
				},
			},
		},
		"required": []any{"score", "sections"},
	},
}

// LiteracySchema describes the literacy-match verdict.
var LiteracySchema = &llm.Schema{
	Name:        "literacy-match",
	Description: "Anchor-comparison scores for each literacy dimension",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"average_score": score,
			"dimensions": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"score":      score,
						"similarity": map[string]any{},
						"evidence": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
						"rationale": map[string]any{"type": "string"},
					},
					"required": []any{"score"},
				},
			},
		},
		"required": []any{"average_score", "dimensions"},
	},
}

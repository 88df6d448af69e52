package bank

import "github.com/abhisek/quiznote/internal/schema"

var answerValue = map[string]any{
	"oneOf": []any{
		map[string]any{"type": "string"},
		map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		map[string]any{"type": "null"},
	},
}

// DatasetSchema describes a range resource. Unknown fields are allowed.
var DatasetSchema = &schema.Schema{
	Name: "bank-range",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"qid":    map[string]any{"type": "string", "minLength": 1},
						"type":   map[string]any{"type": "string", "enum": []any{"mcq", "short", "essay"}},
						"prompt": map[string]any{"type": "string"},
						"choices": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"cid":  map[string]any{"type": "string"},
									"text": map[string]any{"type": "string"},
								},
								"required": []any{"cid", "text"},
							},
						},
					},
					"required": []any{"qid", "type", "prompt"},
				},
			},
			"answers": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"qid":     map[string]any{"type": "string"},
						"correct": answerValue,
					},
					"required": []any{"qid"},
				},
			},
			"explanations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"qid":         map[string]any{"type": "string"},
						"explanation": map[string]any{"type": "string"},
					},
					"required": []any{"qid"},
				},
			},
		},
		"required": []any{"questions"},
	},
}

// ManifestSchema describes index.json, the list of available ranges.
var ManifestSchema = &schema.Schema{
	Name: "bank-manifest",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ranges": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":       map[string]any{"type": "string", "minLength": 1},
						"title":    map[string]any{"type": "string"},
						"count":    map[string]any{"type": "integer", "minimum": 0},
						"mcqCount": map[string]any{"type": "integer", "minimum": 0},
					},
					"required": []any{"id"},
				},
			},
		},
		"required": []any{"ranges"},
	},
}

package llm

import "github.com/voyago/tripcraft/internal/domain"

// DefaultResponseSchema is the structured-output schema applied when the
// caller does not supply one: the answer text plus the generation duration
// the model reports about itself.
func DefaultResponseSchema() *domain.ResponseSchema {
	return &domain.ResponseSchema{
		Name:   "itinerary_answer",
		Strict: true,
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"answer": map[string]any{
					"type":        "string",
					"description": "The generated itinerary text",
				},
				"metadata": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"duration": map[string]any{
							"type":        "number",
							"description": "Generation duration in seconds",
						},
					},
					"required": []string{"duration"},
				},
			},
			"required":             []string{"answer", "metadata"},
			"additionalProperties": false,
		},
	}
}

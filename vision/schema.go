// JSON schemas for structured extraction output, one per question type.

package vision

import (
	"encoding/json"

	"github.com/promer94/image2questions/llm"
	"github.com/promer94/image2questions/questions"
)

var optionsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"a": map[string]any{"type": "string"},
		"b": map[string]any{"type": "string"},
		"c": map[string]any{"type": "string"},
		"d": map[string]any{"type": "string"},
	},
	"required": []string{"a", "b", "c", "d"},
}

var multipleChoiceItemSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":   map[string]any{"type": "string"},
		"options": optionsSchema,
	},
	"required": []string{"title", "options"},
}

var trueFalseItemSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title": map[string]any{"type": "string"},
	},
	"required": []string{"title"},
}

// formatFor builds the structured output format for a question type.
func formatFor(questionType questions.Type) *llm.ResponseFormat {
	var schema map[string]any
	var name string

	switch questionType {
	case questions.TypeTrueFalse:
		name = "true_false_questions"
		schema = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type":  "array",
					"items": trueFalseItemSchema,
				},
			},
			"required": []string{"questions"},
		}
	case questions.TypeMixed:
		name = "mixed_questions"
		schema = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"multiple_choice_questions": map[string]any{
					"type":  "array",
					"items": multipleChoiceItemSchema,
				},
				"true_false_questions": map[string]any{
					"type":  "array",
					"items": trueFalseItemSchema,
				},
			},
			"required": []string{"multiple_choice_questions", "true_false_questions"},
		}
	default:
		name = "multiple_choice_questions"
		schema = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type":  "array",
					"items": multipleChoiceItemSchema,
				},
			},
			"required": []string{"questions"},
		}
	}

	raw, _ := json.Marshal(schema)
	return llm.NewJSONSchemaFormat(name, raw)
}

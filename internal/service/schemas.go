package service

import "eduforge_backend/internal/llm"

// JSON schemas for structured agent outputs. Drafts are validated against
// these before anything touches the stores.

var quizOptionsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"A": map[string]any{"type": "string"},
		"B": map[string]any{"type": "string"},
		"C": map[string]any{"type": "string"},
		"D": map[string]any{"type": "string"},
	},
	"required":             []any{"A", "B", "C", "D"},
	"additionalProperties": false,
}

var sectionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"kind":        map[string]any{"type": "string"},
		"content":     map[string]any{"type": "string"},
		"order":       map[string]any{"type": "integer", "minimum": 1},
		"options":     quizOptionsSchema,
		"answer":      map[string]any{"type": "string", "enum": []any{"A", "B", "C", "D"}},
		"explanation": map[string]any{"type": "string"},
	},
	"required":             []any{"kind", "content", "order"},
	"additionalProperties": false,
}

var lessonSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":       map[string]any{"type": "string", "minLength": 1},
		"description": map[string]any{"type": "string"},
		"order":       map[string]any{"type": "integer", "minimum": 1},
		"sections": map[string]any{
			"type":  "array",
			"items": sectionSchema,
		},
	},
	"required":             []any{"title", "description", "order"},
	"additionalProperties": false,
}

var questionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"content":    map[string]any{"type": "string", "minLength": 1},
		"type":       map[string]any{"type": "string", "enum": []any{"multiple_choice", "single_choice", "essay"}},
		"difficulty": map[string]any{"type": "string"},
		"options": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "string"},
		},
		"answer": map[string]any{"type": "string"},
		"order":  map[string]any{"type": "integer", "minimum": 1},
	},
	"required":             []any{"content", "type", "answer", "order"},
	"additionalProperties": false,
}

var testSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"durationMinutes": map[string]any{"type": "integer", "minimum": 1},
		"questions": map[string]any{
			"type":  "array",
			"items": questionSchema,
		},
	},
	"required":             []any{"durationMinutes", "questions"},
	"additionalProperties": false,
}

// CourseDraftSchema validates the composition agent's final payload.
var CourseDraftSchema = &llm.Schema{
	Name:        "course-draft",
	Description: "A complete course structure draft with ordered topics",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":       map[string]any{"type": "string", "minLength": 1},
			"description": map[string]any{"type": "string"},
			"level":       map[string]any{"type": "string"},
			"duration":    map[string]any{"type": "integer", "minimum": 0},
			"topics": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":        map[string]any{"type": "string", "minLength": 1},
						"description": map[string]any{"type": "string"},
						"prerequisites": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
						"skills": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
						"order": map[string]any{"type": "integer", "minimum": 1},
						"lessons": map[string]any{
							"type":  "array",
							"items": lessonSchema,
						},
						"test": testSchema,
					},
					"required":             []any{"name", "description", "order"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"title", "description", "topics"},
		"additionalProperties": false,
	},
}

// LessonListSchema validates the lesson generator's output.
var LessonListSchema = &llm.Schema{
	Name:        "lesson-list",
	Description: "Generated lessons with ordered sections",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"lessons": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    lessonSchema,
			},
		},
		"required":             []any{"lessons"},
		"additionalProperties": false,
	},
}

// ExerciseSchema validates a single generated exercise.
var ExerciseSchema = &llm.Schema{
	Name:        "exercise",
	Description: "A programming exercise with test cases",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":        map[string]any{"type": "string", "minLength": 1},
			"description":  map[string]any{"type": "string", "minLength": 1},
			"category":     map[string]any{"type": "string"},
			"difficulty":   map[string]any{"type": "string"},
			"content":      map[string]any{"type": "string"},
			"codeTemplate": map[string]any{"type": "string"},
			"testCases": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input":          map[string]any{"type": "string"},
						"expectedOutput": map[string]any{"type": "string"},
						"explanation":    map[string]any{"type": "string"},
					},
					"required":             []any{"input", "expectedOutput"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"title", "description", "difficulty", "content", "testCases"},
		"additionalProperties": false,
	},
}

// EntryTestSchema validates the entry-test generator's output.
var EntryTestSchema = &llm.Schema{
	Name:        "entry-test",
	Description: "A placement test covering every topic of a course",
	Definition:  testSchema,
}

// AssessmentSchema validates the assessment agent's output.
var AssessmentSchema = &llm.Schema{
	Name:        "assessment",
	Description: "Skill weakness analysis for a submitted test session",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"skillName": map[string]any{"type": "string", "minLength": 1},
			"weaknesses": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"weaknessAnalysis": map[string]any{"type": "string"},
			"improvementSuggestions": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"currentLevel":     map[string]any{"type": "string"},
			"weaknessSeverity": map[string]any{"type": "string", "enum": []any{"Low", "Medium", "High"}},
		},
		"required":             []any{"skillName", "weaknesses", "weaknessAnalysis", "currentLevel", "weaknessSeverity"},
		"additionalProperties": false,
	},
}

// GapAnalysisSchema validates the review planner's gap map.
var GapAnalysisSchema = &llm.Schema{
	Name:        "gap-analysis",
	Description: "Prioritized skill gaps with recommended exercise types",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"gaps": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"skill":    map[string]any{"type": "string", "minLength": 1},
						"priority": map[string]any{"type": "integer", "minimum": 1},
						"exerciseTypes": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
					"required":             []any{"skill", "priority"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"gaps"},
		"additionalProperties": false,
	},
}

func schemaByName(name string) *llm.Schema {
	switch name {
	case CourseDraftSchema.Name:
		return CourseDraftSchema
	case LessonListSchema.Name:
		return LessonListSchema
	case ExerciseSchema.Name:
		return ExerciseSchema
	case EntryTestSchema.Name:
		return EntryTestSchema
	case AssessmentSchema.Name:
		return AssessmentSchema
	case GapAnalysisSchema.Name:
		return GapAnalysisSchema
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"eduforge_backend/internal/agent"
	"eduforge_backend/internal/knowledge"
	"eduforge_backend/internal/llm"
	"eduforge_backend/internal/model"
)

// Retriever is the slice of the knowledge store the tools need.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int, filter knowledge.Metadata) ([]knowledge.Chunk, error)
}

// ExerciseSearcher probes the exercise namespace for similar exercises.
type ExerciseSearcher interface {
	FindSimilar(ctx context.Context, description string, k int) ([]SimilarExercise, error)
}

// CourseReader exposes the course topic tree to the entry-test agent.
type CourseReader interface {
	GetCourseTopicsWithSkillsAndLessons(courseID uint) ([]model.Topic, error)
}

// SessionReader exposes test sessions to the assessment agent.
type SessionReader interface {
	GetTestSession(id string) (*model.TestSession, error)
}

// ToolDeps collects the collaborators behind the registered tools.
// GenerateExercise is bound late, after the exercise service exists.
type ToolDeps struct {
	Documents Retriever
	Exercises ExerciseSearcher
	Courses   CourseReader
	Sessions  SessionReader
	Gateway   llm.Gateway

	GenerateExercise func(ctx context.Context, req ExerciseRequest) (*ExerciseDetail, error)
}

const defaultRetrieveK = 5

type retrieveArgs struct {
	Query string `json:"query" jsonschema:"required,description=What to look up in the reference material"`
	TopK  int    `json:"topK,omitempty" jsonschema:"description=Number of passages to return"`
}

type retrieveExerciseArgs struct {
	Description string `json:"description" jsonschema:"required,description=Candidate exercise description to check for duplicates"`
	TopK        int    `json:"topK,omitempty"`
}

type fetchCourseTopicsArgs struct {
	CourseID uint `json:"courseId" jsonschema:"required,description=Course to read topics for"`
}

type fetchTestSessionArgs struct {
	SessionID string `json:"sessionId" jsonschema:"required,description=Test session id"`
}

type generateExerciseArgs struct {
	Topic      string `json:"topic" jsonschema:"required"`
	Lesson     string `json:"lesson,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

type generateLessonArgs struct {
	Scenario string `json:"scenario" jsonschema:"required,description=Free-form paragraph distilling what the lessons should teach"`
}

type analyzeSkillGapsArgs struct {
	Weaknesses string   `json:"weaknesses" jsonschema:"required,description=Description of the learner's weaknesses"`
	Skills     []string `json:"skills,omitempty" jsonschema:"description=Skills the learner wants to improve"`
	Goals      string   `json:"goals,omitempty"`
}

type outputRepairArgs struct {
	Output     string `json:"output" jsonschema:"required,description=The malformed output"`
	SchemaName string `json:"schemaName" jsonschema:"required,description=Name of the target schema"`
	Error      string `json:"error" jsonschema:"required,description=The validation error"`
}

// RegisterTools registers the full tool set on reg.
func RegisterTools(reg *agent.Registry, deps *ToolDeps) {
	reg.Register(agent.Tool{
		Name:        "retrieve",
		Description: "Retrieve reference passages from the knowledge store by semantic similarity.",
		Parameters:  agent.SchemaFor[retrieveArgs](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args retrieveArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, err
			}
			k := args.TopK
			if k <= 0 {
				k = defaultRetrieveK
			}
			chunks, err := deps.Documents.Retrieve(ctx, args.Query, k, nil)
			if err != nil {
				return nil, err
			}
			passages := make([]map[string]any, 0, len(chunks))
			for _, c := range chunks {
				passages = append(passages, map[string]any{
					"text":   c.Text,
					"source": c.Metadata["source"],
					"score":  c.Score,
				})
			}
			return map[string]any{"passages": passages}, nil
		},
	})

	reg.Register(agent.Tool{
		Name:        "retrieve_exercise",
		Description: "Find existing exercises similar to a candidate description.",
		Parameters:  agent.SchemaFor[retrieveExerciseArgs](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args retrieveExerciseArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, err
			}
			k := args.TopK
			if k <= 0 {
				k = 3
			}
			similar, err := deps.Exercises.FindSimilar(ctx, args.Description, k)
			if err != nil {
				return nil, err
			}
			return map[string]any{"exercises": similar}, nil
		},
	})

	reg.Register(agent.Tool{
		Name:        "fetch_course_topics",
		Description: "Read a course's topics with their skills and lesson titles.",
		Parameters:  agent.SchemaFor[fetchCourseTopicsArgs](),
		Handler: func(_ context.Context, raw json.RawMessage) (any, error) {
			var args fetchCourseTopicsArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, err
			}
			topics, err := deps.Courses.GetCourseTopicsWithSkillsAndLessons(args.CourseID)
			if err != nil {
				return nil, err
			}
			out := make([]map[string]any, 0, len(topics))
			for _, t := range topics {
				skills := make([]string, 0, len(t.Skills))
				for _, s := range t.Skills {
					skills = append(skills, s.Name)
				}
				lessons := make([]string, 0, len(t.Lessons))
				for _, l := range t.Lessons {
					lessons = append(lessons, l.Title)
				}
				out = append(out, map[string]any{
					"name":        t.Name,
					"description": t.Description,
					"order":       t.Order,
					"skills":      skills,
					"lessons":     lessons,
				})
			}
			return map[string]any{"topics": out}, nil
		},
	})

	reg.Register(agent.Tool{
		Name:        "fetch_test_session",
		Description: "Read a learner's test session with answers, score and status.",
		Parameters:  agent.SchemaFor[fetchTestSessionArgs](),
		Handler: func(_ context.Context, raw json.RawMessage) (any, error) {
			var args fetchTestSessionArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, err
			}
			session, err := deps.Sessions.GetTestSession(args.SessionID)
			if err != nil {
				return nil, err
			}
			return session, nil
		},
	})

	reg.Register(agent.Tool{
		Name:        "generate_exercise",
		Description: "Generate a new programming exercise for a topic.",
		Parameters:  agent.SchemaFor[generateExerciseArgs](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args generateExerciseArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, err
			}
			if deps.GenerateExercise == nil {
				return nil, errors.New("exercise generator not bound")
			}
			return deps.GenerateExercise(ctx, ExerciseRequest{
				Topic:      args.Topic,
				Lesson:     args.Lesson,
				Difficulty: args.Difficulty,
			})
		},
	})

	reg.Register(agent.Tool{
		Name:        "generate_lesson",
		Description: "Generate lessons from a distilled teaching scenario.",
		Parameters:  agent.SchemaFor[generateLessonArgs](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args generateLessonArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, err
			}
			out, err := llm.GenerateStructured(ctx, deps.Gateway, llm.ChatRequest{
				Profile: llm.ProfileCreative,
				Messages: []llm.Message{
					{Role: llm.RoleSystem, Content: "You write complete lessons for a programming-education platform."},
					{Role: llm.RoleUser, Content: args.Scenario},
				},
			}, LessonListSchema)
			if err != nil {
				return nil, err
			}
			return json.RawMessage(out), nil
		},
	})

	reg.Register(agent.Tool{
		Name:        "analyze_skill_gaps",
		Description: "Produce a prioritized skill-gap map from a learner's weaknesses and goals.",
		Parameters:  agent.SchemaFor[analyzeSkillGapsArgs](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args analyzeSkillGapsArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, err
			}
			prompt := fmt.Sprintf("Weaknesses: %s", args.Weaknesses)
			if len(args.Skills) > 0 {
				prompt += fmt.Sprintf("\nSkills to improve: %v", args.Skills)
			}
			if args.Goals != "" {
				prompt += fmt.Sprintf("\nGoals: %s", args.Goals)
			}
			out, err := llm.GenerateStructured(ctx, deps.Gateway, llm.ChatRequest{
				Profile: llm.ProfileDeterministic,
				Messages: []llm.Message{
					{Role: llm.RoleSystem, Content: "You map learner weaknesses to prioritized skill gaps with recommended exercise types."},
					{Role: llm.RoleUser, Content: prompt},
				},
			}, GapAnalysisSchema)
			if err != nil {
				return nil, err
			}
			return json.RawMessage(out), nil
		},
	})

	reg.Register(agent.Tool{
		Name:        "output_repair",
		Description: "Repair a malformed JSON output against a named schema.",
		Parameters:  agent.SchemaFor[outputRepairArgs](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args outputRepairArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, err
			}
			schema := schemaByName(args.SchemaName)
			if schema == nil {
				return nil, fmt.Errorf("unknown schema %q", args.SchemaName)
			}
			repaired, err := llm.Repair(ctx, deps.Gateway, schema, args.Output, errors.New(args.Error))
			if err != nil {
				return nil, err
			}
			return json.RawMessage(repaired), nil
		},
	})
}

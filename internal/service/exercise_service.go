package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"eduforge_backend/internal/agent"
	"eduforge_backend/internal/knowledge"
	"eduforge_backend/internal/llm"
	"eduforge_backend/internal/model"
)

// duplicateScoreThreshold is the cosine score above which an indexed
// exercise counts as a duplicate candidate.
const duplicateScoreThreshold = 0.9

type ExerciseRequest struct {
	Topic      string `json:"topic"`
	Lesson     string `json:"lesson,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
}

// ExerciseDetail is the generator's output, pre-persistence.
type ExerciseDetail struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Category     string             `json:"category,omitempty"`
	Difficulty   model.Difficulty   `json:"difficulty"`
	Content      string             `json:"content"`
	CodeTemplate string             `json:"codeTemplate,omitempty"`
	TestCases    []TestCaseDetail   `json:"testCases"`

	// DuplicateNote is set when the exercise was accepted despite remaining
	// similar to an existing one after a regeneration.
	DuplicateNote string `json:"duplicateNote,omitempty"`
}

type TestCaseDetail struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	Explanation    string `json:"explanation,omitempty"`
}

// SimilarExercise is a duplicate-probe hit from the exercise namespace.
type SimilarExercise struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Score       float32 `json:"score"`
}

// ExerciseStore is the persistence slice the service needs.
type ExerciseStore interface {
	Create(exercise *model.Exercise) error
}

// ExerciseService drives the exercise generator agent, guards against
// duplicates via the exercise namespace, and indexes what it persists.
type ExerciseService struct {
	runner  Runner
	gateway llm.Gateway
	index   knowledge.VectorIndex
	store   ExerciseStore
	tasks   *TaskRunner
	log     *zap.Logger
}

func NewExerciseService(runner Runner, gateway llm.Gateway, index knowledge.VectorIndex, store ExerciseStore, tasks *TaskRunner, log *zap.Logger) *ExerciseService {
	return &ExerciseService{runner: runner, gateway: gateway, index: index, store: store, tasks: tasks, log: log}
}

// ScheduleGenerate runs generation and persistence as a background task
// detached from the caller's context, so an HTTP timeout never cancels the
// agent mid-loop.
func (s *ExerciseService) ScheduleGenerate(req ExerciseRequest, topicID, lessonID *uint, skillTag string) {
	s.tasks.Go("exercise-generation", func(ctx context.Context) error {
		detail, err := s.Generate(ctx, req)
		if err != nil {
			return err
		}
		_, err = s.Persist(ctx, detail, topicID, lessonID, skillTag)
		return err
	})
}

// Generate produces one exercise for the request. A duplicate of an indexed
// exercise triggers one regeneration; a second duplicate is accepted and
// annotated. The result always carries at least three test cases.
func (s *ExerciseService) Generate(ctx context.Context, req ExerciseRequest) (*ExerciseDetail, error) {
	detail, err := s.generate(ctx, req, "")
	if err != nil {
		return nil, err
	}

	dup, err := s.duplicateOf(ctx, detail)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		note := fmt.Sprintf(
			"The description must not duplicate this existing exercise: %q — %s",
			dup.Title, dup.Description,
		)
		regenerated, err := s.generate(ctx, req, note)
		if err != nil {
			return nil, err
		}
		detail = regenerated

		second, err := s.duplicateOf(ctx, detail)
		if err != nil {
			return nil, err
		}
		if second != nil {
			detail.DuplicateNote = fmt.Sprintf("similar to existing exercise %q", second.Title)
			s.log.Warn("exercise still similar after regeneration",
				zap.String("title", detail.Title),
				zap.String("existing", second.Title))
		}
	}

	if len(detail.TestCases) < 3 {
		if err := s.extendTestCases(ctx, detail); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// Persist writes the exercise and indexes its description into the exercise
// namespace for future duplicate probes.
func (s *ExerciseService) Persist(ctx context.Context, detail *ExerciseDetail, topicID, lessonID *uint, skillTag string) (*model.Exercise, error) {
	content := detail.Content
	if detail.DuplicateNote != "" {
		content = content + "\n\n> " + detail.DuplicateNote
	}
	exercise := &model.Exercise{
		TopicID:      topicID,
		LessonID:     lessonID,
		Title:        detail.Title,
		Description:  detail.Description,
		Category:     detail.Category,
		Difficulty:   detail.Difficulty,
		Content:      content,
		CodeTemplate: detail.CodeTemplate,
		SkillTag:     skillTag,
		TestCases: lo.Map(detail.TestCases, func(tc TestCaseDetail, _ int) model.ExerciseTestCase {
			return model.ExerciseTestCase{
				Input:       tc.Input,
				Expected:    tc.ExpectedOutput,
				Explanation: tc.Explanation,
			}
		}),
	}
	if err := s.store.Create(exercise); err != nil {
		return nil, fmt.Errorf("persist exercise: %w", err)
	}

	if err := s.indexExercise(ctx, exercise); err != nil {
		// The exercise row exists; a missing index entry only weakens the
		// duplicate probe.
		s.log.Warn("exercise indexing failed",
			zap.Uint("exerciseId", exercise.ID),
			zap.Error(err))
	}
	return exercise, nil
}

// FindSimilar probes the exercise namespace for descriptions close to the
// candidate. Implements ExerciseSearcher.
func (s *ExerciseService) FindSimilar(ctx context.Context, description string, k int) ([]SimilarExercise, error) {
	vectors, err := s.gateway.Embed(ctx, []string{description})
	if err != nil {
		return nil, fmt.Errorf("embed candidate: %w", err)
	}
	hits, err := s.index.Query(ctx, vectors[0], k, nil)
	if err != nil {
		return nil, fmt.Errorf("query exercise index: %w", err)
	}

	similar := make([]SimilarExercise, 0, len(hits))
	for _, h := range hits {
		title, _ := h.Metadata["title"].(string)
		desc, _ := h.Metadata["description"].(string)
		similar = append(similar, SimilarExercise{
			ID:          h.ID,
			Title:       title,
			Description: desc,
			Score:       h.Score,
		})
	}
	return similar, nil
}

func (s *ExerciseService) generate(ctx context.Context, req ExerciseRequest, duplicateNote string) (*ExerciseDetail, error) {
	out, err := s.runner.Run(ctx, agent.Spec{
		Kind:         agent.KindExercise,
		SystemPrompt: exerciseSystemPrompt,
		UserPrompt:   exerciseUserPrompt(req, duplicateNote),
		Tools:        []string{"retrieve", "retrieve_exercise"},
		OutputSchema: ExerciseSchema,
		Profile:      llm.ProfileCreative,
		SessionID:    req.SessionID,
	})
	if err != nil {
		return nil, err
	}

	var detail ExerciseDetail
	if err := json.Unmarshal(out, &detail); err != nil {
		return nil, fmt.Errorf("decode exercise: %w", err)
	}
	detail.Difficulty = NormalizeDifficulty(string(detail.Difficulty))

	res := AgentResult{Kind: agent.KindExercise, Exercise: &detail}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res.Exercise, nil
}

// duplicateOf returns the indexed exercise the candidate duplicates, if any.
func (s *ExerciseService) duplicateOf(ctx context.Context, detail *ExerciseDetail) (*SimilarExercise, error) {
	similar, err := s.FindSimilar(ctx, detail.Description, 1)
	if err != nil {
		return nil, err
	}
	if len(similar) == 0 {
		return nil, nil
	}
	top := similar[0]
	if top.Score >= duplicateScoreThreshold || descriptionsMatch(detail.Description, top.Description) {
		return &top, nil
	}
	return nil, nil
}

// descriptionsMatch catches near-identical wordings the vector score alone
// may miss.
func descriptionsMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	rank := fuzzy.RankMatchNormalizedFold(a, b)
	return rank >= 0 && rank <= len(b)/5
}

var testCasesSchema = &llm.Schema{
	Name:        "test-cases",
	Description: "Additional test cases for an exercise",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"testCases": map[string]any{
				"type":     "array",
				"minItems": 3,
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
		"required":             []any{"testCases"},
		"additionalProperties": false,
	},
}

// extendTestCases asks the model for a full set of at least three cases when
// the generated exercise came up short.
func (s *ExerciseService) extendTestCases(ctx context.Context, detail *ExerciseDetail) error {
	existing, _ := json.Marshal(detail.TestCases)
	out, err := llm.GenerateStructured(ctx, s.gateway, llm.ChatRequest{
		Profile: llm.ProfileDeterministic,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You write test cases for programming exercises."},
			{Role: llm.RoleUser, Content: fmt.Sprintf(
				"This exercise has too few test cases. Produce a complete set of at least three, keeping the existing ones where sensible.\n\nExercise: %s\n%s\n\nExisting test cases: %s",
				detail.Title, detail.Description, existing,
			)},
		},
	}, testCasesSchema)
	if err != nil {
		return fmt.Errorf("extend test cases: %w", err)
	}

	var payload struct {
		TestCases []TestCaseDetail `json:"testCases"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return fmt.Errorf("decode test cases: %w", err)
	}
	detail.TestCases = payload.TestCases
	return nil
}

func (s *ExerciseService) indexExercise(ctx context.Context, exercise *model.Exercise) error {
	vectors, err := s.gateway.Embed(ctx, []string{exercise.Description})
	if err != nil {
		return err
	}
	return s.index.Upsert(ctx, []knowledge.Vector{{
		ID:     fmt.Sprintf("exercise_%d", exercise.ID),
		Values: vectors[0],
		Metadata: knowledge.SanitizeMetadata(knowledge.Metadata{
			"title":       exercise.Title,
			"description": exercise.Description,
			"difficulty":  string(exercise.Difficulty),
			"exercise_id": int(exercise.ID),
		}),
	}})
}

// NormalizeDifficulty maps free-form difficulty strings onto the enum.
func NormalizeDifficulty(raw string) model.Difficulty {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "beginner", "easy", "basic", "introductory":
		return model.DifficultyBeginner
	case "advanced", "hard", "expert", "difficult":
		return model.DifficultyAdvanced
	default:
		return model.DifficultyIntermediate
	}
}

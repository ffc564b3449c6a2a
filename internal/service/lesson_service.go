package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"eduforge_backend/internal/agent"
	"eduforge_backend/internal/draft"
	"eduforge_backend/internal/llm"
	"eduforge_backend/internal/model"
)

type LessonRequest struct {
	TopicName   string `json:"topicName"`
	LessonTitle string `json:"lessonTitle,omitempty"`
	Description string `json:"description,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	LessonType  string `json:"lessonType,omitempty"`
	MaxSections int    `json:"maxSections,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
}

// LessonStore persists generated lessons.
type LessonStore interface {
	CreateLesson(lesson *model.Lesson) error
}

// LessonService drives the lesson generator agent.
type LessonService struct {
	runner Runner
	store  LessonStore
	tasks  *TaskRunner
	log    *zap.Logger
}

func NewLessonService(runner Runner, store LessonStore, tasks *TaskRunner, log *zap.Logger) *LessonService {
	return &LessonService{runner: runner, store: store, tasks: tasks, log: log}
}

// ScheduleGenerate runs generation and persistence as a background task
// detached from the caller's context. The HTTP layer uses this so a client
// disconnect never cancels the agent mid-loop.
func (s *LessonService) ScheduleGenerate(req LessonRequest, topicID uint, orderOffset int) {
	s.tasks.Go("lesson-generation", func(ctx context.Context) error {
		drafts, err := s.Generate(ctx, req)
		if err != nil {
			return err
		}
		_, err = s.Persist(topicID, drafts, orderOffset)
		return err
	})
}

// Generate produces lessons for a topic. Every returned lesson has section
// order 1..M and schema-valid quiz sections.
func (s *LessonService) Generate(ctx context.Context, req LessonRequest) ([]draft.LessonDraft, error) {
	out, err := s.runner.Run(ctx, agent.Spec{
		Kind:         agent.KindLesson,
		SystemPrompt: lessonSystemPrompt,
		UserPrompt:   lessonUserPrompt(req),
		Tools:        []string{"retrieve", "generate_lesson"},
		OutputSchema: LessonListSchema,
		Profile:      llm.ProfileCreative,
		SessionID:    req.SessionID,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Lessons []draft.LessonDraft `json:"lessons"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("decode lessons: %w", err)
	}

	for i := range payload.Lessons {
		normalizeLesson(&payload.Lessons[i])
		if err := validateLesson(&payload.Lessons[i]); err != nil {
			return nil, fmt.Errorf("lesson %q: %w", payload.Lessons[i].Title, err)
		}
	}
	res := AgentResult{Kind: agent.KindLesson, Lessons: payload.Lessons}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	s.log.Info("lessons generated",
		zap.String("topic", req.TopicName),
		zap.Int("lessons", len(payload.Lessons)))
	return res.Lessons, nil
}

// Persist writes generated lessons under a topic, numbering them after the
// given offset.
func (s *LessonService) Persist(topicID uint, drafts []draft.LessonDraft, orderOffset int) ([]model.Lesson, error) {
	lessons := make([]model.Lesson, 0, len(drafts))
	for i, ld := range drafts {
		lesson := model.Lesson{
			TopicID:     topicID,
			Title:       ld.Title,
			Description: ld.Description,
			Order:       orderOffset + i + 1,
		}
		for j, sd := range ld.Sections {
			section := model.LessonSection{
				Kind:    model.SectionKind(sd.Kind),
				Content: sd.Content,
				Order:   j + 1,
			}
			if section.Kind == model.SectionQuiz {
				options, err := json.Marshal(sd.Options)
				if err != nil {
					return nil, err
				}
				answer := sd.Answer
				explanation := sd.Explanation
				section.Options = options
				section.Answer = &answer
				section.Explanation = &explanation
			}
			lesson.Sections = append(lesson.Sections, section)
		}
		if err := s.store.CreateLesson(&lesson); err != nil {
			return nil, fmt.Errorf("persist lesson %q: %w", lesson.Title, err)
		}
		lessons = append(lessons, lesson)
	}
	return lessons, nil
}

// normalizeLesson renumbers sections 1..M and coerces unknown section kinds
// to text.
func normalizeLesson(l *draft.LessonDraft) {
	for i := range l.Sections {
		sec := &l.Sections[i]
		sec.Order = i + 1
		if !model.ValidSectionKind(model.SectionKind(sec.Kind)) {
			sec.Kind = string(model.SectionText)
		}
	}
}

var quizLetters = []string{"A", "B", "C", "D"}

// validateLesson enforces the quiz contract: quiz sections carry options
// A..D, an answer letter and an explanation; other kinds carry none of them.
func validateLesson(l *draft.LessonDraft) error {
	for i := range l.Sections {
		sec := &l.Sections[i]
		if sec.Kind == string(model.SectionQuiz) {
			if len(sec.Options) != len(quizLetters) {
				return fmt.Errorf("quiz section %d: options must have exactly keys A-D", sec.Order)
			}
			for _, letter := range quizLetters {
				if _, ok := sec.Options[letter]; !ok {
					return fmt.Errorf("quiz section %d: missing option %s", sec.Order, letter)
				}
			}
			if _, ok := sec.Options[sec.Answer]; !ok {
				return fmt.Errorf("quiz section %d: answer %q is not a choice", sec.Order, sec.Answer)
			}
			if sec.Explanation == "" {
				return fmt.Errorf("quiz section %d: explanation required", sec.Order)
			}
			continue
		}
		if len(sec.Options) > 0 || sec.Answer != "" || sec.Explanation != "" {
			return fmt.Errorf("%s section %d: quiz fields must be empty", sec.Kind, sec.Order)
		}
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"eduforge_backend/internal/agent"
	"eduforge_backend/internal/llm"
	"eduforge_backend/internal/model"
	"eduforge_backend/internal/util"
)

// EntryTestCourses is the course slice the generator needs.
type EntryTestCourses interface {
	GetCourseTopicsWithSkillsAndLessons(courseID uint) ([]model.Topic, error)
	UpdateCourseTestStatus(courseID uint, status model.TestGenerationStatus) error
}

// EntryTestStore replaces a course's entry test atomically.
type EntryTestStore interface {
	ReplaceForCourse(courseID uint, test *model.Test) error
}

// EntryTestService drives the entry-test generator. It is the single writer
// of a course's test_generation_status.
type EntryTestService struct {
	runner        Runner
	courses       EntryTestCourses
	tests         EntryTestStore
	questionCount int
	log           *zap.Logger
}

func NewEntryTestService(runner Runner, courses EntryTestCourses, tests EntryTestStore, questionCount int, log *zap.Logger) *EntryTestService {
	if questionCount <= 0 {
		questionCount = 50
	}
	return &EntryTestService{
		runner:        runner,
		courses:       courses,
		tests:         tests,
		questionCount: questionCount,
		log:           log,
	}
}

// Generate writes the course's placement test and drives the status
// PENDING → SUCCESS | FAILED. Either the test is fully written with
// status SUCCESS, or it is absent with status FAILED.
func (s *EntryTestService) Generate(ctx context.Context, courseID uint) (*model.Test, error) {
	if err := s.courses.UpdateCourseTestStatus(courseID, model.TestGenPending); err != nil {
		return nil, fmt.Errorf("mark test generation pending: %w", err)
	}

	test, err := s.generate(ctx, courseID)
	if err != nil {
		if statusErr := s.courses.UpdateCourseTestStatus(courseID, model.TestGenFailed); statusErr != nil {
			s.log.Error("failed to record FAILED test status",
				zap.Uint("courseId", courseID),
				zap.Error(statusErr))
		}
		return nil, err
	}

	if err := s.courses.UpdateCourseTestStatus(courseID, model.TestGenSuccess); err != nil {
		return nil, fmt.Errorf("mark test generation success: %w", err)
	}
	s.log.Info("entry test generated",
		zap.Uint("courseId", courseID),
		zap.Int("questions", len(test.Questions)))
	return test, nil
}

func (s *EntryTestService) generate(ctx context.Context, courseID uint) (*model.Test, error) {
	topics, err := s.courses.GetCourseTopicsWithSkillsAndLessons(courseID)
	if err != nil {
		return nil, fmt.Errorf("load course topics: %w", err)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: course %d has no topics", util.ErrAssessmentInput, courseID)
	}

	out, err := s.runner.Run(ctx, agent.Spec{
		Kind:         agent.KindEntryTest,
		SystemPrompt: entryTestSystemPrompt,
		UserPrompt:   entryTestUserPrompt(courseID, s.questionCount),
		Tools:        []string{"fetch_course_topics"},
		OutputSchema: EntryTestSchema,
		Profile:      llm.ProfileDeterministic,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		DurationMinutes int `json:"durationMinutes"`
		Questions       []struct {
			Content    string            `json:"content"`
			Type       string            `json:"type"`
			Difficulty string            `json:"difficulty"`
			Options    map[string]string `json:"options,omitempty"`
			Answer     string            `json:"answer"`
			Order      int               `json:"order"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("decode entry test: %w", err)
	}
	if len(payload.Questions) != s.questionCount {
		return nil, fmt.Errorf("entry test has %d questions, want %d", len(payload.Questions), s.questionCount)
	}

	cid := courseID
	test := &model.Test{
		CourseID:        &cid,
		DurationMinutes: payload.DurationMinutes,
	}
	for i, q := range payload.Questions {
		var options json.RawMessage
		if len(q.Options) > 0 {
			options, _ = json.Marshal(q.Options)
		}
		test.Questions = append(test.Questions, model.TestQuestion{
			Content:    q.Content,
			Type:       model.QuestionType(q.Type),
			Difficulty: q.Difficulty,
			Options:    options,
			Answer:     q.Answer,
			Order:      i + 1,
		})
	}

	res := AgentResult{Kind: agent.KindEntryTest, Test: test}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	if err := s.tests.ReplaceForCourse(courseID, res.Test); err != nil {
		return nil, fmt.Errorf("write entry test: %w", err)
	}
	return res.Test, nil
}

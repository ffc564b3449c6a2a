package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"eduforge_backend/internal/draft"
	"eduforge_backend/internal/model"
	"eduforge_backend/internal/util"
)

// CourseStore is the persistence slice the course service needs.
type CourseStore interface {
	Create(course *model.Course) error
	FindByID(id uint) (*model.Course, error)
	FindByIDWithTopics(id uint) (*model.Course, error)
	List(page, limit int) ([]model.Course, int64, error)
	Update(course *model.Course) error
	Delete(id uint) error
	ReplaceTopics(courseID uint, topics []model.Topic, tests []*model.Test) error
}

// EntryTestKicker starts entry-test generation for an approved course.
type EntryTestKicker interface {
	Generate(ctx context.Context, courseID uint) (*model.Test, error)
}

// CourseService owns the course lifecycle: creation, composition trigger,
// draft review, approval (promotion into relational rows) and rejection.
type CourseService struct {
	courses     CourseStore
	drafts      draft.Store
	composition *CompositionService
	entryTests  EntryTestKicker
	tasks       *TaskRunner
	log         *zap.Logger
}

func NewCourseService(courses CourseStore, drafts draft.Store, composition *CompositionService, entryTests EntryTestKicker, tasks *TaskRunner, log *zap.Logger) *CourseService {
	return &CourseService{
		courses:     courses,
		drafts:      drafts,
		composition: composition,
		entryTests:  entryTests,
		tasks:       tasks,
		log:         log,
	}
}

type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Level       string `json:"level"`
	Duration    int    `json:"duration"`
	MaxTopics   int    `json:"maxTopics"`
}

// Create persists the course shell and schedules composition in the
// background; the handler does not wait for the agent.
func (s *CourseService) Create(req CreateCourseRequest) (*model.Course, error) {
	course := &model.Course{
		Title:                req.Title,
		Description:          req.Description,
		Level:                req.Level,
		Duration:             req.Duration,
		TestGenerationStatus: model.TestGenNotStarted,
	}
	if err := s.courses.Create(course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.tasks.Go(fmt.Sprintf("compose-course-%d", course.ID), func(ctx context.Context) error {
		_, err := s.composition.Compose(ctx, CompositionRequest{
			CourseID:    course.ID,
			Title:       course.Title,
			Description: course.Description,
			Level:       course.Level,
			MaxTopics:   req.MaxTopics,
		})
		return err
	})
	return course, nil
}

func (s *CourseService) Get(id uint) (*model.Course, error) {
	course, err := s.courses.FindByIDWithTopics(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) List(page, limit int) ([]model.Course, int64, error) {
	return s.courses.List(page, limit)
}

func (s *CourseService) Delete(ctx context.Context, id uint) error {
	if err := s.drafts.Delete(ctx, id); err != nil {
		return err
	}
	return s.courses.Delete(id)
}

// GetDraft returns the course's working draft.
func (s *CourseService) GetDraft(ctx context.Context, courseID uint) (*draft.CourseDraft, error) {
	return s.drafts.Get(ctx, courseID)
}

// ReorderDraftTopics rearranges the draft's topics; order must be a
// permutation of the current indices.
func (s *CourseService) ReorderDraftTopics(ctx context.Context, courseID uint, order []int) error {
	return s.drafts.ReorderTopics(ctx, courseID, order)
}

// Approve promotes the draft into relational rows, publishes the course and
// kicks entry-test generation. Approving an already-published course again
// is a no-op.
func (s *CourseService) Approve(ctx context.Context, courseID uint) error {
	course, err := s.courses.FindByID(courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrCourseNotFound
	}
	if err != nil {
		return err
	}
	if course.IsPublished {
		s.log.Info("course already approved", zap.Uint("courseId", courseID))
		return nil
	}

	d, err := s.drafts.Get(ctx, courseID)
	if err != nil {
		return err
	}

	topics, tests := PromoteDraft(d)
	if err := s.courses.ReplaceTopics(courseID, topics, tests); err != nil {
		return fmt.Errorf("promote draft: %w", err)
	}

	course.Title = d.Title
	course.Description = d.Description
	if d.Level != "" {
		course.Level = d.Level
	}
	if d.Duration > 0 {
		course.Duration = d.Duration
	}
	course.IsPublished = true
	if err := s.courses.Update(course); err != nil {
		return fmt.Errorf("publish course: %w", err)
	}

	s.tasks.Go(fmt.Sprintf("entry-test-%d", courseID), func(ctx context.Context) error {
		_, err := s.entryTests.Generate(ctx, courseID)
		return err
	})
	s.log.Info("course approved",
		zap.Uint("courseId", courseID),
		zap.Int("topics", len(topics)))
	return nil
}

// RegenerateEntryTest re-runs entry-test generation on admin demand.
func (s *CourseService) RegenerateEntryTest(courseID uint) error {
	course, err := s.courses.FindByID(courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrCourseNotFound
	}
	if err != nil {
		return err
	}
	if !course.IsPublished {
		return fmt.Errorf("course %d is not approved yet", courseID)
	}

	s.tasks.Go(fmt.Sprintf("entry-test-%d", courseID), func(ctx context.Context) error {
		_, err := s.entryTests.Generate(ctx, courseID)
		return err
	})
	return nil
}

// Reject records admin feedback and re-runs composition on the same session
// so the agent sees the prior turns.
func (s *CourseService) Reject(ctx context.Context, courseID uint, feedback string) error {
	course, err := s.courses.FindByID(courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrCourseNotFound
	}
	if err != nil {
		return err
	}

	d, err := s.drafts.Get(ctx, courseID)
	if err != nil {
		return err
	}

	if course.IsPublished {
		course.IsPublished = false
		if err := s.courses.Update(course); err != nil {
			return err
		}
	}

	s.tasks.Go(fmt.Sprintf("recompose-course-%d", courseID), func(ctx context.Context) error {
		_, err := s.composition.Compose(ctx, CompositionRequest{
			CourseID:    courseID,
			Title:       course.Title,
			Description: course.Description,
			Level:       course.Level,
			Feedback:    feedback,
			SessionID:   d.SessionID,
		})
		return err
	})
	return nil
}

// PromoteDraft maps the draft family onto the persisted family. Returned
// tests align index-wise with the topics they belong to.
func PromoteDraft(d *draft.CourseDraft) ([]model.Topic, []*model.Test) {
	topics := make([]model.Topic, 0, len(d.Topics))
	tests := make([]*model.Test, 0, len(d.Topics))

	for i, td := range d.Topics {
		topic := model.Topic{
			Name:        td.Name,
			Description: td.Description,
			Order:       i + 1,
		}
		if len(td.Prerequisites) > 0 {
			prereqs, _ := json.Marshal(td.Prerequisites)
			topic.Prerequisites = prereqs
		}
		for _, skill := range td.Skills {
			topic.Skills = append(topic.Skills, model.Skill{Name: skill})
		}
		for j, ld := range td.Lessons {
			lesson := model.Lesson{
				Title:       ld.Title,
				Description: ld.Description,
				Order:       j + 1,
			}
			for k, sd := range ld.Sections {
				section := model.LessonSection{
					Kind:    model.SectionKind(sd.Kind),
					Content: sd.Content,
					Order:   k + 1,
				}
				if section.Kind == model.SectionQuiz {
					options, _ := json.Marshal(sd.Options)
					answer := sd.Answer
					explanation := sd.Explanation
					section.Options = options
					section.Answer = &answer
					section.Explanation = &explanation
				}
				lesson.Sections = append(lesson.Sections, section)
			}
			topic.Lessons = append(topic.Lessons, lesson)
		}
		topics = append(topics, topic)

		if td.Test != nil {
			test := &model.Test{DurationMinutes: td.Test.DurationMinutes}
			for q, qd := range td.Test.Questions {
				var options json.RawMessage
				if len(qd.Options) > 0 {
					options, _ = json.Marshal(qd.Options)
				}
				test.Questions = append(test.Questions, model.TestQuestion{
					Content:    qd.Content,
					Type:       model.QuestionType(qd.Type),
					Difficulty: qd.Difficulty,
					Options:    options,
					Answer:     qd.Answer,
					Order:      q + 1,
				})
			}
			tests = append(tests, test)
		} else {
			tests = append(tests, nil)
		}
	}
	return topics, tests
}

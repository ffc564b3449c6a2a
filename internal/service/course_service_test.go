package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"eduforge_backend/internal/draft"
	"eduforge_backend/internal/model"
	"eduforge_backend/internal/util"
)

type fakeCourseStore struct {
	mu       sync.Mutex
	courses  map[uint]*model.Course
	nextID   uint
	topics   []model.Topic
	tests    []*model.Test
	replaced bool
}

func newFakeCourseStore() *fakeCourseStore {
	return &fakeCourseStore{courses: make(map[uint]*model.Course), nextID: 1}
}

func (f *fakeCourseStore) Create(course *model.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	course.ID = f.nextID
	f.nextID++
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseStore) FindByID(id uint) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	course, ok := f.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *course
	return &copied, nil
}

func (f *fakeCourseStore) FindByIDWithTopics(id uint) (*model.Course, error) {
	return f.FindByID(id)
}

func (f *fakeCourseStore) List(int, int) ([]model.Course, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Course, 0, len(f.courses))
	for _, c := range f.courses {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCourseStore) Update(course *model.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseStore) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.courses, id)
	return nil
}

func (f *fakeCourseStore) ReplaceTopics(_ uint, topics []model.Topic, tests []*model.Test) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = topics
	f.tests = tests
	f.replaced = true
	return nil
}

type fakeEntryTestKicker struct {
	mu    sync.Mutex
	calls []uint
}

func (f *fakeEntryTestKicker) Generate(_ context.Context, courseID uint) (*model.Test, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, courseID)
	return &model.Test{}, nil
}

func (f *fakeEntryTestKicker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newCourseServiceForTest(t *testing.T, runner Runner) (*CourseService, *fakeCourseStore, *draft.MemoryStore, *fakeEntryTestKicker, *TaskRunner) {
	t.Helper()
	store := newFakeCourseStore()
	drafts := draft.NewMemoryStore()
	kicker := &fakeEntryTestKicker{}
	tasks := NewTaskRunner(zap.NewNop())
	composition := NewCompositionService(runner, drafts, compositionTestConfig(), zap.NewNop())
	svc := NewCourseService(store, drafts, composition, kicker, tasks, zap.NewNop())
	return svc, store, drafts, kicker, tasks
}

func TestCourseCreateSchedulesComposition(t *testing.T) {
	runner := &fakeRunner{outputs: []json.RawMessage{draftJSON()}}
	svc, store, drafts, _, tasks := newCourseServiceForTest(t, runner)

	course, err := svc.Create(CreateCourseRequest{Title: "Go Fundamentals", Level: "Beginner"})
	require.NoError(t, err)
	assert.Equal(t, model.TestGenNotStarted, course.TestGenerationStatus)
	assert.False(t, course.IsPublished)

	tasks.Wait()
	stored, err := drafts.Get(context.Background(), course.ID)
	require.NoError(t, err, "composition ran in the background and saved a draft")
	assert.Len(t, stored.Topics, 2)
	_, ok := store.courses[course.ID]
	assert.True(t, ok)
}

func TestCourseApprovePromotesDraft(t *testing.T) {
	svc, store, drafts, kicker, tasks := newCourseServiceForTest(t, &fakeRunner{})

	course := &model.Course{Title: "Old title", Level: "Beginner"}
	require.NoError(t, store.Create(course))

	d := sampleApprovalDraft(course.ID)
	require.NoError(t, drafts.Save(context.Background(), d))

	require.NoError(t, svc.Approve(context.Background(), course.ID))
	tasks.Wait()

	assert.True(t, store.replaced)
	require.Len(t, store.topics, 2)
	assert.Equal(t, "Basics", store.topics[0].Name)
	require.Len(t, store.tests, 2)
	assert.Nil(t, store.tests[0], "topics without a draft test promote none")
	require.NotNil(t, store.tests[1])
	assert.Len(t, store.tests[1].Questions, 1)

	published, err := store.FindByID(course.ID)
	require.NoError(t, err)
	assert.True(t, published.IsPublished)
	assert.Equal(t, "Go Fundamentals", published.Title, "draft fields overwrite the shell")
	assert.Equal(t, 1, kicker.callCount(), "entry-test generation is kicked")
}

func TestCourseApproveIsIdempotent(t *testing.T) {
	svc, store, drafts, kicker, tasks := newCourseServiceForTest(t, &fakeRunner{})

	course := &model.Course{Title: "T", IsPublished: true}
	require.NoError(t, store.Create(course))
	require.NoError(t, drafts.Save(context.Background(), sampleApprovalDraft(course.ID)))

	require.NoError(t, svc.Approve(context.Background(), course.ID))
	tasks.Wait()
	assert.False(t, store.replaced, "approving a published course is a no-op")
	assert.Equal(t, 0, kicker.callCount())
}

func TestCourseApproveMissingCourse(t *testing.T) {
	svc, _, _, _, _ := newCourseServiceForTest(t, &fakeRunner{})
	err := svc.Approve(context.Background(), 404)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestCourseApproveMissingDraft(t *testing.T) {
	svc, store, _, _, _ := newCourseServiceForTest(t, &fakeRunner{})
	course := &model.Course{Title: "T"}
	require.NoError(t, store.Create(course))

	err := svc.Approve(context.Background(), course.ID)
	assert.ErrorIs(t, err, draft.ErrDraftNotFound)
}

func TestCourseRejectRecomposesOnSameSession(t *testing.T) {
	runner := &fakeRunner{outputs: []json.RawMessage{draftJSON()}}
	svc, store, drafts, _, tasks := newCourseServiceForTest(t, runner)

	course := &model.Course{Title: "T", IsPublished: true}
	require.NoError(t, store.Create(course))
	d := sampleApprovalDraft(course.ID)
	d.SessionID = "sess-original"
	require.NoError(t, drafts.Save(context.Background(), d))

	require.NoError(t, svc.Reject(context.Background(), course.ID, "too shallow"))
	tasks.Wait()

	unpublished, err := store.FindByID(course.ID)
	require.NoError(t, err)
	assert.False(t, unpublished.IsPublished)

	require.Len(t, runner.specs, 1)
	assert.Equal(t, "sess-original", runner.specs[0].SessionID, "feedback rides the original session")
	assert.Contains(t, runner.specs[0].UserPrompt, "too shallow")
}

func TestRegenerateEntryTestRequiresPublishedCourse(t *testing.T) {
	svc, store, _, kicker, tasks := newCourseServiceForTest(t, &fakeRunner{})
	course := &model.Course{Title: "T"}
	require.NoError(t, store.Create(course))

	assert.Error(t, svc.RegenerateEntryTest(course.ID))

	course.IsPublished = true
	require.NoError(t, store.Update(course))
	require.NoError(t, svc.RegenerateEntryTest(course.ID))
	tasks.Wait()
	assert.Equal(t, 1, kicker.callCount())
}

func TestCourseDeleteRemovesDraft(t *testing.T) {
	svc, store, drafts, _, _ := newCourseServiceForTest(t, &fakeRunner{})
	course := &model.Course{Title: "T"}
	require.NoError(t, store.Create(course))
	require.NoError(t, drafts.Save(context.Background(), sampleApprovalDraft(course.ID)))

	require.NoError(t, svc.Delete(context.Background(), course.ID))
	_, err := drafts.Get(context.Background(), course.ID)
	assert.ErrorIs(t, err, draft.ErrDraftNotFound)
	_, err = store.FindByID(course.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPromoteDraftMapsQuizSections(t *testing.T) {
	d := sampleApprovalDraft(1)
	topics, tests := PromoteDraft(d)

	require.Len(t, topics, 2)
	require.Len(t, tests, 2)

	basics := topics[0]
	assert.Equal(t, 1, basics.Order)
	require.Len(t, basics.Skills, 1)
	assert.Equal(t, "syntax", basics.Skills[0].Name)

	var prereqs []string
	require.NoError(t, json.Unmarshal(topics[1].Prerequisites, &prereqs))
	assert.Equal(t, []string{"Basics"}, prereqs)

	require.Len(t, basics.Lessons, 1)
	sections := basics.Lessons[0].Sections
	require.Len(t, sections, 2)
	assert.Equal(t, model.SectionText, sections[0].Kind)
	assert.Nil(t, sections[0].Answer)

	quiz := sections[1]
	assert.Equal(t, model.SectionQuiz, quiz.Kind)
	require.NotNil(t, quiz.Answer)
	assert.Equal(t, "A", *quiz.Answer)
	var options map[string]string
	require.NoError(t, json.Unmarshal(quiz.Options, &options))
	assert.Len(t, options, 4)
}

// sampleApprovalDraft covers both promotion paths: a plain topic with a quiz
// lesson, and a topic carrying its own test.
func sampleApprovalDraft(courseID uint) *draft.CourseDraft {
	return &draft.CourseDraft{
		CourseID:    courseID,
		SessionID:   "sess-a",
		Title:       "Go Fundamentals",
		Description: "desc",
		Level:       "Beginner",
		Duration:    10,
		Topics: []draft.TopicDraft{
			{
				Name:   "Basics",
				Order:  1,
				Skills: []string{"syntax"},
				Lessons: []draft.LessonDraft{{
					Title: "Hello",
					Order: 1,
					Sections: []draft.SectionDraft{
						{Kind: "text", Content: "intro", Order: 1},
						{Kind: "quiz", Content: "q?", Order: 2,
							Options:     map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
							Answer:      "A",
							Explanation: "because"},
					},
				}},
			},
			{
				Name:          "Concurrency",
				Order:         2,
				Prerequisites: []string{"Basics"},
				Test: &draft.TestDraft{
					DurationMinutes: 15,
					Questions: []draft.QuestionDraft{{
						Content: "What starts a goroutine?",
						Type:    "single_choice",
						Options: map[string]string{"A": "go", "B": "run", "C": "do", "D": "fork"},
						Answer:  "A",
						Order:   1,
					}},
				},
			},
		},
	}
}

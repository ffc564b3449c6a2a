package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduforge_backend/internal/agent"
	"eduforge_backend/internal/knowledge"
	"eduforge_backend/internal/llm"
	"eduforge_backend/internal/model"
)

type fakeRetriever struct {
	chunks []knowledge.Chunk
	lastK  int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, k int, _ knowledge.Metadata) ([]knowledge.Chunk, error) {
	f.lastK = k
	return f.chunks, nil
}

type fakeSearcher struct {
	similar []SimilarExercise
}

func (f *fakeSearcher) FindSimilar(context.Context, string, int) ([]SimilarExercise, error) {
	return f.similar, nil
}

type fakeCourseReader struct {
	topics []model.Topic
}

func (f *fakeCourseReader) GetCourseTopicsWithSkillsAndLessons(uint) ([]model.Topic, error) {
	return f.topics, nil
}

func registryWithTools(deps *ToolDeps) *agent.Registry {
	reg := agent.NewRegistry()
	RegisterTools(reg, deps)
	return reg
}

func TestToolsRegistered(t *testing.T) {
	reg := registryWithTools(&ToolDeps{})
	defs := reg.Definitions(nil)

	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{
		"retrieve",
		"retrieve_exercise",
		"fetch_course_topics",
		"fetch_test_session",
		"generate_exercise",
		"generate_lesson",
		"analyze_skill_gaps",
		"output_repair",
	}, names)
}

func TestRetrieveToolDefaultsTopK(t *testing.T) {
	retriever := &fakeRetriever{chunks: []knowledge.Chunk{
		{Text: "passage one", Score: 0.9, Metadata: knowledge.Metadata{"source": "intro.pdf"}},
	}}
	reg := registryWithTools(&ToolDeps{Documents: retriever})

	obs, err := reg.Invoke(context.Background(), llm.ToolCall{
		ID:        "c1",
		Name:      "retrieve",
		Arguments: json.RawMessage(`{"query":"goroutines"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, defaultRetrieveK, retriever.lastK)

	var payload struct {
		Passages []struct {
			Text   string `json:"text"`
			Source string `json:"source"`
		} `json:"passages"`
	}
	require.NoError(t, json.Unmarshal([]byte(obs), &payload))
	require.Len(t, payload.Passages, 1)
	assert.Equal(t, "intro.pdf", payload.Passages[0].Source)
}

func TestRetrieveToolRejectsMissingQuery(t *testing.T) {
	reg := registryWithTools(&ToolDeps{Documents: &fakeRetriever{}})

	_, err := reg.Invoke(context.Background(), llm.ToolCall{
		Name:      "retrieve",
		Arguments: json.RawMessage(`{"topK":3}`),
	})
	var argErr *agent.ErrToolArgument
	assert.ErrorAs(t, err, &argErr)
}

func TestFetchCourseTopicsTool(t *testing.T) {
	reader := &fakeCourseReader{topics: []model.Topic{{
		Name:   "Basics",
		Order:  1,
		Skills: []model.Skill{{Name: "syntax"}},
		Lessons: []model.Lesson{
			{Title: "Hello"},
		},
	}}}
	reg := registryWithTools(&ToolDeps{Courses: reader})

	obs, err := reg.Invoke(context.Background(), llm.ToolCall{
		Name:      "fetch_course_topics",
		Arguments: json.RawMessage(`{"courseId":3}`),
	})
	require.NoError(t, err)

	var payload struct {
		Topics []struct {
			Name    string   `json:"name"`
			Skills  []string `json:"skills"`
			Lessons []string `json:"lessons"`
		} `json:"topics"`
	}
	require.NoError(t, json.Unmarshal([]byte(obs), &payload))
	require.Len(t, payload.Topics, 1)
	assert.Equal(t, []string{"syntax"}, payload.Topics[0].Skills)
	assert.Equal(t, []string{"Hello"}, payload.Topics[0].Lessons)
}

func TestGenerateExerciseToolUnbound(t *testing.T) {
	reg := registryWithTools(&ToolDeps{})
	_, err := reg.Invoke(context.Background(), llm.ToolCall{
		Name:      "generate_exercise",
		Arguments: json.RawMessage(`{"topic":"slices"}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not bound")
}

func TestGenerateExerciseToolDelegates(t *testing.T) {
	var got ExerciseRequest
	deps := &ToolDeps{
		GenerateExercise: func(_ context.Context, req ExerciseRequest) (*ExerciseDetail, error) {
			got = req
			return &ExerciseDetail{Title: "made"}, nil
		},
	}
	reg := registryWithTools(deps)

	obs, err := reg.Invoke(context.Background(), llm.ToolCall{
		Name:      "generate_exercise",
		Arguments: json.RawMessage(`{"topic":"slices","difficulty":"easy"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "slices", got.Topic)
	assert.Equal(t, "easy", got.Difficulty)
	assert.Contains(t, obs, "made")
}

func TestOutputRepairToolUnknownSchema(t *testing.T) {
	reg := registryWithTools(&ToolDeps{Gateway: llm.NewMockGateway()})
	_, err := reg.Invoke(context.Background(), llm.ToolCall{
		Name: "output_repair",
		Arguments: json.RawMessage(`{
			"output": "{}",
			"schemaName": "no-such-schema",
			"error": "missing field"
		}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown schema")
}

package service

import (
	"fmt"
	"strings"
)

const compositionSystemPrompt = `You are a curriculum designer for a programming-education platform.
Design a complete course structure for the requested course: ordered topics, and for each topic a short description, prerequisite topic names, the skills it teaches, summary-level lessons, and an entry test with question items.
Use the retrieve tool to gather reference passages before deciding on topics; call it as many times as needed to cover the whole subject.
Keep the number of topics within the stated maximum. When you are done, emit the final course draft as a single JSON object and nothing else.`

const lessonSystemPrompt = `You are a lesson author for a programming-education platform.
Use the retrieve tool to collect reference passages about the topic, then call generate_lesson with a short scenario paragraph that distills what the lessons should teach, grounded in the retrieved material.
Return the generated lessons as your final answer: a single JSON object with a "lessons" array. Section order within each lesson starts at 1 with no gaps. Quiz sections carry options A-D, an answer letter and an explanation; other sections carry none of those.`

const exerciseSystemPrompt = `You are an exercise author for a programming-education platform.
Use the retrieve tool for topic passages and retrieve_exercise to check for similar existing exercises before writing a new one. Do not duplicate an existing exercise's description.
The exercise needs a title, a description, markdown content, a code template and at least three test cases with input, expected output and an explanation.
Emit the final exercise as a single JSON object and nothing else.`

const entryTestSystemPrompt = `You are a placement-test author for a programming-education platform.
Call fetch_course_topics to read the course's topics and skills. Write a placement test that covers every topic, with Easy, Medium and Hard questions interleaved.
Emit the final test as a single JSON object with durationMinutes and a questions array, and nothing else.`

const assessmentSystemPrompt = `You are a learning analyst for a programming-education platform.
Call fetch_test_session to read the learner's submitted entry test. Isolate the single skill with the highest error density, classify its severity, and describe the weaknesses, an analysis, improvement suggestions and the learner's current level.
Emit the final assessment as a single JSON object and nothing else.`

const reviewPlanSystemPrompt = `You are a review planner for a programming-education platform.
Call analyze_skill_gaps with the learner's weaknesses, the skills to improve and their goals to obtain a prioritized gap map. Base your final answer on that map.
Emit the gap map as a single JSON object and nothing else.`

func compositionUserPrompt(req CompositionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Design the course %q (level: %s, at most %d topics).\n", req.Title, req.Level, req.MaxTopics)
	if req.Description != "" {
		fmt.Fprintf(&b, "Course description: %s\n", req.Description)
	}
	if req.Feedback != "" {
		fmt.Fprintf(&b, "Admin feedback on the previous draft: %s\n", req.Feedback)
	}
	return b.String()
}

func lessonUserPrompt(req LessonRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write lessons for topic %q.\n", req.TopicName)
	if req.LessonTitle != "" {
		fmt.Fprintf(&b, "Lesson title: %s\n", req.LessonTitle)
	}
	if req.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", req.Description)
	}
	if req.Difficulty != "" {
		fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	}
	if req.LessonType != "" {
		fmt.Fprintf(&b, "Lesson type: %s\n", req.LessonType)
	}
	if req.MaxSections > 0 {
		fmt.Fprintf(&b, "At most %d sections per lesson.\n", req.MaxSections)
	}
	return b.String()
}

func exerciseUserPrompt(req ExerciseRequest, duplicateNote string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s exercise for topic %q.\n", req.Difficulty, req.Topic)
	if req.Lesson != "" {
		fmt.Fprintf(&b, "Related lesson: %s\n", req.Lesson)
	}
	if duplicateNote != "" {
		fmt.Fprintf(&b, "%s\n", duplicateNote)
	}
	return b.String()
}

func entryTestUserPrompt(courseID uint, questionCount int) string {
	return fmt.Sprintf(
		"Write the placement test for course id %d with exactly %d questions. Cover every topic; interleave Easy, Medium and Hard questions.",
		courseID, questionCount,
	)
}

func assessmentUserPrompt(sessionID string, userID uint) string {
	return fmt.Sprintf(
		"Analyze test session %s for user %d. Fetch the session first, then assess the weakest skill.",
		sessionID, userID,
	)
}

func reviewPlanUserPrompt(req ReviewRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan review exercises for this learner.\n")
	if req.Weaknesses != "" {
		fmt.Fprintf(&b, "Weaknesses: %s\n", req.Weaknesses)
	}
	if len(req.Skills) > 0 {
		fmt.Fprintf(&b, "Skills to improve: %s\n", strings.Join(req.Skills, ", "))
	}
	if req.Difficulty != "" {
		fmt.Fprintf(&b, "Preferred difficulty: %s\n", req.Difficulty)
	}
	if req.Goals != "" {
		fmt.Fprintf(&b, "Learning goals: %s\n", req.Goals)
	}
	return b.String()
}

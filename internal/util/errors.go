package util

import "errors"

// Domain sentinels shared between services and controllers.
var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrSessionNotFound = errors.New("test session not found")

	// ErrComposition marks a course composition run that failed after
	// retries; no partial draft is saved.
	ErrComposition = errors.New("course composition failed")

	// ErrAssessmentInput marks generation attempted against inputs that
	// cannot produce a meaningful result (no topics, unsubmitted session).
	ErrAssessmentInput = errors.New("insufficient input for generation")
)

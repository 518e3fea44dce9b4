package util

import "errors"

var (
	ErrEmailRegistered        = errors.New("email already registered")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrSyllabusNotFound       = errors.New("syllabus not found")
	ErrQuestionNotFound       = errors.New("question not found")
	ErrNoCourseOutcomes       = errors.New("no course outcomes found for this syllabus")
	ErrAINotConfigured        = errors.New("AI service not configured")
	ErrInvalidStatusChange    = errors.New("status change not allowed")
	ErrQuestionNotYetAudited  = errors.New("question has not been audited")
	ErrUpstreamQuotaExhausted = errors.New("AI credits exhausted")
)

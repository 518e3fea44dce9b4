package service

import (
	"strings"
	"testing"

	"examforge_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeForPrompt(t *testing.T) {
	assert.Equal(t, "scriptalert(1)/script", SanitizeForPrompt("<script>alert(1)</script>", 100))
	assert.Equal(t, "abc", SanitizeForPrompt("  abc  ", 100))

	long := strings.Repeat("x", 200)
	assert.Len(t, SanitizeForPrompt(long, 50), 50)

	// Zero falls back to the default ceiling instead of truncating everything.
	assert.Equal(t, "abc", SanitizeForPrompt("abc", 0))
}

func TestNewPromptBuilderSkipLevel(t *testing.T) {
	assert.Equal(t, model.BloomCreate, NewPromptBuilder("create").SkipLevel())
	assert.Equal(t, model.BloomEvaluate, NewPromptBuilder("").SkipLevel())
	assert.Equal(t, model.BloomEvaluate, NewPromptBuilder("bogus").SkipLevel())
	assert.Equal(t, model.BloomApply, NewPromptBuilder("  Apply ").SkipLevel())
}

func TestTargetLevelsExcludeSkipInOrder(t *testing.T) {
	levels := NewPromptBuilder("evaluate").TargetLevels()
	assert.Equal(t, []string{"remember", "understand", "apply", "analyze", "create"}, levels)
}

func TestBuildDraftPromptDeterministic(t *testing.T) {
	pb := NewPromptBuilder("evaluate")
	co := model.CourseOutcome{Code: "CO1", Description: "Explain recursion and its base cases"}

	a := pb.BuildDraftPrompt(co, "Unit 1: recursion, stack frames, base cases")
	b := pb.BuildDraftPrompt(co, "Unit 1: recursion, stack frames, base cases")
	assert.Equal(t, a, b)
}

func TestBuildDraftPromptContents(t *testing.T) {
	pb := NewPromptBuilder("evaluate")
	co := model.CourseOutcome{Code: "CO1", Description: "Explain <b>recursion</b>"}

	prompt := pb.BuildDraftPrompt(co, "Syllabus text here")

	require.Contains(t, prompt, "CO1")
	assert.Contains(t, prompt, "Explain brecursion/b")
	assert.NotContains(t, prompt, "<b>")
	assert.Contains(t, prompt, `do not use the "evaluate" level`)
	for _, level := range model.BloomLevels {
		assert.Contains(t, prompt, level)
	}
}

func TestBuildDraftPromptEmptyContentFallback(t *testing.T) {
	pb := NewPromptBuilder("evaluate")
	prompt := pb.BuildDraftPrompt(model.CourseOutcome{Code: "CO2", Description: "d"}, "   ")
	assert.Contains(t, prompt, "General knowledge in the subject area")
}

func TestBuildAuditPromptContents(t *testing.T) {
	pb := NewPromptBuilder("evaluate")
	q := model.Question{QuestionText: "Define a base case.", BloomLevel: "remember", Marks: 2}

	prompt := pb.BuildAuditPrompt(q)
	assert.Contains(t, prompt, "Define a base case.")
	assert.Contains(t, prompt, "remember")
	assert.Contains(t, prompt, "quality_score")
}

func TestBuildRegeneratePromptFallbacks(t *testing.T) {
	pb := NewPromptBuilder("evaluate")
	q := model.Question{QuestionText: "Old question", BloomLevel: "apply", Marks: 4}

	prompt := pb.BuildRegeneratePrompt(q, model.CourseOutcome{})
	assert.Contains(t, prompt, "CO - General topic")
	assert.Contains(t, prompt, "Old question")
	assert.Contains(t, prompt, "4 marks")
}

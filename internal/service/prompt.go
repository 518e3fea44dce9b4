package service

import (
	"fmt"
	"strings"

	"examforge_backend/internal/model"
)

// Length ceilings applied before any free text is interpolated into a prompt.
const (
	promptCodeLimit     = 50
	promptDescLimit     = 500
	promptContentLimit  = 50000
	promptQuestionLimit = 2000
	promptDefaultLimit  = 10000
)

// SanitizeForPrompt strips angle brackets (markup/prompt-injection defense),
// truncates to maxLength runes and trims surrounding whitespace.
func SanitizeForPrompt(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = promptDefaultLimit
	}
	cleaned := strings.NewReplacer("<", "", ">", "").Replace(text)
	runes := []rune(cleaned)
	if len(runes) > maxLength {
		runes = runes[:maxLength]
	}
	return strings.TrimSpace(string(runes))
}

// PromptBuilder renders the three pipeline prompts. Pure and deterministic:
// the same outcome and content always produce the same prompt text.
type PromptBuilder struct {
	skipLevel string
}

// NewPromptBuilder configures which taxonomy level the five drafted questions
// leave out. An unknown level falls back to "evaluate".
func NewPromptBuilder(skipLevel string) *PromptBuilder {
	skipLevel = strings.ToLower(strings.TrimSpace(skipLevel))
	if !model.IsValidBloomLevel(skipLevel) {
		skipLevel = model.BloomEvaluate
	}
	return &PromptBuilder{skipLevel: skipLevel}
}

func (p *PromptBuilder) SkipLevel() string { return p.skipLevel }

// TargetLevels returns the five levels a draft batch must cover, in taxonomy order.
func (p *PromptBuilder) TargetLevels() []string {
	levels := make([]string, 0, len(model.BloomLevels)-1)
	for _, l := range model.BloomLevels {
		if l != p.skipLevel {
			levels = append(levels, l)
		}
	}
	return levels
}

func (p *PromptBuilder) BuildDraftPrompt(co model.CourseOutcome, syllabusContent string) string {
	code := SanitizeForPrompt(co.Code, promptCodeLimit)
	description := SanitizeForPrompt(co.Description, promptDescLimit)
	content := syllabusContent
	if strings.TrimSpace(content) == "" {
		content = "General knowledge in the subject area"
	}
	content = SanitizeForPrompt(content, promptContentLimit)

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert educator creating exam questions. Generate 5 questions for the following course outcome:\n\n")
	fmt.Fprintf(&b, "Course Outcome: %s - %s\n\n", code, description)
	fmt.Fprintf(&b, "Syllabus Context:\n%s\n\n", content)
	fmt.Fprintf(&b, "Requirements:\n")
	fmt.Fprintf(&b, "1. Create exactly 5 questions, one for each of these Bloom's Taxonomy levels: %s (do not use the %q level)\n",
		strings.Join(p.TargetLevels(), ", "), p.skipLevel)
	fmt.Fprintf(&b, "2. Each question should directly assess the course outcome\n")
	fmt.Fprintf(&b, "3. Include appropriate marks (2-10 based on complexity)\n")
	fmt.Fprintf(&b, "4. Use action verbs appropriate to each cognitive level\n\n")
	fmt.Fprintf(&b, "Bloom's Taxonomy Levels and Verbs:\n")
	for _, level := range model.BloomLevels {
		fmt.Fprintf(&b, "- %s: %s\n", level, strings.Join(model.BloomVerbs[level], ", "))
	}
	fmt.Fprintf(&b, "\nRespond ONLY with a JSON array of questions in this exact format:\n")
	fmt.Fprintf(&b, `[
  {
    "question_text": "The complete question text",
    "bloom_level": "remember|understand|apply|analyze|evaluate|create",
    "marks": 2-10,
    "source_context": "Brief context from syllabus this relates to"
  }
]`)
	return b.String()
}

func (p *PromptBuilder) BuildAuditPrompt(q model.Question) string {
	text := SanitizeForPrompt(q.QuestionText, promptQuestionLimit)

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert educational quality assessor. Evaluate this exam question for quality and alignment.\n\n")
	fmt.Fprintf(&b, "Question: %q\n", text)
	fmt.Fprintf(&b, "Assigned Bloom Level: %s\n", q.BloomLevel)
	fmt.Fprintf(&b, "Assigned Marks: %d\n\n", q.Marks)
	fmt.Fprintf(&b, "Evaluate based on:\n")
	fmt.Fprintf(&b, "1. Does the question text use appropriate action verbs for the %s level?\n", q.BloomLevel)
	fmt.Fprintf(&b, "2. Is the cognitive complexity appropriate for the assigned Bloom level?\n")
	fmt.Fprintf(&b, "3. Is the mark allocation reasonable for the question's complexity?\n")
	fmt.Fprintf(&b, "4. Is the question clear, unambiguous, and well-structured?\n\n")
	fmt.Fprintf(&b, `Respond ONLY with a JSON object:
{
  "quality_score": 0-100,
  "feedback": "Brief constructive feedback",
  "verb_alignment": true/false,
  "level_appropriate": true/false
}`)
	return b.String()
}

func (p *PromptBuilder) BuildRegeneratePrompt(q model.Question, co model.CourseOutcome) string {
	code := SanitizeForPrompt(co.Code, promptCodeLimit)
	if code == "" {
		code = "CO"
	}
	description := SanitizeForPrompt(co.Description, promptDescLimit)
	if description == "" {
		description = "General topic"
	}
	previous := SanitizeForPrompt(q.QuestionText, promptQuestionLimit)

	verbs := "appropriate verbs"
	if vs, ok := model.BloomVerbs[q.BloomLevel]; ok {
		verbs = strings.Join(vs, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert educator. Generate a NEW, DIFFERENT question for:\n\n")
	fmt.Fprintf(&b, "Course Outcome: %s - %s\n", code, description)
	fmt.Fprintf(&b, "Target Bloom Level: %s\n", q.BloomLevel)
	fmt.Fprintf(&b, "Previous Question (create something different): %q\n\n", previous)
	fmt.Fprintf(&b, "Requirements:\n")
	fmt.Fprintf(&b, "1. Create a completely different question at the %s level\n", q.BloomLevel)
	fmt.Fprintf(&b, "2. Use appropriate action verbs: %s\n", verbs)
	fmt.Fprintf(&b, "3. Keep similar mark allocation: %d marks\n\n", q.Marks)
	fmt.Fprintf(&b, `Respond ONLY with a JSON object:
{
  "question_text": "The new question text",
  "marks": %d,
  "source_context": "Brief context"
}`, q.Marks)
	return b.String()
}

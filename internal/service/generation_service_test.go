package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"examforge_backend/internal/config"
	"examforge_backend/internal/model"
	"examforge_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testUserID     = "11111111-1111-4111-8111-111111111111"
	testOtherUser  = "22222222-2222-4222-8222-222222222222"
	testSyllabusID = "33333333-3333-4333-8333-333333333333"
	testOutcomeID  = "44444444-4444-4444-8444-444444444444"
	testQuestionID = "55555555-5555-4555-8555-555555555555"
)

// fakeGateway routes each prompt to a scripted handler based on which of the
// three pipeline prompts it is.
type fakeGateway struct {
	draft func(prompt string) (string, error)
	audit func(prompt string) (string, error)
	regen func(prompt string) (string, error)

	draftCalls int
	auditCalls int
}

func (g *fakeGateway) Complete(_ context.Context, prompt string, _ CompletionOptions) (string, error) {
	switch {
	case strings.Contains(prompt, "Generate 5 questions"):
		g.draftCalls++
		return g.draft(prompt)
	case strings.Contains(prompt, "quality assessor"):
		g.auditCalls++
		return g.audit(prompt)
	case strings.Contains(prompt, "NEW, DIFFERENT"):
		return g.regen(prompt)
	default:
		return "", fmt.Errorf("unexpected prompt: %s", prompt)
	}
}

type auditRecord struct {
	score    int
	feedback string
	status   model.QuestionStatus
}

type fakeQuestionStore struct {
	questions map[string]*model.Question
	audits    map[string]auditRecord
	resets    map[string]string
	nextID    int

	insertErr error
	auditErr  error
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{
		questions: make(map[string]*model.Question),
		audits:    make(map[string]auditRecord),
		resets:    make(map[string]string),
	}
}

func (s *fakeQuestionStore) BatchInsert(questions []model.Question) ([]model.Question, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	for i := range questions {
		s.nextID++
		questions[i].ID = fmt.Sprintf("66666666-6666-4666-8666-%012d", s.nextID)
		q := questions[i]
		s.questions[q.ID] = &q
	}
	return questions, nil
}

func (s *fakeQuestionStore) FindByID(id string) (*model.Question, error) {
	q, ok := s.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (s *fakeQuestionStore) UpdateAudit(id string, score int, feedback string, status model.QuestionStatus) error {
	if s.auditErr != nil {
		return s.auditErr
	}
	s.audits[id] = auditRecord{score: score, feedback: feedback, status: status}
	if q, ok := s.questions[id]; ok {
		q.QualityScore = score
		q.AuditFeedback = &feedback
		q.Status = status
	}
	return nil
}

func (s *fakeQuestionStore) ResetDraft(id, questionText string, marks int, sourceParagraph *string) error {
	s.resets[id] = questionText
	if q, ok := s.questions[id]; ok {
		q.QuestionText = questionText
		q.Marks = marks
		q.SourceParagraph = sourceParagraph
		q.QualityScore = 0
		q.AuditFeedback = nil
		q.Status = model.StatusDraft
	}
	return nil
}

type fakeOutcomeStore struct {
	outcomes []model.CourseOutcome
	err      error
}

func (s *fakeOutcomeStore) ListBySyllabus(string) ([]model.CourseOutcome, error) {
	return s.outcomes, s.err
}

type fakeSyllabusStore struct {
	syllabi map[string]*model.Syllabus
}

func (s *fakeSyllabusStore) FindByID(id string) (*model.Syllabus, error) {
	syl, ok := s.syllabi[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return syl, nil
}

func outcomeFixture() model.CourseOutcome {
	co := model.CourseOutcome{
		SyllabusID:  testSyllabusID,
		Code:        "CO1",
		Description: "Explain the principle of recursion",
		UnitNumber:  1,
	}
	co.ID = testOutcomeID
	return co
}

func draftArrayResponse() string {
	return `Here you go:
[
  {"question_text": "Define recursion.", "bloom_level": "remember", "marks": 2, "source_context": "Unit 1"},
  {"question_text": "Explain how a base case terminates recursion.", "bloom_level": "understand", "marks": 4},
  {"question_text": "Apply recursion to compute factorial of n.", "bloom_level": "apply", "marks": 5},
  {"question_text": "Analyze the stack behavior of a recursive call.", "bloom_level": "analyze", "marks": 6},
  {"question_text": "Design a recursive solution for tree traversal.", "bloom_level": "create", "marks": 8}
]`
}

func newTestGenerationService(gw CompletionGateway, qs *fakeQuestionStore, outcomes []model.CourseOutcome) *GenerationService {
	syllabus := &model.Syllabus{Title: "Intro to recursion", Content: "Recursion, base cases, stack frames", UserID: testUserID}
	syllabus.ID = testSyllabusID

	return NewGenerationService(
		config.AIConfig{APIKey: "k", Model: "m", SkipBloomLevel: "evaluate", RequestTimeout: time.Second},
		gw,
		qs,
		&fakeOutcomeStore{outcomes: outcomes},
		&fakeSyllabusStore{syllabi: map[string]*model.Syllabus{testSyllabusID: syllabus}},
		NewSlidingWindowLimiter(),
	)
}

func generateRequestFixture() GenerateRequest {
	return GenerateRequest{
		SyllabusID: testSyllabusID,
		Content:    "Recursion, base cases, stack frames",
		CourseOutcomes: []CourseOutcomeInput{
			{ID: testOutcomeID, Code: "CO1", Description: "Explain the principle of recursion"},
		},
	}
}

func TestGenerateFullPipeline(t *testing.T) {
	// Given one outcome and a cooperative model
	gw := &fakeGateway{
		draft: func(string) (string, error) { return draftArrayResponse(), nil },
		audit: func(string) (string, error) {
			return `{"quality_score": 85, "feedback": "Well aligned."}`, nil
		},
	}
	qs := newFakeQuestionStore()
	svc := newTestGenerationService(gw, qs, []model.CourseOutcome{outcomeFixture()})

	// When the pipeline runs
	count, err := svc.Generate(context.Background(), testUserID, generateRequestFixture())

	// Then five questions are inserted and every one terminates audited
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 1, gw.draftCalls)
	assert.Equal(t, 5, gw.auditCalls)
	require.Len(t, qs.audits, 5)
	for id, a := range qs.audits {
		assert.Equal(t, model.StatusAudited, a.status, "question %s", id)
		assert.GreaterOrEqual(t, a.score, scoreFloor)
		assert.LessOrEqual(t, a.score, scoreCeiling)
	}
}

func TestGenerateOutcomeFailureDoesNotAbortBatch(t *testing.T) {
	// Given three outcomes where the second draft call fails
	second := outcomeFixture()
	second.ID = "44444444-4444-4444-8444-000000000002"
	second.Code = "CO2"
	third := outcomeFixture()
	third.ID = "44444444-4444-4444-8444-000000000003"
	third.Code = "CO3"

	var call int
	gw := &fakeGateway{
		draft: func(string) (string, error) {
			call++
			if call == 2 {
				return "", &GatewayError{Kind: GatewayUnavailable, StatusCode: 500}
			}
			return draftArrayResponse(), nil
		},
		audit: func(string) (string, error) {
			return `{"quality_score": 70, "feedback": "ok"}`, nil
		},
	}
	qs := newFakeQuestionStore()
	svc := newTestGenerationService(gw, qs, []model.CourseOutcome{outcomeFixture(), second, third})

	count, err := svc.Generate(context.Background(), testUserID, generateRequestFixture())

	// Then the surviving outcomes still contribute their questions
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestGenerateDropsUnknownBloomLevel(t *testing.T) {
	gw := &fakeGateway{
		draft: func(string) (string, error) {
			return `[
  {"question_text": "Valid.", "bloom_level": "remember", "marks": 2},
  {"question_text": "Bad level.", "bloom_level": "synthesize", "marks": 2},
  {"question_text": "", "bloom_level": "apply", "marks": 2}
]`, nil
		},
		audit: func(string) (string, error) {
			return `{"quality_score": 60, "feedback": "ok"}`, nil
		},
	}
	qs := newFakeQuestionStore()
	svc := newTestGenerationService(gw, qs, []model.CourseOutcome{outcomeFixture()})

	count, err := svc.Generate(context.Background(), testUserID, generateRequestFixture())

	// Only the candidate with a known level and non-empty text survives.
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGenerateZeroQuestionsIsSoftSuccess(t *testing.T) {
	gw := &fakeGateway{
		draft: func(string) (string, error) { return "I cannot help with that.", nil },
	}
	qs := newFakeQuestionStore()
	svc := newTestGenerationService(gw, qs, []model.CourseOutcome{outcomeFixture()})

	count, err := svc.Generate(context.Background(), testUserID, generateRequestFixture())

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, qs.questions)
}

func TestGenerateInsertFailureIsFatal(t *testing.T) {
	gw := &fakeGateway{
		draft: func(string) (string, error) { return draftArrayResponse(), nil },
	}
	qs := newFakeQuestionStore()
	qs.insertErr = fmt.Errorf("connection reset")
	svc := newTestGenerationService(gw, qs, []model.CourseOutcome{outcomeFixture()})

	_, err := svc.Generate(context.Background(), testUserID, generateRequestFixture())

	require.Error(t, err)
	assert.Zero(t, gw.auditCalls, "nothing to audit after a failed insert")
}

func TestGenerateAuditGatewayFailureFallsBack(t *testing.T) {
	gw := &fakeGateway{
		draft: func(string) (string, error) { return draftArrayResponse(), nil },
		audit: func(string) (string, error) {
			return "", &GatewayError{Kind: GatewayUnavailable, StatusCode: 503}
		},
	}
	qs := newFakeQuestionStore()
	svc := newTestGenerationService(gw, qs, []model.CourseOutcome{outcomeFixture()})

	count, err := svc.Generate(context.Background(), testUserID, generateRequestFixture())

	require.NoError(t, err)
	assert.Equal(t, 5, count)
	for _, a := range qs.audits {
		assert.Equal(t, fallbackScore, a.score)
		assert.Equal(t, feedbackPending, a.feedback)
		assert.Equal(t, model.StatusAudited, a.status)
	}
}

func TestGenerateAuditParseFailureFallsBack(t *testing.T) {
	gw := &fakeGateway{
		draft: func(string) (string, error) { return draftArrayResponse(), nil },
		audit: func(string) (string, error) { return "score is eighty five", nil },
	}
	qs := newFakeQuestionStore()
	svc := newTestGenerationService(gw, qs, []model.CourseOutcome{outcomeFixture()})

	_, err := svc.Generate(context.Background(), testUserID, generateRequestFixture())

	require.NoError(t, err)
	for _, a := range qs.audits {
		assert.Equal(t, fallbackScore, a.score)
		assert.Equal(t, feedbackFailed, a.feedback)
		assert.Equal(t, model.StatusAudited, a.status)
	}
}

func TestGenerateValidation(t *testing.T) {
	gw := &fakeGateway{}
	qs := newFakeQuestionStore()
	svc := newTestGenerationService(gw, qs, []model.CourseOutcome{outcomeFixture()})

	t.Run("bad syllabus id", func(t *testing.T) {
		req := generateRequestFixture()
		req.SyllabusID = "not-a-uuid"
		_, err := svc.Generate(context.Background(), testUserID, req)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("empty outcomes array", func(t *testing.T) {
		req := generateRequestFixture()
		req.CourseOutcomes = nil
		_, err := svc.Generate(context.Background(), testUserID, req)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("oversized content", func(t *testing.T) {
		req := generateRequestFixture()
		req.Content = strings.Repeat("x", util.MaxSyllabusContentChars+1)
		_, err := svc.Generate(context.Background(), testUserID, req)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("unknown syllabus", func(t *testing.T) {
		req := generateRequestFixture()
		req.SyllabusID = "99999999-9999-4999-8999-999999999999"
		_, err := svc.Generate(context.Background(), testUserID, req)
		assert.ErrorIs(t, err, util.ErrSyllabusNotFound)
	})

	t.Run("foreign syllabus", func(t *testing.T) {
		_, err := svc.Generate(context.Background(), testOtherUser, generateRequestFixture())
		assert.ErrorIs(t, err, util.ErrPermissionDenied)
	})
}

func TestGenerateMissingAPIKey(t *testing.T) {
	svc := NewGenerationService(
		config.AIConfig{},
		&fakeGateway{},
		newFakeQuestionStore(),
		&fakeOutcomeStore{},
		&fakeSyllabusStore{},
		NewSlidingWindowLimiter(),
	)

	_, err := svc.Generate(context.Background(), testUserID, generateRequestFixture())
	assert.ErrorIs(t, err, util.ErrAINotConfigured)
}

func TestGenerateRateLimited(t *testing.T) {
	gw := &fakeGateway{
		draft: func(string) (string, error) { return draftArrayResponse(), nil },
		audit: func(string) (string, error) { return `{"quality_score": 70, "feedback": "ok"}`, nil },
	}
	qs := newFakeQuestionStore()
	svc := newTestGenerationService(gw, qs, []model.CourseOutcome{outcomeFixture()})

	for i := 0; i < maxGeneratePerWin; i++ {
		_, err := svc.Generate(context.Background(), testUserID, generateRequestFixture())
		require.NoError(t, err)
	}

	_, err := svc.Generate(context.Background(), testUserID, generateRequestFixture())
	var rerr *RateLimitError
	require.ErrorAs(t, err, &rerr)
	assert.Greater(t, rerr.RetryAfter, time.Duration(0))
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want int
	}{
		{"absent", nil, 30},
		{"zero", 0.0, 30},
		{"negative", -10.0, 30},
		{"below floor", 12.0, 30},
		{"at floor", 30.0, 30},
		{"mid range", 85.0, 85},
		{"at ceiling", 100.0, 100},
		{"above ceiling", 150.0, 100},
		{"non numeric", "high", 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampScore(tt.in))
		})
	}
}

func regenFixture(qs *fakeQuestionStore) {
	co := outcomeFixture()
	syllabus := &model.Syllabus{Title: "Intro to recursion", UserID: testUserID}
	syllabus.ID = testSyllabusID

	outcomeID := testOutcomeID
	q := &model.Question{
		SyllabusID:      testSyllabusID,
		CourseOutcomeID: &outcomeID,
		QuestionText:    "Explain how a base case terminates recursion.",
		BloomLevel:      "understand",
		Marks:           4,
		QualityScore:    55,
		Status:          model.StatusAudited,
		CourseOutcome:   &co,
		Syllabus:        syllabus,
	}
	q.ID = testQuestionID
	qs.questions[testQuestionID] = q
}

func TestRegenerateReplacesAndReaudits(t *testing.T) {
	gw := &fakeGateway{
		regen: func(string) (string, error) {
			return `{"question_text": "Describe what happens when a recursive function lacks a base case.", "marks": 4, "source_context": "Unit 1"}`, nil
		},
		audit: func(string) (string, error) {
			return `{"quality_score": 78, "feedback": "Improved."}`, nil
		},
	}
	qs := newFakeQuestionStore()
	regenFixture(qs)
	svc := newTestGenerationService(gw, qs, nil)

	err := svc.Regenerate(context.Background(), testUserID, testQuestionID)

	require.NoError(t, err)
	assert.Equal(t, "Describe what happens when a recursive function lacks a base case.", qs.resets[testQuestionID])

	// The replacement ends up audited with a real verdict.
	a, ok := qs.audits[testQuestionID]
	require.True(t, ok)
	assert.Equal(t, 78, a.score)
	assert.Equal(t, model.StatusAudited, a.status)
}

func TestRegenerateAuditFailureStillTerminatesAudited(t *testing.T) {
	gw := &fakeGateway{
		regen: func(string) (string, error) {
			return `{"question_text": "A fresh question.", "marks": 4}`, nil
		},
		audit: func(string) (string, error) {
			return "", &GatewayError{Kind: GatewayUnavailable}
		},
	}
	qs := newFakeQuestionStore()
	regenFixture(qs)
	svc := newTestGenerationService(gw, qs, nil)

	err := svc.Regenerate(context.Background(), testUserID, testQuestionID)

	require.NoError(t, err)
	a := qs.audits[testQuestionID]
	assert.Equal(t, fallbackScore, a.score)
	assert.Equal(t, model.StatusAudited, a.status)
}

func TestRegenerateErrors(t *testing.T) {
	qs := newFakeQuestionStore()
	regenFixture(qs)

	t.Run("unknown question", func(t *testing.T) {
		svc := newTestGenerationService(&fakeGateway{}, qs, nil)
		err := svc.Regenerate(context.Background(), testUserID, "99999999-9999-4999-8999-999999999999")
		assert.ErrorIs(t, err, util.ErrQuestionNotFound)
	})

	t.Run("foreign question", func(t *testing.T) {
		svc := newTestGenerationService(&fakeGateway{}, qs, nil)
		err := svc.Regenerate(context.Background(), testOtherUser, testQuestionID)
		assert.ErrorIs(t, err, util.ErrPermissionDenied)
	})

	t.Run("quota exhausted", func(t *testing.T) {
		gw := &fakeGateway{
			regen: func(string) (string, error) {
				return "", &GatewayError{Kind: GatewayQuotaExhausted, StatusCode: 402}
			},
		}
		svc := newTestGenerationService(gw, qs, nil)
		err := svc.Regenerate(context.Background(), testUserID, testQuestionID)
		assert.ErrorIs(t, err, util.ErrUpstreamQuotaExhausted)
	})

	t.Run("upstream rate limited passes through", func(t *testing.T) {
		gw := &fakeGateway{
			regen: func(string) (string, error) {
				return "", &GatewayError{Kind: GatewayRateLimited, StatusCode: 429}
			},
		}
		svc := newTestGenerationService(gw, qs, nil)
		err := svc.Regenerate(context.Background(), testUserID, testQuestionID)
		var gerr *GatewayError
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, GatewayRateLimited, gerr.Kind)
	})

	t.Run("empty replacement text", func(t *testing.T) {
		gw := &fakeGateway{
			regen: func(string) (string, error) {
				return `{"question_text": "", "marks": 4}`, nil
			},
		}
		svc := newTestGenerationService(gw, qs, nil)
		err := svc.Regenerate(context.Background(), testUserID, testQuestionID)
		require.Error(t, err)
	})
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"examforge_backend/internal/config"
	"examforge_backend/internal/model"
	"examforge_backend/internal/util"
	"examforge_backend/pkg/logger"
	"examforge_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sampling parameters per call site. Drafting wants variety, auditing wants
// consistency, regeneration wants maximum divergence from the prior question.
var (
	draftOptions = CompletionOptions{Temperature: 0.7, MaxTokens: 2000}
	auditOptions = CompletionOptions{Temperature: 0.3, MaxTokens: 500}
	regenOptions = CompletionOptions{Temperature: 0.8, MaxTokens: 500}
)

const (
	scoreFloor      = 30
	scoreCeiling    = 100
	fallbackScore   = 50
	defaultMarks    = 5
	feedbackPending = "Audit pending"
	feedbackFailed  = "Audit failed"
)

// ValidationError is a caller-actionable input failure; it always maps to a
// 400 and is surfaced verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// RateLimitError carries the backoff hint for a denied window.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return "rate limit exceeded, please wait before making another request"
}

// CompletionGateway is the narrow contract the orchestrators need from the
// model endpoint.
type CompletionGateway interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// QuestionStore is the persistence contract of the pipeline: bulk insert of
// drafts, per-record audit updates, and regeneration resets.
type QuestionStore interface {
	BatchInsert(questions []model.Question) ([]model.Question, error)
	FindByID(id string) (*model.Question, error)
	UpdateAudit(id string, score int, feedback string, status model.QuestionStatus) error
	ResetDraft(id, questionText string, marks int, sourceParagraph *string) error
}

type OutcomeStore interface {
	ListBySyllabus(syllabusID string) ([]model.CourseOutcome, error)
}

type SyllabusStore interface {
	FindByID(id string) (*model.Syllabus, error)
}

// GenerationService drives the two-pass pipeline: draft questions per course
// outcome, bulk-insert them, then audit each inserted question in place.
// Outcomes and questions are processed sequentially by design to keep the
// request rate against the upstream model bounded.
type GenerationService struct {
	cfg       config.AIConfig
	gateway   CompletionGateway
	questions QuestionStore
	outcomes  OutcomeStore
	syllabi   SyllabusStore
	limiter   *SlidingWindowLimiter
	prompts   *PromptBuilder
}

func NewGenerationService(
	cfg config.AIConfig,
	gateway CompletionGateway,
	questions QuestionStore,
	outcomes OutcomeStore,
	syllabi SyllabusStore,
	limiter *SlidingWindowLimiter,
) *GenerationService {
	return &GenerationService{
		cfg:       cfg,
		gateway:   gateway,
		questions: questions,
		outcomes:  outcomes,
		syllabi:   syllabi,
		limiter:   limiter,
		prompts:   NewPromptBuilder(cfg.SkipBloomLevel),
	}
}

type CourseOutcomeInput struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
	UnitNumber  int    `json:"unitNumber"`
}

type GenerateRequest struct {
	SyllabusID     string               `json:"syllabusId"`
	Content        string               `json:"content"`
	CourseOutcomes []CourseOutcomeInput `json:"courseOutcomes"`
}

// Generate runs the full drafting+audit pipeline for one syllabus on behalf
// of userID. It returns the number of questions inserted; zero with a nil
// error is a valid soft failure (the model produced nothing usable).
func (s *GenerationService) Generate(ctx context.Context, userID string, req GenerateRequest) (int, error) {
	if s.cfg.APIKey == "" {
		return 0, util.ErrAINotConfigured
	}

	if msg := util.ValidateUUID(req.SyllabusID, "syllabusId"); msg != "" {
		return 0, &ValidationError{Msg: msg}
	}
	if len(req.CourseOutcomes) == 0 {
		return 0, &ValidationError{Msg: "courseOutcomes must be a non-empty array"}
	}
	if len(req.Content) > util.MaxSyllabusContentChars {
		return 0, &ValidationError{Msg: "content too large (max 100,000 characters)"}
	}

	if d := s.limiter.Check(userID, OpGenerate); !d.Allowed {
		return 0, &RateLimitError{RetryAfter: d.RetryAfter}
	}

	syllabus, err := s.syllabi.FindByID(req.SyllabusID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, util.ErrSyllabusNotFound
		}
		return 0, fmt.Errorf("load syllabus: %w", err)
	}
	if syllabus.UserID != userID {
		return 0, util.ErrPermissionDenied
	}

	outcomes, err := s.outcomes.ListBySyllabus(req.SyllabusID)
	if err != nil {
		return 0, fmt.Errorf("load course outcomes: %w", err)
	}
	if len(outcomes) == 0 {
		return 0, util.ErrNoCourseOutcomes
	}

	logger.Log.Info("starting question generation",
		zap.String("syllabusId", req.SyllabusID),
		zap.Int("courseOutcomes", len(outcomes)))

	drafts := s.draftAll(ctx, req.SyllabusID, req.Content, outcomes)
	if len(drafts) == 0 {
		logger.Log.Warn("generation produced no questions", zap.String("syllabusId", req.SyllabusID))
		return 0, nil
	}

	// A failed bulk insert is fatal: there is nothing to audit.
	inserted, err := s.questions.BatchInsert(drafts)
	if err != nil {
		return 0, fmt.Errorf("insert draft questions: %w", err)
	}
	monitoring.QuestionsGenerated.Add(float64(len(inserted)))

	s.auditAll(ctx, inserted)

	return len(inserted), nil
}

// draftAll builds one prompt per outcome and accumulates whatever candidates
// survive extraction and validation. Gateway and parse failures skip the
// single outcome; the batch never aborts.
func (s *GenerationService) draftAll(ctx context.Context, syllabusID, content string, outcomes []model.CourseOutcome) []model.Question {
	var drafts []model.Question

	for _, co := range outcomes {
		prompt := s.prompts.BuildDraftPrompt(co, content)

		raw, err := s.gateway.Complete(ctx, prompt, draftOptions)
		if err != nil {
			logger.Log.Warn("draft generation failed for outcome",
				zap.String("outcomeCode", co.Code), zap.Error(err))
			continue
		}

		block, ok := ExtractJSON(raw, ShapeArray)
		if !ok {
			logger.Log.Warn("no JSON array found in draft response",
				zap.String("outcomeCode", co.Code))
			continue
		}

		drafts = append(drafts, s.decodeCandidates(block, syllabusID, co)...)
	}

	return drafts
}

// decodeCandidates maps loosely typed model output onto persisted-shape draft
// records. Individual malformed candidates are dropped, never the batch.
func (s *GenerationService) decodeCandidates(block json.RawMessage, syllabusID string, co model.CourseOutcome) []model.Question {
	var items []map[string]interface{}
	if err := json.Unmarshal(block, &items); err != nil {
		logger.Log.Warn("draft array has unexpected element shape",
			zap.String("outcomeCode", co.Code), zap.Error(err))
		return nil
	}

	outcomeID := co.ID
	var out []model.Question
	for _, item := range items {
		text := asString(item["question_text"])
		if text == "" {
			continue
		}

		level := strings.ToLower(asString(item["bloom_level"]))
		if !model.IsValidBloomLevel(level) {
			logger.Log.Warn("dropping candidate with unknown bloom level",
				zap.String("outcomeCode", co.Code), zap.String("bloomLevel", level))
			continue
		}

		var source *string
		if sc := asString(item["source_context"]); sc != "" {
			source = &sc
		}

		out = append(out, model.Question{
			SyllabusID:      syllabusID,
			CourseOutcomeID: &outcomeID,
			QuestionText:    text,
			BloomLevel:      level,
			Marks:           asMarks(item["marks"], defaultMarks),
			SourceParagraph: source,
			QualityScore:    0,
			Status:          model.StatusDraft,
		})
	}
	return out
}

// auditAll scores each inserted question in place. Whatever happens, every
// question leaves this pass with status=audited: real verdicts when the
// model cooperates, the fallback score otherwise.
func (s *GenerationService) auditAll(ctx context.Context, questions []model.Question) {
	for i := range questions {
		s.auditOne(ctx, &questions[i])
	}
}

func (s *GenerationService) auditOne(ctx context.Context, q *model.Question) {
	raw, err := s.gateway.Complete(ctx, s.prompts.BuildAuditPrompt(*q), auditOptions)
	if err != nil {
		logger.Log.Warn("audit call failed", zap.String("questionId", q.ID), zap.Error(err))
		s.applyAuditFallback(q.ID, feedbackPending)
		return
	}

	block, ok := ExtractJSON(raw, ShapeObject)
	if !ok {
		logger.Log.Warn("no JSON object found in audit response", zap.String("questionId", q.ID))
		s.applyAuditFallback(q.ID, feedbackFailed)
		return
	}

	var verdict map[string]interface{}
	if err := json.Unmarshal(block, &verdict); err != nil {
		s.applyAuditFallback(q.ID, feedbackFailed)
		return
	}

	score := clampScore(verdict["quality_score"])
	feedback := asString(verdict["feedback"])

	if err := s.questions.UpdateAudit(q.ID, score, feedback, model.StatusAudited); err != nil {
		logger.Log.Error("audit update failed", zap.String("questionId", q.ID), zap.Error(err))
		s.applyAuditFallback(q.ID, feedbackFailed)
		return
	}
	monitoring.AuditsCompleted.WithLabelValues("scored").Inc()
}

// applyAuditFallback parks the question on the neutral default so it never
// stays stuck in draft after the audit pass has run. A failure here is
// logged and swallowed; one bad record must not sink the remaining audits.
func (s *GenerationService) applyAuditFallback(questionID, feedback string) {
	if err := s.questions.UpdateAudit(questionID, fallbackScore, feedback, model.StatusAudited); err != nil {
		logger.Log.Error("audit fallback update failed",
			zap.String("questionId", questionID), zap.Error(err))
		return
	}
	monitoring.AuditsCompleted.WithLabelValues("fallback").Inc()
}

// clampScore floors the raw model score at 30 (absent or junk counts as
// zero) and caps it at 100, keeping quality_score inside its invariant range.
func clampScore(v interface{}) int {
	raw, _ := v.(float64)
	score := int(raw)
	if score < scoreFloor {
		return scoreFloor
	}
	if score > scoreCeiling {
		return scoreCeiling
	}
	return score
}

// Regenerate replaces one question's text in place, resets it to draft, then
// re-audits it so it terminates in audited state again.
func (s *GenerationService) Regenerate(ctx context.Context, userID, questionID string) error {
	if s.cfg.APIKey == "" {
		return util.ErrAINotConfigured
	}

	if msg := util.ValidateUUID(questionID, "questionId"); msg != "" {
		return &ValidationError{Msg: msg}
	}

	if d := s.limiter.Check(userID, OpRegenerate); !d.Allowed {
		return &RateLimitError{RetryAfter: d.RetryAfter}
	}

	q, err := s.questions.FindByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrQuestionNotFound
		}
		return fmt.Errorf("load question: %w", err)
	}
	if q.Syllabus == nil || q.Syllabus.UserID != userID {
		return util.ErrPermissionDenied
	}

	var co model.CourseOutcome
	if q.CourseOutcome != nil {
		co = *q.CourseOutcome
	}

	raw, err := s.gateway.Complete(ctx, s.prompts.BuildRegeneratePrompt(*q, co), regenOptions)
	if err != nil {
		// Upstream throttling and exhausted credits surface to the caller;
		// anything else is a generic upstream failure.
		var gerr *GatewayError
		if errors.As(err, &gerr) {
			switch gerr.Kind {
			case GatewayRateLimited:
				return err
			case GatewayQuotaExhausted:
				return util.ErrUpstreamQuotaExhausted
			}
		}
		return fmt.Errorf("regenerate question: %w", err)
	}

	block, ok := ExtractJSON(raw, ShapeObject)
	if !ok {
		return fmt.Errorf("failed to parse regenerated question")
	}
	var replacement map[string]interface{}
	if err := json.Unmarshal(block, &replacement); err != nil {
		return fmt.Errorf("failed to parse regenerated question: %w", err)
	}

	text := asString(replacement["question_text"])
	if text == "" {
		return fmt.Errorf("regenerated question has no text")
	}
	marks := asMarks(replacement["marks"], q.Marks)
	var source *string
	if sc := asString(replacement["source_context"]); sc != "" {
		source = &sc
	}

	if err := s.questions.ResetDraft(q.ID, text, marks, source); err != nil {
		return fmt.Errorf("update regenerated question: %w", err)
	}

	logger.Log.Info("question regenerated", zap.String("questionId", q.ID))

	// Re-audit with the replacement content; fallbacks inside auditOne
	// guarantee the question does not stay in draft.
	reaudit := *q
	reaudit.QuestionText = text
	reaudit.Marks = marks
	s.auditOne(ctx, &reaudit)

	return nil
}

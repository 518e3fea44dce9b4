package repository

import (
	"examforge_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// BatchInsert persists a draft batch in one statement and returns the rows
// with their generated IDs, ready for the audit pass.
func (r *QuestionRepository) BatchInsert(questions []model.Question) ([]model.Question, error) {
	if len(questions) == 0 {
		return questions, nil
	}
	if err := r.DB.Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *QuestionRepository) FindByID(id string) (*model.Question, error) {
	var q model.Question
	err := r.DB.Preload("CourseOutcome").Preload("Syllabus").First(&q, "id = ?", id).Error
	return &q, err
}

func (r *QuestionRepository) List(syllabusID, status, bloomLevel string) ([]model.Question, error) {
	var qs []model.Question
	query := r.DB.Preload("CourseOutcome").Preload("Syllabus").Order("created_at desc")
	if syllabusID != "" {
		query = query.Where("syllabus_id = ?", syllabusID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if bloomLevel != "" {
		query = query.Where("bloom_level = ?", bloomLevel)
	}
	err := query.Find(&qs).Error
	return qs, err
}

// UpdateAudit applies the audit verdict. Updates go through a map so that a
// zero quality score would still be written if policy ever allowed one.
func (r *QuestionRepository) UpdateAudit(id string, score int, feedback string, status model.QuestionStatus) error {
	return r.DB.Model(&model.Question{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quality_score":  score,
		"audit_feedback": feedback,
		"status":         status,
	}).Error
}

// ResetDraft replaces the question content after regeneration and returns it
// to draft state with the unscored sentinel.
func (r *QuestionRepository) ResetDraft(id, questionText string, marks int, sourceParagraph *string) error {
	return r.DB.Model(&model.Question{}).Where("id = ?", id).Updates(map[string]interface{}{
		"question_text":    questionText,
		"marks":            marks,
		"source_paragraph": sourceParagraph,
		"quality_score":    0,
		"audit_feedback":   nil,
		"status":           model.StatusDraft,
	}).Error
}

func (r *QuestionRepository) UpdateStatus(id string, status model.QuestionStatus) error {
	return r.DB.Model(&model.Question{}).Where("id = ?", id).Update("status", status).Error
}

func (r *QuestionRepository) Delete(id string) error {
	return r.DB.Delete(&model.Question{}, "id = ?", id).Error
}

func (r *QuestionRepository) CountByStatus(userID string) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.DB.Model(&model.Question{}).
		Select("questions.status as status, count(*) as count").
		Joins("JOIN syllabi ON syllabi.id = questions.syllabus_id").
		Where("syllabi.user_id = ? AND syllabi.deleted_at IS NULL", userID).
		Group("questions.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (r *QuestionRepository) AverageQualityScore(userID string) (float64, error) {
	var avg *float64
	err := r.DB.Model(&model.Question{}).
		Select("avg(questions.quality_score)").
		Joins("JOIN syllabi ON syllabi.id = questions.syllabus_id").
		Where("syllabi.user_id = ? AND syllabi.deleted_at IS NULL", userID).
		Where("questions.status <> ?", model.StatusDraft).
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

type CoverageCell struct {
	CourseOutcomeID string `json:"courseOutcomeId"`
	OutcomeCode     string `json:"outcomeCode"`
	BloomLevel      string `json:"bloomLevel"`
	Count           int64  `json:"count"`
}

// Coverage returns the outcome-by-level question counts behind the coverage
// heatmap.
func (r *QuestionRepository) Coverage(syllabusID string) ([]CoverageCell, error) {
	var cells []CoverageCell
	err := r.DB.Model(&model.Question{}).
		Select("questions.course_outcome_id as course_outcome_id, course_outcomes.code as outcome_code, questions.bloom_level as bloom_level, count(*) as count").
		Joins("JOIN course_outcomes ON course_outcomes.id = questions.course_outcome_id").
		Where("questions.syllabus_id = ?", syllabusID).
		Group("questions.course_outcome_id, course_outcomes.code, questions.bloom_level").
		Scan(&cells).Error
	return cells, err
}

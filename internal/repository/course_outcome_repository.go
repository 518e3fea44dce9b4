package repository

import (
	"examforge_backend/internal/model"

	"gorm.io/gorm"
)

type CourseOutcomeRepository struct {
	DB *gorm.DB
}

func NewCourseOutcomeRepository(db *gorm.DB) *CourseOutcomeRepository {
	return &CourseOutcomeRepository{DB: db}
}

func (r *CourseOutcomeRepository) BatchCreate(outcomes []model.CourseOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	return r.DB.Create(&outcomes).Error
}

func (r *CourseOutcomeRepository) FindByID(id string) (*model.CourseOutcome, error) {
	var co model.CourseOutcome
	err := r.DB.First(&co, "id = ?", id).Error
	return &co, err
}

// ListBySyllabus returns outcomes in insertion order; the drafting pass
// processes them in exactly this order.
func (r *CourseOutcomeRepository) ListBySyllabus(syllabusID string) ([]model.CourseOutcome, error) {
	var cos []model.CourseOutcome
	err := r.DB.Where("syllabus_id = ?", syllabusID).Order("created_at asc").Find(&cos).Error
	return cos, err
}

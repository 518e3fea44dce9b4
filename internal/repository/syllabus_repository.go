package repository

import (
	"examforge_backend/internal/model"

	"gorm.io/gorm"
)

type SyllabusRepository struct {
	DB *gorm.DB
}

func NewSyllabusRepository(db *gorm.DB) *SyllabusRepository {
	return &SyllabusRepository{DB: db}
}

func (r *SyllabusRepository) Create(s *model.Syllabus) error {
	return r.DB.Create(s).Error
}

func (r *SyllabusRepository) FindByID(id string) (*model.Syllabus, error) {
	var s model.Syllabus
	err := r.DB.First(&s, "id = ?", id).Error
	return &s, err
}

func (r *SyllabusRepository) ListByUser(userID string) ([]model.Syllabus, error) {
	var ss []model.Syllabus
	err := r.DB.Where("user_id = ?", userID).Order("created_at desc").Find(&ss).Error
	return ss, err
}

func (r *SyllabusRepository) Update(s *model.Syllabus) error {
	return r.DB.Save(s).Error
}

// Delete removes the syllabus together with its outcomes and questions.
func (r *SyllabusRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("syllabus_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("syllabus_id = ?", id).Delete(&model.CourseOutcome{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Syllabus{}, "id = ?", id).Error
	})
}

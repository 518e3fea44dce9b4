package service

import (
	"context"
	"errors"
	"io"

	"examforge_backend/internal/model"
	"examforge_backend/internal/repository"
	"examforge_backend/internal/util"

	"gorm.io/gorm"
)

type SyllabusService struct {
	Syllabi  *repository.SyllabusRepository
	Outcomes *repository.CourseOutcomeRepository
	Storage  *StorageService
}

func NewSyllabusService(syllabi *repository.SyllabusRepository, outcomes *repository.CourseOutcomeRepository, storage *StorageService) *SyllabusService {
	return &SyllabusService{
		Syllabi:  syllabi,
		Outcomes: outcomes,
		Storage:  storage,
	}
}

type OutcomeRequest struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description" binding:"required"`
	UnitNumber  int    `json:"unitNumber"`
}

type SyllabusRequest struct {
	Title          string           `json:"title" binding:"required"`
	Content        string           `json:"content"`
	FileName       string           `json:"fileName"`
	CourseOutcomes []OutcomeRequest `json:"courseOutcomes"`
}

func (s *SyllabusService) Create(userID string, req SyllabusRequest) (*model.Syllabus, error) {
	if len(req.Content) > util.MaxSyllabusContentChars {
		return nil, &ValidationError{Msg: "content too large (max 100,000 characters)"}
	}

	syllabus := &model.Syllabus{
		Title:   req.Title,
		Content: req.Content,
		UserID:  userID,
	}
	if req.FileName != "" {
		syllabus.FileName = &req.FileName
	}
	if err := s.Syllabi.Create(syllabus); err != nil {
		return nil, err
	}

	if len(req.CourseOutcomes) > 0 {
		outcomes := make([]model.CourseOutcome, 0, len(req.CourseOutcomes))
		for _, o := range req.CourseOutcomes {
			unit := o.UnitNumber
			if unit <= 0 {
				unit = 1
			}
			outcomes = append(outcomes, model.CourseOutcome{
				SyllabusID:  syllabus.ID,
				Code:        o.Code,
				Description: o.Description,
				UnitNumber:  unit,
			})
		}
		if err := s.Outcomes.BatchCreate(outcomes); err != nil {
			return nil, err
		}
		syllabus.CourseOutcomes = outcomes
	}

	return syllabus, nil
}

func (s *SyllabusService) List(userID string) ([]model.Syllabus, error) {
	return s.Syllabi.ListByUser(userID)
}

func (s *SyllabusService) Get(userID, syllabusID string) (*model.Syllabus, error) {
	syllabus, err := s.findOwned(userID, syllabusID)
	if err != nil {
		return nil, err
	}
	outcomes, err := s.Outcomes.ListBySyllabus(syllabusID)
	if err != nil {
		return nil, err
	}
	syllabus.CourseOutcomes = outcomes
	return syllabus, nil
}

func (s *SyllabusService) ListOutcomes(userID, syllabusID string) ([]model.CourseOutcome, error) {
	if _, err := s.findOwned(userID, syllabusID); err != nil {
		return nil, err
	}
	return s.Outcomes.ListBySyllabus(syllabusID)
}

func (s *SyllabusService) Delete(userID, syllabusID string) error {
	if _, err := s.findOwned(userID, syllabusID); err != nil {
		return err
	}
	return s.Syllabi.Delete(syllabusID)
}

// AttachFile stores the uploaded syllabus source document and records its
// location. The file is kept opaque; no parsing happens server-side.
func (s *SyllabusService) AttachFile(ctx context.Context, userID, syllabusID, fileName string, r io.Reader, size int64, contentType string) (*model.Syllabus, error) {
	syllabus, err := s.findOwned(userID, syllabusID)
	if err != nil {
		return nil, err
	}

	url, err := s.Storage.SaveSyllabusFile(ctx, syllabusID, fileName, r, size, contentType)
	if err != nil {
		return nil, err
	}

	syllabus.FileName = &fileName
	syllabus.FileURL = &url
	if err := s.Syllabi.Update(syllabus); err != nil {
		return nil, err
	}
	return syllabus, nil
}

func (s *SyllabusService) findOwned(userID, syllabusID string) (*model.Syllabus, error) {
	syllabus, err := s.Syllabi.FindByID(syllabusID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSyllabusNotFound
		}
		return nil, err
	}
	if syllabus.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return syllabus, nil
}

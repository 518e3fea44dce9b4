package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"examforge_backend/internal/model"
	"examforge_backend/internal/repository"
	"examforge_backend/internal/util"
	"examforge_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dashboard aggregates are cached briefly; any write that can move the
// numbers drops the caller's cache entries.
const statsCacheTTL = 30 * time.Second

type QuestionService struct {
	Questions *repository.QuestionRepository
	Syllabi   *repository.SyllabusRepository
	Redis     *redis.Client
}

func NewQuestionService(questions *repository.QuestionRepository, syllabi *repository.SyllabusRepository, rdb *redis.Client) *QuestionService {
	return &QuestionService{
		Questions: questions,
		Syllabi:   syllabi,
		Redis:     rdb,
	}
}

type QuestionFilter struct {
	SyllabusID string
	Status     string
	BloomLevel string
}

func (s *QuestionService) List(userID string, filter QuestionFilter) ([]model.Question, error) {
	if filter.SyllabusID != "" {
		if _, err := s.ownedSyllabus(userID, filter.SyllabusID); err != nil {
			return nil, err
		}
	}
	qs, err := s.Questions.List(filter.SyllabusID, filter.Status, filter.BloomLevel)
	if err != nil {
		return nil, err
	}
	if filter.SyllabusID != "" {
		return qs, nil
	}
	// No syllabus filter: restrict to the caller's own syllabi.
	owned := make([]model.Question, 0, len(qs))
	for _, q := range qs {
		if q.Syllabus != nil && q.Syllabus.UserID == userID {
			owned = append(owned, q)
		}
	}
	return owned, nil
}

// ChangeStatus moves a question between review states. Only audited questions
// can be approved or rejected.
func (s *QuestionService) ChangeStatus(ctx context.Context, userID, questionID string, status model.QuestionStatus) (*model.Question, error) {
	if status != model.StatusApproved && status != model.StatusRejected {
		return nil, util.ErrInvalidStatusChange
	}

	q, err := s.ownedQuestion(userID, questionID)
	if err != nil {
		return nil, err
	}
	if q.Status != model.StatusAudited {
		return nil, util.ErrQuestionNotYetAudited
	}

	if err := s.Questions.UpdateStatus(questionID, status); err != nil {
		return nil, err
	}
	q.Status = status
	s.invalidateStats(ctx, userID)
	return q, nil
}

func (s *QuestionService) Delete(ctx context.Context, userID, questionID string) error {
	if _, err := s.ownedQuestion(userID, questionID); err != nil {
		return err
	}
	if err := s.Questions.Delete(questionID); err != nil {
		return err
	}
	s.invalidateStats(ctx, userID)
	return nil
}

type DashboardStats struct {
	TotalQuestions int64            `json:"totalQuestions"`
	ByStatus       map[string]int64 `json:"byStatus"`
	AverageScore   float64          `json:"averageScore"`
	SyllabusCount  int64            `json:"syllabusCount"`
}

func (s *QuestionService) Stats(ctx context.Context, userID string) (*DashboardStats, error) {
	cacheKey := statsKey(userID)
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var stats DashboardStats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}

	counts, err := s.Questions.CountByStatus(userID)
	if err != nil {
		return nil, err
	}
	avg, err := s.Questions.AverageQualityScore(userID)
	if err != nil {
		return nil, err
	}
	syllabi, err := s.Syllabi.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	stats := &DashboardStats{
		TotalQuestions: total,
		ByStatus:       counts,
		AverageScore:   avg,
		SyllabusCount:  int64(len(syllabi)),
	}

	if s.Redis != nil {
		if body, err := json.Marshal(stats); err == nil {
			if err := s.Redis.Set(ctx, cacheKey, body, statsCacheTTL).Err(); err != nil {
				logger.Log.Warn("stats cache write failed", zap.Error(err))
			}
		}
	}
	return stats, nil
}

func (s *QuestionService) Coverage(ctx context.Context, userID, syllabusID string) ([]repository.CoverageCell, error) {
	if _, err := s.ownedSyllabus(userID, syllabusID); err != nil {
		return nil, err
	}

	cacheKey := coverageKey(syllabusID)
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var cells []repository.CoverageCell
			if json.Unmarshal([]byte(cached), &cells) == nil {
				return cells, nil
			}
		}
	}

	cells, err := s.Questions.Coverage(syllabusID)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if body, err := json.Marshal(cells); err == nil {
			s.Redis.Set(ctx, cacheKey, body, statsCacheTTL)
		}
	}
	return cells, nil
}

// InvalidateCaches drops the dashboard cache entries affected by a write to
// the given syllabus. Safe to call with a nil redis client.
func (s *QuestionService) InvalidateCaches(ctx context.Context, userID, syllabusID string) {
	s.invalidateStats(ctx, userID)
	if s.Redis != nil && syllabusID != "" {
		s.Redis.Del(ctx, coverageKey(syllabusID))
	}
}

func (s *QuestionService) invalidateStats(ctx context.Context, userID string) {
	if s.Redis != nil {
		s.Redis.Del(ctx, statsKey(userID))
	}
}

func statsKey(userID string) string { return fmt.Sprintf("dashboard:stats:%s", userID) }

func coverageKey(sylID string) string { return fmt.Sprintf("dashboard:coverage:%s", sylID) }

func (s *QuestionService) ownedQuestion(userID, questionID string) (*model.Question, error) {
	q, err := s.Questions.FindByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	if q.Syllabus == nil || q.Syllabus.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return q, nil
}

func (s *QuestionService) ownedSyllabus(userID, syllabusID string) (*model.Syllabus, error) {
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

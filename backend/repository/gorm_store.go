package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"examhub/backend/models"
	"examhub/backend/services"
)

// GormStore implements the attempt core's persistence ports on top of GORM.
// Concurrency hazards are pushed down to the database: answer upserts ride on
// the (attempt_id, question_id) unique index and counter updates are atomic
// SQL increments.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

var _ services.ExamProvider = (*GormStore)(nil)
var _ services.QuestionProvider = (*GormStore)(nil)
var _ services.AttemptStore = (*GormStore)(nil)

func (s *GormStore) GetExam(ctx context.Context, examID uuid.UUID) (*models.Exam, error) {
	var exam models.Exam
	err := s.DB.WithContext(ctx).First(&exam, "id = ?", examID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrExamNotFound
		}
		return nil, err
	}
	return &exam, nil
}

func (s *GormStore) GetExamQuestions(ctx context.Context, examID uuid.UUID) ([]models.ExamQuestion, error) {
	var bindings []models.ExamQuestion
	err := s.DB.WithContext(ctx).
		Preload("Question").
		Preload("Question.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("exam_id = ?", examID).
		Order("position ASC").
		Find(&bindings).Error
	if err != nil {
		return nil, err
	}
	return bindings, nil
}

func (s *GormStore) GetQuestion(ctx context.Context, questionID uuid.UUID) (*models.Question, error) {
	var question models.Question
	err := s.DB.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&question, "id = ?", questionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrQuestionNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (s *GormStore) CreateAttempt(ctx context.Context, attempt *models.ExamAttempt) error {
	return s.DB.WithContext(ctx).Create(attempt).Error
}

func (s *GormStore) GetAttempt(ctx context.Context, attemptID uuid.UUID) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	err := s.DB.WithContext(ctx).First(&attempt, "id = ?", attemptID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrAttemptNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

func (s *GormStore) UpdateAttempt(ctx context.Context, attemptID uuid.UUID, fields map[string]interface{}) error {
	return s.DB.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("id = ?", attemptID).
		Updates(fields).Error
}

// UpsertAnswer writes an answer keyed by (attempt_id, question_id): a
// conflict replaces the previous selection in place, so concurrent
// submissions resolve to last write wins without duplicate rows.
func (s *GormStore) UpsertAnswer(ctx context.Context, answer *models.UserAnswer) error {
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"selected_option_id",
				"selected_option_ids",
				"text_answer",
				"is_correct",
				"points_awarded",
				"time_spent",
				"answered_at",
			}),
		}).
		Create(answer).Error
}

func (s *GormStore) ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]models.UserAnswer, error) {
	var answers []models.UserAnswer
	err := s.DB.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

func (s *GormStore) CountCompletedAttempts(ctx context.Context, examID uuid.UUID, userID uint) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("exam_id = ? AND user_id = ? AND status = ?", examID, userID, models.AttemptCompleted).
		Count(&count).Error
	return count, err
}

// IncrementQuestionCounters bumps usage counters with `col = col + 1`
// expressions so concurrent gradings of the same question never lose updates.
func (s *GormStore) IncrementQuestionCounters(ctx context.Context, questionID uuid.UUID, wasCorrect bool) error {
	updates := map[string]interface{}{
		"usage_count":   gorm.Expr("usage_count + 1"),
		"total_answers": gorm.Expr("total_answers + 1"),
	}
	if wasCorrect {
		updates["correct_answers"] = gorm.Expr("correct_answers + 1")
	}
	return s.DB.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", questionID).
		UpdateColumns(updates).Error
}

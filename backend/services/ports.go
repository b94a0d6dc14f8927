package services

import (
	"context"

	"github.com/google/uuid"

	"examhub/backend/models"
)

// ExamProvider exposes exam configuration and the ordered question bindings.
// Read-only to the attempt core.
type ExamProvider interface {
	// GetExam returns ErrExamNotFound for missing or soft-deleted exams.
	GetExam(ctx context.Context, examID uuid.UUID) (*models.Exam, error)
	// GetExamQuestions returns bindings in display order with their questions
	// and options preloaded.
	GetExamQuestions(ctx context.Context, examID uuid.UUID) ([]models.ExamQuestion, error)
}

// QuestionProvider resolves a question with its options.
type QuestionProvider interface {
	GetQuestion(ctx context.Context, questionID uuid.UUID) (*models.Question, error)
}

// AttemptStore is the persistence port for attempts and answers.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, attempt *models.ExamAttempt) error
	// GetAttempt returns ErrAttemptNotFound when no row exists.
	GetAttempt(ctx context.Context, attemptID uuid.UUID) (*models.ExamAttempt, error)
	UpdateAttempt(ctx context.Context, attemptID uuid.UUID, fields map[string]interface{}) error

	// UpsertAnswer resolves concurrent submissions for the same
	// (attempt, question) to last-write-wins without duplicate rows.
	UpsertAnswer(ctx context.Context, answer *models.UserAnswer) error
	ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]models.UserAnswer, error)

	CountCompletedAttempts(ctx context.Context, examID uuid.UUID, userID uint) (int64, error)

	// IncrementQuestionCounters bumps the question's usage counters with
	// atomic increments at the store, never read-modify-write.
	IncrementQuestionCounters(ctx context.Context, questionID uuid.UUID, wasCorrect bool) error
}

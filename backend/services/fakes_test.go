package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"examhub/backend/models"
)

// memStore is an in-memory implementation of the service ports, enough to
// exercise the attempt lifecycle without a database.
type memStore struct {
	mu sync.Mutex

	exams     map[uuid.UUID]*models.Exam
	bindings  map[uuid.UUID][]models.ExamQuestion
	questions map[uuid.UUID]*models.Question
	attempts  map[uuid.UUID]*models.ExamAttempt
	answers   map[uuid.UUID]map[uuid.UUID]models.UserAnswer

	counterBumps map[uuid.UUID]int
	correctBumps map[uuid.UUID]int
}

func newMemStore() *memStore {
	return &memStore{
		exams:        make(map[uuid.UUID]*models.Exam),
		bindings:     make(map[uuid.UUID][]models.ExamQuestion),
		questions:    make(map[uuid.UUID]*models.Question),
		attempts:     make(map[uuid.UUID]*models.ExamAttempt),
		answers:      make(map[uuid.UUID]map[uuid.UUID]models.UserAnswer),
		counterBumps: make(map[uuid.UUID]int),
		correctBumps: make(map[uuid.UUID]int),
	}
}

func (m *memStore) GetExam(_ context.Context, examID uuid.UUID) (*models.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exam, ok := m.exams[examID]
	if !ok {
		return nil, ErrExamNotFound
	}
	cp := *exam
	return &cp, nil
}

func (m *memStore) GetExamQuestions(_ context.Context, examID uuid.UUID) ([]models.ExamQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ExamQuestion, len(m.bindings[examID]))
	copy(out, m.bindings[examID])
	return out, nil
}

func (m *memStore) GetQuestion(_ context.Context, questionID uuid.UUID) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[questionID]
	if !ok {
		return nil, ErrQuestionNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *memStore) CreateAttempt(_ context.Context, attempt *models.ExamAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	cp := *attempt
	m.attempts[attempt.ID] = &cp
	return nil
}

func (m *memStore) GetAttempt(_ context.Context, attemptID uuid.UUID) (*models.ExamAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) UpdateAttempt(_ context.Context, attemptID uuid.UUID, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return ErrAttemptNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			a.Status = v.(models.AttemptStatus)
		case "completed_at":
			t := v.(time.Time)
			a.CompletedAt = &t
		case "duration":
			d := v.(int)
			a.Duration = &d
		case "score":
			a.Score = v.(float64)
		case "total_points":
			a.TotalPoints = v.(float64)
		case "max_points":
			a.MaxPoints = v.(float64)
		case "correct_count":
			a.CorrectCount = v.(int)
		case "incorrect_count":
			a.IncorrectCount = v.(int)
		case "unanswered_count":
			a.UnansweredCount = v.(int)
		case "needs_grading_count":
			a.NeedsGradingCount = v.(int)
		case "is_passed":
			a.IsPassed = v.(bool)
		}
	}
	return nil
}

func (m *memStore) UpsertAnswer(_ context.Context, answer *models.UserAnswer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if answer.ID == uuid.Nil {
		answer.ID = uuid.New()
	}
	byQuestion, ok := m.answers[answer.AttemptID]
	if !ok {
		byQuestion = make(map[uuid.UUID]models.UserAnswer)
		m.answers[answer.AttemptID] = byQuestion
	}
	if prev, exists := byQuestion[answer.QuestionID]; exists {
		answer.ID = prev.ID
	}
	byQuestion[answer.QuestionID] = *answer
	return nil
}

func (m *memStore) ListAnswers(_ context.Context, attemptID uuid.UUID) ([]models.UserAnswer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UserAnswer
	for _, a := range m.answers[attemptID] {
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) CountCompletedAttempts(_ context.Context, examID uuid.UUID, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, a := range m.attempts {
		if a.ExamID == examID && a.UserID == userID && a.Status == models.AttemptCompleted {
			count++
		}
	}
	return count, nil
}

func (m *memStore) IncrementQuestionCounters(_ context.Context, questionID uuid.UUID, wasCorrect bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counterBumps[questionID]++
	if wasCorrect {
		m.correctBumps[questionID]++
	}
	return nil
}

package services

import (
	"context"
	"math"

	"github.com/google/uuid"

	"examhub/backend/models"
)

// Score is the recomputed total for one attempt, derived from the persisted
// answers and the exam's question bindings.
type Score struct {
	TotalQuestions int     `json:"total_questions"`
	Answered       int     `json:"answered"`
	Correct        int     `json:"correct_answers"`
	Incorrect      int     `json:"incorrect_answers"`
	NeedsGrading   int     `json:"needs_grading"`
	Unanswered     int     `json:"unanswered_questions"`
	TotalPoints    float64 `json:"total_points"`
	MaxPoints      float64 `json:"max_points"`
	Percentage     float64 `json:"percentage"`
}

// ComputeScore aggregates answers against the full set of bindings. Answers
// for questions no longer bound to the exam are ignored.
func ComputeScore(bindings []models.ExamQuestion, answers []models.UserAnswer) Score {
	s := Score{TotalQuestions: len(bindings)}

	bound := make(map[uuid.UUID]struct{}, len(bindings))
	for _, b := range bindings {
		s.MaxPoints += b.Points
		bound[b.QuestionID] = struct{}{}
	}

	for _, a := range answers {
		if _, ok := bound[a.QuestionID]; !ok {
			continue
		}
		s.Answered++
		switch {
		case a.IsCorrect == nil:
			s.NeedsGrading++
		case *a.IsCorrect:
			s.Correct++
			s.TotalPoints += a.PointsAwarded
		default:
			s.Incorrect++
		}
	}

	s.Unanswered = s.TotalQuestions - s.Answered
	if s.MaxPoints > 0 {
		s.Percentage = round2(s.TotalPoints / s.MaxPoints * 100)
	}
	return s
}

// AggregateScore loads the attempt's exam bindings and answers and recomputes
// the totals.
func (s *AttemptService) AggregateScore(ctx context.Context, attemptID uuid.UUID) (Score, error) {
	attempt, err := s.Store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Score{}, err
	}
	bindings, err := s.Exams.GetExamQuestions(ctx, attempt.ExamID)
	if err != nil {
		return Score{}, err
	}
	answers, err := s.Store.ListAnswers(ctx, attemptID)
	if err != nil {
		return Score{}, err
	}
	return ComputeScore(bindings, answers), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package services

import (
	"context"

	"github.com/google/uuid"

	"examhub/backend/models"
)

// ResultOption mirrors an option in the results view. IsCorrect is only
// populated when the exam's visibility policy reveals answers.
type ResultOption struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Position  int       `json:"position"`
	IsCorrect *bool     `json:"is_correct,omitempty"`
}

// ResultAnswer is the taker's persisted answer. Correctness and points are
// only populated when answers are revealed.
type ResultAnswer struct {
	SelectedOptionID   *uuid.UUID  `json:"selected_option_id,omitempty"`
	SelectedOptionIDs  []uuid.UUID `json:"selected_option_ids,omitempty"`
	TextAnswer         *string     `json:"text_answer,omitempty"`
	IsCorrect          *bool       `json:"is_correct,omitempty"`
	PointsAwarded      *float64    `json:"points_awarded,omitempty"`
	NeedsManualGrading bool        `json:"needs_manual_grading"`
}

type ResultQuestion struct {
	QuestionID  uuid.UUID      `json:"question_id"`
	Type        string         `json:"type"`
	Text        string         `json:"text"`
	Points      float64        `json:"points"`
	Position    int            `json:"position"`
	Explanation string         `json:"explanation,omitempty"`
	Options     []ResultOption `json:"options,omitempty"`
	Answer      *ResultAnswer  `json:"answer,omitempty"`
}

type ResultsView struct {
	AttemptID   uuid.UUID            `json:"attempt_id"`
	ExamID      uuid.UUID            `json:"exam_id"`
	Status      models.AttemptStatus `json:"status"`
	Score       float64              `json:"score"`
	IsPassed    bool                 `json:"is_passed"`
	ShowAnswers bool                 `json:"show_answers"`
	Questions   []ResultQuestion     `json:"questions"`
}

// GetResults combines an attempt with the exam's visibility policy. The
// ownership check is not delegated to the HTTP layer: it gates whether any
// data is returned at all.
func (s *AttemptService) GetResults(ctx context.Context, attemptID uuid.UUID, requestingUserID uint) (*ResultsView, error) {
	attempt, err := s.Store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != requestingUserID {
		return nil, ErrNotOwner
	}

	exam, err := s.Exams.GetExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}
	bindings, err := s.Exams.GetExamQuestions(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}
	answers, err := s.Store.ListAnswers(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	showAnswers := revealAnswers(exam.ShowAnswersAfter, attempt.Status)

	byQuestion := make(map[uuid.UUID]*models.UserAnswer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	view := &ResultsView{
		AttemptID:   attempt.ID,
		ExamID:      attempt.ExamID,
		Status:      attempt.Status,
		Score:       attempt.Score,
		IsPassed:    attempt.IsPassed,
		ShowAnswers: showAnswers,
	}

	for _, b := range bindings {
		rq := ResultQuestion{
			QuestionID: b.QuestionID,
			Type:       b.Question.Type,
			Text:       b.Question.Text,
			Points:     b.Points,
			Position:   b.Position,
		}
		if showAnswers {
			rq.Explanation = b.Question.Explanation
		}
		for _, o := range b.Question.Options {
			ro := ResultOption{ID: o.ID, Text: o.Text, Position: o.Position}
			if showAnswers {
				correct := o.IsCorrect
				ro.IsCorrect = &correct
			}
			rq.Options = append(rq.Options, ro)
		}
		if a, ok := byQuestion[b.QuestionID]; ok {
			ra := &ResultAnswer{
				SelectedOptionID:   a.SelectedOptionID,
				SelectedOptionIDs:  a.SelectedIDs(),
				TextAnswer:         a.TextAnswer,
				NeedsManualGrading: a.IsCorrect == nil,
			}
			if showAnswers {
				ra.IsCorrect = a.IsCorrect
				points := a.PointsAwarded
				ra.PointsAwarded = &points
			}
			rq.Answer = ra
		}
		view.Questions = append(view.Questions, rq)
	}

	return view, nil
}

// Visibility decision table, keyed by the exam's show-answers policy.
func revealAnswers(policy string, status models.AttemptStatus) bool {
	switch policy {
	case models.ShowAnswersImmediately:
		return true
	case models.ShowAnswersAfterSubmit:
		// Only once fully auto-graded with nothing pending.
		return status == models.AttemptCompleted
	default:
		return false
	}
}

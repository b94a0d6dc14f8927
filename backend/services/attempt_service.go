package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"examhub/backend/grading"
	"examhub/backend/models"
)

// AttemptService drives the attempt state machine: start, submit-answer,
// submit-exam, abandon. All suspension points are store I/O; concurrency
// correctness is delegated to the store's transactional guarantees.
type AttemptService struct {
	Exams     ExamProvider
	Questions QuestionProvider
	Store     AttemptStore

	now func() time.Time
}

func NewAttemptService(exams ExamProvider, questions QuestionProvider, store AttemptStore) *AttemptService {
	return &AttemptService{Exams: exams, Questions: questions, Store: store, now: time.Now}
}

// OptionView is an option as presented to the taker: correctness stripped.
type OptionView struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"text"`
	Position int       `json:"position"`
}

// AttemptQuestionView is one question in the presented sequence.
type AttemptQuestionView struct {
	QuestionID uuid.UUID    `json:"question_id"`
	Type       string       `json:"type"`
	Text       string       `json:"text"`
	Points     float64      `json:"points"`
	Position   int          `json:"position"`
	IsRequired bool         `json:"is_required"`
	Options    []OptionView `json:"options,omitempty"`
}

type StartAttemptResult struct {
	AttemptID      uuid.UUID             `json:"attempt_id"`
	Questions      []AttemptQuestionView `json:"questions"`
	TotalQuestions int                   `json:"total_questions"`
	TimeRemaining  *int                  `json:"time_remaining,omitempty"`
}

// StartAttempt creates a new in-progress attempt after checking, in order:
// the exam exists, is published, has bound questions, and the user has
// attempts left.
func (s *AttemptService) StartAttempt(ctx context.Context, examID uuid.UUID, userID uint, metadata datatypes.JSON) (*StartAttemptResult, error) {
	exam, err := s.Exams.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !exam.IsPublished {
		return nil, ErrExamNotPublished
	}

	bindings, err := s.Exams.GetExamQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	if len(bindings) == 0 {
		return nil, ErrExamHasNoQuestions
	}

	if exam.AttemptsAllowed != nil {
		completed, err := s.Store.CountCompletedAttempts(ctx, examID, userID)
		if err != nil {
			return nil, err
		}
		if completed >= int64(*exam.AttemptsAllowed) {
			return nil, ErrAttemptLimitReached
		}
	}

	maxPoints := 0.0
	for _, b := range bindings {
		maxPoints += b.Points
	}

	attempt := &models.ExamAttempt{
		ExamID:    examID,
		UserID:    userID,
		Status:    models.AttemptInProgress,
		StartedAt: s.now().UTC(),
		MaxPoints: maxPoints,
		Metadata:  metadata,
	}
	if exam.Duration != nil {
		remaining := *exam.Duration * 60
		attempt.TimeRemaining = &remaining
	}
	if err := s.Store.CreateAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	sequence := grading.Sequence(bindings, exam.RandomizeQuestions, exam.QuestionPoolSize)
	views := make([]AttemptQuestionView, 0, len(sequence))
	for _, b := range sequence {
		views = append(views, questionView(b))
	}

	return &StartAttemptResult{
		AttemptID:      attempt.ID,
		Questions:      views,
		TotalQuestions: len(bindings),
		TimeRemaining:  attempt.TimeRemaining,
	}, nil
}

type SubmitAnswerResult struct {
	IsCorrect          *bool   `json:"is_correct"`
	PointsAwarded      float64 `json:"points_awarded"`
	NeedsManualGrading bool    `json:"needs_manual_grading"`
}

// SubmitAnswer grades and upserts one answer for an in-progress attempt.
// A prior answer for the same question is replaced, not appended.
func (s *AttemptService) SubmitAnswer(ctx context.Context, attemptID, questionID uuid.UUID, payload grading.Payload, timeSpent *int) (*SubmitAnswerResult, error) {
	attempt, err := s.Store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAttemptNotInProgress
	}

	bindings, err := s.Exams.GetExamQuestions(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}
	var binding *models.ExamQuestion
	for i := range bindings {
		if bindings[i].QuestionID == questionID {
			binding = &bindings[i]
			break
		}
	}
	if binding == nil {
		return nil, ErrQuestionNotInExam
	}

	question, err := s.Questions.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	if err := grading.ValidatePayload(question.Type, payload); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	result := grading.Grade(question.Type, grading.CorrectSet(question), payload, binding.Points)

	answer := &models.UserAnswer{
		AttemptID:        attemptID,
		QuestionID:       questionID,
		SelectedOptionID: payload.SelectedOptionID,
		TextAnswer:       payload.Text,
		IsCorrect:        result.IsCorrect,
		PointsAwarded:    result.PointsAwarded,
		TimeSpent:        timeSpent,
		AnsweredAt:       s.now().UTC(),
	}
	if len(payload.SelectedOptionIDs) > 0 {
		if err := answer.SetSelectedIDs(payload.SelectedOptionIDs); err != nil {
			return nil, err
		}
	}
	if err := s.Store.UpsertAnswer(ctx, answer); err != nil {
		return nil, err
	}

	wasCorrect := result.IsCorrect != nil && *result.IsCorrect
	if err := s.Store.IncrementQuestionCounters(ctx, questionID, wasCorrect); err != nil {
		return nil, err
	}

	return &SubmitAnswerResult{
		IsCorrect:          result.IsCorrect,
		PointsAwarded:      result.PointsAwarded,
		NeedsManualGrading: result.NeedsManualGrading,
	}, nil
}

type SubmitExamResult struct {
	FinalStatus models.AttemptStatus `json:"final_status"`
	Score       float64              `json:"score"`
	IsPassed    bool                 `json:"is_passed"`
	Totals      Score                `json:"totals"`
}

// SubmitExam finalizes an in-progress attempt: recomputes totals from the
// persisted answers, derives the final status, and persists the verdict.
// Pass/fail reflects the score as it stands at submission time; a later
// manual-grading pass does not recompute it here.
func (s *AttemptService) SubmitExam(ctx context.Context, attemptID uuid.UUID) (*SubmitExamResult, error) {
	attempt, err := s.Store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAttemptAlreadySubmitted
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
	totals := ComputeScore(bindings, answers)

	finalStatus := models.AttemptCompleted
	if totals.Unanswered > 0 || totals.NeedsGrading > 0 {
		finalStatus = models.AttemptGrading
	}
	isPassed := totals.Percentage >= exam.PassingScore

	now := s.now().UTC()
	duration := int(now.Sub(attempt.StartedAt).Seconds())

	fields := map[string]interface{}{
		"status":              finalStatus,
		"completed_at":        now,
		"duration":            duration,
		"score":               totals.Percentage,
		"total_points":        totals.TotalPoints,
		"max_points":          totals.MaxPoints,
		"correct_count":       totals.Correct,
		"incorrect_count":     totals.Incorrect,
		"unanswered_count":    totals.Unanswered,
		"needs_grading_count": totals.NeedsGrading,
		"is_passed":           isPassed,
	}
	if err := s.Store.UpdateAttempt(ctx, attemptID, fields); err != nil {
		return nil, err
	}

	return &SubmitExamResult{
		FinalStatus: finalStatus,
		Score:       totals.Percentage,
		IsPassed:    isPassed,
		Totals:      totals,
	}, nil
}

// AbandonAttempt transitions in_progress to abandoned. Once the attempt is in
// any other state this is a no-op returning the current status.
func (s *AttemptService) AbandonAttempt(ctx context.Context, attemptID uuid.UUID) (models.AttemptStatus, error) {
	attempt, err := s.Store.GetAttempt(ctx, attemptID)
	if err != nil {
		return "", err
	}
	if attempt.Status != models.AttemptInProgress {
		return attempt.Status, nil
	}

	now := s.now().UTC()
	fields := map[string]interface{}{
		"status":       models.AttemptAbandoned,
		"completed_at": now,
	}
	if err := s.Store.UpdateAttempt(ctx, attemptID, fields); err != nil {
		return "", err
	}
	return models.AttemptAbandoned, nil
}

func questionView(b models.ExamQuestion) AttemptQuestionView {
	view := AttemptQuestionView{
		QuestionID: b.QuestionID,
		Type:       b.Question.Type,
		Text:       b.Question.Text,
		Points:     b.Points,
		Position:   b.Position,
		IsRequired: b.IsRequired,
	}
	for _, o := range b.Question.Options {
		view.Options = append(view.Options, OptionView{ID: o.ID, Text: o.Text, Position: o.Position})
	}
	return view
}

package grading

import (
	"fmt"

	"github.com/google/uuid"

	"examhub/backend/models"
)

// Payload is the tagged answer variant, keyed by the question's type:
// single-choice types carry SelectedOptionID, multiple_answer carries
// SelectedOptionIDs, essay/fill_blank carry Text.
type Payload struct {
	SelectedOptionID  *uuid.UUID
	SelectedOptionIDs []uuid.UUID
	Text              *string
}

// Result is the outcome of grading a single answer. IsCorrect is nil when the
// answer cannot be auto-graded and awaits manual review.
type Result struct {
	IsCorrect          *bool
	PointsAwarded      float64
	NeedsManualGrading bool
}

// ValidatePayload checks that the payload shape matches the question type
// before the answer reaches the grader.
func ValidatePayload(questionType string, p Payload) error {
	switch questionType {
	case models.QuestionSingleChoiceMC, models.QuestionSingleChoiceTF:
		if len(p.SelectedOptionIDs) > 0 || p.Text != nil {
			return fmt.Errorf("question type %s takes a single selected_option_id", questionType)
		}
	case models.QuestionMultipleAnswer:
		if p.SelectedOptionID != nil || p.Text != nil {
			return fmt.Errorf("question type %s takes selected_option_ids", questionType)
		}
	case models.QuestionEssay, models.QuestionFillBlank:
		if p.SelectedOptionID != nil || len(p.SelectedOptionIDs) > 0 {
			return fmt.Errorf("question type %s takes a text_answer", questionType)
		}
	default:
		return fmt.Errorf("unknown question type %q", questionType)
	}
	return nil
}

type strategy func(correct map[uuid.UUID]struct{}, p Payload, points float64) Result

var strategies = map[string]strategy{
	models.QuestionSingleChoiceMC: gradeSingleChoice,
	models.QuestionSingleChoiceTF: gradeSingleChoice,
	models.QuestionMultipleAnswer: gradeMultipleAnswer,
	models.QuestionEssay:          gradeManual,
	models.QuestionFillBlank:      gradeManual,
}

// Grade applies the per-type rule to a validated payload. There is no partial
// credit anywhere: a correct objective answer earns the full point value,
// anything else earns zero. Grading is deterministic.
func Grade(questionType string, correct map[uuid.UUID]struct{}, p Payload, points float64) Result {
	s, ok := strategies[questionType]
	if !ok {
		// Unknown types are treated like subjective ones rather than guessed at.
		return gradeManual(correct, p, points)
	}
	return s(correct, p, points)
}

// CorrectSet builds the grader's correct-option set from a question's options.
func CorrectSet(q *models.Question) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{})
	for _, o := range q.Options {
		if o.IsCorrect {
			set[o.ID] = struct{}{}
		}
	}
	return set
}

// Correct iff the submitted id is a member of the correct set (expected
// cardinality 1). No selection grades incorrect with zero points.
func gradeSingleChoice(correct map[uuid.UUID]struct{}, p Payload, points float64) Result {
	if p.SelectedOptionID == nil {
		return incorrect()
	}
	if _, ok := correct[*p.SelectedOptionID]; ok {
		return correctResult(points)
	}
	return incorrect()
}

// Correct iff the submitted set equals the correct set exactly. Any missing
// correct option or extra incorrect option fails the whole answer.
func gradeMultipleAnswer(correct map[uuid.UUID]struct{}, p Payload, points float64) Result {
	if len(p.SelectedOptionIDs) == 0 {
		return incorrect()
	}
	selected := make(map[uuid.UUID]struct{}, len(p.SelectedOptionIDs))
	for _, id := range p.SelectedOptionIDs {
		selected[id] = struct{}{}
	}
	if len(selected) != len(correct) {
		return incorrect()
	}
	for id := range selected {
		if _, ok := correct[id]; !ok {
			return incorrect()
		}
	}
	return correctResult(points)
}

func gradeManual(map[uuid.UUID]struct{}, Payload, float64) Result {
	return Result{IsCorrect: nil, PointsAwarded: 0, NeedsManualGrading: true}
}

func correctResult(points float64) Result {
	v := true
	return Result{IsCorrect: &v, PointsAwarded: points}
}

func incorrect() Result {
	v := false
	return Result{IsCorrect: &v, PointsAwarded: 0}
}

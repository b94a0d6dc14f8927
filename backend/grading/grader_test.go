package grading

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examhub/backend/models"
)

func set(ids ...uuid.UUID) map[uuid.UUID]struct{} {
	s := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func TestGradeSingleChoice(t *testing.T) {
	right := uuid.New()
	wrong := uuid.New()

	tests := []struct {
		name     string
		selected *uuid.UUID
		correct  bool
		points   float64
	}{
		{"correct option earns full points", &right, true, 5},
		{"wrong option earns zero", &wrong, false, 0},
		{"no selection grades incorrect", nil, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Grade(models.QuestionSingleChoiceMC, set(right), Payload{SelectedOptionID: tt.selected}, 5)
			require.NotNil(t, res.IsCorrect)
			assert.Equal(t, tt.correct, *res.IsCorrect)
			assert.Equal(t, tt.points, res.PointsAwarded)
			assert.False(t, res.NeedsManualGrading)
		})
	}
}

func TestGradeTrueFalse(t *testing.T) {
	trueOpt := uuid.New()

	res := Grade(models.QuestionSingleChoiceTF, set(trueOpt), Payload{SelectedOptionID: &trueOpt}, 2)
	require.NotNil(t, res.IsCorrect)
	assert.True(t, *res.IsCorrect)
	assert.Equal(t, 2.0, res.PointsAwarded)
}

func TestGradeMultipleAnswerExactSet(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	correct := set(a, b)

	tests := []struct {
		name      string
		selected  []uuid.UUID
		isCorrect bool
		points    float64
	}{
		{"exact match earns full points", []uuid.UUID{a, b}, true, 4},
		{"order does not matter", []uuid.UUID{b, a}, true, 4},
		{"missing a correct option fails", []uuid.UUID{a}, false, 0},
		{"extra incorrect option fails", []uuid.UUID{a, b, c}, false, 0},
		{"only incorrect options fails", []uuid.UUID{c}, false, 0},
		{"empty selection grades incorrect", nil, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Grade(models.QuestionMultipleAnswer, correct, Payload{SelectedOptionIDs: tt.selected}, 4)
			require.NotNil(t, res.IsCorrect)
			assert.Equal(t, tt.isCorrect, *res.IsCorrect)
			assert.Equal(t, tt.points, res.PointsAwarded)
		})
	}
}

func TestGradeMultipleAnswerDuplicateSelections(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	// Duplicates collapse into a set before comparison.
	res := Grade(models.QuestionMultipleAnswer, set(a, b), Payload{SelectedOptionIDs: []uuid.UUID{a, a, b}}, 3)
	require.NotNil(t, res.IsCorrect)
	assert.True(t, *res.IsCorrect)
	assert.Equal(t, 3.0, res.PointsAwarded)
}

func TestGradeSubjectiveNeedsManualReview(t *testing.T) {
	text := "the mitochondria is the powerhouse of the cell"

	for _, qt := range []string{models.QuestionEssay, models.QuestionFillBlank} {
		res := Grade(qt, nil, Payload{Text: &text}, 10)
		assert.Nil(t, res.IsCorrect, qt)
		assert.Zero(t, res.PointsAwarded, qt)
		assert.True(t, res.NeedsManualGrading, qt)
	}
}

func TestGradeUnknownTypeFallsBackToManual(t *testing.T) {
	res := Grade("matching", nil, Payload{}, 5)
	assert.Nil(t, res.IsCorrect)
	assert.True(t, res.NeedsManualGrading)
}

func TestGradeIsDeterministic(t *testing.T) {
	right := uuid.New()
	correct := set(right)
	p := Payload{SelectedOptionID: &right}

	first := Grade(models.QuestionSingleChoiceMC, correct, p, 3)
	for i := 0; i < 50; i++ {
		again := Grade(models.QuestionSingleChoiceMC, correct, p, 3)
		assert.Equal(t, *first.IsCorrect, *again.IsCorrect)
		assert.Equal(t, first.PointsAwarded, again.PointsAwarded)
	}
}

func TestValidatePayload(t *testing.T) {
	id := uuid.New()
	text := "answer"

	tests := []struct {
		name    string
		qType   string
		payload Payload
		wantErr bool
	}{
		{"single choice with option id", models.QuestionSingleChoiceMC, Payload{SelectedOptionID: &id}, false},
		{"single choice with multi ids rejected", models.QuestionSingleChoiceMC, Payload{SelectedOptionIDs: []uuid.UUID{id}}, true},
		{"single choice with text rejected", models.QuestionSingleChoiceTF, Payload{Text: &text}, true},
		{"multiple answer with ids", models.QuestionMultipleAnswer, Payload{SelectedOptionIDs: []uuid.UUID{id}}, false},
		{"multiple answer with single id rejected", models.QuestionMultipleAnswer, Payload{SelectedOptionID: &id}, true},
		{"essay with text", models.QuestionEssay, Payload{Text: &text}, false},
		{"fill blank with option id rejected", models.QuestionFillBlank, Payload{SelectedOptionID: &id}, true},
		{"unknown type rejected", "matching", Payload{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayload(tt.qType, tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCorrectSet(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	q := &models.Question{
		Type: models.QuestionMultipleAnswer,
		Options: []models.QuestionOption{
			{ID: a, IsCorrect: true},
			{ID: b, IsCorrect: false},
			{ID: c, IsCorrect: true},
		},
	}

	got := CorrectSet(q)
	assert.Len(t, got, 2)
	assert.Contains(t, got, a)
	assert.Contains(t, got, c)
	assert.NotContains(t, got, b)
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"examhub/backend/models"
	"examhub/backend/services"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Question{},
		&models.QuestionOption{},
		&models.Exam{},
		&models.ExamQuestion{},
		&models.ExamAttempt{},
		&models.UserAnswer{},
	))
	return db
}

func seedExam(t *testing.T, db *gorm.DB) (*models.Exam, *models.Question) {
	t.Helper()
	question := &models.Question{
		AuthorID: 1,
		Type:     models.QuestionSingleChoiceMC,
		Text:     "2 + 2?",
		Options: []models.QuestionOption{
			{Text: "4", IsCorrect: true, Position: 1},
			{Text: "5", Position: 2},
		},
	}
	require.NoError(t, db.Create(question).Error)

	exam := &models.Exam{
		CreatorID:        1,
		Title:            "arithmetic",
		IsPublished:      true,
		PassingScore:     60,
		ShowAnswersAfter: models.ShowAnswersAfterSubmit,
	}
	require.NoError(t, db.Create(exam).Error)
	require.NoError(t, db.Create(&models.ExamQuestion{
		ExamID:     exam.ID,
		QuestionID: question.ID,
		Points:     2,
		Position:   1,
		IsRequired: true,
	}).Error)
	return exam, question
}

func TestGormStoreNotFoundMapping(t *testing.T) {
	store := NewGormStore(testDB(t))
	ctx := context.Background()

	_, err := store.GetExam(ctx, uuid.New())
	assert.ErrorIs(t, err, services.ErrExamNotFound)

	_, err = store.GetQuestion(ctx, uuid.New())
	assert.ErrorIs(t, err, services.ErrQuestionNotFound)

	_, err = store.GetAttempt(ctx, uuid.New())
	assert.ErrorIs(t, err, services.ErrAttemptNotFound)
}

func TestGormStoreGetExamQuestionsOrdered(t *testing.T) {
	db := testDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	exam := &models.Exam{CreatorID: 1, Title: "ordered"}
	require.NoError(t, db.Create(exam).Error)

	// Insert out of display order.
	var qids []uuid.UUID
	for _, pos := range []int{3, 1, 2} {
		q := &models.Question{AuthorID: 1, Type: models.QuestionEssay, Text: "q"}
		require.NoError(t, db.Create(q).Error)
		qids = append(qids, q.ID)
		require.NoError(t, db.Create(&models.ExamQuestion{
			ExamID: exam.ID, QuestionID: q.ID, Points: 1, Position: pos,
		}).Error)
	}

	bindings, err := store.GetExamQuestions(ctx, exam.ID)
	require.NoError(t, err)
	require.Len(t, bindings, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{bindings[0].Position, bindings[1].Position, bindings[2].Position})
	assert.Equal(t, qids[1], bindings[0].QuestionID)
	assert.NotEmpty(t, bindings[0].Question.Text)
}

func TestGormStoreUpsertAnswerSingleRow(t *testing.T) {
	db := testDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	exam, question := seedExam(t, db)
	attempt := &models.ExamAttempt{ExamID: exam.ID, UserID: 1, Status: models.AttemptInProgress, StartedAt: time.Now().UTC()}
	require.NoError(t, store.CreateAttempt(ctx, attempt))

	wrong := question.Options[1].ID
	right := question.Options[0].ID
	no := false
	yes := true

	first := &models.UserAnswer{
		AttemptID:        attempt.ID,
		QuestionID:       question.ID,
		SelectedOptionID: &wrong,
		IsCorrect:        &no,
		AnsweredAt:       time.Now().UTC(),
	}
	require.NoError(t, store.UpsertAnswer(ctx, first))

	second := &models.UserAnswer{
		AttemptID:        attempt.ID,
		QuestionID:       question.ID,
		SelectedOptionID: &right,
		IsCorrect:        &yes,
		PointsAwarded:    2,
		AnsweredAt:       time.Now().UTC(),
	}
	require.NoError(t, store.UpsertAnswer(ctx, second))

	answers, err := store.ListAnswers(ctx, attempt.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, right, *answers[0].SelectedOptionID)
	require.NotNil(t, answers[0].IsCorrect)
	assert.True(t, *answers[0].IsCorrect)
	assert.Equal(t, 2.0, answers[0].PointsAwarded)
}

func TestGormStoreIncrementQuestionCounters(t *testing.T) {
	db := testDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	_, question := seedExam(t, db)

	require.NoError(t, store.IncrementQuestionCounters(ctx, question.ID, true))
	require.NoError(t, store.IncrementQuestionCounters(ctx, question.ID, false))
	require.NoError(t, store.IncrementQuestionCounters(ctx, question.ID, true))

	var got models.Question
	require.NoError(t, db.First(&got, "id = ?", question.ID).Error)
	assert.Equal(t, 3, got.UsageCount)
	assert.Equal(t, 3, got.TotalAnswers)
	assert.Equal(t, 2, got.CorrectAnswers)
}

func TestGormStoreCountCompletedAttempts(t *testing.T) {
	db := testDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	exam, _ := seedExam(t, db)

	mk := func(userID uint, status models.AttemptStatus) {
		require.NoError(t, store.CreateAttempt(ctx, &models.ExamAttempt{
			ExamID: exam.ID, UserID: userID, Status: status, StartedAt: time.Now().UTC(),
		}))
	}
	mk(1, models.AttemptCompleted)
	mk(1, models.AttemptCompleted)
	mk(1, models.AttemptInProgress)
	mk(1, models.AttemptAbandoned)
	mk(1, models.AttemptGrading)
	mk(2, models.AttemptCompleted)

	// Only completed attempts by the same user count against the limit.
	count, err := store.CountCompletedAttempts(ctx, exam.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestGormStoreUpdateAttemptFields(t *testing.T) {
	db := testDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	exam, _ := seedExam(t, db)
	attempt := &models.ExamAttempt{ExamID: exam.ID, UserID: 1, Status: models.AttemptInProgress, StartedAt: time.Now().UTC()}
	require.NoError(t, store.CreateAttempt(ctx, attempt))

	now := time.Now().UTC()
	require.NoError(t, store.UpdateAttempt(ctx, attempt.ID, map[string]interface{}{
		"status":       models.AttemptCompleted,
		"completed_at": now,
		"score":        87.5,
		"is_passed":    true,
	}))

	got, err := store.GetAttempt(ctx, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, 87.5, got.Score)
	assert.True(t, got.IsPassed)
}

func TestGormStoreGetExamExcludesSoftDeleted(t *testing.T) {
	db := testDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	exam, _ := seedExam(t, db)
	require.NoError(t, db.Delete(exam).Error)

	_, err := store.GetExam(ctx, exam.ID)
	assert.ErrorIs(t, err, services.ErrExamNotFound)
}

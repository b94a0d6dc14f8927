package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptGrading    AttemptStatus = "grading"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

func (s AttemptStatus) String() string { return string(s) }

func (s AttemptStatus) Valid() bool {
	switch s {
	case AttemptInProgress, AttemptCompleted, AttemptGrading, AttemptAbandoned:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible from the
// attempt lifecycle's point of view. `grading` is not terminal: manual
// grading moves it to `completed` outside this core.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptCompleted || s == AttemptAbandoned
}

// ExamAttempt is one user's run through one exam. Created by StartAttempt,
// mutated only by the attempt service, never deleted.
type ExamAttempt struct {
	ID     uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ExamID uuid.UUID     `gorm:"type:uuid;not null;index:idx_attempt_exam_user" json:"exam_id"`
	UserID uint          `gorm:"not null;index:idx_attempt_exam_user" json:"user_id"`
	Status AttemptStatus `gorm:"type:varchar(16);not null;default:in_progress" json:"status"`

	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Duration    *int       `json:"duration,omitempty"` // wall-clock seconds, set at submission

	Score       float64 `gorm:"default:0" json:"score"` // percentage
	TotalPoints float64 `gorm:"default:0" json:"total_points"`
	MaxPoints   float64 `gorm:"default:0" json:"max_points"`

	CorrectCount      int  `gorm:"default:0" json:"correct_count"`
	IncorrectCount    int  `gorm:"default:0" json:"incorrect_count"`
	UnansweredCount   int  `gorm:"default:0" json:"unanswered_count"`
	NeedsGradingCount int  `gorm:"default:0" json:"needs_grading_count"`
	IsPassed          bool `gorm:"default:false" json:"is_passed"` // set only at finalization

	CurrentQuestionIndex int  `gorm:"default:0" json:"current_question_index"`
	TimeRemaining        *int `json:"time_remaining,omitempty"` // seconds, advisory only

	Metadata datatypes.JSON `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *ExamAttempt) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// UserAnswer is one response to one question within one attempt. Unique per
// (attempt, question): later submissions replace earlier ones.
type UserAnswer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_answer" json:"attempt_id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_answer" json:"question_id"`

	// Exactly one of the three is populated, per question type.
	SelectedOptionID  *uuid.UUID     `gorm:"type:uuid" json:"selected_option_id,omitempty"`
	SelectedOptionIDs datatypes.JSON `json:"selected_option_ids,omitempty"`
	TextAnswer        *string        `json:"text_answer,omitempty"`

	IsCorrect     *bool   `json:"is_correct,omitempty"` // nil = pending manual review
	PointsAwarded float64 `gorm:"default:0" json:"points_awarded"`

	TimeSpent  *int      `json:"time_spent,omitempty"` // seconds, client-reported
	AnsweredAt time.Time `gorm:"not null" json:"answered_at"`
}

func (a *UserAnswer) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// SetSelectedIDs stores a multi-select choice as a JSON array column.
func (a *UserAnswer) SetSelectedIDs(ids []uuid.UUID) error {
	buf, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	a.SelectedOptionIDs = datatypes.JSON(buf)
	return nil
}

// SelectedIDs decodes the multi-select column. An empty or malformed column
// yields nil.
func (a *UserAnswer) SelectedIDs() []uuid.UUID {
	if len(a.SelectedOptionIDs) == 0 {
		return nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(a.SelectedOptionIDs, &ids); err != nil {
		return nil
	}
	return ids
}

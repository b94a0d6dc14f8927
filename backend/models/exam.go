package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Show-answers policies: when a taker may see which options were correct.
const (
	ShowAnswersImmediately = "immediately"
	ShowAnswersAfterSubmit = "after_submit"
	ShowAnswersNever       = "never"
)

func ValidShowAnswersPolicy(p string) bool {
	switch p {
	case ShowAnswersImmediately, ShowAnswersAfterSubmit, ShowAnswersNever:
		return true
	default:
		return false
	}
}

type Exam struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID   uint       `gorm:"not null;index" json:"creator_id"`
	CategoryID  *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	IsPublished bool       `gorm:"default:false" json:"is_published"`

	PassingScore       float64 `gorm:"default:60" json:"passing_score"` // percentage
	Duration           *int    `json:"duration,omitempty"`              // minutes, advisory only: never enforced server-side
	AttemptsAllowed    *int    `json:"attempts_allowed,omitempty"`      // nil = unlimited
	RandomizeQuestions bool    `gorm:"default:false" json:"randomize_questions"`
	QuestionPoolSize   *int    `json:"question_pool_size,omitempty"`
	ShowAnswersAfter   string  `gorm:"default:after_submit" json:"show_answers_after"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Questions []ExamQuestion `json:"questions,omitempty"`
}

func (e *Exam) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ExamQuestion binds a question to an exam with a per-exam point value and
// display order. Unique per (exam, question).
type ExamQuestion struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExamID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_exam_question" json:"exam_id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_exam_question" json:"question_id"`
	Points     float64   `gorm:"default:1" json:"points"`
	Position   int       `json:"position"`
	IsRequired bool      `gorm:"default:true" json:"is_required"`

	Question Question `json:"question,omitempty"`
}

func (eq *ExamQuestion) BeforeCreate(*gorm.DB) error {
	if eq.ID == uuid.Nil {
		eq.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Question types.
const (
	QuestionSingleChoiceMC = "single_choice_mc"
	QuestionSingleChoiceTF = "single_choice_tf"
	QuestionMultipleAnswer = "multiple_answer"
	QuestionEssay          = "essay"
	QuestionFillBlank      = "fill_blank"
)

func ValidQuestionType(t string) bool {
	switch t {
	case QuestionSingleChoiceMC, QuestionSingleChoiceTF, QuestionMultipleAnswer,
		QuestionEssay, QuestionFillBlank:
		return true
	default:
		return false
	}
}

// IsChoiceType reports whether the type carries options.
func IsChoiceType(t string) bool {
	switch t {
	case QuestionSingleChoiceMC, QuestionSingleChoiceTF, QuestionMultipleAnswer:
		return true
	default:
		return false
	}
}

// IsAutoGradable reports whether the type can be graded without human review.
func IsAutoGradable(t string) bool {
	return IsChoiceType(t)
}

type Question struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID    uint       `gorm:"not null;index" json:"author_id"`
	CategoryID  *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Type        string     `gorm:"not null" json:"type"`
	Text        string     `gorm:"not null" json:"text"`
	Explanation string     `json:"explanation"`

	// Usage counters, incremented atomically at the store on every graded
	// submission. Never written through read-modify-write.
	UsageCount     int `gorm:"default:0" json:"usage_count"`
	TotalAnswers   int `gorm:"default:0" json:"total_answers"`
	CorrectAnswers int `gorm:"default:0" json:"correct_answers"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Options []QuestionOption `gorm:"constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

func (q *Question) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// CorrectOptionIDs returns the ids of options marked correct.
func (q *Question) CorrectOptionIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

type QuestionOption struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	Text       string    `gorm:"not null" json:"text"`
	IsCorrect  bool      `gorm:"default:false" json:"is_correct"`
	Position   int       `json:"position"`
}

func (o *QuestionOption) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

package services

import (
	"errors"
	"fmt"
)

// Typed failures returned to controllers for HTTP translation. The service
// layer never logs and suppresses; everything surfaces to the caller.
var (
	ErrExamNotFound            = errors.New("exam not found")
	ErrExamNotPublished        = errors.New("exam is not published")
	ErrExamHasNoQuestions      = errors.New("exam has no questions")
	ErrAttemptLimitReached     = errors.New("attempt limit reached")
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptNotInProgress    = errors.New("attempt is not in progress")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrQuestionNotFound        = errors.New("question not found")
	ErrQuestionNotInExam       = errors.New("question is not part of this exam")
	ErrNotOwner                = errors.New("attempt belongs to another user")
)

// ValidationError marks an answer payload whose shape does not match the
// question's type.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer payload: %s", e.Reason)
}

// IsValidation reports whether err is a payload validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

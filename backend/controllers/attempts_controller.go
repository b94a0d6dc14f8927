package controllers

import (
	"errors"

	"examhub/backend/config"
	"examhub/backend/grading"
	"examhub/backend/models"
	"examhub/backend/repository"
	"examhub/backend/services"
	"examhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AttemptsController is the HTTP surface over the attempt lifecycle. All
// state-machine and grading decisions live in the service; this layer only
// parses, dispatches, and maps typed failures to status codes.
type AttemptsController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Service *services.AttemptService
}

func NewAttemptsController(db *gorm.DB, cfg *config.Config) *AttemptsController {
	store := repository.NewGormStore(db)
	return &AttemptsController{
		DB:      db,
		Cfg:     cfg,
		Service: services.NewAttemptService(store, store, store),
	}
}

func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrExamNotFound),
		errors.Is(err, services.ErrAttemptNotFound),
		errors.Is(err, services.ErrQuestionNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrExamNotPublished),
		errors.Is(err, services.ErrAttemptLimitReached),
		errors.Is(err, services.ErrNotOwner):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrExamHasNoQuestions),
		errors.Is(err, services.ErrQuestionNotInExam):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAttemptNotInProgress),
		errors.Is(err, services.ErrAttemptAlreadySubmitted):
		return utils.Conflict(c, err.Error())
	case services.IsValidation(err):
		return utils.Error(c, fiber.StatusUnprocessableEntity, err)
	default:
		return utils.InternalServerError(c, "Internal error")
	}
}

type StartAttemptInput struct {
	Metadata datatypes.JSON `json:"metadata,omitempty"`
}

func (ac *AttemptsController) StartAttempt(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	examID, err := uuid.Parse(c.Params("exam_id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid exam ID")
	}

	var input StartAttemptInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return utils.BadRequest(c, "Cannot parse JSON")
		}
	}

	result, err := ac.Service.StartAttempt(c.Context(), examID, userID, input.Metadata)
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.Created(c, result)
}

type SubmitAnswerInput struct {
	QuestionID        uuid.UUID   `json:"question_id"`
	SelectedOptionID  *uuid.UUID  `json:"selected_option_id,omitempty"`
	SelectedOptionIDs []uuid.UUID `json:"selected_option_ids,omitempty"`
	TextAnswer        *string     `json:"text_answer,omitempty"`
	TimeSpent         *int        `json:"time_spent,omitempty"`
}

func (ac *AttemptsController) SubmitAnswer(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	attemptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid attempt ID")
	}

	var input SubmitAnswerInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.QuestionID == uuid.Nil {
		return utils.BadRequest(c, "question_id is required")
	}

	if err := ac.requireOwner(c, attemptID, userID); err != nil {
		return err
	}

	payload := grading.Payload{
		SelectedOptionID:  input.SelectedOptionID,
		SelectedOptionIDs: input.SelectedOptionIDs,
		Text:              input.TextAnswer,
	}
	result, err := ac.Service.SubmitAnswer(c.Context(), attemptID, input.QuestionID, payload, input.TimeSpent)
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, result)
}

func (ac *AttemptsController) SubmitExam(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	attemptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid attempt ID")
	}

	if err := ac.requireOwner(c, attemptID, userID); err != nil {
		return err
	}

	result, err := ac.Service.SubmitExam(c.Context(), attemptID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, result)
}

func (ac *AttemptsController) AbandonAttempt(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	attemptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid attempt ID")
	}

	if err := ac.requireOwner(c, attemptID, userID); err != nil {
		return err
	}

	status, err := ac.Service.AbandonAttempt(c.Context(), attemptID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"status": status})
}

func (ac *AttemptsController) GetResults(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	attemptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid attempt ID")
	}

	view, err := ac.Service.GetResults(c.Context(), attemptID, userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, view)
}

func (ac *AttemptsController) ListMyAttempts(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("page_size", 20)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := ac.DB.Model(&models.ExamAttempt{}).Where("user_id = ?", userID)
	if examID := c.Query("exam_id"); examID != "" {
		id, err := uuid.Parse(examID)
		if err != nil {
			return utils.BadRequest(c, "Invalid exam ID")
		}
		query = query.Where("exam_id = ?", id)
	}
	if status := c.Query("status"); status != "" {
		if !models.AttemptStatus(status).Valid() {
			return utils.BadRequest(c, "Invalid status filter")
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var attempts []models.ExamAttempt
	if err := query.Order("started_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&attempts).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Paginate(c, attempts, total, page, pageSize)
}

// requireOwner rejects writes against someone else's attempt before the
// service runs any state transition.
func (ac *AttemptsController) requireOwner(c *fiber.Ctx, attemptID uuid.UUID, userID uint) error {
	attempt, err := ac.Service.Store.GetAttempt(c.Context(), attemptID)
	if err != nil {
		return mapServiceError(c, err)
	}
	if attempt.UserID != userID {
		return utils.Forbidden(c, services.ErrNotOwner.Error())
	}
	return nil
}

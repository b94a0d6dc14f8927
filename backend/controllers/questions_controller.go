package controllers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"examhub/backend/config"
	"examhub/backend/models"
	"examhub/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionsController struct {
	DB  *gorm.DB
	Cfg *config.Config
	V   *validator.Validate
}

func NewQuestionsController(db *gorm.DB, cfg *config.Config) *QuestionsController {
	return &QuestionsController{DB: db, Cfg: cfg, V: validator.New()}
}

type OptionInput struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionInput struct {
	Type        string        `json:"type" validate:"required"`
	Text        string        `json:"text" validate:"required"`
	Explanation string        `json:"explanation"`
	CategoryID  *uuid.UUID    `json:"category_id"`
	Options     []OptionInput `json:"options" validate:"dive"`
}

// validateOptions enforces the per-type option invariants: single-choice
// types carry exactly one correct option, multiple_answer at least one,
// essay/fill_blank none at all.
func validateOptions(questionType string, options []OptionInput) error {
	if !models.ValidQuestionType(questionType) {
		return fmt.Errorf("unknown question type %q", questionType)
	}

	correct := 0
	for _, o := range options {
		if o.IsCorrect {
			correct++
		}
	}

	switch questionType {
	case models.QuestionSingleChoiceMC, models.QuestionSingleChoiceTF:
		if len(options) < 2 {
			return errors.New("single-choice questions need at least two options")
		}
		if correct != 1 {
			return errors.New("single-choice questions need exactly one correct option")
		}
	case models.QuestionMultipleAnswer:
		if len(options) < 2 {
			return errors.New("multiple-answer questions need at least two options")
		}
		if correct < 1 {
			return errors.New("multiple-answer questions need at least one correct option")
		}
	case models.QuestionEssay, models.QuestionFillBlank:
		if len(options) > 0 {
			return errors.New("subjective questions take no options")
		}
	}
	return nil
}

func (qc *QuestionsController) CreateQuestion(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var input QuestionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := qc.V.Struct(&input); err != nil {
		return utils.Error(c, fiber.StatusUnprocessableEntity, err)
	}
	if err := validateOptions(input.Type, input.Options); err != nil {
		return utils.Error(c, fiber.StatusUnprocessableEntity, err)
	}

	question := models.Question{
		AuthorID:    userID,
		CategoryID:  input.CategoryID,
		Type:        input.Type,
		Text:        input.Text,
		Explanation: input.Explanation,
	}
	for i, o := range input.Options {
		question.Options = append(question.Options, models.QuestionOption{
			Text:      o.Text,
			IsCorrect: o.IsCorrect,
			Position:  i + 1,
		})
	}

	if err := qc.DB.Create(&question).Error; err != nil {
		return utils.InternalServerError(c, "Could not create question")
	}

	return utils.Created(c, question)
}

func (qc *QuestionsController) GetQuestion(c *fiber.Ctx) error {
	questionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid question ID")
	}

	var question models.Question
	if err := qc.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&question, "id = ?", questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Question not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Success(c, fiber.StatusOK, question)
}

func (qc *QuestionsController) ListQuestions(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("page_size", 20)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := qc.DB.Model(&models.Question{})
	if categoryID := c.Query("category_id"); categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			return utils.BadRequest(c, "Invalid category ID")
		}
		query = query.Where("category_id = ?", id)
	}
	if questionType := c.Query("type"); questionType != "" {
		query = query.Where("type = ?", questionType)
	}

	var total int64
	query.Count(&total)

	var questions []models.Question
	if err := query.Preload("Options").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&questions).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Paginate(c, questions, total, page, pageSize)
}

func (qc *QuestionsController) UpdateQuestion(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	questionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid question ID")
	}

	var input QuestionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var question models.Question
	if err := qc.DB.Preload("Options").First(&question, "id = ?", questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Question not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if question.AuthorID != userID {
		return utils.Forbidden(c, "You don't have permission to edit this question")
	}

	if input.Text != "" {
		question.Text = input.Text
	}
	if input.Explanation != "" {
		question.Explanation = input.Explanation
	}
	if input.CategoryID != nil {
		question.CategoryID = input.CategoryID
	}

	// Replacing options re-runs the invariant check against the current type
	if input.Options != nil {
		if err := validateOptions(question.Type, input.Options); err != nil {
			return utils.Error(c, fiber.StatusUnprocessableEntity, err)
		}
		if err := qc.DB.Where("question_id = ?", question.ID).
			Delete(&models.QuestionOption{}).Error; err != nil {
			return utils.InternalServerError(c, "Could not update options")
		}
		question.Options = nil
		for i, o := range input.Options {
			question.Options = append(question.Options, models.QuestionOption{
				QuestionID: question.ID,
				Text:       o.Text,
				IsCorrect:  o.IsCorrect,
				Position:   i + 1,
			})
		}
	}

	if err := qc.DB.Session(&gorm.Session{FullSaveAssociations: true}).Save(&question).Error; err != nil {
		return utils.InternalServerError(c, "Could not update question")
	}

	return utils.Success(c, fiber.StatusOK, question)
}

func (qc *QuestionsController) DeleteQuestion(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	questionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid question ID")
	}

	var question models.Question
	if err := qc.DB.First(&question, "id = ?", questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Question not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	if question.AuthorID != userID {
		return utils.Forbidden(c, "You don't have permission to delete this question")
	}

	var boundCount int64
	qc.DB.Model(&models.ExamQuestion{}).Where("question_id = ?", questionID).Count(&boundCount)
	if boundCount > 0 {
		return utils.Conflict(c, "Question is bound to an exam")
	}

	if err := qc.DB.Delete(&question).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete question")
	}

	return utils.NoContent(c)
}

// CSV layout: type,text,explanation,options — options are |-separated, a *
// prefix marks a correct one. Subjective types leave the column empty.

func (qc *QuestionsController) ExportQuestionsCSV(c *fiber.Ctx) error {
	query := qc.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
	if categoryID := c.Query("category_id"); categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			return utils.BadRequest(c, "Invalid category ID")
		}
		query = query.Where("category_id = ?", id)
	}

	var questions []models.Question
	if err := query.Find(&questions).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Write([]string{"type", "text", "explanation", "options"})
	for _, q := range questions {
		var opts []string
		for _, o := range q.Options {
			if o.IsCorrect {
				opts = append(opts, "*"+o.Text)
			} else {
				opts = append(opts, o.Text)
			}
		}
		w.Write([]string{q.Type, q.Text, q.Explanation, strings.Join(opts, "|")})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return utils.InternalServerError(c, "Could not encode CSV")
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", `attachment; filename="questions.csv"`)
	return c.SendString(sb.String())
}

func (qc *QuestionsController) ImportQuestionsCSV(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var categoryID *uuid.UUID
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return utils.BadRequest(c, "Invalid category ID")
		}
		categoryID = &id
	}

	r := csv.NewReader(strings.NewReader(string(c.Body())))
	records, err := r.ReadAll()
	if err != nil {
		return utils.BadRequest(c, "Cannot parse CSV")
	}
	if len(records) < 2 {
		return utils.BadRequest(c, "CSV has no data rows")
	}

	imported := 0
	var failures []string
	for i, row := range records[1:] {
		if len(row) < 4 {
			failures = append(failures, fmt.Sprintf("row %d: expected 4 columns", i+2))
			continue
		}

		var options []OptionInput
		if row[3] != "" {
			for _, raw := range strings.Split(row[3], "|") {
				options = append(options, OptionInput{
					Text:      strings.TrimPrefix(raw, "*"),
					IsCorrect: strings.HasPrefix(raw, "*"),
				})
			}
		}
		if err := validateOptions(row[0], options); err != nil {
			failures = append(failures, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}

		question := models.Question{
			AuthorID:    userID,
			CategoryID:  categoryID,
			Type:        row[0],
			Text:        row[1],
			Explanation: row[2],
		}
		for j, o := range options {
			question.Options = append(question.Options, models.QuestionOption{
				Text:      o.Text,
				IsCorrect: o.IsCorrect,
				Position:  j + 1,
			})
		}
		if err := qc.DB.Create(&question).Error; err != nil {
			failures = append(failures, fmt.Sprintf("row %d: could not save", i+2))
			continue
		}
		imported++
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"imported": imported,
		"failed":   len(failures),
		"errors":   failures,
	})
}

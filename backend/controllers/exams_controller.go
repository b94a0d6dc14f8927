package controllers

import (
	"errors"

	"examhub/backend/config"
	"examhub/backend/models"
	"examhub/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExamsController struct {
	DB  *gorm.DB
	Cfg *config.Config
	V   *validator.Validate
}

func NewExamsController(db *gorm.DB, cfg *config.Config) *ExamsController {
	return &ExamsController{DB: db, Cfg: cfg, V: validator.New()}
}

type ExamInput struct {
	Title              string     `json:"title" validate:"required,min=1,max=256"`
	Description        string     `json:"description"`
	CategoryID         *uuid.UUID `json:"category_id"`
	PassingScore       *float64   `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	Duration           *int       `json:"duration" validate:"omitempty,gt=0"`
	AttemptsAllowed    *int       `json:"attempts_allowed" validate:"omitempty,gt=0"`
	RandomizeQuestions *bool      `json:"randomize_questions"`
	QuestionPoolSize   *int       `json:"question_pool_size" validate:"omitempty,gt=0"`
	ShowAnswersAfter   string     `json:"show_answers_after"`
}

// CreateExam creates a draft exam. Exams start unpublished and invisible to
// takers until PublishExam.
func (ec *ExamsController) CreateExam(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var input ExamInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := ec.V.Struct(&input); err != nil {
		return utils.Error(c, fiber.StatusUnprocessableEntity, err)
	}
	if input.ShowAnswersAfter != "" && !models.ValidShowAnswersPolicy(input.ShowAnswersAfter) {
		return utils.BadRequest(c, "Invalid show_answers_after policy")
	}

	exam := models.Exam{
		CreatorID:        userID,
		CategoryID:       input.CategoryID,
		Title:            input.Title,
		Description:      input.Description,
		Duration:         input.Duration,
		AttemptsAllowed:  input.AttemptsAllowed,
		QuestionPoolSize: input.QuestionPoolSize,
	}
	if input.PassingScore != nil {
		exam.PassingScore = *input.PassingScore
	} else {
		exam.PassingScore = 60
	}
	if input.RandomizeQuestions != nil {
		exam.RandomizeQuestions = *input.RandomizeQuestions
	}
	if input.ShowAnswersAfter != "" {
		exam.ShowAnswersAfter = input.ShowAnswersAfter
	} else {
		exam.ShowAnswersAfter = models.ShowAnswersAfterSubmit
	}

	if err := ec.DB.Create(&exam).Error; err != nil {
		return utils.InternalServerError(c, "Could not create exam")
	}

	return utils.Created(c, exam)
}

// ListExams returns published exams for everyone; authors additionally see
// their own drafts with mine=true.
func (ec *ExamsController) ListExams(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("page_size", 20)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := ec.DB.Model(&models.Exam{})
	if c.QueryBool("mine") {
		query = query.Where("creator_id = ?", userID)
	} else {
		query = query.Where("is_published = ?", true)
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			return utils.BadRequest(c, "Invalid category ID")
		}
		query = query.Where("category_id = ?", id)
	}

	var total int64
	query.Count(&total)

	var exams []models.Exam
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&exams).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Paginate(c, exams, total, page, pageSize)
}

func (ec *ExamsController) GetExam(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	examID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid exam ID")
	}

	var exam models.Exam
	if err := ec.DB.First(&exam, "id = ?", examID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Exam not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	// Drafts are visible to their creator only
	if !exam.IsPublished && exam.CreatorID != userID {
		return utils.NotFound(c, "Exam not found")
	}

	var questionCount int64
	ec.DB.Model(&models.ExamQuestion{}).Where("exam_id = ?", examID).Count(&questionCount)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"exam":           exam,
		"question_count": questionCount,
	})
}

func (ec *ExamsController) ownedExam(c *fiber.Ctx) (*models.Exam, error) {
	userID := c.Locals("user_id").(uint)

	examID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, utils.BadRequest(c, "Invalid exam ID")
	}

	var exam models.Exam
	if err := ec.DB.First(&exam, "id = ?", examID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound(c, "Exam not found")
		}
		return nil, utils.InternalServerError(c, "Could not query database")
	}
	if exam.CreatorID != userID {
		return nil, utils.Forbidden(c, "You don't have permission to manage this exam")
	}
	return &exam, nil
}

func (ec *ExamsController) UpdateExam(c *fiber.Ctx) error {
	exam, err := ec.ownedExam(c)
	if exam == nil {
		return err
	}

	var input ExamInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if input.Title != "" {
		exam.Title = input.Title
	}
	if input.Description != "" {
		exam.Description = input.Description
	}
	if input.CategoryID != nil {
		exam.CategoryID = input.CategoryID
	}
	if input.PassingScore != nil {
		if *input.PassingScore < 0 || *input.PassingScore > 100 {
			return utils.BadRequest(c, "passing_score must be between 0 and 100")
		}
		exam.PassingScore = *input.PassingScore
	}
	if input.Duration != nil {
		exam.Duration = input.Duration
	}
	if input.AttemptsAllowed != nil {
		exam.AttemptsAllowed = input.AttemptsAllowed
	}
	if input.RandomizeQuestions != nil {
		exam.RandomizeQuestions = *input.RandomizeQuestions
	}
	if input.QuestionPoolSize != nil {
		exam.QuestionPoolSize = input.QuestionPoolSize
	}
	if input.ShowAnswersAfter != "" {
		if !models.ValidShowAnswersPolicy(input.ShowAnswersAfter) {
			return utils.BadRequest(c, "Invalid show_answers_after policy")
		}
		exam.ShowAnswersAfter = input.ShowAnswersAfter
	}

	if err := ec.DB.Save(exam).Error; err != nil {
		return utils.InternalServerError(c, "Could not update exam")
	}

	return utils.Success(c, fiber.StatusOK, exam)
}

// PublishExam flips the exam live. Publishing an exam with no bound
// questions is rejected so takers never hit an empty exam.
func (ec *ExamsController) PublishExam(c *fiber.Ctx) error {
	exam, err := ec.ownedExam(c)
	if exam == nil {
		return err
	}

	var questionCount int64
	ec.DB.Model(&models.ExamQuestion{}).Where("exam_id = ?", exam.ID).Count(&questionCount)
	if questionCount == 0 {
		return utils.BadRequest(c, "Exam has no questions")
	}

	if err := ec.DB.Model(exam).Update("is_published", true).Error; err != nil {
		return utils.InternalServerError(c, "Could not publish exam")
	}
	exam.IsPublished = true

	return utils.Success(c, fiber.StatusOK, exam)
}

func (ec *ExamsController) UnpublishExam(c *fiber.Ctx) error {
	exam, err := ec.ownedExam(c)
	if exam == nil {
		return err
	}

	if err := ec.DB.Model(exam).Update("is_published", false).Error; err != nil {
		return utils.InternalServerError(c, "Could not unpublish exam")
	}
	exam.IsPublished = false

	return utils.Success(c, fiber.StatusOK, exam)
}

func (ec *ExamsController) DeleteExam(c *fiber.Ctx) error {
	exam, err := ec.ownedExam(c)
	if exam == nil {
		return err
	}

	if err := ec.DB.Delete(exam).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete exam")
	}

	return utils.NoContent(c)
}

type BindQuestionInput struct {
	QuestionID uuid.UUID `json:"question_id" validate:"required"`
	Points     *float64  `json:"points" validate:"omitempty,gt=0"`
	Position   *int      `json:"position"`
	IsRequired *bool     `json:"is_required"`
}

// BindQuestion attaches a question to the exam. Each question binds at most
// once per exam.
func (ec *ExamsController) BindQuestion(c *fiber.Ctx) error {
	exam, err := ec.ownedExam(c)
	if exam == nil {
		return err
	}

	var input BindQuestionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := ec.V.Struct(&input); err != nil {
		return utils.Error(c, fiber.StatusUnprocessableEntity, err)
	}

	var question models.Question
	if err := ec.DB.First(&question, "id = ?", input.QuestionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Question not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var existing int64
	ec.DB.Model(&models.ExamQuestion{}).
		Where("exam_id = ? AND question_id = ?", exam.ID, input.QuestionID).
		Count(&existing)
	if existing > 0 {
		return utils.Conflict(c, "Question is already bound to this exam")
	}

	binding := models.ExamQuestion{
		ExamID:     exam.ID,
		QuestionID: input.QuestionID,
		Points:     1,
		IsRequired: true,
	}
	if input.Points != nil {
		binding.Points = *input.Points
	}
	if input.Position != nil {
		binding.Position = *input.Position
	} else {
		var maxPos int
		ec.DB.Model(&models.ExamQuestion{}).
			Where("exam_id = ?", exam.ID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&maxPos)
		binding.Position = maxPos + 1
	}
	if input.IsRequired != nil {
		binding.IsRequired = *input.IsRequired
	}

	if err := ec.DB.Create(&binding).Error; err != nil {
		return utils.InternalServerError(c, "Could not bind question")
	}

	return utils.Created(c, binding)
}

func (ec *ExamsController) ListExamQuestions(c *fiber.Ctx) error {
	exam, err := ec.ownedExam(c)
	if exam == nil {
		return err
	}

	var bindings []models.ExamQuestion
	if err := ec.DB.Preload("Question.Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("Question").
		Where("exam_id = ?", exam.ID).
		Order("position ASC").
		Find(&bindings).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Success(c, fiber.StatusOK, bindings)
}

type UpdateBindingInput struct {
	Points     *float64 `json:"points" validate:"omitempty,gt=0"`
	Position   *int     `json:"position"`
	IsRequired *bool    `json:"is_required"`
}

func (ec *ExamsController) UpdateBinding(c *fiber.Ctx) error {
	exam, err := ec.ownedExam(c)
	if exam == nil {
		return err
	}

	questionID, err := uuid.Parse(c.Params("question_id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid question ID")
	}

	var input UpdateBindingInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := ec.V.Struct(&input); err != nil {
		return utils.Error(c, fiber.StatusUnprocessableEntity, err)
	}

	var binding models.ExamQuestion
	if err := ec.DB.Where("exam_id = ? AND question_id = ?", exam.ID, questionID).
		First(&binding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Question is not bound to this exam")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Points != nil {
		binding.Points = *input.Points
	}
	if input.Position != nil {
		binding.Position = *input.Position
	}
	if input.IsRequired != nil {
		binding.IsRequired = *input.IsRequired
	}

	if err := ec.DB.Save(&binding).Error; err != nil {
		return utils.InternalServerError(c, "Could not update binding")
	}

	return utils.Success(c, fiber.StatusOK, binding)
}

func (ec *ExamsController) UnbindQuestion(c *fiber.Ctx) error {
	exam, err := ec.ownedExam(c)
	if exam == nil {
		return err
	}

	questionID, err := uuid.Parse(c.Params("question_id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid question ID")
	}

	result := ec.DB.Where("exam_id = ? AND question_id = ?", exam.ID, questionID).
		Delete(&models.ExamQuestion{})
	if result.Error != nil {
		return utils.InternalServerError(c, "Could not unbind question")
	}
	if result.RowsAffected == 0 {
		return utils.NotFound(c, "Question is not bound to this exam")
	}

	return utils.NoContent(c)
}

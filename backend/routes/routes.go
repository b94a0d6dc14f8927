package routes

import (
	"examhub/backend/config"
	"examhub/backend/controllers"
	"examhub/backend/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	auth := controllers.NewAuthController(db, cfg)
	users := controllers.NewUserController(db, cfg)
	categories := controllers.NewCategoriesController(db, cfg)
	questions := controllers.NewQuestionsController(db, cfg)
	exams := controllers.NewExamsController(db, cfg)
	attempts := controllers.NewAttemptsController(db, cfg)

	authRequired := middleware.AuthMiddleware(cfg)
	adminRequired := middleware.AdminMiddleware(db, cfg)

	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", auth.Register)
	authGroup.Post("/login", auth.Login)

	profileGroup := app.Group("/api/profile", authRequired)
	profileGroup.Get("/", users.GetProfile)
	profileGroup.Put("/", users.UpdateProfile)

	categoryGroup := app.Group("/api/categories", authRequired)
	categoryGroup.Get("/", categories.ListCategories)
	categoryGroup.Get("/:id", categories.GetCategory)

	adminCategoryGroup := app.Group("/api/admin/categories", authRequired, adminRequired)
	adminCategoryGroup.Post("/", categories.CreateCategory)
	adminCategoryGroup.Put("/:id", categories.UpdateCategory)
	adminCategoryGroup.Delete("/:id", categories.DeleteCategory)

	questionGroup := app.Group("/api/questions", authRequired)
	questionGroup.Post("/", questions.CreateQuestion)
	questionGroup.Get("/", questions.ListQuestions)
	questionGroup.Get("/export", questions.ExportQuestionsCSV)
	questionGroup.Post("/import", questions.ImportQuestionsCSV)
	questionGroup.Get("/:id", questions.GetQuestion)
	questionGroup.Put("/:id", questions.UpdateQuestion)
	questionGroup.Delete("/:id", questions.DeleteQuestion)

	examGroup := app.Group("/api/exams", authRequired)
	examGroup.Post("/", exams.CreateExam)
	examGroup.Get("/", exams.ListExams)
	examGroup.Get("/:id", exams.GetExam)
	examGroup.Put("/:id", exams.UpdateExam)
	examGroup.Delete("/:id", exams.DeleteExam)
	examGroup.Post("/:id/publish", exams.PublishExam)
	examGroup.Post("/:id/unpublish", exams.UnpublishExam)
	examGroup.Get("/:id/questions", exams.ListExamQuestions)
	examGroup.Post("/:id/questions", exams.BindQuestion)
	examGroup.Put("/:id/questions/:question_id", exams.UpdateBinding)
	examGroup.Delete("/:id/questions/:question_id", exams.UnbindQuestion)
	examGroup.Post("/:exam_id/attempts", attempts.StartAttempt)

	attemptGroup := app.Group("/api/attempts", authRequired)
	attemptGroup.Get("/", attempts.ListMyAttempts)
	attemptGroup.Post("/:id/answers", attempts.SubmitAnswer)
	attemptGroup.Post("/:id/submit", attempts.SubmitExam)
	attemptGroup.Post("/:id/abandon", attempts.AbandonAttempt)
	attemptGroup.Get("/:id/results", attempts.GetResults)
}

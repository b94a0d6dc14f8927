package main

import (
	"log"

	"examhub/backend/config"
	"examhub/backend/database"
	"examhub/backend/middleware"
	"examhub/backend/routes"
	"examhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := utils.InitLogger(utils.LoggerConfig{EnableColors: true})

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName: "ExamHub",
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.LoggingMiddleware(logger))

	routes.SetupRoutes(app, db, cfg)

	logger.Printf("listening on :%s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

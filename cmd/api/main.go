package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"geonotes_backend/internal/controller"
	"geonotes_backend/internal/middleware"
	"geonotes_backend/internal/model"
	"geonotes_backend/pkg/config"
	"geonotes_backend/pkg/cron"
	"geonotes_backend/pkg/database"
	"geonotes_backend/pkg/seed"
	"geonotes_backend/pkg/utils/jwt"
)

func setupRoutes(app *fiber.App) {
	// Auth Routes
	auth := app.Group("/auth")
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/request-reset", controller.RequestPasswordReset)
	auth.Post("/reset-password", controller.ResetPassword)

	app.Get("/me", middleware.AuthMiddleware(), controller.GetMe)

	// Feature routes; user defaults to @me, group to @self
	feat := app.Group("/feat", middleware.AuthMiddleware())
	feat.Get("/:user?/:group?/:feature?", controller.GetFeatures)
	feat.Post("/:user?/:group?", controller.PostFeature)
	feat.Put("/:user/:group/:feature", controller.PutFeature)
	feat.Delete("/:user/:group/:feature", controller.DeleteFeature)

	// Property routes; the feature segment takes @null and @all sentinels
	prop := app.Group("/prop", middleware.AuthMiddleware())
	prop.Get("/:user?/:group?/:feature?/:property?", controller.GetProperties)
	prop.Post("/:user?/:group?/:feature?", controller.PostProperty)
	prop.Put("/:user/:group/:feature/:property", controller.PutProperty)
	prop.Delete("/:user/:group/:feature/:property", controller.DeleteProperty)

	// Administrative CSV exports
	exports := app.Group("/export", middleware.AuthMiddleware())
	exports.Get("/features.csv", controller.ExportFeatures)
	exports.Get("/properties.csv", controller.ExportProperties)
}

func main() {
	cfg := config.Load()
	controller.Init(cfg)
	jwt.Init(cfg.JWT.Secret)

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}

	database.InitDB(cfg.Database.URL)
	err := database.MigrateDatabase(
		&model.User{},
		&model.Feature{},
		&model.Property{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		seed.SeedDemoData(database.GetDB(), cfg.Geo.SRID)
	}

	cron.InitExpiryCron()

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}

package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"planvite/config"
	controller "planvite/controllers"
	"planvite/importer"
	"planvite/middleware"
	"planvite/permissions"
	"planvite/routes"
	"planvite/utils"
	"planvite/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "PLANVITE: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize error reporting
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("⚠️ Sentry initialization failed: %v", err)
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Refuse to serve with unknown permission values in the role table; a
	// typo'd permission would otherwise silently deny (or never grant) access
	if err := permissions.ValidateConfiguration(config.DB); err != nil {
		logger.Fatalf("Permission configuration invalid: %v", err)
	}

	controller.InitStripe()

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	engine := permissions.NewEngine(config.DB, log.New(os.Stdout, "PERMS: ", log.LstdFlags))
	controller.InitPermissions(engine)
	tracker := importer.NewProgressTracker()

	// Initialize and start the invitation worker
	invitationWorker := worker.NewInvitationWorker(config.DB, utils.NewInviteMailer(), log.New(os.Stdout, "INVITE: ", log.LstdFlags))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go invitationWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB, engine, tracker)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

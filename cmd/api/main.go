package main

import (
	"fmt"
	"os"

	"tally/internal/config"
	"tally/internal/database"
	"tally/internal/logger"
	"tally/internal/server"
	"tally/internal/validator"
)

// @title           Tally API
// @version         1.0
// @description     Tally finds recurring payments in a user's transactions, tracks subscriptions, categorises spending and checks it against budgets.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	opts := server.Options{
		JWTSecret:    appConfig.JWTSecret,
		IngestAPIKey: appConfig.IngestAPIKey,
		Detection:    appConfig.Detection(),
		Duplicates:   appConfig.Duplicates(),
		Swagger:      appConfig.Env != "production",
	}
	router := server.NewRouter(server.NewServices(dbManager.DB(), opts), opts)

	if appConfig.IngestAPIKey == "" {
		log.Warn("INGEST_API_KEY is not set; the ingest endpoint will refuse every request")
	}

	log.Infof("Starting Tally server on port %s", appConfig.Port)
	if opts.Swagger {
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	}
	return router.Run(":" + appConfig.Port)
}

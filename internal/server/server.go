// Package server assembles the HTTP application: repositories, services,
// handlers and the gin routes that expose them.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/handlers"
	"tally/internal/logger"
	"tally/internal/middleware"
	"tally/internal/recurring"
	"tally/internal/repository"
	"tally/internal/services"

	_ "tally/internal/docs" // Import swagger docs
)

// Options carries the settings the router needs from configuration.
type Options struct {
	JWTSecret    string
	IngestAPIKey string
	Detection    recurring.Config
	Duplicates   recurring.DuplicateOptions
	// Swagger mounts /swagger/*any.
	Swagger bool
}

// Services bundles the service layer so callers (the CLI, tests) can reuse
// the exact wiring the router uses.
type Services struct {
	Transactions  services.TransactionServicer
	Patterns      services.PatternServicer
	Subscriptions services.SubscriptionServicer
	Categories    services.CategoryServicer
	Budgets       services.BudgetServicer
	Audit         services.AuditServicer
}

// NewServices wires every service on top of gorm repositories.
func NewServices(db *gorm.DB, opts Options) *Services {
	repos := repository.NewGormRepositories(db)
	patterns := services.NewPatternService(repos.Transactions, repos.Subscriptions, opts.Detection, opts.Duplicates)
	subscriptions := services.NewSubscriptionService(repos, patterns, opts.Detection, opts.Duplicates)

	return &Services{
		Transactions:  services.NewTransactionService(repos.Transactions, repos.Categories, subscriptions),
		Patterns:      patterns,
		Subscriptions: subscriptions,
		Categories:    services.NewCategoryService(repos),
		Budgets:       services.NewBudgetService(repos),
		Audit:         services.NewAuditService(db),
	}
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(svc *Services, opts Options) *gin.Engine {
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Audit)
	patternHandler := handlers.NewPatternHandler(svc.Patterns)
	subscriptionHandler := handlers.NewSubscriptionHandler(svc.Subscriptions, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Audit)
	budgetHandler := handlers.NewBudgetHandler(svc.Budgets, svc.Audit)
	ingestHandler := handlers.NewIngestHandler(svc.Transactions)

	router := gin.New()
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		_ = c.Error(fmt.Errorf("panic: %v", recovered))
		c.Abort()
	}))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperrors.ErrNotFound)
	})

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Bank-sync collaborator
	ingest := v1.Group("/ingest")
	ingest.Use(middleware.APIKeyMiddleware(opts.IngestAPIKey))
	ingest.POST("/transactions", ingestHandler.IngestTransactions)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(opts.JWTSecret))

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.POST("/categorise", categoryHandler.BulkCategorise)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.GET("/:id/category", categoryHandler.CategoriseTransaction)
	transactions.PUT("/:id/category", categoryHandler.SetTransactionCategory)

	patterns := protected.Group("/patterns")
	patterns.GET("", patternHandler.DetectPatterns)
	patterns.GET("/:merchant", patternHandler.GetPattern)

	subscriptions := protected.Group("/subscriptions")
	subscriptions.POST("", subscriptionHandler.CreateSubscription)
	subscriptions.GET("", subscriptionHandler.GetSubscriptions)
	subscriptions.POST("/from-pattern", subscriptionHandler.CreateFromPattern)
	subscriptions.POST("/check", subscriptionHandler.CheckDuplicate)
	subscriptions.GET("/:id", subscriptionHandler.GetSubscriptionByID)
	subscriptions.POST("/:id/cancel", subscriptionHandler.CancelSubscription)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	rules := protected.Group("/rules")
	rules.POST("", categoryHandler.AddMerchantRule)
	rules.GET("", categoryHandler.GetMerchantRules)
	rules.DELETE("/:id", categoryHandler.DeleteMerchantRule)

	budget := protected.Group("/budget")
	budget.GET("/config", budgetHandler.GetConfig)
	budget.PUT("/config", budgetHandler.SaveConfig)
	budget.GET("/status", budgetHandler.GetStatus)
	budget.POST("/check", budgetHandler.CheckExpense)
	budget.GET("/yearly", budgetHandler.GetYearlySpending)

	logger.Get().Debugw("routes registered", "count", len(router.Routes()))
	return router
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"moneytracker/internal/config"
	"moneytracker/internal/database"
	"moneytracker/internal/handlers"
	"moneytracker/internal/logger"
	"moneytracker/internal/middleware"
	"moneytracker/internal/rates"
	"moneytracker/internal/realtime"
	"moneytracker/internal/services"
	"moneytracker/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "moneytracker/internal/docs" // Import swagger docs
)

// @title           MoneyTracker API
// @version         1.0
// @description     MoneyTracker is a multi-user personal finance service for tracking accounts, transactions, transfers and budgets across currencies.
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

	// Register custom binding validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	hub := realtime.NewHub()
	quoteFetcher := rates.NewMyfinClient(appConfig.RatesAPIURL, nil)

	userService := services.NewUserService(db)
	accountService := services.NewAccountService(db)
	categoryService := services.NewCategoryService(db)
	currencyService := services.NewCurrencyService(db, quoteFetcher)
	transactionService := services.NewTransactionService(db, accountService, hub)
	transferService := services.NewTransferService(db, accountService, currencyService, hub)
	budgetService := services.NewBudgetService(db)
	dashboardService := services.NewDashboardService(db, budgetService)
	reportService := services.NewReportService(db)

	// Refresh rates on startup, then on the configured schedule
	refreshRates := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := currencyService.Refresh(ctx); err != nil {
			log.Warnw("scheduled rate refresh failed", "error", err.Error())
		}
	}
	go refreshRates()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(appConfig.RatesCronSpec, refreshRates); err != nil {
		return fmt.Errorf("failed to schedule rate refresh: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	accountHandler := handlers.NewAccountHandler(accountService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	transferHandler := handlers.NewTransferHandler(transferService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	currencyHandler := handlers.NewCurrencyHandler(currencyService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	reportHandler := handlers.NewReportHandler(reportService)
	wsHandler := handlers.NewWSHandler(hub)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// WebSocket endpoint, authenticated by access token
	router.GET("/ws", wsHandler.Connect)

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Transfer routes
	transfers := protected.Group("/transfers")
	transfers.POST("", transferHandler.CreateTransfer)
	transfers.GET("", transferHandler.ListTransfers)
	transfers.GET("/:id", transferHandler.GetTransferByID)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetUserBudgets)
	budgets.GET("/:id", budgetHandler.GetBudgetByID)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	// Currency routes
	currencies := protected.Group("/currencies")
	currencies.GET("/rates", currencyHandler.ListRates)
	currencies.POST("/rates/update", currencyHandler.RefreshRates)
	currencies.GET("/rates/:from/:to", currencyHandler.ResolveRate)
	currencies.POST("/convert", currencyHandler.Convert)

	// Dashboard route
	protected.GET("/dashboard", dashboardHandler.GetDashboard)

	// Report routes
	reports := protected.Group("/reports")
	reports.GET("/export/csv", reportHandler.ExportCSV)
	reports.GET("/export/pdf", reportHandler.ExportPDF)

	log.Infof("Starting MoneyTracker backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"bid-qualification-service/internal/config"
	"bid-qualification-service/internal/crm"
	"bid-qualification-service/internal/events"
	"bid-qualification-service/internal/handlers"
	"bid-qualification-service/internal/jobs"
	"bid-qualification-service/internal/middleware"
	"bid-qualification-service/internal/models"
	"bid-qualification-service/internal/repository"
	"bid-qualification-service/internal/seeders"
	"bid-qualification-service/internal/services"
)

// @title Bid Qualification Workflow API
// @version 1.0.0
// @description Role-gated qualification workflow for CRM-imported sales opportunities

// @contact.name API Support
// @contact.url http://www.example.com/support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8094
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	gatePolicy, err := services.ParseGatePolicy(cfg.GatePolicy)
	if err != nil {
		logger.Fatalf("Invalid GATE_POLICY: %v", err)
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}

	// Run database migrations
	logger.Info("Running database migrations...")
	if err := db.AutoMigrate(
		&models.Opportunity{},
		&models.ScoreAssessment{},
		&models.AssignmentRecord{},
		&models.WorkflowUser{},
		&models.SyncLog{},
	); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations completed")

	if cfg.SeedDemoUsers {
		if err := seeders.SeedDemoUsers(db); err != nil {
			logger.Warnf("Failed to seed demo users: %v", err)
		}
	}

	// Initialize repository
	oppRepo := repository.NewOpportunityRepository(db)

	// Initialize event publisher (optional - service works without NATS)
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.NewPublisher(cfg.NATSURL, "bid-qualification-service", logger)
		if err != nil {
			logger.Warnf("Failed to initialize event publisher: %v. Events will not be published.", err)
		} else {
			logger.Info("Event publisher initialized")
			defer publisher.Close()
		}
	} else {
		logger.Info("NATS_URL not configured, event publishing disabled")
	}

	// Initialize services
	workflowService := services.NewWorkflowService(oppRepo, publisher, logger, services.DefaultScoringTemplate(), gatePolicy)
	assignmentService := services.NewAssignmentService(oppRepo, publisher, logger)
	queryService := services.NewQueryService(oppRepo, logger)
	ingestService := services.NewIngestService(oppRepo, publisher, logger)

	// Initialize handlers
	oppHandler := handlers.NewOpportunityHandler(workflowService, assignmentService, queryService, ingestService)
	userHandler := handlers.NewUserHandler(queryService)

	// Start CRM sync job when a CRM endpoint is configured
	var syncJob *jobs.CRMSyncJob
	if cfg.CRMBaseURL != "" {
		crmClient := crm.NewHTTPClient(cfg.CRMBaseURL, cfg.CRMAPIKey, logger)
		syncJob = jobs.NewCRMSyncJob(crmClient, ingestService, oppRepo, cfg.CRMSource, cfg.CRMSyncSchedule, logger)
		if err := syncJob.Start(); err != nil {
			logger.Fatalf("Failed to start CRM sync job: %v", err)
		}
	} else {
		logger.Info("CRM_BASE_URL not configured, CRM polling disabled")
	}

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck(db))

	// Protected API routes
	api := router.Group("/api/v1")
	api.Use(middleware.Actor(cfg.JWTSecret))

	// Opportunity workflow endpoints
	{
		api.GET("/opportunities", oppHandler.List)
		api.GET("/opportunities/:id", oppHandler.Get)
		api.POST("/opportunities/:id/assign", oppHandler.Assign)
		api.POST("/opportunities/assign-batch", oppHandler.AssignBatch)
		api.POST("/opportunities/:id/start-assessment", oppHandler.StartAssessment)
		api.POST("/opportunities/:id/draft", oppHandler.SaveDraft)
		api.POST("/opportunities/:id/submit", oppHandler.SubmitScore)
		api.POST("/opportunities/:id/approve", oppHandler.Approve)
		api.POST("/opportunities/:id/reject", oppHandler.Reject)
		api.POST("/opportunities/:id/final-decision", oppHandler.FinalDecision)
		api.GET("/opportunities/:id/assessments", oppHandler.ListAssessments)
		api.GET("/opportunities/:id/assignments", oppHandler.ListAssignments)
	}

	// Directory and ingestion endpoints
	{
		api.GET("/users", userHandler.ListByRole)
		api.POST("/crm/ingest", oppHandler.Ingest)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8094"
	}

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Infof("Bid qualification service starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	logger.Info("Shutting down server...")

	if syncJob != nil {
		syncJob.Stop()
		logger.Info("CRM sync job stopped")
	}

	logger.Info("Server shutdown complete")
}

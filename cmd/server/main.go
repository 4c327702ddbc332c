package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"fundraising-backend/internal/blockchain"
	"fundraising-backend/internal/config"
	"fundraising-backend/internal/database"
	"fundraising-backend/internal/handlers"
	"fundraising-backend/internal/middleware"
	"fundraising-backend/internal/rates"
	"fundraising-backend/internal/services"
	"fundraising-backend/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required. Set it to your Supabase PostgreSQL connection string.")
	}

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database client: %v", err)
	}
	defer dbClient.Close()

	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Run(); err != nil {
		migrator.Close()
		log.Fatalf("Migration failed: %v", err)
	}
	migrator.Close()
	log.Println("Migrations completed successfully")

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket, cfg.ExternalTimeout)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	realtimeClient, err := supabase.NewRealtimeClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize realtime client: %v", err)
	}

	balanceClient := blockchain.NewClient(cfg.EsploraAPIBaseURL, cfg.ExternalTimeout)
	rateClient := rates.NewClient(cfg.RateAPIBaseURL, cfg.ExternalTimeout)
	rateCache := rates.NewCache(rateClient, cfg.RateCacheTTL)

	refreshService := services.NewBalanceRefreshService(dbClient, balanceClient, rateCache, cfg.RefreshCooldown)
	mediaAllocator := services.NewMediaSlotAllocator(dbClient, storageClient)

	projectsHandler := handlers.NewProjectsHandler(dbClient, refreshService, storageClient)
	balanceHandler := handlers.NewBalanceHandler(refreshService, realtimeClient)
	mediaHandler := handlers.NewMediaHandler(mediaAllocator, realtimeClient)

	router := gin.Default()

	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	api.POST("/projects", projectsHandler.CreateProject)
	api.GET("/projects", projectsHandler.ListProjects)
	api.GET("/projects/:project_id", projectsHandler.GetProject)
	api.DELETE("/projects/:project_id", projectsHandler.DeleteProject)

	api.POST("/projects/:project_id/refresh-balance", balanceHandler.RefreshBalance)

	api.POST("/projects/:project_id/media/upload-url", mediaHandler.IssueUploadURL)
	api.POST("/projects/:project_id/media", mediaHandler.ConfirmUpload)
	api.GET("/projects/:project_id/media", mediaHandler.ListMedia)
	api.PATCH("/projects/:project_id/media/:media_id", mediaHandler.UpdateAltText)
	api.DELETE("/projects/:project_id/media/:media_id", mediaHandler.DeleteMedia)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

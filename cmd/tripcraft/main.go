package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voyago/tripcraft/internal/api"
	"github.com/voyago/tripcraft/internal/config"
	"github.com/voyago/tripcraft/internal/domain"
	"github.com/voyago/tripcraft/internal/llm"
	"github.com/voyago/tripcraft/internal/planner"
	"github.com/voyago/tripcraft/internal/ratelimit"
	"github.com/voyago/tripcraft/internal/repository"
	"github.com/voyago/tripcraft/internal/service"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	journeyRepo := repository.NewJourneyRepository(db)
	generationRepo := repository.NewGenerationRepository(db)

	// Initialize the outbound chat gateway
	modelCfg := domain.ModelConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}
	gateway := llm.NewGateway(cfg.LLM.BaseURL, cfg.LLM.APIKey, modelCfg, cfg.LLM.RequestTimeout, logger)

	// Initialize services
	composer := planner.NewComposer()
	limiter := ratelimit.New(cfg.RateLimit.Enabled, cfg.RateLimit.RequestsPerHour)

	journeyService := service.NewJourneyService(journeyRepo)
	generationService := service.NewGenerationService(
		journeyRepo,
		generationRepo,
		gateway,
		composer,
		limiter,
		logger,
	)

	// Setup router
	router := api.SetupRouter(journeyService, generationService, api.RouterConfig{
		APIKey:       cfg.Admin.APIKey,
		AllowOrigins: []string{"*"},
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting TripCraft server",
			zap.String("address", cfg.Address()),
			zap.String("base_url", cfg.Server.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

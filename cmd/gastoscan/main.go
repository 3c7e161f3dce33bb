package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gastoscan/internal/api"
	"gastoscan/internal/api/handlers"
	"gastoscan/internal/repository"
	"gastoscan/internal/service"
	"gastoscan/pkg/auth"
	"gastoscan/pkg/cache"
	"gastoscan/pkg/config"
	"gastoscan/pkg/logger"
	"gastoscan/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting gastoscan service")

	ctx := context.Background()

	// The category store is an optional collaborator: without it records
	// simply carry no category id.
	var categoryStore service.CategoryStore
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Warn("Category store unavailable, continuing without it", zap.Error(err))
	} else {
		defer db.Close()
		categoryStore = repository.NewCategoryRepository(db, appLogger)
	}

	store, err := newCacheStore(cfg)
	if err != nil {
		appLogger.Fatal("Failed to open cache store", zap.Error(err))
	}
	defer store.Close()

	provider, err := newVisionProvider(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize vision provider", zap.Error(err))
	}

	llmService := service.NewLLMService(provider, appLogger)
	defer llmService.Close()

	ocrService := service.NewOCRService(cfg.OCR.Languages, appLogger)
	gate := service.NewCacheGate(store, cfg.Cache.TTL, appLogger)
	reconciler := service.NewReconciler(cfg.Pipeline.TotalOverrideThreshold, appLogger)
	categorizer := service.NewCategorizer(categoryStore, appLogger)
	taxEstimator := service.NewTaxEstimator(cfg.Pipeline.TaxRate)
	validator := service.NewValidator(cfg.Pipeline.ItemSumTolerance)

	expenseService := service.NewExpenseService(
		llmService, ocrService, gate, reconciler, categorizer, taxEstimator, validator, appLogger,
	)

	jwtManager := auth.NewJWTManager(cfg.Auth.SecretKey, cfg.Auth.Expiration)
	authHandler := handlers.NewAuthHandler(jwtManager, &cfg.Auth, appLogger)
	expenseHandler := handlers.NewExpenseHandler(expenseService, appLogger)

	app := api.SetupRouter(authHandler, expenseHandler, jwtManager, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}

func newCacheStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "bolt":
		return cache.NewBoltStore(cfg.Cache.Path)
	case "memory", "":
		return cache.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Cache.Backend)
	}
}

func newVisionProvider(ctx context.Context, cfg *config.Config, appLogger *zap.Logger) (service.VisionProvider, error) {
	switch cfg.LLMProvider {
	case "gigachat":
		return service.NewGigaChatExtractor(ctx, &cfg.GigaChat, appLogger)
	case "openai", "":
		return service.NewOpenAIExtractor(&cfg.OpenAI, appLogger)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
}

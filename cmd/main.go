package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"coi-service/internal/ai/gemini"
	"coi-service/internal/compliance"
	"coi-service/internal/config"
	"coi-service/internal/database/minio"
	"coi-service/internal/database/postgres"
	"coi-service/internal/database/redis"
	"coi-service/internal/event"
	"coi-service/internal/handlers"
	"coi-service/internal/repository"
	"coi-service/internal/services"
	"coi-service/internal/worker"

	"github.com/gofiber/fiber/v3"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/coi", "log", "coi_service")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	logFileName := fmt.Sprintf("log_%s.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(file, nil)))
	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		fmt.Printf("Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	cfg := config.New()

	slog.Info("Connecting to PostgreSQL",
		"host", cfg.PostgresCfg.Host,
		"port", cfg.PostgresCfg.Port,
		"dbname", cfg.PostgresCfg.DBname,
	)
	db := postgres.ConnectWithRetry(cfg.PostgresCfg, 30*time.Second)
	defer db.Close()

	redisClient, err := redis.NewRedisClient(cfg.RedisCfg.Host, cfg.RedisCfg.Port, cfg.RedisCfg.Password, cfg.RedisCfg.DB)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	minioClient, err := minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		slog.Error("Failed to connect to MinIO", "error", err)
		os.Exit(1)
	}

	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		slog.Error("Failed to connect to RabbitMQ, status notifications disabled", "error", err)
	}
	var publisher *event.NotificationPublisher
	if rabbitConn != nil {
		publisher = event.NewNotificationPublisher(rabbitConn)
		defer rabbitConn.Close()
	}

	// GEMINI_KEY accepts a comma-separated list; extraction rotates across
	// keys and fails over when one is rate limited.
	var geminiClients []gemini.GeminiClient
	for _, key := range strings.Split(cfg.GeminiAPICfg.APIKey, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		client, err := gemini.NewGenAIClient(key, cfg.GeminiAPICfg.FlashName, cfg.GeminiAPICfg.ProName)
		if err != nil {
			slog.Error("Failed to create Gemini client", "error", err)
			continue
		}
		geminiClients = append(geminiClients, *client)
	}
	if len(geminiClients) == 0 {
		slog.Error("No usable Gemini API keys configured")
		os.Exit(1)
	}
	geminiSelector := gemini.NewGeminiClientSelector(geminiClients)

	// repositories
	certificateRepo := repository.NewCertificateRepository(db)
	extractionRepo := repository.NewExtractionRepository(db)
	templateRepo := repository.NewRequirementTemplateRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	partyRepo := repository.NewPartyRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	cacheRepo := repository.NewComplianceCacheRepository(redisClient.GetClient(), 24*time.Hour)

	// services
	engine := compliance.NewEngine()
	resolver := services.NewTemplateResolver(templateRepo)
	extractionService := services.NewExtractionService(minioClient, geminiSelector, certificateRepo, extractionRepo, cacheRepo)
	complianceService := services.NewComplianceService(
		engine,
		resolver,
		certificateRepo,
		extractionRepo,
		partyRepo,
		propertyRepo,
		cacheRepo,
		publisher,
		cfg.ComplianceCfg.WarningThresholdDays,
	)
	certificateService := services.NewCertificateService(
		minioClient,
		redisClient.GetClient(),
		certificateRepo,
		partyRepo,
		subscriptionRepo,
		cfg.ComplianceCfg.MaxUploadPages,
		time.Duration(cfg.ComplianceCfg.PortalTokenTTLHours)*time.Hour,
	)
	sweepService := services.NewSweepService(certificateRepo, complianceService, cfg.ComplianceCfg.WarningThresholdDays)

	// background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewWorkingPool(4, 64)
	var workerWg sync.WaitGroup
	workerWg.Add(1)
	go pool.Start(ctx, &workerWg)

	sweepInterval, err := time.ParseDuration(cfg.ComplianceCfg.SweepInterval)
	if err != nil {
		slog.Warn("Invalid sweep interval, using 24h", "value", cfg.ComplianceCfg.SweepInterval)
		sweepInterval = 24 * time.Hour
	}
	scheduler := worker.NewJobScheduler("status-sweep", sweepInterval, pool)
	scheduler.AddJob("status-sweep", sweepService.Run)
	go scheduler.Run(ctx)

	// handlers
	certificateHandler := handlers.NewCertificateHandler(certificateService, extractionService, complianceService, pool)
	complianceHandler := handlers.NewComplianceHandler(complianceService, partyRepo)
	templateHandler := handlers.NewTemplateHandler(templateRepo, cacheRepo)
	propertyHandler := handlers.NewPropertyHandler(propertyRepo, subscriptionRepo)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionRepo)

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024,
	})
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("COI service is healthy")
	})

	certificateHandler.Register(app)
	complianceHandler.Register(app)
	templateHandler.Register(app)
	propertyHandler.Register(app)
	subscriptionHandler.Register(app)

	go func() {
		slog.Info("Starting COI service", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutdown signal received")
	cancel()
	workerWg.Wait()
	if err := app.Shutdown(); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	slog.Info("COI service stopped")
}

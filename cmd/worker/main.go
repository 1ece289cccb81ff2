package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"personaquiz/internal/adapter/queue"
	"personaquiz/internal/adapter/quizgen"
	"personaquiz/internal/config"
	"personaquiz/internal/database"
	"personaquiz/internal/logger"
	"personaquiz/internal/repository"
	"personaquiz/internal/service"
	"personaquiz/internal/worker"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Connect to database
	db, err := database.NewSQLXPostgresDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Initialize completion client and generator
	llm, err := quizgen.NewLLM(cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	generator, err := quizgen.NewLLMQuizGenerator(llm, cfg.LLM, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create quiz generator", zap.Error(err))
	}
	appLogger.Info("Quiz generator initialized",
		zap.String("source", cfg.LLM.Source),
		zap.String("model", cfg.LLM.Model),
	)

	// Initialize repositories and generation service
	quizRepository := repository.NewQuizDatabaseAdapter(db)
	txManager := repository.NewTransactionManagerAdapter(db)
	generationService := service.NewGenerationService(generator, quizRepository, txManager)

	// Initialize request queue
	requestQueue, err := queue.NewRabbitMQQueue(cfg.Queue.URL, cfg.Queue.QueueName, cfg.Worker.Concurrency, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer requestQueue.Close()
	appLogger.Info("Successfully connected to RabbitMQ")

	w := worker.NewWorker(
		requestQueue,
		generationService,
		cfg.Worker.MaxRetries,
		cfg.Worker.RetryDelay,
		appLogger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Worker started",
		zap.Int("concurrency", cfg.Worker.Concurrency),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
	)

	if err := w.Run(ctx, cfg.Worker.Concurrency); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Fatal("Worker stopped with error", zap.Error(err))
	}
	appLogger.Info("Worker exited gracefully")
}

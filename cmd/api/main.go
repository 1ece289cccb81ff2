package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"personaquiz/internal/adapter"
	"personaquiz/internal/adapter/queue"
	"personaquiz/internal/cache"
	"personaquiz/internal/config"
	"personaquiz/internal/database"
	"personaquiz/internal/handler"
	"personaquiz/internal/logger"
	"personaquiz/internal/middleware"
	"personaquiz/internal/repository"
	"personaquiz/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

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

	// Initialize repositories
	quizRepository := repository.NewQuizDatabaseAdapter(db)
	answerRepository := repository.NewAnswerDatabaseAdapter(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	// Initialize request queue
	// The API only publishes; prefetch matters to consumers.
	requestQueue, err := queue.NewRabbitMQQueue(cfg.Queue.URL, cfg.Queue.QueueName, 1, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer requestQueue.Close()
	appLogger.Info("Successfully connected to RabbitMQ")

	// Initialize Redis cache
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
	appLogger.Info("Successfully connected to Redis")

	// Initialize services
	quizService := service.NewQuizService(quizRepository, answerRepository, requestQueue, txManager, cacheAdapter)
	scoringService := service.NewScoringService(quizRepository, answerRepository, cacheAdapter)

	// Initialize handlers
	quizHandler := handler.NewQuizHandler(quizService, scoringService)

	devMode := cfg.Logger.Env != "production"

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		ErrorHandler: middleware.ErrorHandler(devMode),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigin,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
		MaxAge:       300,
	}))
	app.Use(recover.New())
	app.Use(middleware.OptionalAuth(cfg.Auth.JWTSecret))

	// Routes
	app.Get("/health", handler.Health)

	apiGroup := app.Group("/api")
	apiGroup.Post("/quizzes", quizHandler.CreateQuiz)
	apiGroup.Get("/quizzes/recent", quizHandler.ListRecentQuizzes)
	apiGroup.Get("/quizzes/hot", quizHandler.ListHotQuizzes)
	apiGroup.Get("/quizzes/:id", quizHandler.GetQuiz)
	apiGroup.Post("/quizzes/:id/answers", quizHandler.SubmitAnswers)
	apiGroup.Get("/quizzes/:id/results/:answerId", quizHandler.GetResult)
	apiGroup.Get("/users/me/answers", quizHandler.ListMyAnswers)

	// Start server
	go func() {
		appLogger.Info("Starting server",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.String("env", os.Getenv("ENV")),
		)
		addr := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}

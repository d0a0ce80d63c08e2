package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"earthslight/server/config"
	"earthslight/server/internal/aimodel"
	"earthslight/server/internal/api"
	"earthslight/server/internal/database"
	"earthslight/server/internal/environment"
	"earthslight/server/internal/observability"
	"earthslight/server/internal/predictor"
	"earthslight/server/internal/processor"
	"earthslight/server/internal/queue"
	"earthslight/server/internal/scheduler"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.Infof("Using database at: %s", cfg.DBPath)
	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()
	rng := predictor.NewRandom(cfg.RandomSeed)

	// Prediction history is written off the request path
	historyQueue := queue.NewPredictionQueue(cfg.History.QueueSize, logger)
	batchProcessor := processor.NewBatchProcessor(db.Gorm(), historyQueue, cfg, metrics, logger)
	batchProcessor.Start()
	historyQueue.Start()

	retention := scheduler.NewScheduler(db, cfg.History.Retention, cfg.History.RetentionInterval, clock, metrics, logger)
	retention.Start()

	runner := aimodel.NewRunner(aimodel.Options{
		Interpreter:    cfg.Model.PythonPath,
		Dir:            cfg.Model.Dir,
		Script:         cfg.Model.Script,
		ModelFile:      cfg.Model.File,
		PredictTimeout: cfg.Model.PredictTimeout,
		LoadTimeout:    cfg.Model.LoadTimeout,
	}, logger)

	orchestrator := predictor.NewOrchestrator(runner, rng, clock, metrics, logger)
	status := orchestrator.Initialize(context.Background())
	logger.WithFields(logrus.Fields{
		"loaded":     status.Loaded,
		"model_type": status.ModelType,
		"model_file": status.ModelFile,
	}).Info("Prediction model ready")

	if level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.CORS(cfg.CORSOrigin))

	api.SetupRoutes(router, api.NewHandler(orchestrator, db, historyQueue, metrics, logger), cfg.JWTSecret)
	api.SetupEnvironmentRoutes(router, api.NewEnvironmentHandler(environment.NewGenerator(rng, clock), clock))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	retention.Stop()
	if err := historyQueue.Close(); err != nil {
		logger.WithError(err).Error("Failed to drain prediction queue")
	}
	batchProcessor.Stop()
	logger.Info("Server stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitwell/backend/internal/api"
	"fitwell/backend/internal/config"
	"fitwell/backend/internal/imagegen"
	"fitwell/backend/internal/lock"
	"fitwell/backend/internal/logger"
	"fitwell/backend/internal/planner"
	"fitwell/backend/internal/repository/mongo"
	"fitwell/backend/internal/service"
	"fitwell/backend/internal/storage"
)

func runServe(ctx context.Context, configPath string) error {
	cfg, log, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Info("Starting fitwell server...", "address", cfg.Server.Address, "log_mode", cfg.Log.Mode)

	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret (JWT_SECRET) must be set")
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(ctx, cfg.Database.URI)
	if err != nil {
		return fmt.Errorf("connecting to MongoDB: %w", err)
	}
	defer func() {
		log.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error("Failed to disconnect MongoDB", "error", err)
		}
	}()
	if err := mongo.RequireTransactions(ctx, dbClient); err != nil {
		return fmt.Errorf("checking MongoDB deployment (plan writes run in transactions): %w", err)
	}
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("Database connection established", "database", cfg.Database.Name)

	// --- Ensure Indexes ---
	// Failures are logged; the server still starts.
	indexCtx, cancelIndexes := context.WithTimeout(ctx, time.Minute)
	if err := mongo.EnsureIndexes(indexCtx, appDB, log); err != nil {
		log.Warn("Index creation incomplete", "error", err)
	}
	cancelIndexes()

	// --- Storage, locks, generator ---
	images, err := newImageStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	locker, closeLocker, err := newLocker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLocker()

	generator, closeGenerator, err := newGenerator(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeGenerator()

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	mealRepo := mongo.NewMongoMealPlanRepository(appDB)
	mealTrackingRepo := mongo.NewMongoMealTrackingRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)
	workoutTrackingRepo := mongo.NewMongoWorkoutTrackingRepository(appDB)
	healthRepo := mongo.NewMongoHealthRepository(appDB)
	uow := mongo.NewUnitOfWork(dbClient)

	// --- Initialize Services ---
	settings := service.SettingsFromConfig(cfg)
	mealService := service.NewMealPlanService(service.MealPlanDeps{
		Users:      userRepo,
		Meals:      mealRepo,
		Tracking:   mealTrackingRepo,
		UnitOfWork: uow,
		Generator:  generator,
		Locker:     locker,
		Images:     images,
		Renderer:   imagegen.NewCardRenderer(),
		Log:        log.With("component", "meal_plans"),
		Settings:   settings,
	})
	workoutService := service.NewWorkoutService(service.WorkoutDeps{
		Users:      userRepo,
		Workouts:   workoutRepo,
		Tracking:   workoutTrackingRepo,
		UnitOfWork: uow,
		Generator:  generator,
		Locker:     locker,
		Log:        log.With("component", "workouts"),
		Settings:   settings,
	})
	services := api.Services{
		Auth:     service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration),
		Meals:    mealService,
		Workouts: workoutService,
		Health:   service.NewHealthService(userRepo, healthRepo, log.With("component", "health")),
	}

	if cfg.Log.Mode == "prod" || cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(cfg.JWT.Secret, cfg.CORS.AllowedOrigins, services, log)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// --- Graceful Shutdown ---
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server exiting.")
	return nil
}

// newImageStore returns the S3 store, or an in-memory store when no bucket
// is configured.
func newImageStore(ctx context.Context, cfg config.Config, log *logger.Logger) (storage.ImageStore, error) {
	if cfg.S3.BucketName == "" {
		log.Warn("No S3 bucket configured, meal images are kept in memory")
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.NewS3Store(ctx, cfg.S3, log)
	if err != nil {
		return nil, fmt.Errorf("initializing S3 storage: %w", err)
	}
	return store, nil
}

// newLocker returns a Redis locker when an address is configured and a
// process-local one otherwise.
func newLocker(ctx context.Context, cfg config.Config, log *logger.Logger) (lock.Locker, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Warn("No Redis address configured, plan locks are process-local")
		return lock.NewLocalLocker(cfg.Redis.LockWait), func() {}, nil
	}
	client, err := lock.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to Redis: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Warn("Failed to close Redis client", "error", err)
		}
	}
	return lock.NewRedisLocker(client, cfg.Redis.LockWait), closeFn, nil
}

// newGenerator wires Gemini behind the deterministic fallback. Without an
// API key every plan comes from the fallback.
func newGenerator(ctx context.Context, cfg config.Config, log *logger.Logger) (planner.Generator, func(), error) {
	genLog := log.With("component", "planner")
	if cfg.Gemini.APIKey == "" {
		log.Warn("No Gemini API key configured, using fallback plans only")
		return planner.NewResilient(nil, genLog), func() {}, nil
	}
	client, err := planner.NewGeminiClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Warn("Failed to close Gemini client", "error", err)
		}
	}
	primary := planner.NewGeminiGenerator(client, cfg.Gemini.Model, cfg.Gemini.Timeout)
	return planner.NewResilient(primary, genLog), closeFn, nil
}

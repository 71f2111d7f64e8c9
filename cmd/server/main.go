package main

import (
	"alcyxob/workout-progress/internal/api"
	"alcyxob/workout-progress/internal/config"
	"alcyxob/workout-progress/internal/logging"
	"alcyxob/workout-progress/internal/metrics"
	"alcyxob/workout-progress/internal/progress"
	"alcyxob/workout-progress/internal/repository/mongo"
	"alcyxob/workout-progress/internal/service"
	"alcyxob/workout-progress/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// @title Workout Progress API
// @version 1.0
// @description Workout logging, exercise progress charts and goal tracking for clients and their trainers.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	log.Infof("starting workout progress server, goals backend: %s, match key: %s", cfg.Goals.Backend, cfg.Progress.MatchKey)

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("could not connect to MongoDB: %s", err)
	}
	defer func() {
		log.Println("disconnecting MongoDB ...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Errorf("failed to disconnect MongoDB: %s", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureWorkoutIndexes(ctx, appDB.Collection("workouts"))
		mongo.EnsureExerciseSetIndexes(ctx, appDB.Collection("exercise_sets"))
		log.Debugln("index creation completed")
	}()

	// --- Redis (optional) ---
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("could not reach redis at %s: %s", cfg.Redis.Addr, err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Errorf("failed to close redis client: %s", err)
			}
		}()
	}

	// --- Metrics ---
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsManager := metrics.NewManager("progress", "server", promRegistry)
	metricsManager.GaugeLifeSignal.Set(1)

	// --- Goal Storage ---
	blobs, err := goalBlobStore(cfg, appDB, redisClient)
	if err != nil {
		log.Fatalf("could not set up goal storage: %s", err)
	}
	if cfg.Goals.CacheSizeMB > 0 {
		blobs = storage.NewCachedBlobStore(blobs, cfg.Goals.CacheSizeMB*1024*1024, cfg.Goals.CacheTTL)
	}

	// --- Progress Core ---
	matchKey, err := progress.ParseMatchKey(cfg.Progress.MatchKey)
	if err != nil {
		log.Fatalf("invalid progress.match_key: %s", err)
	}
	loc, err := cfg.Progress.Location()
	if err != nil {
		log.Fatalf("invalid progress.timezone: %s", err)
	}
	aggregator := progress.NewAggregator(matchKey, loc)

	// --- Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)
	setRepo := mongo.NewMongoExerciseSetRepository(appDB)

	// --- Services ---
	goalStore := service.NewBlobGoalStore(blobs, metricsManager)
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	workoutService := service.NewWorkoutService(userRepo, workoutRepo, setRepo, aggregator, metricsManager)
	progressService := service.NewProgressService(setRepo, goalStore, aggregator, metricsManager)
	goalService := service.NewGoalService(goalStore, metricsManager)
	trainerService := service.NewTrainerService(userRepo, progressService, workoutService)

	// --- Routes ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	deps := api.RouterDeps{
		JWTSecret:          authService.GetJWTSecret(),
		AuthService:        authService,
		WorkoutService:     workoutService,
		ProgressService:    progressService,
		GoalService:        goalService,
		TrainerService:     trainerService,
		Metrics:            metricsManager,
		Gatherer:           promRegistry,
		AuthLimitPerMinute: cfg.RateLimit.AuthPerMinute,
	}
	if redisClient != nil {
		deps.RateLimiter = redis_rate.NewLimiter(redisClient)
	} else {
		log.Warnln("redis not configured, auth rate limiting disabled")
	}
	api.SetupRoutes(router, deps)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen and serve: %s", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server ...")
	metricsManager.GaugeLifeSignal.Set(0)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Errorf("server forced to shutdown: %s", err)
	}

	log.Println("server exiting")
}

// goalBlobStore picks where goal blobs live according to goals.backend.
func goalBlobStore(cfg config.Config, db *mongodriver.Database, redisClient *redis.Client) (storage.BlobStore, error) {
	switch cfg.Goals.Backend {
	case config.GoalsBackendMongo:
		return mongo.NewMongoSettingsStore(db), nil
	case config.GoalsBackendRedis:
		if redisClient == nil {
			return nil, errors.New("redis backend selected but redis.addr is empty")
		}
		return storage.NewRedisBlobStore(redisClient, "workout-progress:"), nil
	case config.GoalsBackendS3:
		s3Store, err := storage.NewS3BlobStore(cfg.S3)
		if err != nil {
			return nil, err
		}
		return s3Store, nil
	case config.GoalsBackendMemory:
		log.Warnln("goals are kept in memory and will be lost on restart")
		return storage.NewMemoryBlobStore(), nil
	default:
		return nil, fmt.Errorf("unknown goals backend %q", cfg.Goals.Backend)
	}
}

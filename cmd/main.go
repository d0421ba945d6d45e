package main

import (
	"context"
	"errors"
	"log/slog"
	"motor_service/internal/api"
	"motor_service/internal/config"
	"motor_service/internal/core"
	"motor_service/internal/domain/model"
	"motor_service/internal/domain/repository"
	"motor_service/internal/infrastructure/mlclient"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	config.InitLogger()
	cfg := config.Load()
	slog.Info("Configuration loaded successfully",
		"server_port", cfg.Server.Port,
		"gin_mode", cfg.Server.Mode,
		"artifact_source", cfg.Artifacts.Source,
		"sample_rate_hz", cfg.Pipeline.SampleRate,
	)

	ctx := context.Background()
	var closers []func() error

	// Model artifacts
	var remote model.Classifier
	if cfg.Artifacts.ClassifierURL != "" {
		remote = mlclient.NewHTTPMLClient(cfg.Artifacts.ClassifierURL, cfg.Artifacts.ClassifierTimeout)
	}
	var state *core.ModelState
	if store, err := newArtifactStore(cfg.Artifacts); err != nil {
		slog.Error("Failed to create artifact store", "error", err)
		state = core.UnavailableModelState(err)
	} else {
		state = core.LoadModelState(ctx, store, remote)
	}

	// Prediction history
	var recorder core.PredictionRecorder
	var history api.HistoryReader
	if cfg.Postgres.URL != "" {
		postgresRepo, err := repository.NewPostgresRepository(cfg.Postgres.URL)
		if err != nil {
			slog.Error("Postgres unavailable, prediction history disabled", "error", err)
		} else if err := postgresRepo.EnsureSchema(ctx); err != nil {
			slog.Error("Failed to create history table", "error", err)
			postgresRepo.Close()
		} else {
			recorder = repository.NewPostgresPredictionRecorder(postgresRepo.DB)
			history = postgresRepo
			closers = append(closers, postgresRepo.Close)
		}
	}

	// Events
	var publisher core.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			slog.Error("RabbitMQ unavailable, prediction events disabled", "error", err)
		} else {
			rabbit, err := repository.NewRabbitPublisher(conn, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
			if err != nil {
				slog.Error("Failed to set up RabbitMQ publisher", "error", err)
				conn.Close()
			} else {
				publisher = rabbit
				closers = append(closers, rabbit.Close, conn.Close)
			}
		}
	}

	// Upload archive
	var archive api.Archiver = repository.NewLocalArchive(cfg.Server.UploadDir)
	if cfg.Archive.Endpoint != "" {
		minioArchive, err := repository.NewMinioArchive(
			cfg.Archive.Endpoint,
			cfg.Archive.AccessKey,
			cfg.Archive.SecretKey,
			cfg.Archive.Bucket,
			"uploads",
			cfg.Archive.Secure,
		)
		if err != nil {
			slog.Error("S3 archive unavailable, archiving locally", "error", err)
		} else {
			archive = minioArchive
		}
	}

	// Rate limiting
	var limiter gin.HandlerFunc
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Error("Redis unavailable, rate limiting disabled", "error", err)
			redisClient.Close()
		} else {
			limiter = api.NewRateLimiter(api.RateLimiterConfig{
				RedisClient: redisClient,
				Limit:       cfg.Redis.Limit,
				Window:      cfg.Redis.Window,
			})
			closers = append(closers, redisClient.Close)
		}
	}

	telemetry := repository.NewThingSpeakRepository(cfg.ThingSpeak.BaseURL, cfg.ThingSpeak.Results, cfg.ThingSpeak.Timeout)

	predictionService := core.NewPredictionService(state, telemetry, recorder, publisher, core.Options{
		SampleRate:            cfg.Pipeline.SampleRate,
		MaxRows:               cfg.Pipeline.MaxBatchRows,
		RejectMissingChannels: cfg.Pipeline.RejectMissingChannels,
	})

	handler := api.NewHandler(predictionService, archive, history, api.HandlerConfig{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		MaxBatchRows:   cfg.Pipeline.MaxBatchRows,
		TestDataDir:    cfg.Server.TestDataDir,
		TrustedProxies: cfg.Server.TrustedProxies,
	})

	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(handler, limiter)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting HTTP server", "port", cfg.Server.Port, "model_available", state.Available())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(server)

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			slog.Warn("Failed to close resource", "error", err)
		}
	}
}

func newArtifactStore(cfg config.ArtifactsConfig) (core.ArtifactStore, error) {
	switch cfg.Source {
	case "s3":
		store, err := repository.NewS3ArtifactStore(cfg.Region, cfg.Bucket, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "file", "":
		return repository.NewFileArtifactStore(cfg.Dir), nil
	default:
		return nil, errors.New("unknown artifact source " + cfg.Source)
	}
}

func waitForShutdown(server *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server gracefully stopped")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"notesync/handler"
	"notesync/repository"
	"notesync/services"
	"notesync/usecase"
	"notesync/utils"
)

var serveStore string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the notes HTTP API",
	Long: `Serve /api/notes backed by MongoDB (or an in-memory store with --store memory).
Reads go through Redis when REDIS_URL is set, an in-process cache otherwise.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		utils.InitValidator()
		gin.SetMode(cfg.Server.GinMode)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		health := make(map[string]handler.HealthCheck)

		store, closeStore, err := openNoteStore(ctx, health)
		if err != nil {
			return err
		}
		defer closeStore()

		backend, closeCache, err := openCacheBackend(health)
		if err != nil {
			return err
		}
		defer closeCache()

		cache := services.NewNoteCache(backend, logger).
			WithRetry(cfg.Cache.InvalidateAttempts, cfg.Cache.InvalidateBackoff)
		notesService := usecase.NewNotesService(store, cache, logger)
		notesService.TTL = cfg.Cache.TTL
		notesService.InvalidateTimeout = cfg.Cache.InvalidateTimeout

		router := setupRouter(cfg, notesService, health, logger)
		return runServer(ctx, ":"+cfg.Server.Port, router)
	},
}

func openNoteStore(ctx context.Context, health map[string]handler.HealthCheck) (repository.NoteStore, func(), error) {
	switch serveStore {
	case "memory":
		logger.Warn("using in-memory note store, data is lost on exit")
		return repository.NewMemoryRepo(), func() {}, nil
	case "mongo":
	default:
		return nil, nil, fmt.Errorf("unknown store %q (want mongo or memory)", serveStore)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
	defer cancel()
	client, err := utils.ConnectMongo(connectCtx, cfg.Mongo.URI, cfg.Mongo.MaxPoolSize)
	if err != nil {
		return nil, nil, err
	}

	if err := repository.SetupIndexes(client.Database(cfg.Mongo.DatabaseName)); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to set up indexes: %w", err)
	}

	health["mongo"] = func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("mongo disconnect failed", "error", err)
		}
	}
	return repository.GetNotesRepo(client, cfg.Mongo.DatabaseName), closeFn, nil
}

func openCacheBackend(health map[string]handler.HealthCheck) (services.Cache, func(), error) {
	if cfg.Redis.URL == "" {
		logger.Warn("REDIS_URL not set, using in-process cache; run a single instance only")
		return services.NewMemoryCache(), func() {}, nil
	}

	rc, err := services.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	health["redis"] = rc.Ping
	closeFn := func() {
		if err := rc.Close(); err != nil {
			logger.Error("redis close failed", "error", err)
		}
	}
	return rc, closeFn, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveStore, "store", "mongo", "Note store: mongo or memory")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/text3d/hub/internal/catalog"
	"github.com/text3d/hub/internal/config"
	"github.com/text3d/hub/internal/db"
	"github.com/text3d/hub/internal/handler"
	"github.com/text3d/hub/internal/llm"
	"github.com/text3d/hub/internal/localgen"
	"github.com/text3d/hub/internal/logging"
	"github.com/text3d/hub/internal/router"
	"github.com/text3d/hub/internal/scene"
	"github.com/text3d/hub/internal/service"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	os.Exit(serve(cfg, logger))
}

// serve runs the hub and flushes the logger before the exit code is reported.
func serve(cfg *config.Config, logger *zap.Logger) int {
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("hub stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg *config.Config, logger *zap.Logger) error {
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	database, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	logger.Info("database migrations applied", zap.String("driver", cfg.DBDriver))

	store := catalog.NewStore(database, logger.Named("catalog"))
	var (
		lookup catalog.Lookup = store
		cache  handler.CacheInvalidator
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(rootCtx).Err(); err != nil {
			logger.Warn("redis unreachable, catalog cache will retry per lookup", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cached := catalog.NewCached(store, rdb, cfg.CacheTTL, logger.Named("catalog"))
		lookup = cached
		cache = cached
	}

	generator, err := buildGenerator(cfg)
	if err != nil {
		return fmt.Errorf("local generator: %w", err)
	}

	resolver := scene.NewResolver(
		buildModel(rootCtx, cfg, logger),
		generator,
		lookup,
		logger.Named("resolver"),
		scene.Options{
			ModelTimeout:    cfg.ModelTimeout,
			DisableFallback: !cfg.FallbackEnabled,
		},
	)

	h := router.New(router.Deps{
		Scene: handler.NewSceneHandler(
			resolver,
			service.NewSceneArchiveService(database),
			service.NewPromptLogService(database),
			logger.Named("scene"),
		),
		Catalog:   handler.NewCatalogHandler(store, lookup, cache, logger.Named("catalog")),
		Embedding: handler.NewEmbeddingHandler(service.NewEmbeddingService(database), logger.Named("embedding")),
		StaticDir: cfg.StaticDir,
		Logger:    logger.Named("http"),
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     h,
		ReadTimeout: 30 * time.Second,
		// Websocket streams stay open across many resolutions.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	janitor := service.NewPromptLogJanitor(database, cfg.PromptLogRetention, logger.Named("janitor"))
	go janitor.Start(rootCtx)

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("text3d hub listening", zap.String("port", cfg.Port), zap.String("version", router.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("shutting down")
	rootCancel() // stop janitor

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	logger.Info("stopped")
	return nil
}

func buildGenerator(cfg *config.Config) (*localgen.Generator, error) {
	table := localgen.DefaultTable()
	if cfg.AliasesFile != "" {
		loaded, err := localgen.LoadTable(cfg.AliasesFile)
		if err != nil {
			return nil, err
		}
		table = loaded
	}
	opts := localgen.DefaultOptions()
	opts.DefaultKeys = cfg.FallbackDefaultKeys
	return localgen.New(table, opts)
}

// buildModel chains the providers that have credentials, Gemini first.
func buildModel(ctx context.Context, cfg *config.Config, logger *zap.Logger) llm.Client {
	var clients []llm.Client
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, "")
		if err != nil {
			logger.Warn("gemini disabled", zap.Error(err))
		} else {
			clients = append(clients, gemini)
			logger.Info("generative model enabled", zap.String("provider", gemini.Name()))
		}
	}
	if cfg.OpenAIAPIKey != "" {
		clients = append(clients, llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL))
		logger.Info("generative model enabled", zap.String("provider", "openai:"+cfg.OpenAIModel))
	}
	if len(clients) == 0 {
		logger.Warn("no generative model configured, every prompt uses the local generator")
	}
	return llm.Chain(clients...)
}

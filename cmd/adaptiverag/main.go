// Command adaptiverag serves the adaptive RAG workflow over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kataras/golog"

	"github.com/smallnest/adaptiverag/config"
	"github.com/smallnest/adaptiverag/llm"
	"github.com/smallnest/adaptiverag/log"
	"github.com/smallnest/adaptiverag/retriever"
	"github.com/smallnest/adaptiverag/server"
	"github.com/smallnest/adaptiverag/store"
	memorystore "github.com/smallnest/adaptiverag/store/memory"
	postgresstore "github.com/smallnest/adaptiverag/store/postgres"
	redisstore "github.com/smallnest/adaptiverag/store/redis"
	sqlitestore "github.com/smallnest/adaptiverag/store/sqlite"
	"github.com/smallnest/adaptiverag/tool"
	"github.com/smallnest/adaptiverag/workflow"
)

func main() {
	cfg := config.Load()

	gl := golog.New()
	gl.SetLevel(cfg.LogLevel)
	logger := log.NewGologLogger(gl)
	log.SetDefaultLogger(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checkpoints, err := newCheckpointStore(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("checkpoint backend: %s", cfg.CheckpointBackend)

	model, err := llm.NewOpenAIModel(
		llm.WithAPIKey(cfg.OpenAIAPIKey),
		llm.WithBaseURL(cfg.OpenAIBaseURL),
		llm.WithModel(cfg.OpenAIModel),
		llm.WithHTTPClient(&http.Client{Timeout: cfg.LLMTimeout}),
	)
	if err != nil {
		return err
	}

	search, err := tool.NewTavilySearch(cfg.TavilyAPIKey,
		tool.WithTavilyHTTPClient(&http.Client{Timeout: cfg.SearchTimeout}),
	)
	if err != nil {
		return err
	}

	kb, err := retriever.NewQdrantRetriever(retriever.QdrantConfig{
		URL:              cfg.QdrantURL,
		APIKey:           cfg.QdrantAPIKey,
		CollectionName:   cfg.QdrantCollection,
		TopK:             cfg.TopK,
		EmbeddingModel:   cfg.EmbeddingModel,
		EmbeddingBaseURL: cfg.EmbeddingBaseURL,
		EmbeddingAPIKey:  cfg.OpenAIAPIKey,
	})
	if err != nil {
		return err
	}

	engine, err := workflow.NewEngine(model, search,
		workflow.WithRetriever(kb),
		workflow.WithCheckpointStore(checkpoints),
		workflow.WithEngineLogger(logger),
	)
	if err != nil {
		return err
	}

	srv := server.New(engine, cfg.ServerAddr, server.WithLogger(logger))

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newCheckpointStore(ctx context.Context, cfg *config.Config) (store.CheckpointStore, error) {
	switch cfg.CheckpointBackend {
	case config.BackendMemory:
		return memorystore.NewCheckpointStore(), nil
	case config.BackendRedis:
		return redisstore.NewCheckpointStore(redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), nil
	case config.BackendPostgres:
		cps, err := postgresstore.NewCheckpointStore(ctx, postgresstore.Options{
			ConnString: cfg.PostgresURL,
		})
		if err != nil {
			return nil, err
		}
		if err := cps.InitSchema(ctx); err != nil {
			return nil, err
		}
		return cps, nil
	case config.BackendSQLite:
		return sqlitestore.NewCheckpointStore(sqlitestore.Options{Path: cfg.SQLitePath})
	default:
		return memorystore.NewCheckpointStore(), nil
	}
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/unmask/internal/ai"
	"github.com/xxxsen/unmask/internal/chunk"
	"github.com/xxxsen/unmask/internal/classify"
	"github.com/xxxsen/unmask/internal/config"
	"github.com/xxxsen/unmask/internal/db"
	"github.com/xxxsen/unmask/internal/embedcache"
	"github.com/xxxsen/unmask/internal/filestore"
	"github.com/xxxsen/unmask/internal/repo"
	"github.com/xxxsen/unmask/internal/service"
	"github.com/xxxsen/unmask/internal/vectorindex"
)

const (
	maxUploadSize     = 20 << 20
	insightCacheSize  = 256
	defaultInsightTTL = 10 * time.Minute
)

// app holds everything the subcommands share. Close releases the database
// and any redis connections opened for caching.
type app struct {
	cfg *config.Config
	db  *sqlx.DB

	messages   *repo.MessageRepo
	tags       *repo.MessageTagRepo
	chunks     *repo.ChunkRepo
	embedCache *repo.EmbeddingCacheRepo
	files      filestore.Store

	tagService       *service.TagService
	vectorizeService *service.VectorizeService
	analysisService  *service.AnalysisService
	insightService   *service.InsightService
	importService    *service.ImportService
	exportService    *service.ExportService
	messageService   *service.MessageService
	chunkService     *service.ChunkService

	closers []func() error
}

// loadConfig reads the config file and initialises the logger. stdio
// commands pass quiet so log lines never interleave with protocol output.
func loadConfig(path string, quiet bool) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if quiet {
		cfg.LogConfig.Console = false
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}

func newApp(cfg *config.Config) (*app, error) {
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	a := &app{cfg: cfg, db: conn}
	a.closers = append(a.closers, conn.Close)
	if err := a.build(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) build() error {
	cfg := a.cfg
	if err := db.ApplyMigrations(a.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	a.messages = repo.NewMessageRepo(a.db)
	a.tags = repo.NewMessageTagRepo(a.db)
	a.chunks = repo.NewChunkRepo(a.db)
	a.embedCache = repo.NewEmbeddingCacheRepo(a.db)

	lib, err := service.LoadLibrary(cfg.Pipeline)
	if err != nil {
		return fmt.Errorf("load patterns: %w", err)
	}
	files, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	a.files = files
	index, err := vectorindex.New(cfg.VectorIndex, a.db)
	if err != nil {
		return fmt.Errorf("init vector index: %w", err)
	}
	manager, err := a.buildAI()
	if err != nil {
		return err
	}
	insightCache, err := a.buildInsightCache()
	if err != nil {
		return err
	}

	retry := service.RetryFromPipeline(cfg.Pipeline)
	a.tagService = service.NewTagService(a.messages, a.tags, classify.New(lib), service.TagConfig{
		BatchSize: cfg.Pipeline.TagBatchSize,
		Workers:   cfg.Pipeline.TagWorkers,
		Retry:     retry,
	})
	a.vectorizeService = service.NewVectorizeService(a.messages, a.chunks, chunk.NewAnnotator(lib), manager, index, service.VectorizeConfig{
		MessageLimit: cfg.Pipeline.MessageLimit,
		BatchSize:    cfg.Pipeline.EmbedBatchSize,
		Concurrency:  cfg.Pipeline.EmbedConcurrency,
		Segment:      chunk.DefaultOptions(),
		Retry:        retry,
	})
	a.analysisService = service.NewAnalysisService(a.tags)
	a.insightService = service.NewInsightService(manager, manager, index, a.chunks, cfg.Pipeline.TopK, insightCache)
	a.importService = service.NewImportService(a.messages, files, cfg.Pipeline.ImportBatchSize)
	a.exportService = service.NewExportService(a.chunks, files)
	a.messageService = service.NewMessageService(a.messages, a.tags)
	a.chunkService = service.NewChunkService(a.chunks)
	return nil
}

// buildAI wires the generator and the cached embedder. Without a configured
// provider the manager still exists and reports ai.ErrUnavailable per call,
// so tagging and import keep working offline.
func (a *app) buildAI() (*ai.Manager, error) {
	cfg := a.cfg
	logger := logutil.GetLogger(context.Background())
	mcfg := ai.ManagerConfig{
		Timeout:       cfg.AI.Timeout,
		MaxInputChars: cfg.AI.MaxInputChars,
		TaskType:      cfg.AI.EmbedTaskType,
	}
	if cfg.AI.Provider == "" && cfg.AI.EmbedProvider == "" {
		logger.Warn("ai provider not configured, embedding and insights disabled")
		return ai.NewManager(nil, nil, mcfg), nil
	}
	var generator ai.IGenerator
	if cfg.AI.Provider != "" {
		gen, err := ai.BuildGenerator(cfg.AI)
		if err != nil {
			return nil, err
		}
		generator = gen
	}
	embedder, err := ai.BuildEmbedder(cfg.AI)
	if err != nil {
		return nil, err
	}
	stores, closeStores, err := embedcache.Stores(cfg.EmbedCache, a.embedCache)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStores)
	if len(stores) > 0 {
		embedder = embedcache.Wrap(embedder, stores...)
	}
	logger.Info("ai configured",
		zap.String("provider", cfg.AI.Provider),
		zap.String("model", cfg.AI.Model),
		zap.String("embed_model", embedder.ModelName()),
		zap.Int("cache_tiers", len(stores)),
	)
	return ai.NewManager(generator, embedder, mcfg), nil
}

// buildInsightCache prefers redis when the embedding cache already points at
// one, so every replica shares answers.
func (a *app) buildInsightCache() (service.InsightCache, error) {
	ttl := defaultInsightTTL
	if a.cfg.AI.InsightCacheTTL < 0 {
		return nil, nil
	}
	if a.cfg.AI.InsightCacheTTL > 0 {
		ttl = time.Duration(a.cfg.AI.InsightCacheTTL) * time.Second
	}
	if a.cfg.EmbedCache.RedisURL == "" {
		return service.NewLRUInsightCache(insightCacheSize, ttl), nil
	}
	opt, err := redis.ParseURL(a.cfg.EmbedCache.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid embed_cache.redis_url: %w", err)
	}
	client := redis.NewClient(opt)
	a.closers = append(a.closers, client.Close)
	return service.NewRedisInsightCache(client, ttl), nil
}

func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

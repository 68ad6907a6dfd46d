package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port             int               `json:"port"`
	JWTSecret        string            `json:"jwt_secret"`
	JWTTTLHours      int               `json:"jwt_ttl_hours"`
	RateLimitSeconds int               `json:"rate_limit_seconds"`
	CORSOrigins      []string          `json:"cors_origins"`
	LogConfig        logger.LogConfig  `json:"log_config"`
	Database         DatabaseConfig    `json:"database"`
	AI               AIConfig          `json:"ai"`
	EmbedCache       EmbedCacheConfig  `json:"embed_cache"`
	VectorIndex      VectorIndexConfig `json:"vector_index"`
	FileStore        FileStoreConfig   `json:"file_store"`
	Pipeline         PipelineConfig    `json:"pipeline"`
	Schedule         ScheduleConfig    `json:"schedule"`
}

type DatabaseConfig struct {
	Driver   string `json:"driver"`
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
	Path     string `json:"path"`
}

type AIProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	Provider        string             `json:"provider"`
	Model           string             `json:"model"`
	EmbedProvider   string             `json:"embed_provider"`
	EmbedModel      string             `json:"embed_model"`
	EmbedTaskType   string             `json:"embed_task_type"`
	Timeout         int                `json:"timeout"`
	MaxInputChars   int                `json:"max_input_chars"`
	Data            interface{}        `json:"data"`
	Fallback        []AIProviderConfig `json:"fallback"`
	EmbedFallback   []AIProviderConfig `json:"embed_fallback"`
	InsightCacheTTL int                `json:"insight_cache_ttl_seconds"`
}

type EmbedCacheConfig struct {
	LRUSize         int    `json:"lru_size"`
	LRUTTLSeconds   int    `json:"lru_ttl_seconds"`
	DBEnabled       bool   `json:"db_enabled"`
	RedisURL        string `json:"redis_url"`
	RedisTTLSeconds int    `json:"redis_ttl_seconds"`
	MaxAgeDays      int    `json:"max_age_days"`
}

type VectorIndexConfig struct {
	Type       string `json:"type"`
	Dimensions int    `json:"dimensions"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type PipelineConfig struct {
	TagBatchSize     int      `json:"tag_batch_size"`
	TagWorkers       int      `json:"tag_workers"`
	EmbedBatchSize   int      `json:"embed_batch_size"`
	EmbedConcurrency int      `json:"embed_concurrency"`
	RetryAttempts    int      `json:"retry_attempts"`
	RetryBackoffMS   []int    `json:"retry_backoff_ms"`
	MessageLimit     int      `json:"message_limit"`
	TopK             int      `json:"top_k"`
	PatternsFile     string   `json:"patterns_file"`
	ImportBatchSize  int      `json:"import_batch_size"`
	TrackedPersons   []string `json:"tracked_persons"`
}

type ScheduleConfig struct {
	TagSpec          string `json:"tag_spec"`
	VectorizeSpec    string `json:"vectorize_spec"`
	CacheCleanupSpec string `json:"cache_cleanup_spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 24 * 30
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	switch cfg.Database.Driver {
	case "":
		cfg.Database.Driver = "sqlite"
		fallthrough
	case "sqlite":
		if cfg.Database.Path == "" && cfg.Database.DSN == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if cfg.Database.DSN == "" && cfg.Database.Host == "" {
			return fmt.Errorf("database.dsn or database.host is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres")
	}
	if cfg.VectorIndex.Type == "" {
		cfg.VectorIndex.Type = "sql"
	}
	switch cfg.VectorIndex.Type {
	case "memory", "sql":
	case "pgvector":
		if cfg.Database.Driver != "postgres" {
			return fmt.Errorf("vector_index.type pgvector requires the postgres driver")
		}
	default:
		return fmt.Errorf("vector_index.type must be memory, sql or pgvector")
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.EmbedCache.MaxAgeDays == 0 {
		cfg.EmbedCache.MaxAgeDays = 30
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60
	}
	p := &cfg.Pipeline
	if p.TagBatchSize <= 0 {
		p.TagBatchSize = 100
	}
	if p.TagWorkers <= 0 {
		p.TagWorkers = 4
	}
	if p.EmbedBatchSize <= 0 {
		p.EmbedBatchSize = 10
	}
	if p.EmbedConcurrency <= 0 {
		p.EmbedConcurrency = 4
	}
	if p.RetryAttempts <= 0 {
		p.RetryAttempts = 3
	}
	if len(p.RetryBackoffMS) == 0 {
		p.RetryBackoffMS = []int{500, 2000, 5000}
	}
	if p.MessageLimit <= 0 {
		p.MessageLimit = 10000
	}
	if p.TopK <= 0 {
		p.TopK = 10
	}
	if p.ImportBatchSize <= 0 {
		p.ImportBatchSize = 100
	}
	return nil
}

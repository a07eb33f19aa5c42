package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	TokenSecret string           `json:"token_secret"`
	CORSOrigins []string         `json:"cors_origins"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	FileStore   FileStoreConfig  `json:"file_store"`
	Github      GithubConfig     `json:"github"`
	AI          AIConfig         `json:"ai"`
	Indexer     IndexerConfig    `json:"indexer"`
	Retrieval   RetrievalConfig  `json:"retrieval"`
	Team        TeamConfig       `json:"team"`
	Schedule    ScheduleConfig   `json:"schedule"`
	Billing     BillingConfig    `json:"billing"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
	MaxConns int    `json:"max_conns"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type GithubConfig struct {
	BaseURL        string `json:"base_url"`
	Token          string `json:"token"`
	Timeout        int    `json:"timeout"`
	CommitPageSize int    `json:"commit_page_size"`
}

// AIProviderConfig is a fallback provider. Empty model names inherit the
// primary ones.
type AIProviderConfig struct {
	Provider     string      `json:"provider"`
	Data         interface{} `json:"data"`
	SummaryModel string      `json:"summary_model"`
	AnswerModel  string      `json:"answer_model"`
	EmbedModel   string      `json:"embed_model"`
}

type AIConfig struct {
	Provider        string             `json:"provider"`
	Data            interface{}        `json:"data"`
	Fallbacks       []AIProviderConfig `json:"fallbacks"`
	SummaryModel    string             `json:"summary_model"`
	EmbedModel      string             `json:"embed_model"`
	AnswerModel     string             `json:"answer_model"`
	PaceIntervalMS  int                `json:"pace_interval_ms"`
	CooldownSeconds int                `json:"cooldown_seconds"`
	Timeout         int                `json:"timeout"`
	MaxInputChars   int                `json:"max_input_chars"`
	EmbeddingDim    int                `json:"embedding_dimension"`
	EmbedCacheSize  int                `json:"embed_cache_size"`
	EmbedCacheTTL   int                `json:"embed_cache_ttl_seconds"`
}

type IndexerConfig struct {
	Workers           int      `json:"workers"`
	CommitWorkers     int      `json:"commit_workers"`
	MaxFileSize       int64    `json:"max_file_size"`
	MaxContentChars   int      `json:"max_content_chars"`
	IgnoreDirs        []string `json:"ignore_dirs"`
	IgnoreFiles       []string `json:"ignore_files"`
	IgnoreExts        []string `json:"ignore_exts"`
	RunTimeoutMinutes int      `json:"run_timeout_minutes"`
	EventBuffer       int      `json:"event_buffer"`
}

type RetrievalConfig struct {
	TopK int `json:"top_k"`
	// MinSimilarity is nil when unset so that an explicit 0 disables the cutoff.
	MinSimilarity *float64 `json:"min_similarity"`
}

func (r RetrievalConfig) Threshold() float64 {
	if r.MinSimilarity == nil {
		return defaultMinSimilarity
	}
	return *r.MinSimilarity
}

type TeamConfig struct {
	JoinCodeTTLHours int `json:"join_code_ttl_hours"`
	JoinRateLimitSec int `json:"join_rate_limit_seconds"`
}

type ScheduleConfig struct {
	CommitSync      string `json:"commit_sync"`
	ReembedFailed   string `json:"reembed_failed"`
	JoinCodeCleanup string `json:"join_code_cleanup"`
	ReembedBatch    int    `json:"reembed_batch"`
}

type BillingConfig struct {
	WebhookSecret string `json:"webhook_secret"`
}

const defaultMinSimilarity = 0.5

// Load reads the JSON config file, applies environment overrides from the
// process env (and an optional .env next to the working dir) and fills defaults.
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
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)
	if err := cfg.fill(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("REPOMIND_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REPOMIND_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("REPOMIND_TOKEN_SECRET"); v != "" {
		cfg.TokenSecret = v
	}
	if v := os.Getenv("REPOMIND_BILLING_SECRET"); v != "" {
		cfg.Billing.WebhookSecret = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.Github.Token = v
	}
	var key string
	switch strings.ToLower(strings.TrimSpace(cfg.AI.Provider)) {
	case "gemini":
		key = os.Getenv("GEMINI_API_KEY")
	case "openai":
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return
	}
	data, ok := cfg.AI.Data.(map[string]interface{})
	if !ok || data == nil {
		data = map[string]interface{}{}
	}
	data["api_key"] = key
	cfg.AI.Data = data
}

func (cfg *Config) fill() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.TokenSecret == "" {
		return fmt.Errorf("token_secret is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.Github.BaseURL == "" {
		cfg.Github.BaseURL = "https://api.github.com"
	}
	if cfg.Github.Timeout <= 0 {
		cfg.Github.Timeout = 30
	}
	if cfg.Github.CommitPageSize <= 0 {
		cfg.Github.CommitPageSize = 15
	}
	if cfg.AI.Provider == "" {
		return fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.SummaryModel == "" {
		cfg.AI.SummaryModel = "gemini-2.5-flash"
	}
	if cfg.AI.AnswerModel == "" {
		cfg.AI.AnswerModel = cfg.AI.SummaryModel
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "text-embedding-004"
	}
	if cfg.AI.PaceIntervalMS <= 0 {
		cfg.AI.PaceIntervalMS = 6500
	}
	if cfg.AI.CooldownSeconds <= 0 {
		cfg.AI.CooldownSeconds = 60
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.AI.MaxInputChars <= 0 {
		cfg.AI.MaxInputChars = 40000
	}
	if cfg.AI.EmbeddingDim <= 0 {
		cfg.AI.EmbeddingDim = 768
	}
	if cfg.AI.EmbedCacheSize <= 0 {
		cfg.AI.EmbedCacheSize = 1024
	}
	if cfg.AI.EmbedCacheTTL <= 0 {
		cfg.AI.EmbedCacheTTL = 3600
	}
	if cfg.Indexer.Workers <= 0 {
		cfg.Indexer.Workers = 4
	}
	if cfg.Indexer.CommitWorkers <= 0 {
		cfg.Indexer.CommitWorkers = 4
	}
	if cfg.Indexer.MaxFileSize <= 0 {
		cfg.Indexer.MaxFileSize = 200 * 1024
	}
	if cfg.Indexer.MaxContentChars <= 0 {
		cfg.Indexer.MaxContentChars = 10000
	}
	if cfg.Indexer.RunTimeoutMinutes <= 0 {
		cfg.Indexer.RunTimeoutMinutes = 60
	}
	if cfg.Indexer.EventBuffer <= 0 {
		cfg.Indexer.EventBuffer = 64
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 10
	}
	if cfg.Retrieval.MinSimilarity == nil {
		v := defaultMinSimilarity
		cfg.Retrieval.MinSimilarity = &v
	}
	if m := *cfg.Retrieval.MinSimilarity; m < -1 || m > 1 {
		return fmt.Errorf("retrieval.min_similarity must be within [-1, 1]")
	}
	if cfg.Team.JoinCodeTTLHours <= 0 {
		cfg.Team.JoinCodeTTLHours = 24
	}
	if cfg.Team.JoinRateLimitSec <= 0 {
		cfg.Team.JoinRateLimitSec = 2
	}
	if cfg.Schedule.CommitSync == "" {
		cfg.Schedule.CommitSync = "*/30 * * * *"
	}
	if cfg.Schedule.ReembedFailed == "" {
		cfg.Schedule.ReembedFailed = "*/10 * * * *"
	}
	if cfg.Schedule.JoinCodeCleanup == "" {
		cfg.Schedule.JoinCodeCleanup = "0 * * * *"
	}
	if cfg.Schedule.ReembedBatch <= 0 {
		cfg.Schedule.ReembedBatch = 50
	}
	return nil
}

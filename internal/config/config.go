// Package config provides configuration loading and structs for the jobrecall server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets from the config file.
const (
	EnvPostgresURL     = "JOBRECALL_POSTGRES_URL"
	EnvEmbeddingAPIKey = "JOBRECALL_EMBEDDING_API_KEY"
	EnvRedisURL        = "JOBRECALL_REDIS_URL"
)

// Config holds all configuration for the application.
type Config struct {
	Debug          bool            `yaml:"debug"`
	LogFormat      string          `yaml:"log_format"`
	RequestTimeout time.Duration   `yaml:"request_timeout"`
	Server         ServerConfig    `yaml:"server"`
	Storage        StorageConfig   `yaml:"storage"`
	Vector         VectorConfig    `yaml:"vector"`
	Embedding      EmbeddingConfig `yaml:"embedding"`
	Recall         RecallConfig    `yaml:"recall"`
	Fusion         FusionConfig    `yaml:"fusion"`
	Watch          WatchConfig     `yaml:"watch"`
}

// WatchConfig lists corpus directories that the server keeps indexed.
type WatchConfig struct {
	Directories []string      `yaml:"directories"`
	Extensions  []string      `yaml:"extensions"`
	Recursive   *bool         `yaml:"recursive"`
	Debounce    time.Duration `yaml:"debounce"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the graph lookup backend.
// Backend "sqlite" reads the local job catalogue; "age" runs Cypher on Apache AGE.
type StorageConfig struct {
	Backend      string `yaml:"backend"`
	DatabasePath string `yaml:"database_path"`
	PostgresURL  string `yaml:"postgres_url"`
	GraphName    string `yaml:"graph_name"`
}

// VectorConfig selects the vector store.
type VectorConfig struct {
	IndexType   string `yaml:"index_type"` // "memory" or "pgvector"
	IndexPath   string `yaml:"index_path"`
	PostgresURL string `yaml:"postgres_url"`
	Dimensions  int    `yaml:"dimensions"`
}

// EmbeddingConfig holds embedding service settings.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"` // "http" or "mock"
	URL        string        `yaml:"url"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	Dimensions int           `yaml:"dimensions"`
	CacheSize  int           `yaml:"cache_size"`
	RedisURL   string        `yaml:"redis_url"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// SignalConfig holds the recall settings of one signal.
type SignalConfig struct {
	Threshold float64 `yaml:"threshold"`
	TopK      int     `yaml:"top_k"`
}

// RecallConfig holds per-signal recall settings.
type RecallConfig struct {
	SearchLimit    int          `yaml:"search_limit"`
	MaxConcurrency int          `yaml:"max_concurrency"`
	Skill          SignalConfig `yaml:"skill"`
	Title          SignalConfig `yaml:"title"`
	Function       SignalConfig `yaml:"function"`
	Experience     SignalConfig `yaml:"experience"`
}

// FusionConfig holds score fusion weights. ScoreFloor is a pointer so that an
// explicit 0 is kept.
type FusionConfig struct {
	TitleWeight      float64  `yaml:"title_weight"`
	SkillWeight      float64  `yaml:"skill_weight"`
	ExperienceWeight float64  `yaml:"experience_weight"`
	YoEWeight        float64  `yaml:"yoe_weight"`
	TitleMatch       float64  `yaml:"title_match"`
	FunctionMatch    float64  `yaml:"function_match"`
	ScoreFloor       *float64 `yaml:"score_floor"`
	CoreSkillRatio   float64  `yaml:"core_skill_ratio"`
	DefaultTopK      int      `yaml:"default_top_k"`
	MaxTopK          int      `yaml:"max_top_k"`
}

// FloorOrDefault returns the minimum fused score; defaults to 0.05 when unset.
func (f *FusionConfig) FloorOrDefault() float64 {
	if f.ScoreFloor != nil {
		return *f.ScoreFloor
	}
	return 0.05
}

// Load reads and parses the config file at path, expands paths, applies
// environment overrides and defaults. Returns an error if the file cannot be
// read or parsed, or if the resulting config is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Vector.IndexPath = expandPath(cfg.Vector.IndexPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides secrets with values from the environment when set.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvPostgresURL); v != "" {
		cfg.Storage.PostgresURL = v
		cfg.Vector.PostgresURL = v
	}
	if v := os.Getenv(EnvEmbeddingAPIKey); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.Embedding.RedisURL = v
	}
}

// Validate reports configuration values that are out of range.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite", "age":
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}
	switch c.Vector.IndexType {
	case "memory", "pgvector":
	default:
		return fmt.Errorf("unknown vector index type: %q", c.Vector.IndexType)
	}
	switch c.Embedding.Provider {
	case "http", "mock":
	default:
		return fmt.Errorf("unknown embedding provider: %q", c.Embedding.Provider)
	}
	for name, s := range map[string]SignalConfig{
		"skill":      c.Recall.Skill,
		"title":      c.Recall.Title,
		"function":   c.Recall.Function,
		"experience": c.Recall.Experience,
	} {
		if s.Threshold <= 0 || s.Threshold > 2 {
			return fmt.Errorf("recall.%s.threshold must be in (0, 2], got %v", name, s.Threshold)
		}
		if s.TopK <= 0 {
			return fmt.Errorf("recall.%s.top_k must be positive, got %d", name, s.TopK)
		}
	}
	for name, w := range map[string]float64{
		"title_weight":      c.Fusion.TitleWeight,
		"skill_weight":      c.Fusion.SkillWeight,
		"experience_weight": c.Fusion.ExperienceWeight,
		"yoe_weight":        c.Fusion.YoEWeight,
		"title_match":       c.Fusion.TitleMatch,
		"function_match":    c.Fusion.FunctionMatch,
		"score_floor":       c.Fusion.FloorOrDefault(),
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("fusion.%s must be in [0, 1], got %v", name, w)
		}
	}
	if c.Fusion.DefaultTopK > c.Fusion.MaxTopK {
		return fmt.Errorf("fusion.default_top_k (%d) exceeds max_top_k (%d)", c.Fusion.DefaultTopK, c.Fusion.MaxTopK)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty and in-memory paths are kept.
func expandPath(path string, configDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/jobrecall/data/db/jobs.db"
	}
	if cfg.Storage.GraphName == "" {
		cfg.Storage.GraphName = "job_graph"
	}
	if cfg.Vector.IndexType == "" {
		cfg.Vector.IndexType = "memory"
	}
	if cfg.Vector.IndexPath == "" {
		cfg.Vector.IndexPath = "/usr/local/var/jobrecall/data/indices/vectors.bin"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "http"
	}
	if cfg.Embedding.URL == "" {
		cfg.Embedding.URL = "http://localhost:11434/v1/embeddings"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Vector.Dimensions == 0 {
		cfg.Vector.Dimensions = cfg.Embedding.Dimensions
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.CacheTTL == 0 {
		cfg.Embedding.CacheTTL = 24 * time.Hour
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 15 * time.Second
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = 3
	}
	if cfg.Recall.SearchLimit == 0 {
		cfg.Recall.SearchLimit = 500
	}
	if cfg.Recall.MaxConcurrency == 0 {
		cfg.Recall.MaxConcurrency = 16
	}
	applySignalDefaults(&cfg.Recall.Skill, 0.25, 200)
	applySignalDefaults(&cfg.Recall.Title, 0.4, 500)
	applySignalDefaults(&cfg.Recall.Function, 0.4, 500)
	applySignalDefaults(&cfg.Recall.Experience, 0.6, 200)

	// All-zero weights mean the section was left unset.
	f := &cfg.Fusion
	if f.TitleWeight == 0 && f.SkillWeight == 0 && f.ExperienceWeight == 0 && f.YoEWeight == 0 {
		f.TitleWeight = 0.25
		f.SkillWeight = 0.25
		f.ExperienceWeight = 0.25
		f.YoEWeight = 0.25
	}
	if f.TitleMatch == 0 && f.FunctionMatch == 0 {
		f.TitleMatch = 0.7
		f.FunctionMatch = 0.3
	}
	if f.ScoreFloor == nil {
		floor := 0.05
		f.ScoreFloor = &floor
	}
	if f.CoreSkillRatio == 0 {
		f.CoreSkillRatio = 0.5
	}
	if f.DefaultTopK == 0 {
		f.DefaultTopK = 50
	}
	if f.MaxTopK == 0 {
		f.MaxTopK = 200
	}

	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = []string{".json", ".jsonl"}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 400 * time.Millisecond
	}
}

func applySignalDefaults(s *SignalConfig, threshold float64, topK int) {
	if s.Threshold == 0 {
		s.Threshold = threshold
	}
	if s.TopK == 0 {
		s.TopK = topK
	}
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

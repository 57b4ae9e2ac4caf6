package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	VectorStore string           `json:"vector_store"`
	FileStore   FileStoreConfig  `json:"file_store"`
	AI          AIConfig         `json:"ai"`
	Core        CoreConfig       `json:"core"`
	CORSOrigins []string         `json:"cors_origins"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// Configured reports whether any connection info was supplied at all.
// Without it the service runs on the mock vector store.
func (c DatabaseConfig) Configured() bool {
	return c.DSN != "" || c.Host != ""
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ProviderRef names one provider variant inside an ordered fallback chain.
type ProviderRef struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Args     interface{} `json:"args"`
}

type AIConfig struct {
	GenerateProviders []ProviderRef `json:"generate_providers"`
	EmbedProviders    []ProviderRef `json:"embed_providers"`
	ImageProviders    []ProviderRef `json:"image_providers"`
	// DisableMock removes the terminal mock variant from every chain;
	// exhausting real vendors then surfaces an error.
	DisableMock   bool `json:"disable_mock"`
	Timeout       int  `json:"timeout"`
	MaxInputChars int  `json:"max_input_chars"`
	EmbedCacheTTL int  `json:"embed_cache_ttl"`
}

// CoreConfig carries the ingestion/retrieval tunables. Every field has a
// default applied on load so an empty section is valid.
type CoreConfig struct {
	ChunkSize        int     `json:"chunk_size"`
	BatchSize        int     `json:"batch_size"`
	BatchDelayMS     int     `json:"batch_delay_ms"`
	MaxChunksPerFile int     `json:"max_chunks_per_file"`
	MinSimilarity    float64 `json:"min_similarity"`
	ResultLimit      int     `json:"result_limit"`
	GlobalQueryLimit int     `json:"global_query_limit"`
	HistoryLimit     int     `json:"history_limit"`
	MaxUploadBytes   int64   `json:"max_upload_bytes"`
	TextKeepChars    int     `json:"text_keep_chars"`
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
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.VectorStore == "" {
		if cfg.Database.Configured() {
			cfg.VectorStore = "pg"
		} else {
			cfg.VectorStore = "mock"
		}
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
		cfg.FileStore.Data = map[string]interface{}{"dir": "./uploads"}
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 30
	}
	if cfg.AI.MaxInputChars == 0 {
		cfg.AI.MaxInputChars = 100000
	}
	if cfg.AI.EmbedCacheTTL == 0 {
		cfg.AI.EmbedCacheTTL = 7200
	}
	applyCoreDefaults(&cfg.Core)
	return &cfg, nil
}

func applyCoreDefaults(core *CoreConfig) {
	if core.ChunkSize == 0 {
		core.ChunkSize = 500
	}
	if core.BatchSize == 0 {
		core.BatchSize = 5
	}
	if core.BatchDelayMS == 0 {
		core.BatchDelayMS = 100
	}
	if core.MaxChunksPerFile == 0 {
		core.MaxChunksPerFile = 20
	}
	if core.MinSimilarity == 0 {
		core.MinSimilarity = 0.7
	}
	if core.ResultLimit == 0 {
		core.ResultLimit = 5
	}
	if core.GlobalQueryLimit == 0 {
		core.GlobalQueryLimit = 200
	}
	if core.HistoryLimit == 0 {
		core.HistoryLimit = 5
	}
	if core.MaxUploadBytes == 0 {
		core.MaxUploadBytes = 10 << 20
	}
	if core.TextKeepChars == 0 {
		core.TextKeepChars = 10000
	}
}

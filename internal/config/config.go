package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"guardian/internal/logging"
)

// StoreConfig selects and configures the vector store implementation.
type StoreConfig struct {
	Type string `yaml:"type"`
	Dir  string `yaml:"dir"`
}

// ChunkerConfig configures how documents are split into chunks. Size and
// Overlap are character counts for the character chunker; the sentence
// fields apply to the sentence chunker only.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	Size              int    `yaml:"size"`
	Overlap           int    `yaml:"overlap"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk,omitempty"`
	OverlapSentences  int    `yaml:"overlap_sentences,omitempty"`
}

// GeminiEmbedderConfig holds configuration for the Gemini embedding API.
type GeminiEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TaskType    string `yaml:"task_type"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// OpenAIEmbedderConfig holds configuration for an OpenAI-compatible
// embeddings endpoint.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	Gemini *GeminiEmbedderConfig `yaml:"gemini,omitempty"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// GeminiLLMConfig holds configuration for the Gemini generation API.
type GeminiLLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// LLMConfig selects and configures the language model implementation.
type LLMConfig struct {
	Type   string           `yaml:"type"`
	Gemini *GeminiLLMConfig `yaml:"gemini,omitempty"`
}

// RetrievalConfig sizes the candidate pool and the returned context.
type RetrievalConfig struct {
	PoolSize     int `yaml:"pool_size"`
	Limit        int `yaml:"limit"`
	AllDocsLimit int `yaml:"all_docs_limit"`
}

// AuditConfig selects the repository auditor implementation.
type AuditConfig struct {
	Auditor string `yaml:"auditor"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Store     StoreConfig     `yaml:"store"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Audit     AuditConfig     `yaml:"audit"`
	Logging   logging.Config  `yaml:"logging"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/guardian/config.yaml.
// If neither exists, it writes defaults to ~/.config/guardian/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "guardian", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Store:   StoreConfig{Type: "vecgo", Dir: "./compliance_db"},
		Chunker: ChunkerConfig{Type: "character", Size: 1000, Overlap: 200},
		Embedder: EmbedderConfig{
			Type: "gemini",
			Gemini: &GeminiEmbedderConfig{
				BaseURL:     "https://generativelanguage.googleapis.com/v1",
				APIKeyEnv:   "GEMINI_API_KEY",
				Model:       "text-embedding-004",
				TaskType:    "RETRIEVAL_DOCUMENT",
				Dimension:   768,
				TimeoutSecs: 30,
				MaxRetries:  3,
			},
		},
		LLM: LLMConfig{
			Type: "gemini",
			Gemini: &GeminiLLMConfig{
				BaseURL:     "https://generativelanguage.googleapis.com/v1",
				APIKeyEnv:   "GEMINI_API_KEY",
				Model:       "gemini-2.5-flash",
				Temperature: 0.3,
				TimeoutSecs: 120,
			},
		},
		Retrieval: RetrievalConfig{PoolSize: 20, Limit: 5, AllDocsLimit: 10},
		Audit:     AuditConfig{Auditor: "static"},
		Logging:   logging.Config{Level: "info"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Store.Type == "" {
		cfg.Store.Type = "vecgo"
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = "./compliance_db"
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 1000
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 200
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "gemini"
	}
	if cfg.Embedder.Type == "gemini" && cfg.Embedder.Gemini == nil {
		cfg.Embedder.Gemini = &GeminiEmbedderConfig{}
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI == nil {
		cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
	}
	if o := cfg.Embedder.OpenAI; o != nil {
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.Dimension == 0 {
			o.Dimension = 1536
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
	}
	if g := cfg.Embedder.Gemini; g != nil {
		if g.BaseURL == "" {
			g.BaseURL = "https://generativelanguage.googleapis.com/v1"
		}
		if g.APIKeyEnv == "" {
			g.APIKeyEnv = "GEMINI_API_KEY"
		}
		if g.Model == "" {
			g.Model = "text-embedding-004"
		}
		if g.TaskType == "" {
			g.TaskType = "RETRIEVAL_DOCUMENT"
		}
		if g.Dimension == 0 {
			g.Dimension = 768
		}
		if g.TimeoutSecs == 0 {
			g.TimeoutSecs = 30
		}
		if g.MaxRetries == 0 {
			g.MaxRetries = 3
		}
	}
	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "gemini"
	}
	if cfg.LLM.Type == "gemini" && cfg.LLM.Gemini == nil {
		cfg.LLM.Gemini = &GeminiLLMConfig{}
	}
	if g := cfg.LLM.Gemini; g != nil {
		if g.BaseURL == "" {
			g.BaseURL = "https://generativelanguage.googleapis.com/v1"
		}
		if g.APIKeyEnv == "" {
			g.APIKeyEnv = "GEMINI_API_KEY"
		}
		if g.Model == "" {
			g.Model = "gemini-2.5-flash"
		}
		if g.Temperature == 0 {
			g.Temperature = 0.3
		}
		if g.TimeoutSecs == 0 {
			g.TimeoutSecs = 120
		}
	}
	if cfg.Retrieval.PoolSize == 0 {
		cfg.Retrieval.PoolSize = 20
	}
	if cfg.Retrieval.Limit == 0 {
		cfg.Retrieval.Limit = 5
	}
	if cfg.Retrieval.AllDocsLimit == 0 {
		cfg.Retrieval.AllDocsLimit = 10
	}
	if cfg.Audit.Auditor == "" {
		cfg.Audit.Auditor = "static"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

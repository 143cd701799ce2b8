package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"dom-search/internal/models"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Fetch    FetchConfig    `yaml:"fetch"`
	EmbedLLM LLMConfig      `yaml:"embedding"`
	Store    StoreConfig    `yaml:"store"`
	Chunking ChunkingConfig `yaml:"chunking"`
	Search   SearchConfig   `yaml:"search"`
	LogLevel string         `yaml:"log_level"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type FetchConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // ollama or openai
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type StoreConfig struct {
	Backend  string         `yaml:"backend"` // memory, chromem or postgres
	Chromem  ChromemConfig  `yaml:"chromem"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type ChromemConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Debug bool   `yaml:"debug"`
}

type ChunkingConfig struct {
	MaxTokens    int `yaml:"max_tokens"`
	OverlapWords int `yaml:"overlap_words"`
}

type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// LoadConfig reads the yaml config file and applies defaults and environment
// overrides. A missing file is not an error, the defaults are enough to run
// with the in-memory store and a local ollama.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		}
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = 10
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	}
	if c.EmbedLLM.Provider == "" {
		c.EmbedLLM.Provider = "ollama"
	}
	if c.EmbedLLM.BaseURL == "" {
		c.EmbedLLM.BaseURL = "http://localhost:11434"
	}
	if c.EmbedLLM.Model == "" {
		c.EmbedLLM.Model = "nomic-embed-text"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.Chromem.Path == "" {
		c.Store.Chromem.Path = "./chromemdb"
	}
	if c.Store.Chromem.Collection == "" {
		c.Store.Chromem.Collection = "html_chunks"
	}
	if c.Chunking.MaxTokens <= 0 {
		c.Chunking.MaxTokens = models.DefaultMaxTokens
	}
	if c.Chunking.OverlapWords <= 0 {
		c.Chunking.OverlapWords = models.DefaultOverlapWords
	}
	if c.Search.TopK <= 0 {
		c.Search.TopK = models.DefaultTopK
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		c.EmbedLLM.BaseURL = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		c.EmbedLLM.Model = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Store.Postgres.DSN = v
	}
}

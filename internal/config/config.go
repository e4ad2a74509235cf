package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding config keys.
// Nested keys are separated by a double underscore:
// SECAI_CHAT__OPENAI__MODEL -> chat.openai.model.
const EnvPrefix = "SECAI_"

// EdgarConfig configures access to the SEC EDGAR endpoints.
type EdgarConfig struct {
	UserAgent         string   `yaml:"user_agent" koanf:"user_agent"`
	SearchURL         string   `yaml:"search_url" koanf:"search_url"`
	SubmissionsURL    string   `yaml:"submissions_url" koanf:"submissions_url"`
	ArchivesURL       string   `yaml:"archives_url" koanf:"archives_url"`
	Forms             []string `yaml:"forms" koanf:"forms"`
	RequestsPerSecond float64  `yaml:"requests_per_second" koanf:"requests_per_second"`
	TimeoutSecs       int      `yaml:"timeout_secs" koanf:"timeout_secs"`
}

// RedisConfig contains connection details for the Redis cache.
type RedisConfig struct {
	Addr     string `yaml:"addr" koanf:"addr"`
	Password string `yaml:"password" koanf:"password"`
	DB       int    `yaml:"db" koanf:"db"`
	Prefix   string `yaml:"prefix" koanf:"prefix"`
}

// CacheConfig selects the response cache and its TTLs.
type CacheConfig struct {
	Type               string       `yaml:"type" koanf:"type"`
	Redis              *RedisConfig `yaml:"redis,omitempty" koanf:"redis"`
	SearchTTLSecs      int          `yaml:"search_ttl_secs" koanf:"search_ttl_secs"`
	SubmissionsTTLSecs int          `yaml:"submissions_ttl_secs" koanf:"submissions_ttl_secs"`
	DocumentTTLSecs    int          `yaml:"document_ttl_secs" koanf:"document_ttl_secs"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type" koanf:"type"`
	ChunkSize         int    `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap      int    `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk" koanf:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences" koanf:"overlap_sentences"`
}

// OpenAIConfig holds configuration shared by the OpenAI embedder and chat model.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url" koanf:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env" koanf:"api_key_env"`
	Model       string `yaml:"model" koanf:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" koanf:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size,omitempty" koanf:"batch_size"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string        `yaml:"type" koanf:"type"`
	OpenAI *OpenAIConfig `yaml:"openai,omitempty" koanf:"openai"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url" koanf:"url"`
	APIKey      string `yaml:"api_key" koanf:"api_key"`
	Collection  string `yaml:"collection" koanf:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs" koanf:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type" koanf:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty" koanf:"qdrant"`
}

// ChatConfig selects the chat model answering questions.
type ChatConfig struct {
	Type        string        `yaml:"type" koanf:"type"`
	Temperature float64       `yaml:"temperature" koanf:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" koanf:"max_tokens"`
	OpenAI      *OpenAIConfig `yaml:"openai,omitempty" koanf:"openai"`
}

// RetrievalConfig controls how many chunks are handed to the chat model.
type RetrievalConfig struct {
	TopK int `yaml:"top_k" koanf:"top_k"`
}

// SessionConfig controls the interactive selection flow. Idle API sessions
// are evicted after IdleTimeoutSecs, checked every SweepIntervalSecs.
type SessionConfig struct {
	PageSize          int `yaml:"page_size" koanf:"page_size"`
	MinQueryLength    int `yaml:"min_query_length" koanf:"min_query_length"`
	IdleTimeoutSecs   int `yaml:"idle_timeout_secs" koanf:"idle_timeout_secs"`
	SweepIntervalSecs int `yaml:"sweep_interval_secs" koanf:"sweep_interval_secs"`
}

// IngestConfig controls document fetching during a load.
type IngestConfig struct {
	Concurrency int `yaml:"concurrency" koanf:"concurrency"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type" koanf:"type"`
	MaxSentences int    `yaml:"max_sentences" koanf:"max_sentences"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr" koanf:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level" koanf:"level"`
	File  string `yaml:"file" koanf:"file"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Edgar       EdgarConfig       `yaml:"edgar" koanf:"edgar"`
	Cache       CacheConfig       `yaml:"cache" koanf:"cache"`
	Chunker     ChunkerConfig     `yaml:"chunker" koanf:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder" koanf:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store" koanf:"vector_store"`
	Chat        ChatConfig        `yaml:"chat" koanf:"chat"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" koanf:"retrieval"`
	Session     SessionConfig     `yaml:"session" koanf:"session"`
	Ingest      IngestConfig      `yaml:"ingest" koanf:"ingest"`
	Summarizer  SummarizerConfig  `yaml:"summarizer" koanf:"summarizer"`
	Server      ServerConfig      `yaml:"server" koanf:"server"`
	Log         LogConfig         `yaml:"log" koanf:"log"`
}

// Load reads a config from path and overlays SECAI_* environment variables.
// A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	k := koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}
	cfg := defaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/secai/config.yaml.
// If neither exists, it writes defaults to ~/.config/secai/config.yaml and loads them.
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
	if _, err := os.Stat(userPath); err != nil {
		if err := Save(userPath, defaultConfig()); err != nil {
			return nil, "", err
		}
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the configuration names known components.
func (c *AppConfig) Validate() error {
	checks := []struct {
		field, value string
		allowed      []string
	}{
		{"cache.type", c.Cache.Type, []string{"memory", "redis", "none"}},
		{"chunker.type", c.Chunker.Type, []string{"recursive", "sentence"}},
		{"embedder.type", c.Embedder.Type, []string{"openai", "tfidf"}},
		{"vector_store.type", c.VectorStore.Type, []string{"chromem", "memory", "qdrant"}},
		{"chat.type", c.Chat.Type, []string{"openai", "extractive"}},
		{"summarizer.type", c.Summarizer.Type, []string{"frequency", "none"}},
	}
	for _, ch := range checks {
		if !contains(ch.allowed, ch.value) {
			return fmt.Errorf("invalid %s %q: must be one of %s", ch.field, ch.value, strings.Join(ch.allowed, ", "))
		}
	}
	if c.Chunker.ChunkSize <= 0 {
		return fmt.Errorf("chunker.chunk_size must be positive")
	}
	if c.Chunker.ChunkOverlap < 0 || c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		return fmt.Errorf("chunker.chunk_overlap must be in [0, chunk_size)")
	}
	if c.Session.PageSize <= 0 {
		return fmt.Errorf("session.page_size must be positive")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive")
	}
	if c.Edgar.UserAgent == "" {
		return fmt.Errorf("edgar.user_agent is required by the SEC fair access policy")
	}
	if c.Cache.Type == "redis" && (c.Cache.Redis == nil || c.Cache.Redis.Addr == "") {
		return fmt.Errorf("cache.redis.addr is required for the redis cache")
	}
	if c.VectorStore.Type == "qdrant" && (c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "") {
		return fmt.Errorf("vector_store.qdrant.url is required for the qdrant store")
	}
	return nil
}

// APIKey returns the OpenAI key named by the embedder or chat config.
func (c *AppConfig) APIKey() string {
	for _, oc := range []*OpenAIConfig{c.Chat.OpenAI, c.Embedder.OpenAI} {
		if oc == nil || oc.APIKeyEnv == "" {
			continue
		}
		if v := os.Getenv(oc.APIKeyEnv); v != "" {
			return v
		}
	}
	return ""
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "secai", "config.yaml"), nil
}

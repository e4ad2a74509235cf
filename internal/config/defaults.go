package config

// DefaultUserAgent identifies the tool to SEC endpoints when none is configured.
const DefaultUserAgent = "secai admin@example.com"

func defaultConfig() *AppConfig {
	return &AppConfig{
		Edgar: EdgarConfig{
			UserAgent:         DefaultUserAgent,
			SearchURL:         "https://efts.sec.gov/LATEST/search-index",
			SubmissionsURL:    "https://data.sec.gov/submissions",
			ArchivesURL:       "https://www.sec.gov/Archives/edgar/data",
			Forms:             []string{"10-Q", "10-K"},
			RequestsPerSecond: 10,
			TimeoutSecs:       30,
		},
		Cache: CacheConfig{
			Type:               "memory",
			SearchTTLSecs:      600,
			SubmissionsTTLSecs: 3600,
			DocumentTTLSecs:    86400,
		},
		Chunker: ChunkerConfig{
			Type:              "recursive",
			ChunkSize:         2000,
			ChunkOverlap:      0,
			SentencesPerChunk: 5,
			OverlapSentences:  1,
		},
		Embedder: EmbedderConfig{
			Type: "openai",
			OpenAI: &OpenAIConfig{
				BaseURL:     "https://api.openai.com/v1",
				APIKeyEnv:   "OPENAI_API_KEY",
				Model:       "text-embedding-3-small",
				TimeoutSecs: 30,
				BatchSize:   100,
			},
		},
		VectorStore: VectorStoreConfig{Type: "chromem"},
		Chat: ChatConfig{
			Type:        "openai",
			Temperature: 0,
			MaxTokens:   1024,
			OpenAI: &OpenAIConfig{
				BaseURL:     "https://api.openai.com/v1",
				APIKeyEnv:   "OPENAI_API_KEY",
				Model:       "gpt-4o-mini",
				TimeoutSecs: 60,
			},
		},
		Retrieval:  RetrievalConfig{TopK: 4},
		Session:    SessionConfig{PageSize: 5, MinQueryLength: 3, IdleTimeoutSecs: 3600, SweepIntervalSecs: 60},
		Ingest:     IngestConfig{Concurrency: 4},
		Summarizer: SummarizerConfig{Type: "frequency", MaxSentences: 3},
		Server:     ServerConfig{Addr: ":8080", AllowedOrigins: []string{"*"}},
		Log:        LogConfig{Level: "info"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Edgar.UserAgent == "" {
		cfg.Edgar.UserAgent = DefaultUserAgent
	}
	if len(cfg.Edgar.Forms) == 0 {
		cfg.Edgar.Forms = []string{"10-Q", "10-K"}
	}
	if cfg.Edgar.RequestsPerSecond <= 0 {
		cfg.Edgar.RequestsPerSecond = 10
	}
	if cfg.Edgar.TimeoutSecs == 0 {
		cfg.Edgar.TimeoutSecs = 30
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 2000
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Session.PageSize == 0 {
		cfg.Session.PageSize = 5
	}
	if cfg.Session.MinQueryLength == 0 {
		cfg.Session.MinQueryLength = 3
	}
	if cfg.Session.IdleTimeoutSecs <= 0 {
		cfg.Session.IdleTimeoutSecs = 3600
	}
	if cfg.Session.SweepIntervalSecs <= 0 {
		cfg.Session.SweepIntervalSecs = 60
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Ingest.Concurrency <= 0 {
		cfg.Ingest.Concurrency = 1
	}
	for _, oc := range []*OpenAIConfig{cfg.Embedder.OpenAI, cfg.Chat.OpenAI} {
		if oc == nil {
			continue
		}
		if oc.BaseURL == "" {
			oc.BaseURL = "https://api.openai.com/v1"
		}
		if oc.APIKeyEnv == "" {
			oc.APIKeyEnv = "OPENAI_API_KEY"
		}
		if oc.TimeoutSecs == 0 {
			oc.TimeoutSecs = 30
		}
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{BaseURL: "https://api.openai.com/v1", APIKeyEnv: "OPENAI_API_KEY", TimeoutSecs: 30}
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 100
		}
	}
	if cfg.Chat.Type == "openai" {
		if cfg.Chat.OpenAI == nil {
			cfg.Chat.OpenAI = &OpenAIConfig{BaseURL: "https://api.openai.com/v1", APIKeyEnv: "OPENAI_API_KEY", TimeoutSecs: 60}
		}
		if cfg.Chat.OpenAI.Model == "" {
			cfg.Chat.OpenAI.Model = "gpt-4o-mini"
		}
	}
	if cfg.Cache.Redis != nil && cfg.Cache.Redis.Prefix == "" {
		cfg.Cache.Redis.Prefix = "secai:"
	}
	if cfg.VectorStore.Qdrant != nil && cfg.VectorStore.Qdrant.Collection == "" {
		cfg.VectorStore.Qdrant.Collection = "filings"
	}
}

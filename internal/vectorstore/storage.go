package vectorstore

import (
	"fmt"
	"time"

	"secai/internal/config"
	"secai/internal/domain"
	"secai/internal/vectorstore/chromem"
	"secai/internal/vectorstore/memory"
	"secai/internal/vectorstore/qdrant"
)

// New builds an empty vector store of the configured type. Every load builds
// its own store so a new selection never mixes with a previous index.
func New(cfg config.VectorStoreConfig) (domain.VectorStore, error) {
	switch cfg.Type {
	case "chromem", "":
		return chromem.NewStorage(), nil
	case "memory":
		return memory.NewStorage(), nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}

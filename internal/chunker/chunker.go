package chunker

import (
	"fmt"

	"secai/internal/config"
	"secai/internal/domain"
)

// New returns the chunker selected by cfg.Type.
func New(cfg config.ChunkerConfig) (domain.Chunker, error) {
	switch cfg.Type {
	case "recursive", "":
		return NewRecursiveChunker(cfg.ChunkSize, cfg.ChunkOverlap), nil
	case "sentence":
		return NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentences), nil
	default:
		return nil, fmt.Errorf("unsupported chunker type: %s", cfg.Type)
	}
}

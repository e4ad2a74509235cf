package chromem

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"secai/internal/domain"
	"secai/internal/embedding"
)

const collectionName = "filings"

// Storage keeps chunk embeddings in an in-memory chromem-go collection.
// Vectors are always supplied by the caller, so the collection never calls
// its embedding function.
type Storage struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	dimension  int
}

func NewStorage() *Storage {
	return &Storage{db: chromem.NewDB()}
}

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col, err := s.recreate()
	if err != nil {
		return err
	}
	s.collection = col
	s.dimension = dimension
	return nil
}

func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	if len(chunks) == 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return errors.New("chromem store not initialized")
	}
	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		if len(vectors[i]) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
		docs[i] = chromem.Document{
			ID:        ch.ChunkID,
			Content:   ch.Text,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"document_id": ch.DocumentID,
				"source":      ch.Source,
				"index":       strconv.Itoa(ch.Index),
			},
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("chromem add: %w", err)
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return nil, nil
	}
	if topK <= 0 {
		topK = 4
	}
	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}
	if embedding.IsZero(vector) {
		return nil, nil
	}
	results, err := s.collection.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	out := make([]domain.SearchResult, len(results))
	for i, r := range results {
		idx, _ := strconv.Atoi(r.Metadata["index"])
		out[i] = domain.SearchResult{
			Chunk: domain.Chunk{
				DocumentID: r.Metadata["document_id"],
				ChunkID:    r.ID,
				Source:     r.Metadata["source"],
				Text:       r.Content,
				Index:      idx,
			},
			Score: float64(r.Similarity),
		}
	}
	return out, nil
}

func (s *Storage) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, err := s.recreate()
	if err != nil {
		return err
	}
	s.collection = col
	return nil
}

// Count reports the number of stored chunks.
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return 0
	}
	return s.collection.Count()
}

func (s *Storage) recreate() (*chromem.Collection, error) {
	if err := s.db.DeleteCollection(collectionName); err != nil {
		return nil, fmt.Errorf("delete collection: %w", err)
	}
	col, err := s.db.CreateCollection(collectionName, nil, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return col, nil
}

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errors.New("chromem store expects precomputed embeddings")
}

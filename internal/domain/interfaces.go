package domain

import "context"

// Company is an autocomplete suggestion returned by the EDGAR full-text search index.
type Company struct {
	CIK    string `json:"cik"`
	Name   string `json:"name"`
	Ticker string `json:"ticker,omitempty"`
}

// Filing is a flat record describing one quarterly or annual report document.
type Filing struct {
	Date            string `json:"date"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	URL             string `json:"url"`
	AccessionNumber string `json:"accession_number"`
}

// Document represents a single fetched filing document.
type Document struct {
	ID      string
	URL     string
	Title   string
	Content string
}

// Chunk is a part of a document used for indexing.
type Chunk struct {
	DocumentID string `json:"document_id"`
	ChunkID    string `json:"chunk_id"`
	Source     string `json:"source"`
	Text       string `json:"text"`
	Index      int    `json:"index"`
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// FilingSource looks up companies and their filings.
type FilingSource interface {
	Autocomplete(ctx context.Context, query string) ([]Company, error)
	Filings(ctx context.Context, cik string) ([]Filing, error)
}

// DocumentLoader fetches a document by URL and extracts its text.
type DocumentLoader interface {
	Load(ctx context.Context, url string) (Document, error)
}

// Embedder converts free text into numeric vectors.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// VectorStore persists vectors and supports similarity search.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	Clear(ctx context.Context) error
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

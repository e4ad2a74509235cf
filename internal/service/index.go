package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"secai/internal/domain"
	"secai/internal/embedding"
	"secai/internal/llm"
	"secai/internal/textutil"
)

// Index is the searchable result of one Load. It is safe for concurrent use.
type Index struct {
	embedder  domain.Embedder
	store     domain.VectorStore
	qa        *llm.StuffQA
	documents []domain.Document
	chunks    []domain.Chunk
	summary   string
	topK      int
}

// Answer is the chat model's reply together with the chunks it was given.
type Answer struct {
	Text    string                `json:"answer"`
	Sources []domain.SearchResult `json:"sources"`
}

// Summary is an extractive digest of the loaded documents.
func (ix *Index) Summary() string { return ix.summary }

// ChunkCount is the number of indexed chunks.
func (ix *Index) ChunkCount() int { return len(ix.chunks) }

// URLs lists the loaded documents in load order.
func (ix *Index) URLs() []string {
	out := make([]string, len(ix.documents))
	for i, d := range ix.documents {
		out[i] = d.URL
	}
	return out
}

// Ask retrieves the most relevant chunks and answers question from them.
func (ix *Index) Ask(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}
	results, err := ix.Query(ctx, question, ix.topK)
	if err != nil {
		return Answer{}, err
	}
	text, err := ix.qa.Run(ctx, results, question)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: text, Sources: results}, nil
}

// Query returns up to topK chunks ranked by vector similarity. Queries the
// embedder cannot represent fall back to lexical overlap.
func (ix *Index) Query(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = ix.topK
	}
	vecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || embedding.IsZero(vecs[0]) {
		return ix.lexicalSearch(query, topK), nil
	}
	res, err := ix.store.Search(ctx, vecs[0], topK)
	if err != nil {
		return nil, err
	}
	for _, r := range res {
		if r.Score > 1e-9 {
			return res, nil
		}
	}
	return ix.lexicalSearch(query, topK), nil
}

func (ix *Index) lexicalSearch(query string, topK int) []domain.SearchResult {
	qset := textutil.TokenSet(query)
	scores := make([]domain.SearchResult, len(ix.chunks))
	for i, ch := range ix.chunks {
		scores[i] = domain.SearchResult{Chunk: ch, Score: ochiai(qset, ch.Text)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores[:min(topK, len(scores))]
}

// ochiai is |A∩B| / sqrt(|A||B|) over distinct tokens.
func ochiai(qset map[string]struct{}, text string) float64 {
	tset := textutil.TokenSet(text)
	if len(qset) == 0 || len(tset) == 0 {
		return 0
	}
	inter := 0
	for t := range tset {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(tset)))
}

// Close drops the indexed vectors.
func (ix *Index) Close(ctx context.Context) error {
	return ix.store.Clear(ctx)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secai/internal/chunker"
	"secai/internal/domain"
	"secai/internal/embedding/tfidf"
	"secai/internal/llm"
	"secai/internal/summarizer"
	"secai/internal/vectorstore/memory"
)

const (
	urlSales = "https://www.sec.gov/Archives/edgar/data/320193/000032019324000123/aapl-20240928.htm"
	urlRisk  = "https://www.sec.gov/Archives/edgar/data/320193/000032019324000081/aapl-20240629.htm"
)

type fakeLoader map[string]string

func (f fakeLoader) Load(_ context.Context, url string) (domain.Document, error) {
	text, ok := f[url]
	if !ok {
		return domain.Document{}, fmt.Errorf("status 404")
	}
	return domain.Document{ID: url[len(url)-8:], URL: url, Content: text}, nil
}

func newTestService(t *testing.T) *RAGService {
	t.Helper()
	loader := fakeLoader{
		urlSales: "Apple reported net sales of 391 billion dollars. iPhone revenue grew strongly.",
		urlRisk:  "Risk factors include supply chain disruption. Competition is intense.",
	}
	components := Components{
		NewEmbedder: func(string) (domain.Embedder, error) { return tfidf.NewEmbedder(), nil },
		NewStore:    func() (domain.VectorStore, error) { return memory.NewStorage(), nil },
		NewChat:     func(string) (llm.Provider, error) { return llm.NewExtractiveProvider(3), nil },
	}
	return NewRAGService(loader, chunker.NewRecursiveChunker(200, 0), summarizer.NewFrequencySummarizer(), components, Options{TopK: 1, Concurrency: 2, SummarySentences: 2}, nil)
}

func TestLoadAndAsk(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var fractions []float64
	ix, err := svc.Load(ctx, "", []string{urlSales, urlRisk}, func(p Progress) {
		fractions = append(fractions, p.Fraction)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ix.ChunkCount())
	assert.Equal(t, []string{urlSales, urlRisk}, ix.URLs())
	assert.NotEmpty(t, ix.Summary())

	require.NotEmpty(t, fractions)
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
	assert.Contains(t, fractions, 0.8)
	assert.InDelta(t, 0.6, fractions[len(fractions)-3], 1e-9)
	assert.IsNonDecreasing(t, fractions)

	answer, err := ix.Ask(ctx, "What were iPhone revenue trends?")
	require.NoError(t, err)
	assert.Equal(t, "iPhone revenue grew strongly.", answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, urlSales, answer.Sources[0].Chunk.Source)

	require.NoError(t, ix.Close(ctx))
}

func TestAskRejectsBlankQuestion(t *testing.T) {
	svc := newTestService(t)
	ix, err := svc.Load(context.Background(), "", []string{urlSales}, nil)
	require.NoError(t, err)

	_, err = ix.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestQueryFallsBackToLexicalOverlap(t *testing.T) {
	svc := newTestService(t)
	ix, err := svc.Load(context.Background(), "", []string{urlSales, urlRisk}, nil)
	require.NoError(t, err)

	// stopwords only, so the TF-IDF vector is zero
	res, err := ix.Query(context.Background(), "is", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, urlRisk, res[0].Chunk.Source)
	assert.Greater(t, res[0].Score, 0.0)
}

func TestLoadWithoutDocuments(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Load(context.Background(), "", nil, nil)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestLoadPropagatesFetchErrors(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Load(context.Background(), "", []string{urlSales, "https://example.com/missing.htm"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.htm")
}

func TestLoadPropagatesComponentErrors(t *testing.T) {
	svc := newTestService(t)
	svc.components.NewChat = func(string) (llm.Provider, error) { return nil, errors.New("missing OpenAI API key") }
	_, err := svc.Load(context.Background(), "", []string{urlSales}, nil)
	assert.EqualError(t, err, "missing OpenAI API key")
}

func TestOchiai(t *testing.T) {
	q := map[string]struct{}{"net": {}, "sales": {}}
	assert.InDelta(t, 1.0, ochiai(q, "Net sales"), 1e-9)
	assert.InDelta(t, 0.5, ochiai(q, "net income"), 1e-9)
	assert.Zero(t, ochiai(q, ""))
}

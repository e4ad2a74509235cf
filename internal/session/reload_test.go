package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secai/internal/chunker"
	"secai/internal/domain"
	"secai/internal/embedding/tfidf"
	"secai/internal/llm"
	"secai/internal/service"
	"secai/internal/summarizer"
	"secai/internal/vectorstore/chromem"
)

const (
	appleURL     = "https://www.sec.gov/Archives/edgar/data/320193/000032019324000123/aapl-20240928.htm"
	microsoftURL = "https://www.sec.gov/Archives/edgar/data/789019/000095017024087843/msft-20240630.htm"
)

type textLoader map[string]string

func (f textLoader) Load(_ context.Context, url string) (domain.Document, error) {
	text, ok := f[url]
	if !ok {
		return domain.Document{}, fmt.Errorf("no document at %s", url)
	}
	return domain.Document{ID: url[len(url)-17:], URL: url, Content: text}, nil
}

func TestReloadKeepsNewIndexSearchable(t *testing.T) {
	var mu sync.Mutex
	var stores []*chromem.Storage
	components := service.Components{
		NewEmbedder: func(string) (domain.Embedder, error) { return tfidf.NewEmbedder(), nil },
		NewStore: func() (domain.VectorStore, error) {
			st := chromem.NewStorage()
			mu.Lock()
			stores = append(stores, st)
			mu.Unlock()
			return st, nil
		},
		NewChat: func(string) (llm.Provider, error) { return llm.NewExtractiveProvider(1), nil },
	}
	docs := textLoader{
		appleURL:     "Apple net sales were 391 billion dollars. iPhone demand stayed strong.",
		microsoftURL: "Microsoft revenue was 245 billion dollars. Azure growth continued.",
	}
	svc := service.NewRAGService(docs, chunker.NewRecursiveChunker(200, 0), summarizer.NewFrequencySummarizer(),
		components, service.Options{TopK: 1, Concurrency: 1, SummarySentences: 1}, nil)
	loader := FromService(svc)
	ctx := context.Background()
	s := New(5)

	first, err := loader.Load(ctx, "", []string{appleURL}, nil)
	require.NoError(t, err)
	s.Attach(first)
	turn, err := s.Ask(ctx, "What were Apple net sales?")
	require.NoError(t, err)
	require.NotEmpty(t, turn.Sources)
	assert.Equal(t, appleURL, turn.Sources[0].Chunk.Source)

	second, err := loader.Load(ctx, "", []string{microsoftURL}, nil)
	require.NoError(t, err)
	s.Attach(second)

	require.Len(t, stores, 2)
	assert.Eventually(t, func() bool { return stores[0].Count() == 0 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, stores[1].Count())

	turn, err = s.Ask(ctx, "What was Microsoft revenue?")
	require.NoError(t, err)
	require.Len(t, turn.Sources, 1)
	assert.Equal(t, microsoftURL, turn.Sources[0].Chunk.Source)
	assert.Contains(t, turn.Answer, "Microsoft revenue")
	assert.Len(t, s.Transcript(), 2)
}

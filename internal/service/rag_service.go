package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"secai/internal/config"
	"secai/internal/domain"
	"secai/internal/embedding"
	"secai/internal/llm"
	"secai/internal/vectorstore"
)

var (
	// ErrNoDocuments is returned by Load when no document URL was given.
	ErrNoDocuments = errors.New("no documents selected")
	// ErrEmptyQuestion is returned by Ask for blank questions.
	ErrEmptyQuestion = errors.New("empty question")
)

// Progress stages reported during Load.
const (
	StageFetch     = "fetch"
	StageIndex     = "index"
	StageSummarize = "summarize"
	StageDone      = "done"
)

// Progress describes how far a Load has come. Fraction is in [0, 1].
type Progress struct {
	Stage    string
	Fraction float64
	Message  string
}

// ProgressFunc receives progress updates. Calls are serialized.
type ProgressFunc func(Progress)

// Components builds the per-load parts of the pipeline. Embedders and chat
// models depend on the API key the user supplied, and every load gets a
// fresh vector store.
type Components struct {
	NewEmbedder func(apiKey string) (domain.Embedder, error)
	NewStore    func() (domain.VectorStore, error)
	NewChat     func(apiKey string) (llm.Provider, error)
}

// Options tune retrieval and ingestion.
type Options struct {
	TopK             int
	Concurrency      int
	SummarySentences int
	Temperature      float64
	MaxTokens        int
}

// RAGService loads filings into a searchable index.
type RAGService struct {
	loader     domain.DocumentLoader
	chunker    domain.Chunker
	summarizer domain.Summarizer
	components Components
	opts       Options
	logger     *slog.Logger
}

func NewRAGService(loader domain.DocumentLoader, chunker domain.Chunker, summarizer domain.Summarizer, components Components, opts Options, logger *slog.Logger) *RAGService {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RAGService{
		loader:     loader,
		chunker:    chunker,
		summarizer: summarizer,
		components: components,
		opts:       opts,
		logger:     logger.With("component", "service"),
	}
}

// ComponentsFromConfig wires the configured embedder, vector store and chat model.
func ComponentsFromConfig(cfg *config.AppConfig) Components {
	return Components{
		NewEmbedder: func(apiKey string) (domain.Embedder, error) { return embedding.New(cfg.Embedder, apiKey) },
		NewStore:    func() (domain.VectorStore, error) { return vectorstore.New(cfg.VectorStore) },
		NewChat:     func(apiKey string) (llm.Provider, error) { return llm.NewProvider(cfg.Chat, apiKey) },
	}
}

// OptionsFromConfig maps the retrieval, ingest, summarizer and chat sections.
func OptionsFromConfig(cfg *config.AppConfig) Options {
	return Options{
		TopK:             cfg.Retrieval.TopK,
		Concurrency:      cfg.Ingest.Concurrency,
		SummarySentences: cfg.Summarizer.MaxSentences,
		Temperature:      cfg.Chat.Temperature,
		MaxTokens:        cfg.Chat.MaxTokens,
	}
}

// Load fetches every URL, chunks and embeds the text and returns a new Index.
// Fetching reports progress up to 0.6, the built index 0.8 and completion 1.0.
func (s *RAGService) Load(ctx context.Context, apiKey string, urls []string, progress ProgressFunc) (*Index, error) {
	if len(urls) == 0 {
		return nil, ErrNoDocuments
	}
	report := serialized(progress)

	embedder, err := s.components.NewEmbedder(apiKey)
	if err != nil {
		return nil, err
	}
	chat, err := s.components.NewChat(apiKey)
	if err != nil {
		return nil, err
	}

	docs, err := s.fetch(ctx, urls, report)
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	var texts []string
	var all strings.Builder
	for _, d := range docs {
		cs, err := s.chunker.Chunk(d)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", d.URL, err)
		}
		for _, c := range cs {
			chunks = append(chunks, c)
			texts = append(texts, c.Text)
		}
		all.WriteString(d.Content)
		all.WriteString("\n")
	}
	if len(chunks) == 0 {
		return nil, errors.New("selected documents contain no text")
	}

	if err := embedder.Prepare(texts); err != nil {
		return nil, fmt.Errorf("prepare embedder: %w", err)
	}
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	store, err := s.components.NewStore()
	if err != nil {
		return nil, err
	}
	dim := embedder.Dimension()
	if dim == 0 && len(vectors) > 0 {
		dim = len(vectors[0])
	}
	if err := store.Init(ctx, dim); err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}
	if err := store.Upsert(ctx, chunks, vectors); err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}
	report(Progress{Stage: StageIndex, Fraction: 0.8, Message: fmt.Sprintf("Indexed %d chunks", len(chunks))})

	var summary string
	if s.summarizer != nil {
		summary, err = s.summarizer.Summarize(all.String(), s.opts.SummarySentences)
		if err != nil {
			return nil, fmt.Errorf("summarize: %w", err)
		}
	}
	report(Progress{Stage: StageDone, Fraction: 1, Message: "Done"})

	s.logger.Info("documents loaded", "documents", len(docs), "chunks", len(chunks), "embedder", embedder.Name(), "chat", chat.Name())
	return &Index{
		embedder:  embedder,
		store:     store,
		qa:        llm.NewStuffQA(chat, s.opts.Temperature, s.opts.MaxTokens),
		documents: docs,
		chunks:    chunks,
		summary:   summary,
		topK:      s.opts.TopK,
	}, nil
}

func (s *RAGService) fetch(ctx context.Context, urls []string, report ProgressFunc) ([]domain.Document, error) {
	docs := make([]domain.Document, len(urls))
	var done atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			doc, err := s.loader.Load(gctx, u)
			if err != nil {
				return fmt.Errorf("load %s: %w", u, err)
			}
			docs[i] = doc
			n := done.Add(1)
			report(Progress{
				Stage:    StageFetch,
				Fraction: 0.6 * float64(n) / float64(len(urls)),
				Message:  fmt.Sprintf("Loaded %d of %d documents", n, len(urls)),
			})
			s.logger.Debug("document loaded", "url", u, "chars", len(doc.Content))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func serialized(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return func(Progress) {}
	}
	var mu sync.Mutex
	var last float64
	return func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		// fetch updates may arrive out of order
		if p.Fraction < last {
			return
		}
		last = p.Fraction
		fn(p)
	}
}

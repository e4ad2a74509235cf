package session

import (
	"context"

	"secai/internal/service"
)

// Loader builds an index from the selected document URLs.
type Loader interface {
	Load(ctx context.Context, apiKey string, urls []string, progress service.ProgressFunc) (Index, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, apiKey string, urls []string, progress service.ProgressFunc) (Index, error)

func (f LoaderFunc) Load(ctx context.Context, apiKey string, urls []string, progress service.ProgressFunc) (Index, error) {
	return f(ctx, apiKey, urls, progress)
}

// FromService adapts a RAGService to Loader.
func FromService(svc *service.RAGService) Loader {
	return LoaderFunc(func(ctx context.Context, apiKey string, urls []string, progress service.ProgressFunc) (Index, error) {
		ix, err := svc.Load(ctx, apiKey, urls, progress)
		if err != nil {
			return nil, err
		}
		return ix, nil
	})
}

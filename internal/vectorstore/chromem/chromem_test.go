package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secai/internal/domain"
)

func seed(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 3))
	chunks := []domain.Chunk{
		{DocumentID: "d1", ChunkID: "d1:0", Source: "https://sec.gov/a.htm", Text: "net sales", Index: 0},
		{DocumentID: "d1", ChunkID: "d1:1", Source: "https://sec.gov/a.htm", Text: "risk factors", Index: 1},
		{DocumentID: "d2", ChunkID: "d2:0", Source: "https://sec.gov/b.htm", Text: "cash flows", Index: 0},
	}
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0.6, 0.8, 0}}
	require.NoError(t, s.Upsert(ctx, chunks, vectors))
	return s
}

func TestSearchReturnsNearestChunks(t *testing.T) {
	s := seed(t)
	res, err := s.Search(context.Background(), []float32{0, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, "d1:1", res[0].Chunk.ChunkID)
	assert.Equal(t, "risk factors", res[0].Chunk.Text)
	assert.Equal(t, 1, res[0].Chunk.Index)
	assert.Equal(t, "https://sec.gov/a.htm", res[0].Chunk.Source)
	assert.InDelta(t, 1.0, res[0].Score, 1e-5)
	assert.Equal(t, "d2:0", res[1].Chunk.ChunkID)
}

func TestSearchClampsTopKToCollectionSize(t *testing.T) {
	s := seed(t)
	res, err := s.Search(context.Background(), []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, res, 3)
}

func TestInitAndClearEmptyTheCollection(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	require.NoError(t, s.Clear(ctx))
	assert.Zero(t, s.Count())

	s = seed(t)
	require.NoError(t, s.Init(ctx, 3))
	res, err := s.Search(ctx, []float32{1, 0, 0}, 4)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestUpsertRejectsWrongDimension(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(context.Background(), 2))
	err := s.Upsert(context.Background(), []domain.Chunk{{ChunkID: "x"}}, [][]float32{{1, 0, 0}})
	assert.Error(t, err)
}

package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secai/internal/config"
	"secai/internal/domain"
)

func TestRecursiveSplitOnWords(t *testing.T) {
	c := NewRecursiveChunker(10, 0)
	assert.Equal(t, []string{"aaaa bbbb", "cccc dddd"}, c.Split("aaaa bbbb cccc dddd"))
}

func TestRecursiveSplitWithOverlap(t *testing.T) {
	c := NewRecursiveChunker(10, 5)
	assert.Equal(t, []string{"aaaa bbbb", "bbbb cccc", "cccc dddd"}, c.Split("aaaa bbbb cccc dddd"))
}

func TestRecursiveSplitFallsBackToCharacters(t *testing.T) {
	c := NewRecursiveChunker(5, 0)
	assert.Equal(t, []string{"abcde", "fghij", "kl"}, c.Split("abcdefghijkl"))
}

func TestRecursiveKeepsSmallTextWhole(t *testing.T) {
	c := NewRecursiveChunker(2000, 0)
	text := "Item 7. Management's Discussion.\n\nNet sales increased 2%."
	assert.Equal(t, []string{text}, c.Split(text))
}

func TestRecursivePrefersParagraphs(t *testing.T) {
	para := strings.Repeat("x", 30)
	text := para + "\n\n" + para + "\n\n" + para
	c := NewRecursiveChunker(70, 0)
	got := c.Split(text)
	require.Len(t, got, 2)
	assert.Equal(t, para+"\n\n"+para, got[0])
	assert.Equal(t, para, got[1])
	for _, chunk := range got {
		assert.LessOrEqual(t, len(chunk), 70)
	}
}

func TestRecursiveChunkAssignsIDs(t *testing.T) {
	doc := domain.Document{ID: "doc1", URL: "https://example.com/a.htm", Content: "aaaa bbbb cccc dddd"}
	chunks, err := NewRecursiveChunker(10, 0).Chunk(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "doc1:0", chunks[0].ChunkID)
	assert.Equal(t, "doc1:1", chunks[1].ChunkID)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, "https://example.com/a.htm", chunks[1].Source)

	empty, err := NewRecursiveChunker(10, 0).Chunk(domain.Document{ID: "e", Content: " \n "})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSentenceChunkerOverlap(t *testing.T) {
	doc := domain.Document{ID: "d", Content: "One. Two. Three. Four. Five. Six. Seven."}
	chunks, err := NewSentenceChunker(3, 1).Chunk(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "One. Two. Three.", chunks[0].Text)
	assert.Equal(t, "Three. Four. Five.", chunks[1].Text)
	assert.Equal(t, "Five. Six. Seven.", chunks[2].Text)
}

func TestSentenceChunkerClampsOverlap(t *testing.T) {
	doc := domain.Document{ID: "d", Content: "One. Two. Three."}
	chunks, err := NewSentenceChunker(2, 5).Chunk(doc)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestNewSelectsChunker(t *testing.T) {
	c, err := New(config.ChunkerConfig{Type: "recursive", ChunkSize: 10})
	require.NoError(t, err)
	assert.IsType(t, &RecursiveChunker{}, c)

	c, err = New(config.ChunkerConfig{Type: "sentence", SentencesPerChunk: 2})
	require.NoError(t, err)
	assert.IsType(t, &SentenceChunker{}, c)

	_, err = New(config.ChunkerConfig{Type: "paragraph"})
	assert.Error(t, err)
}

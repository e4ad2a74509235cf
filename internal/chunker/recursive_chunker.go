package chunker

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"secai/internal/domain"
)

// DefaultSeparators are tried in order: paragraphs, lines, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveChunker splits text into chunks of at most chunkSize characters,
// preferring paragraph, then line, then word boundaries. Consecutive chunks
// share up to overlap characters.
type RecursiveChunker struct {
	chunkSize  int
	overlap    int
	separators []string
}

func NewRecursiveChunker(chunkSize, overlap int) *RecursiveChunker {
	if chunkSize <= 0 {
		chunkSize = 2000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &RecursiveChunker{chunkSize: chunkSize, overlap: overlap, separators: DefaultSeparators}
}

func (c *RecursiveChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(document.Content) == "" {
		return nil, nil
	}
	return toChunks(document, c.Split(document.Content)), nil
}

// Split returns the chunk texts of text.
func (c *RecursiveChunker) Split(text string) []string {
	return c.split(text, c.separators)
}

func (c *RecursiveChunker) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	var out, pending []string
	for _, piece := range splitKeep(text, sep) {
		if length(piece) < c.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			out = append(out, c.merge(pending)...)
			pending = nil
		}
		if len(rest) == 0 {
			out = append(out, strings.TrimSpace(piece))
		} else {
			out = append(out, c.split(piece, rest)...)
		}
	}
	if len(pending) > 0 {
		out = append(out, c.merge(pending)...)
	}
	return out
}

// merge packs pieces into chunks no longer than chunkSize, carrying the
// trailing pieces of each chunk forward as overlap.
func (c *RecursiveChunker) merge(pieces []string) []string {
	var (
		docs    []string
		current []string
		total   int
	)
	for _, p := range pieces {
		l := length(p)
		if total+l > c.chunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
				docs = append(docs, doc)
			}
			for len(current) > 0 && (total > c.overlap || total+l > c.chunkSize) {
				total -= length(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += l
	}
	if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeep splits text on sep, keeping sep attached to the start of each
// following piece so that joining the pieces restores text.
func splitKeep(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func length(s string) int { return utf8.RuneCountInString(s) }

func toChunks(document domain.Document, texts []string) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(texts))
	for _, text := range texts {
		if text == "" {
			continue
		}
		idx := len(chunks)
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			ChunkID:    document.ID + ":" + strconv.Itoa(idx),
			Source:     document.URL,
			Text:       text,
			Index:      idx,
		})
	}
	return chunks
}

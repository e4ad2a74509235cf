package llm

import (
	"context"
	"errors"
	"strings"

	"secai/internal/domain"
)

const (
	stuffInstructions = "Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.\n\n"
	questionMarker    = "\n\nQuestion: "
	answerMarker      = "\nHelpful Answer:"
)

// StuffQA answers a question by placing every retrieved chunk into a single
// prompt for the chat model.
type StuffQA struct {
	provider    Provider
	temperature float64
	maxTokens   int
}

func NewStuffQA(provider Provider, temperature float64, maxTokens int) *StuffQA {
	return &StuffQA{provider: provider, temperature: temperature, maxTokens: maxTokens}
}

// Run returns the model's answer to question given the retrieved context.
func (q *StuffQA) Run(ctx context.Context, docs []domain.SearchResult, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", errors.New("empty question")
	}
	resp, err := q.provider.Complete(ctx, CompletionRequest{
		Messages:    []Message{{Role: RoleUser, Content: BuildPrompt(docs, question)}},
		MaxTokens:   q.maxTokens,
		Temperature: q.temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// BuildPrompt joins the chunk texts with blank lines and appends the question.
func BuildPrompt(docs []domain.SearchResult, question string) string {
	var b strings.Builder
	b.WriteString(stuffInstructions)
	for i, d := range docs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(d.Chunk.Text)
	}
	b.WriteString(questionMarker)
	b.WriteString(strings.TrimSpace(question))
	b.WriteString(answerMarker)
	return b.String()
}

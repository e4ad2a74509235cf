package llm

import (
	"context"
	"sort"
	"strings"

	"secai/internal/textutil"
)

// ExtractiveProvider answers without a hosted model: it returns the context
// sentences that share the most words with the question. It expects prompts
// built by StuffQA.
type ExtractiveProvider struct {
	maxSentences int
}

func NewExtractiveProvider(maxSentences int) *ExtractiveProvider {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	return &ExtractiveProvider{maxSentences: maxSentences}
}

func (p *ExtractiveProvider) Name() string { return "extractive" }

func (p *ExtractiveProvider) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var prompt string
	for _, m := range req.Messages {
		if m.Role == RoleUser {
			prompt = m.Content
		}
	}
	contextText, question := splitPrompt(prompt)
	q := make(map[string]struct{})
	for _, t := range textutil.Terms(question) {
		q[t] = struct{}{}
	}

	type scored struct {
		idx   int
		score int
	}
	sentences := textutil.Sentences(contextText)
	ranked := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		if score := textutil.OverlapScore(q, s); score > 0 {
			ranked = append(ranked, scored{i, score})
		}
	}
	if len(ranked) == 0 {
		return &CompletionResponse{Content: noAnswer, Model: p.Name()}, nil
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > p.maxSentences {
		ranked = ranked[:p.maxSentences]
	}
	// Keep original order among selected
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].idx < ranked[j].idx })
	parts := make([]string, len(ranked))
	for i, r := range ranked {
		parts[i] = sentences[r.idx]
	}
	return &CompletionResponse{Content: strings.Join(parts, " "), Model: p.Name()}, nil
}

const noAnswer = "I don't know."

func splitPrompt(prompt string) (contextText, question string) {
	i := strings.LastIndex(prompt, questionMarker)
	if i < 0 {
		return prompt, prompt
	}
	body, q := prompt[:i], prompt[i+len(questionMarker):]
	body = strings.TrimPrefix(body, stuffInstructions)
	q, _, _ = strings.Cut(q, answerMarker)
	return strings.TrimSpace(body), strings.TrimSpace(q)
}

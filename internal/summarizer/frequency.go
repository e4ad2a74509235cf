package summarizer

import (
	"math"
	"sort"
	"strings"

	"secai/internal/textutil"
)

// FrequencySummarizer ranks sentences by the normalized frequency of their
// non-stopword terms across the whole text.
type FrequencySummarizer struct{}

func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{}
}

// Summarize returns up to maxSentences of the highest scoring sentences in
// their original order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return "", nil
	}

	freq := map[string]float64{}
	maxF := 0.0
	for _, sent := range sentences {
		for _, term := range textutil.Terms(sent) {
			freq[term]++
			maxF = math.Max(maxF, freq[term])
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, sent := range sentences {
		words := textutil.Words(sent)
		score := 0.0
		for _, w := range words {
			if maxF > 0 {
				score += freq[w] / maxF
			}
		}
		// long sentences would otherwise always win
		if len(words) > 0 {
			score /= math.Sqrt(float64(len(words)))
		}
		ranked[i] = scored{i, score}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	ranked = ranked[:min(maxSentences, len(ranked))]
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].idx < ranked[j].idx })

	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = sentences[r.idx]
	}
	return strings.Join(out, " "), nil
}

package summarizer

import (
	"fmt"

	"secai/internal/config"
	"secai/internal/domain"
)

// New returns the summarizer selected by cfg.Type.
func New(cfg config.SummarizerConfig) (domain.Summarizer, error) {
	switch cfg.Type {
	case "frequency", "":
		return NewFrequencySummarizer(), nil
	case "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unsupported summarizer type: %s", cfg.Type)
	}
}

// None produces empty summaries.
type None struct{}

func (None) Summarize(string, int) (string, error) { return "", nil }

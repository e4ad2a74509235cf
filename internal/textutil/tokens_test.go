package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTermsDropsStopwords(t *testing.T) {
	assert.Equal(t, []string{"revenue", "grew", "percent"}, Terms("The revenue grew by 12 percent."))
}

func TestSentences(t *testing.T) {
	got := Sentences("Net sales rose. Margins fell! Outlook?")
	assert.Equal(t, []string{"Net sales rose.", "Margins fell!", "Outlook?"}, got)
	assert.Equal(t, []string{"no terminator"}, Sentences("  no terminator "))
	assert.Nil(t, Sentences("   "))
}

func TestOverlapScoreCountsDistinctTokens(t *testing.T) {
	q := TokenSet("cash flow cash")
	assert.Equal(t, 2, OverlapScore(q, "Operating cash flow and cash equivalents"))
	assert.Equal(t, 0, OverlapScore(q, "Goodwill impairment"))
}

package tui

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secai/internal/domain"
	"secai/internal/service"
	"secai/internal/session"
)

type fakeSource struct{ filings []domain.Filing }

func (f fakeSource) Autocomplete(_ context.Context, q string) ([]domain.Company, error) {
	return []domain.Company{
		{CIK: "320193", Name: "Apple Inc.", Ticker: "AAPL"},
		{CIK: "1418121", Name: "Apple Hospitality REIT, Inc.", Ticker: "APLE"},
	}, nil
}

func (f fakeSource) Filings(context.Context, string) ([]domain.Filing, error) {
	return f.filings, nil
}

type fakeIndex struct{}

func (fakeIndex) Ask(_ context.Context, q string) (service.Answer, error) {
	return service.Answer{Text: "Net sales grew.", Sources: []domain.SearchResult{{
		Chunk: domain.Chunk{Source: "https://example.com/aapl-10k.htm", Text: "Net sales grew. Offices are in Cupertino."},
		Score: 0.9,
	}}}, nil
}
func (fakeIndex) Summary() string { return "Apple sells phones." }
func (fakeIndex) URLs() []string  { return nil }

func testFilings(n int) []domain.Filing {
	out := make([]domain.Filing, n)
	for i := range out {
		out[i] = domain.Filing{
			Date: fmt.Sprintf("2024-%02d-01", i%12+1),
			Name: fmt.Sprintf("aapl-%02d.htm", i),
			Type: "10-Q",
			URL:  fmt.Sprintf("https://example.com/aapl-%02d.htm", i),
		}
	}
	return out
}

func newTestModel(t *testing.T, apiKey string) (Model, *session.Session, *[]string) {
	t.Helper()
	var loaded []string
	loader := session.LoaderFunc(func(_ context.Context, _ string, urls []string, progress service.ProgressFunc) (session.Index, error) {
		loaded = urls
		progress(service.Progress{Stage: service.StageFetch, Fraction: 0.6, Message: "Loaded 1 of 1 documents"})
		progress(service.Progress{Stage: service.StageIndex, Fraction: 0.8})
		return fakeIndex{}, nil
	})
	sess := session.New(5)
	m := New(context.Background(), fakeSource{filings: testFilings(12)}, loader, sess, apiKey, 3)
	return m, sess, &loaded
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestAPIKeyPrompt(t *testing.T) {
	m, sess, _ := newTestModel(t, "")
	assert.Equal(t, focusKey, m.focus)

	m, _ = update(t, m, runes("sk-test"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, focusCompany, m.focus)
	assert.Equal(t, "sk-test", sess.APIKey())
	assert.NotContains(t, m.View(), "sk-test")
}

func TestAutocompleteNeedsThreeCharacters(t *testing.T) {
	m, sess, _ := newTestModel(t, "sk-test")
	assert.Equal(t, focusCompany, m.focus)

	m, _ = update(t, m, runes("ap"))
	query, companies := sess.Suggestions()
	assert.Equal(t, "ap", query)
	assert.Empty(t, companies)
	assert.Contains(t, m.View(), noMatches)

	m, cmd := update(t, m, runes("p"))
	assert.NotNil(t, cmd)
	m, _ = update(t, m, m.searchCmd("app")())
	_, companies = sess.Suggestions()
	require.Len(t, companies, 2)
	assert.Contains(t, m.View(), "Apple Inc.")
	assert.NotContains(t, m.View(), noMatches)

	// results for an older query are dropped
	m, _ = update(t, m, suggestionsMsg{query: "ap", companies: nil})
	_, companies = sess.Suggestions()
	assert.Len(t, companies, 2)
}

func selectApple(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, runes("apple"))
	m, _ = update(t, m, m.searchCmd("apple")())
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	return m
}

func TestChoosingCompanyListsFilings(t *testing.T) {
	m, sess, _ := newTestModel(t, "sk-test")
	m = selectApple(t, m)

	company, ok := sess.Company()
	require.True(t, ok)
	assert.Equal(t, "320193", company.CIK)
	assert.Equal(t, focusFilings, m.focus)
	view := m.View()
	assert.Contains(t, view, "Page 1 of 3")
	assert.Contains(t, view, "aapl-00.htm")
	assert.NotContains(t, view, "aapl-05.htm")
}

func TestFilingsPagingAndSelection(t *testing.T) {
	m, sess, _ := newTestModel(t, "sk-test")
	m = selectApple(t, m)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 1, sess.Page())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 3, sess.Page())
	assert.Contains(t, m.View(), "Page 3 of 3")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"https://example.com/aapl-11.htm"}, sess.Selected())
	assert.Contains(t, m.View(), "[Added!]")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.status, "already added")
	assert.Len(t, sess.Selected(), 1)

	m, _ = update(t, m, runes("d"))
	assert.Empty(t, sess.Selected())
}

func TestLoadAndAsk(t *testing.T) {
	m, sess, loaded := newTestModel(t, "sk-test")
	m = selectApple(t, m)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.False(t, m.loading)
	assert.Contains(t, m.status, "Select at least one filing")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	require.True(t, m.loading)
	for msg := range m.loadCh {
		m, _ = update(t, m, msg)
	}
	assert.False(t, m.loading)
	assert.True(t, sess.Loaded())
	assert.Equal(t, []string{"https://example.com/aapl-00.htm"}, *loaded)
	assert.Equal(t, focusQuestion, m.focus)
	assert.Contains(t, m.View(), "Apple sells phones.")

	m, _ = update(t, m, runes("How did net sales change?"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.asking)
	assert.Empty(t, m.questionInput.Value())

	m, _ = update(t, m, m.askCmd("How did net sales change?")())
	assert.False(t, m.asking)
	transcript := m.renderTranscript()
	assert.Contains(t, transcript, "Me: How did net sales change?")
	assert.Contains(t, transcript, "Bot: Net sales grew.")
	assert.Contains(t, transcript, "aapl-10k.htm")
}

func TestAskBeforeLoad(t *testing.T) {
	m, _, _ := newTestModel(t, "sk-test")
	m.setFocus(focusQuestion)
	m, _ = update(t, m, runes("anything?"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.status, "Load documents first")
}

func TestHighlightBestSentence(t *testing.T) {
	out := highlightBestSentence("Net sales grew. Offices are in Cupertino.", "where are the offices")
	assert.Contains(t, out, "Net sales grew.")
	assert.Contains(t, out, "Offices are in Cupertino.")
	assert.Equal(t, "", highlightBestSentence("", "query"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"secai/internal/textutil"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	sectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	activeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	addedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

const noMatches = "No matching records found."

// View renders every section of the screen top to bottom.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("SEC Filings Q&A"))
	b.WriteString("\n\n")

	b.WriteString(m.heading("OpenAI API key", focusKey))
	b.WriteString(m.keyInput.View() + "\n\n")

	b.WriteString(m.heading("Company", focusCompany))
	b.WriteString(m.companyInput.View() + "\n")
	b.WriteString(m.renderSuggestions() + "\n")

	if company, ok := m.sess.Company(); ok {
		b.WriteString(m.heading(fmt.Sprintf("Filings for %s (CIK %s)", company.Name, company.CIK), focusFilings))
		b.WriteString(m.renderFilings() + "\n")
	}

	b.WriteString(m.renderSelected() + "\n")
	b.WriteString(m.renderLoad() + "\n")

	if m.sess.Loaded() {
		if summary := m.sess.Summary(); summary != "" {
			b.WriteString(mutedStyle.Width(max(20, m.width-2)).Render(summary) + "\n")
		}
		b.WriteString(m.heading("Chat", focusQuestion))
		b.WriteString(m.questionInput.View() + "\n")
		b.WriteString(boxStyle.Render(m.viewport.View()) + "\n")
	}

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}
	b.WriteString(mutedStyle.Render("tab: next section • enter: select/add/ask • ←/→: page • d: remove • ctrl+l: load docs • esc: quit"))
	return b.String()
}

func (m Model) heading(label string, f focus) string {
	if m.focus == f {
		return activeStyle.Render("▸ "+label) + "\n"
	}
	return sectionStyle.Render("  "+label) + "\n"
}

func (m Model) renderSuggestions() string {
	query, companies := m.sess.Suggestions()
	if len([]rune(query)) < m.minQuery || len(companies) == 0 {
		return mutedStyle.Render(noMatches) + "\n"
	}
	var b strings.Builder
	for i, c := range companies {
		line := c.Name
		if c.Ticker != "" && !strings.Contains(line, c.Ticker) {
			line += " (" + c.Ticker + ")"
		}
		if m.focus == focusCompany && i == m.suggestionCursor {
			b.WriteString(activeStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

func (m Model) renderFilings() string {
	items := m.sess.PageItems()
	if len(items) == 0 {
		return mutedStyle.Render("No 10-Q or 10-K filings.") + "\n"
	}
	var b strings.Builder
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %-10s  %-5s  %-32s", "Date", "Type", "Document")) + "\n")
	for i, f := range items {
		button := "[Add]"
		if m.sess.IsSelected(f.URL) {
			button = addedStyle.Render("[Added!]")
		}
		row := fmt.Sprintf("%-10s  %-5s  %-32s  %s", f.Date, f.Type, truncate(f.Name, 32), button)
		if m.focus == focusFilings && i == m.filingCursor {
			b.WriteString(activeStyle.Render("> ") + row + "\n")
		} else {
			b.WriteString("  " + row + "\n")
		}
	}
	b.WriteString(fmt.Sprintf("Page %d of %d  %s\n", m.sess.Page(), m.sess.TotalPages(), m.paginator.View()))
	return b.String()
}

func (m Model) renderSelected() string {
	selected := m.sess.Selected()
	var b strings.Builder
	b.WriteString(sectionStyle.Render(fmt.Sprintf("  Selected documents (%d)", len(selected))) + "\n")
	for _, u := range selected {
		b.WriteString("  • " + docName(u) + "\n")
	}
	return b.String()
}

func (m Model) renderLoad() string {
	switch {
	case m.loading:
		return m.spinner.View() + " " + m.progress.ViewAs(m.loadFraction)
	case m.loadFraction > 0:
		return m.progress.ViewAs(m.loadFraction)
	default:
		return mutedStyle.Render("Press ctrl+l to Load Docs.")
	}
}

func (m Model) renderTranscript() string {
	turns := m.sess.Transcript()
	if len(turns) == 0 {
		return "No questions yet."
	}
	var lines []string
	for _, t := range turns {
		lines = append(lines, t.Lines()...)
	}
	last := turns[len(turns)-1]
	if len(last.Sources) > 0 {
		src := last.Sources[0]
		lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("Source: %s  score=%.3f", docName(src.Chunk.Source), src.Score)))
		lines = append(lines, highlightBestSentence(truncate(src.Chunk.Text, 600), last.Question))
	}
	return lipgloss.NewStyle().Width(max(20, m.viewport.Width)).Render(strings.Join(lines, "\n"))
}

// highlightBestSentence emphasizes the sentence sharing the most words with query.
func highlightBestSentence(text, query string) string {
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return text
	}
	qTokens := textutil.TokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := textutil.OverlapScore(qTokens, s); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

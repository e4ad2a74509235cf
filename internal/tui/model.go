package tui

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"secai/internal/domain"
	"secai/internal/service"
	"secai/internal/session"
)

type focus int

const (
	focusKey focus = iota
	focusCompany
	focusFilings
	focusQuestion
	focusCount
)

// Model is the Bubble Tea model for the interactive filing chat.
type Model struct {
	ctx      context.Context
	source   domain.FilingSource
	loader   session.Loader
	sess     *session.Session
	minQuery int

	focus         focus
	keyInput      textinput.Model
	companyInput  textinput.Model
	questionInput textinput.Model

	suggestionCursor int
	filingCursor     int

	paginator paginator.Model
	progress  progress.Model
	spinner   spinner.Model
	viewport  viewport.Model

	loading      bool
	asking       bool
	loadFraction float64
	loadCh       <-chan tea.Msg

	status string
	width  int
}

// New creates the model. A non-empty apiKey skips the key prompt.
func New(ctx context.Context, source domain.FilingSource, loader session.Loader, sess *session.Session, apiKey string, minQuery int) Model {
	if minQuery <= 0 {
		minQuery = 3
	}
	key := textinput.New()
	key.Prompt = "API key> "
	key.Placeholder = "sk-..."
	key.EchoMode = textinput.EchoPassword
	key.EchoCharacter = '•'
	key.SetValue(apiKey)

	company := textinput.New()
	company.Prompt = "Company> "
	company.Placeholder = "Enter Company Name"

	question := textinput.New()
	question.Prompt = "Question> "
	question.Placeholder = "Ask about the loaded filings"

	pg := paginator.New()
	pg.Type = paginator.Dots
	pg.PerPage = sess.PageSize()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:           ctx,
		source:        source,
		loader:        loader,
		sess:          sess,
		minQuery:      minQuery,
		keyInput:      key,
		companyInput:  company,
		questionInput: question,
		paginator:     pg,
		progress:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner:       sp,
		viewport:      viewport.New(80, 10),
		width:         80,
	}
	if apiKey != "" {
		sess.SetAPIKey(apiKey)
		m.setFocus(focusCompany)
		m.status = "Search for a company to list its 10-Q and 10-K filings."
	} else {
		m.setFocus(focusKey)
		m.status = "Enter your OpenAI API key."
	}
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

type suggestionsMsg struct {
	query     string
	companies []domain.Company
	err       error
}

type filingsMsg struct {
	company domain.Company
	filings []domain.Filing
	err     error
}

type progressMsg service.Progress

type loadedMsg struct {
	index session.Index
	err   error
}

type answeredMsg struct {
	turn session.Turn
	err  error
}

// Update handles key, window and background events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(3, msg.Height/3)
		m.progress.Width = max(10, min(60, msg.Width-10))
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case suggestionsMsg:
		if msg.query != strings.TrimSpace(m.companyInput.Value()) {
			return m, nil
		}
		if msg.err != nil {
			m.status = "Search failed: " + msg.err.Error()
			return m, nil
		}
		m.sess.SetSuggestions(msg.query, msg.companies)
		m.suggestionCursor = 0
		return m, nil

	case filingsMsg:
		if msg.err != nil {
			m.status = "Could not list filings: " + msg.err.Error()
			return m, nil
		}
		m.sess.SetCompany(msg.company, msg.filings)
		m.filingCursor = 0
		m.syncPaginator()
		m.setFocus(focusFilings)
		m.status = fmt.Sprintf("%d filings for %s.", len(msg.filings), msg.company.Name)
		return m, nil

	case progressMsg:
		m.loadFraction = msg.Fraction
		m.status = msg.Message
		return m, waitFor(m.loadCh)

	case loadedMsg:
		m.loading = false
		m.loadCh = nil
		if msg.err != nil {
			m.loadFraction = 0
			m.status = "Load failed: " + msg.err.Error()
			return m, nil
		}
		m.sess.Attach(msg.index)
		m.loadFraction = 1
		m.setFocus(focusQuestion)
		m.status = "Documents loaded. Ask a question."
		return m, nil

	case answeredMsg:
		m.asking = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.status = ""
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.asking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m.updateInput(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyTab:
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case tea.KeyShiftTab:
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	case tea.KeyCtrlL:
		return m.startLoad()
	}

	switch m.focus {
	case focusKey:
		if msg.Type == tea.KeyEnter {
			m.sess.SetAPIKey(m.keyInput.Value())
			m.setFocus(focusCompany)
			m.status = "API key set. Search for a company."
			return m, nil
		}
	case focusCompany:
		return m.companyKey(msg)
	case focusFilings:
		return m.filingsKey(msg)
	case focusQuestion:
		if msg.Type == tea.KeyEnter {
			return m.submitQuestion()
		}
	}
	return m.updateInput(msg)
}

func (m Model) companyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	_, suggestions := m.sess.Suggestions()
	switch msg.Type {
	case tea.KeyUp:
		if len(suggestions) > 0 {
			m.suggestionCursor = (m.suggestionCursor - 1 + len(suggestions)) % len(suggestions)
		}
		return m, nil
	case tea.KeyDown:
		if len(suggestions) > 0 {
			m.suggestionCursor = (m.suggestionCursor + 1) % len(suggestions)
		}
		return m, nil
	case tea.KeyEnter:
		if len(suggestions) == 0 || m.suggestionCursor >= len(suggestions) {
			return m, nil
		}
		company := suggestions[m.suggestionCursor]
		m.status = "Loading filings for " + company.Name + "..."
		return m, m.filingsCmd(company)
	}

	before := strings.TrimSpace(m.companyInput.Value())
	var cmd tea.Cmd
	m.companyInput, cmd = m.companyInput.Update(msg)
	query := strings.TrimSpace(m.companyInput.Value())
	if query == before {
		return m, cmd
	}
	m.suggestionCursor = 0
	if len([]rune(query)) < m.minQuery {
		m.sess.SetSuggestions(query, nil)
		return m, cmd
	}
	return m, tea.Batch(cmd, m.searchCmd(query))
}

func (m Model) filingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.sess.PageItems()
	switch msg.String() {
	case "up", "k":
		if m.filingCursor > 0 {
			m.filingCursor--
		}
	case "down", "j":
		if m.filingCursor < len(items)-1 {
			m.filingCursor++
		}
	case "left", "p":
		if m.sess.Prev() {
			m.filingCursor = 0
			m.syncPaginator()
		}
	case "right", "n":
		if m.sess.Next() {
			m.filingCursor = 0
			m.syncPaginator()
		}
	case "enter", "a":
		if m.filingCursor < len(items) {
			f := items[m.filingCursor]
			if m.sess.Select(f.URL) {
				m.status = "Added " + f.Name + "."
			} else {
				m.status = f.Name + " is already added."
			}
		}
	case "d", "delete", "backspace":
		if m.filingCursor < len(items) {
			f := items[m.filingCursor]
			if m.sess.Remove(f.URL) {
				m.status = "Removed " + f.Name + "."
			}
		}
	}
	return m, nil
}

func (m Model) submitQuestion() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.questionInput.Value())
	if q == "" || m.asking {
		return m, nil
	}
	if !m.sess.Loaded() {
		m.status = "Load documents first (ctrl+l)."
		return m, nil
	}
	m.questionInput.SetValue("")
	m.asking = true
	m.status = "Thinking..."
	return m, tea.Batch(m.askCmd(q), m.spinner.Tick)
}

func (m Model) startLoad() (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	urls := m.sess.Selected()
	if len(urls) == 0 {
		m.status = "Select at least one filing first."
		return m, nil
	}
	ch := make(chan tea.Msg, 8)
	ctx, loader, apiKey := m.ctx, m.loader, m.sess.APIKey()
	go func() {
		defer close(ch)
		ix, err := loader.Load(ctx, apiKey, urls, func(p service.Progress) {
			ch <- progressMsg(p)
		})
		ch <- loadedMsg{index: ix, err: err}
	}()
	m.loading = true
	m.loadFraction = 0
	m.loadCh = ch
	m.status = fmt.Sprintf("Loading %d documents...", len(urls))
	return m, tea.Batch(waitFor(ch), m.spinner.Tick)
}

func waitFor(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) searchCmd(query string) tea.Cmd {
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		companies, err := source.Autocomplete(ctx, query)
		return suggestionsMsg{query: query, companies: companies, err: err}
	}
}

func (m Model) filingsCmd(company domain.Company) tea.Cmd {
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		filings, err := source.Filings(ctx, company.CIK)
		return filingsMsg{company: company, filings: filings, err: err}
	}
}

func (m Model) askCmd(question string) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		turn, err := sess.Ask(ctx, question)
		return answeredMsg{turn: turn, err: err}
	}
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusKey:
		m.keyInput, cmd = m.keyInput.Update(msg)
	case focusCompany:
		m.companyInput, cmd = m.companyInput.Update(msg)
	case focusQuestion:
		m.questionInput, cmd = m.questionInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFocus(f focus) {
	if m.focus == focusKey {
		m.sess.SetAPIKey(m.keyInput.Value())
	}
	m.focus = f
	m.keyInput.Blur()
	m.companyInput.Blur()
	m.questionInput.Blur()
	switch f {
	case focusKey:
		m.keyInput.Focus()
	case focusCompany:
		m.companyInput.Focus()
	case focusQuestion:
		m.questionInput.Focus()
	}
}

func (m *Model) syncPaginator() {
	m.paginator.SetTotalPages(len(m.sess.Filings()))
	m.paginator.Page = max(0, m.sess.Page()-1)
}

func docName(url string) string { return path.Base(url) }

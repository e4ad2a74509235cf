package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"secai/internal/domain"
	"secai/internal/service"
)

// ErrNotLoaded is returned when a question is asked before any documents were loaded.
var ErrNotLoaded = errors.New("documents not loaded")

// Index is the loaded corpus a session asks questions against.
type Index interface {
	Ask(ctx context.Context, question string) (service.Answer, error)
	Summary() string
	URLs() []string
}

// Turn is one exchange in the transcript.
type Turn struct {
	Question string                `json:"question"`
	Answer   string                `json:"answer"`
	Sources  []domain.SearchResult `json:"sources,omitempty"`
}

// Lines renders the turn the way the chat transcript shows it.
func (t Turn) Lines() []string {
	return []string{"Me: " + t.Question, "Bot: " + t.Answer}
}

// Session holds one user's selection and chat state. All methods are safe
// for concurrent use.
type Session struct {
	mu sync.RWMutex

	pageSize    int
	apiKey      string
	query       string
	suggestions []domain.Company
	company     *domain.Company
	filings     []domain.Filing
	page        int
	selected    []string
	index       *attached
	transcript  []Turn
}

// attached counts the questions running against an index so it is only
// closed once they finish.
type attached struct {
	Index
	inflight sync.WaitGroup
}

// release closes a detached index after its in-flight questions return.
// The returned channel is closed once that has happened.
func release(a *attached) <-chan struct{} {
	done := make(chan struct{})
	if a == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		a.inflight.Wait()
		if c, ok := a.Index.(interface{ Close(context.Context) error }); ok {
			_ = c.Close(context.Background())
		}
	}()
	return done
}

func New(pageSize int) *Session {
	if pageSize <= 0 {
		pageSize = 5
	}
	return &Session{pageSize: pageSize, page: 1}
}

func (s *Session) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = strings.TrimSpace(key)
}

func (s *Session) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// SetSuggestions records the autocomplete results for query.
func (s *Session) SetSuggestions(query string, companies []domain.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.suggestions = companies
}

func (s *Session) Suggestions() (string, []domain.Company) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query, append([]domain.Company(nil), s.suggestions...)
}

// SetCompany switches to company and its filings and returns to the first page.
func (s *Session) SetCompany(company domain.Company, filings []domain.Filing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.company = &company
	s.filings = filings
	s.page = 1
}

// Company returns the chosen company, if any.
func (s *Session) Company() (domain.Company, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.company == nil {
		return domain.Company{}, false
	}
	return *s.company, true
}

func (s *Session) Filings() []domain.Filing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Filing(nil), s.filings...)
}

// PageSize is the number of filings per page.
func (s *Session) PageSize() int { return s.pageSize }

// Page returns the current 1-based page number.
func (s *Session) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

func (s *Session) TotalPages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TotalPages(len(s.filings), s.pageSize)
}

// PageItems returns the filings shown on the current page.
func (s *Session) PageItems() []domain.Filing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Filing(nil), PageItems(s.filings, s.page, s.pageSize)...)
}

// Next advances one page unless already on the last one.
func (s *Session) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page < TotalPages(len(s.filings), s.pageSize) {
		s.page++
		return true
	}
	return false
}

// Prev goes back one page unless already on the first one.
func (s *Session) Prev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page > 1 {
		s.page--
		return true
	}
	return false
}

// Select adds url to the selected documents. It reports false when the url
// was already selected.
func (s *Session) Select(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.selected {
		if u == url {
			return false
		}
	}
	s.selected = append(s.selected, url)
	return true
}

// Remove drops url from the selected documents.
func (s *Session) Remove(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.selected {
		if u == url {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Session) IsSelected(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.selected {
		if u == url {
			return true
		}
	}
	return false
}

// Selected returns the selected document URLs in the order they were added.
func (s *Session) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.selected...)
}

// Attach replaces the loaded index. The previous one is closed, when it
// supports it, after questions already asked against it have returned.
// The transcript is kept.
func (s *Session) Attach(ix Index) {
	var next *attached
	if ix != nil {
		next = &attached{Index: ix}
	}
	s.mu.Lock()
	prev := s.index
	s.index = next
	s.mu.Unlock()
	release(prev)
}

// Close detaches the loaded index and waits, at most until ctx is done, for
// it to be released.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	prev := s.index
	s.index = nil
	s.mu.Unlock()
	select {
	case <-release(prev):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index != nil
}

// Summary of the loaded documents, empty before a load.
func (s *Session) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return ""
	}
	return s.index.Summary()
}

// Ask answers question from the loaded index and appends the exchange to the
// transcript. Blank questions are ignored.
func (s *Session) Ask(ctx context.Context, question string) (Turn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Turn{}, service.ErrEmptyQuestion
	}
	s.mu.RLock()
	ix := s.index
	if ix != nil {
		ix.inflight.Add(1)
	}
	s.mu.RUnlock()
	if ix == nil {
		return Turn{}, ErrNotLoaded
	}
	defer ix.inflight.Done()

	answer, err := ix.Ask(ctx, question)
	if err != nil {
		return Turn{}, err
	}
	turn := Turn{Question: question, Answer: answer.Text, Sources: answer.Sources}
	s.mu.Lock()
	s.transcript = append(s.transcript, turn)
	s.mu.Unlock()
	return turn, nil
}

func (s *Session) Transcript() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Turn(nil), s.transcript...)
}

// TranscriptText renders the transcript one line per speaker.
func (s *Session) TranscriptText() string {
	var lines []string
	for _, t := range s.Transcript() {
		lines = append(lines, t.Lines()...)
	}
	return strings.Join(lines, "\n")
}

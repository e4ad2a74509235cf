package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secai/internal/domain"
	"secai/internal/service"
)

type stubIndex struct {
	answer string
	err    error
}

func (s stubIndex) Ask(_ context.Context, q string) (service.Answer, error) {
	if s.err != nil {
		return service.Answer{}, s.err
	}
	return service.Answer{Text: s.answer}, nil
}

func (s stubIndex) Summary() string { return "summary" }
func (s stubIndex) URLs() []string  { return nil }

func filings(n int) []domain.Filing {
	out := make([]domain.Filing, n)
	for i := range out {
		out[i] = domain.Filing{Name: fmt.Sprintf("doc-%d.htm", i), URL: fmt.Sprintf("https://example.com/doc-%d.htm", i), Type: "10-Q"}
	}
	return out
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 5))
	assert.Equal(t, 1, TotalPages(5, 5))
	assert.Equal(t, 3, TotalPages(12, 5))
	assert.Equal(t, 0, TotalPages(3, 0))
}

func TestPageItems(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, PageItems(items, 1, 5))
	assert.Equal(t, []int{6, 7}, PageItems(items, 2, 5))
	assert.Empty(t, PageItems(items, 3, 5))
	assert.Empty(t, PageItems(items, 0, 5))
}

func TestPagingClamps(t *testing.T) {
	s := New(5)
	s.SetCompany(domain.Company{CIK: "320193", Name: "Apple Inc."}, filings(12))

	assert.Equal(t, 1, s.Page())
	assert.Equal(t, 3, s.TotalPages())
	assert.False(t, s.Prev())

	assert.True(t, s.Next())
	assert.True(t, s.Next())
	assert.False(t, s.Next())
	assert.Equal(t, 3, s.Page())
	require.Len(t, s.PageItems(), 2)
	assert.Equal(t, "doc-10.htm", s.PageItems()[0].Name)

	assert.True(t, s.Prev())
	assert.Equal(t, 2, s.Page())

	s.SetCompany(domain.Company{CIK: "789019", Name: "Microsoft"}, filings(3))
	assert.Equal(t, 1, s.Page())
	assert.False(t, s.Next())
}

func TestNoFilingsHasNoPages(t *testing.T) {
	s := New(5)
	assert.Zero(t, s.TotalPages())
	assert.False(t, s.Next())
	assert.Empty(t, s.PageItems())
	_, ok := s.Company()
	assert.False(t, ok)
}

func TestSelectionKeepsInsertionOrder(t *testing.T) {
	s := New(5)
	assert.True(t, s.Select("b"))
	assert.True(t, s.Select("a"))
	assert.False(t, s.Select("b"))
	assert.Equal(t, []string{"b", "a"}, s.Selected())
	assert.True(t, s.IsSelected("a"))

	assert.True(t, s.Remove("b"))
	assert.False(t, s.Remove("b"))
	assert.Equal(t, []string{"a"}, s.Selected())
	assert.False(t, s.IsSelected("b"))
}

func TestAskBeforeLoad(t *testing.T) {
	s := New(5)
	_, err := s.Ask(context.Background(), "What is revenue?")
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.Empty(t, s.Transcript())
}

func TestAskAppendsTranscript(t *testing.T) {
	s := New(5)
	s.Attach(stubIndex{answer: "It grew."})
	assert.True(t, s.Loaded())
	assert.Equal(t, "summary", s.Summary())

	turn, err := s.Ask(context.Background(), "  How did revenue change? ")
	require.NoError(t, err)
	assert.Equal(t, "How did revenue change?", turn.Question)
	assert.Equal(t, "It grew.", turn.Answer)

	_, err = s.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, service.ErrEmptyQuestion)

	s.Attach(stubIndex{err: errors.New("rate limited")})
	_, err = s.Ask(context.Background(), "Again?")
	assert.EqualError(t, err, "rate limited")

	assert.Len(t, s.Transcript(), 1)
	assert.Equal(t, "Me: How did revenue change?\nBot: It grew.", s.TranscriptText())
}

func TestManager(t *testing.T) {
	m := NewManager(5)
	id, s := m.Create()
	require.NotEmpty(t, id)

	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Delete(context.Background(), id))
	_, err = m.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(context.Background(), id), ErrSessionNotFound)
}

type closingIndex struct {
	stubIndex
	closed *atomic.Bool
}

func (c closingIndex) Close(context.Context) error {
	c.closed.Store(true)
	return nil
}

func TestManagerDeleteClosesIndex(t *testing.T) {
	m := NewManager(5)
	id, s := m.Create()
	var closed atomic.Bool
	s.Attach(closingIndex{stubIndex: stubIndex{answer: "a"}, closed: &closed})

	require.NoError(t, m.Delete(context.Background(), id))
	assert.True(t, closed.Load())
	assert.False(t, s.Loaded())
}

func TestManagerSweepEvictsIdleSessions(t *testing.T) {
	clock := time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC)
	m := NewManager(5)
	m.now = func() time.Time { return clock }

	staleID, stale := m.Create()
	var closed atomic.Bool
	stale.Attach(closingIndex{stubIndex: stubIndex{answer: "a"}, closed: &closed})

	clock = clock.Add(40 * time.Minute)
	freshID, _ := m.Create()

	clock = clock.Add(30 * time.Minute)
	_, err := m.Get(freshID)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Sweep(context.Background(), time.Hour))
	assert.True(t, closed.Load())
	_, err = m.Get(staleID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(freshID)
	assert.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	assert.Zero(t, m.Sweep(context.Background(), time.Hour))
}

func TestManagerRunStopsWithContext(t *testing.T) {
	m := NewManager(5)
	m.Create()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond, 0, nil)
		close(done)
	}()

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestAttachClosesPreviousIndex(t *testing.T) {
	s := New(5)
	var closed atomic.Bool
	s.Attach(closingIndex{stubIndex: stubIndex{answer: "first"}, closed: &closed})
	s.Attach(stubIndex{answer: "second"})
	assert.Eventually(t, closed.Load, time.Second, time.Millisecond)

	turn, err := s.Ask(context.Background(), "which?")
	require.NoError(t, err)
	assert.Equal(t, "second", turn.Answer)
}

// blockingIndex holds Ask open until release is closed and records whether
// it was closed while a question was still running.
type blockingIndex struct {
	started     chan struct{}
	release     chan struct{}
	running     atomic.Int32
	closed      atomic.Bool
	closedEarly atomic.Bool
}

func (b *blockingIndex) Ask(context.Context, string) (service.Answer, error) {
	b.running.Add(1)
	defer b.running.Add(-1)
	close(b.started)
	<-b.release
	return service.Answer{Text: "from the old filings"}, nil
}

func (b *blockingIndex) Summary() string { return "old" }
func (b *blockingIndex) URLs() []string  { return nil }

func (b *blockingIndex) Close(context.Context) error {
	if b.running.Load() > 0 {
		b.closedEarly.Store(true)
	}
	b.closed.Store(true)
	return nil
}

func TestAttachWaitsForInFlightAsk(t *testing.T) {
	s := New(5)
	old := &blockingIndex{started: make(chan struct{}), release: make(chan struct{})}
	s.Attach(old)

	type result struct {
		turn Turn
		err  error
	}
	res := make(chan result, 1)
	go func() {
		turn, err := s.Ask(context.Background(), "What changed?")
		res <- result{turn, err}
	}()
	<-old.started

	s.Attach(stubIndex{answer: "from the new filings"})
	time.Sleep(20 * time.Millisecond)
	assert.False(t, old.closed.Load())

	close(old.release)
	r := <-res
	require.NoError(t, r.err)
	assert.Equal(t, "from the old filings", r.turn.Answer)

	assert.Eventually(t, old.closed.Load, time.Second, time.Millisecond)
	assert.False(t, old.closedEarly.Load())

	turn, err := s.Ask(context.Background(), "And now?")
	require.NoError(t, err)
	assert.Equal(t, "from the new filings", turn.Answer)
}

func TestCloseDetachesIndex(t *testing.T) {
	s := New(5)
	var closed atomic.Bool
	s.Attach(closingIndex{stubIndex: stubIndex{answer: "a"}, closed: &closed})

	require.NoError(t, s.Close(context.Background()))
	assert.True(t, closed.Load())
	_, err := s.Ask(context.Background(), "still there?")
	assert.ErrorIs(t, err, ErrNotLoaded)
	require.NoError(t, s.Close(context.Background()))
}

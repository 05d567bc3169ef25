// Package testutil provides scripted fakes for the collection controller's
// collaborators: the paginated data source, the scroll engine, and the
// viewport.
package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/windrose-labs/infiniscroll/pkg/source"
)

// FeedItem is the item type used by tests and examples.
type FeedItem struct {
	ID    int
	Label string
}

// FeedSource is a deterministic in-memory page source. Cursors are the
// stringified start index of the next page; labels embed the canonical
// parameter key so tests can tell which parameter set produced an item.
type FeedSource struct {
	mu sync.Mutex

	total    int
	failNext error
	hold     chan struct{}

	// Tracking
	calls   int
	cursors []string
}

// NewFeedSource creates a source holding total items.
func NewFeedSource(total int) *FeedSource {
	return &FeedSource{total: total}
}

// FetchPage implements source.PageSource.
func (s *FeedSource) FetchPage(ctx context.Context, cursor string, limit int, params source.Params) (source.Page[FeedItem], error) {
	s.mu.Lock()
	s.calls++
	s.cursors = append(s.cursors, cursor)
	failErr := s.failNext
	s.failNext = nil
	hold := s.hold
	total := s.total
	s.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return source.Page[FeedItem]{}, ctx.Err()
		}
	}

	if failErr != nil {
		return source.Page[FeedItem]{}, failErr
	}

	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return source.Page[FeedItem]{}, fmt.Errorf("bad cursor %q: %w", cursor, err)
		}
		start = n
	}

	var items []FeedItem
	for i := start; i < total && i < start+limit; i++ {
		items = append(items, FeedItem{
			ID:    i,
			Label: fmt.Sprintf("%s#%d", params.Key(), i),
		})
	}

	next := ""
	if start+len(items) < total {
		next = strconv.Itoa(start + len(items))
	}

	return source.Page[FeedItem]{Items: items, NextCursor: next}, nil
}

// FailNext makes the next FetchPage call return err.
func (s *FeedSource) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Hold blocks every FetchPage call until the returned release function runs.
// Used to keep a fetch in flight while the test changes parameters.
func (s *FeedSource) Hold() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.hold = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.hold == ch {
				s.hold = nil
			}
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many times FetchPage was invoked.
func (s *FeedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Cursors returns the cursors FetchPage was invoked with, in order.
func (s *FeedSource) Cursors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.cursors))
	copy(out, s.cursors)
	return out
}

package inmemory

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/letmevibethatforyou/metis"
)

// Session holds the state of one interactive search surface: the record
// collection and the result list of the latest query. Each Query replaces
// the previous result list entirely.
type Session struct {
	searcher *Searcher

	mu        sync.Mutex
	lastQuery string
	current   []metis.Result
}

// NewSession creates a session over searcher.
func NewSession(searcher *Searcher) *Session {
	return &Session{searcher: searcher}
}

// Query runs text against the collection and makes the ranked list current.
// An empty query clears the current list without error.
func (s *Session) Query(ctx context.Context, text string, opts ...metis.SearchOption) ([]metis.Result, error) {
	results, err := s.searcher.Search(ctx, text, opts...)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "session query",
		"query", text,
		"total", results.Total,
		"took_ms", results.Took,
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastQuery = text
	s.current = results.Items
	return slices.Clone(s.current), nil
}

// Current returns a copy of the result list of the latest query.
func (s *Session) Current() []metis.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.current)
}

// LastQuery returns the raw text of the latest query. Together with an empty
// Current it tells "nothing typed yet" apart from "no matches found".
func (s *Session) LastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

// Reset clears the query and the current result list.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastQuery = ""
	s.current = nil
}

// Lookup returns the record with the given ID for a detail view.
func (s *Session) Lookup(id string) (metis.Record, error) {
	return s.searcher.Get(id)
}

package inmemory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/metis"
	"github.com/letmevibethatforyou/metis/match"
)

// Searcher implements the metis.Searcher interface over an in-memory
// record collection.
type Searcher struct {
	mu      sync.RWMutex
	records []metis.Record
	idIndex map[string]int // maps record ID to its first index in records
	matcher *match.Matcher
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithMatcher replaces the default match.Matcher, for example to tune the
// fuzzy threshold.
func WithMatcher(m *match.Matcher) Option {
	return func(s *Searcher) {
		if m != nil {
			s.matcher = m
		}
	}
}

// New creates a new in-memory searcher holding records.
// The searcher is safe for concurrent use.
func New(records []metis.Record, opts ...Option) *Searcher {
	s := &Searcher{
		records: make([]metis.Record, 0, len(records)),
		idIndex: make(map[string]int, len(records)),
		matcher: match.NewMatcher(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, r := range records {
		s.add(r)
	}
	return s
}

// AddRecord appends a record to the collection.
// Records are never merged, so repeated or empty IDs each stay searchable.
func (s *Searcher) AddRecord(r metis.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.add(r)
}

// AddRecords appends every record in rs.
func (s *Searcher) AddRecords(rs []metis.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rs {
		s.add(r)
	}
}

// add appends r. The ID index keeps the first record for each non-empty ID.
func (s *Searcher) add(r metis.Record) {
	if _, exists := s.idIndex[r.ID]; !exists && r.ID != "" {
		s.idIndex[r.ID] = len(s.records)
	}
	s.records = append(s.records, r)
}

// AddJSON parses a single JSON record and adds it.
func (s *Searcher) AddJSON(data []byte) error {
	var r metis.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return errors.Wrap(err, "failed to unmarshal record JSON")
	}

	s.AddRecord(r)
	return nil
}

// RemoveRecord removes every record with the given ID.
// Returns true if at least one record was removed.
func (s *Searcher) RemoveRecord(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, r := range s.records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	removed := len(kept) != len(s.records)
	clear(s.records[len(kept):])
	s.records = kept

	if removed {
		s.idIndex = make(map[string]int, len(s.records))
		for i, r := range s.records {
			if _, exists := s.idIndex[r.ID]; !exists && r.ID != "" {
				s.idIndex[r.ID] = i
			}
		}
	}
	return removed
}

// Clear removes all records.
func (s *Searcher) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make([]metis.Record, 0)
	s.idIndex = make(map[string]int)
}

// Size returns the number of records in the collection.
func (s *Searcher) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the first record added with the given ID, or metis.ErrNotFound.
func (s *Searcher) Get(id string) (metis.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.idIndex[id]
	if !exists {
		return metis.Record{}, errors.Wrapf(metis.ErrNotFound, "id %q", id)
	}
	return s.records[idx], nil
}

// Records returns a copy of the collection in insertion order.
func (s *Searcher) Records() []metis.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]metis.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Search implements the metis.Searcher interface.
func (s *Searcher) Search(ctx context.Context, query string, opts ...metis.SearchOption) (*metis.Results, error) {
	startTime := time.Now()

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	cfg := metis.NewSearchConfig(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, filter := range cfg.Filters {
		if err := metis.ValidateExpression(filter); err != nil {
			return nil, err
		}
	}

	results := &metis.Results{
		Items: []metis.Result{},
		Query: query,
	}

	terms := s.matcher.Tokenize(query)
	if len(terms) == 0 {
		results.Took = time.Since(startTime).Milliseconds()
		return results, nil
	}

	s.mu.RLock()
	var scored []match.Scored
	for _, r := range s.records {
		if err := checkContext(ctx); err != nil {
			s.mu.RUnlock()
			return nil, err
		}

		if !matchesFilters(r, cfg.Filters) {
			continue
		}

		if score := s.matcher.Score(r, terms); score > 0 {
			scored = append(scored, match.Scored{Record: r, Score: score})
		}
	}
	s.mu.RUnlock()

	ranked := match.RankScored(scored)

	total := len(ranked)
	start := min(cfg.Offset, total)
	end := total
	if cfg.Limit > 0 {
		end = min(start+cfg.Limit, total)
	}

	for _, sc := range ranked[start:end] {
		if sc.Score > results.MaxScore {
			results.MaxScore = sc.Score
		}
		results.Items = append(results.Items, metis.Result{
			Record: sc.Record,
			Score:  sc.Score,
		})
	}
	results.Total = int64(total)

	if end < total {
		nextOffset := end
		results.NextOffset = &nextOffset
	}

	results.Took = time.Since(startTime).Milliseconds()
	return results, nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return metis.ErrTimeout
		}
		return metis.ErrCanceled
	default:
		return nil
	}
}

package match

import (
	"strings"

	"github.com/letmevibethatforyou/metis"
)

// FuzzyThreshold is the largest edit distance at which a fuzzy-eligible field
// still counts as a hit.
const FuzzyThreshold = 2

// Scored pairs a record with the number of query terms that hit it.
type Scored struct {
	Record metis.Record
	Score  int
}

// field describes one searchable record field and whether near-misses count.
type field struct {
	name   string
	values func(metis.Record) []string
	fuzzy  bool
}

// searchable is evaluated in order for every term. Policy is never searched.
var searchable = []field{
	{name: metis.FieldKeywords, values: func(r metis.Record) []string { return r.Keywords }, fuzzy: true},
	{name: metis.FieldCategory, values: func(r metis.Record) []string { return []string{r.Category} }, fuzzy: true},
	{name: metis.FieldID, values: func(r metis.Record) []string { return []string{r.ID} }},
	{name: metis.FieldInstruction, values: func(r metis.Record) []string { return []string{r.Instruction} }},
}

// Matcher scores records against query terms.
// The zero value is not usable; create one with NewMatcher.
type Matcher struct {
	threshold int
	stopWords StopWordSet
}

// Option configures a Matcher at construction time.
type Option func(*Matcher)

// WithThreshold overrides FuzzyThreshold. Negative values disable fuzzy matching.
func WithThreshold(n int) Option {
	return func(m *Matcher) {
		m.threshold = n
	}
}

// WithStopWords replaces StopWords for this matcher.
func WithStopWords(words ...string) Option {
	return func(m *Matcher) {
		m.stopWords = NewStopWordSet(words...)
	}
}

// NewMatcher returns a Matcher using FuzzyThreshold and StopWords unless
// overridden by opts.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{
		threshold: FuzzyThreshold,
		stopWords: StopWords,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the fuzzy threshold in use.
func (m *Matcher) Threshold() int {
	return m.threshold
}

// Tokenize splits query into terms using the matcher's stop-words.
func (m *Matcher) Tokenize(query string) []string {
	return tokenize(query, m.stopWords)
}

// Match scores every record against terms and returns the records with a
// positive score, in collection order.
func (m *Matcher) Match(records []metis.Record, terms []string) []Scored {
	if len(terms) == 0 {
		return nil
	}

	var scored []Scored
	for _, r := range records {
		if score := m.Score(r, terms); score > 0 {
			scored = append(scored, Scored{Record: r, Score: score})
		}
	}
	return scored
}

// Score counts the terms that hit at least one searchable field of r.
// A term counts once no matter how many fields it hits.
func (m *Matcher) Score(r metis.Record, terms []string) int {
	fields := lowered(r)

	score := 0
	for _, term := range terms {
		if m.hitsAny(fields, term) {
			score++
		}
	}
	return score
}

// Hit reports whether a single term hits any searchable field of r.
func (m *Matcher) Hit(r metis.Record, term string) bool {
	return m.hitsAny(lowered(r), term)
}

// Search tokenizes query, scores records and returns them ranked.
func (m *Matcher) Search(records []metis.Record, query string) []metis.Record {
	return Rank(m.Match(records, m.Tokenize(query)))
}

type loweredField struct {
	values []string
	fuzzy  bool
}

func lowered(r metis.Record) []loweredField {
	out := make([]loweredField, 0, len(searchable))
	for _, f := range searchable {
		raw := f.values(r)
		values := make([]string, 0, len(raw))
		for _, v := range raw {
			values = append(values, strings.ToLower(v))
		}
		out = append(out, loweredField{values: values, fuzzy: f.fuzzy})
	}
	return out
}

func (m *Matcher) hitsAny(fields []loweredField, term string) bool {
	if term == "" {
		return false
	}
	for _, f := range fields {
		for _, candidate := range f.values {
			if m.hits(candidate, term, f.fuzzy) {
				return true
			}
		}
	}
	return false
}

func (m *Matcher) hits(candidate, term string, fuzzy bool) bool {
	if strings.Contains(candidate, term) {
		return true
	}
	return fuzzy && m.threshold >= 0 && Distance(candidate, term) <= m.threshold
}

var defaultMatcher = NewMatcher()

// Match scores records against terms with the default Matcher.
func Match(records []metis.Record, terms []string) []Scored {
	return defaultMatcher.Match(records, terms)
}

// Search ranks records against query with the default Matcher.
func Search(records []metis.Record, query string) []metis.Record {
	return defaultMatcher.Search(records, query)
}

package match

import "strings"

// StopWords are query words dropped from the search terms unless nothing
// else is left.
var StopWords = NewStopWordSet(
	"how", "often", "do", "i", "the", "a", "an", "is", "are", "what",
	"when", "where", "should", "can", "for", "with", "about", "to", "at",
	"check", "need", "please", "me",
)

// StopWordSet is a set of lower-cased stop-words.
type StopWordSet map[string]struct{}

// NewStopWordSet builds a set from words, lower-casing each one.
func NewStopWordSet(words ...string) StopWordSet {
	set := make(StopWordSet, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// Has reports whether the already lower-cased token is in the set.
func (s StopWordSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// IsStopWord reports whether token is in StopWords. Token is compared lower-cased.
func IsStopWord(token string) bool {
	return StopWords.Has(strings.ToLower(token))
}

// Normalize lower-cases and trims a raw query.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Tokenize turns a raw query into search terms using StopWords.
// An empty or blank query yields no terms.
func Tokenize(query string) []string {
	return tokenize(query, StopWords)
}

func tokenize(query string, stop StopWordSet) []string {
	normalized := Normalize(query)
	if normalized == "" {
		return nil
	}

	all := strings.Fields(normalized)
	anchors := make([]string, 0, len(all))
	for _, token := range all {
		if !stop.Has(token) {
			anchors = append(anchors, token)
		}
	}

	// A query made only of stop-words still searches with them.
	if len(anchors) == 0 {
		return all
	}
	return anchors
}

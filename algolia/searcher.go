package algolia

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/metis"
	"github.com/letmevibethatforyou/metis/dataset"
	"github.com/letmevibethatforyou/metis/match"
)

// maxHitsPerPage is Algolia's upper bound for hitsPerPage. It stands in for
// "every match" when no limit is requested.
const maxHitsPerPage = 1000

// Searcher implements the metis.Searcher interface using Algolia.
// Algolia selects the page; each hit is then rescored with the match engine,
// zero-score hits are dropped and the page is ranked with match.RankScored,
// so results follow the same rules as the in-memory searcher.
//
// Offsets address Algolia pages and must be a multiple of the limit.
type Searcher struct {
	client    *Client
	indexName string
	matcher   *match.Matcher
}

// NewSearcher creates a new Algolia searcher for the specified index.
func NewSearcher(client *Client, indexName string) *Searcher {
	return &Searcher{
		client:    client,
		indexName: indexName,
		matcher:   match.NewMatcher(),
	}
}

// Search implements the metis.Searcher interface using Algolia search.
func (s *Searcher) Search(ctx context.Context, query string, opts ...metis.SearchOption) (*metis.Results, error) {
	startTime := time.Now()

	select {
	case <-ctx.Done():
		return nil, metis.ErrCanceled
	default:
	}

	cfg := metis.NewSearchConfig(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	params, err := buildSearchParams(cfg)
	if err != nil {
		return nil, err
	}

	results := &metis.Results{
		Items: []metis.Result{},
		Query: query,
	}

	// Algolia returns every object for an empty query; metis returns nothing.
	normalized := match.Normalize(query)
	if normalized == "" {
		results.Took = time.Since(startTime).Milliseconds()
		return results, nil
	}

	algoliaClient, err := s.client.getClient()
	if err != nil {
		return nil, errors.WithSecondaryError(
			metis.ErrBackendUnavailable,
			errors.Wrapf(err, "failed to get Algolia client"),
		)
	}

	index := algoliaClient.InitIndex(s.indexName)

	res, err := index.Search(normalized, params...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, metis.ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return nil, metis.ErrCanceled
		}

		return nil, errors.WithSecondaryError(
			metis.ErrBackendUnavailable,
			errors.Wrapf(err, "Algolia search failed"),
		)
	}

	items, dropped := scoreHits(s.matcher, s.matcher.Tokenize(query), res.Hits)
	results.Items = items
	if len(items) > 0 {
		results.MaxScore = items[0].Score
	}
	results.Total = int64(res.NbHits - dropped)
	results.Took = time.Since(startTime).Milliseconds()

	nextPage := res.Page + 1
	if nextPage < res.NbPages {
		nextOffset := nextPage * hitsPerPage(cfg)
		results.NextOffset = &nextOffset
	}

	return results, nil
}

// scoreHits rescores hits against terms, drops those that do not match and
// ranks the rest. It also returns the number of dropped hits.
func scoreHits(m *match.Matcher, terms []string, hits []map[string]interface{}) ([]metis.Result, int) {
	scored := make([]match.Scored, 0, len(hits))
	for _, hit := range hits {
		record := recordFromHit(hit)
		if score := m.Score(record, terms); score > 0 {
			scored = append(scored, match.Scored{Record: record, Score: score})
		}
	}

	items := make([]metis.Result, 0, len(scored))
	for _, s := range match.RankScored(scored) {
		items = append(items, metis.Result{Record: s.Record, Score: s.Score})
	}
	return items, len(hits) - len(scored)
}

// recordFromHit decodes a hit, falling back to objectID for records indexed
// without an id attribute.
func recordFromHit(hit map[string]interface{}) metis.Record {
	r := dataset.RecordFromMap(hit)
	if r.ID == "" {
		if objectID, ok := hit["objectID"].(string); ok {
			r.ID = objectID
		}
	}
	return r
}

func hitsPerPage(cfg *metis.SearchConfig) int {
	if cfg.Limit <= 0 || cfg.Limit > maxHitsPerPage {
		return maxHitsPerPage
	}
	return cfg.Limit
}

// buildSearchParams converts metis.SearchConfig to Algolia search parameters.
func buildSearchParams(cfg *metis.SearchConfig) ([]interface{}, error) {
	limit := hitsPerPage(cfg)
	params := []interface{}{opt.HitsPerPage(limit)}

	if cfg.Offset > 0 {
		if cfg.Offset%limit != 0 {
			return nil, errors.WithDetailf(metis.ErrInvalidOption,
				"offset %d is not a multiple of the page size %d", cfg.Offset, limit)
		}
		params = append(params, opt.Page(cfg.Offset/limit))
	}

	if len(cfg.Filters) > 0 {
		filterStrings := make([]string, 0, len(cfg.Filters))
		for _, expr := range cfg.Filters {
			if err := metis.ValidateExpression(expr); err != nil {
				return nil, err
			}
			filter, err := convertExpressionToFilter(expr)
			if err != nil {
				return nil, err
			}
			filterStrings = append(filterStrings, filter)
		}
		params = append(params, opt.Filters(strings.Join(filterStrings, " AND ")))
	}

	return params, nil
}

// convertExpressionToFilter converts an expression to Algolia filter syntax.
// Compared attributes must be declared in attributesForFaceting.
func convertExpressionToFilter(expr metis.Expression) (string, error) {
	switch e := expr.(type) {
	case metis.AndExpr:
		return joinFilters(e.Exprs, " AND ")
	case metis.OrExpr:
		return joinFilters(e.Exprs, " OR ")
	case metis.NotExpr:
		inner, err := convertExpressionToFilter(e.Inner)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case metis.EqExpr:
		return fmt.Sprintf("%s:%s", escapeField(e.Field), escapeValue(e.Value)), nil
	case metis.NeExpr:
		return fmt.Sprintf("NOT %s:%s", escapeField(e.Field), escapeValue(e.Value)), nil
	case metis.ExistsExpr:
		return "", errors.WithDetailf(metis.ErrNotImplemented, "algolia has no existence filter for %q", e.Field)
	default:
		return "", errors.WithDetailf(metis.ErrInvalidExpression, "unsupported expression %T", expr)
	}
}

func joinFilters(exprs []metis.Expression, sep string) (string, error) {
	filters := make([]string, 0, len(exprs))
	for _, e := range exprs {
		filter, err := convertExpressionToFilter(e)
		if err != nil {
			return "", err
		}
		filters = append(filters, "("+filter+")")
	}
	return strings.Join(filters, sep), nil
}

// escapeField quotes attribute names containing filter syntax characters.
func escapeField(field string) string {
	field = strings.ToLower(field)
	if strings.ContainsAny(field, " :-()") {
		return fmt.Sprintf(`"%s"`, field)
	}
	return field
}

// escapeValue quotes a string value and escapes internal quotes.
func escapeValue(value string) string {
	escaped := strings.ReplaceAll(value, `"`, `\"`)
	return fmt.Sprintf(`"%s"`, escaped)
}

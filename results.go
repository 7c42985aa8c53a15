package metis

// Result is a single ranked record.
type Result struct {
	// Record is the matched guideline, shared with the collection.
	Record Record `json:"record"`

	// Score is the number of query terms that hit the record.
	Score int `json:"score"`
}

// Results represents one ranked result list with metadata.
type Results struct {
	// Items contains the ranked results for the requested page.
	Items []Result

	// Total is the number of matching records before pagination.
	Total int64

	// Took is the time taken to execute the search in milliseconds.
	Took int64

	// MaxScore is the highest score in Items.
	MaxScore int

	// Query is the raw query string. Callers use it to tell an empty query
	// apart from a query that matched nothing.
	Query string

	// NextOffset is set when more results follow this page.
	NextOffset *int
}

// Records returns the records of Items in rank order.
func (r *Results) Records() []Record {
	if r == nil {
		return nil
	}
	out := make([]Record, 0, len(r.Items))
	for _, item := range r.Items {
		out = append(out, item.Record)
	}
	return out
}

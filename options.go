package metis

// SearchOption represents a search configuration option.
type SearchOption interface {
	Apply(*SearchConfig)
}

// SearchConfig holds all search configuration parameters.
type SearchConfig struct {
	// Limit is the maximum number of results to return. Zero means every match.
	Limit int

	// Offset is the number of ranked results to skip.
	Offset int

	// Filters restrict the records considered before ranking.
	Filters []Expression
}

// NewSearchConfig applies opts to a zero SearchConfig.
func NewSearchConfig(opts ...SearchOption) *SearchConfig {
	cfg := &SearchConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(cfg)
		}
	}
	return cfg
}

// Validate reports ErrInvalidOption for negative pagination values.
func (c *SearchConfig) Validate() error {
	if c.Limit < 0 || c.Offset < 0 {
		return ErrInvalidOption
	}
	return nil
}

type optionFunc func(*SearchConfig)

// Apply implements the SearchOption interface for optionFunc.
func (f optionFunc) Apply(cfg *SearchConfig) {
	f(cfg)
}

// WithLimit sets the maximum number of results to return.
func WithLimit(n int) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Limit = n
	})
}

// WithOffset sets the number of results to skip for pagination.
func WithOffset(n int) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Offset = n
	})
}

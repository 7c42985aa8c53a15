// Package dataset loads guideline records for the search engine.
//
// Loaders are tolerant: a missing or null field becomes an empty string or
// an empty keyword list, and an entry that is not an object is skipped with a
// warning. Only failures to obtain or parse the collection as a whole are
// returned as errors.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/metis"
	"gopkg.in/yaml.v3"
)

// DecodeJSON reads a JSON array of records.
func DecodeJSON(r io.Reader) ([]metis.Record, error) {
	var entries []any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&entries); err != nil {
		return nil, errors.Wrap(err, "failed to decode JSON dataset")
	}
	return fromEntries(entries), nil
}

// DecodeYAML reads a YAML sequence of records.
func DecodeYAML(r io.Reader) ([]metis.Record, error) {
	var entries []any
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return []metis.Record{}, nil
		}
		return nil, errors.Wrap(err, "failed to decode YAML dataset")
	}
	return fromEntries(entries), nil
}

func fromEntries(entries []any) []metis.Record {
	records := make([]metis.Record, 0, len(entries))
	for i, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			slog.Warn("skipping dataset entry that is not an object", "position", i, "type", fmt.Sprintf("%T", entry))
			continue
		}
		records = append(records, RecordFromMap(fields))
	}
	return records
}

// RecordFromMap builds a record from loosely typed fields, such as a decoded
// JSON object or a search hit.
func RecordFromMap(fields map[string]any) metis.Record {
	return metis.Record{
		ID:          text(fields[metis.FieldID]),
		Category:    text(fields[metis.FieldCategory]),
		Instruction: text(fields[metis.FieldInstruction]),
		Keywords:    keywords(fields[metis.FieldKeywords]),
		Policy:      text(fields[metis.FieldPolicy]),
	}
}

// text renders scalars as strings. Nested values are dropped.
func text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func keywords(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return []string{}
		}
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// Check logs a warning for every record without an ID and every ID that
// occurs more than once, and returns the number of problems found.
// Search does not depend on unique IDs, but lookups and tie-breaks do.
func Check(ctx context.Context, records []metis.Record) int {
	problems := 0
	seen := make(map[string]int, len(records))
	for i, r := range records {
		if r.ID == "" {
			slog.WarnContext(ctx, "record without id", "position", i)
			problems++
			continue
		}
		if first, dup := seen[r.ID]; dup {
			slog.WarnContext(ctx, "duplicate record id", "id", r.ID, "position", i, "first_position", first)
			problems++
			continue
		}
		seen[r.ID] = i
	}
	return problems
}

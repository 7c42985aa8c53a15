package inmemory

import (
	"strings"

	"github.com/letmevibethatforyou/metis"
)

// matchesFilters checks if a record matches all the filter expressions.
func matchesFilters(r metis.Record, filters []metis.Expression) bool {
	for _, filter := range filters {
		if !evaluateExpression(r, filter) {
			return false
		}
	}
	return true
}

// evaluateExpression evaluates a single expression against a record.
func evaluateExpression(r metis.Record, expr metis.Expression) bool {
	switch e := expr.(type) {
	case metis.AndExpr:
		for _, inner := range e.Exprs {
			if !evaluateExpression(r, inner) {
				return false
			}
		}
		return true
	case metis.OrExpr:
		for _, inner := range e.Exprs {
			if evaluateExpression(r, inner) {
				return true
			}
		}
		return false
	case metis.NotExpr:
		return !evaluateExpression(r, e.Inner)
	case metis.EqExpr:
		return fieldEquals(r, e.Field, e.Value)
	case metis.NeExpr:
		return !fieldEquals(r, e.Field, e.Value)
	case metis.ExistsExpr:
		return fieldExists(r, e.Field)
	default:
		// Unknown expression type, return true to not filter out
		return true
	}
}

func fieldEquals(r metis.Record, field, value string) bool {
	v, ok := r.Field(field)
	if !ok {
		return false
	}

	switch fv := v.(type) {
	case string:
		return strings.EqualFold(fv, value)
	case []string:
		for _, item := range fv {
			if strings.EqualFold(item, value) {
				return true
			}
		}
	}
	return false
}

func fieldExists(r metis.Record, field string) bool {
	v, ok := r.Field(field)
	if !ok {
		return false
	}

	switch fv := v.(type) {
	case string:
		return fv != ""
	case []string:
		return len(fv) > 0
	}
	return false
}

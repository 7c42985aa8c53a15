package metis

import "github.com/cockroachdb/errors"

// Expression represents a composable filter expression over record fields.
// All Expressions are SearchOptions, but not all SearchOptions are Expressions.
type Expression interface {
	SearchOption
	// expr is a marker method to distinguish expressions from other options.
	expr()
}

type baseExpr struct{}

func (baseExpr) expr() {}

// AndExpr represents an AND combination of expressions.
type AndExpr struct {
	baseExpr
	// Exprs contains the expressions to combine with AND logic.
	Exprs []Expression
}

// Apply implements the SearchOption interface for AndExpr.
func (a AndExpr) Apply(cfg *SearchConfig) {
	cfg.Filters = append(cfg.Filters, a)
}

// And creates an AND expression combining multiple expressions.
func And(exprs ...Expression) Expression {
	return AndExpr{Exprs: exprs}
}

// OrExpr represents an OR combination of expressions.
type OrExpr struct {
	baseExpr
	// Exprs contains the expressions to combine with OR logic.
	Exprs []Expression
}

// Apply implements the SearchOption interface for OrExpr.
func (o OrExpr) Apply(cfg *SearchConfig) {
	cfg.Filters = append(cfg.Filters, o)
}

// Or creates an OR expression combining multiple expressions.
func Or(exprs ...Expression) Expression {
	return OrExpr{Exprs: exprs}
}

// NotExpr represents a NOT negation of an expression.
type NotExpr struct {
	baseExpr
	// Inner is the expression to negate.
	Inner Expression
}

// Apply implements the SearchOption interface for NotExpr.
func (n NotExpr) Apply(cfg *SearchConfig) {
	cfg.Filters = append(cfg.Filters, n)
}

// Not creates a NOT expression negating the given expression.
func Not(expr Expression) Expression {
	return NotExpr{Inner: expr}
}

// EqExpr matches records whose field equals Value, ignoring case.
// On the keywords field it matches when any keyword equals Value.
type EqExpr struct {
	baseExpr
	Field string
	Value string
}

// Apply implements the SearchOption interface for EqExpr.
func (e EqExpr) Apply(cfg *SearchConfig) {
	cfg.Filters = append(cfg.Filters, e)
}

// Eq creates an equality expression.
func Eq(field, value string) Expression {
	return EqExpr{Field: field, Value: value}
}

// NeExpr is the negation of EqExpr.
type NeExpr struct {
	baseExpr
	Field string
	Value string
}

// Apply implements the SearchOption interface for NeExpr.
func (n NeExpr) Apply(cfg *SearchConfig) {
	cfg.Filters = append(cfg.Filters, n)
}

// Ne creates a not-equal expression.
func Ne(field, value string) Expression {
	return NeExpr{Field: field, Value: value}
}

// ExistsExpr matches records whose field is non-empty.
type ExistsExpr struct {
	baseExpr
	Field string
}

// Apply implements the SearchOption interface for ExistsExpr.
func (e ExistsExpr) Apply(cfg *SearchConfig) {
	cfg.Filters = append(cfg.Filters, e)
}

// Exists creates a field existence check expression.
func Exists(field string) Expression {
	return ExistsExpr{Field: field}
}

// ValidateExpression checks that every field named in expr is a record field
// and that boolean combinators are not empty.
func ValidateExpression(expr Expression) error {
	switch e := expr.(type) {
	case AndExpr:
		return validateAll("and", e.Exprs)
	case OrExpr:
		return validateAll("or", e.Exprs)
	case NotExpr:
		if e.Inner == nil {
			return errors.WithDetail(ErrInvalidExpression, "not: missing inner expression")
		}
		return ValidateExpression(e.Inner)
	case EqExpr:
		return validateField(e.Field)
	case NeExpr:
		return validateField(e.Field)
	case ExistsExpr:
		return validateField(e.Field)
	case nil:
		return errors.WithDetail(ErrInvalidExpression, "nil expression")
	default:
		return errors.WithDetailf(ErrInvalidExpression, "unsupported expression %T", expr)
	}
}

func validateAll(op string, exprs []Expression) error {
	if len(exprs) == 0 {
		return errors.WithDetailf(ErrInvalidExpression, "%s: no expressions", op)
	}
	for _, e := range exprs {
		if err := ValidateExpression(e); err != nil {
			return err
		}
	}
	return nil
}

func validateField(field string) error {
	if _, ok := (Record{}).Field(field); !ok {
		return errors.WithDetailf(ErrInvalidExpression, "unknown field %q", field)
	}
	return nil
}

package keyset

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
)

// Dispatcher translates an Expression tree into a backend predicate of type P.
// Implementations must preserve operator semantics exactly and bind each
// comparison value once per occurrence in the tree; values are never
// deduplicated across branches. An operator outside the closed set is a hard
// ErrConfiguration, never a silent downgrade.
type Dispatcher[P any] interface {
	Render(Expression) (P, error)
}

// SQLPredicate is a rendered SQL condition with positional '?' placeholders
// and one bound value per placeholder.
type SQLPredicate struct {
	SQL  string
	Vars []driver.Value
}

// SQLDispatcher renders an Expression into a plain SQL condition string.
//
// Usage:
//
//	query := fmt.Sprintf("SELECT * FROM table WHERE %s", predicate.SQL)
type SQLDispatcher struct {
	// Resolver coerces comparison values into driver-ready bindings.
	// Nil means DefaultResolver.
	Resolver TypeResolver
}

func (d SQLDispatcher) Render(expr Expression) (SQLPredicate, error) {
	sql, vars, err := d.render(expr)
	if err != nil {
		return SQLPredicate{}, err
	}

	return SQLPredicate{SQL: sql, Vars: vars}, nil
}

func (d SQLDispatcher) render(expr Expression) (string, []driver.Value, error) {
	switch node := expr.(type) {
	case Comparison:
		if !node.Operator.Valid() {
			return "", nil, configurationErrorf("unsupported comparison operator '%s'", node.Operator)
		}

		return fmt.Sprintf("%s %s ?", node.Column, node.Operator),
			[]driver.Value{resolveValue(d.Resolver, node.Column, node.Value)},
			nil
	case And:
		return d.renderChildren(node, " AND ")
	case Or:
		return d.renderChildren(node, " OR ")
	default:
		return "", nil, configurationErrorf("unsupported expression node %T", expr)
	}
}

func (d SQLDispatcher) renderChildren(children []Expression, separator string) (string, []driver.Value, error) {
	if len(children) == 0 {
		return "", nil, configurationErrorf("empty boolean expression node")
	}

	clauses := make([]string, 0, len(children))
	vars := make([]driver.Value, 0, len(children))
	for _, child := range children {
		childSQL, childVars, err := d.render(child)
		if err != nil {
			return "", nil, err
		}

		clauses = append(clauses, childSQL)
		vars = append(vars, childVars...)
	}

	if len(clauses) == 1 {
		return clauses[0], vars, nil
	}

	return fmt.Sprintf("(%s)", strings.Join(clauses, separator)), vars, nil
}

// GORMDispatcher renders an Expression into a gorm clause.Expression, suitable
// for conjoining with a query's existing filters via db.Clauses.
type GORMDispatcher struct {
	// Resolver coerces comparison values into driver-ready bindings.
	// Nil means DefaultResolver.
	Resolver TypeResolver
}

func (d GORMDispatcher) Render(expr Expression) (clause.Expression, error) {
	switch node := expr.(type) {
	case Comparison:
		if !node.Operator.Valid() {
			return nil, configurationErrorf("unsupported comparison operator '%s'", node.Operator)
		}

		return clause.Expr{
			SQL:  fmt.Sprintf("%s %s ?", node.Column, node.Operator),
			Vars: []any{resolveValue(d.Resolver, node.Column, node.Value)},
		}, nil
	case And:
		children, err := d.renderChildren(node)
		if err != nil {
			return nil, err
		}

		if len(children) == 1 {
			return children[0], nil
		}

		return clause.And(children...), nil
	case Or:
		children, err := d.renderChildren(node)
		if err != nil {
			return nil, err
		}

		if len(children) == 1 {
			return children[0], nil
		}

		return clause.Or(children...), nil
	default:
		return nil, configurationErrorf("unsupported expression node %T", expr)
	}
}

func (d GORMDispatcher) renderChildren(children []Expression) ([]clause.Expression, error) {
	if len(children) == 0 {
		return nil, configurationErrorf("empty boolean expression node")
	}

	ret := make([]clause.Expression, 0, len(children))
	for _, child := range children {
		rendered, err := d.Render(child)
		if err != nil {
			return nil, err
		}

		ret = append(ret, rendered)
	}

	return ret, nil
}

var (
	_ Dispatcher[SQLPredicate]      = SQLDispatcher{}
	_ Dispatcher[clause.Expression] = GORMDispatcher{}
)

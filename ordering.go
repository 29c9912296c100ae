package keyset

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Direction defines the sort direction for the requested dataset.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (d Direction) Valid() bool {
	return d == DirectionASC || d == DirectionDESC
}

// ForOperator maps the direction to the strict comparison operator that
// selects rows coming after a boundary value under this direction.
func (d Direction) ForOperator() Operator {
	switch d {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", d))
	}
}

// Reversed returns the opposite direction.
func (d Direction) Reversed() Direction {
	switch d {
	case DirectionASC:
		return DirectionDESC
	case DirectionDESC:
		return DirectionASC
	default:
		panic(fmt.Errorf("cannot reverse direction '%s'", d))
	}
}

type (
	// Orderings is the validated multi-column sort specification. Columns are
	// listed in the exact precedence order used for comparison.
	Orderings []OrderBy
	OrderBy   struct {
		Column    string
		Direction Direction
	}

	ColumnAlias = string

	// ColumnMapping maps external column aliases to fully qualified column names.
	// Use it when bare column names could cause an "ambiguous column name" error.
	// Key is an external alias, value is an internal column name.
	ColumnMapping = map[ColumnAlias]string
)

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

func (o OrderBy) validate() error {
	if !o.Direction.Valid() {
		return configurationErrorf("invalid ordering direction '%s'", o.Direction)
	}

	// Guard against SQL injection by restricting allowed characters in column names.
	if !lo.Every(_availableColumnNameSymbols, []rune(o.Column)) {
		return configurationErrorf("ordering column name contains forbidden symbols '%s'", o.Column)
	}

	return nil
}

// Reversed returns a new specification with every direction flipped and the
// column precedence preserved. Pure; the receiver is not modified.
func (o Orderings) Reversed() Orderings {
	ret := make(Orderings, 0, len(o))
	for _, ordering := range o {
		ret = append(ret, OrderBy{
			Column:    ordering.Column,
			Direction: ordering.Direction.Reversed(),
		})
	}

	return ret
}

// Columns returns the column names in precedence order.
func (o Orderings) Columns() []string {
	return lo.Map(o, func(ordering OrderBy, _ int) string {
		return ordering.Column
	})
}

// ToSQLSlice converts Orderings to a slice of strings in the form
// "<order_column> <order_direction>" suitable for SQL query builders.
//
// Example: for Orderings: [{"a", "ASC"}, {"b", "DESC"}] returns ["a ASC", "b DESC"].
func (o Orderings) ToSQLSlice() []string {
	ret := make([]string, 0, len(o))
	for _, ordering := range o {
		ret = append(ret, fmt.Sprintf("%s %s", ordering.Column, ordering.Direction))
	}

	return ret
}

// ToSQL converts Orderings to a single string
// "<order_column_1> <order_direction_1>, <order_column_2> <order_direction_2>"
// suitable for embedding into an SQL query.
// Example: for [{"a", "ASC"}, {"b", "DESC"}] returns "a ASC, b DESC".
func (o Orderings) ToSQL() string {
	return strings.Join(o.ToSQLSlice(), ", ")
}

// Apply applies the ordering to a gorm query.
func (o Orderings) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(o.ToSQL())
}

func (o Orderings) validate() error {
	if len(o) == 0 {
		return configurationErrorf("empty ordering list")
	}

	seen := make(map[string]struct{}, len(o))
	for _, ordering := range o {
		if err := ordering.validate(); err != nil {
			return err
		}

		if _, ok := seen[ordering.Column]; ok {
			return configurationErrorf("duplicate ordering column '%s'", ordering.Column)
		}
		seen[ordering.Column] = struct{}{}
	}

	return nil
}

// ParseSort builds Orderings from a list of strings in the format
// "column asc|desc". Column aliases are resolved via ColumnMapping.
// An alias that cannot be resolved yields ErrValidation with the closest
// known alias as a hint; an unrecognized direction yields ErrConfiguration.
func ParseSort(stringsOrderings []string, columnMapping ColumnMapping) (Orderings, error) {
	ret := make(Orderings, 0, len(stringsOrderings))
	aliases := lo.Keys(columnMapping)

	for _, stringOrdering := range stringsOrderings {
		cutStringOrdering := strings.Split(strings.TrimSpace(stringOrdering), " ")
		if len(cutStringOrdering) != 2 {
			return nil, validationErrorf("invalid ordering string format '%s'", stringOrdering)
		}

		columnAlias := cutStringOrdering[0]
		direction := Direction(strings.ToUpper(cutStringOrdering[1]))
		if !direction.Valid() {
			return nil, configurationErrorf("invalid ordering direction '%s'", cutStringOrdering[1])
		}

		columnName := columnMapping[columnAlias]
		if columnName == "" {
			return nil, validationErrorf("invalid column alias '%s'. closest: '%s'", columnAlias, closestAlias(columnAlias, aliases))
		}

		ret = append(ret, OrderBy{
			Column:    columnName,
			Direction: direction,
		})
	}

	if err := ret.validate(); err != nil {
		return nil, err
	}

	return ret, nil
}

// DeriveOrderings reads the declared ORDER BY clause off a gorm query.
// It understands both structured clause.OrderByColumn entries and raw string
// orderings added via db.Order("a ASC, b DESC"). A query with no declared
// ordering yields ErrConfiguration.
func DeriveOrderings(db *gorm.DB) (Orderings, error) {
	if db == nil {
		return nil, configurationErrorf("nil query")
	}

	c, ok := db.Statement.Clauses["ORDER BY"]
	if !ok {
		return nil, configurationErrorf("query declares no ordering")
	}

	orderBy, ok := c.Expression.(clause.OrderBy)
	if !ok {
		return nil, validationErrorf("unexpected ORDER BY clause expression %T", c.Expression)
	}

	ret := make(Orderings, 0, len(orderBy.Columns))
	for _, col := range orderBy.Columns {
		if col.Column.Raw {
			parsed, err := parseRawOrdering(col.Column.Name)
			if err != nil {
				return nil, err
			}
			ret = append(ret, parsed...)

			continue
		}

		ret = append(ret, OrderBy{
			Column:    col.Column.Name,
			Direction: lo.Ternary(col.Desc, DirectionDESC, DirectionASC),
		})
	}

	if err := ret.validate(); err != nil {
		return nil, err
	}

	return ret, nil
}

// parseRawOrdering splits a raw ordering string "a ASC, b DESC" into OrderBy
// entries. A bare column name defaults to ascending, matching SQL semantics.
func parseRawOrdering(raw string) (Orderings, error) {
	ret := make(Orderings, 0, 1)
	for _, part := range strings.Split(raw, ",") {
		fields := strings.Fields(part)
		switch len(fields) {
		case 1:
			ret = append(ret, OrderBy{Column: fields[0], Direction: DirectionASC})
		case 2:
			direction := Direction(strings.ToUpper(fields[1]))
			if !direction.Valid() {
				return nil, configurationErrorf("invalid ordering direction '%s'", fields[1])
			}
			ret = append(ret, OrderBy{Column: fields[0], Direction: direction})
		default:
			return nil, validationErrorf("cannot parse ordering expression '%s'", strings.TrimSpace(part))
		}
	}

	return ret, nil
}

func closestAlias(input ColumnAlias, dataSet []ColumnAlias) ColumnAlias {
	minDist := math.MaxInt
	closest := ""

	for _, dataSetAlias := range dataSet {
		dist := levenshtein([]rune(dataSetAlias), []rune(input))
		if dist < minDist {
			minDist = dist
			closest = dataSetAlias
		}
	}

	return closest
}

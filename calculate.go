package keyset

import "github.com/samber/lo"

// Boundary holds the sort-column values of a specific row, keyed by column
// name. It is the pagination cursor: a page request carrying a boundary
// returns rows strictly after (or before, see Bound) that row in the total
// order. An empty boundary means "first page".
type Boundary map[string]any

// Calculate builds the keyset predicate for the given ordering and boundary:
// a row satisfies the result iff it is lexicographically strictly after the
// boundary tuple with each column's direction applied.
//
// For columns C1..Cn the result is
//
//	(C1 op1 V1) OR (C1 = V1 AND C2 op2 V2) OR ... OR (C1 = V1 AND ... AND Cn opn Vn)
//
// where opi is the strict operator for the column's direction (ASC -> '>',
// DESC -> '<'). Each disjunct matches rows whose first differing column is Ci.
// A single-column ordering degenerates to one Comparison.
//
// A nil or empty boundary yields a nil Expression (no predicate, first page).
// The boundary must cover exactly the ordering's columns; a missing or extra
// column is a caller contract violation and yields ErrConfiguration.
func Calculate(ordering Orderings, boundary Boundary) (Expression, error) {
	if len(boundary) == 0 {
		return nil, nil
	}

	if err := ordering.validate(); err != nil {
		return nil, err
	}

	columns := make(map[string]struct{}, len(ordering))
	for _, orderBy := range ordering {
		if _, ok := boundary[orderBy.Column]; !ok {
			return nil, configurationErrorf("boundary misses ordering column '%s'", orderBy.Column)
		}
		columns[orderBy.Column] = struct{}{}
	}
	for column := range boundary {
		if _, ok := columns[column]; !ok {
			return nil, configurationErrorf("boundary column '%s' is not present in ordering", column)
		}
	}

	disjuncts := make([]Expression, 0, len(ordering))
	for i, orderBy := range ordering {
		equalityPrefix := lo.Map(ordering[:i], func(prev OrderBy, _ int) Expression {
			return Comparison{
				Column:   prev.Column,
				Operator: OperatorEQ,
				Value:    boundary[prev.Column],
			}
		})

		strict := Comparison{
			Column:   orderBy.Column,
			Operator: orderBy.Direction.ForOperator(),
			Value:    boundary[orderBy.Column],
		}

		if len(equalityPrefix) == 0 {
			disjuncts = append(disjuncts, strict)
			continue
		}

		disjuncts = append(disjuncts, And(append(equalityPrefix, strict)))
	}

	if len(disjuncts) == 1 {
		return disjuncts[0], nil
	}

	return Or(disjuncts), nil
}

package keyset

// Expression is a logical predicate tree over row columns. The node set is
// closed: Comparison is the only leaf, And and Or are the only combinators.
// A tree is built fresh per request and never mutated after construction;
// backends translate it with one recursive function each (see Dispatcher).
type Expression interface {
	expressionNode()
}

// Comparison is a single "column <op> value" leaf.
type Comparison struct {
	Column   string
	Operator Operator
	Value    any
}

// And is the conjunction of its children. Must be non-empty.
type And []Expression

// Or is the disjunction of its children. Must be non-empty.
type Or []Expression

func (Comparison) expressionNode() {}
func (And) expressionNode()        {}
func (Or) expressionNode()         {}

var (
	_ Expression = Comparison{}
	_ Expression = And(nil)
	_ Expression = Or(nil)
)

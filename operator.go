package keyset

// Operator defines a comparison operator for a single predicate leaf.
type Operator string

const (
	OperatorGT  Operator = ">"
	OperatorLT  Operator = "<"
	OperatorGTE Operator = ">="
	OperatorLTE Operator = "<="
	OperatorEQ  Operator = "="
)

func (o Operator) Valid() bool {
	switch o {
	case OperatorGT, OperatorLT, OperatorGTE, OperatorLTE, OperatorEQ:
		return true
	default:
		return false
	}
}

// Strict reports whether the operator excludes the compared value itself.
// The keyset calculator emits only strict operators and equality.
func (o Operator) Strict() bool {
	return o == OperatorGT || o == OperatorLT
}

package core

import "strings"

// Operator is a restriction operator.
type Operator int

// Restriction operators.
const (
	OpEQ Operator = iota + 1
	OpNE
	OpGT
	OpGE
	OpLT
	OpLE
	OpLike
	OpILike
	OpIn
	OpIsNull
	OpAnd
	OpOr
	OpNot
)

// String returns the DAL spelling of the operator.
func (o Operator) String() string {
	switch o {
	case OpEQ:
		return "="
	case OpNE:
		return "<>"
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpLike:
		return "LIKE"
	case OpILike:
		return "ILIKE"
	case OpIn:
		return "IN"
	case OpIsNull:
		return "ISNULL"
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpNot:
		return "NOT"
	}
	return "?"
}

// Name returns the wire name of the operator used in JCR documents.
func (o Operator) Name() string {
	switch o {
	case OpEQ:
		return "eq"
	case OpNE:
		return "ne"
	case OpGT:
		return "gt"
	case OpGE:
		return "ge"
	case OpLT:
		return "lt"
	case OpLE:
		return "le"
	case OpLike:
		return "like"
	case OpILike:
		return "ilike"
	case OpIn:
		return "in"
	case OpIsNull:
		return "isnull"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	}
	return ""
}

// IsComparison reports whether the operator compares a property to one value.
func (o Operator) IsComparison() bool {
	return o >= OpEQ && o <= OpILike
}

// IsPattern reports whether the operator takes a wildcard pattern.
func (o Operator) IsPattern() bool {
	return o == OpLike || o == OpILike
}

// IsJunction reports whether the operator is AND or OR.
func (o Operator) IsJunction() bool {
	return o == OpAnd || o == OpOr
}

// IsBoolean reports whether the operator combines other restrictions.
func (o Operator) IsBoolean() bool {
	return o.IsJunction() || o == OpNot
}

// LookupOperator returns the operator spelled s in DAL text.
// Word operators match case-insensitively.
func LookupOperator(s string) (Operator, bool) {
	switch s {
	case "=":
		return OpEQ, true
	case "<>":
		return OpNE, true
	case ">":
		return OpGT, true
	case ">=":
		return OpGE, true
	case "<":
		return OpLT, true
	case "<=":
		return OpLE, true
	}
	switch strings.ToUpper(s) {
	case "LIKE":
		return OpLike, true
	case "ILIKE":
		return OpILike, true
	case "IN":
		return OpIn, true
	case "ISNULL":
		return OpIsNull, true
	case "AND":
		return OpAnd, true
	case "OR":
		return OpOr, true
	case "NOT":
		return OpNot, true
	}
	return 0, false
}

// OperatorByName returns the operator with the given wire name.
func OperatorByName(name string) (Operator, bool) {
	for o := OpEQ; o <= OpNot; o++ {
		if strings.EqualFold(o.Name(), name) {
			return o, true
		}
	}
	return 0, false
}

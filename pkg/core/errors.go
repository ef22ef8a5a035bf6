package core

import (
	"fmt"

	"github.com/leapstack-labs/dalc/pkg/token"
)

// SyntaxError reports malformed query text or a malformed document
// structure. Fragment is the offending token or node.
type SyntaxError struct {
	Pos      token.Position
	Fragment string
	Message  string
}

func (e *SyntaxError) Error() string {
	switch {
	case e.Pos.IsValid():
		return fmt.Sprintf("syntax error at %s near '%s': %s", e.Pos, e.Fragment, e.Message)
	case e.Fragment != "":
		return fmt.Sprintf("syntax error near '%s': %s", e.Fragment, e.Message)
	default:
		return "syntax error: " + e.Message
	}
}

// SchemaError reports a query that is well formed but inconsistent with
// the schema. Fields lists the offending property paths when known.
type SchemaError struct {
	Message string
	Fields  []string
}

func (e *SchemaError) Error() string {
	return "schema error: " + e.Message
}

// Syntaxf returns a SyntaxError located at tok.
func Syntaxf(tok token.Token, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: tok.Pos, Fragment: tok.String(), Message: sprintf(format, args...)}
}

// Schemaf returns a SchemaError naming the given fields.
func Schemaf(fields []string, format string, args ...any) *SchemaError {
	return &SchemaError{Message: sprintf(format, args...), Fields: fields}
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Common error messages
const (
	ErrNoSelect            = "query does not start with the SELECT keyword"
	ErrEmptySelect         = "the query does not select any fields or aggregate functions"
	ErrNoFrom              = "the query does not contain the FROM keyword"
	ErrNoType              = "type name expected after FROM"
	ErrUnknownType         = "no type found with API name %s (API names are case-sensitive)"
	ErrUnknownField        = "field %s not found on type %s"
	ErrNotRelationship     = "property %s on type %s is neither a type reference nor a collection"
	ErrWholeRelationship   = "cannot reference whole relationship '%s'; list specific fields of the relationship instead, e.g. '%s.id'"
	ErrNoDefaultField      = "type %s has no default field"
	ErrUnexpectedToken     = "unexpected token, expected %s"
	ErrMisplacedToken      = "misplaced token %s; clauses should appear in the following order: WHERE, GROUP BY, ORDER BY, LIMIT, OFFSET"
	ErrDuplicateClause     = "clause %s appears more than once"
	ErrDanglingKeyword     = "%s must be followed by BY"
	ErrEmptyClause         = "%s clause is empty"
	ErrAggregateBracket    = "bracket expected after aggregate function %s"
	ErrAggregateProperty   = "aggregate function %s takes exactly one property"
	ErrStrayBracket        = "bracket found in SELECT clause that is not preceded by an aggregate function name"
	ErrMixedAggregates     = "cannot call aggregate function on both collections and non-collections"
	ErrAggregateDatatype   = "aggregate function %s cannot be applied to %s field %s"
	ErrNotGrouped          = "the following properties should be used either in an aggregate function or a GROUP BY clause: %s"
	ErrOrderComma          = "error in ORDER BY clause: order by property not defined, comma encountered"
	ErrOrderEnd            = "error in ORDER BY clause: order by property not defined, end of ORDER BY clause reached"
	ErrGroupComma          = "error in GROUP BY clause: grouping property not defined, comma encountered"
	ErrExpectedInteger     = "expected a non-negative integer after the %s keyword"
	ErrMissingInteger      = "row %s expected after the %s keyword"
	ErrUnterminatedString  = "unterminated string literal"
	ErrUnmatchedBracket    = "unmatched bracket"
	ErrEmptyRestriction    = "empty restriction"
	ErrIncomplete          = "all brackets are closed, but the restriction is not completed"
	ErrUnclosedBrackets    = "restriction is completed, but not all brackets are closed"
	ErrMixedJunction       = "cannot mix AND and OR at the same level without brackets"
	ErrOperatorSet         = "operator %s already set for this restriction"
	ErrMissingOperand      = "operator %s is missing its left-hand property"
	ErrMissingOperator     = "operator expected after property %s"
	ErrIsNullMisplaced     = "ISNULL must directly follow a property"
	ErrInNeedsBracket      = "IN must be followed by a bracketed list of values or a subquery"
	ErrEmptyInList         = "IN list is empty"
	ErrNestedBracket       = "nested brackets are not allowed in an IN list"
	ErrTooDeep             = "restriction nesting exceeds the maximum depth of %d"
	ErrSubqueryColumns     = "a subquery must select exactly one field"
	ErrSubqueryFormula     = "a subquery cannot select formula field %s"
	ErrSubqueryDatatype    = "data type of field %s queried in subquery does not match the field %s in the IN condition"
	ErrPIRMismatch         = "property name '%s' does not match the property id %s (it identifies property %s)"
	ErrUnknownFieldID      = "no field with id %s on type %s"
	ErrMissingPropertyRef  = "property reference has neither an id nor a name"
	ErrUnknownOperator     = "unknown restriction operator %q"
	ErrUnexpectedObjectArg = "did not expect JSON object as restriction argument for operator %s"
	ErrArgumentCount       = "operator %s expects %s"
	ErrUnsupportedArg      = "unsupported JSON node as restriction argument for operator %s"
	ErrMissingBaseType     = "document has neither a base type id nor a base type name"
	ErrUnknownTypeID       = "no type found with id %s"
	ErrBaseTypeMismatch    = "base type name '%s' does not match the base type id %s (it identifies type %s)"
	ErrUnknownAggregate    = "unknown aggregate function %q"
	ErrUnknownDirection    = "unknown sort direction %q"
	ErrNegativeCount       = "%s must not be negative"
)

// ErrInvalidLiteral reports a value that cannot be formatted for a field.
const ErrInvalidLiteral = "value '%s' is not a valid %s for field %s"

package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/shopspring/decimal"
)

// LiteralFormatter turns restriction values into SQL literals for a field.
// Pattern is used for LIKE and ILIKE and must keep wildcards intact.
type LiteralFormatter interface {
	Literal(f *core.Field, v any) (string, error)
	Pattern(f *core.Field, v any) (string, error)
}

// PostgresLiterals formats literals the way PostgreSQL parses them.
type PostgresLiterals struct{}

var _ LiteralFormatter = PostgresLiterals{}

var dateTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

// Literal implements LiteralFormatter.
func (PostgresLiterals) Literal(f *core.Field, v any) (string, error) {
	s := Text(v)
	switch f.Type.Kind {
	case core.KindNumber:
		d, err := toDecimal(v)
		if err != nil {
			return "", invalid(f, s)
		}
		return d.String(), nil
	case core.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			var err error
			if b, err = strconv.ParseBool(s); err != nil {
				return "", invalid(f, s)
			}
		}
		if b {
			return "TRUE", nil
		}
		return "FALSE", nil
	case core.KindDate:
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return "", invalid(f, s)
		}
	case core.KindDateTime:
		if !parsesAsDateTime(s) {
			return "", invalid(f, s)
		}
	}
	return Quote(s), nil
}

// Pattern implements LiteralFormatter. Patterns are always text, whatever
// the field's datatype.
func (PostgresLiterals) Pattern(_ *core.Field, v any) (string, error) {
	return Quote(Text(v)), nil
}

// Quote returns s as a single-quoted SQL string literal.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Text returns the textual form of a restriction value.
func Text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case decimal.Decimal:
		return x.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case decimal.Decimal:
		return x, nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(x))
	}
	return decimal.Decimal{}, fmt.Errorf("not a number: %v", v)
}

func parsesAsDateTime(s string) bool {
	for _, layout := range dateTimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func invalid(f *core.Field, s string) error {
	return core.Schemaf([]string{f.Name}, core.ErrInvalidLiteral, s, f.Type.Kind, f.Name)
}

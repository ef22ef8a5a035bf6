package render

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/dalc/pkg/core"
)

// restriction renders a restriction tree. Every node is bracketed so the
// SQL keeps the tree's grouping.
func (s *scope) restriction(r core.Restriction) (string, error) {
	switch n := r.(type) {
	case *core.Comparison:
		return s.comparison(n)

	case *core.IsNull:
		col, _, err := s.column(n.Property)
		if err != nil {
			return "", err
		}
		return "(" + col + " IS NULL)", nil

	case *core.In:
		col, f, err := s.column(n.Property)
		if err != nil {
			return "", err
		}
		if n.Subquery != nil {
			sub, err := s.r.Render(n.Subquery)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("(%s IN (%s))", col, sub), nil
		}
		values := make([]string, len(n.Values))
		for i, v := range n.Values {
			if values[i], err = s.r.literals.Literal(f, v); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("(%s IN (%s))", col, strings.Join(values, ", ")), nil

	case *core.Not:
		child, err := s.restriction(n.Child)
		if err != nil {
			return "", err
		}
		return "(NOT " + child + ")", nil

	case *core.Junction:
		children := make([]string, len(n.Children))
		for i, c := range n.Children {
			sql, err := s.restriction(c)
			if err != nil {
				return "", err
			}
			children[i] = sql
		}
		return "(" + strings.Join(children, " "+n.Op.String()+" ") + ")", nil
	}
	return "", fmt.Errorf("unsupported restriction %T", r)
}

func (s *scope) comparison(n *core.Comparison) (string, error) {
	col, f, err := s.column(n.Property)
	if err != nil {
		return "", err
	}
	var value string
	if n.Op.IsPattern() {
		if !f.Type.IsTextual() {
			col = "CAST(" + col + " AS TEXT)"
		}
		value, err = s.r.literals.Pattern(f, n.Value)
	} else {
		value, err = s.r.literals.Literal(f, n.Value)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", col, n.Op, value), nil
}

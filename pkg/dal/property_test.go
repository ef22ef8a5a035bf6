package dal_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/leapstack-labs/dalc/internal/testutil"
	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/dal"
	"pgregory.net/rapid"
)

var (
	restrictionProperties = []string{"age", "name", "color", "father.name", "owner.name"}
	comparisonOperators   = []core.Operator{
		core.OpEQ, core.OpNE, core.OpGT, core.OpGE, core.OpLT, core.OpLE, core.OpLike, core.OpILike,
	}
)

func drawValue(rt *rapid.T) any {
	return rapid.StringMatching(`[A-Za-z0-9 %_'\\]{0,8}`).Draw(rt, "value")
}

func drawRestriction(rt *rapid.T, depth int) core.Restriction {
	kind := rapid.IntRange(0, 4).Draw(rt, "kind")
	if depth <= 0 {
		kind %= 3
	}
	property := rapid.SampledFrom(restrictionProperties).Draw(rt, "property")

	switch kind {
	case 0:
		return &core.Comparison{
			Op:       rapid.SampledFrom(comparisonOperators).Draw(rt, "op"),
			Property: property,
			Value:    drawValue(rt),
		}
	case 1:
		return &core.IsNull{Property: property}
	case 2:
		n := rapid.IntRange(1, 3).Draw(rt, "values")
		values := make([]any, n)
		for i := range values {
			values[i] = drawValue(rt)
		}
		return &core.In{Property: property, Values: values}
	case 3:
		return &core.Not{Child: drawRestriction(rt, depth-1)}
	default:
		n := rapid.IntRange(2, 3).Draw(rt, "children")
		children := make([]core.Restriction, n)
		for i := range children {
			children[i] = drawRestriction(rt, depth-1)
		}
		op := rapid.SampledFrom([]core.Operator{core.OpAnd, core.OpOr}).Draw(rt, "junction")
		return &core.Junction{Op: op, Children: children}
	}
}

// Formatting a restriction tree and compiling the text yields the same tree.
func TestFormat_RoundTripProperty(t *testing.T) {
	c := dal.NewCompiler(testutil.Catalog(t), dal.WithBasePackage(testutil.BasePackage))
	base, err := c.Compile("SELECT name FROM Pigeon")
	if err != nil {
		t.Fatal(err)
	}

	rapid.Check(t, func(rt *rapid.T) {
		crit := *base
		crit.Where = drawRestriction(rt, 3)

		text := dal.Format(&crit)
		again, err := c.Compile(text)
		if err != nil {
			rt.Fatalf("compiling %q: %v", text, err)
		}
		if got := dal.Format(again); got != text {
			rt.Fatalf("round trip changed the query:\n  %s\n  %s", text, got)
		}
		if !restrictionsEqual(crit.Where, again.Where) {
			rt.Fatalf("round trip changed the restriction of %q", text)
		}
	})
}

func restrictionsEqual(a, b core.Restriction) bool {
	switch x := a.(type) {
	case *core.Comparison:
		y, ok := b.(*core.Comparison)
		return ok && *x == *y
	case *core.IsNull:
		y, ok := b.(*core.IsNull)
		return ok && *x == *y
	case *core.In:
		y, ok := b.(*core.In)
		return ok && x.Property == y.Property && slices.Equal(x.Values, y.Values)
	case *core.Not:
		y, ok := b.(*core.Not)
		return ok && restrictionsEqual(x.Child, y.Child)
	case *core.Junction:
		y, ok := b.(*core.Junction)
		if !ok || x.Op != y.Op || len(x.Children) != len(y.Children) {
			return false
		}
		for i := range x.Children {
			if !restrictionsEqual(x.Children[i], y.Children[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Clauses compile only in canonical order.
func TestCompile_ClauseOrderProperty(t *testing.T) {
	clauses := []string{"WHERE age > 1", "GROUP BY age", "ORDER BY age", "LIMIT 5", "OFFSET 2"}
	c := dal.NewCompiler(testutil.Catalog(t), dal.WithBasePackage(testutil.BasePackage))

	rapid.Check(t, func(rt *rapid.T) {
		order := rapid.Permutation([]int{0, 1, 2, 3, 4}).Draw(rt, "order")
		order = order[:rapid.IntRange(1, len(order)).Draw(rt, "count")]

		parts := []string{"SELECT age FROM Pigeon"}
		for _, i := range order {
			parts = append(parts, clauses[i])
		}
		query := strings.Join(parts, " ")

		_, err := c.Compile(query)
		if slices.IsSorted(order) {
			if err != nil {
				rt.Fatalf("%q: unexpected error %v", query, err)
			}
			return
		}
		var syntaxErr *core.SyntaxError
		if !errors.As(err, &syntaxErr) || !strings.HasPrefix(syntaxErr.Message, "misplaced token") {
			rt.Fatalf("%q: expected misplaced token error, got %v", query, err)
		}
	})
}

// Under aggregation every selected property must be grouped.
func TestCompile_GroupingProperty(t *testing.T) {
	fields := []string{"age", "name", "color"}
	c := dal.NewCompiler(testutil.Catalog(t), dal.WithBasePackage(testutil.BasePackage))

	rapid.Check(t, func(rt *rapid.T) {
		props := rapid.SliceOfNDistinct(rapid.SampledFrom(fields), 0, 3, rapid.ID[string]).Draw(rt, "properties")
		groups := rapid.SliceOfNDistinct(rapid.SampledFrom(fields), 0, 3, rapid.ID[string]).Draw(rt, "groups")
		aggregate := len(props) == 0 || rapid.Bool().Draw(rt, "aggregate")

		selectList := slices.Clone(props)
		if aggregate {
			selectList = append(selectList, "count(id)")
		}
		query := "SELECT " + strings.Join(selectList, ", ") + " FROM Pigeon"
		if len(groups) > 0 {
			query += " GROUP BY " + strings.Join(groups, ", ")
		}

		var ungrouped []string
		if aggregate || len(groups) > 0 {
			for _, p := range props {
				if !slices.Contains(groups, p) {
					ungrouped = append(ungrouped, p)
				}
			}
		}

		_, err := c.Compile(query)
		if len(ungrouped) == 0 {
			if err != nil {
				rt.Fatalf("%q: unexpected error %v", query, err)
			}
			return
		}
		var schemaErr *core.SchemaError
		if !errors.As(err, &schemaErr) || !slices.Equal(schemaErr.Fields, ungrouped) {
			rt.Fatalf("%q: expected grouping error for %v, got %v", query, ungrouped, err)
		}
	})
}

package jcr_test

import (
	"testing"

	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/dal"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var (
	selectable  = []string{"name", "age", "color", "father.name", "owner.name", "owner.active", "mother.father.age"}
	comparisons = []core.Operator{core.OpEQ, core.OpNE, core.OpGT, core.OpGE, core.OpLT, core.OpLE, core.OpLike, core.OpILike}
)

func drawValue(rt *rapid.T) any {
	return rapid.StringMatching(`[A-Za-z0-9 %_'\\]{0,8}`).Draw(rt, "value")
}

func drawRestriction(rt *rapid.T, depth int) core.Restriction {
	kind := rapid.IntRange(0, 4).Draw(rt, "kind")
	if depth <= 0 {
		kind %= 3
	}
	property := rapid.SampledFrom(selectable).Draw(rt, "property")

	switch kind {
	case 0:
		return &core.Comparison{Op: rapid.SampledFrom(comparisons).Draw(rt, "op"), Property: property, Value: drawValue(rt)}
	case 1:
		return &core.IsNull{Property: property}
	case 2:
		values := make([]any, rapid.IntRange(1, 3).Draw(rt, "values"))
		for i := range values {
			values[i] = drawValue(rt)
		}
		return &core.In{Property: property, Values: values}
	case 3:
		return &core.Not{Child: drawRestriction(rt, depth-1)}
	default:
		children := make([]core.Restriction, rapid.IntRange(2, 3).Draw(rt, "children"))
		for i := range children {
			children[i] = drawRestriction(rt, depth-1)
		}
		return &core.Junction{Op: rapid.SampledFrom([]core.Operator{core.OpAnd, core.OpOr}).Draw(rt, "junction"), Children: children}
	}
}

// Any compiled query survives encoding, JSON and decoding unchanged.
func TestRoundTripProperty(t *testing.T) {
	f := newFixture(t)
	pigeon, ok := f.catalog.TypeByName("acme.Pigeon")
	if !ok {
		t.Fatal("fixture has no acme.Pigeon")
	}

	rapid.Check(t, func(rt *rapid.T) {
		crit := core.NewCriteria(pigeon)
		crit.Properties = rapid.SliceOfNDistinct(rapid.SampledFrom(selectable), 1, 3, rapid.ID[string]).Draw(rt, "properties")
		if rapid.Bool().Draw(rt, "where") {
			crit.Where = drawRestriction(rt, 2)
		}
		for _, p := range rapid.SliceOfNDistinct(rapid.SampledFrom(selectable), 0, 2, rapid.ID[string]).Draw(rt, "orderings") {
			dir := rapid.SampledFrom([]core.Direction{core.Asc, core.Desc}).Draw(rt, "direction")
			crit.OrderBy = append(crit.OrderBy, core.Ordering{Property: p, Direction: dir})
		}
		if rapid.Bool().Draw(rt, "limit") {
			n := rapid.IntRange(0, 100).Draw(rt, "n")
			crit.Limit = &n
		}

		text := dal.Format(crit)
		compiled, err := f.compiler.Compile(text)
		if err != nil {
			rt.Fatalf("compiling %q: %v", text, err)
		}
		got := f.roundTrip(rt, compiled)
		assert.Equal(rt, compiled, got, text)
	})
}

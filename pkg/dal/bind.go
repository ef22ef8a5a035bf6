package dal

import (
	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/schema"
	"github.com/leapstack-labs/dalc/pkg/token"
)

// bindSelect resolves the select list against the queried type.
func (p *queryParser) bindSelect(items []selectItem) error {
	typ := p.crit.Type
	onCollections, onScalars := 0, 0
	for _, item := range items {
		path := item.path.Text
		if item.wildcard {
			if typ.DefaultField == "" {
				return core.Schemaf(nil, core.ErrNoDefaultField, typ.Name)
			}
			path = typ.DefaultField
		}

		steps, err := schema.Walk(p.c.resolver, typ, path)
		if err != nil {
			return err
		}
		if !schema.Leaf(steps).Type.IsPrimitive() {
			return core.Syntaxf(item.path, core.ErrWholeRelationship, path, path)
		}

		if item.fn != 0 {
			if err := schema.CheckAggregate(item.fn, path, schema.Leaf(steps)); err != nil {
				return err
			}
			if schema.IsCollectionPath(steps) {
				onCollections++
			} else {
				onScalars++
			}
			if onCollections > 0 && onScalars > 0 {
				return core.Syntaxf(item.path, core.ErrMixedAggregates)
			}
			p.crit.Aggregates = append(p.crit.Aggregates, core.AggregateCall{Func: item.fn, Property: path})
		} else if !contains(p.crit.Properties, path) {
			p.crit.Properties = append(p.crit.Properties, path)
		}
		p.crit.AddPath(path)
	}
	return nil
}

// bindKey resolves a grouping or ordering property. Scalar fields and
// to-one references qualify.
func (p *queryParser) bindKey(t token.Token) error {
	_, err := p.bindPath(t)
	return err
}

func (p *queryParser) bindPath(t token.Token) (*core.Field, error) {
	steps, err := schema.Walk(p.c.resolver, p.crit.Type, t.Text)
	if err != nil {
		return nil, err
	}
	leaf := schema.Leaf(steps)
	if leaf.Type.IsCollection() {
		return nil, core.Syntaxf(t, core.ErrWholeRelationship, t.Text, t.Text)
	}
	p.crit.AddPath(t.Text)
	return leaf, nil
}

// bindRestriction validates every property of the restriction tree and
// checks IN subqueries against the property they are compared with.
func (p *queryParser) bindRestriction(root core.Restriction) error {
	var err error
	core.Walk(root, func(r core.Restriction) bool {
		if err != nil {
			return false
		}
		path, ok := core.PropertyOf(r)
		if !ok {
			return true
		}
		var f *core.Field
		if f, err = p.bindPath(token.Token{Kind: token.WORD, Text: path}); err != nil {
			return false
		}
		if in, ok := r.(*core.In); ok && in.Subquery != nil {
			err = CheckSubquery(p.c.resolver, path, f, in.Subquery)
		}
		return true
	})
	return err
}

// CheckSubquery verifies that sub selects exactly one non-formula field
// whose datatype matches the field f compared against it.
func CheckSubquery(r core.Resolver, path string, f *core.Field, sub *core.Criteria) error {
	if len(sub.Properties) != 1 || len(sub.Aggregates) != 0 {
		return core.Schemaf([]string{path}, core.ErrSubqueryColumns)
	}
	selected := sub.Properties[0]
	steps, err := schema.Walk(r, sub.Type, selected)
	if err != nil {
		return err
	}
	leaf := schema.Leaf(steps)
	if leaf.Type.Kind == core.KindFormula {
		return core.Schemaf([]string{selected}, core.ErrSubqueryFormula, selected)
	}
	if comparableKind(leaf) != comparableKind(f) {
		return core.Schemaf([]string{path, selected}, core.ErrSubqueryDatatype, selected, path)
	}
	return nil
}

// comparableKind treats a to-one reference as the id it stores.
func comparableKind(f *core.Field) core.Kind {
	if f.Type.Kind == core.KindReference {
		return core.KindID
	}
	return f.Type.Kind
}

package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/schema"
)

// scope tracks the join aliases one statement uses.
type scope struct {
	r       *Renderer
	crit    *core.Criteria
	aliases map[string]string // path prefix -> alias, every prefix of c
	used    map[string]string // prefixes actually joined
}

func newScope(r *Renderer, c *core.Criteria) *scope {
	return &scope{r: r, crit: c, aliases: aliasesOf(c), used: make(map[string]string)}
}

// aliasesOf returns c.Aliases when it covers every path prefix of c, and
// otherwise a freshly assigned alias map.
func aliasesOf(c *core.Criteria) map[string]string {
	fresh := &core.Criteria{}
	for _, p := range c.Paths() {
		fresh.AddPath(p)
	}
	for prefix := range fresh.Aliases {
		if _, ok := c.Aliases[prefix]; !ok {
			return fresh.Aliases
		}
	}
	return c.Aliases
}

// alias returns the alias of a path prefix and marks it and its parents as
// joined. The empty prefix is the base table.
func (s *scope) alias(prefix string) string {
	if prefix == "" {
		return core.BaseAlias
	}
	if a, ok := s.used[prefix]; ok {
		return a
	}
	if i := strings.LastIndexByte(prefix, '.'); i >= 0 {
		s.alias(prefix[:i])
	}
	a := s.aliases[prefix]
	s.used[prefix] = a
	return a
}

// column returns the SQL expression of a property path and its leaf field.
func (s *scope) column(path string) (string, *core.Field, error) {
	steps, err := schema.Walk(s.r.resolver, s.crit.Type, path)
	if err != nil {
		return "", nil, err
	}
	segments := strings.Split(path, ".")
	last := steps[len(steps)-1]
	leaf := last.Field

	// x.id of a type reference is the foreign key already on the parent row.
	if n := len(steps); n > 1 && leaf.Name == core.IDFieldName && steps[n-2].Field.Type.Kind == core.KindReference {
		parent := s.alias(strings.Join(segments[:n-2], "."))
		return columnRef(parent, steps[n-2].Field.Column), leaf, nil
	}

	alias := s.alias(strings.Join(segments[:len(segments)-1], "."))
	switch {
	case leaf.Type.IsCollection():
		return "", nil, core.Schemaf([]string{path}, core.ErrWholeRelationship, path, path)
	case leaf.Type.Kind == core.KindFormula:
		expr, err := formula(alias, last.Owner, leaf.Type.Formula)
		if err != nil {
			return "", nil, err
		}
		id := columnRef(alias, last.Owner.IDField().Column)
		return fmt.Sprintf("CASE WHEN %s IS NULL THEN NULL ELSE (%s) END", id, expr), leaf, nil
	}
	return columnRef(alias, leaf.Column), leaf, nil
}

// formula expands a stored formula over the columns of owner.
func formula(alias string, owner *core.Type, expr core.FormulaExpr) (string, error) {
	switch e := expr.(type) {
	case core.FormulaField:
		f, ok := owner.Field(e.Field)
		if !ok {
			return "", core.Schemaf([]string{e.Field}, core.ErrUnknownField, e.Field, owner.Name)
		}
		col := columnRef(alias, f.Column)
		if !f.Type.IsTextual() {
			col = "CAST(" + col + " AS TEXT)"
		}
		return "COALESCE(" + col + ", '')", nil
	case core.FormulaText:
		return schema.Quote(e.Value), nil
	case core.FormulaConcat:
		parts := make([]string, len(e.Parts))
		for i, p := range e.Parts {
			sql, err := formula(alias, owner, p)
			if err != nil {
				return "", err
			}
			parts[i] = sql
		}
		return strings.Join(parts, " || "), nil
	}
	return "", fmt.Errorf("unsupported formula expression %T", expr)
}

// joins returns the LEFT JOIN clauses of every used prefix, parents first.
func (s *scope) joins() ([]string, error) {
	prefixes := make([]string, 0, len(s.used))
	for p := range s.used {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool {
		di, dj := strings.Count(prefixes[i], "."), strings.Count(prefixes[j], ".")
		if di != dj {
			return di < dj
		}
		return prefixes[i] < prefixes[j]
	})

	var out []string
	for _, prefix := range prefixes {
		clauses, err := s.join(prefix)
		if err != nil {
			return nil, err
		}
		out = append(out, clauses...)
	}
	return out, nil
}

func (s *scope) join(prefix string) ([]string, error) {
	steps, err := schema.Walk(s.r.resolver, s.crit.Type, prefix)
	if err != nil {
		return nil, err
	}
	step := steps[len(steps)-1]
	f := step.Field
	parent := core.BaseAlias
	if i := strings.LastIndexByte(prefix, '.'); i >= 0 {
		parent = s.used[prefix[:i]]
	}
	alias := s.used[prefix]

	target, err := s.lookup(f.Type.Target)
	if err != nil {
		return nil, err
	}
	targetID := target.IDField().Column
	ownerID := step.Owner.IDField().Column

	switch f.Type.Kind {
	case core.KindReference:
		return []string{joinClause(target.Table, alias, columnRef(alias, targetID), columnRef(parent, f.Column))}, nil

	case core.KindInverseCollection:
		back, ok := target.Field(f.Type.InverseField)
		if !ok {
			return nil, core.Schemaf([]string{prefix}, core.ErrUnknownField, f.Type.InverseField, target.Name)
		}
		return []string{joinClause(target.Table, alias, columnRef(alias, back.Column), columnRef(parent, ownerID))}, nil

	case core.KindAssociation:
		linking, err := s.lookup(f.Type.Linking)
		if err != nil {
			return nil, err
		}
		self, ok := linking.Field(f.Type.LinkSelf)
		if !ok {
			return nil, core.Schemaf([]string{prefix}, core.ErrUnknownField, f.Type.LinkSelf, linking.Name)
		}
		foreign, ok := linking.Field(f.Type.LinkForeign)
		if !ok {
			return nil, core.Schemaf([]string{prefix}, core.ErrUnknownField, f.Type.LinkForeign, linking.Name)
		}
		link := alias + core.LinkSuffix
		return []string{
			joinClause(linking.Table, link, columnRef(link, self.Column), columnRef(parent, ownerID)),
			joinClause(target.Table, alias, columnRef(alias, targetID), columnRef(link, foreign.Column)),
		}, nil
	}
	return nil, core.Schemaf([]string{prefix}, core.ErrNotRelationship, f.Name, step.Owner.Name)
}

func (s *scope) lookup(name string) (*core.Type, error) {
	t, ok := s.r.resolver.TypeByName(name)
	if !ok {
		return nil, core.Schemaf(nil, core.ErrUnknownType, name)
	}
	return t, nil
}

func joinClause(table, alias, left, right string) string {
	return fmt.Sprintf("%s AS %s ON %s = %s", quoteIdent(table), quoteIdent(alias), left, right)
}

func columnRef(alias, column string) string {
	return quoteIdent(alias) + "." + quoteIdent(column)
}

// quoteIdent quotes a SQL identifier.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

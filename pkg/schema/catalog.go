// Package schema provides an in-memory implementation of core.Resolver,
// path resolution helpers shared by the compilers, and the default
// per-datatype literal formatting used by the SQL renderer.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/leapstack-labs/dalc/pkg/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// idNamespace seeds the ids derived for definitions that omit one.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/leapstack-labs/dalc/schema"))

// Catalog is a static, read-only set of types. It is safe for concurrent use
// once built.
type Catalog struct {
	byName map[string]*core.Type
	byID   map[string]*core.Type
}

// NewCatalog validates the given types and fills in defaults: missing ids
// are derived from names, missing columns and tables from lower-cased names,
// missing labels from title-cased names, and a missing id field is added.
func NewCatalog(types ...*core.Type) (*Catalog, error) {
	c := &Catalog{
		byName: make(map[string]*core.Type, len(types)),
		byID:   make(map[string]*core.Type, len(types)),
	}
	title := cases.Title(language.Und, cases.NoLower)

	for _, t := range types {
		if t.Name == "" {
			return nil, fmt.Errorf("type without a name")
		}
		if _, dup := c.byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate type %s", t.Name)
		}
		normalizeType(t, title)
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate type id %s (type %s)", t.ID, t.Name)
		}
		c.byName[t.Name] = t
		c.byID[t.ID] = t
	}

	for _, t := range types {
		if err := c.validate(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func normalizeType(t *core.Type, title cases.Caser) {
	if t.ID == "" {
		t.ID = uuid.NewSHA1(idNamespace, []byte(t.Name)).String()
	}
	if t.Table == "" {
		t.Table = strings.ToLower(t.ShortName())
	}
	if t.Label == "" {
		t.Label = title.String(t.ShortName())
	}
	if t.IDField() == nil {
		t.Fields = append([]*core.Field{{Name: core.IDFieldName, Type: core.DataType{Kind: core.KindID}}}, t.Fields...)
	}
	for _, f := range t.Fields {
		if f.ID == "" {
			f.ID = uuid.NewSHA1(idNamespace, []byte(t.Name+"#"+f.Name)).String()
		}
		if f.Column == "" && f.Type.Kind != core.KindFormula && !f.Type.IsCollection() {
			f.Column = strings.ToLower(f.Name)
		}
		if f.Label == "" {
			f.Label = title.String(f.Name)
		}
	}
}

func (c *Catalog) validate(t *core.Type) error {
	names := make(map[string]bool, len(t.Fields))
	ids := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if f.Name == "" || strings.Contains(f.Name, ".") {
			return fmt.Errorf("type %s: invalid field name %q", t.Name, f.Name)
		}
		if names[f.Name] || ids[f.ID] {
			return fmt.Errorf("type %s: duplicate field %s", t.Name, f.Name)
		}
		names[f.Name], ids[f.ID] = true, true
		if err := c.validateField(t, f); err != nil {
			return fmt.Errorf("type %s, field %s: %w", t.Name, f.Name, err)
		}
	}
	if id := t.IDField(); id.Type.Kind != core.KindID {
		return fmt.Errorf("type %s: field id must have kind id", t.Name)
	}
	if t.DefaultField != "" {
		f, ok := t.Field(t.DefaultField)
		if !ok || !f.Type.IsPrimitive() {
			return fmt.Errorf("type %s: default field %s is not a scalar field", t.Name, t.DefaultField)
		}
	}
	return nil
}

func (c *Catalog) validateField(owner *core.Type, f *core.Field) error {
	dt := f.Type
	if dt.Kind == 0 {
		return fmt.Errorf("missing datatype")
	}
	if dt.IsRelationship() {
		target, ok := c.byName[dt.Target]
		if !ok {
			return fmt.Errorf("unknown target type %q", dt.Target)
		}
		switch dt.Kind {
		case core.KindInverseCollection:
			back, ok := target.Field(dt.InverseField)
			if !ok || back.Type.Kind != core.KindReference || back.Type.Target != owner.Name {
				return fmt.Errorf("inverse field %s.%s must reference %s", target.Name, dt.InverseField, owner.Name)
			}
		case core.KindAssociation:
			link, ok := c.byName[dt.Linking]
			if !ok {
				return fmt.Errorf("unknown linking type %q", dt.Linking)
			}
			self, ok := link.Field(dt.LinkSelf)
			if !ok || self.Type.Target != owner.Name {
				return fmt.Errorf("linking field %s.%s must reference %s", link.Name, dt.LinkSelf, owner.Name)
			}
			foreign, ok := link.Field(dt.LinkForeign)
			if !ok || foreign.Type.Target != target.Name {
				return fmt.Errorf("linking field %s.%s must reference %s", link.Name, dt.LinkForeign, target.Name)
			}
		}
	}
	if dt.Kind == core.KindFormula {
		if dt.Formula == nil {
			return fmt.Errorf("formula field without an expression")
		}
		return validateFormula(owner, dt.Formula)
	}
	return nil
}

func validateFormula(owner *core.Type, expr core.FormulaExpr) error {
	switch e := expr.(type) {
	case core.FormulaField:
		f, ok := owner.Field(e.Field)
		if !ok {
			return fmt.Errorf("formula references unknown field %s", e.Field)
		}
		if !f.Type.IsPrimitive() || f.Type.Kind == core.KindFormula {
			return fmt.Errorf("formula references non-scalar field %s", e.Field)
		}
	case core.FormulaConcat:
		for _, p := range e.Parts {
			if err := validateFormula(owner, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// TypeByName implements core.Resolver.
func (c *Catalog) TypeByName(name string) (*core.Type, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// TypeByID implements core.Resolver.
func (c *Catalog) TypeByID(id string) (*core.Type, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// Types returns all types ordered by name.
func (c *Catalog) Types() []*core.Type {
	out := make([]*core.Type, 0, len(c.byName))
	for _, t := range c.byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

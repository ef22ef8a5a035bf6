package jcr

import (
	"io"
	"log/slog"
	"math"
	"slices"

	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/dal"
	"github.com/leapstack-labs/dalc/pkg/schema"
)

// Decoder turns JCR documents into criteria. It is safe for concurrent use
// if its resolver is.
type Decoder struct {
	resolver      core.Resolver
	basePackage   string
	systemPackage string
	maxDepth      int
	logger        *slog.Logger
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithBasePackage sets the package tried for unqualified base type names.
func WithBasePackage(pkg string) DecoderOption {
	return func(d *Decoder) { d.basePackage = pkg }
}

// WithSystemPackage sets the package of built-in types.
func WithSystemPackage(pkg string) DecoderOption {
	return func(d *Decoder) { d.systemPackage = pkg }
}

// WithMaxDepth bounds restriction and subquery nesting.
func WithMaxDepth(depth int) DecoderOption {
	return func(d *Decoder) {
		if depth > 0 {
			d.maxDepth = depth
		}
	}
}

// WithDecoderLogger sets the logger used for debug output.
func WithDecoderLogger(l *slog.Logger) DecoderOption {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDecoder creates a decoder resolving types through r.
func NewDecoder(r core.Resolver, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		resolver:      r,
		systemPackage: dal.DefaultSystemPackage,
		maxDepth:      dal.DefaultMaxDepth,
		logger:        slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode converts doc into a validated criteria.
func (d *Decoder) Decode(doc *Document) (*core.Criteria, error) {
	crit, err := d.decode(doc, 0, false)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("decoded JCR document",
		slog.String("type", crit.Type.Name),
		slog.Int("properties", len(crit.Properties)),
		slog.Int("aggregates", len(crit.Aggregates)))
	return crit, nil
}

// ToDAL converts doc into canonical DAL text.
func (d *Decoder) ToDAL(doc *Document) (string, error) {
	crit, err := d.Decode(doc)
	if err != nil {
		return "", err
	}
	return dal.Format(crit), nil
}

func (d *Decoder) decode(doc *Document, depth int, subquery bool) (*core.Criteria, error) {
	typ, err := d.baseType(doc)
	if err != nil {
		return nil, err
	}
	crit := core.NewCriteria(typ)
	crit.Subquery = subquery

	for _, p := range doc.Properties {
		path, steps, err := d.resolve(typ, p.ID, p.Name)
		if err != nil {
			return nil, err
		}
		if !schema.Leaf(steps).Type.IsPrimitive() {
			return nil, core.Schemaf([]string{path}, core.ErrWholeRelationship, path, path)
		}
		crit.AddPath(path)
		if p.AggregateFunction == "" {
			if !slices.Contains(crit.Properties, path) {
				crit.Properties = append(crit.Properties, path)
			}
			continue
		}
		fn, ok := core.LookupAggregate(p.AggregateFunction)
		if !ok {
			return nil, structureError(p.AggregateFunction, core.ErrUnknownAggregate, p.AggregateFunction)
		}
		crit.Aggregates = append(crit.Aggregates, core.AggregateCall{Func: fn, Property: path})
	}

	for _, g := range doc.Groupings {
		path, err := d.key(crit, g)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(crit.GroupBy, path) {
			crit.GroupBy = append(crit.GroupBy, path)
		}
	}

	var roots []core.Restriction
	for i := range doc.Restrictions {
		r, err := d.restriction(crit, &doc.Restrictions[i], depth+1)
		if err != nil {
			return nil, err
		}
		roots = append(roots, r)
	}
	switch len(roots) {
	case 0:
	case 1:
		crit.Where = roots[0]
	default:
		crit.Where = &core.Junction{Op: core.OpAnd, Children: roots}
	}

	for _, o := range doc.Orderings {
		path, err := d.key(crit, o.PropertyRef)
		if err != nil {
			return nil, err
		}
		dir := core.Asc
		if o.SortDirection != "" {
			var ok bool
			if dir, ok = core.ParseDirection(o.SortDirection); !ok {
				return nil, structureError(o.SortDirection, core.ErrUnknownDirection, o.SortDirection)
			}
		}
		crit.OrderBy = append(crit.OrderBy, core.Ordering{Property: path, Direction: dir})
	}

	if doc.Limit != nil && *doc.Limit < 0 {
		return nil, structureError("limit", core.ErrNegativeCount, "limit")
	}
	if doc.Offset != nil && *doc.Offset < 0 {
		return nil, structureError("offset", core.ErrNegativeCount, "offset")
	}
	crit.Limit, crit.Offset = doc.Limit, doc.Offset

	if err := Validate(d.resolver, crit); err != nil {
		return nil, err
	}
	return crit, nil
}

func (d *Decoder) baseType(doc *Document) (*core.Type, error) {
	if doc.BaseTypeID != "" {
		t, ok := d.resolver.TypeByID(doc.BaseTypeID)
		if !ok {
			return nil, core.Schemaf(nil, core.ErrUnknownTypeID, doc.BaseTypeID)
		}
		if doc.BaseTypeName != "" && doc.BaseTypeName != t.Name && doc.BaseTypeName != t.ShortName() {
			return nil, core.Schemaf(nil, core.ErrBaseTypeMismatch, doc.BaseTypeName, doc.BaseTypeID, t.Name)
		}
		return t, nil
	}
	if doc.BaseTypeName == "" {
		return nil, structureError("", core.ErrMissingBaseType)
	}
	t, ok := schema.ResolveType(d.resolver, doc.BaseTypeName, d.basePackage, d.systemPackage)
	if !ok {
		return nil, core.Schemaf(nil, core.ErrUnknownType, doc.BaseTypeName)
	}
	return t, nil
}

// resolve returns the dotted path of a property reference. A PIR is
// authoritative; a name given alongside it must denote the same path.
func (d *Decoder) resolve(base *core.Type, pir core.PIR, name string) (string, []schema.Step, error) {
	if len(pir) > 0 {
		path, steps, err := schema.WalkPIR(d.resolver, base, pir)
		if err != nil {
			return "", nil, err
		}
		if name != "" && name != path {
			return "", nil, core.Schemaf([]string{name}, core.ErrPIRMismatch, name, pir, path)
		}
		return path, steps, nil
	}
	if name == "" {
		return "", nil, structureError("", core.ErrMissingPropertyRef)
	}
	steps, err := schema.Walk(d.resolver, base, name)
	if err != nil {
		return "", nil, err
	}
	return name, steps, nil
}

// key resolves a grouping, ordering or restriction property. Collections
// do not qualify.
func (d *Decoder) key(crit *core.Criteria, ref PropertyRef) (string, error) {
	path, _, err := d.keyField(crit, ref)
	return path, err
}

func (d *Decoder) keyField(crit *core.Criteria, ref PropertyRef) (string, *core.Field, error) {
	path, steps, err := d.resolve(crit.Type, ref.ID, ref.Name)
	if err != nil {
		return "", nil, err
	}
	leaf := schema.Leaf(steps)
	if leaf.Type.IsCollection() {
		return "", nil, core.Schemaf([]string{path}, core.ErrWholeRelationship, path, path)
	}
	crit.AddPath(path)
	return path, leaf, nil
}

func (d *Decoder) restriction(crit *core.Criteria, r *Restriction, depth int) (core.Restriction, error) {
	if depth > d.maxDepth {
		return nil, structureError(r.Operator, core.ErrTooDeep, d.maxDepth)
	}
	op, ok := core.OperatorByName(r.Operator)
	if !ok {
		return nil, structureError(r.Operator, core.ErrUnknownOperator, r.Operator)
	}

	if op.IsBoolean() {
		children := make([]core.Restriction, 0, len(r.Args))
		for _, a := range r.Args {
			if a.Restriction == nil {
				return nil, structureError(r.Operator, core.ErrArgumentCount, r.Operator, "nested restrictions only")
			}
			child, err := d.restriction(crit, a.Restriction, depth+1)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if op == core.OpNot {
			if len(children) != 1 {
				return nil, structureError(r.Operator, core.ErrArgumentCount, r.Operator, "exactly one nested restriction")
			}
			return &core.Not{Child: children[0]}, nil
		}
		if len(children) < 2 {
			return nil, structureError(r.Operator, core.ErrArgumentCount, r.Operator, "at least two nested restrictions")
		}
		return &core.Junction{Op: op, Children: children}, nil
	}

	path, leaf, err := d.keyField(crit, r.PropertyRef)
	if err != nil {
		return nil, err
	}

	switch {
	case op == core.OpIsNull:
		if len(r.Args) != 0 {
			return nil, structureError(r.Operator, core.ErrArgumentCount, r.Operator, "no arguments")
		}
		return &core.IsNull{Property: path}, nil

	case op == core.OpIn:
		if len(r.Args) == 1 && r.Args[0].Subquery != nil {
			sub, err := d.decode(r.Args[0].Subquery, depth+1, true)
			if err != nil {
				return nil, err
			}
			if err := dal.CheckSubquery(d.resolver, path, leaf, sub); err != nil {
				return nil, err
			}
			return &core.In{Property: path, Subquery: sub}, nil
		}
		values, err := scalarArgs(r)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			return nil, structureError(r.Operator, core.ErrArgumentCount, r.Operator, "a subquery or at least one value")
		}
		return &core.In{Property: path, Values: values}, nil
	}

	values, err := scalarArgs(r)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, structureError(r.Operator, core.ErrArgumentCount, r.Operator, "exactly one value")
	}
	return &core.Comparison{Op: op, Property: path, Value: values[0]}, nil
}

func scalarArgs(r *Restriction) ([]any, error) {
	values := make([]any, 0, len(r.Args))
	for _, a := range r.Args {
		if a.Restriction != nil || a.Subquery != nil {
			return nil, structureError(r.Operator, core.ErrUnexpectedObjectArg, r.Operator)
		}
		values = append(values, a.Value)
	}
	return values, nil
}

// Validate checks a criteria's grouping and that every aggregate function
// applies to its property's datatype.
func Validate(r core.Resolver, c *core.Criteria) error {
	for _, a := range c.Aggregates {
		steps, err := schema.Walk(r, c.Type, a.Property)
		if err != nil {
			return err
		}
		if err := schema.CheckAggregate(a.Func, a.Property, schema.Leaf(steps)); err != nil {
			return err
		}
	}
	return core.CheckGrouping(c)
}

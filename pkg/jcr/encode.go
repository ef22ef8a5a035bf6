package jcr

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/schema"
)

// Encoder turns criteria into JCR documents.
type Encoder struct {
	resolver core.Resolver
	logger   *slog.Logger
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithEncoderLogger sets the logger used for debug output.
func WithEncoderLogger(l *slog.Logger) EncoderOption {
	return func(e *Encoder) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEncoder creates an encoder resolving paths through r.
func NewEncoder(r core.Resolver, opts ...EncoderOption) *Encoder {
	e := &Encoder{resolver: r, logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode converts c into a document. Every property reference carries both
// its PIR and its name.
func (e *Encoder) Encode(c *core.Criteria) (*Document, error) {
	doc, err := e.encode(c)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("encoded criteria",
		slog.String("type", c.Type.Name),
		slog.Int("restrictions", len(doc.Restrictions)))
	return doc, nil
}

func (e *Encoder) encode(c *core.Criteria) (*Document, error) {
	doc := &Document{
		BaseTypeID:   c.Type.ID,
		BaseTypeName: c.Type.Name,
		Limit:        c.Limit,
		Offset:       c.Offset,
	}

	for _, p := range c.Properties {
		prop, err := e.property(c.Type, p)
		if err != nil {
			return nil, err
		}
		doc.Properties = append(doc.Properties, prop)
	}
	for _, a := range c.Aggregates {
		prop, err := e.property(c.Type, a.Property)
		if err != nil {
			return nil, err
		}
		prop.AggregateFunction = a.Func.String()
		doc.Properties = append(doc.Properties, prop)
	}

	for _, g := range c.GroupBy {
		ref, err := e.ref(c.Type, g)
		if err != nil {
			return nil, err
		}
		doc.Groupings = append(doc.Groupings, ref)
	}

	if c.Where != nil {
		r, err := e.restriction(c.Type, c.Where)
		if err != nil {
			return nil, err
		}
		doc.Restrictions = []Restriction{*r}
	}

	for _, o := range c.OrderBy {
		ref, err := e.ref(c.Type, o.Property)
		if err != nil {
			return nil, err
		}
		doc.Orderings = append(doc.Orderings, Ordering{PropertyRef: ref, SortDirection: o.Direction.String()})
	}
	return doc, nil
}

func (e *Encoder) property(base *core.Type, path string) (Property, error) {
	pir, steps, err := schema.PIRFor(e.resolver, base, path)
	if err != nil {
		return Property{}, err
	}
	return Property{ID: pir, Name: path, Alias: schema.Leaf(steps).Label}, nil
}

func (e *Encoder) ref(base *core.Type, path string) (PropertyRef, error) {
	pir, _, err := schema.PIRFor(e.resolver, base, path)
	if err != nil {
		return PropertyRef{}, err
	}
	return PropertyRef{ID: pir, Name: path}, nil
}

func (e *Encoder) restriction(base *core.Type, r core.Restriction) (*Restriction, error) {
	out := &Restriction{Operator: core.OperatorOf(r).Name()}

	if path, ok := core.PropertyOf(r); ok {
		ref, err := e.ref(base, path)
		if err != nil {
			return nil, err
		}
		out.PropertyRef = ref
	}

	switch n := r.(type) {
	case *core.Comparison:
		out.Args = []Arg{{Value: n.Value}}
	case *core.IsNull:
	case *core.In:
		if n.Subquery != nil {
			sub, err := e.encode(n.Subquery)
			if err != nil {
				return nil, err
			}
			out.Args = []Arg{{Subquery: sub}}
			break
		}
		for _, v := range n.Values {
			out.Args = append(out.Args, Arg{Value: v})
		}
	case *core.Not:
		child, err := e.restriction(base, n.Child)
		if err != nil {
			return nil, err
		}
		out.Args = []Arg{{Restriction: child}}
	case *core.Junction:
		for _, c := range n.Children {
			child, err := e.restriction(base, c)
			if err != nil {
				return nil, err
			}
			out.Args = append(out.Args, Arg{Restriction: child})
		}
	default:
		return nil, fmt.Errorf("unsupported restriction %T", r)
	}
	return out, nil
}

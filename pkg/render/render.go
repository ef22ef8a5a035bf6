// Package render translates compiled criteria into SQL.
//
// Every property path maps to a column of the queried table or of a LEFT
// JOINed related table. The base table is aliased "this"; related tables use
// the criteria's join aliases. Literals are formatted per datatype by a
// schema.LiteralFormatter and inlined, so the output carries no bind
// parameters.
//
//	r := render.New(catalog)
//	sql, err := r.Render(crit)
package render

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	sq "github.com/Masterminds/squirrel"
	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/schema"
)

// Renderer renders criteria as SQL. It is safe for concurrent use if its
// resolver is.
type Renderer struct {
	resolver core.Resolver
	literals schema.LiteralFormatter
	logger   *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLiterals sets the literal formatter. The default is
// schema.PostgresLiterals.
func WithLiterals(f schema.LiteralFormatter) Option {
	return func(r *Renderer) {
		if f != nil {
			r.literals = f
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a renderer resolving related types through resolver.
func New(resolver core.Resolver, opts ...Option) *Renderer {
	r := &Renderer{
		resolver: resolver,
		literals: schema.PostgresLiterals{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns the SELECT statement for c.
func (r *Renderer) Render(c *core.Criteria) (string, error) {
	s := newScope(r, c)
	stmt, err := s.statement()
	if err != nil {
		return "", err
	}
	sql, _, err := stmt.ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build statement for %s: %w", c.Type.Name, err)
	}
	r.logger.Debug("rendered criteria",
		slog.String("type", c.Type.Name),
		slog.Int("joins", len(s.used)),
		slog.Bool("subquery", c.Subquery))
	return sql, nil
}

// statement assembles the SELECT. Joins are added last because only the
// paths actually rendered are joined.
func (s *scope) statement() (sq.SelectBuilder, error) {
	c := s.crit
	var cols []string
	for _, p := range c.Properties {
		expr, _, err := s.column(p)
		if err != nil {
			return sq.SelectBuilder{}, err
		}
		cols = append(cols, expr+" AS "+quoteIdent(p))
	}
	for _, a := range c.Aggregates {
		expr, _, err := s.column(a.Property)
		if err != nil {
			return sq.SelectBuilder{}, err
		}
		cols = append(cols, fmt.Sprintf("%s(%s) AS %s", a.Func, expr, quoteIdent(a.String())))
	}

	stmt := sq.Select(cols...).From(quoteIdent(c.Type.Table) + " AS " + quoteIdent(core.BaseAlias))

	if c.Where != nil {
		where, err := s.restriction(c.Where)
		if err != nil {
			return sq.SelectBuilder{}, err
		}
		stmt = stmt.Where(sq.Expr(where))
	}
	if len(c.GroupBy) > 0 {
		keys := make([]string, len(c.GroupBy))
		for i, g := range c.GroupBy {
			expr, _, err := s.column(g)
			if err != nil {
				return sq.SelectBuilder{}, err
			}
			keys[i] = expr
		}
		stmt = stmt.GroupBy(keys...)
	}
	for _, o := range c.OrderBy {
		expr, _, err := s.column(o.Property)
		if err != nil {
			return sq.SelectBuilder{}, err
		}
		stmt = stmt.OrderBy(expr + " " + o.Direction.String())
	}
	if c.Limit != nil {
		stmt = stmt.Limit(uint64(*c.Limit))
	}
	if c.Offset != nil {
		stmt = stmt.Offset(uint64(*c.Offset))
	}

	joins, err := s.joins()
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	for _, j := range joins {
		stmt = stmt.LeftJoin(j)
	}
	return stmt, nil
}

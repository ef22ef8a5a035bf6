package dal

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/schema"
)

// Format renders a criteria as canonical DAL text. Compiling the result
// against the same schema yields an equal criteria.
func Format(c *core.Criteria) string {
	p := &printer{output: &bytes.Buffer{}}
	p.criteria(c)
	return p.output.String()
}

// printer writes DAL text.
type printer struct {
	output *bytes.Buffer
}

func (p *printer) write(s string) {
	p.output.WriteString(s)
}

func (p *printer) keyword(s string) {
	p.write(" " + s + " ")
}

// formatList prints count items separated by sep.
func (p *printer) formatList(count int, format func(i int), sep string) {
	for i := 0; i < count; i++ {
		if i > 0 {
			p.write(sep)
		}
		format(i)
	}
}

func (p *printer) criteria(c *core.Criteria) {
	p.write("SELECT ")
	p.formatList(len(c.Properties), func(i int) { p.write(c.Properties[i]) }, ", ")
	if len(c.Properties) > 0 && len(c.Aggregates) > 0 {
		p.write(", ")
	}
	p.formatList(len(c.Aggregates), func(i int) { p.write(c.Aggregates[i].String()) }, ", ")

	p.keyword("FROM")
	p.write(c.Type.Name)

	if c.Where != nil {
		p.keyword("WHERE")
		p.restriction(c.Where)
	}
	if len(c.GroupBy) > 0 {
		p.keyword("GROUP BY")
		p.write(strings.Join(c.GroupBy, ", "))
	}
	if len(c.OrderBy) > 0 {
		p.keyword("ORDER BY")
		p.formatList(len(c.OrderBy), func(i int) {
			p.write(c.OrderBy[i].Property + " " + c.OrderBy[i].Direction.String())
		}, ", ")
	}
	if c.Limit != nil {
		p.keyword("LIMIT")
		p.write(strconv.Itoa(*c.Limit))
	}
	if c.Offset != nil {
		p.keyword("OFFSET")
		p.write(strconv.Itoa(*c.Offset))
	}
}

func (p *printer) restriction(r core.Restriction) {
	switch n := r.(type) {
	case *core.Comparison:
		p.write(n.Property + " " + n.Op.String() + " " + literal(n.Value))
	case *core.IsNull:
		p.write(n.Property + " ISNULL")
	case *core.In:
		p.write(n.Property + " IN (")
		if n.Subquery != nil {
			p.criteria(n.Subquery)
		} else {
			p.formatList(len(n.Values), func(i int) { p.write(literal(n.Values[i])) }, ", ")
		}
		p.write(")")
	case *core.Not:
		p.write("NOT ")
		p.nested(n.Child)
	case *core.Junction:
		p.formatList(len(n.Children), func(i int) { p.nested(n.Children[i]) }, " "+n.Op.String()+" ")
	}
}

// nested prints r, bracketed when it is a junction.
func (p *printer) nested(r core.Restriction) {
	if _, ok := r.(*core.Junction); ok {
		p.write("(")
		p.restriction(r)
		p.write(")")
		return
	}
	p.restriction(r)
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// literal prints a value: strings quoted, other scalars bare.
func literal(v any) string {
	if s, ok := v.(string); ok {
		return "'" + literalEscaper.Replace(s) + "'"
	}
	return schema.Text(v)
}

package dal

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/schema"
	"github.com/leapstack-labs/dalc/pkg/token"
)

// clauseKind enumerates the clauses following FROM in canonical order.
type clauseKind int

const (
	clauseWhere clauseKind = iota
	clauseGroupBy
	clauseOrderBy
	clauseLimit
	clauseOffset
	numClauses
)

var clauseNames = [numClauses]string{"WHERE", "GROUP BY", "ORDER BY", "LIMIT", "OFFSET"}

// clause is the token window of one clause: toks[start:end].
type clause struct {
	keyword token.Token
	start   int
	end     int
	present bool
}

// selectItem is a select list entry before it is bound to the schema.
type selectItem struct {
	path     token.Token
	fn       core.AggregateFunc
	wildcard bool
}

// queryParser parses one query, or one subquery, over a token window.
type queryParser struct {
	c        *Compiler
	toks     []token.Token
	end      token.Token // reported when the window runs out
	depth    int
	subquery bool
	crit     *core.Criteria
}

// tok returns the i-th token of the window, or the end token.
func (p *queryParser) tok(i int) token.Token {
	if i < len(p.toks) {
		return p.toks[i]
	}
	return p.end
}

func (p *queryParser) parse() (*core.Criteria, error) {
	if !p.tok(0).Is("SELECT") {
		return nil, core.Syntaxf(p.tok(0), core.ErrNoSelect)
	}

	fromPos, items, err := p.parseSelectList(1)
	if err != nil {
		return nil, err
	}

	typeTok := p.tok(fromPos + 1)
	if typeTok.Kind != token.WORD {
		return nil, core.Syntaxf(typeTok, core.ErrNoType)
	}
	typ, ok := schema.ResolveType(p.c.resolver, typeTok.Text, p.c.basePackage, p.c.systemPackage)
	if !ok {
		return nil, core.Syntaxf(typeTok, core.ErrUnknownType, typeTok.Text)
	}
	p.crit = core.NewCriteria(typ)
	p.crit.Subquery = p.subquery

	if err := p.bindSelect(items); err != nil {
		return nil, err
	}

	clauses, err := p.scanClauses(fromPos + 2)
	if err != nil {
		return nil, err
	}

	if cl := clauses[clauseWhere]; cl.present {
		if err := p.parseWhere(cl); err != nil {
			return nil, err
		}
	}
	if cl := clauses[clauseGroupBy]; cl.present {
		if err := p.parseGroupBy(cl); err != nil {
			return nil, err
		}
	}
	if err := core.CheckGrouping(p.crit); err != nil {
		return nil, err
	}
	if cl := clauses[clauseOrderBy]; cl.present {
		if err := p.parseOrderBy(cl); err != nil {
			return nil, err
		}
	}
	if cl := clauses[clauseLimit]; cl.present {
		if p.crit.Limit, err = p.parseRowCount(cl, clauseLimit); err != nil {
			return nil, err
		}
	}
	if cl := clauses[clauseOffset]; cl.present {
		if p.crit.Offset, err = p.parseRowCount(cl, clauseOffset); err != nil {
			return nil, err
		}
	}
	return p.crit, nil
}

// parseSelectList collects select items from i up to FROM and returns the
// position of FROM.
func (p *queryParser) parseSelectList(i int) (int, []selectItem, error) {
	var items []selectItem
	needComma := false
	for ; i < len(p.toks); i++ {
		t := p.toks[i]
		switch {
		case t.Is("FROM"):
			if len(items) == 0 {
				return 0, nil, core.Syntaxf(t, core.ErrEmptySelect)
			}
			if !needComma {
				return 0, nil, core.Syntaxf(t, core.ErrUnexpectedToken, "a field or an aggregate function")
			}
			return i, items, nil
		case t.Kind == token.COMMA:
			if !needComma {
				return 0, nil, core.Syntaxf(t, core.ErrUnexpectedToken, "a field or an aggregate function")
			}
			needComma = false
		case needComma:
			return 0, nil, core.Syntaxf(t, core.ErrUnexpectedToken, "',' or FROM")
		case t.Kind == token.LPAREN:
			return 0, nil, core.Syntaxf(t, core.ErrStrayBracket)
		case t.Kind != token.WORD:
			return 0, nil, core.Syntaxf(t, core.ErrUnexpectedToken, "a field or an aggregate function")
		default:
			item, next, err := p.parseSelectItem(i)
			if err != nil {
				return 0, nil, err
			}
			items = append(items, item)
			i = next - 1
			needComma = true
		}
	}
	return 0, nil, core.Syntaxf(p.end, core.ErrNoFrom)
}

// parseSelectItem parses a path, the wildcard or FUNC(path) at i.
func (p *queryParser) parseSelectItem(i int) (selectItem, int, error) {
	t := p.toks[i]
	fn, isFunc := core.LookupAggregate(t.Text)
	if !isFunc || p.tok(i+1).Kind != token.LPAREN {
		return selectItem{path: t, wildcard: t.Text == DefaultFieldToken}, i + 1, nil
	}

	arg := p.tok(i + 2)
	if arg.Kind != token.WORD {
		return selectItem{}, 0, core.Syntaxf(arg, core.ErrAggregateProperty, fn)
	}
	if closing := p.tok(i + 3); closing.Kind != token.RPAREN {
		return selectItem{}, 0, core.Syntaxf(closing, core.ErrAggregateProperty, fn)
	}
	if fn == core.Count && arg.Text == DefaultFieldToken {
		arg.Text = core.IDFieldName
	}
	return selectItem{path: arg, fn: fn}, i + 4, nil
}

// scanClauses locates the clause keywords after the type name in a single
// pass. Keywords inside brackets belong to subqueries and are skipped.
func (p *queryParser) scanClauses(start int) ([numClauses]clause, error) {
	var clauses [numClauses]clause
	last := clauseKind(-1)
	depth := 0

	for i := start; i < len(p.toks); i++ {
		t := p.toks[i]
		if last >= 0 {
			switch t.Kind {
			case token.LPAREN:
				depth++
				continue
			case token.RPAREN:
				if depth == 0 {
					return clauses, core.Syntaxf(t, core.ErrUnmatchedBracket)
				}
				depth--
				continue
			}
			if depth > 0 {
				continue
			}
		}

		kind, width, err := p.clauseAt(i)
		if err != nil {
			return clauses, err
		}
		if width == 0 {
			if last < 0 {
				return clauses, core.Syntaxf(t, core.ErrUnexpectedToken, "WHERE, GROUP BY, ORDER BY, LIMIT or OFFSET")
			}
			continue
		}
		if clauses[kind].present {
			return clauses, core.Syntaxf(t, core.ErrDuplicateClause, clauseNames[kind])
		}
		if kind < last {
			return clauses, core.Syntaxf(t, core.ErrMisplacedToken, t.Text)
		}
		if last >= 0 {
			clauses[last].end = i
		}
		clauses[kind] = clause{keyword: t, start: i + width, present: true}
		last = kind
		i += width - 1
	}

	if depth != 0 {
		return clauses, core.Syntaxf(p.end, core.ErrUnmatchedBracket)
	}
	if last >= 0 {
		clauses[last].end = len(p.toks)
	}
	return clauses, nil
}

// clauseAt reports the clause starting at i and the number of keyword
// tokens it spans, or width 0 if no clause starts there.
func (p *queryParser) clauseAt(i int) (clauseKind, int, error) {
	t := p.toks[i]
	switch {
	case t.Is("WHERE"):
		return clauseWhere, 1, nil
	case t.Is("LIMIT"):
		return clauseLimit, 1, nil
	case t.Is("OFFSET"):
		return clauseOffset, 1, nil
	case t.Is("GROUP"), t.Is("ORDER"):
		if p.tok(i + 1).Is("BY") {
			if t.Is("GROUP") {
				return clauseGroupBy, 2, nil
			}
			return clauseOrderBy, 2, nil
		}
		if i == len(p.toks)-1 {
			return 0, 0, core.Syntaxf(t, core.ErrDanglingKeyword, t.Text)
		}
	}
	return 0, 0, nil
}

func (p *queryParser) window(cl clause) []token.Token {
	return p.toks[cl.start:cl.end]
}

// next returns the token following a clause window.
func (p *queryParser) next(cl clause) token.Token {
	return p.tok(cl.end)
}

func (p *queryParser) parseWhere(cl clause) error {
	win := p.window(cl)
	if len(win) == 0 {
		return core.Syntaxf(cl.keyword, core.ErrEmptyClause, "WHERE")
	}

	// The window is parsed as if bracketed.
	toks := make([]token.Token, 0, len(win)+2)
	toks = append(toks, token.Token{Kind: token.LPAREN, Text: "(", Pos: cl.keyword.Pos})
	toks = append(toks, win...)
	toks = append(toks, token.Token{Kind: token.RPAREN, Text: ")", Pos: p.next(cl).Pos})

	rp := &restrictionParser{q: p, toks: toks, end: p.next(cl)}
	root, next, err := rp.parse(0, p.depth+1)
	if err != nil {
		return err
	}
	if next != len(toks) {
		return core.Syntaxf(toks[next], core.ErrUnmatchedBracket)
	}
	if err := p.bindRestriction(root); err != nil {
		return err
	}
	p.crit.Where = root
	return nil
}

func (p *queryParser) parseGroupBy(cl clause) error {
	win := p.window(cl)
	if len(win) == 0 {
		return core.Syntaxf(cl.keyword, core.ErrEmptyClause, "GROUP BY")
	}
	needComma := false
	for _, t := range win {
		switch {
		case t.Kind == token.COMMA:
			if !needComma {
				return core.Syntaxf(t, core.ErrGroupComma)
			}
			needComma = false
		case needComma || t.Kind != token.WORD:
			return core.Syntaxf(t, core.ErrUnexpectedToken, "',' or a grouping property")
		default:
			if err := p.bindKey(t); err != nil {
				return err
			}
			if !contains(p.crit.GroupBy, t.Text) {
				p.crit.GroupBy = append(p.crit.GroupBy, t.Text)
			}
			needComma = true
		}
	}
	if !needComma {
		return core.Syntaxf(win[len(win)-1], core.ErrGroupComma)
	}
	return nil
}

func (p *queryParser) parseOrderBy(cl clause) error {
	var (
		pending *token.Token
		dir     core.Direction
		dirSet  bool
	)
	flush := func() error {
		if err := p.bindKey(*pending); err != nil {
			return err
		}
		p.crit.OrderBy = append(p.crit.OrderBy, core.Ordering{Property: pending.Text, Direction: dir})
		pending, dir, dirSet = nil, core.Asc, false
		return nil
	}

	for _, t := range p.window(cl) {
		switch {
		case t.Kind == token.COMMA:
			if pending == nil {
				return core.Syntaxf(t, core.ErrOrderComma)
			}
			if err := flush(); err != nil {
				return err
			}
		case t.Kind != token.WORD:
			return core.Syntaxf(t, core.ErrUnexpectedToken, "',' or an ordering property")
		case pending == nil:
			tok := t
			pending = &tok
		default:
			d, ok := core.ParseDirection(t.Text)
			if !ok || dirSet {
				return core.Syntaxf(t, core.ErrUnexpectedToken, "',', ASC or DESC")
			}
			dir, dirSet = d, true
		}
	}
	if pending == nil {
		return core.Syntaxf(p.next(cl), core.ErrOrderEnd)
	}
	return flush()
}

// parseRowCount parses the integer following LIMIT or OFFSET.
func (p *queryParser) parseRowCount(cl clause, kind clauseKind) (*int, error) {
	win := p.window(cl)
	keyword := clauseNames[kind]
	if len(win) == 0 {
		return nil, core.Syntaxf(cl.keyword, core.ErrMissingInteger, strings.ToLower(keyword), keyword)
	}
	n, err := strconv.Atoi(win[0].Text)
	if len(win) != 1 || win[0].Kind != token.WORD || err != nil || n < 0 {
		return nil, core.Syntaxf(win[0], core.ErrExpectedInteger, keyword)
	}
	return &n, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package dal

import (
	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/token"
)

// restrictionParser is a recursive-descent parser over a bracketed WHERE
// token window.
type restrictionParser struct {
	q    *queryParser
	toks []token.Token
	end  token.Token
}

// partial accumulates one restriction while its tokens are consumed.
type partial struct {
	op        core.Operator
	property  *token.Token
	children  []core.Restriction
	bracketed bool
}

func (rp *restrictionParser) tok(i int) token.Token {
	if i < len(rp.toks) {
		return rp.toks[i]
	}
	return rp.end
}

// parse parses one restriction starting at i and returns it with the index
// of the first token it did not consume.
//
// A level that starts with '(' accumulates an AND/OR chain until its
// matching ')'. A leaf level returns as soon as its value, value list or
// ISNULL is read, leaving connectives to the enclosing level.
func (rp *restrictionParser) parse(i, depth int) (core.Restriction, int, error) {
	if limit := rp.q.c.maxDepth; depth > limit {
		return nil, i, core.Syntaxf(rp.tok(i), core.ErrTooDeep, limit)
	}

	var st partial
	open := 0
	n := i
	for n < len(rp.toks) {
		tok := rp.toks[n]
		n++

		switch {
		case tok.Kind == token.LPAREN:
			if st.op == core.OpIn {
				return rp.parseIn(&st, tok, n, depth)
			}
			if n-1 != i {
				return nil, n, core.Syntaxf(tok, core.ErrUnexpectedToken, "an operator or a value")
			}
			st.bracketed = true
			open++
			child, next, err := rp.parse(n, depth+1)
			if err != nil {
				return nil, next, err
			}
			st.children = append(st.children, child)
			n = next

		case tok.Kind == token.RPAREN:
			open--
			if open > 0 {
				continue
			}
			if st.bracketed && st.op == 0 && st.property == nil && len(st.children) == 1 {
				return st.children[0], n, nil
			}
			r, err := rp.finish(&st, tok, n)
			return r, n, err

		case tok.Kind == token.OPERATOR || isWordOperator(tok):
			op, ok := core.LookupOperator(tok.Text)
			if !ok {
				return nil, n, core.Syntaxf(tok, core.ErrUnknownOperator, tok.Text)
			}
			switch {
			case op.IsJunction():
				if err := rp.checkJunction(&st, tok, op); err != nil {
					return nil, n, err
				}
				st.op = op
				child, next, err := rp.parse(n, depth+1)
				if err != nil {
					return nil, next, err
				}
				st.children = append(st.children, child)
				n = next

			case op == core.OpNot:
				if st.op != 0 || st.property != nil || len(st.children) > 0 {
					return nil, n, core.Syntaxf(tok, core.ErrUnexpectedToken, "AND, OR or a closing bracket")
				}
				child, next, err := rp.parse(n, depth+1)
				if err != nil {
					return nil, next, err
				}
				return &core.Not{Child: child}, next, nil

			default:
				if st.property == nil {
					if op == core.OpIsNull {
						return nil, n, core.Syntaxf(tok, core.ErrIsNullMisplaced)
					}
					return nil, n, core.Syntaxf(tok, core.ErrMissingOperand, op)
				}
				if st.op != 0 {
					return nil, n, core.Syntaxf(tok, core.ErrOperatorSet, st.op)
				}
				st.op = op
				if op == core.OpIsNull {
					return &core.IsNull{Property: st.property.Text}, n, nil
				}
			}

		default:
			switch {
			case tok.Kind == token.COMMA:
				return nil, n, core.Syntaxf(tok, core.ErrUnexpectedToken, "a property, an operator or a value")
			case st.op == 0 && st.property == nil && len(st.children) == 0:
				if tok.Kind != token.WORD {
					return nil, n, core.Syntaxf(tok, core.ErrUnexpectedToken, "a property")
				}
				property := tok
				st.property = &property
			case st.op == 0 && st.property != nil:
				return nil, n, core.Syntaxf(tok, core.ErrMissingOperator, st.property.Text)
			case st.op == core.OpIn:
				return nil, n, core.Syntaxf(tok, core.ErrInNeedsBracket)
			case st.op.IsComparison():
				if open != 0 {
					return nil, n, core.Syntaxf(tok, core.ErrUnclosedBrackets)
				}
				return &core.Comparison{Op: st.op, Property: st.property.Text, Value: tok.Unquoted()}, n, nil
			default:
				return nil, n, core.Syntaxf(tok, core.ErrUnexpectedToken, "AND, OR or a closing bracket")
			}
		}
	}
	return nil, n, core.Syntaxf(rp.end, core.ErrUnmatchedBracket)
}

func isWordOperator(tok token.Token) bool {
	if tok.Kind != token.WORD {
		return false
	}
	_, ok := core.LookupOperator(tok.Text)
	return ok
}

// checkJunction validates that an AND/OR may extend the current level.
func (rp *restrictionParser) checkJunction(st *partial, tok token.Token, op core.Operator) error {
	switch {
	case st.op == op:
		return nil
	case st.op.IsJunction():
		return core.Syntaxf(tok, core.ErrMixedJunction)
	case st.op != 0:
		return core.Syntaxf(tok, core.ErrOperatorSet, st.op)
	case st.property != nil:
		return core.Syntaxf(tok, core.ErrMissingOperator, st.property.Text)
	case len(st.children) == 0:
		return core.Syntaxf(tok, core.ErrMissingOperand, op)
	}
	return nil
}

// finish completes the current level at a closing bracket.
func (rp *restrictionParser) finish(st *partial, closing token.Token, n int) (core.Restriction, error) {
	if st.op.IsJunction() && len(st.children) > 1 {
		return &core.Junction{Op: st.op, Children: st.children}, nil
	}
	if st.op == 0 && st.property == nil && len(st.children) == 0 {
		return nil, core.Syntaxf(closing, core.ErrEmptyRestriction)
	}
	// Report the last real token before the bracket.
	return nil, core.Syntaxf(rp.tok(n-2), core.ErrIncomplete)
}

// parseIn parses the bracket following IN: a subquery or a literal list.
// n is the index after the opening bracket.
func (rp *restrictionParser) parseIn(st *partial, open token.Token, n, depth int) (core.Restriction, int, error) {
	closeIdx := -1
	level := 0
	for j := n; j < len(rp.toks) && closeIdx < 0; j++ {
		switch rp.toks[j].Kind {
		case token.LPAREN:
			level++
		case token.RPAREN:
			if level == 0 {
				closeIdx = j
			}
			level--
		}
	}
	if closeIdx < 0 {
		return nil, n, core.Syntaxf(open, core.ErrUnmatchedBracket)
	}
	inner := rp.toks[n:closeIdx]
	in := &core.In{Property: st.property.Text}
	if len(inner) == 0 {
		return nil, closeIdx, core.Syntaxf(open, core.ErrEmptyInList)
	}

	if inner[0].Is("SELECT") {
		sub, err := rp.q.c.compileSubquery(inner, rp.toks[closeIdx], depth+1)
		if err != nil {
			return nil, closeIdx, err
		}
		in.Subquery = sub
		return in, closeIdx + 1, nil
	}

	needComma := false
	for _, t := range inner {
		switch {
		case t.Kind == token.LPAREN:
			return nil, closeIdx, core.Syntaxf(t, core.ErrNestedBracket)
		case t.Kind == token.COMMA:
			if !needComma {
				return nil, closeIdx, core.Syntaxf(t, core.ErrUnexpectedToken, "a value")
			}
			needComma = false
		case needComma || (t.Kind != token.WORD && t.Kind != token.STRING):
			return nil, closeIdx, core.Syntaxf(t, core.ErrUnexpectedToken, "',' or a closing bracket")
		default:
			in.Values = append(in.Values, t.Unquoted())
			needComma = true
		}
	}
	if !needComma {
		return nil, closeIdx, core.Syntaxf(inner[len(inner)-1], core.ErrUnexpectedToken, "a value")
	}
	return in, closeIdx + 1, nil
}

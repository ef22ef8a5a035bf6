package dal

import (
	"strings"

	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/token"
)

// DefaultOperatorChars are the characters split out of words into
// operator tokens.
const DefaultOperatorChars = "+-<>="

// Lexer tokenizes DAL query text.
type Lexer struct {
	input     string
	operators string
	pos       int  // current position in input
	readPos   int  // reading position (after current char)
	ch        byte // current char under examination
	line      int  // current line number (1-based)
	col       int  // current column number (1-based)
	last      token.Kind
}

// NewLexer creates a new Lexer for the given input. An empty operators
// string selects DefaultOperatorChars.
func NewLexer(input, operators string) *Lexer {
	if operators == "" {
		operators = DefaultOperatorChars
	}
	l := &Lexer{
		input:     input,
		operators: operators,
		line:      1,
		last:      token.EOF,
	}
	l.readChar()
	return l
}

// Tokenize returns all tokens of input, excluding the final EOF.
func Tokenize(input, operators string) ([]token.Token, error) {
	l := NewLexer(input, operators)
	var out []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.EOF {
			return out, nil
		}
		out = append(out, tok)
	}
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) currentPos() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) isOperator(ch byte) bool {
	return ch != 0 && strings.IndexByte(l.operators, ch) >= 0
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// signedNumber reports whether a + or - at the current position starts a
// numeric literal rather than an operator.
func (l *Lexer) signedNumber() bool {
	if (l.ch != '-' && l.ch != '+') || !isDigit(l.peekChar()) {
		return false
	}
	switch l.last {
	case token.OPERATOR, token.LPAREN, token.COMMA:
		return true
	}
	return false
}

// Next returns the next token.
func (l *Lexer) Next() (token.Token, error) {
	for isSpace(l.ch) {
		l.readChar()
	}

	pos := l.currentPos()
	tok := token.Token{Pos: pos}

	switch {
	case l.ch == 0:
		tok.Kind = token.EOF
		return tok, nil
	case l.ch == '(':
		tok.Kind, tok.Text = token.LPAREN, "("
		l.readChar()
	case l.ch == ')':
		tok.Kind, tok.Text = token.RPAREN, ")"
		l.readChar()
	case l.ch == ',':
		tok.Kind, tok.Text = token.COMMA, ","
		l.readChar()
	case l.ch == '\'':
		text, ok := l.readString()
		if !ok {
			return token.Token{}, &core.SyntaxError{Pos: pos, Fragment: l.input[pos.Offset:], Message: core.ErrUnterminatedString}
		}
		tok.Kind, tok.Text = token.STRING, text
	case l.signedNumber():
		tok.Kind, tok.Text = token.WORD, l.readWord()
	case l.isOperator(l.ch):
		tok.Kind, tok.Text = token.OPERATOR, l.readOperator()
	default:
		tok.Kind, tok.Text = token.WORD, l.readWord()
	}

	l.last = tok.Kind
	return tok, nil
}

// readString reads a single-quoted literal including its quotes.
// A backslash escapes the following character.
func (l *Lexer) readString() (string, bool) {
	start := l.pos
	l.readChar() // opening quote
	for {
		switch l.ch {
		case 0:
			return "", false
		case '\\':
			l.readChar()
			if l.ch == 0 {
				return "", false
			}
		case '\'':
			l.readChar()
			return l.input[start:l.pos], true
		}
		l.readChar()
	}
}

// readOperator reads a run of operator characters. A sign that starts a
// number after another operator ends the run, so "age>-3" splits as
// ">" and "-3".
func (l *Lexer) readOperator() string {
	start := l.pos
	for l.isOperator(l.ch) {
		if l.pos > start && (l.ch == '-' || l.ch == '+') && isDigit(l.peekChar()) {
			break
		}
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readWord reads up to the next space, bracket, comma, quote or operator.
// A leading sign is part of the word.
func (l *Lexer) readWord() string {
	start := l.pos
	if l.ch == '-' || l.ch == '+' {
		l.readChar()
	}
	for l.ch != 0 && !isSpace(l.ch) && l.ch != '(' && l.ch != ')' && l.ch != ',' && l.ch != '\'' && !l.isOperator(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

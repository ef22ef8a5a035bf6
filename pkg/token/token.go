// Package token defines the lexical tokens of the DAL query language.
//
// The DAL lexer is deliberately coarse: it only distinguishes words, quoted
// strings, brackets, commas and operator runs. Keywords are recognised by the
// parser from word tokens, case-insensitively.
package token

import (
	"fmt"
	"strings"
)

// Kind classifies a token.
type Kind int

const (
	EOF      Kind = iota
	WORD          // identifiers, keywords, numbers, dotted paths, *
	STRING        // 'quoted' (quotes kept in Text)
	LPAREN        // (
	RPAREN        // )
	COMMA         // ,
	OPERATOR      // run of operator characters: = <> >= <= ...
)

var kindNames = [...]string{
	EOF:      "EOF",
	WORD:     "WORD",
	STRING:   "STRING",
	LPAREN:   "(",
	RPAREN:   ")",
	COMMA:    ",",
	OPERATOR: "OPERATOR",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single lexical unit with its source position.
type Token struct {
	Kind Kind
	Text string
	Pos  Position
}

// Is reports whether the token is the given keyword, ignoring case.
func (t Token) Is(keyword string) bool {
	return t.Kind == WORD && strings.EqualFold(t.Text, keyword)
}

// Unquoted returns the token text with surrounding single quotes removed.
// Inside the quotes \' stands for a quote and \\ for a backslash; any other
// backslash is kept as written. Non-string tokens are returned unchanged.
func (t Token) Unquoted() string {
	if t.Kind != STRING || len(t.Text) < 2 {
		return t.Text
	}
	inner := t.Text[1 : len(t.Text)-1]
	if !strings.Contains(inner, `\`) {
		return inner
	}
	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) && (inner[i+1] == '\'' || inner[i+1] == '\\') {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "end of query"
	}
	return t.Text
}

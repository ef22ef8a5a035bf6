package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenIs(t *testing.T) {
	tok := Token{Kind: WORD, Text: "Select"}
	assert.True(t, tok.Is("SELECT"))
	assert.True(t, tok.Is("select"))
	assert.False(t, tok.Is("FROM"))

	str := Token{Kind: STRING, Text: "'select'"}
	assert.False(t, str.Is("select"), "quoted strings are never keywords")
}

func TestTokenUnquoted(t *testing.T) {
	tests := []struct {
		name string
		tok  Token
		want string
	}{
		{"word unchanged", Token{Kind: WORD, Text: "age"}, "age"},
		{"plain string", Token{Kind: STRING, Text: "'Tom'"}, "Tom"},
		{"empty string", Token{Kind: STRING, Text: "''"}, ""},
		{"escaped quote", Token{Kind: STRING, Text: `'O\'Brien'`}, "O'Brien"},
		{"spaces kept", Token{Kind: STRING, Text: "'a  b'"}, "a  b"},
		{"escaped backslash", Token{Kind: STRING, Text: `'C:\\'`}, `C:\`},
		{"backslash then quote", Token{Kind: STRING, Text: `'a\\\'b'`}, `a\'b`},
		{"other escapes kept", Token{Kind: STRING, Text: `'a\nb'`}, `a\nb`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tok.Unquoted())
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "(", LPAREN.String())
	assert.Equal(t, "OPERATOR", OPERATOR.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestPosition(t *testing.T) {
	p := Position{Line: 2, Column: 7, Offset: 12}
	assert.True(t, p.IsValid())
	assert.Equal(t, "line 2, column 7", p.String())
	assert.False(t, Position{}.IsValid())
}

package lexer

import (
	"testing"

	"github.com/cheezgi/piccolo/internal/token"
	"github.com/stretchr/testify/assert"
)

func TestNextTokenKeywordsAndSyntax(t *testing.T) {
	input := `do end fn if else while for in data let is me new err retn assert nil true false`
	expected := []token.Kind{
		token.DO, token.END, token.FN, token.IF, token.ELSE, token.WHILE,
		token.FOR, token.IN, token.DATA, token.LET, token.IS, token.ME,
		token.NEW, token.ERR, token.RETN, token.ASSERT, token.NIL,
		token.TRUE, token.FALSE, token.EOF,
	}

	l := New(input)
	for i, want := range expected {
		got := l.NextToken()
		assert.Equalf(t, want, got.Kind, "token %d", i)
	}
	assert.False(t, l.Errors.HasErrors())
}

func TestNextTokenOperators(t *testing.T) {
	input := `[ ] ( ) , . .. ... = := ! + - * / % && || & | ^ == != < > <= >= << >>`
	expected := []token.Kind{
		token.LBRACKET, token.RBRACKET, token.LPAREN, token.RPAREN, token.COMMA,
		token.DOT, token.ERANGE, token.IRANGE, token.ASSIGN, token.DECLARE,
		token.NOT, token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.AND, token.OR, token.BAND, token.BOR, token.BXOR,
		token.EQ, token.NEQ, token.LT, token.GT, token.LE, token.GE,
		token.SHL, token.SHR, token.EOF,
	}
	l := New(input)
	for i, want := range expected {
		got := l.NextToken()
		assert.Equalf(t, want, got.Kind, "token %d (%s)", i, got.Lexeme)
	}
}

func TestNumberVsRange(t *testing.T) {
	l := New("1..5")
	toks := l.ScanTokens()
	assert.Equal(t, []token.Kind{token.INTEGER, token.ERANGE, token.INTEGER, token.EOF},
		[]token.Kind{toks[0].Kind, toks[1].Kind, toks[2].Kind, toks[3].Kind})
	assert.Equal(t, int64(1), toks[0].Int)
	assert.Equal(t, int64(5), toks[2].Int)
}

func TestFloatLiteral(t *testing.T) {
	l := New("3.14")
	tok := l.NextToken()
	assert.Equal(t, token.DOUBLE, tok.Kind)
	assert.Equal(t, 3.14, tok.Double)
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\nb\"c\\d"`)
	tok := l.NextToken()
	assert.Equal(t, token.STRING, tok.Kind)
	assert.Equal(t, "a\nb\"c\\d", tok.Lexeme)
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"abc`)
	l.NextToken()
	assert.True(t, l.Errors.HasErrors())
}

func TestCommentSkipped(t *testing.T) {
	l := New("a # this is a comment\nb")
	toks := l.ScanTokens()
	assert.Equal(t, 3, len(toks)) // a, b, eof
	assert.Equal(t, "a", toks[0].Lexeme)
	assert.Equal(t, "b", toks[1].Lexeme)
	assert.Equal(t, 2, toks[1].Line)
}

func TestIdentifierMaximalMunch(t *testing.T) {
	l := New("foo_bar123+baz")
	toks := l.ScanTokens()
	assert.Equal(t, "foo_bar123", toks[0].Lexeme)
	assert.Equal(t, token.PLUS, toks[1].Kind)
	assert.Equal(t, "baz", toks[2].Lexeme)
}

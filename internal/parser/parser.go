// Package parser implements Piccolo's recursive-descent, Pratt-precedence
// parser: a token stream to a typed AST.
package parser

import (
	"github.com/cheezgi/piccolo/internal/ast"
	"github.com/cheezgi/piccolo/internal/perr"
	"github.com/cheezgi/piccolo/internal/token"
)

// Precedence levels, low to high (spec.md §4.2).
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // ||
	precAnd                   // &&
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * / %
	precUnary                 // ! -
	precCall                  // . ( [
	precPrimary
)

var precedences = map[token.Kind]precedence{
	token.OR:      precOr,
	token.AND:     precAnd,
	token.EQ:      precEquality,
	token.NEQ:     precEquality,
	token.LT:      precComparison,
	token.GT:      precComparison,
	token.LE:      precComparison,
	token.GE:      precComparison,
	token.PLUS:    precTerm,
	token.MINUS:   precTerm,
	token.STAR:    precFactor,
	token.SLASH:   precFactor,
	token.PERCENT: precFactor,
	token.LPAREN:  precCall,
	token.DOT:     precCall,
	token.LBRACKET: precCall,
}

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// Parser turns a token slice into an *ast.Program, accumulating
// diagnostics into a Batch rather than aborting on the first error
// (spec.md §4.2, §7).
type Parser struct {
	tokens []token.Token
	pos    int

	prev token.Token
	curr token.Token

	prefixFns map[token.Kind]prefixParseFn
	infixFns  map[token.Kind]infixParseFn

	Errors    perr.Batch
	panicMode bool
}

func New(tokens []token.Token) *Parser {
	p := &Parser{tokens: tokens}
	p.prefixFns = map[token.Kind]prefixParseFn{
		token.INTEGER: p.atom,
		token.DOUBLE:  p.atom,
		token.STRING:  p.atom,
		token.NIL:     p.atom,
		token.TRUE:    p.atom,
		token.FALSE:   p.atom,
		token.IDENT:   p.variable,
		token.LPAREN:  p.grouping,
		token.MINUS:   p.unary,
		token.NOT:     p.unary,
	}
	p.infixFns = map[token.Kind]infixParseFn{
		token.PLUS:    p.binary,
		token.MINUS:   p.binary,
		token.STAR:    p.binary,
		token.SLASH:   p.binary,
		token.PERCENT: p.binary,
		token.EQ:      p.binary,
		token.NEQ:     p.binary,
		token.LT:      p.binary,
		token.GT:      p.binary,
		token.LE:      p.binary,
		token.GE:      p.binary,
		token.AND:     p.logical,
		token.OR:      p.logical,
	}
	// Prime curr with the first token (clox convention: curr is always
	// "the next unconsumed token", consumed by advance() before a prefix/
	// dispatch function runs).
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.prev = p.curr
	if p.pos < len(p.tokens) {
		p.curr = p.tokens[p.pos]
		p.pos++
	} else {
		p.curr = token.Token{Kind: token.EOF, Line: p.prev.Line}
	}
}

func (p *Parser) check(k token.Kind) bool { return p.curr.Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(k token.Kind, context string) token.Token {
	if p.check(k) {
		t := p.curr
		p.advance()
		return t
	}
	p.errorAtCurrent("expected %s %s, found %s", k.Display(), context, p.curr.Kind.Display())
	return p.curr
}

func (p *Parser) errorAtCurrent(format string, args ...any) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.Errors.Add(perr.New(perr.SyntaxError, p.curr.Line, format, args...))
}

// sync discards tokens until a statement boundary: a statement-starting
// keyword or 'end' (left unconsumed), or end of file. Grounded on
// other_examples/…golox…vm-parser.go's sync().
func (p *Parser) sync() {
	p.panicMode = false
	for p.curr.Kind != token.EOF {
		switch p.curr.Kind {
		case token.DO, token.IF, token.WHILE, token.FOR, token.FN,
			token.RETN, token.ASSERT, token.DATA, token.END:
			return
		}
		p.advance()
	}
}

// Parse runs the parser to completion, returning the program and any
// accumulated diagnostics.
func (p *Parser) Parse() (*ast.Program, []*perr.Error) {
	prog := &ast.Program{}
	prog.Stmts = p.parseStmts()
	return prog, p.Errors.Errors()
}

// parseStmts parses statements until p.curr is EOF or one of stop, the
// shared loop behind Parse/block/the if-else arm. There is no semicolon
// and the scanner never emits a Newline token (spec.md §3), so the only
// place statement separation is enforced is here: every statement after
// the first in a sequence must start on a source line different from
// the previous statement's last token, or it's a syntax error (catches
// runs of bare expression statements packed onto one line, e.g. a
// trailing `x or or or or`).
func (p *Parser) parseStmts(stop ...token.Kind) []ast.Stmt {
	var stmts []ast.Stmt
	first := true
	for p.curr.Kind != token.EOF && !containsKind(stop, p.curr.Kind) {
		if !first && p.curr.Line == p.prev.Line {
			p.errorAtCurrent("expected newline before %s", p.curr.Kind.Display())
		}
		first = false
		if p.panicMode {
			// If sync stopped on the offending token itself (a keyword),
			// parse it as a statement instead of reporting it again.
			before := p.pos
			p.sync()
			if p.pos != before {
				continue
			}
		}
		stmt := p.statement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.panicMode {
			p.sync()
		}
	}
	return stmts
}

func containsKind(ks []token.Kind, k token.Kind) bool {
	for _, x := range ks {
		if x == k {
			return true
		}
	}
	return false
}

// --- statements ---

func (p *Parser) statement() ast.Stmt {
	switch p.curr.Kind {
	case token.DO:
		return p.blockStmt()
	case token.IF:
		return p.ifStmt()
	case token.WHILE:
		return p.whileStmt()
	case token.FOR:
		return p.forStmt()
	case token.FN:
		return p.funcStmt()
	case token.RETN:
		return p.retnStmt()
	case token.ASSERT:
		return p.assertStmt()
	case token.DATA:
		return p.dataStmt()
	default:
		return p.exprOrAssignStmt()
	}
}

func (p *Parser) block() *ast.Block {
	do := p.expect(token.DO, "to begin block")
	b := &ast.Block{Do: do}
	b.Stmts = p.parseStmts(token.END, token.ELSE)
	return b
}

func (p *Parser) blockStmt() ast.Stmt {
	b := p.block()
	b.End = p.expect(token.END, "to close block")
	return b
}

func (p *Parser) ifStmt() ast.Stmt {
	kw := p.curr
	p.advance()
	cond := p.expression()
	then := p.block()
	n := &ast.If{Keyword: kw, Cond: cond, Then: then}
	if p.match(token.ELSE) {
		elseBlock := &ast.Block{Do: p.prev}
		elseBlock.Stmts = p.parseStmts(token.END)
		n.Else = elseBlock
	}
	then.End = p.expect(token.END, "to close if")
	if n.Else != nil {
		n.Else.End = then.End
	}
	return n
}

func (p *Parser) whileStmt() ast.Stmt {
	kw := p.curr
	p.advance()
	cond := p.expression()
	body := p.block()
	body.End = p.expect(token.END, "to close while")
	return &ast.While{Keyword: kw, Cond: cond, Body: body}
}

func (p *Parser) forStmt() ast.Stmt {
	kw := p.curr
	p.advance()
	name := p.expect(token.IDENT, "after 'for'")
	p.expect(token.IN, "after for-loop variable")
	iter := p.expression()
	body := p.block()
	body.End = p.expect(token.END, "to close for")
	return &ast.For{Keyword: kw, Name: name, Iter: iter, Body: body}
}

func (p *Parser) funcStmt() ast.Stmt {
	kw := p.curr
	p.advance()
	name := p.expect(token.IDENT, "after 'fn'")
	p.expect(token.LPAREN, "after function name")
	var params []token.Token
	if !p.check(token.RPAREN) {
		params = append(params, p.expect(token.IDENT, "in parameter list"))
		for p.match(token.COMMA) {
			params = append(params, p.expect(token.IDENT, "in parameter list"))
		}
	}
	p.expect(token.RPAREN, "after parameter list")
	body := p.block()
	body.End = p.expect(token.END, "to close fn")
	return &ast.FuncStmt{Keyword: kw, Name: name, Params: params, Body: body}
}

func (p *Parser) retnStmt() ast.Stmt {
	kw := p.curr
	p.advance()
	r := &ast.Retn{Keyword: kw}
	if !p.atStatementEnd() {
		r.Value = p.expression()
	}
	return r
}

func (p *Parser) assertStmt() ast.Stmt {
	kw := p.curr
	p.advance()
	return &ast.Assert{Keyword: kw, Value: p.expression()}
}

func (p *Parser) dataStmt() ast.Stmt {
	kw := p.curr
	p.advance()
	name := p.expect(token.IDENT, "after 'data'")
	p.expect(token.IS, "after data name")
	d := &ast.Data{Keyword: kw, Name: name}
	for p.curr.Kind != token.END && p.curr.Kind != token.EOF {
		d.Fields = append(d.Fields, p.expect(token.IDENT, "in data fields"))
	}
	p.expect(token.END, "to close data")
	return d
}

// atStatementEnd is a crude lookahead used only to decide whether a bare
// `retn` has a following value expression: anything that starts a new
// statement or closes a block means "no value".
func (p *Parser) atStatementEnd() bool {
	switch p.curr.Kind {
	case token.END, token.ELSE, token.EOF, token.DO, token.IF, token.WHILE,
		token.FOR, token.FN, token.RETN, token.ASSERT, token.DATA:
		return true
	default:
		return false
	}
}

// exprOrAssignStmt handles `identifier = expr`, `identifier := expr`,
// and plain expression statements (spec.md §4.2).
func (p *Parser) exprOrAssignStmt() ast.Stmt {
	if p.curr.Kind == token.IDENT {
		name := p.curr
		// Lookahead one token for '=' or ':='.
		if p.peekIsAssignOp() {
			p.advance() // consume identifier
			opTok := p.curr
			op := ast.Assign
			if opTok.Kind == token.DECLARE {
				op = ast.Declare
			}
			p.advance() // consume '=' / ':='
			value := p.expression()
			return &ast.Assignment{Name: name, Op: op, OpTok: opTok, Value: value}
		}
	}
	expr := p.expression()
	return &ast.ExprStmt{X: expr}
}

// peekIsAssignOp reports whether, with curr sitting on an IDENT, the
// *next* token (not yet consumed) is '=' or ':='. It reads
// p.tokens[p.pos] directly, since the tokens slice is fully materialized.
func (p *Parser) peekIsAssignOp() bool {
	if p.pos >= len(p.tokens) {
		return false
	}
	next := p.tokens[p.pos]
	return next.Kind == token.ASSIGN || next.Kind == token.DECLARE
}

// --- expressions (Pratt) ---

func (p *Parser) expression() ast.Expr {
	return p.parsePrecedence(precAssignment)
}

func (p *Parser) parsePrecedence(prec precedence) ast.Expr {
	prefix, ok := p.prefixFns[p.curr.Kind]
	if !ok {
		p.errorAtCurrent("expected expression, found %s", p.curr.Kind.Display())
		p.advance()
		return &ast.Atom{Token: token.Token{Kind: token.NIL, Line: p.curr.Line}}
	}
	p.advance()
	left := prefix()

	for {
		rule, ok := precedences[p.curr.Kind]
		if !ok || rule < prec {
			break
		}
		infix := p.infixFns[p.curr.Kind]
		if infix == nil {
			break
		}
		p.advance()
		left = infix(left)
	}
	return left
}

func (p *Parser) atom() ast.Expr {
	return &ast.Atom{Token: p.prev}
}

func (p *Parser) variable() ast.Expr {
	return &ast.Variable{Name: p.prev}
}

func (p *Parser) grouping() ast.Expr {
	lparen := p.prev
	inner := p.expression()
	p.expect(token.RPAREN, "after parenthesized expression")
	return &ast.Paren{LParen: lparen, Inner: inner}
}

func (p *Parser) unary() ast.Expr {
	op := p.prev
	operand := p.parsePrecedence(precUnary)
	return &ast.Unary{Op: op, Operand: operand}
}

func (p *Parser) binary(left ast.Expr) ast.Expr {
	op := p.prev
	rule := precedences[op.Kind]
	right := p.parsePrecedence(rule + 1)
	return &ast.Binary{Left: left, Op: op, Right: right}
}

func (p *Parser) logical(left ast.Expr) ast.Expr {
	op := p.prev
	rule := precedences[op.Kind]
	right := p.parsePrecedence(rule + 1)
	return &ast.Logical{Left: left, Op: op, Right: right}
}


package parser

import (
	"testing"

	"github.com/cheezgi/piccolo/internal/ast"
	"github.com/cheezgi/piccolo/internal/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) (*ast.Program, []string) {
	t.Helper()
	l := lexer.New(src)
	toks := l.ScanTokens()
	require.False(t, l.Errors.HasErrors(), "lex errors: %v", l.Errors.Errors())
	p := New(toks)
	prog, errs := p.Parse()
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return prog, msgs
}

func TestParseArithmeticPrecedence(t *testing.T) {
	prog, errs := parse(t, "1 + 2 * 3")
	assert.Empty(t, errs)
	require.Len(t, prog.Stmts, 1)
	es := prog.Stmts[0].(*ast.ExprStmt)
	bin := es.X.(*ast.Binary)
	assert.Equal(t, "+", bin.Op.Lexeme)
	_, rhsIsMul := bin.Right.(*ast.Binary)
	assert.True(t, rhsIsMul)
}

func TestParseAssignmentAndDeclare(t *testing.T) {
	prog, errs := parse(t, "a := 10\na = a + 5")
	assert.Empty(t, errs)
	require.Len(t, prog.Stmts, 2)
	decl := prog.Stmts[0].(*ast.Assignment)
	assert.Equal(t, ast.Declare, decl.Op)
	assign := prog.Stmts[1].(*ast.Assignment)
	assert.Equal(t, ast.Assign, assign.Op)
}

func TestParseIfElse(t *testing.T) {
	prog, errs := parse(t, "if true do\n  x := 1\nelse\n  x := 2\nend")
	assert.Empty(t, errs)
	require.Len(t, prog.Stmts, 1)
	ifs := prog.Stmts[0].(*ast.If)
	assert.NotNil(t, ifs.Else)
}

func TestParseNestedBlocks(t *testing.T) {
	prog, errs := parse(t, "do a := 1\n  do a := 2\n  end\nend")
	assert.Empty(t, errs)
	require.Len(t, prog.Stmts, 1)
	_, ok := prog.Stmts[0].(*ast.Block)
	assert.True(t, ok)
}

func TestParseErrorRecoversAtStatementBoundary(t *testing.T) {
	_, errs := parse(t, "x := \"yes\"\nx or or or or")
	assert.NotEmpty(t, errs)
}

func TestFirstTokenIsNotDropped(t *testing.T) {
	prog, errs := parse(t, "1 + 2")
	assert.Empty(t, errs)
	require.Len(t, prog.Stmts, 1)
	es := prog.Stmts[0].(*ast.ExprStmt)
	bin := es.X.(*ast.Binary)
	atom := bin.Left.(*ast.Atom)
	assert.Equal(t, "1", atom.Token.Lexeme)
}

func TestBareExpressionStatementsOnOneLineError(t *testing.T) {
	_, errs := parse(t, "x := 1\nx x")
	assert.NotEmpty(t, errs)
}

func TestParseRetnAndAssert(t *testing.T) {
	prog, errs := parse(t, "assert 1 == 1\nretn 5")
	assert.Empty(t, errs)
	require.Len(t, prog.Stmts, 2)
	_, isAssert := prog.Stmts[0].(*ast.Assert)
	assert.True(t, isAssert)
	retn := prog.Stmts[1].(*ast.Retn)
	assert.NotNil(t, retn.Value)
}

func TestParseBareRetn(t *testing.T) {
	prog, errs := parse(t, "do\n  retn\nend")
	assert.Empty(t, errs)
	block := prog.Stmts[0].(*ast.Block)
	retn := block.Stmts[0].(*ast.Retn)
	assert.Nil(t, retn.Value)
}

func TestParseLogicalPrecedence(t *testing.T) {
	prog, errs := parse(t, "true && false || true")
	assert.Empty(t, errs)
	es := prog.Stmts[0].(*ast.ExprStmt)
	top := es.X.(*ast.Logical)
	assert.Equal(t, "||", top.Op.Lexeme)
}

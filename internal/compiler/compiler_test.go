package compiler

import (
	"testing"

	"github.com/cheezgi/piccolo/internal/chunk"
	"github.com/cheezgi/piccolo/internal/lexer"
	"github.com/cheezgi/piccolo/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSrc(t *testing.T, src string) (*chunk.Chunk, []string) {
	t.Helper()
	l := lexer.New(src)
	toks := l.ScanTokens()
	require.False(t, l.Errors.HasErrors())
	p := parser.New(toks)
	prog, perrs := p.Parse()
	require.Empty(t, perrs)
	c, cerrs := Compile(prog)
	msgs := make([]string, len(cerrs))
	for i, e := range cerrs {
		msgs[i] = e.Error()
	}
	return c, msgs
}

func TestCompileSimpleArithmetic(t *testing.T) {
	c, errs := compileSrc(t, "1 + 2")
	assert.Empty(t, errs)
	assert.Equal(t, len(c.Code), len(c.Lines))
	assert.Contains(t, c.Code, byte(chunk.OpAdd))
}

func TestScopeDisciplineRoundTrips(t *testing.T) {
	// After compiling a balanced do...end, locals/scopeDepth return to
	// pre-block values (spec.md §8's "Scope discipline" property). We
	// verify indirectly: the chunk for this nested-block program must end
	// with one Pop for each of its two locals (inner block's, then outer
	// block's).
	c, errs := compileSrc(t, "do a := 1\n  do a := 2\n  end\nend")
	assert.Empty(t, errs)
	assert.Contains(t, c.Code, byte(chunk.OpPop))
	require.GreaterOrEqual(t, len(c.Code), 2)
	assert.Equal(t, byte(chunk.OpPop), c.Code[len(c.Code)-1])
	assert.Equal(t, byte(chunk.OpPop), c.Code[len(c.Code)-2])
}

func TestStringLiteralDeduplication(t *testing.T) {
	c, errs := compileSrc(t, `"hi" + "hi" + "hi"`)
	assert.Empty(t, errs)
	count := 0
	for _, k := range c.Constants {
		if k.String() == "hi" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAssignUndeclaredGlobalErrors(t *testing.T) {
	_, errs := compileSrc(t, "x = 1")
	require.NotEmpty(t, errs)
}

func TestShadowLocalAtSameDepthErrors(t *testing.T) {
	_, errs := compileSrc(t, "do a := 1\n  a := 2\nend")
	require.NotEmpty(t, errs)
}

func TestEveryJumpPatchedWithinBounds(t *testing.T) {
	c, errs := compileSrc(t, "if true do\n  1\nelse\n  2\nend")
	assert.Empty(t, errs)
	// Every 2-byte operand must lie within the chunk.
	twoByte := map[chunk.OpCode]bool{
		chunk.OpConstant: true, chunk.OpGetLocal: true, chunk.OpSetLocal: true,
		chunk.OpGetGlobal: true, chunk.OpSetGlobal: true, chunk.OpDeclareGlobal: true,
		chunk.OpJump: true, chunk.OpJumpFalse: true,
	}
	for i := 0; i < len(c.Code); {
		op := chunk.OpCode(c.Code[i])
		if !twoByte[op] {
			i++
			continue
		}
		if op == chunk.OpJump || op == chunk.OpJumpFalse {
			rel := c.ReadShort(i + 1)
			target := i + 3 + int(rel)
			assert.LessOrEqual(t, target, len(c.Code))
		}
		i += 3
	}
}

package vm

import (
	"testing"

	"github.com/cheezgi/piccolo/internal/compiler"
	"github.com/cheezgi/piccolo/internal/lexer"
	"github.com/cheezgi/piccolo/internal/parser"
	"github.com/cheezgi/piccolo/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run mirrors original_source/src/lib.rs's top-level interpret():
// Scanner -> Parser -> Emitter -> Machine, strictly forward.
func run(t *testing.T, src string) (value.Constant, error) {
	t.Helper()
	l := lexer.New(src)
	toks := l.ScanTokens()
	require.False(t, l.Errors.HasErrors(), "lex errors: %v", l.Errors.Errors())
	p := parser.New(toks)
	prog, perrs := p.Parse()
	require.Empty(t, perrs, "parse errors")
	c, cerrs := compiler.Compile(prog)
	require.Empty(t, cerrs, "compile errors")
	m := New(c)
	return m.Interpret()
}

// Scenario 1 (spec.md §8): 1 + 2 -> Integer(3).
func TestArithmeticResult(t *testing.T) {
	v, err := run(t, "1 + 2")
	require.NoError(t, err)
	assert.Equal(t, value.ConstInteger(3), v)
}

// Scenario 2: declare, reassign, reference.
func TestDeclareReassignReference(t *testing.T) {
	v, err := run(t, "a := 10\na = a + 5\na")
	require.NoError(t, err)
	assert.Equal(t, value.ConstInteger(15), v)
}

// Scenario 3: string concatenation.
func TestStringConcatenation(t *testing.T) {
	v, err := run(t, `s := "foo"
s + "bar"`)
	require.NoError(t, err)
	assert.Equal(t, value.ConstString("foobar"), v)
}

// Scenario 5: nested block shadowing.
func TestNestedBlockShadowing(t *testing.T) {
	v, err := run(t, "do a := 1\n  do a := 2\n    a\n  end\nend")
	require.NoError(t, err)
	assert.Equal(t, value.ConstInteger(2), v)
}

// Scenario 6: assert pass/fail.
func TestAssertPass(t *testing.T) {
	v, err := run(t, "assert 1 == 1")
	require.NoError(t, err)
	assert.Equal(t, value.ConstNil(), v)
}

func TestAssertFail(t *testing.T) {
	_, err := run(t, "assert 1 == 2")
	require.Error(t, err)
}

// Scenario 7: numeric type error.
func TestAddBoolTypeError(t *testing.T) {
	_, err := run(t, "1 + true")
	require.Error(t, err)
}

func TestIfElse(t *testing.T) {
	v, err := run(t, "x := true\nif x do\n  1\nelse\n  2\nend")
	require.NoError(t, err)
	assert.Equal(t, value.ConstInteger(1), v)

	v, err = run(t, "x := false\nif x do\n  1\nelse\n  2\nend")
	require.NoError(t, err)
	assert.Equal(t, value.ConstInteger(2), v)
}

func TestIfWithoutElseFalseBranch(t *testing.T) {
	v, err := run(t, "x := false\nif x do\n  99\nend")
	require.NoError(t, err)
	assert.Equal(t, value.ConstNil(), v)
}

// Integer/double equality is strict per type (spec.md §9 open question,
// resolved to the VM's stricter semantics).
func TestCrossNumericEqualityIsFalse(t *testing.T) {
	v, err := run(t, "1 == 1.0")
	require.NoError(t, err)
	assert.Equal(t, value.ConstBool(false), v)
}

func TestIntegerEqualityIsTrue(t *testing.T) {
	v, err := run(t, "3 == 3")
	require.NoError(t, err)
	assert.Equal(t, value.ConstBool(true), v)
}

// Truthiness: only Nil/false are falsy; non-empty AND empty strings are
// truthy (spec.md §9 open question, resolved to the VM's rule).
func TestEmptyStringIsTruthy(t *testing.T) {
	v, err := run(t, `if "" do
  1
else
  2
end`)
	require.NoError(t, err)
	assert.Equal(t, value.ConstInteger(1), v)
}

func TestLogicalAndShortCircuitsAndOr(t *testing.T) {
	v, err := run(t, "true && false")
	require.NoError(t, err)
	assert.Equal(t, value.ConstBool(false), v)

	v, err = run(t, "false || true")
	require.NoError(t, err)
	assert.Equal(t, value.ConstBool(true), v)

	v, err = run(t, `a := "x"
a || "y"`)
	require.NoError(t, err)
	assert.Equal(t, value.ConstString("x"), v)
}

func TestGreaterEqualLessEqual(t *testing.T) {
	v, err := run(t, "3 >= 3")
	require.NoError(t, err)
	assert.Equal(t, value.ConstBool(true), v)

	v, err = run(t, "2 <= 1")
	require.NoError(t, err)
	assert.Equal(t, value.ConstBool(false), v)
}

func TestIntegerDivisionByZeroIsFatal(t *testing.T) {
	_, err := run(t, "1 / 0")
	require.Error(t, err)
}

func TestIntegerOverflowWraps(t *testing.T) {
	v, err := run(t, "9223372036854775807 + 1")
	require.NoError(t, err)
	assert.Equal(t, value.ConstInteger(-9223372036854775808), v)
}

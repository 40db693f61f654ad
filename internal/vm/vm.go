// Package vm implements Piccolo's Machine: a single-threaded
// fetch-decode-execute loop over a compiled chunk.Chunk.
package vm

import (
	"fmt"

	"github.com/cheezgi/piccolo/internal/chunk"
	"github.com/cheezgi/piccolo/internal/heap"
	"github.com/cheezgi/piccolo/internal/perr"
	"github.com/cheezgi/piccolo/internal/value"
)

// StackMax bounds the value stack, grounded on
// estevaofon-noxy/internal/vm/vm.go's StackMax sizing idiom (that file
// uses 2048 for a far larger, closures-and-calls VM; this core has no
// call stack so a smaller ceiling still comfortably covers any
// non-recursive program the spec allows).
const StackMax = 1024

// Machine is Piccolo's VM: ip, globals, a value stack, and a heap
// (spec.md §3's "Machine state").
type Machine struct {
	chunk   *chunk.Chunk
	ip      int
	stack   []value.Value
	globals map[string]value.Value
	heap    *heap.Heap

	lastPoppedAtEnd bool
	lastPopped      value.Value
}

func New(c *chunk.Chunk) *Machine {
	return &Machine{
		chunk:   c,
		globals: map[string]value.Value{},
		heap:    heap.New(),
	}
}

func (m *Machine) push(v value.Value) error {
	if len(m.stack) >= StackMax {
		return m.runtimeErr(perr.StackUnderflow, "stack overflow")
	}
	m.stack = append(m.stack, v)
	return nil
}

func (m *Machine) pop(op chunk.OpCode) (value.Value, error) {
	if len(m.stack) == 0 {
		return value.Value{}, m.runtimeErr(perr.StackUnderflow, "stack underflow in %s", op)
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *Machine) peek(distance int) (value.Value, bool) {
	idx := len(m.stack) - 1 - distance
	if idx < 0 {
		return value.Value{}, false
	}
	return m.stack[idx], true
}

// runtimeErr builds a fatal error tagged with the chunk's file name (if
// any) and the line of the current ip; perr.Error renders it as
// "Kind [file:line N]: message".
func (m *Machine) runtimeErr(kind perr.Kind, format string, args ...any) error {
	line := m.chunk.GetLineFromIndex(m.ip)
	e := perr.New(kind, line, format, args...)
	if m.chunk.FileName != "" {
		e = e.WithFile(m.chunk.FileName)
	}
	return e
}

// Interpret runs the chunk to completion (spec.md §4.6): the terminal
// value is the operand of the last Pop executed at end-of-chunk, else
// the top of stack, else Nil. The first runtime error aborts execution
// (spec.md §7).
func (m *Machine) Interpret() (value.Constant, error) {
	for m.ip < len(m.chunk.Code) {
		op := chunk.OpCode(m.chunk.Code[m.ip])
		m.ip++

		switch op {
		case chunk.OpConstant:
			idx := m.chunk.ReadShort(m.ip)
			m.ip += 2
			c := m.chunk.Constants[idx]
			if err := m.push(m.materialize(c)); err != nil {
				return value.Constant{}, err
			}

		case chunk.OpNil:
			if err := m.push(value.NewNil()); err != nil {
				return value.Constant{}, err
			}
		case chunk.OpTrue:
			if err := m.push(value.NewBool(true)); err != nil {
				return value.Constant{}, err
			}
		case chunk.OpFalse:
			if err := m.push(value.NewBool(false)); err != nil {
				return value.Constant{}, err
			}

		case chunk.OpPop:
			v, err := m.pop(op)
			if err != nil {
				return value.Constant{}, err
			}
			if m.ip == len(m.chunk.Code) {
				m.lastPoppedAtEnd = true
				m.lastPopped = v
			}

		case chunk.OpDup:
			v, ok := m.peek(0)
			if !ok {
				return value.Constant{}, m.runtimeErr(perr.StackUnderflow, "stack underflow in %s", op)
			}
			if err := m.push(v); err != nil {
				return value.Constant{}, err
			}

		case chunk.OpNegate:
			v, err := m.pop(op)
			if err != nil {
				return value.Constant{}, err
			}
			switch v.Type {
			case value.Integer:
				if err := m.push(value.NewInteger(-v.AsInt)); err != nil {
					return value.Constant{}, err
				}
			case value.Double:
				if err := m.push(value.NewDouble(-v.AsFloat)); err != nil {
					return value.Constant{}, err
				}
			default:
				return value.Constant{}, m.typeErr("integer or double", m.heap.TypeName(v), op)
			}

		case chunk.OpNot:
			v, err := m.pop(op)
			if err != nil {
				return value.Constant{}, err
			}
			if err := m.push(value.NewBool(!v.Truthy())); err != nil {
				return value.Constant{}, err
			}

		case chunk.OpAdd:
			if err := m.binaryAdd(); err != nil {
				return value.Constant{}, err
			}
		case chunk.OpSubtract:
			if err := m.numericBinary(op, func(a, b float64) float64 { return a - b },
				func(a, b int64) int64 { return a - b }); err != nil {
				return value.Constant{}, err
			}
		case chunk.OpMultiply:
			if err := m.numericBinary(op, func(a, b float64) float64 { return a * b },
				func(a, b int64) int64 { return a * b }); err != nil {
				return value.Constant{}, err
			}
		case chunk.OpDivide:
			if err := m.divide(op); err != nil {
				return value.Constant{}, err
			}
		case chunk.OpModulo:
			if err := m.modulo(op); err != nil {
				return value.Constant{}, err
			}

		case chunk.OpEqual:
			a, err := m.pop(op)
			if err != nil {
				return value.Constant{}, err
			}
			b, err := m.pop(op)
			if err != nil {
				return value.Constant{}, err
			}
			result, ok := m.heap.Eq(b, a)
			if !ok {
				return value.Constant{}, m.typeErr("comparable types", fmt.Sprintf("%s == %s", m.heap.TypeName(b), m.heap.TypeName(a)), op)
			}
			if err := m.push(value.NewBool(result)); err != nil {
				return value.Constant{}, err
			}

		case chunk.OpGreater, chunk.OpLess:
			if err := m.compare(op); err != nil {
				return value.Constant{}, err
			}

		case chunk.OpGetLocal:
			slot := m.chunk.ReadShort(m.ip)
			m.ip += 2
			if int(slot) >= len(m.stack) {
				return value.Constant{}, m.runtimeErr(perr.StackUnderflow, "invalid local slot %d", slot)
			}
			if err := m.push(m.stack[slot]); err != nil {
				return value.Constant{}, err
			}

		case chunk.OpSetLocal:
			slot := m.chunk.ReadShort(m.ip)
			m.ip += 2
			v, err := m.pop(op)
			if err != nil {
				return value.Constant{}, err
			}
			if int(slot) >= len(m.stack) {
				return value.Constant{}, m.runtimeErr(perr.StackUnderflow, "invalid local slot %d", slot)
			}
			m.stack[slot] = v

		case chunk.OpGetGlobal:
			idx := m.chunk.ReadShort(m.ip)
			m.ip += 2
			name := m.chunk.Constants[idx].String()
			v, ok := m.globals[name]
			if !ok {
				return value.Constant{}, m.runtimeErr(perr.UndefinedVariable, "undefined variable %q", name)
			}
			if err := m.push(v); err != nil {
				return value.Constant{}, err
			}

		case chunk.OpSetGlobal:
			idx := m.chunk.ReadShort(m.ip)
			m.ip += 2
			name := m.chunk.Constants[idx].String()
			v, err := m.pop(op)
			if err != nil {
				return value.Constant{}, err
			}
			if _, exists := m.globals[name]; !exists {
				return value.Constant{}, m.runtimeErr(perr.UndefinedVariable, "undefined variable %q", name)
			}
			m.globals[name] = v

		case chunk.OpDeclareGlobal:
			idx := m.chunk.ReadShort(m.ip)
			m.ip += 2
			name := m.chunk.Constants[idx].String()
			v, err := m.pop(op)
			if err != nil {
				return value.Constant{}, err
			}
			m.globals[name] = v

		case chunk.OpReturn:
			v, err := m.pop(op)
			if err != nil {
				return value.Constant{}, err
			}
			fmt.Println(m.heap.Fmt(v))

		case chunk.OpAssert:
			v, err := m.pop(op)
			if err != nil {
				return value.Constant{}, err
			}
			if !v.Truthy() {
				return value.Constant{}, m.runtimeErr(perr.AssertFailed, "assertion failed")
			}

		case chunk.OpJump:
			rel := m.chunk.ReadShort(m.ip)
			m.ip += 2 + int(int16(rel))

		case chunk.OpJumpFalse:
			rel := m.chunk.ReadShort(m.ip)
			m.ip += 2
			v, err := m.pop(op)
			if err != nil {
				return value.Constant{}, err
			}
			if !v.Truthy() {
				m.ip += int(int16(rel))
			}

		default:
			return value.Constant{}, m.runtimeErr(perr.SyntaxError, "unknown opcode %d", op)
		}
	}

	if m.lastPoppedAtEnd {
		return m.heap.ToConstant(m.lastPopped), nil
	}
	if v, ok := m.peek(0); ok {
		return m.heap.ToConstant(v), nil
	}
	return value.ConstNil(), nil
}

func (m *Machine) materialize(c value.Constant) value.Value {
	switch c.Type {
	case value.Nil:
		return value.NewNil()
	case value.Bool:
		return value.NewBool(c.AsBool)
	case value.Integer:
		return value.NewInteger(c.AsInt)
	case value.Double:
		return value.NewDouble(c.AsFloat)
	case value.Object:
		return m.heap.AllocString(c.AsStr)
	default:
		return value.NewNil()
	}
}

func (m *Machine) typeErr(expected, got string, op chunk.OpCode) error {
	line := m.chunk.GetLineFromIndex(m.ip)
	e := perr.Typef(line, expected, got, op.String())
	if m.chunk.FileName != "" {
		e = e.WithFile(m.chunk.FileName)
	}
	return e
}

// binaryAdd implements spec.md §4.6's Add numeric-and-string matrix:
// int+int -> int (wrapping); double with either operand -> double;
// string lhs concatenates rhs via Fmt coercion into a new heap string.
func (m *Machine) binaryAdd() error {
	b, err := m.pop(chunk.OpAdd)
	if err != nil {
		return err
	}
	a, err := m.pop(chunk.OpAdd)
	if err != nil {
		return err
	}
	if a.Type == value.Object {
		concatenated := m.heap.Fmt(a) + m.heap.Fmt(b)
		return m.push(m.heap.AllocString(concatenated))
	}
	if a.Type == value.Integer && b.Type == value.Integer {
		return m.push(value.NewInteger(a.AsInt + b.AsInt))
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return m.push(value.NewDouble(af + bf))
		}
	}
	return m.typeErr("integer, double, or string", fmt.Sprintf("%s + %s", m.heap.TypeName(a), m.heap.TypeName(b)), chunk.OpAdd)
}

func asFloat(v value.Value) (float64, bool) {
	switch v.Type {
	case value.Integer:
		return float64(v.AsInt), true
	case value.Double:
		return v.AsFloat, true
	default:
		return 0, false
	}
}

// numericBinary implements Subtract/Multiply: numeric matrix only, no
// string path (spec.md §4.6). Integer overflow wraps via Go's native
// int64 arithmetic (SPEC_FULL.md §4.6's resolution of the overflow open
// question).
func (m *Machine) numericBinary(op chunk.OpCode, ffn func(a, b float64) float64, ifn func(a, b int64) int64) error {
	b, err := m.pop(op)
	if err != nil {
		return err
	}
	a, err := m.pop(op)
	if err != nil {
		return err
	}
	if a.Type == value.Integer && b.Type == value.Integer {
		return m.push(value.NewInteger(ifn(a.AsInt, b.AsInt)))
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return m.push(value.NewDouble(ffn(af, bf)))
		}
	}
	return m.typeErr("integer or double", fmt.Sprintf("%s %s %s", m.heap.TypeName(a), op, m.heap.TypeName(b)), op)
}

// divide/modulo are split out from numericBinary because Go traps
// integer division/mod by zero with a runtime panic where the matrix is
// otherwise silent (SPEC_FULL.md §4.6 expansion).
func (m *Machine) divide(op chunk.OpCode) (err error) {
	b, err := m.pop(op)
	if err != nil {
		return err
	}
	a, err := m.pop(op)
	if err != nil {
		return err
	}
	if a.Type == value.Integer && b.Type == value.Integer {
		if b.AsInt == 0 {
			return m.runtimeErr(perr.DivideByZero, "integer division by zero")
		}
		return m.push(value.NewInteger(a.AsInt / b.AsInt))
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return m.push(value.NewDouble(af / bf))
		}
	}
	return m.typeErr("integer or double", fmt.Sprintf("%s / %s", m.heap.TypeName(a), m.heap.TypeName(b)), op)
}

func (m *Machine) modulo(op chunk.OpCode) error {
	b, err := m.pop(op)
	if err != nil {
		return err
	}
	a, err := m.pop(op)
	if err != nil {
		return err
	}
	if a.Type == value.Integer && b.Type == value.Integer {
		if b.AsInt == 0 {
			return m.runtimeErr(perr.DivideByZero, "integer modulo by zero")
		}
		return m.push(value.NewInteger(a.AsInt % b.AsInt))
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return m.push(value.NewDouble(modFloat(af, bf)))
		}
	}
	return m.typeErr("integer or double", fmt.Sprintf("%s %% %s", m.heap.TypeName(a), m.heap.TypeName(b)), op)
}

func modFloat(a, b float64) float64 {
	r := a - b*float64(int64(a/b))
	return r
}

// compare implements Greater/Less: booleans are explicitly rejected,
// then numbers promote cross-type and strings compare lexicographically
// (spec.md §4.6).
func (m *Machine) compare(op chunk.OpCode) error {
	b, err := m.pop(op)
	if err != nil {
		return err
	}
	a, err := m.pop(op)
	if err != nil {
		return err
	}
	if a.Type == value.Bool || b.Type == value.Bool {
		return m.typeErr("integer, double, or string", fmt.Sprintf("%s %s %s", m.heap.TypeName(a), op, m.heap.TypeName(b)), op)
	}
	var result, ok bool
	if op == chunk.OpGreater {
		result, ok = m.heap.Gt(a, b)
	} else {
		result, ok = m.heap.Lt(a, b)
	}
	if !ok {
		return m.typeErr("integer, double, or string", fmt.Sprintf("%s %s %s", m.heap.TypeName(a), op, m.heap.TypeName(b)), op)
	}
	return m.push(value.NewBool(result))
}

// Package compiler implements Piccolo's Emitter: walks the AST and
// writes bytecode, constants, and a line map into a chunk.Chunk.
package compiler

import (
	"github.com/cheezgi/piccolo/internal/ast"
	"github.com/cheezgi/piccolo/internal/chunk"
	"github.com/cheezgi/piccolo/internal/perr"
	"github.com/cheezgi/piccolo/internal/token"
	"github.com/cheezgi/piccolo/internal/value"
)

// local is one entry of the emitter's locals stack; its slot index is
// its position in the slice (spec.md §3).
type local struct {
	name  string
	depth int
}

// Emitter holds the transient compile-time state described in spec.md
// §3: the constant pool lives in the chunk itself; strings/identifiers
// dedupe literal/name constants; scopeDepth and locals track lexical
// scope.
type Emitter struct {
	chunk *chunk.Chunk

	strings     map[string]uint16
	identifiers map[string]uint16

	scopeDepth int
	locals     []local

	errors perr.Batch
}

// Compile walks prog and returns a populated chunk.Chunk, or the
// accumulated diagnostics if compilation failed.
func Compile(prog *ast.Program) (*chunk.Chunk, []*perr.Error) {
	e := &Emitter{
		chunk:       chunk.New(),
		strings:     map[string]uint16{},
		identifiers: map[string]uint16{},
	}
	for _, s := range prog.Stmts {
		e.compileStmt(s)
	}
	if e.errors.HasErrors() {
		return nil, e.errors.Errors()
	}
	return e.chunk, nil
}

func (e *Emitter) fail(kind perr.Kind, line int, format string, args ...any) {
	e.errors.Add(perr.New(kind, line, format, args...))
}

// --- low-level emission helpers, grounded on
// estevaofon-noxy/internal/compiler/compiler.go's emitByte/emitJump/
// patchJump/emitConstant/beginScope/endScope/resolveLocal, generalized
// to an always-16-bit operand width. ---

func (e *Emitter) emitOp(op chunk.OpCode, line int) {
	e.chunk.WriteOp(op, line)
}

func (e *Emitter) emitArgU16(op chunk.OpCode, v uint16, line int) {
	e.chunk.WriteArgU16(op, v, line)
}

func (e *Emitter) emitJump(op chunk.OpCode, line int) int {
	return e.chunk.WriteJump(op, line)
}

func (e *Emitter) patchJump(offset int, line int) {
	if err := e.chunk.PatchJump(offset); err != nil {
		e.fail(perr.SyntaxError, line, "%s", err.Error())
	}
}

// makeStringConstant dedupes string literal constants via e.strings.
func (e *Emitter) makeStringConstant(s string, line int) uint16 {
	if idx, ok := e.strings[s]; ok {
		return idx
	}
	idx, err := e.chunk.MakeConstant(value.ConstString(s))
	if err != nil {
		e.fail(perr.SyntaxError, line, "%s", err.Error())
		return 0
	}
	e.strings[s] = idx
	return idx
}

// makeIdentConstant dedupes identifier-name constants via
// e.identifiers, used for global variable name lookups.
func (e *Emitter) makeIdentConstant(name string, line int) uint16 {
	if idx, ok := e.identifiers[name]; ok {
		return idx
	}
	idx, err := e.chunk.MakeConstant(value.ConstString(name))
	if err != nil {
		e.fail(perr.SyntaxError, line, "%s", err.Error())
		return 0
	}
	e.identifiers[name] = idx
	return idx
}

func (e *Emitter) identKnown(name string) (uint16, bool) {
	idx, ok := e.identifiers[name]
	return idx, ok
}

// emitConstant emits Constant for c, reusing an existing pool entry
// that is Equal to it.
func (e *Emitter) emitConstant(c value.Constant, line int) {
	for i, k := range e.chunk.Constants {
		if k.Equal(c) {
			e.emitArgU16(chunk.OpConstant, uint16(i), line)
			return
		}
	}
	idx, err := e.chunk.MakeConstant(c)
	if err != nil {
		e.fail(perr.SyntaxError, line, "%s", err.Error())
		return
	}
	e.emitArgU16(chunk.OpConstant, idx, line)
}

func (e *Emitter) beginScope() { e.scopeDepth++ }

// endScope pops every local declared at the scope being exited, in
// reverse push order (spec.md §4.3/§5), tagging the Pop instructions
// with endLine (the block's closing token).
func (e *Emitter) endScope(endLine int) {
	e.scopeDepth--
	for len(e.locals) > 0 && e.locals[len(e.locals)-1].depth > e.scopeDepth {
		e.emitOp(chunk.OpPop, endLine)
		e.locals = e.locals[:len(e.locals)-1]
	}
}

// resolveLocal returns the slot index of the topmost local named name,
// or -1 if there is none.
func (e *Emitter) resolveLocal(name string) int {
	for i := len(e.locals) - 1; i >= 0; i-- {
		if e.locals[i].name == name {
			return i
		}
	}
	return -1
}

// --- statements ---

func (e *Emitter) compileStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		e.compileExpr(n.X)
		e.emitOp(chunk.OpPop, n.Tok().Line)
	case *ast.Assignment:
		e.compileAssignment(n)
	case *ast.Block:
		e.beginScope()
		for _, stmt := range n.Stmts {
			e.compileStmt(stmt)
		}
		e.endScope(n.End.Line)
	case *ast.If:
		e.compileIf(n)
	case *ast.Retn:
		if n.Value != nil {
			e.compileExpr(n.Value)
		} else {
			e.emitOp(chunk.OpNil, n.Keyword.Line)
		}
		e.emitOp(chunk.OpReturn, n.Keyword.Line)
	case *ast.Assert:
		e.compileExpr(n.Value)
		e.emitOp(chunk.OpAssert, n.Keyword.Line)
	case *ast.While, *ast.For, *ast.FuncStmt, *ast.Data:
		e.fail(perr.NotImplemented, s.Tok().Line, "%T is not implemented in this core", s)
	default:
		e.fail(perr.NotImplemented, s.Tok().Line, "unhandled statement %T", s)
	}
}

func (e *Emitter) compileAssignment(n *ast.Assignment) {
	line := n.Name.Line
	e.compileExpr(n.Value)

	name := n.Name.Lexeme
	if e.scopeDepth > 0 {
		switch n.Op {
		case ast.Assign:
			if slot := e.resolveLocal(name); slot >= 0 {
				e.emitArgU16(chunk.OpSetLocal, uint16(slot), line)
				return
			}
			idx, ok := e.identKnown(name)
			if !ok {
				e.fail(perr.UndefinedVariable, line, "undefined variable %q", name)
				return
			}
			e.emitArgU16(chunk.OpSetGlobal, idx, line)
		case ast.Declare:
			for i := len(e.locals) - 1; i >= 0 && e.locals[i].depth == e.scopeDepth; i-- {
				if e.locals[i].name == name {
					e.fail(perr.SyntaxError, line, "cannot shadow local variable %q", name)
					return
				}
			}
			e.locals = append(e.locals, local{name: name, depth: e.scopeDepth})
		}
		return
	}

	switch n.Op {
	case ast.Assign:
		idx, ok := e.identKnown(name)
		if !ok {
			e.fail(perr.UndefinedVariable, line, "undefined variable %q", name)
			return
		}
		e.emitArgU16(chunk.OpSetGlobal, idx, line)
	case ast.Declare:
		idx := e.makeIdentConstant(name, line)
		e.emitArgU16(chunk.OpDeclareGlobal, idx, line)
	}
}

// compileIf uses the popping-jump discipline: JumpFalse always consumes
// the condition, so neither branch needs a separate Pop (see
// SPEC_FULL.md §4.3's resolution of the if/else stack-discipline open
// question).
func (e *Emitter) compileIf(n *ast.If) {
	line := n.Keyword.Line
	e.compileExpr(n.Cond)
	elseJump := e.emitJump(chunk.OpJumpFalse, line)

	e.beginScope()
	for _, stmt := range n.Then.Stmts {
		e.compileStmt(stmt)
	}
	e.endScope(n.Then.End.Line)

	endJump := e.emitJump(chunk.OpJump, n.Then.End.Line)
	e.patchJump(elseJump, line)

	if n.Else != nil {
		e.beginScope()
		for _, stmt := range n.Else.Stmts {
			e.compileStmt(stmt)
		}
		e.endScope(n.Else.End.Line)
	}
	e.patchJump(endJump, line)
}

// --- expressions ---

func (e *Emitter) compileExpr(x ast.Expr) {
	switch n := x.(type) {
	case *ast.Atom:
		e.compileAtom(n)
	case *ast.Paren:
		e.compileExpr(n.Inner)
	case *ast.Variable:
		e.compileVariable(n)
	case *ast.Unary:
		e.compileExpr(n.Operand)
		switch n.Op.Kind {
		case token.MINUS:
			e.emitOp(chunk.OpNegate, n.Op.Line)
		case token.NOT:
			e.emitOp(chunk.OpNot, n.Op.Line)
		}
	case *ast.Binary:
		e.compileBinary(n)
	case *ast.Logical:
		e.compileLogical(n)
	case *ast.Call, *ast.New, *ast.Get, *ast.Set, *ast.Index, *ast.Func:
		e.fail(perr.NotImplemented, x.Tok().Line, "%T is not implemented in this core", x)
		e.emitOp(chunk.OpNil, x.Tok().Line)
	default:
		e.fail(perr.NotImplemented, x.Tok().Line, "unhandled expression %T", x)
		e.emitOp(chunk.OpNil, x.Tok().Line)
	}
}

func (e *Emitter) compileAtom(n *ast.Atom) {
	line := n.Token.Line
	switch n.Token.Kind {
	case token.NIL:
		e.emitOp(chunk.OpNil, line)
	case token.TRUE:
		e.emitOp(chunk.OpTrue, line)
	case token.FALSE:
		e.emitOp(chunk.OpFalse, line)
	case token.INTEGER:
		e.emitConstant(value.ConstInteger(n.Token.Int), line)
	case token.DOUBLE:
		e.emitConstant(value.ConstDouble(n.Token.Double), line)
	case token.STRING:
		idx := e.makeStringConstant(n.Token.Lexeme, line)
		e.emitArgU16(chunk.OpConstant, idx, line)
	default:
		e.fail(perr.SyntaxError, line, "unexpected literal token %s", n.Token.Kind.Display())
	}
}

func (e *Emitter) compileVariable(n *ast.Variable) {
	name := n.Name.Lexeme
	line := n.Name.Line
	if slot := e.resolveLocal(name); slot >= 0 {
		e.emitArgU16(chunk.OpGetLocal, uint16(slot), line)
		return
	}
	idx, ok := e.identKnown(name)
	if !ok {
		e.fail(perr.UndefinedVariable, line, "undefined variable %q", name)
		return
	}
	e.emitArgU16(chunk.OpGetGlobal, idx, line)
}

func (e *Emitter) compileBinary(n *ast.Binary) {
	e.compileExpr(n.Left)
	e.compileExpr(n.Right)
	line := n.Op.Line
	switch n.Op.Kind {
	case token.PLUS:
		e.emitOp(chunk.OpAdd, line)
	case token.MINUS:
		e.emitOp(chunk.OpSubtract, line)
	case token.STAR:
		e.emitOp(chunk.OpMultiply, line)
	case token.SLASH:
		e.emitOp(chunk.OpDivide, line)
	case token.PERCENT:
		e.emitOp(chunk.OpModulo, line)
	case token.EQ:
		e.emitOp(chunk.OpEqual, line)
	case token.NEQ:
		e.emitOp(chunk.OpEqual, line)
		e.emitOp(chunk.OpNot, line)
	case token.LT:
		e.emitOp(chunk.OpLess, line)
	case token.GT:
		e.emitOp(chunk.OpGreater, line)
	case token.LE:
		// LessEqual = !Greater (spec.md §4.6).
		e.emitOp(chunk.OpGreater, line)
		e.emitOp(chunk.OpNot, line)
	case token.GE:
		// GreaterEqual = !Less (spec.md §4.6).
		e.emitOp(chunk.OpLess, line)
		e.emitOp(chunk.OpNot, line)
	default:
		e.fail(perr.SyntaxError, line, "unsupported binary operator %s", n.Op.Kind.Display())
	}
}

// compileLogical compiles short-circuit '&&'/'||' with Jump/JumpFalse,
// plus False for '&&' and Dup/Pop for '||' (see SPEC_FULL.md §3/§4.3
// expansion notes). JumpFalse pops its operand as part of branching
// (the popping-jump discipline). '&&' yields the right operand when the
// left is truthy and false otherwise; '||' tests a copy of the left
// operand, so a truthy left value stays on the stack as the result,
// and a falsy one is popped before the right operand is evaluated.
func (e *Emitter) compileLogical(n *ast.Logical) {
	line := n.Op.Line
	e.compileExpr(n.Left)
	switch n.Op.Kind {
	case token.AND:
		shortCircuit := e.emitJump(chunk.OpJumpFalse, line) // pops left; jump if falsy
		e.compileExpr(n.Right)
		end := e.emitJump(chunk.OpJump, line)
		e.patchJump(shortCircuit, line)
		e.emitOp(chunk.OpFalse, line)
		e.patchJump(end, line)
	case token.OR:
		e.emitOp(chunk.OpDup, line)
		evalRHS := e.emitJump(chunk.OpJumpFalse, line) // pops the copy; jump if falsy
		end := e.emitJump(chunk.OpJump, line)
		e.patchJump(evalRHS, line)
		e.emitOp(chunk.OpPop, line)
		e.compileExpr(n.Right)
		e.patchJump(end, line)
	default:
		e.fail(perr.SyntaxError, line, "unsupported logical operator %s", n.Op.Kind.Display())
	}
}

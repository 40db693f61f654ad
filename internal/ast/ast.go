// Package ast defines Piccolo's expression and statement tree, as
// produced by internal/parser and consumed by internal/compiler.
package ast

import "github.com/cheezgi/piccolo/internal/token"

// Node is implemented by every AST node. Every node retains at least one
// token for line-number attribution in diagnostics.
type Node interface {
	Tok() token.Token
}

type Expr interface {
	Node
	exprNode()
}

type Stmt interface {
	Node
	stmtNode()
}

// --- Expressions ---

// Atom is a literal token: integer, double, string, nil, true, false.
type Atom struct {
	Token token.Token
}

func (a *Atom) exprNode()        {}
func (a *Atom) Tok() token.Token { return a.Token }

// Paren is a parenthesized expression, kept distinct from its inner
// expression so diagnostics can point at the opening paren if needed.
type Paren struct {
	LParen token.Token
	Inner  Expr
}

func (p *Paren) exprNode()        {}
func (p *Paren) Tok() token.Token { return p.LParen }

// Variable is a bare identifier reference.
type Variable struct {
	Name token.Token
}

func (v *Variable) exprNode()        {}
func (v *Variable) Tok() token.Token { return v.Name }

// Unary is a prefix operator: '!' or '-'.
type Unary struct {
	Op      token.Token
	Operand Expr
}

func (u *Unary) exprNode()        {}
func (u *Unary) Tok() token.Token { return u.Op }

// Binary is an infix arithmetic/comparison/equality operator.
type Binary struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

func (b *Binary) exprNode()        {}
func (b *Binary) Tok() token.Token { return b.Op }

// Logical is a short-circuit '&&'/'||' expression.
type Logical struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

func (l *Logical) exprNode()        {}
func (l *Logical) Tok() token.Token { return l.Op }

// The following are stub expression nodes for the Non-goal surface
// (calls, "new", member access/assignment, indexing). The emitter
// accepts them only to report NotImplemented rather than to execute
// them; spec.md §3 lists them as AST stubs, not as executable opcodes.

type Call struct {
	Callee token.Token
	Paren  token.Token
	Args   []Expr
}

func (c *Call) exprNode()        {}
func (c *Call) Tok() token.Token { return c.Paren }

type New struct {
	Keyword token.Token
	Type    token.Token
	Args    []Expr
}

func (n *New) exprNode()        {}
func (n *New) Tok() token.Token { return n.Keyword }

type Get struct {
	Object Expr
	Name   token.Token
}

func (g *Get) exprNode()        {}
func (g *Get) Tok() token.Token { return g.Name }

type Set struct {
	Object Expr
	Name   token.Token
	Value  Expr
}

func (s *Set) exprNode()        {}
func (s *Set) Tok() token.Token { return s.Name }

type Index struct {
	Object   Expr
	Bracket  token.Token
	Subindex Expr
}

func (ix *Index) exprNode()        {}
func (ix *Index) Tok() token.Token { return ix.Bracket }

type Func struct {
	Keyword token.Token
	Params  []token.Token
	Body    *Block
}

func (f *Func) exprNode()        {}
func (f *Func) Tok() token.Token { return f.Keyword }

// --- Statements ---

// ExprStmt evaluates an expression and discards its result.
type ExprStmt struct {
	X Expr
}

func (e *ExprStmt) stmtNode()       {}
func (e *ExprStmt) Tok() token.Token { return e.X.Tok() }

// AssignOp distinguishes '=' (assignment) from ':=' (declaration).
type AssignOp int

const (
	Assign AssignOp = iota
	Declare
)

// Assignment is `name = value` or `name := value`.
type Assignment struct {
	Name  token.Token
	Op    AssignOp
	OpTok token.Token
	Value Expr
}

func (a *Assignment) stmtNode()        {}
func (a *Assignment) Tok() token.Token { return a.Name }

// Block is a `do ... end` statement sequence.
type Block struct {
	Do    token.Token
	Stmts []Stmt
	End   token.Token
}

func (b *Block) stmtNode()        {}
func (b *Block) Tok() token.Token { return b.Do }

// If is `if cond do ... [else ...] end`.
type If struct {
	Keyword token.Token
	Cond    Expr
	Then    *Block
	Else    *Block // nil if no else clause
}

func (i *If) stmtNode()        {}
func (i *If) Tok() token.Token { return i.Keyword }

// While is `while cond do ... end`. Stub: parses, but the emitter
// reports NotImplemented (loops are a spec.md Non-goal).
type While struct {
	Keyword token.Token
	Cond    Expr
	Body    *Block
}

func (w *While) stmtNode()        {}
func (w *While) Tok() token.Token { return w.Keyword }

// For is `for name in iter do ... end`. Stub, see While.
type For struct {
	Keyword token.Token
	Name    token.Token
	Iter    Expr
	Body    *Block
}

func (f *For) stmtNode()        {}
func (f *For) Tok() token.Token { return f.Keyword }

// FuncStmt is `fn name(params) do ... end`. Stub, see While.
type FuncStmt struct {
	Keyword token.Token
	Name    token.Token
	Params  []token.Token
	Body    *Block
}

func (f *FuncStmt) stmtNode()        {}
func (f *FuncStmt) Tok() token.Token { return f.Keyword }

// Retn is `retn [value]`.
type Retn struct {
	Keyword token.Token
	Value   Expr // nil means bare retn (implicit Nil)
}

func (r *Retn) stmtNode()        {}
func (r *Retn) Tok() token.Token { return r.Keyword }

// Assert is `assert value`.
type Assert struct {
	Keyword token.Token
	Value   Expr
}

func (a *Assert) stmtNode()        {}
func (a *Assert) Tok() token.Token { return a.Keyword }

// Data is `data Name is ... end`. Stub, see While.
type Data struct {
	Keyword token.Token
	Name    token.Token
	Fields  []token.Token
}

func (d *Data) stmtNode()        {}
func (d *Data) Tok() token.Token { return d.Keyword }

// Program is the root node: a sequence of top-level statements.
type Program struct {
	Stmts []Stmt
}

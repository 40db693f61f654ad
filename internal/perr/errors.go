// Package perr implements Piccolo's diagnostic and fatal error values
// and the batching used by the scanner, parser, and emitter.
package perr

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Kind identifies the class of a PiccoloError.
type Kind int

const (
	UnterminatedString Kind = iota
	InvalidUTF8
	InvalidNumberLiteral
	SyntaxError
	UndefinedVariable
	IncorrectType
	StackUnderflow
	AssertFailed
	NotImplemented
	DivideByZero
	CacheMiss
	CacheError
)

func (k Kind) String() string {
	switch k {
	case UnterminatedString:
		return "UnterminatedString"
	case InvalidUTF8:
		return "InvalidUTF8"
	case InvalidNumberLiteral:
		return "InvalidNumberLiteral"
	case SyntaxError:
		return "SyntaxError"
	case UndefinedVariable:
		return "UndefinedVariable"
	case IncorrectType:
		return "IncorrectType"
	case StackUnderflow:
		return "StackUnderflow"
	case AssertFailed:
		return "AssertFailed"
	case NotImplemented:
		return "NotImplemented"
	case DivideByZero:
		return "DivideByZero"
	case CacheMiss:
		return "CacheMiss"
	case CacheError:
		return "CacheError"
	default:
		return "Error"
	}
}

// Error is a single Piccolo diagnostic or fatal error.
type Error struct {
	Kind Kind
	Line int    // 0 means "no line known"
	File string // "" means "no file known"
	Msg  string

	// IncorrectType detail, populated when Kind == IncorrectType.
	Expected string
	Got      string
	Op       string
}

func New(kind Kind, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func Typef(line int, expected, got, op string) *Error {
	return &Error{
		Kind:     IncorrectType,
		Line:     line,
		Expected: expected,
		Got:      got,
		Op:       op,
		Msg:      fmt.Sprintf("expected %s, got %s (in %s)", expected, got, op),
	}
}

// WithFile attaches a source file path to the error, returning a new value.
func (e *Error) WithFile(file string) *Error {
	cp := *e
	cp.File = file
	return &cp
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.File != "" || e.Line > 0 {
		b.WriteString(" [")
		if e.File != "" {
			b.WriteString(e.File)
			b.WriteString(":")
		}
		if e.Line > 0 {
			fmt.Fprintf(&b, "line %d", e.Line)
		}
		b.WriteString("]")
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

// Batch accumulates diagnostics from the scanner/parser/emitter. The zero
// value is ready to use.
type Batch struct {
	errs *multierror.Error
}

func (b *Batch) Add(e *Error) {
	b.errs = multierror.Append(b.errs, e)
}

func (b *Batch) HasErrors() bool {
	return b.errs != nil && b.errs.Len() > 0
}

// Errors returns the accumulated errors in order, or nil if empty.
func (b *Batch) Errors() []*Error {
	if b.errs == nil {
		return nil
	}
	out := make([]*Error, 0, len(b.errs.Errors))
	for _, e := range b.errs.Errors {
		if pe, ok := e.(*Error); ok {
			out = append(out, pe)
		}
	}
	return out
}

// WithFile decorates every accumulated error with a source file path.
func (b *Batch) WithFile(file string) []*Error {
	errs := b.Errors()
	out := make([]*Error, len(errs))
	for i, e := range errs {
		out[i] = e.WithFile(file)
	}
	return out
}

// Report renders the user-visible failure form required by spec.md §7:
// a single error prints as "Error <msg>"; multiple errors print a count
// and an indented list.
func Report(errs []*Error) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return "Error " + errs[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors occurred:\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(&b, "\t* %s\n", e.Error())
	}
	return strings.TrimRight(b.String(), "\n")
}

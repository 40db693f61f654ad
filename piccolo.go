// Package piccolo is the embeddable entry point for the Piccolo
// language core: Scanner -> Parser -> Emitter -> Machine, strictly
// forward (spec.md §2), grounded on original_source/src/lib.rs's
// `interpret`/`do_file` functions.
package piccolo

import (
	"os"

	"github.com/cheezgi/piccolo/internal/chunk"
	"github.com/cheezgi/piccolo/internal/compiler"
	"github.com/cheezgi/piccolo/internal/lexer"
	"github.com/cheezgi/piccolo/internal/parser"
	"github.com/cheezgi/piccolo/internal/perr"
	"github.com/cheezgi/piccolo/internal/value"
	"github.com/cheezgi/piccolo/internal/vm"
)

// Interpret runs Piccolo source text to completion, returning its
// terminal Constant or the full batch of diagnostics that prevented it
// (spec.md §6's library entry point).
func Interpret(src string) (value.Constant, []*perr.Error) {
	c, errs := Compile(src)
	if len(errs) > 0 {
		return value.Constant{}, errs
	}
	m := vm.New(c)
	result, err := m.Interpret()
	if err != nil {
		if pe, ok := err.(*perr.Error); ok {
			return value.Constant{}, []*perr.Error{pe}
		}
		return value.Constant{}, []*perr.Error{perr.New(perr.SyntaxError, 0, "%s", err.Error())}
	}
	return result, nil
}

// Compile runs the Scanner, Parser, and Emitter, returning a chunk ready
// for vm.New, or the accumulated compile-time diagnostics.
func Compile(src string) (*chunk.Chunk, []*perr.Error) {
	l := lexer.New(src)
	toks := l.ScanTokens()
	if l.Errors.HasErrors() {
		return nil, l.Errors.Errors()
	}
	p := parser.New(toks)
	prog, perrs := p.Parse()
	if len(perrs) > 0 {
		return nil, perrs
	}
	c, cerrs := compiler.Compile(prog)
	if len(cerrs) > 0 {
		return nil, cerrs
	}
	return c, nil
}

// RunChunk executes an already-compiled chunk, bypassing the
// Scanner/Parser/Emitter entirely — the path `cmd/piccolo load-cache`
// takes for a bytecode-cache hit.
func RunChunk(c *chunk.Chunk) (value.Constant, error) {
	m := vm.New(c)
	result, err := m.Interpret()
	if err != nil {
		return value.Constant{}, err
	}
	return result, nil
}

// DoFile reads file as UTF-8 source text and interprets it, decorating
// any diagnostics with the file path (spec.md §6).
func DoFile(path string) (value.Constant, []*perr.Error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return value.Constant{}, nil, err
	}
	result, errs := Interpret(string(data))
	if len(errs) > 0 {
		decorated := make([]*perr.Error, len(errs))
		for i, e := range errs {
			decorated[i] = e.WithFile(path)
		}
		return value.Constant{}, decorated, nil
	}
	return result, nil, nil
}

// Package heap implements Piccolo's runtime object store: opaque stable
// handles that a Value may hold, currently used only for strings
// produced by runtime concatenation (spec.md §4.5).
package heap

import (
	"github.com/cheezgi/piccolo/internal/value"
)

// Heap owns runtime-allocated objects behind stable handles. No GC is
// required: the Heap simply owns objects for the Machine's lifetime.
type Heap struct {
	strings []string
}

func New() *Heap {
	return &Heap{}
}

// AllocString stores s and returns a Value wrapping a fresh handle.
// Handles are monotonically assigned and never reused while the Heap is
// alive.
func (h *Heap) AllocString(s string) value.Value {
	h.strings = append(h.strings, s)
	return value.NewObject(value.Handle(len(h.strings) - 1))
}

func (h *Heap) stringAt(handle value.Handle) string {
	return h.strings[int(handle)]
}

// IsString reports whether v currently denotes a heap string.
func (h *Heap) IsString(v value.Value) bool {
	return v.Type == value.Object
}

// TypeName returns the VM-visible type name of v, used in IncorrectType
// diagnostics.
func (h *Heap) TypeName(v value.Value) string {
	switch v.Type {
	case value.Nil:
		return "nil"
	case value.Bool:
		return "bool"
	case value.Integer:
		return "integer"
	case value.Double:
		return "double"
	case value.Object:
		return "string"
	default:
		return "unknown"
	}
}

// Fmt renders v for display (used by string concatenation's RHS coercion
// and by the Return opcode's stdout side effect).
func (h *Heap) Fmt(v value.Value) string {
	switch v.Type {
	case value.Nil:
		return "nil"
	case value.Bool:
		if v.AsBool {
			return "true"
		}
		return "false"
	case value.Integer:
		return v.String()
	case value.Double:
		return v.String()
	case value.Object:
		return h.stringAt(v.AsObj)
	default:
		return "<invalid>"
	}
}

// Eq answers value-sensitive equality across types, per spec.md §4.6 /
// §9: nil=nil; bool=bool by value; integer=integer by value; double by
// value; string by content; cross-numeric (int vs double) is NOT equal
// (the stricter VM semantics this spec adopts). ok is false when the
// pair is not comparable for equality at all (never happens for the
// scalar/string set Piccolo has, but mirrors the original's
// Option<bool>-returning heap.eq contract for future object kinds).
func (h *Heap) Eq(a, b value.Value) (result bool, ok bool) {
	if a.Type != b.Type {
		return false, true
	}
	switch a.Type {
	case value.Nil:
		return true, true
	case value.Bool:
		return a.AsBool == b.AsBool, true
	case value.Integer:
		return a.AsInt == b.AsInt, true
	case value.Double:
		return a.AsFloat == b.AsFloat, true
	case value.Object:
		return h.stringAt(a.AsObj) == h.stringAt(b.AsObj), true
	default:
		return false, false
	}
}

// numeric returns the float64 view of a numeric Value and whether v is
// numeric at all.
func numeric(v value.Value) (float64, bool) {
	switch v.Type {
	case value.Integer:
		return float64(v.AsInt), true
	case value.Double:
		return v.AsFloat, true
	default:
		return 0, false
	}
}

// Lt/Gt implement ordering comparison: booleans are rejected by the
// caller before these are invoked (spec.md §4.6); numbers compare with
// cross-type promotion to float64; strings compare lexicographically.
func (h *Heap) Lt(a, b value.Value) (result bool, ok bool) {
	if af, aok := numeric(a); aok {
		if bf, bok := numeric(b); bok {
			return af < bf, true
		}
	}
	if h.IsString(a) && h.IsString(b) {
		return h.stringAt(a.AsObj) < h.stringAt(b.AsObj), true
	}
	return false, false
}

func (h *Heap) Gt(a, b value.Value) (result bool, ok bool) {
	if af, aok := numeric(a); aok {
		if bf, bok := numeric(b); bok {
			return af > bf, true
		}
	}
	if h.IsString(a) && h.IsString(b) {
		return h.stringAt(a.AsObj) > h.stringAt(b.AsObj), true
	}
	return false, false
}

// ToConstant converts a stack Value into an owned Constant, stringifying
// heap strings so the terminal result outlives the Heap/Machine
// (spec.md §4.5).
func (h *Heap) ToConstant(v value.Value) value.Constant {
	switch v.Type {
	case value.Nil:
		return value.ConstNil()
	case value.Bool:
		return value.ConstBool(v.AsBool)
	case value.Integer:
		return value.ConstInteger(v.AsInt)
	case value.Double:
		return value.ConstDouble(v.AsFloat)
	case value.Object:
		return value.ConstString(h.stringAt(v.AsObj))
	default:
		return value.ConstNil()
	}
}

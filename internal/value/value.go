// Package value defines Piccolo's compile-time Constant and runtime
// Value representations.
package value

import "fmt"

// Type tags a Value/Constant's variant.
type Type int

const (
	Nil Type = iota
	Bool
	Integer
	Double
	Object // opaque heap handle; see internal/heap
)

func (t Type) String() string {
	switch t {
	case Nil:
		return "nil"
	case Bool:
		return "bool"
	case Integer:
		return "integer"
	case Double:
		return "double"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Handle is an opaque, stable reference into a Heap. It is never reused
// while the object it names is alive.
type Handle uint32

// Value is a runtime stack cell: a trivially-copyable tagged union of
// Nil, Bool, Integer, Double, or an opaque heap Handle.
type Value struct {
	Type    Type
	AsBool  bool
	AsInt   int64
	AsFloat float64
	AsObj   Handle
}

func NewNil() Value             { return Value{Type: Nil} }
func NewBool(b bool) Value       { return Value{Type: Bool, AsBool: b} }
func NewInteger(i int64) Value   { return Value{Type: Integer, AsInt: i} }
func NewDouble(f float64) Value  { return Value{Type: Double, AsFloat: f} }
func NewObject(h Handle) Value   { return Value{Type: Object, AsObj: h} }

// Truthy reports whether v is considered true in a boolean context.
// Only Nil and Bool(false) are falsy (spec.md §9).
func (v Value) Truthy() bool {
	switch v.Type {
	case Nil:
		return false
	case Bool:
		return v.AsBool
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.Type {
	case Nil:
		return "nil"
	case Bool:
		return fmt.Sprintf("%t", v.AsBool)
	case Integer:
		return fmt.Sprintf("%d", v.AsInt)
	case Double:
		return fmt.Sprintf("%g", v.AsFloat)
	case Object:
		return fmt.Sprintf("<object #%d>", v.AsObj)
	default:
		return "<invalid value>"
	}
}

// Constant is a compile-time literal stored in a Chunk's constant pool.
// Unlike Value, it owns its data directly (no heap handle), so it can
// outlive any particular Machine run.
type Constant struct {
	Type    Type
	AsBool  bool
	AsInt   int64
	AsFloat float64
	AsStr   string
}

func ConstNil() Constant            { return Constant{Type: Nil} }
func ConstBool(b bool) Constant      { return Constant{Type: Bool, AsBool: b} }
func ConstInteger(i int64) Constant  { return Constant{Type: Integer, AsInt: i} }
func ConstDouble(f float64) Constant { return Constant{Type: Double, AsFloat: f} }
func ConstString(s string) Constant  { return Constant{Type: Object, AsStr: s} }

// Equal reports constant-pool-level equality, used to dedupe literals
// (spec.md §3: "Constants are interned per-chunk by value equality").
func (c Constant) Equal(o Constant) bool {
	if c.Type != o.Type {
		return false
	}
	switch c.Type {
	case Nil:
		return true
	case Bool:
		return c.AsBool == o.AsBool
	case Integer:
		return c.AsInt == o.AsInt
	case Double:
		return c.AsFloat == o.AsFloat
	case Object:
		return c.AsStr == o.AsStr
	default:
		return false
	}
}

func (c Constant) String() string {
	switch c.Type {
	case Nil:
		return "nil"
	case Bool:
		return fmt.Sprintf("%t", c.AsBool)
	case Integer:
		return fmt.Sprintf("%d", c.AsInt)
	case Double:
		return fmt.Sprintf("%g", c.AsFloat)
	case Object:
		return c.AsStr
	default:
		return "<invalid constant>"
	}
}

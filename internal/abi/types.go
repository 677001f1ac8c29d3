package abi

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags one member of a contract interface.
type Kind string

// Member kinds.
const (
	KindFunction    Kind = "function"
	KindEvent       Kind = "event"
	KindError       Kind = "error"
	KindConstructor Kind = "constructor"
	KindFallback    Kind = "fallback"
	KindReceive     Kind = "receive"
)

// Valid reports whether k is a known member kind.
func (k Kind) Valid() bool {
	switch k {
	case KindFunction, KindEvent, KindError, KindConstructor, KindFallback, KindReceive:
		return true
	}
	return false
}

// Named reports whether members of this kind carry a name.
func (k Kind) Named() bool {
	return k == KindFunction || k == KindEvent || k == KindError
}

// Mutability is a function's state mutability class.
type Mutability string

// Mutability classes.
const (
	Pure       Mutability = "pure"
	View       Mutability = "view"
	NonPayable Mutability = "nonpayable"
	Payable    Mutability = "payable"
)

// Valid reports whether m is a known mutability class.
func (m Mutability) Valid() bool {
	switch m {
	case Pure, View, NonPayable, Payable:
		return true
	}
	return false
}

// ReadOnly reports whether calls never change state (pure/view).
func (m Mutability) ReadOnly() bool { return m == Pure || m == View }

// Param is a single input, output or tuple component.
type Param struct {
	Name         string
	Type         *Type
	InternalType string // e.g. "enum IPausable.Status", informational only
	Indexed      bool   // events only
}

// Entry is one member of a contract interface.
type Entry struct {
	Kind       Kind
	Name       string // empty for constructor, fallback and receive
	Inputs     []Param
	Outputs    []Param // functions only
	Mutability Mutability
	Anonymous  bool // events only
}

// TypeKind is the tag of a semantic ABI type.
type TypeKind int

// Semantic type tags.
const (
	UintTy TypeKind = iota
	IntTy
	BoolTy
	AddressTy
	FixedBytesTy
	BytesTy
	StringTy
	ArrayTy // fixed length T[k]
	SliceTy // dynamic length T[]
	TupleTy
)

// Type is a parsed, recursive ABI type.
//
// Size holds the bit width for integers, the byte width for fixed bytes and
// the length for fixed arrays. Elem is set for arrays and slices, Components
// for tuples.
type Type struct {
	Kind       TypeKind
	Size       int
	Elem       *Type
	Components []Param
}

// String returns the canonical type string used in signatures. Tuples are
// expanded to their component list.
func (t *Type) String() string {
	switch t.Kind {
	case UintTy:
		return "uint" + strconv.Itoa(t.Size)
	case IntTy:
		return "int" + strconv.Itoa(t.Size)
	case BoolTy:
		return "bool"
	case AddressTy:
		return "address"
	case FixedBytesTy:
		return "bytes" + strconv.Itoa(t.Size)
	case BytesTy:
		return "bytes"
	case StringTy:
		return "string"
	case ArrayTy:
		return t.Elem.String() + "[" + strconv.Itoa(t.Size) + "]"
	case SliceTy:
		return t.Elem.String() + "[]"
	case TupleTy:
		parts := make([]string, len(t.Components))
		for i, c := range t.Components {
			parts[i] = c.Type.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	}
	return fmt.Sprintf("<invalid type %d>", t.Kind)
}

// IsDynamic reports whether values of t are encoded in the tail region.
func (t *Type) IsDynamic() bool {
	switch t.Kind {
	case BytesTy, StringTy, SliceTy:
		return true
	case ArrayTy:
		return t.Elem.IsDynamic()
	case TupleTy:
		for _, c := range t.Components {
			if c.Type.IsDynamic() {
				return true
			}
		}
	}
	return false
}

// HeadSize returns the number of bytes t occupies in the head region of an
// enclosing tuple: 32 for dynamic types, the full in-place size otherwise.
func (t *Type) HeadSize() int {
	if t.IsDynamic() {
		return 32
	}
	switch t.Kind {
	case ArrayTy:
		return t.Size * t.Elem.HeadSize()
	case TupleTy:
		n := 0
		for _, c := range t.Components {
			n += c.Type.HeadSize()
		}
		return n
	}
	return 32
}

// IsValueType reports whether t fits in a single 32-byte word.
func (t *Type) IsValueType() bool {
	switch t.Kind {
	case UintTy, IntTy, BoolTy, AddressTy, FixedBytesTy:
		return true
	}
	return false
}

// Types returns the types of params in order.
func Types(params []Param) []*Type {
	out := make([]*Type, len(params))
	for i, p := range params {
		out[i] = p.Type
	}
	return out
}

// TupleOf builds a tuple type from params.
func TupleOf(params []Param) *Type {
	return &Type{Kind: TupleTy, Components: params}
}

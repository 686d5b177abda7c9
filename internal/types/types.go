// Package types implements the Yabal type system described in
// spec.md §4.2: primitive kinds, pointers (with bank), references,
// structs with bit-field members, and fixed-size arrays. Modeled after
// the teacher's yparse/types.go Type struct, generalized from the
// WUT-4's flat base-type set to this machine's richer kind set.
package types

import "fmt"

// Kind enumerates the type system's primitive shapes.
type Kind int

const (
	Unknown Kind = iota
	Void
	Integer
	Boolean
	Char
	Pointer
	Reference
	Struct
	Array
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Integer:
		return "int"
	case Boolean:
		return "bool"
	case Char:
		return "char"
	case Pointer:
		return "pointer"
	case Reference:
		return "reference"
	case Struct:
		return "struct"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

// BitField describes a sub-word bit range within a struct field's host
// word: {offset, size} in bits, least-significant bit first.
type BitField struct {
	Offset int
	Size   int
}

// Field is one member of a StructDef.
type Field struct {
	Name   string
	Offset int // word offset of the field's host word within the struct
	Type   *Type
	Bits   *BitField // non-nil for bit-field members
}

// StructDef is the ordered field list shared by every Type referencing
// the same struct name.
type StructDef struct {
	Name   string
	Fields []Field
}

// FieldByName looks up a field by name, or returns (Field{}, false).
func (s *StructDef) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Size is the struct's size in words: the highest field's host-word
// offset plus that host word's width, not a per-field sum — bit-fields
// sharing a host word contribute once (spec.md §8 "sizeof(T)").
func (s *StructDef) Size() int {
	max := 0
	for _, f := range s.Fields {
		width := 1
		if f.Bits == nil {
			width = f.Type.Size()
		}
		if f.Offset+width > max {
			max = f.Offset + width
		}
	}
	return max
}

// Type is an immutable value describing a Yabal type. Compose with the
// New* constructors rather than struct literals so equality checks
// (Equal) stay correct as fields are added.
type Type struct {
	Kind   Kind
	Elem   *Type      // Pointer, Reference, Array element type
	Bank   int        // Pointer bank (0 = program memory)
	Length int        // Array length; 0 for a bare pointer
	Def    *StructDef // Struct
}

var (
	TypeVoid    = &Type{Kind: Void}
	TypeInt     = &Type{Kind: Integer}
	TypeBool    = &Type{Kind: Boolean}
	TypeChar    = &Type{Kind: Char}
	TypeUnknown = &Type{Kind: Unknown}
)

// NewPointer returns a Pointer type to elem in the given bank.
func NewPointer(elem *Type, bank int) *Type {
	return &Type{Kind: Pointer, Elem: elem, Bank: bank}
}

// NewReference returns a Reference type wrapping inner.
func NewReference(inner *Type) *Type {
	return &Type{Kind: Reference, Elem: inner}
}

// NewArray returns a fixed-size Array type of length elements.
func NewArray(elem *Type, length int) *Type {
	return &Type{Kind: Array, Elem: elem, Length: length}
}

// NewStruct returns a Struct type backed by def.
func NewStruct(def *StructDef) *Type {
	return &Type{Kind: Struct, Def: def}
}

// Size returns the type's size in machine words (spec.md §4.2).
func (t *Type) Size() int {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case Integer, Boolean, Char:
		return 1
	case Pointer, Reference:
		// Address + bank, per spec.md §4.2: "pointer = 2 words".
		return 2
	case Struct:
		if t.Def == nil {
			return 0
		}
		return t.Def.Size()
	case Array:
		return t.Elem.Size() * t.Length
	default:
		return 0
	}
}

// IsIntegral reports whether values of t behave as plain integers for
// arithmetic purposes (int, bool, char all fold through the same ALU
// path on this machine).
func (t *Type) IsIntegral() bool {
	return t != nil && (t.Kind == Integer || t.Kind == Boolean || t.Kind == Char)
}

// IsAddressLike reports whether t occupies an address+bank pair.
func (t *Type) IsAddressLike() bool {
	return t != nil && (t.Kind == Pointer || t.Kind == Reference)
}

// Equal reports structural type equality.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case Pointer:
		return t.Bank == o.Bank && t.Elem.Equal(o.Elem)
	case Reference:
		return t.Elem.Equal(o.Elem)
	case Array:
		return t.Length == o.Length && t.Elem.Equal(o.Elem)
	case Struct:
		return t.Def == o.Def || (t.Def != nil && o.Def != nil && t.Def.Name == o.Def.Name)
	default:
		return true
	}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case Pointer:
		if t.Bank != 0 {
			return fmt.Sprintf("%s[]@bank%d", t.Elem, t.Bank)
		}
		return fmt.Sprintf("%s[]", t.Elem)
	case Reference:
		return fmt.Sprintf("ref %s", t.Elem)
	case Array:
		return fmt.Sprintf("%s[%d]", t.Elem, t.Length)
	case Struct:
		if t.Def != nil {
			return t.Def.Name
		}
		return "struct"
	default:
		return t.Kind.String()
	}
}

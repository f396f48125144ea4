package ast

import (
	"strconv"
	"strings"
)

// TypeKind defines the shape of a Type node.
type TypeKind int

const (
	TYPE_PRIMITIVE TypeKind = iota
	TYPE_POINTER
	TYPE_ARRAY
)

// Type represents a language type as a small recursive structure: a base
// type name optionally wrapped by pointer-to or array-of layers, so int**
// and int[10] are representable without a nominal type table. Types are
// compared structurally.
type Type struct {
	Kind      TypeKind
	Name      string // base type name, primitives only
	Base      *Type  // element type for pointers and arrays
	ArraySize int64  // -1 when the array has no declared size
}

// Pre-defined primitive types
var (
	TypeVoid   = &Type{Kind: TYPE_PRIMITIVE, Name: "void"}
	TypeChar   = &Type{Kind: TYPE_PRIMITIVE, Name: "char"}
	TypeShort  = &Type{Kind: TYPE_PRIMITIVE, Name: "short"}
	TypeInt    = &Type{Kind: TYPE_PRIMITIVE, Name: "int"}
	TypeLong   = &Type{Kind: TYPE_PRIMITIVE, Name: "long"}
	TypeFloat  = &Type{Kind: TYPE_PRIMITIVE, Name: "float"}
	TypeDouble = &Type{Kind: TYPE_PRIMITIVE, Name: "double"}
	TypeBool   = &Type{Kind: TYPE_PRIMITIVE, Name: "bool"}

	TypeCharPtr = PointerTo(TypeChar)
	TypeVoidPtr = PointerTo(TypeVoid)
)

func NewPrimitive(name string) *Type { return &Type{Kind: TYPE_PRIMITIVE, Name: name} }

func PointerTo(base *Type) *Type { return &Type{Kind: TYPE_POINTER, Base: base} }

func ArrayOf(base *Type, size int64) *Type {
	return &Type{Kind: TYPE_ARRAY, Base: base, ArraySize: size}
}

// Equal reports structural equality. Array sizes participate so that
// int[10] and int[20] are distinct types.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case TYPE_PRIMITIVE:
		return t.Name == other.Name
	case TYPE_POINTER:
		return t.Base.Equal(other.Base)
	case TYPE_ARRAY:
		return t.ArraySize == other.ArraySize && t.Base.Equal(other.Base)
	}
	return false
}

// IsPointer reports whether the outermost layer is pointer-to.
func (t *Type) IsPointer() bool { return t != nil && t.Kind == TYPE_POINTER }

// IsArray reports whether the outermost layer is array-of.
func (t *Type) IsArray() bool { return t != nil && t.Kind == TYPE_ARRAY }

// IsVoidPointer reports whether the type is void*.
func (t *Type) IsVoidPointer() bool {
	return t.IsPointer() && t.Base.Kind == TYPE_PRIMITIVE && t.Base.Name == "void"
}

// BaseName walks through pointer/array wrapping to the primitive name.
func (t *Type) BaseName() string {
	for t != nil && t.Kind != TYPE_PRIMITIVE {
		t = t.Base
	}
	if t == nil {
		return ""
	}
	return t.Name
}

// String renders the type the way it would appear in source, e.g. "int**"
// or "char[10]".
func (t *Type) String() string {
	if t == nil {
		return "<unknown>"
	}
	switch t.Kind {
	case TYPE_PRIMITIVE:
		return t.Name
	case TYPE_POINTER:
		return t.Base.String() + "*"
	case TYPE_ARRAY:
		if t.ArraySize < 0 {
			return t.Base.String() + "[]"
		}
		var sb strings.Builder
		sb.WriteString(t.Base.String())
		sb.WriteByte('[')
		sb.WriteString(strconv.FormatInt(t.ArraySize, 10))
		sb.WriteByte(']')
		return sb.String()
	}
	return "<unknown>"
}

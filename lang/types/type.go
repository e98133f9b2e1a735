// Package types implements the C type model of spec §4.4: a small tagged
// graph of void/integer/floating/pointer/array/function/struct/union/enum
// types, with size/alignment computation, struct/union field layout, and the
// classification predicates the parser and constant evaluator need
// (is_int/is_fp/is_arith/is_incomplete and friends).
//
// A single Type struct covers every kind rather than one Go type per kind,
// because C types nest structurally (a pointer's Elem, an array's Elem, a
// struct's Fields) rather than dispatching through an interface.
package types

import "fmt"

// Kind tags which case of the type graph a Type represents.
type Kind uint8

const (
	Void Kind = iota

	Bool
	Char
	SChar
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LLong
	ULLong

	Float
	Double
	LDouble

	Pointer
	Array
	Func
	Struct
	Union
	Enum
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Bool:
		return "_Bool"
	case Char:
		return "char"
	case SChar:
		return "signed char"
	case UChar:
		return "unsigned char"
	case Short:
		return "short"
	case UShort:
		return "unsigned short"
	case Int:
		return "int"
	case UInt:
		return "unsigned int"
	case Long:
		return "long"
	case ULong:
		return "unsigned long"
	case LLong:
		return "long long"
	case ULLong:
		return "unsigned long long"
	case Float:
		return "float"
	case Double:
		return "double"
	case LDouble:
		return "long double"
	case Pointer:
		return "pointer"
	case Array:
		return "array"
	case Func:
		return "function"
	case Struct:
		return "struct"
	case Union:
		return "union"
	case Enum:
		return "enum"
	}
	return "?"
}

// Field is one member of a struct or union type, with its byte offset
// already computed by CompleteRecord (spec §4.4).
type Field struct {
	Name       string
	Type       *Type
	Offset     int
	BitWidth   int
	HasBitSize bool
}

// EnumConst is one enumerator of an Enum type, with its constant value
// already folded by the constant evaluator at declaration time.
type EnumConst struct {
	Name  string
	Value int64
}

// Type is a node in the C type graph. Only the fields relevant to Kind are
// meaningful; the rest are zero. Types are built once by the parser/type
// model and then shared by pointer (multiple AST nodes reference the same
// *Type), matching spec §4.4's "types form a graph, not a tree, once
// pointers and structs can refer to themselves or each other".
type Type struct {
	Kind     Kind
	Const    bool
	Volatile bool
	Restrict bool

	// Pointer, Array
	Elem     *Type
	ArrayLen int  // -1 if the array's length isn't yet known (incomplete)
	IsVLA    bool // true if ArrayLen is a runtime expression, not a constant

	// Func
	Params     []*Type
	ParamNames []string
	Variadic   bool
	Return     *Type
	KAndR      bool // declared with an empty/unspecified parameter list

	// Struct, Union
	Tag        string
	Fields     []Field
	Incomplete bool // declared (via tag) but not yet defined

	// Enum
	EnumConsts []EnumConst
	Underlying *Type // the integer type chosen to represent this enum

	size  int
	align int
}

// String renders a Type roughly the way a diagnostic would name it.
func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	switch t.Kind {
	case Pointer:
		return t.Elem.String() + " *"
	case Array:
		if t.IsVLA {
			return t.Elem.String() + " [*]"
		}
		if t.ArrayLen < 0 {
			return t.Elem.String() + " []"
		}
		return fmt.Sprintf("%s [%d]", t.Elem.String(), t.ArrayLen)
	case Func:
		return "function returning " + t.Return.String()
	case Struct:
		if t.Tag != "" {
			return "struct " + t.Tag
		}
		return "anonymous struct"
	case Union:
		if t.Tag != "" {
			return "union " + t.Tag
		}
		return "anonymous union"
	case Enum:
		if t.Tag != "" {
			return "enum " + t.Tag
		}
		return "anonymous enum"
	default:
		return t.Kind.String()
	}
}

// IsInt reports whether t is one of the integer kinds (including _Bool, char
// variants, and enums, which are represented by their underlying integer
// type per spec §4.4).
func (t *Type) IsInt() bool {
	switch t.Kind {
	case Bool, Char, SChar, UChar, Short, UShort, Int, UInt, Long, ULong, LLong, ULLong:
		return true
	case Enum:
		return true
	}
	return false
}

// IsFP reports whether t is a floating-point kind.
func (t *Type) IsFP() bool {
	switch t.Kind {
	case Float, Double, LDouble:
		return true
	}
	return false
}

// IsArith reports whether t is an arithmetic type (integer or floating).
func (t *Type) IsArith() bool { return t.IsInt() || t.IsFP() }

// IsScalar reports whether t is a scalar type (arithmetic or pointer), i.e.
// may be the operand of unary '!' or appear in a condition.
func (t *Type) IsScalar() bool { return t.IsArith() || t.Kind == Pointer }

// IsVoidPtr reports whether t is specifically "pointer to void".
func (t *Type) IsVoidPtr() bool { return t.Kind == Pointer && t.Elem.Kind == Void }

// IsUnsigned reports whether t is an unsigned integer kind. Enums defer to
// their underlying type.
func (t *Type) IsUnsigned() bool {
	switch t.Kind {
	case Bool, UChar, UShort, UInt, ULong, ULLong:
		return true
	case Enum:
		return t.Underlying != nil && t.Underlying.IsUnsigned()
	}
	return false
}

// IsIncomplete reports whether t may not be used to declare an object of
// its own size: void, an array of unknown length, or a struct/union/enum
// declared but not yet defined (spec §4.4).
func (t *Type) IsIncomplete() bool {
	switch t.Kind {
	case Void:
		return true
	case Array:
		return t.ArrayLen < 0 && !t.IsVLA
	case Struct, Union:
		return t.Incomplete
	case Enum:
		return t.Incomplete
	}
	return false
}

// IsAggregate reports whether t is a struct, union, or array type.
func (t *Type) IsAggregate() bool {
	return t.Kind == Struct || t.Kind == Union || t.Kind == Array
}

// IsStringType reports whether t is "array of char"-shaped, the type a
// string literal naturally has.
func (t *Type) IsStringType() bool {
	return t.Kind == Array && (t.Elem.Kind == Char || t.Elem.Kind == SChar || t.Elem.Kind == UChar)
}

// Unqualified returns a copy of t with const/volatile/restrict cleared, used
// when comparing types for compatibility (spec §4.4: qualifiers don't affect
// a type's identity for most purposes, only assignability).
func (t *Type) Unqualified() *Type {
	if !t.Const && !t.Volatile && !t.Restrict {
		return t
	}
	cp := *t
	cp.Const, cp.Volatile, cp.Restrict = false, false, false
	return &cp
}

// Equal reports whether two types are the same, ignoring qualifiers and
// (for structs/unions/enums) comparing by tag identity rather than
// structurally, matching C's nominal-typing rule for tagged types.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Pointer:
		return Equal(a.Elem, b.Elem)
	case Array:
		return Equal(a.Elem, b.Elem) && (a.ArrayLen < 0 || b.ArrayLen < 0 || a.ArrayLen == b.ArrayLen)
	case Func:
		if !Equal(a.Return, b.Return) || a.Variadic != b.Variadic || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	case Struct, Union, Enum:
		return a == b // tagged types are compared by identity, not structurally
	default:
		return true // same scalar Kind
	}
}

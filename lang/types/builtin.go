package types

// Predeclared singleton instances for the scalar kinds, shared zero-overhead
// singletons for common types rather than re-allocating a fresh Type for
// every "int" the parser sees.
var (
	VoidType    = &Type{Kind: Void, size: 0, align: 1}
	BoolType    = &Type{Kind: Bool, size: 1, align: 1}
	CharType    = &Type{Kind: Char, size: 1, align: 1}
	SCharType   = &Type{Kind: SChar, size: 1, align: 1}
	UCharType   = &Type{Kind: UChar, size: 1, align: 1}
	ShortType   = &Type{Kind: Short, size: 2, align: 2}
	UShortType  = &Type{Kind: UShort, size: 2, align: 2}
	IntType     = &Type{Kind: Int, size: 4, align: 4}
	UIntType    = &Type{Kind: UInt, size: 4, align: 4}
	LongType    = &Type{Kind: Long, size: 8, align: 8}
	ULongType   = &Type{Kind: ULong, size: 8, align: 8}
	LLongType   = &Type{Kind: LLong, size: 8, align: 8}
	ULLongType  = &Type{Kind: ULLong, size: 8, align: 8}
	FloatType   = &Type{Kind: Float, size: 4, align: 4}
	DoubleType  = &Type{Kind: Double, size: 8, align: 8}
	LDoubleType = &Type{Kind: LDouble, size: 16, align: 16}
)

// NewPointer returns a pointer-to-elem type. Pointers are always built
// fresh (never shared) since each points to a potentially distinct element
// type, unlike the fixed-size scalar singletons above.
func NewPointer(elem *Type) *Type {
	return &Type{Kind: Pointer, Elem: elem, size: 8, align: 8}
}

// NewArray returns an array-of-elem type with the given length, or a
// negative length if the array's size isn't yet known (e.g. "extern int a[]").
func NewArray(elem *Type, length int) *Type {
	t := &Type{Kind: Array, Elem: elem, ArrayLen: length, align: elem.Align()}
	if length >= 0 {
		t.size = elem.Size() * length
	}
	return t
}

// NewVLAArray returns a variable-length array type; its size is computed at
// runtime by the IR lowerer, never statically (spec §4.4, §9).
func NewVLAArray(elem *Type) *Type {
	return &Type{Kind: Array, Elem: elem, ArrayLen: -1, IsVLA: true, align: elem.Align()}
}

// NewFunc returns a function type.
func NewFunc(ret *Type, params []*Type, names []string, variadic bool) *Type {
	return &Type{Kind: Func, Return: ret, Params: params, ParamNames: names, Variadic: variadic}
}

// NewStructDecl returns an incomplete (forward-declared) struct type with
// the given tag, to be completed later by CompleteRecord once its field list
// is parsed (spec §4.4's tentative/forward-declared tag handling).
func NewStructDecl(tag string) *Type { return &Type{Kind: Struct, Tag: tag, Incomplete: true} }

// NewUnionDecl is NewStructDecl's union counterpart.
func NewUnionDecl(tag string) *Type { return &Type{Kind: Union, Tag: tag, Incomplete: true} }

// NewEnumDecl is NewStructDecl's enum counterpart.
func NewEnumDecl(tag string) *Type { return &Type{Kind: Enum, Tag: tag, Incomplete: true} }

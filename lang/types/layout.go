package types

// Size returns the type's size in bytes. A VLA or an incomplete type has no
// static size; callers must check IsIncomplete()/IsVLA first (spec §4.4).
func (t *Type) Size() int {
	if t.Kind == Array && t.ArrayLen < 0 {
		return 0
	}
	return t.size
}

// Align returns the type's required alignment in bytes.
func (t *Type) Align() int {
	if t.align == 0 {
		return 1
	}
	return t.align
}

// align rounds n up to the next multiple of a (a must be a power of two).
func align(n, a int) int {
	return (n + a - 1) &^ (a - 1)
}

// CompleteRecord fills in a forward-declared struct/union's field list and
// computes offsets (struct) or the shared zero offset (union), per spec
// §4.4's layout rules: each field is aligned to its own type's alignment,
// the record's size is padded up to its own alignment (the maximum of its
// fields'), and bit-fields share storage within their declared base type
// (a simplification spec §9 accepts: adjacent bit-fields of the same base
// type and no more bits than it holds are packed into one storage unit).
func CompleteRecord(rec *Type, fields []Field) {
	if rec.Kind == Union {
		completeUnion(rec, fields)
		return
	}
	completeStruct(rec, fields)
}

func completeStruct(rec *Type, fields []Field) {
	offset := 0
	maxAlign := 1
	var bitUnit *Field
	var bitUsed int

	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.HasBitSize {
			if bitUnit != nil && bitUnit.Type == f.Type && bitUsed+f.BitWidth <= f.Type.Size()*8 {
				f.Offset = bitUnit.Offset
				bitUsed += f.BitWidth
				out = append(out, f)
				continue
			}
			a := f.Type.Align()
			offset = align(offset, a)
			f.Offset = offset
			offset += f.Type.Size()
			bitUsed = f.BitWidth
			stored := f
			bitUnit = &stored
			if a > maxAlign {
				maxAlign = a
			}
			out = append(out, f)
			continue
		}
		bitUnit = nil
		a := f.Type.Align()
		offset = align(offset, a)
		f.Offset = offset
		offset += f.Type.Size()
		if a > maxAlign {
			maxAlign = a
		}
		out = append(out, f)
	}

	rec.Fields = out
	rec.align = maxAlign
	rec.size = align(offset, maxAlign)
	rec.Incomplete = false
}

func completeUnion(rec *Type, fields []Field) {
	maxSize, maxAlign := 0, 1
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		f.Offset = 0
		if s := f.Type.Size(); s > maxSize {
			maxSize = s
		}
		if a := f.Type.Align(); a > maxAlign {
			maxAlign = a
		}
		out = append(out, f)
	}
	rec.Fields = out
	rec.align = maxAlign
	rec.size = align(maxSize, maxAlign)
	rec.Incomplete = false
}

// Field looks up a member by name, returning ok=false if no such field
// exists directly on rec. The parser stores fields exactly as declared, and
// the members of an anonymous struct/union member are not searched.
func (t *Type) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// CompleteEnum resolves an enum's underlying integer type from its constant
// values, per the Open Question decision recorded in DESIGN.md: unsigned
// only if every constant is non-negative, otherwise signed with the
// smallest of {int, long, long long} wide enough to hold every value.
func CompleteEnum(e *Type, consts []EnumConst) {
	e.EnumConsts = consts
	allNonNeg := true
	var maxVal, minVal int64
	for i, c := range consts {
		if c.Value < 0 {
			allNonNeg = false
		}
		if i == 0 || c.Value > maxVal {
			maxVal = c.Value
		}
		if i == 0 || c.Value < minVal {
			minVal = c.Value
		}
	}
	var u *Type
	switch {
	case allNonNeg && maxVal <= (1<<31)-1:
		u = IntType
	case allNonNeg:
		u = ULongType
	case minVal >= -(1<<31) && maxVal <= (1<<31)-1:
		u = IntType
	default:
		u = LongType
	}
	e.Underlying = u
	e.size = u.Size()
	e.align = u.Align()
	e.Incomplete = false
}

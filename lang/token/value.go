package token

// Encoding tags the prefix of a character or string literal, per spec §3.
type Encoding uint8

const (
	EncNone Encoding = iota // plain "..." or '...'
	EncUTF8                 // u8"..."
	EncUTF16                // u"..."
	EncUTF32                // U"..."
	EncWChar                // L"..." or L'...'
)

func (e Encoding) String() string {
	switch e {
	case EncUTF8:
		return "UTF-8"
	case EncUTF16:
		return "UTF-16"
	case EncUTF32:
		return "UTF-32"
	case EncWChar:
		return "wchar_t"
	default:
		return "none"
	}
}

// Tok is a single lexed or macro-substituted token: a tagged record of kind,
// source position, literal text, decoded value (for numbers/chars/strings),
// whitespace-preceding flag and hide-set. Tok is immutable from the lexer's
// point of view, but the preprocessor copies and rewrites Tok values freely
// while performing macro substitution (spec §3: "tokens ... are copied and
// mutated during macro substitution").
type Tok struct {
	Kind Token
	Pos  Pos
	Lit  string // raw/uninterpreted text, e.g. "0x2A", "\"ab\\n\""

	// Decoded literal payloads; only one is meaningful, selected by Kind.
	Int      int64
	Float    float64
	Str      string // decoded bytes for CHAR/STRING (UTF-8 encoded regardless of Encoding)
	Encoding Encoding

	Space   bool // preceded by whitespace or a comment
	NL      bool // this token is the first on its logical line (after macro expansion still reflects the originating line)
	HideSet HideSet

	// Param, if >= 0, identifies which macro parameter this MACRO_PARAM token
	// refers to inside a function-like macro's body, by index.
	Param int
}

// Is reports whether the token's kind matches any of the given kinds.
func (t Tok) Is(kinds ...Token) bool {
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}
	return false
}

// WithHideSet returns a copy of t with its hide-set replaced, used pervasively
// by the preprocessor when copying macro body tokens (spec §4.3).
func (t Tok) WithHideSet(hs HideSet) Tok {
	t.HideSet = hs
	return t
}

package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		if tok == augopStart || tok == augopEnd || tok == punctStart || tok == punctEnd ||
			tok == kwStart || tok == kwEnd {
			continue
		}
		require.NotEmpty(t, tok.String(), "token %d missing a string representation", tok)
	}
}

func TestLookupIdent(t *testing.T) {
	for tok := kwStart + 1; tok < kwEnd; tok++ {
		require.Equal(t, tok, LookupIdent(tok.String()))
	}
	require.Equal(t, IDENT, LookupIdent("notakeyword"))
	require.Equal(t, IDENT, LookupIdent("x"))
}

func TestLookupPunct(t *testing.T) {
	for tok := punctStart + 1; tok < punctEnd; tok++ {
		if tok == augopStart || tok == augopEnd {
			continue
		}
		require.Equal(t, tok, LookupPunct(tok.String()))
	}
	require.Equal(t, ILLEGAL, LookupPunct("$$"))
}

func TestIsAugBinop(t *testing.T) {
	require.True(t, PLUS_ASSIGN.IsAugBinop())
	require.True(t, SHR_ASSIGN.IsAugBinop())
	require.False(t, PLUS.IsAugBinop())
	require.False(t, IDENT.IsAugBinop())
}

func TestGoString(t *testing.T) {
	require.Equal(t, "'+'", PLUS.GoString())
	require.Equal(t, "'if'", IF.GoString())
	require.Equal(t, "identifier", IDENT.GoString())
}

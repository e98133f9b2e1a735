// Package reader implements the character-level file reader described in
// spec §4.1: a buffered source of logical characters with push-back,
// line-ending normalization and backslash-newline splicing. It sits below
// the lexer in the pipeline (bytes → characters → raw tokens → ...).
package reader

import "cosec/lang/token"

// EOF is returned by Next/Peek once the logical character stream is
// exhausted. It is reported exactly once; a second call after EOF keeps
// returning EOF.
const EOF rune = -1

// Reader exposes Next/Peek/Undo over a source file's bytes, performing two
// source-level normalizations transparently (spec §4.1):
//   - "\r" and "\r\n" become "\n"
//   - a backslash immediately before a newline splices the two physical
//     lines into one logical line (both characters are consumed)
//
// If the source's last physical character is not a newline, a synthetic
// "\n" is delivered before EOF, since the preprocessor requires every line
// (including the last) to be newline-terminated.
type Reader struct {
	file *token.File
	src  []byte

	off int // byte offset of the next unread byte in src

	stack []rune // push-back stack (LIFO); Undo pushes here

	needSynthNL bool // true until the synthetic trailing '\n' (if any) has been delivered
}

// New creates a Reader over src, reporting positions against file. If src
// does not end in a newline, a synthetic "\n" is queued to be delivered
// right before EOF (spec §4.1).
func New(file *token.File, src []byte) *Reader {
	r := &Reader{file: file, src: src}
	if len(src) == 0 || (src[len(src)-1] != '\n' && src[len(src)-1] != '\r') {
		r.needSynthNL = true
	}
	return r
}

// File returns the token.File this reader reports positions against.
func (r *Reader) File() *token.File { return r.file }

// Offset returns the byte offset of the next character Next would return,
// useful for a caller (the lexer) wanting to record a token's start
// position before consuming characters. Each character still on the
// push-back stack counts as one byte, so the result is exact unless a
// pushed-back character stood for a CRLF pair or followed a line splice.
func (r *Reader) Offset() int { return r.off - len(r.stack) }

// Next returns the next logical character, consuming it. It returns EOF
// once the stream (including any synthetic trailing newline) is exhausted.
func (r *Reader) Next() rune {
	if n := len(r.stack); n > 0 {
		c := r.stack[n-1]
		r.stack = r.stack[:n-1]
		return c
	}
	return r.advance()
}

// Peek returns the next logical character without consuming it.
func (r *Reader) Peek() rune {
	c := r.Next()
	r.Undo(c)
	return c
}

// Undo pushes a character back onto the stream; the next call to Next or
// Peek will return it again. Characters may be pushed back in any order and
// any quantity, forming a LIFO buffer.
func (r *Reader) Undo(c rune) {
	if c == EOF {
		// pushing back EOF is a no-op: Next keeps reporting it once the
		// underlying source is exhausted, with no need to queue it.
		return
	}
	r.stack = append(r.stack, c)
}

// UndoString pushes a string back onto the stream right-to-left, so that
// reading forward again reproduces s exactly. s must contain no newlines
// (caller invariant, per spec §4.1's undo_chs).
func (r *Reader) UndoString(s string) {
	for i := len(s) - 1; i >= 0; i-- {
		r.Undo(rune(s[i]))
	}
}

// advance performs the actual byte-level scan, applying CRLF/CR
// normalization, backslash-newline splicing and the synthetic trailing
// newline, and records line boundaries on r.file as it goes.
func (r *Reader) advance() rune {
	for {
		if r.off >= len(r.src) {
			if r.needSynthNL {
				r.needSynthNL = false
				r.file.AddLine(r.off)
				return '\n'
			}
			return EOF
		}

		c := r.src[r.off]
		switch c {
		case '\r':
			r.off++
			if r.off < len(r.src) && r.src[r.off] == '\n' {
				r.off++
			}
			r.markNeedsSynthNL()
			r.file.AddLine(r.off)
			return '\n'

		case '\n':
			r.off++
			r.markNeedsSynthNL()
			r.file.AddLine(r.off)
			return '\n'

		case '\\':
			if r.isLineSplice(r.off) {
				r.off += r.spliceLen(r.off)
				continue // splice consumed, re-loop for the next real character
			}
			r.off++
			return rune(c)

		default:
			r.off++
			return rune(c)
		}
	}
}

// markNeedsSynthNL records, the first time a real newline is produced, that
// we must not add a synthetic one at EOF (only missing trailing newlines get
// one synthesized).
func (r *Reader) markNeedsSynthNL() {
	if r.off >= len(r.src) {
		r.needSynthNL = false
	}
}

// isLineSplice reports whether the backslash at byte offset off is
// immediately followed by a newline (possibly a CRLF pair).
func (r *Reader) isLineSplice(off int) bool {
	n := off + 1
	if n >= len(r.src) {
		return false
	}
	return r.src[n] == '\n' || r.src[n] == '\r'
}

// spliceLen returns how many bytes the backslash-newline splice at off
// consumes (2 for "\\\n", 3 for "\\\r\n", 2 for "\\\r").
func (r *Reader) spliceLen(off int) int {
	n := off + 1
	if r.src[n] == '\r' {
		if n+1 < len(r.src) && r.src[n+1] == '\n' {
			return 3
		}
		return 2
	}
	return 2
}

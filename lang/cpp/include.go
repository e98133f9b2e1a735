package cpp

import (
	"os"
	"path/filepath"

	"cosec/internal/diag"
)

// OSFileOpener is the default FileOpener, reading from the real filesystem.
type OSFileOpener struct{}

func (OSFileOpener) Open(path string) ([]byte, string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return data, abs, true
}

// doInclude handles both #include and #import (spec §4.3); import differs
// only in that the resolved file is implicitly treated as #pragma once.
func (p *Preprocessor) doInclude(isImport bool) {
	f := p.top()
	if f == nil {
		return
	}
	path, quoted, ok := f.lex.LexIncludePath()
	if !ok {
		p.errorf(f.file.Pos(0), diag.Preprocessor, "expected \"FILENAME\" or <FILENAME> after #%s", directiveWord(isImport))
		p.skipRestOfLine()
		return
	}
	p.skipRestOfLine()

	resolved, canonical, data, found := p.resolveInclude(path, quoted, f.dir)
	if !found {
		p.errorf(f.file.Pos(0), diag.Preprocessor, "'%s' file not found", path)
		return
	}
	if p.includeOnce.Seen(canonical) {
		return
	}
	if isImport {
		p.includeOnce.Mark(canonical)
	}
	p.pushSource(resolved, data)
}

func directiveWord(isImport bool) string {
	if isImport {
		return "import"
	}
	return "include"
}

// resolveInclude implements the standard quoted-vs-angle-bracket search
// order (spec §4.3): a quoted include first searches the including file's
// own directory, then falls through to the configured search path exactly
// like an angle-bracket include.
func (p *Preprocessor) resolveInclude(path string, quoted bool, curDir string) (resolved, canonical string, data []byte, ok bool) {
	if quoted {
		candidate := filepath.Join(curDir, path)
		if data, canonical, ok := p.opener.Open(candidate); ok {
			return candidate, canonical, data, true
		}
	}
	if filepath.IsAbs(path) {
		if data, canonical, ok := p.opener.Open(path); ok {
			return path, canonical, data, true
		}
		return "", "", nil, false
	}
	for _, dir := range p.include {
		candidate := filepath.Join(dir, path)
		if data, canonical, ok := p.opener.Open(candidate); ok {
			return candidate, canonical, data, true
		}
	}
	return "", "", nil, false
}

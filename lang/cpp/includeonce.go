package cpp

import "github.com/dolthub/swiss"

// includeOnceSet tracks canonicalised file paths that have either been
// through #import, or hit a #pragma once — subsequent attempts to include
// them become no-ops (spec §4.3).
type includeOnceSet struct {
	m *swiss.Map[string, bool]
}

func newIncludeOnceSet() *includeOnceSet {
	return &includeOnceSet{m: swiss.NewMap[string, bool](16)}
}

func (s *includeOnceSet) Mark(path string)      { s.m.Put(path, true) }
func (s *includeOnceSet) Seen(path string) bool { _, ok := s.m.Get(path); return ok }

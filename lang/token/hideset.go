package token

// HideSet is the set of macro names that must not re-expand at a given
// token's position, per Prosser's algorithm (spec §4.3). It is immutable:
// Add and Intersect always return a new set, so a HideSet can be shared
// across many tokens produced by copying a macro body without risk of one
// copy's mutation leaking into another.
//
// Hide-sets are usually small (a handful of macro names deep in nested
// expansions), so an insertion-ordered slice with linear Has beats a map in practice and
// keeps HideSet comparable-by-value-free (no built-in equality is needed,
// only Has/Add/Intersect).
type HideSet struct {
	names []string
}

// Has reports whether name is in the set.
func (h HideSet) Has(name string) bool {
	for _, n := range h.names {
		if n == name {
			return true
		}
	}
	return false
}

// Add returns a new HideSet containing every name in h plus name.
func (h HideSet) Add(name string) HideSet {
	if h.Has(name) {
		return h
	}
	out := make([]string, len(h.names), len(h.names)+1)
	copy(out, h.names)
	out = append(out, name)
	return HideSet{names: out}
}

// Union returns a new HideSet containing every name in h or other.
func (h HideSet) Union(other HideSet) HideSet {
	if len(other.names) == 0 {
		return h
	}
	out := h
	for _, n := range other.names {
		out = out.Add(n)
	}
	return out
}

// Intersect returns a new HideSet containing only names present in both h
// and other, used when computing the hide-set of a function-like macro
// expansion's output tokens (the intersection of the invocation name's and
// the closing paren's hide-sets, per Prosser's algorithm).
func (h HideSet) Intersect(other HideSet) HideSet {
	var out HideSet
	for _, n := range h.names {
		if other.Has(n) {
			out = out.Add(n)
		}
	}
	return out
}

// Len reports the number of names in the set.
func (h HideSet) Len() int { return len(h.names) }

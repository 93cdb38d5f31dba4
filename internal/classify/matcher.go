package classify

// Matcher matches paths against a compiled pattern set, with the same
// semantics as category patterns. Used for exclusion rules and protected
// path checks, which need matching without category resolution.
type Matcher struct {
	patterns []pattern
}

// NewMatcher compiles the given glob patterns. Blank patterns are dropped.
func NewMatcher(raws []string) *Matcher {
	m := &Matcher{patterns: make([]pattern, 0, len(raws))}
	for _, raw := range raws {
		if raw == "" {
			continue
		}
		m.patterns = append(m.patterns, parsePattern(raw))
	}
	return m
}

// Match reports whether the normalized path matches any compiled pattern.
func (m *Matcher) Match(path string) bool {
	normalized, base := normalize(path)
	for _, p := range m.patterns {
		if p.match(normalized, base) {
			return true
		}
	}
	return false
}

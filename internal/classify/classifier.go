// Package classify maps filesystem paths to categories using ordered
// glob-style pattern rules.
package classify

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/vmks/macsweep/internal/catalog"
)

// Classifier evaluates an immutable snapshot of category rules against
// absolute paths. It is stateless after construction and safe for concurrent
// use by scan workers.
type Classifier struct {
	rules []rule
}

type rule struct {
	category catalog.Category
	patterns []pattern
}

// pattern is one parsed glob. Patterns without '/' match against the
// basename only; patterns with '/' match against the full path, with '**'
// spanning any number of segments.
type pattern struct {
	segments  []string
	matchPath bool
}

// New builds a Classifier from category definitions. Evaluation order is
// priority descending, then lexicographic name, so classification is
// deterministic regardless of input order.
func New(cats []catalog.Category) *Classifier {
	ordered := make([]catalog.Category, len(cats))
	copy(ordered, cats)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].Name < ordered[j].Name
	})

	rules := make([]rule, 0, len(ordered))
	for _, c := range ordered {
		r := rule{category: c}
		for _, raw := range c.Patterns {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			r.patterns = append(r.patterns, parsePattern(raw))
		}
		rules = append(rules, r)
	}

	return &Classifier{rules: rules}
}

// Classify returns the first category whose pattern set matches the given
// normalized absolute path, or nil if no category matches. It never fails:
// a malformed pattern is treated as non-matching.
func (c *Classifier) Classify(path string) *catalog.Category {
	normalized, base := normalize(path)

	for i := range c.rules {
		r := &c.rules[i]
		for _, p := range r.patterns {
			if p.match(normalized, base) {
				return &r.category
			}
		}
	}
	return nil
}

// Categories returns the rule set in evaluation order.
func (c *Classifier) Categories() []catalog.Category {
	cats := make([]catalog.Category, len(c.rules))
	for i := range c.rules {
		cats[i] = c.rules[i].category
	}
	return cats
}

// normalize cleans a path to slash form and returns it with its basename.
func normalize(path string) (string, string) {
	normalized := filepath.ToSlash(filepath.Clean(path))
	return normalized, filepath.Base(normalized)
}

func parsePattern(raw string) pattern {
	normalized := filepath.ToSlash(raw)
	if !strings.Contains(normalized, "/") {
		return pattern{segments: []string{normalized}, matchPath: false}
	}
	normalized = strings.TrimPrefix(normalized, "/")
	return pattern{segments: strings.Split(normalized, "/"), matchPath: true}
}

func (p pattern) match(path, base string) bool {
	if !p.matchPath {
		ok, err := filepath.Match(p.segments[0], base)
		return err == nil && ok
	}
	pathSegs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	return matchSegments(p.segments, pathSegs)
}

// matchSegments matches glob segments against path segments. A '**' segment
// spans zero or more path segments; other segments match via filepath.Match.
func matchSegments(pat, segs []string) bool {
	if len(pat) == 0 {
		return len(segs) == 0
	}
	if pat[0] == "**" {
		// Zero-width match first so a trailing '/**' also matches the
		// directory itself.
		if matchSegments(pat[1:], segs) {
			return true
		}
		if len(segs) > 0 {
			return matchSegments(pat, segs[1:])
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	ok, err := filepath.Match(pat[0], segs[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pat[1:], segs[1:])
}

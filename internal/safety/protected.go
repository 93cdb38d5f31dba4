// Package safety gates every deletion candidate behind a layered validation
// state machine. Nothing reaches the cleanup executor without passing all
// five layers.
package safety

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmks/macsweep/internal/classify"
)

// DefaultProtectedPatterns lists paths that must never be deleted, no matter
// what category they fall in or what flags the caller passes. Patterns
// beginning with "~/" are expanded against the user's home at Guard
// construction.
func DefaultProtectedPatterns() []string {
	return []string{
		// macOS system directories
		"/System/**",
		"/bin/**",
		"/sbin/**",
		"/usr/bin/**",
		"/usr/sbin/**",
		"/usr/lib/**",
		"/etc/**",
		"/Library/**",
		"/private/var/vm/**",

		// User data
		"~/Documents/**",
		"~/Desktop/**",
		"~/Downloads/**",
		"~/Pictures/**",
		"~/Movies/**",
		"~/Music/**",

		// Development critical
		"**/.git/**",
		"**/.github/**",
		"**/.gitlab/**",
		"**/LICENSE",
		"**/README.md",

		// Applications
		"/Applications/**",
		"~/Library/Application Support/**",

		// Credentials
		"~/.ssh/**",
		"~/.gnupg/**",
		"~/.aws/**",
		"~/.config/**",

		// Data that looks deletable but isn't
		"**/data/**",
		"**/database/**",
		"**/db/**",
		"**/backup/**",
		"**/backups/**",
	}
}

// Guard answers "is this path protected" for Layer 1. It also carries the
// structural path checks shared by every deletion candidate.
type Guard struct {
	matcher *classify.Matcher
	roots   []string // pattern bases, for subtree containment checks
}

// NewGuard compiles the built-in protected patterns plus any extra
// configured ones. homeDir expands "~/" prefixes.
func NewGuard(homeDir string, extra []string) *Guard {
	raw := append(DefaultProtectedPatterns(), extra...)

	patterns := make([]string, 0, len(raw))
	roots := make([]string, 0, len(raw))
	for _, p := range raw {
		if strings.HasPrefix(p, "~/") {
			p = filepath.Join(homeDir, p[2:])
		}
		patterns = append(patterns, p)

		// An absolute "/base/**" pattern also protects the base directory
		// itself and everything beneath it.
		if strings.HasPrefix(p, "/") && strings.HasSuffix(p, "/**") {
			roots = append(roots, strings.TrimSuffix(p, "/**"))
		}
	}

	return &Guard{
		matcher: classify.NewMatcher(patterns),
		roots:   roots,
	}
}

// IsProtected reports whether path falls under any protected pattern.
func (g *Guard) IsProtected(path string) bool {
	clean := filepath.Clean(path)
	if g.matcher.Match(clean) {
		return true
	}
	for _, root := range g.roots {
		if clean == root || strings.HasPrefix(clean, root+"/") {
			return true
		}
	}
	return false
}

// CheckPath performs the structural Layer 1 checks: the path must be
// absolute, must not change under cleaning, must resolve without symlink
// tricks, must not carry shell metacharacters, and must not be protected.
func (g *Guard) CheckPath(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}

	if filepath.Clean(path) != path {
		return fmt.Errorf("path contains suspicious elements: %s", path)
	}

	// Resolve symlinks so a link inside a deletable tree cannot point the
	// deletion at something protected.
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			resolved = path
		} else {
			return fmt.Errorf("failed to resolve symlinks: %w", err)
		}
	}

	for _, char := range []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\n", "\r"} {
		if strings.Contains(resolved, char) {
			return fmt.Errorf("path contains dangerous characters: %s", resolved)
		}
	}

	if g.IsProtected(resolved) {
		return fmt.Errorf("path is protected and can never be deleted: %s", resolved)
	}
	if resolved != path && g.IsProtected(path) {
		return fmt.Errorf("path is protected and can never be deleted: %s", path)
	}

	return nil
}

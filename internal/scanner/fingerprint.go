package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// childEntry is one (name, type, size, fingerprint) tuple feeding a
// directory's fingerprint.
type childEntry struct {
	name        string
	isDir       bool
	size        int64
	fingerprint string
}

// fileFingerprint is the lightweight per-file identity used inside directory
// fingerprints: a hash over (name, size, mtime). File content is never read
// for this.
func fileFingerprint(name string, size int64, modTime time.Time) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d", name, size, modTime.UnixNano())
	return hex.EncodeToString(h.Sum(nil))
}

// dirFingerprint aggregates sorted child tuples into a Merkle-style
// directory fingerprint. Any change to any descendant changes every
// ancestor's fingerprint, so comparing one fingerprint answers "did
// anything under this subtree change".
func dirFingerprint(children []childEntry) string {
	sort.Slice(children, func(i, j int) bool {
		return children[i].name < children[j].name
	})

	h := sha256.New()
	for _, c := range children {
		kind := "f"
		if c.isDir {
			kind = "d"
		}
		fmt.Fprintf(h, "%s|%s|%d|%s\n", c.name, kind, c.size, c.fingerprint)
	}
	return hex.EncodeToString(h.Sum(nil))
}

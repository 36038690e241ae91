package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/meisterluk/fsintegrity/internal/hashalgo"
)

// Database is an ordered mapping from path key to Entry. Path keys are
// the raw byte sequence of the path relative to the scan root, using "/"
// as separator regardless of host OS (spec §3). The zero value is not
// usable; construct with New.
type Database struct {
	entries map[string]Entry // keyed by path as a Go string holding raw bytes
}

// New returns an empty, ready-to-use Database.
func New() *Database {
	return &Database{entries: make(map[string]Entry)}
}

// Insert adds or replaces the entry at path. path is the raw byte path
// key as a Go string (not necessarily valid UTF-8); callers must not
// assume string semantics beyond byte storage.
func (d *Database) Insert(path string, e Entry) {
	d.entries[path] = e
}

// Get returns the entry at path and whether it was present.
func (d *Database) Get(path string) (Entry, bool) {
	e, ok := d.entries[path]
	return e, ok
}

// Len returns the number of entries.
func (d *Database) Len() int {
	return len(d.entries)
}

// Paths returns every path key in lexicographic byte order, matching
// spec I5's "keys are emitted in lexicographic byte order."
func (d *Database) Paths() []string {
	paths := make([]string, 0, len(d.entries))
	for p := range d.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths) // Go string comparison is byte-wise, exactly what I5 requires
	return paths
}

// Each calls fn for every (path, entry) pair in canonical path order.
func (d *Database) Each(fn func(path string, e Entry)) {
	for _, p := range d.Paths() {
		fn(p, d.entries[p])
	}
}

// Equal reports content equality between two databases: same path set,
// same entry at each path, independent of insertion order (spec §4.D).
func (d *Database) Equal(other *Database) bool {
	if d.Len() != other.Len() {
		return false
	}
	for path, e := range d.entries {
		oe, ok := other.entries[path]
		if !ok || !e.Equal(oe) {
			return false
		}
	}
	return true
}

// ValidateInvariants checks I1–I4 against the current contents. I5
// (canonical serialization) is a property of the codec, not the in-memory
// model, and is not checked here.
func (d *Database) ValidateInvariants() error {
	seen := make(map[string]bool, len(d.entries))
	for path, e := range d.entries {
		if seen[path] {
			return fmt.Errorf("model: duplicate path key %q (I4)", path)
		}
		seen[path] = true

		if e.Kind == KindFile && len(e.Hashes) == 0 {
			return fmt.Errorf("model: file entry %q has no digests (I2)", path)
		}

		// I3: a digest's byte length must match its algorithm's native
		// output length. Digests under algorithm IDs this binary does not
		// know are skipped, since their native length is not known here.
		for id, digest := range e.Hashes {
			if !hashalgo.IsKnown(id) {
				continue
			}
			if want := hashalgo.New(id).Size(); len(digest) != want {
				return fmt.Errorf("model: entry %q digest for algorithm %q has length %d, want %d (I3)", path, id, len(digest), want)
			}
		}

		// I1: every directory segment along path has a Directory entry.
		for _, parent := range parentDirs(path) {
			pe, ok := d.entries[parent]
			if !ok {
				return fmt.Errorf("model: path %q missing parent directory entry %q (I1)", path, parent)
			}
			if pe.Kind != KindDirectory {
				return fmt.Errorf("model: parent %q of %q is not a directory entry (I1)", parent, path)
			}
		}
	}
	return nil
}

// parentDirs returns every proper ancestor directory path of path, using
// "/" as the logical separator, excluding path itself and the root
// (empty string, which has no entry of its own).
func parentDirs(path string) []string {
	segments := strings.Split(path, "/")
	if len(segments) <= 1 {
		return nil
	}
	parents := make([]string, 0, len(segments)-1)
	for i := 1; i < len(segments); i++ {
		parents = append(parents, strings.Join(segments[:i], "/"))
	}
	return parents
}

// Package diff implements the differential engine (spec §4.F): given two
// databases A and B, produce a stream of Change records classified as
// benign or suspicious, emitted in lexicographic path order.
package diff

import (
	"sort"

	"github.com/meisterluk/fsintegrity/internal/hashalgo"
	"github.com/meisterluk/fsintegrity/internal/model"
)

// Kind names one of the change taxonomy's entries (spec §4.F table).
type Kind string

const (
	Added             Kind = "added"
	Removed           Kind = "removed"
	KindChanged       Kind = "kind_changed"
	SymlinkRetargeted Kind = "symlink_retargeted"
	ContentChanged    Kind = "content_changed"
	HashDisagreement  Kind = "hash_disagreement"
	MetadataOnly      Kind = "metadata_only"
)

// Class is the benign/suspicious classification driving the CLI's exit
// code (spec §6).
type Class string

const (
	Benign     Class = "benign"
	Suspicious Class = "suspicious"
)

// Change is one path's difference between A and B. Old/New are nil when
// the path is absent on that side (Added/Removed).
type Change struct {
	Path  string
	Old   *model.Entry
	New   *model.Entry
	Kind  Kind
	Class Class
	// Truncated and NulAppeared are additive annotations, not alternative
	// primary kinds (spec §4.F "Ordering"): a ContentChanged file can be
	// both Truncated and have NulAppeared.
	Truncated   bool
	NulAppeared bool
	// Reason carries extra detail for HashDisagreement (e.g.
	// "no-common-algorithm"), unused otherwise.
	Reason string
}

// Compare produces the change set between a and b, in lexicographic path
// order (spec §4.F).
func Compare(a, b *model.Database) []Change {
	paths := unionPaths(a, b)
	changes := make([]Change, 0, len(paths))
	for _, path := range paths {
		oldEntry, inA := a.Get(path)
		newEntry, inB := b.Get(path)

		switch {
		case !inA && inB:
			e := newEntry
			changes = append(changes, Change{Path: path, New: &e, Kind: Added, Class: Benign})
		case inA && !inB:
			e := oldEntry
			changes = append(changes, Change{Path: path, Old: &e, Kind: Removed, Class: Benign})
		default:
			if c, ok := comparePresent(path, oldEntry, newEntry); ok {
				changes = append(changes, c)
			}
		}
	}
	return changes
}

func unionPaths(a, b *model.Database) []string {
	seen := make(map[string]bool)
	var paths []string
	a.Each(func(path string, _ model.Entry) {
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	})
	b.Each(func(path string, _ model.Entry) {
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	})
	sort.Strings(paths)
	return paths
}

// comparePresent classifies a path present on both sides. The second
// return value is false when there is no reportable change at all.
func comparePresent(path string, oldEntry, newEntry model.Entry) (Change, bool) {
	old, new := oldEntry, newEntry

	if old.Kind != new.Kind {
		return Change{Path: path, Old: &old, New: &new, Kind: KindChanged, Class: Suspicious}, true
	}

	switch old.Kind {
	case model.KindDirectory:
		return Change{}, false

	case model.KindSymlink:
		if string(old.Target) != string(new.Target) {
			return Change{Path: path, Old: &old, New: &new, Kind: SymlinkRetargeted, Class: Benign}, true
		}
		return Change{}, false

	case model.KindFile:
		return compareFiles(path, old, new)

	default:
		return Change{}, false
	}
}

func compareFiles(path string, old, new model.Entry) (Change, bool) {
	shared := sharedAlgorithms(old.Hashes, new.Hashes)

	truncated := new.Size == 0 && old.Size > 0
	nulAppeared := !old.Flags.Has(model.FlagHasNUL) && new.Flags.Has(model.FlagHasNUL)

	if len(shared) == 0 {
		c := Change{
			Path: path, Old: &old, New: &new,
			Kind: HashDisagreement, Class: Suspicious, Reason: "no-common-algorithm",
			Truncated: truncated, NulAppeared: nulAppeared,
		}
		return c, true
	}

	agree, disagree := compareSharedDigests(old.Hashes, new.Hashes, shared)

	switch {
	case disagree:
		c := Change{
			Path: path, Old: &old, New: &new,
			Kind: HashDisagreement, Class: Suspicious, Reason: "shared-algorithms-disagree",
			Truncated: truncated, NulAppeared: nulAppeared,
		}
		return c, true

	case !agree:
		// every shared algorithm's digest differs, consistently
		c := Change{
			Path: path, Old: &old, New: &new,
			Kind: ContentChanged, Class: Benign,
			Truncated: truncated, NulAppeared: nulAppeared,
		}
		if c.Truncated || c.NulAppeared {
			c.Class = Suspicious
		}
		return c, true

	default:
		// all shared digests agree
		if old.MtimeNs != new.MtimeNs {
			return Change{Path: path, Old: &old, New: &new, Kind: MetadataOnly, Class: Benign}, true
		}
		return Change{}, false
	}
}

// AllNoCommonAlgorithm reports whether every change in the set is a
// HashDisagreement caused by the two sides sharing no algorithm at all
// (spec §8 scenario 6: comparing databases built with disjoint algorithm
// sets over the same tree leaves nothing left to verify, which is an
// integrity failure rather than an ordinary suspicious difference).
// An empty change set is not such a failure.
func AllNoCommonAlgorithm(changes []Change) bool {
	if len(changes) == 0 {
		return false
	}
	for _, c := range changes {
		if c.Kind != HashDisagreement || c.Reason != "no-common-algorithm" {
			return false
		}
	}
	return true
}

func sharedAlgorithms(a, b model.Hashes) []string {
	var shared []string
	for id := range a {
		if _, ok := b[id]; ok {
			shared = append(shared, string(id))
		}
	}
	sort.Strings(shared)
	return shared
}

// compareSharedDigests reports, over the shared algorithm set:
//   - agree: true if every shared algorithm's digest is byte-identical.
//   - disagree: true if the shared algorithms don't unanimously agree on
//     whether the content is the same (spec §4.F HashDisagreement: "two
//     shared algorithms disagree about whether contents are equal") —
//     this is the integrity-failure case, distinct from "all differ."
func compareSharedDigests(a, b model.Hashes, shared []string) (agree, disagree bool) {
	sawEqual, sawDiffer := false, false
	for _, idStr := range shared {
		id := hashalgo.ID(idStr)
		if string(a[id]) == string(b[id]) {
			sawEqual = true
		} else {
			sawDiffer = true
		}
	}
	if sawEqual && sawDiffer {
		return false, true
	}
	return sawEqual && !sawDiffer, false
}

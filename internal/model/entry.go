// Package model defines the in-memory database of a scanned tree: an
// ordered mapping from path key to entry (file, symlink, or directory),
// together with the canonical serialization the container codec and
// integrity witness depend on.
package model

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/meisterluk/fsintegrity/internal/hashalgo"
)

// Kind discriminates the three entry variants.
type Kind string

const (
	KindFile      Kind = "file"
	KindSymlink   Kind = "symlink"
	KindDirectory Kind = "dir"
)

// ContentFlag is an open set of content heuristics. The set is
// extensible: unknown flag strings encountered when reading an older or
// newer database are preserved verbatim (see UnmarshalEntryJSON).
type ContentFlag string

const (
	FlagHasNUL       ContentFlag = "has_nul"
	FlagHasNonASCII  ContentFlag = "has_non_ascii"
)

// Flags is a lexicographically-ordered, deduplicated set of ContentFlag.
type Flags []ContentFlag

// Add inserts flag if not already present, keeping the set sorted.
func (f *Flags) Add(flag ContentFlag) {
	for _, existing := range *f {
		if existing == flag {
			return
		}
	}
	*f = append(*f, flag)
	sort.Slice(*f, func(i, j int) bool { return (*f)[i] < (*f)[j] })
}

// Has reports whether flag is present.
func (f Flags) Has(flag ContentFlag) bool {
	for _, existing := range f {
		if existing == flag {
			return true
		}
	}
	return false
}

// Hashes maps algorithm ID to raw digest bytes.
type Hashes map[hashalgo.ID][]byte

// SortedIDs returns the map's keys in lexicographic order, matching spec
// I5's "hashes are emitted in lexicographic order of AlgoId."
func (h Hashes) SortedIDs() []hashalgo.ID {
	ids := make([]hashalgo.ID, 0, len(h))
	for id := range h {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MarshalJSON emits hashes as a JSON object with base64-encoded digest
// values. Go's encoding/json already sorts map[string]V keys on marshal,
// so the lexicographic-AlgoId-order invariant (I5) holds automatically
// once the key type renders as a string.
func (h Hashes) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(h))
	for id, digest := range h {
		m[string(id)] = base64.StdEncoding.EncodeToString(digest)
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a hash object keyed by algorithm ID with
// base64-encoded digest values.
func (h *Hashes) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	out := make(Hashes, len(m))
	for id, encoded := range m {
		digest, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("model: decoding hash for algorithm %q: %w", id, err)
		}
		out[hashalgo.ID(id)] = digest
	}
	*h = out
	return nil
}

// Entry is one path's record in the database. Exactly one of the
// kind-specific field groups is populated, per Kind.
type Entry struct {
	Kind Kind

	// File fields.
	Size     uint64
	MtimeNs  int64
	Hashes   Hashes
	Flags    Flags

	// Symlink fields.
	Target []byte // raw OS path bytes of the link target
}

// entryWire mirrors the canonical on-wire field order and shape described
// in spec §6/§9: objects are emitted by writing keys in the prescribed
// order manually via explicit field declaration order (encoding/json
// marshals struct fields in declaration order), with the field set
// varying by kind.
type entryWire struct {
	Path    []byte          `json:"path"`
	Kind    Kind            `json:"kind"`
	Size    *uint64         `json:"size,omitempty"`
	MtimeNs *int64          `json:"mtime_ns,omitempty"`
	Hashes  Hashes          `json:"hashes,omitempty"`
	Flags   []ContentFlag   `json:"flags,omitempty"`
	Target  []byte          `json:"target,omitempty"`
}

// MarshalEntryJSON renders one (path, Entry) pair using the canonical,
// kind-conditional key order from spec §6: path, kind, then
// [size, mtime_ns, hashes, flags] for files (flags is omitted when the
// set is empty), [target] for symlinks, or nothing extra for directories. []byte fields are base64-encoded by
// encoding/json automatically, satisfying spec §9's "do not attempt lossy
// string conversion" for non-UTF-8 path/target bytes.
func MarshalEntryJSON(path []byte, e Entry) ([]byte, error) {
	w := entryWire{Path: path, Kind: e.Kind}
	switch e.Kind {
	case KindFile:
		size := e.Size
		mtime := e.MtimeNs
		w.Size = &size
		w.MtimeNs = &mtime
		w.Hashes = e.Hashes
		w.Flags = []ContentFlag(e.Flags)
	case KindSymlink:
		w.Target = e.Target
	case KindDirectory:
		// presence-only: no further fields
	default:
		return nil, fmt.Errorf("model: unknown entry kind %q", e.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalEntryJSON is the inverse of MarshalEntryJSON. Reading is
// tolerant of any key order (spec §9: "Reading is tolerant of any
// order; writing is strict").
func UnmarshalEntryJSON(data []byte) (path []byte, e Entry, err error) {
	var w entryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, Entry{}, err
	}
	e.Kind = w.Kind
	switch w.Kind {
	case KindFile:
		if w.Size != nil {
			e.Size = *w.Size
		}
		if w.MtimeNs != nil {
			e.MtimeNs = *w.MtimeNs
		}
		e.Hashes = w.Hashes
		e.Flags = Flags(w.Flags)
	case KindSymlink:
		e.Target = w.Target
	case KindDirectory:
		// nothing further
	default:
		return nil, Entry{}, fmt.Errorf("model: unknown entry kind %q", w.Kind)
	}
	return w.Path, e, nil
}

// Equal reports deep content equality between two entries, ignoring
// nothing (mtime included) — the stricter notion used by round-trip
// testing. Diff-engine comparisons use the finer-grained rules in
// package diff instead of this method.
func (e Entry) Equal(other Entry) bool {
	if e.Kind != other.Kind {
		return false
	}
	switch e.Kind {
	case KindFile:
		if e.Size != other.Size || e.MtimeNs != other.MtimeNs {
			return false
		}
		if len(e.Hashes) != len(other.Hashes) {
			return false
		}
		for id, digest := range e.Hashes {
			od, ok := other.Hashes[id]
			if !ok || !bytes.Equal(digest, od) {
				return false
			}
		}
		if len(e.Flags) != len(other.Flags) {
			return false
		}
		for _, f := range e.Flags {
			if !other.Flags.Has(f) {
				return false
			}
		}
		return true
	case KindSymlink:
		return bytes.Equal(e.Target, other.Target)
	case KindDirectory:
		return true
	default:
		return false
	}
}

// Package hashalgo provides the compiled-in digest algorithm registry.
//
// Hashers are modeled as a small closed set of variants dispatched through a
// uniform capability (update, finalize, id), following the teacher's
// internals/hash_sha-512.go wrapper shape, adapted to the streaming
// update/finalize contract the container codec and entry analyzer need.
// There is no global mutable registry: the active algorithm set is a Set
// passed explicitly down the pipeline, and New builds one Hasher per ID.
package hashalgo

import (
	"crypto/sha512"
	"hash"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// ID is a short, stable algorithm identifier. Renaming an algorithm requires
// adding a new ID; an existing ID must never be reassigned to a different
// digest function.
type ID string

const (
	SHA2_512_256 ID = "sha2-512-256"
	BLAKE2b_512  ID = "blake2b-512"
	BLAKE3_256   ID = "blake3-256"
)

// Default is the algorithm enabled when no selection is configured.
const Default ID = SHA2_512_256

// Hasher is a single in-flight digest computation.
type Hasher interface {
	// ID reports the algorithm this hasher computes.
	ID() ID
	// Update feeds more input bytes into the running digest.
	Update(p []byte)
	// Finalize returns the digest bytes. Size() bytes long. Calling Update
	// after Finalize is not supported.
	Finalize() []byte
	// Size reports the native output length in bytes.
	Size() int
}

type stdHasher struct {
	id ID
	h  hash.Hash
}

func (s *stdHasher) ID() ID            { return s.id }
func (s *stdHasher) Update(p []byte)   { s.h.Write(p) } //nolint:errcheck // hash.Hash.Write never errors
func (s *stdHasher) Finalize() []byte  { return s.h.Sum(nil) }
func (s *stdHasher) Size() int         { return s.h.Size() }

// New constructs a fresh Hasher for the given algorithm ID. It panics on an
// unknown ID, since the set of IDs constructible here is the closed,
// compiled-in registry — callers must validate against Known() first when
// the ID comes from untrusted input (e.g. a database file).
func New(id ID) Hasher {
	switch id {
	case SHA2_512_256:
		return &stdHasher{id: id, h: sha512.New512_256()}
	case BLAKE2b_512:
		h, err := blake2b.New512(nil)
		if err != nil {
			// blake2b.New512 only errors for a bad key, and we pass none.
			panic("hashalgo: blake2b.New512: " + err.Error())
		}
		return &stdHasher{id: id, h: h}
	case BLAKE3_256:
		return &stdHasher{id: id, h: blake3.New()}
	default:
		panic("hashalgo: unknown algorithm id: " + string(id))
	}
}

// Known returns every algorithm ID this binary can compute, in no
// particular order. Use IsKnown for membership tests.
func Known() []ID {
	return []ID{SHA2_512_256, BLAKE2b_512, BLAKE3_256}
}

// IsKnown reports whether id is one this binary can construct a Hasher for.
func IsKnown(id ID) bool {
	for _, k := range Known() {
		if k == id {
			return true
		}
	}
	return false
}

// Set is an explicit, ordered active algorithm selection threaded through
// the walker/analyzer/codec instead of a global registry.
type Set []ID

// NewHashers constructs one fresh Hasher per ID in the set, in set order.
func (s Set) NewHashers() []Hasher {
	hs := make([]Hasher, len(s))
	for i, id := range s {
		hs[i] = New(id)
	}
	return hs
}

// Intersect returns the IDs present in both sets, preserving s's order.
func (s Set) Intersect(other Set) Set {
	present := make(map[ID]bool, len(other))
	for _, id := range other {
		present[id] = true
	}
	var out Set
	for _, id := range s {
		if present[id] {
			out = append(out, id)
		}
	}
	return out
}

// Contains reports whether id is a member of the set.
func (s Set) Contains(id ID) bool {
	for _, x := range s {
		if x == id {
			return true
		}
	}
	return false
}

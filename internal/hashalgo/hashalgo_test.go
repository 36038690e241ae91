package hashalgo

import (
	"bytes"
	"testing"
)

func TestKnownAlgorithmsConstructAndProduceFixedSizeDigests(t *testing.T) {
	for _, id := range Known() {
		h := New(id)
		if h.ID() != id {
			t.Fatalf("New(%s).ID() = %s", id, h.ID())
		}
		h.Update([]byte("hello, world"))
		digest := h.Finalize()
		if len(digest) != h.Size() {
			t.Fatalf("%s: digest length %d != Size() %d", id, len(digest), h.Size())
		}
	}
}

func TestSameInputSameDigest(t *testing.T) {
	for _, id := range Known() {
		a := New(id)
		a.Update([]byte("determinism"))
		da := a.Finalize()

		b := New(id)
		b.Update([]byte("determ"))
		b.Update([]byte("inism"))
		db := b.Finalize()

		if !bytes.Equal(da, db) {
			t.Errorf("%s: chunked update produced a different digest than one-shot", id)
		}
	}
}

func TestIsKnown(t *testing.T) {
	if !IsKnown(Default) {
		t.Fatalf("Default algorithm %s must be known", Default)
	}
	if IsKnown("not-a-real-algorithm") {
		t.Fatalf("unexpected algorithm reported known")
	}
}

func TestSetIntersect(t *testing.T) {
	a := Set{SHA2_512_256, BLAKE2b_512}
	b := Set{BLAKE2b_512, BLAKE3_256}

	got := a.Intersect(b)
	if len(got) != 1 || got[0] != BLAKE2b_512 {
		t.Fatalf("Intersect = %v, want [%s]", got, BLAKE2b_512)
	}

	disjoint := Set{SHA2_512_256}.Intersect(Set{BLAKE3_256})
	if len(disjoint) != 0 {
		t.Fatalf("Intersect of disjoint sets = %v, want empty", disjoint)
	}
}

func TestNewUnknownAlgorithmPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("New with unknown id should panic")
		}
	}()
	New("bogus")
}

package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/meisterluk/fsintegrity/internal/hashalgo"
)

func TestMarshalEntryJSONFileKeyOrder(t *testing.T) {
	e := Entry{
		Kind:    KindFile,
		Size:    10,
		MtimeNs: 42,
		Hashes:  Hashes{hashalgo.SHA2_512_256: []byte{1, 2, 3}},
	}
	e.Flags.Add(FlagHasNUL)

	raw, err := MarshalEntryJSON([]byte("some/path"), e)
	if err != nil {
		t.Fatal(err)
	}

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asMap); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"path", "kind", "size", "mtime_ns", "hashes", "flags"} {
		if _, ok := asMap[want]; !ok {
			t.Errorf("missing expected key %q in %s", want, raw)
		}
	}
	prev := -1
	for _, key := range []string{"path", "kind", "size", "mtime_ns", "hashes", "flags"} {
		i := strings.Index(string(raw), `"`+key+`":`)
		if i <= prev {
			t.Errorf("key %q out of canonical order in %s", key, raw)
		}
		prev = i
	}
	if _, ok := asMap["target"]; ok {
		t.Errorf("file entry should not carry a target key: %s", raw)
	}
}

func TestMarshalEntryJSONSymlinkOnlyHasTarget(t *testing.T) {
	e := Entry{Kind: KindSymlink, Target: []byte("../elsewhere")}
	raw, err := MarshalEntryJSON([]byte("link"), e)
	if err != nil {
		t.Fatal(err)
	}
	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asMap); err != nil {
		t.Fatal(err)
	}
	if _, ok := asMap["target"]; !ok {
		t.Fatalf("symlink entry missing target key: %s", raw)
	}
	for _, absent := range []string{"size", "mtime_ns", "hashes", "flags"} {
		if _, ok := asMap[absent]; ok {
			t.Errorf("symlink entry should not carry key %q: %s", absent, raw)
		}
	}
}

func TestEntryRoundTrip(t *testing.T) {
	original := Entry{
		Kind:    KindFile,
		Size:    7,
		MtimeNs: 99,
		Hashes: Hashes{
			hashalgo.SHA2_512_256: []byte{0xde, 0xad},
			hashalgo.BLAKE2b_512:  []byte{0xbe, 0xef},
		},
	}
	original.Flags.Add(FlagHasNonASCII)

	raw, err := MarshalEntryJSON([]byte("a/b\xff"), original)
	if err != nil {
		t.Fatal(err)
	}
	path, got, err := UnmarshalEntryJSON(raw)
	if err != nil {
		t.Fatal(err)
	}
	if string(path) != "a/b\xff" {
		t.Fatalf("path = %q, want round-tripped non-UTF-8 bytes", path)
	}
	if !original.Equal(got) {
		t.Fatalf("round trip mismatch: %+v != %+v", original, got)
	}
}

func TestFlagsAddIsSortedAndDeduplicated(t *testing.T) {
	var f Flags
	f.Add(FlagHasNonASCII)
	f.Add(FlagHasNUL)
	f.Add(FlagHasNonASCII)

	if len(f) != 2 {
		t.Fatalf("len(f) = %d, want 2 (deduplicated)", len(f))
	}
	if f[0] != FlagHasNonASCII || f[1] != FlagHasNUL {
		t.Fatalf("f = %v, want lexicographically sorted", f)
	}
}

func TestHashesSortedIDs(t *testing.T) {
	h := Hashes{
		hashalgo.BLAKE2b_512:  nil,
		hashalgo.SHA2_512_256: nil,
		hashalgo.BLAKE3_256:   nil,
	}
	ids := h.SortedIDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("SortedIDs not in strict lex order: %v", ids)
		}
	}
}

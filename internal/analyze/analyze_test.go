package analyze

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/meisterluk/fsintegrity/internal/ferrors"
	"github.com/meisterluk/fsintegrity/internal/hashalgo"
	"github.com/meisterluk/fsintegrity/internal/model"
)

func TestFileComputesSizeAndHashes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")
	content := []byte("the quick brown fox jumps over the lazy dog")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	entry, err := File(path, hashalgo.Set{hashalgo.SHA2_512_256, hashalgo.BLAKE2b_512})
	if err != nil {
		t.Fatal(err)
	}
	if entry.Kind != model.KindFile {
		t.Fatalf("Kind = %s, want file", entry.Kind)
	}
	if entry.Size != uint64(len(content)) {
		t.Fatalf("Size = %d, want %d", entry.Size, len(content))
	}
	if len(entry.Hashes) != 2 {
		t.Fatalf("len(Hashes) = %d, want 2", len(entry.Hashes))
	}
	if entry.Flags.Has(model.FlagHasNUL) || entry.Flags.Has(model.FlagHasNonASCII) {
		t.Fatalf("unexpected flags on plain ASCII content: %v", entry.Flags)
	}
}

func TestFileDetectsNULAndNonASCII(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "binaryish.bin")
	content := []byte{0x41, 0x00, 0xff, 0x42}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	entry, err := File(path, hashalgo.Set{hashalgo.Default})
	if err != nil {
		t.Fatal(err)
	}
	if !entry.Flags.Has(model.FlagHasNUL) {
		t.Fatal("expected has_nul flag")
	}
	if !entry.Flags.Has(model.FlagHasNonASCII) {
		t.Fatal("expected has_non_ascii flag")
	}
}

func TestFileMissingReturnsIOError(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "does-not-exist"), hashalgo.Set{hashalgo.Default})
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	var ioErr *ferrors.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("err = %v (%T), want *ferrors.IOError", err, err)
	}
}

func TestSymlinkReadsTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}

	entry, err := Symlink(link)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Kind != model.KindSymlink {
		t.Fatalf("Kind = %s, want symlink", entry.Kind)
	}
	if string(entry.Target) != target {
		t.Fatalf("Target = %q, want %q", entry.Target, target)
	}
}

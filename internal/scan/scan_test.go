package scan

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/meisterluk/fsintegrity/internal/hashalgo"
	"github.com/meisterluk/fsintegrity/internal/model"
)

func writeTree(t *testing.T, root string) {
	t.Helper()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	must(os.WriteFile(filepath.Join(root, "a", "b", "file.txt"), []byte("hello"), 0o644))
	must(os.WriteFile(filepath.Join(root, "top.txt"), []byte("world"), 0o644))
}

func TestWalkProducesValidDatabase(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)

	db, failures := Walk(root, Options{Algorithms: hashalgo.Set{hashalgo.Default}})
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if err := db.ValidateInvariants(); err != nil {
		t.Fatal(err)
	}

	wantPaths := []string{"a", "a/b", "a/b/file.txt", "top.txt"}
	for _, p := range wantPaths {
		if _, ok := db.Get(p); !ok {
			t.Errorf("missing expected path %q", p)
		}
	}
	if db.Len() != len(wantPaths) {
		t.Errorf("Len() = %d, want %d", db.Len(), len(wantPaths))
	}

	file, _ := db.Get("a/b/file.txt")
	if file.Kind != model.KindFile || file.Size != 5 {
		t.Errorf("a/b/file.txt entry = %+v", file)
	}
	dir, _ := db.Get("a")
	if dir.Kind != model.KindDirectory {
		t.Errorf("a entry kind = %s, want dir", dir.Kind)
	}
}

func TestWalkRespectsShouldVisit(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)

	db, _ := Walk(root, Options{
		Algorithms:  hashalgo.Set{hashalgo.Default},
		ShouldVisit: func(path string) bool { return path != "a" && path != "a/b" && path != "a/b/file.txt" },
	})
	if _, ok := db.Get("a/b/file.txt"); ok {
		t.Fatal("excluded path should not appear in the database")
	}
	if _, ok := db.Get("top.txt"); !ok {
		t.Fatal("non-excluded path should appear in the database")
	}
}

func TestWalkOverASingleFileRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "README.md")
	if err := os.WriteFile(path, []byte("hello world\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	db, failures := Walk(path, Options{Algorithms: hashalgo.Set{hashalgo.Default}})
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if db.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", db.Len())
	}
	entry, ok := db.Get("README.md")
	if !ok || entry.Kind != model.KindFile {
		t.Fatalf("expected a file entry keyed by base name, got %+v ok=%v", entry, ok)
	}
}

// TestWalkManySubdirectoriesUnderConcurrency builds a tree wide and deep
// enough that the WalkDir callback goroutine and the worker pool are
// both still in flight at the same time, so that directory entries
// (inserted from the callback) and file/symlink entries (inserted by
// the collector) genuinely race for db if they ever again go through
// separate code paths. Run with -race to catch a regression.
func TestWalkManySubdirectoriesUnderConcurrency(t *testing.T) {
	root := t.TempDir()
	const dirs = 64
	for i := 0; i < dirs; i++ {
		sub := filepath.Join(root, "d"+strconv.Itoa(i))
		if err := os.MkdirAll(sub, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(sub, "f.txt"), []byte("content"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	db, failures := Walk(root, Options{Algorithms: hashalgo.Set{hashalgo.Default}, Workers: 8})
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if err := db.ValidateInvariants(); err != nil {
		t.Fatal(err)
	}
	if want := dirs * 2; db.Len() != want {
		t.Fatalf("Len() = %d, want %d", db.Len(), want)
	}
}

func TestWalkIsDeterministicAcrossWorkerCounts(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)

	db1, _ := Walk(root, Options{Algorithms: hashalgo.Set{hashalgo.Default}, Workers: 1})
	db4, _ := Walk(root, Options{Algorithms: hashalgo.Set{hashalgo.Default}, Workers: 4})

	if !db1.Equal(db4) {
		t.Fatal("databases built with different worker counts should be content-equal (spec §8 determinism under parallelism)")
	}
}

package container

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/meisterluk/fsintegrity/internal/hashalgo"
	"github.com/meisterluk/fsintegrity/internal/model"
)

func sampleDB() *model.Database {
	db := model.New()
	db.Insert("a", model.Entry{Kind: model.KindDirectory})
	db.Insert("a/file.txt", model.Entry{
		Kind:    model.KindFile,
		Size:    5,
		MtimeNs: 1234,
		Hashes:  model.Hashes{hashalgo.SHA2_512_256: hashalgo.New(hashalgo.SHA2_512_256).Finalize()},
	})
	db.Insert("link", model.Entry{Kind: model.KindSymlink, Target: []byte("a/file.txt")})
	return db
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json.gz")
	db := sampleDB()
	algos := hashalgo.Set{hashalgo.SHA2_512_256}

	if err := Write(path, db, algos, false, nil); err != nil {
		t.Fatal(err)
	}
	got, err := Read(path, algos, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !db.Equal(got) {
		t.Fatalf("round-tripped database differs:\n%s", cmp.Diff(dumpDB(db), dumpDB(got)))
	}
}

func dumpDB(db *model.Database) map[string]model.Entry {
	out := make(map[string]model.Entry)
	db.Each(func(path string, e model.Entry) { out[path] = e })
	return out
}

func TestWriteRefusesOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json.gz")
	db := sampleDB()
	algos := hashalgo.Set{hashalgo.SHA2_512_256}

	if err := Write(path, db, algos, false, nil); err != nil {
		t.Fatal(err)
	}
	err := Write(path, db, algos, false, nil)
	if err == nil {
		t.Fatal("expected refuse-overwrite error")
	}
	if err := Write(path, db, algos, true, nil); err != nil {
		t.Fatalf("force overwrite should succeed: %v", err)
	}
}

func TestReadRejectsWrongLengthDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json.gz")
	algos := hashalgo.Set{hashalgo.SHA2_512_256}

	db := model.New()
	db.Insert("f", model.Entry{
		Kind:   model.KindFile,
		Size:   1,
		Hashes: model.Hashes{hashalgo.SHA2_512_256: []byte{0xaa}}, // too short (I3)
	})
	if err := Write(path, db, algos, false, nil); err != nil {
		t.Fatal(err)
	}

	if _, err := Read(path, algos, nil); err == nil {
		t.Fatal("expected Read to reject a database with a wrong-length digest")
	}
}

func TestSelfCheckDetectsByteFlip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json.gz")
	algos := hashalgo.Set{hashalgo.SHA2_512_256}
	if err := Write(path, sampleDB(), algos, false, nil); err != nil {
		t.Fatal(err)
	}

	if err := SelfCheck(path, algos, nil); err != nil {
		t.Fatalf("selfcheck on an untouched artifact should pass: %v", err)
	}

	corruptBodyByte(t, path)

	err := SelfCheck(path, algos, nil)
	if err == nil {
		t.Fatal("expected checksum mismatch after corrupting the body")
	}
}

// corruptBodyByte gunzips path, flips every bit of the last byte of the
// body region (leaving the body length unchanged), and re-gzips it in
// place.
func corruptBodyByte(t *testing.T, path string) {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	gz, err := gzip.NewReader(newBytesReadCloser(raw))
	if err != nil {
		t.Fatal(err)
	}
	decompressed, err := io.ReadAll(gz)
	if err != nil {
		t.Fatal(err)
	}
	decompressed[len(decompressed)-1] ^= 0xff

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := gzip.NewWriter(f)
	if _, err := w.Write(decompressed); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func newBytesReadCloser(b []byte) io.ReadCloser {
	f, err := os.CreateTemp("", "fsintegrity-test-*")
	if err != nil {
		panic(err)
	}
	if _, err := f.Write(b); err != nil {
		panic(err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		panic(err)
	}
	return f
}

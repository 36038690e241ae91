// Package container implements the double-layered database container
// format (spec §4.E): a gzip-compressed stream of a header JSON object,
// a 0x0A separator, and a body JSON object, where the header records a
// checksum of the body taken under the same hash registry used for
// per-entry digests. Atomic writes follow spec §9: write to
// "<target>.tmp", fsync, rename.
package container

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/meisterluk/fsintegrity/internal/container/schemas"
	"github.com/meisterluk/fsintegrity/internal/ferrors"
	"github.com/meisterluk/fsintegrity/internal/hashalgo"
	"github.com/meisterluk/fsintegrity/internal/logging"
	"github.com/meisterluk/fsintegrity/internal/model"
)

// header is the outer checksum record (spec §4.E, §6).
type header struct {
	Length uint64            `json:"length"`
	Hashes map[string]string `json:"hashes"`
}

// bodyWire is the database body: a single JSON object holding the
// path-sorted entry array (spec §6).
type bodyWire struct {
	Entries []json.RawMessage `json:"entries"`
}

// Write serializes db to canonical JSON, computes a digest per algorithm
// in algos over the body bytes, and writes
// gzip(header ++ 0x0A ++ body) to path (spec §4.E write algorithm).
// Unless force is true, Write refuses to overwrite an existing path
// (spec §3 "Lifecycle", §7 RefuseOverwrite).
func Write(path string, db *model.Database, algos hashalgo.Set, force bool, log logging.Logger) error {
	if log == nil {
		log = logging.Nop()
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return &ferrors.RefuseOverwriteError{Path: path}
		} else if !os.IsNotExist(err) {
			return ferrors.NewIOError(path, err)
		}
	}

	body, err := marshalBody(db)
	if err != nil {
		return ferrors.NewMalformedError("encoding database body", err)
	}

	hashes := make(map[string]string, len(algos))
	for _, id := range algos {
		h := hashalgo.New(id)
		h.Update(body)
		hashes[string(id)] = base64.StdEncoding.EncodeToString(h.Finalize())
	}

	hdr := header{Length: uint64(len(body)), Hashes: hashes}
	headerBytes, err := json.Marshal(hdr)
	if err != nil {
		return ferrors.NewMalformedError("encoding container header", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return ferrors.NewIOError(tmpPath, err)
	}

	gz := gzip.NewWriter(f)
	if _, err := gz.Write(headerBytes); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return ferrors.NewIOError(tmpPath, err)
	}
	if _, err := gz.Write([]byte{'\n'}); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return ferrors.NewIOError(tmpPath, err)
	}
	if _, err := gz.Write(body); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return ferrors.NewIOError(tmpPath, err)
	}
	if err := gz.Close(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return ferrors.NewIOError(tmpPath, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return ferrors.NewIOError(tmpPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return ferrors.NewIOError(tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return ferrors.NewIOError(path, err)
	}

	log.Info("wrote database", "path", path, "entries", db.Len(), "body_bytes", len(body), "algorithms", algos)
	return nil
}

// marshalBody renders db as canonical JSON: the Entries array in
// lexicographic path order (spec I5), each entry in the kind-conditional
// key order from model.MarshalEntryJSON.
func marshalBody(db *model.Database) ([]byte, error) {
	paths := db.Paths()
	entries := make([]json.RawMessage, 0, len(paths))
	for _, p := range paths {
		e, _ := db.Get(p)
		raw, err := model.MarshalEntryJSON([]byte(p), e)
		if err != nil {
			return nil, err
		}
		entries = append(entries, raw)
	}
	return json.Marshal(bodyWire{Entries: entries})
}

// Read decompresses and parses the container at path, verifying every
// digest in the header that known also computes, and returns the decoded
// Database (spec §4.E read algorithm).
//
// known is the set of algorithms this binary can verify. Per spec §4.A,
// Read only fails with UnknownAlgorithmError if the intersection of the
// header's algorithms and known is empty; otherwise every intersecting
// algorithm is checked and any single mismatch is a ChecksumMismatchError.
func Read(path string, known hashalgo.Set, log logging.Logger) (*model.Database, error) {
	if log == nil {
		log = logging.Nop()
	}
	hdr, body, err := readHeaderAndBody(path)
	if err != nil {
		return nil, err
	}

	if err := verifyChecksums(hdr, body, known); err != nil {
		return nil, err
	}

	if err := schemas.Validate(schemas.Database, body); err != nil {
		return nil, ferrors.NewMalformedError("database body failed schema validation", err)
	}

	var bw bodyWire
	if err := json.Unmarshal(body, &bw); err != nil {
		return nil, ferrors.NewMalformedError("decoding database body", err)
	}

	db := model.New()
	for _, raw := range bw.Entries {
		p, e, err := model.UnmarshalEntryJSON(raw)
		if err != nil {
			return nil, ferrors.NewMalformedError("decoding entry", err)
		}
		db.Insert(string(p), e)
	}

	if err := db.ValidateInvariants(); err != nil {
		return nil, ferrors.NewMalformedError("decoded database violates invariants", err)
	}

	log.Info("read database", "path", path, "entries", db.Len())
	return db, nil
}

// SelfCheck performs the read algorithm's verification step without
// decoding the body into a Database (spec §4.E: "selfcheck executes read
// step 3 without doing anything with the parsed body").
func SelfCheck(path string, known hashalgo.Set, log logging.Logger) error {
	if log == nil {
		log = logging.Nop()
	}
	hdr, body, err := readHeaderAndBody(path)
	if err != nil {
		return err
	}
	if err := verifyChecksums(hdr, body, known); err != nil {
		return err
	}
	log.Info("selfcheck passed", "path", path, "body_bytes", len(body))
	return nil
}

// readHeaderAndBody gunzips path, parses the single JSON header value up
// to the 0x0A separator, and returns the header plus the raw body bytes.
func readHeaderAndBody(path string) (header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return header{}, nil, ferrors.NewIOError(path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return header{}, nil, ferrors.NewMalformedError("not a valid gzip stream", err)
	}
	defer gz.Close()

	br := bufio.NewReader(gz)
	headerLine, err := br.ReadBytes('\n')
	if err != nil {
		return header{}, nil, ferrors.NewMalformedError("missing header/body separator", err)
	}
	headerBytes := bytes.TrimSuffix(headerLine, []byte{'\n'})

	if err := schemas.Validate(schemas.Header, headerBytes); err != nil {
		return header{}, nil, ferrors.NewMalformedError("container header failed schema validation", err)
	}

	var hdr header
	if err := json.Unmarshal(headerBytes, &hdr); err != nil {
		return header{}, nil, ferrors.NewMalformedError("header is not valid JSON", err)
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return header{}, nil, ferrors.NewIOError(path, err)
	}
	if uint64(len(body)) != hdr.Length {
		return header{}, nil, ferrors.NewMalformedError(
			fmt.Sprintf("body length mismatch: header says %d, read %d", hdr.Length, len(body)), nil)
	}

	return hdr, body, nil
}

// verifyChecksums computes every known algorithm named in hdr.Hashes
// over body and compares it to the header's recorded value. Per spec
// §4.A, an empty intersection between hdr's algorithms and known is an
// UnknownAlgorithmError; any single verified mismatch is a
// ChecksumMismatchError.
func verifyChecksums(hdr header, body []byte, known hashalgo.Set) error {
	var intersecting []string
	for idStr := range hdr.Hashes {
		if known.Contains(hashalgo.ID(idStr)) {
			intersecting = append(intersecting, idStr)
		}
	}
	if len(intersecting) == 0 {
		var names []string
		for idStr := range hdr.Hashes {
			names = append(names, idStr)
		}
		sort.Strings(names)
		return &ferrors.UnknownAlgorithmError{ID: fmt.Sprintf("%v", names)}
	}
	sort.Strings(intersecting)

	for _, idStr := range intersecting {
		h := hashalgo.New(hashalgo.ID(idStr))
		h.Update(body)
		got := base64.StdEncoding.EncodeToString(h.Finalize())
		want := hdr.Hashes[idStr]
		if got != want {
			return &ferrors.ChecksumMismatchError{Algo: idStr}
		}
	}
	return nil
}

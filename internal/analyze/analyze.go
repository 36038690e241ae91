// Package analyze implements the entry analyzer (spec §4.B): given the
// absolute path to a regular file and a set of algorithms, read the
// file's bytes once, feed every active hasher, and accumulate content
// heuristics, producing a model.Entry of kind File.
package analyze

import (
	"io"
	"os"

	"github.com/meisterluk/fsintegrity/internal/ferrors"
	"github.com/meisterluk/fsintegrity/internal/hashalgo"
	"github.com/meisterluk/fsintegrity/internal/model"
)

// ChunkSize is the read buffer size suggested by spec §4.B.
const ChunkSize = 64 * 1024

// File reads path once in ChunkSize-sized chunks, feeding every hasher in
// algos and scanning bytes for the has_nul / has_non_ascii heuristics.
// size reflects the number of bytes actually read (not a prior stat,
// per spec §4.B), and mtime_ns is captured after the read completes.
func File(path string, algos hashalgo.Set) (model.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Entry{}, ferrors.NewIOError(path, err)
	}
	defer f.Close()

	hashers := algos.NewHashers()
	var flags model.Flags
	var size uint64

	buf := make([]byte, ChunkSize)
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			for _, h := range hashers {
				h.Update(chunk)
			}
			size += uint64(n)
			scanContent(chunk, &flags)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return model.Entry{}, ferrors.NewIOError(path, readErr)
		}
	}

	info, err := f.Stat()
	if err != nil {
		return model.Entry{}, ferrors.NewIOError(path, err)
	}

	hashes := make(model.Hashes, len(hashers))
	for _, h := range hashers {
		hashes[h.ID()] = h.Finalize()
	}

	return model.Entry{
		Kind:    model.KindFile,
		Size:    size,
		MtimeNs: info.ModTime().UnixNano(),
		Hashes:  hashes,
		Flags:   flags,
	}, nil
}

// scanContent updates flags in place for one chunk of file content: any
// byte 0x00 sets has_nul, any byte >= 0x80 sets has_non_ascii. Once both
// flags are set the remaining bytes are not scanned; the caller counts
// bytes itself.
func scanContent(chunk []byte, flags *model.Flags) {
	hasNUL := flags.Has(model.FlagHasNUL)
	hasNonASCII := flags.Has(model.FlagHasNonASCII)
	if hasNUL && hasNonASCII {
		return
	}
	for _, b := range chunk {
		if !hasNUL && b == 0x00 {
			hasNUL = true
			flags.Add(model.FlagHasNUL)
		}
		if !hasNonASCII && b >= 0x80 {
			hasNonASCII = true
			flags.Add(model.FlagHasNonASCII)
		}
		if hasNUL && hasNonASCII {
			break
		}
	}
}

// Symlink reads the target of a symbolic link, producing a model.Entry of
// kind Symlink. The target is kept as raw OS path bytes; no lossy string
// conversion is performed (spec §9).
func Symlink(path string) (model.Entry, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return model.Entry{}, ferrors.NewIOError(path, err)
	}
	return model.Entry{
		Kind:   model.KindSymlink,
		Target: []byte(target),
	}, nil
}

// Package scan implements the parallel walker (spec §4.C): it recursively
// enumerates directory entries, dispatches files and symlinks to a
// worker pool sized to the number of physical CPUs, and collects results
// into a model.Database through a single collector goroutine that is the
// database's sole writer, following the producer/worker/collector
// channel pipeline shape of the teacher's internals/hash_a_tree.go,
// simplified because this spec's Directory entries are presence-only
// (no Merkle-style hash folding is needed).
package scan

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/cpuid/v2"

	"github.com/meisterluk/fsintegrity/internal/analyze"
	"github.com/meisterluk/fsintegrity/internal/hashalgo"
	"github.com/meisterluk/fsintegrity/internal/logging"
	"github.com/meisterluk/fsintegrity/internal/model"
)

// ShouldVisit decides whether a path should be included in the walk. The
// front end supplies this predicate (spec §1: "ignore-file parsing" is an
// external collaborator's concern); a nil predicate visits everything.
type ShouldVisit func(path string) bool

// Options configures a Walk call.
type Options struct {
	// Algorithms is the active digest algorithm set fed to every file
	// analysis (spec §4.A/§4.C).
	Algorithms hashalgo.Set
	// ShouldVisit filters which paths are scanned. Nil visits everything.
	ShouldVisit ShouldVisit
	// Workers overrides the worker pool size. Zero means "physical CPU
	// count" (spec §4.C, §5), sourced from klauspost/cpuid/v2 rather than
	// runtime.NumCPU() because the latter reports logical, not physical,
	// cores.
	Workers int
	// Log receives walk progress and per-file failure diagnostics. Nil
	// is replaced with a no-op logger.
	Log logging.Logger
}

func physicalWorkers() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return 1
}

// job is one unit of work dispatched to the worker pool: analyze the
// node at absPath and report it back via result under relPath (relative
// to the walk root).
type job struct {
	relPath string
	absPath string
	isLink  bool
}

type result struct {
	relPath string
	entry   model.Entry
	err     error
}

// Walk enumerates root recursively and returns a Database satisfying
// invariants I1–I4, plus the list of per-file failures encountered along
// the way (spec §4.C: "per-file I/O failures are collected, not
// raised").
func Walk(root string, opts Options) (*model.Database, []error) {
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = physicalWorkers()
	}
	algos := opts.Algorithms
	if len(algos) == 0 {
		algos = hashalgo.Set{hashalgo.Default}
	}
	visit := opts.ShouldVisit
	if visit == nil {
		visit = func(string) bool { return true }
	}

	log.Info("walk starting", "root", root, "workers", workers, "algorithms", algos)

	db := model.New()

	// A scan root that is itself a regular file (not a directory) has no
	// descendants to enumerate; record it as a single entry keyed by its
	// base name, the way spec §8 scenario 1 ("build db README.md")
	// implies a single-file tree still produces a database with one
	// entry rather than an empty one.
	if rootInfo, err := os.Lstat(root); err == nil && rootInfo.Mode().IsRegular() {
		entry, err := analyze.File(root, algos)
		if err != nil {
			return db, []error{err}
		}
		db.Insert(filepath.Base(root), entry)
		log.Info("walk complete", "entries", db.Len(), "failures", 0)
		return db, nil
	}

	// Root directory itself is not recorded as a path entry: paths are
	// relative to the scan root (spec §3), and the root has no relative
	// path segment of its own.

	jobs := make(chan job, workers*4) // bounded dispatch queue (spec §5 backpressure)
	results := make(chan result, workers*4)
	var failuresMu sync.Mutex
	var failures []error

	var workerWg sync.WaitGroup
	for i := 0; i < workers; i++ {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			for j := range jobs {
				var entry model.Entry
				var err error
				if j.isLink {
					entry, err = analyze.Symlink(j.absPath)
				} else {
					entry, err = analyze.File(j.absPath, algos)
				}
				results <- result{relPath: j.relPath, entry: entry, err: err}
			}
		}()
	}

	// collector: the sole writer to db, fed by the bounded results
	// channel (spec §4.C: "no lock is required beyond the
	// channel's handoff").
	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for r := range results {
			if r.err != nil {
				log.Warn("entry analysis failed", "path", r.relPath, "error", r.err)
				failuresMu.Lock()
				failures = append(failures, r.err)
				failuresMu.Unlock()
				continue
			}
			db.Insert(r.relPath, r.entry)
		}
	}()

	// Directories are reported through the same results channel as
	// files/symlinks so the collector goroutine remains the database's
	// sole writer (spec §4.C); only files/symlinks are dispatched to the
	// worker pool for analysis.
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			failuresMu.Lock()
			failures = append(failures, err)
			failuresMu.Unlock()
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			failuresMu.Lock()
			failures = append(failures, relErr)
			failuresMu.Unlock()
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !visit(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			failuresMu.Lock()
			failures = append(failures, infoErr)
			failuresMu.Unlock()
			return nil
		}

		switch {
		case d.IsDir():
			results <- result{relPath: rel, entry: model.Entry{Kind: model.KindDirectory}}
		case info.Mode()&os.ModeSymlink != 0:
			jobs <- job{relPath: rel, absPath: path, isLink: true}
		case info.Mode().IsRegular():
			jobs <- job{relPath: rel, absPath: path}
		default:
			// devices, sockets, pipes, etc. are skipped: the spec's
			// entry kinds cover only File, Symlink, and Directory.
			log.Debug("skipping special file", "path", rel, "mode", info.Mode().String())
		}
		return nil
	})
	close(jobs)
	workerWg.Wait()
	close(results)
	collectorWg.Wait()

	if walkErr != nil {
		failuresMu.Lock()
		failures = append(failures, walkErr)
		failuresMu.Unlock()
	}

	log.Info("walk complete", "entries", db.Len(), "failures", len(failures))
	return db, failures
}

// Package action implements the top-level orchestration (spec §4.G):
// build, check, diff, selfcheck, plus the supplementary stats and
// hashalgos actions from SPEC_FULL.md §12. This is the only package
// that translates an error into an exit code (spec §7, §10.2).
package action

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/meisterluk/fsintegrity/internal/container"
	"github.com/meisterluk/fsintegrity/internal/diff"
	"github.com/meisterluk/fsintegrity/internal/ferrors"
	"github.com/meisterluk/fsintegrity/internal/hashalgo"
	"github.com/meisterluk/fsintegrity/internal/logging"
	"github.com/meisterluk/fsintegrity/internal/model"
	"github.com/meisterluk/fsintegrity/internal/scan"
)

// Exit codes per spec §6.
const (
	ExitOK                 = 0
	ExitBenignDifferences  = 1
	ExitSuspicious         = 2
	ExitInputError         = 3
	ExitIntegrityFailure   = 4
)

// Result is the outcome of any action: the changes found (empty for
// build/selfcheck/hashalgos), a log correlation ID, and the error that
// should drive ExitCode.
type Result struct {
	Changes       []diff.Change
	CorrelationID string
	Err           error
}

// newLogger attaches a per-run correlation ID to log, the way a request
// ID is threaded through a server (SPEC_FULL.md §11), grounded in
// mutagen-io-mutagen's go.mod dependency on google/uuid.
func newLogger(log logging.Logger, action string) (logging.Logger, string) {
	if log == nil {
		log = logging.Nop()
	}
	id := uuid.New().String()
	return log.With("run_id", id, "action", action), id
}

// Build scans root and writes a new database container to out (spec
// §4.G). Refuses to overwrite out unless force is true.
func Build(out, root string, algos hashalgo.Set, force bool, visit scan.ShouldVisit, workers int, log logging.Logger) Result {
	l, id := newLogger(log, "build")
	l.Info("build starting", "out", out, "root", root)

	db, failures := scan.Walk(root, scan.Options{Algorithms: algos, ShouldVisit: visit, Workers: workers, Log: l})
	if err := db.ValidateInvariants(); err != nil {
		return Result{CorrelationID: id, Err: ferrors.NewMalformedError("scanned tree violates database invariants", err)}
	}

	if err := container.Write(out, db, algos, force, l); err != nil {
		return Result{CorrelationID: id, Err: err}
	}

	if len(failures) > 0 {
		l.Warn("build completed with per-file failures", "count", len(failures))
		return Result{CorrelationID: id, Err: fmt.Errorf("build: %d file(s) failed to scan: %w", len(failures), failures[0])}
	}

	l.Info("build complete")
	return Result{CorrelationID: id}
}

// Check scans root and diffs it against the database at dbPath (spec
// §4.G).
func Check(dbPath, root string, known hashalgo.Set, visit scan.ShouldVisit, workers int, log logging.Logger) Result {
	l, id := newLogger(log, "check")
	l.Info("check starting", "db", dbPath, "root", root)

	stored, err := container.Read(dbPath, known, l)
	if err != nil {
		return Result{CorrelationID: id, Err: err}
	}

	live, failures := scan.Walk(root, scan.Options{Algorithms: known, ShouldVisit: visit, Workers: workers, Log: l})
	if len(failures) > 0 {
		l.Warn("check scan completed with per-file failures", "count", len(failures))
	}

	changes := diff.Compare(stored, live)
	l.Info("check complete", "changes", len(changes))
	return Result{Changes: changes, CorrelationID: id}
}

// Diff reads two databases and compares them (spec §4.G).
func Diff(dbA, dbB string, known hashalgo.Set, log logging.Logger) Result {
	l, id := newLogger(log, "diff")
	l.Info("diff starting", "a", dbA, "b", dbB)

	a, err := container.Read(dbA, known, l)
	if err != nil {
		return Result{CorrelationID: id, Err: err}
	}
	b, err := container.Read(dbB, known, l)
	if err != nil {
		return Result{CorrelationID: id, Err: err}
	}

	changes := diff.Compare(a, b)
	l.Info("diff complete", "changes", len(changes))
	return Result{Changes: changes, CorrelationID: id}
}

// SelfCheck verifies a database container's outer checksums without
// decoding its body (spec §4.G).
func SelfCheck(dbPath string, known hashalgo.Set, log logging.Logger) Result {
	l, id := newLogger(log, "selfcheck")
	err := container.SelfCheck(dbPath, known, l)
	return Result{CorrelationID: id, Err: err}
}

// Summary aggregates counts over a database for the stats action
// (SPEC_FULL.md §12, adapted from the teacher's internals/statistics.go).
type Summary struct {
	Files            int
	Directories      int
	Symlinks         int
	TotalBytes       uint64
	AlgorithmCoverage map[hashalgo.ID]int
}

// Stats computes a Summary over the database stored at dbPath.
func Stats(dbPath string, known hashalgo.Set, log logging.Logger) (Summary, Result) {
	l, id := newLogger(log, "stats")
	db, err := container.Read(dbPath, known, l)
	if err != nil {
		return Summary{}, Result{CorrelationID: id, Err: err}
	}

	s := Summary{AlgorithmCoverage: make(map[hashalgo.ID]int)}
	db.Each(func(_ string, e model.Entry) {
		switch e.Kind {
		case model.KindFile:
			s.Files++
			s.TotalBytes += e.Size
			for id := range e.Hashes {
				s.AlgorithmCoverage[id]++
			}
		case model.KindSymlink:
			s.Symlinks++
		case model.KindDirectory:
			s.Directories++
		}
	})
	return s, Result{CorrelationID: id}
}

// ListAlgorithms returns the compiled-in algorithm registry (spec §4.A,
// adapted from the teacher's cli/cmd_hashalgos.go).
func ListAlgorithms() []hashalgo.ID {
	return hashalgo.Known()
}

// Classify reports the coarsest classification across a set of changes:
// Suspicious if any change is suspicious, Benign if any (non-suspicious)
// change exists, or "" if changes is empty.
func Classify(changes []diff.Change) diff.Class {
	anyBenign := false
	for _, c := range changes {
		if c.Class == diff.Suspicious {
			return diff.Suspicious
		}
		anyBenign = true
	}
	if anyBenign {
		return diff.Benign
	}
	return ""
}

// ExitCode maps a Result to the exit code the CLI should use (spec §6).
// This is the sole place an error becomes an exit code (SPEC_FULL.md
// §10.2).
func ExitCode(r Result) int {
	if r.Err != nil {
		switch r.Err.(type) {
		case *ferrors.RefuseOverwriteError, *ferrors.IOError:
			return ExitInputError
		case *ferrors.MalformedError, *ferrors.ChecksumMismatchError, *ferrors.UnknownAlgorithmError:
			return ExitIntegrityFailure
		default:
			return ExitInputError
		}
	}
	if diff.AllNoCommonAlgorithm(r.Changes) {
		return ExitIntegrityFailure
	}
	switch Classify(r.Changes) {
	case diff.Suspicious:
		return ExitSuspicious
	case diff.Benign:
		return ExitBenignDifferences
	default:
		return ExitOK
	}
}

package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// staging holds the outputs of one run under hidden temporary names in the
// output directory. Nothing under a final name changes until commit, and a
// failed commit puts back whatever it had replaced.
type staging struct {
	runID  string
	files  []stagedFile
	index  map[string]int // final path -> files position
	logger *slog.Logger
}

type stagedFile struct {
	final  string
	staged string
	backup string // previous file moved aside during commit, if any
}

func newStaging(runID string, logger *slog.Logger) *staging {
	return &staging{runID: runID, index: map[string]int{}, logger: logger}
}

// path returns the temporary name to write final under. Asking twice for the
// same final path returns the same name, so the later write wins.
func (s *staging) path(final string) string {
	if i, ok := s.index[final]; ok {
		return s.files[i].staged
	}
	dir, base := filepath.Split(final)
	f := stagedFile{
		final:  final,
		staged: filepath.Join(dir, fmt.Sprintf(".%s.pending-%s", base, s.runID)),
		backup: filepath.Join(dir, fmt.Sprintf(".%s.prev-%s", base, s.runID)),
	}
	s.index[final] = len(s.files)
	s.files = append(s.files, f)
	return f.staged
}

// commit moves every staged file to its final name. Existing files are moved
// aside first and removed only once all renames succeeded; on failure the
// directory is restored to its state before the run.
func (s *staging) commit() error {
	var done []int
	moved := map[int]bool{}
	for i, f := range s.files {
		if _, err := os.Lstat(f.final); err == nil {
			if err := os.Rename(f.final, f.backup); err != nil {
				s.undo(done, moved)
				return s.fail(f.final, err)
			}
			moved[i] = true
		}
		if err := os.Rename(f.staged, f.final); err != nil {
			done = append(done, i) // restores the backup; final was never replaced
			s.undo(done, moved)
			return s.fail(f.final, err)
		}
		done = append(done, i)
	}
	for i := range moved {
		s.remove(s.files[i].backup)
	}
	return nil
}

func (s *staging) fail(final string, err error) error {
	return fmt.Errorf("commit %q: %w", final, err)
}

// undo reverses the first renames of a failed commit, newest first, then
// drops the staged files that were never committed.
func (s *staging) undo(done []int, moved map[int]bool) {
	for k := len(done) - 1; k >= 0; k-- {
		f := s.files[done[k]]
		if _, err := os.Lstat(f.staged); errors.Is(err, fs.ErrNotExist) {
			s.remove(f.final)
		}
		if moved[done[k]] {
			if err := os.Rename(f.backup, f.final); err != nil {
				s.logger.Error("rollback: failed to restore previous file", "path", f.final, "backup", f.backup, "error", err)
			}
		}
	}
	s.discard()
}

// discard removes every staged file that has not been committed.
func (s *staging) discard() {
	for _, f := range s.files {
		s.remove(f.staged)
	}
}

func (s *staging) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("rollback: failed to remove file", "path", path, "error", err)
	}
}

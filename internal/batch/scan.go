// Package batch converts every PDF under a directory tree, one document at a
// time, and in watch mode keeps converting files as they appear.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/pdfraster/constants"
	"github.com/joseph-ayodele/pdfraster/internal/common"
)

// ScanStats summarizes one Scan.
type ScanStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// Scan walks root and returns every PDF below it in lexical order. Hidden
// files and directories are skipped when skipHidden is set. Unreadable
// entries are counted in Failed and the walk continues.
func Scan(ctx context.Context, root string, skipHidden bool) ([]string, ScanStats, error) {
	var stats ScanStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, common.InvalidArgumentError("root is required")
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !constants.IsPDFExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, stats, err
		}
		return nil, stats, common.NotFoundError(fmt.Sprintf("scan %q", root), err)
	}
	sort.Strings(paths)
	return paths, stats, nil
}

// OutputDirFor mirrors source's position under root into outRoot, so that
// root/a/b.pdf lands in outRoot/a.
func OutputDirFor(root, outRoot, source string) string {
	rel, err := filepath.Rel(root, filepath.Dir(source))
	if err != nil || strings.HasPrefix(rel, "..") {
		return outRoot
	}
	return filepath.Join(outRoot, rel)
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// Package ledger discovers and loads the YAML ledger files that make up the
// fleet registry: instrument records and dated QC/maintenance events.
//
// Every traversal is sorted before use so that two builds over the same tree
// produce byte-identical output regardless of directory-listing order.
package ledger

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scan returns every regular file under baseDir (at any depth) whose
// extension is .yaml or .yml, case-insensitive. The result is sorted
// lexicographically by full path. A missing or non-directory baseDir yields
// an empty slice, never an error: an empty ledger tree is a valid fleet.
func Scan(baseDir string) []string {
	info, err := os.Stat(baseDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	var files []string
	_ = filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped; one bad directory must not
			// block the rest of the fleet.
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})

	sort.Strings(files)
	return files
}

// Package scanner walks a directory tree and produces the ordered list of
// candidate video file paths the Orchestrator consumes by default.
package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// videoExtensions is the literal set scanner.py recognizes.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
}

// IsVideoFile reports whether d is a non-directory entry whose name does not
// start with "." and has one of the recognized video extensions.
func IsVideoFile(d fs.DirEntry) bool {
	if d.IsDir() {
		return false
	}

	name := d.Name()
	if strings.HasPrefix(name, ".") {
		return false
	}

	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// Scan recursively walks root and returns every candidate video file path,
// sorted lexically for a stable, reproducible ordering across runs
// (scan_directory's rglob order is filesystem-dependent and not relied on
// as a stability guarantee; this scanner sorts explicitly instead).
func Scan(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if IsVideoFile(d) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanner: walk %q: %w", root, err)
	}

	sort.Strings(files)

	return files, nil
}

// Package hasher computes the 64-bit content hash used to identify files
// across renames and re-scans, independent of path or modification time.
package hasher

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// chunkSize matches the spec's streaming chunk size exactly so the hash is
// computed with a bounded, predictable memory footprint regardless of file
// size.
const chunkSize = 8 * 1024

// Hash returns the lowercase-hex, 16-digit xxhash64 digest of the file at
// path's full content, streamed in 8 KiB chunks. It returns an empty string
// and a non-nil error if the file cannot be opened or read.
func Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hasher: open %q: %w", path, err)
	}
	defer f.Close()

	h := xxhash.New()

	buf := make([]byte, chunkSize)

	// Wrapping f hides *os.File's WriteTo, which would otherwise make
	// CopyBuffer ignore buf and copy with a buffer of its own.
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{f}, buf); err != nil {
		return "", fmt.Errorf("hasher: read %q: %w", path, err)
	}

	return fmt.Sprintf("%016x", h.Sum64()), nil
}

package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestScan_FindsVideoFilesRecursively(t *testing.T) {
	dir := t.TempDir()

	touch(t, filepath.Join(dir, "a.mp4"))
	touch(t, filepath.Join(dir, "sub", "b.MOV"))
	touch(t, filepath.Join(dir, "sub", "deep", "c.webm"))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.mp4"),
		filepath.Join(dir, "sub", "b.MOV"),
		filepath.Join(dir, "sub", "deep", "c.webm"),
	}, files)
}

func TestScan_SkipsNonVideoAndHiddenFiles(t *testing.T) {
	dir := t.TempDir()

	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, ".hidden.mp4"))
	touch(t, filepath.Join(dir, "real.mkv"))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "real.mkv")}, files)
}

func TestScan_EmptyDirectoryReturnsEmptyList(t *testing.T) {
	dir := t.TempDir()

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScan_ReturnsErrorForMissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

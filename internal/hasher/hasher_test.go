package hasher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_DeterministicForSameContent(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.mp4")
	pathB := filepath.Join(dir, "b.mp4")

	content := []byte("same bytes, different file names")
	require.NoError(t, os.WriteFile(pathA, content, 0o600))
	require.NoError(t, os.WriteFile(pathB, content, 0o600))

	hashA, err := Hash(pathA)
	require.NoError(t, err)

	hashB, err := Hash(pathB)
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB)
	assert.Len(t, hashA, 16)
}

func TestHash_DiffersForDifferentContent(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.mp4")
	pathB := filepath.Join(dir, "b.mp4")

	require.NoError(t, os.WriteFile(pathA, []byte("content one"), 0o600))
	require.NoError(t, os.WriteFile(pathB, []byte("content two"), 0o600))

	hashA, err := Hash(pathA)
	require.NoError(t, err)

	hashB, err := Hash(pathB)
	require.NoError(t, err)

	assert.NotEqual(t, hashA, hashB)
}

func TestHash_LargerThanChunkSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.mp4")

	content := make([]byte, chunkSize*3+17)
	for i := range content {
		content[i] = byte(i % 251)
	}

	require.NoError(t, os.WriteFile(path, content, 0o600))

	hash, err := Hash(path)
	require.NoError(t, err)
	assert.Len(t, hash, 16)

	hashAgain, err := Hash(path)
	require.NoError(t, err)
	assert.Equal(t, hash, hashAgain)
}

func TestHash_MissingFileReturnsError(t *testing.T) {
	hash, err := Hash(filepath.Join(t.TempDir(), "does-not-exist.mp4"))
	require.Error(t, err)
	assert.Empty(t, hash)
}

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigPath_JoinsConfigDirAndFileName(t *testing.T) {
	got := DefaultConfigPath()
	dir := DefaultConfigDir()

	if dir == "" {
		t.Skip("no home directory available in this environment")
	}

	assert.Equal(t, filepath.Join(dir, "config.toml"), got)
}

func TestDefaultDirs_NonEmpty(t *testing.T) {
	if DefaultConfigDir() == "" {
		t.Skip("no home directory available in this environment")
	}

	assert.NotEmpty(t, DefaultConfigDir())
	assert.NotEmpty(t, DefaultDataDir())
	assert.NotEmpty(t, DefaultCacheDir())
}

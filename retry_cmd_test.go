package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	t.Run("valid RFC3339", func(t *testing.T) {
		got, err := parseTimestamp("2026-01-15T10:30:00Z")
		require.NoError(t, err)

		want := time.Date(2026, time.January, 15, 10, 30, 0, 0, time.UTC).Unix()
		assert.Equal(t, want, got)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := parseTimestamp("not-a-timestamp")
		assert.Error(t, err)
	})

	t.Run("empty string", func(t *testing.T) {
		_, err := parseTimestamp("")
		assert.Error(t, err)
	})
}

func TestNewRetryCmd_Flags(t *testing.T) {
	cmd := newRetryCmd()

	for _, name := range []string{"since", "error-contains", "limit", "dry-run"} {
		assert.NotNil(t, cmd.Flags().Lookup(name))
	}
}

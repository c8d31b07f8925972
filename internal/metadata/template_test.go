package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTemplate_SubstitutesKnownPlaceholders(t *testing.T) {
	out, err := expandTemplate("{folder}/{stem} ({index}/{total})", map[string]string{
		"folder": "vacation", "stem": "clip01", "index": "1", "total": "3",
	})
	require.NoError(t, err)
	assert.Equal(t, "vacation/clip01 (1/3)", out)
}

func TestExpandTemplate_UnknownPlaceholderErrors(t *testing.T) {
	_, err := expandTemplate("{unknown}", map[string]string{"folder": "x"})
	require.Error(t, err)
}

func TestExpandTemplate_LiteralBracesPassThroughWithoutPlaceholder(t *testing.T) {
	out, err := expandTemplate("plain text, no braces", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "plain text, no braces", out)
}

func TestExpandTemplate_UnterminatedPlaceholderErrors(t *testing.T) {
	_, err := expandTemplate("{folder", map[string]string{"folder": "x"})
	require.Error(t, err)
}

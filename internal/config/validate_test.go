package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_ChunkSizeOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Upload.ChunkSize = 1

	err := Validate(cfg)
	assert.ErrorContains(t, err, "chunk_size")
}

func TestValidate_RetryCountOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Upload.RetryCount = 0

	err := Validate(cfg)
	assert.ErrorContains(t, err, "retry_count")
}

func TestValidate_BadPrivacyStatus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Upload.PrivacyStatus = "super-secret"

	err := Validate(cfg)
	assert.ErrorContains(t, err, "privacy_status")
}

func TestValidate_AccumulatesMultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Upload.RetryCount = 0
	cfg.Upload.PrivacyStatus = "bogus"
	cfg.HistoryDB = ""

	err := Validate(cfg)
	require := assert.New(t)
	require.ErrorContains(err, "retry_count")
	require.ErrorContains(err, "privacy_status")
	require.ErrorContains(err, "history_db")
}

func TestValidate_EmptyScopes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.Scopes = nil

	err := Validate(cfg)
	assert.ErrorContains(t, err, "scopes")
}

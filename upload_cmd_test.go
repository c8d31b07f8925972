package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ysakae/vidup/internal/orchestrator"
)

func TestNewUploadCmd_RequiresAtLeastOneArg(t *testing.T) {
	cmd := newUploadCmd()
	assert.Error(t, cmd.Args(cmd, []string{}))
	assert.NoError(t, cmd.Args(cmd, []string{"/videos"}))
	assert.NoError(t, cmd.Args(cmd, []string{"/videos", "/more-videos"}))
}

func TestCliProgressSink_FileDone_NoError(t *testing.T) {
	cc := &CLIContext{Quiet: false}
	sink := &cliProgressSink{cc: cc}

	// Exercises the non-error formatting branch; asserting it doesn't panic
	// is the meaningful behavior here since output goes straight to stderr.
	assert.NotPanics(t, func() {
		sink.FileDone("/videos/clip.mp4", orchestrator.OutcomePublished, nil)
	})
}

func TestCliProgressSink_FileDone_WithError(t *testing.T) {
	cc := &CLIContext{Quiet: true}
	sink := &cliProgressSink{cc: cc}

	assert.NotPanics(t, func() {
		sink.FileDone("/videos/clip.mp4", orchestrator.OutcomeUploadFailed, errors.New("boom"))
	})
}

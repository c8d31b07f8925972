// Package upload implements the resumable chunked upload driver: it owns
// retry classification, exponential backoff, and progress reporting over
// whatever remote platform an videoapi.UploadDriver implementation
// provides.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/ysakae/vidup/internal/metadata"
	"github.com/ysakae/vidup/internal/videoapi"
)

// DefaultChunkSize matches spec.md §4.4's default.
const DefaultChunkSize = 4 * 1024 * 1024

// ProgressFunc reports (bytesSent, totalBytes) after each chunk.
type ProgressFunc func(bytesSent, totalBytes int64)

// Driver wraps a videoapi.UploadDriver with classified retry and
// exponential backoff.
type Driver struct {
	remote     videoapi.UploadDriver
	creds      videoapi.Credentials
	retryCount int
	logger     *slog.Logger
}

// NewDriver constructs a Driver. retryCount is the total number of
// attempts (including the first), matching spec.md's `retry_count`
// configuration knob.
func NewDriver(remote videoapi.UploadDriver, creds videoapi.Credentials, retryCount int, logger *slog.Logger) *Driver {
	return &Driver{remote: remote, creds: creds, retryCount: retryCount, logger: logger}
}

// newBackoff returns the exponential backoff policy from spec.md §4.4 and
// testable-property 5: 2s initial, ×2 multiplier, 60s cap, NO jitter.
// Jitter is deliberately disabled (unlike the teacher's ±25%-jittered
// calcBackoff) because property 5 requires an exact, non-flaky elapsed-time
// lower bound across retries.
func newBackoff(attempts int) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.Multiplier = 2.0
	b.MaxInterval = 60 * time.Second
	b.RandomizationFactor = 0

	if attempts <= 0 {
		attempts = 1
	}

	return backoff.WithMaxRetries(b, uint64(attempts-1))
}

// UploadVideo performs a resumable chunked upload of the file at path,
// reporting progress via onProgress, and returns the assigned video id.
// Each chunk send is individually retried per the classified-retry policy;
// a correlation id is attached to every retry's log line so a single
// upload's attempts can be traced together without a server-supplied
// request id (the remote collaborator interface doesn't expose one).
func (d *Driver) UploadVideo(ctx context.Context, path string, meta metadata.Record, chunkSize int64, onProgress ProgressFunc) (string, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	correlationID := uuid.NewString()

	session, err := d.remote.OpenSession(ctx, d.creds, path, meta, chunkSize)
	if err != nil {
		return "", fmt.Errorf("upload: open session for %q: %w", path, err)
	}

	for {
		var result videoapi.ChunkResult

		err := d.retryChunk(ctx, correlationID, func() error {
			var sendErr error
			result, sendErr = session.NextChunk(ctx)

			return sendErr
		})
		if err != nil {
			return "", fmt.Errorf("upload: send chunk for %q: %w", path, err)
		}

		if onProgress != nil {
			onProgress(result.BytesSent, result.TotalBytes)
		}

		if result.VideoID != "" {
			return result.VideoID, nil
		}
	}
}

// UploadThumbnail attaches a thumbnail image to an already-uploaded video,
// with the same classified-retry policy as chunk sends.
func (d *Driver) UploadThumbnail(ctx context.Context, correlationID, videoID, thumbnailPath string) error {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	err := d.retryChunk(ctx, correlationID, func() error {
		return d.remote.UploadThumbnail(ctx, d.creds, videoID, thumbnailPath)
	})
	if err != nil {
		return fmt.Errorf("upload: thumbnail for %q: %w", videoID, err)
	}

	return nil
}

// retryChunk runs op under the classified-retry/backoff policy, logging
// each retry via slog (mirroring graph.Client.doRetry's Warn-before-sleep
// shape) with the correlation id threaded through every attempt.
func (d *Driver) retryChunk(ctx context.Context, correlationID string, op func() error) error {
	attempt := 0

	wrapped := func() error {
		attempt++

		err := op()
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}

		return err
	}

	notify := func(err error, wait time.Duration) {
		d.logger.Warn("retrying upload chunk",
			"correlation_id", correlationID,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	return backoff.RetryNotify(wrapped, backoff.WithContext(newBackoff(d.retryCount), ctx), notify)
}

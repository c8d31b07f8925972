// Package orchestrator drives the per-file upload state machine: dedup
// check, metadata generation, resumable upload, and sequential
// post-processing, across a bounded worker pool with a cooperative
// latched stop signal.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"github.com/ysakae/vidup/internal/hasher"
	"github.com/ysakae/vidup/internal/history"
	"github.com/ysakae/vidup/internal/metadata"
	"github.com/ysakae/vidup/internal/playlist"
	"github.com/ysakae/vidup/internal/quota"
	"github.com/ysakae/vidup/internal/upload"
)

// Outcome is the terminal state a file reaches, per spec.md §4.7's state
// machine.
type Outcome string

const (
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeHashFailed   Outcome = "hash_failed"
	OutcomePreviewed    Outcome = "previewed"
	OutcomePublished    Outcome = "published"
	OutcomeUploadFailed Outcome = "upload_failed"
	OutcomeSkippedHalt  Outcome = "skipped_halted"
)

// ProgressSink is the display-agnostic capability the Orchestrator reports
// through; the core never prints directly.
type ProgressSink interface {
	FileStarted(path string)
	FileProgress(path string, bytesSent, totalBytes int64)
	FileDone(path string, outcome Outcome, err error)
	Preview(path string, rec metadata.Record)
}

// NoopProgressSink discards every callback; useful as a default or in
// tests that don't care about progress reporting.
type NoopProgressSink struct{}

func (NoopProgressSink) FileStarted(string)                {}
func (NoopProgressSink) FileProgress(string, int64, int64) {}
func (NoopProgressSink) FileDone(string, Outcome, error)   {}
func (NoopProgressSink) Preview(string, metadata.Record)   {}

// Config controls one Orchestrator run.
type Config struct {
	ChunkSize       int64
	RetryCount      int
	PrivacyStatus   string
	DailyQuotaLimit int
	Workers         int
	DryRun          bool
}

// Result summarizes one run's outcomes.
type Result struct {
	Published  int
	Duplicates int
	Failed     int
	Halted     bool
}

// Orchestrator ties together the HistoryStore, ContentHasher,
// MetadataBuilder, UploadDriver, and PlaylistCache into the per-file state
// machine described in spec.md §4.7.
type Orchestrator struct {
	cfg       Config
	store     *history.Store
	driver    *upload.Driver
	meta      *metadata.Builder
	playlists *playlist.Cache
	progress  ProgressSink
	logger    *slog.Logger

	stopped atomic.Bool
}

// New constructs an Orchestrator. progress may be nil, in which case a
// NoopProgressSink is used.
func New(cfg Config, store *history.Store, driver *upload.Driver, meta *metadata.Builder, playlists *playlist.Cache, progress ProgressSink, logger *slog.Logger) *Orchestrator {
	if progress == nil {
		progress = NoopProgressSink{}
	}

	return &Orchestrator{
		cfg: cfg, store: store, driver: driver, meta: meta,
		playlists: playlists, progress: progress, logger: logger,
	}
}

// ordinal is a file's stable (index, total) within its folder.
type ordinal struct {
	index int
	total int
}

// precomputeOrdinals groups files by parent directory and assigns each a
// stable 1-based index within that directory's name-sorted file list, per
// spec.md §4.7/§5 ("per-folder ordinals are computed once, before any
// worker runs, from a name-sorted view of each folder").
func precomputeOrdinals(files []string) map[string]ordinal {
	byFolder := make(map[string][]string)

	for _, f := range files {
		folder := filepath.Dir(f)
		byFolder[folder] = append(byFolder[folder], f)
	}

	result := make(map[string]ordinal, len(files))

	for _, group := range byFolder {
		sorted := append([]string(nil), group...)
		sort.Slice(sorted, func(i, j int) bool {
			return filepath.Base(sorted[i]) < filepath.Base(sorted[j])
		})

		total := len(sorted)
		for i, f := range sorted {
			result[f] = ordinal{index: i + 1, total: total}
		}
	}

	return result
}

// Run processes files under the configured worker pool, stopping early if
// the cooperative stop signal latches. The stop signal persists across
// Run calls on the same Orchestrator: once halted, a fresh Orchestrator
// must be constructed to try again.
func (o *Orchestrator) Run(ctx context.Context, files []string) (Result, error) {
	if o.stopped.Load() {
		return Result{Halted: true}, nil
	}

	verdict, err := quota.Estimate(ctx, o.store, o.cfg.DailyQuotaLimit, len(files), time.Now())
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: quota check: %w", err)
	}

	if verdict.Status == quota.StatusHalt {
		o.logger.Warn("daily quota exhausted, halting before dispatch", "used_today", verdict.UsedToday)

		return Result{Halted: true}, nil
	}

	if verdict.Status == quota.StatusWarn {
		o.logger.Warn("daily quota insufficient for full batch",
			"max_processable", verdict.MaxProcessable, "batch_size", len(files))
	}

	ordinals := precomputeOrdinals(files)

	workers := o.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	sem := semaphore.NewWeighted(int64(workers))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result Result
	)

	for _, path := range files {
		if o.stopped.Load() {
			break
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		if o.stopped.Load() {
			sem.Release(1)

			continue
		}

		wg.Add(1)

		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					o.logger.Error("worker panic recovered", "path", path, "panic", r)
					o.recordFailureWithSize(ctx, path, "", 0, fmt.Sprintf("panic: %v", r))
				}
			}()

			ord := ordinals[path]
			outcome := o.processFile(ctx, path, ord.index, ord.total)

			mu.Lock()
			defer mu.Unlock()

			switch outcome {
			case OutcomePublished, OutcomePreviewed:
				result.Published++
			case OutcomeDuplicate:
				result.Duplicates++
			case OutcomeHashFailed, OutcomeUploadFailed:
				result.Failed++
			}
		}(path)
	}

	wg.Wait()

	result.Halted = o.stopped.Load()

	return result, nil
}

// processFile runs one file through the state machine in spec.md §4.7 and
// returns its terminal outcome. Every reachable error is recorded in
// HistoryStore or logged; processFile never returns an error to the
// caller, matching the Orchestrator's "never propagate a per-file
// exception out of the pool" contract.
func (o *Orchestrator) processFile(ctx context.Context, path string, index, total int) Outcome {
	o.progress.FileStarted(path)

	alreadyUploaded, err := o.store.IsUploadedByPath(ctx, path)
	if err != nil {
		o.logger.Error("history lookup by path failed", "path", path, "error", err)
	} else if alreadyUploaded {
		o.progress.FileDone(path, OutcomeDuplicate, nil)

		return OutcomeDuplicate
	}

	fileHash, err := hasher.Hash(path)
	if err != nil {
		o.recordFailure(ctx, path, "", err)
		o.progress.FileDone(path, OutcomeHashFailed, err)

		return OutcomeHashFailed
	}

	uploaded, err := o.store.IsUploaded(ctx, fileHash)
	if err != nil {
		o.logger.Error("history lookup by hash failed", "hash", fileHash, "error", err)
	} else if uploaded {
		o.progress.FileDone(path, OutcomeDuplicate, nil)

		return OutcomeDuplicate
	}

	rec := o.meta.Generate(path, index, total)

	if o.cfg.DryRun {
		o.progress.Preview(path, rec)

		return OutcomePreviewed
	}

	info, statErr := os.Stat(path)

	var fileSize int64
	if statErr == nil {
		fileSize = info.Size()
	}

	videoID, err := o.driver.UploadVideo(ctx, path, rec, o.cfg.ChunkSize, func(sent, total int64) {
		o.progress.FileProgress(path, sent, total)
	})
	if err != nil {
		o.handleUploadFailure(ctx, path, fileHash, rec, fileSize, err)
		o.progress.FileDone(path, OutcomeUploadFailed, err)

		return OutcomeUploadFailed
	}

	folderName := filepath.Base(filepath.Dir(path))

	metadataJSON := encodeMetadataJSON(rec)

	if err := o.store.UpsertSuccess(ctx, history.UploadRecord{
		FileHash:     fileHash,
		FilePath:     path,
		VideoID:      videoID,
		MetadataJSON: metadataJSON,
		Timestamp:    time.Now().Unix(),
		PlaylistName: folderName,
		FileSize:     fileSize,
	}); err != nil {
		o.logger.Error("failed to commit success history row", "path", path, "error", err)
	}

	o.postProcess(ctx, path, videoID, folderName)

	o.progress.FileDone(path, OutcomePublished, nil)

	return OutcomePublished
}

// handleUploadFailure classifies the failure: a terminal quota/limit
// classification latches the stop signal and does not retry further;
// anything else is recorded as an ordinary failure row.
func (o *Orchestrator) handleUploadFailure(ctx context.Context, path, fileHash string, rec metadata.Record, fileSize int64, err error) {
	message := err.Error()

	switch {
	case errorIsQuotaExceeded(err):
		message = "Quota Exceeded"
		o.stopped.Store(true)
	case errorIsUploadLimitExceeded(err):
		message = "Account Upload Limit Exceeded"
		o.stopped.Store(true)
	}

	o.recordFailureWithSize(ctx, path, fileHash, fileSize, message)
}

func (o *Orchestrator) recordFailure(ctx context.Context, path, fileHash string, err error) {
	o.recordFailureWithSize(ctx, path, fileHash, 0, err.Error())
}

func (o *Orchestrator) recordFailureWithSize(ctx context.Context, path, fileHash string, fileSize int64, message string) {
	if fileHash == "" {
		fileHash = path
	}

	if err := o.store.UpsertFailure(ctx, history.UploadRecord{
		FileHash:     fileHash,
		FilePath:     path,
		MetadataJSON: "{}",
		Timestamp:    time.Now().Unix(),
		Error:        message,
		FileSize:     fileSize,
	}); err != nil {
		o.logger.Error("failed to commit failure history row", "path", path, "error", err)
	}
}

// postProcess runs steps (b) and (c) of spec.md §4.7: playlist attach and
// thumbnail upload. Both are best-effort; failures are aggregated via
// multierr and logged, never marking the file as failed (the success row
// was already committed before this runs, per testable-property 6).
func (o *Orchestrator) postProcess(ctx context.Context, path, videoID, playlistName string) {
	var errs error

	playlistID, err := o.playlists.GetOrCreate(ctx, playlistName, o.cfg.PrivacyStatus)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("resolve playlist %q: %w", playlistName, err))
	} else if err := o.playlists.Attach(ctx, playlistID, videoID); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("attach to playlist %q: %w", playlistName, err))
	}

	thumbnailPath := findSiblingThumbnail(path)
	if thumbnailPath != "" {
		if err := o.driver.UploadThumbnail(ctx, "", videoID, thumbnailPath); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("upload thumbnail %q: %w", thumbnailPath, err))
		}
	}

	if errs != nil {
		o.logger.Warn("post-processing had best-effort failures", "path", path, "video_id", videoID, "error", errs)
	}
}

func encodeMetadataJSON(rec metadata.Record) string {
	b, err := json.Marshal(rec)
	if err != nil {
		return "{}"
	}

	return string(b)
}

func errorIsQuotaExceeded(err error) bool {
	return errors.Is(err, upload.ErrQuotaExceeded)
}

func errorIsUploadLimitExceeded(err error) bool {
	return errors.Is(err, upload.ErrUploadLimitExceeded)
}

func findSiblingThumbnail(videoPath string) string {
	dir := filepath.Dir(videoPath)
	name := filepath.Base(videoPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	for _, ext := range []string{".jpg", ".jpeg", ".png"} {
		candidate := filepath.Join(dir, stem+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

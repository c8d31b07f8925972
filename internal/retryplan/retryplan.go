// Package retryplan selects failed uploads from HistoryStore and groups
// them into independent batches for the Orchestrator to retry.
package retryplan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ysakae/vidup/internal/history"
	"github.com/ysakae/vidup/internal/orchestrator"
)

// PlanOptions filters the failed rows a Plan call considers.
type PlanOptions struct {
	// Since, if non-zero, excludes rows with a timestamp older than this
	// unix-seconds cutoff.
	Since int64
	// ErrorContains, if non-empty, keeps only rows whose Error field
	// contains this substring.
	ErrorContains string
	// Limit, if > 0, caps the number of rows considered (applied after
	// filtering, before grouping).
	Limit int
}

// Batch is one independent group of files to retry, keyed by the
// playlist those uploads would have attached to.
type Batch struct {
	PlaylistName string
	Files        []string
}

// PlanResult is the outcome of a Plan call.
type PlanResult struct {
	Batches      []Batch
	MissingFiles []string
}

// Plan selects status=failed rows per opts, pre-filters out rows whose
// file no longer exists on disk (logging each as skipped, grounded on
// commands/retry.py's file-existence pre-filter), and groups the
// survivors by playlist_name, falling back to the parent directory's
// base name when playlist_name is empty.
func Plan(ctx context.Context, store *history.Store, opts PlanOptions, logger *slog.Logger) (PlanResult, error) {
	failed, err := store.GetFailed(ctx)
	if err != nil {
		return PlanResult{}, fmt.Errorf("retryplan: load failed rows: %w", err)
	}

	var filtered []history.UploadRecord

	for _, rec := range failed {
		if opts.Since != 0 && rec.Timestamp < opts.Since {
			continue
		}

		if opts.ErrorContains != "" && !strings.Contains(rec.Error, opts.ErrorContains) {
			continue
		}

		filtered = append(filtered, rec)
	}

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}

	grouped := make(map[string][]string)

	var (
		order   []string
		missing []string
	)

	for _, rec := range filtered {
		if _, err := os.Stat(rec.FilePath); err != nil {
			logger.Warn("retry candidate file no longer exists, skipping", "path", rec.FilePath, "file_hash", rec.FileHash)
			missing = append(missing, rec.FilePath)

			continue
		}

		playlistName := rec.PlaylistName
		if playlistName == "" {
			playlistName = filepath.Base(filepath.Dir(rec.FilePath))
		}

		if _, seen := grouped[playlistName]; !seen {
			order = append(order, playlistName)
		}

		grouped[playlistName] = append(grouped[playlistName], rec.FilePath)
	}

	sort.Strings(order)

	var batches []Batch
	for _, name := range order {
		batches = append(batches, Batch{PlaylistName: name, Files: grouped[name]})
	}

	return PlanResult{Batches: batches, MissingFiles: missing}, nil
}

// RunBatches feeds each batch to orch in order, skipping all subsequent
// batches once one reports the stop signal latched during its run
// (spec.md §4.9: "if the Orchestrator reports the stop signal was
// latched during a batch, subsequent groups are skipped").
func RunBatches(ctx context.Context, orch *orchestrator.Orchestrator, batches []Batch) (results []orchestrator.Result, halted bool, err error) {
	for _, batch := range batches {
		result, runErr := orch.Run(ctx, batch.Files)
		if runErr != nil {
			return results, halted, fmt.Errorf("retryplan: run batch %q: %w", batch.PlaylistName, runErr)
		}

		results = append(results, result)

		if result.Halted {
			return results, true, nil
		}
	}

	return results, false, nil
}

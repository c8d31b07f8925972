package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ysakae/vidup/internal/orchestrator"
	"github.com/ysakae/vidup/internal/retryplan"
)

// parseTimestamp parses an RFC3339 timestamp into unix seconds.
func parseTimestamp(s string) (int64, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, err
	}

	return t.Unix(), nil
}

func newRetryCmd() *cobra.Command {
	var (
		since         string
		errorContains string
		limit         int
		dryRun        bool
	)

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Re-attempt previously failed uploads",
		Long:  "Groups failed history rows into per-playlist batches and replays each through the orchestrator, stopping at the first batch that reports the daily quota halted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRetry(cmd, since, errorContains, limit, dryRun)
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "only consider failures at or after this RFC3339 timestamp")
	cmd.Flags().StringVar(&errorContains, "error-contains", "", "only consider failures whose error message contains this substring")
	cmd.Flags().IntVar(&limit, "limit", 0, "cap the number of failed rows considered (0 for no limit)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the batches that would be retried without uploading")

	return cmd
}

func runRetry(cmd *cobra.Command, since, errorContains string, limit int, dryRunOnly bool) error {
	cc := mustCLIContext(cmd.Context())

	opts := retryplan.PlanOptions{ErrorContains: errorContains, Limit: limit}

	if since != "" {
		t, err := parseTimestamp(since)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		opts.Since = t
	}

	store, err := openHistoryStore(cmd.Context(), cc)
	if err != nil {
		return err
	}
	defer store.Close()

	plan, err := retryplan.Plan(cmd.Context(), store, opts, cc.Logger)
	if err != nil {
		return fmt.Errorf("planning retry: %w", err)
	}

	if len(plan.MissingFiles) > 0 {
		cc.Statusf("skipping %d failed rows whose source file no longer exists\n", len(plan.MissingFiles))
	}

	if len(plan.Batches) == 0 {
		cc.Statusf("nothing to retry\n")
		return nil
	}

	if dryRunOnly {
		for _, batch := range plan.Batches {
			fmt.Printf("%s: %d file(s)\n", batch.PlaylistName, len(batch.Files))
		}

		return nil
	}

	deps, err := buildCoreDeps(cmd.Context(), cc)
	if err != nil {
		return err
	}
	defer deps.store.Close()

	ocfg := orchestrator.Config{
		ChunkSize:       cc.Cfg.Upload.ChunkSize,
		RetryCount:      cc.Cfg.Upload.RetryCount,
		PrivacyStatus:   cc.Cfg.Upload.PrivacyStatus,
		DailyQuotaLimit: cc.Cfg.Upload.DailyQuotaLimit,
		Workers:         cc.Cfg.Upload.Workers,
	}

	sink := &cliProgressSink{cc: cc}
	orch := orchestrator.New(ocfg, deps.store, deps.driver, deps.meta, deps.playlists, sink, cc.Logger)

	ctx := shutdownContext(cmd.Context(), cc.Logger)

	results, halted, err := retryplan.RunBatches(ctx, orch, plan.Batches)
	if err != nil {
		return fmt.Errorf("running retry batches: %w", err)
	}

	var published, duplicates, failed int

	for _, r := range results {
		published += r.Published
		duplicates += r.Duplicates
		failed += r.Failed
	}

	cc.Statusf("\npublished=%d duplicates=%d failed=%d\n", published, duplicates, failed)

	if halted {
		fmt.Fprintln(os.Stderr, "halted: daily quota exhausted before all batches were retried")
	}

	return nil
}

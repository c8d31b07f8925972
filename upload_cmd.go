package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ysakae/vidup/internal/metadata"
	"github.com/ysakae/vidup/internal/orchestrator"
	"github.com/ysakae/vidup/internal/scanner"
)

// cliProgressSink renders orchestrator progress to stderr through
// CLIContext.Statusf, so --quiet suppresses it. It ignores --json: Preview
// always prints plain text to stdout.
type cliProgressSink struct {
	cc *CLIContext
}

func (s *cliProgressSink) FileStarted(path string) {
	s.cc.Statusf("uploading %s\n", path)
}

func (s *cliProgressSink) FileProgress(path string, sent, total int64) {
	if total <= 0 {
		return
	}

	s.cc.Statusf("  %s: %s / %s\n", path, formatSize(sent), formatSize(total))
}

func (s *cliProgressSink) FileDone(path string, outcome orchestrator.Outcome, err error) {
	if err != nil {
		s.cc.Statusf("  %s: %s (%v)\n", path, outcome, err)
		return
	}

	s.cc.Statusf("  %s: %s\n", path, outcome)
}

func (s *cliProgressSink) Preview(path string, rec metadata.Record) {
	fmt.Printf("%s\n  title: %s\n  description: %s\n  tags: %v\n", path, rec.Title, rec.Description, rec.Tags)
}

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <path> [path...]",
		Short: "Walk directories and upload new videos to YouTube",
		Long:  "Scans the given paths for video files, skips anything already recorded in upload history, and uploads the rest via resumable chunked transfer, halting cooperatively if the account's daily quota is exhausted.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runUpload,
	}

	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())

	var files []string

	for _, root := range args {
		found, err := scanner.Scan(root)
		if err != nil {
			return fmt.Errorf("scanning %q: %w", root, err)
		}

		files = append(files, found...)
	}

	if len(files) == 0 {
		cc.Statusf("no video files found\n")
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
		DryRun:          cc.DryRun,
	}

	sink := &cliProgressSink{cc: cc}
	orch := orchestrator.New(ocfg, deps.store, deps.driver, deps.meta, deps.playlists, sink, cc.Logger)

	ctx := shutdownContext(cmd.Context(), cc.Logger)

	result, err := orch.Run(ctx, files)
	if err != nil {
		return fmt.Errorf("running upload batch: %w", err)
	}

	cc.Statusf("\npublished=%d duplicates=%d failed=%d\n", result.Published, result.Duplicates, result.Failed)

	if result.Halted {
		fmt.Fprintln(os.Stderr, "halted: daily quota exhausted before the batch completed; re-run later to resume")
	}

	return nil
}

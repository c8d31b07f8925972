package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ysakae/vidup/internal/quota"
	"github.com/ysakae/vidup/internal/scanner"
)

func newQuotaCmd() *cobra.Command {
	var batchPath string

	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Estimate today's remaining upload quota",
		Long:  "Reports how many of today's 10,000 YouTube Data API units remain and how many more videos.insert calls that allows, optionally sized against a pending batch of files.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			store, err := openHistoryStore(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer store.Close()

			batchSize := 1

			if batchPath != "" {
				files, err := scanner.Scan(batchPath)
				if err != nil {
					return fmt.Errorf("scanning %q: %w", batchPath, err)
				}

				batchSize = len(files)
			}

			verdict, err := quota.Estimate(cmd.Context(), store, cc.Cfg.Upload.DailyQuotaLimit, batchSize, time.Now())
			if err != nil {
				return fmt.Errorf("estimating quota: %w", err)
			}

			if cc.JSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")

				return enc.Encode(verdict)
			}

			fmt.Printf("status=%s used_today=%d remaining=%d max_processable=%d\n",
				verdict.Status, verdict.UsedToday, verdict.Remaining, verdict.MaxProcessable)

			return nil
		},
	}

	cmd.Flags().StringVar(&batchPath, "batch", "", "size the estimate against the video files found under this path")

	return cmd
}

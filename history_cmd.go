package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ysakae/vidup/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage the local upload history store",
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryFailedCmd())
	cmd.AddCommand(newHistoryDeleteCmd())
	cmd.AddCommand(newHistoryExportCmd())
	cmd.AddCommand(newHistoryImportCmd())

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded upload history, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			store, err := openHistoryStore(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.GetAll(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("listing history: %w", err)
			}

			return printRecords(cc, recs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to show (0 for no limit)")

	return cmd
}

func newHistoryFailedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "failed",
		Short: "List uploads recorded as failed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			store, err := openHistoryStore(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.GetFailed(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing failed uploads: %w", err)
			}

			return printRecords(cc, recs)
		},
	}
}

func newHistoryDeleteCmd() *cobra.Command {
	var byHash, byPath, byVideoID string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a history record by hash, path, or video ID",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			store, err := openHistoryStore(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer store.Close()

			var deleted bool

			switch {
			case byHash != "":
				deleted, err = store.DeleteByHash(cmd.Context(), byHash)
			case byPath != "":
				deleted, err = store.DeleteByPath(cmd.Context(), byPath)
			case byVideoID != "":
				deleted, err = store.DeleteByVideoID(cmd.Context(), byVideoID)
			default:
				return fmt.Errorf("one of --hash, --path, or --video-id is required")
			}

			if err != nil {
				return fmt.Errorf("deleting history record: %w", err)
			}

			if !deleted {
				return fmt.Errorf("no matching history record found")
			}

			cc.Statusf("deleted\n")

			return nil
		},
	}

	cmd.Flags().StringVar(&byHash, "hash", "", "file content hash")
	cmd.Flags().StringVar(&byPath, "path", "", "file path")
	cmd.Flags().StringVar(&byVideoID, "video-id", "", "YouTube video ID")

	return cmd
}

func newHistoryExportCmd() *cobra.Command {
	var format, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full history store as JSON or CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			store, err := openHistoryStore(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer store.Close()

			var ef history.ExportFormat

			switch format {
			case "json":
				ef = history.ExportJSON
			case "csv":
				ef = history.ExportCSV
			default:
				return fmt.Errorf("unknown export format %q (want json or csv)", format)
			}

			w := os.Stdout

			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating %q: %w", outPath, err)
				}
				defer f.Close()

				w = f
			}

			if err := store.Export(cmd.Context(), ef, w); err != nil {
				return fmt.Errorf("exporting history: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "export format: json or csv")
	cmd.Flags().StringVar(&outPath, "output", "", "output file path (default: stdout)")

	return cmd
}

func newHistoryImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import previously exported JSON history records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %q: %w", args[0], err)
			}

			var recs []history.UploadRecord
			if err := json.Unmarshal(data, &recs); err != nil {
				return fmt.Errorf("parsing %q: %w", args[0], err)
			}

			store, err := openHistoryStore(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer store.Close()

			imported, skipped, err := store.Import(cmd.Context(), recs)
			if err != nil {
				return fmt.Errorf("importing history: %w", err)
			}

			cc.Statusf("imported=%d skipped=%d\n", imported, skipped)

			return nil
		},
	}

	return cmd
}

func printRecords(cc *CLIContext, recs []history.UploadRecord) error {
	if cc.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(recs)
	}

	headers := []string{"TIMESTAMP", "STATUS", "VIDEO ID", "SIZE", "PATH"}
	rows := make([][]string, 0, len(recs))

	for _, rec := range recs {
		rows = append(rows, []string{
			formatTime(time.Unix(rec.Timestamp, 0)),
			rec.Status,
			rec.VideoID,
			formatSize(rec.FileSize),
			rec.FilePath,
		})
	}

	printTable(os.Stdout, headers, rows)

	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ysakae/vidup/internal/comparer"
)

func newSyncCmd() *cobra.Command {
	var (
		uploadsPlaylistID string
		fix               bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Compare the remote uploads playlist against local history",
		Long:  "Diffs the account's uploads playlist against upload history, reporting videos in sync, present remotely but unrecorded locally, and present locally but no longer found on the remote.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, uploadsPlaylistID, fix)
		},
	}

	cmd.Flags().StringVar(&uploadsPlaylistID, "uploads-playlist-id", "", "the account's uploads playlist ID (default: resolved by title \"Uploads\")")
	cmd.Flags().BoolVar(&fix, "fix", false, "delete local history rows for videos no longer found on the remote")

	return cmd
}

func runSync(cmd *cobra.Command, uploadsPlaylistID string, fix bool) error {
	cc := mustCLIContext(cmd.Context())

	deps, err := buildCoreDeps(cmd.Context(), cc)
	if err != nil {
		return err
	}
	defer deps.store.Close()

	if uploadsPlaylistID == "" {
		id, found, err := deps.playlists.FindByName(cmd.Context(), "Uploads")
		if err != nil {
			return fmt.Errorf("resolving uploads playlist: %w", err)
		}

		if !found {
			return fmt.Errorf("could not find a playlist titled \"Uploads\"; pass --uploads-playlist-id explicitly")
		}

		uploadsPlaylistID = id
	}

	cmp := comparer.New(deps.playlists, deps.store, uploadsPlaylistID)

	result, err := cmp.Compare(cmd.Context())
	if err != nil {
		return fmt.Errorf("comparing: %w", err)
	}

	if cc.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		fmt.Printf("in_sync=%d missing_local=%d missing_remote=%d\n",
			len(result.InSync), len(result.MissingLocal), len(result.MissingRemote))
	}

	if fix && len(result.MissingRemote) > 0 {
		deleted, failed := cmp.FixMissingRemote(cmd.Context(), result.MissingRemote)
		cc.Statusf("fixed: deleted=%d failed=%d\n", deleted, failed)
	}

	return nil
}

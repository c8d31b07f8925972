package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlaylistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playlist",
		Short: "Manage playlist attachment for uploaded videos",
	}

	cmd.AddCommand(newPlaylistRenameCmd())
	cmd.AddCommand(newPlaylistAttachCmd())
	cmd.AddCommand(newPlaylistDetachCmd())

	return cmd
}

func newPlaylistRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old-title-or-id> <new-title>",
		Short: "Rename a playlist by title or ID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			deps, err := buildCoreDeps(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer deps.store.Close()

			if err := deps.playlists.Rename(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("renaming playlist: %w", err)
			}

			cc.Statusf("renamed %q to %q\n", args[0], args[1])

			return nil
		},
	}
}

func newPlaylistAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <playlist-title> <video-id>",
		Short: "Attach a video to a playlist, creating it if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			deps, err := buildCoreDeps(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer deps.store.Close()

			playlistID, err := deps.playlists.GetOrCreate(cmd.Context(), args[0], cc.Cfg.Upload.PrivacyStatus)
			if err != nil {
				return fmt.Errorf("resolving playlist: %w", err)
			}

			if err := deps.playlists.Attach(cmd.Context(), playlistID, args[1]); err != nil {
				return fmt.Errorf("attaching video: %w", err)
			}

			cc.Statusf("attached %s to %q\n", args[1], args[0])

			return nil
		},
	}
}

func newPlaylistDetachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detach <playlist-title-or-id> <video-id>",
		Short: "Detach a video from a playlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			deps, err := buildCoreDeps(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer deps.store.Close()

			playlistID := args[0]

			if id, found, err := deps.playlists.FindByName(cmd.Context(), args[0]); err == nil && found {
				playlistID = id
			}

			if err := deps.playlists.Detach(cmd.Context(), playlistID, args[1]); err != nil {
				return fmt.Errorf("detaching video: %w", err)
			}

			cc.Statusf("detached %s from %q\n", args[1], args[0])

			return nil
		},
	}
}

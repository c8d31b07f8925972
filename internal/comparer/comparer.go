// Package comparer implements the three-way partition between a remote
// account's uploaded-videos playlist and the local HistoryStore, used by
// the sync command to find drift in either direction.
package comparer

import (
	"context"
	"fmt"

	"github.com/ysakae/vidup/internal/history"
	"github.com/ysakae/vidup/internal/playlist"
)

// Result is the three-way partition between the remote "uploads" playlist
// and HistoryStore's successful rows. The sets are pairwise disjoint and
// their union is exactly remoteIDs ∪ localIDs (testable-property 8).
type Result struct {
	InSync        []string
	MissingLocal  []string
	MissingRemote []string
}

// Comparer diffs a remote uploads playlist against HistoryStore.
type Comparer struct {
	playlists         *playlist.Cache
	store             *history.Store
	uploadsPlaylistID string
}

// New constructs a Comparer for the account's uploadsPlaylistID (the
// platform-assigned playlist that contains every video the account has
// ever uploaded).
func New(playlists *playlist.Cache, store *history.Store, uploadsPlaylistID string) *Comparer {
	return &Comparer{playlists: playlists, store: store, uploadsPlaylistID: uploadsPlaylistID}
}

// Compare fetches the remote uploads playlist exhaustively and diffs its
// video ids against every `status = success` video_id in HistoryStore.
func (c *Comparer) Compare(ctx context.Context) (Result, error) {
	remoteIDs, err := c.playlists.ListVideoIDs(ctx, c.uploadsPlaylistID)
	if err != nil {
		return Result{}, fmt.Errorf("comparer: list remote uploads: %w", err)
	}

	records, err := c.store.GetAll(ctx, 0)
	if err != nil {
		return Result{}, fmt.Errorf("comparer: load history: %w", err)
	}

	localSet := make(map[string]bool)

	for _, rec := range records {
		if rec.Status == history.StatusSuccess && rec.VideoID != "" {
			localSet[rec.VideoID] = true
		}
	}

	remoteSet := make(map[string]bool, len(remoteIDs))
	for _, id := range remoteIDs {
		remoteSet[id] = true
	}

	var result Result

	for id := range remoteSet {
		if localSet[id] {
			result.InSync = append(result.InSync, id)
		} else {
			result.MissingLocal = append(result.MissingLocal, id)
		}
	}

	for id := range localSet {
		if !remoteSet[id] {
			result.MissingRemote = append(result.MissingRemote, id)
		}
	}

	return result, nil
}

// FixMissingRemote deletes the local HistoryStore rows for every video id
// in missingRemote (ids the local store believes are published but the
// remote no longer recognizes), via delete-by-video-id. Deletion is
// best-effort per id: one failure doesn't stop the rest.
func (c *Comparer) FixMissingRemote(ctx context.Context, missingRemote []string) (deleted int, failed int) {
	for _, id := range missingRemote {
		ok, err := c.store.DeleteByVideoID(ctx, id)
		if err != nil || !ok {
			failed++

			continue
		}

		deleted++
	}

	return deleted, failed
}

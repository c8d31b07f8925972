// Package playlist implements the lazily-populated, paginated
// title->id playlist cache used to attach uploads to playlists without
// re-listing the account's playlists on every call.
package playlist

import (
	"context"
	"fmt"
	"sync"

	"github.com/ysakae/vidup/internal/videoapi"
)

// pageSize matches spec.md §4.5's literal pagination size.
const pageSize = 50

// Cache is a single-account title->id playlist map, populated lazily and
// fully on first touch. Safe for concurrent use.
type Cache struct {
	driver videoapi.PlaylistDriver
	creds  videoapi.Credentials

	mu          sync.Mutex
	byTitle     map[string]string
	initialized bool
}

// NewCache constructs a Cache over the given remote driver and
// credentials.
func NewCache(driver videoapi.PlaylistDriver, creds videoapi.Credentials) *Cache {
	return &Cache{driver: driver, creds: creds, byTitle: make(map[string]string)}
}

// ensureInitialized pages through every playlist on the account exactly
// once, populating byTitle. Must be called with mu held.
func (c *Cache) ensureInitialized(ctx context.Context) error {
	if c.initialized {
		return nil
	}

	pageToken := ""

	for {
		items, next, err := c.driver.ListPlaylists(ctx, c.creds, pageToken, pageSize)
		if err != nil {
			return fmt.Errorf("playlist: list playlists: %w", err)
		}

		for _, item := range items {
			c.byTitle[item.Title] = item.ID
		}

		if next == "" {
			break
		}

		pageToken = next
	}

	c.initialized = true

	return nil
}

// FindByName returns the cached id for title, if any, without creating a
// playlist. Read-only: the Open Question on spec.md §9 ("should a lookup
// method exist that never creates") is resolved by making FindByName that
// method; GetOrCreate remains the only path that creates.
func (c *Cache) FindByName(ctx context.Context, title string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureInitialized(ctx); err != nil {
		return "", false, err
	}

	id, ok := c.byTitle[title]

	return id, ok, nil
}

// GetOrCreate returns the cached id for title, creating a new playlist
// with the given default privacy if none exists. A collision with a
// concurrent creation of the same title reconciles on the next call: the
// loser's playlist becomes an orphan (spec.md §4.5's documented worst
// case), never an error.
func (c *Cache) GetOrCreate(ctx context.Context, title, privacyDefault string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureInitialized(ctx); err != nil {
		return "", err
	}

	if id, ok := c.byTitle[title]; ok {
		return id, nil
	}

	id, err := c.driver.CreatePlaylist(ctx, c.creds, title, privacyDefault)
	if err != nil {
		return "", fmt.Errorf("playlist: create %q: %w", title, err)
	}

	c.byTitle[title] = id

	return id, nil
}

// Attach inserts videoID into playlistID. Any error from the driver is
// returned wrapped; a duplicate-attach response is not told apart from
// other errors and is not treated as success here.
func (c *Cache) Attach(ctx context.Context, playlistID, videoID string) error {
	if err := c.driver.AttachVideo(ctx, c.creds, playlistID, videoID); err != nil {
		return fmt.Errorf("playlist: attach video %q to %q: %w", videoID, playlistID, err)
	}

	return nil
}

// Detach removes videoID from playlistID. The remote doesn't support
// removal by video id directly, so this first looks up the playlist-item
// id for that video.
func (c *Cache) Detach(ctx context.Context, playlistID, videoID string) error {
	itemID, found, err := c.driver.FindPlaylistItem(ctx, c.creds, playlistID, videoID)
	if err != nil {
		return fmt.Errorf("playlist: find item for video %q in %q: %w", videoID, playlistID, err)
	}

	if !found {
		return nil
	}

	if err := c.driver.DetachItem(ctx, c.creds, itemID); err != nil {
		return fmt.Errorf("playlist: detach item %q: %w", itemID, err)
	}

	return nil
}

// Rename fetches the current snippet for oldTitleOrID (resolving a title
// to an id via the cache first, falling back to treating the argument as
// a raw id), replaces the title, updates the remote, and rewrites the
// cache entry.
func (c *Cache) Rename(ctx context.Context, oldTitleOrID, newTitle string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureInitialized(ctx); err != nil {
		return err
	}

	id, ok := c.byTitle[oldTitleOrID]
	if !ok {
		id = oldTitleOrID
	}

	if _, err := c.driver.GetSnippet(ctx, c.creds, id); err != nil {
		return fmt.Errorf("playlist: get snippet %q: %w", id, err)
	}

	if err := c.driver.UpdateTitle(ctx, c.creds, id, newTitle); err != nil {
		return fmt.Errorf("playlist: update title %q: %w", id, err)
	}

	for title, pid := range c.byTitle {
		if pid == id {
			delete(c.byTitle, title)
		}
	}

	c.byTitle[newTitle] = id

	return nil
}

// ListVideoIDs returns every video id currently in playlistID, used by the
// SyncComparer to compare remote state against local history.
func (c *Cache) ListVideoIDs(ctx context.Context, playlistID string) ([]string, error) {
	ids, err := c.driver.ListPlaylistVideoIDs(ctx, c.creds, playlistID)
	if err != nil {
		return nil, fmt.Errorf("playlist: list video ids for %q: %w", playlistID, err)
	}

	return ids, nil
}

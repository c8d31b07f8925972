// Package videoapi defines the capability boundary between the in-scope
// upload/playlist orchestration logic and the out-of-scope remote video
// platform: OAuth token acquisition, HTTP transport, and wire-format
// details all live behind these interfaces and are supplied by a caller at
// the composition root.
package videoapi

import (
	"context"

	"github.com/ysakae/vidup/internal/metadata"
)

// Credentials is an opaque handle for whatever credential type an
// UploadDriver implementation needs (an OAuth2 token source, an API key,
// etc). It carries no behavior here; it exists so the core packages can
// accept and pass along credentials without depending on how they were
// obtained. Left as an empty interface rather than a marker method so any
// out-of-package type can satisfy it without importing this package.
type Credentials interface{}

// ChunkResult reports progress after a single NextChunk call. VideoID is
// populated only on the call that completes the upload.
type ChunkResult struct {
	BytesSent  int64
	TotalBytes int64
	VideoID    string
}

// UploadSession is one resumable upload in progress. Each call to
// NextChunk sends the next fixed-size slice of the file.
type UploadSession interface {
	NextChunk(ctx context.Context) (ChunkResult, error)
}

// UploadDriver opens resumable upload sessions and attaches thumbnails.
// Implementations own all remote HTTP/auth mechanics; callers only see
// session progress and terminal errors.
type UploadDriver interface {
	OpenSession(ctx context.Context, creds Credentials, path string, meta metadata.Record, chunkSize int64) (UploadSession, error)
	UploadThumbnail(ctx context.Context, creds Credentials, videoID, thumbnailPath string) error
}

// RemotePlaylist is one playlist as returned by ListPlaylists.
type RemotePlaylist struct {
	ID    string
	Title string
}

// PlaylistDriver performs remote playlist operations. Implementations own
// all remote HTTP/auth mechanics.
type PlaylistDriver interface {
	ListPlaylists(ctx context.Context, creds Credentials, pageToken string, pageSize int) (items []RemotePlaylist, nextPageToken string, err error)
	CreatePlaylist(ctx context.Context, creds Credentials, title, privacy string) (id string, err error)
	AttachVideo(ctx context.Context, creds Credentials, playlistID, videoID string) error
	FindPlaylistItem(ctx context.Context, creds Credentials, playlistID, videoID string) (itemID string, found bool, err error)
	DetachItem(ctx context.Context, creds Credentials, itemID string) error
	GetSnippet(ctx context.Context, creds Credentials, playlistID string) (title string, err error)
	UpdateTitle(ctx context.Context, creds Credentials, playlistID, newTitle string) error
	ListPlaylistVideoIDs(ctx context.Context, creds Credentials, playlistID string) ([]string, error)
}

package retryplan

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysakae/vidup/internal/metadata"
	"github.com/ysakae/vidup/internal/orchestrator"
	"github.com/ysakae/vidup/internal/playlist"
	"github.com/ysakae/vidup/internal/upload"
	"github.com/ysakae/vidup/internal/videoapi"
)

type fakeCreds struct{}

func (fakeCreds) credentialsMarker() {}

type fakeSession struct{ videoID string }

func (s *fakeSession) NextChunk(ctx context.Context) (videoapi.ChunkResult, error) {
	return videoapi.ChunkResult{BytesSent: 1, TotalBytes: 1, VideoID: s.videoID}, nil
}

// haltingUploadDriver fails every path in haltOn with a quota-exceeded
// classification and succeeds trivially otherwise.
type haltingUploadDriver struct {
	haltOn map[string]bool
}

func (d *haltingUploadDriver) OpenSession(ctx context.Context, creds videoapi.Credentials, path string, meta metadata.Record, chunkSize int64) (videoapi.UploadSession, error) {
	if d.haltOn[path] {
		return nil, upload.Classify(403, "quotaExceeded")
	}

	return &fakeSession{videoID: filepath.Base(path) + "-vid"}, nil
}

func (d *haltingUploadDriver) UploadThumbnail(ctx context.Context, creds videoapi.Credentials, videoID, thumbnailPath string) error {
	return nil
}

type noopPlaylistDriver struct{}

func (noopPlaylistDriver) ListPlaylists(ctx context.Context, creds videoapi.Credentials, pageToken string, pageSize int) ([]videoapi.RemotePlaylist, string, error) {
	return nil, "", nil
}

func (noopPlaylistDriver) CreatePlaylist(ctx context.Context, creds videoapi.Credentials, title, privacy string) (string, error) {
	return "pl-" + title, nil
}

func (noopPlaylistDriver) AttachVideo(ctx context.Context, creds videoapi.Credentials, playlistID, videoID string) error {
	return nil
}

func (noopPlaylistDriver) FindPlaylistItem(ctx context.Context, creds videoapi.Credentials, playlistID, videoID string) (string, bool, error) {
	return "", false, nil
}

func (noopPlaylistDriver) DetachItem(ctx context.Context, creds videoapi.Credentials, itemID string) error {
	return nil
}

func (noopPlaylistDriver) GetSnippet(ctx context.Context, creds videoapi.Credentials, playlistID string) (string, error) {
	return "", nil
}

func (noopPlaylistDriver) UpdateTitle(ctx context.Context, creds videoapi.Credentials, playlistID, newTitle string) error {
	return nil
}

func (noopPlaylistDriver) ListPlaylistVideoIDs(ctx context.Context, creds videoapi.Credentials, playlistID string) ([]string, error) {
	return nil, nil
}

func TestRunBatches_SkipsRemainingAfterHalt(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t)

	a := writeFile(t, dir, "a.mp4")
	b := writeFile(t, dir, "b.mp4")
	c := writeFile(t, dir, "c.mp4")

	uploadDriver := &haltingUploadDriver{haltOn: map[string]bool{a: true}}
	driver := upload.NewDriver(uploadDriver, fakeCreds{}, 1, testLogger())
	builder := metadata.NewBuilder("{stem}", "desc", nil, testLogger())
	playlists := playlist.NewCache(noopPlaylistDriver{}, fakeCreds{})

	orch := orchestrator.New(orchestrator.Config{Workers: 1, RetryCount: 1, PrivacyStatus: "private", DailyQuotaLimit: 10000}, store, driver, builder, playlists, nil, testLogger())

	batches := []Batch{
		{PlaylistName: "batch1", Files: []string{a}},
		{PlaylistName: "batch2", Files: []string{b, c}},
	}

	results, halted, err := RunBatches(context.Background(), orch, batches)
	require.NoError(t, err)
	assert.True(t, halted)
	assert.Len(t, results, 1)
	assert.True(t, results[0].Halted)
}

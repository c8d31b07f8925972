package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysakae/vidup/internal/history"
	"github.com/ysakae/vidup/internal/metadata"
	"github.com/ysakae/vidup/internal/playlist"
	"github.com/ysakae/vidup/internal/upload"
	"github.com/ysakae/vidup/internal/videoapi"
)

type fakeCreds struct{}

func (fakeCreds) credentialsMarker() {}

type fakeSession struct {
	mu        sync.Mutex
	errorsSeq []error
	call      int
	videoID   string
}

func (s *fakeSession) NextChunk(ctx context.Context) (videoapi.ChunkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.call < len(s.errorsSeq) {
		err := s.errorsSeq[s.call]
		s.call++

		return videoapi.ChunkResult{}, err
	}

	return videoapi.ChunkResult{BytesSent: 10, TotalBytes: 10, VideoID: s.videoID}, nil
}

type fakeUploadDriver struct {
	mu            sync.Mutex
	nextVideoID   int
	errPerPath    map[string][]error
	uploadedPaths []string
}

func (f *fakeUploadDriver) OpenSession(ctx context.Context, creds videoapi.Credentials, path string, meta metadata.Record, chunkSize int64) (videoapi.UploadSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextVideoID++
	f.uploadedPaths = append(f.uploadedPaths, path)

	return &fakeSession{
		errorsSeq: f.errPerPath[path],
		videoID:   filepath.Base(path) + "-vid",
	}, nil
}

func (f *fakeUploadDriver) UploadThumbnail(ctx context.Context, creds videoapi.Credentials, videoID, thumbnailPath string) error {
	return nil
}

type fakePlaylistDriver struct {
	mu        sync.Mutex
	playlists map[string]string
	nextID    int
	attached  []string
}

func newFakePlaylistDriver() *fakePlaylistDriver {
	return &fakePlaylistDriver{playlists: make(map[string]string)}
}

func (f *fakePlaylistDriver) ListPlaylists(ctx context.Context, creds videoapi.Credentials, pageToken string, pageSize int) ([]videoapi.RemotePlaylist, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []videoapi.RemotePlaylist
	for title, id := range f.playlists {
		items = append(items, videoapi.RemotePlaylist{ID: id, Title: title})
	}

	return items, "", nil
}

func (f *fakePlaylistDriver) CreatePlaylist(ctx context.Context, creds videoapi.Credentials, title, privacy string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := filepath.Join("pl", title)
	f.playlists[title] = id

	return id, nil
}

func (f *fakePlaylistDriver) AttachVideo(ctx context.Context, creds videoapi.Credentials, playlistID, videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attached = append(f.attached, playlistID+":"+videoID)

	return nil
}

func (f *fakePlaylistDriver) FindPlaylistItem(ctx context.Context, creds videoapi.Credentials, playlistID, videoID string) (string, bool, error) {
	return "", false, nil
}

func (f *fakePlaylistDriver) DetachItem(ctx context.Context, creds videoapi.Credentials, itemID string) error {
	return nil
}

func (f *fakePlaylistDriver) GetSnippet(ctx context.Context, creds videoapi.Credentials, playlistID string) (string, error) {
	return "", nil
}

func (f *fakePlaylistDriver) UpdateTitle(ctx context.Context, creds videoapi.Credentials, playlistID, newTitle string) error {
	return nil
}

func (f *fakePlaylistDriver) ListPlaylistVideoIDs(ctx context.Context, creds videoapi.Credentials, playlistID string) ([]string, error) {
	return nil, nil
}

type recordingSink struct {
	mu       sync.Mutex
	started  []string
	done     map[string]Outcome
	previews map[string]metadata.Record
}

func newRecordingSink() *recordingSink {
	return &recordingSink{done: make(map[string]Outcome), previews: make(map[string]metadata.Record)}
}

func (s *recordingSink) FileStarted(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = append(s.started, path)
}

func (s *recordingSink) FileProgress(path string, sent, total int64) {}

func (s *recordingSink) FileDone(path string, outcome Outcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done[path] = outcome
}

func (s *recordingSink) Preview(path string, rec metadata.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previews[path] = rec
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestFiles(t *testing.T, names ...string) (dir string, paths []string) {
	t.Helper()

	dir = t.TempDir()
	for _, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("content-"+name), 0o600))
		paths = append(paths, p)
	}

	return dir, paths
}

func newTestStore(t *testing.T) *history.Store {
	t.Helper()

	store, err := history.Open(context.Background(), filepath.Join(t.TempDir(), "h.db"), testLogger())
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, store.Close()) })

	return store
}

func TestRun_PublishesNewFiles(t *testing.T) {
	_, paths := setupTestFiles(t, "a.mp4", "b.mp4")

	store := newTestStore(t)
	uploadDriver := &fakeUploadDriver{}
	driver := upload.NewDriver(uploadDriver, fakeCreds{}, 3, testLogger())
	builder := metadata.NewBuilder("{stem}", "desc", nil, testLogger())
	playlists := playlist.NewCache(newFakePlaylistDriver(), fakeCreds{})
	sink := newRecordingSink()

	orch := New(Config{Workers: 2, RetryCount: 3, PrivacyStatus: "private", DailyQuotaLimit: 10000}, store, driver, builder, playlists, sink, testLogger())

	result, err := orch.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Published)
	assert.False(t, result.Halted)

	for _, p := range paths {
		assert.Equal(t, OutcomePublished, sink.done[p])
	}
}

func TestRun_DedupSkipsAlreadyUploaded(t *testing.T) {
	_, paths := setupTestFiles(t, "a.mp4")

	store := newTestStore(t)
	uploadDriver := &fakeUploadDriver{}
	driver := upload.NewDriver(uploadDriver, fakeCreds{}, 3, testLogger())
	builder := metadata.NewBuilder("{stem}", "desc", nil, testLogger())
	playlists := playlist.NewCache(newFakePlaylistDriver(), fakeCreds{})
	sink := newRecordingSink()

	orch := New(Config{Workers: 1, RetryCount: 3, PrivacyStatus: "private", DailyQuotaLimit: 10000}, store, driver, builder, playlists, sink, testLogger())

	_, err := orch.Run(context.Background(), paths)
	require.NoError(t, err)

	uploadDriver.mu.Lock()
	firstCallCount := len(uploadDriver.uploadedPaths)
	uploadDriver.mu.Unlock()

	// Running the identical batch again must not trigger a second remote
	// upload call (testable-property 1: dedup idempotence).
	result2, err := orch.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 1, result2.Duplicates)
	assert.Equal(t, 0, result2.Published)

	uploadDriver.mu.Lock()
	secondCallCount := len(uploadDriver.uploadedPaths)
	uploadDriver.mu.Unlock()

	assert.Equal(t, firstCallCount, secondCallCount)
}

func TestRun_OrdinalStableRegardlessOfCompletionOrder(t *testing.T) {
	_, paths := setupTestFiles(t, "c.mp4", "a.mp4", "b.mp4")

	ordinals := precomputeOrdinals(paths)

	for _, p := range paths {
		assert.Equal(t, 3, ordinals[p].total)
	}

	var byName = map[string]int{}
	for _, p := range paths {
		byName[filepath.Base(p)] = ordinals[p].index
	}

	assert.Equal(t, 1, byName["a.mp4"])
	assert.Equal(t, 2, byName["b.mp4"])
	assert.Equal(t, 3, byName["c.mp4"])
}

func TestRun_QuotaExceededLatchesStopSignal(t *testing.T) {
	_, paths := setupTestFiles(t, "a.mp4", "b.mp4", "c.mp4")

	store := newTestStore(t)

	uploadDriver := &fakeUploadDriver{
		errPerPath: map[string][]error{},
	}
	// Force the very first OpenSession'd file to return a quota-exceeded
	// classification with no retries possible.
	driver := upload.NewDriver(&quotaFailingDriver{fail: paths[0]}, fakeCreds{}, 1, testLogger())
	builder := metadata.NewBuilder("{stem}", "desc", nil, testLogger())
	playlists := playlist.NewCache(newFakePlaylistDriver(), fakeCreds{})
	sink := newRecordingSink()

	orch := New(Config{Workers: 1, RetryCount: 1, PrivacyStatus: "private", DailyQuotaLimit: 10000}, store, driver, builder, playlists, sink, testLogger())

	result, err := orch.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.True(t, result.Halted)

	// At least one file must not have been attempted because the stop
	// signal latched (testable-property 4).
	assert.Less(t, result.Published+result.Failed, len(paths))
}

// quotaFailingDriver always fails the configured path with a
// quota-exceeded classification, and succeeds trivially for anything else.
type quotaFailingDriver struct {
	mu   sync.Mutex
	fail string
}

func (d *quotaFailingDriver) OpenSession(ctx context.Context, creds videoapi.Credentials, path string, meta metadata.Record, chunkSize int64) (videoapi.UploadSession, error) {
	if path == d.fail {
		return &fakeSession{errorsSeq: []error{upload.Classify(403, "quotaExceeded")}}, nil
	}

	return &fakeSession{videoID: filepath.Base(path) + "-vid"}, nil
}

func (d *quotaFailingDriver) UploadThumbnail(ctx context.Context, creds videoapi.Credentials, videoID, thumbnailPath string) error {
	return nil
}

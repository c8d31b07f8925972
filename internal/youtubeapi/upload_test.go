package youtubeapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysakae/vidup/internal/metadata"
	"github.com/ysakae/vidup/internal/upload"
)

func writeVideoFile(t *testing.T, size int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))

	return path
}

func TestOpenSession_ReturnsSessionFromLocationHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "resumable", r.URL.Query().Get("uploadType"))
		w.Header().Set("Location", server.URL+"/upload-session/abc")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	driver := NewDriver(server.Client(), "unlisted", server.URL, server.URL)
	path := writeVideoFile(t, 1024)

	sess, err := driver.OpenSession(context.Background(), testCredentials(), path, metadata.Record{Title: "t"}, 512)
	require.NoError(t, err)
	require.NotNil(t, sess)

	s, ok := sess.(*session)
	require.True(t, ok)
	assert.Equal(t, server.URL+"/upload-session/abc", s.uploadURL)
	assert.Equal(t, int64(1024), s.totalSize)
}

func TestOpenSession_PropagatesClassifiedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"errors":[{"reason":"quotaExceeded"}]}}`))
	}))
	defer server.Close()

	driver := NewDriver(server.Client(), "unlisted", server.URL, server.URL)
	path := writeVideoFile(t, 16)

	_, err := driver.OpenSession(context.Background(), testCredentials(), path, metadata.Record{Title: "t"}, 512)
	require.Error(t, err)
	assert.ErrorIs(t, err, upload.ErrQuotaExceeded)
}

func TestNextChunk_IntermediateChunkReturns308(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bytes 0-511/1024", r.Header.Get("Content-Range"))
		w.WriteHeader(308)
	}))
	defer server.Close()

	path := writeVideoFile(t, 1024)
	f, err := os.Open(path)
	require.NoError(t, err)

	s := &session{
		client:    newClient(server.Client(), server.URL, server.URL),
		creds:     testCredentials(),
		uploadURL: server.URL,
		file:      f,
		totalSize: 1024,
		chunkSize: 512,
	}

	result, err := s.NextChunk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(512), result.BytesSent)
	assert.Empty(t, result.VideoID)
}

func TestNextChunk_FinalChunkReturnsVideoID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"video-999"}`))
	}))
	defer server.Close()

	path := writeVideoFile(t, 512)
	f, err := os.Open(path)
	require.NoError(t, err)

	s := &session{
		client:    newClient(server.Client(), server.URL, server.URL),
		creds:     testCredentials(),
		uploadURL: server.URL,
		file:      f,
		totalSize: 512,
		chunkSize: 512,
	}

	result, err := s.NextChunk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "video-999", result.VideoID)
	assert.Equal(t, int64(512), result.BytesSent)
}

func TestUploadThumbnail_PostsImageBytesWithContentType(t *testing.T) {
	var gotContentType string

	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	thumbPath := filepath.Join(t.TempDir(), "thumb.png")
	require.NoError(t, os.WriteFile(thumbPath, []byte("fake-png-bytes"), 0o600))

	driver := NewDriver(server.Client(), "unlisted", server.URL, server.URL)

	err := driver.UploadThumbnail(context.Background(), testCredentials(), "video-1", thumbPath)
	require.NoError(t, err)
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, []byte("fake-png-bytes"), gotBody)
}

func TestContentTypeForImage_DefaultsToJPEG(t *testing.T) {
	assert.Equal(t, "image/jpeg", contentTypeForImage("thumb.unknownext"))
	assert.Equal(t, "image/png", contentTypeForImage("thumb.png"))
}

package youtubeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ysakae/vidup/internal/metadata"
	"github.com/ysakae/vidup/internal/upload"
	"github.com/ysakae/vidup/internal/videoapi"
)

// Driver implements videoapi.UploadDriver and videoapi.PlaylistDriver
// against the real YouTube Data API v3.
type Driver struct {
	client        *client
	privacyStatus string
}

// NewDriver constructs a Driver using httpClient for transport (pass nil
// for http.DefaultClient), privacyStatus as the default for newly inserted
// videos' status.privacyStatus field, and apiBase/uploadBase as the API
// endpoints (pass "" for both to use the production YouTube Data API v3).
func NewDriver(httpClient *http.Client, privacyStatus, apiBase, uploadBase string) *Driver {
	return &Driver{client: newClient(httpClient, apiBase, uploadBase), privacyStatus: privacyStatus}
}

type videoSnippet struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}

type videoRecordingDetails struct {
	RecordingDate string            `json:"recordingDate,omitempty"`
	Location      *videoGeoLocation `json:"location,omitempty"`
}

type videoGeoLocation struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

type videoStatus struct {
	PrivacyStatus string `json:"privacyStatus"`
}

type videoInsertBody struct {
	Snippet          videoSnippet           `json:"snippet"`
	Status           videoStatus            `json:"status"`
	RecordingDetails *videoRecordingDetails `json:"recordingDetails,omitempty"`
}

func buildInsertBody(meta metadata.Record, privacyStatus string) videoInsertBody {
	body := videoInsertBody{
		Snippet: videoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
		},
		Status: videoStatus{PrivacyStatus: privacyStatus},
	}

	if meta.RecordingDetails.RecordingDate != "" || meta.RecordingDetails.Location != nil {
		details := &videoRecordingDetails{RecordingDate: meta.RecordingDetails.RecordingDate}

		if loc := meta.RecordingDetails.Location; loc != nil {
			details.Location = &videoGeoLocation{
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
				Altitude:  loc.Altitude,
			}
		}

		body.RecordingDetails = details
	}

	return body
}

// session is one resumable upload in progress.
type session struct {
	client    *client
	creds     Credentials
	uploadURL string
	file      *os.File
	totalSize int64
	sent      int64
	chunkSize int64
}

// OpenSession initiates a resumable upload session for path and returns a
// session ready to stream chunks.
func (d *Driver) OpenSession(ctx context.Context, creds videoapi.Credentials, path string, meta metadata.Record, chunkSize int64) (videoapi.UploadSession, error) {
	c, ok := creds.(Credentials)
	if !ok {
		return nil, fmt.Errorf("youtubeapi: unexpected credentials type %T", creds)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("youtubeapi: opening %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("youtubeapi: stat %q: %w", path, err)
	}

	body := buildInsertBody(meta, d.privacyStatus)

	payload, err := json.Marshal(body)
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("youtubeapi: encoding insert body: %w", err)
	}

	url := d.client.uploadBase + "/videos?uploadType=resumable&part=snippet,status,recordingDetails"

	resp, err := d.client.do(ctx, c, http.MethodPost, url, "application/json", bytes.NewReader(payload))
	if err != nil {
		f.Close()

		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := readBody(resp)
		f.Close()

		return nil, upload.Classify(resp.StatusCode, string(data))
	}

	uploadURL := resp.Header.Get("Location")
	if uploadURL == "" {
		f.Close()

		return nil, fmt.Errorf("youtubeapi: resumable session response had no Location header")
	}

	return &session{
		client: d.client, creds: c, uploadURL: uploadURL,
		file: f, totalSize: info.Size(), chunkSize: chunkSize,
	}, nil
}

// NextChunk sends the next chunkSize slice of the file via a PUT with a
// Content-Range header. On the final chunk, the response body carries the
// inserted video's id.
func (s *session) NextChunk(ctx context.Context) (videoapi.ChunkResult, error) {
	remaining := s.totalSize - s.sent
	n := s.chunkSize

	if n > remaining {
		n = remaining
	}

	buf := make([]byte, n)

	if _, err := s.file.ReadAt(buf, s.sent); err != nil {
		return videoapi.ChunkResult{}, fmt.Errorf("youtubeapi: reading chunk at offset %d: %w", s.sent, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.uploadURL, bytes.NewReader(buf))
	if err != nil {
		return videoapi.ChunkResult{}, fmt.Errorf("youtubeapi: building chunk request: %w", err)
	}

	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", s.sent, s.sent+n-1, s.totalSize))

	tok, err := s.creds.TokenSource.Token()
	if err != nil {
		return videoapi.ChunkResult{}, fmt.Errorf("youtubeapi: obtaining token: %w", err)
	}

	tok.SetAuthHeader(req)

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return videoapi.ChunkResult{}, fmt.Errorf("youtubeapi: chunk upload request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return videoapi.ChunkResult{}, err
	}

	// 308 Resume Incomplete means more chunks are expected.
	if resp.StatusCode == 308 {
		s.sent += n

		return videoapi.ChunkResult{BytesSent: s.sent, TotalBytes: s.totalSize}, nil
	}

	if resp.StatusCode >= 400 {
		return videoapi.ChunkResult{}, upload.Classify(resp.StatusCode, string(data))
	}

	var result struct {
		ID string `json:"id"`
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return videoapi.ChunkResult{}, fmt.Errorf("youtubeapi: decoding final chunk response: %w", err)
	}

	s.sent += n
	s.file.Close()

	return videoapi.ChunkResult{BytesSent: s.sent, TotalBytes: s.totalSize, VideoID: result.ID}, nil
}

// UploadThumbnail attaches a thumbnail image to an already-uploaded video.
func (d *Driver) UploadThumbnail(ctx context.Context, creds videoapi.Credentials, videoID, thumbnailPath string) error {
	c, ok := creds.(Credentials)
	if !ok {
		return fmt.Errorf("youtubeapi: unexpected credentials type %T", creds)
	}

	data, err := os.ReadFile(thumbnailPath)
	if err != nil {
		return fmt.Errorf("youtubeapi: reading thumbnail %q: %w", thumbnailPath, err)
	}

	url := fmt.Sprintf("%s/thumbnails/set?videoId=%s", d.client.uploadBase, videoID)

	resp, err := d.client.do(ctx, c, http.MethodPost, url, contentTypeForImage(thumbnailPath), bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := readBody(resp)

		return upload.Classify(resp.StatusCode, string(body))
	}

	return nil
}

// contentTypeForImage maps a thumbnail file's extension to the MIME type
// the thumbnails.set endpoint expects, defaulting to image/jpeg for
// anything unrecognized (the vast majority of generated thumbnails).
func contentTypeForImage(path string) string {
	switch ext := filepath.Ext(path); ext {
	case ".png":
		return "image/png"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}

		return "image/jpeg"
	}
}

package youtubeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ysakae/vidup/internal/upload"
	"github.com/ysakae/vidup/internal/videoapi"
)

type playlistListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

// ListPlaylists returns one page of the authenticated user's playlists.
func (d *Driver) ListPlaylists(ctx context.Context, creds videoapi.Credentials, pageToken string, pageSize int) ([]videoapi.RemotePlaylist, string, error) {
	c, ok := creds.(Credentials)
	if !ok {
		return nil, "", fmt.Errorf("youtubeapi: unexpected credentials type %T", creds)
	}

	q := url.Values{}
	q.Set("mine", "true")
	q.Set("part", "snippet")

	if pageSize > 0 {
		q.Set("maxResults", strconv.Itoa(pageSize))
	}

	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	reqURL := d.client.apiBase + "/playlists?" + q.Encode()

	resp, err := d.client.do(ctx, c, http.MethodGet, reqURL, "", nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return nil, "", err
	}

	if resp.StatusCode >= 400 {
		return nil, "", upload.Classify(resp.StatusCode, string(data))
	}

	var parsed playlistListResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, "", fmt.Errorf("youtubeapi: decoding playlists response: %w", err)
	}

	items := make([]videoapi.RemotePlaylist, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		items = append(items, videoapi.RemotePlaylist{ID: it.ID, Title: it.Snippet.Title})
	}

	return items, parsed.NextPageToken, nil
}

// CreatePlaylist inserts a new playlist and returns its id.
func (d *Driver) CreatePlaylist(ctx context.Context, creds videoapi.Credentials, title, privacy string) (string, error) {
	c, ok := creds.(Credentials)
	if !ok {
		return "", fmt.Errorf("youtubeapi: unexpected credentials type %T", creds)
	}

	body := struct {
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		Status struct {
			PrivacyStatus string `json:"privacyStatus"`
		} `json:"status"`
	}{}
	body.Snippet.Title = title
	body.Status.PrivacyStatus = privacy

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("youtubeapi: encoding playlist body: %w", err)
	}

	reqURL := d.client.apiBase + "/playlists?part=snippet,status"

	resp, err := d.client.do(ctx, c, http.MethodPost, reqURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 400 {
		return "", upload.Classify(resp.StatusCode, string(data))
	}

	var result struct {
		ID string `json:"id"`
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("youtubeapi: decoding created playlist response: %w", err)
	}

	return result.ID, nil
}

// AttachVideo adds videoID to playlistID as a new playlistItem.
func (d *Driver) AttachVideo(ctx context.Context, creds videoapi.Credentials, playlistID, videoID string) error {
	c, ok := creds.(Credentials)
	if !ok {
		return fmt.Errorf("youtubeapi: unexpected credentials type %T", creds)
	}

	body := struct {
		Snippet struct {
			PlaylistID string `json:"playlistId"`
			ResourceID struct {
				Kind    string `json:"kind"`
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	}{}
	body.Snippet.PlaylistID = playlistID
	body.Snippet.ResourceID.Kind = "youtube#video"
	body.Snippet.ResourceID.VideoID = videoID

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("youtubeapi: encoding playlist item body: %w", err)
	}

	reqURL := d.client.apiBase + "/playlistItems?part=snippet"

	resp, err := d.client.do(ctx, c, http.MethodPost, reqURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := readBody(resp)

		return upload.Classify(resp.StatusCode, string(data))
	}

	return nil
}

type playlistItemListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

// FindPlaylistItem scans playlistID's items for one whose resourceId.videoId
// matches videoID, paginating as needed. The API offers no server-side
// videoId filter on playlistItems.list, so this is a client-side scan,
// same as playlist.Cache's own lookups against ListPlaylistVideoIDs.
func (d *Driver) FindPlaylistItem(ctx context.Context, creds videoapi.Credentials, playlistID, videoID string) (string, bool, error) {
	c, ok := creds.(Credentials)
	if !ok {
		return "", false, fmt.Errorf("youtubeapi: unexpected credentials type %T", creds)
	}

	pageToken := ""

	for {
		q := url.Values{}
		q.Set("playlistId", playlistID)
		q.Set("part", "snippet")
		q.Set("maxResults", "50")

		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		reqURL := d.client.apiBase + "/playlistItems?" + q.Encode()

		resp, err := d.client.do(ctx, c, http.MethodGet, reqURL, "", nil)
		if err != nil {
			return "", false, err
		}

		data, err := readBody(resp)
		if err != nil {
			return "", false, err
		}

		if resp.StatusCode >= 400 {
			return "", false, upload.Classify(resp.StatusCode, string(data))
		}

		var parsed playlistItemListResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return "", false, fmt.Errorf("youtubeapi: decoding playlist items response: %w", err)
		}

		for _, it := range parsed.Items {
			if it.Snippet.ResourceID.VideoID == videoID {
				return it.ID, true, nil
			}
		}

		if parsed.NextPageToken == "" {
			return "", false, nil
		}

		pageToken = parsed.NextPageToken
	}
}

// DetachItem removes a playlistItem by its own id (not the video id).
func (d *Driver) DetachItem(ctx context.Context, creds videoapi.Credentials, itemID string) error {
	c, ok := creds.(Credentials)
	if !ok {
		return fmt.Errorf("youtubeapi: unexpected credentials type %T", creds)
	}

	reqURL := d.client.apiBase + "/playlistItems?id=" + url.QueryEscape(itemID)

	resp, err := d.client.do(ctx, c, http.MethodDelete, reqURL, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := readBody(resp)

		return upload.Classify(resp.StatusCode, string(data))
	}

	return nil
}

// GetSnippet returns a playlist's current title.
func (d *Driver) GetSnippet(ctx context.Context, creds videoapi.Credentials, playlistID string) (string, error) {
	c, ok := creds.(Credentials)
	if !ok {
		return "", fmt.Errorf("youtubeapi: unexpected credentials type %T", creds)
	}

	reqURL := d.client.apiBase + "/playlists?part=snippet&id=" + url.QueryEscape(playlistID)

	resp, err := d.client.do(ctx, c, http.MethodGet, reqURL, "", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 400 {
		return "", upload.Classify(resp.StatusCode, string(data))
	}

	var parsed playlistListResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("youtubeapi: decoding playlist snippet response: %w", err)
	}

	if len(parsed.Items) == 0 {
		return "", fmt.Errorf("youtubeapi: playlist %q not found", playlistID)
	}

	return parsed.Items[0].Snippet.Title, nil
}

// UpdateTitle renames playlistID to newTitle via playlists.update, sending
// only the id and the new title in the snippet; it does not read the
// existing snippet first.
func (d *Driver) UpdateTitle(ctx context.Context, creds videoapi.Credentials, playlistID, newTitle string) error {
	c, ok := creds.(Credentials)
	if !ok {
		return fmt.Errorf("youtubeapi: unexpected credentials type %T", creds)
	}

	body := struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	}{ID: playlistID}
	body.Snippet.Title = newTitle

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("youtubeapi: encoding playlist update body: %w", err)
	}

	reqURL := d.client.apiBase + "/playlists?part=snippet"

	resp, err := d.client.do(ctx, c, http.MethodPut, reqURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := readBody(resp)

		return upload.Classify(resp.StatusCode, string(data))
	}

	return nil
}

// ListPlaylistVideoIDs returns every video id currently in playlistID,
// paginating through playlistItems.list.
func (d *Driver) ListPlaylistVideoIDs(ctx context.Context, creds videoapi.Credentials, playlistID string) ([]string, error) {
	c, ok := creds.(Credentials)
	if !ok {
		return nil, fmt.Errorf("youtubeapi: unexpected credentials type %T", creds)
	}

	var ids []string

	pageToken := ""

	for {
		q := url.Values{}
		q.Set("playlistId", playlistID)
		q.Set("part", "snippet")
		q.Set("maxResults", "50")

		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		reqURL := d.client.apiBase + "/playlistItems?" + q.Encode()

		resp, err := d.client.do(ctx, c, http.MethodGet, reqURL, "", nil)
		if err != nil {
			return nil, err
		}

		data, err := readBody(resp)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 400 {
			return nil, upload.Classify(resp.StatusCode, string(data))
		}

		var parsed playlistItemListResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("youtubeapi: decoding playlist items response: %w", err)
		}

		for _, it := range parsed.Items {
			ids = append(ids, it.Snippet.ResourceID.VideoID)
		}

		if parsed.NextPageToken == "" {
			break
		}

		pageToken = parsed.NextPageToken
	}

	return ids, nil
}

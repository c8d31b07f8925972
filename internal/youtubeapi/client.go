package youtubeapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultAPIBaseURL is the production YouTube Data API v3 JSON endpoint.
const DefaultAPIBaseURL = "https://www.googleapis.com/youtube/v3"

// DefaultUploadBaseURL is the production resumable-upload endpoint for
// media bodies.
const DefaultUploadBaseURL = "https://www.googleapis.com/upload/youtube/v3"

// client is a thin authenticated HTTP wrapper, grounded on graph.Client's
// shape: it owns request construction, base-URL prefixing, and
// bearer-token attachment, with the base URLs taken as constructor
// parameters the same way graph.NewClient takes one (so tests can point
// at an httptest server instead of the real API). Unlike graph.Client, it
// does not itself retry — chunk sends and thumbnail uploads are retried
// by internal/upload.Driver's classified-retry policy, and playlist
// operations are explicitly best-effort at the orchestrator level
// (spec.md §4.7 step (b)/(c)), so a second retry layer here would be
// redundant.
type client struct {
	httpClient *http.Client
	apiBase    string
	uploadBase string
}

func newClient(httpClient *http.Client, apiBase, uploadBase string) *client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if apiBase == "" {
		apiBase = DefaultAPIBaseURL
	}

	if uploadBase == "" {
		uploadBase = DefaultUploadBaseURL
	}

	return &client{httpClient: httpClient, apiBase: apiBase, uploadBase: uploadBase}
}

func (c *client) do(ctx context.Context, creds Credentials, method, url string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("youtubeapi: building request: %w", err)
	}

	tok, err := creds.TokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("youtubeapi: obtaining token: %w", err)
	}

	tok.SetAuthHeader(req)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtubeapi: request to %s failed: %w", url, err)
	}

	return resp, nil
}

// readBody reads and closes resp.Body, returning its bytes.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("youtubeapi: reading response body: %w", err)
	}

	return data, nil
}

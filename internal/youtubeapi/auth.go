// Package youtubeapi is the composition-root collaborator that satisfies
// videoapi.UploadDriver and videoapi.PlaylistDriver against the real
// YouTube Data API v3: OAuth2 token acquisition/refresh, authenticated HTTP
// transport, and the handful of REST calls the core orchestration needs.
// Per spec.md §1, everything in this package is explicitly outside the
// spec's core: it is supplied to the core packages through the videoapi
// capability interfaces, the same separation graph.Client draws between
// transport/auth and Microsoft Graph domain operations.
package youtubeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ysakae/vidup/internal/videoapi"
)

// clientSecretsFile is the on-disk shape of Google's downloadable OAuth
// client-secrets JSON (the "installed" application flow).
type clientSecretsFile struct {
	Installed *clientSecretsDetail `json:"installed"`
	Web       *clientSecretsDetail `json:"web"`
}

type clientSecretsDetail struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
	RedirectURIs []string `json:"redirect_uris"`
}

// LoadOAuthConfig reads a Google client-secrets JSON file and builds an
// oauth2.Config for the given scopes.
func LoadOAuthConfig(clientSecretsPath string, scopes []string) (*oauth2.Config, error) {
	data, err := os.ReadFile(clientSecretsPath)
	if err != nil {
		return nil, fmt.Errorf("youtubeapi: reading client secrets %q: %w", clientSecretsPath, err)
	}

	var secrets clientSecretsFile
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("youtubeapi: parsing client secrets %q: %w", clientSecretsPath, err)
	}

	detail := secrets.Installed
	if detail == nil {
		detail = secrets.Web
	}

	if detail == nil {
		return nil, fmt.Errorf("youtubeapi: client secrets %q has neither an \"installed\" nor \"web\" section", clientSecretsPath)
	}

	redirectURL := "urn:ietf:wg:oauth:2.0:oob"
	if len(detail.RedirectURIs) > 0 {
		redirectURL = detail.RedirectURIs[0]
	}

	return &oauth2.Config{
		ClientID:     detail.ClientID,
		ClientSecret: detail.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}, nil
}

// tokenFilePerms restricts saved tokens to owner-only read/write.
const tokenFilePerms = 0o600

// LoadToken reads a previously saved oauth2.Token from path. Returns
// (nil, nil) if no token file exists yet (not logged in).
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil //nolint:nilnil // sentinel for "not logged in"
	}

	if err != nil {
		return nil, fmt.Errorf("youtubeapi: reading token %q: %w", path, err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("youtubeapi: decoding token %q: %w", path, err)
	}

	return &tok, nil
}

// SaveToken writes tok to path atomically (temp file + rename in the same
// directory), matching the teacher's tokenfile.Save discipline of never
// leaving a torn write behind.
func SaveToken(path string, tok *oauth2.Token) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("youtubeapi: creating token dir %q: %w", dir, err)
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("youtubeapi: encoding token: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("youtubeapi: creating temp token file: %w", err)
	}

	tmpPath := tmp.Name()
	success := false

	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()

		return fmt.Errorf("youtubeapi: writing token: %w", err)
	}

	if err := tmp.Chmod(tokenFilePerms); err != nil {
		tmp.Close()

		return fmt.Errorf("youtubeapi: chmod token file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()

		return fmt.Errorf("youtubeapi: syncing token file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("youtubeapi: closing token file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("youtubeapi: renaming token file: %w", err)
	}

	success = true

	return nil
}

// persistingTokenSource wraps an oauth2.TokenSource and writes every newly
// refreshed token back to tokenPath, so silent refreshes survive process
// restarts.
type persistingTokenSource struct {
	src       oauth2.TokenSource
	tokenPath string
	logger    *slog.Logger
	last      string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, fmt.Errorf("youtubeapi: obtaining token: %w", err)
	}

	if tok.AccessToken != p.last {
		if err := SaveToken(p.tokenPath, tok); err != nil {
			p.logger.Warn("failed to persist refreshed token", "path", p.tokenPath, "error", err)
		}

		p.last = tok.AccessToken
	}

	return tok, nil
}

// Credentials wraps an oauth2.TokenSource as a videoapi.Credentials.
type Credentials struct {
	TokenSource oauth2.TokenSource
}

var _ videoapi.Credentials = Credentials{}

// TokenSourceFromFile loads a saved token from tokenPath and returns
// Credentials wrapping an auto-refreshing, auto-persisting TokenSource.
// Returns an error wrapping ErrNotLoggedIn if no token is saved yet.
func TokenSourceFromFile(ctx context.Context, cfg *oauth2.Config, tokenPath string, logger *slog.Logger) (Credentials, error) {
	tok, err := LoadToken(tokenPath)
	if err != nil {
		return Credentials{}, err
	}

	if tok == nil {
		return Credentials{}, ErrNotLoggedIn
	}

	base := cfg.TokenSource(ctx, tok)
	persisting := &persistingTokenSource{src: base, tokenPath: tokenPath, logger: logger, last: tok.AccessToken}

	return Credentials{TokenSource: persisting}, nil
}

// ErrNotLoggedIn is returned by TokenSourceFromFile when no token has been
// saved at the given path yet.
var ErrNotLoggedIn = fmt.Errorf("youtubeapi: not logged in")

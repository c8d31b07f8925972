package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultProfileName is used when no profile has ever been selected.
const DefaultProfileName = "default"

// tokensDirName and activeProfileFileName mirror the original tool's
// profiles.py layout: a tokens/ directory holding one credential file per
// profile, and a single-line marker file recording which profile is active.
const (
	tokensDirName          = "tokens"
	activeProfileFileName  = ".active_profile"
	profileFilePerms       = 0o600
	profileDirPerms        = 0o700
)

// ProfileBook owns profile-scoped token storage and the active-profile
// marker under a single data directory. It intentionally holds no global
// state — callers construct one against DefaultDataDir() (or a test temp
// dir) and pass it down explicitly, the same "no singletons" discipline the
// rest of this package follows via Holder.
type ProfileBook struct {
	dataDir string
}

// NewProfileBook creates a ProfileBook rooted at dataDir.
func NewProfileBook(dataDir string) *ProfileBook {
	return &ProfileBook{dataDir: dataDir}
}

// TokensDir returns the directory holding per-profile token files.
func (pb *ProfileBook) TokensDir() string {
	return filepath.Join(pb.dataDir, tokensDirName)
}

// TokenPath returns the token file path for the named profile.
func (pb *ProfileBook) TokenPath(profile string) string {
	return filepath.Join(pb.TokensDir(), profile)
}

// activeProfilePath returns the path to the active-profile marker file.
func (pb *ProfileBook) activeProfilePath() string {
	return filepath.Join(pb.dataDir, activeProfileFileName)
}

// ActiveProfile reads the active-profile marker, defaulting to
// DefaultProfileName when no marker file exists yet.
func (pb *ProfileBook) ActiveProfile() (string, error) {
	data, err := os.ReadFile(pb.activeProfilePath())
	if os.IsNotExist(err) {
		return DefaultProfileName, nil
	}

	if err != nil {
		return "", fmt.Errorf("config: reading active profile marker: %w", err)
	}

	name := strings.TrimSpace(string(data))
	if name == "" {
		return DefaultProfileName, nil
	}

	return name, nil
}

// SetActiveProfile writes the active-profile marker atomically (temp file +
// rename in the same directory, matching tokenfile.Save's same-filesystem
// rename guarantee).
func (pb *ProfileBook) SetActiveProfile(name string) error {
	if err := os.MkdirAll(pb.dataDir, profileDirPerms); err != nil {
		return fmt.Errorf("config: creating data dir: %w", err)
	}

	tmp, err := os.CreateTemp(pb.dataDir, ".active_profile-*")
	if err != nil {
		return fmt.Errorf("config: creating active profile temp file: %w", err)
	}

	tmpPath := tmp.Name()
	success := false

	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.WriteString(name); err != nil {
		tmp.Close()

		return fmt.Errorf("config: writing active profile marker: %w", err)
	}

	if err := tmp.Chmod(profileFilePerms); err != nil {
		tmp.Close()

		return fmt.Errorf("config: chmod active profile marker: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()

		return fmt.Errorf("config: syncing active profile marker: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: closing active profile marker: %w", err)
	}

	if err := os.Rename(tmpPath, pb.activeProfilePath()); err != nil {
		return fmt.Errorf("config: renaming active profile marker: %w", err)
	}

	success = true

	return nil
}

// MigrateLegacyToken moves a pre-profile single token file (legacyPath, from
// AuthConfig.TokenFile) into tokens/default the first time a ProfileBook is
// used against an existing install, then marks "default" active. It is a
// no-op if the default token already exists or legacyPath is unset/missing.
func (pb *ProfileBook) MigrateLegacyToken(legacyPath string) error {
	if legacyPath == "" {
		return nil
	}

	defaultTokenPath := pb.TokenPath(DefaultProfileName)

	if _, err := os.Stat(defaultTokenPath); err == nil {
		return nil // already migrated
	}

	if _, err := os.Stat(legacyPath); os.IsNotExist(err) {
		return nil // nothing to migrate
	}

	if err := os.MkdirAll(pb.TokensDir(), profileDirPerms); err != nil {
		return fmt.Errorf("config: creating tokens dir: %w", err)
	}

	data, err := os.ReadFile(legacyPath)
	if err != nil {
		return fmt.Errorf("config: reading legacy token file: %w", err)
	}

	if err := os.WriteFile(defaultTokenPath, data, profileFilePerms); err != nil {
		return fmt.Errorf("config: writing migrated token file: %w", err)
	}

	if err := os.Remove(legacyPath); err != nil {
		return fmt.Errorf("config: removing legacy token file: %w", err)
	}

	return pb.SetActiveProfile(DefaultProfileName)
}

// expandTilde replaces a leading "~/" with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[2:])
}

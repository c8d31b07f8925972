// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for vidup.
package config

// Config is the top-level configuration structure, loaded from config.toml.
type Config struct {
	Auth     AuthConfig     `toml:"auth"`
	Upload   UploadConfig   `toml:"upload"`
	Metadata MetadataConfig `toml:"metadata"`
	Logging  LoggingConfig  `toml:"logging"`
	HistoryDB string        `toml:"history_db"`
}

// AuthConfig describes where credentials live. Acquisition and refresh are
// handled by an external collaborator; vidup only needs to know where the
// resulting token is stored on disk.
type AuthConfig struct {
	ClientSecretsFile string   `toml:"client_secrets_file"`
	TokenFile         string   `toml:"token_file"`
	Scopes            []string `toml:"scopes"`
}

// UploadConfig controls the resumable upload driver.
type UploadConfig struct {
	ChunkSize        int64  `toml:"chunk_size"`
	RetryCount       int    `toml:"retry_count"`
	PrivacyStatus    string `toml:"privacy_status"`
	DailyQuotaLimit  int    `toml:"daily_quota_limit"`
	Workers          int    `toml:"workers"`
}

// MetadataConfig controls the default title/description templates and tags
// applied before any per-folder .yt-meta.yaml override is merged in.
type MetadataConfig struct {
	TitleTemplate       string   `toml:"title_template"`
	DescriptionTemplate string   `toml:"description_template"`
	Tags                []string `toml:"tags"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFile   string `toml:"log_file"`
	LogFormat string `toml:"log_format"`
}

package config

import (
	"errors"
	"fmt"
)

// Validation range constants.
const (
	minRetryCount      = 1
	maxRetryCount      = 20
	minWorkers         = 1
	maxWorkers         = 32
	minChunkBytes      = 256 * 1024        // 256 KiB
	maxChunkBytes      = 256 * 1024 * 1024 // 256 MiB
	minDailyQuotaLimit = 1
)

// Validate checks all configuration values and returns all errors found. It
// accumulates every error rather than stopping at the first, so users see a
// complete report and can fix every issue in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateUpload(&cfg.Upload)...)
	errs = append(errs, validateMetadata(&cfg.Metadata)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if cfg.HistoryDB == "" {
		errs = append(errs, errors.New("history_db: must not be empty"))
	}

	return errors.Join(errs...)
}

func validateAuth(a *AuthConfig) []error {
	var errs []error

	if a.ClientSecretsFile == "" {
		errs = append(errs, errors.New("auth.client_secrets_file: must not be empty"))
	}

	if len(a.Scopes) == 0 {
		errs = append(errs, errors.New("auth.scopes: must list at least one scope"))
	}

	return errs
}

func validateUpload(u *UploadConfig) []error {
	var errs []error

	if u.ChunkSize < minChunkBytes || u.ChunkSize > maxChunkBytes {
		errs = append(errs, fmt.Errorf("upload.chunk_size: must be between %d and %d bytes, got %d",
			minChunkBytes, maxChunkBytes, u.ChunkSize))
	}

	if u.RetryCount < minRetryCount || u.RetryCount > maxRetryCount {
		errs = append(errs, fmt.Errorf("upload.retry_count: must be between %d and %d, got %d",
			minRetryCount, maxRetryCount, u.RetryCount))
	}

	if u.PrivacyStatus != "private" && u.PrivacyStatus != "unlisted" && u.PrivacyStatus != "public" {
		errs = append(errs, fmt.Errorf(
			"upload.privacy_status: must be one of private, unlisted, public; got %q", u.PrivacyStatus))
	}

	if u.DailyQuotaLimit < minDailyQuotaLimit {
		errs = append(errs, fmt.Errorf("upload.daily_quota_limit: must be >= %d, got %d",
			minDailyQuotaLimit, u.DailyQuotaLimit))
	}

	if u.Workers != 0 && (u.Workers < minWorkers || u.Workers > maxWorkers) {
		errs = append(errs, fmt.Errorf("upload.workers: must be between %d and %d, got %d",
			minWorkers, maxWorkers, u.Workers))
	}

	return errs
}

func validateMetadata(m *MetadataConfig) []error {
	var errs []error

	if m.TitleTemplate == "" {
		errs = append(errs, errors.New("metadata.title_template: must not be empty"))
	}

	if m.DescriptionTemplate == "" {
		errs = append(errs, errors.New("metadata.description_template: must not be empty"))
	}

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"auto": true,
	"text": true,
	"json": true,
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if !validLogLevels[l.LogLevel] {
		errs = append(errs, fmt.Errorf("logging.log_level: must be one of debug, info, warn, error; got %q", l.LogLevel))
	}

	if !validLogFormats[l.LogFormat] {
		errs = append(errs, fmt.Errorf("logging.log_format: must be one of auto, text, json; got %q", l.LogFormat))
	}

	return errs
}

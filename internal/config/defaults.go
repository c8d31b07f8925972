package config

// Default values for configuration options, mirroring the original
// youtube-up-agy settings.yaml defaults (lib/core/config.py).
const (
	defaultChunkSize       int64  = 4 * 1024 * 1024
	defaultRetryCount      int    = 5
	defaultPrivacyStatus   string = "private"
	defaultDailyQuotaLimit int    = 10000
	defaultWorkers         int    = 1

	defaultTitleTemplate       = "【{folder}】{stem}"
	defaultDescriptionTemplate = "{folder}\nNo. {index}/{total}\n\nFile: {filename}\nCaptured: {date}"

	defaultLogLevel  = "info"
	defaultLogFormat = "auto"

	defaultHistoryDB = "upload_history.db"

	defaultClientSecretsFile = "client_secrets.json"
)

var defaultScopes = []string{"https://www.googleapis.com/auth/youtube"}
var defaultTags = []string{"auto-upload"}

// DefaultConfig returns a Config populated with all default values. This is
// used both as the starting point for TOML decoding (so unset fields retain
// defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Auth:      defaultAuthConfig(),
		Upload:    defaultUploadConfig(),
		Metadata:  defaultMetadataConfig(),
		Logging:   defaultLoggingConfig(),
		HistoryDB: defaultHistoryDB,
	}
}

func defaultAuthConfig() AuthConfig {
	return AuthConfig{
		ClientSecretsFile: defaultClientSecretsFile,
		Scopes:            append([]string(nil), defaultScopes...),
	}
}

func defaultUploadConfig() UploadConfig {
	return UploadConfig{
		ChunkSize:       defaultChunkSize,
		RetryCount:      defaultRetryCount,
		PrivacyStatus:   defaultPrivacyStatus,
		DailyQuotaLimit: defaultDailyQuotaLimit,
		Workers:         defaultWorkers,
	}
}

func defaultMetadataConfig() MetadataConfig {
	return MetadataConfig{
		TitleTemplate:       defaultTitleTemplate,
		DescriptionTemplate: defaultDescriptionTemplate,
		Tags:                append([]string(nil), defaultTags...),
	}
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}

package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysakae/vidup/internal/config"
)

func resetGlobalFlags(t *testing.T) {
	t.Helper()

	origVerbose, origDebug, origQuiet := flagVerbose, flagDebug, flagQuiet
	flagVerbose, flagDebug, flagQuiet = false, false, false

	t.Cleanup(func() {
		flagVerbose, flagDebug, flagQuiet = origVerbose, origDebug, origQuiet
	})
}

func TestBuildLogger_DefaultLevel(t *testing.T) {
	resetGlobalFlags(t)

	logger := buildLogger(nil)
	require.NotNil(t, logger)

	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}

func TestBuildLogger_ConfigLevel(t *testing.T) {
	resetGlobalFlags(t)

	cfg := &config.Config{Logging: config.LoggingConfig{LogLevel: "debug", LogFormat: "json"}}

	logger := buildLogger(cfg)
	require.NotNil(t, logger)

	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestBuildLogger_FlagOverridesConfig(t *testing.T) {
	resetGlobalFlags(t)

	cfg := &config.Config{Logging: config.LoggingConfig{LogLevel: "error", LogFormat: "json"}}

	flagVerbose = true
	t.Cleanup(func() { flagVerbose = false })

	logger := buildLogger(cfg)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestBuildLogger_QuietWinsOverVerbose(t *testing.T) {
	resetGlobalFlags(t)

	flagVerbose = true
	flagQuiet = true
	t.Cleanup(func() { flagVerbose, flagQuiet = false, false })

	logger := buildLogger(nil)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestCliContextFrom(t *testing.T) {
	t.Run("absent returns nil", func(t *testing.T) {
		assert.Nil(t, cliContextFrom(context.Background()))
	})

	t.Run("present returns stored value", func(t *testing.T) {
		cc := &CLIContext{Profile: "default"}
		ctx := context.WithValue(context.Background(), cliContextKey{}, cc)

		got := cliContextFrom(ctx)
		require.NotNil(t, got)
		assert.Equal(t, "default", got.Profile)
	})
}

func TestMustCLIContext_PanicsWhenAbsent(t *testing.T) {
	assert.Panics(t, func() {
		mustCLIContext(context.Background())
	})
}

func TestMustCLIContext_ReturnsStoredValue(t *testing.T) {
	cc := &CLIContext{Profile: "work"}
	ctx := context.WithValue(context.Background(), cliContextKey{}, cc)

	got := mustCLIContext(ctx)
	assert.Equal(t, "work", got.Profile)
}

func TestResolveClientSecretsPath(t *testing.T) {
	t.Run("absolute path is returned unchanged", func(t *testing.T) {
		cc := &CLIContext{
			CfgPath: "/home/user/.config/vidup/config.toml",
			Cfg:     &config.Config{Auth: config.AuthConfig{ClientSecretsFile: "/etc/vidup/secrets.json"}},
		}

		assert.Equal(t, "/etc/vidup/secrets.json", resolveClientSecretsPath(cc))
	})

	t.Run("relative path resolved against config directory", func(t *testing.T) {
		cc := &CLIContext{
			CfgPath: "/home/user/.config/vidup/config.toml",
			Cfg:     &config.Config{Auth: config.AuthConfig{ClientSecretsFile: "client_secrets.json"}},
		}

		assert.Equal(t, "/home/user/.config/vidup/client_secrets.json", resolveClientSecretsPath(cc))
	})
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	names := make(map[string]bool)
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"login", "upload", "history", "quota", "retry", "sync", "playlist"} {
		assert.True(t, names[want], "expected subcommand %q to be registered", want)
	}
}

func TestNewRootCmd_PersistentFlags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"config", "profile", "json", "verbose", "debug", "quiet", "dry-run", "force"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "expected persistent flag %q", name)
	}
}

func TestNewRootCmd_LoginSkipsConfig(t *testing.T) {
	cmd := newRootCmd()

	for _, c := range cmd.Commands() {
		if c.Name() == "login" {
			assert.Equal(t, "true", c.Annotations[skipConfigAnnotation])
			return
		}
	}

	t.Fatal("login subcommand not found")
}

func TestNewRootCmd_OtherCommandsDoNotSkipConfig(t *testing.T) {
	cmd := newRootCmd()

	for _, c := range cmd.Commands() {
		if c.Name() == "login" {
			continue
		}

		assert.NotEqual(t, "true", c.Annotations[skipConfigAnnotation], "command %q should not skip config", c.Name())
	}
}

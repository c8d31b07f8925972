package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ysakae/vidup/internal/config"
	"github.com/ysakae/vidup/internal/history"
	"github.com/ysakae/vidup/internal/metadata"
	"github.com/ysakae/vidup/internal/playlist"
	"github.com/ysakae/vidup/internal/upload"
	"github.com/ysakae/vidup/internal/videoapi"
	"github.com/ysakae/vidup/internal/youtubeapi"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagProfile    string
	flagJSON       bool
	flagVerbose    bool
	flagDebug      bool
	flagQuiet      bool
	flagDryRun     bool
	flagForce      bool
)

// skipConfigAnnotation marks commands that handle config loading themselves.
const skipConfigAnnotation = "skipConfig"

// CLIContext bundles resolved config, logger, and profile bookkeeping, built
// once in PersistentPreRunE and threaded through cmd.Context() so no command
// handler constructs its own config or logger.
type CLIContext struct {
	Cfg         *config.Config
	CfgPath     string
	Logger      *slog.Logger
	ProfileBook *config.ProfileBook
	Profile     string
	JSON        bool
	Quiet       bool
	DryRun      bool
	Force       bool
}

// Statusf prints a status message to stderr unless quiet mode is set.
func (cc *CLIContext) Statusf(format string, args ...any) {
	statusf(cc.Quiet, format, args...)
}

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// cliContextFrom extracts the CLIContext from the command's context. Returns
// nil if no config was loaded (e.g. commands annotated with
// skipConfigAnnotation).
func cliContextFrom(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		return nil
	}

	return cc
}

// mustCLIContext extracts the CLIContext or panics with an actionable
// message. A nil result here is always a programmer error — the command
// tree guarantees the context is populated by PersistentPreRunE before RunE
// runs, unless a command opts out via skipConfigAnnotation.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc := cliContextFrom(ctx)
	if cc == nil {
		panic("BUG: CLIContext not found in context — ensure the command " +
			"does not carry skipConfigAnnotation, or loads config itself")
	}

	return cc
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vidup",
		Short:   "Bulk video upload orchestrator for YouTube",
		Long:    "Walks a directory tree, dedups against upload history, and uploads videos to YouTube with resumable chunked transfer, classified retry, and cooperative quota halting.",
		Version: version,
		// Silence Cobra's default error/usage printing; we print our own.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}

			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "credential profile name (default: active profile)")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show detailed output")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging (HTTP requests, chunk detail)")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")
	cmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "preview metadata without uploading")
	cmd.PersistentFlags().BoolVar(&flagForce, "force", false, "skip confirmation prompts")

	cmd.MarkFlagsMutuallyExclusive("verbose", "debug", "quiet")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newQuotaCmd())
	cmd.AddCommand(newRetryCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newPlaylistCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the three-layer
// override chain (CLI flag > env var > platform default) and stores the
// result in the command's context for use by subcommands.
func loadConfig(cmd *cobra.Command) error {
	// Bootstrap logger derived from CLI flags only; config doesn't exist yet.
	logger := buildLogger(nil)

	env := config.ReadEnvOverrides()
	cli := config.CLIOverrides{ConfigPath: flagConfigPath, Profile: flagProfile}

	if cmd.Flags().Changed("dry-run") {
		cli.DryRun = &flagDryRun
	}

	if cmd.Flags().Changed("force") {
		cli.Force = &flagForce
	}

	cfgPath := config.ResolveConfigPath(env, cli, logger)

	cfg, err := config.LoadOrDefault(cfgPath, logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	finalLogger := buildLogger(cfg)

	profileBook := config.NewProfileBook(config.DefaultDataDir())
	if err := profileBook.MigrateLegacyToken(cfg.Auth.TokenFile); err != nil {
		finalLogger.Warn("legacy token migration failed", "error", err)
	}

	profile := flagProfile
	if profile == "" {
		profile, err = profileBook.ActiveProfile()
		if err != nil {
			return fmt.Errorf("resolving active profile: %w", err)
		}
	}

	cc := &CLIContext{
		Cfg:         cfg,
		CfgPath:     cfgPath,
		Logger:      finalLogger,
		ProfileBook: profileBook,
		Profile:     profile,
		JSON:        flagJSON,
		Quiet:       flagQuiet,
		DryRun:      flagDryRun,
		Force:       flagForce,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cc))

	return nil
}

// buildLogger creates an slog.Logger configured by the loaded config and CLI
// flags. Pass nil for the pre-config bootstrap logger (no config-file log
// level available yet). The config file's log level is the baseline;
// --verbose, --debug, and --quiet override it, since CLI flags always win
// and Cobra enforces they're mutually exclusive. "auto" log format picks
// text for an interactive terminal and JSON otherwise (piped to a file or
// log collector).
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	format := "auto"

	if cfg != nil {
		switch cfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		}

		if cfg.Logging.LogFormat != "" {
			format = cfg.Logging.LogFormat
		}
	}

	if flagVerbose {
		level = slog.LevelInfo
	}

	if flagDebug {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if format == "json" || (format == "auto" && !isatty.IsTerminal(os.Stderr.Fd())) {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// exitOnError prints a user-friendly error message to stderr and exits with
// status 1, the sole "unrecoverable" exit code for maintenance commands.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// resolveClientSecretsPath resolves cfg.Auth.ClientSecretsFile relative to
// the config file's directory when it isn't already absolute, so a bare
// filename in config.toml is found next to it rather than relative to
// whatever directory the CLI happens to be invoked from.
func resolveClientSecretsPath(cc *CLIContext) string {
	path := cc.Cfg.Auth.ClientSecretsFile
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(filepath.Dir(cc.CfgPath), path)
}

// resolveCredentials loads the active profile's saved OAuth token and
// returns an auto-refreshing, auto-persisting Credentials handle.
func resolveCredentials(ctx context.Context, cc *CLIContext) (youtubeapi.Credentials, error) {
	oauthCfg, err := youtubeapi.LoadOAuthConfig(resolveClientSecretsPath(cc), cc.Cfg.Auth.Scopes)
	if err != nil {
		return youtubeapi.Credentials{}, err
	}

	tokenPath := cc.ProfileBook.TokenPath(cc.Profile)

	creds, err := youtubeapi.TokenSourceFromFile(ctx, oauthCfg, tokenPath, cc.Logger)
	if err != nil {
		if errors.Is(err, youtubeapi.ErrNotLoggedIn) {
			return youtubeapi.Credentials{}, fmt.Errorf("not logged in for profile %q — run 'vidup login' first", cc.Profile)
		}

		return youtubeapi.Credentials{}, err
	}

	return creds, nil
}

// openHistoryStore opens the configured history database, resolved relative
// to the config file's directory when HistoryDB isn't already absolute.
func openHistoryStore(ctx context.Context, cc *CLIContext) (*history.Store, error) {
	path := cc.Cfg.HistoryDB
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(cc.CfgPath), path)
	}

	store, err := history.Open(ctx, path, cc.Logger)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}

	return store, nil
}

// coreDeps bundles the collaborators every orchestrator-driving command
// needs: the history store, the classified-retry upload driver, the
// metadata builder, and the playlist cache. Callers are responsible for
// closing store.
type coreDeps struct {
	store     *history.Store
	driver    *upload.Driver
	meta      *metadata.Builder
	playlists *playlist.Cache
}

// buildCoreDeps wires the composition root: resolves credentials, opens the
// history store, and constructs the upload driver, metadata builder, and
// playlist cache over the real YouTube Data API v3.
func buildCoreDeps(ctx context.Context, cc *CLIContext) (*coreDeps, error) {
	creds, err := resolveCredentials(ctx, cc)
	if err != nil {
		return nil, err
	}

	store, err := openHistoryStore(ctx, cc)
	if err != nil {
		return nil, err
	}

	remote := youtubeapi.NewDriver(nil, cc.Cfg.Upload.PrivacyStatus, "", "")

	var uploadCreds videoapi.Credentials = creds

	driver := upload.NewDriver(remote, uploadCreds, cc.Cfg.Upload.RetryCount, cc.Logger)
	meta := metadata.NewBuilder(cc.Cfg.Metadata.TitleTemplate, cc.Cfg.Metadata.DescriptionTemplate, cc.Cfg.Metadata.Tags, cc.Logger)
	playlists := playlist.NewCache(remote, creds)

	return &coreDeps{store: store, driver: driver, meta: meta, playlists: playlists}, nil
}

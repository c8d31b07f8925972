package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/ysakae/vidup/internal/config"
	"github.com/ysakae/vidup/internal/youtubeapi"
)

// openBrowser attempts to open a URL in the user's default browser. Uses
// "open" on macOS and "xdg-open" on Linux. Returns an error if the browser
// command fails or the platform is unsupported; callers fall back to
// printing the URL for the user to open manually.
func openBrowser(rawURL string) error {
	ctx := context.Background()

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", rawURL)
	case "linux":
		cmd = exec.CommandContext(ctx, "xdg-open", rawURL)
	default:
		return fmt.Errorf("unsupported platform %s: open the URL manually", runtime.GOOS)
	}

	return cmd.Start()
}

func newLoginCmd() *cobra.Command {
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize vidup against a YouTube account",
		Long:  "Runs Google's out-of-band authorization-code flow: opens (or prints) an authorization URL, then exchanges the code you paste back for a token saved under the active profile.",
		Annotations: map[string]string{
			skipConfigAnnotation: "true",
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, noBrowser)
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "print the authorization URL instead of opening it")

	return cmd
}

func runLogin(cmd *cobra.Command, noBrowser bool) error {
	logger := buildLogger(nil)

	env := config.ReadEnvOverrides()
	cli := config.CLIOverrides{ConfigPath: flagConfigPath, Profile: flagProfile}
	cfgPath := config.ResolveConfigPath(env, cli, logger)

	cfg, err := config.LoadOrDefault(cfgPath, logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	secretsPath := resolveClientSecretsPath(&CLIContext{Cfg: cfg, CfgPath: cfgPath})

	oauthCfg, err := youtubeapi.LoadOAuthConfig(secretsPath, cfg.Auth.Scopes)
	if err != nil {
		return err
	}

	authURL := oauthCfg.AuthCodeURL("vidup", oauth2.AccessTypeOffline)

	fmt.Fprintf(os.Stderr, "To sign in, visit this URL:\n\n%s\n\n", authURL)

	if !noBrowser {
		if err := openBrowser(authURL); err != nil {
			logger.Debug("could not open browser automatically", "error", err)
		}
	}

	fmt.Fprint(os.Stderr, "Enter the authorization code: ")

	reader := bufio.NewReader(os.Stdin)

	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading authorization code: %w", err)
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("no authorization code entered")
	}

	tok, err := oauthCfg.Exchange(cmd.Context(), code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	profileBook := config.NewProfileBook(config.DefaultDataDir())
	if err := profileBook.MigrateLegacyToken(cfg.Auth.TokenFile); err != nil {
		logger.Warn("legacy token migration failed", "error", err)
	}

	profile := flagProfile
	if profile == "" {
		profile = config.DefaultProfileName
	}

	if err := youtubeapi.SaveToken(profileBook.TokenPath(profile), tok); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	if err := profileBook.SetActiveProfile(profile); err != nil {
		return fmt.Errorf("setting active profile: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Logged in. Credentials saved under profile %q.\n", profile)

	return nil
}

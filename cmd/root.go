// ABOUTME: Root command for the networkhub CLI
// ABOUTME: Handles global flags, configuration, and launching the TUI

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/search"
	"github.com/markalston/networkhub/internal/session"
	"github.com/markalston/networkhub/internal/tui"
	"github.com/markalston/networkhub/internal/tui/debuglog"
	"github.com/markalston/networkhub/internal/tui/recentfiles"
	"github.com/spf13/cobra"
)

var (
	apiURL     string
	configDir  string
	jsonOutput bool
)

const defaultAPIURL = "http://localhost:5000"

// Exit codes
const (
	exitOK       = 0
	exitRejected = 1 // not signed in, or the server said no
	exitFailure  = 2 // transport or usage error
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "networkhub",
	Short: "Terminal client for the NetworkHub social network",
	Long: `networkhub is a terminal client for NetworkHub.

Run without a subcommand to start the interactive TUI.

Environment Variables:
  NETWORKHUB_API_URL          Backend API URL (default: http://localhost:5000)
  NETWORKHUB_CONFIG_DIR       Session and settings directory (default: $XDG_CONFIG_HOME/networkhub)
  NETWORKHUB_PICTURES_DIR     Directory browsed by the image picker (default: ~/Pictures)
  NETWORKHUB_SEARCH_DEBOUNCE  Quiet period before a search is sent (default: 300ms)
  LOG_LEVEL                   debug, info, warn, error (default: info)
  LOG_FORMAT                  text, json (default: text)

A .env file in the working directory is read first.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := GetConfigDir()
		logger, err := debuglog.Init(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: debug log disabled: %v\n", err)
		}
		defer debuglog.Close()

		c := client.New(GetAPIURL())
		return tui.Run(tui.Config{
			Client:         c,
			Session:        newStore(c, logger),
			ConfigDir:      dir,
			PicturesDir:    os.Getenv("NETWORKHUB_PICTURES_DIR"),
			SearchDebounce: searchDebounce(logger),
			Logger:         logger,
		})
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(loadDotEnv)

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides NETWORKHUB_API_URL)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (overrides NETWORKHUB_CONFIG_DIR)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// loadDotEnv reads .env from the working directory; a missing file is fine
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env: %v\n", err)
	}
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	if envURL := os.Getenv("NETWORKHUB_API_URL"); envURL != "" {
		return envURL
	}
	return defaultAPIURL
}

// GetConfigDir returns the config directory from flag, env, or XDG default
func GetConfigDir() string {
	if configDir != "" {
		return configDir
	}
	if envDir := os.Getenv("NETWORKHUB_CONFIG_DIR"); envDir != "" {
		return envDir
	}
	return recentfiles.DefaultConfigDir()
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// searchDebounce reads NETWORKHUB_SEARCH_DEBOUNCE, falling back to the default
func searchDebounce(logger *slog.Logger) time.Duration {
	raw := os.Getenv("NETWORKHUB_SEARCH_DEBOUNCE")
	if raw == "" {
		return search.DefaultDebounce
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Warn("ignoring invalid search debounce", "value", raw)
		return search.DefaultDebounce
	}
	return d
}

func newStore(c *client.Client, logger *slog.Logger) *session.Store {
	return session.New(c, session.NewFileStorage(GetConfigDir()), session.WithLogger(logger))
}

// signedIn restores the stored session for one-shot commands
func signedIn(ctx context.Context, c *client.Client) (*session.Store, error) {
	store := newStore(c, debuglog.Logger())
	if err := store.Initialize(ctx); err != nil {
		return nil, err
	}
	if !store.Authenticated() {
		return nil, session.ErrNoSession
	}
	return store, nil
}

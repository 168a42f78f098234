package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/iksnae/signbridge/internal"
	"github.com/iksnae/signbridge/internal/backend"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	serverURL  string
	dataDir    string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// pollIntervalOverride bypasses the configured poll interval when non-zero
var pollIntervalOverride time.Duration

// errReported marks errors whose message was already printed to the user
var errReported = errors.New("already reported")

// skipBootstrap is the annotation for commands that build their own state
const skipBootstrap = "skip-bootstrap"

// app is the per-invocation wiring shared by every subcommand
type app struct {
	cfg     *internal.Config
	store   internal.Store
	creds   *internal.CredentialStore
	prefs   *internal.Preferences
	session *internal.SessionController
	client  *backend.Client
	engine  *internal.TaskEngine
	history *internal.History
	saved   *internal.SavedCache
	gate    *internal.Gate
	prompt  *cliPrompter
}

var current *app

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "signbridge",
	Short: "Translate sign-language videos to text",
	Long: `A command line client for the sign-language translation service.

Upload a signing video, follow the translation while the server processes it,
and keep the results you care about.

Features:
  • Translate videos with live progress (Ctrl-C cancels the task)
  • Recent history of your last 5 translations, kept on this device
  • Saved translations synced to your account
  • Export history and saved translations (JSON, JSONL, YAML, Markdown)

Quick Start:
  signbridge login --email you@example.com
  signbridge translate clip.mp4 --to fr
  signbridge saved list`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)
		if cmd.Annotations[skipBootstrap] == "true" {
			return nil
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		current = a
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	closeApp()
	if err != nil {
		if !errors.Is(err, errReported) {
			internal.PrintError(fmt.Sprintf("Error: %v", err))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/signbridge/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Translation server URL (overrides config and "+internal.EnvServer+")")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for the session store and history (overrides config and "+internal.EnvDataDir+")")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig resolves the configuration with flags taking priority
func loadConfig() (*internal.Config, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.Server = serverURL
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if pollIntervalOverride > 0 {
		cfg.PollInterval = pollIntervalOverride
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var store internal.Store
	sqlite, err := internal.OpenStore(cfg.DatabasePath())
	if err != nil {
		// Recoverable: the session starts signed out and writes report the failure
		internal.LogError("Session store %s unavailable, continuing signed out: %v", cfg.DatabasePath(), err)
		store = &internal.UnavailableStore{Err: err}
	} else {
		store = sqlite
	}

	client := backend.New(cfg.Server, cfg.RequestTimeout)
	creds := internal.NewCredentialStore(store)
	prefs := internal.NewPreferences(store)
	session := internal.NewSessionController(creds, client)

	a := &app{
		cfg:     cfg,
		store:   store,
		creds:   creds,
		prefs:   prefs,
		session: session,
		client:  client,
		engine:  internal.NewTaskEngine(client, internal.WithPollInterval(cfg.PollInterval)),
		history: internal.NewHistory(cfg.DataDir, prefs),
		saved:   internal.NewSavedCache(client, session),
	}
	a.prompt = newPrompter(cmd)
	a.gate = &internal.Gate{Session: session, Prompter: a.prompt}

	state := session.Bootstrap(cmd.Context())
	internal.LogDebug("Server %s, session %s", cfg.Server, state.Phase)
	return a, nil
}

// closeApp stops any polling and releases the store
func closeApp() {
	if current == nil {
		return
	}
	current.engine.Close()
	if err := current.store.Close(); err != nil {
		internal.LogWarn("Failed to close session store: %v", err)
	}
	current = nil
}

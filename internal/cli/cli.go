// Package cli implements the pzmod command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pzmod/internal/config"
	"github.com/matzehuels/pzmod/pkg/buildinfo"
	"github.com/matzehuels/pzmod/pkg/errors"
	"github.com/matzehuels/pzmod/pkg/serverconfig"
	"github.com/matzehuels/pzmod/pkg/steam"
	"github.com/matzehuels/pzmod/pkg/workshop"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "pzmod"

	// apiKeyURL is where users obtain a Steam Web API key.
	apiKeyURL = "https://steamcommunity.com/dev/apikey"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Settings is resolved in the root PersistentPreRunE.
	Settings *config.Config

	flags globalFlags

	// prompter drives interactive input; replaced in tests.
	prompter prompter
	// client overrides the Steam client; replaced in tests.
	client  workshop.DetailsClient
	fetcher *workshop.Fetcher
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	file       string
	apiKey     string
	noBackup   bool
	backupDir  string
	verbose    bool
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:   newLogger(w, level),
		prompter: teaPrompter{},
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// Run without a subcommand it starts the interactive session.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "pzmod --file <server config>",
		Short: "pzmod manages Project Zomboid server mods",
		Long: `pzmod edits the mod list of a Project Zomboid server config (e.g. servertest.ini)
and checks it against the Steam Workshop for unknown mods, unused mod IDs and
missing dependencies.`,
		Example: `  pzmod --file servertest.ini
  pzmod --file servertest.ini mods list
  pzmod --file servertest.ini get name
  pzmod --file servertest.ini set name "My Server"`,
		Version:           buildinfo.Get().Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInteractive(cmd.Context())
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVarP(&c.flags.file, "file", "f", "", "server config file path")
	pf.StringVar(&c.flags.apiKey, "api-key", "", "Steam Web API key (overrides the stored key)")
	pf.BoolVar(&c.flags.noBackup, "no-backup", false, "do not back up the server config before reading it")
	pf.StringVar(&c.flags.backupDir, "backup-dir", "", "directory for server config backups (default: home directory)")
	pf.BoolVarP(&c.flags.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&c.flags.configPath, "config", "", "pzmod settings file (default: $XDG_CONFIG_HOME/pzmod/config.toml)")
	_ = root.MarkPersistentFlagFilename("file", "ini")

	root.AddCommand(c.getCommand())
	root.AddCommand(c.setCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.modsCommand())
	root.AddCommand(c.saveToCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup resolves settings, adjusts the log level and binds the library
// hooks to the logger.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(config.LoadOptions{
		Path:  c.flags.configPath,
		Flags: cmd.Flags(),
	})
	if err != nil {
		return err
	}
	c.Settings = settings

	if level, err := log.ParseLevel(settings.LogLevel); err == nil {
		c.SetLogLevel(level)
	} else {
		c.Logger.Warnf("Unknown log level %q, using info", settings.LogLevel)
	}
	bindHooks(c.Logger)

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Server Config
// =============================================================================

// configFile returns the absolute --file path. ok is false, after telling the
// user, when the flag is missing or the file does not exist.
func (c *CLI) configFile() (path string, ok bool) {
	if c.flags.file == "" {
		printInfo("Please use --file to specify the path to a Project Zomboid server config (e.g. servertest.ini)")
		return "", false
	}
	path, err := filepath.Abs(c.flags.file)
	if err != nil {
		path = c.flags.file
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		printError("File not found: %s", path)
		return "", false
	}
	return path, true
}

// loadConfig reads the server config named by --file, writing a backup first
// unless disabled.
func (c *CLI) loadConfig(ctx context.Context) (doc *serverconfig.Document, path string, ok bool, err error) {
	path, ok = c.configFile()
	if !ok {
		return nil, "", false, nil
	}

	opts := serverconfig.LoadOptions{Backup: true}
	if c.Settings != nil {
		opts.Backup = c.Settings.Backup
		opts.BackupDir = c.Settings.BackupDir
	}
	doc, err = serverconfig.Load(path, opts)
	if err != nil {
		return nil, path, true, err
	}
	if opts.Backup {
		loggerFromContext(ctx).Debug("Backup written", "path", serverconfig.BackupPath(opts.BackupDir, path))
	}
	return doc, path, true, nil
}

// =============================================================================
// Workshop
// =============================================================================

// workshopFetcher returns the session's fetcher, creating it on first use.
// All commands of one process share the same cache.
func (c *CLI) workshopFetcher() (*workshop.Fetcher, error) {
	if c.fetcher != nil {
		return c.fetcher, nil
	}
	client := c.client
	if client == nil {
		if c.Settings == nil || c.Settings.APIKey == "" {
			return nil, errors.New(errors.ErrCodeUnauthorized,
				"no Steam API key configured; run `%s config set-key` or pass --api-key (get one at %s)", appName, apiKeyURL)
		}
		client = steam.NewClient(c.Settings.APIKey, steam.WithTimeout(c.Settings.RequestTimeout))
	}
	c.fetcher = workshop.NewFetcher(client, workshop.NewCache())
	return c.fetcher, nil
}

// resetFetcher drops the fetcher so that a new API key takes effect.
func (c *CLI) resetFetcher() {
	c.fetcher = nil
}

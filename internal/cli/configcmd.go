package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pzmod/internal/config"
	"github.com/matzehuels/pzmod/pkg/errors"
)

// configCommand creates the config command group for pzmod's own settings.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pzmod settings and the Steam API key",
	}

	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configSetKeyCommand())
	cmd.AddCommand(c.configDeleteKeyCommand())

	return cmd
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Settings.Encode(stdout, reveal)
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "print the API key unmasked")

	return cmd
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.settingsPath()
			if err != nil {
				return err
			}
			printFile(path)
			return nil
		},
	}
}

// configSetKeyCommand creates the "config set-key" subcommand.
func (c *CLI) configSetKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key [key]",
		Short: "Store the Steam Web API key",
		Long:  "Store the Steam Web API key. Without an argument the key is read from a masked prompt.\n\nGet a key at " + apiKeyURL,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				var err error
				if key, err = c.prompter.Input(cmd.Context(), "Steam API key:", true); err != nil {
					return err
				}
			}
			return c.storeAPIKey(cmd.Context(), key)
		},
	}
}

// configDeleteKeyCommand creates the "config delete-key" subcommand.
func (c *CLI) configDeleteKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-key",
		Short: "Remove the stored Steam Web API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.settingsPath()
			if err != nil {
				return err
			}
			if err := config.SetAPIKey(path, ""); err != nil {
				return err
			}
			c.Settings.APIKey = ""
			c.resetFetcher()
			printWarning("API key deleted")
			return nil
		},
	}
}

// storeAPIKey validates key, writes it to the settings file and makes it
// the active key.
func (c *CLI) storeAPIKey(ctx context.Context, key string) error {
	if err := errors.ValidateAPIKey(key); err != nil {
		return err
	}
	path, err := c.settingsPath()
	if err != nil {
		return err
	}
	if err := config.SetAPIKey(path, key); err != nil {
		return err
	}
	if c.Settings == nil {
		defaults := config.Default()
		c.Settings = &defaults
	}
	c.Settings.APIKey = key
	c.resetFetcher()
	loggerFromContext(ctx).Debug("API key stored", "path", path)
	printSuccess("API key set successfully")
	return nil
}

func (c *CLI) settingsPath() (string, error) {
	if c.flags.configPath != "" {
		return c.flags.configPath, nil
	}
	return config.Path()
}

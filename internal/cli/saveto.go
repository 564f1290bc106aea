package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pzmod/pkg/errors"
)

// saveToCommand creates the save-to command.
func (c *CLI) saveToCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "save-to <path>",
		Aliases: []string{"copy"},
		Short:   "Write the server config to another path",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, ok, err := c.loadConfig(cmd.Context())
			if !ok || err != nil {
				return err
			}
			target, err := filepath.Abs(args[0])
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid path %s", args[0])
			}
			if _, err := os.Stat(target); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidInput, "file %s already exists (use --force to overwrite)", target)
			}
			return saveConfig(doc, target)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
